// Package pipeline runs the content build stages in order against one
// working root: ingest, flatten, index, articles, enumerate and render,
// followed by the post-render steps (manifest, history, publish, notify,
// metrics).
//
// Every invocation owns a Run that carries the state handed from one stage
// to the next. Nothing is kept in package globals, so one process may
// execute many runs (watch and schedule modes).
package pipeline

// Package ingest pulls documentation trees out of external git repositories
// into the working root.
//
// Sources are processed one after another. Each is shallow-cloned into a
// scratch workspace, then every mapping replaces its target directory with the
// filtered contents of the mapping's source subtree. A clone failure aborts the
// whole ingestion; the scratch workspace is removed on every exit path.
package ingest

// Package workspace manages the scratch directory that holds temporary clones
// during ingestion. A workspace is always removed by Cleanup, which callers
// defer immediately after Create so every exit path releases it.
package workspace

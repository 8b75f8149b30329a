// Package render produces one preview artifact per entity with a fixed-size
// worker pool. A failing entity is recorded in its Result and never stops
// the batch.
package render

// Package media flattens image assets scattered across content trees into one
// shared directory keyed by base name.
//
// Two different files flattening to the same name are a conflict: the run
// aborts and the output directory is left empty rather than half populated.
package media

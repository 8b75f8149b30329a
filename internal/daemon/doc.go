// Package daemon drives repeated pipeline runs: on an interval (Scheduler)
// or when watched content changes (Watcher). Both run at most one task at a
// time.
package daemon

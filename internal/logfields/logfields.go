package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyRepo       = "repository"
	KeyBranch     = "branch"
	KeySection    = "section"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyName       = "name"
	KeyFile       = "file"
	KeyTarget     = "target"
	KeyEntity     = "entity"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Repository(r string) slog.Attr   { return slog.String(KeyRepo, r) }
func Branch(b string) slog.Attr       { return slog.String(KeyBranch, b) }
func Section(s string) slog.Attr      { return slog.String(KeySection, s) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Name(n string) slog.Attr         { return slog.String(KeyName, n) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Target(t string) slog.Attr       { return slog.String(KeyTarget, t) }
func Entity(slug string) slog.Attr    { return slog.String(KeyEntity, slug) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

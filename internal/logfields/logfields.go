package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyDomain     = "domain"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyPort       = "port"
	KeyPID        = "pid"
	KeyWord       = "word"
	KeyTitle      = "title"
	KeyStage      = "stage"
	KeyStatus     = "status"
	KeyLine       = "line"
	KeyURL        = "url"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Domain(d string) slog.Attr       { return slog.String(KeyDomain, d) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Port(p int) slog.Attr            { return slog.Int(KeyPort, p) }
func PID(pid int) slog.Attr           { return slog.Int(KeyPID, pid) }
func Word(w string) slog.Attr         { return slog.String(KeyWord, w) }
func Title(t string) slog.Attr        { return slog.String(KeyTitle, t) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Status(s string) slog.Attr       { return slog.String(KeyStatus, s) }
func Line(n int) slog.Attr            { return slog.Int(KeyLine, n) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"RunID", KeyRunID, "r1", RunID("r1")},
		{"Domain", KeyDomain, "acme.test", Domain("acme.test")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"File", KeyFile, "App.jsx", File("App.jsx")},
		{"Word", KeyWord, "Fast", Word("Fast")},
		{"Title", KeyTitle, "New Biz", Title("New Biz")},
		{"Stage", KeyStage, "copy", Stage("copy")},
		{"Status", KeyStatus, "built", Status("built")},
		{"URL", KeyURL, "https://example", URL("https://example")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

// TestNumericHelpers verifies keys for numeric helpers.
func TestNumericHelpers(t *testing.T) {
	if v := Port(3001); v.Key != KeyPort || v.Value.Int64() != 3001 {
		t.Fatalf("Port mismatch: %v", v)
	}
	if v := PID(42); v.Key != KeyPID {
		t.Fatalf("PID key mismatch: %s", v.Key)
	}
	if v := Line(7); v.Key != KeyLine {
		t.Fatalf("Line key mismatch: %s", v.Key)
	}
	if v := Count(3); v.Key != KeyCount {
		t.Fatalf("Count key mismatch: %s", v.Key)
	}
	if v := DurationMS(12.5); v.Key != KeyDurationMS {
		t.Fatalf("DurationMS key mismatch: %s", v.Key)
	}
}

// TestErrorHelper ensures Error() handles nil and non-nil errors predictably.
func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	if attr.Key != KeyError {
		t.Fatalf("Error key mismatch: %s", attr.Key)
	}
	if attr.Value.String() != "" {
		t.Fatalf("Expected empty error string, got %s", attr.Value.String())
	}
	if got := Error(errors.New("boom")).Value.String(); got != "boom" {
		t.Fatalf("Expected boom, got %s", got)
	}
}

package idempotency

import "testing"

func TestGenerateKeyDeterministic(t *testing.T) {
	key1 := GenerateKey("CMS68v14", "2026-01-01", "2026-12-31", []string{"p1", "p2"})
	key2 := GenerateKey("CMS68v14", "2026-01-01", "2026-12-31", []string{"p1", "p2"})

	if key1 != key2 {
		t.Error("same inputs should produce same key")
	}
	if len(key1) != 64 {
		t.Errorf("expected sha256 hex digest, got %d chars", len(key1))
	}
}

func TestGenerateKeyPatientOrderIrrelevant(t *testing.T) {
	key1 := GenerateKey("CMS68v14", "2026-01-01", "2026-12-31", []string{"p2", "p1"})
	key2 := GenerateKey("CMS68v14", "2026-01-01", "2026-12-31", []string{"p1", "p2"})

	if key1 != key2 {
		t.Error("patient order must not change the key")
	}
}

func TestGenerateKeyDistinguishesInputs(t *testing.T) {
	base := GenerateKey("CMS68v14", "2026-01-01", "2026-12-31", []string{"p1"})

	if base == GenerateKey("CMS68v14", "2026-01-01", "2026-12-31", []string{"p1", "p2"}) {
		t.Error("different patient lists should produce different keys")
	}
	if base == GenerateKey("CMS68v14", "2027-01-01", "2027-12-31", []string{"p1"}) {
		t.Error("different periods should produce different keys")
	}
}

func TestGenerateKeyDoesNotMutateInput(t *testing.T) {
	ids := []string{"z", "a"}
	GenerateKey("CMS68v14", "2026-01-01", "2026-12-31", ids)
	if ids[0] != "z" || ids[1] != "a" {
		t.Errorf("caller slice was reordered: %v", ids)
	}
}

func TestIsTerminalError(t *testing.T) {
	cases := []struct {
		msg      string
		terminal bool
	}{
		{"validation failed: bad payload", true},
		{"unsupported measure: CMS2v13", true},
		{"missing required input: period_start", true},
		{"malformed dateTime", true},
		{"connection refused", false},
		{"context deadline exceeded", false},
	}

	for _, tc := range cases {
		if got := isTerminalError(errMsg(tc.msg)); got != tc.terminal {
			t.Errorf("isTerminalError(%q) = %v, want %v", tc.msg, got, tc.terminal)
		}
	}
}

type errMsg string

func (e errMsg) Error() string { return string(e) }

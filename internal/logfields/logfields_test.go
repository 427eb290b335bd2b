package logfields

import (
	"errors"
	"testing"
	"time"
)

func TestHelpers(t *testing.T) {
	if a := PlayerID("p1"); a.Key != KeyPlayerID || a.Value.String() != "p1" {
		t.Fatalf("PlayerID attr mismatch: %+v", a)
	}
	if a := Table("farms"); a.Key != KeyTable || a.Value.String() != "farms" {
		t.Fatalf("Table attr mismatch: %+v", a)
	}
	if a := Rows(7); a.Key != KeyRows || a.Value.Int64() != 7 {
		t.Fatalf("Rows attr mismatch: %+v", a)
	}
	if a := Duration(1500 * time.Microsecond); a.Key != KeyDurationMS || a.Value.Float64() != 1.5 {
		t.Fatalf("Duration attr mismatch: %+v", a)
	}
	if a := Error(nil); a.Value.String() != "" {
		t.Fatalf("expected empty error string, got %q", a.Value.String())
	}
	if a := Error(errors.New("boom")); a.Key != KeyError || a.Value.String() != "boom" {
		t.Fatalf("Error attr mismatch: %+v", a)
	}
}

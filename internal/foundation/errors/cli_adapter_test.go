package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad id").Build(), expected: 2},
		{name: "config", err: ConfigError("bad driver").Build(), expected: 7},
		{name: "format", err: FormatError("bad row").Build(), expected: 9},
		{name: "io", err: IOError("disk full").Build(), expected: 11},
		{name: "wrapped format", err: fmt.Errorf("load farms: %w", FormatError("bad row").Build()), expected: 9},
		{name: "unclassified", err: errors.New("boom"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("expected exit code %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, slog.Default())
	verbose := NewCLIErrorAdapter(true, slog.Default())
	internal := InternalError("nil repository").Build()

	if got := quiet.FormatError(internal); got != "Internal error occurred (use -v for details)" {
		t.Errorf("unexpected quiet message %q", got)
	}
	if got := verbose.FormatError(internal); got != "Error: "+internal.Error() {
		t.Errorf("unexpected verbose message %q", got)
	}
	if got := quiet.FormatError(nil); got != "" {
		t.Errorf("expected empty message for nil, got %q", got)
	}
}

package normalization

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type backend string

const (
	backendFile   backend = "file"
	backendRemote backend = "remote"
)

func TestNormalizer(t *testing.T) {
	n := NewNormalizer(map[string]backend{
		"file":   backendFile,
		"Remote": backendRemote,
	}, backendFile)

	tests := []struct {
		input string
		want  backend
	}{
		{"file", backendFile},
		{"  REMOTE ", backendRemote},
		{"remote", backendRemote},
		{"tape", backendFile},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, tt.want, n.Normalize(tt.input))
		})
	}

	_, err := n.NormalizeWithError("tape")
	require.ErrorContains(t, err, "valid options: [file remote]")
	require.Equal(t, []string{"file", "remote"}, n.ValidKeys())
}

func TestEnumNormalizer(t *testing.T) {
	e := NewEnumNormalizer("backend", map[string]backend{"file": backendFile}, backendFile)

	v, err := e.NormalizeWithValidation(" FILE")
	require.NoError(t, err)
	require.Equal(t, backendFile, v)

	_, err = e.NormalizeWithValidation("tape")
	require.ErrorContains(t, err, "invalid backend")
	require.Equal(t, []string{"file"}, e.ValidValues())
}

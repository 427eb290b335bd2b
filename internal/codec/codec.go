// Package codec converts aggregates to and from the single text column each
// store row holds.
package codec

import (
	"encoding/json"

	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
)

// Codec encodes one aggregate per row.
type Codec[T any] interface {
	Encode(v T) (string, error)
	Decode(row string) (T, error)
}

func marshal(kind string, v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", ferrors.InternalError("encode " + kind).WithCause(err).Build()
	}
	return string(b), nil
}

func unmarshal(kind, row string, v any) error {
	if err := json.Unmarshal([]byte(row), v); err != nil {
		return ferrors.FormatError("decode "+kind).
			WithCause(err).
			WithContext("row", truncate(row, 120)).
			Build()
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Package errors provides the classified error primitives used across farmworlds.
//
// Every failure that crosses a package boundary is a ClassifiedError carrying a
// category, a severity and a retry strategy, so callers can decide whether a
// failure aborts startup (format errors while loading a table), fails a single
// operation (store writes) or should just be shown to the player (insufficient
// items or balance).
//
//	err := errors.FormatError("invalid single task field count").
//		WithContext("raw", raw).
//		WithContext("fields", len(parts)).
//		Build()
package errors

package task

import (
	"math"
	"strconv"
	"strings"

	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
)

const (
	singlePrefix    = "singletask@"
	compositePrefix = "multitask#"
	childSeparator  = ';'
	clientSeparator = ':'
	singleFields    = 5
)

// Parse decodes a task line. Lines with an unknown discriminator decode to
// (nil, nil) so records written by newer versions can be skipped.
func Parse(s string) (Task, error) {
	switch {
	case strings.HasPrefix(s, singlePrefix):
		return ParseSingle(s)
	case strings.HasPrefix(s, compositePrefix):
		return ParseComposite(s)
	default:
		return nil, nil
	}
}

// ParseSingle decodes a "singletask@..." line.
func ParseSingle(s string) (SingleTask, error) {
	payload, ok := strings.CutPrefix(s, singlePrefix)
	if !ok {
		return SingleTask{}, formatErr("missing single task discriminator", s).Build()
	}
	fields := strings.Split(payload, ",")
	if len(fields) != singleFields {
		return SingleTask{}, formatErr("invalid single task field count", s).
			WithContext("fields", len(fields)).
			Build()
	}
	amount, err := strconv.Atoi(fields[1])
	if err != nil {
		return SingleTask{}, formatErr("invalid single task amount", s).WithCause(err).Build()
	}
	reward, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return SingleTask{}, formatErr("invalid single task reward", s).WithCause(err).Build()
	}
	t, err := NewSingleTask(fields[0], fields[2], amount, reward, fields[4])
	if err != nil {
		return SingleTask{}, formatErr("invalid single task", s).WithCause(err).Build()
	}
	return t, nil
}

// ParseComposite decodes a "multitask#..." line.
func ParseComposite(s string) (CompositeTask, error) {
	payload, ok := strings.CutPrefix(s, compositePrefix)
	if !ok {
		return CompositeTask{}, formatErr("missing composite task discriminator", s).Build()
	}
	parts := strings.Split(payload, string(clientSeparator))
	if len(parts) != 2 {
		return CompositeTask{}, formatErr("invalid composite task layout", s).
			WithContext("sections", len(parts)).
			Build()
	}
	var children []SingleTask
	for _, raw := range strings.Split(parts[0], string(childSeparator)) {
		if raw == "" {
			continue
		}
		child, err := ParseSingle(raw)
		if err != nil {
			return CompositeTask{}, err
		}
		children = append(children, child)
	}
	t, err := NewCompositeTask(children, parts[1])
	if err != nil {
		return CompositeTask{}, formatErr("invalid composite task", s).WithCause(err).Build()
	}
	return t, nil
}

func formatErr(message, raw string) *ferrors.ErrorBuilder {
	return ferrors.FormatError(message).WithContext("raw", raw)
}

// formatReward keeps the ".0" suffix on whole rewards so lines stay readable by
// older readers that expect a decimal point.
func formatReward(r float64) string {
	if r == math.Trunc(r) && math.Abs(r) < 1e15 {
		return strconv.FormatFloat(r, 'f', 1, 64)
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func itoa(n int) string { return strconv.Itoa(n) }

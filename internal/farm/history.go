package farm

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
)

// ActionKind tells whether a player entered or left a farm world.
type ActionKind string

const (
	Access ActionKind = "accesso"
	Leave  ActionKind = "uscita"
)

// TimestampLayout is ISO-8601 local date-time without zone.
const TimestampLayout = "2006-01-02T15:04:05.999999999"

// minute-precision form some older rows carry.
const shortTimestampLayout = "2006-01-02T15:04"

// HistoryAction is one visit record.
type HistoryAction struct {
	Kind       ActionKind
	PlayerName string
	At         time.Time
}

// NewHistoryAction validates the fields and pins the timestamp to UTC.
func NewHistoryAction(kind ActionKind, playerName string, at time.Time) (HistoryAction, error) {
	if kind != Access && kind != Leave {
		return HistoryAction{}, ferrors.ValidationError("unknown history action kind").
			WithContext("kind", string(kind)).
			Build()
	}
	playerName = norm.NFC.String(strings.TrimSpace(playerName))
	if playerName == "" {
		return HistoryAction{}, ferrors.ValidationError("history player name cannot be empty").Build()
	}
	if strings.Contains(playerName, ",") {
		return HistoryAction{}, ferrors.ValidationError("history player name cannot contain ','").
			WithContext("player_name", playerName).
			Build()
	}
	if at.IsZero() {
		return HistoryAction{}, ferrors.ValidationError("history timestamp is required").Build()
	}
	return HistoryAction{Kind: kind, PlayerName: playerName, At: at.UTC()}, nil
}

// String encodes the action as "kind,name,timestamp".
func (h HistoryAction) String() string {
	return string(h.Kind) + "," + h.PlayerName + "," + h.At.UTC().Format(TimestampLayout)
}

// Equal compares field by field; timestamps by instant.
func (h HistoryAction) Equal(o HistoryAction) bool {
	return h.Kind == o.Kind && h.PlayerName == o.PlayerName && h.At.Equal(o.At)
}

// ParseHistoryAction decodes String output. An unrecognised kind yields
// (nil, nil) so the caller can skip the entry.
func ParseHistoryAction(s string) (*HistoryAction, error) {
	fields := strings.Split(s, ",")
	if len(fields) != 3 {
		return nil, ferrors.FormatError("invalid history action field count").
			WithContext("raw", s).
			WithContext("fields", len(fields)).
			Build()
	}
	kind := ActionKind(fields[0])
	if kind != Access && kind != Leave {
		return nil, nil
	}
	at, err := parseTimestamp(fields[2])
	if err != nil {
		return nil, ferrors.FormatError("invalid history timestamp").
			WithCause(err).
			WithContext("raw", s).
			Build()
	}
	h, err := NewHistoryAction(kind, fields[1], at)
	if err != nil {
		return nil, ferrors.FormatError("invalid history action").
			WithCause(err).
			WithContext("raw", s).
			Build()
	}
	return &h, nil
}

func parseTimestamp(s string) (time.Time, error) {
	at, err := time.ParseInLocation(TimestampLayout, s, time.UTC)
	if err == nil {
		return at, nil
	}
	if short, serr := time.ParseInLocation(shortTimestampLayout, s, time.UTC); serr == nil {
		return short, nil
	}
	return time.Time{}, err
}

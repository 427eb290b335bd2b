package codec

import (
	"log/slog"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/farmworlds/internal/farm"
	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
	"git.home.luguber.info/inful/farmworlds/internal/logfields"
)

type farmRecord struct {
	Owner     string   `json:"owner"`
	Whitelist []string `json:"whitelist"`
	WorldName string   `json:"worldName"`
	History   []string `json:"history"`
}

// FarmCodec stores a Farm as a JSON object with string arrays.
type FarmCodec struct{}

var _ Codec[*farm.Farm] = FarmCodec{}

func (FarmCodec) Encode(f *farm.Farm) (string, error) {
	if f == nil {
		return "", ferrors.ValidationError("cannot encode nil farm").Build()
	}
	rec := farmRecord{
		Owner:     f.Owner.String(),
		Whitelist: make([]string, 0, len(f.Whitelist)),
		WorldName: f.WorldName,
		History:   make([]string, 0, len(f.History)),
	}
	for _, p := range f.Whitelist {
		rec.Whitelist = append(rec.Whitelist, p.String())
	}
	for _, h := range f.History {
		rec.History = append(rec.History, h.String())
	}
	return marshal("farm", rec)
}

func (FarmCodec) Decode(row string) (*farm.Farm, error) {
	var rec farmRecord
	if err := unmarshal("farm", row, &rec); err != nil {
		return nil, err
	}
	owner, err := uuid.Parse(rec.Owner)
	if err != nil {
		return nil, ferrors.FormatError("invalid farm owner").
			WithCause(err).
			WithContext("owner", rec.Owner).
			Build()
	}
	if rec.WorldName == "" {
		return nil, ferrors.FormatError("farm has no world name").
			WithContext("owner", rec.Owner).
			Build()
	}
	f := &farm.Farm{Owner: owner, WorldName: rec.WorldName}
	for _, raw := range rec.Whitelist {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, ferrors.FormatError("invalid whitelist entry").
				WithCause(err).
				WithContext("farm", rec.WorldName).
				WithContext("entry", raw).
				Build()
		}
		f.AddToWhitelist(id)
	}
	for _, raw := range rec.History {
		h, err := farm.ParseHistoryAction(raw)
		if err != nil {
			return nil, err
		}
		if h == nil {
			slog.Warn("Skipping history entry of unknown kind",
				logfields.Farm(rec.WorldName),
				slog.String("entry", raw))
			continue
		}
		f.AppendHistory(*h)
	}
	return f, nil
}

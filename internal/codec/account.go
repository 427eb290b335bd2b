package codec

import (
	"log/slog"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/farmworlds/internal/account"
	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
	"git.home.luguber.info/inful/farmworlds/internal/logfields"
	"git.home.luguber.info/inful/farmworlds/internal/task"
)

// accountRecord keeps the field names of the stored player rows.
type accountRecord struct {
	PlayerID         string   `json:"playerId"`
	DisplayName      string   `json:"displayName"`
	MaxSingleTasks   int      `json:"maxSingleTasks"`
	MaxMultipleTasks int      `json:"maxMultipleTasks"`
	SingleTasks      []string `json:"singleTasks"`
	MultipleTasks    []string `json:"multipleTasks"`
	Balance          float64  `json:"balance"`
}

// AccountCodec stores a PlayerAccount as a JSON object whose task lists hold
// task grammar strings.
type AccountCodec struct{}

var _ Codec[*account.PlayerAccount] = AccountCodec{}

func (AccountCodec) Encode(a *account.PlayerAccount) (string, error) {
	if a == nil {
		return "", ferrors.ValidationError("cannot encode nil account").Build()
	}
	s := a.Snapshot()
	rec := accountRecord{
		PlayerID:         s.ID.String(),
		DisplayName:      s.DisplayName,
		MaxSingleTasks:   s.Quotas.MaxSingle,
		MaxMultipleTasks: s.Quotas.MaxComposite,
		SingleTasks:      make([]string, 0, len(s.SingleTasks)),
		MultipleTasks:    make([]string, 0, len(s.CompositeTasks)),
		Balance:          s.Balance,
	}
	for _, t := range s.SingleTasks {
		rec.SingleTasks = append(rec.SingleTasks, t.Encode())
	}
	for _, t := range s.CompositeTasks {
		rec.MultipleTasks = append(rec.MultipleTasks, t.Encode())
	}
	return marshal("account", rec)
}

func (AccountCodec) Decode(row string) (*account.PlayerAccount, error) {
	var rec accountRecord
	if err := unmarshal("account", row, &rec); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(rec.PlayerID)
	if err != nil {
		return nil, ferrors.FormatError("invalid player id").
			WithCause(err).
			WithContext("player_id", rec.PlayerID).
			Build()
	}
	snap := account.Snapshot{
		ID:          id,
		DisplayName: rec.DisplayName,
		Balance:     rec.Balance,
		Quotas: account.Quotas{
			MaxSingle:    rec.MaxSingleTasks,
			MaxComposite: rec.MaxMultipleTasks,
		},
	}
	for _, raw := range rec.SingleTasks {
		t, err := decodeTask(id, raw, task.KindSingle)
		if err != nil {
			return nil, err
		}
		if t != nil {
			snap.SingleTasks = append(snap.SingleTasks, t.(task.SingleTask))
		}
	}
	for _, raw := range rec.MultipleTasks {
		t, err := decodeTask(id, raw, task.KindComposite)
		if err != nil {
			return nil, err
		}
		if t != nil {
			snap.CompositeTasks = append(snap.CompositeTasks, t.(task.CompositeTask))
		}
	}
	a, err := account.FromSnapshot(snap)
	if err != nil {
		return nil, ferrors.FormatError("invalid account").WithCause(err).Build()
	}
	return a, nil
}

// decodeTask parses raw and checks it sits in the list of its kind. Unknown
// discriminators are skipped.
func decodeTask(player uuid.UUID, raw string, want task.Kind) (task.Task, error) {
	t, err := task.Parse(raw)
	if err != nil {
		return nil, err
	}
	if t == nil {
		slog.Warn("Skipping task of unknown kind",
			logfields.PlayerID(player.String()),
			logfields.Task(raw))
		return nil, nil
	}
	if t.Kind() != want {
		return nil, ferrors.FormatError("task stored in the wrong list").
			WithContext("player_id", player.String()).
			WithContext("want", string(want)).
			WithContext("got", string(t.Kind())).
			Build()
	}
	return t, nil
}

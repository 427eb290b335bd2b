package codec

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/farmworlds/internal/account"
	"git.home.luguber.info/inful/farmworlds/internal/farm"
	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
	"git.home.luguber.info/inful/farmworlds/internal/task"
)

func sampleFarm(t *testing.T) *farm.Farm {
	t.Helper()
	f := farm.New(uuid.New(), "")
	f.AddToWhitelist(uuid.New())
	f.AddToWhitelist(uuid.New())
	in, err := farm.NewHistoryAction(farm.Access, "Steve", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	out, err := farm.NewHistoryAction(farm.Leave, "Steve", time.Date(2024, 5, 1, 10, 30, 15, 5000, time.UTC))
	require.NoError(t, err)
	f.AppendHistory(in)
	f.AppendHistory(out)
	return f
}

func sampleAccount(t *testing.T) *account.PlayerAccount {
	t.Helper()
	a := account.New(uuid.New(), "Steve", account.DefaultQuotas())
	require.NoError(t, a.Credit(42.5))
	wheat, err := task.NewSingleTask("WHEAT", "Grano", 2, 14, "Greg")
	require.NoError(t, err)
	bread, err := task.NewSingleTask("BREAD", "Pane", 1, 5, "Tom")
	require.NoError(t, err)
	ct, err := task.NewCompositeTask([]task.SingleTask{wheat, bread}, "Chiesa")
	require.NoError(t, err)
	require.Equal(t, account.Accepted, a.TryAddSingle(wheat))
	require.Equal(t, account.Accepted, a.TryAddComposite(ct))
	return a
}

func TestFarmCodec_RoundTrip(t *testing.T) {
	f := sampleFarm(t)
	row, err := FarmCodec{}.Encode(f)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal([]byte(row), &fields))
	require.ElementsMatch(t, []string{"owner", "whitelist", "worldName", "history"}, keys(fields))

	got, err := FarmCodec{}.Decode(row)
	require.NoError(t, err)
	require.True(t, f.Equal(got))
}

func TestFarmCodec_SkipsUnknownHistoryKind(t *testing.T) {
	owner := uuid.New()
	row := `{"owner":"` + owner.String() + `","whitelist":[],"worldName":"farm_x",` +
		`"history":["teleport,Steve,2024-05-01T10:00:00","accesso,Steve,2024-05-01T10:00:00"]}`
	got, err := FarmCodec{}.Decode(row)
	require.NoError(t, err)
	require.Len(t, got.History, 1)
}

func TestFarmCodec_Malformed(t *testing.T) {
	for _, row := range []string{
		`not json`,
		`{"owner":"nope","worldName":"farm_x"}`,
		`{"owner":"` + uuid.NewString() + `","worldName":""}`,
		`{"owner":"` + uuid.NewString() + `","worldName":"w","whitelist":["bad"]}`,
		`{"owner":"` + uuid.NewString() + `","worldName":"w","history":["accesso,Steve"]}`,
	} {
		_, err := FarmCodec{}.Decode(row)
		require.Error(t, err, row)
		require.True(t, ferrors.HasCategory(err, ferrors.CategoryFormat), row)
	}
}

func TestAccountCodec_RoundTrip(t *testing.T) {
	a := sampleAccount(t)
	row, err := AccountCodec{}.Encode(a)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal([]byte(row), &fields))
	require.ElementsMatch(t, []string{
		"playerId", "displayName", "maxSingleTasks", "maxMultipleTasks",
		"singleTasks", "multipleTasks", "balance",
	}, keys(fields))
	require.Equal(t, []any{"singletask@WHEAT,2,Grano,14.0,Greg"}, fields["singleTasks"])

	got, err := AccountCodec{}.Decode(row)
	require.NoError(t, err)
	require.Equal(t, a.Snapshot(), got.Snapshot())
}

func TestAccountCodec_SkipsUnknownTasks(t *testing.T) {
	id := uuid.New()
	row := `{"playerId":"` + id.String() + `","displayName":"Steve","maxSingleTasks":3,"maxMultipleTasks":9,` +
		`"singleTasks":["bounty@x","singletask@WHEAT,1,Grano,3.0,Greg"],"multipleTasks":[],"balance":1}`
	got, err := AccountCodec{}.Decode(row)
	require.NoError(t, err)
	require.Len(t, got.SingleTasks(), 1)
}

func TestAccountCodec_Malformed(t *testing.T) {
	id := uuid.NewString()
	for _, row := range []string{
		`{"playerId":"x"}`,
		`{"playerId":"` + id + `","singleTasks":["singletask@WHEAT,1,Grano"]}`,
		`{"playerId":"` + id + `","multipleTasks":["singletask@WHEAT,1,Grano,3.0,Greg"]}`,
		`{"playerId":"` + id + `","balance":-3}`,
	} {
		_, err := AccountCodec{}.Decode(row)
		require.Error(t, err, row)
		require.True(t, ferrors.HasCategory(err, ferrors.CategoryFormat), row)
	}
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

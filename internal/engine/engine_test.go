package engine

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/farmworlds/internal/config"
	"git.home.luguber.info/inful/farmworlds/internal/economy"
	"git.home.luguber.info/inful/farmworlds/internal/events"
	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
	"git.home.luguber.info/inful/farmworlds/internal/host"
	"git.home.luguber.info/inful/farmworlds/internal/host/memhost"
	"git.home.luguber.info/inful/farmworlds/internal/registry"
	"git.home.luguber.info/inful/farmworlds/internal/store"
	"git.home.luguber.info/inful/farmworlds/internal/store/memstore"
	"git.home.luguber.info/inful/farmworlds/internal/task"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	closed bool
}

func (p *recordingPublisher) Publish(_ context.Context, event string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *recordingPublisher) count(event string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e == event {
			n++
		}
	}
	return n
}

type fixture struct {
	engine *Engine
	host   *memhost.Host
	store  *memstore.Store
	pub    *recordingPublisher
}

// slowLoops keeps the generator loops from firing during a test.
func slowLoops(cfg *config.Config) {
	cfg.Tasks.TickDuration = time.Second
	cfg.Tasks.MinTicks = 3600
	cfg.Tasks.MaxTicks = 7200
}

func newFixture(t *testing.T, tweak func(*config.Config), worlds ...string) *fixture {
	t.Helper()
	cfg := config.Default()
	slowLoops(cfg)
	if tweak != nil {
		tweak(cfg)
	}
	s := memstore.New()
	repo, err := registry.Init(context.Background(), s, registry.Options{
		WorldPrefix: cfg.Farms.WorldPrefix,
		Quotas:      cfg.Tasks.Quotas(),
	})
	require.NoError(t, err)
	h := memhost.New(append([]string{"world", cfg.Farms.TemplateWorld}, worlds...)...)
	pub := &recordingPublisher{}
	e, err := New(cfg, repo, h, WithPublisher(pub), WithRand(rand.New(rand.NewPCG(1, 2))))
	require.NoError(t, err)
	require.NoError(t, e.Start(context.Background()))
	t.Cleanup(func() { _ = e.Shutdown(context.Background()) })
	return &fixture{engine: e, host: h, store: s, pub: pub}
}

func (f *fixture) join(t *testing.T, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	f.host.Join(id, name)
	_, err := f.engine.OnJoin(context.Background(), id, name)
	require.NoError(t, err)
	return id
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(nil, nil, nil)
	require.Error(t, err)
}

func TestStart_JoinsOnlinePlayers(t *testing.T) {
	cfg := config.Default()
	slowLoops(cfg)
	repo, err := registry.Init(context.Background(), memstore.New(), registry.Options{})
	require.NoError(t, err)
	h := memhost.New("world")
	id := uuid.New()
	h.Join(id, "Steve")

	e, err := New(cfg, repo, h)
	require.NoError(t, err)
	require.Equal(t, StatusStopped, e.Status())
	require.NoError(t, e.Start(context.Background()))
	require.Equal(t, StatusRunning, e.Status())
	_, ok := repo.Players.Get(id)
	require.True(t, ok)
	require.NoError(t, e.Shutdown(context.Background()))
	require.Equal(t, StatusStopped, e.Status())
}

func TestCreateFarm_ClonesTemplateOnce(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	id := f.join(t, "Steve")

	farm, created, err := f.engine.CreateFarm(ctx, id)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "farm_"+id.String(), farm.WorldName)
	require.Equal(t, []string{farm.WorldName}, f.host.Clones())
	require.Equal(t, farm.WorldName, f.host.Location(id))
	require.Equal(t, 1, f.pub.count(events.FarmCreated))

	again, created, err := f.engine.CreateFarm(ctx, id)
	require.NoError(t, err)
	require.False(t, created)
	require.True(t, farm.Equal(again))
	require.Len(t, f.host.Clones(), 1)
	require.Equal(t, 1, f.engine.Repository().Farms.Len())
}

func TestCreateFarm_LoadsExistingWorld(t *testing.T) {
	id := uuid.New()
	f := newFixture(t, nil, "farm_"+id.String())
	f.host.Join(id, "Steve")

	_, created, err := f.engine.CreateFarm(context.Background(), id)
	require.NoError(t, err)
	require.True(t, created)
	require.Empty(t, f.host.Clones())
}

func TestCreateFarm_MissingTemplate(t *testing.T) {
	f := newFixture(t, nil)
	id := uuid.New()
	f.host.Join(id, "Steve")
	f.engine.cfg.TemplateWorld = "gone"

	_, _, err := f.engine.CreateFarm(context.Background(), id)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
	require.False(t, f.engine.Repository().Farms.OwnsFarm(id))
}

func TestCreateFarm_ConcurrentCallsRegisterOneFarm(t *testing.T) {
	f := newFixture(t, nil)
	id := f.join(t, "Steve")

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = f.engine.CreateFarm(context.Background(), id)
		}()
	}
	wg.Wait()
	require.Equal(t, 1, f.engine.Repository().Farms.Len())
	require.Len(t, f.host.Clones(), 1)
}

func TestOnWorldChange_RecordsHistoryAndEvents(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := f.join(t, "Steve")
	guest := f.join(t, "Alex")
	farm, _, err := f.engine.CreateFarm(ctx, owner)
	require.NoError(t, err)

	require.NoError(t, f.engine.OnWorldChange(ctx, guest, "Alex", "world", farm.WorldName))
	require.NoError(t, f.engine.OnWorldChange(ctx, guest, "Alex", farm.WorldName, "world"))
	require.NoError(t, f.engine.OnWorldChange(ctx, guest, "Alex", "world", "world_nether"))

	got, ok := f.engine.Repository().Farms.ByOwner(owner)
	require.True(t, ok)
	require.Len(t, got.History, 2)
	require.Equal(t, 1, f.pub.count(events.FarmAccess))
	require.Equal(t, 1, f.pub.count(events.FarmLeave))
}

func TestVisitFarm(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := f.join(t, "Steve")
	guest := f.join(t, "Alex")

	err := f.engine.VisitFarm(ctx, guest, owner)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))

	farm, _, err := f.engine.CreateFarm(ctx, owner)
	require.NoError(t, err)
	err = f.engine.VisitFarm(ctx, guest, owner)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	changed, err := f.engine.Whitelist(ctx, owner, guest)
	require.NoError(t, err)
	require.True(t, changed)
	require.NoError(t, f.engine.VisitFarm(ctx, guest, owner))
	require.Equal(t, farm.WorldName, f.host.Location(guest))

	changed, err = f.engine.Unwhitelist(ctx, owner, guest)
	require.NoError(t, err)
	require.True(t, changed)
	err = f.engine.VisitFarm(ctx, guest, owner)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestLoops_GenerateTasksUntilQuit(t *testing.T) {
	f := newFixture(t, func(c *config.Config) {
		c.Tasks.TickDuration = 5 * time.Millisecond
		c.Tasks.MinTicks = 1
		c.Tasks.MaxTicks = 2
	})
	id := f.join(t, "Steve")
	a, ok := f.engine.Repository().Players.Get(id)
	require.True(t, ok)

	require.Eventually(t, func() bool {
		return len(a.SingleTasks()) == 3 && len(a.CompositeTasks()) > 0
	}, 3*time.Second, 10*time.Millisecond)
	require.Positive(t, f.pub.count(events.TaskGenerated))
	require.Positive(t, f.store.Saves(store.TablePlayers))

	f.engine.OnQuit(id)
}

func TestCompleteTask(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	id := f.join(t, "Steve")

	_, err := f.engine.CompleteTask(ctx, uuid.New(), nil)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))

	res, err := f.engine.Propose(ctx, id, task.KindSingle)
	require.NoError(t, err)
	require.NotNil(t, res.Task)

	icons, err := f.engine.OpenTasks(ctx, id)
	require.NoError(t, err)
	require.Len(t, icons, 1)
	require.False(t, icons[0].Completable)

	out, err := f.engine.CompleteTask(ctx, id, res.Task)
	require.NoError(t, err)
	require.Equal(t, economy.StatusInsufficientItems, out.Status)

	for _, r := range res.Task.Requirements() {
		f.host.Give(id, r.Material, r.Amount)
	}
	icons, err = f.engine.OpenTasks(ctx, id)
	require.NoError(t, err)
	require.True(t, icons[0].Completable)

	out, err = f.engine.CompleteTask(ctx, id, res.Task)
	require.NoError(t, err)
	require.Equal(t, economy.StatusCompleted, out.Status)
	require.InDelta(t, res.Task.Reward(), out.Balance, 1e-9)
	require.Equal(t, 1, f.pub.count(events.TaskCompleted))

	w, err := f.engine.Withdraw(ctx, id, out.Balance+1)
	require.NoError(t, err)
	require.Equal(t, economy.StatusInsufficientBalance, w.Status)
}

func TestApplyTuning(t *testing.T) {
	f := newFixture(t, nil)
	cfg := config.Default().Tasks
	cfg.MaxAmount = 1
	require.NoError(t, f.engine.ApplyTuning(cfg))
	require.Equal(t, 1, f.engine.gen.Tuning().MaxAmount)

	cfg.MinTicks = 0
	require.Error(t, f.engine.ApplyTuning(cfg))
}

func TestApplyTuning_SwapsCatalog(t *testing.T) {
	f := newFixture(t, nil)
	full := config.Default()
	slowLoops(full)
	cfg := full.Tasks
	cfg.Catalog = task.Catalog{
		Requests:     []task.Request{{Material: "WHEAT", Name: "Grano"}},
		Clients:      []string{"Mario"},
		Destinations: []string{"Mulino"},
	}
	require.NoError(t, f.engine.ApplyTuning(cfg))
	for range 10 {
		st := f.engine.gen.NewSingle()
		require.Equal(t, "WHEAT", st.Material())
		require.Equal(t, "Mario", st.Client())
	}

	bad := cfg
	bad.Catalog.Clients = []string{"Mario, Jr."}
	bad.MaxAmount = 1
	require.True(t, ferrors.HasCategory(f.engine.ApplyTuning(bad), ferrors.CategoryValidation))
	require.NotEqual(t, 1, f.engine.gen.Tuning().MaxAmount)
	require.Equal(t, "Mario", f.engine.gen.NewSingle().Client())
}

func TestIncreaseQuota_Persists(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	id := f.join(t, "Steve")
	before := f.store.Saves(store.TablePlayers)

	q, err := f.engine.IncreaseQuota(ctx, id, task.KindSingle, 2)
	require.NoError(t, err)
	require.Equal(t, 5, q.MaxSingle)
	q, err = f.engine.IncreaseQuota(ctx, id, task.KindComposite, 1)
	require.NoError(t, err)
	require.Equal(t, 10, q.MaxComposite)
	require.Equal(t, before+2, f.store.Saves(store.TablePlayers))

	reloaded, err := registry.Init(ctx, f.store, registry.Options{})
	require.NoError(t, err)
	a, ok := reloaded.Players.Get(id)
	require.True(t, ok)
	require.Equal(t, 5, a.Quotas().MaxSingle)
	require.Equal(t, 10, a.Quotas().MaxComposite)

	_, err = f.engine.IncreaseQuota(ctx, id, task.KindSingle, -1)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
	_, err = f.engine.IncreaseQuota(ctx, id, task.Kind("bulk"), 1)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
	_, err = f.engine.IncreaseQuota(ctx, uuid.New(), task.KindSingle, 1)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
	require.Equal(t, before+2, f.store.Saves(store.TablePlayers))
}

type offlineHost struct {
	*memhost.Host
	err error
}

func (h offlineHost) GetOnlinePlayers(context.Context) ([]host.Player, error) {
	return nil, h.err
}

func TestStart_FailureStopsLoops(t *testing.T) {
	cfg := config.Default()
	slowLoops(cfg)
	repo, err := registry.Init(context.Background(), memstore.New(), registry.Options{})
	require.NoError(t, err)
	boom := ferrors.IOError("host unavailable").Build()
	e, err := New(cfg, repo, offlineHost{Host: memhost.New("world"), err: boom})
	require.NoError(t, err)

	require.ErrorIs(t, e.Start(context.Background()), boom)
	require.Equal(t, StatusStopped, e.Status())
	require.Zero(t, e.scheduler.Sessions())
	require.NoError(t, e.Shutdown(context.Background()))
}

func TestShutdown_FlushesAndClosesPublisher(t *testing.T) {
	f := newFixture(t, nil)
	f.join(t, "Steve")
	before := f.store.Saves(store.TableFarms)

	require.NoError(t, f.engine.Shutdown(context.Background()))
	require.Equal(t, before+1, f.store.Saves(store.TableFarms))
	require.True(t, f.pub.closed)
	require.Equal(t, StatusStopped, f.engine.Status())
}

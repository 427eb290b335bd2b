package task

import (
	"math"
	"math/rand/v2"
	"sync"
)

// Tuning controls candidate generation.
type Tuning struct {
	MaxAmount        int     `yaml:"max_amount"`
	MaxCompositeSize int     `yaml:"max_composite_size"`
	RewardMultiplier float64 `yaml:"reward_multiplier"`
	BaseReward       float64 `yaml:"base_reward"`
}

// DefaultTuning mirrors the stock economy: 1-4 items, reward amount*(U[0,20)+1).
func DefaultTuning() Tuning {
	return Tuning{
		MaxAmount:        MaxAmount,
		MaxCompositeSize: 4,
		RewardMultiplier: 20,
		BaseReward:       1,
	}
}

func (t Tuning) normalized() Tuning {
	d := DefaultTuning()
	if t.MaxAmount < MinAmount || t.MaxAmount > MaxAmount {
		t.MaxAmount = d.MaxAmount
	}
	if t.MaxCompositeSize < 1 {
		t.MaxCompositeSize = d.MaxCompositeSize
	}
	if t.RewardMultiplier < 0 {
		t.RewardMultiplier = d.RewardMultiplier
	}
	if t.BaseReward < 0 {
		t.BaseReward = d.BaseReward
	}
	return t
}

// Generator draws random candidate tasks. Safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	rng     *rand.Rand
	catalog Catalog
	tuning  Tuning
}

// NewGenerator builds a generator. A nil rng seeds one from the runtime.
// An empty catalog falls back to DefaultCatalog.
func NewGenerator(catalog Catalog, tuning Tuning, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if catalog.Empty() {
		catalog = DefaultCatalog()
	}
	return &Generator{rng: rng, catalog: catalog, tuning: tuning.normalized()}
}

// SetTuning swaps the tuning used by the next draws.
func (g *Generator) SetTuning(t Tuning) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tuning = t.normalized()
}

// SetCatalog swaps the pools used by the next draws. An invalid catalog is
// rejected and the current one is kept.
func (g *Generator) SetCatalog(c Catalog) error {
	if err := c.Validate(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.catalog = c
	return nil
}

// Tuning returns the active tuning.
func (g *Generator) Tuning() Tuning {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tuning
}

// NewSingle draws a single task with a client from the single-client pool.
func (g *Generator) NewSingle() SingleTask {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.single()
}

// NewComposite draws 1..MaxCompositeSize independent children and a destination.
func (g *Generator) NewComposite() CompositeTask {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := 1 + g.rng.IntN(g.tuning.MaxCompositeSize)
	children := make([]SingleTask, 0, n)
	for range n {
		children = append(children, g.single())
	}
	destination := g.catalog.Destinations[g.rng.IntN(len(g.catalog.Destinations))]
	t, err := NewCompositeTask(children, destination)
	if err != nil {
		panic("task: catalog produced an invalid composite task: " + err.Error())
	}
	return t
}

func (g *Generator) single() SingleTask {
	req := g.catalog.Requests[g.rng.IntN(len(g.catalog.Requests))]
	amount := MinAmount + g.rng.IntN(g.tuning.MaxAmount-MinAmount+1)
	reward := Reward(amount, g.rng.Float64()*g.tuning.RewardMultiplier, g.tuning.BaseReward)
	client := g.catalog.Clients[g.rng.IntN(len(g.catalog.Clients))]
	t, err := NewSingleTask(req.Material, req.Name, amount, reward, client)
	if err != nil {
		panic("task: catalog produced an invalid single task: " + err.Error())
	}
	return t
}

// Reward computes amount*(draw+base) rounded half-up to a whole unit.
func Reward(amount int, draw, base float64) float64 {
	return math.Round(float64(amount) * (draw + base))
}

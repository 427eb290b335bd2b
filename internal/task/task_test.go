package task

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
)

type holdings map[string]int

func (h holdings) Count(material string) int { return h[material] }

func mustSingle(t *testing.T, material, name string, amount int, reward float64, client string) SingleTask {
	t.Helper()
	st, err := NewSingleTask(material, name, amount, reward, client)
	require.NoError(t, err)
	return st
}

func TestSingleTask_EncodeGrammar(t *testing.T) {
	st := mustSingle(t, "WHEAT", "Grano", 2, 14, "Greg")
	require.Equal(t, "singletask@WHEAT,2,Grano,14.0,Greg", st.Encode())

	frac := mustSingle(t, "BREAD", "Pane", 1, 2.5, "Tom")
	require.Equal(t, "singletask@BREAD,1,Pane,2.5,Tom", frac.Encode())
}

func TestSingleTask_RoundTrip(t *testing.T) {
	cases := []SingleTask{
		mustSingle(t, "WHEAT", "Grano", 1, 0, "Greg"),
		mustSingle(t, "COOKED_MUTTON", "Carne di montone cotta", 4, 63, "Niccolò"),
		mustSingle(t, "APPLE", "Mela", 3, 12.25, "Alice"),
	}
	for _, st := range cases {
		t.Run(st.Encode(), func(t *testing.T) {
			got, err := Parse(st.Encode())
			require.NoError(t, err)
			require.True(t, st.Equal(got), "decoded %v", got)
		})
	}
}

func TestCompositeTask_EncodeAndRoundTrip(t *testing.T) {
	a := mustSingle(t, "WHEAT", "Grano", 2, 14, "Greg")
	b := mustSingle(t, "BREAD", "Pane", 1, 5, "Tom")
	ct, err := NewCompositeTask([]SingleTask{a, b}, "Scuola media")
	require.NoError(t, err)

	require.Equal(t,
		"multitask#singletask@WHEAT,2,Grano,14.0,Greg;singletask@BREAD,1,Pane,5.0,Tom;:Scuola media",
		ct.Encode())
	require.InDelta(t, 19.0, ct.Reward(), 1e-9)
	require.Equal(t, 3, ct.ItemCount())

	got, err := Parse(ct.Encode())
	require.NoError(t, err)
	require.Equal(t, KindComposite, got.Kind())
	require.True(t, ct.Equal(got))
}

func TestParse_UnknownDiscriminator(t *testing.T) {
	for _, s := range []string{"", "bogus@WHEAT,1,Grano,1.0,Greg", "quest#x"} {
		got, err := Parse(s)
		require.NoError(t, err)
		require.Nil(t, got)
	}
}

func TestParse_Malformed(t *testing.T) {
	cases := map[string]string{
		"too few fields":      "singletask@WHEAT,1,Grano,1.0",
		"too many fields":     "singletask@WHEAT,1,Grano,1.0,Greg,extra",
		"bad amount":          "singletask@WHEAT,x,Grano,1.0,Greg",
		"amount out of range": "singletask@WHEAT,9,Grano,1.0,Greg",
		"bad reward":          "singletask@WHEAT,1,Grano,lots,Greg",
		"missing client":      "multitask#singletask@WHEAT,1,Grano,1.0,Greg;",
		"no children":         "multitask#:Chiesa",
		"bad child":           "multitask#singletask@WHEAT,1,Grano;:Chiesa",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(raw)
			require.Error(t, err)
			require.True(t, ferrors.HasCategory(err, ferrors.CategoryFormat), "got %v", err)
		})
	}
}

func TestNewSingleTask_Validation(t *testing.T) {
	_, err := NewSingleTask("WHEAT", "Grano", 0, 1, "Greg")
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	_, err = NewSingleTask("WHEAT", "Grano", 5, 1, "Greg")
	require.Error(t, err)

	_, err = NewSingleTask("WHEAT", "Grano", 1, -1, "Greg")
	require.Error(t, err)

	_, err = NewSingleTask("WHEAT", "Gra,no", 1, 1, "Greg")
	require.Error(t, err)

	_, err = NewSingleTask("WHEAT", "Grano", 1, 1, "")
	require.Error(t, err)

	_, err = NewCompositeTask(nil, "Chiesa")
	require.Error(t, err)
}

func TestSameRequest(t *testing.T) {
	a := mustSingle(t, "WHEAT", "Grano", 2, 14, "Greg")
	b := mustSingle(t, "WHEAT", "Grano", 4, 30, "Greg")
	c := mustSingle(t, "WHEAT", "Grano", 2, 14, "Tom")

	assert.True(t, a.SameRequest(b))
	assert.False(t, a.Equal(b))
	assert.False(t, a.SameRequest(c))

	x, err := NewCompositeTask([]SingleTask{a, c}, "Chiesa")
	require.NoError(t, err)
	y, err := NewCompositeTask([]SingleTask{a, c}, "Chiesa")
	require.NoError(t, err)
	z, err := NewCompositeTask([]SingleTask{c, a}, "Chiesa")
	require.NoError(t, err)

	assert.True(t, x.SameRequest(y))
	assert.False(t, x.SameRequest(z), "order matters")
	assert.False(t, x.Equal(a))
}

func TestCanComplete(t *testing.T) {
	wheat := mustSingle(t, "WHEAT", "Grano", 2, 14, "Greg")
	require.True(t, wheat.CanComplete(holdings{"WHEAT": 2}))
	require.False(t, wheat.CanComplete(holdings{"WHEAT": 1}))
	require.False(t, wheat.CanComplete(nil))

	more := mustSingle(t, "WHEAT", "Grano", 3, 9, "Tom")
	ct, err := NewCompositeTask([]SingleTask{wheat, more}, "Stadio")
	require.NoError(t, err)

	require.False(t, ct.CanComplete(holdings{"WHEAT": 3}), "requirements are summed per material")
	require.True(t, ct.CanComplete(holdings{"WHEAT": 5}))

	icon := ct.Icon(holdings{"WHEAT": 3})
	require.False(t, icon.Completable)
	require.Len(t, icon.Lines, 2)
	require.True(t, icon.Lines[0].Satisfied)
	require.True(t, icon.Lines[1].Satisfied)
}

func TestCompositeTask_ChildrenAreCopied(t *testing.T) {
	children := []SingleTask{mustSingle(t, "WHEAT", "Grano", 2, 14, "Greg")}
	ct, err := NewCompositeTask(children, "Comune")
	require.NoError(t, err)

	children[0] = mustSingle(t, "BREAD", "Pane", 1, 1, "Tom")
	require.Equal(t, "WHEAT", ct.Tasks()[0].Material())
}

func TestGenerator_Bounds(t *testing.T) {
	g := NewGenerator(DefaultCatalog(), DefaultTuning(), rand.New(rand.NewPCG(1, 2)))
	cat := DefaultCatalog()

	for range 500 {
		st := g.NewSingle()
		require.GreaterOrEqual(t, st.Amount(), MinAmount)
		require.LessOrEqual(t, st.Amount(), MaxAmount)
		require.GreaterOrEqual(t, st.Reward(), float64(st.Amount()))
		require.LessOrEqual(t, st.Reward(), float64(st.Amount()*21))
		require.Equal(t, st.Reward(), float64(int(st.Reward())), "reward is whole")
		require.Contains(t, cat.Clients, st.Client())

		ct := g.NewComposite()
		require.GreaterOrEqual(t, len(ct.Tasks()), 1)
		require.LessOrEqual(t, len(ct.Tasks()), 4)
		require.Contains(t, cat.Destinations, ct.Client())

		var sum float64
		for _, c := range ct.Tasks() {
			sum += c.Reward()
		}
		require.InDelta(t, sum, ct.Reward(), 1e-9)
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	a := NewGenerator(Catalog{}, DefaultTuning(), rand.New(rand.NewPCG(7, 7)))
	b := NewGenerator(Catalog{}, DefaultTuning(), rand.New(rand.NewPCG(7, 7)))
	for range 20 {
		require.True(t, a.NewSingle().Equal(b.NewSingle()))
		require.True(t, a.NewComposite().Equal(b.NewComposite()))
	}
}

func TestGenerator_SetTuning(t *testing.T) {
	g := NewGenerator(DefaultCatalog(), DefaultTuning(), rand.New(rand.NewPCG(3, 4)))
	g.SetTuning(Tuning{MaxAmount: 1, MaxCompositeSize: 1, RewardMultiplier: 0, BaseReward: 2})

	for range 50 {
		st := g.NewSingle()
		require.Equal(t, 1, st.Amount())
		require.InDelta(t, 2.0, st.Reward(), 1e-9)
		require.Len(t, g.NewComposite().Tasks(), 1)
	}
}

func TestCatalog_Validate(t *testing.T) {
	require.NoError(t, DefaultCatalog().Validate())

	cases := map[string]func(*Catalog){
		"separator in client":      func(c *Catalog) { c.Clients = []string{"Mario, Jr."} },
		"blank destination":        func(c *Catalog) { c.Destinations = append(c.Destinations, "") },
		"separator in request":     func(c *Catalog) { c.Requests[0].Name = "Pane@casa" },
		"separator in material":    func(c *Catalog) { c.Requests[1].Material = "WHEAT:1" },
		"missing destination pool": func(c *Catalog) { c.Destinations = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := DefaultCatalog()
			mutate(&c)
			require.True(t, ferrors.HasCategory(c.Validate(), ferrors.CategoryValidation))
		})
	}
}

func TestGenerator_SetCatalog(t *testing.T) {
	g := NewGenerator(DefaultCatalog(), DefaultTuning(), rand.New(rand.NewPCG(5, 6)))

	bad := Catalog{Requests: []Request{{"WHEAT", "Grano"}}, Clients: []string{"Mario, Jr."}, Destinations: []string{"Mulino"}}
	require.Error(t, g.SetCatalog(bad))
	require.NotPanics(t, func() { g.NewSingle() })

	small := Catalog{Requests: []Request{{"WHEAT", "Grano"}}, Clients: []string{"Mario"}, Destinations: []string{"Mulino"}}
	require.NoError(t, g.SetCatalog(small))
	for range 20 {
		st := g.NewSingle()
		require.Equal(t, "WHEAT", st.Material())
		require.Equal(t, "Mario", st.Client())
		require.Equal(t, "Mulino", g.NewComposite().Client())
	}
}

func TestReward_HalfUp(t *testing.T) {
	require.InDelta(t, 3.0, Reward(1, 1.5, 1), 1e-9)
	require.InDelta(t, 5.0, Reward(2, 1.25, 1), 1e-9)
	require.InDelta(t, 3.0, Reward(2, 0.74, 1), 1e-9)
}

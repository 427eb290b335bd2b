package task

// Kind discriminates the two task variants.
type Kind string

const (
	KindSingle    Kind = "single"
	KindComposite Kind = "composite"
)

// Kinds lists every task kind in generation order.
var Kinds = []Kind{KindSingle, KindComposite}

// Requirement is one material/amount pair a player must surrender.
type Requirement struct {
	Material string
	Amount   int
}

// Holdings is a read-only view over a player's inventory.
type Holdings interface {
	Count(material string) int
}

// Task is the capability shared by both variants.
type Task interface {
	Kind() Kind
	Client() string
	Reward() float64
	Requirements() []Requirement
	CanComplete(h Holdings) bool
	Icon(h Holdings) Icon
	Encode() string
	Equal(other Task) bool
}

// Icon is the menu-facing summary of a task. Rendering it is the host's job.
type Icon struct {
	Kind        Kind
	Material    string
	Amount      int
	Title       string
	Client      string
	Reward      float64
	Lines       []IconLine
	Completable bool
}

// IconLine is one requirement row of an Icon.
type IconLine struct {
	Label     string
	Amount    int
	Satisfied bool
}

// canSatisfy sums requirements per material before checking, so two children
// asking for the same material cannot both be paid with one stack.
func canSatisfy(reqs []Requirement, h Holdings) bool {
	if h == nil {
		return false
	}
	needed := make(map[string]int, len(reqs))
	for _, r := range reqs {
		needed[r.Material] += r.Amount
	}
	for material, amount := range needed {
		if h.Count(material) < amount {
			return false
		}
	}
	return true
}

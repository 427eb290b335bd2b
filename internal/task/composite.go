package task

import (
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
)

// CompositeTask groups single tasks for one destination client.
// Its reward is fixed at construction as the sum of its children.
type CompositeTask struct {
	tasks  []SingleTask
	client string
	reward float64
}

// NewCompositeTask validates and builds a CompositeTask. The children are copied.
func NewCompositeTask(tasks []SingleTask, client string) (CompositeTask, error) {
	client = norm.NFC.String(strings.TrimSpace(client))
	if len(tasks) == 0 {
		return CompositeTask{}, ferrors.ValidationError("composite task needs at least one child").Build()
	}
	if err := checkName("client name", client); err != nil {
		return CompositeTask{}, err
	}
	var reward float64
	for _, t := range tasks {
		if t.amount == 0 {
			return CompositeTask{}, ferrors.ValidationError("composite task child is not initialized").Build()
		}
		reward += t.reward
	}
	return CompositeTask{
		tasks:  slices.Clone(tasks),
		client: client,
		reward: reward,
	}, nil
}

func (t CompositeTask) Kind() Kind      { return KindComposite }
func (t CompositeTask) Client() string  { return t.client }
func (t CompositeTask) Reward() float64 { return t.reward }

// Tasks returns a copy of the ordered children.
func (t CompositeTask) Tasks() []SingleTask { return slices.Clone(t.tasks) }

// Requirements returns one requirement per child, in order.
func (t CompositeTask) Requirements() []Requirement {
	out := make([]Requirement, 0, len(t.tasks))
	for _, c := range t.tasks {
		out = append(out, Requirement{Material: c.material, Amount: c.amount})
	}
	return out
}

// ItemCount is the total number of items the task consumes.
func (t CompositeTask) ItemCount() int {
	n := 0
	for _, c := range t.tasks {
		n += c.amount
	}
	return n
}

// CanComplete reports whether h covers every child requirement.
func (t CompositeTask) CanComplete(h Holdings) bool {
	return canSatisfy(t.Requirements(), h)
}

// SameRequest is the duplicate rule: equal children (deep) and client.
func (t CompositeTask) SameRequest(other CompositeTask) bool {
	return t.client == other.client && slices.Equal(t.tasks, other.tasks)
}

// Equal is full structural equality.
func (t CompositeTask) Equal(other Task) bool {
	if other == nil || other.Kind() != KindComposite {
		return false
	}
	o, ok := other.(CompositeTask)
	return ok && t.SameRequest(o) && t.reward == o.reward
}

// Icon summarizes the task for the menu layer.
func (t CompositeTask) Icon(h Holdings) Icon {
	icon := Icon{
		Kind:        KindComposite,
		Amount:      1,
		Title:       t.client,
		Client:      t.client,
		Reward:      t.reward,
		Completable: t.CanComplete(h),
	}
	for _, c := range t.tasks {
		icon.Lines = append(icon.Lines, IconLine{
			Label:     c.requestName,
			Amount:    c.amount,
			Satisfied: c.CanComplete(h),
		})
	}
	return icon
}

// Encode renders the task in the line grammar. Every child is followed by ';'.
func (t CompositeTask) Encode() string {
	var b strings.Builder
	b.WriteString(compositePrefix)
	for _, c := range t.tasks {
		b.WriteString(c.Encode())
		b.WriteByte(childSeparator)
	}
	b.WriteByte(clientSeparator)
	b.WriteString(t.client)
	return b.String()
}

func (t CompositeTask) String() string { return t.Encode() }

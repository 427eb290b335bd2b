package task

import (
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"

	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
)

const (
	// MinAmount and MaxAmount bound the quantity a single task may request.
	MinAmount = 1
	MaxAmount = 4
)

// separators are reserved by the line grammar and may not appear in names.
const separators = "@#,;:"

// SingleTask asks for amount units of one material.
type SingleTask struct {
	material    string
	requestName string
	amount      int
	reward      float64
	client      string
}

// NewSingleTask validates and builds a SingleTask.
func NewSingleTask(material, requestName string, amount int, reward float64, client string) (SingleTask, error) {
	requestName = norm.NFC.String(strings.TrimSpace(requestName))
	client = norm.NFC.String(strings.TrimSpace(client))
	material = strings.TrimSpace(material)

	if err := checkName("material", material); err != nil {
		return SingleTask{}, err
	}
	if err := checkName("request name", requestName); err != nil {
		return SingleTask{}, err
	}
	if err := checkName("client name", client); err != nil {
		return SingleTask{}, err
	}
	if amount < MinAmount || amount > MaxAmount {
		return SingleTask{}, ferrors.ValidationError("task amount out of range").
			WithContext("amount", amount).
			Build()
	}
	if reward < 0 || math.IsNaN(reward) || math.IsInf(reward, 0) {
		return SingleTask{}, ferrors.ValidationError("task reward must be a non-negative number").
			WithContext("reward", reward).
			Build()
	}
	return SingleTask{
		material:    material,
		requestName: requestName,
		amount:      amount,
		reward:      reward,
		client:      client,
	}, nil
}

func checkName(field, value string) error {
	if value == "" {
		return ferrors.ValidationError(field + " cannot be empty").Build()
	}
	if strings.ContainsAny(value, separators) {
		return ferrors.ValidationError(field+" contains a reserved separator").
			WithContext("value", value).
			Build()
	}
	return nil
}

func (t SingleTask) Kind() Kind          { return KindSingle }
func (t SingleTask) Material() string    { return t.material }
func (t SingleTask) RequestName() string { return t.requestName }
func (t SingleTask) Amount() int         { return t.amount }
func (t SingleTask) Reward() float64     { return t.reward }
func (t SingleTask) Client() string      { return t.client }

// Requirements returns the single material requirement.
func (t SingleTask) Requirements() []Requirement {
	return []Requirement{{Material: t.material, Amount: t.amount}}
}

// CanComplete reports whether h holds at least Amount units of Material.
func (t SingleTask) CanComplete(h Holdings) bool {
	return canSatisfy(t.Requirements(), h)
}

// SameRequest is the duplicate rule: equal material and client.
func (t SingleTask) SameRequest(other SingleTask) bool {
	return t.material == other.material && t.client == other.client
}

// Equal is full structural equality.
func (t SingleTask) Equal(other Task) bool {
	if other == nil || other.Kind() != KindSingle {
		return false
	}
	o, ok := other.(SingleTask)
	return ok && t == o
}

// Icon summarizes the task for the menu layer.
func (t SingleTask) Icon(h Holdings) Icon {
	ok := t.CanComplete(h)
	return Icon{
		Kind:     KindSingle,
		Material: t.material,
		Amount:   t.amount,
		Title:    t.requestName,
		Client:   t.client,
		Reward:   t.reward,
		Lines: []IconLine{{
			Label:     t.requestName,
			Amount:    t.amount,
			Satisfied: ok,
		}},
		Completable: ok,
	}
}

// Encode renders the task in the line grammar.
func (t SingleTask) Encode() string {
	var b strings.Builder
	b.WriteString(singlePrefix)
	b.WriteString(t.material)
	b.WriteByte(',')
	b.WriteString(itoa(t.amount))
	b.WriteByte(',')
	b.WriteString(t.requestName)
	b.WriteByte(',')
	b.WriteString(formatReward(t.reward))
	b.WriteByte(',')
	b.WriteString(t.client)
	return b.String()
}

func (t SingleTask) String() string { return t.Encode() }

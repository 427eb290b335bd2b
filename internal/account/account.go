// Package account holds the PlayerAccount aggregate: balance, quotas and the
// open task sets. Every method is safe for concurrent use; the generator loops
// and completion calls for one player serialize on the account lock.
package account

import (
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
	"git.home.luguber.info/inful/farmworlds/internal/task"
)

const (
	DefaultMaxSingleTasks    = 3
	DefaultMaxCompositeTasks = 9
)

// Quotas caps the open task sets.
type Quotas struct {
	MaxSingle    int `yaml:"max_single"`
	MaxComposite int `yaml:"max_composite"`
}

// DefaultQuotas returns 3 single and 9 composite slots.
func DefaultQuotas() Quotas {
	return Quotas{MaxSingle: DefaultMaxSingleTasks, MaxComposite: DefaultMaxCompositeTasks}
}

// AddResult is the outcome of offering a candidate to an account.
type AddResult string

const (
	Accepted  AddResult = "accepted"
	Duplicate AddResult = "duplicate"
	QuotaFull AddResult = "quota_full"
)

// PlayerAccount is a player's economic state.
type PlayerAccount struct {
	mu             sync.Mutex
	id             uuid.UUID
	displayName    string
	balance        float64
	quotas         Quotas
	singleTasks    []task.SingleTask
	compositeTasks []task.CompositeTask
}

// New creates an empty account.
func New(id uuid.UUID, displayName string, quotas Quotas) *PlayerAccount {
	return &PlayerAccount{
		id:          id,
		displayName: normalizeName(displayName),
		quotas:      quotas,
	}
}

// Snapshot is the plain-data form of an account used by codecs.
type Snapshot struct {
	ID             uuid.UUID
	DisplayName    string
	Balance        float64
	Quotas         Quotas
	SingleTasks    []task.SingleTask
	CompositeTasks []task.CompositeTask
}

// FromSnapshot rebuilds an account. Balance must be non-negative.
func FromSnapshot(s Snapshot) (*PlayerAccount, error) {
	if s.Balance < 0 || math.IsNaN(s.Balance) || math.IsInf(s.Balance, 0) {
		return nil, ferrors.ValidationError("account balance must be a non-negative number").
			WithContext("player_id", s.ID.String()).
			WithContext("balance", s.Balance).
			Build()
	}
	return &PlayerAccount{
		id:             s.ID,
		displayName:    normalizeName(s.DisplayName),
		balance:        s.Balance,
		quotas:         s.Quotas,
		singleTasks:    slices.Clone(s.SingleTasks),
		compositeTasks: slices.Clone(s.CompositeTasks),
	}, nil
}

// Snapshot copies the account state under the lock.
func (a *PlayerAccount) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

func (a *PlayerAccount) snapshotLocked() Snapshot {
	return Snapshot{
		ID:             a.id,
		DisplayName:    a.displayName,
		Balance:        a.balance,
		Quotas:         a.quotas,
		SingleTasks:    slices.Clone(a.singleTasks),
		CompositeTasks: slices.Clone(a.compositeTasks),
	}
}

func normalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func (a *PlayerAccount) ID() uuid.UUID { return a.id }

func (a *PlayerAccount) DisplayName() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.displayName
}

// SetDisplayName refreshes the cached name. Returns true when it changed.
func (a *PlayerAccount) SetDisplayName(name string) bool {
	name = normalizeName(name)
	a.mu.Lock()
	defer a.mu.Unlock()
	if name == "" || name == a.displayName {
		return false
	}
	a.displayName = name
	return true
}

func (a *PlayerAccount) Balance() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

func (a *PlayerAccount) Quotas() Quotas {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.quotas
}

// Credit adds amount to the balance.
func (a *PlayerAccount) Credit(amount float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.creditLocked(amount)
}

func (a *PlayerAccount) creditLocked(amount float64) error {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ferrors.ValidationError("credit amount must be a non-negative number").
			WithContext("amount", amount).
			Build()
	}
	a.balance += amount
	return nil
}

// Debit removes amount from the balance. It fails without mutating when the
// balance would go negative.
func (a *PlayerAccount) Debit(amount float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ferrors.ValidationError("debit amount must be a non-negative number").
			WithContext("amount", amount).
			Build()
	}
	if amount > a.balance {
		return ferrors.InsufficientBalanceError("insufficient balance").
			WithContext("balance", a.balance).
			WithContext("amount", amount).
			Build()
	}
	a.balance -= amount
	return nil
}

// SingleTasks returns a copy of the open single tasks.
func (a *PlayerAccount) SingleTasks() []task.SingleTask {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.singleTasks)
}

// CompositeTasks returns a copy of the open composite tasks.
func (a *PlayerAccount) CompositeTasks() []task.CompositeTask {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.compositeTasks)
}

// OpenTasks returns every open task, singles first.
func (a *PlayerAccount) OpenTasks() []task.Task {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]task.Task, 0, len(a.singleTasks)+len(a.compositeTasks))
	for _, t := range a.singleTasks {
		out = append(out, t)
	}
	for _, t := range a.compositeTasks {
		out = append(out, t)
	}
	return out
}

// TryAddSingle appends c unless the quota is full or an open task has the same
// material and client.
func (a *PlayerAccount) TryAddSingle(c task.SingleTask) AddResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.singleTasks) >= a.quotas.MaxSingle {
		return QuotaFull
	}
	if slices.ContainsFunc(a.singleTasks, c.SameRequest) {
		return Duplicate
	}
	a.singleTasks = append(a.singleTasks, c)
	return Accepted
}

// TryAddComposite appends c unless the quota is full or an open task has the
// same children and client.
func (a *PlayerAccount) TryAddComposite(c task.CompositeTask) AddResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.compositeTasks) >= a.quotas.MaxComposite {
		return QuotaFull
	}
	if slices.ContainsFunc(a.compositeTasks, c.SameRequest) {
		return Duplicate
	}
	a.compositeTasks = append(a.compositeTasks, c)
	return Accepted
}

// RemoveTask removes the first open task structurally equal to t.
func (a *PlayerAccount) RemoveTask(t task.Task) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.removeLocked(t)
}

func (a *PlayerAccount) removeLocked(t task.Task) bool {
	if t == nil {
		return false
	}
	switch t.Kind() {
	case task.KindSingle:
		i := slices.IndexFunc(a.singleTasks, func(o task.SingleTask) bool { return t.Equal(o) })
		if i < 0 {
			return false
		}
		a.singleTasks = slices.Delete(a.singleTasks, i, i+1)
		return true
	case task.KindComposite:
		i := slices.IndexFunc(a.compositeTasks, func(o task.CompositeTask) bool { return t.Equal(o) })
		if i < 0 {
			return false
		}
		a.compositeTasks = slices.Delete(a.compositeTasks, i, i+1)
		return true
	}
	return false
}

func (a *PlayerAccount) hasLocked(t task.Task) bool {
	if t == nil {
		return false
	}
	switch t.Kind() {
	case task.KindSingle:
		return slices.ContainsFunc(a.singleTasks, func(o task.SingleTask) bool { return t.Equal(o) })
	case task.KindComposite:
		return slices.ContainsFunc(a.compositeTasks, func(o task.CompositeTask) bool { return t.Equal(o) })
	}
	return false
}

// IncreaseMaxSingleTasks grows the single quota by n.
func (a *PlayerAccount) IncreaseMaxSingleTasks(n int) error {
	if n < 0 {
		return ferrors.ValidationError("quota increase cannot be negative").WithContext("n", n).Build()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.quotas.MaxSingle += n
	return nil
}

// IncreaseMaxCompositeTasks grows the composite quota by n.
func (a *PlayerAccount) IncreaseMaxCompositeTasks(n int) error {
	if n < 0 {
		return ferrors.ValidationError("quota increase cannot be negative").WithContext("n", n).Build()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.quotas.MaxComposite += n
	return nil
}

// Tx is the view of an account handed to WithLock callbacks. It is only valid
// inside the callback.
type Tx struct {
	a *PlayerAccount
}

// Has reports whether t is still open.
func (tx Tx) Has(t task.Task) bool { return tx.a.hasLocked(t) }

// Credit adds amount to the balance.
func (tx Tx) Credit(amount float64) error { return tx.a.creditLocked(amount) }

// Remove drops t from the open set.
func (tx Tx) Remove(t task.Task) bool { return tx.a.removeLocked(t) }

// Balance is the current balance.
func (tx Tx) Balance() float64 { return tx.a.balance }

// WithLock runs fn holding the account lock. fn must not call methods on the
// account itself.
func (a *PlayerAccount) WithLock(fn func(tx Tx) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return fn(Tx{a: a})
}

// Package farm holds the Farm aggregate: an owner's private world, its guest
// whitelist and the visit log.
package farm

import (
	"slices"

	"github.com/google/uuid"
)

// DefaultWorldPrefix is prepended to the owner id to name the farm world.
const DefaultWorldPrefix = "farm_"

// Farm is not safe for concurrent use; the registry serializes access.
type Farm struct {
	Owner     uuid.UUID
	WorldName string
	Whitelist []uuid.UUID
	History   []HistoryAction
}

// New creates an empty farm for owner in world prefix+owner.
func New(owner uuid.UUID, prefix string) *Farm {
	if prefix == "" {
		prefix = DefaultWorldPrefix
	}
	return &Farm{
		Owner:     owner,
		WorldName: WorldName(owner, prefix),
	}
}

// WorldName derives the world name of owner's farm.
func WorldName(owner uuid.UUID, prefix string) string {
	return prefix + owner.String()
}

// IsWhitelisted reports whether player may enter. Owners are implicitly allowed.
func (f *Farm) IsWhitelisted(player uuid.UUID) bool {
	return player == f.Owner || slices.Contains(f.Whitelist, player)
}

// AddToWhitelist returns false when player was already listed.
func (f *Farm) AddToWhitelist(player uuid.UUID) bool {
	if slices.Contains(f.Whitelist, player) {
		return false
	}
	f.Whitelist = append(f.Whitelist, player)
	return true
}

// RemoveFromWhitelist returns false when player was not listed.
func (f *Farm) RemoveFromWhitelist(player uuid.UUID) bool {
	i := slices.Index(f.Whitelist, player)
	if i < 0 {
		return false
	}
	f.Whitelist = slices.Delete(f.Whitelist, i, i+1)
	return true
}

// AppendHistory adds h at the end of the log.
func (f *Farm) AppendHistory(h HistoryAction) {
	f.History = append(f.History, h)
}

// Clone returns a deep copy.
func (f *Farm) Clone() *Farm {
	return &Farm{
		Owner:     f.Owner,
		WorldName: f.WorldName,
		Whitelist: slices.Clone(f.Whitelist),
		History:   slices.Clone(f.History),
	}
}

// Equal compares two farms structurally. Whitelist order is ignored.
func (f *Farm) Equal(o *Farm) bool {
	if f == nil || o == nil {
		return f == o
	}
	if f.Owner != o.Owner || f.WorldName != o.WorldName || len(f.Whitelist) != len(o.Whitelist) {
		return false
	}
	for _, p := range f.Whitelist {
		if !slices.Contains(o.Whitelist, p) {
			return false
		}
	}
	return slices.EqualFunc(f.History, o.History, HistoryAction.Equal)
}

package host

import (
	"slices"

	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
)

// ItemStack is one inventory slot. Amount 0 marks an empty slot.
type ItemStack struct {
	Material string
	Amount   int
}

// Inventory is an ordered list of slots.
type Inventory struct {
	Slots []ItemStack
}

// NewInventory builds an inventory from stacks in slot order.
func NewInventory(stacks ...ItemStack) Inventory {
	return Inventory{Slots: slices.Clone(stacks)}
}

// Count sums every stack of material.
func (inv Inventory) Count(material string) int {
	n := 0
	for _, s := range inv.Slots {
		if s.Material == material && s.Amount > 0 {
			n += s.Amount
		}
	}
	return n
}

// Clone returns an independent copy.
func (inv Inventory) Clone() Inventory {
	return Inventory{Slots: slices.Clone(inv.Slots)}
}

// Add places amount of material into the first empty slot.
func (inv *Inventory) Add(material string, amount int) {
	for i, s := range inv.Slots {
		if s.Amount == 0 {
			inv.Slots[i] = ItemStack{Material: material, Amount: amount}
			return
		}
	}
	inv.Slots = append(inv.Slots, ItemStack{Material: material, Amount: amount})
}

// RemoveFirstFit takes amount units of material starting from the first
// matching slot, shrinking or emptying stacks in slot order. Nothing changes
// when the inventory holds fewer than amount units.
func (inv *Inventory) RemoveFirstFit(material string, amount int) error {
	if amount <= 0 {
		return nil
	}
	if have := inv.Count(material); have < amount {
		return ferrors.InsufficientItemsError("not enough items").
			WithContext("material", material).
			WithContext("required", amount).
			WithContext("held", have).
			Build()
	}
	remaining := amount
	for i := range inv.Slots {
		if remaining == 0 {
			break
		}
		s := &inv.Slots[i]
		if s.Material != material || s.Amount <= 0 {
			continue
		}
		take := min(s.Amount, remaining)
		s.Amount -= take
		remaining -= take
		if s.Amount == 0 {
			*s = ItemStack{}
		}
	}
	return nil
}

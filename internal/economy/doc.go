// Package economy runs the task economy on top of player accounts: proposing
// generated tasks and settling completed ones against the host inventory.
package economy

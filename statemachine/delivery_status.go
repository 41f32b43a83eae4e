package statemachine

import (
	"errors"
	"fmt"

	"narya-api/models"
)

// ErrInvalidTransition is returned when a requested status change is not an
// edge of the delivery state machine. The order is left untouched.
var ErrInvalidTransition = errors.New("invalid delivery status transition")

// Transition defines a valid delivery status change
type Transition struct {
	From models.DeliveryStatus
	To   models.DeliveryStatus
}

// validTransitions is the authoritative state machine definition.
// Delivered and Cancelled are terminal.
var validTransitions = []Transition{
	{From: models.StatusPending, To: models.StatusOnTheWayToStore},
	{From: models.StatusPending, To: models.StatusCancelled},
	{From: models.StatusOnTheWayToStore, To: models.StatusAtStore},
	{From: models.StatusOnTheWayToStore, To: models.StatusCancelled},
	{From: models.StatusAtStore, To: models.StatusPicked},
	{From: models.StatusAtStore, To: models.StatusCancelled},
	{From: models.StatusPicked, To: models.StatusDelivered},
}

// Build a lookup map for O(1) validation
var transitionMap = func() map[Transition]bool {
	m := make(map[Transition]bool)
	for _, t := range validTransitions {
		m[t] = true
	}
	return m
}()

var allStatuses = map[models.DeliveryStatus]bool{
	models.StatusPending:         true,
	models.StatusOnTheWayToStore: true,
	models.StatusAtStore:         true,
	models.StatusPicked:          true,
	models.StatusDelivered:       true,
	models.StatusCancelled:       true,
}

// IsStatus reports whether s is a member of the delivery status enum.
func IsStatus(s models.DeliveryStatus) bool {
	return allStatuses[s]
}

// IsTerminal reports whether a status has no outgoing transitions.
func IsTerminal(s models.DeliveryStatus) bool {
	return len(NextStates(s)) == 0
}

// NextStates returns all valid next states from a given state
func NextStates(status models.DeliveryStatus) []models.DeliveryStatus {
	var nexts []models.DeliveryStatus
	for _, t := range validTransitions {
		if t.From == status {
			nexts = append(nexts, t.To)
		}
	}
	return nexts
}

// CanTransition checks whether an order may move from one state to another
func CanTransition(from, to models.DeliveryStatus) error {
	if !allStatuses[to] {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}
	if transitionMap[Transition{From: from, To: to}] {
		return nil
	}
	return fmt.Errorf("%w: %s → %s is not allowed. Valid transitions from %s are: %s",
		ErrInvalidTransition, from, to, from, describeValidFrom(from))
}

func describeValidFrom(status models.DeliveryStatus) string {
	nexts := NextStates(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	result := ""
	for i, s := range nexts {
		if i > 0 {
			result += ", "
		}
		result += string(s)
	}
	return result
}

// AllTransitions returns the full state machine for documentation
func AllTransitions() []Transition {
	return validTransitions
}

package statemachine

import (
	"testing"

	"narya-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryTableEdgeIsAllowed(t *testing.T) {
	for _, tr := range AllTransitions() {
		assert.NoError(t, CanTransition(tr.From, tr.To), "%s -> %s", tr.From, tr.To)
	}
}

func TestNonAdjacentTransitionsRejected(t *testing.T) {
	cases := []struct {
		from, to models.DeliveryStatus
	}{
		{models.StatusPending, models.StatusPicked},
		{models.StatusPending, models.StatusAtStore},
		{models.StatusPending, models.StatusDelivered},
		{models.StatusOnTheWayToStore, models.StatusPicked},
		{models.StatusOnTheWayToStore, models.StatusDelivered},
		{models.StatusAtStore, models.StatusDelivered},
		{models.StatusPicked, models.StatusCancelled},
		{models.StatusPicked, models.StatusPending},
		{models.StatusAtStore, models.StatusPending},
	}
	for _, c := range cases {
		err := CanTransition(c.from, c.to)
		require.Error(t, err, "%s -> %s should be rejected", c.from, c.to)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	}
}

func TestTerminalStatesHaveNoOutgoingEdges(t *testing.T) {
	for _, terminal := range []models.DeliveryStatus{models.StatusDelivered, models.StatusCancelled} {
		assert.True(t, IsTerminal(terminal))
		assert.Empty(t, NextStates(terminal))
		for status := range map[models.DeliveryStatus]bool{
			models.StatusPending:         true,
			models.StatusOnTheWayToStore: true,
			models.StatusAtStore:         true,
			models.StatusPicked:          true,
			models.StatusDelivered:       true,
			models.StatusCancelled:       true,
		} {
			assert.Error(t, CanTransition(terminal, status), "terminal %s must not move to %s", terminal, status)
		}
	}
}

func TestUnknownStatusRejected(t *testing.T) {
	err := CanTransition(models.StatusPending, models.DeliveryStatus("Shipped"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTableIsAcyclic(t *testing.T) {
	// walk forward from every state; the table is small enough to bound the walk
	for from := range map[models.DeliveryStatus]bool{
		models.StatusPending:         true,
		models.StatusOnTheWayToStore: true,
		models.StatusAtStore:         true,
		models.StatusPicked:          true,
	} {
		seen := map[models.DeliveryStatus]bool{from: true}
		frontier := NextStates(from)
		for i := 0; i < 10 && len(frontier) > 0; i++ {
			var next []models.DeliveryStatus
			for _, s := range frontier {
				require.False(t, seen[s] && !IsTerminal(s), "cycle through %s", s)
				seen[s] = true
				next = append(next, NextStates(s)...)
			}
			frontier = next
		}
	}
}

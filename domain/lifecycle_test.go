package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to EvidenceStatus
		want     bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusArchived, true},
		{StatusPending, StatusPublished, false},
		{StatusApproved, StatusPublished, true},
		{StatusApproved, StatusArchived, true},
		{StatusApproved, StatusPending, false},
		{StatusPublished, StatusArchived, true},
		{StatusPublished, StatusApproved, false},
		{StatusArchived, StatusPending, false},
		{StatusArchived, StatusPublished, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestEvidenceTransitionTo(t *testing.T) {
	e := &Evidence{Status: StatusPending}
	require.NoError(t, e.TransitionTo(StatusApproved))
	require.NoError(t, e.TransitionTo(StatusPublished))
	assert.Equal(t, StatusPublished, e.Status)

	err := e.TransitionTo(StatusPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusPublished, e.Status)

	assert.ErrorIs(t, e.TransitionTo("deleted"), ErrInvalidInput)
}

func TestRoles(t *testing.T) {
	assert.True(t, Roles{RoleReviewer}.CanApprove())
	assert.False(t, Roles{RoleReviewer}.CanDelete())
	assert.True(t, Roles{RoleSubmitter, RoleAdmin}.CanDelete())
	assert.False(t, Roles{RoleSubmitter}.CanApprove())
	assert.False(t, Roles(nil).HasAny(RoleAdmin))
}

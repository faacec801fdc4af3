package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIncidentStatus_Human(t *testing.T) {
	assert.Equal(t, "PENDING", StatusPending.Human())
	assert.Equal(t, "UNDER INVESTIGATION", StatusUnderInvestigation.Human())
	assert.Equal(t, "RESOLVED", StatusResolved.Human())
}

func TestIncidentStatus_Valid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusUnderInvestigation.Valid())
	assert.True(t, StatusResolved.Valid())
	assert.False(t, IncidentStatus("CLOSED").Valid())
	assert.False(t, IncidentStatus("").Valid())
}

func TestUserRole_IsAdmin(t *testing.T) {
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&User{Role: RoleReporter}).IsAdmin())
}

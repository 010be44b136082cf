package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleCapabilities(t *testing.T) {
	assert.True(t, RoleSuperadmin.Can(CapManageUsers))
	assert.True(t, RoleAdmin.Can(CapManageUsers))
	assert.False(t, RoleEmployee.Can(CapManageUsers))

	assert.True(t, RoleEmployee.Can(CapIssueInvoices))
	assert.True(t, RoleEmployee.Can(CapViewReports))

	unknown := Role("intern")
	assert.False(t, unknown.Valid())
	assert.False(t, unknown.Can(CapViewReports))
}

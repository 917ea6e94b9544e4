package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRole(t *testing.T) {
	t.Run("persists given permissions deduplicated", func(t *testing.T) {
		role, err := NewRole("sales_lead", "Satış Sorumlusu", []string{PermSalesRead, PermSalesCreate, " SALES:READ "})

		require.NoError(t, err)
		assert.Equal(t, "SALES_LEAD", role.Code)
		assert.True(t, role.IsActive)
		assert.False(t, role.IsSystem)
		assert.ElementsMatch(t, []string{PermSalesRead, PermSalesCreate}, role.Permissions)
	})

	t.Run("rejects unknown permission", func(t *testing.T) {
		_, err := NewRole("X", "X", []string{"sales:fly"})
		assert.Error(t, err)
	})

	t.Run("rejects invalid code", func(t *testing.T) {
		_, err := NewRole("1abc", "X", nil)
		assert.Error(t, err)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewRole("ABC", " ", nil)
		assert.Error(t, err)
	})
}

func TestRole_TogglePermission(t *testing.T) {
	role, err := NewRole("TEAM", "Ekip", nil)
	require.NoError(t, err)
	role.ClearDomainEvents()

	require.NoError(t, role.TogglePermission(PermSalesExport, true))
	assert.True(t, role.HasPermission(PermSalesExport))
	assert.Len(t, role.GetDomainEvents(), 1)

	require.NoError(t, role.TogglePermission(PermSalesExport, true))
	assert.Len(t, role.Permissions, 1)
	assert.Len(t, role.GetDomainEvents(), 1)

	require.NoError(t, role.TogglePermission(PermSalesExport, false))
	assert.False(t, role.HasPermission(PermSalesExport))

	assert.Error(t, role.TogglePermission("nope:nope", true))
}

func TestRole_ToggleActive(t *testing.T) {
	role, err := NewRole("TEAM", "Ekip", nil)
	require.NoError(t, err)

	require.NoError(t, role.ToggleActive())
	assert.False(t, role.IsActive)
	require.NoError(t, role.ToggleActive())
	assert.True(t, role.IsActive)

	system, err := NewSystemRole(SalespersonRoleCode, "Satış Temsilcisi", []string{PermSalesRead})
	require.NoError(t, err)
	assert.Error(t, system.ToggleActive())
	assert.Error(t, system.CanDelete())
}

func TestRole_AdminKeepsAllPermissions(t *testing.T) {
	admin, err := NewSystemRole(AdminRoleCode, "Yönetici", AllPermissionCodes())
	require.NoError(t, err)

	assert.Error(t, admin.TogglePermission(PermSalesDelete, false))
	assert.Error(t, admin.SetPermissions([]string{PermSalesRead}))
	assert.NoError(t, admin.SetPermissions(AllPermissionCodes()))
}

func TestPermissionCatalog(t *testing.T) {
	catalog := PermissionCatalog()
	assert.Len(t, catalog, len(AllPermissionCodes()))
	for _, p := range catalog {
		assert.Equal(t, p.Resource+":"+p.Action, p.Code)
		assert.NotEmpty(t, p.Description)
	}
}

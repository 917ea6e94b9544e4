package activity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewLog(t *testing.T) {
	id := uuid.New()
	l := NewLog("", "Sale", &id, "  Satış oluşturuldu ")
	assert.Equal(t, ActionOther, l.Action)
	assert.Equal(t, "Satış oluşturuldu", l.Description)
	assert.Equal(t, "{}", l.MetadataJSON())

	user := uuid.New()
	l.WithUser(user, "ayse", "10.0.0.1").WithMetadata("rows", 3)
	assert.Equal(t, &user, l.UserID)
	assert.JSONEq(t, `{"rows":3}`, l.MetadataJSON())

	l2 := NewLog(ActionLogin, "User", nil, "").WithUser(uuid.Nil, "", "")
	assert.Nil(t, l2.UserID)
}

func TestActionForEvent(t *testing.T) {
	tests := map[string]Action{
		"SaleCreated":          ActionCreate,
		"PenaltyAdded":         ActionCreate,
		"SaleDeleted":          ActionDelete,
		"UserLoggedIn":         ActionLogin,
		"SaleCancelled":        ActionCancel,
		"SaleTransferred":      ActionTransfer,
		"SalesImportCompleted": ActionImport,
		"SaleUpdated":          ActionUpdate,
	}
	for eventType, want := range tests {
		assert.Equal(t, want, ActionForEvent(eventType), eventType)
	}
}

func TestFilter_Pagination(t *testing.T) {
	assert.Equal(t, 50, Filter{}.Limit())
	assert.Equal(t, 200, Filter{PageSize: 1000}.Limit())
	assert.Equal(t, 40, Filter{Page: 3, PageSize: 20}.Offset())
}

package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"asc", "ASC"},
		{" ASC ", "ASC"},
		{"desc", "DESC"},
		{"", "DESC"},
		{"asc; DROP TABLE sales", "DESC"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateSortOrder(tt.in), tt.in)
	}
}

func TestValidateSortField(t *testing.T) {
	assert.Equal(t, "sale_date", ValidateSortField("", SaleSortFields, "sale_date"))
	assert.Equal(t, "prim_amount", ValidateSortField("PRIM_AMOUNT", SaleSortFields, "sale_date"))
	assert.Equal(t, "sale_date", ValidateSortField("password_hash", SaleSortFields, "sale_date"))
	assert.Equal(t, "username", ValidateSortField("username", UserSortFields, "created_at"))
}

func TestOrderClause(t *testing.T) {
	assert.Equal(t, "contract_no ASC, id ASC", orderClause("contract_no", SaleSortFields, "sale_date", "asc"))
	assert.Equal(t, "sale_date DESC, id ASC", orderClause("1=1", SaleSortFields, "sale_date", "x"))
}

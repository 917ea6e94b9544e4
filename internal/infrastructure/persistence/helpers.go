package persistence

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/salescrm/backend/internal/domain/shared"
)

// translateError maps GORM errors to domain errors
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists
	default:
		return err
	}
}

// affectedOrNotFound returns ErrNotFound when a write touched no row
func affectedOrNotFound(result *gorm.DB) error {
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// updateAll writes every column of model except the immutable ones
func updateAll(ctx context.Context, db *gorm.DB, model any) error {
	result := db.WithContext(ctx).Model(model).Select("*").Omit("id", "created_at", "created_by").Updates(model)
	return affectedOrNotFound(result)
}

// likePattern builds a case-insensitive LIKE argument
func likePattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}

// Package settings contains the system settings use cases.
package settings

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/salescrm/backend/internal/domain/settings"
	"github.com/salescrm/backend/internal/domain/shared"
)

// SettingDTO is the API representation of a setting
type SettingDTO struct {
	Key         string     `json:"key"`
	Value       string     `json:"value"`
	TypedValue  any        `json:"typed_value"`
	ValueType   string     `json:"value_type"`
	Category    string     `json:"category"`
	Description string     `json:"description,omitempty"`
	IsBuiltin   bool       `json:"is_builtin"`
	UpdatedBy   *uuid.UUID `json:"updated_by,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ToSettingDTO converts a domain setting
func ToSettingDTO(s *settings.Setting) SettingDTO {
	return SettingDTO{
		Key:         s.Key,
		Value:       s.Value,
		TypedValue:  s.Typed(),
		ValueType:   string(s.ValueType),
		Category:    s.Category,
		Description: s.Description,
		IsBuiltin:   settings.DefaultFor(s.Key) != nil,
		UpdatedBy:   s.UpdatedBy,
		UpdatedAt:   s.UpdatedAt,
	}
}

// SetInput writes a setting. Type, category and description only apply to new keys.
type SetInput struct {
	Value       string
	ValueType   string
	Category    string
	Description string
}

// Service handles system settings
type Service struct {
	repo   settings.Repository
	logger *zap.Logger
}

// NewService creates a new settings service
func NewService(repo settings.Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns all settings, optionally of one category
func (s *Service) List(ctx context.Context, category string) ([]SettingDTO, error) {
	items, err := s.repo.FindAll(ctx, strings.TrimSpace(category))
	if err != nil {
		return nil, err
	}
	out := make([]SettingDTO, len(items))
	for i, item := range items {
		out[i] = ToSettingDTO(item)
	}
	return out, nil
}

// Get returns one setting
func (s *Service) Get(ctx context.Context, key string) (*SettingDTO, error) {
	setting, err := s.find(ctx, key)
	if err != nil {
		return nil, err
	}
	dto := ToSettingDTO(setting)
	return &dto, nil
}

// Set updates an existing setting or creates a new one
func (s *Service) Set(ctx context.Context, key string, input SetInput, by uuid.UUID) (*SettingDTO, error) {
	key = normalizeKey(key)
	setting, err := s.repo.FindByKey(ctx, key)
	switch {
	case err == nil:
		if input.ValueType != "" && settings.ValueType(input.ValueType) != setting.ValueType {
			return nil, shared.NewDomainError("SETTING_TYPE_MISMATCH", "Mevcut bir ayarın değer türü değiştirilemez")
		}
		if err := setting.SetValue(input.Value, &by); err != nil {
			return nil, err
		}
		if d := strings.TrimSpace(input.Description); d != "" {
			setting.Description = d
		}
	case errors.Is(err, shared.ErrNotFound):
		valueType := settings.ValueType(input.ValueType)
		if def := settings.DefaultFor(key); def != nil {
			valueType = def.ValueType
		}
		setting, err = settings.NewSetting(key, input.Value, valueType, input.Category, input.Description)
		if err != nil {
			return nil, err
		}
		setting.UpdatedBy = &by
	default:
		return nil, err
	}

	if err := s.repo.Save(ctx, setting); err != nil {
		return nil, err
	}
	s.logger.Info("System setting changed",
		zap.String("key", setting.Key),
		zap.String("value", setting.Value),
		zap.String("updated_by", by.String()))

	dto := ToSettingDTO(setting)
	return &dto, nil
}

// Delete removes a custom setting. Built-in settings are reset to their default instead.
func (s *Service) Delete(ctx context.Context, key string) (*SettingDTO, error) {
	setting, err := s.find(ctx, key)
	if err != nil {
		return nil, err
	}
	if def := settings.DefaultFor(setting.Key); def != nil {
		if err := s.repo.Save(ctx, def); err != nil {
			return nil, err
		}
		dto := ToSettingDTO(def)
		return &dto, nil
	}
	if err := s.repo.Delete(ctx, setting.Key); err != nil {
		return nil, err
	}
	return nil, nil
}

// EnsureDefaults seeds missing built-in settings
func (s *Service) EnsureDefaults(ctx context.Context) error {
	for _, def := range settings.Defaults() {
		if err := s.repo.CreateIfMissing(ctx, def); err != nil {
			return err
		}
	}
	return nil
}

// Int returns the integer value of key, falling back to its built-in default and then def
func (s *Service) Int(ctx context.Context, key string, def int) int {
	if setting := s.lookup(ctx, key); setting != nil {
		return setting.Int(def)
	}
	return def
}

// Bool returns the boolean value of key, falling back to its built-in default and then def
func (s *Service) Bool(ctx context.Context, key string, def bool) bool {
	if setting := s.lookup(ctx, key); setting != nil {
		return setting.Bool(def)
	}
	return def
}

func (s *Service) lookup(ctx context.Context, key string) *settings.Setting {
	setting, err := s.repo.FindByKey(ctx, key)
	if err == nil {
		return setting
	}
	if !errors.Is(err, shared.ErrNotFound) {
		s.logger.Warn("Failed to read setting", zap.String("key", key), zap.Error(err))
	}
	return settings.DefaultFor(key)
}

func (s *Service) find(ctx context.Context, key string) (*settings.Setting, error) {
	setting, err := s.repo.FindByKey(ctx, normalizeKey(key))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("SETTING_NOT_FOUND", "Ayar bulunamadı: "+key)
		}
		return nil, err
	}
	return setting, nil
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

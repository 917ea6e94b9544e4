// Package settings holds typed key/value system settings.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/salescrm/backend/internal/domain/shared"
)

// ValueType declares how a setting value is interpreted
type ValueType string

const (
	TypeString ValueType = "string"
	TypeNumber ValueType = "number"
	TypeBool   ValueType = "bool"
	TypeJSON   ValueType = "json"
)

// Well known keys
const (
	KeyPenaltyMaxPoints       = "penalty.max_points"
	KeyDailyMinimum           = "communication.daily_minimum"
	KeyAllowDuplicateCustomer = "sales.allow_duplicate_customer"
	KeyImportMaxRows          = "import.max_rows"
	KeyActivityRetentionDays  = "activity.retention_days"
)

// Setting is one system setting
type Setting struct {
	Key         string
	Value       string
	ValueType   ValueType
	Category    string
	Description string
	UpdatedBy   *uuid.UUID
	UpdatedAt   time.Time
}

// NewSetting validates and creates a setting
func NewSetting(key, value string, valueType ValueType, category, description string) (*Setting, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if valueType == "" {
		valueType = TypeString
	}
	s := &Setting{
		Key:         key,
		ValueType:   valueType,
		Category:    strings.TrimSpace(category),
		Description: strings.TrimSpace(description),
		UpdatedAt:   time.Now(),
	}
	if s.Category == "" {
		s.Category = categoryOf(key)
	}
	if err := s.SetValue(value, nil); err != nil {
		return nil, err
	}
	return s, nil
}

// ValidateKey checks the key format: lowercase letters, digits, dots and underscores
func ValidateKey(key string) error {
	if key == "" || len(key) > 100 {
		return shared.NewDomainError("INVALID_SETTING_KEY", "Ayar anahtarı 1 ile 100 karakter arasında olmalı")
	}
	for _, r := range key {
		if !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '.' && r != '_' {
			return shared.NewDomainError("INVALID_SETTING_KEY", fmt.Sprintf("Ayar anahtarında geçersiz karakter: %q", r))
		}
	}
	return nil
}

func categoryOf(key string) string {
	if i := strings.IndexByte(key, '.'); i > 0 {
		return key[:i]
	}
	return "general"
}

// SetValue validates value against the declared type and stores it
func (s *Setting) SetValue(value string, by *uuid.UUID) error {
	value = strings.TrimSpace(value)
	switch s.ValueType {
	case TypeString:
	case TypeNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return shared.NewDomainError("INVALID_SETTING_VALUE", fmt.Sprintf("%s ayarı sayı bekliyor", s.Key))
		}
	case TypeBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return shared.NewDomainError("INVALID_SETTING_VALUE", fmt.Sprintf("%s ayarı true veya false bekliyor", s.Key))
		}
		value = strconv.FormatBool(b)
	case TypeJSON:
		if !json.Valid([]byte(value)) {
			return shared.NewDomainError("INVALID_SETTING_VALUE", fmt.Sprintf("%s ayarı geçerli JSON bekliyor", s.Key))
		}
	default:
		return shared.NewDomainError("INVALID_SETTING_TYPE", fmt.Sprintf("Bilinmeyen ayar türü: %s", s.ValueType))
	}
	s.Value = value
	s.UpdatedBy = by
	s.UpdatedAt = time.Now()
	return nil
}

// Int returns the value as an integer or def when it does not parse
func (s *Setting) Int(def int) int {
	f, err := strconv.ParseFloat(s.Value, 64)
	if err != nil {
		return def
	}
	return int(f)
}

// Bool returns the value as a boolean or def when it does not parse
func (s *Setting) Bool(def bool) bool {
	b, err := strconv.ParseBool(s.Value)
	if err != nil {
		return def
	}
	return b
}

// Typed returns the value decoded according to its type
func (s *Setting) Typed() any {
	switch s.ValueType {
	case TypeNumber:
		f, _ := strconv.ParseFloat(s.Value, 64)
		return f
	case TypeBool:
		return s.Bool(false)
	case TypeJSON:
		var v any
		if err := json.Unmarshal([]byte(s.Value), &v); err == nil {
			return v
		}
	}
	return s.Value
}

// Defaults are seeded at startup when missing
func Defaults() []*Setting {
	defs := []struct {
		key, value string
		vt         ValueType
		desc       string
	}{
		{KeyPenaltyMaxPoints, "20", TypeNumber, "Uyarı verilecek maksimum ceza puanı"},
		{KeyDailyMinimum, "10", TypeNumber, "Günlük minimum iletişim sayısı"},
		{KeyAllowDuplicateCustomer, "true", TypeBool, "Aynı müşteri adına birden fazla satışa izin ver"},
		{KeyImportMaxRows, "5000", TypeNumber, "Bir içe aktarma dosyasındaki maksimum satır"},
		{KeyActivityRetentionDays, "365", TypeNumber, "Aktivite kayıtlarının saklanma süresi (gün)"},
	}
	out := make([]*Setting, 0, len(defs))
	for _, d := range defs {
		s, err := NewSetting(d.key, d.value, d.vt, "", d.desc)
		if err != nil {
			panic(err)
		}
		out = append(out, s)
	}
	return out
}

// DefaultFor returns the built-in default of key, nil when the key has none
func DefaultFor(key string) *Setting {
	for _, s := range Defaults() {
		if s.Key == key {
			return s
		}
	}
	return nil
}

// Repository persists settings
type Repository interface {
	FindAll(ctx context.Context, category string) ([]*Setting, error)
	FindByKey(ctx context.Context, key string) (*Setting, error)
	Save(ctx context.Context, s *Setting) error
	Delete(ctx context.Context, key string) error
	// CreateIfMissing inserts s when its key does not exist yet
	CreateIfMissing(ctx context.Context, s *Setting) error
}

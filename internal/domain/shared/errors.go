package shared

import "errors"

// DomainError is a business rule failure. Code is stable and machine readable;
// Message is shown to the user as is.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string { return e.Message }

// Is compares by code, so errors.Is(err, ErrNotFound) holds for any NOT_FOUND error
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	return errors.As(target, &other) && other.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// AsDomainError unwraps err to the first DomainError in its chain
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Kayıt bulunamadı")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Kayıt zaten mevcut")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Geçersiz veri")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Kayıt başka bir işlem tarafından değiştirildi")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Oturum açmanız gerekiyor")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Bu işlem için yetkiniz yok")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "İşlem kaydın mevcut durumunda yapılamaz")
)

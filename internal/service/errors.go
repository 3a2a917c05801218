package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/storage"
)

var (
	ErrValidation        = errors.New("validation")         // 400
	ErrEmptyCart         = errors.New("cart is empty")      // 400
	ErrUnauthorized      = errors.New("unauthorized")       // 401
	ErrForbidden         = errors.New("forbidden")          // 403
	ErrNotFound          = errors.New("not found")          // 404
	ErrConflict          = errors.New("conflict")           // 409
	ErrInsufficientStock = errors.New("insufficient stock") // 409
)

// ValidationError carries per-field messages for form-style responses.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

func invalid(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// ForbiddenError is returned when an authorization Decision denies an action.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string { return "forbidden: " + e.Reason }

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// notFound translates gorm.ErrRecordNotFound and leaves other errors alone.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}

// uploadError turns a rejected upload into a field error. Other errors pass
// through as nil so the caller treats them as internal.
func uploadError(field string, err error) error {
	switch {
	case errors.Is(err, storage.ErrUnsupportedType):
		return invalid(field, "upload a jpg, png, gif or webp image")
	case errors.Is(err, storage.ErrTooLarge):
		return invalid(field, fmt.Sprintf("file must be at most %d MB", storage.MaxUploadBytes>>20))
	}
	return nil
}

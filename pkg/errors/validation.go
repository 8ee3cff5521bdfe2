package errors

import (
	"net/http"
	"strings"
)

// FieldErrors aggregates per-field validation messages.
// The first message recorded for a field wins.
type FieldErrors struct {
	fields map[string]string
	order  []string
}

// NewFieldErrors creates an empty collection
func NewFieldErrors() *FieldErrors {
	return &FieldErrors{fields: make(map[string]string)}
}

// Add records message for field unless the field already has one
func (f *FieldErrors) Add(field, message string) {
	if _, exists := f.fields[field]; exists {
		return
	}
	f.fields[field] = message
	f.order = append(f.order, field)
}

// HasErrors reports whether any field failed
func (f *FieldErrors) HasErrors() bool {
	return len(f.fields) > 0
}

// Get returns the message recorded for field
func (f *FieldErrors) Get(field string) (string, bool) {
	msg, ok := f.fields[field]
	return msg, ok
}

// Fields returns a copy of the field to message map
func (f *FieldErrors) Fields() map[string]string {
	out := make(map[string]string, len(f.fields))
	for k, v := range f.fields {
		out[k] = v
	}
	return out
}

// Error implements the error interface, listing fields in the order they failed
func (f *FieldErrors) Error() string {
	parts := make([]string, 0, len(f.order))
	for _, field := range f.order {
		parts = append(parts, field+": "+f.fields[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ErrOrNil returns nil when nothing was recorded
func (f *FieldErrors) ErrOrNil() error {
	if !f.HasErrors() {
		return nil
	}
	return f
}

// ToAppError renders the collection as a 400 AppError with details.fields
func (f *FieldErrors) ToAppError() *AppError {
	message := "Validation failed"
	if len(f.order) > 0 {
		message = f.fields[f.order[0]]
	}

	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		Code:       "FIELD_VALIDATION",
		HTTPStatus: http.StatusBadRequest,
		Details: map[string]interface{}{
			"fields": f.Fields(),
		},
	}
}

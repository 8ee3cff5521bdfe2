package valueobjects

import (
	"errors"

	"github.com/google/uuid"
)

// RecipeID is a value object representing a unique recipe identifier.
// The same shape identifies ingredients and instructions.
type RecipeID struct {
	value string
}

// NewRecipeID creates a new random RecipeID
func NewRecipeID() RecipeID {
	return RecipeID{value: uuid.New().String()}
}

// NewRecipeIDFromString creates a RecipeID from an existing string
func NewRecipeIDFromString(id string) (RecipeID, error) {
	if id == "" {
		return RecipeID{}, errors.New("recipe ID cannot be empty")
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return RecipeID{}, errors.New("recipe ID must be a valid UUID")
	}
	return RecipeID{value: parsed.String()}, nil
}

// RecipeIDFromStorage wraps an identifier read back from a store without
// parsing it again. Stored IDs were canonicalized when written.
func RecipeIDFromStorage(id string) RecipeID {
	return RecipeID{value: id}
}

// String returns the string representation of the RecipeID
func (id RecipeID) String() string {
	return id.value
}

// Equals checks if two RecipeIDs are equal
func (id RecipeID) Equals(other RecipeID) bool {
	return id.value == other.value
}

// IsZero checks if the RecipeID is the zero value
func (id RecipeID) IsZero() bool {
	return id.value == ""
}

// MarshalText implements encoding.TextMarshaler
func (id RecipeID) MarshalText() ([]byte, error) {
	return []byte(id.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (id *RecipeID) UnmarshalText(data []byte) error {
	id.value = string(data)
	return nil
}

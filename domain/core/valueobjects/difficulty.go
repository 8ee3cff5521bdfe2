package valueobjects

import (
	"fmt"
	"strings"
)

// Difficulty is the enumerated effort level of a recipe.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// DefaultDifficulty is used when the form leaves the field untouched.
const DefaultDifficulty = DifficultyMedium

// ParseDifficulty normalizes s. An empty value yields DefaultDifficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if d == "" {
		return DefaultDifficulty, nil
	}
	if !d.IsValid() {
		return "", fmt.Errorf("difficulty must be one of easy, medium, hard")
	}
	return d, nil
}

// IsValid checks the value against the enumeration.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

func (d Difficulty) String() string {
	return string(d)
}

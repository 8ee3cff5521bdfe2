package config

import (
	"fmt"
	"strings"
)

// DefaultCategories is the catalog offered by the recipe form.
var DefaultCategories = []string{
	"breakfast",
	"lunch",
	"dinner",
	"dessert",
	"snack",
	"vegetarian",
	"vegan",
	"gluten-free",
}

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Recipe constraints
	MaxTitleLength       int
	MaxDescriptionLength int
	MaxPrepTimeMinutes   int
	MaxCookTimeMinutes   int
	MaxServings          int

	// Dependent collections
	MaxIngredients       int
	MaxInstructions      int
	MaxIngredientLength  int
	MaxInstructionLength int

	// Categories
	Categories       []string
	MaxCategories    int
	AllowUnknownTags bool

	// Listing
	DefaultPageSize int
	MaxPageSize     int
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxTitleLength:       200,
		MaxDescriptionLength: 5000,
		MaxPrepTimeMinutes:   7 * 24 * 60,
		MaxCookTimeMinutes:   7 * 24 * 60,
		MaxServings:          1000,

		MaxIngredients:       100,
		MaxInstructions:      100,
		MaxIngredientLength:  200,
		MaxInstructionLength: 2000,

		Categories:       append([]string(nil), DefaultCategories...),
		MaxCategories:    len(DefaultCategories),
		AllowUnknownTags: false,

		DefaultPageSize: 100,
		MaxPageSize:     100,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()
	config.MaxIngredients = 60
	config.MaxInstructions = 60
	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()
	config.MaxIngredients = 500
	config.MaxInstructions = 500
	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// IsKnownCategory reports whether the category is part of the catalog.
func (c *DomainConfig) IsKnownCategory(category string) bool {
	if c.AllowUnknownTags {
		return true
	}
	category = strings.ToLower(strings.TrimSpace(category))
	for _, known := range c.Categories {
		if known == category {
			return true
		}
	}
	return false
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.MaxTitleLength <= 0 || c.MaxDescriptionLength <= 0 {
		return fmt.Errorf("text limits must be positive")
	}
	if c.MaxIngredients <= 0 || c.MaxInstructions <= 0 {
		return fmt.Errorf("collection limits must be positive")
	}
	if len(c.Categories) == 0 && !c.AllowUnknownTags {
		return fmt.Errorf("category catalog cannot be empty")
	}
	if c.DefaultPageSize <= 0 || c.DefaultPageSize > c.MaxPageSize {
		return fmt.Errorf("default page size must be between 1 and %d", c.MaxPageSize)
	}
	return nil
}

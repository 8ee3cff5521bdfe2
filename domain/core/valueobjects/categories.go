package valueobjects

import (
	"encoding/json"
	"strings"
)

// CategorySeparator joins categories in their stored form.
const CategorySeparator = ","

// Categories is an immutable, ordered set of lower-cased category tags.
type Categories struct {
	values []string
}

// NewCategories normalizes, de-duplicates and keeps first-seen order.
// Blank entries are dropped.
func NewCategories(tags []string) Categories {
	seen := make(map[string]struct{}, len(tags))
	values := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = normalizeCategory(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		values = append(values, tag)
	}
	return Categories{values: values}
}

// ParseCategories reads the comma-delimited stored form.
func ParseCategories(serialized string) Categories {
	if strings.TrimSpace(serialized) == "" {
		return Categories{}
	}
	return NewCategories(strings.Split(serialized, CategorySeparator))
}

// Contains reports membership, ignoring case and surrounding space.
func (c Categories) Contains(tag string) bool {
	tag = normalizeCategory(tag)
	for _, v := range c.values {
		if v == tag {
			return true
		}
	}
	return false
}

// Values returns a copy of the tags.
func (c Categories) Values() []string {
	out := make([]string, len(c.values))
	copy(out, c.values)
	return out
}

func (c Categories) Len() int {
	return len(c.values)
}

func (c Categories) IsEmpty() bool {
	return len(c.values) == 0
}

// String returns the comma-delimited stored form.
func (c Categories) String() string {
	return strings.Join(c.values, CategorySeparator)
}

// MarshalJSON renders the set as a JSON array.
func (c Categories) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Values())
}

func normalizeCategory(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

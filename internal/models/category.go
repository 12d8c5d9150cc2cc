package models

import "strings"

const (
	// Uncategorized is assigned when no rule matches
	Uncategorized = "Uncategorized"

	// CategorySeparator joins the elements of a category path
	CategorySeparator = " > "
)

// CategoryRule maps a regex to a hierarchical category path
type CategoryRule struct {
	ID    string   `json:"id" yaml:"id"`
	Name  []string `json:"name" yaml:"name"`
	Regex string   `json:"regex" yaml:"regex"`
	Color string   `json:"color,omitempty" yaml:"color,omitempty"`
	Score *int     `json:"score,omitempty" yaml:"score,omitempty"`
}

// Depth is the length of the category path; deeper paths are more specific
func (r CategoryRule) Depth() int {
	return len(r.Name)
}

// Path returns the joined category path, e.g. "Work > Coding"
func (r CategoryRule) Path() string {
	return strings.Join(r.Name, CategorySeparator)
}

// CreateCategoryRuleRequest adds a rule to the local rule store
type CreateCategoryRuleRequest struct {
	Name  []string `json:"name"`
	Regex string   `json:"regex"`
	Color string   `json:"color,omitempty"`
	Score *int     `json:"score,omitempty"`
	// Position places the rule in the ordered set; nil appends it.
	Position *int `json:"position,omitempty"`
}

// UpdateCategoryRuleRequest changes selected fields of a stored rule
type UpdateCategoryRuleRequest struct {
	Name     []string `json:"name,omitempty"`
	Regex    *string  `json:"regex,omitempty"`
	Color    *string  `json:"color,omitempty"`
	Score    *int     `json:"score,omitempty"`
	Position *int     `json:"position,omitempty"`
}

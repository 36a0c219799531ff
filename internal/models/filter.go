package models

// FilterOperator represents a filter comparison operator
type FilterOperator string

const (
	OpEqual          FilterOperator = "="
	OpNotEqual       FilterOperator = "!="
	OpGreaterThan    FilterOperator = ">"
	OpGreaterOrEqual FilterOperator = ">="
	OpLessThan       FilterOperator = "<"
	OpLessOrEqual    FilterOperator = "<="
	OpLike           FilterOperator = "~"  // wildcard
	OpMatch          FilterOperator = ":"  // full-text match
	OpIn             FilterOperator = "in" // comma separated values
	OpExists         FilterOperator = "exists"
	OpMissing        FilterOperator = "missing"
)

// FilterCondition represents a single filter condition
type FilterCondition struct {
	Field    string
	Operator FilterOperator
	Value    interface{}
}

// FilterGroup represents a group of conditions with AND/OR logic
type FilterGroup struct {
	Conditions []FilterCondition
	Logic      string // "AND" or "OR"
	Groups     []FilterGroup
}

// Filter represents the complete filter state
type Filter struct {
	RootGroup FilterGroup
}

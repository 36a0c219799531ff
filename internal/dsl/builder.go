package dsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rebeliceyang/lazyes/internal/models"
)

// Builder generates bool queries from Filter models
type Builder struct{}

// NewBuilder creates a new filter builder
func NewBuilder() *Builder {
	return &Builder{}
}

// BuildQuery generates a query clause from a Filter. An empty filter
// matches every document.
func (b *Builder) BuildQuery(filter models.Filter) (map[string]any, error) {
	if len(filter.RootGroup.Conditions) == 0 && len(filter.RootGroup.Groups) == 0 {
		return MatchAll(), nil
	}
	return b.buildGroup(filter.RootGroup)
}

// buildGroup recursively builds a filter group
func (b *Builder) buildGroup(group models.FilterGroup) (map[string]any, error) {
	var must, mustNot []any

	for _, cond := range group.Conditions {
		clause, negate, err := b.buildCondition(cond)
		if err != nil {
			return nil, err
		}
		if negate {
			mustNot = append(mustNot, clause)
		} else {
			must = append(must, clause)
		}
	}

	for _, sub := range group.Groups {
		clause, err := b.buildGroup(sub)
		if err != nil {
			return nil, err
		}
		must = append(must, clause)
	}

	boolQuery := map[string]any{}
	switch strings.ToUpper(group.Logic) {
	case "", "AND":
		if len(must) > 0 {
			boolQuery["must"] = must
		}
		if len(mustNot) > 0 {
			boolQuery["must_not"] = mustNot
		}
	case "OR":
		should := must
		for _, clause := range mustNot {
			should = append(should, map[string]any{"bool": map[string]any{"must_not": []any{clause}}})
		}
		boolQuery["should"] = should
		boolQuery["minimum_should_match"] = 1
	default:
		return nil, fmt.Errorf("unsupported logic: %s", group.Logic)
	}

	return map[string]any{"bool": boolQuery}, nil
}

// buildCondition builds a single clause; negate marks clauses that belong in must_not
func (b *Builder) buildCondition(cond models.FilterCondition) (map[string]any, bool, error) {
	field := cond.Field
	if field == "" {
		return nil, false, fmt.Errorf("condition without field")
	}

	switch cond.Operator {
	case models.OpEqual:
		return term(field, cond.Value), false, nil
	case models.OpNotEqual:
		return term(field, cond.Value), true, nil
	case models.OpGreaterThan:
		return rangeQuery(field, "gt", cond.Value), false, nil
	case models.OpGreaterOrEqual:
		return rangeQuery(field, "gte", cond.Value), false, nil
	case models.OpLessThan:
		return rangeQuery(field, "lt", cond.Value), false, nil
	case models.OpLessOrEqual:
		return rangeQuery(field, "lte", cond.Value), false, nil
	case models.OpLike:
		return map[string]any{"wildcard": map[string]any{field: cond.Value}}, false, nil
	case models.OpMatch:
		return map[string]any{"match": map[string]any{field: cond.Value}}, false, nil
	case models.OpIn:
		values, ok := cond.Value.([]any)
		if !ok {
			values = []any{cond.Value}
		}
		return map[string]any{"terms": map[string]any{field: values}}, false, nil
	case models.OpExists:
		return map[string]any{"exists": map[string]any{"field": field}}, false, nil
	case models.OpMissing:
		return map[string]any{"exists": map[string]any{"field": field}}, true, nil
	default:
		return nil, false, fmt.Errorf("unsupported operator: %s", cond.Operator)
	}
}

func term(field string, value any) map[string]any {
	return map[string]any{"term": map[string]any{field: value}}
}

func rangeQuery(field, op string, value any) map[string]any {
	return map[string]any{"range": map[string]any{field: map[string]any{op: value}}}
}

// whereOperators is ordered so that two-character operators win over their prefixes
var whereOperators = []models.FilterOperator{
	models.OpNotEqual,
	models.OpGreaterOrEqual,
	models.OpLessOrEqual,
	models.OpEqual,
	models.OpGreaterThan,
	models.OpLessThan,
	models.OpLike,
	models.OpMatch,
}

// ParseWhere parses a "field<op>value" expression as used on the command
// line, e.g. "status=active", "age>=30", "name~jo*", "tags in a,b",
// "email exists".
func ParseWhere(expr string) (models.FilterCondition, error) {
	expr = strings.TrimSpace(expr)

	if fields := strings.Fields(expr); len(fields) == 2 {
		switch models.FilterOperator(fields[1]) {
		case models.OpExists, models.OpMissing:
			return models.FilterCondition{Field: fields[0], Operator: models.FilterOperator(fields[1])}, nil
		}
	}
	if field, list, ok := strings.Cut(expr, " in "); ok {
		var values []any
		for _, v := range strings.Split(list, ",") {
			values = append(values, scalar(strings.TrimSpace(v)))
		}
		return models.FilterCondition{Field: strings.TrimSpace(field), Operator: models.OpIn, Value: values}, nil
	}

	best := -1
	var bestOp models.FilterOperator
	for _, op := range whereOperators {
		idx := strings.Index(expr, string(op))
		if idx > 0 && (best == -1 || idx < best) {
			best, bestOp = idx, op
		}
	}
	if best == -1 {
		return models.FilterCondition{}, fmt.Errorf("cannot parse condition %q", expr)
	}

	field := strings.TrimSpace(expr[:best])
	value := strings.TrimSpace(expr[best+len(bestOp):])
	if field == "" {
		return models.FilterCondition{}, fmt.Errorf("condition %q has no field", expr)
	}

	cond := models.FilterCondition{Field: field, Operator: bestOp, Value: scalar(value)}
	if bestOp == models.OpLike || bestOp == models.OpMatch {
		cond.Value = value
	}
	return cond, nil
}

func scalar(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return strings.Trim(s, `"'`)
}

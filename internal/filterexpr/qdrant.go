package filterexpr

import (
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// ToQdrantFilter converts an Expr tree into a qdrant.Filter, adapted from
// ai/providers/vectorstores/qdrant.Converter (deleted, see DESIGN.md),
// trimmed to the three node kinds this package defines.
func ToQdrantFilter(expr Expr) (*qdrant.Filter, error) {
	if expr == nil {
		return &qdrant.Filter{}, nil
	}
	filter := &qdrant.Filter{}
	cond, err := toCondition(expr)
	if err != nil {
		return nil, err
	}
	filter.Must = append(filter.Must, cond)
	return filter, nil
}

func toCondition(expr Expr) (*qdrant.Condition, error) {
	node, ok := expr.(BinaryExpr)
	if !ok {
		return nil, fmt.Errorf("filterexpr: unsupported expression %T", expr)
	}

	switch node.Op {
	case OpAND:
		left, err := toCondition(node.Left)
		if err != nil {
			return nil, err
		}
		right, err := toCondition(node.Right)
		if err != nil {
			return nil, err
		}
		return qdrant.NewFilterAsCondition(&qdrant.Filter{Must: []*qdrant.Condition{left, right}}), nil

	case OpEQ:
		field, ok := node.Left.(Ident)
		if !ok {
			return nil, fmt.Errorf("filterexpr: EQ left side must be an Ident")
		}
		lit, ok := node.Right.(Literal)
		if !ok {
			return nil, fmt.Errorf("filterexpr: EQ right side must be a Literal")
		}
		return matchCondition(field.Name, lit.Value)

	case OpIN:
		field, ok := node.Left.(Ident)
		if !ok {
			return nil, fmt.Errorf("filterexpr: IN left side must be an Ident")
		}
		list, ok := node.Right.(ListLiteral)
		if !ok || len(list.Values) == 0 {
			return nil, fmt.Errorf("filterexpr: IN right side must be a non-empty ListLiteral")
		}
		return matchInCondition(field.Name, list.Values)

	default:
		return nil, fmt.Errorf("filterexpr: unsupported operator %q", node.Op)
	}
}

func matchCondition(field string, value any) (*qdrant.Condition, error) {
	switch v := value.(type) {
	case string:
		return qdrant.NewMatchKeyword(field, v), nil
	case int:
		return qdrant.NewMatchInt(field, int64(v)), nil
	case int64:
		return qdrant.NewMatchInt(field, v), nil
	case float64:
		return qdrant.NewMatchInt(field, int64(v)), nil
	case bool:
		return qdrant.NewMatchBool(field, v), nil
	default:
		return nil, fmt.Errorf("filterexpr: unsupported literal type %T", value)
	}
}

func matchInCondition(field string, values []any) (*qdrant.Condition, error) {
	switch values[0].(type) {
	case string:
		keywords := make([]string, len(values))
		for i, v := range values {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("filterexpr: mixed-type list at index %d", i)
			}
			keywords[i] = s
		}
		return qdrant.NewMatchKeywords(field, keywords...), nil
	default:
		return nil, fmt.Errorf("filterexpr: IN only supports string lists (file_ids filter)")
	}
}

package filter

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rebeliceyang/lazycirc/internal/models"
)

// ErrInvalidNode is returned when a tree or expression breaks the structural
// rules of a query: a boolean node without a valid combinator, a leaf with an
// unknown operator, or a nil child.
var ErrInvalidNode = errors.New("invalid query node")

// Expression is the wire form of a query tree accepted by the search
// endpoint. A leaf is {"key", "value"} plus "op" for non-default operators;
// a boolean node is {"and": [...]} or {"or": [...]}.
type Expression struct {
	Key        models.FieldKey
	Op         models.FilterOperator
	Value      string
	Combinator models.Combinator
	Children   []*Expression
}

// IsBoolean reports whether e is an and/or expression
func (e *Expression) IsBoolean() bool {
	return e.Combinator != ""
}

type leafJSON struct {
	Key   models.FieldKey       `json:"key"`
	Op    models.FilterOperator `json:"op,omitempty"`
	Value string                `json:"value"`
}

// MarshalJSON implements json.Marshaler
func (e Expression) MarshalJSON() ([]byte, error) {
	if e.Combinator != "" {
		children := e.Children
		if children == nil {
			children = []*Expression{}
		}
		return json.Marshal(map[string][]*Expression{string(e.Combinator): children})
	}
	return json.Marshal(leafJSON{Key: e.Key, Op: e.Op, Value: e.Value})
}

// UnmarshalJSON implements json.Unmarshaler
func (e *Expression) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidNode, err)
	}

	andRaw, hasAnd := raw[string(models.CombinatorAnd)]
	orRaw, hasOr := raw[string(models.CombinatorOr)]
	_, hasKey := raw["key"]

	switch {
	case hasAnd && hasOr:
		return fmt.Errorf("%w: both and and or present", ErrInvalidNode)
	case (hasAnd || hasOr) && hasKey:
		return fmt.Errorf("%w: boolean node carries a key", ErrInvalidNode)
	case hasAnd || hasOr:
		comb, list := models.CombinatorAnd, andRaw
		if hasOr {
			comb, list = models.CombinatorOr, orRaw
		}
		var children []*Expression
		if err := json.Unmarshal(list, &children); err != nil {
			return err
		}
		*e = Expression{Combinator: comb, Children: children}
		return nil
	case hasKey:
		var leaf leafJSON
		if err := json.Unmarshal(data, &leaf); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidNode, err)
		}
		*e = Expression{Key: leaf.Key, Op: leaf.Op, Value: leaf.Value}
		return nil
	default:
		return fmt.Errorf("%w: neither key, and nor or present", ErrInvalidNode)
	}
}

// Serialize converts tree into its wire expression. A nil tree yields a nil
// expression.
func Serialize(tree models.QueryNode) (*Expression, error) {
	if tree == nil {
		return nil, nil
	}

	switch n := tree.(type) {
	case *models.ValueFilter:
		if n == nil {
			return nil, fmt.Errorf("%w: nil value filter", ErrInvalidNode)
		}
		spec, ok := LookupOperator(n.Op)
		if !ok {
			return nil, fmt.Errorf("%w: node %s has unknown operator %q", ErrInvalidNode, n.ID, n.Op)
		}
		e := &Expression{Key: n.Key, Value: n.Value}
		if spec.OnWire {
			e.Op = n.Op
		}
		return e, nil

	case *models.BooleanFilter:
		if n == nil {
			return nil, fmt.Errorf("%w: nil boolean filter", ErrInvalidNode)
		}
		if !n.Combinator.Valid() {
			return nil, fmt.Errorf("%w: node %s has combinator %q", ErrInvalidNode, n.ID, n.Combinator)
		}
		children := make([]*Expression, 0, len(n.Children))
		for _, child := range n.Children {
			if child == nil {
				return nil, fmt.Errorf("%w: node %s has a nil child", ErrInvalidNode, n.ID)
			}
			ce, err := Serialize(child)
			if err != nil {
				return nil, err
			}
			children = append(children, ce)
		}
		return &Expression{Combinator: n.Combinator, Children: children}, nil
	}

	return nil, fmt.Errorf("%w: unsupported node type %T", ErrInvalidNode, tree)
}

// Deserialize builds a tree from an expression, giving every node a fresh id
func Deserialize(e *Expression, ids IDSource) (models.QueryNode, error) {
	if e == nil {
		return nil, nil
	}

	if e.IsBoolean() {
		if !e.Combinator.Valid() {
			return nil, fmt.Errorf("%w: combinator %q", ErrInvalidNode, e.Combinator)
		}
		b := &models.BooleanFilter{ID: ids.NextID(), Combinator: e.Combinator}
		b.Children = make([]models.QueryNode, 0, len(e.Children))
		for _, ce := range e.Children {
			if ce == nil {
				return nil, fmt.Errorf("%w: nil child", ErrInvalidNode)
			}
			child, err := Deserialize(ce, ids)
			if err != nil {
				return nil, err
			}
			b.Children = append(b.Children, child)
		}
		return b, nil
	}

	if _, ok := LookupField(e.Key); !ok {
		return nil, fmt.Errorf("%w: unknown field %q", ErrInvalidNode, e.Key)
	}
	op := e.Op
	if op == "" {
		op = models.OpEqual
	}
	if _, ok := LookupOperator(op); !ok {
		return nil, fmt.Errorf("%w: unknown operator %q", ErrInvalidNode, op)
	}
	return &models.ValueFilter{ID: ids.NextID(), Key: e.Key, Op: op, Value: e.Value}, nil
}

type queryParam struct {
	Query *Expression `json:"query"`
}

// QueryParam returns the JSON text sent as the q parameter of a search.
// A nil tree yields the empty string.
func QueryParam(tree models.QueryNode) (string, error) {
	expr, err := Serialize(tree)
	if err != nil {
		return "", err
	}
	if expr == nil {
		return "", nil
	}
	data, err := json.Marshal(queryParam{Query: expr})
	if err != nil {
		return "", fmt.Errorf("failed to marshal query: %w", err)
	}
	return string(data), nil
}

// ParseQueryParam is the reverse of QueryParam
func ParseQueryParam(param string, ids IDSource) (models.QueryNode, error) {
	param = strings.TrimSpace(param)
	if param == "" {
		return nil, nil
	}
	var qp queryParam
	if err := json.Unmarshal([]byte(param), &qp); err != nil {
		return nil, fmt.Errorf("failed to parse query parameter: %w", err)
	}
	return Deserialize(qp.Query, ids)
}

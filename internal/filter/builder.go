package filter

import (
	"fmt"
	"strings"

	"github.com/rebeliceyang/lazycirc/internal/models"
)

// Builder generates SQL WHERE clauses from query trees for the catalog database
type Builder struct{}

// NewBuilder creates a new filter builder
func NewBuilder() *Builder {
	return &Builder{}
}

// BuildWhere generates a WHERE clause from a query tree. The clause uses
// PostgreSQL positional parameters starting at $1.
func (b *Builder) BuildWhere(tree models.QueryNode) (string, []interface{}, error) {
	if tree == nil {
		return "", nil, nil
	}

	clause, args, err := b.buildNode(tree, 1)
	if err != nil {
		return "", nil, err
	}
	if clause == "" {
		return "", nil, nil
	}

	return "WHERE " + clause, args, nil
}

// buildNode recursively builds a node
func (b *Builder) buildNode(node models.QueryNode, paramIndex int) (string, []interface{}, error) {
	switch n := node.(type) {
	case *models.ValueFilter:
		return b.buildCondition(n, paramIndex)
	case *models.BooleanFilter:
		return b.buildGroup(n, paramIndex)
	}
	return "", nil, fmt.Errorf("%w: unsupported node type %T", ErrInvalidNode, node)
}

// buildGroup joins the children of a boolean node
func (b *Builder) buildGroup(group *models.BooleanFilter, paramIndex int) (string, []interface{}, error) {
	var logic string
	switch group.Combinator {
	case models.CombinatorAnd:
		logic = "AND"
	case models.CombinatorOr:
		logic = "OR"
	default:
		return "", nil, fmt.Errorf("%w: node %s has combinator %q", ErrInvalidNode, group.ID, group.Combinator)
	}

	var clauses []string
	var args []interface{}
	currentParam := paramIndex

	for _, child := range group.Children {
		clause, childArgs, err := b.buildNode(child, currentParam)
		if err != nil {
			return "", nil, err
		}
		if clause == "" {
			continue
		}
		if models.IsBoolean(child) {
			clause = "(" + clause + ")"
		}
		clauses = append(clauses, clause)
		args = append(args, childArgs...)
		currentParam += len(childArgs)
	}

	return strings.Join(clauses, " "+logic+" "), args, nil
}

// buildCondition builds a single filter condition
func (b *Builder) buildCondition(cond *models.ValueFilter, paramIndex int) (string, []interface{}, error) {
	field, ok := LookupField(cond.Key)
	if !ok {
		return "", nil, fmt.Errorf("unsupported field: %s", cond.Key)
	}
	column := quoteIdent(field.Column)

	var value interface{} = cond.Value
	if field.Kind == KindFlag {
		value = ParseFlag(cond.Value)
	}

	switch cond.Op {
	case models.OpEqual:
		if field.Kind == KindText {
			return fmt.Sprintf("lower(%s) = lower($%d)", column, paramIndex), []interface{}{value}, nil
		}
		return fmt.Sprintf("%s = $%d", column, paramIndex), []interface{}{value}, nil
	case models.OpNotEqual:
		if field.Kind == KindText {
			return fmt.Sprintf("lower(%s) <> lower($%d)", column, paramIndex), []interface{}{value}, nil
		}
		return fmt.Sprintf("%s <> $%d", column, paramIndex), []interface{}{value}, nil
	case models.OpContains:
		return fmt.Sprintf("%s ILIKE '%%' || $%d || '%%'", column, paramIndex), []interface{}{escapeLike(cond.Value)}, nil
	case models.OpRegex:
		return fmt.Sprintf("%s ~* $%d", column, paramIndex), []interface{}{cond.Value}, nil
	case models.OpGreaterThan, models.OpGreaterOrEqual, models.OpLessThan, models.OpLessOrEqual:
		return fmt.Sprintf("%s %s $%d", column, sqlComparison[cond.Op], paramIndex), []interface{}{value}, nil
	default:
		return "", nil, fmt.Errorf("unsupported operator: %s", cond.Op)
	}
}

var sqlComparison = map[models.FilterOperator]string{
	models.OpGreaterThan:    ">",
	models.OpGreaterOrEqual: ">=",
	models.OpLessThan:       "<",
	models.OpLessOrEqual:    "<=",
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// ParseFlag reads yes/no style values; anything unrecognized counts as true
func ParseFlag(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "false", "no", "n", "0", "nonfiction", "non-fiction":
		return false
	}
	return true
}

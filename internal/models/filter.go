package models

// Combinator is the AND/OR discriminant of a boolean filter
type Combinator string

const (
	CombinatorAnd Combinator = "and"
	CombinatorOr  Combinator = "or"
)

// Valid reports whether c is one of the known combinators
func (c Combinator) Valid() bool {
	return c == CombinatorAnd || c == CombinatorOr
}

// Toggle returns the other combinator
func (c Combinator) Toggle() Combinator {
	if c == CombinatorOr {
		return CombinatorAnd
	}
	return CombinatorOr
}

// FieldKey identifies a searchable catalog field. The values are the keys
// recognized by the circulation manager's search endpoint.
type FieldKey string

const (
	FieldDataSource     FieldKey = "data_source"
	FieldPublisher      FieldKey = "publisher"
	FieldPublished      FieldKey = "published"
	FieldGenre          FieldKey = "genre"
	FieldLanguage       FieldKey = "language"
	FieldClassification FieldKey = "classification"
	FieldAudience       FieldKey = "audience"
	FieldAuthor         FieldKey = "author"
	FieldTitle          FieldKey = "title"
	FieldFiction        FieldKey = "fiction"
)

// FilterOperator represents a filter comparison operator
type FilterOperator string

const (
	OpEqual          FilterOperator = "eq"
	OpContains       FilterOperator = "contains"
	OpRegex          FilterOperator = "regex"
	OpNotEqual       FilterOperator = "neq"
	OpGreaterThan    FilterOperator = "gt"
	OpGreaterOrEqual FilterOperator = "gte"
	OpLessThan       FilterOperator = "lt"
	OpLessOrEqual    FilterOperator = "lte"
)

// QueryNode is a node of an advanced search query tree. It is implemented
// only by *ValueFilter and *BooleanFilter.
type QueryNode interface {
	NodeID() string
	queryNode()
}

// ValueFilter represents a single leaf predicate, e.g. genre = Horror
type ValueFilter struct {
	ID    string
	Key   FieldKey
	Op    FilterOperator
	Value string
}

// BooleanFilter represents a group of child nodes combined with AND or OR.
// Children order is significant: it is the render order.
type BooleanFilter struct {
	ID         string
	Combinator Combinator
	Children   []QueryNode
}

func (f *ValueFilter) NodeID() string   { return f.ID }
func (f *BooleanFilter) NodeID() string { return f.ID }

func (*ValueFilter) queryNode()   {}
func (*BooleanFilter) queryNode() {}

// IsBoolean reports whether node is a boolean (and/or) node
func IsBoolean(node QueryNode) bool {
	_, ok := node.(*BooleanFilter)
	return ok
}

// Filter represents the complete filter state of an editing session
type Filter struct {
	Root    QueryNode
	Library string
}

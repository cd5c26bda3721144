package filter

import (
	"github.com/rebeliceyang/lazycirc/internal/models"
)

// ValueKind describes what sort of value a field accepts
type ValueKind string

const (
	KindText ValueKind = "text"
	KindDate ValueKind = "date"
	KindFlag ValueKind = "flag"
)

// FieldSpec describes a searchable field: how it is labelled, which
// operators it allows, and where it lives in each backend.
type FieldSpec struct {
	Key        models.FieldKey
	Label      string
	Kind       ValueKind
	Operators  []models.FilterOperator
	Column     string // catalog table column
	IndexField string // local index field
}

// OperatorSpec describes an operator's display symbol and wire form
type OperatorSpec struct {
	Op      models.FilterOperator
	Symbol  string
	Aliases []string // alternative ASCII spellings accepted by the parser
	Label   string
	// OnWire is false for operators the search endpoint treats as the default.
	OnWire bool
}

var (
	textOps = []models.FilterOperator{
		models.OpEqual, models.OpContains, models.OpRegex, models.OpNotEqual,
	}
	rangeOps = []models.FilterOperator{
		models.OpEqual, models.OpNotEqual,
		models.OpGreaterThan, models.OpGreaterOrEqual,
		models.OpLessThan, models.OpLessOrEqual,
	}
	exactOps = []models.FilterOperator{
		models.OpEqual, models.OpNotEqual,
	}
)

// fieldTable lists the fields in menu order
var fieldTable = []FieldSpec{
	{Key: models.FieldGenre, Label: "Genre", Kind: KindText, Operators: textOps, Column: "genre", IndexField: "genre"},
	{Key: models.FieldAuthor, Label: "Author", Kind: KindText, Operators: textOps, Column: "author", IndexField: "author"},
	{Key: models.FieldTitle, Label: "Title", Kind: KindText, Operators: textOps, Column: "title", IndexField: "title"},
	{Key: models.FieldPublisher, Label: "Publisher", Kind: KindText, Operators: textOps, Column: "publisher", IndexField: "publisher"},
	{Key: models.FieldPublished, Label: "Published Date", Kind: KindDate, Operators: rangeOps, Column: "published", IndexField: "published"},
	{Key: models.FieldLanguage, Label: "Language", Kind: KindText, Operators: exactOps, Column: "language", IndexField: "language"},
	{Key: models.FieldClassification, Label: "Classification", Kind: KindText, Operators: textOps, Column: "classification", IndexField: "classification"},
	{Key: models.FieldAudience, Label: "Audience", Kind: KindText, Operators: textOps, Column: "audience", IndexField: "audience"},
	{Key: models.FieldDataSource, Label: "Distributor", Kind: KindText, Operators: textOps, Column: "data_source", IndexField: "data_source"},
	{Key: models.FieldFiction, Label: "Fiction", Kind: KindFlag, Operators: exactOps, Column: "fiction", IndexField: "fiction"},
}

var operatorTable = []OperatorSpec{
	{Op: models.OpEqual, Symbol: "=", Label: "equals", OnWire: false},
	{Op: models.OpContains, Symbol: ":", Label: "contains", OnWire: true},
	{Op: models.OpRegex, Symbol: "~", Label: "matches regex", OnWire: true},
	{Op: models.OpNotEqual, Symbol: "≠", Aliases: []string{"!="}, Label: "does not equal", OnWire: true},
	{Op: models.OpGreaterThan, Symbol: ">", Label: "is after", OnWire: true},
	{Op: models.OpGreaterOrEqual, Symbol: "≥", Aliases: []string{">="}, Label: "is on or after", OnWire: true},
	{Op: models.OpLessThan, Symbol: "<", Label: "is before", OnWire: true},
	{Op: models.OpLessOrEqual, Symbol: "≤", Aliases: []string{"<="}, Label: "is on or before", OnWire: true},
}

var (
	fieldsByKey = map[models.FieldKey]FieldSpec{}
	opsByName   = map[models.FilterOperator]OperatorSpec{}
	opsBySymbol = map[string]models.FilterOperator{}
)

func init() {
	for _, f := range fieldTable {
		fieldsByKey[f.Key] = f
	}
	for _, o := range operatorTable {
		opsByName[o.Op] = o
		opsBySymbol[o.Symbol] = o.Op
		for _, a := range o.Aliases {
			opsBySymbol[a] = o.Op
		}
	}
}

// Fields returns every searchable field in menu order
func Fields() []FieldSpec {
	out := make([]FieldSpec, len(fieldTable))
	copy(out, fieldTable)
	return out
}

// LookupField returns the spec for a field key
func LookupField(key models.FieldKey) (FieldSpec, bool) {
	f, ok := fieldsByKey[key]
	return f, ok
}

// LookupOperator returns the spec for an operator
func LookupOperator(op models.FilterOperator) (OperatorSpec, bool) {
	o, ok := opsByName[op]
	return o, ok
}

// OperatorFromSymbol maps a display symbol (or ASCII alias) back to its operator
func OperatorFromSymbol(symbol string) (models.FilterOperator, bool) {
	op, ok := opsBySymbol[symbol]
	return op, ok
}

// Symbol returns the display symbol of op, or the raw name if unknown
func Symbol(op models.FilterOperator) string {
	if o, ok := opsByName[op]; ok {
		return o.Symbol
	}
	return string(op)
}

// GetOperatorsForField returns the operators a field allows. Unknown fields
// fall back to equality only.
func GetOperatorsForField(key models.FieldKey) []models.FilterOperator {
	f, ok := fieldsByKey[key]
	if !ok {
		return exactOps
	}
	return f.Operators
}

// AllowsOperator reports whether op is legal for key
func AllowsOperator(key models.FieldKey, op models.FilterOperator) bool {
	for _, o := range GetOperatorsForField(key) {
		if o == op {
			return true
		}
	}
	return false
}

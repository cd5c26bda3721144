package index

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/rebeliceyang/lazycirc/internal/filter"
	"github.com/rebeliceyang/lazycirc/internal/models"
)

// ToBleveQuery translates a query tree into a bleve query. Boolean nodes
// become conjunctions and disjunctions; leaves become term, regexp or
// numeric range queries on the field's index field.
func ToBleveQuery(tree models.QueryNode) (query.Query, error) {
	if tree == nil {
		return bleve.NewMatchAllQuery(), nil
	}

	switch n := tree.(type) {
	case *models.ValueFilter:
		return valueQuery(n)

	case *models.BooleanFilter:
		children := make([]query.Query, 0, len(n.Children))
		for _, child := range n.Children {
			q, err := ToBleveQuery(child)
			if err != nil {
				return nil, err
			}
			children = append(children, q)
		}
		switch n.Combinator {
		case models.CombinatorAnd:
			if len(children) == 0 {
				return bleve.NewMatchAllQuery(), nil
			}
			return bleve.NewConjunctionQuery(children...), nil
		case models.CombinatorOr:
			if len(children) == 0 {
				return bleve.NewMatchNoneQuery(), nil
			}
			return bleve.NewDisjunctionQuery(children...), nil
		}
		return nil, fmt.Errorf("%w: node %s has combinator %q", filter.ErrInvalidNode, n.ID, n.Combinator)
	}

	return nil, fmt.Errorf("%w: unsupported node type %T", filter.ErrInvalidNode, tree)
}

func valueQuery(v *models.ValueFilter) (query.Query, error) {
	field, ok := filter.LookupField(v.Key)
	if !ok {
		return nil, fmt.Errorf("unsupported field: %s", v.Key)
	}
	if !filter.AllowsOperator(v.Key, v.Op) {
		return nil, fmt.Errorf("operator %s is not allowed for %s", v.Op, v.Key)
	}
	name := field.IndexField

	switch field.Kind {
	case filter.KindDate:
		return dateQuery(name, v)
	case filter.KindFlag:
		q := termQuery(name, flagTerm(filter.ParseFlag(v.Value)))
		if v.Op == models.OpNotEqual {
			return not(q), nil
		}
		return q, nil
	}

	value := lower(v.Value)
	switch v.Op {
	case models.OpEqual:
		return termQuery(name, value), nil
	case models.OpNotEqual:
		return not(termQuery(name, value)), nil
	case models.OpContains:
		return regexpQuery(name, ".*"+regexp.QuoteMeta(value)+".*"), nil
	case models.OpRegex:
		pattern, err := termRegexp(value)
		if err != nil {
			return nil, err
		}
		return regexpQuery(name, pattern), nil
	}
	return nil, fmt.Errorf("unsupported operator: %s", v.Op)
}

func dateQuery(name string, v *models.ValueFilter) (query.Query, error) {
	p, ok := parsePeriod(v.Value)
	if !ok {
		return nil, fmt.Errorf("invalid date %q for %s: expected YYYY, YYYY-MM or YYYY-MM-DD", v.Value, v.Key)
	}
	inclusive, exclusive := true, false

	switch v.Op {
	case models.OpEqual:
		return rangeQuery(name, &p.start, &p.end, &inclusive, &inclusive), nil
	case models.OpNotEqual:
		return not(rangeQuery(name, &p.start, &p.end, &inclusive, &inclusive)), nil
	case models.OpGreaterThan:
		return rangeQuery(name, &p.end, nil, &exclusive, nil), nil
	case models.OpGreaterOrEqual:
		return rangeQuery(name, &p.start, nil, &inclusive, nil), nil
	case models.OpLessThan:
		return rangeQuery(name, nil, &p.start, nil, &exclusive), nil
	case models.OpLessOrEqual:
		return rangeQuery(name, nil, &p.end, nil, &inclusive), nil
	}
	return nil, fmt.Errorf("unsupported operator: %s", v.Op)
}

func termQuery(field, term string) query.Query {
	q := bleve.NewTermQuery(term)
	q.SetField(field)
	return q
}

func regexpQuery(field, pattern string) query.Query {
	q := bleve.NewRegexpQuery(pattern)
	q.SetField(field)
	return q
}

func rangeQuery(field string, min, max *float64, minInclusive, maxInclusive *bool) query.Query {
	q := bleve.NewNumericRangeInclusiveQuery(min, max, minInclusive, maxInclusive)
	q.SetField(field)
	return q
}

// not matches every document except those matching q
func not(q query.Query) query.Query {
	return query.NewBooleanQuery([]query.Query{bleve.NewMatchAllQuery()}, nil, []query.Query{q})
}

// termRegexp adapts a search-style regex to bleve, whose regexp queries
// must match the whole term and reject ^ and $.
func termRegexp(pattern string) (string, error) {
	anchoredStart := strings.HasPrefix(pattern, "^")
	anchoredEnd := strings.HasSuffix(pattern, "$") && !strings.HasSuffix(pattern, `\$`)
	if anchoredStart {
		pattern = pattern[1:]
	}
	if anchoredEnd {
		pattern = pattern[:len(pattern)-1]
	}

	out := "(" + pattern + ")"
	if !anchoredStart {
		out = ".*" + out
	}
	if !anchoredEnd {
		out += ".*"
	}
	if _, err := regexp.Compile(out); err != nil {
		return "", fmt.Errorf("invalid regular expression %q: %w", pattern, err)
	}
	return out, nil
}

// period is a date range encoded as YYYYMMDD numbers
type period struct {
	start, end float64
}

func parsePeriod(s string) (period, bool) {
	s = strings.TrimSpace(s)
	if len(s) > 10 {
		s = s[:10]
	}

	if t, err := time.Parse("2006-01-02", s); err == nil {
		d := dayNumber(t)
		return period{d, d}, true
	}
	if t, err := time.Parse("2006-01", s); err == nil {
		last := t.AddDate(0, 1, -1)
		return period{dayNumber(t), dayNumber(last)}, true
	}
	if t, err := time.Parse("2006", s); err == nil {
		last := t.AddDate(1, 0, -1)
		return period{dayNumber(t), dayNumber(last)}, true
	}
	return period{}, false
}

func dayNumber(t time.Time) float64 {
	return float64(t.Year()*10000 + int(t.Month())*100 + t.Day())
}

func flagTerm(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

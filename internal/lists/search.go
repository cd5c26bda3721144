package lists

import (
	"strings"

	"github.com/rebeliceyang/lazycirc/internal/models"
)

// SearchQuery represents a parsed list search
type SearchQuery struct {
	Pattern string // fuzzy pattern matched against name and expression
	Negate  bool   // true if the query starts with !
	Tag     string // from a tag: or t: prefix
	Library string // from a lib: prefix
}

var tagPrefixes = []string{"tag:", "t:"}

const libraryPrefix = "lib:"

// ParseSearchQuery parses a list search string
// Examples:
//   - "horror" → {Pattern: "horror"}
//   - "!horror" → {Pattern: "horror", Negate: true}
//   - "t:picks king" → {Tag: "picks", Pattern: "king"}
//   - "lib:main" → {Library: "main"}
func ParseSearchQuery(query string) SearchQuery {
	q := SearchQuery{}
	query = strings.TrimSpace(query)

	if strings.HasPrefix(query, "!") {
		q.Negate = true
		query = query[1:]
	}

	var rest []string
	for _, word := range strings.Fields(query) {
		lower := strings.ToLower(word)
		matched := false
		for _, p := range tagPrefixes {
			if strings.HasPrefix(lower, p) {
				q.Tag = word[len(p):]
				matched = true
				break
			}
		}
		if !matched && strings.HasPrefix(lower, libraryPrefix) {
			q.Library = word[len(libraryPrefix):]
			matched = true
		}
		if !matched {
			rest = append(rest, word)
		}
	}

	q.Pattern = strings.Join(rest, " ")
	return q
}

// FuzzyMatch performs fuzzy subsequence matching
// Returns whether the pattern matches and the positions of matched characters
// Matching is case-insensitive
func FuzzyMatch(pattern, target string) (bool, []int) {
	if pattern == "" {
		return true, []int{}
	}

	patternLower := strings.ToLower(pattern)
	targetLower := strings.ToLower(target)

	positions := make([]int, 0, len(pattern))
	patternIdx := 0

	for i := 0; i < len(targetLower) && patternIdx < len(patternLower); i++ {
		if targetLower[i] == patternLower[patternIdx] {
			positions = append(positions, i)
			patternIdx++
		}
	}

	if patternIdx == len(patternLower) {
		return true, positions
	}
	return false, nil
}

// Matches reports whether l satisfies q. Tag and library filters always
// apply; negation only inverts the pattern.
func Matches(l models.CustomList, q SearchQuery) bool {
	if q.Library != "" && !strings.EqualFold(l.Library, q.Library) {
		return false
	}
	if q.Tag != "" && !hasTag(l, q.Tag) {
		return false
	}
	if q.Pattern == "" {
		return true
	}

	matched := false
	for _, target := range []string{l.Name, l.Expression, l.Description} {
		if ok, _ := FuzzyMatch(q.Pattern, target); ok {
			matched = true
			break
		}
	}
	return matched != q.Negate
}

func hasTag(l models.CustomList, tag string) bool {
	for _, t := range l.Tags {
		if strings.Contains(strings.ToLower(t), strings.ToLower(tag)) {
			return true
		}
	}
	return false
}

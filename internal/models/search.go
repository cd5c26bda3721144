package models

import (
	"time"
)

// Entry is one work returned by a search
type Entry struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Authors    []string   `json:"authors,omitempty"`
	Publisher  string     `json:"publisher,omitempty"`
	Published  string     `json:"published,omitempty"`
	Language   string     `json:"language,omitempty"`
	Summary    string     `json:"summary,omitempty"`
	Updated    time.Time  `json:"updated"`
	Categories []Category `json:"categories,omitempty"`
	Links      []Link     `json:"links,omitempty"`
}

// Category is a classification attached to an entry. Genres, audience,
// fiction status and distributor are all expressed as categories, told
// apart by scheme.
type Category struct {
	Scheme string `json:"scheme,omitempty"`
	Term   string `json:"term"`
	Label  string `json:"label,omitempty"`
}

// Category schemes used by circulation manager feeds
const (
	SchemeGenre      = "http://librarysimplified.org/terms/genres/Simplified/"
	SchemeFiction    = "http://librarysimplified.org/terms/fiction/"
	SchemeAudience   = "http://schema.org/audience"
	SchemeDataSource = "http://librarysimplified.org/terms/data_source/"
)

// CategoryTerms returns the terms (or labels, when present) of e's
// categories in scheme
func (e *Entry) CategoryTerms(scheme string) []string {
	var out []string
	for _, c := range e.Categories {
		if c.Scheme != scheme {
			continue
		}
		if c.Label != "" {
			out = append(out, c.Label)
		} else {
			out = append(out, c.Term)
		}
	}
	return out
}

// Link is a link attached to an entry or feed
type Link struct {
	Rel  string `json:"rel,omitempty"`
	Href string `json:"href"`
	Type string `json:"type,omitempty"`
}

// SearchRequest is one page of a search
type SearchRequest struct {
	Query QueryNode
	Size  int
	After int
}

// SearchResult is one page of search results
type SearchResult struct {
	Entries  []Entry
	Query    string // the q parameter that produced the page
	After    int
	Next     int  // offset of the next page
	HasMore  bool // whether a next page exists
	Backend  string
	Duration time.Duration
}

package opds

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rebeliceyang/lazycirc/internal/models"
)

type atomFeed struct {
	Links   []atomLink  `xml:"link"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID         string         `xml:"id"`
	Title      string         `xml:"title"`
	Authors    []atomAuthor   `xml:"author"`
	Updated    string         `xml:"updated"`
	Summary    string         `xml:"summary"`
	Categories []atomCategory `xml:"category"`
	Links      []atomLink     `xml:"link"`
	Publisher  string         `xml:"http://purl.org/dc/terms/ publisher"`
	Issued     string         `xml:"http://purl.org/dc/terms/ issued"`
	Language   string         `xml:"http://purl.org/dc/terms/ language"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomCategory struct {
	Scheme string `xml:"scheme,attr"`
	Term   string `xml:"term,attr"`
	Label  string `xml:"label,attr"`
}

type atomLink struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
	Type string `xml:"type,attr"`
}

// Page is one parsed acquisition feed
type Page struct {
	Entries []models.Entry
	HasNext bool // the feed has a rel="next" link
	// NextAfter is the after parameter of the next link, 0 when absent
	NextAfter int
}

// ParseFeed reads an OPDS acquisition feed
func ParseFeed(r io.Reader) (*Page, error) {
	var feed atomFeed
	if err := xml.NewDecoder(r).Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to parse OPDS feed: %w", err)
	}

	page := &Page{Entries: make([]models.Entry, 0, len(feed.Entries))}
	for _, e := range feed.Entries {
		page.Entries = append(page.Entries, convertEntry(e))
	}

	for _, l := range feed.Links {
		if l.Rel != "next" {
			continue
		}
		page.HasNext = true
		page.NextAfter = nextAfter(l.Href)
		break
	}
	return page, nil
}

func convertEntry(e atomEntry) models.Entry {
	entry := models.Entry{
		ID:        strings.TrimSpace(e.ID),
		Title:     strings.TrimSpace(e.Title),
		Publisher: strings.TrimSpace(e.Publisher),
		Published: strings.TrimSpace(e.Issued),
		Language:  strings.TrimSpace(e.Language),
		Summary:   strings.TrimSpace(e.Summary),
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Updated)); err == nil {
		entry.Updated = t
	}
	for _, a := range e.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			entry.Authors = append(entry.Authors, name)
		}
	}
	for _, c := range e.Categories {
		entry.Categories = append(entry.Categories, models.Category{Scheme: c.Scheme, Term: c.Term, Label: c.Label})
	}
	for _, l := range e.Links {
		entry.Links = append(entry.Links, models.Link{Rel: l.Rel, Href: l.Href, Type: l.Type})
	}
	return entry
}

func nextAfter(href string) int {
	u, err := url.Parse(href)
	if err != nil {
		return 0
	}
	after, err := strconv.Atoi(u.Query().Get("after"))
	if err != nil || after < 0 {
		return 0
	}
	return after
}

package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rebeliceyang/lazycirc/internal/models"
)

func sampleLists() []models.CustomList {
	return []models.CustomList{
		{
			ID:          "list-1",
			Name:        "Horror by King",
			Description: "Horror, with \"quotes\" and commas",
			Library:     "main",
			Expression:  "genre = Horror and author : King",
			Query:       `{"query":{"and":[{"key":"genre","value":"Horror"},{"key":"author","op":"contains","value":"King"}]}}`,
			Tags:        []string{"horror", "staff picks"},
			CreatedAt:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
			UpdatedAt:   time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC),
			LastUsed:    time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC),
			UsageCount:  5,
		},
		{
			ID:         "list-2",
			Name:       "French fiction",
			Library:    "main",
			Expression: "language = fre and fiction = true",
			Query:      `{"query":{"and":[{"key":"language","value":"fre"},{"key":"fiction","value":"true"}]}}`,
			Tags:       []string{"languages"},
			CreatedAt:  time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC),
			UpdatedAt:  time.Date(2024, 1, 2, 13, 0, 0, 0, time.UTC),
			UsageCount: 2,
		},
	}
}

func TestExportToCSV(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "lists.csv")

	if err := ExportToCSV(sampleLists(), csvPath); err != nil {
		t.Fatalf("ExportToCSV failed: %v", err)
	}

	file, err := os.Open(csvPath)
	if err != nil {
		t.Fatalf("Failed to open CSV: %v", err)
	}
	defer func() { _ = file.Close() }()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}
	if len(records) != 3 { // header + 2 rows
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(listHeader, ",") {
		t.Errorf("Header mismatch.\nExpected: %v\nGot: %v", listHeader, records[0])
	}

	row1 := records[1]
	if row1[0] != "Horror by King" {
		t.Errorf("Expected name 'Horror by King', got '%s'", row1[0])
	}
	if row1[1] != "Horror, with \"quotes\" and commas" {
		t.Errorf("Description was not preserved: '%s'", row1[1])
	}
	if row1[5] != "horror, staff picks" {
		t.Errorf("Expected tags 'horror, staff picks', got '%s'", row1[5])
	}
	if row1[9] != "5" {
		t.Errorf("Expected usage count '5', got '%s'", row1[9])
	}
	if records[2][8] != "" {
		t.Errorf("Expected empty last used for an unused list, got '%s'", records[2][8])
	}
}

func TestExportToJSON(t *testing.T) {
	jsonPath := filepath.Join(t.TempDir(), "lists.json")

	if err := ExportToJSON(sampleLists(), jsonPath); err != nil {
		t.Fatalf("ExportToJSON failed: %v", err)
	}

	info, err := os.Stat(jsonPath)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("Expected file permissions 0644, got %o", info.Mode().Perm())
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("Failed to read JSON: %v", err)
	}

	var parsed []models.CustomList
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("Expected 2 lists, got %d", len(parsed))
	}
	if parsed[0].Query != sampleLists()[0].Query {
		t.Errorf("Expected query to survive export, got %s", parsed[0].Query)
	}
	if !strings.Contains(string(data), "\n  ") {
		t.Error("JSON should be pretty-printed")
	}
}

func TestExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteLists(&buf, FormatCSV, nil); err != nil {
		t.Fatalf("WriteLists failed: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected 1 record (header), got %d", len(records))
	}

	buf.Reset()
	if err := WriteLists(&buf, FormatJSON, []models.CustomList{}); err != nil {
		t.Fatalf("WriteLists failed: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("Expected empty JSON array, got %s", buf.String())
	}
}

func TestWriteEntries(t *testing.T) {
	entries := []models.Entry{
		{
			ID:        "urn:isbn:9780450040184",
			Title:     "The Shining",
			Authors:   []string{"Stephen King"},
			Published: "1977-01-28",
			Language:  "eng",
			Categories: []models.Category{
				{Scheme: models.SchemeGenre, Term: "Horror", Label: "Horror"},
				{Scheme: models.SchemeAudience, Term: "Adult"},
				{Scheme: models.SchemeGenre, Term: "Suspense/Thriller"},
			},
		},
	}

	var buf bytes.Buffer
	if err := WriteEntries(&buf, FormatCSV, entries); err != nil {
		t.Fatalf("WriteEntries failed: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[1][6] != "Horror; Suspense/Thriller" {
		t.Errorf("Expected genres 'Horror; Suspense/Thriller', got '%s'", records[1][6])
	}
	if records[1][7] != "" {
		t.Errorf("Expected empty updated column, got '%s'", records[1][7])
	}

	if err := WriteEntries(&buf, "xml", entries); err == nil {
		t.Error("Expected an error for an unsupported format")
	}
}

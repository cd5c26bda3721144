package lists

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rebeliceyang/lazycirc/internal/export"
	"github.com/rebeliceyang/lazycirc/internal/filter"
	"github.com/rebeliceyang/lazycirc/internal/models"
)

// FileName is the name of the saved lists file inside the config directory
const FileName = "lists.yaml"

// ErrNotFound is returned when no list has the requested id
var ErrNotFound = errors.New("custom list not found")

// Manager manages saved custom lists
type Manager struct {
	path   string
	lists  []models.CustomList
	logger *zap.Logger
	now    func() time.Time
}

// NewManager creates a new list manager backed by lists.yaml in configDir
func NewManager(configDir string, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		path:   filepath.Join(configDir, FileName),
		lists:  []models.CustomList{},
		logger: logger,
		now:    time.Now,
	}

	if _, err := os.Stat(m.path); err == nil {
		if err := m.Load(); err != nil {
			return nil, fmt.Errorf("failed to load custom lists: %w", err)
		}
	}

	return m, nil
}

// Path returns the backing file
func (m *Manager) Path() string {
	return m.path
}

// Load loads lists from the YAML file
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("failed to read lists file: %w", err)
	}

	var lists []models.CustomList
	if err := yaml.Unmarshal(data, &lists); err != nil {
		return fmt.Errorf("failed to parse lists: %w", err)
	}
	m.lists = lists
	m.logger.Debug("loaded custom lists", zap.String("path", m.path), zap.Int("count", len(lists)))
	return nil
}

// Save writes lists to the YAML file
func (m *Manager) Save() error {
	data, err := yaml.Marshal(m.lists)
	if err != nil {
		return fmt.Errorf("failed to marshal lists: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write lists file: %w", err)
	}
	return nil
}

// Add saves tree as a new custom list
func (m *Manager) Add(name, description, library string, tree models.QueryNode, tags []string) (*models.CustomList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("list name cannot be empty")
	}
	if tree == nil {
		return nil, fmt.Errorf("list query cannot be empty")
	}
	if err := m.checkName("", name); err != nil {
		return nil, err
	}

	query, err := filter.QueryParam(tree)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize list query: %w", err)
	}

	now := m.now()
	list := models.CustomList{
		ID:          uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Library:     library,
		Query:       query,
		Expression:  filter.Format(tree),
		Tags:        cleanTags(tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	m.lists = append(m.lists, list)
	if err := m.Save(); err != nil {
		return nil, fmt.Errorf("failed to save list: %w", err)
	}
	m.logger.Info("saved custom list", zap.String("id", list.ID), zap.String("name", name))

	return &list, nil
}

// Update renames a list and replaces its query
func (m *Manager) Update(id, name, description string, tree models.QueryNode, tags []string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("list name cannot be empty")
	}
	if tree == nil {
		return fmt.Errorf("list query cannot be empty")
	}
	if err := m.checkName(id, name); err != nil {
		return err
	}

	query, err := filter.QueryParam(tree)
	if err != nil {
		return fmt.Errorf("failed to serialize list query: %w", err)
	}

	i := m.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.lists[i].Name = name
	m.lists[i].Description = strings.TrimSpace(description)
	m.lists[i].Query = query
	m.lists[i].Expression = filter.Format(tree)
	m.lists[i].Tags = cleanTags(tags)
	m.lists[i].UpdatedAt = m.now()

	if err := m.Save(); err != nil {
		return fmt.Errorf("failed to save list: %w", err)
	}
	return nil
}

// Delete deletes a list by id
func (m *Manager) Delete(id string) error {
	i := m.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.lists = append(m.lists[:i], m.lists[i+1:]...)
	if err := m.Save(); err != nil {
		return fmt.Errorf("failed to save lists after deletion: %w", err)
	}
	return nil
}

// Get returns a list by id
func (m *Manager) Get(id string) (*models.CustomList, error) {
	i := m.index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	l := m.lists[i]
	return &l, nil
}

// Tree rebuilds the query tree of a saved list, drawing node ids from ids
func (m *Manager) Tree(id string, ids filter.IDSource) (models.QueryNode, error) {
	l, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	tree, err := filter.ParseQueryParam(l.Query, ids)
	if err != nil {
		return nil, fmt.Errorf("list %q has an invalid query: %w", l.Name, err)
	}
	return tree, nil
}

// GetAll returns all lists
func (m *Manager) GetAll() []models.CustomList {
	return m.lists
}

// Search returns the lists matching query. See ParseSearchQuery for the
// query syntax.
func (m *Manager) Search(query string) []models.CustomList {
	q := ParseSearchQuery(query)
	if q.Pattern == "" && q.Tag == "" && q.Library == "" {
		return m.lists
	}

	var results []models.CustomList
	for _, l := range m.lists {
		if Matches(l, q) {
			results = append(results, l)
		}
	}
	return results
}

// RecordUsage updates usage statistics for a list
func (m *Manager) RecordUsage(id string) error {
	i := m.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.lists[i].UsageCount++
	m.lists[i].LastUsed = m.now()
	if err := m.Save(); err != nil {
		return fmt.Errorf("failed to save usage statistics: %w", err)
	}
	return nil
}

// GetMostUsed returns the most frequently used lists
func (m *Manager) GetMostUsed(limit int) []models.CustomList {
	return m.sorted(limit, func(a, b models.CustomList) bool {
		return a.UsageCount > b.UsageCount
	})
}

// GetRecent returns the most recently used lists
func (m *Manager) GetRecent(limit int) []models.CustomList {
	return m.sorted(limit, func(a, b models.CustomList) bool {
		return a.LastUsed.After(b.LastUsed)
	})
}

func (m *Manager) sorted(limit int, less func(a, b models.CustomList) bool) []models.CustomList {
	sorted := make([]models.CustomList, len(m.lists))
	copy(sorted, m.lists)

	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})

	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted
}

// Export writes all lists to path in the given format and returns the path.
// An empty path exports next to the lists file.
func (m *Manager) Export(format, path string) (string, error) {
	if len(m.lists) == 0 {
		return "", fmt.Errorf("no lists to export")
	}
	if path == "" {
		path = filepath.Join(filepath.Dir(m.path), "lists."+format)
	}

	var err error
	switch format {
	case export.FormatCSV:
		err = export.ExportToCSV(m.lists, path)
	case export.FormatJSON:
		err = export.ExportToJSON(m.lists, path)
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to export lists to %s: %w", format, err)
	}
	return path, nil
}

func (m *Manager) index(id string) int {
	for i, l := range m.lists {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// checkName rejects duplicate names (case-insensitive), ignoring the list
// being renamed
func (m *Manager) checkName(id, name string) error {
	for _, l := range m.lists {
		if l.ID != id && strings.EqualFold(l.Name, name) {
			return fmt.Errorf("a list with the name '%s' already exists (names are case-insensitive)", name)
		}
	}
	return nil
}

func cleanTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

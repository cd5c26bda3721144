package models

import (
	"time"
)

// CustomList is a saved advanced search
type CustomList struct {
	ID          string    `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description" json:"description"`
	Library     string    `yaml:"library" json:"library"`
	Query       string    `yaml:"query" json:"query"`           // serialized q parameter
	Expression  string    `yaml:"expression" json:"expression"` // text form, for display
	Tags        []string  `yaml:"tags" json:"tags"`
	CreatedAt   time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at" json:"updated_at"`
	UsageCount  int       `yaml:"usage_count" json:"usage_count"`
	LastUsed    time.Time `yaml:"last_used" json:"last_used"`
}

package models

import "time"

// Favorite is a saved filter for an index
type Favorite struct {
	ID          string    `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Connection  string    `yaml:"connection" json:"connection"`
	Index       string    `yaml:"index" json:"index"`
	Type        string    `yaml:"type,omitempty" json:"type,omitempty"`
	Filter      string    `yaml:"filter" json:"filter"`
	Tags        []string  `yaml:"tags,omitempty" json:"tags,omitempty"`
	CreatedAt   time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at" json:"updated_at"`
	LastUsed    time.Time `yaml:"last_used,omitempty" json:"last_used,omitempty"`
	UsageCount  int       `yaml:"usage_count" json:"usage_count"`
}

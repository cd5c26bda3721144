package models

import (
	"time"
)

// ServerConfig identifies a circulation manager and the admin account used
// to search it
type ServerConfig struct {
	BaseURL  string `yaml:"base_url"`
	Library  string `yaml:"library"`
	Username string `yaml:"username"`
	Password string `yaml:"-"`
}

// Connection represents the state of the link to a server or catalog
type Connection struct {
	ID          string
	Backend     string
	Config      ServerConfig
	State       ConnectionState
	ConnectedAt time.Time
	Error       error
}

// ConnectionState represents the current connection state
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
	Failed
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

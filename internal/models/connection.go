package models

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Connection describes one Elasticsearch endpoint the user can browse.
// The JSON field names are the persisted format of the connections file.
type Connection struct {
	Alias    string `json:"alias" validate:"required,max=64"`
	Host     string `json:"host" validate:"required,url"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// ConnectionKey identifies a connection. Two connections with the same
// alias and host share a single client.
type ConnectionKey struct {
	Alias string
	Host  string
}

func (k ConnectionKey) String() string {
	return k.Alias + "@" + k.Host
}

// Key returns the identity of the connection
func (c Connection) Key() ConnectionKey {
	return ConnectionKey{Alias: c.Alias, Host: c.Host}
}

// HasCredentials reports whether both username and password are set.
// A half-filled pair is ignored when building the client.
func (c Connection) HasCredentials() bool {
	return c.Username != "" && c.Password != ""
}

// Redacted returns the host with any credentials masked, for display and logs
func (c Connection) Redacted() string {
	if c.HasCredentials() {
		return fmt.Sprintf("%s (as %s)", c.Host, c.Username)
	}
	return c.Host
}

var validate = validator.New()

// Validate checks the connection fields before it is saved
func (c Connection) Validate() error {
	if err := validate.Struct(c); err != nil {
		var msgs []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return fmt.Errorf("invalid connection: %s", strings.Join(msgs, ", "))
		}
		return fmt.Errorf("invalid connection: %w", err)
	}
	return nil
}

// DiscoverySource indicates where a connection came from
type DiscoverySource int

const (
	SourceConfig DiscoverySource = iota
	SourceEnvironment
	SourcePortScan
)

func (s DiscoverySource) String() string {
	switch s {
	case SourceConfig:
		return "Connections File"
	case SourceEnvironment:
		return "Environment"
	case SourcePortScan:
		return "Port Scan"
	default:
		return "Unknown"
	}
}

// DiscoveredConnection is a connection offered in the sidebar together
// with where it was found
type DiscoveredConnection struct {
	Connection Connection
	Source     DiscoverySource
}

package discovery

import (
	"strings"

	"github.com/rebeliceyang/lazyes/internal/models"
)

// Environment variables read by FromEnvironment
const (
	EnvURL      = "ELASTICSEARCH_URL"
	EnvUsername = "ELASTICSEARCH_USERNAME"
	EnvPassword = "ELASTICSEARCH_PASSWORD"
)

// EnvironmentAlias is the alias of the connection built from the environment
const EnvironmentAlias = "Environment"

// FromEnvironment builds a connection from ELASTICSEARCH_URL and the
// optional credentials. It returns nil when the URL is unset.
func FromEnvironment(getenv func(string) string) *models.Connection {
	host := strings.TrimSpace(getenv(EnvURL))
	if host == "" {
		return nil
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return &models.Connection{
		Alias:    EnvironmentAlias,
		Host:     strings.TrimRight(host, "/"),
		Username: getenv(EnvUsername),
		Password: getenv(EnvPassword),
	}
}

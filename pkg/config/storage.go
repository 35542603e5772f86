package config

import (
	"fmt"
	"strings"
)

// Storage backends supported by the persistence layer.
const (
	BackendMemory   = "memory"
	BackendBolt     = "bolt"
	BackendPostgres = "postgres"
)

type StorageConfig struct {
	Backend string `koanf:"backend"`
	// Path is the bolt database file, used when backend is "bolt".
	Path string `koanf:"path"`
	// URL is the postgres connection string, used when backend is "postgres".
	URL string `koanf:"url"`
	// Quota caps the total stored bytes for the memory backend. Zero means unlimited.
	Quota int64 `koanf:"quota"`
}

// String returns a string representation of the storage configuration.
func (c *StorageConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Storage ---\n")
	b.WriteString(fmt.Sprintf("  backend: %s\n", c.Backend))
	b.WriteString(fmt.Sprintf("  path: %s\n", c.Path))
	b.WriteString(fmt.Sprintf("  url: %s\n", maskURL(c.URL)))
	b.WriteString(fmt.Sprintf("  quota: %d\n", c.Quota))
	return b.String()
}

func (c *StorageConfig) Validate() error {
	switch c.Backend {
	case BackendMemory:
		return nil
	case BackendBolt:
		if c.Path == "" {
			return fmt.Errorf("storage backend is bolt but path is not configured")
		}
	case BackendPostgres:
		if !strings.HasPrefix(c.URL, "postgres://") && !strings.HasPrefix(c.URL, "postgresql://") {
			return fmt.Errorf("storage URL must start with 'postgres://': %s", maskURL(c.URL))
		}
	default:
		return fmt.Errorf("unknown storage backend: %q", c.Backend)
	}
	return nil
}

// maskURL hides credentials embedded in a connection URL.
func maskURL(url string) string {
	if url == "" {
		return "<not configured>"
	}
	parts := strings.Split(url, "@")
	if len(parts) == 2 {
		return "****@" + parts[1]
	}
	return "****"
}

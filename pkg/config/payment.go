package config

import (
	"fmt"
	"strings"
)

type PaymentConfig struct {
	BaseURL string `koanf:"baseUrl"`
	APIKey  string `koanf:"apiKey"`
}

// String returns a string representation of the payment gateway configuration.
func (c *PaymentConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Payment ---\n")
	b.WriteString(fmt.Sprintf("  baseUrl: %s\n", c.BaseURL))
	b.WriteString(fmt.Sprintf("  apiKey: %s\n", maskSecret(c.APIKey)))
	return b.String()
}

func (c *PaymentConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("payment gateway base URL is not configured")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("payment gateway base URL must be http(s): %s", c.BaseURL)
	}
	return nil
}

// maskSecret hides all but the first four characters of a secret.
func maskSecret(s string) string {
	if s == "" {
		return "<not configured>"
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}

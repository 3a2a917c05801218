package config

import "fmt"

// MustNonEmpty panics when a required setting is missing. The serve command
// uses it for settings Validate leaves optional elsewhere.
func MustNonEmpty(value, envName string) {
	if value == "" {
		panic(fmt.Sprintf("missing required env %s", envName))
	}
}

// Validate reports the first missing setting instead of panicking.
func (c Config) Validate() error {
	switch {
	case c.DatabaseURL == "":
		return fmt.Errorf("missing required env DATABASE_URL")
	case len(c.JWTAccessSecret) == 0:
		return fmt.Errorf("missing required env JWT_SECRET")
	case len(c.JWTRefreshSecret) == 0:
		return fmt.Errorf("missing required env JWT_REFRESH_SECRET")
	case c.StockPolicy != "reject" && c.StockPolicy != "clamp":
		return fmt.Errorf("STOCK_POLICY must be reject or clamp, got %q", c.StockPolicy)
	}
	return nil
}

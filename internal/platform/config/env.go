// Package config fills service config structs from STUDYHALL_* environment
// variables using their env struct tags.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv populates target from the process environment. Flag parsing layers
// on top of this, so flags win over env values.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

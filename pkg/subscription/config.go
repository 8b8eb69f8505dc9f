package subscription

import (
	"errors"
	"strings"

	"github.com/subkit/subkit/pkg/config"
)

// Config holds evaluator settings. It is passed explicitly at
// construction rather than read from process-wide state.
type Config struct {
	// PositiveWords are the plan-value tokens that, compared
	// case-insensitively, mark a boolean feature as enabled.
	PositiveWords []string `env:"SUBSCRIPTION_POSITIVE_WORDS" envDefault:"Y,YES,TRUE,UNLIMITED"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		PositiveWords: []string{"Y", "YES", "TRUE", "UNLIMITED"},
	}
}

// LoadConfig reads the configuration from environment variables,
// loading a .env file first if one exists.
func LoadConfig() (Config, error) {
	cfg, err := config.Load[Config]()
	if err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	return cfg, nil
}

// positiveSet normalizes the configured words for lookup.
func (c Config) positiveSet() map[string]struct{} {
	words := c.PositiveWords
	if len(words) == 0 {
		words = DefaultConfig().PositiveWords
	}

	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToUpper(strings.TrimSpace(w))] = struct{}{}
	}
	return set
}

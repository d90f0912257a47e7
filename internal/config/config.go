package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// DefaultPath is where the runtime module looks for its game config.
const DefaultPath = "data/game_config.json"

// EnvPrefix marks runtime env keys that override GameConfig fields.
const EnvPrefix = "nukewar_"

type GameConfig struct {
	// GameSeconds caps a match; zero disables the timer.
	GameSeconds int `json:"game_seconds"`
	// LowCardThreshold ends a game outside a war when a hand holds this many
	// cards or fewer. Zero disables the rule.
	LowCardThreshold int     `json:"low_card_threshold"`
	CPUNukeChance    float64 `json:"cpu_nuke_chance"`
	// RecordTimeoutTies persists timed-out matches with even counts.
	RecordTimeoutTies bool `json:"record_timeout_ties"`
	// OutcomeTimeoutSeconds bounds outcome persistence at game end.
	OutcomeTimeoutSeconds int `json:"outcome_timeout_seconds"`
	// HostTokenSecret verifies the host token clients pass on join.
	HostTokenSecret string `json:"host_token_secret,omitempty"`
}

// Default returns the values used when no config file is present.
func Default() GameConfig {
	return GameConfig{
		GameSeconds:           0,
		LowCardThreshold:      3,
		CPUNukeChance:         0.10,
		RecordTimeoutTies:     true,
		OutcomeTimeoutSeconds: 5,
	}
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path once.
// A missing file keeps the defaults; a malformed one is an error.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		c, err := Parse(path)
		if err != nil {
			loadErr = err
			return
		}
		cfg = &c
	})
	return loadErr
}

// Parse reads a config file on top of the defaults.
func Parse(path string) (GameConfig, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return c, fmt.Errorf("failed to read game config: %w", err)
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("failed to unmarshal game config: %w", err)
	}
	return c, c.Validate()
}

// Validate rejects values the engine cannot play with.
func (c GameConfig) Validate() error {
	switch {
	case c.GameSeconds < 0:
		return fmt.Errorf("game_seconds must be >= 0, got %d", c.GameSeconds)
	case c.LowCardThreshold < 0:
		return fmt.Errorf("low_card_threshold must be >= 0, got %d", c.LowCardThreshold)
	case c.CPUNukeChance < 0 || c.CPUNukeChance > 1:
		return fmt.Errorf("cpu_nuke_chance must be within [0,1], got %v", c.CPUNukeChance)
	case c.OutcomeTimeoutSeconds < 0:
		return fmt.Errorf("outcome_timeout_seconds must be >= 0, got %d", c.OutcomeTimeoutSeconds)
	}
	return nil
}

// GetGameConfig returns the global game configuration, or the defaults when
// nothing was loaded.
func GetGameConfig() GameConfig {
	if cfg == nil {
		return Default()
	}
	return *cfg
}

// WithEnv applies nukewar_* overrides from the Nakama runtime env. Unknown
// keys and unparsable values are reported and skipped.
func (c GameConfig) WithEnv(env map[string]string) (GameConfig, []error) {
	var errs []error
	for key, raw := range env {
		if !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		raw = strings.TrimSpace(raw)
		var err error
		switch strings.TrimPrefix(key, EnvPrefix) {
		case "game_seconds":
			err = setInt(&c.GameSeconds, raw)
		case "low_card_threshold":
			err = setInt(&c.LowCardThreshold, raw)
		case "cpu_nuke_chance":
			var f float64
			if f, err = strconv.ParseFloat(raw, 64); err == nil {
				c.CPUNukeChance = f
			}
		case "record_timeout_ties":
			var b bool
			if b, err = strconv.ParseBool(raw); err == nil {
				c.RecordTimeoutTies = b
			}
		case "outcome_timeout_seconds":
			err = setInt(&c.OutcomeTimeoutSeconds, raw)
		case "host_token_secret":
			c.HostTokenSecret = raw
		default:
			err = fmt.Errorf("unknown key")
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	return c, errs
}

func setInt(dst *int, raw string) error {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

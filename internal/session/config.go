// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Default inactivity settings.
const (
	DefaultTimeoutMinutes = 15
	DefaultWarningMinutes = 2

	// DefaultDebounce is the trailing window over which bursts of activity
	// collapse into a single timer reset.
	DefaultDebounce = 500 * time.Millisecond
)

// ErrInvalidConfig is returned for non-positive or inverted minutes.
var ErrInvalidConfig = errors.New("invalid inactivity config")

// maxMinutes is the largest minute count that fits in a time.Duration.
var maxMinutes = float64(math.MaxInt64) / float64(time.Minute)

// Config is the immutable inactivity configuration.
// Minutes may be fractional.
type Config struct {
	TimeoutMinutes float64
	WarningMinutes float64
}

// DefaultConfig returns 15 minutes with a warning 2 minutes before the end.
func DefaultConfig() Config {
	return Config{
		TimeoutMinutes: DefaultTimeoutMinutes,
		WarningMinutes: DefaultWarningMinutes,
	}
}

// NewConfig validates and returns a Config.
func NewConfig(timeoutMinutes, warningMinutes float64) (Config, error) {
	cfg := Config{TimeoutMinutes: timeoutMinutes, WarningMinutes: warningMinutes}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks 0 < warning < timeout and that timeout fits in a
// time.Duration.
func (c Config) Validate() error {
	switch {
	case !finite(c.TimeoutMinutes):
		return fmt.Errorf("%w: timeout minutes must be a finite number, got %v", ErrInvalidConfig, c.TimeoutMinutes)
	case c.TimeoutMinutes <= 0:
		return fmt.Errorf("%w: timeout minutes must be positive, got %v", ErrInvalidConfig, c.TimeoutMinutes)
	case c.TimeoutMinutes > maxMinutes:
		return fmt.Errorf("%w: timeout minutes %v exceed the maximum of %.0f", ErrInvalidConfig, c.TimeoutMinutes, maxMinutes)
	case !finite(c.WarningMinutes) || c.WarningMinutes <= 0:
		return fmt.Errorf("%w: warning minutes must be positive, got %v", ErrInvalidConfig, c.WarningMinutes)
	case c.WarningMinutes >= c.TimeoutMinutes:
		return fmt.Errorf("%w: warning minutes (%v) must be less than timeout minutes (%v)",
			ErrInvalidConfig, c.WarningMinutes, c.TimeoutMinutes)
	}
	return nil
}

// Timeout is the idle time after which the session ends.
func (c Config) Timeout() time.Duration {
	return minutes(c.TimeoutMinutes)
}

// Warning is the length of the warning window.
func (c Config) Warning() time.Duration {
	return minutes(c.WarningMinutes)
}

// WarnAfter is the idle time after which the warning fires.
func (c Config) WarnAfter() time.Duration {
	return c.Timeout() - c.Warning()
}

func minutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

package helpers

import (
	"time"

	"github.com/rs/zerolog/log"
)

// ParseDuration parses a configured duration, returning fallback when the value is
// malformed or not positive. Runs before the logger is configured, so it uses the global one.
func ParseDuration(durationStr string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		log.Warn().Err(err).Str("durationStr", durationStr).Dur("fallback", fallback).Msg("Failed to parse duration string, using fallback")
		return fallback
	}
	if duration <= 0 {
		log.Warn().Str("durationStr", durationStr).Dur("fallback", fallback).Msg("Duration must be positive, using fallback")
		return fallback
	}
	return duration
}

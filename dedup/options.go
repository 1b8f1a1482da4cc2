package dedup

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Options tunes which reports count as the same real-world problem.
type Options struct {
	// MaxDistanceKm is the largest separation at which two reports are co-located.
	MaxDistanceKm float64 `yaml:"maxDistanceKm" json:"maxDistanceKm"`

	// TextSimilarityThreshold is the minimum Jaccard score over title and description.
	TextSimilarityThreshold float64 `yaml:"textSimilarityThreshold" json:"textSimilarityThreshold"`

	// TimeWindowHours is the largest gap between creation times.
	TimeWindowHours float64 `yaml:"timeWindowHours" json:"timeWindowHours"`
}

// DefaultOptions returns 200 m, 0.5 similarity and a 24 hour window.
func DefaultOptions() Options {
	return Options{
		MaxDistanceKm:           0.2,
		TextSimilarityThreshold: 0.5,
		TimeWindowHours:         24,
	}
}

// TimeWindow returns the window as a duration.
func (o Options) TimeWindow() time.Duration {
	return time.Duration(o.TimeWindowHours * float64(time.Hour))
}

// Validate checks if the options have usable values
func (o Options) Validate() error {
	if o.MaxDistanceKm < 0 {
		return fmt.Errorf("max_distance_km cannot be negative (got %.3f)", o.MaxDistanceKm)
	}
	if o.TextSimilarityThreshold < 0 || o.TextSimilarityThreshold > 1 {
		return fmt.Errorf("text_similarity_threshold must be between 0.0 and 1.0 (got %.2f)", o.TextSimilarityThreshold)
	}
	if o.TimeWindowHours < 0 {
		return fmt.Errorf("time_window_hours cannot be negative (got %.1f)", o.TimeWindowHours)
	}
	return nil
}

func (o Options) String() string {
	return fmt.Sprintf("Options{MaxKm: %.3f, TextThreshold: %.2f, WindowHours: %.1f}",
		o.MaxDistanceKm, o.TextSimilarityThreshold, o.TimeWindowHours)
}

// OptionsFromEnv starts from DefaultOptions and applies overrides from
//   - NIVARAN_DEDUP_MAX_KM
//   - NIVARAN_DEDUP_TEXT_THRESHOLD
//   - NIVARAN_DEDUP_WINDOW_HOURS
func OptionsFromEnv() (Options, error) {
	opts := DefaultOptions()

	if err := parseEnvFloat("NIVARAN_DEDUP_MAX_KM", &opts.MaxDistanceKm); err != nil {
		return opts, err
	}
	if err := parseEnvFloat("NIVARAN_DEDUP_TEXT_THRESHOLD", &opts.TextSimilarityThreshold); err != nil {
		return opts, err
	}
	if err := parseEnvFloat("NIVARAN_DEDUP_WINDOW_HOURS", &opts.TimeWindowHours); err != nil {
		return opts, err
	}

	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("invalid dedup options from environment: %w", err)
	}
	return opts, nil
}

func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 0.2, opts.MaxDistanceKm)
	assert.Equal(t, 0.5, opts.TextSimilarityThreshold)
	assert.Equal(t, 24*time.Hour, opts.TimeWindow())
	assert.NoError(t, opts.Validate())
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr bool
	}{
		{"defaults", func(*Options) {}, false},
		{"zero everything", func(o *Options) { *o = Options{} }, false},
		{"negative distance", func(o *Options) { o.MaxDistanceKm = -1 }, true},
		{"threshold above one", func(o *Options) { o.TextSimilarityThreshold = 1.5 }, true},
		{"negative threshold", func(o *Options) { o.TextSimilarityThreshold = -0.1 }, true},
		{"negative window", func(o *Options) { o.TimeWindowHours = -2 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			if tt.wantErr {
				assert.Error(t, opts.Validate())
			} else {
				assert.NoError(t, opts.Validate())
			}
		})
	}
}

func TestOptionsFromEnv(t *testing.T) {
	t.Run("no environment uses defaults", func(t *testing.T) {
		t.Setenv("NIVARAN_DEDUP_MAX_KM", "")
		t.Setenv("NIVARAN_DEDUP_TEXT_THRESHOLD", "")
		t.Setenv("NIVARAN_DEDUP_WINDOW_HOURS", "")

		opts, err := OptionsFromEnv()
		require.NoError(t, err)
		assert.Equal(t, DefaultOptions(), opts)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("NIVARAN_DEDUP_MAX_KM", "0.5")
		t.Setenv("NIVARAN_DEDUP_TEXT_THRESHOLD", "0.7")
		t.Setenv("NIVARAN_DEDUP_WINDOW_HOURS", "48")

		opts, err := OptionsFromEnv()
		require.NoError(t, err)
		assert.Equal(t, Options{MaxDistanceKm: 0.5, TextSimilarityThreshold: 0.7, TimeWindowHours: 48}, opts)
	})

	t.Run("unparseable value", func(t *testing.T) {
		t.Setenv("NIVARAN_DEDUP_MAX_KM", "far")
		_, err := OptionsFromEnv()
		assert.Error(t, err)
	})

	t.Run("out of range value", func(t *testing.T) {
		t.Setenv("NIVARAN_DEDUP_MAX_KM", "")
		t.Setenv("NIVARAN_DEDUP_TEXT_THRESHOLD", "2")
		_, err := OptionsFromEnv()
		assert.Error(t, err)
	})
}

package pollard

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 20, cfg.MinSplit)
	assert.Equal(t, 7, cfg.MinBucket)
	assert.Equal(t, 0.01, cfg.CP)
	assert.Equal(t, 10, cfg.Folds)
	assert.Equal(t, 30, cfg.MaxDepth)
}

func TestDefaultMinBucket(t *testing.T) {
	assert.Equal(t, 5, DefaultMinBucket(15))
	assert.Equal(t, 1, DefaultMinBucket(2))
	assert.Equal(t, 1, DefaultMinBucket(1))
	assert.Equal(t, 4, DefaultMinBucket(11))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"minsplit", func(c *Config) { c.MinSplit = 1 }, "minsplit"},
		{"minbucket", func(c *Config) { c.MinBucket = 0 }, "minbucket"},
		{"negative cp", func(c *Config) { c.CP = -0.1 }, "cp"},
		{"large cp", func(c *Config) { c.CP = 1.5 }, "cp"},
		{"NaN cp", func(c *Config) { c.CP = math.NaN() }, "cp"},
		{"folds", func(c *Config) { c.Folds = 1 }, "xval"},
		{"shallow", func(c *Config) { c.MaxDepth = 0 }, "maxdepth"},
		{"deep", func(c *Config) { c.MaxDepth = 31 }, "maxdepth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			var ice *InvalidConfigError
			require.True(t, errors.As(err, &ice))
			assert.Equal(t, tt.field, ice.Field)
		})
	}
	cfg := DefaultConfig()
	cfg.CP = 0
	assert.NoError(t, cfg.Validate())
	cfg.CP = 1
	assert.NoError(t, cfg.Validate())
}

package pollard

import "math"

// MaxDepthLimit is the largest depth a tree may be grown to.
const MaxDepthLimit = 30

/*
Config holds the parameters that control the growth and
cross-validation of a tree.
*/
type Config struct {
	// MinSplit is the minimum number of records a node must own
	// to be considered for splitting.
	MinSplit int `mapstructure:"minsplit"`
	// MinBucket is the minimum number of records on each child
	// of a split.
	MinBucket int `mapstructure:"minbucket"`
	// CP is the complexity parameter: splits whose subtrees do not
	// reduce the deviance by at least CP times the deviance of the
	// root per extra leaf are pruned after growing. 0 disables it.
	CP float64 `mapstructure:"cp"`
	// Folds is the number of cross-validation folds.
	Folds int `mapstructure:"xval"`
	// Seed seeds the random assignment of records to folds.
	Seed int64 `mapstructure:"seed"`
	// MaxDepth is the maximum depth of any node, the root having depth 0.
	MaxDepth int `mapstructure:"maxdepth"`
}

// DefaultConfig returns the default growth parameters.
func DefaultConfig() Config {
	return Config{
		MinSplit:  20,
		MinBucket: DefaultMinBucket(20),
		CP:        0.01,
		Folds:     10,
		Seed:      1,
		MaxDepth:  MaxDepthLimit,
	}
}

// DefaultMinBucket returns the minimum leaf size used when only the
// minimum split size is given: a third of it, rounded.
func DefaultMinBucket(minSplit int) int {
	mb := int(math.Round(float64(minSplit) / 3))
	if mb < 1 {
		return 1
	}
	return mb
}

// Validate returns an *InvalidConfigError if a parameter is out of range.
func (c Config) Validate() error {
	if c.MinSplit < 2 {
		return &InvalidConfigError{"minsplit", c.MinSplit, "must be at least 2"}
	}
	if c.MinBucket < 1 {
		return &InvalidConfigError{"minbucket", c.MinBucket, "must be at least 1"}
	}
	if math.IsNaN(c.CP) || c.CP < 0 || c.CP > 1 {
		return &InvalidConfigError{"cp", c.CP, "must be between 0 and 1"}
	}
	if c.Folds < 2 {
		return &InvalidConfigError{"xval", c.Folds, "must be at least 2"}
	}
	if c.MaxDepth < 1 || c.MaxDepth > MaxDepthLimit {
		return &InvalidConfigError{"maxdepth", c.MaxDepth, "must be between 1 and 30"}
	}
	return nil
}

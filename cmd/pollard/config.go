package main

import (
	"fmt"
	"strings"

	"github.com/pbanos/pollard"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var growthParameters = []string{"minsplit", "minbucket", "cp", "xval", "seed", "maxdepth", "workers"}

// addGrowthFlags defines on the command a flag per growth parameter.
func addGrowthFlags(cmd *cobra.Command) {
	defaults := pollard.DefaultConfig()
	cmd.Flags().Int("minsplit", defaults.MinSplit, "minimum number of samples a node must have to attempt splitting it")
	cmd.Flags().Int("minbucket", 0, "minimum number of samples on each side of a split (defaults to a third of minsplit)")
	cmd.Flags().Float64("cp", defaults.CP, "complexity parameter: splits that do not decrease the relative error by this much are pruned (0 disables it)")
	cmd.Flags().Int("xval", defaults.Folds, "number of cross-validation folds")
	cmd.Flags().Int64("seed", defaults.Seed, "seed for the random assignment of samples to cross-validation folds")
	cmd.Flags().Int("maxdepth", defaults.MaxDepth, "maximum depth of the nodes of the tree, the root having depth 0")
	cmd.Flags().Int("workers", 0, "number of cross-validation folds processed concurrently (defaults to 0: one per CPU)")
}

/*
growthConfig layers the growth parameters from the command flags, POLLARD_*
environment variables and the config file, in decreasing precedence, and
returns them as a pollard.Config along the number of workers.
*/
func growthConfig(cmd *cobra.Command, configFile string) (pollard.Config, int, error) {
	v := viper.New()
	v.SetEnvPrefix("pollard")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, key := range growthParameters {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(key)); err != nil {
			return pollard.Config{}, 0, fmt.Errorf("binding flag %s: %v", key, err)
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return pollard.Config{}, 0, fmt.Errorf("reading config file %s: %v", configFile, err)
		}
	}
	cfg := pollard.DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return pollard.Config{}, 0, fmt.Errorf("decoding growth parameters: %v", err)
	}
	if cfg.MinBucket == 0 {
		cfg.MinBucket = pollard.DefaultMinBucket(cfg.MinSplit)
	}
	if err := cfg.Validate(); err != nil {
		return pollard.Config{}, 0, err
	}
	return cfg, v.GetInt("workers"), nil
}

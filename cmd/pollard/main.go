package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/pbanos/pollard"
	"github.com/pbanos/pollard/feature"
	"github.com/pbanos/pollard/feature/yaml"
	"github.com/pbanos/pollard/tree"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Exit codes of the commands, one per kind of failure.
const (
	exitInvalidFlags = iota + 1
	exitMetadata
	exitInput
	exitFrame
	exitLabel
	exitGrowth
	exitInsufficientData
	exitDegenerateTree
	exitCrossValidation
	exitOutput
	exitTreeInput
	exitTreeStore
	exitPrediction
	exitTest
)

type rootCmdConfig struct {
	verbose       bool
	debug         bool
	configFile    string
	metadataInput string
	logger        *zap.SugaredLogger
	ctx           context.Context
	cancelFunc    context.CancelFunc
}

func main() {
	if err := cliParser().Execute(); err != nil {
		os.Exit(exitInvalidFlags)
	}
}

func cliParser() *cobra.Command {
	config := &rootCmdConfig{}
	rootCmd := &cobra.Command{
		Use:   "pollard",
		Short: "pollard is a tool to grow and prune regression trees",
		Long:  `A tool to grow regression trees from your data, prune them by cross-validated cost-complexity, test them, and use them to make predictions`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.logger = newLogger(config.verbose, config.debug).Sugar()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if config.logger != nil {
				_ = config.logger.Sync()
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&(config.verbose), "verbose", "v", false, "log progress information on STDERR")
	rootCmd.PersistentFlags().BoolVar(&(config.debug), "debug", false, "log debugging information on STDERR, including the progress of every cross-validation fold")
	rootCmd.PersistentFlags().StringVar(&(config.configFile), "config", "", "path to a YML file with growth parameters (minsplit, minbucket, cp, xval, seed, maxdepth, workers); POLLARD_* environment variables are also read")
	rootCmd.PersistentFlags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the different features available on the data (required)")
	rootCmd.AddCommand(
		versionCmd(),
		growCmd(config),
		testCmd(config),
		predictCmd(config),
		treeCmd(config),
		setCmd(config),
	)
	return rootCmd
}

var exit = os.Exit

// fail reports the error on STDERR, runs the given cleanups and exits with
// the given code.
func fail(code int, err error, cleanups ...func()) {
	fmt.Fprintln(os.Stderr, err)
	for _, cleanup := range cleanups {
		cleanup()
	}
	exit(code)
}

// exitCodeFor returns the exit code for the errors of growing and
// cross-validating trees, or fallback when the error has no specific one.
func exitCodeFor(err error, fallback int) int {
	var ice *pollard.InvalidConfigError
	var ide *pollard.InsufficientDataError
	var dte *pollard.DegenerateTreeError
	switch {
	case errors.As(err, &ice):
		return exitInvalidFlags
	case errors.As(err, &ide):
		return exitInsufficientData
	case errors.As(err, &dte):
		return exitDegenerateTree
	case errors.Is(err, tree.ErrEmptyTree):
		return exitTreeInput
	}
	return fallback
}

func (rcc *rootCmdConfig) Validate() error {
	if rcc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	return nil
}

func (rcc *rootCmdConfig) Features() []feature.Feature {
	rcc.logger.Infof("Reading features from metadata at %s...", rcc.metadataInput)
	features, err := yaml.ReadFeaturesFromFile(rcc.metadataInput)
	if err != nil {
		fail(exitMetadata, err)
	}
	rcc.logger.Infof("Features from metadata read")
	return features
}

func (rcc *rootCmdConfig) Context() context.Context {
	rcc.setContextAndCancelFunc()
	return rcc.ctx
}

func (rcc *rootCmdConfig) ContextCancelFunc() context.CancelFunc {
	rcc.setContextAndCancelFunc()
	return rcc.cancelFunc
}

func (rcc *rootCmdConfig) setContextAndCancelFunc() {
	if rcc.ctx == nil {
		rcc.ctx, rcc.cancelFunc = context.WithCancel(context.Background())
	}
}

// labelFeature returns the continuous feature with the given name.
func labelFeature(features []feature.Feature, name string) (*feature.ContinuousFeature, error) {
	f := feature.Find(features, name)
	if f == nil {
		return nil, fmt.Errorf("label feature '%s' is not defined", name)
	}
	cf, ok := f.(*feature.ContinuousFeature)
	if !ok {
		return nil, fmt.Errorf("label feature '%s' must be continuous", name)
	}
	return cf, nil
}

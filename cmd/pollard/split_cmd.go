package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/pbanos/pollard/dataset"
	"github.com/spf13/cobra"
)

type splitCmdConfig struct {
	*setCmdConfig
	splitOutput      string
	splitProbability int
	splitSize        int
	seed             int64
}

func splitCmd(setConfig *setCmdConfig) *cobra.Command {
	config := &splitCmdConfig{setCmdConfig: setConfig}
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a set into two sets",
		Long:  `Split a set into an output set and a split set, typically to hold out a testing set`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fail(exitInvalidFlags, err)
			}
			ctx := config.Context()
			features := config.Features()
			if !cmd.Flags().Changed("seed") {
				config.seed = time.Now().UnixNano()
			}
			config.logger.Infof("Splitting with seed %d", config.seed)
			randomizer := rand.New(rand.NewSource(config.seed))

			output, err := openSampleWriter(ctx, config.setOutput, features, config.logger)
			if err != nil {
				fail(exitOutput, err)
			}
			splitOutput, err := openSampleWriter(ctx, config.splitOutput, features, config.logger)
			if err != nil {
				fail(exitOutput, err)
			}
			inputStream, errStream, closeInput, err := openSampleStream(ctx, config.setInput, features, config.logger)
			if err != nil {
				fail(exitInput, err)
			}
			defer closeInput()

			if config.splitSize > 0 {
				err = splitBySize(config, inputStream, output, splitOutput, randomizer)
			} else {
				err = splitByProbability(config, inputStream, output, splitOutput, randomizer)
			}
			if err != nil {
				config.ContextCancelFunc()()
				for range inputStream {
				}
				fail(exitOutput, err, closeInput)
			}
			if err = <-errStream; err != nil {
				fail(exitInput, err, closeInput)
			}
			config.logger.Infof("Flushing output set...")
			if err = output.Flush(); err != nil {
				fail(exitOutput, err, closeInput)
			}
			config.logger.Infof("Flushing split set...")
			if err = splitOutput.Flush(); err != nil {
				fail(exitOutput, err, closeInput)
			}
			config.logger.Infof("Done")
			config.logger.Infof("Input set with %d samples was split into sets with %d and %d samples", output.Count()+splitOutput.Count(), output.Count(), splitOutput.Count())
		},
	}
	cmd.Flags().IntVarP(&(config.splitProbability), "split-probability", "p", 20, "probability as percent integer that a sample of the set will be assigned to the split set")
	cmd.Flags().IntVarP(&(config.splitSize), "split-size", "n", 0, "exact number of samples to assign to the split set, chosen at random (overrides split-probability, reads the whole set into memory)")
	cmd.Flags().Int64Var(&(config.seed), "seed", 0, "seed for the random assignment of samples (defaults to the current time)")
	cmd.Flags().StringVarP(&(config.splitOutput), "split-output", "s", "", "path to a CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL (postgresql://) or MongoDB (mongodb://) connection URL to dump the split set (required)")
	return cmd
}

func (scc *splitCmdConfig) Validate() error {
	if err := scc.setCmdConfig.Validate(); err != nil {
		return err
	}
	if scc.splitOutput == "" {
		return fmt.Errorf("required split-output flag was not set")
	}
	if scc.splitSize < 0 {
		return fmt.Errorf("split-size flag was set to an invalid value: it must be a positive integer")
	}
	if scc.splitProbability <= 0 || scc.splitProbability > 100 {
		return fmt.Errorf("split-probability flag was set to an invalid value: it must be set to an integer between 1 and 100")
	}
	return nil
}

func splitByProbability(config *splitCmdConfig, samples <-chan dataset.Sample, output, splitOutput sampleWriter, randomizer *rand.Rand) error {
	ctx := config.Context()
	for s := range samples {
		w := output
		if (100 * randomizer.Float64()) < float64(config.splitProbability) {
			w = splitOutput
		}
		if _, err := w.Write(ctx, []dataset.Sample{s}); err != nil {
			return err
		}
	}
	return nil
}

func splitBySize(config *splitCmdConfig, samples <-chan dataset.Sample, output, splitOutput sampleWriter, randomizer *rand.Rand) error {
	ctx := config.Context()
	var all []dataset.Sample
	for s := range samples {
		all = append(all, s)
	}
	if config.splitSize > len(all) {
		return fmt.Errorf("cannot assign %d samples to the split set out of a set of %d", config.splitSize, len(all))
	}
	split := make([]bool, len(all))
	for _, i := range randomizer.Perm(len(all))[:config.splitSize] {
		split[i] = true
	}
	for i, s := range all {
		w := output
		if split[i] {
			w = splitOutput
		}
		if _, err := w.Write(ctx, []dataset.Sample{s}); err != nil {
			return err
		}
	}
	return nil
}

package main

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/pbanos/pollard"
	"github.com/pbanos/pollard/dataset"
	"github.com/spf13/cobra"
)

type growCmdConfig struct {
	*rootCmdConfig
	treeOutput
	dataInput          string
	label              string
	selection          string
	splitRejection     string
	cpuIntensiveSet    bool
	memoryIntensiveSet bool
	maxDBConns         int
}

func growCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &growCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "grow",
		Short: "Grow a tree from a set of data",
		Long:  `Grow a regression tree from a set of data to predict a continuous feature, cross-validate its pruning sequence and select the subtree to keep.`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fail(exitInvalidFlags, err)
			}
			cfg, workers, err := growthConfig(cmd, config.configFile)
			if err != nil {
				fail(exitInvalidFlags, err)
			}
			pruner, err := splitRejection(config.splitRejection)
			if err != nil {
				fail(exitInvalidFlags, err)
			}
			ctx := config.Context()
			features := config.Features()
			label, err := labelFeature(features, config.label)
			if err != nil {
				fail(exitLabel, err)
			}
			ds, closeDataset, err := openDataset(ctx, config.dataInput, features, datasetGenerator(config.memoryIntensiveSet, config.cpuIntensiveSet), config.maxDBConns, config.logger)
			if err != nil {
				fail(exitInput, err)
			}
			defer closeDataset()
			fr, err := dataset.NewFrame(ctx, ds, label, features)
			if err != nil {
				fail(exitFrame, err, closeDataset)
			}
			if fr.Dropped() > 0 {
				config.logger.Warnf("%d samples without a value for %s were left out", fr.Dropped(), label.Name())
			}
			opts := []pollard.Option{pollard.WithLogger(config.logger.Desugar()), pollard.WithWorkers(workers), pollard.WithPruner(pruner)}
			config.logger.Infof("Growing tree from a set with %d samples and %d features to predict %s ...", fr.Len(), len(fr.Features()), label.Name())
			t, err := pollard.Grow(ctx, fr, cfg, opts...)
			if err != nil {
				fail(exitCodeFor(err, exitGrowth), fmt.Errorf("growing the tree: %w", err), closeDataset)
			}
			config.logger.Infof("Grown tree has %d splits", t.Splits())
			if config.selection != "none" {
				config.logger.Infof("Cross-validating the pruning sequence with %d folds...", cfg.Folds)
				ct, err := pollard.CrossValidate(ctx, fr, t, cfg, rand.New(rand.NewSource(cfg.Seed)), opts...)
				if err != nil {
					fail(exitCodeFor(err, exitCrossValidation), fmt.Errorf("cross-validating the tree: %w", err), closeDataset)
				}
				renderComplexityTable(ct)
				var row pollard.ComplexityRow
				if config.selection == "min" {
					row, err = ct.SelectMin()
				} else {
					row, err = ct.SelectOneSE()
				}
				if err == nil {
					t, err = pollard.PruneToSplits(t, row.Splits)
				}
				if err != nil {
					fail(exitCrossValidation, fmt.Errorf("selecting the subtree: %w", err), closeDataset)
				}
				config.logger.Infof("Selected subtree with %d splits (cp %.6g)", row.Splits, row.CP)
			}
			config.logger.Infof("Done")
			config.logger.Infof("\n%v", t)
			code, err := config.write(ctx, t, features)
			if err != nil {
				fail(code, err, closeDataset)
			}
		},
	}
	cmd.Flags().StringVarP(&(config.dataInput), "input", "i", "", inputFlagUsage)
	cmd.Flags().StringVarP(&(config.label), "label", "l", "", "name of the continuous feature the generated tree should predict (required)")
	cmd.Flags().StringVarP(&(config.selection), "select", "s", "1se", "how to select the subtree from the cross-validated pruning sequence: 1se (smallest within one standard error of the minimum), min (minimum cross-validated error) or none (skip cross-validation)")
	cmd.Flags().StringVar(&(config.splitRejection), "split-rejection", "none", "strategy rejecting splits while growing, before cost-complexity pruning, the following are valid: none, relative-improvement:[CP], minimum-improvement:[VALUE]")
	cmd.Flags().BoolVar(&(config.memoryIntensiveSet), "memory-intensive", false, "force the use of memory-intensive subsetting to decrease time at the cost of increasing memory use")
	cmd.Flags().BoolVar(&(config.cpuIntensiveSet), "cpu-intensive", false, "force the use of cpu-intensive subsetting to decrease memory use at the cost of increasing time")
	cmd.Flags().IntVar(&(config.maxDBConns), "max-db-conns", 0, "limit to DB connections opened at a time (defaults to 0: no limit)")
	config.treeOutput.addFlags(cmd)
	addGrowthFlags(cmd)
	return cmd
}

func (gcc *growCmdConfig) Validate() error {
	if err := gcc.rootCmdConfig.Validate(); err != nil {
		return err
	}
	if gcc.label == "" {
		return fmt.Errorf("required label flag was not set")
	}
	if gcc.cpuIntensiveSet && gcc.memoryIntensiveSet {
		return fmt.Errorf("cannot set both memory-intensive and cpu-intensive flags at the same time")
	}
	switch gcc.selection {
	case "1se", "min", "none":
	default:
		return fmt.Errorf("unknown selection %q: expected 1se, min or none", gcc.selection)
	}
	return nil
}

func splitRejection(sr string) (pollard.Pruner, error) {
	parsedSR := strings.Split(sr, ":")
	sr = parsedSR[0]
	srParams := parsedSR[1:]
	switch sr {
	case "none":
		return pollard.NoPruner(), nil
	case "relative-improvement", "minimum-improvement":
		if len(srParams) != 1 {
			return nil, fmt.Errorf("%s split rejection takes exactly one parameter", sr)
		}
		value, err := strconv.ParseFloat(srParams[0], 64)
		if err != nil {
			return nil, fmt.Errorf("parsing %s parameter: %v", sr, err)
		}
		if sr == "relative-improvement" {
			return pollard.RelativeImprovementPruner(value), nil
		}
		return pollard.FixedImprovementPruner(value), nil
	}
	return nil, fmt.Errorf("unknown split rejection %s", sr)
}

// renderComplexityTable prints the cross-validation results on STDERR.
func renderComplexityTable(ct pollard.ComplexityTable) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stderr)
	t.SetTitle("COMPLEXITY TABLE")
	t.AppendHeader(table.Row{"CP", "nsplit", "rel error", "xerror", "xstd"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	for _, row := range ct {
		t.AppendRow(table.Row{
			fmt.Sprintf("%.6f", row.CP),
			row.Splits,
			fmt.Sprintf("%.5f", row.RelError),
			fmt.Sprintf("%.5f", row.XError),
			fmt.Sprintf("%.5f", row.XStd),
		})
	}
	t.Render()
}

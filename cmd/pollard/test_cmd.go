package main

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pbanos/pollard/dataset"
	"github.com/pbanos/pollard/tree"
	"github.com/sbinet/npyio"
	"github.com/spf13/cobra"
)

type testCmdConfig struct {
	*rootCmdConfig
	treeInput
	dataInput         string
	leaves            bool
	predictionsOutput string
}

func testCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &testCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test the performance of a tree",
		Long:  `Test the performance of a tree against a test data set, reporting the root mean squared error and mean absolute error of its predictions`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fail(exitInvalidFlags, err)
			}
			ctx := config.Context()
			features := config.Features()
			t, err := config.load(ctx, features)
			if err != nil {
				fail(exitTreeInput, err)
			}
			testingSet, closeDataset, err := openDataset(ctx, config.dataInput, features, dataset.New, 0, config.logger)
			if err != nil {
				fail(exitInput, err)
			}
			defer closeDataset()
			config.logger.Infof("Testing tree against the testing set...")
			result, err := t.Test(ctx, testingSet)
			if err != nil && !errors.Is(err, tree.ErrNothingToTest) {
				fail(exitTest, fmt.Errorf("testing tree: %w", err), closeDataset)
			}
			config.logger.Infof("Done")
			if err == nil {
				fmt.Printf("RMSE %f, MAE %f over %d samples\n", result.RMSE, result.MAE, result.Count)
			}
			fmt.Printf("%d samples skipped for lacking a %s value, failed to make a prediction for %d samples\n", result.Skipped, t.Label.Name(), result.Failed)
			if config.predictionsOutput != "" {
				if err := writePredictions(config.predictionsOutput, result.Predictions); err != nil {
					fail(exitOutput, err, closeDataset)
				}
			}
			if config.leaves {
				stats, err := tree.LeafStats(ctx, t, testingSet)
				if err != nil {
					fail(exitTest, fmt.Errorf("computing leaf statistics: %w", err), closeDataset)
				}
				renderLeafStats(stats)
			}
			if err != nil {
				fail(exitTest, err, closeDataset)
			}
		},
	}
	cmd.Flags().StringVarP(&(config.dataInput), "input", "i", "", inputFlagUsage)
	cmd.Flags().BoolVar(&(config.leaves), "leaves", false, "show the statistics of the testing set on every leaf of the tree")
	cmd.Flags().StringVarP(&(config.predictionsOutput), "predictions", "p", "", "path to a .npy file to which the predictions will be written, NaN for samples that could not be predicted")
	config.treeInput.addFlags(cmd, false)
	config.treeInput.addMissingFlag(cmd)
	return cmd
}

func (tcc *testCmdConfig) Validate() error {
	if err := tcc.rootCmdConfig.Validate(); err != nil {
		return err
	}
	return tcc.treeInput.Validate()
}

func writePredictions(path string, predictions []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating predictions file %s: %v", path, err)
	}
	defer f.Close()
	if predictions == nil {
		predictions = []float64{}
	}
	if err = npyio.Write(f, predictions); err != nil {
		return fmt.Errorf("writing predictions to %s: %v", path, err)
	}
	return f.Close()
}

func renderLeafStats(stats []*tree.NodeStats) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"leaf", "n", "value", "test n", "test mean", "test RMSE"})
	for _, ns := range stats {
		if !ns.Node.IsLeaf() {
			continue
		}
		rmse := math.NaN()
		if ns.Stats.Count > 0 {
			rmse = math.Sqrt(ns.SSE / float64(ns.Stats.Count))
		}
		tw.AppendRow(table.Row{
			ns.Node.ID,
			ns.Node.N,
			fmt.Sprintf("%.6g", ns.Node.Value),
			ns.Stats.Count,
			fmt.Sprintf("%.6g", ns.Stats.Mean),
			fmt.Sprintf("%.6g", rmse),
		})
	}
	tw.Render()
}

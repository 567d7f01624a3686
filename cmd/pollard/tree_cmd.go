package main

import (
	"fmt"
	"math"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pbanos/pollard"
	"github.com/pbanos/pollard/feature"
	"github.com/pbanos/pollard/tree"
	"github.com/spf13/cobra"
)

type treeCmdConfig struct {
	*rootCmdConfig
	treeInput
}

type pruneCmdConfig struct {
	*treeCmdConfig
	treeOutput
	cp     float64
	alpha  float64
	splits int
}

func treeCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &treeCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Manage regression trees",
		Long:  `Show regression trees, their pruning sequence and prune them`,
		Run: func(cmd *cobra.Command, args []string) {
			t, _ := config.Tree()
			fmt.Println(t)
		},
	}
	config.treeInput.addFlags(cmd, true)
	cmd.AddCommand(pruneCmd(config), sequenceCmd(config))
	return cmd
}

func (tcc *treeCmdConfig) Validate() error {
	if err := tcc.rootCmdConfig.Validate(); err != nil {
		return err
	}
	return tcc.treeInput.Validate()
}

// Tree validates the flags and loads the tree they point to along with the
// features it was read with, exiting on failure.
func (tcc *treeCmdConfig) Tree() (*tree.Tree, []feature.Feature) {
	if err := tcc.Validate(); err != nil {
		fail(exitInvalidFlags, err)
	}
	features := tcc.Features()
	t, err := tcc.load(tcc.Context(), features)
	if err != nil {
		fail(exitTreeInput, err)
	}
	return t, features
}

func pruneCmd(treeConfig *treeCmdConfig) *cobra.Command {
	config := &pruneCmdConfig{treeCmdConfig: treeConfig}
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Prune a tree",
		Long:  `Prune a tree to the member of its weakest-link pruning sequence for a complexity parameter, a complexity penalty or a number of splits`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate(cmd)
			if err != nil {
				fail(exitInvalidFlags, err)
			}
			t, features := config.Tree()
			var pruned *tree.Tree
			switch {
			case cmd.Flags().Changed("cp"):
				pruned = pollard.PruneCP(t, config.cp)
			case cmd.Flags().Changed("alpha"):
				pruned = pollard.Prune(t, config.alpha)
			default:
				pruned, err = pollard.PruneToSplits(t, config.splits)
				if err != nil {
					fail(exitTreeInput, err)
				}
			}
			config.logger.Infof("Pruned tree from %d to %d splits", t.Splits(), pruned.Splits())
			code, err := config.write(config.Context(), pruned, features)
			if err != nil {
				fail(code, err)
			}
		},
	}
	cmd.Flags().Float64Var(&(config.cp), "cp", 0, "complexity parameter: relative decrease of error per split below which subtrees are pruned")
	cmd.Flags().Float64Var(&(config.alpha), "alpha", 0, "complexity penalty per leaf, in units of the label deviance")
	cmd.Flags().IntVar(&(config.splits), "splits", 0, "number of splits of the pruned tree, which must match a member of its pruning sequence")
	config.treeOutput.addFlags(cmd)
	return cmd
}

func (pcc *pruneCmdConfig) Validate(cmd *cobra.Command) error {
	set := 0
	for _, name := range []string{"cp", "alpha", "splits"} {
		if cmd.Flags().Changed(name) {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("exactly one of the cp, alpha and splits flags must be set")
	}
	if pcc.cp < 0 || pcc.alpha < 0 || pcc.splits < 0 || math.IsNaN(pcc.cp) || math.IsNaN(pcc.alpha) {
		return fmt.Errorf("cp, alpha and splits flags cannot be negative")
	}
	return nil
}

func sequenceCmd(treeConfig *treeCmdConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "sequence",
		Short: "Show the pruning sequence of a tree",
		Long:  `Show the nested sequence of subtrees obtained by weakest-link pruning of a tree, with the complexity from which each is optimal`,
		Run: func(cmd *cobra.Command, args []string) {
			t, _ := treeConfig.Tree()
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"alpha", "CP", "nsplit", "leaves", "deviance"})
			for _, s := range pollard.Sequence(t) {
				tw.AppendRow(table.Row{
					fmt.Sprintf("%.6g", s.Alpha),
					fmt.Sprintf("%.6f", s.CP),
					s.Splits,
					s.Leaves,
					fmt.Sprintf("%.6g", s.Deviance),
				})
			}
			tw.Render()
		},
	}
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/pbanos/pollard/dataset/inputsample"
	"github.com/pbanos/pollard/feature"
	"github.com/pbanos/pollard/tree"
	"github.com/spf13/cobra"
)

type predictCmdConfig struct {
	*rootCmdConfig
	treeInput
	undefinedValue string
}

type stdoutFeatureValueRequester string

func predictCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &predictCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict a value for a sample answering questions",
		Long:  `Use the loaded tree to predict the label of a sample answering questions only about the features tested on its path`,
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
			sample := inputsample.New(os.Stdin, features, stdoutFeatureValueRequester(config.undefinedValue), config.undefinedValue)
			prediction, err := t.Predict(ctx, sample)
			if err != nil {
				var mfe *tree.MissingFieldError
				if errors.As(err, &mfe) {
					err = fmt.Errorf("cannot predict without a value for %s", mfe.Feature)
				}
				fail(exitPrediction, err)
			}
			fmt.Printf("Predicted %s is %g\n", t.Label.Name(), prediction)
		},
	}
	cmd.Flags().StringVarP(&(config.undefinedValue), "undefined-value", "u", "?", "value to input to define a sample's value for a feature as undefined")
	config.treeInput.addFlags(cmd, false)
	config.treeInput.addMissingFlag(cmd)
	return cmd
}

func (pcc *predictCmdConfig) Validate() error {
	if err := pcc.rootCmdConfig.Validate(); err != nil {
		return err
	}
	return pcc.treeInput.Validate()
}

func (sfvr stdoutFeatureValueRequester) RequestValueFor(f feature.Feature) error {
	switch f := f.(type) {
	case *feature.DiscreteFeature:
		fmt.Printf("Please provide the sample's %s:\n(valid values are %v or %s if undefined)\n", f.Name(), f.AvailableValues(), string(sfvr))
	case *feature.ContinuousFeature:
		fmt.Printf("Please provide the sample's %s:\n(valid values are real numbers or %s if undefined)\n", f.Name(), string(sfvr))
	default:
		return fmt.Errorf("unknown feature type %T", f)
	}
	return nil
}

func (sfvr stdoutFeatureValueRequester) RejectValueFor(f feature.Feature, value interface{}) error {
	switch f := f.(type) {
	case *feature.DiscreteFeature:
		fmt.Printf("%v is not a valid value for the sample's %s. Please provide one of %v or %s if undefined.\n", value, f.Name(), f.AvailableValues(), string(sfvr))
	case *feature.ContinuousFeature:
		fmt.Printf("%v is not a valid value for the sample's %s. Please provide a real number or %s if undefined.\n", value, f.Name(), string(sfvr))
	default:
		return fmt.Errorf("unknown feature type %T", f)
	}
	return nil
}

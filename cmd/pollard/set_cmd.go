package main

import (
	"github.com/pbanos/pollard/dataset"
	"github.com/spf13/cobra"
)

type setCmdConfig struct {
	*rootCmdConfig
	setInput  string
	setOutput string
}

func setCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &setCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Manage sets of data",
		Long:  `Copy sets of data between CSV files, SQLite3 and PostgreSQL databases and MongoDB`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fail(exitInvalidFlags, err)
			}
			ctx := config.Context()
			features := config.Features()

			output, err := openSampleWriter(ctx, config.setOutput, features, config.logger)
			if err != nil {
				fail(exitOutput, err)
			}

			inputStream, errStream, closeInput, err := openSampleStream(ctx, config.setInput, features, config.logger)
			if err != nil {
				fail(exitInput, err)
			}
			defer closeInput()

			config.logger.Infof("Dumping input set into output set...")
			for s := range inputStream {
				_, err = output.Write(ctx, []dataset.Sample{s})
				if err != nil {
					config.ContextCancelFunc()()
					break
				}
			}
			if err != nil {
				for range inputStream {
				}
				fail(exitOutput, err, closeInput)
			}
			err = <-errStream
			if err != nil {
				fail(exitInput, err, closeInput)
			}
			config.logger.Infof("Flushing output set...")
			err = output.Flush()
			if err != nil {
				fail(exitOutput, err, closeInput)
			}
			config.logger.Infof("Done: %d samples written", output.Count())
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.setInput), "input", "i", "", inputFlagUsage)
	cmd.PersistentFlags().StringVarP(&(config.setOutput), "output", "o", "", "path to a CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL (postgresql://) or MongoDB (mongodb://) connection URL to dump the output set (defaults to STDOUT in CSV)")
	cmd.AddCommand(splitCmd(config))
	return cmd
}

func (scc *setCmdConfig) Validate() error {
	return scc.rootCmdConfig.Validate()
}

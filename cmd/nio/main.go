package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/nio/cmd/nio/compile"
	"github.com/wippyai/nio/cmd/nio/dump"
	"github.com/wippyai/nio/cmd/nio/run"
	"github.com/wippyai/nio/codegen"
	"github.com/wippyai/nio/compiler"
	"github.com/wippyai/nio/engine"
)

var version = "<unknown>"

func configureCLI() *cobra.Command {
	var verbose bool

	rootCommand := &cobra.Command{
		Use:           "nio",
		Short:         "nio WebAssembly compiler",
		Long:          "nio - compile IR programs to WebAssembly modules and run them",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(verbose)
			if err != nil {
				return err
			}
			codegen.SetLogger(log)
			compiler.SetLogger(log)
			engine.SetLogger(log)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = engine.Logger().Sync()
		},
	}

	rootCommand.AddCommand(compile.Command())
	rootCommand.AddCommand(dump.Command())
	rootCommand.AddCommand(run.Command())

	rootCommand.PersistentFlags().BoolVar(&verbose, "verbose", false, "log pipeline events at debug level")

	return rootCommand
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func main() {
	if err := configureCLI().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

package dump

import (
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/wippyai/nio/cmd/nio/internal/load"
	"github.com/wippyai/nio/compiler"
)

func Command() *cobra.Command {
	var stats bool
	var wit bool

	command := &cobra.Command{
		Use:   "dump [path to module or program]",
		Short: "Dump WebAssembly modules",
		Long:  "Dump WebAssembly modules, or the modules compiled from IR programs, as text",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("expected exactly one argument")
			}
			in, err := load.ReadFile(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if wit {
				if in.Program == nil {
					return errors.New("--wit requires a program")
				}
				res, err := compiler.Compile(in.Program)
				if err != nil {
					return err
				}
				_, err = io.WriteString(out, res.WIT)
				return err
			}

			mod, err := in.Module()
			if err != nil {
				return err
			}

			if stats {
				return dumpStats(out, mod)
			}
			return mod.WriteText(out)
		},
	}

	command.PersistentFlags().BoolVarP(&stats, "stats", "s", false, "dump module statistics in CSV format")
	command.PersistentFlags().BoolVar(&wit, "wit", false, "dump the WIT world of a program")

	return command
}

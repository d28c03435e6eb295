package compile

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/nio/cmd/nio/internal/load"
	"github.com/wippyai/nio/compiler"
)

func Command() *cobra.Command {
	var outputPath string
	var witPath string
	var world string

	command := &cobra.Command{
		Use:   "compile [path to program]",
		Short: "Compile an IR program to a WebAssembly module",
		Long:  "Compile a JSON-encoded IR program to a WebAssembly binary module and, optionally, its WIT world",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("expected exactly one argument")
			}

			in, err := load.ReadFile(args[0])
			if err != nil {
				return err
			}
			if in.Program == nil {
				return errors.Errorf("%s is already a module", args[0])
			}

			res, err := compiler.New(compiler.WithWorld(world)).Compile(in.Program)
			if err != nil {
				return err
			}

			var dest io.Writer
			switch outputPath {
			case "":
				f, err := os.Create(in.Name + ".wasm")
				if err != nil {
					return errors.Wrap(err, "create output")
				}
				defer f.Close()

				dest = f
			case "-":
				dest = cmd.OutOrStdout()
				if f, ok := dest.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
					return errors.New("refusing to write a binary module to a terminal")
				}
			default:
				f, err := os.Create(outputPath)
				if err != nil {
					return errors.Wrap(err, "create output")
				}
				defer f.Close()

				dest = f
			}

			w := bufio.NewWriter(dest)
			if _, err := w.Write(res.Binary); err != nil {
				return errors.Wrap(err, "write module")
			}
			if err := w.Flush(); err != nil {
				return errors.Wrap(err, "write module")
			}

			if witPath != "" {
				if err := os.WriteFile(witPath, []byte(res.WIT), 0o644); err != nil {
					return errors.Wrap(err, "write WIT")
				}
			}
			return nil
		},
	}

	command.PersistentFlags().StringVarP(&outputPath, "out", "o", "", "the path for the output module. Defaults to the name of the input file + '.wasm'; '-' writes to stdout")
	command.PersistentFlags().StringVar(&witPath, "wit", "", "also write the module's WIT world to this path")
	command.PersistentFlags().StringVar(&world, "world", compiler.DefaultWorld, "the name of the WIT world")

	return command
}

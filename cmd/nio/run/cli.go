package run

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/nio/cmd/nio/internal/load"
	"github.com/wippyai/nio/engine"
	"github.com/wippyai/nio/eval"
	"github.com/wippyai/nio/runtime"
)

func Command() *cobra.Command {
	var funcName string
	var witPath string
	var callArgs []string
	var list bool
	var interactive bool
	var interpret bool

	command := &cobra.Command{
		Use:   "run [path to module or program]",
		Short: "Run WebAssembly functions",
		Long:  "Compile or load a module and call one of its exported functions.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("expected exactly one argument")
			}

			in, err := load.ReadFile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if interpret {
				return runInterpreted(out, in, funcName, callArgs)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			rt, err := runtime.New(ctx)
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			mod, err := openModule(ctx, rt, in, witPath)
			if err != nil {
				return err
			}

			if interactive {
				if !term.IsTerminal(int(os.Stdin.Fd())) {
					return errors.New("interactive mode requires a terminal")
				}
				return runInteractive(in.Name, mod)
			}

			exports := mod.Exports()
			if list {
				for _, exp := range exports {
					fmt.Fprintln(out, formatExport(exp))
				}
				return nil
			}

			if funcName == "" {
				if funcName = defaultFunction(exports); funcName == "" {
					return errors.New("no function specified and no common entry point found; use --func")
				}
			}

			params, _, err := mod.GetFunctionTypes(funcName)
			if err != nil {
				return err
			}
			values, err := convertArgs(callArgs, params)
			if err != nil {
				return errors.Wrapf(err, "call %s", funcName)
			}

			inst, err := mod.Instantiate(ctx)
			if err != nil {
				return err
			}
			defer inst.Close(ctx)

			result, err := inst.Call(ctx, funcName, values...)
			if err != nil {
				return errors.Wrapf(err, "call %s", funcName)
			}
			if result != nil {
				fmt.Fprintf(out, "%v\n", result)
			}
			return nil
		},
	}

	command.PersistentFlags().StringVarP(&funcName, "func", "f", "", "the function to call. Defaults to _start, run, main or the only export")
	command.PersistentFlags().StringArrayVarP(&callArgs, "arg", "a", nil, "an argument to pass; repeat for each parameter")
	command.PersistentFlags().StringVar(&witPath, "wit", "", "WIT text describing a binary module's exports")
	command.PersistentFlags().BoolVarP(&list, "list", "l", false, "list exported functions and exit")
	command.PersistentFlags().BoolVarP(&interactive, "interactive", "i", false, "choose functions and arguments in a TUI")
	command.PersistentFlags().BoolVar(&interpret, "interp", false, "evaluate a program with the reference interpreter instead of compiling it")

	return command
}

func openModule(ctx context.Context, rt *runtime.Runtime, in *load.Input, witPath string) (*runtime.Module, error) {
	if in.Program != nil {
		if witPath != "" {
			return nil, errors.New("--wit only applies to binary modules")
		}
		return rt.Compile(ctx, in.Program)
	}

	var witText string
	if witPath != "" {
		data, err := os.ReadFile(witPath)
		if err != nil {
			return nil, errors.Wrap(err, "read WIT")
		}
		witText = string(data)
	}
	return rt.LoadWASM(ctx, in.Binary, witText)
}

func defaultFunction(exports []runtime.Export) string {
	for _, name := range []string{"_start", "run", "main"} {
		for _, exp := range exports {
			if exp.Name == name {
				return name
			}
		}
	}
	if len(exports) == 1 {
		return exports[0].Name
	}
	return ""
}

func formatExport(exp runtime.Export) string {
	params := make([]string, len(exp.Params))
	for i, p := range exp.Params {
		params[i] = paramName(exp, i) + ": " + engine.TypeName(p)
	}
	s := exp.Name + "(" + strings.Join(params, ", ") + ")"
	switch len(exp.Results) {
	case 0:
	case 1:
		s += " -> " + engine.TypeName(exp.Results[0])
	default:
		results := make([]string, len(exp.Results))
		for i, r := range exp.Results {
			results[i] = engine.TypeName(r)
		}
		s += " -> (" + strings.Join(results, ", ") + ")"
	}
	return s
}

func paramName(exp runtime.Export, i int) string {
	if i < len(exp.ParamNames) && exp.ParamNames[i] != "" {
		return exp.ParamNames[i]
	}
	return fmt.Sprintf("arg%d", i)
}

// runInterpreted evaluates the program, then calls funcName with integer
// arguments if one is given.
func runInterpreted(out io.Writer, in *load.Input, funcName string, callArgs []string) error {
	if in.Program == nil {
		return errors.New("--interp requires a program")
	}

	interp := eval.New()
	result, err := interp.Run(in.Program)
	if err != nil {
		return err
	}

	if funcName != "" {
		args := make([]eval.Value, len(callArgs))
		for i, a := range callArgs {
			n, err := strconv.ParseInt(a, 10, 32)
			if err != nil {
				return errors.Wrapf(err, "argument %d", i)
			}
			args[i] = eval.Int(n)
		}
		if result, err = interp.Call(funcName, args...); err != nil {
			return errors.Wrapf(err, "call %s", funcName)
		}
	}

	if _, ok := result.(eval.Unit); !ok {
		fmt.Fprintln(out, result)
	}
	return nil
}

// Command coinscript drives the CoinScript pipeline end to end: compile
// `.coins` source to ChiaLisp, tree-hash a puzzle, classically curry a
// compiled puzzle against positional arguments, and run a puzzle/solution
// pair against the reference CLVM engine. It follows the teacher CLI's
// one-subcommand-per-capability shape (cmd/cli/contracts.go).
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"coinscript/core"
	"coinscript/core/clvmengine"
	"coinscript/core/coinscript"
	"coinscript/core/coinscript/codegen"
	"coinscript/pkg/config"
	"coinscript/pkg/logging"
)

var (
	cfgPath string
	log     = logging.Default
)

func main() {
	root := &cobra.Command{
		Use:   "coinscript",
		Short: "CoinScript compiler and puzzle toolchain",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to coinscript.yaml (optional)")
	root.PersistentPreRunE = func(*cobra.Command, []string) error {
		_ = godotenv.Load()
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		log = logging.New(cfg)
		return nil
	}

	root.AddCommand(compileCmd(), hashCmd(), curryCmd(), runCmd())

	if err := root.Execute(); err != nil {
		log.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

func compileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile <file.coins>",
		Short: "compile a CoinScript source file to ChiaLisp and print its mod hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			file, err := coinscript.Parse(string(src))
			if err != nil {
				return err
			}
			result, err := codegen.Compile(file)
			if err != nil {
				return err
			}
			chialisp, err := core.Serialize(result.MainPuzzle)
			if err != nil {
				return err
			}
			fmt.Println(chialisp)
			fmt.Printf("; mod hash: %s\n", core.TreeHashHex(result.MainPuzzle))
			for name, puz := range result.AdditionalPuzzles {
				extra, err := core.Serialize(puz)
				if err != nil {
					return err
				}
				fmt.Printf("; puzzle %q:\n%s\n; mod hash: %s\n", name, extra, core.TreeHashHex(puz))
			}
			log.WithField("actions", result.Metadata.ActionNames).Debug("compiled coin")
			return nil
		},
	}
}

func hashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <file.clsp>",
		Short: "print the tree hash of a ChiaLisp puzzle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			node, err := core.Parse(string(src))
			if err != nil {
				return err
			}
			fmt.Println(core.TreeHashHex(node))
			return nil
		},
	}
}

func curryCmd() *cobra.Command {
	var argsFlag []string
	cmd := &cobra.Command{
		Use:   "curry <file.clsp>",
		Short: "classically curry a puzzle against positional arguments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			puzzle, err := core.Parse(string(src))
			if err != nil {
				return err
			}
			curryArgs := make([]*core.TreeNode, len(argsFlag))
			for i, a := range argsFlag {
				node, err := core.Parse(a)
				if err != nil {
					return fmt.Errorf("parsing curry arg %q: %w", a, err)
				}
				curryArgs[i] = node
			}
			curried := core.CurryByPosition(puzzle, curryArgs...)
			out, err := core.Serialize(curried)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&argsFlag, "args", nil, "curry argument, ChiaLisp literal (repeatable)")
	return cmd
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <file.clsp> <solution.clsp>",
		Short: "run a puzzle against a solution using the reference CLVM engine",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			puzzleSrc, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			solutionSrc, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			solution, err := core.Parse(string(solutionSrc))
			if err != nil {
				return err
			}
			engine := selectEngine()
			program, err := engine.Compile(string(puzzleSrc))
			if err != nil {
				return err
			}
			result, err := engine.Run(program, solution)
			if err != nil {
				return err
			}
			out, err := core.Serialize(result.Result)
			if err != nil {
				return err
			}
			fmt.Printf("%s\n; cost: %d\n", out, result.Cost)
			return nil
		},
	}
}

func selectEngine() core.Engine {
	if config.AppConfig.CLVM.Engine == "wasm" && config.AppConfig.CLVM.WasmModulePath != "" {
		wasmBytes, err := os.ReadFile(config.AppConfig.CLVM.WasmModulePath)
		if err == nil {
			if host, err := clvmengine.NewWasmHost(wasmBytes); err == nil {
				return host
			}
		}
		log.Warn("wasm engine unavailable, falling back to reference engine")
	}
	return clvmengine.New()
}

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/caffeineduck/hirun/loader"
	"github.com/caffeineduck/hirun/wasmgen"
)

var genCmd = &cobra.Command{
	Use:   "gen X [tokens...]",
	Short: "Generate identity.wasm from an expression and run it",
	Long: `Build a module whose hi export evaluates the given tokens, write it to
identity.wasm and print hi(X).

Tokens are emitted in order as stack instructions:
  x          the argument
  + - * /    i64 add, sub, mul, signed div
  <integer>  an i64 constant

Without tokens the module is the identity function. Flags go before X;
use -- when X itself is negative.

Examples:
  hirun gen 12            # prints 12
  hirun gen 5 x 2 *       # prints 10
  hirun gen 7 x x * 1 +   # prints 50`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGen,
}

func init() {
	genCmd.Flags().SetInterspersed(false)
	genCmd.Flags().StringP("out", "o", loader.DefaultResource, "Output file")
	addRuntimeFlags(genCmd)
	rootCmd.AddCommand(genCmd)
}

func runGen(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")

	x, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid argument %q: %w", args[0], err)
	}

	tokens := args[1:]
	if len(tokens) == 0 {
		tokens = []string{"x"}
	}
	instrs, err := wasmgen.ParseTokens(tokens)
	if err != nil {
		return err
	}

	bin := wasmgen.Program(instrs).Encode()
	if err := os.WriteFile(out, bin, 0o644); err != nil {
		return fmt.Errorf("write module: %w", err)
	}
	log.Debug("wrote module", zap.String("path", out), zap.Int("bytes", len(bin)), zap.Int("instructions", len(instrs)))

	ctx := cmd.Context()
	l, err := newLoader(cmd)
	if err != nil {
		return err
	}
	defer l.Close(ctx)

	return l.RunFunc(ctx, cmd.OutOrStdout(), out, wasmgen.ExportName, x)
}

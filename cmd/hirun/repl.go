package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/caffeineduck/hirun/loader"
)

var replCmd = &cobra.Command{
	Use:   "repl [file]",
	Short: "Call an export interactively",
	Long: `Load a module once and call its export with each integer you enter.

Features:
  - Command history (up/down arrows)
  - Line editing (left/right, backspace, delete)
  - History search (Ctrl+R)

Type 'exit' or 'quit' to end the session, or press Ctrl+D.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRepl,
}

func init() {
	replCmd.Flags().StringP("export", "e", loader.DefaultExport, "Export to call")
	replCmd.Flags().String("history", "", "History file path (default: ~/.hirun_history)")
	addRuntimeFlags(replCmd)
	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, args []string) error {
	export, _ := cmd.Flags().GetString("export")
	historyFile, _ := cmd.Flags().GetString("history")

	if historyFile == "" {
		home, _ := os.UserHomeDir()
		historyFile = filepath.Join(home, ".hirun_history")
	}

	resource := loader.DefaultResource
	if len(args) > 0 {
		resource = args[0]
	}

	ctx := cmd.Context()
	l, err := newLoader(cmd)
	if err != nil {
		return err
	}
	defer l.Close(ctx)

	inst, _, err := l.Load(ctx, resource)
	if err != nil {
		return err
	}
	defer inst.Close(ctx)

	if _, ok := inst.Exports().Func(export); !ok {
		return &loader.Error{Phase: loader.PhaseCall, Resource: resource, Export: export, Err: loader.ErrExportNotFound}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            export + "> ",
		HistoryFile:       historyFile,
		HistoryLimit:      1000,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdin:             io.NopCloser(cmd.InOrStdin()),
		Stdout:            cmd.OutOrStdout(),
		Stderr:            cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("initialize readline: %w", err)
	}
	defer rl.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(cmd.ErrOrStderr(), "%s loaded, enter integers to call %s (type 'exit' to quit, Ctrl+D to exit)\n", resource, export)

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		n, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %q is not an integer\n", line)
			continue
		}

		v, err := inst.Call(ctx, export, n)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, v)
	}
}

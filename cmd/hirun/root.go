package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/caffeineduck/hirun/loader"
)

var log = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   "hirun",
	Short: "Load identity.wasm and call its hi export",
	Long: `hirun - fetch identity.wasm from the working directory, instantiate it
against an empty "wbg" import namespace, call hi(12) and print the result,
then print "finished".

Any failure stops the run: "finished" is only printed after the result.`,
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogger,
	RunE:              runRoot,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Error("run failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log each step to stderr")
}

// setupLogger installs a development logger on stderr when --verbose is set.
func setupLogger(cmd *cobra.Command, _ []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if !verbose {
		log = zap.NewNop()
		loader.SetLogger(log)
		return nil
	}

	l, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	log = l
	loader.SetLogger(l)
	return nil
}

func runRoot(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	l, err := newLoader(cmd)
	if err != nil {
		return err
	}
	defer l.Close(ctx)

	out := cmd.OutOrStdout()
	if err := l.Run(ctx, out); err != nil {
		return err
	}
	log.Debug("run complete")

	fmt.Fprintln(out, "finished")
	return nil
}

// addRuntimeFlags registers the compilation cache and memory limit flags
// on a subcommand. The bare command always runs with loader defaults.
func addRuntimeFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-cache", false, "Disable compilation cache")
	cmd.Flags().String("memory", "256mb", "Memory limit: 1mb, 16mb, 64mb, 256mb, 1gb")
}

// newLoader creates a loader configured from cmd's runtime flags, if any.
func newLoader(cmd *cobra.Command) (*loader.Loader, error) {
	opts := []loader.Option{loader.WithLogger(log)}

	if cmd.Flags().Lookup("memory") != nil {
		noCache, _ := cmd.Flags().GetBool("no-cache")
		memoryLimit, _ := cmd.Flags().GetString("memory")

		pages, err := parseMemoryLimit(memoryLimit)
		if err != nil {
			return nil, err
		}
		opts = append(opts, loader.WithMemoryLimit(pages))
		if !noCache {
			opts = append(opts, loader.WithDiskCache())
		}
		log.Debug("runtime flags", zap.Uint32("memory_pages", pages), zap.Bool("disk_cache", !noCache))
	}

	return loader.New(cmd.Context(), opts...)
}

func parseMemoryLimit(s string) (uint32, error) {
	switch strings.ToLower(s) {
	case "1mb":
		return loader.MemoryLimit1MB, nil
	case "16mb":
		return loader.MemoryLimit16MB, nil
	case "64mb":
		return loader.MemoryLimit64MB, nil
	case "256mb":
		return loader.MemoryLimit256MB, nil
	case "1gb":
		return loader.MemoryLimit1GB, nil
	default:
		return 0, fmt.Errorf("invalid memory limit %q: want 1mb, 16mb, 64mb, 256mb or 1gb", s)
	}
}

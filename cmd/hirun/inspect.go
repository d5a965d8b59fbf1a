package main

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/caffeineduck/hirun/loader"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "List a module's imports and exports",
	Long: `Compile a module without running it and list its function imports and
exports. The last line reports whether the default import table satisfies
the module's imports.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func init() {
	addRuntimeFlags(inspectCmd)
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
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

	bin, err := l.Fetch(ctx, resource)
	if err != nil {
		return err
	}
	mod, err := l.Compile(ctx, bin)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	table := tablewriter.NewWriter(out)
	table.Header("Kind", "Namespace", "Name", "Signature")
	for _, f := range mod.Imports() {
		if err := table.Append([]string{"import", f.Module, f.Name, f.Signature()}); err != nil {
			return err
		}
	}
	for _, f := range mod.Exports() {
		if err := table.Append([]string{"export", "", f.Name, f.Signature()}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render table: %w", err)
	}

	if err := l.Validate(mod); err != nil {
		fmt.Fprintf(out, "imports: %v\n", err)
		return nil
	}
	fmt.Fprintln(out, "imports: ok")
	return nil
}

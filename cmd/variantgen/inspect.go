package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"variantgen/internal/config"
	"variantgen/internal/generator"
	"variantgen/internal/pipeline"
)

func (a *app) inspectCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "inspect <workbook>",
		Short: "Describe how a workbook expands without generating it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job := config.Job{
				Source: sourceFor(args[0], config.Source{}),
				Parser: config.Parser{Kind: kind, Options: config.Options{}},
			}
			wb, name, err := pipeline.LoadWorkbook(cmd.Context(), job)
			if err != nil {
				return err
			}
			sum, err := generator.Describe(wb)
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), name, sum)
		},
	}
	cmd.Flags().StringVar(&kind, "parser", "", "loader kind (default: by file extension)")
	return cmd
}

func printSummary(w io.Writer, name string, s generator.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "workbook:\t%s\n", name)
	fmt.Fprintf(tw, "sheets:\t%s\n", strings.Join(s.Tables, ", "))

	fmt.Fprintln(tw, "axes:")
	for _, ax := range s.Axes {
		detail := ax.Detail
		if detail == "" {
			detail = "-"
		}
		fmt.Fprintf(tw, "  %s\t%d values\tdetail: %s\n", ax.Name, len(ax.Values), detail)
	}

	defaults := make([]string, 0, s.Defaults.Len())
	for _, k := range s.Defaults.Keys() {
		defaults = append(defaults, k+"="+s.Defaults.Value(k))
	}
	if len(defaults) > 0 {
		fmt.Fprintf(tw, "defaults:\t%s\n", strings.Join(defaults, ", "))
	}
	if len(s.Shadowed) > 0 {
		fmt.Fprintf(tw, "shadowed:\t%s\n", strings.Join(s.Shadowed, ", "))
	}
	if len(s.Orphans) > 0 {
		fmt.Fprintf(tw, "unused:\t%s\n", strings.Join(s.Orphans, ", "))
	}
	if s.Overflow {
		fmt.Fprintf(tw, "variants:\tmore than 2^64\n")
	} else {
		fmt.Fprintf(tw, "variants:\t%d\n", s.Variants)
	}
	return tw.Flush()
}

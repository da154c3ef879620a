package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"variantgen/internal/config"
)

var errInvalidConfig = errors.New("configuration is invalid")

func (a *app) validateCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a job file and exit non-zero on errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := config.Load(path)
			if err != nil {
				return err
			}
			if err := reportIssues(cmd, config.ValidateJob(j)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration is valid: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", "", "job file (JSON or YAML)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

// reportIssues prints every issue to stderr and fails when any is an error.
func reportIssues(cmd *cobra.Command, issues []config.Issue) error {
	for _, iss := range issues {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return errInvalidConfig
	}
	return nil
}

package main

import (
	"strings"

	"github.com/spf13/cobra"

	"variantgen/internal/config"
	"variantgen/internal/webui"
)

func (a *app) serveCmd() *cobra.Command {
	var (
		addr       string
		configPath string
		maxUpload  int64
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload form and catalog browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var job config.Job
			if configPath != "" {
				j, err := config.Load(configPath)
				if err != nil {
					return err
				}
				if err := reportIssues(cmd, servedIssues(config.ValidateJob(j))); err != nil {
					return err
				}
				job = j
			}
			srv := webui.NewServer(webui.Config{
				Addr:           addr,
				Job:            job,
				MaxUploadBytes: maxUpload,
				Metrics:        a.metricsHandler,
				Logger:         a.logger,
			})
			return srv.ListenAndServe(cmd.Context())
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr, "addr", ":8080", "listen address")
	f.StringVarP(&configPath, "config", "c", "", "job file supplying generator and view settings")
	f.Int64Var(&maxUpload, "max-upload", 32<<20, "largest accepted upload in bytes")
	return cmd
}

// servedIssues drops findings about blocks the server ignores.
func servedIssues(issues []config.Issue) []config.Issue {
	out := issues[:0]
	for _, iss := range issues {
		switch {
		case iss.Path == "job",
			strings.HasPrefix(iss.Path, "source."),
			strings.HasPrefix(iss.Path, "export.csv_path"),
			strings.HasPrefix(iss.Path, "storage."):
			continue
		}
		out = append(out, iss)
	}
	return out
}

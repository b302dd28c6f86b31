package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Xinye0723/HrBackend/api"
	"github.com/Xinye0723/HrBackend/pkg/logger"
	"github.com/Xinye0723/HrBackend/pkg/metrics"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "hrbackend %s\n", Version)
			fmt.Fprintf(out, "Build Time: %s\n", BuildTime)
			fmt.Fprintf(out, "Git Commit: %s\n", GitCommit)
		},
	}
}

func newOpenAPICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "openapi",
		Short: "Print the OpenAPI description of the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			server := api.NewServer(cfg, nil, nil, logger.NewTestLogger(), metrics.NewNoOpMetrics())
			server.SetVersion(Version)

			doc, err := server.OpenAPIJSON()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(doc))
			return err
		},
	}
}

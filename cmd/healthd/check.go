package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/healthops/health"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var (
		output string
		tags   []string
		filter string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the health checks once and print the report",
		Long:  "check runs the configured checks once. It exits 0 when healthy, 1 when degraded and 2 when unhealthy.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "json" && output != "yaml" {
				return fmt.Errorf("unsupported output %q (json|yaml)", output)
			}
			pred, err := checkPredicate(tags, filter)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			rt, err := opts.build(ctx)
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			report, err := rt.agg.CheckHealth(ctx, pred)
			if err != nil {
				return err
			}
			if err := writeReport(cmd.OutOrStdout(), output, report); err != nil {
				return err
			}
			return statusExit(report.Status)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json|yaml")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "only run checks carrying one of these tags")
	cmd.Flags().StringVar(&filter, "filter", "", `expression selecting checks, e.g. 'name startsWith "db"'`)
	return cmd
}

func checkPredicate(tags []string, filter string) (health.Predicate, error) {
	var pred health.Predicate
	if len(tags) > 0 {
		pred = health.ByTag(tags...)
	}
	if filter != "" {
		fp, err := health.ExprPredicate(filter)
		if err != nil {
			return nil, err
		}
		pred = health.And(pred, fp)
	}
	return pred, nil
}

func writeReport(w io.Writer, format string, report *health.Report) error {
	resp := health.NewReportResponse(report)
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(resp); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func statusExit(s health.Status) error {
	switch s {
	case health.StatusHealthy:
		return nil
	case health.StatusDegraded:
		return &exitError{code: 1}
	default:
		return &exitError{code: 2}
	}
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func storeCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "store",
		Short: "Inspect a trace record store",
	}
	root.AddCommand(storeListCmd())
	root.AddCommand(storeStatsCmd())
	return root
}

func storeListCmd() *cobra.Command {
	var dsn string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent trace records",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newStoreBackend(cmd.Context(), dsn)
			if err != nil {
				return err
			}
			defer s.Close()

			recs, err := s.FetchRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Trace ID", "Scenario", "Root Service", "Root Op", "Spans", "Status", "Duration", "Timestamp"})
			for _, r := range recs {
				status := "OK"
				if !r.StatusOK {
					status = "ERROR: " + r.ErrorType
				}
				t.AppendRow(table.Row{r.TraceID, r.ScenarioName, r.RootService, r.RootOperation, r.SpanCount, status, r.Duration, r.Timestamp.Format("15:04:05")})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "store", "", "trace record store DSN (empty for in-memory, which is always empty between runs)")
	cmd.Flags().IntVar(&limit, "limit", 30, "maximum records to display")
	return cmd
}

func storeStatsCmd() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise trace record counts by service and error rate",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newStoreBackend(cmd.Context(), dsn)
			if err != nil {
				return err
			}
			defer s.Close()

			return printStats(cmd, s)
		},
	}
	cmd.Flags().StringVar(&dsn, "store", "", "trace record store DSN")
	return cmd
}

func printStats(cmd *cobra.Command, s interface{ HealthCheck(ctx context.Context) bool }) error {
	type inspectable interface {
		GetServiceNames(ctx context.Context) ([]string, error)
		CountErrorTraces(ctx context.Context) (int, error)
	}

	insp, ok := s.(inspectable)
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "this store backend does not support inspection")
		return nil
	}

	names, err := insp.GetServiceNames(cmd.Context())
	if err != nil {
		return err
	}
	errCount, err := insp.CountErrorTraces(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "services: %v\nerror traces: %d\nhealthy: %v\n", names, errCount, s.HealthCheck(cmd.Context()))
	return nil
}

package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewClusterCmd создаёт группу команд для реестра кластеров.
func NewClusterCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Inspect registered Airflow clusters",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List clusters",
		RunE: func(cmd *cobra.Command, args []string) error {
			clusters, err := clientFn().ListClusters()
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "URL", "ENABLED", "LAST SYNCED"}
			rows := make([][]string, len(clusters))
			for i, c := range clusters {
				rows[i] = []string{
					strconv.FormatInt(c.ID, 10),
					c.Name,
					c.BaseURL,
					strconv.FormatBool(c.Enabled),
					orDash(c.LastSyncedAt),
				}
			}

			outputFn().Print(headers, rows, clusters)
			return nil
		},
	})

	return cmd
}

// NewRunCmd создаёт группу команд для зеркалированных runs.
func NewRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Inspect mirrored DAG runs",
	}

	var opts ListRunsOpts

	list := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := clientFn().ListRuns(opts)
			if err != nil {
				return err
			}

			headers := []string{"ID", "CLUSTER", "DAG", "RUN", "STATE", "STARTED", "DURATION"}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				duration := "-"
				if r.DurationSec != nil {
					duration = fmt.Sprintf("%.0fs", *r.DurationSec)
				}
				rows[i] = []string{
					strconv.FormatInt(r.ID, 10),
					strconv.FormatInt(r.ClusterID, 10),
					r.DagID,
					r.DagRunID,
					r.State,
					orDash(r.StartDate),
					duration,
				}
			}

			outputFn().Print(headers, rows, runs)
			return nil
		},
	}

	list.Flags().Int64Var(&opts.ClusterID, "cluster", 0, "Filter by cluster ID")
	list.Flags().StringVar(&opts.State, "state", "", "Filter by state (queued, running, success, failed)")
	list.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of runs (server default: 50)")
	list.Flags().IntVar(&opts.Offset, "offset", 0, "Number of runs to skip")

	cmd.AddCommand(list)
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

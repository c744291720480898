package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewSyncCmd создаёт группу команд ручной синхронизации.
func NewSyncCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Trigger synchronization with Airflow",
	}

	cmd.AddCommand(
		newSyncSpecsCmd(clientFn, outputFn),
		newSyncRunsCmd(clientFn, outputFn),
		newSyncClusterCmd(clientFn, outputFn),
		newSyncStaleCmd(clientFn, outputFn),
	)

	return cmd
}

func newSyncSpecsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var async bool

	cmd := &cobra.Command{
		Use:   "specs",
		Short: "Sync workflow specs from storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if async {
				return enqueue(client, out, "specs", 0, SyncOpts{})
			}

			result, err := client.SyncSpecs()
			if err != nil {
				return err
			}

			out.Print(
				[]string{"PROCESSED", "CREATED", "UPDATED", "FAILED", "SYNCED"},
				[][]string{{
					strconv.Itoa(result.TotalProcessed),
					strconv.Itoa(result.Created),
					strconv.Itoa(result.Updated),
					strconv.Itoa(result.Failed),
					result.SyncedAt,
				}},
				result,
			)
			if !out.jsonMode {
				for _, e := range result.Errors {
					out.Warn(e)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&async, "async", false, "Enqueue the sync for the worker instead of waiting")

	return cmd
}

func newSyncRunsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts SyncOpts
	var async bool

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Sync runs of all enabled clusters",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if async {
				return enqueue(client, out, "runs", 0, opts)
			}

			result, err := client.SyncRuns(opts)
			if err != nil {
				return err
			}

			printRunSync(out, result)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.LookbackHours, "lookback-hours", 0, "How far back to fetch runs (server default: 24)")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", 0, "Runs per page (server default: 100)")
	cmd.Flags().BoolVar(&async, "async", false, "Enqueue the sync for the worker instead of waiting")

	return cmd
}

func newSyncClusterCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts SyncOpts
	var async bool

	cmd := &cobra.Command{
		Use:   "cluster ID",
		Short: "Sync runs of one cluster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clusterID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || clusterID <= 0 {
				return fmt.Errorf("invalid cluster id: %s", args[0])
			}

			client := clientFn()
			out := outputFn()

			if async {
				return enqueue(client, out, "cluster", clusterID, opts)
			}

			result, err := client.SyncCluster(clusterID, opts)
			if err != nil {
				return err
			}

			out.Print(clusterSyncHeaders, [][]string{clusterSyncRow(*result)}, result)
			if !result.Success {
				return fmt.Errorf("cluster sync failed: %s", result.Error)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.LookbackHours, "lookback-hours", 0, "How far back to fetch runs (server default: 24)")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", 0, "Runs per page (server default: 100)")
	cmd.Flags().BoolVar(&async, "async", false, "Enqueue the sync for the worker instead of waiting")

	return cmd
}

func newSyncStaleCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts SyncOpts
	var async bool

	cmd := &cobra.Command{
		Use:   "stale",
		Short: "Re-sync clusters not synced within the threshold",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if async {
				return enqueue(client, out, "stale", 0, opts)
			}

			result, err := client.SyncStale(opts)
			if err != nil {
				return err
			}

			printRunSync(out, result)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.StaleThresholdHours, "threshold-hours", 0, "Staleness threshold (server default: 1)")
	cmd.Flags().BoolVar(&async, "async", false, "Enqueue the sync for the worker instead of waiting")

	return cmd
}

func enqueue(client *Client, out *Output, kind string, clusterID int64, opts SyncOpts) error {
	accepted, err := client.EnqueueSync(kind, clusterID, opts)
	if err != nil {
		return err
	}

	out.Success(fmt.Sprintf("Sync request enqueued: %s", accepted.RequestID))
	out.Print([]string{"REQUEST", "KIND"}, [][]string{{accepted.RequestID, accepted.Kind}}, accepted)
	return nil
}

var clusterSyncHeaders = []string{"CLUSTER", "NAME", "CREATED", "UPDATED", "TOTAL", "STATUS"}

func clusterSyncRow(r ClusterSyncResponse) []string {
	status := "ok"
	if !r.Success {
		status = r.Error
	}
	return []string{
		strconv.FormatInt(r.ClusterID, 10),
		r.ClusterName,
		strconv.Itoa(r.CreatedCount),
		strconv.Itoa(r.UpdatedCount),
		strconv.Itoa(r.TotalProcessed),
		status,
	}
}

func printRunSync(out *Output, result *RunSyncResponse) {
	rows := make([][]string, len(result.ClusterResults))
	for i, r := range result.ClusterResults {
		rows[i] = clusterSyncRow(r)
	}

	out.Print(clusterSyncHeaders, rows, result)
	if result.FailedClusters > 0 {
		out.Warn(fmt.Sprintf("%d cluster(s) failed to sync", result.FailedClusters))
	}
	out.Success(fmt.Sprintf("Clusters: %d, failed: %d, created: %d, updated: %d",
		result.TotalClusters, result.FailedClusters, result.TotalCreated, result.TotalUpdated))
}

package main

import (
	"context"

	"github.com/spf13/cobra"

	"evidence-hub/infrastructure"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "worker",
		Short: "Consume queued sync jobs and run them one at a time",
		Args:  cobra.NoArgs,
		RunE:  runWorker,
	})
}

func runWorker(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	rmq, err := infrastructure.NewRabbitMQ(a.cfg.RabbitMQ, a.log)
	if err != nil {
		return err
	}
	defer rmq.Close()

	a.log.Info("worker waiting for sync jobs")
	return rmq.ConsumeSyncJobs(cmd.Context(), func(ctx context.Context, job infrastructure.SyncJob) error {
		log := a.log.WithField("integration_id", job.IntegrationID).WithField("requested_by", job.RequestedBy)
		log.Info("sync job received")

		res, err := a.runner.Sync(ctx, job.IntegrationID)
		if err != nil {
			return err
		}
		log.WithField("success", res.Success).Info(res.Message)
		return nil
	})
}

package main

import (
	"time"

	"github.com/edirooss/witness-console/internal/domain/camera"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var labelsCmd = &cobra.Command{
	Use:   "labels <label> [label...]",
	Short: "Stop the named cameras",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := setup(ctx)
		if err != nil {
			return err
		}
		defer e.close()

		for idx, raw := range args {
			iterStart := time.Now()
			label := camera.Label(raw)

			if err := e.svc.DeleteCamera(ctx, label); err != nil {
				return e.fail("camera deletion failed", err, zap.String("label", label.String()))
			}

			e.log.Info("camera deleted",
				zap.String("label", label.String()),
				zap.Int("deleted", idx+1),
				zap.Int("total", len(args)),
				zap.Int("remaining", len(e.svc.Cameras())),
				zap.Duration("took", time.Since(iterStart)),
			)
		}
		return nil
	},
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Stop every camera",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := setup(ctx)
		if err != nil {
			return err
		}
		defer e.close()

		before := len(e.svc.Cameras())
		start := time.Now()
		if err := e.svc.DeleteAll(ctx); err != nil {
			return e.fail("stop all failed", err)
		}
		e.log.Info("all cameras stopped", zap.Int("removed", before), zap.Duration("took", time.Since(start)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(labelsCmd)
	rootCmd.AddCommand(allCmd)
}

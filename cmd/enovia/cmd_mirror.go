package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/totegamma/enovia-go/internal/infra/providers"
	"github.com/totegamma/enovia-go/internal/service"
)

var mirrorCmd = &cobra.Command{
	Use:   "mirror <kind> [text...]",
	Short: "Copy every matching object into the mirror database",
	Long: `Searches kind for text, bulk fetches the hits with the detailed mask and
stores the payloads that changed since the last run. Changed objects are
announced on the signal channel when redis is configured.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if conf.Server.PostgresDsn == "" {
			return errors.New("server.postgresDsn is required for mirror")
		}

		db, err := providers.NewDatabase(conf.Server, logger)
		if err != nil {
			return err
		}
		rdb, err := providers.NewRedis(ctx, conf.Server)
		if err != nil {
			return err
		}
		if rdb != nil {
			defer rdb.Close()
		}
		uc, err := providers.NewMirrorUsecase(db, rdb, conf, logger)
		if err != nil {
			return err
		}
		g, err := newGateway()
		if err != nil {
			return err
		}
		src, err := g.Source(args[0])
		if err != nil {
			return err
		}

		report, err := uc.Sync(ctx, src, strings.Join(args[1:], " "))
		if perr := printJSON(cmd.OutOrStdout(), report); perr != nil {
			logger.Warn("failed to print report", zap.Error(perr))
		}
		return err
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print change events published by mirror runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rdb, err := providers.NewRedis(ctx, conf.Server)
		if err != nil {
			return err
		}
		if rdb == nil {
			return errors.New("server.redisAddr is required for watch")
		}
		defer rdb.Close()

		events, err := service.NewSignalService(rdb).Subscribe(ctx, conf.Server.SignalChannel)
		if err != nil {
			return err
		}
		logger.Info("watching", zap.String("channel", conf.Server.SignalChannel))
		for event := range events {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s %s\n",
				event.SyncedAt.Format("2006-01-02T15:04:05Z07:00"), event.Resource, event.ID, event.Cestamp)
		}
		return nil
	},
}

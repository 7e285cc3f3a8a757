// Command enovia reads and mirrors 3DEXPERIENCE modeler resources.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/totegamma/enovia-go/internal/config"
	"github.com/totegamma/enovia-go/internal/infra/tracing"
)

var (
	configPath string
	verbose    bool

	logger        *zap.Logger
	conf          config.Config
	stopTracing   func(context.Context) error
	cancelCommand context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:           "enovia",
	Short:         "3DEXPERIENCE modeler client",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		zc.OutputPaths = []string{"stderr"}
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		cancelCommand = cancel
		cmd.SetContext(ctx)

		if cmd.Annotations["config"] == "none" {
			return nil
		}
		conf, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := conf.Validate(); err != nil {
			return err
		}
		if conf.Server.EnableTrace {
			stopTracing, err = tracing.Setup(ctx, "enovia", conf.Server.TraceEndpoint)
			if err != nil {
				return err
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if stopTracing != nil {
			if err := stopTracing(context.Background()); err != nil {
				logger.Warn("failed to flush traces", zap.Error(err))
			}
		}
		if cancelCommand != nil {
			cancelCommand()
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(kindsCmd, getCmd, searchCmd, csrfCmd, mirrorCmd, watchCmd)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// Command plmfake serves an in-memory 3DSpace for local development.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/totegamma/enovia-go/internal/plmfake"
	"github.com/totegamma/enovia-go/internal/present/rest"
)

var (
	addr     string
	tenant   string
	cookie   string
	session  string
	seedPath string
)

// seedFile maps a modeler type to the objects stored at start.
type seedFile map[string][]map[string]any

var rootCmd = &cobra.Command{
	Use:          "plmfake",
	Short:        "Serve a fake 3DSpace",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync()

		space := plmfake.NewSpace()
		if seedPath != "" {
			n, err := seed(space, seedPath)
			if err != nil {
				return err
			}
			logger.Info("seeded", zap.Int("objects", n), zap.String("file", seedPath))
		}

		e := rest.NewServer(space, rest.Config{
			Tenant:        tenant,
			SessionCookie: cookie,
			SessionValue:  session,
		}, logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = e.Shutdown(shutdownCtx)
		}()

		logger.Info("listening", zap.String("addr", addr), zap.String("tenant", tenant))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func seed(space *plmfake.Space, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	n := 0
	for typ, objects := range file {
		if _, ok := space.Kind(typ); !ok {
			return n, fmt.Errorf("%s: unknown type %s", path, typ)
		}
		for _, o := range objects {
			space.Seed(typ, normalize(o).(map[string]any))
			n++
		}
	}
	return n, nil
}

// normalize turns the map[interface{}]interface{} values yaml produces for
// nested mappings into JSON friendly maps.
func normalize(v any) any {
	switch v := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}

func init() {
	rootCmd.Flags().StringVar(&addr, "addr", ":8000", "listen address")
	rootCmd.Flags().StringVar(&tenant, "tenant", "R1132100001", "tenant the space answers for")
	rootCmd.Flags().StringVar(&cookie, "cookie", "JSESSIONID", "session cookie name")
	rootCmd.Flags().StringVar(&session, "session", "dev-session", "session cookie value")
	rootCmd.Flags().StringVar(&seedPath, "seed", "", "yaml file of objects to store at start")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-mapdraw/internal/backend"
	"github.com/joeblew999/plat-mapdraw/internal/logger"
	"github.com/joeblew999/plat-mapdraw/internal/server"
)

// Options defines all CLI flags and env vars for the map drawing server.
// Flags: --host, --port, --data-dir, --store, --backend-url, ...
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR, SERVICE_STORE, SERVICE_BACKEND_URL, ...
// A .env file in the working directory is loaded first.
type Options struct {
	Host            string `doc:"Host to bind to" default:"0.0.0.0"`
	Port            int    `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir         string `doc:"Directory for the data log and database" default:".data"`
	WebDir          string `doc:"Optional web/ directory overriding built-in templates" default:""`
	Store           string `doc:"Data log store: file, duckdb or memory" default:"file"`
	BackendURL      string `doc:"Backend base URL for Save & Complete" default:""`
	BackendKey      string `doc:"Backend project API key" default:""`
	AccessToken     string `doc:"User session token sent as bearer auth" default:""`
	SessionCookie   string `doc:"Session cookie header value" default:""`
	BackendTimeout  int    `doc:"Backend request timeout in seconds, 0 for none" default:"0"`
	SaveConcurrency int    `doc:"Entries submitted in parallel by Save & Complete" default:"4"`
	Env             string `doc:"Environment: development or production" default:"development"`
	Debug           bool   `doc:"Enable debug logging and per-request template reload" default:"false"`
}

func newLogger(opts *Options) *zap.Logger {
	l, err := logger.New(opts.Env, opts.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	return l
}

func newServer(opts *Options, log *zap.Logger) *server.Server {
	srv, err := server.New(server.Config{
		Host:            opts.Host,
		Port:            strconv.Itoa(opts.Port),
		DataDir:         opts.DataDir,
		WebDir:          opts.WebDir,
		Store:           opts.Store,
		ReloadTemplates: opts.Debug,
		Backend: backend.Config{
			BaseURL:       opts.BackendURL,
			APIKey:        opts.BackendKey,
			AccessToken:   opts.AccessToken,
			SessionCookie: opts.SessionCookie,
			Timeout:       time.Duration(opts.BackendTimeout) * time.Second,
		},
		SaveConcurrency: opts.SaveConcurrency,
		Logger:          log,
	})
	if err != nil {
		log.Fatal("failed to create server", zap.Error(err))
	}
	return srv
}

func main() {
	_ = godotenv.Load()

	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		var (
			log     *zap.Logger
			srv     *server.Server
			httpSrv *http.Server
		)

		hooks.OnStart(func() {
			log = newLogger(opts)
			srv = newServer(opts, log)

			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			log.Info("plat-mapdraw API server starting",
				zap.String("server", baseURL),
				zap.String("data", opts.DataDir),
				zap.String("store", opts.Store),
				zap.String("editor", baseURL+"/editor"),
				zap.String("docs", baseURL+"/docs"),
				zap.String("openapi", baseURL+"/openapi.json"),
			)

			// No write timeout: the editor event stream stays open.
			httpSrv = &http.Server{
				Addr:              addr,
				Handler:           srv,
				ReadHeaderTimeout: 15 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal("server failed", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			if httpSrv == nil {
				return
			}
			log.Info("shutting down server...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpSrv.Shutdown(ctx); err != nil {
				log.Error("server forced to shutdown", zap.Error(err))
			}
			if err := srv.Close(); err != nil {
				log.Error("failed to close server resources", zap.Error(err))
			}
			log.Info("server exited gracefully")
			_ = log.Sync()
		})
	})

	cli.Root().Use = "mapdraw"
	cli.Root().Short = "Map drawing and data log staging"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			opts.Store = server.StoreMemory
			srv := newServer(opts, zap.NewNop())
			defer srv.Close()
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			var err error
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	cli.Root().AddCommand(logCmd())

	cli.Run()
}

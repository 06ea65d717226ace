package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/joeblew999/plat-mapdraw/internal/api"
	"github.com/joeblew999/plat-mapdraw/internal/api/editor"
	"github.com/joeblew999/plat-mapdraw/internal/backend"
	"github.com/joeblew999/plat-mapdraw/internal/datalog"
	"github.com/joeblew999/plat-mapdraw/internal/db"
	"github.com/joeblew999/plat-mapdraw/internal/humastar"
	"github.com/joeblew999/plat-mapdraw/internal/save"
	"github.com/joeblew999/plat-mapdraw/internal/service"
	"github.com/joeblew999/plat-mapdraw/internal/templates"
)

// Data log stores.
const (
	StoreFile   = "file"
	StoreDuckDB = "duckdb"
	StoreMemory = "memory"
)

// Config holds the server configuration.
type Config struct {
	Host            string
	Port            string
	DataDir         string
	WebDir          string // optional web/ directory overriding the built-in fragments and serving static files
	ReloadTemplates bool   // re-read WebDir fragments on every /editor request
	Store           string // StoreFile, StoreDuckDB or StoreMemory
	Backend         backend.Config
	SaveConcurrency int
	Logger          *zap.Logger
}

// Server is the map drawing HTTP server.
type Server struct {
	config    Config
	mux       *http.ServeMux
	humaAPI   huma.API
	links     *humastar.Links
	db        *sql.DB
	bus       *service.EventBus
	workspace *service.Workspace
	backend   *backend.Client
	renderer  *templates.Renderer
	fragments string
	logger    *zap.Logger
}

// New creates a server with its data log opened on the configured store.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Store == "" {
		cfg.Store = StoreFile
	}

	s := &Server{
		config: cfg,
		mux:    http.NewServeMux(),
		links:  humastar.NewLinks(),
		bus:    service.NewEventBus(),
		logger: cfg.Logger,
	}

	kv, err := s.openStore()
	if err != nil {
		return nil, err
	}
	log := datalog.New(kv,
		datalog.WithLogger(cfg.Logger.Named("datalog")),
		datalog.OnChange(service.LogChanges(s.bus)),
	)

	var saver *save.Saver
	s.backend = backend.New(cfg.Backend, cfg.Logger.Named("backend"))
	if s.backend.Configured() {
		saver = save.New(log, s.backend, cfg.SaveConcurrency, cfg.Logger.Named("save"))
	} else {
		cfg.Logger.Warn("no backend configured, Save & Complete is disabled")
	}
	s.workspace = service.NewWorkspace(log, saver, service.BusSurface{Bus: s.bus}, cfg.Logger.Named("workspace"))

	s.fragments = s.fragmentsDir()
	s.renderer, err = templates.New(s.fragments)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("plat-mapdraw API", api.Version)
	humaConfig.Info.Description = "Map drawing and data log staging: draw pins and areas, review them, then Save & Complete to the backend."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, s.links.Transformer())
	s.humaAPI = humago.New(s.mux, humaConfig)

	s.routes()
	return s, nil
}

func (s *Server) openStore() (datalog.KV, error) {
	switch s.config.Store {
	case StoreMemory:
		return datalog.NewMemoryKV(), nil
	case StoreFile:
		return datalog.NewFileKV(filepath.Join(s.config.DataDir, "datalog")), nil
	case StoreDuckDB:
		conn, err := db.Get(db.Config{DataDir: s.config.DataDir, DBName: "mapdraw"})
		if err != nil {
			return nil, err
		}
		s.db = conn
		return datalog.NewDuckKV(context.Background(), conn)
	}
	return nil, fmt.Errorf("unknown store %q", s.config.Store)
}

func (s *Server) fragmentsDir() string {
	if s.config.WebDir == "" {
		return ""
	}
	dir := filepath.Join(s.config.WebDir, "templates", "fragments")
	if _, err := os.Stat(dir); err != nil {
		return ""
	}
	s.logger.Info("loading fragment templates from disk", zap.String("dir", dir))
	return dir
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Workspace returns the drawing workspace, for the CLI.
func (s *Server) Workspace() *service.Workspace {
	return s.workspace
}

// Close closes server resources.
func (s *Server) Close() error {
	if s.backend != nil {
		s.backend.Close()
	}
	var err error
	if s.db != nil {
		err = multierr.Append(err, db.Close())
	}
	return err
}

func (s *Server) routes() {
	// Huma REST API routes (OpenAPI-documented JSON endpoints)
	api.RegisterRoutes(s.humaAPI, &api.Services{Workspace: s.workspace})
	api.NewInfoHandler(s.config.DataDir, s.config.Store, s.workspace.CanSave()).RegisterRoutes(s.humaAPI)

	// Editor SSE routes using Huma + Datastar SDK
	editor.NewDataLogHandler(s.workspace, s.renderer).RegisterRoutes(s.humaAPI)
	editor.NewEventHandler(s.workspace, s.bus, s.renderer).RegisterRoutes(s.humaAPI)

	s.links.Build(s.humaAPI)

	if s.config.WebDir != "" {
		staticDir := filepath.Join(s.config.WebDir, "static")
		s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}

	s.mux.HandleFunc("/editor", s.handleEditor)
	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	for _, link := range s.links.For(humastar.EntryPoint) {
		w.Header().Add("Link", link)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service": "plat-mapdraw",
		"status":  "running",
	})
}

func (s *Server) handleEditor(w http.ResponseWriter, r *http.Request) {
	if s.config.ReloadTemplates && s.fragments != "" {
		if err := s.renderer.Reload(s.fragments); err != nil {
			s.logger.Error("failed to reload templates", zap.Error(err))
			http.Error(w, "failed to reload templates", http.StatusInternalServerError)
			return
		}
	}
	html, err := s.renderer.Render("editor-page", nil)
	if err != nil {
		s.logger.Error("failed to render editor page", zap.Error(err))
		http.Error(w, "failed to render editor", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

package main

import (
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rebeliceyang/lazyes/internal/app"
	"github.com/rebeliceyang/lazyes/internal/config"
	"github.com/rebeliceyang/lazyes/internal/connstore"
	"github.com/rebeliceyang/lazyes/internal/discovery"
	"github.com/rebeliceyang/lazyes/internal/es/connection"
	"github.com/rebeliceyang/lazyes/internal/favorites"
	"github.com/rebeliceyang/lazyes/internal/history"
	"github.com/rebeliceyang/lazyes/internal/logging"
	"github.com/rebeliceyang/lazyes/internal/session"
)

// runtime is everything the commands share for one process
type runtime struct {
	cfg       *config.Config
	logger    *logrus.Logger
	session   *session.Session
	conns     *connstore.List
	favorites *favorites.Manager
	history   *history.Store
	closers   []io.Closer
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		_ = r.closers[i].Close()
	}
}

type rootOptions struct {
	configPath string
	noScan     bool
	rt         *runtime
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "lazyes",
		Short:         "A terminal client for Elasticsearch",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup(opts, cmd.Flags())
			if err != nil {
				return err
			}
			opts.rt = rt
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.rt != nil {
				opts.rt.Close()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/lazyes/config.yaml)")
	flags.String("log-level", "", "override logging.level")
	flags.String("log-format", "", "override logging.format (text or json)")
	flags.String("metrics-listen", "", "serve Prometheus metrics on this address")
	cmd.Flags().BoolVar(&opts.noScan, "no-scan", false, "do not probe local ports for clusters")

	cmd.AddCommand(
		newConnectionsCmd(opts),
		newOverviewCmd(opts),
		newQueryCmd(opts),
		newHistoryCmd(opts),
		newFavoritesCmd(opts),
	)
	return cmd
}

func setup(opts *rootOptions, flags *pflag.FlagSet) (*runtime, error) {
	cfg, err := config.LoadWithFlags(opts.configPath, flags)
	if err != nil {
		return nil, err
	}

	dir, err := config.GetConfigPath()
	if err != nil {
		return nil, err
	}
	cfg.ResolveStorage(dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, logger: logger, closers: []io.Closer{logCloser}}

	var metrics *connection.Metrics
	if cfg.Metrics.Listen != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = connection.NewMetrics(reg)
		serveMetrics(cfg.Metrics.Listen, reg, logger)
	}

	var recorder session.Recorder
	if cfg.History.Enabled {
		store, err := history.NewStore(cfg.Storage.HistoryDB, cfg.History.MaxEntries)
		if err != nil {
			logger.WithError(err).Warn("history disabled")
		} else {
			rt.history = store
			rt.closers = append(rt.closers, store)
			recorder = store
		}
	}

	registry := connection.NewRegistry(connection.RegistryConfig{
		RequestTimeout: cfg.Backend.RequestTimeout,
		Metrics:        metrics,
		Logger:         logger,
	})
	rt.session = session.New(session.Options{
		Registry:          registry,
		Store:             session.NewStore(cfg.General.DefaultPageSize, cfg.General.DefaultFilter),
		Recorder:          recorder,
		Logger:            logger,
		DefaultPageSize:   cfg.General.DefaultPageSize,
		RefreshOnMutation: cfg.Backend.RefreshOnMutation,
	})

	rt.conns = connstore.NewList(connstore.NewStore(cfg.Storage.ConnectionsFile))
	if err := rt.conns.Load(); err != nil {
		rt.Close()
		return nil, err
	}

	rt.favorites, err = favorites.NewManager(cfg.Storage.FavoritesFile)
	if err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger logrus.FieldLogger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("metrics server stopped")
		}
	}()
	logger.WithField("addr", addr).Info("serving metrics")
}

func runTUI(opts *rootOptions) error {
	rt := opts.rt
	model := app.New(app.Options{
		Config:      rt.cfg,
		Session:     rt.session,
		Connections: rt.conns,
		Favorites:   rt.favorites,
		Discoverer:  discovery.NewDiscoverer(!opts.noScan),
		Logger:      rt.logger,
	})
	defer model.Close()

	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if rt.cfg.UI.MouseEnabled {
		programOpts = append(programOpts, tea.WithMouseCellMotion())
	}

	rt.logger.Info("starting")
	_, err := tea.NewProgram(model, programOpts...).Run()
	return err
}

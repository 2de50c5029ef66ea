package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"lintang/campusnav/pkg/campus"
	"lintang/campusnav/pkg/datastructure"
	"lintang/campusnav/pkg/engine/routingalgorithm"
	"lintang/campusnav/pkg/kv"
	"lintang/campusnav/pkg/occupancy"
	"lintang/campusnav/pkg/osmparser"
	"lintang/campusnav/pkg/recommendation"
	"lintang/campusnav/pkg/server/rest"
	"lintang/campusnav/pkg/server/rest/service"
	"lintang/campusnav/pkg/session"
	"lintang/campusnav/pkg/spatial"

	"github.com/cockroachdb/pebble"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	listenAddr       = flag.String("listenaddr", ":5000", "server listen address")
	dataFile         = flag.String("f", "", "location dataset (.json or .osm); empty uses the bundled campus dataset")
	dbPath           = flag.String("db", "campusnavDB", "pebble directory for the route history")
	occupancyURL     = flag.String("occupancy-url", "", "remote occupancy feed; empty runs the simulator")
	occupancyPoll    = flag.Duration("occupancy-poll", 30*time.Second, "remote occupancy feed poll interval")
	simulateInterval = flag.Duration("simulate-interval", 12*time.Second, "occupancy simulator tick interval")
	seed             = flag.Uint64("seed", 0, "occupancy simulator seed; 0 seeds from the clock")
	corsOrigin       = flag.String("cors-origin", "*", "comma separated allowed CORS origins")
	logLevel         = flag.String("log-level", "info", "debug, info, warn or error")
	sessionTTL       = flag.Duration("session-ttl", 2*time.Hour, "route sessions idle for longer are dropped")
)

//	@title			campusnav API
//	@version		1.0
//	@description	campus route planner: dijkstra over hand-authored campus locations, crowd levels and route sessions

// @host		localhost:5000
// @BasePath	/api
// @schemes	http
func main() {
	flag.Parse()

	logger := httplog.NewLogger("campusnav", httplog.Options{
		LogLevel:         parseLevel(*logLevel),
		JSON:             true,
		Concise:          true,
		MessageFieldName: "message",
		LevelFieldName:   "severity",
		TimeFieldFormat:  time.RFC3339,
		Tags: map[string]string{
			"version": "v1.0",
		},
		QuietDownRoutes: []string{
			"/metrics",
		},
		QuietDownPeriod: 10 * time.Second,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Error("campusnav stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *httplog.Logger) error {
	g, err := loadGraph(ctx, *dataFile)
	if err != nil {
		return fmt.Errorf("load locations: %w", err)
	}
	logger.Info("locations loaded", "count", g.Len(), "source", datasetName(*dataFile))
	logDataQuality(logger.Logger, g.Audit())

	db, err := pebble.Open(*dbPath, &pebble.Options{})
	if err != nil {
		return fmt.Errorf("open pebble: %w", err)
	}
	kvDB, err := kv.NewKVDB(db)
	if err != nil {
		db.Close()
		return fmt.Errorf("open route history: %w", err)
	}
	defer kvDB.Close()

	feed := startOccupancyFeed(ctx, logger.Logger, g)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		occupancy.NewCollector(feed),
	)
	m := rest.NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger, []string{}))
	r.Use(middleware.Recoverer)
	r.Use(rest.PromeHttpMiddleware(m)) // prometheus http middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(*corsOrigin, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	routing := routingalgorithm.NewRouteAlgorithm(g)
	policy := recommendation.NewPolicy(recommendation.DefaultConfig(), g, feed)
	sessions := session.NewStore(routing)
	if *sessionTTL > 0 {
		go sessions.RunJanitor(ctx, max(*sessionTTL/4, time.Second), *sessionTTL, func(removed int) {
			logger.Debug("idle route sessions dropped", "count", removed, "active", sessions.Len())
		})
	}
	navigatorSvc := service.NewNavigationService(g, routing, feed, kvDB, spatial.NewIndex(g.All()), policy, sessions)
	rest.NavigatorRouter(r, navigatorSvc, m)

	srv := &http.Server{
		Addr:              *listenAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", *listenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loadGraph(ctx context.Context, path string) (*campus.LocationGraph, error) {
	switch {
	case path == "":
		return campus.LoadEmbedded()
	case strings.HasSuffix(path, ".osm"):
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		locs, err := osmparser.LoadOSM(ctx, f)
		if err != nil {
			return nil, err
		}
		return campus.NewLocationGraph(locs)
	default:
		return campus.LoadJSONFile(path)
	}
}

func datasetName(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}

func startOccupancyFeed(ctx context.Context, logger *slog.Logger, g *campus.LocationGraph) occupancy.Feed {
	if *occupancyURL != "" {
		feed := occupancy.NewRemoteFeed(*occupancyURL, 2*time.Second, 2,
			occupancy.WithResolver(g.Canonicalize),
			occupancy.WithKnown(func(id string) bool {
				_, ok := g.GetByID(id)
				return ok
			}))
		go feed.Run(ctx, *occupancyPoll, func(err error) {
			logger.Warn("occupancy feed poll failed", "url", *occupancyURL, "error", err)
		})
		logger.Info("polling remote occupancy feed", "url", *occupancyURL, "interval", occupancyPoll.String())
		return feed
	}

	s := *seed
	if s == 0 {
		s = uint64(time.Now().UnixNano())
	}
	sim := occupancy.NewSimulator(occupancy.WeekdaySnapshot(g, time.Now()), s)
	go sim.Run(ctx, *simulateInterval)
	logger.Info("occupancy simulator started", "seed", s, "interval", simulateInterval.String())
	return sim
}

func logDataQuality(logger *slog.Logger, report datastructure.DataQualityReport) {
	if report.Clean() {
		return
	}
	for _, d := range report.Dangling {
		logger.Warn("connection to unknown location", "from", d.From, "to", d.To)
	}
	for _, a := range report.Asymmetric {
		logger.Debug("one-way connection", "from", a.From, "to", a.To)
	}
	for _, id := range report.SelfLoops {
		logger.Warn("location connects to itself", "id", id)
	}
	logger.Info("location data quality",
		"dangling", len(report.Dangling),
		"asymmetric", len(report.Asymmetric),
		"self_loops", len(report.SelfLoops))
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

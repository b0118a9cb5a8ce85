package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/platinummonkey/querykit/pkg/config"
	"github.com/platinummonkey/querykit/pkg/criteria"
	"github.com/platinummonkey/querykit/pkg/database"
	"github.com/platinummonkey/querykit/pkg/observability"
	"github.com/platinummonkey/querykit/pkg/presenter"
	"github.com/platinummonkey/querykit/pkg/repository"
	"github.com/platinummonkey/querykit/pkg/schema"
	"github.com/platinummonkey/querykit/pkg/search"
)

var version = "dev"

var (
	entityName  = flag.String("entity", "", "Catalog entity to query")
	rawQuery    = flag.String("q", "", "Request parameters as a query string, e.g. 'search=name:john&orderBy=id&sortedBy=desc'")
	execute     = flag.Bool("execute", false, "Run the query and print the presented page as JSON")
	page        = flag.Int("page", 1, "Page to fetch with -execute")
	perPage     = flag.Int("per-page", repository.DefaultPerPage, "Page size with -execute")
	dumpMetrics = flag.Bool("metrics", false, "Print Prometheus metrics after running")
	watch       = flag.Duration("watch", 0, "With health, re-check every interval until interrupted and prune replicas that stop answering")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: querykit [flags] [compile|health]\n\n")
	fmt.Fprintf(os.Stderr, "Configuration is read from QUERYKIT_* environment variables.\n\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	cmd := "compile"
	if flag.NArg() > 0 {
		cmd = flag.Arg(0)
	}

	if err := run(cmd); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd string) (err error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stderr).
		WithField("version", version).
		WithField("run_id", runID)
	defer observability.RecoverPanic(logger, "querykit")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = observability.WithRequestID(observability.WithLogger(ctx, logger), runID)

	shutdown := observability.NewShutdownManager(logger, cfg.Observability.ShutdownTimeout)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Observability.ShutdownTimeout)
		defer cancel()
		if serr := shutdown.Shutdown(shutdownCtx); serr != nil && err == nil {
			err = serr
		}
	}()

	cm, err := database.NewConnectionManager(cfg.Database.Connection(), logger)
	if err != nil {
		return err
	}
	shutdown.RegisterShutdownFunc(func(context.Context) error {
		return cm.Close()
	})

	switch cmd {
	case "health":
		if *watch > 0 {
			return watchHealth(ctx, cm, *watch, os.Stdout)
		}
		return health(ctx, cm, os.Stdout)
	case "compile":
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}

	registry := prometheus.NewRegistry()
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	catalog, err := config.LoadCatalog(cfg.Schema.CatalogPath)
	if err != nil {
		return err
	}

	inspector, err := schema.NewInspector(cfg.Database.Driver, cm.Replica(), cfg.Schema.Name)
	if err != nil {
		return err
	}
	if cfg.Schema.RedisURL != "" {
		rdb, err := schema.OpenRedis(ctx, cfg.Schema.RedisURL)
		if err != nil {
			return err
		}
		shutdown.RegisterShutdownFunc(func(context.Context) error {
			return rdb.Close()
		})
		inspector = schema.NewRedisInspector(inspector, rdb, cfg.Schema.CacheTTL)
	}
	cached := schema.NewCachedInspector(inspector, cfg.Schema.Cache())
	metrics.RegisterCacheStats("columns", cached.Stats)

	snapshot, err := schema.Load(ctx, cached, catalog.Tables()...)
	if err != nil {
		return err
	}

	values, err := url.ParseQuery(*rawQuery)
	if err != nil {
		return fmt.Errorf("invalid -q: %w", err)
	}
	params := search.ParamsFromValues(values)

	repo, err := newRepository(cm, catalog, snapshot, params, logger, metrics)
	if err != nil {
		return err
	}

	if err := printQuery(repo, os.Stdout); err != nil {
		return err
	}

	if *execute {
		start := time.Now()
		result, err := repo.Paginate(ctx, *perPage, *page)
		if err != nil {
			return err
		}
		logger.WithField("rows", len(result.Data)).
			WithField("elapsed", time.Since(start).String()).
			Info("query executed")

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(presenter.Presenter{}.Paginated(result)); err != nil {
			return err
		}
	}

	if *dumpMetrics && metrics != nil {
		return writeMetrics(registry, os.Stdout)
	}
	return nil
}

// newRepository builds the repository for -entity. The request criterion is
// registered so entities can declare it; entities that do not get it pushed
// explicitly.
func newRepository(cm *database.ConnectionManager, catalog *schema.Catalog, snapshot *schema.Snapshot,
	params search.Params, logger *observability.Logger, metrics *observability.Metrics) (*repository.Repository, error) {
	if *entityName == "" {
		return nil, fmt.Errorf("-entity is required")
	}
	entity, ok := catalog.Entity(*entityName)
	if !ok {
		return nil, fmt.Errorf("unknown entity %s", *entityName)
	}

	opts := search.Options{Logger: logger, Metrics: metrics}
	reg := criteria.NewRegistry()
	if err := search.Register(reg, func() search.Params { return params }, opts); err != nil {
		return nil, err
	}

	repoOpts := []repository.Option{
		repository.WithReader(cm.Replica),
		repository.WithRegistry(reg),
		repository.WithLogger(logger),
		repository.WithMetrics(metrics),
	}
	if !declares(entity, search.Kind) {
		repoOpts = append(repoOpts, repository.WithCriteria(search.NewRequestCriteria(params, opts)))
	}

	return repository.New(cm.Primary(), catalog, entity.Name, snapshot, repoOpts...)
}

func declares(e *schema.Entity, kind criteria.Kind) bool {
	for _, k := range e.Criteria {
		if criteria.Kind(k) == kind {
			return true
		}
	}
	return false
}

func printQuery(repo *repository.Repository, w io.Writer) error {
	q, err := repo.Query()
	if err != nil {
		return err
	}
	statement, args, err := q.ToSQL(repo.Dialect())
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "SQL:  %s\n", statement)
	fmt.Fprintf(w, "Args: %v\n", args)
	if eager := q.Eager(); len(eager) > 0 {
		fmt.Fprintf(w, "With: %v\n", eager)
	}
	if counts := q.EagerCount(); len(counts) > 0 {
		fmt.Fprintf(w, "WithCount: %v\n", counts)
	}
	return nil
}

func health(ctx context.Context, cm *database.ConnectionManager, w io.Writer) error {
	checker := observability.NewHealthChecker(version).Require("primary", cm.Primary().DB)
	for i, replica := range cm.AllReplicas() {
		checker.Optional(fmt.Sprintf("replica-%d", i), replica.DB)
	}
	status := checker.Check(ctx)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]interface{}{
		"status":      status,
		"connections": cm.Stats(),
	}); err != nil {
		return err
	}

	if err := cm.HealthCheck(ctx); err != nil {
		return err
	}
	if status.Status == observability.StatusUnhealthy {
		return fmt.Errorf("database is %s", status.Status)
	}
	return nil
}

// watchHealth reports health every interval until ctx is done. Failed
// checks are logged and do not stop the watch.
func watchHealth(ctx context.Context, cm *database.ConnectionManager, interval time.Duration, w io.Writer) error {
	cm.StartHealthCheckRoutine(ctx, interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := health(ctx, cm, w); err != nil && ctx.Err() == nil {
			observability.FromContext(ctx).WithError(err).Warn("health check failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func writeMetrics(gatherer prometheus.Gatherer, w io.Writer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// Package observability provides structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// # Overview
//
// This package centralizes the observability infrastructure shared by the compiler,
// the repository, and the CLI: JSON logging over logrus, query and compiler metrics,
// span helpers, database health checks, and resource shutdown.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stderr)
//	logger.WithField("entity", "users").Info("repository ready")
//
// Context-aware logging:
//
//	ctx = observability.WithLogger(ctx, logger)
//	observability.FromContext(ctx).WithError(err).Error("query failed")
//
// # Prometheus Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics(prometheus.NewRegistry())
//	metrics.PredicateBuilt("like")
//	metrics.ObserveQuery("paginate", start, len(rows), err)
//
// A nil *Metrics is valid and records nothing.
//
// # Tracing
//
//	ctx, span := observability.Tracer(nil).Start(ctx, "repository.All")
//	defer func() { observability.EndSpan(span, err) }()
//
// # Health Checks
//
//	status := observability.NewHealthChecker(version).
//		Require("primary", primary).
//		Optional("replica-0", replica).
//		Check(ctx)
//
// # Related Packages
//
//   - pkg/config: Log level and metrics configuration
//   - pkg/repository: Query execution instrumentation
package observability

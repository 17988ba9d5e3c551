// Package observability provides logging and metrics support for the
// related-work retrieval service.
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("query", query).Msg("retrieval started")
//
// # Metrics
//
// Metrics are registered with the default Prometheus registry via
// promauto; create them once at startup and expose them with promhttp:
//
//	metrics := observability.NewMetrics("relatedwork")
//	http.Handle("/metrics", promhttp.Handler())
//
// # Request correlation
//
// The HTTP middleware stores a request ID in the context; handlers and
// collaborators retrieve it with RequestIDFromContext to correlate log
// lines across a request.
package observability

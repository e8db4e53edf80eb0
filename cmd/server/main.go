// Package main provides unified server that runs all components together:
// - Ingestion (continuous): HTTP ingest endpoint, optional WebSocket feed
// - Snapshots (scheduled): daily and weekly rollup materialization
// - Reporting (scheduled): per-account A/B test reports (Markdown + CSV)
// - Analytics API: dashboard and A/B test evaluation endpoints
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"swipe-analytics-lab/internal/abtest"
	"swipe-analytics-lab/internal/cache"
	"swipe-analytics-lab/internal/dashboard"
	"swipe-analytics-lab/internal/domain"
	"swipe-analytics-lab/internal/ingestion"
	"swipe-analytics-lab/internal/observability"
	"swipe-analytics-lab/internal/reporting"
	"swipe-analytics-lab/internal/snapshot"
	"swipe-analytics-lab/internal/stats"
	"swipe-analytics-lab/internal/storage"
	chstore "swipe-analytics-lab/internal/storage/clickhouse"
	"swipe-analytics-lab/internal/storage/memory"
	"swipe-analytics-lab/internal/storage/migrations"
	pgstore "swipe-analytics-lab/internal/storage/postgres"
)

// maxIngestBody bounds a single POST /events payload.
const maxIngestBody = 8 << 20

// Server holds all components of the unified service.
type Server struct {
	// Configuration
	postgresDSN      string
	clickhouseDSN    string
	useMemory        bool
	wsFeedURL        string
	outputDir        string
	snapshotInterval time.Duration
	reportInterval   time.Duration
	catchupWindow    time.Duration
	cacheTTL         time.Duration

	// Stores
	stores *allStores

	// Components
	ingestor  *ingestion.Ingestor
	evaluator *abtest.Evaluator
	builder   *snapshot.Builder
	composer  *dashboard.Composer
	generator *reporting.Generator
	cache     cache.ResultCache
	logger    *log.Logger

	// State
	mu              sync.Mutex
	started         time.Time
	lastSnapshotRun time.Time
	lastReportRun   time.Time
	snapshotRunning bool
	reportRunning   bool

	// Stats
	snapshotRuns int
	reportRuns   int
}

// allStores holds all storage implementations.
type allStores struct {
	eventStore   storage.SwipeEventStore
	profileStore storage.ProfileStore
	abTestStore  storage.ABTestStore
	snapStore    storage.SnapshotStore
	archiveStore storage.SwipeArchiveStore // nil in memory mode
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	redisAddr := flag.String("redis-addr", os.Getenv("REDIS_ADDR"), "Redis address for the result cache (empty: in-process cache)")
	wsFeedURL := flag.String("ws-feed-url", os.Getenv("SWIPE_FEED_WS_URL"), "WebSocket URL of the live swipe feed (empty: HTTP ingest only)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	httpAddr := flag.String("http-addr", ":8080", "HTTP listen address (API, health, metrics)")
	outputDir := flag.String("output-dir", "output", "Output directory for reports")
	snapshotInterval := flag.Duration("snapshot-interval", 15*time.Minute, "Snapshot catch-up interval")
	reportInterval := flag.Duration("report-interval", 6*time.Hour, "Report generation interval")
	catchupWindow := flag.Duration("catchup-window", 30*24*time.Hour, "How far back snapshot catch-up looks on start")
	cacheTTL := flag.Duration("cache-ttl", 30*time.Second, "Dashboard cache TTL (0 disables caching)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Create stores
	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Create result cache
	resultCache, cacheCleanup := createCache(*redisAddr, logger)
	defer cacheCleanup()

	// Create components
	msgRates := stats.StaticMessageRates{}
	server := &Server{
		postgresDSN:      *postgresDSN,
		clickhouseDSN:    *clickhouseDSN,
		useMemory:        *useMemory,
		wsFeedURL:        *wsFeedURL,
		outputDir:        *outputDir,
		snapshotInterval: *snapshotInterval,
		reportInterval:   *reportInterval,
		catchupWindow:    *catchupWindow,
		cacheTTL:         *cacheTTL,
		stores:           stores,
		cache:            resultCache,
		logger:           logger,
	}
	server.ingestor = ingestion.NewIngestor(stores.eventStore, stores.archiveStore,
		log.New(os.Stdout, "[ingestion] ", log.LstdFlags|log.Lshortfile))
	server.evaluator = abtest.NewEvaluator(stores.eventStore, stores.abTestStore,
		stores.profileStore, msgRates, abtest.DefaultThresholds(),
		log.New(os.Stdout, "[abtest] ", log.LstdFlags|log.Lshortfile))
	server.builder = snapshot.NewBuilder(stores.eventStore, stores.snapStore,
		stores.profileStore, nil,
		log.New(os.Stdout, "[snapshot] ", log.LstdFlags|log.Lshortfile))
	server.composer = dashboard.NewComposer(stores.eventStore, stores.profileStore,
		stores.abTestStore, stores.snapStore, msgRates,
		log.New(os.Stdout, "[dashboard] ", log.LstdFlags|log.Lshortfile))
	server.generator = reporting.NewGenerator(stores.abTestStore, server.evaluator)

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	// Start HTTP server
	go server.startHTTPServer(*httpAddr)

	// Run the unified server
	err = server.Run(ctx)
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates all required stores.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			eventStore:   memory.NewSwipeEventStore(),
			profileStore: memory.NewProfileStore(),
			abTestStore:  memory.NewABTestStore(),
			snapStore:    memory.NewSnapshotStore(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	// ClickHouse
	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
	}

	stores := &allStores{
		// PostgreSQL stores (source of truth + snapshots)
		eventStore:   pgstore.NewSwipeEventStore(pool),
		profileStore: pgstore.NewProfileStore(pool),
		abTestStore:  pgstore.NewABTestStore(pool),
		snapStore:    pgstore.NewSnapshotStore(pool),

		// ClickHouse store (append-only archive)
		archiveStore: chstore.NewSwipeArchiveStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// createCache creates the dashboard/evaluation result cache.
func createCache(redisAddr string, logger *log.Logger) (cache.ResultCache, func()) {
	if redisAddr == "" {
		return cache.NewMemoryCache(), func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	logger.Printf("Using Redis result cache at %s", redisAddr)
	return cache.NewRedisCache(client, "swipe-analytics"), func() { client.Close() }
}

// Run starts the unified server with all components.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Println("Starting unified server...")

	s.mu.Lock()
	s.started = time.Now()
	s.mu.Unlock()

	// Create error channel for goroutines
	errCh := make(chan error, 3)

	// Start feed ingestion in background when a feed is configured
	if s.wsFeedURL != "" {
		go func() {
			err := s.runFeedIngestion(ctx)
			if err != nil && err != context.Canceled {
				errCh <- fmt.Errorf("feed ingestion: %w", err)
			}
		}()
	}

	// Start snapshot scheduler in background
	go func() {
		err := s.runSnapshotScheduler(ctx)
		if err != nil && err != context.Canceled {
			errCh <- fmt.Errorf("snapshot scheduler: %w", err)
		}
	}()

	// Start report scheduler in background
	go func() {
		err := s.runReportScheduler(ctx)
		if err != nil && err != context.Canceled {
			errCh <- fmt.Errorf("report scheduler: %w", err)
		}
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// runFeedIngestion drains the live WebSocket swipe feed.
func (s *Server) runFeedIngestion(ctx context.Context) error {
	s.logger.Printf("Starting feed ingestion from %s...", s.wsFeedURL)

	source := ingestion.NewWSEventSource(s.wsFeedURL,
		log.New(os.Stdout, "[feed] ", log.LstdFlags|log.Lshortfile))
	runner := ingestion.NewRunner(source, s.ingestor,
		log.New(os.Stdout, "[ingestion] ", log.LstdFlags|log.Lshortfile))

	return runner.Run(ctx)
}

// runSnapshotScheduler materializes closed buckets on schedule.
func (s *Server) runSnapshotScheduler(ctx context.Context) error {
	s.logger.Printf("Starting snapshot scheduler (interval: %v)...", s.snapshotInterval)

	// Run immediately on start
	s.runSnapshots(ctx)

	ticker := time.NewTicker(s.snapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runSnapshots(ctx)
		}
	}
}

// runSnapshots catches up daily and weekly snapshots for every account.
func (s *Server) runSnapshots(ctx context.Context) {
	s.mu.Lock()
	if s.snapshotRunning {
		s.mu.Unlock()
		s.logger.Println("Snapshot run already in progress, skipping...")
		return
	}
	s.snapshotRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.snapshotRunning = false
		s.lastSnapshotRun = time.Now()
		s.snapshotRuns++
		s.mu.Unlock()
	}()

	s.logger.Println("Running snapshot catch-up...")
	start := time.Now()

	accountIDs, err := s.stores.profileStore.ListAccountIDs(ctx)
	if err != nil {
		s.logger.Printf("Snapshot run error: list accounts: %v", err)
		observability.DefaultMetrics.SnapshotRunsTotal.WithLabelValues("error").Inc()
		return
	}

	since := start.Add(-s.catchupWindow).UnixMilli()
	written := 0
	failed := false
	for _, accountID := range accountIDs {
		for _, g := range []domain.Granularity{domain.GranularityDaily, domain.GranularityWeekly} {
			n, err := s.builder.CatchUp(ctx, accountID, g, since)
			written += n
			if err != nil {
				s.logger.Printf("Snapshot catch-up error for account %d (%s): %v", accountID, g, err)
				failed = true
			}
		}
	}

	elapsed := time.Since(start)
	observability.DefaultMetrics.SnapshotRunDuration.Observe(elapsed.Seconds())
	if failed {
		observability.DefaultMetrics.SnapshotRunsTotal.WithLabelValues("error").Inc()
		return
	}
	observability.DefaultMetrics.SnapshotRunsTotal.WithLabelValues("success").Inc()
	observability.DefaultMetrics.LastSuccessfulSnapshot.Set(float64(start.Unix()))

	s.logger.Printf("Snapshot catch-up completed in %v: %d accounts, %d rows written",
		elapsed, len(accountIDs), written)
}

// runReportScheduler runs report generation on schedule.
func (s *Server) runReportScheduler(ctx context.Context) error {
	s.logger.Printf("Starting report scheduler (interval: %v)...", s.reportInterval)

	// Run immediately on start
	s.runReports(ctx)

	ticker := time.NewTicker(s.reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runReports(ctx)
		}
	}
}

// runReports writes Markdown and CSV A/B test reports per account.
func (s *Server) runReports(ctx context.Context) {
	s.mu.Lock()
	if s.reportRunning {
		s.mu.Unlock()
		s.logger.Println("Report generation already running, skipping...")
		return
	}
	s.reportRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.reportRunning = false
		s.lastReportRun = time.Now()
		s.reportRuns++
		s.mu.Unlock()
	}()

	s.logger.Println("Generating reports...")
	start := time.Now()

	// Ensure output directory exists
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		s.logger.Printf("Failed to create output directory: %v", err)
		return
	}

	accountIDs, err := s.stores.profileStore.ListAccountIDs(ctx)
	if err != nil {
		s.logger.Printf("Report generation error: list accounts: %v", err)
		return
	}

	for _, accountID := range accountIDs {
		report, err := s.generator.Generate(ctx, accountID)
		if err != nil {
			s.logger.Printf("Report generation error for account %d: %v", accountID, err)
			continue
		}
		if report.TestCount == 0 {
			continue
		}

		mdPath := filepath.Join(s.outputDir, fmt.Sprintf("ABTEST_REPORT_%d.md", accountID))
		if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0644); err != nil {
			s.logger.Printf("Failed to write %s: %v", mdPath, err)
		}

		csvPath := filepath.Join(s.outputDir, fmt.Sprintf("abtest_results_%d.csv", accountID))
		if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(report.Rows)), 0644); err != nil {
			s.logger.Printf("Failed to write %s: %v", csvPath, err)
		}
	}

	s.logger.Printf("Reports generated in %v to %s/", time.Since(start), s.outputDir)
}

// startHTTPServer starts the HTTP server for the analytics API plus
// health/metrics/status.
func (s *Server) startHTTPServer(addr string) {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("/status", s.handleStatus)

	// Analytics API
	mux.HandleFunc("/events", s.handleIngest)
	mux.HandleFunc("/analytics/dashboard", s.handleDashboard)
	mux.HandleFunc("/analytics/abtest", s.handleABTest)

	s.logger.Printf("Starting HTTP server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		s.logger.Printf("HTTP server error: %v", err)
	}
}

// handleIngest accepts a JSON array of swipe events (or a single event
// object) and writes them through the ingestor.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxIngestBody))
	if err != nil {
		http.Error(w, fmt.Sprintf("read body: %v", err), http.StatusBadRequest)
		return
	}

	var frames []ingestion.WireEvent
	if err := json.Unmarshal(body, &frames); err != nil {
		// Retry as a single object for one-event producers
		var frame ingestion.WireEvent
		if err2 := json.Unmarshal(body, &frame); err2 != nil {
			http.Error(w, fmt.Sprintf("decode events: %v", err), http.StatusBadRequest)
			return
		}
		frames = []ingestion.WireEvent{frame}
	}

	events := make([]*domain.SwipeEvent, 0, len(frames))
	for i := range frames {
		events = append(events, frames[i].ToDomain())
	}

	result, err := s.ingestor.IngestBatch(r.Context(), events)
	if err != nil {
		http.Error(w, fmt.Sprintf("ingest batch: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"accepted":   result.Accepted,
		"duplicates": result.Duplicates,
		"rejected":   result.Rejected,
		"batch_id":   result.BatchID,
	})
}

// handleDashboard serves the per-account dashboard, cached for cacheTTL.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	accountID, err := strconv.ParseInt(r.URL.Query().Get("dating_account_id"), 10, 64)
	if err != nil || accountID <= 0 {
		http.Error(w, "dating_account_id query parameter is required", http.StatusBadRequest)
		return
	}

	cacheKey := fmt.Sprintf("dashboard:%d", accountID)
	if cached, err := s.cache.Get(r.Context(), cacheKey); err == nil {
		observability.DefaultMetrics.CacheHits.Inc()
		w.Header().Set("Content-Type", "application/json")
		w.Write(cached)
		return
	}
	observability.DefaultMetrics.CacheMisses.Inc()

	d, err := s.composer.Compose(r.Context(), accountID)
	if err != nil {
		http.Error(w, fmt.Sprintf("compose dashboard: %v", err), http.StatusInternalServerError)
		return
	}
	observability.RecordDashboard(d.Partial)

	payload, err := json.Marshal(d)
	if err != nil {
		http.Error(w, fmt.Sprintf("encode dashboard: %v", err), http.StatusInternalServerError)
		return
	}

	// Partial responses are not cached; the next request retries in full
	if !d.Partial {
		if err := s.cache.Set(r.Context(), cacheKey, payload, s.cacheTTL); err != nil {
			s.logger.Printf("Dashboard cache write error: %v", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

// handleABTest serves an on-demand A/B test evaluation. Final results
// are cached for a day; interim results are always recomputed.
func (s *Server) handleABTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	abTestID, err := strconv.ParseInt(r.URL.Query().Get("ab_test_id"), 10, 64)
	if err != nil || abTestID <= 0 {
		http.Error(w, "ab_test_id query parameter is required", http.StatusBadRequest)
		return
	}

	cacheKey := fmt.Sprintf("abtest:%d", abTestID)
	if cached, err := s.cache.Get(r.Context(), cacheKey); err == nil {
		observability.DefaultMetrics.CacheHits.Inc()
		w.Header().Set("Content-Type", "application/json")
		w.Write(cached)
		return
	}
	observability.DefaultMetrics.CacheMisses.Inc()

	start := time.Now()
	result, err := s.evaluator.Evaluate(r.Context(), abTestID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, storage.ErrNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, fmt.Sprintf("evaluate ab test: %v", err), status)
		return
	}
	observability.RecordEvaluation(result.Winner, time.Since(start).Seconds())

	payload, err := json.Marshal(result)
	if err != nil {
		http.Error(w, fmt.Sprintf("encode result: %v", err), http.StatusInternalServerError)
		return
	}

	if result.Final {
		if err := s.cache.Set(r.Context(), cacheKey, payload, 24*time.Hour); err != nil {
			s.logger.Printf("Evaluation cache write error: %v", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status          string    `json:"status"`
	Uptime          string    `json:"uptime"`
	LastSnapshotRun time.Time `json:"last_snapshot_run,omitempty"`
	LastReportRun   time.Time `json:"last_report_run,omitempty"`
	SnapshotRuns    int       `json:"snapshot_runs"`
	ReportRuns      int       `json:"report_runs"`
	SnapshotRunning bool      `json:"snapshot_running"`
	ReportRunning   bool      `json:"report_running"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := StatusResponse{
		Status:          "running",
		Uptime:          time.Since(s.started).String(),
		LastSnapshotRun: s.lastSnapshotRun,
		LastReportRun:   s.lastReportRun,
		SnapshotRuns:    s.snapshotRuns,
		ReportRuns:      s.reportRuns,
		SnapshotRunning: s.snapshotRunning,
		ReportRunning:   s.reportRunning,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

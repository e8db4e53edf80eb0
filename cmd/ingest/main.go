package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"swipe-analytics-lab/internal/domain"
	"swipe-analytics-lab/internal/ingestion"
	"swipe-analytics-lab/internal/observability"
	"swipe-analytics-lab/internal/storage"
	chstore "swipe-analytics-lab/internal/storage/clickhouse"
	"swipe-analytics-lab/internal/storage/memory"
	"swipe-analytics-lab/internal/storage/migrations"
	pgstore "swipe-analytics-lab/internal/storage/postgres"
	"swipe-analytics-lab/internal/verification"
)

// backfillBatchSize bounds one InsertBulk during file backfill.
const backfillBatchSize = 500

func main() {
	// Parse flags
	mode := flag.String("mode", "live", "Ingestion mode: live (WebSocket feed) or backfill (NDJSON file)")
	wsFeedURL := flag.String("ws-feed-url", os.Getenv("SWIPE_FEED_WS_URL"), "WebSocket URL of the live swipe feed")
	inputFile := flag.String("input-file", "", "NDJSON file of swipe events for backfill mode")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (empty: no archive)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	verify := flag.Bool("verify", false, "After backfill, cross-check ledger and archive counts per account")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile)

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Validate flags
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Create stores
	var (
		eventStore   storage.SwipeEventStore
		archiveStore storage.SwipeArchiveStore
		profileStore storage.ProfileStore
		cleanup      = func() {}
	)
	if *useMemory {
		eventStore = memory.NewSwipeEventStore()
		profileStore = memory.NewProfileStore()
	} else {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("Failed to connect to postgres: %v", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			logger.Fatalf("Failed to run postgres migrations: %v", err)
		}
		eventStore = pgstore.NewSwipeEventStore(pool)
		profileStore = pgstore.NewProfileStore(pool)
		cleanup = pool.Close

		if *clickhouseDSN != "" {
			chConn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
			if err != nil {
				pool.Close()
				logger.Fatalf("Failed to run clickhouse migrations: %v", err)
			}
			archiveStore = chstore.NewSwipeArchiveStore(chConn)
			cleanup = func() {
				chConn.Close()
				pool.Close()
			}
		}
	}
	defer cleanup()

	ingestor := ingestion.NewIngestor(eventStore, archiveStore, logger)

	switch *mode {
	case "live":
		if *wsFeedURL == "" {
			logger.Fatal("--ws-feed-url is required in live mode")
		}
		source := ingestion.NewWSEventSource(*wsFeedURL, logger)
		runner := ingestion.NewRunner(source, ingestor, logger)
		if err := runner.Run(ctx); err != nil && err != context.Canceled {
			logger.Fatalf("Ingestion error: %v", err)
		}

	case "backfill":
		if *inputFile == "" {
			logger.Fatal("--input-file is required in backfill mode")
		}
		if err := runBackfill(ctx, ingestor, *inputFile, logger); err != nil {
			logger.Fatalf("Backfill error: %v", err)
		}
		if *verify {
			if archiveStore == nil {
				logger.Fatal("--verify requires --clickhouse-dsn")
			}
			verifier := verification.NewVerifier(eventStore, archiveStore, profileStore, logger)
			report, err := verifier.VerifyAll(ctx, 0, time.Now().UnixMilli())
			if err != nil {
				logger.Fatalf("Verification error: %v", err)
			}
			logger.Printf("Verification: %d accounts checked, %d matched, %d divergent",
				report.AccountsChecked, report.MatchedAccounts, report.DivergentAccounts)
			if report.DivergentAccounts > 0 {
				os.Exit(1)
			}
		}

	default:
		logger.Fatalf("Unknown mode %q (want live or backfill)", *mode)
	}

	logger.Println("Done")
}

// runBackfill streams an NDJSON file of swipe events through the
// ingestor in bounded batches.
func runBackfill(ctx context.Context, ingestor *ingestion.Ingestor, path string, logger *log.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	var (
		frames    []ingestion.WireEvent
		total     ingestion.BatchResult
		lineNo    int
		malformed int
	)

	flush := func() error {
		if len(frames) == 0 {
			return nil
		}
		events := make([]*domain.SwipeEvent, 0, len(frames))
		for i := range frames {
			events = append(events, frames[i].ToDomain())
		}
		res, err := ingestor.IngestBatch(ctx, events)
		if err != nil {
			return fmt.Errorf("ingest batch ending at line %d: %w", lineNo, err)
		}
		total.Accepted += res.Accepted
		total.Duplicates += res.Duplicates
		total.Rejected += res.Rejected
		frames = frames[:0]
		return nil
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var frame ingestion.WireEvent
		if err := json.Unmarshal(line, &frame); err != nil {
			logger.Printf("Skipping malformed line %d: %v", lineNo, err)
			malformed++
			continue
		}
		frames = append(frames, frame)

		if len(frames) >= backfillBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input file: %w", err)
	}
	if err := flush(); err != nil {
		return err
	}

	logger.Printf("Backfill complete: %d accepted, %d duplicates, %d rejected, %d malformed lines",
		total.Accepted, total.Duplicates, total.Rejected, malformed)
	return nil
}

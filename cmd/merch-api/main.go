package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/superbasedd/merch-blink/internal/blinkapi"
	"github.com/superbasedd/merch-blink/internal/chain"
	"github.com/superbasedd/merch-blink/internal/collectible"
	"github.com/superbasedd/merch-blink/internal/mplcore"
	"github.com/superbasedd/merch-blink/internal/queue"
	"github.com/superbasedd/merch-blink/internal/redeem"
	"github.com/superbasedd/merch-blink/internal/secrets"
	"github.com/superbasedd/merch-blink/internal/shipevent"
	"github.com/superbasedd/merch-blink/internal/shipment"
	shipmentpg "github.com/superbasedd/merch-blink/internal/shipment/postgres"
)

func main() {
	var (
		listenAddr = flag.String("listen", "127.0.0.1:8080", "HTTP listen address")
		basePath   = flag.String("base-path", redeem.DefaultBasePath, "URL base path for the blink endpoints")

		rpcURL = flag.String("rpc-url", "", "Solana RPC URL (required)")
		dasURL = flag.String("das-url", "", "DAS asset index URL; defaults to --rpc-url")

		collectionAddr = flag.String("collection", redeem.DefaultCollectionAddress, "MPL Core collection address")
		winnerNames    = flag.String("winner-names", strings.Join(redeem.DefaultWinnerNames(), ","), "comma-separated redeemable collectible names")
		feeAmount      = flag.Uint64("fee-amount", redeem.DefaultFeeAmount, "shipping fee in whole currency units")
		feeDecimals    = flag.Uint("fee-decimals", redeem.DefaultFeeDecimals, "shipping fee mint decimals")
		feeCurrency    = flag.String("fee-currency", redeem.DefaultFeeCurrency, "shipping fee currency symbol for display")
		feeMintAddr    = flag.String("fee-mint", redeem.DefaultFeeMintAddress, "shipping fee SPL token mint address")
		feePayeeAddr   = flag.String("fee-payee", redeem.DefaultFeePayeeAddress, "shipping fee payee wallet address")
		title          = flag.String("title", redeem.DefaultTitle, "blink title")
		icon           = flag.String("icon", redeem.DefaultIcon, "blink icon URL")

		postgresDSN = flag.String("postgres-dsn", "", "Postgres DSN, literal or env:NAME or aws:secret-id; empty uses an in-memory store")

		queueDriver  = flag.String("queue-driver", queue.DriverKafka, "queue driver for shipment events (kafka|stdio)")
		queueBrokers = flag.String("queue-brokers", "", "queue brokers (comma-separated); empty disables event publishing")
		queueTopic   = flag.String("queue-topic", "shipments.lifecycle.v1", "queue topic for shipment lifecycle events")

		rateLimitPerSecond = flag.Float64("rate-limit-per-ip-per-second", 20, "per-IP refill rate for API rate limiting")
		rateLimitBurst     = flag.Int("rate-limit-burst", 40, "per-IP burst capacity for API rate limiting")
		rateLimitMaxIPs    = flag.Int("rate-limit-max-tracked-ips", 10000, "maximum tracked client IP entries in rate limiter")

		rpcTimeout      = flag.Duration("rpc-timeout", 15*time.Second, "timeout for DAS index HTTP calls")
		scheduleTimeout = flag.Duration("schedule-timeout", 30*time.Second, "timeout for deferred settlement tasks")

		readHeaderTimeout = flag.Duration("read-header-timeout", 5*time.Second, "http.Server ReadHeaderTimeout")
		readTimeout       = flag.Duration("read-timeout", 10*time.Second, "http.Server ReadTimeout")
		writeTimeout      = flag.Duration("write-timeout", 10*time.Second, "http.Server WriteTimeout")
		idleTimeout       = flag.Duration("idle-timeout", 60*time.Second, "http.Server IdleTimeout")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if strings.TrimSpace(*rpcURL) == "" {
		fmt.Fprintln(os.Stderr, "error: --rpc-url is required")
		os.Exit(2)
	}
	if *listenAddr == "" {
		fmt.Fprintln(os.Stderr, "error: --listen must be non-empty")
		os.Exit(2)
	}
	if *feeDecimals > 18 {
		fmt.Fprintln(os.Stderr, "error: --fee-decimals must be <= 18")
		os.Exit(2)
	}
	if *readHeaderTimeout <= 0 || *readTimeout <= 0 || *writeTimeout <= 0 || *idleTimeout <= 0 {
		fmt.Fprintln(os.Stderr, "error: timeouts must be > 0")
		os.Exit(2)
	}
	if *rateLimitPerSecond <= 0 || *rateLimitBurst <= 0 || *rateLimitMaxIPs <= 0 {
		fmt.Fprintln(os.Stderr, "error: rate limit settings must be > 0")
		os.Exit(2)
	}
	if *rpcTimeout <= 0 || *scheduleTimeout <= 0 {
		fmt.Fprintln(os.Stderr, "error: --rpc-timeout and --schedule-timeout must be > 0")
		os.Exit(2)
	}

	collection, err := solana.PublicKeyFromBase58(strings.TrimSpace(*collectionAddr))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: parse --collection: %v\n", err)
		os.Exit(2)
	}
	feeMint, err := solana.PublicKeyFromBase58(strings.TrimSpace(*feeMintAddr))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: parse --fee-mint: %v\n", err)
		os.Exit(2)
	}
	feePayee, err := solana.PublicKeyFromBase58(strings.TrimSpace(*feePayeeAddr))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: parse --fee-payee: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reader, err := chain.NewRPCReader(rpc.New(strings.TrimSpace(*rpcURL)))
	if err != nil {
		log.Error("init chain reader", "err", err)
		os.Exit(2)
	}

	indexURL := strings.TrimSpace(*dasURL)
	if indexURL == "" {
		indexURL = strings.TrimSpace(*rpcURL)
	}
	index, err := collectible.NewDASIndex(indexURL, &http.Client{Timeout: *rpcTimeout})
	if err != nil {
		log.Error("init das index", "err", err)
		os.Exit(2)
	}

	var store shipment.Store
	if strings.TrimSpace(*postgresDSN) != "" {
		dsn, resolveErr := resolveSecret(ctx, *postgresDSN)
		if resolveErr != nil {
			log.Error("resolve postgres dsn", "err", resolveErr)
			os.Exit(2)
		}
		pool, poolErr := pgxpool.New(ctx, dsn)
		if poolErr != nil {
			log.Error("init pgx pool", "err", poolErr)
			os.Exit(2)
		}
		defer pool.Close()

		pgStore, storeErr := shipmentpg.New(pool)
		if storeErr != nil {
			log.Error("init shipment store", "err", storeErr)
			os.Exit(2)
		}
		if err := pgStore.EnsureSchema(ctx); err != nil {
			log.Error("ensure shipment schema", "err", err)
			os.Exit(2)
		}
		store = pgStore
	} else {
		log.Warn("no --postgres-dsn; shipment records are held in memory only")
		store = shipment.NewMemoryStore(nil)
	}

	var events redeem.EventSink
	if strings.TrimSpace(*queueBrokers) != "" {
		producer, producerErr := queue.NewProducer(queue.ProducerConfig{
			Driver:  *queueDriver,
			Brokers: queue.SplitCommaList(*queueBrokers),
		})
		if producerErr != nil {
			log.Error("init queue producer", "err", producerErr)
			os.Exit(2)
		}
		defer producer.Close()

		publisher, pubErr := shipevent.NewPublisher(producer, *queueTopic, log)
		if pubErr != nil {
			log.Error("init shipment event publisher", "err", pubErr)
			os.Exit(2)
		}
		events = publisher
		log.Info("shipment event publishing enabled", "queueDriver", *queueDriver, "topic", *queueTopic)
	}

	scheduler := redeem.NewGoScheduler(*scheduleTimeout, log)

	flow, err := redeem.NewFlow(redeem.Config{
		Collection:  collection,
		WinnerNames: queue.SplitCommaList(*winnerNames),
		FeeAmount:   *feeAmount,
		FeeDecimals: uint8(*feeDecimals),
		FeeCurrency: *feeCurrency,
		FeeMint:     feeMint,
		FeePayee:    feePayee,
		Title:       *title,
		Label:       *title,
		Icon:        *icon,
		BasePath:    *basePath,
	}, redeem.Deps{
		Reader:    reader,
		Index:     index,
		Burner:    mplcore.NewBuilder(),
		Store:     store,
		Scheduler: scheduler,
		Events:    events,
		Logger:    log,
	})
	if err != nil {
		log.Error("init redeem flow", "err", err)
		os.Exit(2)
	}

	handler, err := blinkapi.NewHandler(blinkapi.Config{
		BasePath:                *basePath,
		RateLimitPerIPPerSecond: *rateLimitPerSecond,
		RateLimitBurst:          *rateLimitBurst,
		RateLimitMaxTrackedIPs:  *rateLimitMaxIPs,
		Logger:                  log,
		Now:                     time.Now,
	}, flow)
	if err != nil {
		log.Error("init blink api handler", "err", err)
		os.Exit(2)
	}

	srv := &http.Server{
		Addr:              *listenAddr,
		Handler:           handler,
		ReadHeaderTimeout: *readHeaderTimeout,
		ReadTimeout:       *readTimeout,
		WriteTimeout:      *writeTimeout,
		IdleTimeout:       *idleTimeout,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("merch-api listening", "addr", *listenAddr, "basePath", *basePath, "collection", collection)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown", "reason", ctx.Err())
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Error("server error", "err", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	// Let in-flight settlement updates finish before exiting.
	scheduler.Wait()
}

func resolveSecret(ctx context.Context, value string) (string, error) {
	var aws secrets.Provider
	if strings.HasPrefix(strings.TrimSpace(value), "aws:") {
		provider, err := secrets.NewAWS(ctx)
		if err != nil {
			return "", err
		}
		aws = provider
	}
	return secrets.Resolve(ctx, value, aws)
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/superbasedd/merch-blink/internal/archive"
	"github.com/superbasedd/merch-blink/internal/queue"
	"github.com/superbasedd/merch-blink/internal/secrets"
	"github.com/superbasedd/merch-blink/internal/shipevent"
	"github.com/superbasedd/merch-blink/internal/shipment"
	shipmentpg "github.com/superbasedd/merch-blink/internal/shipment/postgres"
)

func main() {
	var (
		postgresDSN = flag.String("postgres-dsn", "", "Postgres DSN, literal or env:NAME or aws:secret-id (required)")

		queueDriver  = flag.String("queue-driver", queue.DriverKafka, "queue driver: kafka|stdio")
		queueBrokers = flag.String("queue-brokers", "", "comma-separated queue brokers (required for kafka)")
		queueGroup   = flag.String("queue-group", "fulfillment-worker", "queue consumer group (required for kafka)")
		queueTopics  = flag.String("queue-topics", "shipments.lifecycle.v1", "comma-separated queue topics")
		maxLineBytes = flag.Int("max-line-bytes", 1<<20, "maximum stdin line size for stdio driver (bytes)")
		ackTimeout   = flag.Duration("queue-ack-timeout", 5*time.Second, "timeout for queue message acknowledgements")

		archiveDriver = flag.String("archive-driver", archive.DriverS3, "archive driver: s3|memory")
		archiveBucket = flag.String("archive-bucket", "", "archive S3 bucket (required for s3)")
		archivePrefix = flag.String("archive-prefix", "", "optional key prefix inside the archive store")

		opTimeout = flag.Duration("op-timeout", 30*time.Second, "per-message timeout for store and archive calls")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if strings.TrimSpace(*postgresDSN) == "" {
		fmt.Fprintln(os.Stderr, "error: --postgres-dsn is required")
		os.Exit(2)
	}
	if *maxLineBytes <= 0 || *ackTimeout <= 0 || *opTimeout <= 0 {
		fmt.Fprintln(os.Stderr, "error: --max-line-bytes, --queue-ack-timeout, and --op-timeout must be > 0")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dsn, err := resolveSecret(ctx, *postgresDSN)
	if err != nil {
		log.Error("resolve postgres dsn", "err", err)
		os.Exit(2)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Error("init pgx pool", "err", err)
		os.Exit(2)
	}
	defer pool.Close()

	store, err := shipmentpg.New(pool)
	if err != nil {
		log.Error("init shipment store", "err", err)
		os.Exit(2)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		log.Error("ensure shipment schema", "err", err)
		os.Exit(2)
	}

	archiveCfg := archive.Config{
		Driver: *archiveDriver,
		Prefix: *archivePrefix,
		Bucket: strings.TrimSpace(*archiveBucket),
	}
	if strings.EqualFold(strings.TrimSpace(*archiveDriver), archive.DriverS3) || strings.TrimSpace(*archiveDriver) == "" {
		awsCfg, loadErr := awsconfig.LoadDefaultConfig(ctx)
		if loadErr != nil {
			log.Error("load aws config", "err", loadErr)
			os.Exit(2)
		}
		archiveCfg.S3Client = s3.NewFromConfig(awsCfg)
	}
	blobStore, err := archive.New(archiveCfg)
	if err != nil {
		log.Error("init archive store", "err", err)
		os.Exit(2)
	}
	archiver, err := archive.NewArchiver(blobStore)
	if err != nil {
		log.Error("init archiver", "err", err)
		os.Exit(2)
	}

	consumer, err := queue.NewConsumer(ctx, queue.ConsumerConfig{
		Driver:       *queueDriver,
		Brokers:      queue.SplitCommaList(*queueBrokers),
		Group:        *queueGroup,
		Topics:       queue.SplitCommaList(*queueTopics),
		MaxLineBytes: *maxLineBytes,
	})
	if err != nil {
		log.Error("init queue consumer", "err", err)
		os.Exit(2)
	}
	defer func() { _ = consumer.Close() }()

	log.Info("fulfillment worker started",
		"queueDriver", *queueDriver,
		"topics", *queueTopics,
		"archiveDriver", *archiveDriver,
		"archiveBucket", *archiveBucket,
	)

	msgCh := consumer.Messages()
	errCh := consumer.Errors()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown", "reason", ctx.Err())
			return
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				log.Error("queue consume error", "err", err)
			}
		case qmsg, ok := <-msgCh:
			if !ok {
				return
			}
			line := bytes.TrimSpace(qmsg.Value)
			if len(line) == 0 {
				ackMessage(qmsg, *ackTimeout, log)
				continue
			}

			var payload shipevent.Payload
			if err := json.Unmarshal(line, &payload); err != nil {
				log.Error("parse shipment event", "err", err)
				ackMessage(qmsg, *ackTimeout, log)
				continue
			}
			if err := payload.Validate(); err != nil {
				log.Error("invalid shipment event", "err", err)
				ackMessage(qmsg, *ackTimeout, log)
				continue
			}

			switch payload.Version {
			case shipevent.KindCompleted:
				if err := archiveShipment(ctx, store, archiver, payload, *opTimeout, log); err != nil {
					// Leave the message unacked so the group redelivers it.
					log.Error("archive shipment", "sessionReference", payload.SessionReference, "err", err)
					continue
				}
				ackMessage(qmsg, *ackTimeout, log)
			case shipevent.KindRecorded:
				// Nothing to fulfill yet; the settlement signature has not landed.
				ackMessage(qmsg, *ackTimeout, log)
			default:
				ackMessage(qmsg, *ackTimeout, log)
			}
		}
	}
}

// archiveShipment snapshots the completed shipment record into the archive
// store. Already-archived sessions and missing records are terminal: both
// are logged and acked rather than retried.
func archiveShipment(ctx context.Context, store shipment.Store, archiver *archive.Archiver, payload shipevent.Payload, timeout time.Duration, log *slog.Logger) error {
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done, err := archiver.Archived(opCtx, payload.SessionReference)
	if err != nil {
		return fmt.Errorf("check archive: %w", err)
	}
	if done {
		log.Info("shipment already archived", "sessionReference", payload.SessionReference)
		return nil
	}

	rec, err := store.Get(opCtx, payload.SessionReference)
	if errors.Is(err, shipment.ErrNotFound) {
		log.Warn("completed event without shipment record", "sessionReference", payload.SessionReference)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load shipment: %w", err)
	}

	if err := archiver.Archive(opCtx, rec); err != nil {
		return err
	}
	log.Info("shipment archived",
		"sessionReference", payload.SessionReference,
		"tShirt", rec.TShirt,
		"burnTxSignature", rec.BurnTxSignature,
	)
	return nil
}

func ackMessage(msg queue.Message, timeout time.Duration, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := msg.Ack(ctx); err != nil {
		log.Error("ack queue message", "topic", msg.Topic, "err", err)
	}
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

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/danielhkuo/electorate/cliparse"
	"github.com/danielhkuo/electorate/db"
	"github.com/danielhkuo/electorate/event"
	"github.com/danielhkuo/electorate/metrics"
	"github.com/danielhkuo/electorate/pubsub"
	"github.com/danielhkuo/electorate/router"
)

const reconcileInterval = 5 * time.Minute

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Connect to the database
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Verify connection
	if err := dbConn.Ping(); err != nil {
		slog.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Websocket fan-out hub
	hub := pubsub.NewHub()
	go hub.Run(ctx)

	// Event publisher: Kafka when brokers are configured, otherwise
	// events go straight to the local hub
	var publisher event.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := event.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp

		// Unique group per process so every instance sees every event
		relay := event.NewRelay(cfg.KafkaBrokers, cfg.KafkaTopic, "electorate-relay-"+uuid.NewString(), hub)
		defer relay.Close()
		go relay.Run(ctx)

		slog.Info("Kafka events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		publisher = event.NewLocalPublisher(hub)
	}

	met := metrics.NewAdmissionMetrics("electorate", prometheus.DefaultRegisterer)

	// Periodic tally reconciliation against the ballot ledger
	go db.RunReconciler(ctx, dbConn, reconcileInterval, func(drifts []db.Drift) {
		met.TallyDrift.Set(float64(len(drifts)))
		for _, d := range drifts {
			slog.Warn("tally drift repaired",
				"candidate_id", d.CandidateID,
				"counter", d.Counter,
				"ledger", d.LedgerCount,
			)
		}
	})

	// Create router
	mux := router.NewRouter(dbConn, cfg, hub, publisher, met)

	// Create server
	server := http.Server{
		Handler: mux,
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		cancel()
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

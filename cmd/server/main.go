package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"warehouse-route-service/internal/adapters/events"
	"warehouse-route-service/internal/adapters/repositories"
	"warehouse-route-service/internal/api"
	"warehouse-route-service/internal/config"
	"warehouse-route-service/internal/domain"
	"warehouse-route-service/internal/platform/db"
	"warehouse-route-service/internal/platform/obs"
	"warehouse-route-service/internal/ports"
	"warehouse-route-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (SQL storage, Redis, Prometheus) behind ports,
// starts the simulation clock and serves the HTTP API.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, dialect, err := db.Connect(cfg.DatabaseURL, cfg.DBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()
	log.Printf("database connected dialect=%s", dialect)

	repo := repositories.NewSQLWarehouseRepository(conn, dialect)
	if err := initAndSeed(ctx, conn, repo, cfg.SeedPath); err != nil {
		log.Fatal(err)
	}

	sim, err := newSimulation(ctx, cfg, repo)
	if err != nil {
		log.Fatal(err)
	}

	reg := prometheus.NewRegistry()
	metrics, err := obs.NewSimulationCollector(reg)
	if err != nil {
		log.Fatal(err)
	}
	sim.SetMetrics(metrics)

	if cfg.RedisURL != "" {
		client, err := events.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal(err)
		}
		defer client.Close()

		fwd := events.NewForwarder(events.NewRedisPublisher(client, cfg.RedisChannel), 256)
		sim.Subscribe(fwd.Handle)
		go fwd.Run(ctx)
		log.Printf("publishing cart events channel=%s", cfg.RedisChannel)
	}

	sim.OnFulfilled(func(o domain.Order) {
		if err := repo.RecordFulfillment(context.Background(), fulfillmentRecord(o)); err != nil {
			log.Printf("record fulfillment failed: order=%d err=%v", o.OrderID, err)
		}
	})

	go func() {
		if err := sim.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("simulation stopped: %v", err)
		}
	}()

	router := api.NewRouter(sim, repo, metrics.Handler())

	log.Printf("Server listening addr=:%s", cfg.Port)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown failed: %v", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Println("Server stopped")
}

// initAndSeed creates the schema and loads the seed file when one is present.
func initAndSeed(ctx context.Context, conn *sql.DB, repo *repositories.SQLWarehouseRepository, seedPath string) error {
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if _, err := os.Stat(seedPath); err != nil {
		log.Printf("seed file not found, using stored warehouse: path=%s", seedPath)
		return nil
	}
	if err := repositories.SeedFromFile(ctx, repo, seedPath); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	return nil
}

func newSimulation(ctx context.Context, cfg config.Config, repo ports.WarehouseRepository) (*services.Simulation, error) {
	layout, err := repo.LoadLayout(ctx)
	if err != nil {
		return nil, fmt.Errorf("new simulation: %w", err)
	}
	orders, err := repo.ListOrderRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("new simulation: %w", err)
	}

	sim, err := services.NewSimulation(layout, cfg.SimulationOptions(time.Now()))
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		if _, err := sim.SubmitAfter(o.StartOffset, o.Items); err != nil {
			return nil, fmt.Errorf("new simulation: %w", err)
		}
	}
	log.Printf("simulation ready nodes=%d shelves=%d orders=%d", len(layout.Nodes), len(layout.Shelves), len(orders))

	return sim, nil
}

func fulfillmentRecord(o domain.Order) ports.FulfillmentRecord {
	rec := ports.FulfillmentRecord{
		OrderID:     o.OrderID,
		StartedAt:   o.StartAt,
		Unsatisfied: o.Unsatisfied(),
	}
	if o.EndAt != nil {
		rec.FinishedAt = *o.EndAt
	}
	if o.Cart != nil {
		rec.Delivered = o.Cart.Delivered
	}
	return rec
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"warehouse-route-service/internal/config"
	"warehouse-route-service/internal/domain"
	"warehouse-route-service/internal/scenario"
	"warehouse-route-service/internal/services"
)

var runCmd = &cobra.Command{
	Use:   "run <scenario>",
	Short: "Replay a scenario and print the outcome of every order",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenario,
}

func init() {
	runCmd.Flags().Bool("watch", false, "run in real time and apply edge closed flags edited in the scenario file")
	runCmd.Flags().Bool("events", false, "print cart events as JSON lines")
	runCmd.Flags().Duration("max-duration", time.Hour, "give up once this much simulated time has passed")
	runCmd.Flags().Float64("time-scale", 1, "simulated seconds per wall-clock second (with --watch)")
	runCmd.Flags().Int("capacity", services.DefaultCartCapacity, "cart capacity in goods units")
	runCmd.Flags().Float64("speed", services.DefaultCartSpeed, "cart speed in distance units per second")

	_ = viper.BindPFlag("time_scale", runCmd.Flags().Lookup("time-scale"))
	_ = viper.BindPFlag("cart_capacity", runCmd.Flags().Lookup("capacity"))
	_ = viper.BindPFlag("cart_speed", runCmd.Flags().Lookup("speed"))

	rootCmd.AddCommand(runCmd)
}

type runOptions struct {
	Watch       bool
	Events      bool
	MaxDuration time.Duration
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var opts runOptions
	opts.Watch, _ = cmd.Flags().GetBool("watch")
	opts.Events, _ = cmd.Flags().GetBool("events")
	opts.MaxDuration, _ = cmd.Flags().GetDuration("max-duration")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return playScenario(ctx, cmd.OutOrStdout(), args[0], cfg, opts)
}

// playScenario loads the file, submits its orders and drives the simulation
// until every order is fulfilled. The summary is printed even on failure.
func playScenario(ctx context.Context, out io.Writer, path string, cfg config.Config, opts runOptions) error {
	doc, err := scenario.Load(path)
	if err != nil {
		return err
	}

	start := time.Now().Truncate(time.Second)
	sim, err := services.NewSimulation(doc.Layout(), cfg.SimulationOptions(start))
	if err != nil {
		return fmt.Errorf("run scenario: %w", err)
	}
	for _, o := range doc.OrderRequests() {
		if _, err := sim.SubmitAfter(o.StartOffset, o.Items); err != nil {
			return fmt.Errorf("run scenario: %w", err)
		}
	}

	if opts.Events {
		enc := json.NewEncoder(out)
		sim.Subscribe(func(ev domain.CartEvent) {
			_ = enc.Encode(ev)
		})
	}

	var runErr error
	if opts.Watch {
		runErr = followScenario(ctx, sim, path, doc)
	} else {
		runErr = fastForward(ctx, sim, cfg.TickInterval, opts.MaxDuration)
	}

	printSummary(out, doc.Name, start, sim.Snapshot())
	return runErr
}

// fastForward ticks simulated time as fast as possible.
func fastForward(ctx context.Context, sim *services.Simulation, step, limit time.Duration) error {
	deadline := sim.Now().Add(limit)
	for !sim.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !sim.Now().Before(deadline) {
			return fmt.Errorf("run scenario: orders still open after %s of simulated time", limit)
		}
		sim.Advance(ctx, step)
	}
	return nil
}

// followScenario runs on the wall clock and applies edge edits from the file
// until every order is fulfilled or ctx ends.
func followScenario(ctx context.Context, sim *services.Simulation, path string, doc *scenario.Document) error {
	w, err := scenario.NewWatcher(path, doc)
	if err != nil {
		return fmt.Errorf("watch scenario: %w", err)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("watch scenario: %w", err)
	}

	applied := make(chan struct{})
	go func() {
		defer close(applied)
		for change := range w.Changes {
			applyEdgeChange(sim, change)
		}
	}()
	defer func() {
		w.Stop()
		<-applied
	}()

	runCtx, cancel := context.WithCancel(ctx)
	ran := make(chan struct{})
	go func() {
		defer close(ran)
		_ = sim.Run(runCtx)
	}()
	defer func() {
		cancel()
		<-ran
	}()

	log.Printf("watching scenario: path=%s", path)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if sim.Done() {
				return nil
			}
		}
	}
}

func applyEdgeChange(sim *services.Simulation, c scenario.EdgeChange) {
	for _, e := range c.Closed {
		if err := sim.CloseEdge(e.NodeA, e.NodeB); err != nil {
			log.Printf("close edge failed: a=%d b=%d err=%v", e.NodeA, e.NodeB, err)
			continue
		}
		log.Printf("edge closed: a=%d b=%d", e.NodeA, e.NodeB)
	}
	for _, e := range c.Opened {
		if err := sim.OpenEdge(e.NodeA, e.NodeB); err != nil {
			log.Printf("open edge failed: a=%d b=%d err=%v", e.NodeA, e.NodeB, err)
			continue
		}
		log.Printf("edge opened: a=%d b=%d", e.NodeA, e.NodeB)
	}
}

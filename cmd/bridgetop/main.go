// Command bridgetop runs a synthetic storage workload against an
// in-memory native library and shows the bridge working: worker
// throughput, live handles by kind and buffer pin balance. With a TTY
// it renders a live TUI; otherwise it prints periodic snapshots.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/skystor/uplink-bridge/ffi/ffitest"
	"github.com/skystor/uplink-bridge/uplink"
)

type config struct {
	Workers       int `env:"BRIDGETOP_WORKERS" envDefault:"4" validate:"min=1,max=64"`
	QueueDepth    int `env:"BRIDGETOP_QUEUE_DEPTH" envDefault:"64" validate:"min=1,max=4096"`
	Writers       int `env:"BRIDGETOP_WRITERS" envDefault:"8" validate:"min=1,max=256"`
	Buckets       int `env:"BRIDGETOP_BUCKETS" envDefault:"4" validate:"min=1,max=64"`
	PayloadBytes  int `env:"BRIDGETOP_PAYLOAD_BYTES" envDefault:"4096" validate:"min=1,max=16777216"`
	RefreshMillis int `env:"BRIDGETOP_REFRESH_MS" envDefault:"250" validate:"min=50,max=5000"`
}

func main() {
	var (
		duration = flag.Duration("duration", 0, "Stop after this long (0 runs until interrupted)")
		plain    = flag.Bool("plain", false, "Print snapshots instead of the TUI")
	)
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	client := uplink.NewClient(ffitest.New(), uplink.Options{
		Workers:    cfg.Workers,
		QueueDepth: cfg.QueueDepth,
	})
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if *duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	w := newWorkload(client, cfg)
	if err := w.prepare(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	w.start(ctx)

	if *plain || !term.IsTerminal(int(os.Stdout.Fd())) {
		err = runPlain(ctx, client, w, cfg)
	} else {
		err = runInteractive(ctx, cancel, client, w, cfg)
	}
	cancel()
	w.wait()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (config, error) {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func runPlain(ctx context.Context, client *uplink.Client, w *workload, cfg config) error {
	ticker := time.NewTicker(time.Duration(cfg.RefreshMillis) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			printSnapshot(client, w)
			return nil
		case <-ticker.C:
			printSnapshot(client, w)
		}
	}
}

func printSnapshot(client *uplink.Client, w *workload) {
	s := client.Stats()
	fmt.Printf("dispatched=%d executed=%d completed=%d cancelled=%d inflight=%d handles=%d pins=%d ops=%d errors=%d\n",
		s.Dispatched, s.Executed, s.Completed, s.Cancelled, s.Inflight,
		client.Handles(), client.PinBalance(), w.ops(), w.errors())
}

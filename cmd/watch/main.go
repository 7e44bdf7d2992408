package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/danielpatrickdp/tau-anchor/internal/telemetry"
)

// #region main
func main() {
	addr := flag.String("addr", envOr("TAU_GRPC", "localhost:50051"), "address of a running tau --grpc server")
	jsonOut := flag.Bool("json", false, "print one JSON object per record")
	limit := flag.Uint64("n", 0, "exit after N records (0 = until the stream ends)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := telemetry.NewClient(*addr)
	if err != nil {
		log.Fatalf("failed to connect to telemetry service at %s: %v", *addr, err)
	}
	defer client.Close()

	errLimit := errors.New("limit reached")
	var seen uint64
	enc := json.NewEncoder(os.Stdout)
	err = client.Subscribe(ctx, func(r telemetry.Record) error {
		if *jsonOut {
			if err := enc.Encode(r); err != nil {
				return err
			}
		} else {
			fmt.Printf("%10d  %-10s  %+.4f\n", r.Step, r.Anchor, r.Harmonic)
		}
		seen++
		if *limit > 0 && seen >= *limit {
			return errLimit
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimit) && ctx.Err() == nil {
		log.Fatalf("subscribe: %v", err)
	}
	log.Printf("received %d records", seen)
}
// #endregion main

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
// #endregion helpers

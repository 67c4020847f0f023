// Command warehousectl triggers and inspects the warehouse background jobs.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

const usage = `usage: warehousectl [-redis addr] <command>

commands:
  trigger <low-stock|reconcile>   enqueue a job now
  stats                           show default queue counters
  scheduled [n]                   list the next n scheduled tasks
`

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(os.Args[1:], os.Stdout); err != nil {
		logger.Error("warehousectl", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("warehousectl", flag.ContinueOnError)
	redisAddr := fs.String("redis", envOr("REDIS_ADDR", "localhost:6379"), "redis address")
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage) }
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("command required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cli := NewJobsCLI(*redisAddr)
	defer cli.Close()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	switch cmd := fs.Arg(0); cmd {
	case "trigger":
		if fs.NArg() < 2 {
			return errors.New("trigger: job name required")
		}
		info, err := cli.Trigger(ctx, fs.Arg(1))
		if err != nil {
			return err
		}
		return enc.Encode(map[string]string{"id": info.ID, "type": info.Type, "queue": info.Queue})
	case "stats":
		stats, err := cli.InspectQueue(ctx)
		if err != nil {
			return err
		}
		return enc.Encode(stats)
	case "scheduled":
		size := 10
		if fs.NArg() > 1 {
			if _, err := fmt.Sscanf(fs.Arg(1), "%d", &size); err != nil {
				return fmt.Errorf("scheduled: invalid size %q", fs.Arg(1))
			}
		}
		tasks, err := cli.ListScheduled(ctx, size)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			fmt.Fprintf(out, "%s\t%s\t%s\n", t.ID, t.Type, t.NextProcessAt.Format(time.RFC3339))
		}
		return nil
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

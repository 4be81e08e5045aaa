package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"
)

// JobsOptions carries the output streams of the jobs command.
type JobsOptions struct {
	Stdout io.Writer
	Stderr io.Writer
}

// JobsCommand runs `jobs trigger|stats|scheduled` and returns the process exit code.
func (c *JobsCLI) JobsCommand(ctx context.Context, args []string, opts JobsOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if len(args) == 0 {
		_, _ = fmt.Fprintln(opts.Stderr, "usage: devis jobs trigger <name> [args] | stats [--json] | scheduled [--size n]")
		return 2
	}

	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			_, _ = fmt.Fprintln(opts.Stderr, "jobs trigger: job name required")
			return 2
		}
		info, err := c.Trigger(ctx, args[1], args[2:])
		if err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "jobs trigger: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintf(opts.Stdout, "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
		return 0
	case "stats":
		fs := flag.NewFlagSet("stats", flag.ContinueOnError)
		fs.SetOutput(opts.Stderr)
		jsonOutput := fs.Bool("json", false, "print JSON")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		stats, err := c.InspectQueue(ctx)
		if err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "jobs stats: %v\n", err)
			return 1
		}
		if *jsonOutput {
			if err := json.NewEncoder(opts.Stdout).Encode(stats); err != nil {
				_, _ = fmt.Fprintf(opts.Stderr, "jobs stats: encode json: %v\n", err)
				return 1
			}
			return 0
		}
		_, _ = fmt.Fprintf(opts.Stdout, "queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Archived)
		return 0
	case "scheduled":
		fs := flag.NewFlagSet("scheduled", flag.ContinueOnError)
		fs.SetOutput(opts.Stderr)
		size := fs.Int("size", 10, "number of tasks to list")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		tasks, err := c.ListScheduled(ctx, *size)
		if err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "jobs scheduled: %v\n", err)
			return 1
		}
		for _, task := range tasks {
			_, _ = fmt.Fprintf(opts.Stdout, "%s\t%s\t%s\n", task.ID, task.Type, task.NextProcessAt.Format(time.RFC3339))
		}
		return 0
	default:
		_, _ = fmt.Fprintf(opts.Stderr, "jobs: unknown subcommand %q\n", args[0])
		return 2
	}
}

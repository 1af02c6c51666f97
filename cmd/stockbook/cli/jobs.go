package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stockbook/stockbook/jobs"
)

// TaskEnqueuer is the subset of *asynq.Client used by the CLI.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    TaskEnqueuer
	inspector jobs.QueueInspector
	closers   []io.Closer
}

// NewJobsCLI initialises the CLI helpers using the provided Redis address.
func NewJobsCLI(redisAddr string) (*JobsCLI, error) {
	if redisAddr == "" {
		return nil, errors.New("jobs cli: redis address required")
	}
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: redisAddr})
	return &JobsCLI{client: client, inspector: inspector, closers: []io.Closer{inspector, client}}, nil
}

// NewJobsCLIWith builds the CLI around existing queue handles.
func NewJobsCLIWith(client TaskEnqueuer, inspector jobs.QueueInspector) *JobsCLI {
	return &JobsCLI{client: client, inspector: inspector}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	for _, closer := range c.closers {
		if closeErr := closer.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// Trigger enqueues a supported job by name. id is the invoice or client id for
// document tasks and is ignored otherwise.
func (c *JobsCLI) Trigger(ctx context.Context, name string, id int64) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	var task *asynq.Task
	var err error
	switch name {
	case jobs.TaskInvoiceDocument:
		task, err = jobs.NewInvoiceDocumentTask(id)
	case jobs.TaskStatementDocument:
		task, err = jobs.NewStatementDocumentTask(id)
	case jobs.TaskIdempotencyCleanup:
		task, err = jobs.NewIdempotencyCleanupTask(jobs.DefaultIdempotencyRetention)
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task)
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
}

// InspectQueues reports the state of every queue the worker consumes.
func (c *JobsCLI) InspectQueues(ctx context.Context) ([]QueueStats, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	names := []string{jobs.QueueDefault, jobs.QueueDocuments}
	out := make([]QueueStats, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stats := QueueStats{Queue: name}
		info, err := c.inspector.GetQueueInfo(name)
		if err != nil && !errors.Is(err, asynq.ErrQueueNotFound) {
			return nil, err
		}
		if info != nil {
			stats.Pending = int(info.Pending)
			stats.Active = int(info.Active)
			stats.Scheduled = int(info.Scheduled)
			stats.Retry = int(info.Retry)
		}
		out = append(out, stats)
	}
	return out, nil
}

// CommandIO carries the output streams of a command.
type CommandIO struct {
	Stdout io.Writer
	Stderr io.Writer
}

func (o *CommandIO) defaults() {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
}

// Run executes `jobs trigger <task> [--id N]` or `jobs stats [--json]` and
// returns the process exit code.
func (c *JobsCLI) Run(ctx context.Context, args []string, out CommandIO) int {
	out.defaults()
	if len(args) == 0 {
		_, _ = fmt.Fprintln(out.Stderr, "usage: stockbook jobs <trigger|stats> [flags]")
		return 2
	}
	switch args[0] {
	case "trigger":
		return c.runTrigger(ctx, args[1:], out)
	case "stats":
		return c.runStats(ctx, args[1:], out)
	default:
		_, _ = fmt.Fprintf(out.Stderr, "jobs: unknown command %q\n", args[0])
		return 2
	}
}

func (c *JobsCLI) runTrigger(ctx context.Context, args []string, out CommandIO) int {
	fs := flag.NewFlagSet("jobs trigger", flag.ContinueOnError)
	fs.SetOutput(out.Stderr)
	id := fs.Int64("id", 0, "invoice id (documents:invoice) or client id (documents:statement)")
	if len(args) == 0 {
		_, _ = fmt.Fprintln(out.Stderr, "jobs trigger: task name required")
		return 2
	}
	name := args[0]
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	info, err := c.Trigger(ctx, name, *id)
	if err != nil {
		_, _ = fmt.Fprintf(out.Stderr, "jobs trigger: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(out.Stdout, "enqueued %s id=%s queue=%s\n", name, info.ID, info.Queue)
	return 0
}

func (c *JobsCLI) runStats(ctx context.Context, args []string, out CommandIO) int {
	fs := flag.NewFlagSet("jobs stats", flag.ContinueOnError)
	fs.SetOutput(out.Stderr)
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	stats, err := c.InspectQueues(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(out.Stderr, "jobs stats: %v\n", err)
		return 1
	}
	if *asJSON {
		if err := json.NewEncoder(out.Stdout).Encode(stats); err != nil {
			_, _ = fmt.Fprintf(out.Stderr, "jobs stats: encode json: %v\n", err)
			return 1
		}
		return 0
	}
	for _, s := range stats {
		_, _ = fmt.Fprintf(out.Stdout, "%-10s pending=%d active=%d scheduled=%d retry=%d\n",
			s.Queue, s.Pending, s.Active, s.Scheduled, s.Retry)
	}
	return 0
}

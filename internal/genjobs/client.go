package genjobs

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/draftforge/draftforge/internal/generation"
	"github.com/draftforge/draftforge/internal/store"
)

type Client struct {
	*river.Client[pgx.Tx]
	policy RetryPolicy
}

type ClientConfig struct {
	Workers            int
	SectionMaxAttempts int
	WorkerID           string
	Policy             RetryPolicy
}

func NewClient(ctx context.Context, pool *pgxpool.Pool, s store.Store, producer generation.Producer, emitter Emitter, cfg ClientConfig) (*Client, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewComposeWorker(s, producer, emitter, cfg.SectionMaxAttempts, cfg.WorkerID, cfg.Policy))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			DefaultQueue: {MaxWorkers: cfg.Workers},
		},
		Workers: workers,
	})
	if err != nil {
		return nil, err
	}

	return &Client{Client: riverClient, policy: cfg.Policy}, nil
}

// InsertJob enqueues a compose job under the client's retry policy.
func (c *Client) InsertJob(ctx context.Context, args ComposeArgs) (int64, error) {
	result, err := c.Insert(ctx, args, &river.InsertOpts{
		Queue:       DefaultQueue,
		MaxAttempts: c.policy.MaxAttempts,
	})
	if err != nil {
		return 0, err
	}
	return result.Job.ID, nil
}

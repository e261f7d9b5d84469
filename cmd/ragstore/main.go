// Copyright 2025 Parcival Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/parcival-labs/ragstore/ai"
	"github.com/parcival-labs/ragstore/ai/openai"
	"github.com/parcival-labs/ragstore/api"
	"github.com/parcival-labs/ragstore/batch"
	"github.com/parcival-labs/ragstore/chunk"
	"github.com/parcival-labs/ragstore/config"
	"github.com/parcival-labs/ragstore/core"
	"github.com/parcival-labs/ragstore/ingest"
	badgerstore "github.com/parcival-labs/ragstore/jobstore/badger"
	"github.com/parcival-labs/ragstore/store"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "ragstore",
		Usage: "Embedding ingestion and retrieval service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server",
				Action: serveCommand,
			},
			{
				Name:      "ingest",
				Usage:     "Parse, chunk and embed local files as one batch job",
				Action:    ingestCommand,
				ArgsUsage: "FILE [FILE...]",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "wait-timeout",
						Usage: "How long to wait for the job to finish",
						Value: 10 * time.Minute,
					},
				},
			},
			{
				Name:   "cleanup",
				Usage:  "Delete embeddings older than the retention window",
				Action: cleanupCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "days-old",
						Usage: "Retention window in days",
						Value: 30,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// services bundles everything a command needs, with a single teardown.
type services struct {
	cfg      *config.Config
	vectors  *store.Store
	jobs     *badgerstore.Store
	queue    *batch.WorkerQueue
	embedder ai.Embedder
	orch     *batch.Orchestrator
	pipeline *ingest.Pipeline
}

func buildServices(c *cli.Context) (*services, func(), error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}

	db := store.Connect(cfg.Database.DSN, cfg.Database.MaxConns, cfg.Database.Verbose)
	vectors, err := store.New(db, store.WithDimension(cfg.Embedding.Dimension))
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	if err := vectors.Initialize(c.Context); err != nil {
		vectors.Close()
		return nil, nil, fmt.Errorf("initialize vector store: %w", err)
	}

	jobs, err := badgerstore.Open(cfg.Jobs.StorePath, false)
	if err != nil {
		vectors.Close()
		return nil, nil, fmt.Errorf("open job store: %w", err)
	}

	var queueOpts []batch.QueueOption
	if cfg.Jobs.TaskTimeout > 0 {
		queueOpts = append(queueOpts, batch.WithTaskTimeout(cfg.Jobs.TaskTimeout))
	}
	queue, err := batch.NewWorkerQueue(cfg.Jobs.Workers, queueOpts...)
	if err != nil {
		jobs.Close()
		vectors.Close()
		return nil, nil, err
	}

	embedder, err := openai.NewEmbedder(ai.NewConfig(
		ai.WithHost(cfg.Embedding.Host),
		ai.WithToken(cfg.Embedding.Token),
		ai.WithModel(cfg.Embedding.Model),
		ai.WithDimension(cfg.Embedding.Dimension),
	))
	if err != nil {
		queue.Release()
		jobs.Close()
		vectors.Close()
		return nil, nil, fmt.Errorf("create embedder: %w", err)
	}

	orch, err := batch.NewOrchestrator(jobs, queue, embedder, vectors, &batch.Config{
		MaxRetries:     cfg.Jobs.MaxRetries,
		RetryBaseDelay: cfg.Jobs.RetryBaseDelay,
		ListDefault:    50,
	})
	if err != nil {
		queue.Release()
		jobs.Close()
		vectors.Close()
		return nil, nil, err
	}

	chunker, err := chunk.NewChunker(cfg.Chunking.MaxChars, cfg.Chunking.OverlapChars)
	if err != nil {
		queue.Release()
		jobs.Close()
		vectors.Close()
		return nil, nil, err
	}
	pipeline, err := ingest.NewPipeline(chunker, orch)
	if err != nil {
		queue.Release()
		jobs.Close()
		vectors.Close()
		return nil, nil, err
	}

	teardown := func() {
		queue.Release()
		if err := jobs.Close(); err != nil {
			slog.Error("closing job store", "err", err)
		}
		if err := vectors.Close(); err != nil {
			slog.Error("closing vector store", "err", err)
		}
	}

	return &services{
		cfg:      cfg,
		vectors:  vectors,
		jobs:     jobs,
		queue:    queue,
		embedder: embedder,
		orch:     orch,
		pipeline: pipeline,
	}, teardown, nil
}

func serveCommand(c *cli.Context) error {
	svc, teardown, err := buildServices(c)
	if err != nil {
		return err
	}
	defer teardown()

	server, err := api.NewServer(
		api.Config{ListenAddr: svc.cfg.Server.Listen},
		svc.orch, svc.vectors, svc.pipeline, svc.embedder,
	)
	if err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		slog.Info("shutting down")
		if err := server.Shutdown(); err != nil {
			slog.Error("server shutdown", "err", err)
		}
	}()

	return server.Run()
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file argument is required")
	}

	svc, teardown, err := buildServices(c)
	if err != nil {
		return err
	}
	defer teardown()

	ctx := c.Context
	for _, path := range c.Args().Slice() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		jobID, chunks, err := svc.pipeline.IngestFile(ctx, filepath.Base(path), data)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", path, err)
		}
		fmt.Fprintf(os.Stderr, "%s: job %s (%d chunks)\n", path, jobID, chunks)

		job, err := waitForJob(ctx, svc.orch, jobID, c.Duration("wait-timeout"))
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%s: %s (%d processed, %d failed)\n", path, job.Status, job.Processed, job.Failed)
		for _, msg := range job.Errors {
			fmt.Fprintf(os.Stderr, "  %s\n", msg)
		}
	}
	return nil
}

func waitForJob(ctx context.Context, orch *batch.Orchestrator, jobID string, timeout time.Duration) (*core.BatchJob, error) {
	deadline := time.Now().Add(timeout)
	for {
		job, err := orch.GetStatus(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job.Status.Terminal() {
			return job, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("job %s still %s after %s", jobID, job.Status, timeout)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func cleanupCommand(c *cli.Context) error {
	svc, teardown, err := buildServices(c)
	if err != nil {
		return err
	}
	defer teardown()

	deleted, err := svc.vectors.Cleanup(c.Context, c.Int("days-old"))
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "deleted %d embeddings older than %d days\n", deleted, c.Int("days-old"))
	return nil
}

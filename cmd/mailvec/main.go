// Copyright 2025 Poiesic Systems
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
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/mailvec"
	"github.com/poiesic/mailvec/ai"
	"github.com/poiesic/mailvec/reembed"
	"github.com/poiesic/mailvec/storage/chroma"
)

func main() {
	// Optional .env for local development; absence is not an error.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "mailvec",
		Usage: "Email embedding and semantic search pipeline",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				Value:   "./mailvec_db",
				EnvVars: []string{"MAILVEC_DB"},
			},
			&cli.StringFlag{
				Name:    "collection",
				Aliases: []string{"c"},
				Usage:   "Collection name to operate on",
				Value:   "emails",
				EnvVars: []string{"MAILVEC_COLLECTION"},
			},
			&cli.StringFlag{
				Name:    "embedding-host",
				Usage:   "Embedding service host URL",
				Value:   "http://localhost:11434/v1",
				EnvVars: []string{"MAILVEC_EMBEDDING_HOST"},
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				Value:   "embeddinggemma",
				EnvVars: []string{"MAILVEC_EMBEDDING_MODEL"},
			},
			&cli.IntFlag{
				Name:  "embedding-dimension",
				Usage: "Vector dimension for models not in the built-in table",
			},
			&cli.StringFlag{
				Name:    "chroma-url",
				Usage:   "Use a remote Chroma server instead of the embedded store",
				EnvVars: []string{"MAILVEC_CHROMA_URL"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest a bulk export file into the collection",
				ArgsUsage: "FILE",
				Action:    ingestCommand,
			},
			{
				Name:      "webhook",
				Usage:     "Ingest a single message event from a file or stdin",
				ArgsUsage: "[FILE]",
				Action:    webhookCommand,
			},
			{
				Name:      "search",
				Usage:     "Search the collection",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Maximum number of results",
						Value:   10,
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show collection statistics",
				Action: statsCommand,
			},
			{
				Name:   "reembed",
				Usage:  "Regenerate all embeddings with the configured model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N records",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openService builds the service from the global flags.
func openService(c *cli.Context) (*mailvec.Service, error) {
	aiOpts := []ai.ConfigOption{
		ai.WithHost(c.String("embedding-host")),
		ai.WithModel(c.String("embedding-model")),
	}
	if dim := c.Int("embedding-dimension"); dim > 0 {
		aiOpts = append(aiOpts, ai.WithDimension(dim))
	}
	aiConfig := ai.NewConfig(aiOpts...)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid embedding configuration: %w", err)
	}

	serviceOpts := []mailvec.ServiceOption{mailvec.WithAIConfig(aiConfig)}
	if chromaURL := c.String("chroma-url"); chromaURL != "" {
		store, err := chroma.Open(chromaURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Chroma: %w", err)
		}
		serviceOpts = append(serviceOpts, mailvec.WithStore(store))
	}

	return mailvec.NewService(c.String("db"), c.String("collection"), serviceOpts...)
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: mailvec ingest FILE")
	}

	payload, err := os.ReadFile(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}

	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	result, err := service.Ingest(context.Background(), payload)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	return printJSON(result)
}

func webhookCommand(c *cli.Context) error {
	var payload []byte
	var err error
	if c.NArg() > 0 && c.Args().First() != "-" {
		payload, err = os.ReadFile(c.Args().First())
	} else {
		payload, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("failed to read event: %w", err)
	}

	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	result, err := service.Ingest(context.Background(), payload)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	return printJSON(result)
}

func searchCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: mailvec search QUERY")
	}

	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	matches, err := service.Search(context.Background(), c.Args().First(), c.Int("top-k"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(matches) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for i, match := range matches {
		preview := match.ContentPreview
		if len(preview) > 120 {
			preview = preview[:120] + "..."
		}
		preview = strings.ReplaceAll(preview, "\n", " ")
		fmt.Printf("%2d. %-32s score=%.4f [%s]\n    %s\n",
			i+1, match.EmailID, match.Score, match.Type.String(), preview)
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	stats, err := service.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}
	return printJSON(stats)
}

func reembedCommand(c *cli.Context) error {
	config := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Collection: %s\n", c.String("collection"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := service.Reembed(context.Background(), config, os.Stderr); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
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

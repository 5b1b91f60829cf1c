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
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/quarry"
	"github.com/poiesic/quarry/ai"
	"github.com/poiesic/quarry/budget"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/search"
)

func main() {
	app := &cli.App{
		Name:  "quarry",
		Usage: "Hybrid retrieval engine over ingested document collections",
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
				Usage:   "Path to the database directory",
				Value:   "quarry.db",
				EnvVars: []string{"QUARRY_DB"},
			},
			&cli.StringFlag{
				Name:    "openai-api-key",
				Usage:   "API key for the documentation embedding backend",
				EnvVars: []string{"OPENAI_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "jina-api-key",
				Usage:   "API key for the code and writing embedding backends",
				EnvVars: []string{"JINA_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "local-host",
				Usage:   "Base URL of the free local embedding backend",
				Value:   "http://localhost:11434/v1",
				EnvVars: []string{"QUARRY_LOCAL_HOST"},
			},
			&cli.Float64Flag{
				Name:    "monthly-budget",
				Usage:   "Monthly spending ceiling for paid providers in USD",
				Value:   20.00,
				EnvVars: []string{"QUARRY_MONTHLY_BUDGET"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:  "collection",
				Usage: "Manage collections",
				Subcommands: []*cli.Command{
					{
						Name:   "create",
						Usage:  "Create a new collection",
						Action: collectionCreateCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "name", Usage: "Unique collection name", Required: true},
							&cli.StringFlag{Name: "description", Usage: "Free-form description"},
							&cli.BoolFlag{Name: "personal", Usage: "Mark as personal writing (routes to the writing provider)"},
						},
					},
					{
						Name:   "list",
						Usage:  "List collections",
						Action: collectionListCommand,
					},
				},
			},
			{
				Name:   "ingest",
				Usage:  "Ingest a plain-text file into a collection",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "collection", Aliases: []string{"c"}, Usage: "Target collection name", Required: true},
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Path to the extracted text file", Required: true},
					&cli.StringFlag{Name: "title", Usage: "Document title (defaults to the file name)"},
					&cli.StringFlag{Name: "doc-type", Usage: "Declared document type (code, documentation, personal)"},
					&cli.StringFlag{Name: "language", Usage: "Declared natural or programming language"},
					&cli.StringFlag{Name: "source-quality", Usage: "Source trust tier (official, verified, community, unknown)"},
					&cli.StringFlag{Name: "last-verified", Usage: "RFC3339 timestamp the source was last verified"},
				},
			},
			{
				Name:      "search",
				Usage:     "Search a collection",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "collection", Aliases: []string{"c"}, Usage: "Collection name", Required: true},
					&cli.StringFlag{Name: "mode", Usage: "Search mode (vector, hybrid)", Value: "vector"},
					&cli.IntFlag{Name: "top-k", Usage: "Number of results", Value: search.DefaultTopK},
					&cli.BoolFlag{Name: "trust", Usage: "Apply trust and recency scoring"},
					&cli.Float64Flag{Name: "vector-weight", Usage: "Fusion weight for the vector branch", Value: search.DefaultWeights.Vector},
					&cli.Float64Flag{Name: "lexical-weight", Usage: "Fusion weight for the lexical branch", Value: search.DefaultWeights.Lexical},
				},
			},
			{
				Name:  "budget",
				Usage: "Inspect paid-provider spend",
				Subcommands: []*cli.Command{
					{
						Name:   "summary",
						Usage:  "Show spend for a budget period",
						Action: budgetSummaryCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "period", Usage: "Budget period (YYYY-MM, default current)"},
						},
					},
					{
						Name:   "alerts",
						Usage:  "Show recent budget alerts",
						Action: budgetAlertsCommand,
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "limit", Usage: "Maximum alerts to show", Value: 10},
						},
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Replace a document's chunk vectors with a new provider",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "document", Usage: "Document ID", Required: true},
					&cli.StringFlag{Name: "provider", Usage: "Target provider (local, docs, code, writing); empty re-runs routing"},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openDatabase wires the engine from the global flags.
func openDatabase(c *cli.Context) (*quarry.Database, error) {
	cfg := ai.DefaultConfig()
	cfg.Local.Host = c.String("local-host")
	cfg.Docs.APIKey = c.String("openai-api-key")
	cfg.Code.APIKey = c.String("jina-api-key")
	cfg.Writing.APIKey = c.String("jina-api-key")

	return quarry.NewDatabase(c.String("db"),
		quarry.WithAIConfig(cfg),
		quarry.WithBudgetConfig(budget.NewConfig(
			budget.WithMonthlyLimit(c.Float64("monthly-budget")),
		)),
	)
}

func collectionCreateCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	collection, err := db.CreateCollection(context.Background(),
		c.String("name"), c.String("description"), c.Bool("personal"))
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	fmt.Printf("created collection %q (id %d)\n", collection.Name, collection.Id)
	return nil
}

func collectionListCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	collections, err := db.CollectionRepository().ListCollections(context.Background())
	if err != nil {
		return err
	}
	if len(collections) == 0 {
		fmt.Println("no collections")
		return nil
	}
	for _, collection := range collections {
		flags := ""
		if collection.Personal {
			flags = " [personal]"
		}
		fmt.Printf("%8d  %s%s  %s\n", collection.Id, collection.Name, flags, collection.Description)
	}
	return nil
}

func ingestCommand(c *cli.Context) error {
	text, err := os.ReadFile(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := context.Background()

	collection, err := db.CollectionRepository().GetCollectionByName(ctx, c.String("collection"))
	if err != nil {
		return fmt.Errorf("failed to resolve collection %q: %w", c.String("collection"), err)
	}

	title := c.String("title")
	if title == "" {
		title = c.String("file")
	}
	metadata := map[string]string{}
	for flag, key := range map[string]string{
		"doc-type":       core.MetaDocType,
		"language":       core.MetaLanguage,
		"source-quality": core.MetaSourceQuality,
		"last-verified":  core.MetaLastVerified,
	} {
		if value := c.String(flag); value != "" {
			metadata[key] = value
		}
	}

	document, err := db.AddDocument(ctx, collection.Id, title, "text/plain", metadata)
	if err != nil {
		return fmt.Errorf("failed to register document: %w", err)
	}

	pipeline, err := db.NewIngestionPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	started := time.Now()
	if err := pipeline.Ingest(ctx, document.Id, string(text)); err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	chunks, err := db.ChunkRepository().GetChunksByDocument(ctx, document.Id)
	if err != nil {
		return err
	}
	fmt.Printf("ingested document %d (%d chunks, provider %s, %s)\n",
		document.Id, len(chunks), chunkProvider(chunks), time.Since(started).Round(time.Millisecond))
	return nil
}

func chunkProvider(chunks []*core.Chunk) string {
	if len(chunks) == 0 {
		return "none"
	}
	return chunks[0].Embedding.Provider
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("usage: quarry search --collection <name> <query>")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := context.Background()

	collection, err := db.CollectionRepository().GetCollectionByName(ctx, c.String("collection"))
	if err != nil {
		return fmt.Errorf("failed to resolve collection %q: %w", c.String("collection"), err)
	}

	searcher, err := db.NewSearcher()
	if err != nil {
		return err
	}

	response, err := searcher.Search(ctx, search.Request{
		Query:             query,
		CollectionID:      collection.Id,
		Mode:              search.Mode(c.String("mode")),
		TopK:              c.Int("top-k"),
		ApplyTrustScoring: c.Bool("trust"),
		Weights: search.Weights{
			Vector:  c.Float64("vector-weight"),
			Lexical: c.Float64("lexical-weight"),
		},
	})
	if err != nil {
		return err
	}

	if response.Degraded {
		fmt.Println("warning: lexical branch unavailable, results are vector-only")
	}
	if len(response.Results) == 0 {
		fmt.Println("no results")
		return nil
	}
	for i, result := range response.Results {
		fmt.Printf("%2d. [%.4f] %s (document %d, chunk %d)\n",
			i+1, result.Score, result.DocumentTitle, result.DocumentID, result.ChunkID)
		fmt.Printf("    %s\n", excerpt(result.Text, 160))
	}
	return nil
}

// excerpt collapses whitespace and truncates on a word boundary.
func excerpt(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= max {
		return text
	}
	cut := strings.LastIndex(text[:max], " ")
	if cut <= 0 {
		cut = max
	}
	return text[:cut] + "..."
}

func budgetSummaryCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	period := c.String("period")
	if period == "" {
		period = core.PeriodOf(time.Now())
	}
	summary, err := db.BudgetSummary(context.Background(), period)
	if err != nil {
		return err
	}

	fmt.Printf("period %s: $%.4f of $%.2f (%.1f%%)\n",
		summary.Period, summary.CurrentSpend, summary.Budget, summary.PercentageUsed)
	for key, cost := range summary.Breakdown {
		fmt.Printf("  %-10s %-12s $%.4f\n", key.Provider, key.Operation, cost)
	}
	return nil
}

func budgetAlertsCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	alerts, err := db.RecentAlerts(context.Background(), c.Int("limit"))
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		fmt.Println("no alerts")
		return nil
	}
	for _, alert := range alerts {
		ack := ""
		if alert.Acknowledged {
			ack = " (acknowledged)"
		}
		fmt.Printf("%s  %-7s period %s, $%.4f at %.0f%% threshold%s\n",
			alert.CreatedAt.Format(time.RFC3339), alert.Type, alert.Period,
			alert.SpendAtTrigger, alert.Threshold*100, ack)
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := db.NewIngestionPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	documentID := core.ID(c.Uint64("document"))
	provider := ai.ProviderName(c.String("provider"))
	if err := pipeline.Reembed(context.Background(), documentID, provider); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	fmt.Printf("reembedded document %d\n", documentID)
	return nil
}

func setupLogger(c *cli.Context) error {
	var level slog.Level
	switch strings.ToLower(c.String("log-level")) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", c.String("log-level"))
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xhad/menurag/internal/models"
	cfgPkg "github.com/xhad/menurag/pkg/config"
	"github.com/xhad/menurag/pkg/indexer"
	"github.com/xhad/menurag/pkg/ingest"
	"github.com/xhad/menurag/pkg/llm"
	"github.com/xhad/menurag/pkg/rag"
	"github.com/xhad/menurag/pkg/source"
	"github.com/xhad/menurag/pkg/store"
	"github.com/xhad/menurag/server"
)

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Normalize and deduplicate the restaurant sources into one file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			_, err = runIngest(cmd.Context(), cfg, log)
			return err
		},
	}
}

func newIndexCmd() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Embed the consolidated menu items into the vector index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			items, err := ingest.LoadConsolidated(cfg.Ingest.Output)
			if err != nil {
				return err
			}
			return runIndex(cmd.Context(), cfg, log, items, reset)
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "Clear the collection before indexing")
	return cmd
}

func newBuildCmd() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run ingest followed by index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			items, err := runIngest(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			return runIndex(cmd.Context(), cfg, log, items, reset)
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "Clear the collection before indexing")
	return cmd
}

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a single question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			svc := rag.Open(cmd.Context(), cfg, log)
			defer svc.Close()

			fmt.Println(svc.GetResponse(cmd.Context(), strings.Join(args, " "), cfg.Query.TopK))
			return nil
		},
	}
}

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Ask questions interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			svc := rag.Open(cmd.Context(), cfg, log)
			defer svc.Close()
			if !svc.Ready() {
				color.Yellow("Warning: %v", svc.Err())
			}
			return chat(cmd.Context(), svc, cfg.Query.TopK)
		},
	}
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the websocket chat endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()
			if addr == "" {
				addr = cfg.Server.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc := rag.Open(ctx, cfg, log)
			defer svc.Close()

			ws := server.NewWithConfig(server.ServerConfig{TopK: cfg.Query.TopK}, svc, log)
			return ws.Run(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}

func runIngest(ctx context.Context, cfg *cfgPkg.Config, log *zap.Logger) ([]models.CanonicalMenuItem, error) {
	color.Blue("\nConsolidating %d restaurant sources\n", len(cfg.Ingest.Sources))

	bar := getProgressBar(len(cfg.Ingest.Sources), "📄 Loading sources...")
	loader := source.NewWithConfig(source.LoaderConfig{
		RateLimit: cfg.Ingest.RateLimit,
		Timeout:   cfg.Ingest.Timeout,
		OnProgress: func(cfgPkg.Source) {
			_ = bar.Add(1)
		},
	})

	items, report, err := ingest.New(loader, log).Run(ctx, cfg.Ingest.Sources)
	_ = bar.Finish()
	fmt.Println()

	for _, sr := range report.Sources {
		if sr.Error != "" {
			color.Red("✗ %s (%s): %s", sr.Restaurant, sr.Path, sr.Error)
			continue
		}
		color.Green("✓ %s: %d items [%s], %d dropped", sr.Restaurant, sr.Items, sr.Shape, sr.Dropped)
	}
	if err != nil {
		return nil, err
	}

	if err := ingest.WriteConsolidated(cfg.Ingest.Output, items); err != nil {
		return nil, err
	}
	color.Green("\n✓ %d unique items (%d duplicates skipped) written to %s\n",
		report.Unique, report.Duplicates, cfg.Ingest.Output)
	return items, nil
}

func runIndex(ctx context.Context, cfg *cfgPkg.Config, log *zap.Logger, items []models.CanonicalMenuItem, reset bool) error {
	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		BaseURL:    cfg.Embedding.BaseURL,
		APIKey:     cfg.Embedding.APIKey,
		Dimensions: cfg.Embedding.Dimensions,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %w", err)
	}

	vs, err := store.New(ctx, store.Config{
		Backend:         cfg.Index.Backend,
		Path:            cfg.Index.Path,
		Collection:      cfg.Index.Collection,
		Compress:        cfg.Index.Compress,
		DatabaseURL:     cfg.Index.DatabaseURL,
		VectorDim:       cfg.Index.VectorDim,
		CreateIfMissing: true,
	}, embedder, log)
	if err != nil {
		return fmt.Errorf("failed to initialize vector store: %w", err)
	}
	defer vs.Close()

	bar := getProgressBar(len(items), "💾 Storing in vector database...")
	ix := indexer.NewWithConfig(indexer.IndexerConfig{
		BatchSize: cfg.Index.BatchSize,
		Reset:     reset,
		OnBatch: func(_, size int, _ error) {
			_ = bar.Add(size)
		},
	}, vs, log)

	report, err := ix.Index(ctx, items)
	_ = bar.Finish()
	fmt.Println()
	if err != nil {
		return err
	}

	for _, b := range report.FailedBatches {
		color.Red("✗ batch %d failed", b)
	}
	color.Green("\n✓ Indexed %d of %d items; collection now holds %d chunks\n",
		report.Written, report.Total, report.Count)
	return nil
}

func chat(ctx context.Context, svc *rag.Service, topK int) error {
	color.Cyan("\nAsk about the restaurant menus (type 'exit' to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	var history []string
	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		query := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(query) {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "history":
			for i, h := range history {
				fmt.Printf("%d. %s\n", i+1, h)
			}
			continue
		}

		spinner := getSpinner("🔍 Searching menus...")
		text := svc.GetResponse(ctx, query, topK)
		_ = spinner.Finish()
		fmt.Print("\r")

		history = append(history, query)
		assistantPrompt("Assistant: %s\n", text)
	}
	return scanner.Err()
}

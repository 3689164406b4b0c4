// Command parlsearch ingests UK parliamentary records into a hybrid
// search index and serves queries over it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	sqlitecache "github.com/openparl/parlsearch/internal/adapters/driven/cache/sqlite"
	"github.com/openparl/parlsearch/internal/adapters/driven/embedding/openai"
	"github.com/openparl/parlsearch/internal/adapters/driven/index/elastic"
	"github.com/openparl/parlsearch/internal/adapters/driving/cli"
	"github.com/openparl/parlsearch/internal/config"
	"github.com/openparl/parlsearch/internal/connectors"
	"github.com/openparl/parlsearch/internal/connectors/hansard"
	"github.com/openparl/parlsearch/internal/connectors/questions"
	"github.com/openparl/parlsearch/internal/core/services"
	hansardnorm "github.com/openparl/parlsearch/internal/normalisers/hansard"
	questionsnorm "github.com/openparl/parlsearch/internal/normalisers/questions"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("PARLSEARCH_CONFIG"))
	if err != nil {
		return err
	}

	index := elastic.NewIndex(elastic.Config{
		BaseURL:  cfg.Elastic.BaseURL,
		APIKey:   cfg.Elastic.APIKey,
		Username: cfg.Elastic.Username,
		Password: cfg.Elastic.Password,
	})
	defer index.Close()

	svc := cli.Services{
		Config: cfg,
		InitIndex: func(cmd *cobra.Command) error {
			if err := index.EnsureCollection(cmd.Context(), cfg.QuestionsIndex, cfg.Embedding.Dimensions); err != nil {
				return err
			}
			return index.EnsureCollection(cmd.Context(), cfg.HansardIndex, cfg.Embedding.Dimensions)
		},
		DeleteIndex: func(cmd *cobra.Command) error {
			if err := index.DeleteCollection(cmd.Context(), cfg.QuestionsIndex); err != nil {
				return err
			}
			return index.DeleteCollection(cmd.Context(), cfg.HansardIndex)
		},
	}

	// Embedding-dependent services only wire up when a key is present;
	// init-index still works without one.
	if cfg.Embedding.APIKey != "" {
		embedder, err := openai.NewEmbeddingService(openai.Config{
			APIKey:          cfg.Embedding.APIKey,
			BaseURL:         cfg.Embedding.BaseURL,
			Model:           cfg.Embedding.Model,
			AzureAPIVersion: cfg.Embedding.AzureAPIVersion,
			Dimensions:      cfg.Embedding.Dimensions,
		})
		if err != nil {
			return err
		}
		defer embedder.Close()

		batcherOpts := []services.BatcherOption{
			services.WithBatchSize(cfg.Embedding.BatchSize),
			services.WithEmbedRate(cfg.Embedding.RatePerSecond),
		}
		cache, err := sqlitecache.NewCache(cfg.DataDir, embedder.ModelName())
		if err != nil {
			return fmt.Errorf("opening embedding cache: %w", err)
		}
		defer cache.Close()
		batcherOpts = append(batcherOpts, services.WithCache(cache))

		batcher := services.NewBatcher(embedder, batcherOpts...)

		orchestrator := services.NewOrchestrator(batcher, index, cfg.Embedding.Dimensions,
			services.WithChunkSize(cfg.Ingestion.ChunkSize),
			services.WithChunkConcurrency(cfg.Ingestion.Concurrency),
		)

		// Each upstream API gets its own limiter and client.
		hansardClient := connectors.NewClient(connectors.NewLimiter(
			cfg.Ingestion.RatePerSecond, 1, cfg.Ingestion.MaxInFlight))
		questionsClient := connectors.NewClient(connectors.NewLimiter(
			cfg.Ingestion.RatePerSecond, 1, cfg.Ingestion.MaxInFlight))

		orchestrator.RegisterSource(
			hansard.NewConnector(hansardClient, cfg.Hansard.BaseURL, cfg.Hansard.PageSize),
			hansardnorm.NewNormaliser(),
			cfg.HansardIndex,
			hansard.NewParentsEnricher(hansardClient, cfg.Hansard.BaseURL),
		)
		orchestrator.RegisterSource(
			questions.NewConnector(questionsClient, cfg.Questions.BaseURL, cfg.Questions.PageSize),
			questionsnorm.NewNormaliser(),
			cfg.QuestionsIndex,
			questions.NewFullTextEnricher(questionsClient, cfg.Questions.BaseURL),
		)

		svc.Ingest = orchestrator
		svc.Search = services.NewSearcher(index, embedder,
			cfg.QuestionsIndex, cfg.HansardIndex, cfg.Search.MinScore)
	}

	cli.SetServices(svc)
	return cli.Execute()
}

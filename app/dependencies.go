package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/pregcare/rag-service/config"
	"github.com/pregcare/rag-service/internal/notify"
	"github.com/pregcare/rag-service/services/cache"
	"github.com/pregcare/rag-service/services/chat"
	"github.com/pregcare/rag-service/services/embedding"
	"github.com/pregcare/rag-service/services/generation"
	"github.com/pregcare/rag-service/services/memory"
	"github.com/pregcare/rag-service/services/retrieval"
	"github.com/pregcare/rag-service/services/safety"
)

// Dependencies holds all application dependencies. This is the central
// wiring point for dependency injection.
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger

	Encoder    embedding.Encoder
	Cache      *cache.SemanticCache // nil when caching is disabled
	Retriever  *retrieval.Service
	Sessions   *memory.Registry
	Gate       *safety.Gate
	Generator  *generation.Service
	Chat       *chat.Service
	Dispatcher *notify.Dispatcher

	vectorStore *retrieval.PGVectorStore // nil when unconfigured or unreachable
}

// NewDependencies creates and wires all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.initEncoder(cfg)
	deps.initCache(ctx, cfg)
	deps.initRetrieval(ctx, cfg)
	deps.initGenerator(cfg)
	deps.initDispatcher(cfg)

	deps.Sessions = memory.NewRegistry(cfg.Memory.MaxSessions, cfg.Memory.MaxHistory, logger)
	deps.Gate = safety.NewGate(logger)
	deps.Chat = chat.NewService(
		cacheOrNil(deps.Cache),
		deps.Gate,
		deps.Retriever,
		deps.Generator,
		deps.Sessions,
		deps.Dispatcher,
		logger,
	)

	logger.Info("all dependencies initialized")
	return deps, nil
}

// cacheOrNil avoids handing the chat service a typed nil interface.
func cacheOrNil(c *cache.SemanticCache) chat.Cache {
	if c == nil {
		return nil
	}
	return c
}

func (d *Dependencies) initEncoder(cfg *config.Config) {
	d.Encoder = embedding.NewHTTPEncoder(embedding.Config{
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    cfg.Embedding.Timeout,
	})
	d.Logger.Info("embedding encoder initialized",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions))
}

func (d *Dependencies) initCache(ctx context.Context, cfg *config.Config) {
	if !cfg.Cache.Enabled {
		d.Logger.Info("semantic cache disabled by configuration")
		return
	}

	var store cache.SnapshotStore
	if cfg.Cache.SnapshotPath != "" {
		fileStore, err := cache.NewFileStore(cfg.Cache.SnapshotPath)
		if err != nil {
			d.Logger.Warn("cache persistence unavailable, running in-memory only", zap.Error(err))
		} else {
			store = fileStore
		}
	}

	d.Cache = cache.New(cache.Config{
		SimilarityThreshold: cfg.Cache.SimilarityThreshold,
		MaxSize:             cfg.Cache.MaxSize,
		TTL:                 cfg.Cache.TTL,
	}, d.Encoder, store, d.Logger)

	if store != nil {
		d.Cache.Load(ctx)
	}
	d.Logger.Info("semantic cache initialized",
		zap.Float64("similarity_threshold", cfg.Cache.SimilarityThreshold),
		zap.Int("max_size", cfg.Cache.MaxSize))
}

func (d *Dependencies) initRetrieval(ctx context.Context, cfg *config.Config) {
	corpus, err := retrieval.LoadCorpus(cfg.Retrieval.CorpusPath)
	if err != nil {
		d.Logger.Warn("failed to load fallback corpus", zap.Error(err))
	}
	d.Logger.Info("fallback corpus loaded", zap.Int("documents", len(corpus)))

	var store retrieval.Store
	if cfg.Database.Configured() {
		pgStore, err := retrieval.NewPGVectorStore(ctx, cfg.Database.DSN(), cfg.Database.ChunkTable)
		if err != nil {
			d.Logger.Warn("vector store unreachable, retrieval will use local corpus",
				zap.String("database", cfg.Database.LogString()),
				zap.Error(err))
		} else {
			d.vectorStore = pgStore
			store = pgStore
			d.Logger.Info("vector store connected",
				zap.String("database", cfg.Database.LogString()))
		}
	} else {
		d.Logger.Info("vector store unconfigured, retrieval will use local corpus")
	}

	d.Retriever = retrieval.NewService(retrieval.Config{
		TopK:            cfg.Retrieval.TopK,
		MaxContextChars: cfg.Retrieval.MaxContextChars,
	}, store, d.Encoder, corpus, d.Logger)
}

func (d *Dependencies) initGenerator(cfg *config.Config) {
	client := generation.NewGeminiClient(generation.GeminiConfig{
		APIKey:          cfg.Generator.APIKey,
		Model:           cfg.Generator.Model,
		BaseURL:         cfg.Generator.BaseURL,
		Timeout:         cfg.Generator.Timeout,
		Temperature:     cfg.Generator.Temperature,
		MaxOutputTokens: cfg.Generator.MaxOutputTokens,
	})
	d.Generator = generation.NewService(client, generation.RetryPolicy{
		MaxAttempts: cfg.Generator.MaxAttempts,
		BaseDelay:   cfg.Generator.BaseDelay,
		Multiplier:  2,
	}, d.Logger)
	d.Logger.Info("generator initialized", zap.String("model", cfg.Generator.Model))
}

func (d *Dependencies) initDispatcher(cfg *config.Config) {
	d.Dispatcher = notify.NewDispatcher(
		&notify.LogSink{Logger: d.Logger},
		cfg.Notify.QueueSize,
		cfg.Notify.Workers,
		d.Logger,
	)
}

// Close releases resources and flushes the cache snapshot.
func (d *Dependencies) Close() {
	if d.Cache != nil {
		d.Cache.Snapshot()
	}
	if d.Dispatcher != nil {
		d.Dispatcher.Close()
	}
	if d.vectorStore != nil {
		d.vectorStore.Close()
	}
}

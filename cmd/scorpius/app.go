package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/cisbeo/scorpiusProject-sub002/internal/ai"
	"github.com/cisbeo/scorpiusProject-sub002/internal/compliance"
	"github.com/cisbeo/scorpiusProject-sub002/internal/config"
	"github.com/cisbeo/scorpiusProject-sub002/internal/db"
	"github.com/cisbeo/scorpiusProject-sub002/internal/embedcache"
	"github.com/cisbeo/scorpiusProject-sub002/internal/handler"
	"github.com/cisbeo/scorpiusProject-sub002/internal/index"
	"github.com/cisbeo/scorpiusProject-sub002/internal/job"
	"github.com/cisbeo/scorpiusProject-sub002/internal/matching"
	"github.com/cisbeo/scorpiusProject-sub002/internal/middleware"
	"github.com/cisbeo/scorpiusProject-sub002/internal/querycache"
	"github.com/cisbeo/scorpiusProject-sub002/internal/rag"
	"github.com/cisbeo/scorpiusProject-sub002/internal/repo"
	"github.com/cisbeo/scorpiusProject-sub002/internal/schedule"
	"github.com/cisbeo/scorpiusProject-sub002/internal/service"
)

func openDB(cfg *config.Config) (*sql.DB, error) {
	conn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return conn, nil
}

// storage is the index and cache as every command needs them.
type storage struct {
	chunks *repo.ChunkEmbeddingRepo
	index  *index.Index
	mem    *index.MemoryStore
	cache  *querycache.Cache
}

func newStorage(cfg *config.Config, conn *sql.DB) *storage {
	st := &storage{chunks: repo.NewChunkEmbeddingRepo(conn)}
	var store index.Store = st.chunks
	if cfg.Index.Store == "mirror" {
		st.mem = index.NewMemoryStore()
		store = index.NewMirror(st.chunks, st.mem)
	}
	st.index = index.New(store, cfg.Index.Dimension)
	st.cache = querycache.New(repo.NewQueryCacheRepo(conn))
	return st
}

func buildAIManager(cfg config.AIConfig, maxContextChars int) (*ai.Manager, error) {
	var gens []ai.GeneratorEntry
	var embs []ai.EmbedderEntry
	for _, b := range cfg.Backends() {
		if b.Provider != "" {
			p, err := ai.NewProvider(b.Provider, b.Data)
			if err != nil {
				return nil, fmt.Errorf("init ai provider %s: %w", b.Provider, err)
			}
			gens = append(gens, ai.GeneratorEntry{Name: p.Name() + "/" + b.Model, Generator: ai.NewGenerator(p, b.Model)})
		}
		embedName := b.EmbedProvider
		if embedName == "" {
			embedName = b.Provider
		}
		if embedName == "" || b.EmbedModel == "" {
			continue
		}
		ep, err := ai.NewEmbedProvider(embedName, b.Data)
		if err != nil {
			return nil, fmt.Errorf("init embed provider %s: %w", embedName, err)
		}
		e := ai.NewEmbedder(ep, b.EmbedModel)
		embs = append(embs, ai.EmbedderEntry{Name: e.ModelName(), Embedder: e})
	}
	embedder := embedcache.WrapLruCacheToEmbedder(
		ai.NewGroupEmbedder(embs),
		cfg.EmbedCacheSize,
		time.Duration(cfg.EmbedCacheTTL)*time.Second,
	)
	return ai.NewManager(ai.NewGroupGenerator(gens), embedder, ai.ManagerConfig{
		Timeout:         cfg.Timeout,
		MaxContextChars: maxContextChars,
	}), nil
}

func loadRules(cfg config.ComplianceConfig) (compliance.RuleSet, error) {
	if cfg.RulesFile == "" {
		return compliance.DefaultRuleSet(), nil
	}
	return compliance.LoadRuleSet(cfg.RulesFile)
}

func newScheduler(cfg *config.Config, st *storage) (*schedule.CronScheduler, error) {
	sched := schedule.NewCronScheduler()
	if err := sched.AddJob(job.NewQueryCachePurgeJob(st.cache), cfg.Schedule.CachePurgeSpec); err != nil {
		return nil, err
	}
	if err := sched.AddJob(job.NewChunkTombstonePurgeJob(st.index, cfg.Index.TombstoneDays), cfg.Schedule.TombstonePurgeSpec); err != nil {
		return nil, err
	}
	return sched, nil
}

func runServer(cfg *config.Config) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("index_store", cfg.Index.Store),
		zap.Int("dimension", cfg.Index.Dimension),
		zap.String("ai_provider", cfg.AI.Provider),
	)
	conn, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	st := newStorage(cfg, conn)
	manager, err := buildAIManager(cfg.AI, cfg.RAG.MaxContextChars)
	if err != nil {
		return err
	}
	rules, err := loadRules(cfg.Compliance)
	if err != nil {
		return err
	}

	docRepo := repo.NewDocumentRepo(conn)
	matchRepo := repo.NewCapabilityMatchRepo(conn)

	var indexOpts []service.IndexOption
	if st.mem != nil {
		indexOpts = append(indexOpts, service.WithRebuild(st.chunks, st.mem))
	}
	indexService := service.NewIndexService(st.index, docRepo, manager, indexOpts...)
	if _, err := indexService.Rebuild(context.Background()); err != nil {
		return err
	}

	pipeline := rag.New(st.index, st.cache, manager, manager, rag.Config{
		TopK:             cfg.RAG.TopK,
		MinScore:         cfg.RAG.MinScore,
		SimilarityWeight: cfg.RAG.SimilarityWeight,
		ModelWeight:      cfg.RAG.ModelWeight,
		CacheTTLSeconds:  cfg.Cache.TTLSeconds,
	})
	ragService := service.NewRAGService(pipeline, docRepo, repo.NewFeedbackRepo(conn), ai.RetryConfig{
		MaxRetries: cfg.AI.MaxRetries,
		RetryDelay: time.Duration(cfg.AI.RetryDelayMs) * time.Millisecond,
		MaxDelay:   time.Duration(cfg.AI.MaxDelayMs) * time.Millisecond,
	})
	engine := matching.NewEngine(matching.Config{
		GapThreshold:           cfg.Matching.GapThreshold,
		StrengthThreshold:      cfg.Matching.StrengthThreshold,
		TechnicalWeight:        cfg.Matching.TechnicalWeight,
		FunctionalWeight:       cfg.Matching.FunctionalWeight,
		MandatoryWeight:        cfg.Matching.MandatoryWeight,
		OptionalWeight:         cfg.Matching.OptionalWeight,
		NiceToHaveWeight:       cfg.Matching.NiceToHaveWeight,
		LowConfidenceThreshold: cfg.Matching.LowConfidenceThreshold,
	})
	matchService := service.NewMatchService(engine, docRepo, repo.NewRequirementRepo(conn), repo.NewCompanyProfileRepo(conn), matchRepo)
	checker := compliance.NewChecker(compliance.Weights{
		Critical: cfg.Compliance.CriticalWeight,
		Major:    cfg.Compliance.MajorWeight,
		Minor:    cfg.Compliance.MinorWeight,
	})
	bidService := service.NewBidService(checker, rules, repo.NewBidResponseRepo(conn), repo.NewComplianceCheckRepo(conn), matchRepo)

	deps := handler.RouterDeps{
		Index:       handler.NewIndexHandler(indexService),
		RAG:         handler.NewRAGHandler(ragService),
		Matches:     handler.NewMatchHandler(matchService),
		Bids:        handler.NewBidHandler(bidService),
		JWTSecret:   []byte(cfg.JWTSecret),
		AskInterval: time.Duration(cfg.RAG.AskIntervalMs) * time.Millisecond,
	}

	web, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORS),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched, err := newScheduler(cfg, st)
	if err != nil {
		return err
	}
	sched.Start(ctx)
	defer sched.Stop()

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := web.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

func runPurge(ctx context.Context, cfg *config.Config) error {
	conn, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	sched, err := newScheduler(cfg, newStorage(cfg, conn))
	if err != nil {
		return err
	}
	for _, name := range []string{"query_cache_purge", "chunk_tombstone_purge"} {
		if _, err := sched.RunNow(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

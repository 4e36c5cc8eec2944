package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spigell/hh-interviewer/internal/ai/gemini"
	"github.com/spigell/hh-interviewer/internal/engine"
	"github.com/spigell/hh-interviewer/internal/evaluation"
	"github.com/spigell/hh-interviewer/internal/secrets"
	"github.com/spigell/hh-interviewer/internal/store"
	"go.uber.org/zap"
)

// collaborators is everything built from config, plus a cleanup for the
// resources they hold.
type collaborators struct {
	deps    *engine.Deps
	cleanup func()
}

func buildDeps(ctx context.Context, config *Config, logger *zap.Logger) (*collaborators, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	deps := &engine.Deps{Logger: logger}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	storeCleanup, err := buildStores(ctx, config.Store, deps, logger)
	if err != nil {
		return nil, err
	}
	closers = append(closers, storeCleanup)

	rules := evaluation.NewRules()
	deps.Evaluator = rules

	if config.AI == nil || !config.AI.Enabled {
		logger.Info("ai collaborators disabled, using rules and built-in questions")
		return &collaborators{deps: deps, cleanup: cleanup}, nil
	}

	generator, err := newGeminiGenerator(ctx, config.AI, logger)
	if err != nil {
		logger.Warn("skipping ai collaborators", zap.Error(err))
		return &collaborators{deps: deps, cleanup: cleanup}, nil
	}

	g := config.AI.Gemini
	questioner := gemini.NewQuestioner(generator, g.MaxLogLength, logger.Named("questioner"))
	questioner.SetPromptOverrides(gemini.PromptOverrides{
		Tone:             g.Tone,
		Language:         g.Language,
		UserInstructions: g.UserInstructions,
	})

	deps.Questions = questioner
	deps.Analyzer = gemini.NewAnalyzer(generator, g.MaxLogLength, logger.Named("analyzer"))
	deps.Evaluator = evaluation.NewJudge(
		gemini.NewJudge(generator, g.MaxLogLength, logger.Named("gemini")),
		rules,
		config.AI.JudgeTimeout,
		logger,
	)

	return &collaborators{deps: deps, cleanup: cleanup}, nil
}

func buildStores(ctx context.Context, cfg *StoreConfig, deps *engine.Deps, logger *zap.Logger) (func(), error) {
	if cfg == nil {
		cfg = &StoreConfig{}
	}

	opts := store.Options{TTL: cfg.SessionTTL, ResumeWindow: cfg.ResumeWindow}

	switch backend := strings.ToLower(strings.TrimSpace(cfg.Backend)); backend {
	case "", "memory":
		mem := store.NewMemory(opts)
		deps.Store = mem
		deps.Artifacts = store.NewMemoryArtifacts(cfg.ArtifactTTL, nil)

		janitorCtx, cancel := context.WithCancel(ctx)
		go mem.Janitor(janitorCtx, cfg.SweepInterval, logger.Named("store"))
		return cancel, nil

	case "redis":
		rc := cfg.Redis
		if rc == nil || strings.TrimSpace(rc.Addr) == "" {
			return nil, errors.New("store.redis.addr is required for the redis backend")
		}

		password, err := secrets.Load(secrets.Source{
			Name:  "redis password",
			Env:   "HH_INTERVIEWER_REDIS_PASSWORD",
			Value: rc.Password,
		})
		if err != nil {
			// redis without auth is a valid setup
			password = ""
		}

		client := redis.NewClient(&redis.Options{
			Addr:     rc.Addr,
			Password: password,
			DB:       rc.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connecting to redis at %s: %w", rc.Addr, err)
		}

		logger.Info("using redis session store", zap.String("addr", rc.Addr), zap.Int("db", rc.DB))

		deps.Store = store.NewRedis(client, opts)
		deps.Artifacts = store.NewRedisArtifacts(client, cfg.ArtifactTTL)
		return func() { _ = client.Close() }, nil

	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Backend)
	}
}

func newGeminiGenerator(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (*gemini.Generator, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != gemini.Provider {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
	if cfg.Gemini == nil {
		cfg.Gemini = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
		Value: cfg.Gemini.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}

	genLogger := logger.With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries))

	return gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
}

func newEngine(ctx context.Context, config *Config, logger *zap.Logger) (*engine.Engine, func(), error) {
	c, err := buildDeps(ctx, config, logger)
	if err != nil {
		return nil, nil, err
	}

	e, err := engine.New(config.Interview, c.deps)
	if err != nil {
		c.cleanup()
		return nil, nil, err
	}
	return e, c.cleanup, nil
}

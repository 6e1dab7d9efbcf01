package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"listingassist/internal/dialogue"
	"listingassist/internal/extraction"
	"listingassist/internal/gateway/config"
	"listingassist/internal/gateway/handler"
	"listingassist/internal/gateway/handler/rpc"
	"listingassist/internal/gateway/server"
	conversationsvc "listingassist/internal/gateway/service/conversation"
	"listingassist/internal/gateway/service/sweeper"
	"listingassist/internal/llm"
	"listingassist/internal/llm/provider"
)

const Version = "0.1.0"

type App struct {
	server  *server.Server
	sweeper *sweeper.Sweeper
	stores  *gatewayStores
	llm     llm.Client
	logger  *log.Logger
}

func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.Default()
	}
	tuning, err := config.LoadTuning(cfg.TuningFile)
	if err != nil {
		return nil, err
	}

	client, err := provider.New(ctx, provider.Config{
		Provider:        cfg.LLM.Provider,
		GeminiAPIKey:    cfg.LLM.GeminiAPIKey,
		GeminiModel:     cfg.LLM.GeminiModel,
		AnthropicAPIKey: cfg.LLM.AnthropicAPIKey,
		AnthropicModel:  cfg.LLM.AnthropicModel,
		RPS:             cfg.LLM.RPS,
		Burst:           cfg.LLM.Burst,
		MaxAttempts:     cfg.LLM.MaxAttempts,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init llm client: %w", err)
	}

	stores, err := initStores(cfg, logger)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	// Dependencies
	svc := conversationsvc.New(conversationsvc.Deps{
		Store:     stores.conversation,
		Media:     stores.media,
		LLM:       client,
		Extractor: extraction.New(client, tuning.Extraction, logger),
		Selector: dialogue.NewSelector(client,
			dialogue.WithTemplates(tuning.QuestionTemplates()),
			dialogue.WithContextual(tuning.Contextual()),
			dialogue.WithSelectorLogger(logger),
		),
		Logger: logger,
	})
	sw, err := sweeper.New(stores.conversation, cfg.Sweep.AbandonAfter, cfg.Sweep.Schedule, logger)
	if err != nil {
		_ = stores.Close()
		_ = client.Close()
		return nil, err
	}

	// Routing & Server
	mux := server.NewMux(rpc.NewConversationHandler(svc), handler.NewHealthHandler(Version), cfg.AllowedOrigins)
	logger.Printf("app: env=%s provider=%s store=%s", cfg.Env, client.Name(), cfg.Store.Driver)

	return &App{
		server:  server.New(cfg.Port, mux),
		sweeper: sw,
		stores:  stores,
		llm:     client,
		logger:  logger,
	}, nil
}

// Run serves until ctx is cancelled or a component fails, then shuts down.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(a.server.Start)
	g.Go(func() error { return a.sweeper.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})
	err := g.Wait()
	return errors.Join(err, a.Close())
}

func (a *App) Close() error {
	return errors.Join(a.stores.Close(), a.llm.Close())
}

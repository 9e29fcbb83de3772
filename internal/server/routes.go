package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/queryloom/queryloom/internal/connect"
	"github.com/queryloom/queryloom/internal/executor"
	"github.com/queryloom/queryloom/internal/handler"
	"github.com/queryloom/queryloom/internal/llm"
	"github.com/queryloom/queryloom/internal/middleware"
	"github.com/queryloom/queryloom/internal/pipeline"
	"github.com/queryloom/queryloom/internal/resultcache"
	"github.com/queryloom/queryloom/internal/schema"
)

func (s *Server) setupRoutes() (http.Handler, error) {
	cfg := s.cfg

	var llmClient llm.Client
	if cfg.AnthropicAPIKey != "" {
		llmClient = llm.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.Model, cfg.AnthropicBaseURL,
			time.Duration(cfg.LLMTimeout)*time.Second)
	} else {
		log.Warn().Msg("ANTHROPIC_API_KEY not set - generation endpoints will fail")
	}

	cache, err := resultcache.NewFileCache(cfg.ResultCacheDir)
	if err != nil {
		return nil, err
	}

	resolver := schema.NewResolver(s.store, connect.Open)
	pipe := pipeline.New(resolver, llmClient)
	exec := executor.New(cache, s.store, llmClient)

	log.Info().
		Bool("llm_enabled", llmClient != nil).
		Str("result_cache_dir", cfg.ResultCacheDir).
		Str("api_prefix", cfg.APIPrefix).
		Msg("service configuration")

	healthH := handler.NewHealthHandler(s.store)
	generateH := handler.NewGenerateHandler(pipe)
	executeH := handler.NewExecuteHandler(exec, s.store)
	sourcesH := handler.NewDataSourcesHandler(s.store, resolver)
	descH := handler.NewDescriptionsHandler(s.store, pipe)
	chatsH := handler.NewChatsHandler(s.store)

	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))
	r.Use(chiMiddleware.RealIP)

	r.Get("/health", healthH.Health)
	r.Get("/", healthH.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute))

		r.Route(cfg.APIPrefix, func(r chi.Router) {
			// Generation
			r.Post("/generate_sql", generateH.Generate)
			r.Post("/generate_sql_stream", generateH.GenerateStream)
			r.Post("/fix_sql", generateH.FixSQL)
			r.Get("/suggest_queries", generateH.SuggestQueries)

			// Execution and results
			r.Post("/execute_sql", executeH.Execute)
			r.Get("/query_result", executeH.QueryResult)
			r.Get("/query_logs", executeH.QueryLogs)

			// Schema browsing
			r.Get("/tables", sourcesH.Tables)
			r.Get("/schema", sourcesH.Schema)

			// Data sources
			r.Post("/datasources", sourcesH.Register)
			r.Get("/datasources", sourcesH.List)
			r.Get("/datasources/{datasource_id}/schema", sourcesH.SourceSchema)
			r.Get("/datasources/{datasource_id}/config", sourcesH.Config)

			// Curated descriptions
			r.Post("/descriptions", descH.Upsert)

			// Chats
			r.Post("/chats", chatsH.Create)
			r.Get("/chats", chatsH.List)
			r.Post("/chats/{chat_id}/rename", chatsH.Rename)
			r.Get("/chats/{chat_id}/messages", chatsH.Messages)
			r.Post("/chats/{chat_id}/messages", chatsH.AddMessage)
		})
	})

	return r, nil
}

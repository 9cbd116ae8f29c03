// Copyright 2025 Convo Helper Project
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
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/your-org/convo-helper/internal/config"
	"github.com/your-org/convo-helper/internal/credentials"
	"github.com/your-org/convo-helper/internal/generate"
	"github.com/your-org/convo-helper/internal/health"
	"github.com/your-org/convo-helper/internal/suggest"
	"github.com/your-org/convo-helper/internal/weaviate"
	"go.uber.org/zap"
)

// replySuggester runs one suggestion request end to end
type replySuggester interface {
	SuggestReply(ctx context.Context, inboundEmail string) suggest.Outcome
}

// Server holds the wired dependencies of the web UI
type Server struct {
	config        *config.Config
	logger        *zap.Logger
	orchestrator  replySuggester
	healthManager *health.Manager
}

// suggestRequest is the JSON payload of POST /suggest
type suggestRequest struct {
	Email string `json:"email"`
}

// matchView decorates a historical match with its display fields
type matchView struct {
	suggest.HistoricalMatch
	MatchPercent int    `json:"match_percent"`
	DateDisplay  string `json:"date_display,omitempty"`
}

// suggestResponse is the JSON response of POST /suggest
type suggestResponse struct {
	Response         *suggest.SuggestedReply `json:"response"`
	HistoricalEmails []matchView             `json:"historical_emails"`
	Error            string                  `json:"error,omitempty"`
	UsingMockData    bool                    `json:"using_mock_data"`
	NoMatches        bool                    `json:"no_matches"`
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := initializeLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	masked := cfg.MaskSensitiveValues()
	logger.Info("Configuration loaded",
		zap.String("service", "webui"),
		zap.String("environment", config.GetEnvironment()),
		zap.String("weaviate_url", masked.Weaviate.URL),
		zap.String("weaviate_api_key", masked.Weaviate.APIKey),
		zap.String("class_name", masked.Weaviate.ClassName),
		zap.Int("limit", masked.Suggestion.Limit),
		zap.Float64("distance_threshold", masked.Suggestion.DistanceThreshold),
		zap.Int("timeout_ms", masked.Suggestion.TimeoutMs),
		zap.Bool("force_fallback", masked.Suggestion.ForceFallback))

	credStore, err := credentials.NewStore(cfg.Credentials.DBPath, logger)
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}
	defer func() {
		if err := credStore.Close(); err != nil {
			logger.Warn("Failed to close credential store", zap.Error(err))
		}
	}()

	provider := config.NewProvider(cfg, credStore, logger)
	searchClient := weaviate.NewClient(logger)
	completer := generate.NewClient(logger)
	orchestrator := suggest.NewOrchestrator(provider, searchClient, completer, suggest.OptionsFromConfig(cfg), logger)

	healthManager := health.NewManager("webui", "1.0.0", logger)
	healthManager.AddCheckerFunc("weaviate", health.ExternalServiceChecker("weaviate", func(ctx context.Context) error {
		return searchClient.Ready(ctx, provider.Get())
	}).Check)
	healthManager.AddCheckerFunc("credentials", health.ExternalServiceChecker("credentials", credStore.Ping).Check)

	// Connection secrets refresh per request; a config file change is only
	// logged so the operator knows a restart picks up the rest.
	if err := config.WatchConfig(configPath, func(newCfg *config.Config) {
		logger.Info("Configuration file changed; restart to apply non-secret settings")
	}); err != nil {
		logger.Debug("Config watching unavailable", zap.Error(err))
	}

	server := &Server{
		config:        cfg,
		logger:        logger,
		orchestrator:  orchestrator,
		healthManager: healthManager,
	}

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Static("/static", "./static")
	router.LoadHTMLGlob("templates/*")

	router.GET("/", server.handleHomePage)
	router.GET("/health", server.handleHealth)
	router.POST("/suggest", server.handleSuggest)

	port := cfg.Server.Port
	logger.Info("Starting Customer Conversation Helper",
		zap.String("port", port),
		zap.String("service", "webui"))

	if err := router.Run(":" + port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// handleHomePage serves the single-page interface
func (s *Server) handleHomePage(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"title": "Customer Conversation Helper",
	})
}

// handleHealth returns the health status
func (s *Server) handleHealth(c *gin.Context) {
	s.healthManager.HTTPHandler().ServeHTTP(c.Writer, c.Request)
}

// handleSuggest runs one suggestion request. Empty or whitespace-only input
// is rejected here; the orchestrator is never invoked for it.
func (s *Server) handleSuggest(c *gin.Context) {
	var req suggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if strings.TrimSpace(req.Email) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter a customer email"})
		return
	}

	start := time.Now()
	outcome := s.orchestrator.SuggestReply(c.Request.Context(), req.Email)
	s.logger.Info("Suggestion request completed",
		zap.Duration("duration", time.Since(start)),
		zap.Bool("used_fallback", outcome.UsedFallback),
		zap.Bool("has_error", outcome.Err != ""))

	c.JSON(http.StatusOK, toResponse(outcome))
}

// toResponse shapes an orchestrator outcome for the UI
func toResponse(outcome suggest.Outcome) suggestResponse {
	views := make([]matchView, 0, len(outcome.Matches))
	for _, match := range outcome.Matches {
		views = append(views, matchView{
			HistoricalMatch: match,
			MatchPercent:    suggest.MatchPercent(match.Distance),
			DateDisplay:     suggest.FormatDate(match.Properties.Date),
		})
	}

	return suggestResponse{
		Response:         outcome.Reply,
		HistoricalEmails: views,
		Error:            outcome.Err,
		UsingMockData:    outcome.UsedFallback,
		NoMatches:        outcome.Err == "" && outcome.Reply == nil && len(outcome.Matches) == 0,
	}
}

// Package mcp exposes the recommender to MCP clients over stdio.
// The lite server needs no external databases: results are cached in memory
// and feedback is kept in a local SQLite file.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/contraceptive-compass-server/internal/cache"
	"github.com/contraceptive-compass-server/internal/catalog"
	litecfg "github.com/contraceptive-compass-server/internal/config"
	"github.com/contraceptive-compass-server/internal/feedback"
	"github.com/contraceptive-compass-server/internal/service"
)

const (
	serverName    = "contraceptive-compass-lite"
	serverVersion = "v1.0.0"
)

// LiteServer is a lightweight MCP server that requires no external databases.
type LiteServer struct {
	config        *litecfg.LiteConfig
	mcpServer     *mcp.Server
	toolset       *Toolset
	feedbackStore feedback.Store
	cache         *cache.MemoryCache
	logger        *logrus.Logger
}

// LiteServerOption is a functional option for LiteServer.
type LiteServerOption func(*LiteServer) error

// WithFeedbackStore sets a custom feedback store.
func WithFeedbackStore(store feedback.Store) LiteServerOption {
	return func(s *LiteServer) error {
		s.feedbackStore = store
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) LiteServerOption {
	return func(s *LiteServer) error {
		s.logger = logger
		return nil
	}
}

// NewLiteServer creates a new lightweight MCP server instance.
func NewLiteServer(cfg *litecfg.LiteConfig, opts ...LiteServerOption) (*LiteServer, error) {
	server := &LiteServer{config: cfg}

	for _, opt := range opts {
		if err := opt(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.logger == nil {
		logger, _, err := litecfg.NewLogger(cfg.LoggingConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		server.logger = logger
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cat, err := catalog.LoadPath(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load method catalog: %w", err)
	}

	server.cache = cache.NewMemoryCache(cfg.CacheMaxItems, cfg.CacheTTL)

	if server.feedbackStore == nil {
		store, err := feedback.NewSQLiteStore(cfg.FeedbackDBPath())
		if err != nil {
			return nil, fmt.Errorf("failed to create feedback store: %w", err)
		}
		server.feedbackStore = store
	}

	recommender := service.NewRecommenderService(cat,
		service.WithLogger(server.logger),
		service.WithResultCache(server.cache),
	)
	server.toolset = NewToolset(recommender, server.feedbackStore, server.logger)

	server.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, nil)
	server.registerTools()

	server.logger.WithFields(logrus.Fields{
		"catalog_version": cat.Version(),
		"methods":         cat.Len(),
		"data_dir":        cfg.DataDir,
	}).Info("Lite server initialized successfully")
	return server, nil
}

func (s *LiteServer) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: ToolRecommendMethods,
		Description: "Sort the contraceptive method catalog into recommended, caution and contraindicated " +
			"tiers from questionnaire answers. Rule-based guidance only, not medical advice.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, params RecommendParams) (*mcp.CallToolResult, any, error) {
		result, err := s.toolset.Recommend(ctx, params)
		if err != nil {
			return s.errorResult(ToolRecommendMethods, err), nil, nil
		}
		return textResult(result.Summary+"\n\nTelehealth options:\n"+result.Telehealth, result), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolListMethods,
		Description: "Describe contraceptive methods in the catalog: failure rates, pros and cons.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, params ListMethodsParams) (*mcp.CallToolResult, any, error) {
		result, err := s.toolset.ListMethods(ctx, params)
		if err != nil {
			return s.errorResult(ToolListMethods, err), nil, nil
		}
		return textResult(result.Text, result), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolSubmitFeedback,
		Description: "Record whether a suggested method was chosen and whether the suggestion helped.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, params SubmitFeedbackParams) (*mcp.CallToolResult, any, error) {
		result, err := s.toolset.SubmitFeedback(ctx, params)
		if err != nil {
			return s.errorResult(ToolSubmitFeedback, err), nil, nil
		}
		return textResult(result.Message, result), nil, nil
	})

	s.logger.WithField("tool_count", 3).Info("Successfully registered all tools")
}

func textResult(text string, structured any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: text}},
		StructuredContent: structured,
	}
}

func (s *LiteServer) errorResult(tool string, err error) *mcp.CallToolResult {
	s.logger.WithError(err).WithField("tool_name", tool).Warn("Tool call failed")
	payload, _ := json.Marshal(map[string]string{"error": err.Error()})
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
		IsError: true,
	}
}

// Start serves MCP over stdio until ctx is cancelled or the client disconnects.
func (s *LiteServer) Start(ctx context.Context) error {
	s.logger.Info("Starting Contraceptive Compass MCP Server (Lite)...")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// Close cleans up server resources.
func (s *LiteServer) Close() error {
	if s.cache != nil {
		_ = s.cache.Close()
	}
	if s.feedbackStore != nil {
		if err := s.feedbackStore.Close(); err != nil {
			s.logger.WithError(err).Error("Failed to close feedback store")
			return err
		}
	}
	return nil
}

// Toolset returns the tool implementations.
func (s *LiteServer) Toolset() *Toolset {
	return s.toolset
}

// GetFeedbackStore returns the feedback store for external access.
func (s *LiteServer) GetFeedbackStore() feedback.Store {
	return s.feedbackStore
}

package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AnswerEncoder turns raw questionnaire answers into classifier features
type AnswerEncoder interface {
	Encode(raw RawAnswers) EncodedAnswers
}

// Classifier assigns catalog methods to recommendation tiers
type Classifier interface {
	Classify(method Method, answers EncodedAnswers) Tier
	Assess(method Method, answers EncodedAnswers) MethodAssessment
	ClassifyAll(methods []Method, answers EncodedAnswers) RecommendationResult
}

// RecommendationRepository defines the interface for recommendation history persistence
type RecommendationRepository interface {
	Create(ctx context.Context, record *RecommendationRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*RecommendationRecord, error)
	ListRecent(ctx context.Context, limit int) ([]*RecommendationRecord, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetDatabaseConfig() *DatabaseConfig
	GetServerConfig() *ServerConfig
	Reload() error
	Validate() error
	GetDatabaseConnectionString() string
	GetRedisConnectionString() string
	IsProduction() bool
	IsDevelopment() bool
}

package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/contraceptive-compass-server/internal/domain"
	"github.com/contraceptive-compass-server/internal/feedback"
	"github.com/contraceptive-compass-server/internal/report"
	"github.com/contraceptive-compass-server/internal/service"
)

// Tool names.
const (
	ToolRecommendMethods = "recommend_methods"
	ToolListMethods      = "list_methods"
	ToolSubmitFeedback   = "submit_feedback"
)

// RecommendParams defines parameters for the recommend_methods tool
type RecommendParams struct {
	Answers map[string]any `json:"answers,omitempty" jsonschema:"questionnaire answers keyed by question id (age_group, smoking, bmi, periods, breastfeeding, conditions, priority); missing answers use safe defaults"`
}

// RecommendResult defines the result of recommend_methods
type RecommendResult struct {
	RecommendationID string                    `json:"recommendation_id"`
	CatalogVersion   string                    `json:"catalog_version"`
	Answers          domain.EncodedAnswers     `json:"answers"`
	Recommended      []string                  `json:"recommended"`
	Caution          []string                  `json:"caution"`
	Contraindicated  []string                  `json:"contraindicated"`
	Assessments      []domain.MethodAssessment `json:"assessments"`
	Summary          string                    `json:"summary"`
	Telehealth       string                    `json:"telehealth"`
}

// ListMethodsParams defines parameters for the list_methods tool
type ListMethodsParams struct {
	Name string `json:"name,omitempty" jsonschema:"exact method name; omit to list the whole catalog"`
}

// ListMethodsResult defines the result of list_methods
type ListMethodsResult struct {
	CatalogVersion string          `json:"catalog_version"`
	Methods        []domain.Method `json:"methods"`
	Text           string          `json:"text"`
}

// SubmitFeedbackParams defines parameters for the submit_feedback tool
type SubmitFeedbackParams struct {
	RecommendationID string `json:"recommendation_id" jsonschema:"id returned by recommend_methods"`
	MethodName       string `json:"method_name" jsonschema:"catalog method the feedback is about"`
	SuggestedTier    string `json:"suggested_tier" jsonschema:"tier the method was placed in: recommended, caution or contraindicated"`
	Chosen           bool   `json:"chosen,omitempty" jsonschema:"whether the user chose this method"`
	Helpful          bool   `json:"helpful,omitempty" jsonschema:"whether the suggestion was helpful"`
	Notes            string `json:"notes,omitempty" jsonschema:"free-text notes; do not include personal details"`
}

// SubmitFeedbackResult defines the result of submit_feedback
type SubmitFeedbackResult struct {
	Success  bool               `json:"success"`
	Message  string             `json:"message"`
	Feedback *feedback.Feedback `json:"feedback,omitempty"`
}

// Toolset implements the tool logic independently of the MCP transport so it
// can be exercised directly.
type Toolset struct {
	recommender *service.RecommenderService
	store       feedback.Store
	logger      *logrus.Logger
}

// NewToolset creates a toolset. store may be nil, in which case
// submit_feedback reports that feedback is unavailable.
func NewToolset(recommender *service.RecommenderService, store feedback.Store, logger *logrus.Logger) *Toolset {
	return &Toolset{
		recommender: recommender,
		store:       store,
		logger:      logger,
	}
}

// Recommend runs the questionnaire answers through the recommender.
func (t *Toolset) Recommend(ctx context.Context, params RecommendParams) (*RecommendResult, error) {
	rec, err := t.recommender.Recommend(ctx, domain.RawAnswers(params.Answers))
	if err != nil {
		return nil, fmt.Errorf("computing recommendation: %w", err)
	}

	return &RecommendResult{
		RecommendationID: rec.ID.String(),
		CatalogVersion:   rec.CatalogVersion,
		Answers:          rec.Answers,
		Recommended:      rec.Result.Names(domain.RECOMMENDED),
		Caution:          rec.Result.Names(domain.CAUTION),
		Contraindicated:  rec.Result.Names(domain.CONTRAINDICATED),
		Assessments:      rec.Result.Assessments,
		Summary:          report.Summary(rec),
		Telehealth:       report.TelehealthList(t.recommender.Catalog().Telehealth()),
	}, nil
}

// ListMethods describes one method or the whole catalog.
func (t *Toolset) ListMethods(_ context.Context, params ListMethodsParams) (*ListMethodsResult, error) {
	cat := t.recommender.Catalog()

	methods := cat.Methods()
	if name := strings.TrimSpace(params.Name); name != "" {
		m, err := cat.Method(name)
		if err != nil {
			return nil, err
		}
		methods = []domain.Method{m}
	}

	cards := make([]string, 0, len(methods))
	for _, m := range methods {
		cards = append(cards, report.MethodCard(m))
	}

	return &ListMethodsResult{
		CatalogVersion: cat.Version(),
		Methods:        methods,
		Text:           strings.Join(cards, "\n\n"),
	}, nil
}

// SubmitFeedback stores feedback on one method of a served recommendation.
func (t *Toolset) SubmitFeedback(ctx context.Context, params SubmitFeedbackParams) (*SubmitFeedbackResult, error) {
	if t.store == nil {
		return nil, errors.New("feedback store is not configured")
	}

	fb := &feedback.Feedback{
		RecommendationID: strings.TrimSpace(params.RecommendationID),
		MethodName:       strings.TrimSpace(params.MethodName),
		SuggestedTier:    feedback.NormalizeTier(params.SuggestedTier),
		Chosen:           params.Chosen,
		Helpful:          params.Helpful,
		Notes:            params.Notes,
	}
	if err := feedback.Validate(fb); err != nil {
		return nil, err
	}
	if _, err := t.recommender.Catalog().Method(fb.MethodName); err != nil {
		return nil, domain.NewValidationError("method_name", "is not in the method catalog", fb.MethodName)
	}

	if err := t.store.Save(ctx, fb); err != nil {
		t.logger.WithError(err).Error("Failed to save feedback")
		return nil, fmt.Errorf("saving feedback: %w", err)
	}

	t.logger.WithFields(logrus.Fields{
		"recommendation_id": fb.RecommendationID,
		"method":            fb.MethodName,
		"tier":              fb.SuggestedTier,
		"helpful":           fb.Helpful,
	}).Info("Feedback saved")

	return &SubmitFeedbackResult{
		Success:  true,
		Message:  fmt.Sprintf("Feedback recorded for %s", fb.MethodName),
		Feedback: fb,
	}, nil
}

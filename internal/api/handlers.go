package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/contraceptive-compass-server/internal/cache"
	"github.com/contraceptive-compass-server/internal/domain"
	"github.com/contraceptive-compass-server/internal/feedback"
	"github.com/contraceptive-compass-server/internal/middleware"
)

// answersRequest is the body of the encode and recommendation endpoints.
// Missing or malformed answers fall back to defaults rather than failing.
type answersRequest struct {
	Answers domain.RawAnswers `json:"answers"`
}

type methodView struct {
	domain.Method
	Capabilities domain.MethodCapabilities `json:"capabilities"`
}

func newMethodView(m domain.Method) methodView {
	return methodView{Method: m, Capabilities: m.Capabilities()}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	code := http.StatusOK
	checks := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	cat := s.recommender.Catalog()
	c.JSON(code, gin.H{
		"status":          status,
		"timestamp":       time.Now().UTC(),
		"version":         Version,
		"catalog_version": cat.Version(),
		"methods":         cat.Len(),
		"cache":           cache.StatusOf(s.cache),
		"checks":          checks,
	})
}

func (s *Server) handleQuestions(c *gin.Context) {
	questions := s.recommender.Catalog().Questions()
	c.JSON(http.StatusOK, gin.H{
		"questions": questions,
		"count":     len(questions),
	})
}

func (s *Server) handleMethods(c *gin.Context) {
	cat := s.recommender.Catalog()
	methods := cat.Methods()
	views := make([]methodView, 0, len(methods))
	for _, m := range methods {
		views = append(views, newMethodView(m))
	}
	c.JSON(http.StatusOK, gin.H{
		"catalog_version": cat.Version(),
		"methods":         views,
		"count":           len(views),
	})
}

func (s *Server) handleMethod(c *gin.Context) {
	m, err := s.recommender.Catalog().Method(c.Param("name"))
	if err != nil {
		s.respondError(c, err, "Method not found")
		return
	}
	c.JSON(http.StatusOK, newMethodView(m))
}

func (s *Server) handleTelehealth(c *gin.Context) {
	options := s.recommender.Catalog().Telehealth()
	c.JSON(http.StatusOK, gin.H{
		"telehealth": options,
		"count":      len(options),
	})
}

// bindAnswers accepts an empty body as "no answers".
func (s *Server) bindAnswers(c *gin.Context) (answersRequest, bool) {
	var req answersRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		s.respondBadRequest(c, "Request body must be a JSON object", err)
		return req, false
	}
	return req, true
}

func (s *Server) handleEncode(c *gin.Context) {
	req, ok := s.bindAnswers(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.recommender.Encode(req.Answers))
}

func (s *Server) handleRecommend(c *gin.Context) {
	req, ok := s.bindAnswers(c)
	if !ok {
		return
	}

	rec, err := s.recommender.Recommend(c.Request.Context(), req.Answers)
	if err != nil {
		s.respondError(c, err, "Failed to compute recommendation")
		return
	}

	c.Header("Location", "/api/v1/recommendations/"+rec.ID.String())
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) handleGetRecommendation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.respondError(c, fmt.Errorf("recommendation id: %w", domain.ErrInvalidIdentifier), "Invalid recommendation id")
		return
	}

	record, err := s.recommender.Lookup(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err, "Recommendation not found")
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) handleListRecommendations(c *gin.Context) {
	limit, err := queryInt(c, "limit", 50)
	if err != nil || limit <= 0 || limit > 500 {
		s.respondBadRequest(c, "limit must be between 1 and 500", err)
		return
	}

	records, err := s.recommender.Recent(c.Request.Context(), limit)
	if errors.Is(err, domain.ErrHistoryDisabled) {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, domain.NewAPIError(
			domain.ErrCodeUnavailable, "Recommendation history is disabled", "", c.GetString(middleware.CorrelationIDKey),
		))
		return
	}
	if err != nil {
		s.respondError(c, err, "Failed to list recommendations")
		return
	}
	if records == nil {
		records = []*domain.RecommendationRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": records, "count": len(records)})
}

// feedbackRequest mirrors feedback.Feedback without server-managed fields.
type feedbackRequest struct {
	RecommendationID string `json:"recommendation_id"`
	MethodName       string `json:"method_name"`
	SuggestedTier    string `json:"suggested_tier"`
	Chosen           bool   `json:"chosen"`
	Helpful          bool   `json:"helpful"`
	Notes            string `json:"notes"`
}

func (s *Server) requireFeedback(c *gin.Context) bool {
	if s.feedback != nil {
		return true
	}
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, domain.NewAPIError(
		domain.ErrCodeUnavailable, "Feedback store is not configured", "", c.GetString(middleware.CorrelationIDKey),
	))
	return false
}

func (s *Server) handleSubmitFeedback(c *gin.Context) {
	if !s.requireFeedback(c) {
		return
	}

	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, "Request body must be a JSON object", err)
		return
	}

	fb := &feedback.Feedback{
		RecommendationID: req.RecommendationID,
		MethodName:       req.MethodName,
		SuggestedTier:    feedback.NormalizeTier(req.SuggestedTier),
		Chosen:           req.Chosen,
		Helpful:          req.Helpful,
		Notes:            req.Notes,
	}
	if err := feedback.Validate(fb); err != nil {
		s.respondError(c, err, "Invalid feedback")
		return
	}
	if _, err := s.recommender.Catalog().Method(fb.MethodName); err != nil {
		s.respondError(c, domain.NewValidationError("method_name", "is not in the method catalog", fb.MethodName), "Invalid feedback")
		return
	}

	if err := s.feedback.Save(c.Request.Context(), fb); err != nil {
		s.respondError(c, err, "Failed to save feedback")
		return
	}
	c.JSON(http.StatusCreated, fb)
}

func (s *Server) handleListFeedback(c *gin.Context) {
	if !s.requireFeedback(c) {
		return
	}

	limit, err := queryInt(c, "limit", 50)
	if err != nil || limit <= 0 || limit > 500 {
		s.respondBadRequest(c, "limit must be between 1 and 500", err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		s.respondBadRequest(c, "offset must be zero or positive", err)
		return
	}

	ctx := c.Request.Context()
	entries, err := s.feedback.List(ctx, limit, offset)
	if err != nil {
		s.respondError(c, err, "Failed to list feedback")
		return
	}
	total, err := s.feedback.Count(ctx)
	if err != nil {
		s.respondError(c, err, "Failed to count feedback")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"feedback": entries,
		"count":    len(entries),
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

func (s *Server) handleExportFeedback(c *gin.Context) {
	if !s.requireFeedback(c) {
		return
	}

	var buf bytes.Buffer
	if err := s.feedback.ExportJSON(c.Request.Context(), &buf); err != nil {
		s.respondError(c, err, "Failed to export feedback")
		return
	}

	filename := fmt.Sprintf("feedback-%s.json", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/json", buf.Bytes())
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

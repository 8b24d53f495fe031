package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hypotest/app"
	"hypotest/domain/core"
	"hypotest/internal/errors"
)

// compareRequest is the body of POST /api/v1/comparisons
type compareRequest struct {
	Name        string    `json:"name"`
	LabelA      string    `json:"label_a"`
	LabelB      string    `json:"label_b"`
	SampleA     []float64 `json:"sample_a" binding:"required"`
	SampleB     []float64 `json:"sample_b" binding:"required"`
	Alpha       *float64  `json:"alpha"`
	Method      string    `json:"method"`
	Alternative string    `json:"alternative"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleCreateComparison(c *gin.Context) {
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, errors.InvalidInput("invalid request body: "+err.Error()))
		return
	}

	comparison, err := s.service.CompareSamples(c.Request.Context(), app.SampleRequest{
		Name:    req.Name,
		LabelA:  req.LabelA,
		LabelB:  req.LabelB,
		SampleA: req.SampleA,
		SampleB: req.SampleB,
		Options: app.Options{
			Alpha:       req.Alpha,
			Method:      req.Method,
			Alternative: req.Alternative,
		},
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.metrics.observeComparison(comparison.Result)
	c.JSON(http.StatusCreated, comparison)
}

func (s *Server) handleListComparisons(c *gin.Context) {
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		s.writeError(c, err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		s.writeError(c, err)
		return
	}

	comparisons, err := s.service.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comparisons": comparisons,
		"count":       len(comparisons),
		"limit":       limit,
		"offset":      offset,
	})
}

func (s *Server) handleGetComparison(c *gin.Context) {
	id, err := core.ParseComparisonID(c.Param("id"))
	if err != nil {
		s.writeError(c, errors.InvalidInput(err.Error()))
		return
	}

	comparison, err := s.service.Get(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, comparison)
}

func (s *Server) writeError(c *gin.Context, err error) {
	code := errors.CodeInternalError
	if errors.IsAppError(err) {
		code = errors.GetCode(err)
	}
	s.metrics.observeError(code)

	status := statusFor(code)
	message := err.Error()
	if status == http.StatusInternalServerError {
		c.Error(err)
		message = "internal error"
	}
	c.JSON(status, gin.H{"code": code, "error": message})
}

func statusFor(code string) int {
	switch code {
	case errors.CodeInvalidSample, errors.CodeInvalidConfiguration,
		errors.CodeInvalidInput, errors.CodeValidationError:
		return http.StatusBadRequest
	case errors.CodeDegenerateVariance:
		return http.StatusUnprocessableEntity
	case errors.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.InvalidInput(key + " must be a non-negative integer")
	}
	return v, nil
}

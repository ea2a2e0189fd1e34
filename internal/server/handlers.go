package server

import (
	"errors"
	"fmt"
	"net/http"

	perrors "vehicle-pricing/internal/common/errors"
	"vehicle-pricing/internal/models"
	"vehicle-pricing/internal/service"

	"github.com/gin-gonic/gin"
)

// errorResponse is the failure body of every endpoint.
type errorResponse struct {
	Error *perrors.StandardError `json:"error"`
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to the Car Price Prediction API!"})
}

func (s *Server) handleHealth(c *gin.Context) {
	info, loaded := s.service.ModelInfo()
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:       "healthy",
		ModelLoaded:  loaded,
		ModelVersion: info.Version,
		ModelFormat:  info.Format,
	})
}

func (s *Server) handleReady(c *gin.Context) {
	if _, loaded := s.service.ModelInfo(); !loaded {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) handlePredict(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = fmt.Errorf("body exceeds %d bytes", tooLarge.Limit)
		}
		s.writeError(c, perrors.NewInvalidRequestBodyError(err))
		return
	}

	ctx := service.WithSource(c.Request.Context(), service.SourceHTTP)
	price, err := s.service.PredictJSON(ctx, raw)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.PredictionResponse{PredictedPrice: price})
}

func (s *Server) writeError(c *gin.Context, err error) {
	stdErr := perrors.Normalize(err)
	status := perrors.HTTPStatus(stdErr.Code)

	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", map[string]interface{}{
			"requestId": c.GetString(requestIDKey),
			"path":      c.Request.URL.Path,
			"errorCode": string(stdErr.Code),
			"error":     err.Error(),
		})
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: stdErr})
}

func (s *Server) recover(c *gin.Context, recovered interface{}) {
	s.writeError(c, fmt.Errorf("panic: %v", recovered))
}

package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-skintone-analyzer/internal/config"
	apperrors "go-skintone-analyzer/internal/errors"
	"go-skintone-analyzer/internal/logger"
	"go-skintone-analyzer/internal/repository"
	"go-skintone-analyzer/internal/service"
	"go-skintone-analyzer/pkg/models"
)

type ErrorResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func NewHandler(svc service.SkinToneService, cfg *config.Config) http.Handler {
	r := gin.Default()

	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)

	api := r.Group("/api/analysis")
	api.POST("/skin-tone", analyzeSkinTone(svc, cfg))
	api.GET("/records", listRecords(svc))
	api.GET("/records/:id", getRecord(svc))

	return r
}

func analyzeSkinTone(svc service.SkinToneService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.AnalysisTimeout)
		defer cancel()

		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"user_agent": c.Request.UserAgent(),
			"ip":         c.ClientIP(),
		}).Info("Processing skin tone analysis request")

		patientID, err := strconv.ParseInt(c.PostForm("patient_id"), 10, 64)
		if err != nil || patientID <= 0 {
			respondError(c, http.StatusBadRequest, "invalid patient_id",
				apperrors.NewValidationError("patient_id must be a positive integer", err))
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			respondError(c, http.StatusBadRequest, "missing image file",
				apperrors.NewValidationError("multipart field 'file' is required", err))
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, "cannot open uploaded file", err)
			return
		}
		defer file.Close()

		imageData, err := io.ReadAll(file)
		if err != nil {
			respondError(c, http.StatusBadRequest, "cannot read uploaded file", err)
			return
		}

		record, err := svc.AnalyzeSkinTone(ctx, patientID, imageData)
		if err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"patient_id": patientID,
				"ip":         c.ClientIP(),
			}).Error("Skin tone analysis failed")
			respondError(c, apperrors.GetStatusCode(err), "analysis failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"record_id":          record.ID,
			"patient_id":         patientID,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Skin tone analysis completed successfully")

		c.JSON(http.StatusOK, record)
	}
}

func listRecords(svc service.SkinToneService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter repository.RecordFilter

		if raw := c.Query("patient_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				respondError(c, http.StatusBadRequest, "invalid patient_id",
					apperrors.NewValidationError("patient_id must be a positive integer", err))
				return
			}
			filter.PatientID = id
		}
		filter.AnalysisType = c.Query("analysis_type")

		records, err := svc.ListRecords(c.Request.Context(), filter)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to list records", err)
			return
		}
		c.JSON(http.StatusOK, records)
	}
}

func getRecord(svc service.SkinToneService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid record id",
				apperrors.NewValidationError("record id must be an integer", err))
			return
		}

		record, err := svc.GetRecord(c.Request.Context(), id)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to load record", err)
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	if appErr, ok := err.(*apperrors.AppError); ok {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, ErrorResponse{
		Status:  models.StatusError,
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}

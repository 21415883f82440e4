package endpoints

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"docgen"
	"docgen/internal/api/handler/mapper"
	"docgen/internal/api/handler/middleware"
	"docgen/internal/api/handler/request"
	"docgen/internal/api/handler/response"
	"docgen/internal/api/models"
	"docgen/internal/api/service"
	"docgen/internal/batch"
	"docgen/internal/generate"
	"docgen/pkg"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultHistoryLimit = 20

// BatchService is the part of service.DocumentService used here.
type BatchService interface {
	RunBatch(ctx context.Context, reqs []generate.Request, deliverTo []string) (service.BatchOutcome, error)
	FindBatch(id uuid.UUID) (*models.Batch, error)
	RecentBatches(limit int) ([]models.Batch, error)
}

type batchHandler struct {
	batchService   BatchService
	documentMapper mapper.DocumentMapper
	logger         zerolog.Logger
}

func BatchHandler(router gin.IRouter, batchService BatchService, cfg docgen.AppConfig) {
	h := &batchHandler{
		batchService:   batchService,
		documentMapper: mapper.NewDocumentMapper(),
		logger:         docgen.Logger,
	}

	routes := router.Group("/api/v1/batches")
	routes.Use(middleware.AuthMiddleware(cfg))
	{
		routes.POST("", h.run)
		routes.GET("/:id", h.getByID)
		routes.GET("", middleware.RequireRole(cfg, "admin"), h.getRecent)
	}
}

func (slf *batchHandler) run(c *gin.Context) {
	var req request.RunBatch
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		slf.logger.Error().Err(err).Msg("Error parsing and validating batch request")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	outcome, err := slf.batchService.RunBatch(c.Request.Context(), slf.documentMapper.ToBatchRequests(req), req.DeliverTo)
	if batchErr, ok := batch.AsBatchError(err); ok {
		slf.logger.Warn().Str("batchId", outcome.ID.String()).Ints("failed", batchErr.Indexes()).Msg("Batch finished with failures")
		c.JSON(http.StatusMultiStatus, slf.documentMapper.ToBatchFailuresResponse(outcome.ID, outcome.Results, batchErr))
		return
	}
	if err != nil {
		abortWithGenerateError(c, slf.logger, err, "Error running batch")
		return
	}

	c.JSON(http.StatusCreated, slf.documentMapper.ToBatchResponse(outcome.ID, outcome.Results))
}

func (slf *batchHandler) getByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid batch ID"})
		return
	}

	record, err := slf.batchService.FindBatch(id)
	if err != nil {
		slf.writeHistoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, slf.documentMapper.ToBatchRecordResponse(*record))
}

func (slf *batchHandler) getRecent(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultHistoryLimit)))
	if err != nil || limit < 1 || limit > 100 {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "limit must be between 1 and 100"})
		return
	}

	records, err := slf.batchService.RecentBatches(limit)
	if err != nil {
		slf.writeHistoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, slf.documentMapper.ToBatchRecordResponses(records))
}

func (slf *batchHandler) writeHistoryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrHistoryDisabled):
		c.JSON(http.StatusServiceUnavailable, response.APIError{Message: err.Error()})
	case errors.Is(err, service.ErrBatchNotFound):
		c.JSON(http.StatusNotFound, response.APIError{Message: "Batch not found"})
	default:
		slf.logger.Error().Err(err).Msg("Error reading batch history")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to read batch history"})
	}
}

package endpoints

import (
	"context"
	"net/http"
	"strings"

	"docgen"
	"docgen/internal/api/handler/mapper"
	"docgen/internal/api/handler/middleware"
	"docgen/internal/api/handler/request"
	"docgen/internal/api/handler/response"
	"docgen/internal/generate"
	"docgen/pkg"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// DocumentService is the part of service.DocumentService used here.
type DocumentService interface {
	Generate(ctx context.Context, req generate.Request, deliverTo []string) (generate.Result, error)
	Placeholders(ctx context.Context, templateName string) ([]string, error)
}

type documentHandler struct {
	documentService DocumentService
	documentMapper  mapper.DocumentMapper
	logger          zerolog.Logger
}

func DocumentHandler(router gin.IRouter, documentService DocumentService, cfg docgen.AppConfig) {
	h := &documentHandler{
		documentService: documentService,
		documentMapper:  mapper.NewDocumentMapper(),
		logger:          docgen.Logger,
	}

	routes := router.Group("/api/v1")
	routes.Use(middleware.AuthMiddleware(cfg))
	{
		routes.POST("/documents", h.generate)
		routes.GET("/templates/:name/placeholders", h.placeholders)
	}
}

func (slf *documentHandler) generate(c *gin.Context) {
	var req request.GenerateDocument
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		slf.logger.Error().Err(err).Msg("Error parsing and validating generate request")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	res, err := slf.documentService.Generate(c.Request.Context(), slf.documentMapper.ToGenerateRequest(req), req.DeliverTo)
	if err != nil {
		abortWithGenerateError(c, slf.logger, err, "Error generating document")
		return
	}

	c.JSON(http.StatusCreated, slf.documentMapper.ToDocumentResponse(res))
}

// placeholders expects nested template names URL-encoded ("letters%2Fa.docx").
func (slf *documentHandler) placeholders(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))

	keys, err := slf.documentService.Placeholders(c.Request.Context(), name)
	if err != nil {
		abortWithGenerateError(c, slf.logger, err, "Error reading template placeholders")
		return
	}

	c.JSON(http.StatusOK, response.Placeholders{Template: name, Keys: keys})
}

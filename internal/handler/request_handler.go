package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cahsa-api/internal/dto"
	"github.com/noah-isme/cahsa-api/internal/models"
	appErrors "github.com/noah-isme/cahsa-api/pkg/errors"
	"github.com/noah-isme/cahsa-api/pkg/response"
)

type requestService interface {
	Create(ctx context.Context, actor models.Actor, payload dto.RequestPayload) (*models.RequestRecord, error)
	Update(ctx context.Context, actor models.Actor, id string, payload dto.RequestPayload) (*models.RequestRecord, error)
	Transition(ctx context.Context, actor models.Actor, id string, payload dto.TransitionPayload) (*dto.TransitionResult, error)
	Get(ctx context.Context, actor models.Actor, id string) (*dto.RequestDetail, error)
	List(ctx context.Context, actor models.Actor, query dto.RequestQuery) ([]models.RequestSummary, error)
}

type requestExporter interface {
	Export(ctx context.Context, actor models.Actor, query dto.RequestQuery, format string) (*dto.ExportFile, error)
}

// RequestHandler exposes the substitution request workflow.
type RequestHandler struct {
	service  requestService
	exporter requestExporter
}

// NewRequestHandler builds a new handler.
func NewRequestHandler(service requestService, exporter requestExporter) *RequestHandler {
	return &RequestHandler{service: service, exporter: exporter}
}

func requestQuery(c *gin.Context) dto.RequestQuery {
	return dto.RequestQuery{Status: c.Query("status"), PID: c.Query("pid")}
}

// List godoc
// @Summary List substitution requests
// @Description Oldest first, limited to the caller's department programs. Pending includes sent back requests.
// @Tags Requests
// @Produce json
// @Param status query string false "pending, processed, not processed or sent back"
// @Param pid query string false "Student PID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	items, err := h.service.List(c.Request.Context(), actor, requestQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}

// Export godoc
// @Summary Export substitution requests
// @Tags Requests
// @Produce text/csv
// @Produce application/pdf
// @Param status query string false "Status filter"
// @Param pid query string false "Student PID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /requests/export [get]
func (h *RequestHandler) Export(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	file, err := h.exporter.Export(c.Request.Context(), actor, requestQuery(c), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, file.Filename))
	c.Header("Content-Length", strconv.Itoa(len(file.Content)))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

// Create godoc
// @Summary File a substitution request
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body dto.RequestPayload true "Request payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests [post]
func (h *RequestHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var payload dto.RequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request payload"))
		return
	}
	record, err := h.service.Create(c.Request.Context(), actor, payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Get godoc
// @Summary Get a substitution request
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id} [get]
func (h *RequestHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	detail, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// Update godoc
// @Summary Edit a substitution request
// @Description Saving returns the request to pending with an empty reason.
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.RequestPayload true "Request payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id} [put]
func (h *RequestHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var payload dto.RequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request payload"))
		return
	}
	record, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record)
}

// Transition godoc
// @Summary Decide a substitution request
// @Description Records processed, not processed or sent back. A failed notification is reported as a warning.
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.TransitionPayload true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/transition [post]
func (h *RequestHandler) Transition(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var payload dto.TransitionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid transition payload"))
		return
	}
	result, err := h.service.Transition(c.Request.Context(), actor, c.Param("id"), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Outcome == dto.OutcomeNotificationFailed {
		response.Degraded(c, http.StatusOK, result, appErrors.ErrNotification)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

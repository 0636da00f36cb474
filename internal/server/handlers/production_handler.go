package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtracker/internal/domain/models"
	"github.com/mamadbah2/prodtracker/internal/lock"
	"github.com/mamadbah2/prodtracker/internal/repository"
	"github.com/mamadbah2/prodtracker/internal/service/production"
	"github.com/mamadbah2/prodtracker/internal/service/quality"
)

// ProductionHandler exposes production entries and summaries over HTTP.
type ProductionHandler struct {
	svc    *production.Service
	logger *zap.Logger
}

// NewProductionHandler constructs the HTTP handler adapter.
func NewProductionHandler(svc *production.Service, logger *zap.Logger) *ProductionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductionHandler{svc: svc, logger: logger}
}

// CreateEntry stores a new production entry.
func (h *ProductionHandler) CreateEntry(c *gin.Context) {
	var in models.EntryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.logger.Warn("invalid entry payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	entry, err := h.svc.CreateEntry(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// UpdateEntry replaces an entry that is still inside its edit window.
func (h *ProductionHandler) UpdateEntry(c *gin.Context) {
	id, ok := h.entryID(c)
	if !ok {
		return
	}

	var in models.EntryUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		h.logger.Warn("invalid entry payload", zap.Int64("entry_id", id), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	entry, err := h.svc.UpdateEntry(c.Request.Context(), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *ProductionHandler) DeleteEntry(c *gin.Context) {
	id, ok := h.entryID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteEntry(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListEntries returns every entry, newest first.
func (h *ProductionHandler) ListEntries(c *gin.Context) {
	entries, err := h.svc.ListEntries(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (h *ProductionHandler) GetEntry(c *gin.Context) {
	id, ok := h.entryID(c)
	if !ok {
		return
	}

	entry, err := h.svc.GetEntry(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

// GetEntryView returns the entry decorated with its edit status.
func (h *ProductionHandler) GetEntryView(c *gin.Context) {
	id, ok := h.entryID(c)
	if !ok {
		return
	}

	view, err := h.svc.GetEntryView(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// CheckEditability always answers 200; unknown entries get the not-found verdict.
func (h *ProductionHandler) CheckEditability(c *gin.Context) {
	id, ok := h.entryID(c)
	if !ok {
		return
	}

	check, err := h.svc.CheckEditability(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, check)
}

// EntriesByDateRange filters entries by production day or creation time.
func (h *ProductionHandler) EntriesByDateRange(c *gin.Context) {
	var q models.DateRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return
	}

	entries, err := h.svc.EntriesByDateRange(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (h *ProductionHandler) FilterInfo(c *gin.Context) {
	c.JSON(http.StatusOK, quality.DescribeFilters(h.svc.EditWindow()))
}

// CurrentSummary returns the latest summary snapshot.
func (h *ProductionHandler) CurrentSummary(c *gin.Context) {
	summary, err := h.svc.CurrentSummary(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// CalculateSummary forces a new summary snapshot.
func (h *ProductionHandler) CalculateSummary(c *gin.Context) {
	summary, err := h.svc.RecalculateSummary(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *ProductionHandler) entryID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return 0, false
	}
	return id, true
}

func (h *ProductionHandler) respondError(c *gin.Context, err error) {
	var (
		validation *quality.ValidationError
		expired    *quality.EditWindowExpiredError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error(), "field": validation.Field})
	case errors.As(err, &expired):
		c.JSON(http.StatusForbidden, gin.H{"error": expired.Error(), "edit_deadline": expired.Deadline})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
	case errors.Is(err, production.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": production.ErrVersionConflict.Error()})
	case errors.Is(err, lock.ErrNotObtained):
		c.JSON(http.StatusConflict, gin.H{"error": lock.ErrNotObtained.Error()})
	default:
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

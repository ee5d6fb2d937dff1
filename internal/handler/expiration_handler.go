package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/givelane/givelane-api/internal/service"
	appErrors "github.com/givelane/givelane-api/pkg/errors"
	"github.com/givelane/givelane-api/pkg/response"
)

// ExpirationHandler exposes expiry ledger endpoints.
type ExpirationHandler struct {
	expirations *service.ExpirationService
}

// NewExpirationHandler constructs ExpirationHandler.
func NewExpirationHandler(expirations *service.ExpirationService) *ExpirationHandler {
	return &ExpirationHandler{expirations: expirations}
}

// Allocate godoc
// @Summary Set an expiration for an item
// @Tags Expirations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.AllocateExpirationRequest true "Expiration payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /expirations [post]
func (h *ExpirationHandler) Allocate(c *gin.Context) {
	var req service.AllocateExpirationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.expirations.Allocate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Edit godoc
// @Summary Edit an expiration
// @Tags Expirations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Expiration ID"
// @Param payload body service.EditExpirationRequest true "New date and time"
// @Success 200 {object} response.Envelope
// @Router /expirations/{id} [patch]
func (h *ExpirationHandler) Edit(c *gin.Context) {
	var req service.EditExpirationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.expirations.Edit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// GetByItem godoc
// @Summary Get the expiration tracking an item
// @Tags Expirations
// @Produce json
// @Param itemId path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Router /expirations/item/{itemId} [get]
func (h *ExpirationHandler) GetByItem(c *gin.Context) {
	record, err := h.expirations.GetByItem(c.Request.Context(), c.Param("itemId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Delete godoc
// @Summary Remove an expiration
// @Tags Expirations
// @Security BearerAuth
// @Param id path string true "Expiration ID"
// @Success 204
// @Router /expirations/{id} [delete]
func (h *ExpirationHandler) Delete(c *gin.Context) {
	if err := h.expirations.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/givelane/givelane-api/internal/models"
	"github.com/givelane/givelane-api/internal/service"
	appErrors "github.com/givelane/givelane-api/pkg/errors"
	"github.com/givelane/givelane-api/pkg/response"
)

// ClaimHandler exposes claim endpoints.
type ClaimHandler struct {
	claims *service.ClaimService
}

// NewClaimHandler constructs ClaimHandler.
func NewClaimHandler(claims *service.ClaimService) *ClaimHandler {
	return &ClaimHandler{claims: claims}
}

// Create godoc
// @Summary Claim a quantity from a listing
// @Tags Claims
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateClaimRequest true "Claim payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /claims [post]
func (h *ClaimHandler) Create(c *gin.Context) {
	var req service.CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claim, err := h.claims.Claim(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, claim)
}

// Get godoc
// @Summary Get claim detail
// @Tags Claims
// @Produce json
// @Security BearerAuth
// @Param id path string true "Claim ID"
// @Success 200 {object} response.Envelope
// @Router /claims/{id} [get]
func (h *ClaimHandler) Get(c *gin.Context) {
	claim, err := h.claims.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, claim, nil)
}

// ListMine godoc
// @Summary List the caller's claims
// @Tags Claims
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /claims [get]
func (h *ClaimHandler) ListMine(c *gin.Context) {
	claims, err := h.claims.List(c.Request.Context(), models.ClaimFilter{ClaimerID: currentUserID(c)})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, claims, nil)
}

// ListByListing godoc
// @Summary List claims against a listing
// @Tags Claims
// @Produce json
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Success 200 {object} response.Envelope
// @Router /listings/{id}/claims [get]
func (h *ClaimHandler) ListByListing(c *gin.Context) {
	claims, err := h.claims.List(c.Request.Context(), models.ClaimFilter{ListingID: c.Param("id")})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, claims, nil)
}

// Release godoc
// @Summary Release a claim
// @Tags Claims
// @Security BearerAuth
// @Param id path string true "Claim ID"
// @Success 204
// @Router /claims/{id} [delete]
func (h *ClaimHandler) Release(c *gin.Context) {
	if err := h.claims.Release(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

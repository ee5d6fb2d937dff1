package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/givelane/givelane-api/internal/models"
	"github.com/givelane/givelane-api/internal/service"
	appErrors "github.com/givelane/givelane-api/pkg/errors"
	"github.com/givelane/givelane-api/pkg/response"
)

// OfferHandler exposes offer endpoints.
type OfferHandler struct {
	offers       *service.OfferService
	maxImageSize int64
}

// NewOfferHandler constructs OfferHandler.
func NewOfferHandler(offers *service.OfferService, maxImageSize int64) *OfferHandler {
	if maxImageSize <= 0 {
		maxImageSize = 5 << 20
	}
	return &OfferHandler{offers: offers, maxImageSize: maxImageSize}
}

// Create godoc
// @Summary Make an offer against a request
// @Tags Offers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateOfferRequest true "Offer payload"
// @Success 201 {object} response.Envelope
// @Router /offers [post]
func (h *OfferHandler) Create(c *gin.Context) {
	var req service.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	offer, err := h.offers.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, offer)
}

// Get godoc
// @Summary Get offer detail
// @Tags Offers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offer ID"
// @Success 200 {object} response.Envelope
// @Router /offers/{id} [get]
func (h *OfferHandler) Get(c *gin.Context) {
	offer, err := h.offers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offer, nil)
}

// ListMine godoc
// @Summary List the caller's offers
// @Tags Offers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /offers [get]
func (h *OfferHandler) ListMine(c *gin.Context) {
	offers, err := h.offers.ListByOfferer(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offers, nil)
}

// ListByRequest godoc
// @Summary List offers against a request
// @Tags Offers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/offers [get]
func (h *OfferHandler) ListByRequest(c *gin.Context) {
	offers, err := h.offers.ListByRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offers, nil)
}

// Update godoc
// @Summary Update an offer
// @Tags Offers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offer ID"
// @Param payload body models.OfferUpdate true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /offers/{id} [patch]
func (h *OfferHandler) Update(c *gin.Context) {
	var patch models.OfferUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	offer, err := h.offers.Update(c.Request.Context(), currentUserID(c), c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offer, nil)
}

// Accept godoc
// @Summary Accept an offer
// @Tags Offers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offer ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /offers/{id}/accept [post]
func (h *OfferHandler) Accept(c *gin.Context) {
	offer, err := h.offers.Accept(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offer, nil)
}

// Delete godoc
// @Summary Delete an offer
// @Tags Offers
// @Security BearerAuth
// @Param id path string true "Offer ID"
// @Success 204
// @Router /offers/{id} [delete]
func (h *OfferHandler) Delete(c *gin.Context) {
	if err := h.offers.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UploadImage godoc
// @Summary Attach an image to an offer
// @Tags Offers
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offer ID"
// @Param file formData file true "Image file"
// @Success 200 {object} response.Envelope
// @Router /offers/{id}/image [post]
func (h *OfferHandler) UploadImage(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "missing file"))
		return
	}
	if fileHeader.Size > h.maxImageSize {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file too large"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read file"))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, h.maxImageSize))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read file"))
		return
	}

	offer, err := h.offers.AttachImage(c.Request.Context(), currentUserID(c), c.Param("id"), fileHeader.Filename, data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offer, nil)
}

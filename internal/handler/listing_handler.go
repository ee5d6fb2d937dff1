package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/givelane/givelane-api/internal/models"
	"github.com/givelane/givelane-api/internal/service"
	appErrors "github.com/givelane/givelane-api/pkg/errors"
	"github.com/givelane/givelane-api/pkg/response"
)

// ListingHandler exposes listing endpoints.
type ListingHandler struct {
	listings     *service.ListingService
	maxImageSize int64
}

// NewListingHandler constructs ListingHandler.
func NewListingHandler(listings *service.ListingService, maxImageSize int64) *ListingHandler {
	if maxImageSize <= 0 {
		maxImageSize = 5 << 20
	}
	return &ListingHandler{listings: listings, maxImageSize: maxImageSize}
}

// List godoc
// @Summary List listings
// @Tags Listings
// @Produce json
// @Param author query string false "Filter by author"
// @Param mine query bool false "Only the caller's listings, hidden included"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /listings [get]
func (h *ListingHandler) List(c *gin.Context) {
	filter := models.ListingFilter{VisibleOnly: true}
	filter.AuthorID = c.Query("author")
	if c.Query("mine") == "true" {
		caller := currentUserID(c)
		if caller == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		filter.AuthorID = caller
		filter.VisibleOnly = false
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	listings, pagination, err := h.listings.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, listings, pagination)
}

// Get godoc
// @Summary Get listing detail
// @Tags Listings
// @Produce json
// @Param id path string true "Listing ID"
// @Success 200 {object} response.Envelope
// @Router /listings/{id} [get]
func (h *ListingHandler) Get(c *gin.Context) {
	listing, err := h.listings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, listing, nil)
}

// Create godoc
// @Summary Create listing
// @Tags Listings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateListingRequest true "Listing payload"
// @Success 201 {object} response.Envelope
// @Router /listings [post]
func (h *ListingHandler) Create(c *gin.Context) {
	var req service.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	listing, err := h.listings.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, listing)
}

// Update godoc
// @Summary Update listing
// @Tags Listings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Param payload body models.ListingUpdate true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /listings/{id} [patch]
func (h *ListingHandler) Update(c *gin.Context) {
	var patch models.ListingUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	listing, err := h.listings.Update(c.Request.Context(), currentUserID(c), c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, listing, nil)
}

// ToggleHidden godoc
// @Summary Toggle listing visibility
// @Tags Listings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Success 200 {object} response.Envelope
// @Router /listings/{id}/toggle-hidden [post]
func (h *ListingHandler) ToggleHidden(c *gin.Context) {
	listing, err := h.listings.ToggleHidden(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, listing, nil)
}

// Delete godoc
// @Summary Delete listing
// @Tags Listings
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Success 204
// @Router /listings/{id} [delete]
func (h *ListingHandler) Delete(c *gin.Context) {
	if err := h.listings.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UploadImage godoc
// @Summary Attach an image to a listing
// @Tags Listings
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Param file formData file true "Image file"
// @Success 200 {object} response.Envelope
// @Router /listings/{id}/image [post]
func (h *ListingHandler) UploadImage(c *gin.Context) {
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

	listing, err := h.listings.AttachImage(c.Request.Context(), currentUserID(c), c.Param("id"), fileHeader.Filename, data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, listing, nil)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/givelane/givelane-api/internal/service"
	appErrors "github.com/givelane/givelane-api/pkg/errors"
	"github.com/givelane/givelane-api/pkg/response"
)

// TagHandler exposes tag endpoints.
type TagHandler struct {
	tags *service.TagService
}

// NewTagHandler constructs TagHandler.
func NewTagHandler(tags *service.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

type addTagRequest struct {
	Label string `json:"label"`
}

// Add godoc
// @Summary Tag a listing
// @Tags Tags
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Param payload body addTagRequest true "Label"
// @Success 201 {object} response.Envelope
// @Router /listings/{id}/tags [post]
func (h *TagHandler) Add(c *gin.Context) {
	var req addTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	tag, err := h.tags.Add(c.Request.Context(), currentUserID(c), c.Param("id"), req.Label)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tag)
}

// ListByListing godoc
// @Summary List a listing's tags
// @Tags Tags
// @Produce json
// @Param id path string true "Listing ID"
// @Success 200 {object} response.Envelope
// @Router /listings/{id}/tags [get]
func (h *TagHandler) ListByListing(c *gin.Context) {
	tags, err := h.tags.ListByListing(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tags, nil)
}

// Remove godoc
// @Summary Remove a tag from a listing
// @Tags Tags
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Param label path string true "Label"
// @Success 204
// @Router /listings/{id}/tags/{label} [delete]
func (h *TagHandler) Remove(c *gin.Context) {
	if err := h.tags.Remove(c.Request.Context(), currentUserID(c), c.Param("id"), c.Param("label")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Search godoc
// @Summary Find visible listings by tag label
// @Tags Tags
// @Produce json
// @Param label query string true "Label"
// @Success 200 {object} response.Envelope
// @Router /tags/search [get]
func (h *TagHandler) Search(c *gin.Context) {
	listings, err := h.tags.SearchListings(c.Request.Context(), c.Query("label"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, listings, nil)
}

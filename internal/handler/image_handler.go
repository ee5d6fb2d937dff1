package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/givelane/givelane-api/internal/service"
	appErrors "github.com/givelane/givelane-api/pkg/errors"
	"github.com/givelane/givelane-api/pkg/response"
	"github.com/givelane/givelane-api/pkg/storage"
)

// ImageHandler hands out signed download links for stored images and serves
// them back.
type ImageHandler struct {
	listings *service.ListingService
	store    *storage.LocalStorage
	signer   *storage.SignedURLSigner
}

// NewImageHandler constructs ImageHandler.
func NewImageHandler(listings *service.ListingService, store *storage.LocalStorage, signer *storage.SignedURLSigner) *ImageHandler {
	return &ImageHandler{listings: listings, store: store, signer: signer}
}

// SignedURL godoc
// @Summary Get a signed download link for a listing's image
// @Tags Images
// @Produce json
// @Param id path string true "Listing ID"
// @Success 200 {object} response.Envelope
// @Router /listings/{id}/image-url [get]
func (h *ImageHandler) SignedURL(c *gin.Context) {
	listing, err := h.listings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if listing.ImagePath == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "listing has no image"))
		return
	}
	token, expiresAt, err := h.signer.Generate(listing.ID, listing.ImagePath)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign url"))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"url":        "/api/v1/files/" + token,
		"expires_at": expiresAt,
	}, nil)
}

// Download godoc
// @Summary Download a file via a signed token
// @Tags Images
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Router /files/{token} [get]
func (h *ImageHandler) Download(c *gin.Context) {
	_, relPath, _, err := h.signer.Parse(c.Param("token"), false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired link"))
		return
	}
	c.File(h.store.Path(relPath))
}

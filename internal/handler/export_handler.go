package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/givelane/givelane-api/internal/service"
	"github.com/givelane/givelane-api/pkg/response"
)

// ExportHandler exposes claim history and receipt downloads.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// ClaimHistoryCSV godoc
// @Summary Download the caller's claim history as CSV
// @Tags Exports
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {file} file
// @Router /exports/claims.csv [get]
func (h *ExportHandler) ClaimHistoryCSV(c *gin.Context) {
	data, err := h.exports.ClaimHistoryCSV(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("claims-%s.csv", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", data)
}

// ClaimHistoryPDF godoc
// @Summary Download the caller's claim history as PDF
// @Tags Exports
// @Produce application/pdf
// @Security BearerAuth
// @Success 200 {file} file
// @Router /exports/claims.pdf [get]
func (h *ExportHandler) ClaimHistoryPDF(c *gin.Context) {
	data, err := h.exports.ClaimHistoryPDF(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("claims-%s.pdf", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

// ClaimReceiptPDF godoc
// @Summary Download a PDF receipt for one claim
// @Tags Exports
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Claim ID"
// @Success 200 {file} file
// @Router /claims/{id}/receipt.pdf [get]
func (h *ExportHandler) ClaimReceiptPDF(c *gin.Context) {
	data, err := h.exports.ClaimReceiptPDF(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "receipt-"+c.Param("id")+".pdf"))
	c.Data(http.StatusOK, "application/pdf", data)
}

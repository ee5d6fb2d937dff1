package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/givelane/givelane-api/internal/models"
	appErrors "github.com/givelane/givelane-api/pkg/errors"
	"github.com/givelane/givelane-api/pkg/export"
)

type exportClaimStore interface {
	FindByID(ctx context.Context, id string) (*models.Claim, error)
	List(ctx context.Context, filter models.ClaimFilter) ([]models.Claim, error)
}

type exportListingFinder interface {
	FindByID(ctx context.Context, id string) (*models.Listing, error)
}

// ExportService renders claim histories and receipts into downloadable
// documents.
type ExportService struct {
	claims   exportClaimStore
	listings exportListingFinder
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(claims exportClaimStore, listings exportListingFinder, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		claims:   claims,
		listings: listings,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

var claimHistoryHeaders = []string{"Claim ID", "Listing", "Quantity", "Claimed At"}

// ClaimHistoryCSV renders a member's claim history as CSV.
func (s *ExportService) ClaimHistoryCSV(ctx context.Context, claimerID string) ([]byte, error) {
	dataset, err := s.claimHistoryDataset(ctx, claimerID)
	if err != nil {
		return nil, err
	}
	data, err := s.csv.Render(*dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return data, nil
}

// ClaimHistoryPDF renders a member's claim history as a PDF document.
func (s *ExportService) ClaimHistoryPDF(ctx context.Context, claimerID string) ([]byte, error) {
	dataset, err := s.claimHistoryDataset(ctx, claimerID)
	if err != nil {
		return nil, err
	}
	data, err := s.pdf.Render(*dataset, "Claim History")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return data, nil
}

// ClaimReceiptPDF renders a single claim as a PDF receipt, claimer only.
func (s *ExportService) ClaimReceiptPDF(ctx context.Context, callerID, claimID string) ([]byte, error) {
	claim, err := s.claims.FindByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "claim not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load claim")
	}
	if err := assertOwner(claim.ClaimerID, callerID); err != nil {
		return nil, err
	}
	dataset := export.Dataset{
		Headers: claimHistoryHeaders,
		Rows:    []map[string]string{s.claimRow(ctx, claim)},
	}
	data, err := s.pdf.Render(dataset, fmt.Sprintf("Claim Receipt %s", claim.ID))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return data, nil
}

func (s *ExportService) claimHistoryDataset(ctx context.Context, claimerID string) (*export.Dataset, error) {
	claims, err := s.claims.List(ctx, models.ClaimFilter{ClaimerID: claimerID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list claims")
	}
	if len(claims) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotClaimed, "no claims to export")
	}
	dataset := &export.Dataset{Headers: claimHistoryHeaders}
	for i := range claims {
		dataset.Rows = append(dataset.Rows, s.claimRow(ctx, &claims[i]))
	}
	return dataset, nil
}

func (s *ExportService) claimRow(ctx context.Context, claim *models.Claim) map[string]string {
	listingName := claim.ListingID
	if listing, err := s.listings.FindByID(ctx, claim.ListingID); err == nil {
		listingName = listing.Name
	}
	return map[string]string{
		"Claim ID":   claim.ID,
		"Listing":    listingName,
		"Quantity":   strconv.Itoa(claim.Quantity),
		"Claimed At": claim.CreatedAt.UTC().Format(time.RFC3339),
	}
}

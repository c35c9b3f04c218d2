package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"pottery-store/internal/bulkupload"
	"pottery-store/internal/metrics"
	"pottery-store/internal/model"
	"pottery-store/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// bulkUploadService implements BulkUploadService.
type bulkUploadService struct {
	db           repository.TxBeginner
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	loader       bulkupload.Loader
	metrics      *metrics.Metrics
	logger       zerolog.Logger
}

// NewBulkUploadService creates a bulk upload service. loader may be nil when
// imports from storage are not configured.
func NewBulkUploadService(
	db repository.TxBeginner,
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	loader bulkupload.Loader,
	m *metrics.Metrics,
	logger zerolog.Logger,
) BulkUploadService {
	return &bulkUploadService{
		db:           db,
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		loader:       loader,
		metrics:      m,
		logger:       logger.With().Str("service", "bulk_upload").Logger(),
	}
}

// Upload parses a CSV stream and inserts every valid row.
func (s *bulkUploadService) Upload(ctx context.Context, r io.Reader) (*model.BulkUploadResult, error) {
	parsed, err := bulkupload.Parse(ctx, r)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to parse uploaded CSV")
		return nil, err
	}
	return s.insert(ctx, parsed)
}

// Import loads a CSV from storage and inserts every valid row.
func (s *bulkUploadService) Import(ctx context.Context, key string) (*model.BulkUploadResult, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, model.NewValidationError("key", "key is required")
	}
	if s.loader == nil {
		return nil, model.NewValidationError("key", "no import source is configured")
	}

	parsed, err := s.loader.Load(ctx, key)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to load CSV")
		return nil, err
	}
	return s.insert(ctx, parsed)
}

// insert rejects rows with unknown categories and writes the rest in one transaction.
func (s *bulkUploadService) insert(ctx context.Context, parsed *bulkupload.Result) (_ *model.BulkUploadResult, err error) {
	ctx, span := tracer.Start(ctx, "BulkUploadService.insert")
	defer func() {
		if err != nil {
			spanError(span, err)
		}
		span.End()
	}()

	rowErrors := append([]model.RowError{}, parsed.Errors...)

	categoryIDs := make([]string, 0, len(parsed.Rows))
	seen := make(map[string]bool, len(parsed.Rows))
	for _, row := range parsed.Rows {
		if id := row.Product.CategoryID; !seen[id] {
			seen[id] = true
			categoryIDs = append(categoryIDs, id)
		}
	}

	existing, err := s.categoryRepo.ExistingIDs(ctx, categoryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to check categories: %w", err)
	}

	now := time.Now().UTC()
	products := make([]model.Product, 0, len(parsed.Rows))
	for _, row := range parsed.Rows {
		if !existing[row.Product.CategoryID] {
			rowErrors = append(rowErrors, model.RowError{
				Row:     row.Number,
				Message: fmt.Sprintf("unknown category %q", row.Product.CategoryID),
			})
			continue
		}
		req := row.Product
		products = append(products, *newProduct(&req, now))
	}

	sort.Slice(rowErrors, func(i, j int) bool { return rowErrors[i].Row < rowErrors[j].Row })

	if len(products) > 0 {
		err = withTx(ctx, s.db, s.logger, func(tx pgx.Tx) error {
			return s.productRepo.CreateBatch(ctx, tx, products)
		})
		if err != nil {
			s.logger.Error().Err(err).Int("count", len(products)).Msg("failed to insert products")
			return nil, err
		}
	}

	result := &model.BulkUploadResult{
		Created: len(products),
		Failed:  len(rowErrors),
		Errors:  rowErrors,
	}

	span.SetAttributes(
		attribute.Int("upload.created", result.Created),
		attribute.Int("upload.failed", result.Failed),
	)
	s.metrics.UploadRows(result.Created, result.Failed)

	s.logger.Info().
		Int("created", result.Created).
		Int("failed", result.Failed).
		Msg("bulk upload processed")

	return result, nil
}

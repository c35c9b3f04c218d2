package service

import (
	"context"
	"fmt"

	"pottery-store/internal/model"
	"pottery-store/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// cartService implements CartService.
type cartService struct {
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(productRepo repository.ProductRepository, logger zerolog.Logger) CartService {
	return &cartService{
		productRepo: productRepo,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

// Quote prices each line at the current catalogue price.
// Unknown products and lines exceeding stock make the cart not purchasable but are still returned.
func (s *cartService) Quote(ctx context.Context, req *model.QuoteRequest) (*model.Quote, error) {
	if req == nil {
		return nil, model.NewValidationError("items", "items are required")
	}

	lines, err := mergeCartItems(req.Items)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(lines))
	for i, line := range lines {
		ids[i] = line.ProductID
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Int("line_count", len(lines)).Msg("failed to load cart products")
		return nil, fmt.Errorf("failed to quote cart: %w", err)
	}
	byID := indexProducts(products)

	quote := &model.Quote{
		Lines:       make([]model.QuoteLine, 0, len(lines)),
		Total:       decimal.Zero,
		Purchasable: true,
	}

	for _, line := range lines {
		ql := model.QuoteLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		}

		p, ok := byID[line.ProductID]
		if !ok {
			quote.Purchasable = false
			quote.Lines = append(quote.Lines, ql)
			continue
		}

		ql.Found = true
		ql.Name = p.Name
		ql.UnitPrice = p.Price
		ql.Subtotal = p.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		ql.Available = p.Stock
		ql.InStock = line.Quantity <= p.Stock

		if !ql.InStock {
			quote.Purchasable = false
		}

		quote.Total = quote.Total.Add(ql.Subtotal)
		quote.Lines = append(quote.Lines, ql)
	}

	return quote, nil
}

// mergeCartItems validates cart lines and merges lines for the same product.
// The first line's position and client price are kept.
func mergeCartItems(items []model.CartItem) ([]model.CartItem, error) {
	if len(items) == 0 {
		return nil, model.NewValidationError("items", "at least one item is required")
	}

	merged := make([]model.CartItem, 0, len(items))
	index := make(map[string]int, len(items))

	for i, item := range items {
		if item.ProductID == "" {
			return nil, model.NewValidationError(fmt.Sprintf("items[%d].productId", i), "product ID is required")
		}
		if item.Quantity <= 0 || item.Quantity > model.MaxLineQuantity {
			return nil, model.ErrInvalidQuantity
		}

		if pos, ok := index[item.ProductID]; ok {
			if merged[pos].Quantity > model.MaxLineQuantity-item.Quantity {
				return nil, model.ErrInvalidQuantity
			}
			merged[pos].Quantity += item.Quantity
			if merged[pos].Price == nil {
				merged[pos].Price = item.Price
			}
			continue
		}

		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}

	return merged, nil
}

func indexProducts(products []model.Product) map[string]model.Product {
	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID
}

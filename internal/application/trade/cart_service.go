package trade

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/unimerch/backend/internal/domain/catalog"
	"github.com/unimerch/backend/internal/domain/shared"
	"github.com/unimerch/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// CartService manages shopping carts
type CartService struct {
	cartRepo    trade.CartRepository
	productRepo catalog.ProductRepository
	currency    string
	logger      *zap.Logger
}

// NewCartService creates a new CartService
func NewCartService(cartRepo trade.CartRepository, productRepo catalog.ProductRepository, currency string, logger *zap.Logger) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		currency:    currency,
		logger:      logger,
	}
}

// Add puts quantity units of a product in the cart, merging with an existing line
func (s *CartService) Add(ctx context.Context, tenantID, userID, productID uuid.UUID, quantity int) (*CartLineDTO, error) {
	product, err := s.productRepo.FindByID(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsAvailable() {
		return nil, shared.NewDomainError("PRODUCT_UNAVAILABLE", "Product is not available")
	}

	item, err := trade.NewCartItem(tenantID, userID, productID, quantity)
	if err != nil {
		return nil, err
	}
	item, err = s.cartRepo.Merge(ctx, item, min(product.Quantity, trade.MaxCartLineQuantity))
	if errors.Is(err, shared.ErrInsufficientStock) {
		return nil, stockError(product)
	}
	if err != nil {
		return nil, err
	}

	dto := toCartLineDTO(trade.CartLine{Item: *item, Product: product})
	return &dto, nil
}

// UpdateQuantity replaces the quantity of one line
func (s *CartService) UpdateQuantity(ctx context.Context, tenantID, userID, itemID uuid.UUID, quantity int) (*CartLineDTO, error) {
	item, err := s.cartRepo.FindByID(ctx, tenantID, userID, itemID)
	if err != nil {
		return nil, err
	}
	if err := item.SetQuantity(quantity); err != nil {
		return nil, err
	}
	product, err := s.productRepo.FindByID(ctx, tenantID, item.ProductID)
	if err != nil {
		return nil, err
	}
	if err := checkStock(product, quantity); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, item); err != nil {
		return nil, err
	}

	dto := toCartLineDTO(trade.CartLine{Item: *item, Product: product})
	return &dto, nil
}

// Remove drops one line
func (s *CartService) Remove(ctx context.Context, tenantID, userID, itemID uuid.UUID) error {
	return s.cartRepo.Delete(ctx, tenantID, userID, itemID)
}

// Clear empties the cart
func (s *CartService) Clear(ctx context.Context, tenantID, userID uuid.UUID) error {
	return s.cartRepo.Clear(ctx, tenantID, userID)
}

// Get returns every line with its product snapshot
func (s *CartService) Get(ctx context.Context, tenantID, userID uuid.UUID) (*CartView, error) {
	lines, err := s.lines(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	view := &CartView{Items: make([]CartLineDTO, len(lines)), Summary: toSummaryDTO(trade.Summarize(lines))}
	for i, l := range lines {
		view.Items[i] = toCartLineDTO(l)
	}
	return view, nil
}

// Validate checks every line against current product status and stock
func (s *CartService) Validate(ctx context.Context, tenantID, userID uuid.UUID) (*CartValidation, error) {
	lines, err := s.lines(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	result := &CartValidation{ValidItems: []CartLineDTO{}, InvalidItems: []CartLineDTO{}}
	valid := make([]trade.CartLine, 0, len(lines))
	for _, l := range lines {
		dto := toCartLineDTO(l)
		if reason := l.Problem(); reason != "" {
			dto.Reason = reason
			result.InvalidItems = append(result.InvalidItems, dto)
			continue
		}
		valid = append(valid, l)
		result.ValidItems = append(result.ValidItems, dto)
	}
	result.IsValid = len(result.InvalidItems) == 0
	result.Summary = toSummaryDTO(trade.Summarize(valid))
	return result, nil
}

// Count returns the number of units and distinct products
func (s *CartService) Count(ctx context.Context, tenantID, userID uuid.UUID) (*CartCount, error) {
	items, err := s.cartRepo.FindByUser(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	count := &CartCount{UniqueProducts: len(items)}
	for _, item := range items {
		count.TotalItems += item.Quantity
	}
	return count, nil
}

// Total returns the amount due in the shop currency
func (s *CartService) Total(ctx context.Context, tenantID, userID uuid.UUID) (*CartTotal, error) {
	lines, err := s.lines(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	summary := trade.Summarize(lines)
	return &CartTotal{TotalAmount: summary.TotalAmount, TotalItems: summary.TotalItems, Currency: s.currency}, nil
}

func (s *CartService) lines(ctx context.Context, tenantID, userID uuid.UUID) ([]trade.CartLine, error) {
	items, err := s.cartRepo.FindByUser(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []trade.CartLine{}, nil
	}

	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	products, err := s.productRepo.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]trade.CartLine, len(items))
	for i, item := range items {
		lines[i] = trade.CartLine{Item: *item, Product: byID[item.ProductID]}
	}
	return lines, nil
}

func checkStock(product *catalog.Product, quantity int) error {
	if quantity > product.Quantity {
		return stockError(product)
	}
	return nil
}

func stockError(product *catalog.Product) error {
	return shared.NewDomainError("INSUFFICIENT_STOCK",
		fmt.Sprintf("Only %d units of %s are in stock", product.Quantity, product.Name))
}

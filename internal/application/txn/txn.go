// Package txn defines the unit of work that application services use when
// several repositories must change together.
package txn

import (
	"context"

	"github.com/unimerch/backend/internal/domain/catalog"
	"github.com/unimerch/backend/internal/domain/finance"
	"github.com/unimerch/backend/internal/domain/trade"
)

// Repositories exposes repositories bound to one open transaction
type Repositories interface {
	Products() catalog.ProductRepository
	Orders() trade.OrderRepository
	Cart() trade.CartRepository
	Payments() finance.PaymentRepository
}

// Scope runs fn inside a transaction. The transaction is rolled back when fn
// returns an error and committed otherwise.
type Scope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

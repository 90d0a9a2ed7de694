package core

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrOrderNotFound = errors.New("order not found")

	// ErrReferenceNotFound means a catalog lookup found no entry.
	ErrReferenceNotFound = errors.New("reference not found")

	// ErrInvalidReference means caller-supplied data named a catalog entry that does not exist.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrCatalogNotSeeded means the initial order status is missing; the service is misconfigured.
	ErrCatalogNotSeeded = errors.New("reference catalog not seeded")

	// ErrOrderNumberExhausted means every generated order number collided. Callers may retry the create.
	ErrOrderNumberExhausted = errors.New("order number generation exhausted")

	ErrInvalidOrder = errors.New("invalid order")
)

// ReferenceError names the catalog and the id or code that failed to resolve.
type ReferenceError struct {
	Kind CatalogKind
	Ref  string
	Err  error
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind.Label(), e.Ref)
}

func (e *ReferenceError) Unwrap() error {
	return e.Err
}

func invalidOrder(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOrder, fmt.Sprintf(format, args...))
}

const (
	pgUniqueViolation     = "23505"
	orderNumberConstraint = "orders_order_number_key"
)

// isOrderNumberConflict reports whether err is a unique violation on orders.order_number.
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == orderNumberConstraint
}

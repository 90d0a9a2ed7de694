package core

import (
	"encoding/base32"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderNumberGenerator returns a candidate order number for the given moment.
// Candidates may collide; the store's unique constraint is the final arbiter.
type OrderNumberGenerator func(now time.Time) string

// Crockford alphabet: no I, L, O or U, so numbers read back unambiguously over the phone.
var orderNumberEncoding = base32.NewEncoding("0123456789ABCDEFGHJKMNPQRSTVWXYZ").WithPadding(base32.NoPadding)

// NewOrderNumber formats ORD-<yyyy>-<mm>-<8 chars>. The suffix carries 40 random
// bits taken from a v4 UUID, so the month bucket has about 10^12 values.
func NewOrderNumber(now time.Time) string {
	id := uuid.New()
	suffix := orderNumberEncoding.EncodeToString(id[:5])
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("2006-01"), suffix)
}

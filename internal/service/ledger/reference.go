package ledger

import "github.com/google/uuid"

// UUIDReferenceGenerator produces 128-bit random references. Collisions are
// treated as retryable, not impossible: the store's unique constraint is the
// arbiter and the engine retries with a fresh value.
type UUIDReferenceGenerator struct{}

func NewUUIDReferenceGenerator() UUIDReferenceGenerator {
	return UUIDReferenceGenerator{}
}

func (UUIDReferenceGenerator) NewReference() string {
	return uuid.NewString()
}

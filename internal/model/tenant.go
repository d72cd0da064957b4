package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TenantStatus is the lifecycle state of a storage-company account.
type TenantStatus string

const (
	TenantActive    TenantStatus = "active"
	TenantSuspended TenantStatus = "suspended"
)

// TenantStore resolves tenant records for the suspension gate. The check is
// a separate read from the user lookup; tenant suspension is a soft,
// eventually consistent gate.
type TenantStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (Tenant, error)
}

// Tenant is a storage company, the unit of multi-tenant isolation.
type Tenant struct {
	ID        uuid.UUID
	Name      string
	Status    TenantStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/warelock/warelock-auth/internal/model"
)

var _ model.TenantStore = (*TenantRepository)(nil)

type TenantRepository struct {
	db DB
}

func NewTenantRepository(db DB) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Tenant, error) {
	const query = `SELECT id, name, status, created_at, updated_at FROM tenants WHERE id = $1`

	var tenant model.Tenant
	err := r.db.QueryRow(ctx, query, id).Scan(
		&tenant.ID, &tenant.Name, &tenant.Status, &tenant.CreatedAt, &tenant.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Tenant{}, model.ErrNotFound
		}
		return model.Tenant{}, fmt.Errorf("failed to get tenant by id: %w", err)
	}
	return tenant, nil
}

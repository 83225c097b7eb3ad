package repository

import (
	"context"

	"github.com/JoseGikaara/instantsite-sub000/internal/domain/model"
)

// CreditPackageRepository is the port for the static package catalog.
type CreditPackageRepository interface {
	Save(ctx context.Context, tx Tx, p *model.CreditPackage) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.CreditPackage, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.CreditPackage, error)
}

package repository

import (
	"context"

	"groupgate/internal/domain"
)

type BindingRepository interface {
	Create(ctx context.Context, b *domain.Binding) error
	GetByUserID(ctx context.Context, userID string) (*domain.Binding, error)
	GetByAccountID(ctx context.Context, accountID string) (*domain.Binding, error)
	Update(ctx context.Context, b *domain.Binding) error
	ListAdmins(ctx context.Context) ([]domain.Binding, error)
}

package postgres

import (
	"context"
	"database/sql"
	"time"

	"groupgate/internal/domain"
	"groupgate/internal/repository"
)

type bindingRepository struct {
	db *sql.DB
}

func NewBindingRepository(db *sql.DB) repository.BindingRepository {
	return &bindingRepository{db: db}
}

func (r *bindingRepository) Create(ctx context.Context, b *domain.Binding) error {
	query := `INSERT INTO bindings (user_id, account_id, account_name, level, badge, admin, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $7) RETURNING id`
	now := time.Now().Format("2006-01-02")
	return r.db.QueryRowContext(ctx, query, b.UserID, b.AccountID, b.AccountName, b.Level, b.Badge, b.Admin, now).Scan(&b.ID)
}

func (r *bindingRepository) GetByUserID(ctx context.Context, userID string) (*domain.Binding, error) {
	b := &domain.Binding{}
	query := `SELECT id, user_id, account_id, account_name, level, badge, admin, created_on, updated_on
	          FROM bindings WHERE user_id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&b.ID, &b.UserID, &b.AccountID, &b.AccountName, &b.Level, &b.Badge, &b.Admin, &b.CreatedOn, &b.UpdatedOn)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *bindingRepository) GetByAccountID(ctx context.Context, accountID string) (*domain.Binding, error) {
	b := &domain.Binding{}
	query := `SELECT id, user_id, account_id, account_name, level, badge, admin, created_on, updated_on
	          FROM bindings WHERE account_id = $1`
	err := r.db.QueryRowContext(ctx, query, accountID).
		Scan(&b.ID, &b.UserID, &b.AccountID, &b.AccountName, &b.Level, &b.Badge, &b.Admin, &b.CreatedOn, &b.UpdatedOn)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *bindingRepository) Update(ctx context.Context, b *domain.Binding) error {
	query := `UPDATE bindings SET account_id = $1, account_name = $2, level = $3, badge = $4, admin = $5, updated_on = $6
	          WHERE user_id = $7`
	_, err := r.db.ExecContext(ctx, query, b.AccountID, b.AccountName, b.Level, b.Badge, b.Admin, time.Now().Format("2006-01-02"), b.UserID)
	return err
}

func (r *bindingRepository) ListAdmins(ctx context.Context) ([]domain.Binding, error) {
	query := `SELECT id, user_id, account_id, account_name, level, badge, admin, created_on, updated_on
	          FROM bindings WHERE admin = TRUE`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []domain.Binding
	for rows.Next() {
		var b domain.Binding
		if err := rows.Scan(&b.ID, &b.UserID, &b.AccountID, &b.AccountName, &b.Level, &b.Badge, &b.Admin, &b.CreatedOn, &b.UpdatedOn); err != nil {
			return nil, err
		}
		admins = append(admins, b)
	}
	return admins, rows.Err()
}

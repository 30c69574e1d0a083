package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/brlglobal/brladmin/internal/model"
)

// PostgresRoleRepo はPostgreSQLを使用したロールリポジトリ。
type PostgresRoleRepo struct {
	db *sql.DB
}

// NewPostgresRoleRepo はPostgresRoleRepoを生成する。
func NewPostgresRoleRepo(db *sql.DB) *PostgresRoleRepo {
	return &PostgresRoleRepo{db: db}
}

// FindByName はロール名でロールを取得する。見つからない場合はnilを返す。
func (r *PostgresRoleRepo) FindByName(ctx context.Context, name string) (*model.Role, error) {
	role := &model.Role{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description FROM roles WHERE name = $1`,
		name,
	).Scan(&role.ID, &role.Name, &role.Description)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find role: %w", err)
	}
	return role, nil
}

// List は全ロールをID順で返す。
func (r *PostgresRoleRepo) List(ctx context.Context) ([]*model.Role, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description FROM roles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []*model.Role
	for rows.Next() {
		role := &model.Role{}
		if err := rows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roles: %w", err)
	}
	return roles, nil
}

// compile-time interface check
var _ RoleRepository = (*PostgresRoleRepo)(nil)

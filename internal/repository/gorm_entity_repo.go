package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormEntityRepo はgormを使用した管理画面エンティティの汎用リポジトリ。
// 一覧・単件取得では指定された関連をプリロードし、書き込みでは関連を保存しない。
type GormEntityRepo[T any] struct {
	db       *gorm.DB
	preloads []string
}

// NewGormEntityRepo はGormEntityRepoを生成する。
func NewGormEntityRepo[T any](db *gorm.DB, preloads ...string) *GormEntityRepo[T] {
	return &GormEntityRepo[T]{db: db, preloads: preloads}
}

func (r *GormEntityRepo[T]) query(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx)
	for _, p := range r.preloads {
		q = q.Preload(p)
	}
	return q
}

// List は全件をID昇順で返す。0件の場合は空スライスを返す。
func (r *GormEntityRepo[T]) List(ctx context.Context) ([]T, error) {
	rows := make([]T, 0)
	if err := r.query(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list rows: %w", err)
	}
	return rows, nil
}

// FindByID は指定IDの行を返す。見つからない場合はnilを返す。
func (r *GormEntityRepo[T]) FindByID(ctx context.Context, id uint) (*T, error) {
	var row T
	err := r.query(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find row: %w", err)
	}
	return &row, nil
}

// Create は行を挿入する。採番されたIDとタイムスタンプはrowに反映される。
func (r *GormEntityRepo[T]) Create(ctx context.Context, row *T) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(row).Error; err != nil {
		return fmt.Errorf("failed to insert row: %w", classifyError(err))
	}
	return nil
}

// Save は行の全カラムを更新する。
func (r *GormEntityRepo[T]) Save(ctx context.Context, row *T) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(row).Error; err != nil {
		return fmt.Errorf("failed to save row: %w", classifyError(err))
	}
	return nil
}

// Delete は指定IDの行を削除する。該当行がなければfalseを返す。
func (r *GormEntityRepo[T]) Delete(ctx context.Context, id uint) (bool, error) {
	var row T
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&row)
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete row: %w", classifyError(res.Error))
	}
	return res.RowsAffected > 0, nil
}

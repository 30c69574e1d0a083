// Package crud は管理画面エンティティの汎用CRUD操作を提供する。
// エンティティごとの差分はSchema（名前・プリロード・初期値）と構造体タグの検証ルールのみ。
package crud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/brlglobal/brladmin/internal/model"
	"github.com/brlglobal/brladmin/internal/repository"
	"github.com/brlglobal/brladmin/internal/validation"
)

// Schema はエンティティ種別ごとの設定。
type Schema[T any] struct {
	// Name はURLセグメント（例: "ocean-carriers", "airfreight/inbound"）。
	Name string
	// Label はエラーメッセージに使う単数形の表示名。
	Label string
	// Preloads は一覧・単件取得時に結合する関連名。
	Preloads []string
	// New は作成時の初期値を持つ行を返す。nilの場合はゼロ値。
	New func() *T
}

// Record はBaseを埋め込んだエンティティへのポインタ型の制約。
type Record[T any] interface {
	*T
	model.Record
}

// Resource はエンティティTの一覧・作成・更新・削除を提供する。
type Resource[T any, PT Record[T]] struct {
	schema    Schema[T]
	store     repository.EntityRepository[T]
	validator *validation.Validator
	sanitizer *validation.Sanitizer
}

// NewResource はResourceを生成する。
func NewResource[T any, PT Record[T]](
	schema Schema[T],
	store repository.EntityRepository[T],
	validator *validation.Validator,
	sanitizer *validation.Sanitizer,
) *Resource[T, PT] {
	if schema.Label == "" {
		schema.Label = schema.Name
	}
	return &Resource[T, PT]{
		schema:    schema,
		store:     store,
		validator: validator,
		sanitizer: sanitizer,
	}
}

// Name はURLセグメントを返す。
func (r *Resource[T, PT]) Name() string { return r.schema.Name }

// Label は表示名を返す。
func (r *Resource[T, PT]) Label() string { return r.schema.Label }

// List は全件をID昇順で返す。
func (r *Resource[T, PT]) List(ctx context.Context) ([]T, error) {
	rows, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.schema.Name, err)
	}
	return rows, nil
}

// Get は指定IDの行を返す。存在しない場合はNOT_FOUND。
func (r *Resource[T, PT]) Get(ctx context.Context, rawID string) (*T, error) {
	id, ok := ParseID(rawID)
	if !ok {
		return nil, model.NewNotFoundError(r.schema.Label, rawID)
	}
	return r.find(ctx, id)
}

func (r *Resource[T, PT]) find(ctx context.Context, id uint) (*T, error) {
	row, err := r.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", r.schema.Name, err)
	}
	if row == nil {
		return nil, model.NewNotFoundError(r.schema.Label, id)
	}
	return row, nil
}

// Create はJSONボディから行を作成し、保存後の行を返す。
// ボディ中のidとタイムスタンプは無視する。
func (r *Resource[T, PT]) Create(ctx context.Context, body []byte) (*T, error) {
	row := r.newRow()
	if err := decode(body, row); err != nil {
		return nil, err
	}
	*PT(row).Record() = model.Base{}

	if err := r.prepare(row); err != nil {
		return nil, err
	}

	if err := r.store.Create(ctx, row); err != nil {
		return nil, r.translate(err, false)
	}

	id := PT(row).Record().ID
	slog.InfoContext(ctx, "entity created",
		slog.String("resource", r.schema.Name),
		slog.Uint64("id", uint64(id)),
	)
	return r.reload(ctx, id, row)
}

// Update は既存行に送信されたフィールドを上書きして保存する。
// 送信されなかったフィールドは既存値を保持する。
func (r *Resource[T, PT]) Update(ctx context.Context, rawID string, body []byte) (*T, error) {
	id, ok := ParseID(rawID)
	if !ok {
		return nil, model.NewNotFoundError(r.schema.Label, rawID)
	}

	row, err := r.find(ctx, id)
	if err != nil {
		return nil, err
	}
	base := *PT(row).Record()

	if err := decode(body, row); err != nil {
		return nil, err
	}
	*PT(row).Record() = base

	if err := r.prepare(row); err != nil {
		return nil, err
	}

	if err := r.store.Save(ctx, row); err != nil {
		return nil, r.translate(err, false)
	}

	slog.InfoContext(ctx, "entity updated",
		slog.String("resource", r.schema.Name),
		slog.Uint64("id", uint64(id)),
	)
	return r.reload(ctx, id, row)
}

// Delete は行を削除し、削除前の内容を返す。
func (r *Resource[T, PT]) Delete(ctx context.Context, rawID string) (*T, error) {
	id, ok := ParseID(rawID)
	if !ok {
		return nil, model.NewNotFoundError(r.schema.Label, rawID)
	}

	row, err := r.find(ctx, id)
	if err != nil {
		return nil, err
	}

	deleted, err := r.store.Delete(ctx, id)
	if err != nil {
		return nil, r.translate(err, true)
	}
	if !deleted {
		return nil, model.NewNotFoundError(r.schema.Label, id)
	}

	slog.InfoContext(ctx, "entity deleted",
		slog.String("resource", r.schema.Name),
		slog.Uint64("id", uint64(id)),
	)
	return row, nil
}

func (r *Resource[T, PT]) newRow() *T {
	if r.schema.New != nil {
		return r.schema.New()
	}
	return new(T)
}

// prepare はサニタイズと検証を行う。
func (r *Resource[T, PT]) prepare(row *T) error {
	if r.sanitizer != nil {
		r.sanitizer.Struct(row)
	}
	return r.validator.Struct(row)
}

// reload はプリロード済みの行を取得し直す。取得できなければfallbackを返す。
func (r *Resource[T, PT]) reload(ctx context.Context, id uint, fallback *T) (*T, error) {
	row, err := r.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload %s: %w", r.schema.Name, err)
	}
	if row == nil {
		return fallback, nil
	}
	return row, nil
}

// decode はJSONボディをrowに上書きする。未知のフィールドは無視する。
func decode(body []byte, row any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return model.NewValidationError(model.FieldError{Field: "body", Reason: "is required"})
	}
	if err := json.Unmarshal(body, row); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return model.NewValidationError(model.FieldError{
				Field:  typeErr.Field,
				Reason: "must be a " + typeErr.Type.String(),
			})
		}
		var timeErr *time.ParseError
		if errors.As(err, &timeErr) {
			return model.NewValidationError(model.FieldError{
				Field:  "body",
				Reason: "dates must be YYYY-MM-DD or RFC 3339 timestamps",
			})
		}
		return model.NewValidationError(model.FieldError{Field: "body", Reason: "must be a valid JSON object"})
	}
	return nil
}

// ParseID はパスパラメータのIDを解析する。正の整数でなければfalseを返す。
func ParseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

package crud

import "context"

// Endpoint は型を消去したResource。HTTPハンドラとエクスポートが使う。
// ListRowsは[]T、その他は*Tをanyとして返す。
type Endpoint interface {
	Name() string
	Label() string
	ListRows(ctx context.Context) (any, error)
	CreateRow(ctx context.Context, body []byte) (any, error)
	UpdateRow(ctx context.Context, id string, body []byte) (any, error)
	DeleteRow(ctx context.Context, id string) (any, error)
}

func (r *Resource[T, PT]) ListRows(ctx context.Context) (any, error) {
	rows, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Resource[T, PT]) CreateRow(ctx context.Context, body []byte) (any, error) {
	row, err := r.Create(ctx, body)
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (r *Resource[T, PT]) UpdateRow(ctx context.Context, id string, body []byte) (any, error) {
	row, err := r.Update(ctx, id, body)
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (r *Resource[T, PT]) DeleteRow(ctx context.Context, id string) (any, error) {
	row, err := r.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	return row, nil
}

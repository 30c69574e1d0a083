package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/brlglobal/brladmin/internal/crud"
	"github.com/brlglobal/brladmin/internal/export"
	"github.com/brlglobal/brladmin/internal/middleware"
	"github.com/brlglobal/brladmin/internal/model"
)

// adminBodyLimit は管理APIのリクエストボディ上限（バイト）。
// documentsはbase64のファイル内容を含むため大きめに取る。
const adminBodyLimit = 16 << 20

// WriteRecorder はエンティティ書き込みの記録先。
type WriteRecorder interface {
	RecordEntityWrite(resource, operation string)
}

// 書き込み操作の種類。
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// ResourceHandler は1種類のエンティティに対するCRUDとエクスポートのHTTPハンドラー。
type ResourceHandler struct {
	endpoint crud.Endpoint
	recorder WriteRecorder
	now      func() time.Time
}

// NewResourceHandler はResourceHandlerを生成する。recorderはnilでもよい。
func NewResourceHandler(endpoint crud.Endpoint, recorder WriteRecorder) *ResourceHandler {
	return &ResourceHandler{
		endpoint: endpoint,
		recorder: recorder,
		now:      time.Now,
	}
}

// Routes はエンティティのルートを登録したchi.Routerを返す。
//
//	GET    /         一覧
//	POST   /         作成
//	GET    /export   XLSXエクスポート
//	PUT    /{id}     更新
//	DELETE /{id}     削除
func (h *ResourceHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/export", h.Export)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

// List は全行を返す。
func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.endpoint.ListRows(r.Context())
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// Create は行を作成し、保存後の行を201で返す。
func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	row, err := h.endpoint.CreateRow(r.Context(), body)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	h.record(OpCreate)
	writeJSON(w, http.StatusCreated, row)
}

// Update は送信されたフィールドで行を更新する。
func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	row, err := h.endpoint.UpdateRow(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	h.record(OpUpdate)
	writeJSON(w, http.StatusOK, row)
}

// Delete は行を削除し、削除した行を返す。
func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	row, err := h.endpoint.DeleteRow(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	h.record(OpDelete)
	writeJSON(w, http.StatusOK, row)
}

// Export は一覧をXLSXファイルとして返す。
func (h *ResourceHandler) Export(w http.ResponseWriter, r *http.Request) {
	rows, err := h.endpoint.ListRows(r.Context())
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	// 書き込み途中のエラーでヘッダーが送信済みにならないよう、先にバッファへ書く
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, h.endpoint.Label(), rows); err != nil {
		middleware.WriteError(w, r, fmt.Errorf("failed to export %s: %w", h.endpoint.Name(), err))
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, h.exportFilename()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.WarnContext(r.Context(), "failed to write export", slog.String("error", err.Error()))
	}
}

func (h *ResourceHandler) exportFilename() string {
	name := strings.ReplaceAll(h.endpoint.Name(), "/", "-")
	return fmt.Sprintf("%s-%s.xlsx", name, h.now().UTC().Format("20060102"))
}

func (h *ResourceHandler) record(op string) {
	if h.recorder != nil {
		h.recorder.RecordEntityWrite(h.endpoint.Name(), op)
	}
}

// readBody はリクエストボディを上限付きで読み込む。
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, adminBodyLimit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, model.NewValidationError(model.FieldError{
				Field:  "body",
				Reason: fmt.Sprintf("must not exceed %d bytes", tooLarge.Limit),
			})
		}
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	return body, nil
}

package crud

import (
	"errors"
	"strings"
	"unicode"

	"github.com/brlglobal/brladmin/internal/model"
	"github.com/brlglobal/brladmin/internal/repository"
)

// translate は制約違反をAPIエラーに変換する。それ以外はそのまま返す。
// deletingがtrueの場合、外部キー違反は参照中のためCONFLICTとする。
func (r *Resource[T, PT]) translate(err error, deleting bool) error {
	var ce *repository.ConstraintError
	if !errors.As(err, &ce) {
		return err
	}

	field := constraintField(ce.Constraint)
	switch {
	case errors.Is(ce, repository.ErrDuplicate):
		apiErr := model.NewConflictError(r.schema.Label + " already exists")
		if field != "" {
			apiErr.Fields = []model.FieldError{{Field: field, Reason: "already exists"}}
		}
		return apiErr
	case errors.Is(ce, repository.ErrForeignKey) && deleting:
		return model.NewConflictError(r.schema.Label + " is still referenced by other records")
	case errors.Is(ce, repository.ErrForeignKey):
		if field == "" {
			field = "body"
		}
		return model.NewValidationError(model.FieldError{Field: field, Reason: "references a record that does not exist"})
	case errors.Is(ce, repository.ErrCheck):
		if field == "" {
			field = "body"
		}
		return model.NewValidationError(model.FieldError{Field: field, Reason: "is out of the allowed range"})
	}
	return err
}

// constraintField は制約名からJSONフィールド名を推定する。
// 例: airlines_iata_code_key → iataCode, uq_ports_code → code,
// port_terminals_port_id_fkey → portId。
func constraintField(constraint string) string {
	if constraint == "" {
		return ""
	}
	name := strings.TrimPrefix(constraint, "uq_")
	for _, suffix := range []string{"_fkey", "_key", "_check"} {
		name = strings.TrimSuffix(name, suffix)
	}
	_, column, ok := splitTable(name)
	if !ok {
		return ""
	}
	return camel(column)
}

// splitTable は既知のテーブル名を接頭辞として切り離す。
func splitTable(name string) (string, string, bool) {
	for _, table := range knownTables {
		if strings.HasPrefix(name, table+"_") {
			return table, strings.TrimPrefix(name, table+"_"), true
		}
	}
	return "", "", false
}

var knownTables = []string{
	"inbound_airfreight_shipments",
	"international_agents",
	"customs_brokers",
	"ocean_carriers",
	"port_terminals",
	"warehouses",
	"shipments",
	"documents",
	"customers",
	"countries",
	"airlines",
	"airports",
	"truckers",
	"ports",
}

func camel(snake string) string {
	parts := strings.Split(snake, "_")
	var b strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i == 0 {
			b.WriteString(p)
			continue
		}
		r := []rune(p)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}

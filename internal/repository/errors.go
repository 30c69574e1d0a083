package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// 制約違反の種類。ConstraintErrorはいずれかをラップする。
var (
	ErrDuplicate  = errors.New("duplicate key")
	ErrForeignKey = errors.New("foreign key violation")
	ErrCheck      = errors.New("check constraint violation")
)

// PostgreSQLのSQLSTATE。
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// ConstraintError はDB制約違反を表す。
type ConstraintError struct {
	Kind       error
	Constraint string
	Detail     string
}

func (e *ConstraintError) Error() string {
	if e.Constraint == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Constraint)
}

func (e *ConstraintError) Unwrap() error { return e.Kind }

// classifyError はドライバのエラーを制約違反に分類する。該当しなければそのまま返す。
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUniqueViolation:
			return &ConstraintError{Kind: ErrDuplicate, Constraint: pqErr.Constraint, Detail: pqErr.Detail}
		case pgForeignKeyViolation:
			return &ConstraintError{Kind: ErrForeignKey, Constraint: pqErr.Constraint, Detail: pqErr.Detail}
		case pgCheckViolation:
			return &ConstraintError{Kind: ErrCheck, Constraint: pqErr.Constraint, Detail: pqErr.Detail}
		}
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &ConstraintError{Kind: ErrDuplicate}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &ConstraintError{Kind: ErrForeignKey}
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return &ConstraintError{Kind: ErrCheck}
	}

	return err
}

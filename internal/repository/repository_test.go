package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/brlglobal/brladmin/internal/model"
)

func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
	var _ RoleRepository = (*PostgresRoleRepo)(nil)
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
	var _ EntityRepository[model.Airline] = (*GormEntityRepo[model.Airline])(nil)
	var _ EntityRepository[model.InboundAirfreightShipment] = (*GormEntityRepo[model.InboundAirfreightShipment])(nil)
}

func TestNewRepos_Initialize(t *testing.T) {
	if NewPostgresUserRepo(nil) == nil {
		t.Error("expected non-nil user repo")
	}
	if NewPostgresRoleRepo(nil) == nil {
		t.Error("expected non-nil role repo")
	}
	if NewPostgresSessionRepo(nil) == nil {
		t.Error("expected non-nil session repo")
	}

	repo := NewGormEntityRepo[model.PortTerminal](nil, "Port")
	if len(repo.preloads) != 1 || repo.preloads[0] != "Port" {
		t.Errorf("preloads = %v, want [Port]", repo.preloads)
	}
}

func TestClassifyError_UniqueViolation(t *testing.T) {
	err := classifyError(&pq.Error{Code: "23505", Constraint: "users_username_key"})

	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	var ce *ConstraintError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConstraintError, got %T", err)
	}
	if ce.Constraint != "users_username_key" {
		t.Errorf("Constraint = %q, want %q", ce.Constraint, "users_username_key")
	}
}

func TestClassifyError_ForeignKeyViolation(t *testing.T) {
	wrapped := fmt.Errorf("exec: %w", &pq.Error{Code: "23503", Constraint: "port_terminals_port_id_fkey"})
	err := classifyError(wrapped)

	if !errors.Is(err, ErrForeignKey) {
		t.Fatalf("expected ErrForeignKey, got %v", err)
	}
}

func TestClassifyError_CheckViolation(t *testing.T) {
	err := classifyError(&pq.Error{Code: "23514"})
	if !errors.Is(err, ErrCheck) {
		t.Fatalf("expected ErrCheck, got %v", err)
	}
}

func TestClassifyError_GormSentinels(t *testing.T) {
	if err := classifyError(gorm.ErrDuplicatedKey); !errors.Is(err, ErrDuplicate) {
		t.Errorf("gorm.ErrDuplicatedKey → %v, want ErrDuplicate", err)
	}
	if err := classifyError(gorm.ErrForeignKeyViolated); !errors.Is(err, ErrForeignKey) {
		t.Errorf("gorm.ErrForeignKeyViolated → %v, want ErrForeignKey", err)
	}
}

func TestClassifyError_OtherErrorsPassThrough(t *testing.T) {
	orig := errors.New("connection refused")
	if err := classifyError(orig); err != orig {
		t.Errorf("classifyError changed unrelated error: %v", err)
	}
	if err := classifyError(&pq.Error{Code: "42P01"}); errors.Is(err, ErrDuplicate) || errors.Is(err, ErrForeignKey) {
		t.Errorf("undefined_table should not be classified, got %v", err)
	}
	if classifyError(nil) != nil {
		t.Error("classifyError(nil) should be nil")
	}
}

func TestConstraintError_Message(t *testing.T) {
	err := &ConstraintError{Kind: ErrDuplicate, Constraint: "airports_iata_code_key"}
	if err.Error() != "duplicate key: airports_iata_code_key" {
		t.Errorf("Error() = %q", err.Error())
	}
	bare := &ConstraintError{Kind: ErrForeignKey}
	if bare.Error() != "foreign key violation" {
		t.Errorf("Error() = %q", bare.Error())
	}
}

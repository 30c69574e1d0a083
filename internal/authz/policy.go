// Package authz はロールと許可アクションの対応表を提供する。
// 認可判定はAuthorizeのみで行う。
package authz

import (
	"net/http"

	"github.com/brlglobal/brladmin/internal/model"
)

// Action は認可対象の操作。ビットマスクで集合を表す。
type Action uint8

const (
	// ActionAdminRead は管理画面リソースの参照。
	ActionAdminRead Action = 1 << iota
	// ActionAdminWrite は管理画面リソースの作成・更新・削除。
	ActionAdminWrite
	// ActionSelfRead は自分のアカウント情報の参照。
	ActionSelfRead

	actionAll = ActionAdminRead | ActionAdminWrite | ActionSelfRead
)

// String はログ出力用の名前を返す。
func (a Action) String() string {
	switch a {
	case ActionAdminRead:
		return "admin:read"
	case ActionAdminWrite:
		return "admin:write"
	case ActionSelfRead:
		return "self:read"
	default:
		return "unknown"
	}
}

// Policy はロール名から許可アクション集合への対応表。
type Policy struct {
	grants   map[string]Action
	fallback Action
}

// NewPolicy は空のポリシーを生成する。未登録ロールにはfallbackが適用される。
func NewPolicy(fallback Action) *Policy {
	return &Policy{grants: make(map[string]Action), fallback: fallback}
}

// Grant はロールにアクションを追加で許可する。
func (p *Policy) Grant(role string, actions ...Action) *Policy {
	for _, a := range actions {
		p.grants[role] |= a
	}
	return p
}

// DefaultPolicy はadminに全操作、その他のロールに自分の情報の参照のみを許可する。
func DefaultPolicy() *Policy {
	p := NewPolicy(ActionSelfRead)
	p.Grant(model.RoleAdmin, actionAll)
	for _, role := range []string{
		model.RoleEmployee,
		model.RoleCustomer,
		model.RoleCustomsBroker,
		model.RoleInternationalAgent,
		model.RoleTrucker,
	} {
		p.Grant(role, ActionSelfRead)
	}
	return p
}

// Authorize はroleがactionを実行できるかを返す。
// 空のロールは何も許可されない。
func (p *Policy) Authorize(role string, action Action) bool {
	if role == "" || action == 0 {
		return false
	}
	granted, ok := p.grants[role]
	if !ok {
		granted = p.fallback
	}
	return granted&action == action
}

// ActionForMethod は管理APIのHTTPメソッドに対応するアクションを返す。
func ActionForMethod(method string) Action {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ActionAdminRead
	default:
		return ActionAdminWrite
	}
}

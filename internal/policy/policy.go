// Package policy decides what an authenticated actor may do. It is consulted
// at the HTTP boundary; the engines never check roles themselves.
package policy

import (
	"github.com/ngenohkevin/circulation/internal/models"
)

type Action string

const (
	ActionCreateReservation  Action = "reservation:create"
	ActionCancelReservation  Action = "reservation:cancel"
	ActionViewReservation    Action = "reservation:view"
	ActionListReservations   Action = "reservation:list"
	ActionFulfillReservation Action = "reservation:fulfill"
	ActionIssueReservation   Action = "reservation:issue"
	ActionIssueLoan          Action = "loan:issue"
	ActionReturnLoan         Action = "loan:return"
	ActionViewLoan           Action = "loan:view"
	ActionViewFines          Action = "fine:view"
	ActionCollectFines       Action = "fine:collect"
	ActionViewReports        Action = "fine:reports"
	ActionManageBooks        Action = "book:manage"
	ActionViewBooks          Action = "book:view"
	ActionManageMembers      Action = "member:manage"
	ActionViewMember         Action = "member:view"
	ActionRunSweeps          Action = "sweep:run"
	ActionViewSettings       Action = "settings:view"
	ActionUpdateSettings     Action = "settings:update"
	ActionApproveUsers       Action = "user:approve"
)

// Resource identifies the record an action targets. OwnerMemberID is the
// member the record belongs to, or 0 when the action is not member-scoped.
type Resource struct {
	Kind          string
	ID            int32
	OwnerMemberID int32
}

// Any is the resource for actions that are not scoped to a single record.
var Any = Resource{}

// Member is the resource for a member-owned record.
func Member(memberID int32) Resource {
	return Resource{Kind: "member", ID: memberID, OwnerMemberID: memberID}
}

type Policy interface {
	ActorCan(actor models.Actor, action Action, resource Resource) bool
}

// RolePolicy grants actions by role. Members additionally get the
// member-scoped actions on records they own.
type RolePolicy struct {
	grants     map[models.UserRole]map[Action]bool
	ownerScope map[Action]bool
}

func NewRolePolicy() *RolePolicy {
	staff := []Action{
		ActionCreateReservation,
		ActionCancelReservation,
		ActionViewReservation,
		ActionListReservations,
		ActionFulfillReservation,
		ActionIssueReservation,
		ActionIssueLoan,
		ActionReturnLoan,
		ActionViewLoan,
		ActionViewFines,
		ActionCollectFines,
		ActionViewReports,
		ActionManageBooks,
		ActionViewBooks,
		ActionManageMembers,
		ActionViewMember,
		ActionRunSweeps,
		ActionViewSettings,
	}
	admin := append(append([]Action{}, staff...), ActionUpdateSettings, ActionApproveUsers)

	p := &RolePolicy{
		grants: map[models.UserRole]map[Action]bool{
			models.RoleSuperuser: set(admin),
			models.RoleAdmin:     set(admin),
			models.RoleManager:   set(staff),
			models.RoleMember:    set([]Action{ActionViewBooks}),
		},
		ownerScope: set([]Action{
			ActionCreateReservation,
			ActionCancelReservation,
			ActionViewReservation,
			ActionViewLoan,
			ActionViewFines,
			ActionViewMember,
		}),
	}
	return p
}

func (p *RolePolicy) ActorCan(actor models.Actor, action Action, resource Resource) bool {
	if p.grants[actor.Role][action] {
		return true
	}
	if !p.ownerScope[action] || actor.MemberID == 0 {
		return false
	}
	// Member-scoped actions apply only to the actor's own records.
	return resource.OwnerMemberID == actor.MemberID
}

func set(actions []Action) map[Action]bool {
	m := make(map[Action]bool, len(actions))
	for _, a := range actions {
		m[a] = true
	}
	return m
}

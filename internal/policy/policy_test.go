package policy

import (
	"testing"

	"github.com/ngenohkevin/circulation/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestRolePolicy_ActorCan(t *testing.T) {
	p := NewRolePolicy()

	member := models.Actor{UserID: 10, MemberID: 4, Role: models.RoleMember}
	manager := models.Actor{UserID: 2, Role: models.RoleManager}
	admin := models.Actor{UserID: 1, Role: models.RoleAdmin}

	tests := []struct {
		name     string
		actor    models.Actor
		action   Action
		resource Resource
		want     bool
	}{
		{"member reserves for self", member, ActionCreateReservation, Member(4), true},
		{"member reserves for someone else", member, ActionCreateReservation, Member(5), false},
		{"member cancels own hold", member, ActionCancelReservation, Member(4), true},
		{"member views own fines", member, ActionViewFines, Member(4), true},
		{"member views other fines", member, ActionViewFines, Member(9), false},
		{"member cannot fulfill", member, ActionFulfillReservation, Any, false},
		{"member cannot return", member, ActionReturnLoan, Member(4), false},
		{"member cannot collect", member, ActionCollectFines, Member(4), false},
		{"member browses catalog", member, ActionViewBooks, Any, true},
		{"manager fulfills", manager, ActionFulfillReservation, Any, true},
		{"manager collects", manager, ActionCollectFines, Member(4), true},
		{"manager runs sweeps", manager, ActionRunSweeps, Any, true},
		{"manager cannot change settings", manager, ActionUpdateSettings, Any, false},
		{"admin changes settings", admin, ActionUpdateSettings, Any, true},
		{"manager toggles members", manager, ActionManageMembers, Any, true},
		{"manager cannot approve users", manager, ActionApproveUsers, Any, false},
		{"admin approves users", admin, ActionApproveUsers, Any, true},
		{"superuser changes settings", models.SystemActor, ActionUpdateSettings, Any, true},
		{"unknown role", models.Actor{UserID: 3, Role: "guest"}, ActionViewBooks, Any, false},
		{"member without profile", models.Actor{UserID: 11, Role: models.RoleMember}, ActionViewFines, Member(0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.ActorCan(tt.actor, tt.action, tt.resource))
		})
	}
}

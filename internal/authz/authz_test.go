package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orghub/orghub/internal/domain"
)

func TestCan(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		role   string
		action Action
		want   bool
	}{
		{"admin_manages_settings", domain.RoleAdmin, ActionManageOrgSettings, true},
		{"board_cannot_manage_settings", domain.RoleBoard, ActionManageOrgSettings, false},
		{"board_invites", domain.RoleBoard, ActionInviteMembers, true},
		{"chair_cannot_invite", domain.RoleCommitteeChair, ActionInviteMembers, false},
		{"chair_manages_events", domain.RoleCommitteeChair, ActionManageEvents, true},
		{"member_cannot_manage_events", domain.RoleMember, ActionManageEvents, false},
		{"member_rsvps", domain.RoleMember, ActionRSVPEvents, true},
		{"member_views_directory", domain.RoleMember, ActionViewMembers, true},
		{"unknown_role_denied", "superuser", ActionViewMembers, false},
		{"empty_role_denied", "", ActionRSVPEvents, false},
		{"unknown_action_denied", domain.RoleAdmin, Action("ops.reboot"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Can(tc.role, tc.action))
		})
	}
}

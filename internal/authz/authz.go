// Package authz holds the role/capability matrix. Handlers and middleware
// call Can instead of comparing role strings inline, so the permission
// surface lives in one table.
package authz

import "github.com/orghub/orghub/internal/domain"

// Action names a permission-gated operation.
type Action string

const (
	ActionManageOrgSettings Action = "org_settings.manage"
	ActionManageBilling     Action = "billing.manage"
	ActionInviteMembers     Action = "members.invite"
	ActionManageMembers     Action = "members.manage"
	ActionViewMembers       Action = "members.view"
	ActionManageEvents      Action = "events.manage"
	ActionRSVPEvents        Action = "events.rsvp"
	ActionManageNewsletters Action = "newsletters.manage"
	ActionViewNewsletters   Action = "newsletters.view"
	ActionManageCommittees  Action = "committees.manage"
	ActionViewCommittees    Action = "committees.view"
)

// rank orders roles by breadth of capability. Unknown roles rank below
// member and can do nothing.
var rank = map[string]int{
	domain.RoleMember:         1,
	domain.RoleCommitteeChair: 2,
	domain.RoleBoard:          3,
	domain.RoleAdmin:          4,
}

// minRank is the least role able to perform each action.
var minRank = map[Action]int{
	ActionManageOrgSettings: rank[domain.RoleAdmin],
	ActionManageBilling:     rank[domain.RoleAdmin],
	ActionInviteMembers:     rank[domain.RoleBoard],
	ActionManageMembers:     rank[domain.RoleBoard],
	ActionViewMembers:       rank[domain.RoleMember],
	ActionManageEvents:      rank[domain.RoleCommitteeChair],
	ActionRSVPEvents:        rank[domain.RoleMember],
	ActionManageNewsletters: rank[domain.RoleBoard],
	ActionViewNewsletters:   rank[domain.RoleMember],
	ActionManageCommittees:  rank[domain.RoleBoard],
	ActionViewCommittees:    rank[domain.RoleMember],
}

// Can reports whether a role may perform an action. Unknown roles and
// unknown actions are both denied.
func Can(role string, action Action) bool {
	need, ok := minRank[action]
	if !ok {
		return false
	}
	return rank[role] >= need
}

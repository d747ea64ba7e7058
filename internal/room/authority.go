package room

// Action is a named capability on room-scoped tasks.
type Action string

const (
	ActionCreateTask       Action = "task:create"
	ActionEditTask         Action = "task:edit"
	ActionDeleteTask       Action = "task:delete"
	ActionCompleteAssigned Action = "task:complete_assigned"
	ActionAcceptTask       Action = "task:accept"
	ActionManageInvite     Action = "invite:manage"
)

// rolePermissions maps each role to its granted actions.
// This is the single source of truth for room authorisation; call
// sites consult Can instead of comparing roles inline.
var rolePermissions = map[Role][]Action{
	RoleCreator: {
		ActionCreateTask,
		ActionEditTask,
		ActionDeleteTask,
		ActionCompleteAssigned,
		ActionAcceptTask,
		ActionManageInvite,
	},
	RoleAdmin: {
		ActionCreateTask,
		ActionEditTask,
		ActionDeleteTask,
		ActionCompleteAssigned,
		ActionAcceptTask,
		ActionManageInvite,
	},
	RoleMember: {
		ActionCompleteAssigned,
		ActionAcceptTask,
	},
}

// Can returns true if the role grants the given action.
func (r Role) Can(action Action) bool {
	for _, a := range rolePermissions[r] {
		if a == action {
			return true
		}
	}
	return false
}

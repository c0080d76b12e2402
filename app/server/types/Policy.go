package types

// Identity 当前请求的操作者，由认证层解析后显式传入
type Identity struct {
	ID   uint
	Role Role
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

type Action int

const (
	ActionUpdateTeam Action = iota
	ActionDeleteTeam
	ActionUpdateUser
	ActionDeleteUser
	ActionSearchUsers
)

// Resource 被操作的对象，OwnerID 为其所有者（队伍创建人或用户本人）
type Resource struct {
	OwnerID uint
}

// Can 唯一的权限判定入口：管理员可执行所有操作，所有者只能操作自己的资源
func Can(actor *Identity, action Action, res Resource) bool {
	if actor == nil {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	switch action {
	case ActionUpdateTeam, ActionDeleteTeam, ActionUpdateUser:
		return actor.ID != 0 && actor.ID == res.OwnerID
	default:
		return false
	}
}

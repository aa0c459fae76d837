package service

import "github.com/sirpyerre/groupsplit/internal/core/ports"

// Repositories bundles the storage collaborators the services share.
type Repositories struct {
	Users       ports.UserRepository
	Groups      ports.GroupRepository
	Memberships ports.MembershipRepository
	Invites     ports.InviteRepository
	Categories  ports.CategoryRepository
	Expenses    ports.ExpenseRepository
}

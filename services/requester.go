package services

import "taskmanager/models"

// Requester is the resolved identity of the caller, passed explicitly into
// every service operation.
type Requester struct {
	ID   string
	Role models.Role
}

func RequesterFor(u *models.User) Requester {
	return Requester{ID: u.ID, Role: u.Role}
}

func (r Requester) IsAdmin() bool {
	return r.Role.IsAdmin()
}

// Authorization predicates, one per operation family.

func canCreateTask(r Requester) bool {
	return r.IsAdmin()
}

func canDeleteTask(r Requester) bool {
	return r.IsAdmin()
}

// canAccessTask covers read, detail update, status update and checklist update.
func canAccessTask(r Requester, t *models.Task) bool {
	return r.IsAdmin() || t.IsAssignee(r.ID)
}

func canViewAllTasks(r Requester) bool {
	return r.IsAdmin()
}

func canViewUser(r Requester, userID string) bool {
	return r.IsAdmin() || r.ID == userID
}

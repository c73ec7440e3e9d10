package models

import (
	"time"

	"github.com/lib/pq"
)

// User is an account. Which hierarchy links are meaningful depends on Role:
// teachers report to coordinators, coordinators to a department head, and a
// department head owns a college.
type User struct {
	ID             string         `db:"id" json:"id"`
	Role           Role           `db:"role" json:"role"`
	Name           string         `db:"name" json:"name"`
	Email          string         `db:"email" json:"email"`
	PasswordHash   string         `db:"password_hash" json:"-"`
	CoordinatorIDs pq.StringArray `db:"coordinator_ids" json:"coordinator_ids,omitempty"`
	DepartmentID   *string        `db:"department_id" json:"department_id,omitempty"`
	CollegeID      *string        `db:"college_id" json:"college_id,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}

// ReportsTo reports whether the user lists coordinatorID among its coordinators.
func (u User) ReportsTo(coordinatorID string) bool {
	for _, id := range u.CoordinatorIDs {
		if id == coordinatorID {
			return true
		}
	}
	return false
}

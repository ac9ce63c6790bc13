package directory

import "time"

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Employee is owned by the external directory; this service reads it
// and never writes. ManagerID is a self reference forming a forest
// (empty for roots).
type Employee struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	ManagerID    string    `json:"managerId,omitempty"`
	DepartmentID string    `json:"departmentId,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (e Employee) IsActive() bool {
	return e.Status == StatusActive
}

type Department struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

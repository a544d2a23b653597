package models

// User represents a customer or a back-office admin.
type User struct {
	BaseModel
	Name         string    `json:"name"`
	Email        string    `gorm:"uniqueIndex" json:"email"`
	Mobile       string    `gorm:"index" json:"mobile"`
	PasswordHash string    `json:"-"`
	Role         string    `gorm:"default:customer" json:"role"`
	IsActive     bool      `json:"is_active"`
	Addresses    []Address `json:"addresses,omitempty"`
	Orders       []Order   `json:"orders,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

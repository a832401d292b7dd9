package models

import "time"

// Role represents user roles in the system
type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleManager    Role = "Manager"
	RoleTechnician Role = "Technician"
)

// UserStatus represents whether an account may log in
type UserStatus string

const (
	UserActive   UserStatus = "Active"
	UserInactive UserStatus = "Inactive"
)

// User represents a staff account. The password is stored only as a
// bcrypt hash and is stripped from bulk reads.
type User struct {
	ID           string     `bson:"_id,omitempty" json:"id"`
	Name         string     `bson:"name" json:"name"`
	Email        string     `bson:"email" json:"email"`
	PasswordHash string     `bson:"password_hash" json:"-"`
	Role         Role       `bson:"role" json:"role"`
	Phone        string     `bson:"phone,omitempty" json:"phone,omitempty"`
	Address      string     `bson:"address,omitempty" json:"address,omitempty"`
	Status       UserStatus `bson:"status" json:"status"`
	LastLogin    *time.Time `bson:"last_login,omitempty" json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `bson:"updated_at" json:"updatedAt"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Claims represents JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Exp    int64  `json:"exp"`
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleTechnician:
		return true
	default:
		return false
	}
}

// HasPermission checks if a user has permission for a specific action
func (u *User) HasPermission(action string) bool {
	switch u.Role {
	case RoleAdmin:
		return true
	case RoleManager:
		return action != "manage_users"
	case RoleTechnician:
		return action == "view_tickets" || action == "start_ticket" ||
			action == "complete_ticket" || action == "cancel_ticket"
	default:
		return false
	}
}

package domain

import (
	"encoding/json"
	"time"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is an account as seen by the admin users API
type User struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	Role        Role       `json:"role"`
	IsActive    bool       `json:"isActive"`
	IsAdmin     bool       `json:"isAdmin"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
	CreatedAt   *time.Time `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Stats       *UserStats `json:"stats,omitempty"`
}

type UserStats struct {
	LinkCount       int64 `json:"linkCount"`
	TotalClicks     int64 `json:"totalClicks"`
	ActiveLinks     int64 `json:"activeLinks"`
	ExpiredLinks    int64 `json:"expiredLinks"`
	LinksCreated30d int64 `json:"linksCreated30d"`
}

// UnmarshalJSON keeps Role and IsAdmin consistent. The API has shipped both
// fields independently; whichever one claims admin wins.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	if err := json.Unmarshal(data, (*plain)(u)); err != nil {
		return err
	}
	u.Normalize()
	return nil
}

// Normalize reconciles Role and IsAdmin
func (u *User) Normalize() {
	if u.Role == RoleAdmin || u.IsAdmin {
		u.Role = RoleAdmin
		u.IsAdmin = true
		return
	}
	u.Role = RoleUser
	u.IsAdmin = false
}

// CreateUserInput is the payload for POST /api/users. An empty Role means user.
type CreateUserInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
	IsActive *bool  `json:"isActive,omitempty"`
}

// UserPatch is a partial update for PUT /api/users/{id}
type UserPatch struct {
	Email    *string `json:"email,omitempty"`
	Role     *Role   `json:"role,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}

// Apply returns a copy of user with the patch applied
func (p UserPatch) Apply(user User) User {
	if p.Email != nil {
		user.Email = *p.Email
	}
	if p.Role != nil {
		user.Role = *p.Role
		user.IsAdmin = *p.Role == RoleAdmin
	}
	if p.IsActive != nil {
		user.IsActive = *p.IsActive
	}
	return user
}

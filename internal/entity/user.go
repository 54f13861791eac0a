package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleAgent  Role = "agent"
	RoleViewer Role = "viewer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAgent, RoleViewer:
		return true
	}
	return false
}

type User struct {
	ID           bson.ObjectID `bson:"_id" json:"id"`
	Name         string        `bson:"name" json:"name"`
	Email        string        `bson:"email" json:"email"`
	Role         Role          `bson:"role" json:"role"`
	PasswordHash string        `bson:"password" json:"-"`
	Avatar       *string       `bson:"avatar,omitempty" json:"avatar"`
	CreatedAt    time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at" json:"updated_at"`
}

// UserProfile is the public shape of a user returned by the auth endpoints.
type UserProfile struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Role   Role    `json:"role"`
	Avatar *string `json:"avatar"`
}

func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:     FormatID(u.ID),
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
		Avatar: u.Avatar,
	}
}

// Principal is the authenticated caller, built once from a verified token.
type Principal struct {
	UserID bson.ObjectID
	Email  string
	Name   string
	Role   Role
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }
func (p Principal) IsAgent() bool { return p.Role == RoleAgent }

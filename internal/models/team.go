package models

import (
	"time"

	"gorm.io/gorm"
)

// Team roles, scoped to one team via a TeamMember row.
const (
	RoleOwner  = "OWNER"
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

// Team invite states.
const (
	InvitePending  = "pending"
	InviteAccepted = "accepted"
	InviteExpired  = "expired"
)

type Team struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:50;not null" json:"name"`
	OwnerID   uint           `gorm:"not null" json:"owner_id"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Team) TableName() string { return "teams" }

// TeamMember binds one user to one team with a role. Exactly one row per
// (team, user) pair.
type TeamMember struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	TeamID   uint      `gorm:"not null;uniqueIndex:idx_team_user" json:"team_id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_team_user" json:"user_id"`
	Role     string    `gorm:"size:20;not null;default:MEMBER" json:"role"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

func (TeamMember) TableName() string { return "team_members" }

// TeamInvite is a pending membership offer addressed to an email. The token
// is opaque; no email is sent from this backend.
type TeamInvite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TeamID    uint      `gorm:"not null;index" json:"team_id"`
	Email     string    `gorm:"size:255;not null" json:"email"`
	Token     string    `gorm:"size:64;uniqueIndex;not null" json:"token"`
	InvitedBy uint      `gorm:"not null" json:"invited_by"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Status    string    `gorm:"size:20;not null;default:pending" json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (TeamInvite) TableName() string { return "team_invites" }

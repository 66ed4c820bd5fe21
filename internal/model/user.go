// Package model defines the data structures used throughout the application.
package model

import "time"

// AccountType classifies a user account.
type AccountType string

const (
	AccountArtist       AccountType = "artist"
	AccountUser         AccountType = "user"
	AccountOrganization AccountType = "organization"
)

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountArtist, AccountUser, AccountOrganization:
		return true
	}
	return false
}

// User represents a registered account.
//
// Password holds the bcrypt hash and is never serialized. The current refresh
// token is not stored here; it lives in the user's Session record.
type User struct {
	ID            string      `json:"_id"`
	FullName      string      `json:"fullName"`
	Email         string      `json:"email"`
	Country       string      `json:"country"`
	AccountType   AccountType `json:"accountType"`
	ArtField      string      `json:"artField"`
	Username      string      `json:"username"`
	Bio           string      `json:"bio"`
	Avatar        string      `json:"avatar"`
	CoverImage    string      `json:"coverImage"`
	Password      string      `json:"-"`
	ContentChoice []string    `json:"contentChoice"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// PublicProfile is the owner projection embedded in every view. It carries
// no credential material.
type PublicProfile struct {
	ID          string      `json:"_id"`
	FullName    string      `json:"fullName"`
	Email       string      `json:"email"`
	Country     string      `json:"country"`
	AccountType AccountType `json:"accountType"`
	ArtField    string      `json:"artField"`
	Username    string      `json:"username"`
	Bio         string      `json:"bio"`
	Avatar      string      `json:"avatar"`
	CoverImage  string      `json:"coverImage"`
}

// Public projects u onto its public profile fields.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:          u.ID,
		FullName:    u.FullName,
		Email:       u.Email,
		Country:     u.Country,
		AccountType: u.AccountType,
		ArtField:    u.ArtField,
		Username:    u.Username,
		Bio:         u.Bio,
		Avatar:      u.Avatar,
		CoverImage:  u.CoverImage,
	}
}

// Session is the single active refresh-token record of a user. Only a hash of
// the token is kept.
type Session struct {
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	UpdatedAt time.Time
}

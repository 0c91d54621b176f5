package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/soundchat/internal/shared"
)

// User is an account that completed the catalog provider's OAuth handshake.
//
// Users are keyed by the provider's user id; the internal id is generated on first insert.
type User struct {
	id           string
	sequence     int
	providerID   string
	name         string
	email        string
	accessToken  string
	refreshToken string
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    *time.Time
}

// NewUser creates a [User] with creation timestamps set to now.
func NewUser(sequence int, providerID, name, email string) *User {
	now := time.Now()
	return &User{
		sequence:   sequence,
		providerID: providerID,
		name:       name,
		email:      email,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (u *User) ID() string                { return u.id }
func (u *User) Sequence() int             { return u.sequence }
func (u *User) ProviderID() string        { return u.providerID }
func (u *User) Name() string              { return u.name }
func (u *User) Email() string             { return u.email }
func (u *User) AccessToken() string       { return u.accessToken }
func (u *User) RefreshToken() string      { return u.refreshToken }
func (u *User) CreatedAt() time.Time      { return u.createdAt }
func (u *User) UpdatedAt() time.Time      { return u.updatedAt }
func (u *User) DeletedAt() *time.Time     { return u.deletedAt }
func (u *User) SetID(id string)           { u.id = id }
func (u *User) SetSequence(seq int)       { u.sequence = seq }
func (u *User) SetName(name string)       { u.name = name }
func (u *User) SetEmail(email string)     { u.email = email }
func (u *User) SetCreatedAt(t time.Time)  { u.createdAt = t }
func (u *User) SetUpdatedAt(t time.Time)  { u.updatedAt = t }
func (u *User) SetDeletedAt(t *time.Time) { u.deletedAt = t }

// SetTokens stores the provider tokens from the latest successful exchange.
func (u *User) SetTokens(access, refresh string) {
	u.accessToken = access
	u.refreshToken = refresh
}

// Validate requires a provider id, the upsert key.
func (u *User) Validate() error {
	if strings.TrimSpace(u.providerID) == "" {
		return fmt.Errorf("%w: provider id is required", shared.ErrInvalidInput)
	}
	return nil
}

// Profile is the public view of a user returned to clients.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Profile returns the client-facing view, identified by the provider id.
func (u *User) Profile() Profile {
	return Profile{ID: u.providerID, Name: u.name, Email: u.email}
}

var _ Model = (*User)(nil)

package backend

import (
	"context"
	"time"
)

// User is a signed-in account.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	IDToken      string `json:"id_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Profile is the document stored under users/{id}.
type Profile struct {
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	DateOfBirth string    `json:"dob"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (User, error)
	CreateAccount(ctx context.Context, email, password string) (User, error)
	SendPasswordReset(ctx context.Context, email string) error
}

type ProfileStore interface {
	// WriteUserProfile upserts the profile of user into the users collection.
	WriteUserProfile(ctx context.Context, user User, p Profile) error
}

// Client is everything the screens need from the hosted service.
type Client interface {
	Authenticator
	ProfileStore
}

const UsersCollection = "users"

package users

import "time"

// User is the canonical account document. The password hash never leaves the
// service: it is excluded from JSON and only compared through the password utils.
type User struct {
	ID         string    `json:"id"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Email      string    `json:"email"`
	Password   string    `json:"-"`
	Location   string    `json:"location,omitempty"`
	ProfileURL string    `json:"profileUrl,omitempty"`
	Profession string    `json:"profession,omitempty"`
	Friends    []string  `json:"-"`
	Views      []string  `json:"views,omitempty"`
	Verified   bool      `json:"verified"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PublicUser is the subset of account fields safe to embed in other users'
// responses (friend lists, post authors, pending requests).
type PublicUser struct {
	ID         string `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Location   string `json:"location,omitempty"`
	ProfileURL string `json:"profileUrl,omitempty"`
	Profession string `json:"profession,omitempty"`
}

// Public strips the user down to its shareable fields.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:         u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Location:   u.Location,
		ProfileURL: u.ProfileURL,
		Profession: u.Profession,
	}
}

// Profile is a user together with its friend list rendered as public users.
type Profile struct {
	*User
	Friends []*PublicUser `json:"friends"`
}

type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	FirstName  string `json:"firstName" validate:"required"`
	LastName   string `json:"lastName" validate:"required"`
	Location   string `json:"location"`
	ProfileURL string `json:"profileUrl"`
	Profession string `json:"profession"`
}

type RequestResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ChangePasswordRequest struct {
	UserID          string `json:"userId" validate:"required"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type ProfileViewRequest struct {
	ID string `json:"id" validate:"required"`
}

package reviews

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role          UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	FirstName     string     `bun:"first_name" json:"first_name,omitempty"`
	LastName      string     `bun:"last_name" json:"last_name,omitempty"`
	Username      string     `bun:"username,notnull" json:"username,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Password      string     `bun:"-" json:"-"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	SessionToken  string     `bun:"session_token,nullzero" json:"-"`
	LoggedInAt    *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// HasLiveSession reports whether token is the user's current session token.
// An empty stored token never matches.
func (u *User) HasLiveSession(token string) bool {
	if u == nil || u.SessionToken == "" || token == "" {
		return false
	}
	return u.SessionToken == token
}

// Article is a short game review written by a user
type Article struct {
	bun.BaseModel `bun:"table:articles,alias:art"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	OwnerID       uuid.UUID  `bun:"owner_id,notnull,type:uuid" json:"owner_id,omitempty"`
	OwnerUsername string     `bun:"owner_username" json:"owner_username,omitempty"`
	Title         string     `bun:"title,notnull" json:"title,omitempty"`
	Review        string     `bun:"review,notnull" json:"review,omitempty"`
	Rating        int        `bun:"rating,notnull" json:"rating,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// UserReview is a rated comment left on an article
type UserReview struct {
	bun.BaseModel `bun:"table:user_reviews,alias:urv"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	PostID        uuid.UUID  `bun:"post_id,notnull,type:uuid" json:"post_id,omitempty"`
	OwnerID       uuid.UUID  `bun:"owner_id,notnull,type:uuid" json:"owner_id,omitempty"`
	OwnerUsername string     `bun:"owner_username" json:"owner_username,omitempty"`
	TitlePost     string     `bun:"title_post" json:"title_post,omitempty"`
	Review        string     `bun:"review,notnull" json:"review,omitempty"`
	Rating        int        `bun:"rating,notnull" json:"rating,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// getUsername falls back to the local part of the email
func getUsername(username, email string) string {
	if username = strings.TrimSpace(username); username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}

func stampCreated(created, updated **time.Time) {
	now := time.Now().UTC()
	if *created == nil {
		*created = &now
	}
	if *updated == nil {
		*updated = &now
	}
}

package model

import (
	"strings"
	"time"
)

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	AvatarURL    *string   `json:"avatarUrl"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Task struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// Dashboard is what a successful page load hands to the renderer.
type Dashboard struct {
	User  User   `json:"user"`
	Tasks []Task `json:"tasks"`
}

func (u User) Initials() string {
	initials := make([]rune, 0, 2)
	start := true
	for _, r := range u.Name {
		if r == ' ' {
			start = true
			continue
		}
		if start {
			initials = append(initials, r)
			start = false
		}
	}
	return strings.ToUpper(string(initials))
}

/*
Package storage provides data models for applicants, their applications and
the history of produced recommendations.
*/
package storage

import "time"

// DefaultStatus is the status of a freshly submitted application.
const DefaultStatus = "Подана"

// User is a bot user identified by their messenger account.
type User struct {
	ID         int64     `json:"id"`
	ExternalID int64     `json:"external_id"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HasContacts reports whether both phone and e-mail are known.
func (u User) HasContacts() bool {
	return u.Phone != "" && u.Email != ""
}

// Application is a request to be admitted to a faculty.
type Application struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	FacultyCode string    `json:"faculty_code"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecommendationRecord is one produced recommendation. The chat is stored
// only as a hash.
type RecommendationRecord struct {
	// ID is a unique identifier (UUID).
	ID          string    `json:"id"`
	ChatHash    string    `json:"chat_hash"`
	FacultyCode string    `json:"faculty_code"`
	Source      string    `json:"source"`
	Confidence  float64   `json:"confidence"`
	CreatedAt   time.Time `json:"created_at"`
}

// FacultyCount aggregates recommendations per faculty and source.
type FacultyCount struct {
	FacultyCode string `json:"faculty_code"`
	Source      string `json:"source"`
	Count       int    `json:"count"`
}

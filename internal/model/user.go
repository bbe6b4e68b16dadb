package model

import "time"

// User represents an account as stored in the `users` table.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  FirstName    – given name shown on booking reports.
//  LastName     – family name shown on booking reports.
//  Role         – ATTENDEE or ORGANISER.
//  IsActive     – whether the account may log in.
//  CreatedAt    – timestamp of creation, reported as the join date.
type User struct {
	ID           uint64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName joins first and last name the way booking reports display it.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

const (
	RoleAttendee  = "ATTENDEE"
	RoleOrganiser = "ORGANISER"
)

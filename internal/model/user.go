package model

// User represents an application user record as stored in the
// `users` table. The username is the primary key; there is no
// surrogate id because every other table references users by name.
//
// Fields:
//  Username     – unique, case-sensitive login name.
//  PasswordHash – bcrypt hash of the password.
type User struct {
	Username     string // users.username
	PasswordHash string // users.password_hash
}

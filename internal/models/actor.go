package models

import "github.com/golang-jwt/jwt/v5"

// Actor is the authenticated advisor performing an operation.
type Actor struct {
	AdvisorID    string `json:"advisorId"`
	DepartmentID int    `json:"departmentId"`
}

// Advisor joins a directory user with their advising department.
type Advisor struct {
	ID           string `db:"id" json:"id"`
	NID          string `db:"nid" json:"nid"`
	FirstName    string `db:"fname" json:"firstName"`
	LastName     string `db:"lname" json:"lastName"`
	Email        string `db:"email" json:"email"`
	DepartmentID int    `db:"department_id" json:"departmentId"`
}

// FullName joins first and last name.
func (a Advisor) FullName() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	default:
		return a.FirstName + " " + a.LastName
	}
}

// Actor converts the advisor into the identity carried through services.
func (a Advisor) Actor() Actor {
	return Actor{AdvisorID: a.ID, DepartmentID: a.DepartmentID}
}

// DirectoryCredential is a bcrypt hashed directory password for an NID.
type DirectoryCredential struct {
	NID          string `db:"nid"`
	PasswordHash string `db:"password_hash"`
}

// JWTClaims is the access token payload.
type JWTClaims struct {
	AdvisorID    string `json:"advisor_id"`
	DepartmentID int    `json:"department_id"`
	NID          string `json:"nid"`
	Name         string `json:"name"`
	jwt.RegisteredClaims
}

// Actor extracts the service identity from the token.
func (c *JWTClaims) Actor() Actor {
	return Actor{AdvisorID: c.AdvisorID, DepartmentID: c.DepartmentID}
}

package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the roles issued by the platform auth service.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleTeacher    UserRole = "TEACHER"
	RoleStudent    UserRole = "STUDENT"
	RoleParent     UserRole = "PARENT"
)

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Email  string   `json:"email"`
	// StudentIDs lists the children a parent account may view.
	StudentIDs []string `json:"student_ids,omitempty"`
	jwt.RegisteredClaims
}

// CanView reports whether the claims grant access to the student's data.
func (c *JWTClaims) CanView(studentID string) bool {
	if c == nil {
		return false
	}
	switch c.Role {
	case RoleSuperAdmin, RoleAdmin, RoleTeacher:
		return true
	case RoleStudent:
		return c.UserID == studentID
	case RoleParent:
		for _, id := range c.StudentIDs {
			if id == studentID {
				return true
			}
		}
	}
	return false
}

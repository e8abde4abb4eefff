package models

// User is the public view of a credential record. The password hash never
// leaves the store.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// RegisterRequest is the JSON body for POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the JSON body for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ResetPasswordRequest is the JSON body for POST /api/auth/reset-password.
// The email must match the one stored for the username exactly.
type ResetPasswordRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	NewPassword string `json:"new_password"`
}

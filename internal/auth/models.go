// internal/auth/models.go
package auth

type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=256,excludesall= "`
}

type ConfirmSignupRequest struct {
	Username string `json:"username" validate:"required"`
	Code     string `json:"code" validate:"required,min=4,max=10"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Username string `json:"username" validate:"required"`
}

type ResetPasswordRequest struct {
	Username    string `json:"username" validate:"required"`
	Code        string `json:"code" validate:"required,min=4,max=10"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=256,excludesall= "`
}

type MeResponse struct {
	Sub      string   `json:"sub"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Name     string   `json:"name,omitempty"`
	Groups   []string `json:"groups,omitempty"`
	IsAdmin  bool     `json:"is_admin"`
}

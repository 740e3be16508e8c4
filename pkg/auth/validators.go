package auth

type RegisterPayload struct {
	Email    string `json:"email" mod:"trim" validate:"required,email,max=200"`
	Name     string `json:"name" mod:"trim" validate:"required,min=2,max=100"`
	Password string `json:"password" validate:"required,min=8,max=100"`
	Role     string `json:"role" default:"student" validate:"required,role,ne=admin"`
}

type LoginPayload struct {
	Email    string `json:"email" mod:"trim" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type OTPRequestPayload struct {
	Email string `json:"email" mod:"trim" validate:"required,email"`
}

type OTPVerifyPayload struct {
	Email string `json:"email" mod:"trim" validate:"required,email"`
	Code  string `json:"code" validate:"required,otpcode"`
}

type MeResponse struct {
	ID          int      `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	RoleID      int      `json:"role_id"`
	RoleName    string   `json:"role_name"`
	Permissions []string `json:"permissions"`
}

package dto

// SignupRequest payload for the signup form.
type SignupRequest struct {
	Name  string `form:"name" json:"name"`
	Phone string `form:"phone" json:"phone"`
}

// SigninRequest payload for the signin form.
type SigninRequest struct {
	Phone string `form:"phone" json:"phone"`
}

// VerifyRequest payload for both OTP verification forms.
type VerifyRequest struct {
	OTP string `form:"otp" json:"otp"`
}

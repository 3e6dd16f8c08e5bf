package models

// Credentials is the login payload sent to the backend.
type Credentials struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Registration is the sign-up payload sent to the backend.
type Registration struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	FullName string `json:"full_name" form:"full_name"`
}

// LoginResponse accepts both token shapes the backend has emitted.
type LoginResponse struct {
	Token       string `json:"token,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
}

// BearerToken returns whichever token field was populated.
func (r *LoginResponse) BearerToken() string {
	if r.Token != "" {
		return r.Token
	}
	return r.AccessToken
}

// Account is the backend's view of a registered user.
type Account struct {
	ID       interface{} `json:"id,omitempty"`
	Email    string      `json:"email"`
	FullName string      `json:"full_name,omitempty"`
}

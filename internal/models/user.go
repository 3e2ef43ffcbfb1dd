package models

// UserProfile is the editable profile of the signed-in user.
type UserProfile struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	Role         string `json:"role,omitempty"`
	Organization string `json:"organization,omitempty"`
}

// AuthToken is returned by the login and register endpoints.
type AuthToken struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        UserProfile `json:"user"`
}

// UploadResult describes a file accepted by the upload endpoint.
type UploadResult struct {
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	Records     int    `json:"records"`
}

package domain

// Auth requests/responses.

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   int64  `json:"expires_at"`
}

// Chat management requests.

type CreateChatRequest struct {
	Name             string  `json:"name"`
	IsGroupChat      bool    `json:"is_group_chat"`
	TargetUserID     *int64  `json:"target_user_id"`
	InitialMemberIDs []int64 `json:"initial_member_ids"`
}

type AddMemberRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

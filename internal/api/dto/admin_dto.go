package dto

// BlockUserRequest payload for blocking an account.
type BlockUserRequest struct {
	UserID string `json:"userId"`
	Reason string `json:"reason,omitempty"`
}

// UnblockUserRequest payload for restoring a blocked account.
type UnblockUserRequest struct {
	UserID string `json:"userId"`
}

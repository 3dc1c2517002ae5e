package dto

// CreateCommentRequest is the JSON body of a comment submission
type CreateCommentRequest struct {
	MessageID string `json:"messageId" validate:"required,uuid"`
	UserText  string `json:"userText" validate:"required,max=10000"`
}

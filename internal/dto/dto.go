package dto

import "github.com/google/uuid"

type RegisterRequest struct {
	Name         string  `json:"name" binding:"required,min=2,max=100"`
	Email        string  `json:"email" binding:"required,email"`
	Password     string  `json:"password" binding:"required,min=8,max=72"`
	Organization *string `json:"organization,omitempty" binding:"omitempty,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ConnectionRequestRequest struct {
	ReceiverID uuid.UUID `json:"receiver_id" binding:"required"`
}

type ConnectionRespondRequest struct {
	Decision string `json:"decision" binding:"required,oneof=accept reject"`
}

type CreatePostRequest struct {
	Title string `json:"title" binding:"required,max=255"`
	Body  string `json:"body" binding:"required"`
}

type SetUpvoteRequest struct {
	Desired *bool `json:"desired" binding:"required"`
}

type SendMessageRequest struct {
	RecipientID uuid.UUID `json:"recipient_id" binding:"required"`
	Body        string    `json:"body" binding:"required,max=4000"`
}

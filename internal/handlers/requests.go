package handlers

import (
	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the go-playground/validator library to implement Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// AddMessageRequest is the body of POST /chat/messages. Text must be present
// but may be empty.
type AddMessageRequest struct {
	Text *string `json:"text" validate:"required"`
}

// HistoryRequest holds the query of GET /chat/messages/history. A zero
// limit returns the whole buffer.
type HistoryRequest struct {
	Limit int `query:"limit" validate:"min=0,max=1000"`
}

// PollRequest holds the query of GET /chat/messages.
type PollRequest struct {
	After string `query:"after" validate:"omitempty,max=128"`
}

package handler

import (
	"time"

	"github.com/yndnr/snapback/internal/core/domain"
	"github.com/yndnr/snapback/internal/infra/buildinfo"
)

// CodeOK is the envelope code of every successful response.
const CodeOK = "OK"

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      CodeOK,
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// CreateUserRequest is the request body for POST /users.
type CreateUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// UpdateUserRequest is the request body for PUT /users/{email}.
type UpdateUserRequest struct {
	Name string `json:"name"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// toUserResponses never returns nil so an empty listing encodes as [].
func toUserResponses(users []*domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, UserResponse{Email: u.Email, Name: u.Name})
	}
	return out
}

// HealthResponse is the response body for GET /health and GET /ready.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// StatusResponse is the response body for GET /admin/v1/status.
type StatusResponse struct {
	Status           string         `json:"status"`
	Engine           string         `json:"engine"`
	Entities         int            `json:"entities"`
	PendingSnapshots int            `json:"pending_snapshots"`
	UptimeSeconds    int64          `json:"uptime_seconds"`
	Build            buildinfo.Info `json:"build"`
}

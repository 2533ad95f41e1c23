package events

import (
	"time"

	"github.com/spec-kit/task-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventUserLoggedIn   EventType = "user_logged_in"
	EventTokenRefreshed EventType = "token_refreshed"
	EventUserDeleted    EventType = "user_deleted"
	EventTaskCreated    EventType = "task_created"
	EventTaskCompleted  EventType = "task_completed"
	EventTaskDeleted    EventType = "task_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
}

// UserLoggedInPayload payload.
type UserLoggedInPayload struct {
	Username string `json:"username"`
}

// TokenRefreshedPayload payload.
type TokenRefreshedPayload struct {
	Username string `json:"username"`
}

// UserDeletedPayload payload.
type UserDeletedPayload struct {
	Username string `json:"username"`
}

// TaskCreatedPayload payload.
type TaskCreatedPayload struct {
	TaskID string `json:"task_id"`
	Title  string `json:"title"`
}

// TaskCompletedPayload payload.
type TaskCompletedPayload struct {
	TaskID string `json:"task_id"`
}

// TaskDeletedPayload payload.
type TaskDeletedPayload struct {
	TaskID string `json:"task_id"`
}

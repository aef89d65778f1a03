package models

import "time"

// RequestEventKind labels lifecycle notifications.
type RequestEventKind string

const (
	RequestEventCreated   RequestEventKind = "request.created"
	RequestEventAdopted   RequestEventKind = "request.adopted"
	RequestEventRejected  RequestEventKind = "request.rejected"
	RequestEventExpired   RequestEventKind = "request.expired"
	RequestEventCompleted RequestEventKind = "request.completed"
	RequestEventFailed    RequestEventKind = "request.failed"
)

// RequestEvent is the payload handed to the notification sink at creation and
// at every decision. Delivery is fire-and-forget.
type RequestEvent struct {
	Kind          RequestEventKind `json:"kind"`
	RequestID     string           `json:"request_id"`
	OperationType OperationType    `json:"operation_type"`
	Status        RequestStatus    `json:"status"`
	Proposer      string           `json:"proposer"`
	Recipients    []string         `json:"recipients,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at"`
}

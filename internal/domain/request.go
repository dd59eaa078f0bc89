package domain

import "time"

type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "PENDING"
	RequestStatusProcessing RequestStatus = "PROCESSING"
	RequestStatusApproved   RequestStatus = "APPROVED"
	RequestStatusRejected   RequestStatus = "REJECTED"
)

// PendingRequest is one join request under review, keyed by the id of the
// summary message broadcast to the review channel.
type PendingRequest struct {
	BroadcastMessageID int64         `json:"broadcast_message_id"`
	RequestToken       string        `json:"request_token"`
	ApplicantID        string        `json:"applicant_id"`
	Nickname           string        `json:"nickname"`
	Answer             string        `json:"answer"`
	Status             RequestStatus `json:"status"`
	CreatedAt          time.Time     `json:"created_at"`
}

// RejectFlow correlates a reviewer's free-text reply to the request it
// rejects. Keyed by the id of the coordinator's reason question message.
type RejectFlow struct {
	QuestionMessageID  int64     `json:"question_message_id"`
	BroadcastMessageID int64     `json:"broadcast_message_id"`
	OperatorID         string    `json:"operator_id"`
	Deadline           time.Time `json:"deadline"`
}

// Expired reports whether the reject flow's answer window has closed.
func (f *RejectFlow) Expired(now time.Time) bool {
	return now.After(f.Deadline)
}

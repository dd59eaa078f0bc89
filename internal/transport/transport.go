package transport

import "context"

// Transport is the outbound surface of the chat gateway. Message ids are the
// gateway's own; user ids are normalized decimal strings.
type Transport interface {
	// SendMessage posts text to a channel and returns the new message id.
	SendMessage(ctx context.Context, channelID int64, text string) (int64, error)
	// AdmitMember accepts the join request identified by token.
	AdmitMember(ctx context.Context, token, note string) error
	// DenyMember refuses the join request identified by token.
	DenyMember(ctx context.Context, token, reason string) error
	// AddReaction attaches a reaction affordance to a message.
	AddReaction(ctx context.Context, messageID int64, kind string) error
}

// JoinRequestEvent is emitted when an account asks to join the guarded group.
type JoinRequestEvent struct {
	Token       string
	ApplicantID string
	Nickname    string
	Answer      string
}

// ReactionEvent is emitted when a user reacts to a message in the review
// channel.
type ReactionEvent struct {
	MessageID int64
	UserID    string
	Kind      string
}

// QuotedReplyEvent is emitted when a message quotes an earlier one.
type QuotedReplyEvent struct {
	QuotedID int64
	UserID   string
	Text     string
}

// MemberAddedEvent is emitted when an account actually enters the group.
type MemberAddedEvent struct {
	UserID string
}

// EventHandler receives the inbound event streams. Implementations must
// tolerate events for unknown or already-resolved keys.
type EventHandler interface {
	HandleJoinRequest(ctx context.Context, ev JoinRequestEvent)
	HandleReaction(ctx context.Context, ev ReactionEvent)
	HandleQuotedReply(ctx context.Context, ev QuotedReplyEvent)
	HandleMemberAdded(ctx context.Context, ev MemberAddedEvent)
}

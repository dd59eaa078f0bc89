package approval

import (
	"context"
	"strings"
	"testing"
	"time"

	"groupgate/internal/domain"
	"groupgate/internal/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestCoordinator(joinWait time.Duration) (*Coordinator, *MockTransport, *MockBindingRepo, *MockLookupService) {
	tr := new(MockTransport)
	repo := new(MockBindingRepo)
	lk := new(MockLookupService)
	gate := NewPermissionGate("owner", repo, 0)
	c := NewCoordinator(Config{
		ReviewChannelID:    100,
		ReactApproveAuto:   "A",
		ReactApproveDialog: "D",
		ReactReject:        "R",
		Retention:          72 * time.Hour,
		JoinWait:           joinWait,
		RejectTimeout:      5 * time.Minute,
	}, tr, repo, lk, gate)
	return c, tr, repo, lk
}

func seedRequest(c *Coordinator, status domain.RequestStatus) {
	c.requests.Put(&domain.PendingRequest{
		BroadcastMessageID: 500,
		RequestToken:       "tok",
		ApplicantID:        "42",
		Nickname:           "Neo",
		Answer:             "12345678",
		Status:             status,
		CreatedAt:          time.Now(),
	})
}

func containsText(sub string) interface{} {
	return mock.MatchedBy(func(s string) bool { return strings.Contains(s, sub) })
}

func TestCoordinator_Intake(t *testing.T) {
	c, tr, _, lk := newTestCoordinator(time.Second)
	ctx := context.Background()

	lk.On("GetProfile", ctx, "12345678").Return(&domain.Profile{AccountID: "12345678", AccountName: "neo", Level: 5}, nil)
	tr.On("SendMessage", ctx, int64(100), containsText("Neo")).Return(int64(500), nil)
	tr.On("AddReaction", ctx, int64(500), "A").Return(nil)
	tr.On("AddReaction", ctx, int64(500), "D").Return(nil)
	tr.On("AddReaction", ctx, int64(500), "R").Return(nil)

	c.HandleJoinRequest(ctx, transport.JoinRequestEvent{
		Token:       "tok",
		ApplicantID: "42",
		Nickname:    "Neo",
		Answer:      "12345678",
	})

	req, ok := c.requests.Get(500)
	assert.True(t, ok)
	assert.Equal(t, domain.RequestStatusPending, req.Status)
	assert.Equal(t, "tok", req.RequestToken)
	tr.AssertExpectations(t)
	lk.AssertExpectations(t)
}

func TestCoordinator_ReactionFromNonOperator(t *testing.T) {
	c, tr, repo, _ := newTestCoordinator(time.Second)
	ctx := context.Background()
	seedRequest(c, domain.RequestStatusPending)

	repo.On("ListAdmins", ctx).Return([]domain.Binding{}, nil)
	tr.On("SendMessage", ctx, int64(100), containsText("not authorized")).Return(int64(501), nil)

	c.HandleReaction(ctx, transport.ReactionEvent{MessageID: 500, UserID: "rando", Kind: "A"})

	req, _ := c.requests.Get(500)
	assert.Equal(t, domain.RequestStatusPending, req.Status)
	tr.AssertNotCalled(t, "AdmitMember", mock.Anything, mock.Anything, mock.Anything)
	tr.AssertExpectations(t)
}

func TestCoordinator_ReactionIgnored(t *testing.T) {
	c, tr, _, _ := newTestCoordinator(time.Second)
	ctx := context.Background()
	seedRequest(c, domain.RequestStatusPending)

	t.Run("UnknownMessage", func(t *testing.T) {
		c.HandleReaction(ctx, transport.ReactionEvent{MessageID: 999, UserID: "owner", Kind: "A"})
	})
	t.Run("UnknownKind", func(t *testing.T) {
		c.HandleReaction(ctx, transport.ReactionEvent{MessageID: 500, UserID: "owner", Kind: "X"})
	})
	t.Run("NotPending", func(t *testing.T) {
		c.requests.SetStatus(500, domain.RequestStatusApproved)
		c.HandleReaction(ctx, transport.ReactionEvent{MessageID: 500, UserID: "owner", Kind: "A"})
	})

	tr.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything)
	tr.AssertNotCalled(t, "AdmitMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestCoordinator_DuplicateReactions(t *testing.T) {
	c, tr, _, _ := newTestCoordinator(20 * time.Millisecond)
	ctx := context.Background()
	seedRequest(c, domain.RequestStatusPending)

	tr.On("AdmitMember", ctx, "tok", "").Return(nil).Once()
	tr.On("SendMessage", ctx, int64(100), containsText("no join was observed")).Return(int64(501), nil).Once()

	c.HandleReaction(ctx, transport.ReactionEvent{MessageID: 500, UserID: "owner", Kind: "D"})

	req, _ := c.requests.Get(500)
	assert.Equal(t, domain.RequestStatusApproved, req.Status)

	// A late second reaction is a no-op once the request is resolved.
	c.HandleReaction(ctx, transport.ReactionEvent{MessageID: 500, UserID: "owner", Kind: "A"})
	tr.AssertNumberOfCalls(t, "AdmitMember", 1)
	tr.AssertExpectations(t)
}

func TestCoordinator_ApproveAutoBind(t *testing.T) {
	c, tr, repo, lk := newTestCoordinator(500 * time.Millisecond)
	ctx := context.Background()
	seedRequest(c, domain.RequestStatusPending)

	lk.On("GetProfile", ctx, "12345678").Return(&domain.Profile{AccountID: "12345678", AccountName: "neo", Level: 5}, nil)
	repo.On("GetByUserID", ctx, "42").Return(nil, assert.AnError)
	repo.On("Create", ctx, mock.MatchedBy(func(b *domain.Binding) bool {
		return b.UserID == "42" && b.AccountID == "12345678" && b.AccountName == "neo"
	})).Return(nil)
	tr.On("AdmitMember", ctx, "tok", "").Return(nil)
	tr.On("SendMessage", ctx, int64(100), containsText("has joined")).Return(int64(502), nil)

	go func() {
		time.Sleep(20 * time.Millisecond)
		c.HandleMemberAdded(ctx, transport.MemberAddedEvent{UserID: "42"})
	}()
	c.HandleReaction(ctx, transport.ReactionEvent{MessageID: 500, UserID: "owner", Kind: "A"})

	req, _ := c.requests.Get(500)
	assert.Equal(t, domain.RequestStatusApproved, req.Status)
	assert.Equal(t, 0, c.waiters.Len())
	tr.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestCoordinator_ApproveAutoBind_ExistingBinding(t *testing.T) {
	c, tr, repo, lk := newTestCoordinator(20 * time.Millisecond)
	ctx := context.Background()
	seedRequest(c, domain.RequestStatusPending)

	lk.On("GetProfile", ctx, "12345678").Return(nil, nil)
	existing := &domain.Binding{ID: 7, UserID: "42", AccountID: "old"}
	repo.On("GetByUserID", ctx, "42").Return(existing, nil)
	repo.On("Update", ctx, mock.MatchedBy(func(b *domain.Binding) bool {
		return b.ID == 7 && b.AccountID == "12345678"
	})).Return(nil)
	tr.On("AdmitMember", ctx, "tok", "").Return(nil)
	tr.On("SendMessage", ctx, int64(100), containsText("no join was observed")).Return(int64(502), nil)

	c.HandleReaction(ctx, transport.ReactionEvent{MessageID: 500, UserID: "owner", Kind: "A"})

	req, _ := c.requests.Get(500)
	assert.Equal(t, domain.RequestStatusApproved, req.Status)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCoordinator_ApproveAutoBind_UnparseableAnswer(t *testing.T) {
	c, tr, repo, lk := newTestCoordinator(20 * time.Millisecond)
	ctx := context.Background()
	c.requests.Put(&domain.PendingRequest{
		BroadcastMessageID: 500,
		RequestToken:       "tok",
		ApplicantID:        "42",
		Nickname:           "Neo",
		Answer:             "@@@",
		Status:             domain.RequestStatusPending,
		CreatedAt:          time.Now(),
	})

	tr.On("SendMessage", ctx, int64(100), containsText("admitted without binding")).Return(int64(501), nil)
	tr.On("AdmitMember", ctx, "tok", "").Return(nil)
	tr.On("SendMessage", ctx, int64(100), containsText("no join was observed")).Return(int64(502), nil)

	c.HandleReaction(ctx, transport.ReactionEvent{MessageID: 500, UserID: "owner", Kind: "A"})

	// Still approved: admission happened, only the binding is missing.
	req, _ := c.requests.Get(500)
	assert.Equal(t, domain.RequestStatusApproved, req.Status)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	lk.AssertNotCalled(t, "GetProfile", mock.Anything, mock.Anything)
	tr.AssertExpectations(t)
}

func TestCoordinator_BindFailureAbortsBeforeAdmission(t *testing.T) {
	c, tr, repo, lk := newTestCoordinator(time.Second)
	ctx := context.Background()
	seedRequest(c, domain.RequestStatusPending)

	lk.On("GetProfile", ctx, "12345678").Return(nil, nil)
	repo.On("GetByUserID", ctx, "42").Return(nil, assert.AnError)
	repo.On("Create", ctx, mock.Anything).Return(assert.AnError)
	tr.On("SendMessage", ctx, int64(100), containsText("React again to retry")).Return(int64(501), nil)

	c.HandleReaction(ctx, transport.ReactionEvent{MessageID: 500, UserID: "owner", Kind: "A"})

	req, _ := c.requests.Get(500)
	assert.Equal(t, domain.RequestStatusPending, req.Status)
	tr.AssertNotCalled(t, "AdmitMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestCoordinator_AdmissionFailureRollsBack(t *testing.T) {
	c, tr, _, _ := newTestCoordinator(time.Second)
	ctx := context.Background()
	seedRequest(c, domain.RequestStatusPending)

	tr.On("AdmitMember", ctx, "tok", "").Return(assert.AnError)
	tr.On("SendMessage", ctx, int64(100), containsText("React again to retry")).Return(int64(501), nil)

	c.HandleReaction(ctx, transport.ReactionEvent{MessageID: 500, UserID: "owner", Kind: "D"})

	req, _ := c.requests.Get(500)
	assert.Equal(t, domain.RequestStatusPending, req.Status)
	assert.Equal(t, 0, c.waiters.Len())
}

func TestCoordinator_WaiterConflictRejectsSecondApproval(t *testing.T) {
	c, tr, _, _ := newTestCoordinator(time.Second)
	ctx := context.Background()
	seedRequest(c, domain.RequestStatusPending)

	_, err := c.waiters.Register("42")
	assert.NoError(t, err)

	tr.On("SendMessage", ctx, int64(100), containsText("another approval is in flight")).Return(int64(501), nil)

	c.HandleReaction(ctx, transport.ReactionEvent{MessageID: 500, UserID: "owner", Kind: "D"})

	req, _ := c.requests.Get(500)
	assert.Equal(t, domain.RequestStatusPending, req.Status)
	tr.AssertNotCalled(t, "AdmitMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestCoordinator_RejectScenario(t *testing.T) {
	c, tr, _, _ := newTestCoordinator(time.Second)
	ctx := context.Background()
	seedRequest(c, domain.RequestStatusPending)

	// Reviewer reacts with the reject affordance; the coordinator asks for
	// a reason.
	tr.On("SendMessage", ctx, int64(100), containsText("reply to this message with the reason")).Return(int64(777), nil).Once()
	c.HandleReaction(ctx, transport.ReactionEvent{MessageID: 500, UserID: "owner", Kind: "R"})

	req, _ := c.requests.Get(500)
	assert.Equal(t, domain.RequestStatusProcessing, req.Status)
	flow, ok := c.rejects.Get(777)
	assert.True(t, ok)
	assert.Equal(t, "owner", flow.OperatorID)

	// A different user replies: denial notice, no state change.
	tr.On("SendMessage", ctx, int64(100), containsText("Only the reviewer")).Return(int64(778), nil).Once()
	c.HandleQuotedReply(ctx, transport.QuotedReplyEvent{QuotedID: 777, UserID: "rando", Text: "lol no"})

	req, _ = c.requests.Get(500)
	assert.Equal(t, domain.RequestStatusProcessing, req.Status)
	_, ok = c.rejects.Get(777)
	assert.True(t, ok)

	// The original reviewer supplies the reason within the deadline.
	tr.On("DenyMember", ctx, "tok", "spam").Return(nil).Once()
	tr.On("SendMessage", ctx, int64(100), containsText("Rejected Neo: spam")).Return(int64(779), nil).Once()
	c.HandleQuotedReply(ctx, transport.QuotedReplyEvent{QuotedID: 777, UserID: "owner", Text: "spam"})

	req, _ = c.requests.Get(500)
	assert.Equal(t, domain.RequestStatusRejected, req.Status)
	_, ok = c.rejects.Get(777)
	assert.False(t, ok)

	// A late duplicate reply is a no-op.
	c.HandleQuotedReply(ctx, transport.QuotedReplyEvent{QuotedID: 777, UserID: "owner", Text: "again"})
	tr.AssertNumberOfCalls(t, "DenyMember", 1)
	tr.AssertExpectations(t)
}

func TestCoordinator_RejectReplyExpired(t *testing.T) {
	c, tr, _, _ := newTestCoordinator(time.Second)
	ctx := context.Background()
	seedRequest(c, domain.RequestStatusProcessing)
	c.rejects.Put(&domain.RejectFlow{
		QuestionMessageID:  777,
		BroadcastMessageID: 500,
		OperatorID:         "owner",
		Deadline:           time.Now().Add(-time.Minute),
	})

	tr.On("SendMessage", ctx, int64(100), containsText("expired")).Return(int64(778), nil)

	c.HandleQuotedReply(ctx, transport.QuotedReplyEvent{QuotedID: 777, UserID: "owner", Text: "spam"})

	req, _ := c.requests.Get(500)
	assert.Equal(t, domain.RequestStatusPending, req.Status)
	_, ok := c.rejects.Get(777)
	assert.False(t, ok)
	tr.AssertNotCalled(t, "DenyMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestCoordinator_RejectDenyFailureRollsBack(t *testing.T) {
	c, tr, _, _ := newTestCoordinator(time.Second)
	ctx := context.Background()
	seedRequest(c, domain.RequestStatusProcessing)
	c.rejects.Put(&domain.RejectFlow{
		QuestionMessageID:  777,
		BroadcastMessageID: 500,
		OperatorID:         "owner",
		Deadline:           time.Now().Add(time.Minute),
	})

	tr.On("DenyMember", ctx, "tok", "spam").Return(assert.AnError)
	tr.On("SendMessage", ctx, int64(100), containsText("denial failed")).Return(int64(778), nil)

	c.HandleQuotedReply(ctx, transport.QuotedReplyEvent{QuotedID: 777, UserID: "owner", Text: "spam"})

	req, _ := c.requests.Get(500)
	assert.Equal(t, domain.RequestStatusPending, req.Status)
}

func TestCoordinator_QuotedReplyUnknownQuestion(t *testing.T) {
	c, tr, _, _ := newTestCoordinator(time.Second)
	ctx := context.Background()

	c.HandleQuotedReply(ctx, transport.QuotedReplyEvent{QuotedID: 999, UserID: "owner", Text: "spam"})
	tr.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestCoordinator_SweepExpired(t *testing.T) {
	c, _, _, _ := newTestCoordinator(time.Second)
	now := time.Now()

	c.requests.Put(newPending(1, now.Add(-80*time.Hour)))
	c.requests.Put(newPending(2, now.Add(-time.Hour)))
	c.rejects.Put(&domain.RejectFlow{QuestionMessageID: 10, Deadline: now.Add(-time.Minute)})
	c.rejects.Put(&domain.RejectFlow{QuestionMessageID: 11, Deadline: now.Add(time.Minute)})

	requests, flows := c.SweepExpired(now)
	assert.Equal(t, 1, requests)
	assert.Equal(t, 1, flows)
	assert.Equal(t, 1, c.requests.Len())
	assert.Equal(t, 1, c.rejects.Len())
}

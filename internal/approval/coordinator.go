package approval

import (
	"context"
	"fmt"
	"time"

	"groupgate/internal/domain"
	"groupgate/internal/logger"
	"groupgate/internal/lookup"
	"groupgate/internal/messages"
	"groupgate/internal/repository"
	"groupgate/internal/transport"

	"github.com/google/uuid"
)

// Config carries the flow settings the coordinator needs.
type Config struct {
	ReviewChannelID    int64
	ReactApproveAuto   string
	ReactApproveDialog string
	ReactReject        string
	Retention          time.Duration
	JoinWait           time.Duration
	RejectTimeout      time.Duration
}

// Coordinator correlates the four inbound event streams into one decision
// per join request. It owns the three registries; nothing else writes them
// except the cleanup sweep, which goes through SweepExpired.
type Coordinator struct {
	cfg       Config
	transport transport.Transport
	bindings  repository.BindingRepository
	lookup    lookup.Service
	gate      *PermissionGate

	requests *RequestRegistry
	rejects  *RejectFlowRegistry
	waiters  *WaiterRegistry
}

func NewCoordinator(
	cfg Config,
	tr transport.Transport,
	bindings repository.BindingRepository,
	lookupSvc lookup.Service,
	gate *PermissionGate,
) *Coordinator {
	return &Coordinator{
		cfg:       cfg,
		transport: tr,
		bindings:  bindings,
		lookup:    lookupSvc,
		gate:      gate,
		requests:  NewRequestRegistry(),
		rejects:   NewRejectFlowRegistry(),
		waiters:   NewWaiterRegistry(),
	}
}

var _ transport.EventHandler = (*Coordinator)(nil)

// HandleJoinRequest broadcasts a summary of a new join request to the review
// channel, attaches the decision reactions and registers the request as
// pending.
func (c *Coordinator) HandleJoinRequest(ctx context.Context, ev transport.JoinRequestEvent) {
	var prof *domain.Profile
	if accountID, ok := ExtractAccountID(ev.Answer); ok {
		p, err := c.lookup.GetProfile(ctx, accountID)
		if err != nil {
			logger.Warn("Profile lookup failed during intake", "account_id", accountID, "error", err)
		}
		prof = p
	}

	text := messages.ReviewSummary(ev.Nickname, ev.ApplicantID, ev.Answer, prof)
	msgID, err := c.transport.SendMessage(ctx, c.cfg.ReviewChannelID, text)
	if err != nil {
		logger.Error("Failed to broadcast join request", "applicant_id", ev.ApplicantID, "error", err)
		return
	}

	for _, kind := range []string{c.cfg.ReactApproveAuto, c.cfg.ReactApproveDialog, c.cfg.ReactReject} {
		if err := c.transport.AddReaction(ctx, msgID, kind); err != nil {
			logger.Warn("Failed to attach reaction affordance", "message_id", msgID, "kind", kind, "error", err)
		}
	}

	c.requests.Put(&domain.PendingRequest{
		BroadcastMessageID: msgID,
		RequestToken:       ev.Token,
		ApplicantID:        ev.ApplicantID,
		Nickname:           ev.Nickname,
		Answer:             ev.Answer,
		Status:             domain.RequestStatusPending,
		CreatedAt:          time.Now(),
	})
	logger.Info("Join request registered", "applicant_id", ev.ApplicantID, "broadcast_id", msgID)
}

// HandleReaction dispatches a reviewer's reaction on a broadcast message.
// Reactions on unknown messages, on already-claimed requests, or of unknown
// kinds are no-ops; reactions from non-operators get a denial notice.
func (c *Coordinator) HandleReaction(ctx context.Context, ev transport.ReactionEvent) {
	if ev.Kind != c.cfg.ReactApproveAuto && ev.Kind != c.cfg.ReactApproveDialog && ev.Kind != c.cfg.ReactReject {
		return
	}

	req, ok := c.requests.Get(ev.MessageID)
	if !ok || req.Status != domain.RequestStatusPending {
		return
	}

	if !c.gate.IsOperator(ctx, ev.UserID) {
		logger.Warn("Reaction from non-operator", "user_id", ev.UserID, "broadcast_id", ev.MessageID)
		c.notify(ctx, messages.PermissionDenied(ev.UserID))
		return
	}

	// Claim the request; a concurrent reaction loses here and is dropped.
	req, ok = c.requests.Claim(ev.MessageID)
	if !ok {
		return
	}

	switch ev.Kind {
	case c.cfg.ReactApproveAuto:
		c.approveAutoBind(ctx, req)
	case c.cfg.ReactApproveDialog:
		c.approveInteractive(ctx, req)
	case c.cfg.ReactReject:
		c.initiateReject(ctx, req, ev.UserID)
	}
}

// approveAutoBind binds the applicant's account from the stored answer, then
// admits membership. Binding happens first so a failed bind aborts before
// any membership change. An unparseable answer still admits and approves,
// with an audit record marking that no binding occurred.
func (c *Coordinator) approveAutoBind(ctx context.Context, req domain.PendingRequest) {
	accountID, parsed := ExtractAccountID(req.Answer)
	if parsed {
		if err := c.bindAccount(ctx, req, accountID); err != nil {
			c.fail(ctx, req, "binding failed", err)
			return
		}
	} else {
		logger.Warn("Approving without binding",
			"audit_id", uuid.NewString(),
			"event", "approved_without_binding",
			"applicant_id", req.ApplicantID,
			"broadcast_id", req.BroadcastMessageID)
		c.notify(ctx, messages.UnparseableAnswer(req.Nickname))
	}
	c.admitAndReport(ctx, req)
}

// approveInteractive admits membership immediately; the binding conversation
// that follows is driven by an external collaborator off the member-added
// event.
func (c *Coordinator) approveInteractive(ctx context.Context, req domain.PendingRequest) {
	c.admitAndReport(ctx, req)
}

func (c *Coordinator) admitAndReport(ctx context.Context, req domain.PendingRequest) {
	ch, err := c.waiters.Register(req.ApplicantID)
	if err != nil {
		c.fail(ctx, req, "another approval is in flight for this applicant", err)
		return
	}

	if err := c.transport.AdmitMember(ctx, req.RequestToken, ""); err != nil {
		c.waiters.Cancel(req.ApplicantID)
		c.fail(ctx, req, "admission failed", err)
		return
	}

	joined := c.awaitJoin(ch, req.ApplicantID, c.cfg.JoinWait)
	c.requests.SetStatus(req.BroadcastMessageID, domain.RequestStatusApproved)
	if joined {
		c.notify(ctx, messages.JoinCompleted(req.Nickname))
	} else {
		c.notify(ctx, messages.JoinTimedOut(req.Nickname))
	}
	logger.Info("Join request approved", "applicant_id", req.ApplicantID, "joined", joined)
}

// awaitJoin blocks until the applicant's member-added event resolves the
// waiter or the timeout elapses. Exactly one of the two outcomes fires; the
// waiter entry is removed either way.
func (c *Coordinator) awaitJoin(ch <-chan struct{}, applicantID string, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return true
	case <-timer.C:
		c.waiters.Cancel(applicantID)
		// The event may have won the race with the timer.
		select {
		case <-ch:
			return true
		default:
			return false
		}
	}
}

// bindAccount creates or updates the durable binding for the applicant,
// enriched with the looked-up profile when available.
func (c *Coordinator) bindAccount(ctx context.Context, req domain.PendingRequest, accountID string) error {
	prof, err := c.lookup.GetProfile(ctx, accountID)
	if err != nil {
		logger.Warn("Profile lookup failed during binding", "account_id", accountID, "error", err)
	}

	b := &domain.Binding{
		UserID:    req.ApplicantID,
		AccountID: accountID,
	}
	if prof != nil {
		b.AccountName = prof.AccountName
		b.Level = prof.Level
		b.Badge = prof.Badge
	}

	existing, err := c.bindings.GetByUserID(ctx, req.ApplicantID)
	if err == nil && existing != nil {
		existing.AccountID = b.AccountID
		existing.AccountName = b.AccountName
		existing.Level = b.Level
		existing.Badge = b.Badge
		if err := c.bindings.Update(ctx, existing); err != nil {
			return fmt.Errorf("failed to update binding: %w", err)
		}
		return nil
	}

	if err := c.bindings.Create(ctx, b); err != nil {
		return fmt.Errorf("failed to create binding: %w", err)
	}
	return nil
}

// initiateReject asks the reviewer for a reason and records the sub-flow.
// The request stays processing until the reason arrives or the flow expires.
func (c *Coordinator) initiateReject(ctx context.Context, req domain.PendingRequest, operatorID string) {
	qid, err := c.transport.SendMessage(ctx, c.cfg.ReviewChannelID, messages.RejectQuestion(req.Nickname, req.ApplicantID))
	if err != nil {
		c.fail(ctx, req, "could not ask for a reject reason", err)
		return
	}

	c.rejects.Put(&domain.RejectFlow{
		QuestionMessageID:  qid,
		BroadcastMessageID: req.BroadcastMessageID,
		OperatorID:         operatorID,
		Deadline:           time.Now().Add(c.cfg.RejectTimeout),
	})
	logger.Info("Reject reason requested", "applicant_id", req.ApplicantID, "question_id", qid, "operator_id", operatorID)
}

// HandleQuotedReply resolves a reply quoting one of the coordinator's reason
// questions. Replies quoting anything else are no-ops.
func (c *Coordinator) HandleQuotedReply(ctx context.Context, ev transport.QuotedReplyEvent) {
	flow, ok := c.rejects.Get(ev.QuotedID)
	if !ok {
		return
	}

	if ev.UserID != flow.OperatorID {
		logger.Warn("Reject reply from wrong user", "user_id", ev.UserID, "question_id", ev.QuotedID)
		c.notify(ctx, messages.RejectReplyDenied(ev.UserID))
		return
	}

	// First valid reply wins; a concurrent duplicate stops here.
	if !c.rejects.Remove(ev.QuotedID) {
		return
	}

	req, found := c.requests.Get(flow.BroadcastMessageID)

	if flow.Expired(time.Now()) {
		c.requests.Release(flow.BroadcastMessageID)
		if found {
			c.notify(ctx, messages.RejectExpired(req.Nickname))
		}
		logger.Info("Reject flow expired at reply time", "question_id", ev.QuotedID)
		return
	}

	if !found {
		// Parent already swept; nothing left to decide.
		return
	}

	if err := c.transport.DenyMember(ctx, req.RequestToken, ev.Text); err != nil {
		c.requests.Release(flow.BroadcastMessageID)
		c.notify(ctx, messages.FlowError(req.Nickname, "denial failed"))
		logger.Error("Failed to deny membership", "applicant_id", req.ApplicantID, "error", err)
		return
	}

	c.requests.SetStatus(flow.BroadcastMessageID, domain.RequestStatusRejected)
	c.notify(ctx, messages.RejectConfirmed(req.Nickname, ev.Text))
	logger.Info("Join request rejected", "applicant_id", req.ApplicantID, "reason", ev.Text)
}

// HandleMemberAdded resolves the join waiter for the arriving member, if one
// is outstanding.
func (c *Coordinator) HandleMemberAdded(ctx context.Context, ev transport.MemberAddedEvent) {
	if c.waiters.Resolve(ev.UserID) {
		logger.Debug("Join wait resolved", "user_id", ev.UserID)
	}
}

// SweepExpired evicts requests past the retention window and reject flows
// past their deadline. Called by the scheduled cleanup job; sweep timing
// only bounds memory, it is not load-bearing for correctness.
func (c *Coordinator) SweepExpired(now time.Time) (requestsRemoved, flowsRemoved int) {
	requestsRemoved = c.requests.RemoveCreatedBefore(now.Add(-c.cfg.Retention))
	flowsRemoved = c.rejects.RemoveExpired(now)
	return requestsRemoved, flowsRemoved
}

// fail rolls the request back to pending so a reviewer can react again, and
// reports the error to the review channel.
func (c *Coordinator) fail(ctx context.Context, req domain.PendingRequest, detail string, err error) {
	c.requests.Release(req.BroadcastMessageID)
	logger.Error("Request handling failed", "applicant_id", req.ApplicantID, "detail", detail, "error", err)
	c.notify(ctx, messages.FlowError(req.Nickname, detail))
}

func (c *Coordinator) notify(ctx context.Context, text string) {
	if _, err := c.transport.SendMessage(ctx, c.cfg.ReviewChannelID, text); err != nil {
		logger.Error("Failed to send notice to review channel", "error", err)
	}
}

// Package messages renders the review-channel text the coordinator sends.
package messages

import (
	"fmt"
	"strings"

	"groupgate/internal/domain"
)

// ReviewSummary formats the broadcast posted for a new join request.
func ReviewSummary(nickname, applicantID, answer string, prof *domain.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Join request from %s (%s)\n", nickname, applicantID)
	if answer != "" {
		fmt.Fprintf(&b, "Answer: %s\n", answer)
	}
	if prof != nil {
		fmt.Fprintf(&b, "Account: %s (id %s, level %d", prof.AccountName, prof.AccountID, prof.Level)
		if prof.Badge != "" {
			fmt.Fprintf(&b, ", badge %s", prof.Badge)
		}
		b.WriteString(")\n")
	}
	b.WriteString("React to decide: approve+bind / approve / reject")
	return b.String()
}

// PermissionDenied is sent when a non-operator reacts to a broadcast.
func PermissionDenied(userID string) string {
	return fmt.Sprintf("User %s is not authorized to review join requests.", userID)
}

// UnparseableAnswer is sent when an auto-bind approval finds no account id
// in the stored answer.
func UnparseableAnswer(nickname string) string {
	return fmt.Sprintf("No account id found in the answer from %s; admitted without binding, bind manually.", nickname)
}

// FlowError reports a failed handler step; the request is reactable again.
func FlowError(nickname, detail string) string {
	return fmt.Sprintf("Handling the request from %s failed (%s). React again to retry.", nickname, detail)
}

// JoinCompleted reports that the applicant arrived in the group.
func JoinCompleted(nickname string) string {
	return fmt.Sprintf("%s has joined the group.", nickname)
}

// JoinTimedOut reports that the applicant did not arrive within the wait
// window.
func JoinTimedOut(nickname string) string {
	return fmt.Sprintf("Approved %s, but no join was observed before the timeout.", nickname)
}

// RejectQuestion asks the reviewer for a reject reason.
func RejectQuestion(nickname, applicantID string) string {
	return fmt.Sprintf("Rejecting %s (%s): reply to this message with the reason within 5 minutes.", nickname, applicantID)
}

// RejectReplyDenied is sent when someone other than the initiating reviewer
// answers the reason question.
func RejectReplyDenied(userID string) string {
	return fmt.Sprintf("Only the reviewer who started this rejection may supply the reason (reply from %s ignored).", userID)
}

// RejectExpired reports that the reason window closed; the request is
// pending again.
func RejectExpired(nickname string) string {
	return fmt.Sprintf("The reason window for %s expired; the request is pending again.", nickname)
}

// RejectConfirmed confirms the rejection to the reviewer.
func RejectConfirmed(nickname, reason string) string {
	return fmt.Sprintf("Rejected %s: %s", nickname, reason)
}

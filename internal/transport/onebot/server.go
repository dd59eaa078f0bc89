package onebot

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"groupgate/internal/logger"
	"groupgate/internal/transport"

	"github.com/gorilla/mux"
)

// Server receives JSON event callbacks pushed by the chat gateway and
// translates them into the coordinator's event streams.
type Server struct {
	secret  string
	groupID int64
	handler transport.EventHandler
}

func NewServer(secret string, groupID int64, handler transport.EventHandler) *Server {
	return &Server{
		secret:  secret,
		groupID: groupID,
		handler: handler,
	}
}

// Router returns the callback route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/events", s.handleEvent).Methods(http.MethodPost)
	return r
}

// event is the gateway's callback envelope. Only the fields relevant to the
// approval flow are decoded.
type event struct {
	PostType    string `json:"post_type"`
	RequestType string `json:"request_type"`
	NoticeType  string `json:"notice_type"`
	MessageType string `json:"message_type"`
	SubType     string `json:"sub_type"`
	GroupID     int64  `json:"group_id"`
	UserID      int64  `json:"user_id"`
	MessageID   int64  `json:"message_id"`
	Flag        string `json:"flag"`
	Comment     string `json:"comment"`
	ReplyID     int64  `json:"reply_id"`
	RawMessage  string `json:"raw_message"`
	EmojiID     string `json:"emoji_id"`
	Sender      struct {
		Nickname string `json:"nickname"`
	} `json:"sender"`
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if !s.verifySignature(body, r.Header.Get("X-Signature")) {
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var ev event
	if err := json.Unmarshal(body, &ev); err != nil {
		http.Error(w, "malformed event", http.StatusBadRequest)
		return
	}

	// Reaction handling can block on the join wait; events must not queue
	// behind it on the callback socket.
	go s.dispatch(context.Background(), ev)

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) verifySignature(body []byte, header string) bool {
	if s.secret == "" {
		return true
	}
	mac := hmac.New(sha1.New, []byte(s.secret))
	mac.Write(body)
	want := "sha1=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(header))
}

func (s *Server) dispatch(ctx context.Context, ev event) {
	userID := strconv.FormatInt(ev.UserID, 10)

	switch ev.PostType {
	case "request":
		if ev.RequestType != "group" || ev.SubType != "add" || ev.GroupID != s.groupID {
			return
		}
		s.handler.HandleJoinRequest(ctx, transport.JoinRequestEvent{
			Token:       ev.Flag,
			ApplicantID: userID,
			Nickname:    ev.Sender.Nickname,
			Answer:      ev.Comment,
		})
	case "notice":
		switch ev.NoticeType {
		case "group_msg_emoji_like":
			s.handler.HandleReaction(ctx, transport.ReactionEvent{
				MessageID: ev.MessageID,
				UserID:    userID,
				Kind:      ev.EmojiID,
			})
		case "group_increase":
			if ev.GroupID != s.groupID {
				return
			}
			s.handler.HandleMemberAdded(ctx, transport.MemberAddedEvent{UserID: userID})
		}
	case "message":
		if ev.ReplyID == 0 {
			return
		}
		s.handler.HandleQuotedReply(ctx, transport.QuotedReplyEvent{
			QuotedID: ev.ReplyID,
			UserID:   userID,
			Text:     ev.RawMessage,
		})
	default:
		logger.Debug("Ignoring gateway event", "post_type", ev.PostType)
	}
}

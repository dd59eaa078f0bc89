package onebot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"groupgate/internal/logger"
	"groupgate/internal/transport"

	"github.com/google/uuid"
)

// Client calls the chat gateway's HTTP action API.
type Client struct {
	baseURL     string
	accessToken string
	groupID     int64
	httpClient  *http.Client
}

func NewClient(baseURL, accessToken string, groupID int64) *Client {
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		groupID:     groupID,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

var _ transport.Transport = (*Client)(nil)

type apiResponse struct {
	Status  string          `json:"status"`
	Retcode int             `json:"retcode"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) call(ctx context.Context, action string, payload map[string]any, out any) error {
	payload["echo"] = uuid.NewString()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", action, err)
	}

	url := c.baseURL + "/" + action
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	logger.ExternalServiceCall("gateway", action)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.ExternalServiceResult("gateway", action, err)
		return fmt.Errorf("gateway %s call failed: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("gateway %s returned HTTP %d", action, resp.StatusCode)
		logger.ExternalServiceResult("gateway", action, err)
		return err
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		logger.ExternalServiceResult("gateway", action, err)
		return fmt.Errorf("failed to decode %s response: %w", action, err)
	}
	if apiResp.Retcode != 0 {
		err := fmt.Errorf("gateway %s failed: retcode %d: %s", action, apiResp.Retcode, apiResp.Message)
		logger.ExternalServiceResult("gateway", action, err)
		return err
	}

	if out != nil && len(apiResp.Data) > 0 {
		if err := json.Unmarshal(apiResp.Data, out); err != nil {
			return fmt.Errorf("failed to decode %s data: %w", action, err)
		}
	}
	logger.ExternalServiceResult("gateway", action, nil)
	return nil
}

// SendMessage posts text to a group channel and returns the new message id.
func (c *Client) SendMessage(ctx context.Context, channelID int64, text string) (int64, error) {
	var data struct {
		MessageID int64 `json:"message_id"`
	}
	err := c.call(ctx, "send_group_msg", map[string]any{
		"group_id": channelID,
		"message":  text,
	}, &data)
	if err != nil {
		return 0, err
	}
	return data.MessageID, nil
}

// AdmitMember accepts a pending group-add request.
func (c *Client) AdmitMember(ctx context.Context, token, note string) error {
	return c.call(ctx, "set_group_add_request", map[string]any{
		"flag":     token,
		"sub_type": "add",
		"approve":  true,
		"remark":   note,
	}, nil)
}

// DenyMember refuses a pending group-add request with a reason shown to the
// applicant.
func (c *Client) DenyMember(ctx context.Context, token, reason string) error {
	return c.call(ctx, "set_group_add_request", map[string]any{
		"flag":     token,
		"sub_type": "add",
		"approve":  false,
		"reason":   reason,
	}, nil)
}

// AddReaction attaches a reaction affordance to a message.
func (c *Client) AddReaction(ctx context.Context, messageID int64, kind string) error {
	return c.call(ctx, "set_msg_emoji_like", map[string]any{
		"message_id": messageID,
		"emoji_id":   kind,
	}, nil)
}

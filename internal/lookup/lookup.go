package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"groupgate/internal/domain"
	"groupgate/internal/logger"
)

// Service resolves an external account id to a profile. The upstream may
// fail or rate-limit; callers must tolerate a nil profile.
type Service interface {
	GetProfile(ctx context.Context, accountID string) (*domain.Profile, error)
}

type httpService struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPService(baseURL string, timeout time.Duration) Service {
	return &httpService{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type profileResponse struct {
	Code int `json:"code"`
	Data struct {
		AccountID   string `json:"account_id"`
		AccountName string `json:"account_name"`
		Level       int32  `json:"level"`
		Badge       string `json:"badge"`
	} `json:"data"`
}

func (s *httpService) GetProfile(ctx context.Context, accountID string) (*domain.Profile, error) {
	endpoint := fmt.Sprintf("%s/accounts/%s", s.baseURL, url.PathEscape(accountID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build profile request: %w", err)
	}

	logger.ExternalServiceCall("lookup", "GetProfile", "account_id", accountID)
	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.ExternalServiceResult("lookup", "GetProfile", err)
		return nil, fmt.Errorf("profile lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		logger.ExternalServiceResult("lookup", "GetProfile", nil, "found", false)
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("profile lookup returned HTTP %d", resp.StatusCode)
		logger.ExternalServiceResult("lookup", "GetProfile", err)
		return nil, err
	}

	var pr profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		logger.ExternalServiceResult("lookup", "GetProfile", err)
		return nil, fmt.Errorf("failed to decode profile response: %w", err)
	}
	if pr.Code != 0 {
		err := fmt.Errorf("profile lookup failed: code %d", pr.Code)
		logger.ExternalServiceResult("lookup", "GetProfile", err)
		return nil, err
	}

	logger.ExternalServiceResult("lookup", "GetProfile", nil, "found", true)
	return &domain.Profile{
		AccountID:   pr.Data.AccountID,
		AccountName: pr.Data.AccountName,
		Level:       pr.Data.Level,
		Badge:       pr.Data.Badge,
	}, nil
}

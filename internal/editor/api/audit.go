package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jtomassoni/mmb-sub000/internal/models"
	"github.com/jtomassoni/mmb-sub000/pkg/api"
)

// Rollback отправляет POST /api/v1/rollback.
// Статусы мапятся на typed errors: 404 → models.ErrNotFound,
// 403 → *models.PermissionError, 409 → models.ErrNotRollbackable,
// 410 → *models.WindowExpiredError.
func (c *Client) Rollback(ctx context.Context, accessToken string, req api.RollbackRequest) (*api.RollbackResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rollback request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/rollback", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &models.TransientError{Offline: !isTimeout(err), Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.TransientError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var result api.RollbackResponse
		if err := json.Unmarshal(respBody, &result); err != nil {
			return nil, fmt.Errorf("failed to decode rollback response: %w", err)
		}
		return &result, nil

	case http.StatusNotFound:
		return nil, fmt.Errorf("audit entry %s: %w", req.AuditID, models.ErrNotFound)

	case http.StatusForbidden, http.StatusUnauthorized:
		return nil, &models.PermissionError{Action: "rollback"}

	case http.StatusConflict:
		return nil, fmt.Errorf("%s: %w", decodeErrorMessage(respBody, resp.StatusCode), models.ErrNotRollbackable)

	case http.StatusGone:
		var expired api.WindowExpiredBody
		if err := json.Unmarshal(respBody, &expired); err != nil {
			return nil, fmt.Errorf("failed to decode window expired body: %w", err)
		}
		return nil, &models.WindowExpiredError{
			Elapsed: minutesToDuration(expired.ElapsedMinutes),
			Limit:   minutesToDuration(expired.LimitMinutes),
		}

	default:
		return nil, &models.TransientError{
			Err: fmt.Errorf("rollback failed (%d): %s", resp.StatusCode, decodeErrorMessage(respBody, resp.StatusCode)),
		}
	}
}

// QueryAudit отправляет GET /api/v1/audit с фильтрами в query string.
func (c *Client) QueryAudit(ctx context.Context, accessToken string, params url.Values) (*api.AuditQueryResponse, error) {
	endpoint := c.baseURL + "/api/v1/audit"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if accessToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &models.TransientError{Offline: !isTimeout(err), Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.TransientError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var result api.AuditQueryResponse
		if err := json.Unmarshal(respBody, &result); err != nil {
			return nil, fmt.Errorf("failed to decode audit response: %w", err)
		}
		return &result, nil

	case resp.StatusCode == http.StatusForbidden, resp.StatusCode == http.StatusUnauthorized:
		return nil, &models.PermissionError{Action: "audit.query"}

	default:
		return nil, fmt.Errorf("audit query failed (%d): %s",
			resp.StatusCode, decodeErrorMessage(respBody, resp.StatusCode))
	}
}

func minutesToDuration(minutes float64) time.Duration {
	return time.Duration(minutes * float64(time.Minute))
}

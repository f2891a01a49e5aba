// Package api implements the persistence client: the HTTP boundary through
// which the autosave engine commits changes. Responses are classified into
// success, version conflict and transient failure; connectivity loss is
// flagged separately so the caller can route the payload to the offline
// queue instead of retrying in place.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/jtomassoni/mmb-sub000/internal/models"
	"github.com/jtomassoni/mmb-sub000/pkg/api"
)

//go:generate moq -out client_mock.go . ClientAPI

// ClientAPI определяет интерфейс persistence-клиента
type ClientAPI interface {
	// Commit отправляет изменения ресурса на сервер.
	// Возвращает ровно один из Success/Conflict, либо typed error:
	// *models.TransientError для сетевых сбоев и 5xx,
	// *models.ValidationError / *models.PermissionError для 4xx.
	Commit(ctx context.Context, accessToken string, req api.CommitRequest) (*CommitResult, error)

	// Ping проверяет доступность сервера. Используется как connectivity gate
	// перед replay offline queue.
	Ping(ctx context.Context) error
}

// CommitResult is the classified outcome of a commit call. Exactly one of
// Success and Conflict is non-nil.
type CommitResult struct {
	Success  *api.CommitResponse
	Conflict *api.ConflictBody
}

// Client представляет HTTP клиент для взаимодействия с content API сервером
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient создает новый persistence client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Commit отправляет POST /api/v1/commit и классифицирует ответ
func (c *Client) Commit(ctx context.Context, accessToken string, req api.CommitRequest) (*CommitResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal commit request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/commit", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Транспортная ошибка: таймаут считаем transient, всё остальное -
		// потеря связи (offline).
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
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var success api.CommitResponse
		if err := json.Unmarshal(respBody, &success); err != nil {
			return nil, fmt.Errorf("failed to decode commit response: %w", err)
		}
		return &CommitResult{Success: &success}, nil

	case resp.StatusCode == http.StatusConflict:
		var conflict api.ConflictBody
		if err := json.Unmarshal(respBody, &conflict); err != nil {
			return nil, fmt.Errorf("failed to decode conflict body: %w", err)
		}
		return &CommitResult{Conflict: &conflict}, nil

	case resp.StatusCode == http.StatusForbidden, resp.StatusCode == http.StatusUnauthorized:
		return nil, &models.PermissionError{
			Actor:  models.Actor{},
			Action: "commit",
			Ref:    models.ResourceRef{SiteID: req.SiteID, Kind: models.ResourceKind(req.Kind), ResourceID: req.ResourceID},
		}

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, &models.ValidationError{Field: "request", Reason: decodeErrorMessage(respBody, resp.StatusCode)}

	default:
		// 5xx и всё неожиданное - transient
		return nil, &models.TransientError{
			Err: fmt.Errorf("server error (%d): %s", resp.StatusCode, decodeErrorMessage(respBody, resp.StatusCode)),
		}
	}
}

// Ping выполняет GET /api/v1/health
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &models.TransientError{Offline: true, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return &models.TransientError{Err: fmt.Errorf("health check failed with status %d", resp.StatusCode)}
	}
	return nil
}

// decodeErrorMessage извлекает сообщение из тела ошибки
func decodeErrorMessage(body []byte, status int) string {
	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return errResp.Error
	}
	return fmt.Sprintf("status %d: %s", status, string(body))
}

// isTimeout reports whether err is a network timeout rather than a
// connectivity failure.
func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return errors.Is(err, context.DeadlineExceeded)
}

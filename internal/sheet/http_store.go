package sheet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"sheets-catalog-connector/internal/models"
)

// HTTPStore talks to the spreadsheet proxy over REST.
type HTTPStore struct {
	httpClient *http.Client
	baseURL    string
	retryDelay time.Duration
	logger     *logrus.Logger
}

// NewHTTPStore creates a spreadsheet store against the given base URL.
// retryDelay is how long a throttled write waits before its single retry.
func NewHTTPStore(baseURL string, retryDelay time.Duration, logger *logrus.Logger) *HTTPStore {
	return &HTTPStore{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    baseURL,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

func (s *HTTPStore) ListFiles(ctx context.Context, tenant models.Tenant, folderID string) ([]File, error) {
	path := "/files"
	if folderID != "" {
		path += "?folderId=" + url.QueryEscape(folderID)
	}
	var files []File
	if err := s.doJSON(ctx, tenant, http.MethodGet, path, nil, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (s *HTTPStore) ReadRange(ctx context.Context, tenant models.Tenant, fileID, a1Range string) ([][]string, error) {
	path := fmt.Sprintf("/files/%s/values/%s", url.PathEscape(fileID), url.PathEscape(a1Range))
	var out struct {
		Values [][]string `json:"values"`
	}
	if err := s.doJSON(ctx, tenant, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Values, nil
}

func (s *HTTPStore) WriteRange(ctx context.Context, tenant models.Tenant, fileID, a1Range string, values [][]interface{}) error {
	path := fmt.Sprintf("/files/%s/values/%s", url.PathEscape(fileID), url.PathEscape(a1Range))
	body := map[string]interface{}{"values": values}

	status, err := s.do(ctx, tenant, http.MethodPut, path, body, nil)
	if err != nil {
		return err
	}
	if status != http.StatusTooManyRequests {
		return nil
	}

	// Throttled writes get exactly one retry after backing off.
	s.logger.WithFields(logrus.Fields{
		"tenant_id": tenant.ID,
		"file_id":   fileID,
		"range":     a1Range,
	}).Warn("Sheet write throttled, retrying after delay")

	select {
	case <-time.After(s.retryDelay):
	case <-ctx.Done():
		return ctx.Err()
	}
	status, err = s.do(ctx, tenant, http.MethodPut, path, body, nil)
	if err != nil {
		return err
	}
	if status == http.StatusTooManyRequests {
		// Unresolved throttling leaves the range unwritten; the import pass
		// keeps going either way.
		s.logger.WithFields(logrus.Fields{
			"tenant_id": tenant.ID,
			"file_id":   fileID,
			"range":     a1Range,
		}).Error("Sheet write still throttled after retry, leaving range unwritten")
	}
	return nil
}

func (s *HTTPStore) ClearRange(ctx context.Context, tenant models.Tenant, fileID, a1Range string) error {
	path := fmt.Sprintf("/files/%s/values/%s/clear", url.PathEscape(fileID), url.PathEscape(a1Range))
	return s.doJSON(ctx, tenant, http.MethodPost, path, nil, nil)
}

func (s *HTTPStore) AutoResizeColumns(ctx context.Context, tenant models.Tenant, fileID string, start, end int) error {
	path := fmt.Sprintf("/files/%s/resize", url.PathEscape(fileID))
	body := map[string]interface{}{"startColumn": start, "endColumn": end}
	return s.doJSON(ctx, tenant, http.MethodPost, path, body, nil)
}

func (s *HTTPStore) SetValidation(ctx context.Context, tenant models.Tenant, fileID string, rules []ValidationRule) error {
	path := fmt.Sprintf("/files/%s/validation", url.PathEscape(fileID))
	body := map[string]interface{}{"rules": rules}
	return s.doJSON(ctx, tenant, http.MethodPut, path, body, nil)
}

// doJSON performs a request and treats any non-2xx status as an error.
func (s *HTTPStore) doJSON(ctx context.Context, tenant models.Tenant, method, path string, body, result interface{}) error {
	status, err := s.do(ctx, tenant, method, path, body, result)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("sheet store returned status %d for %s %s", status, method, path)
	}
	return nil
}

// do performs a request and returns the status code. Statuses in the 4xx
// range that callers handle themselves (throttling) are not errors here, but
// 5xx and other unexpected statuses are.
func (s *HTTPStore) do(ctx context.Context, tenant models.Tenant, method, path string, body, result interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Tenant-Id", tenant.ID)
	if tenant.Credential != "" {
		req.Header.Set("X-Catalog-Credential", tenant.Credential)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("sheet store request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return resp.StatusCode, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, fmt.Errorf("sheet store returned status %d: %s", resp.StatusCode, string(data))
	}
	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

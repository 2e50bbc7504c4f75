package data

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"capital-risk/internal/api/models"
	"capital-risk/internal/logger"
	"capital-risk/internal/model"
)

// APIError is a non-2xx response from the capital-runs API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client talks to the capital-runs REST API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	cache   *ResponseCache
	log     *logger.Logger
}

// NewClient creates a live client. baseURL includes the /api prefix; a zero
// timeout defaults to 30 seconds and a nil cache disables memoisation.
func NewClient(baseURL string, timeout time.Duration, cache *ResponseCache, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		cache:   cache,
		log:     log.With("component", "APIClient"),
	}
}

func (c *Client) BusinessUnits(ctx context.Context) ([]string, error) {
	return c.cachedList(ctx, "/business-units", nil, func(body io.Reader) ([]string, error) {
		var out models.BusinessUnitsResponse
		err := json.NewDecoder(body).Decode(&out)
		return out.BusinessUnits, err
	})
}

func (c *Client) Products(ctx context.Context, businessUnit string) ([]string, error) {
	return c.cachedList(ctx, "/products", businessUnitQuery(businessUnit), func(body io.Reader) ([]string, error) {
		var out models.ProductsResponse
		err := json.NewDecoder(body).Decode(&out)
		return out.Products, err
	})
}

func (c *Client) BaselEventTypes(ctx context.Context, businessUnit string) ([]string, error) {
	return c.cachedList(ctx, "/basel-event-types", businessUnitQuery(businessUnit), func(body io.Reader) ([]string, error) {
		var out models.BaselEventTypesResponse
		err := json.NewDecoder(body).Decode(&out)
		return out.BaselEventTypes, err
	})
}

func (c *Client) CreateBusinessUnit(ctx context.Context, bu model.BusinessUnit) (model.CreateResult, error) {
	res, err := c.mutate(ctx, http.MethodPost, "/business-units", bu)
	if err == nil {
		c.cache.Clear()
	}
	return res, err
}

func (c *Client) CreateActualRun(ctx context.Context, run model.ActualRun) (model.CreateResult, error) {
	return c.mutate(ctx, http.MethodPost, "/actual-runs", run)
}

func (c *Client) ActualRuns(ctx context.Context) ([]model.ActualRun, error) {
	var out models.ActualRunsResponse
	if err := c.getJSON(ctx, "/actual-runs", nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out.Runs), nil
}

func (c *Client) CreateExperimentRun(ctx context.Context, run model.ExperimentRun) (model.CreateResult, error) {
	return c.mutate(ctx, http.MethodPost, "/experiment-runs", run)
}

func (c *Client) ExperimentRuns(ctx context.Context) ([]model.ExperimentRun, error) {
	var out models.ExperimentRunsResponse
	if err := c.getJSON(ctx, "/experiment-runs", nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out.Runs), nil
}

func (c *Client) DeleteExperimentRun(ctx context.Context, id string) (model.CreateResult, error) {
	return c.mutate(ctx, http.MethodDelete, "/experiment-runs/"+url.PathEscape(id), nil)
}

func (c *Client) CreateScenarioRun(ctx context.Context, run model.ScenarioRun) (model.CreateResult, error) {
	return c.mutate(ctx, http.MethodPost, "/scenario-runs", run)
}

func (c *Client) ScenarioRuns(ctx context.Context) ([]model.ScenarioRun, error) {
	var out models.ScenarioRunsResponse
	if err := c.getJSON(ctx, "/scenario-runs", nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out.Runs), nil
}

func (c *Client) UpdateScenarioRun(ctx context.Context, id, status string) (model.CreateResult, error) {
	return c.mutate(ctx, http.MethodPut, "/scenario-runs/"+url.PathEscape(id), model.ScenarioRunUpdate{Status: status})
}

// UploadCSV posts body as the multipart "file" field.
func (c *Client) UploadCSV(ctx context.Context, businessUnit, filename string, body io.Reader) (model.CreateResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return model.CreateResult{}, err
	}
	if _, err := io.Copy(part, body); err != nil {
		return model.CreateResult{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return model.CreateResult{}, err
	}

	var res model.CreateResult
	err = c.do(ctx, http.MethodPost, "/upload-csv", businessUnitQuery(businessUnit), &buf, mw.FormDataContentType(), &res)
	return res, err
}

func (c *Client) ResetData(ctx context.Context) (model.CreateResult, error) {
	res, err := c.mutate(ctx, http.MethodPost, "/reset-data", nil)
	if err == nil {
		c.cache.Clear()
	}
	return res, err
}

func businessUnitQuery(bu string) url.Values {
	if bu == "" {
		return nil
	}
	return url.Values{"business_unit": {bu}}
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

func (c *Client) cachedList(ctx context.Context, path string, q url.Values, decode func(io.Reader) ([]string, error)) ([]string, error) {
	key := path + "?" + q.Encode()
	if cached, ok := c.cache.Get(key); ok {
		c.log.Debug("Cache hit", "path", path, "values", len(cached))
		return cached, nil
	}
	var values []string
	err := c.do(ctx, http.MethodGet, path, q, nil, "", decoderFunc(func(body io.Reader) error {
		var err error
		values, err = decode(body)
		return err
	}))
	if err != nil {
		return nil, err
	}
	values = nonNil(values)
	c.cache.Set(key, values)
	return values, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, q, nil, "", out)
}

func (c *Client) mutate(ctx context.Context, method, path string, payload any) (model.CreateResult, error) {
	var body io.Reader
	contentType := ""
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return model.CreateResult{}, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}
	var res model.CreateResult
	err := c.do(ctx, method, path, nil, body, contentType, &res)
	return res, err
}

// decoderFunc lets do hand the raw body to a custom decoder.
type decoderFunc func(io.Reader) error

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body io.Reader, contentType string, out any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	c.log.Debug("Request", "method", method, "path", u.Path, "query", u.RawQuery)
	start := time.Now()
	resp, err := c.HTTP.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.log.Warn("Request failed", "method", method, "path", u.Path, "duration", duration, "error", err)
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug("Response", "method", method, "path", u.Path, "status", resp.StatusCode, "duration", duration)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeAPIError(resp)
		c.log.Warn("API error", "method", method, "path", u.Path, "status", resp.StatusCode, "code", apiErr.Code, "message", apiErr.Message)
		return apiErr
	}

	switch dst := out.(type) {
	case nil:
		return nil
	case decoderFunc:
		if err := dst(resp.Body); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	default:
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Code:       "API_ERROR",
		Message:    fmt.Sprintf("API returned status %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(raw) == 0 {
		return apiErr
	}
	var envelope models.ErrorResponse
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error.Message != "" {
		apiErr.Message = envelope.Error.Message
		if envelope.Error.Code != "" {
			apiErr.Code = envelope.Error.Code
		}
	}
	return apiErr
}

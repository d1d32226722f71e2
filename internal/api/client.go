package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Error is a decoded non-2xx daemon reply.
type Error struct {
	StatusCode int
	Kind       string
	Message    string
}

func (e *Error) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return e.Message
}

// Client talks to the daemon HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the given bind address. A bare host:port is
// accepted and assumed to be plain HTTP.
func NewClient(addr string) *Client {
	base := strings.TrimSpace(addr)
	if base != "" && !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Submit uploads a presentation and returns the queued job.
func (c *Client) Submit(ctx context.Context, fileName string, payload io.Reader) (*JobPayload, error) {
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		part, err := form.CreateFormFile("file", fileName)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, payload); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(form.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/jobs", pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	var resp JobResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp.Job, nil
}

// List returns every tracked job, newest first.
func (c *Client) List(ctx context.Context) ([]JobPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/jobs", nil)
	if err != nil {
		return nil, err
	}
	var resp JobListResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

// Describe returns one job by id.
func (c *Client) Describe(ctx context.Context, id string) (*JobPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.jobURL(id), nil)
	if err != nil {
		return nil, err
	}
	var resp JobResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp.Job, nil
}

// Download streams a completed job's output into dst and returns the file
// name the daemon suggested.
func (c *Client) Download(ctx context.Context, id string, dst io.Writer) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.jobURL(id)+"/download", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp)
	}
	name := ""
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		name = params["filename"]
	}
	if _, err := io.Copy(dst, resp.Body); err != nil {
		return "", fmt.Errorf("download job %s: %w", id, err)
	}
	return name, nil
}

// Remove deletes a job and its artifacts.
func (c *Client) Remove(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.jobURL(id), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// DaemonStatus returns daemon runtime information.
func (c *Client) DaemonStatus(ctx context.Context) (*DaemonStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/status", nil)
	if err != nil {
		return nil, err
	}
	var resp DaemonStatus
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) jobURL(id string) string {
	return c.baseURL + "/api/jobs/" + url.PathEscape(id)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode, Message: resp.Status}
	var body ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Kind = body.Kind
	}
	return apiErr
}

// Package client is a typed HTTP client for the content API.
package client

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
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"techlam/internal/content"
	apperrors "techlam/internal/errors"
	"techlam/internal/model"
)

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Session is an authenticated session as returned by sign-in and refresh.
type Session struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	ExpiresAt    time.Time   `json:"expires_at"`
	User         *model.User `json:"user"`
}

// SignUpResult is the outcome of a sign-up. Session is nil while verification is pending.
type SignUpResult struct {
	PendingVerification bool        `json:"pending_verification"`
	User                *model.User `json:"user"`
	Session             *Session    `json:"session,omitempty"`
}

// UploadedImage describes a stored image.
type UploadedImage struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// ProjectQuery narrows ListProjects. The zero value lists everything.
type ProjectQuery struct {
	Category     string
	FeaturedOnly bool
}

// Client talks to one API base URL.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for baseURL, e.g. "http://localhost:8080/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTokens returns a copy of c that authenticates with ts.
func (c *Client) WithTokens(ts TokenSource) *Client {
	cp := *c
	cp.tokens = ts
	return &cp
}

// SignUp registers an account.
func (c *Client) SignUp(ctx context.Context, email, password string) (*SignUpResult, error) {
	var out SignUpResult
	err := c.do(ctx, http.MethodPost, "/auth/signup", "", credentials{email, password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SignIn opens a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var out Session
	if err := c.do(ctx, http.MethodPost, "/auth/signin", "", credentials{email, password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh exchanges a refresh token for a rotated session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	var out Session
	body := map[string]string{"refresh_token": refreshToken}
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignOut ends the session behind refreshToken.
func (c *Client) SignOut(ctx context.Context, refreshToken string) error {
	body := map[string]string{"refresh_token": refreshToken}
	return c.do(ctx, http.MethodPost, "/auth/signout", "", body, nil)
}

// Role returns the role of the session holding accessToken.
func (c *Client) Role(ctx context.Context, accessToken string) (model.Role, error) {
	var out struct {
		Role string `json:"role"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/role", accessToken, nil, &out); err != nil {
		return model.RoleNone, err
	}
	return model.ParseRole(out.Role), nil
}

// Me returns the user of the session holding accessToken.
func (c *Client) Me(ctx context.Context, accessToken string) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProjects returns projects in display order.
func (c *Client) ListProjects(ctx context.Context, q ProjectQuery) ([]model.Project, error) {
	values := url.Values{}
	if q.Category != "" {
		values.Set("category", q.Category)
	}
	if q.FeaturedOnly {
		values.Set("featured", "true")
	}
	path := "/projects"
	if len(values) > 0 {
		path += "?" + values.Encode()
	}

	var out []model.Project
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Categories returns the distinct project categories.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.do(ctx, http.MethodGet, "/projects/categories", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProject returns one project.
func (c *Client) GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var out model.Project
	if err := c.do(ctx, http.MethodGet, "/projects/"+id.String(), "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProject stores a new project.
func (c *Client) CreateProject(ctx context.Context, fields content.ProjectFields) (*model.Project, error) {
	var out model.Project
	if err := c.authed(ctx, http.MethodPost, "/projects", fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProject replaces every field of a project.
func (c *Client) UpdateProject(ctx context.Context, id uuid.UUID, fields content.ProjectFields) (*model.Project, error) {
	var out model.Project
	if err := c.authed(ctx, http.MethodPut, "/projects/"+id.String(), fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProject removes a project permanently.
func (c *Client) DeleteProject(ctx context.Context, id uuid.UUID) error {
	return c.authed(ctx, http.MethodDelete, "/projects/"+id.String(), nil, nil)
}

// GetContactInfo returns the contact info singleton.
func (c *Client) GetContactInfo(ctx context.Context) (*model.ContactInfo, error) {
	var out model.ContactInfo
	if err := c.do(ctx, http.MethodGet, "/contact-info", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpsertContactInfo replaces the contact info singleton.
func (c *Client) UpsertContactInfo(ctx context.Context, fields content.ContactFields) (*model.ContactInfo, error) {
	var out model.ContactInfo
	if err := c.authed(ctx, http.MethodPut, "/contact-info", fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadImage sends r as a multipart upload named originalName.
func (c *Client) UploadImage(ctx context.Context, originalName string, r io.Reader) (*UploadedImage, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", originalName)
	if err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}

	token, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images", &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	setBearer(req, token)

	var out UploadedImage
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitEnquiry sends a contact form message.
func (c *Client) SubmitEnquiry(ctx context.Context, fields content.EnquiryFields) (*model.Enquiry, error) {
	var out model.Enquiry
	if err := c.do(ctx, http.MethodPost, "/enquiries", "", fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListEnquiries returns up to limit recent enquiries. Zero means the server default.
func (c *Client) ListEnquiries(ctx context.Context, limit int) ([]model.Enquiry, error) {
	path := "/enquiries"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []model.Enquiry
	if err := c.authed(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListUsers calls the admin user listing.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var out []model.User
	if err := c.authed(ctx, http.MethodGet, "/admin/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) bearer(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", apperrors.ErrUnauthenticated
	}
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", apperrors.ErrUnauthenticated
	}
	return token, nil
}

func (c *Client) authed(ctx context.Context, method, path string, in, out interface{}) error {
	token, err := c.bearer(ctx)
	if err != nil {
		return err
	}
	return c.do(ctx, method, path, token, in, out)
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	setBearer(req, token)
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func setBearer(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// APIError is a non-2xx response. errors.Is matches it against the sentinels in internal/errors.
type APIError struct {
	Status  int
	Code    string
	Message string
	Field   string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code == "" {
		return fmt.Sprintf("api error %d: %s", e.Status, msg)
	}
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, msg)
}

// Unwrap returns the sentinel for the error code, falling back to one derived from the status.
func (e *APIError) Unwrap() error {
	if err := apperrors.FromCode(e.Code); err != nil {
		return err
	}
	switch e.Status {
	case http.StatusUnauthorized:
		return apperrors.ErrUnauthenticated
	case http.StatusForbidden:
		return apperrors.ErrForbidden
	case http.StatusBadRequest:
		return apperrors.ErrValidation
	case http.StatusNotImplemented:
		return apperrors.ErrNotImplemented
	default:
		return nil
	}
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apiErr
	}
	var body apperrors.ErrorResponse
	if json.Unmarshal(data, &body) == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Error
		apiErr.Field = body.Field
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}

// AsAPIError reports whether err carries an APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

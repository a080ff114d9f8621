// Package bankapi is the HTTP client for the remote banking API.
//
// Every call carries "Authorization: Bearer <token>". No retries are
// attempted; a failed call is reported once to the caller.
package bankapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bankdash/internal/core"
	"bankdash/internal/log"
)

// DefaultBaseURL is the production banking API.
const DefaultBaseURL = "https://techbuzzers.somee.com"

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 4 << 20

type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the pooled default client, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for baseURL. A zero timeout leaves requests bounded
// only by their context.
func New(baseURL string, timeout time.Duration, logger *log.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = log.Default()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    newHTTPClientWithPooling(timeout),
		logger:  logger.WithComponent(log.ComponentBankAPI),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newHTTPClientWithPooling(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

// TransferRequest is the body of POST /Transfer. Amount, phone and PIN are
// sent as JSON numbers.
type TransferRequest struct {
	Amount              json.Number `json:"amount"`
	SenderAccountID     string      `json:"senderAccountId"`
	ReceiverPhoneNumber int64       `json:"receiverPhoneNumber"`
	Pin                 int64       `json:"pin"`
}

type setPrimaryRequest struct {
	AccountID string `json:"accountId"`
}

// AddAccountRequest is the body of POST /AddAccount.
type AddAccountRequest struct {
	AccountName string `json:"accountName"`
	Type        string `json:"type"`
}

// UserDetails fetches the signed-in user's profile and accounts.
func (c *Client) UserDetails(ctx context.Context, token string) (core.Profile, error) {
	var p core.Profile
	if err := c.do(ctx, http.MethodGet, "/GetUserDetails", token, nil, &p); err != nil {
		return core.Profile{}, err
	}
	return p, nil
}

// Transactions fetches every transaction of the signed-in user.
func (c *Client) Transactions(ctx context.Context, token string) ([]core.Transaction, error) {
	var txs []core.Transaction
	if err := c.do(ctx, http.MethodGet, "/GetAllTransactions", token, nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// Transfer submits a funds transfer.
func (c *Client) Transfer(ctx context.Context, token string, req TransferRequest) error {
	return c.do(ctx, http.MethodPost, "/Transfer", token, req, nil)
}

// SearchUser looks up a registered user by ten-digit phone number.
func (c *Client) SearchUser(ctx context.Context, token, phone string) (core.UserDetails, error) {
	var u core.UserDetails
	path := "/SearchUser?" + url.Values{"phone": {phone}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, token, nil, &u); err != nil {
		return core.UserDetails{}, err
	}
	return u, nil
}

// SetPrimaryAccount makes accountID the user's primary account.
func (c *Client) SetPrimaryAccount(ctx context.Context, token, accountID string) error {
	return c.do(ctx, http.MethodPost, "/SetPrimaryAccount", token, setPrimaryRequest{AccountID: accountID}, nil)
}

// AddAccount opens a new account.
func (c *Client) AddAccount(ctx context.Context, token string, req AddAccountRequest) error {
	return c.do(ctx, http.MethodPost, "/AddAccount", token, req, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	if token == "" {
		return ErrNoToken
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "Bank API request failed",
			log.FieldMethod, method, log.FieldEndpoint, path, log.FieldError, err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	c.logger.DebugContext(ctx, "Bank API request completed",
		log.FieldMethod, method,
		log.FieldEndpoint, path,
		log.FieldStatus, resp.StatusCode,
		log.FieldDuration, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

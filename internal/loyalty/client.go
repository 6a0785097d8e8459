package loyalty

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"activeclub/gateway/internal/config"
	"activeclub/gateway/internal/session"
)

// itemNotFoundCode is the CRM's nested "item not found" indicator. It shows
// up under an outer 200, and also under a status 500 where the backend
// conflates not-found with true server errors. Fragile, but it is the
// upstream contract.
const itemNotFoundCode = "1012"

// Invalidator receives the session-invalidated signal on an
// authentication-rejected backend response.
type Invalidator interface {
	Invalidate(ctx context.Context, reason string)
}

// Client wraps the loyalty CRM. Every network method re-reads the session
// token, short-circuits to auth_error when there is none, and classifies
// backend responses into a typed result instead of surfacing HTTP status.
type Client struct {
	baseURL     string
	http        *http.Client
	sessions    *session.Store
	invalidator Invalidator
	log         zerolog.Logger
}

func NewClient(cfg config.LoyaltyConfig, sessions *session.Store, invalidator Invalidator, log zerolog.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		http:        &http.Client{Timeout: cfg.Timeout},
		sessions:    sessions,
		invalidator: invalidator,
		log:         log,
	}
}

// LocalMobile converts a canonical +974 number to the local form the CRM
// expects: formatting stripped, country code removed.
func LocalMobile(mobile string) string {
	var b strings.Builder
	for _, r := range mobile {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return strings.TrimPrefix(b.String(), "974")
}

// GetCustomerByMobile looks up a customer and normalizes the outcome.
func (c *Client) GetCustomerByMobile(ctx context.Context, mobile string) CustomerResult {
	token, errResult := c.token(ctx)
	if errResult != nil {
		return CustomerResult{Err: errResult}
	}

	query := url.Values{"mobile": {LocalMobile(mobile)}}
	resp, err := c.do(ctx, http.MethodGet, "/customer/get?"+query.Encode(), nil, token)
	if err != nil {
		return CustomerResult{Err: &ResultError{Type: ErrorAPI, Message: err.Error()}}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return CustomerResult{Err: c.rejected(ctx)}
	}

	var envelope customerEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return CustomerResult{Err: &ResultError{Type: ErrorAPI, Message: fmt.Sprintf("decode response: %v", err)}}
	}

	status := envelope.Response.Status
	customers := envelope.Response.Customers.Customer

	switch status.Code.String() {
	case "200":
		if len(customers) == 0 {
			return CustomerResult{Err: &ResultError{Type: ErrorNotFound, Message: "customer not found"}}
		}
		customer := customers[0]
		if customer.ItemStatus != nil && customer.ItemStatus.Code == itemNotFoundCode {
			return CustomerResult{Err: &ResultError{
				Type:    ErrorNotFound,
				Message: customer.ItemStatus.Message,
				Code:    customer.ItemStatus.Code,
			}}
		}
		return CustomerResult{Customer: &customer}
	case "500":
		// The CRM reports some not-found lookups as status 500. Only the
		// nested item code tells them apart from real server errors.
		if len(customers) > 0 && customers[0].ItemStatus != nil && customers[0].ItemStatus.Code == itemNotFoundCode {
			return CustomerResult{Err: &ResultError{
				Type:    ErrorNotFound,
				Message: customers[0].ItemStatus.Message,
				Code:    customers[0].ItemStatus.Code,
			}}
		}
		return CustomerResult{Err: &ResultError{Type: ErrorAPI, Message: status.Message, Code: status.Code.String()}}
	default:
		return CustomerResult{Err: &ResultError{Type: ErrorAPI, Message: status.Message, Code: status.Code.String()}}
	}
}

// ProfileUpdate carries the editable profile fields. Nationality and date of
// birth live in the CRM's open-ended custom fields.
type ProfileUpdate struct {
	Firstname   string
	Lastname    string
	Nationality string
	DOB         string
}

func (c *Client) UpdateCustomerProfile(ctx context.Context, mobile string, update ProfileUpdate) UpdateResult {
	token, errResult := c.token(ctx)
	if errResult != nil {
		return UpdateResult{Err: errResult}
	}

	body := map[string]any{
		"root": map[string]any{
			"customer": []map[string]any{{
				"mobile":    LocalMobile(mobile),
				"firstname": update.Firstname,
				"lastname":  update.Lastname,
				"custom_fields": map[string]any{
					"field": []NameValue{
						{Name: "nationality", Value: update.Nationality},
						{Name: "dob", Value: update.DOB},
					},
				},
			}},
		},
	}

	resp, err := c.do(ctx, http.MethodPost, "/customer/update", body, token)
	if err != nil {
		return UpdateResult{Err: &ResultError{Type: ErrorAPI, Message: err.Error()}}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return UpdateResult{Err: c.rejected(ctx)}
	}

	var envelope updateEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return UpdateResult{Err: &ResultError{Type: ErrorAPI, Message: fmt.Sprintf("decode response: %v", err)}}
	}

	status := envelope.Response.Status
	if status.Code.String() != "200" {
		return UpdateResult{
			Message: status.Message,
			Err:     &ResultError{Type: ErrorAPI, Message: status.Message, Code: status.Code.String()},
		}
	}
	return UpdateResult{Success: true, Message: status.Message}
}

// GetCustomerTransactions fetches one page of transaction history.
func (c *Client) GetCustomerTransactions(ctx context.Context, mobile string, limit int, offset int) TransactionsResult {
	token, errResult := c.token(ctx)
	if errResult != nil {
		return TransactionsResult{Err: errResult}
	}

	query := url.Values{
		"mobile": {LocalMobile(mobile)},
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	}
	resp, err := c.do(ctx, http.MethodGet, "/customer/transactions?"+query.Encode(), nil, token)
	if err != nil {
		return TransactionsResult{Err: &ResultError{Type: ErrorAPI, Message: err.Error()}}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return TransactionsResult{Err: c.rejected(ctx)}
	}

	var envelope transactionsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return TransactionsResult{Err: &ResultError{Type: ErrorAPI, Message: fmt.Sprintf("decode response: %v", err)}}
	}

	status := envelope.Response.Status
	if status.Code.String() != "200" {
		return TransactionsResult{Err: &ResultError{Type: ErrorAPI, Message: status.Message, Code: status.Code.String()}}
	}

	total, err := strconv.Atoi(envelope.Response.Customer.Count.String())
	if err != nil {
		total = 0
	}

	return TransactionsResult{
		Transactions: envelope.Response.Customer.Transactions.Transaction,
		HasMore:      offset+limit < total,
		Total:        total,
	}
}

// token reads the current credential, short-circuiting to auth_error without
// a network call when no valid session exists.
func (c *Client) token(ctx context.Context) (string, *ResultError) {
	sess, err := c.sessions.Load(ctx)
	if err != nil {
		return "", &ResultError{Type: ErrorAPI, Message: fmt.Sprintf("read session: %v", err)}
	}
	if sess == nil {
		return "", &ResultError{Type: ErrorAuth, Message: "no active session"}
	}
	return sess.Token, nil
}

// rejected handles a 401: the session is cleared and the invalidated signal
// emitted. Navigation belongs to the listener, not this layer.
func (c *Client) rejected(ctx context.Context) *ResultError {
	c.log.Warn().Msg("loyalty backend rejected credential")
	c.invalidator.Invalidate(ctx, "unauthorized")
	return &ResultError{Type: ErrorAuth, Message: "authentication rejected"}
}

func (c *Client) do(ctx context.Context, method string, path string, body any, token string) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call loyalty backend: %w", err)
	}
	return resp, nil
}

package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const providerUserAgent = "trackboard-notify/1.0"

// ProviderError is the error body returned by the messaging provider.
type ProviderError struct {
	Status   int    `json:"status"`
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d (http %d): %s", e.Code, e.Status, e.Message)
}

// ProviderClient sends SMS and places voice calls through a Twilio-compatible
// REST API: form-encoded POSTs to {base}/Accounts/{sid}/Messages.json and
// /Calls.json, authenticated with HTTP basic auth.
type ProviderClient struct {
	baseURL    *url.URL
	accountSID string
	authToken  string
	from       string
	httpClient *http.Client
}

// NewProviderClient returns a client for the API rooted at baseURL. A nil
// httpClient uses a client with a 10 second timeout.
func NewProviderClient(baseURL, accountSID, authToken, from string, httpClient *http.Client) (*ProviderClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse provider url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("provider url %q must be absolute", baseURL)
	}
	if accountSID == "" || authToken == "" {
		return nil, fmt.Errorf("provider account sid and auth token are required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &ProviderClient{
		baseURL:    u,
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		httpClient: httpClient,
	}, nil
}

type providerResource struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// SendSMS implements SMSSender.
func (c *ProviderClient) SendSMS(ctx context.Context, to, body string) (string, error) {
	v := url.Values{}
	v.Set("To", to)
	v.Set("From", c.from)
	v.Set("Body", body)
	return c.create(ctx, "Messages", v)
}

// PlaceCall implements VoiceCaller. The message is spoken once with inline
// TwiML.
func (c *ProviderClient) PlaceCall(ctx context.Context, to, message string) (string, error) {
	twiml, err := sayTwiML(message)
	if err != nil {
		return "", err
	}
	v := url.Values{}
	v.Set("To", to)
	v.Set("From", c.from)
	v.Set("Twiml", twiml)
	return c.create(ctx, "Calls", v)
}

func sayTwiML(message string) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(`<Response><Say>`)
	if err := xml.EscapeText(&buf, []byte(message)); err != nil {
		return "", fmt.Errorf("encode twiml: %w", err)
	}
	buf.WriteString(`</Say></Response>`)
	return buf.String(), nil
}

func (c *ProviderClient) endpoint(resource string) string {
	u := *c.baseURL
	u.Path = fmt.Sprintf("%s/Accounts/%s/%s.json", c.baseURL.Path, url.PathEscape(c.accountSID), resource)
	return u.String()
}

func (c *ProviderClient) create(ctx context.Context, resource string, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(resource), strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", providerUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post %s: %w", resource, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read %s response: %w", resource, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		perr := &ProviderError{Status: resp.StatusCode}
		if jerr := json.Unmarshal(data, perr); jerr != nil || perr.Message == "" {
			perr.Message = strings.TrimSpace(string(data))
		}
		return "", perr
	}

	var res providerResource
	if err := json.Unmarshal(data, &res); err != nil {
		return "", fmt.Errorf("decode %s response: %w", resource, err)
	}
	return res.SID, nil
}

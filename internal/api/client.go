package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/sdibella/chart-analyzer/internal/config"
)

// HistoryPageSize is how many history items the dashboard asks for.
const HistoryPageSize = 20

type Client struct {
	http    *http.Client
	baseURL string
}

func NewClient(cfg *config.Config) (*Client, error) {
	base, err := url.Parse(cfg.APIURL)
	if err != nil {
		return nil, fmt.Errorf("parsing api URL: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	if cfg.SessionCookie != "" {
		jar.SetCookies(base, []*http.Cookie{{Name: "session", Value: cfg.SessionCookie, Path: "/"}})
	}

	return &Client{
		http: &http.Client{
			Timeout: cfg.HTTPTimeout,
			Jar:     jar,
			// login_required answers with a redirect to the login page; surface
			// it as a non-JSON response instead of following it.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		baseURL: strings.TrimRight(cfg.APIURL, "/"),
	}, nil
}

// --- API Methods ---

func (c *Client) User(ctx context.Context) (User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/user", nil)
	if err != nil {
		return User{}, err
	}
	u, _, err := fetch[User](c, req, "user")
	return u, err
}

func (c *Client) Stats(ctx context.Context) (Stats, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/stats", nil)
	if err != nil {
		return Stats{}, err
	}
	s, _, err := fetch[Stats](c, req, "stats")
	return s, err
}

func (c *Client) History(ctx context.Context, perPage int) ([]Analysis, error) {
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(perPage))

	req, err := c.newRequest(ctx, http.MethodGet, "/api/history?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	items, _, err := fetch[[]Analysis](c, req, "analyses")
	return items, err
}

// Analysis fetches one stored analysis. The raw JSON of the analysis object
// is returned alongside for hand-off to the analyzer page.
func (c *Client) Analysis(ctx context.Context, id int64) (AnalysisDetail, json.RawMessage, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/analysis/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return AnalysisDetail{}, nil, err
	}
	return fetch[AnalysisDetail](c, req, "analysis")
}

// Upload is an image submitted for analysis.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader

	TradingStyle string
	RiskProfile  string
	AssetType    string
}

// FieldChart is the multipart field carrying the chart image.
const FieldChart = "chart"

func (c *Client) Analyze(ctx context.Context, up Upload) (AnalysisDetail, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, FieldChart, escapeQuotes(up.Filename)))
	if up.ContentType != "" {
		h.Set("Content-Type", up.ContentType)
	} else {
		h.Set("Content-Type", "application/octet-stream")
	}
	part, err := mw.CreatePart(h)
	if err != nil {
		return AnalysisDetail{}, err
	}
	if _, err := io.Copy(part, up.Body); err != nil {
		return AnalysisDetail{}, fmt.Errorf("reading upload: %w", err)
	}
	fields := [][2]string{
		{"trading_style", up.TradingStyle},
		{"risk_profile", up.RiskProfile},
		{"asset_type", up.AssetType},
	}
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return AnalysisDetail{}, err
		}
	}
	if err := mw.Close(); err != nil {
		return AnalysisDetail{}, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/analyze", &buf)
	if err != nil {
		return AnalysisDetail{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	d, _, err := fetch[AnalysisDetail](c, req, "analysis")
	return d, err
}

// Logout ends the backend session. Any 2xx status counts as success.
func (c *Client) Logout(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/logout", nil)
	if err != nil {
		return err
	}
	status, _, err := c.roundTrip(req)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return &Error{Kind: KindRejected, Op: opName(req), Status: status, Message: http.StatusText(status)}
	}
	return nil
}

func (c *Client) Login(ctx context.Context, username, password string, remember bool) (User, error) {
	body := map[string]any{
		"username": username,
		"password": password,
		"remember": remember,
	}
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/api/login", body)
	if err != nil {
		return User{}, err
	}
	u, _, err := fetch[User](c, req, "user")
	return u, err
}

var outcomes = map[string]bool{"win": true, "loss": true, "pending": true}

// UpdateOutcome records how a past trade ended.
func (c *Client) UpdateOutcome(ctx context.Context, id int64, outcome, notes string) error {
	if !outcomes[outcome] {
		return fmt.Errorf("invalid outcome %q: must be win, loss, or pending", outcome)
	}
	body := map[string]string{"outcome": outcome, "notes": notes}
	req, err := c.newJSONRequest(ctx, http.MethodPut, "/api/analysis/"+strconv.FormatInt(id, 10)+"/outcome", body)
	if err != nil {
		return err
	}
	_, _, err = fetch[json.RawMessage](c, req, "")
	return err
}

// Health returns the backend's self-reported status.
func (c *Client) Health(ctx context.Context) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return "", err
	}
	status, body, err := c.roundTrip(req)
	if err != nil {
		return "", err
	}
	if !gjson.ValidBytes(body) {
		return "", &Error{Kind: KindTransport, Op: opName(req), Status: status, Err: errNotJSON}
	}
	s := gjson.GetBytes(body, "status").String()
	if status != http.StatusOK || s != "healthy" {
		return s, &Error{Kind: KindRejected, Op: opName(req), Status: status, Message: "backend unhealthy: " + s}
	}
	return s, nil
}

// --- HTTP helpers ---

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, method, path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) roundTrip(req *http.Request) (int, []byte, error) {
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	slog.Debug("api request", "method", req.Method, "url", req.URL.String(), "request_id", reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, &Error{Kind: KindTransport, Op: opName(req), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &Error{Kind: KindTransport, Op: opName(req), Status: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}
	slog.Debug("api response", "request_id", reqID, "status", resp.StatusCode, "bytes", len(body))
	return resp.StatusCode, body, nil
}

// fetch performs req and unwraps the {success, error, <field>} envelope.
// An empty field only checks the success flag.
func fetch[T any](c *Client, req *http.Request, field string) (T, json.RawMessage, error) {
	var zero T

	status, body, err := c.roundTrip(req)
	if err != nil {
		return zero, nil, err
	}
	op := opName(req)

	if !gjson.ValidBytes(body) {
		return zero, nil, &Error{Kind: KindTransport, Op: op, Status: status, Err: errNotJSON}
	}
	if !gjson.GetBytes(body, "success").Bool() {
		msg := gjson.GetBytes(body, "error").String()
		slog.Warn("api request rejected", "op", op, "status", status, "error", msg)
		return zero, nil, &Error{Kind: KindRejected, Op: op, Status: status, Message: msg}
	}
	if field == "" {
		return zero, nil, nil
	}

	res := gjson.GetBytes(body, field)
	if !res.Exists() {
		return zero, nil, &Error{Kind: KindTransport, Op: op, Status: status, Err: fmt.Errorf("response has no %q field", field)}
	}
	raw := json.RawMessage(res.Raw)

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, nil, &Error{Kind: KindTransport, Op: op, Status: status, Err: fmt.Errorf("decoding %s: %w", field, err)}
	}
	return out, raw, nil
}

func opName(req *http.Request) string {
	return req.Method + " " + req.URL.Path
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// client.go contains everything that talks to the portal over http, it does not
// interpret any of the pages beyond status codes and cookies.

package lms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lmswatch-backend/internal/assert"
	"lmswatch-backend/internal/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("lmswatch.scrapers.lms")

const (
	report_client_probe      = "client.probe"
	report_client_login      = "client.login"
	report_client_fetch_page = "client.fetch-page"
	report_client_decode     = "client.decode"
)

type Config struct {
	BaseURL    string `json:"base_url"`
	LoginPath  string `json:"login_path"`
	HomePath   string `json:"home_path"`
	CookieName string `json:"cookie_name"`
	// RequestsPerSecond is shared by every request made through one Client.
	RequestsPerSecond float64 `json:"requests_per_second"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
}

func (c *Config) setDefaults() {
	if c.LoginPath == "" {
		c.LoginPath = "/login"
	}
	if c.HomePath == "" {
		c.HomePath = "/members/home"
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 4
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
}

func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("portal: base_url must be specified")
	}
	_, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("portal: base_url: %w", err)
	}
	if c.CookieName == "" {
		return fmt.Errorf("portal: cookie_name must be specified")
	}
	return nil
}

// Client performs the raw requests against the portal. It never follows
// redirects, a redirect is how the portal signals both a stale session and a
// successful login.
type Client struct {
	config Config
	http   *resty.Client
	tel    telemetry.API
}

func NewClient(config Config, tel telemetry.API) *Client {
	assert.NotNil(tel, "telemetry")
	config.setDefaults()
	assert.NotEmptyStr(config.BaseURL, "portal base url")
	assert.NotEmptyStr(config.CookieName, "portal cookie name")

	tel = telemetry.NewScopedAPI("lms_client", tel)

	httpClient := resty.New()
	httpClient.SetBaseURL(strings.TrimSuffix(config.BaseURL, "/"))
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)

	httpClient.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	httpClient.SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}))
	httpClient.SetTimeout(time.Duration(config.TimeoutSeconds) * time.Second)

	burst := int(config.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	rateLimiter := rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, tel)

	return &Client{
		config: config,
		http:   httpClient,
		tel:    tel,
	}
}

func (c *Client) request(ctx context.Context, token string) *resty.Request {
	req := c.http.R().SetContext(ctx)
	if token != "" {
		req.SetCookie(&http.Cookie{
			Name:  c.config.CookieName,
			Value: token,
		})
	}
	return req
}

func isRedirect(status int) bool {
	return status >= 300 && status < 400
}

// HomePath is the page listing the courses of the logged in user.
func (c *Client) HomePath() string {
	return c.config.HomePath
}

// Probe reports whether token still grants access to the home page, the portal
// redirects to its login page when it does not.
func (c *Client) Probe(ctx context.Context, token string) (bool, error) {
	ctx, span := tracer.Start(ctx, "client:Probe")
	defer span.End()

	res, err := c.request(ctx, token).Get(c.config.HomePath)
	if err != nil {
		c.tel.ReportWarning(report_client_probe, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to request home page")
		return false, fmt.Errorf("probe: %w", err)
	}
	valid := !isRedirect(res.StatusCode())
	span.SetAttributes(
		attribute.Int("status", res.StatusCode()),
		attribute.Bool("valid", valid),
	)
	return valid, nil
}

// Login submits the credentials and returns the new session token. A response
// that is not a redirect or carries no token is a rejected login, which is
// reported as an empty token rather than an error.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:Login", trace.WithAttributes(
		attribute.String("username", username),
	))
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"username": username,
			"password": password,
		}).
		Post(c.config.LoginPath)
	if err != nil {
		c.tel.ReportBroken(report_client_login, fmt.Errorf("login request: %w", err), username)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make login request")
		return "", fmt.Errorf("login: %w", err)
	}
	if !isRedirect(res.StatusCode()) {
		c.tel.ReportDebug("login rejected", username, res.StatusCode())
		span.SetStatus(codes.Error, "login rejected")
		return "", nil
	}
	for _, cookie := range res.Cookies() {
		if cookie.Name == c.config.CookieName && cookie.Value != "" {
			return cookie.Value, nil
		}
	}
	c.tel.ReportWarning(report_client_login, fmt.Errorf("redirected without a session cookie"), username)
	span.SetStatus(codes.Error, "redirected without a session cookie")
	return "", nil
}

// FetchPage returns the decoded page at path, or "" if the portal did not
// respond with 200. Undecodable bytes are replaced instead of failing the page.
func (c *Client) FetchPage(ctx context.Context, token, path string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:FetchPage", trace.WithAttributes(
		attribute.String("path", path),
	))
	defer span.End()

	res, err := c.request(ctx, token).Get(path)
	if err != nil {
		c.tel.ReportBroken(report_client_fetch_page, err, path)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch page")
		return "", fmt.Errorf("fetch %s: %w", path, err)
	}
	span.SetAttributes(attribute.Int("status", res.StatusCode()))
	if res.StatusCode() != http.StatusOK {
		c.tel.ReportDebug("fetch page: non-200 status", path, res.StatusCode())
		span.SetStatus(codes.Error, "non-200 status")
		return "", nil
	}
	return c.decode(res.Body(), res.Header().Get("content-type")), nil
}

// decode converts body to utf-8. A page that declares no charset (neither in
// its content-type nor in a meta tag) is utf-8 with invalid bytes replaced one
// by one, sniffing would fall back to windows-1252 and garble the whole page.
func (c *Client) decode(body []byte, contentType string) string {
	enc, name, certain := charset.DetermineEncoding(body, contentType)
	if !certain && name == "windows-1252" {
		enc, name = unicode.UTF8, "utf-8"
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		c.tel.ReportWarning(report_client_decode, err, name)
		return strings.ToValidUTF8(string(body), "\uFFFD")
	}
	return string(decoded)
}

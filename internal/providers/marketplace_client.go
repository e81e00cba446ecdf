package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"autobazar/listing-editor/internal/auth"
	"autobazar/listing-editor/internal/config"
	"autobazar/listing-editor/internal/constants"
	"autobazar/listing-editor/internal/logging"
	"autobazar/listing-editor/internal/metrics"
	"autobazar/listing-editor/internal/models/dtos"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// tokenSkew refreshes access tokens slightly before they expire.
const tokenSkew = 30 * time.Second

// MarketplaceClient is the shared HTTP client of every marketplace provider.
// It attaches the session token, refreshes it once on 401 and paces
// outbound requests.
type MarketplaceClient struct {
	http    *resty.Client
	session *auth.Session
	limiter *rate.Limiter
	metrics *metrics.MetricsRegistry
}

// NewMarketplaceClient creates the client and installs itself as the
// session's token refresher.
func NewMarketplaceClient(cfg config.MarketplaceConfig, session *auth.Session, m *metrics.MetricsRegistry) *MarketplaceClient {
	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	c := &MarketplaceClient{
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.Timeout).
			SetRetryCount(cfg.RetryCount).
			SetHeader("Accept", "application/json").
			SetHeader("User-Agent", "listing-editor/1.0"),
		session: session,
		limiter: rate.NewLimiter(limit, burst),
		metrics: m,
	}

	c.http.OnBeforeRequest(c.beforeRequest)
	if session != nil {
		session.SetRefresher(c.refreshTokens)
	}
	return c
}

// beforeRequest paces the request and attaches the bearer token. Public
// catalog endpoints work without a session, so a missing session is not an
// error here.
func (c *MarketplaceClient) beforeRequest(_ *resty.Client, r *resty.Request) error {
	ctx := r.Context()
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	if c.session == nil || !c.session.Active() {
		return nil
	}

	token, err := c.session.AccessToken(ctx, tokenSkew)
	if err != nil {
		if errors.Is(err, auth.ErrNoSession) {
			return nil
		}
		logging.Warn("Could not refresh token before request", "url", r.URL, "error", err)
		return nil
	}
	r.SetAuthToken(token)
	return nil
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// refreshTokens bypasses the session hook: it must not recurse into the
// session it is refreshing.
func (c *MarketplaceClient) refreshTokens(ctx context.Context, refreshToken string) (auth.Tokens, error) {
	resp, err := resty.New().
		SetBaseURL(c.http.BaseURL).
		SetTimeout(c.http.GetClient().Timeout).
		R().
		SetContext(ctx).
		SetBody(refreshRequest{RefreshToken: refreshToken}).
		Post("/auth/refresh")
	if err != nil {
		return auth.Tokens{}, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: constants.GetErrorMessage(constants.ErrCodeNetworkError),
			Err:     err,
		}
	}
	var out refreshResponse
	if resp.IsSuccess() {
		if derr := decodeBody(resp.Body(), resp.StatusCode(), &out); derr != nil {
			logging.Warn("Token refresh response not decodable", "error", derr)
		}
	}
	if !resp.IsSuccess() || out.AccessToken == "" {
		return auth.Tokens{}, &ProviderError{
			Code:       constants.ErrCodeTokenRefreshFailed,
			Message:    constants.GetErrorMessage(constants.ErrCodeTokenRefreshFailed),
			StatusCode: resp.StatusCode(),
			Details:    resp.String(),
		}
	}
	return auth.Tokens{AccessToken: out.AccessToken, RefreshToken: out.RefreshToken}, nil
}

// send executes one request built by prepare. prepare runs again for the
// retry after a token refresh, so request bodies must be created inside it.
func (c *MarketplaceClient) send(ctx context.Context, operation, method, path string, prepare func(*resty.Request)) ([]byte, int, error) {
	start := time.Now()
	body, status, err := c.sendOnce(ctx, method, path, prepare)

	if err != nil && status == http.StatusUnauthorized && c.session != nil && c.session.Active() {
		if _, rerr := c.session.Refresh(ctx); rerr != nil {
			logging.Warn("Token refresh failed", "operation", operation, "error", rerr)
			err = &ProviderError{
				Code:       constants.ErrCodeTokenRefreshFailed,
				Message:    constants.GetErrorMessage(constants.ErrCodeTokenRefreshFailed),
				StatusCode: status,
				Err:        rerr,
			}
		} else {
			body, status, err = c.sendOnce(ctx, method, path, prepare)
		}
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
		var pe *ProviderError
		if errors.As(err, &pe) {
			outcome = pe.Code
		}
	}
	c.metrics.ObserveMarketplace(operation, outcome, time.Since(start))
	logging.Debug("Marketplace request", "operation", operation, "method", method, "path", path,
		"status_code", status, "duration_ms", time.Since(start).Milliseconds())

	return body, status, err
}

func (c *MarketplaceClient) sendOnce(ctx context.Context, method, path string, prepare func(*resty.Request)) ([]byte, int, error) {
	req := c.http.R().SetContext(ctx)
	if prepare != nil {
		prepare(req)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, 0, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: constants.GetErrorMessage(constants.ErrCodeNetworkError),
			Err:     err,
		}
	}

	if !resp.IsSuccess() {
		return resp.Body(), resp.StatusCode(), buildHTTPError(resp.StatusCode(), path, resp.Body())
	}
	return resp.Body(), resp.StatusCode(), nil
}

// getJSON performs a GET and decodes the body into out.
func (c *MarketplaceClient) getJSON(ctx context.Context, operation, path string, query map[string]string, out interface{}) error {
	body, status, err := c.send(ctx, operation, http.MethodGet, path, func(r *resty.Request) {
		r.SetQueryParams(query)
	})
	if err != nil {
		return err
	}
	return decodeBody(body, status, out)
}

func decodeBody(body []byte, status int, out interface{}) error {
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &ProviderError{
			Code:       constants.ErrCodeInvalidDataFormat,
			Message:    "Failed to decode response",
			Details:    string(body),
			StatusCode: status,
			Err:        err,
		}
	}
	return nil
}

// buildHTTPError creates appropriate error based on status code
func buildHTTPError(statusCode int, path string, body []byte) error {
	var serverErr dtos.ServerError
	_ = json.Unmarshal(body, &serverErr)

	code := constants.ErrCodeRejected
	switch {
	case statusCode == http.StatusUnauthorized:
		code = constants.ErrCodeAuthenticationFailed
	case statusCode == http.StatusForbidden:
		code = constants.ErrCodeAccessDenied
	case statusCode == http.StatusNotFound:
		code = constants.ErrCodeResourceNotFound
	case statusCode == http.StatusTooManyRequests:
		code = constants.ErrCodeRateLimited
	case statusCode == http.StatusUnsupportedMediaType || statusCode == http.StatusRequestEntityTooLarge:
		code = constants.ErrCodeMediaInvalid
	case statusCode >= 500:
		code = constants.ErrCodeServerError
	}

	return &ProviderError{
		Code:          code,
		Message:       fmt.Sprintf("HTTP %d from %s", statusCode, path),
		Details:       string(body),
		StatusCode:    statusCode,
		ServerMessage: serverErr.Text(),
	}
}

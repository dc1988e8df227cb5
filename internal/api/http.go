package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/paykeeper/internal/common"
	"github.com/dmitrijs2005/paykeeper/internal/logging"
)

const (
	loginPath          = "/auth/sys/gameLogin"
	methodActivePath   = "/auth/commonpay/ida/common/getQrisActive"
	createOrderPath    = "/auth/commonpay/ida/common/getYukkQris"
	orderStatusPath    = "/auth/commonpay/ida/common/queryOrderIsPayment"
	walletInfoPath     = "/auth/playerInfo/getWalletInfo"
	playerBaseInfoPath = "/auth/commonpay/pay/common/getPlayerBaseInfo"
)

// envelope is the common response wrapper used by every endpoint.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// lockedJar wraps a cookie jar so it can be swapped out while requests are
// in flight on the same http.Client. The inner cookiejar.Jar handles its own
// concurrency; the lock here only guards the swap.
type lockedJar struct {
	mu  sync.RWMutex
	jar http.CookieJar
}

func (l *lockedJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.jar.SetCookies(u, cookies)
}

func (l *lockedJar) Cookies(u *url.URL) []*http.Cookie {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.jar.Cookies(u)
}

func (l *lockedJar) swap(jar http.CookieJar) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.jar = jar
}

// HTTPClient implements Client over net/http. Each instance owns a cookie
// jar and a bearer token, so it must not be shared between user sessions.
type HTTPClient struct {
	baseURL string
	hc      *http.Client
	jar     *lockedJar
	log     logging.Logger

	mu    sync.Mutex
	token string
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client for the service at baseURL. The timeout
// bounds every individual request.
func NewHTTPClient(baseURL string, timeout time.Duration, log logging.Logger) (*HTTPClient, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	lj := &lockedJar{jar: jar}
	return &HTTPClient{
		baseURL: baseURL,
		hc: &http.Client{
			Jar:     lj,
			Timeout: timeout,
		},
		jar: lj,
		log: log,
	}, nil
}

func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *HTTPClient) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// ClearCookies replaces the cookie jar with an empty one. Safe to call while
// other goroutines are issuing requests on the same client: the http.Client's
// Jar field is never reassigned, only the jar behind the wrapper is.
func (c *HTTPClient) ClearCookies() error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("cookie jar: %w", err)
	}
	c.jar.swap(jar)
	return nil
}

// do performs one request and decodes the envelope. When out is non-nil the
// envelope result is unmarshalled into it.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if token := c.currentToken(); token != "" {
		req.Header.Set(common.AccessTokenHeaderName, token)
	}

	c.log.Debug(ctx, "api request", "method", method, "path", path)

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", common.ErrUnavailable, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%s %s: %w", method, path, common.ErrUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s %s: status %d", common.ErrUnavailable, method, path, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		return &Error{Message: env.Message}
	}

	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}
	return nil
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	payload := map[string]any{
		"accessCode":  "",
		"accessType":  2,
		"username":    username,
		"password":    password,
		"randomCode":  "",
		"redirectUrl": "",
	}

	var result struct {
		Token string `json:"token"`
		Profile
	}
	if err := c.do(ctx, http.MethodPost, loginPath, payload, &result); err != nil {
		return nil, err
	}
	if result.Token == "" {
		return nil, &Error{Message: "login response carried no token"}
	}
	return &LoginResult{Token: result.Token, Profile: result.Profile}, nil
}

func (c *HTTPClient) PaymentMethodActive(ctx context.Context) (string, error) {
	var result struct {
		QrisType string `json:"qrisType"`
	}
	if err := c.do(ctx, http.MethodGet, methodActivePath, nil, &result); err != nil {
		return "", err
	}
	if result.QrisType == "" {
		return "", ErrMethodInactive
	}
	return result.QrisType, nil
}

func (c *HTTPClient) CreateOrder(ctx context.Context, amount int64, method string) (*OrderCreation, error) {
	payload := map[string]any{
		"nominal":  strconv.FormatInt(amount, 10),
		"qrisType": method,
	}

	// The creation result is nested one level deeper than usual.
	var result struct {
		Result struct {
			OrderID         string `json:"order_id"`
			QrisString      string `json:"qris_string"`
			TimeoutDatetime string `json:"timeout_datetime"`
		} `json:"result"`
	}
	if err := c.do(ctx, http.MethodPost, createOrderPath, payload, &result); err != nil {
		return nil, err
	}
	if result.Result.OrderID == "" {
		return nil, &Error{Message: "order creation response carried no order id"}
	}
	return &OrderCreation{
		OrderID:       result.Result.OrderID,
		PaymentString: result.Result.QrisString,
		Timeout:       result.Result.TimeoutDatetime,
	}, nil
}

func (c *HTTPClient) OrderStatus(ctx context.Context, orderID string) (*OrderStatus, error) {
	var result struct {
		OrderStatus int     `json:"orderStatus"`
		RealMoney   float64 `json:"realMoney"`
		PaymentTime string  `json:"paymentTime"`
	}
	path := orderStatusPath + "?orderId=" + orderID
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &OrderStatus{
		Code:        result.OrderStatus,
		RealAmount:  result.RealMoney,
		PaymentTime: result.PaymentTime,
	}, nil
}

func (c *HTTPClient) WalletInfo(ctx context.Context) (*WalletInfo, error) {
	var result WalletInfo
	if err := c.do(ctx, http.MethodGet, walletInfoPath, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) PlayerBaseInfo(ctx context.Context) (*PlayerBaseInfo, error) {
	var result PlayerBaseInfo
	if err := c.do(ctx, http.MethodGet, playerBaseInfoPath, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

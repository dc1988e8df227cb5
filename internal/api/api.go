// Package api talks to the remote payment service over HTTP/JSON.
//
// All responses arrive wrapped in a common envelope with a success flag, a
// human-readable message and a result payload. The package classifies
// failures into three kinds: transport problems (common.ErrUnavailable),
// rejected authentication (common.ErrUnauthorized) and application-level
// refusals reported by the service itself (*Error).
package api

import "context"

// Profile is the account profile returned on a successful login.
type Profile struct {
	NickName     string `json:"nickName"`
	MailAddress  string `json:"mailAddress"`
	Mobile       string `json:"mobile"`
	CurrencyCode string `json:"currencyCode"`
}

// LoginResult carries the session token and the profile snapshot.
type LoginResult struct {
	Token   string
	Profile Profile
}

// OrderCreation describes a freshly created deposit order.
type OrderCreation struct {
	OrderID       string
	PaymentString string
	Timeout       string
}

// OrderStatus is the polled state of a deposit order.
// Code 0 means still pending, 1 means paid, anything else means failed.
type OrderStatus struct {
	Code        int
	RealAmount  float64
	PaymentTime string
}

// WalletInfo is the account balance snapshot.
type WalletInfo struct {
	Money  float64 `json:"money"`
	Reward float64 `json:"reward"`
}

// BankInfo is one registered payout bank account.
type BankInfo struct {
	BankName string `json:"bankName"`
	CardNo   string `json:"cardNo"`
}

// PlayerBaseInfo is extended account info, used for display only.
type PlayerBaseInfo struct {
	RealName string     `json:"realName"`
	Banks    []BankInfo `json:"banks"`
}

// Client is the remote payment service seen by the rest of the application.
// One Client instance represents one authenticated channel (its own cookie
// jar and bearer token), so every user session gets a fresh Client.
type Client interface {
	// Login authenticates with a username/password pair and returns the
	// session token together with the profile snapshot.
	Login(ctx context.Context, username, password string) (*LoginResult, error)

	// PaymentMethodActive returns the id of the currently active payment
	// method, or ErrMethodInactive when the service reports none.
	PaymentMethodActive(ctx context.Context) (string, error)

	// CreateOrder creates a deposit order for the given amount and method.
	CreateOrder(ctx context.Context, amount int64, method string) (*OrderCreation, error)

	// OrderStatus queries the current payment state of an order.
	OrderStatus(ctx context.Context, orderID string) (*OrderStatus, error)

	// WalletInfo fetches the account balance. Display only.
	WalletInfo(ctx context.Context) (*WalletInfo, error)

	// PlayerBaseInfo fetches extended account info. Display only.
	PlayerBaseInfo(ctx context.Context) (*PlayerBaseInfo, error)

	// SetToken arms the bearer token sent on subsequent requests.
	SetToken(token string)

	// ClearCookies drops all accumulated cookies. Called before a login so
	// state from a previous session cannot bleed into the new one.
	ClearCookies() error
}

package paypal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Zhima-Mochi/minishop-settlement/internal/domain/payment"
)

// Config carries gateway credentials and redirect targets. It is built once
// at startup and injected here; nothing in this package reads globals.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	ReturnURL    string
	CancelURL    string
	Timeout      time.Duration
}

// Client implements payment.Gateway against the PayPal Payments API.
type Client struct {
	cfg  Config
	http *resty.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout)
	return &Client{cfg: cfg, http: http}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type errorResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Desc    string `json:"error_description"`
}

func (e errorResponse) text() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Desc != "":
		return e.Desc
	case e.Name != "":
		return e.Name
	case e.Error != "":
		return e.Error
	default:
		return "unexpected gateway response"
	}
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	var tok tokenResponse
	var gwErr errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&tok).
		SetError(&gwErr).
		Post("/v1/oauth2/token")
	if err != nil {
		return "", &payment.GatewayError{Op: "oauth", Message: err.Error()}
	}
	if resp.IsError() {
		return "", &payment.GatewayError{Op: "oauth", Message: gwErr.text(), Raw: resp.String()}
	}

	c.accessToken = tok.AccessToken
	// Refresh a minute early so in-flight calls never carry a stale token.
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	return c.accessToken, nil
}

type createPaymentRequest struct {
	Intent       string        `json:"intent"`
	Payer        payer         `json:"payer"`
	RedirectURLs redirectURLs  `json:"redirect_urls"`
	Transactions []transaction `json:"transactions"`
}

type payer struct {
	PaymentMethod string `json:"payment_method"`
}

type redirectURLs struct {
	ReturnURL string `json:"return_url"`
	CancelURL string `json:"cancel_url"`
}

type transaction struct {
	Amount      amount   `json:"amount"`
	Description string   `json:"description"`
	ItemList    itemList `json:"item_list"`
}

type amount struct {
	Currency string  `json:"currency"`
	Total    string  `json:"total"`
	Details  details `json:"details"`
}

type details struct {
	Subtotal string `json:"subtotal"`
}

type itemList struct {
	Items []item `json:"items"`
}

type item struct {
	Name     string `json:"name"`
	SKU      string `json:"sku"`
	Price    string `json:"price"`
	Currency string `json:"currency"`
	Quantity int    `json:"quantity"`
}

type paymentResponse struct {
	ID    string `json:"id"`
	State string `json:"state"`
	Links []link `json:"links"`
}

type link struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

func (c *Client) CreateIntent(ctx context.Context, req payment.CreateIntentRequest) (*payment.Intent, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, item{
			Name:     it.Name,
			SKU:      it.SKU,
			Price:    it.Price,
			Currency: it.Currency,
			Quantity: it.Quantity,
		})
	}
	body := createPaymentRequest{
		Intent: "sale",
		Payer:  payer{PaymentMethod: "paypal"},
		RedirectURLs: redirectURLs{
			ReturnURL: c.cfg.ReturnURL,
			CancelURL: c.cfg.CancelURL,
		},
		Transactions: []transaction{{
			Amount: amount{
				Currency: req.Currency,
				Total:    req.Total,
				Details:  details{Subtotal: req.Total},
			},
			Description: "Purchase from our store",
			ItemList:    itemList{Items: items},
		}},
	}

	var created paymentResponse
	var gwErr errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(body).
		SetResult(&created).
		SetError(&gwErr).
		Post("/v1/payments/payment")
	if err != nil {
		return nil, &payment.GatewayError{Op: "create", Message: err.Error()}
	}
	if resp.IsError() {
		return nil, &payment.GatewayError{Op: "create", Message: gwErr.text(), Raw: resp.String()}
	}

	approval := ""
	for _, l := range created.Links {
		if l.Rel == "approval_url" {
			approval = l.Href
			break
		}
	}
	if created.ID == "" || approval == "" {
		return nil, &payment.GatewayError{Op: "create", Message: "response missing payment id or approval url", Raw: resp.String()}
	}

	return &payment.Intent{ID: created.ID, ApprovalURL: approval}, nil
}

func (c *Client) Execute(ctx context.Context, intentID, payerID string) (*payment.Capture, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	var executed paymentResponse
	var gwErr errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(map[string]string{"payer_id": payerID}).
		SetResult(&executed).
		SetError(&gwErr).
		Post(fmt.Sprintf("/v1/payments/payment/%s/execute", intentID))
	if err != nil {
		return nil, &payment.GatewayError{Op: "execute", Message: err.Error()}
	}
	if resp.IsError() {
		return nil, &payment.GatewayError{Op: "execute", Message: gwErr.text(), Raw: resp.String()}
	}

	// State is returned as-is; the workflow checks for approval explicitly
	// instead of assuming it from a 200.
	return &payment.Capture{PaymentID: executed.ID, State: executed.State}, nil
}

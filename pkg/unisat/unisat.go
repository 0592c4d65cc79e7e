// Package unisat is a client for the UniSat open-api inscribe order endpoints.
package unisat

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common/errs"
	"github.com/gaze-network/estate-ordinals/pkg/httpclient"
	"github.com/shopspring/decimal"
)

const (
	DefaultBaseURL = "https://open-api.unisat.io"
	DefaultTimeout = 30 * time.Second
)

// ErrGatewayUnavailable is returned when the order status could not be obtained at all:
// network failure, non-2xx response or an undecodable body. It is worth retrying.
var ErrGatewayUnavailable = errors.New("unisat gateway unavailable")

type Config struct {
	BaseURL string        `mapstructure:"base_url"` // Default is https://open-api.unisat.io
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"` // Default is 30s
	Debug   bool          `mapstructure:"debug"`
}

// Order statuses handled by the reconciler. UniSat reports more intermediate
// states (payment_*, ready, inscribing, ...), those are treated as unrecognized.
const (
	OrderStatusPending = "pending"
	OrderStatusMinted  = "minted"
	OrderStatusClosed  = "closed"
)

// Response codes of the open-api envelope.
const (
	CodeOK    = 0
	CodeError = -1
)

type File struct {
	Filename      string `json:"filename"`
	InscriptionId string `json:"inscriptionId"`
	Status        string `json:"status"`
}

type Order struct {
	OrderId          string          `json:"orderId"`
	Status           string          `json:"status"`
	PayAddress       string          `json:"payAddress"`
	ReceiveAddress   string          `json:"receiveAddress"`
	Amount           int64           `json:"amount"`
	PaidAmount       int64           `json:"paidAmount"`
	OutputValue      int64           `json:"outputValue"`
	FeeRate          decimal.Decimal `json:"feeRate"`
	MinerFee         int64           `json:"minerFee"`
	ServiceFee       int64           `json:"serviceFee"`
	DevFee           int64           `json:"devFee"`
	Files            []File          `json:"files"`
	Count            int64           `json:"count"`
	PendingCount     int64           `json:"pendingCount"`
	UnconfirmedCount int64           `json:"unconfirmedCount"`
	ConfirmedCount   int64           `json:"confirmedCount"`
	CreateTime       int64           `json:"createTime"`
}

type OrderResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data *Order `json:"data"`
}

// Failed reports an application-level error (code -1). The message is in Msg.
func (r *OrderResponse) Failed() bool {
	return r.Code == CodeError
}

// NotFound reports a successful response without order data, i.e. an unknown order id.
func (r *OrderResponse) NotFound() bool {
	return r.Code == CodeOK && r.Data == nil
}

type Client struct {
	httpClient *httpclient.Client
}

func New(conf Config) (*Client, error) {
	client, err := httpclient.New(utils.Default(conf.BaseURL, DefaultBaseURL), httpclient.Config{
		Debug:   conf.Debug,
		Timeout: utils.Default(conf.Timeout, DefaultTimeout),
	})
	if err != nil {
		return nil, errors.Wrap(errors.WithSecondaryError(errs.InvalidArgument, err), "can't create unisat http client")
	}
	return NewWithHTTPClient(client, conf.APIKey), nil
}

// NewWithHTTPClient wraps an existing http client, the api key is sent as a bearer token.
func NewWithHTTPClient(client *httpclient.Client, apiKey string) *Client {
	client.Headers["Accept"] = "application/json"
	if apiKey != "" {
		client.Headers["Authorization"] = "Bearer " + apiKey
	}
	return &Client{httpClient: client}
}

// GetOrder fetches an inscribe order. Application errors are reported through the
// response ([OrderResponse.Failed], [OrderResponse.NotFound]), transport errors wrap
// [ErrGatewayUnavailable].
func (c *Client) GetOrder(ctx context.Context, orderId string) (*OrderResponse, error) {
	if orderId == "" || strings.ContainsAny(orderId, "/?#") {
		return nil, errors.Wrapf(errs.InvalidArgument, "invalid order id %q", orderId)
	}

	resp, err := c.httpClient.Get(ctx, "/v2/inscribe/order/"+orderId, httpclient.RequestOptions{})
	if err != nil {
		return nil, errors.Wrap(errors.WithSecondaryError(ErrGatewayUnavailable, err), "can't request order status")
	}
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return nil, errors.Wrapf(ErrGatewayUnavailable, "unexpected status code %d, body: %s", resp.StatusCode(), string(resp.Body()))
	}

	var out OrderResponse
	if err := resp.UnmarshalBody(&out); err != nil {
		return nil, errors.Wrap(errors.WithSecondaryError(ErrGatewayUnavailable, err), "can't decode order status")
	}
	return &out, nil
}

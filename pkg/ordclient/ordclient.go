// Package ordclient queries an ord server for the current state of inscriptions.
package ordclient

import (
	"context"
	"net/http"
	"time"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common/errs"
	"github.com/gaze-network/estate-ordinals/pkg/httpclient"
	"github.com/gaze-network/estate-ordinals/pkg/ordinals"
)

const (
	DefaultBaseURL = "http://0.0.0.0:80"
	DefaultTimeout = 10 * time.Second
)

// ErrGatewayUnavailable is returned when the inscription state could not be obtained.
var ErrGatewayUnavailable = errors.New("ord server unavailable")

type Config struct {
	BaseURL string        `mapstructure:"base_url"` // Default is http://0.0.0.0:80
	Timeout time.Duration `mapstructure:"timeout"`  // Default is 10s
	Debug   bool          `mapstructure:"debug"`
}

// Inscription is the subset of the ord `/inscription/{id}` json the service reads.
type Inscription struct {
	Id          string `json:"id"`
	Address     string `json:"address"`
	Number      int64  `json:"number"`
	ContentType string `json:"content_type"`
	Height      int64  `json:"height"`
	Sat         *int64 `json:"sat"`
	Satpoint    string `json:"satpoint"`
	Timestamp   int64  `json:"timestamp"`
	Value       *int64 `json:"value"`
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
		return nil, errors.Wrap(errors.WithSecondaryError(errs.InvalidArgument, err), "can't create ord http client")
	}
	return NewWithHTTPClient(client), nil
}

func NewWithHTTPClient(client *httpclient.Client) *Client {
	client.Headers["Accept"] = "application/json"
	return &Client{httpClient: client}
}

// GetInscription returns the current state of an inscription.
func (c *Client) GetInscription(ctx context.Context, inscriptionId string) (*Inscription, error) {
	if !ordinals.IsValidInscriptionId(inscriptionId) {
		return nil, errors.Wrapf(errs.InvalidArgument, "invalid inscription id %q", inscriptionId)
	}

	resp, err := c.httpClient.Get(ctx, "/inscription/"+inscriptionId, httpclient.RequestOptions{})
	if err != nil {
		return nil, errors.Wrap(errors.WithSecondaryError(ErrGatewayUnavailable, err), "can't request inscription")
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, errors.Wrapf(ErrGatewayUnavailable, "unexpected status code %d for inscription %s", resp.StatusCode(), inscriptionId)
	}

	var out Inscription
	if err := resp.UnmarshalBody(&out); err != nil {
		return nil, errors.Wrap(errors.WithSecondaryError(ErrGatewayUnavailable, err), "can't decode inscription")
	}
	return &out, nil
}

package config

import (
	"time"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/internal/postgres"
	"github.com/gaze-network/estate-ordinals/pkg/objectstore"
	"github.com/gaze-network/estate-ordinals/pkg/ordclient"
	"github.com/gaze-network/estate-ordinals/pkg/unisat"
)

const (
	ClaimsMemory = "memory"
	ClaimsRedis  = "redis"

	RelayNone  = "none"
	RelayRedis = "redis"
)

type Config struct {
	Postgres    postgres.Config    `mapstructure:"postgres"`
	Unisat      unisat.Config      `mapstructure:"unisat"`
	Ord         ordclient.Config   `mapstructure:"ord"`
	Reconciler  ReconcilerConfig   `mapstructure:"reconciler"`
	Broadcast   BroadcastConfig    `mapstructure:"broadcast"`
	ObjectStore objectstore.Config `mapstructure:"object_store"`
}

type ReconcilerConfig struct {
	// MaxAttempts is the number of order status lookups before an unreachable order is marked failed.
	MaxAttempts   int           `mapstructure:"max_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	MaxRetryDelay time.Duration `mapstructure:"max_retry_delay"`

	HolderLookupAttempts int           `mapstructure:"holder_lookup_attempts"`
	HolderRetryDelay     time.Duration `mapstructure:"holder_retry_delay"`

	ResubscribeDelay time.Duration `mapstructure:"resubscribe_delay"`

	// Claims is where in-flight order ids are tracked: `memory` or `redis`.
	Claims string `mapstructure:"claims"`

	// ClaimTTL bounds how long a redis claim outlives a crashed replica. It must be longer
	// than RetryBudget, or an order still retrying can be claimed a second time.
	ClaimTTL time.Duration `mapstructure:"claim_ttl"`
}

// RetryBudget is the longest time one order can spend retrying status lookups, each
// lookup taking up to requestTimeout.
func (r ReconcilerConfig) RetryBudget(requestTimeout time.Duration) time.Duration {
	if r.MaxAttempts <= 0 {
		return 0
	}
	budget := time.Duration(r.MaxAttempts) * requestTimeout
	delay := r.RetryDelay
	for i := 1; i < r.MaxAttempts; i++ {
		budget += delay
		delay = min(delay*2, r.MaxRetryDelay)
	}
	return budget
}

type BroadcastConfig struct {
	// Relay fans sold events out to other instances: `none` or `redis`.
	Relay   string `mapstructure:"relay"`
	Channel string `mapstructure:"channel"`
}

func Default() Config {
	return Config{
		Unisat: unisat.Config{
			BaseURL: unisat.DefaultBaseURL,
		},
		Ord: ordclient.Config{
			BaseURL: ordclient.DefaultBaseURL,
		},
		Reconciler: ReconcilerConfig{
			MaxAttempts:          30,
			RetryDelay:           10 * time.Second,
			MaxRetryDelay:        5 * time.Minute,
			HolderLookupAttempts: 4,
			HolderRetryDelay:     time.Second,
			ResubscribeDelay:     5 * time.Second,
			Claims:               ClaimsMemory,
			ClaimTTL:             6 * time.Hour,
		},
		Broadcast: BroadcastConfig{
			Relay:   RelayNone,
			Channel: "estate:broadcast",
		},
	}
}

func (c Config) Validate() error {
	var errList []error
	r := c.Reconciler
	if r.MaxAttempts <= 0 {
		errList = append(errList, errors.New("reconciler.max_attempts must be positive"))
	}
	if r.HolderLookupAttempts <= 0 {
		errList = append(errList, errors.New("reconciler.holder_lookup_attempts must be positive"))
	}
	if r.RetryDelay < 0 || r.MaxRetryDelay < 0 || r.HolderRetryDelay < 0 || r.ResubscribeDelay < 0 {
		errList = append(errList, errors.New("reconciler delays must not be negative"))
	}
	if r.MaxRetryDelay > 0 && r.MaxRetryDelay < r.RetryDelay {
		errList = append(errList, errors.New("reconciler.max_retry_delay must not be less than retry_delay"))
	}
	switch r.Claims {
	case ClaimsMemory:
	case ClaimsRedis:
		timeout := utils.Default(c.Unisat.Timeout, unisat.DefaultTimeout)
		if budget := r.RetryBudget(timeout); r.ClaimTTL <= budget {
			errList = append(errList, errors.Errorf("reconciler.claim_ttl %s must be longer than the order retry budget %s", r.ClaimTTL, budget))
		}
	default:
		errList = append(errList, errors.Errorf("unsupported reconciler.claims %q", r.Claims))
	}
	switch c.Broadcast.Relay {
	case RelayNone, RelayRedis:
	default:
		errList = append(errList, errors.Errorf("unsupported broadcast.relay %q", c.Broadcast.Relay))
	}
	return errors.Join(errList...)
}

// UsesRedis reports whether any component needs a redis connection.
func (c Config) UsesRedis() bool {
	return c.Reconciler.Claims == ClaimsRedis || c.Broadcast.Relay == RelayRedis
}

package redis

import (
	"context"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	goredis "github.com/redis/go-redis/v9"
)

const (
	DefaultAddr     = "127.0.0.1:6379"
	DefaultPoolSize = 10
)

type Config struct {
	Addr     string `mapstructure:"addr"`     // Default is 127.0.0.1:6379
	Password string `mapstructure:"password"` // Default is empty
	DB       int    `mapstructure:"db"`       // Default is 0
	URL      string `mapstructure:"url"`      // If URL is provided, other fields are ignored

	PoolSize int `mapstructure:"pool_size"` // Default is 10
}

// Options returns the go-redis client options for the configuration.
func (conf Config) Options() (*goredis.Options, error) {
	if conf.URL != "" {
		opts, err := goredis.ParseURL(conf.URL)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse redis url")
		}
		return opts, nil
	}
	return &goredis.Options{
		Addr:     utils.Default(conf.Addr, DefaultAddr),
		Password: conf.Password,
		DB:       conf.DB,
		PoolSize: utils.Default(conf.PoolSize, DefaultPoolSize),
	}, nil
}

// New creates a new redis client and checks the connection.
func New(ctx context.Context, conf Config) (*goredis.Client, error) {
	opts, err := conf.Options()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "failed to connect to redis %q", opts.Addr)
	}
	return client, nil
}

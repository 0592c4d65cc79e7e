package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common/errs"
	"github.com/gaze-network/estate-ordinals/pkg/logger"
	"github.com/gaze-network/estate-ordinals/pkg/logger/slogx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	pgxslog "github.com/mcosta74/pgx-slog"
)

const (
	DefaultMaxConns          = 16
	DefaultMinConns          = 0
	DefaultHealthCheckPeriod = time.Minute
	DefaultApplicationName   = "estate"
)

type Config struct {
	URL      string `mapstructure:"url"` // takes precedence over the fields below
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"db_name"`
	SSLMode  string `mapstructure:"ssl_mode"`

	ApplicationName   string        `mapstructure:"application_name"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`

	// Debug traces every query instead of only failures.
	Debug bool `mapstructure:"debug"`
}

// NewPool opens a pgx pool and pings it. A configuration pgx cannot parse is reported as
// errs.InvalidArgument.
func NewPool(ctx context.Context, conf Config) (*pgxpool.Pool, error) {
	poolConf, err := pgxpool.ParseConfig(conf.String())
	if err != nil {
		return nil, errors.WithSecondaryError(errors.Wrap(errs.InvalidArgument, "can't parse postgres config"), err)
	}
	poolConf.MaxConns = utils.Default(conf.MaxConns, DefaultMaxConns)
	poolConf.MinConns = utils.Default(conf.MinConns, DefaultMinConns)
	poolConf.HealthCheckPeriod = utils.Default(conf.HealthCheckPeriod, DefaultHealthCheckPeriod)
	poolConf.ConnConfig.Tracer = conf.QueryTracer()
	if _, ok := poolConf.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolConf.ConnConfig.RuntimeParams["application_name"] = utils.Default(conf.ApplicationName, DefaultApplicationName)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConf)
	if err != nil {
		return nil, errors.Wrap(err, "can't create postgres pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "can't reach postgres")
	}
	logger.InfoContext(ctx, "Connected to postgres",
		slogx.String("host", poolConf.ConnConfig.Host),
		slogx.String("database", poolConf.ConnConfig.Database),
	)
	return pool, nil
}

// String returns URL when set, otherwise a key/value DSN with local defaults.
func (conf Config) String() string {
	if conf.URL != "" {
		return conf.URL
	}
	params := [][2]string{
		{"host", utils.Default(conf.Host, "127.0.0.1")},
		{"port", utils.Default(conf.Port, "5432")},
		{"dbname", utils.Default(conf.DBName, "postgres")},
		{"sslmode", utils.Default(conf.SSLMode, "prefer")},
		{"user", conf.User},
		{"password", conf.Password},
	}
	parts := make([]string, 0, len(params))
	for _, p := range params {
		if p[1] != "" {
			parts = append(parts, fmt.Sprintf("%s=%s", p[0], p[1]))
		}
	}
	return strings.Join(parts, " ")
}

func (conf Config) QueryTracer() pgx.QueryTracer {
	level := tracelog.LogLevelError
	if conf.Debug {
		level = tracelog.LogLevelTrace
	}
	return &tracelog.TraceLog{
		Logger:   pgxslog.NewLogger(logger.With(slogx.String("package", "postgres"))),
		LogLevel: level,
	}
}

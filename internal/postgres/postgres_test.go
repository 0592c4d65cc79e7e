package postgres

import (
	"context"
	"testing"

	"github.com/gaze-network/estate-ordinals/common/errs"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigString(t *testing.T) {
	tc := []struct {
		name   string
		config Config
		want   string
	}{
		{"defaults", Config{}, "host=127.0.0.1 port=5432 dbname=postgres sslmode=prefer"},
		{
			name:   "credentials",
			config: Config{Host: "db", Port: "6543", DBName: "estate", SSLMode: "disable", User: "app", Password: "pw"},
			want:   "host=db port=6543 dbname=estate sslmode=disable user=app password=pw",
		},
		{"url wins", Config{URL: "postgres://app@db/estate", Host: "ignored"}, "postgres://app@db/estate"},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.config.String())
		})
	}
}

func TestQueryTracerLevel(t *testing.T) {
	tracer, ok := Config{}.QueryTracer().(*tracelog.TraceLog)
	require.True(t, ok)
	assert.Equal(t, tracelog.LogLevelError, tracer.LogLevel)

	tracer, ok = Config{Debug: true}.QueryTracer().(*tracelog.TraceLog)
	require.True(t, ok)
	assert.Equal(t, tracelog.LogLevelTrace, tracer.LogLevel)
}

func TestNewPoolInvalidConfig(t *testing.T) {
	_, err := NewPool(context.Background(), Config{URL: "postgres://%zz"})
	assert.ErrorIs(t, err, errs.InvalidArgument)
}

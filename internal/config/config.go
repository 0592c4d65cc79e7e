package config

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common"
	"github.com/gaze-network/estate-ordinals/internal/redis"
	estateconfig "github.com/gaze-network/estate-ordinals/modules/estate/config"
	"github.com/gaze-network/estate-ordinals/pkg/logger"
	"github.com/gaze-network/estate-ordinals/pkg/logger/slogx"
	"github.com/gaze-network/estate-ordinals/pkg/middleware/requestcontext"
	"github.com/gaze-network/estate-ordinals/pkg/middleware/requestlogger"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	isInit     bool
	mu         sync.Mutex
	configOnce sync.Once
	config     = &Config{
		Logger: logger.Config{
			Output: "TEXT",
		},
		Network: common.NetworkMainnet,
		HTTPServer: HTTPServerConfig{
			Port: 8080,
		},
		BitcoinNode: BitcoinNodeClient{
			User: "user",
			Pass: "pass",
		},
		BlockFeed: BlockFeedConfig{
			Datasource:   "mempool",
			MempoolWSURL: "wss://mempool.space/api/v1/ws",
			PollInterval: 30 * time.Second,
		},
		Modules: Modules{
			Estate: estateconfig.Default(),
		},
	}
)

type Config struct {
	Logger      logger.Config     `mapstructure:"logger"`
	Network     common.Network    `mapstructure:"network"`
	HTTPServer  HTTPServerConfig  `mapstructure:"http_server"`
	BitcoinNode BitcoinNodeClient `mapstructure:"bitcoin_node"`
	BlockFeed   BlockFeedConfig   `mapstructure:"block_feed"`
	Redis       redis.Config      `mapstructure:"redis"`
	Modules     Modules           `mapstructure:"modules"`

	// APIOnly disables the block-driven reconciliation worker.
	APIOnly bool `mapstructure:"api_only"`
}

type Modules struct {
	Estate estateconfig.Config `mapstructure:"estate"`
}

type BitcoinNodeClient struct {
	Host       string `mapstructure:"host"`
	User       string `mapstructure:"user"`
	Pass       string `mapstructure:"pass"`
	DisableTLS bool   `mapstructure:"disable_tls"`
}

type HTTPServerConfig struct {
	Port      int                               `mapstructure:"port"`
	Logger    requestlogger.Config              `mapstructure:"logger"`
	RequestIP requestcontext.WithClientIPConfig `mapstructure:"requestip"`
}

// BlockFeedConfig selects where new-block notifications come from.
type BlockFeedConfig struct {
	// Datasource is `mempool` (mempool.space websocket) or `bitcoin-node` (polling getbestblockhash).
	Datasource   string        `mapstructure:"datasource"`
	MempoolWSURL string        `mapstructure:"mempool_ws_url"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// Parse parse the configuration from environment variables
func Parse(configFile ...string) Config {
	mu.Lock()
	defer mu.Unlock()
	return parse(configFile...)
}

// Load returns the loaded configuration
func Load() Config {
	mu.Lock()
	defer mu.Unlock()
	if isInit {
		return *config
	}
	return parse()
}

// BindPFlag binds a specific key to a pflag (as used by cobra).
func BindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		logger.Panic("Something went wrong, failed to bind flag for config", slogx.String("package", "config"), slogx.Error(err))
	}
}

// SetDefault sets the default value for this key.
func SetDefault(key string, value any) {
	viper.SetDefault(key, value)
}

func parse(configFile ...string) Config {
	ctx := logger.WithContext(context.Background(), slogx.String("package", "config"))

	if len(configFile) > 0 && configFile[0] != "" {
		viper.SetConfigFile(configFile[0])
	} else {
		viper.AddConfigPath("./")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	configOnce.Do(func() {
		if err := viper.ReadInConfig(); err != nil {
			var errNotfound viper.ConfigFileNotFoundError
			if errors.As(err, &errNotfound) {
				logger.WarnContext(ctx, "Config file not found, use default config value", slogx.Error(err))
			} else {
				logger.PanicContext(ctx, "Invalid config file", slogx.Error(err))
			}
		}

		if err := viper.Unmarshal(&config); err != nil {
			logger.PanicContext(ctx, "Something went wrong, failed to unmarshal config", slogx.Error(err))
		}

		if err := config.Validate(); err != nil {
			logger.PanicContext(ctx, "Invalid configuration", slogx.Error(err))
		}
	})

	isInit = true
	return *config
}

// Validate checks the values that can't be recovered from at runtime.
func (c Config) Validate() error {
	var errList []error
	if !c.Network.IsSupported() {
		errList = append(errList, errors.Errorf("%q network is not supported", c.Network.String()))
	}
	switch c.BlockFeed.Datasource {
	case "mempool", "bitcoin-node":
	default:
		errList = append(errList, errors.Errorf("unsupported block feed datasource %q", c.BlockFeed.Datasource))
	}
	if c.HTTPServer.Port <= 0 || c.HTTPServer.Port > 65535 {
		errList = append(errList, errors.Errorf("invalid http_server.port %d", c.HTTPServer.Port))
	}
	if err := c.Modules.Estate.Validate(); err != nil {
		errList = append(errList, errors.Wrap(err, "modules.estate"))
	}
	return errors.Join(errList...)
}

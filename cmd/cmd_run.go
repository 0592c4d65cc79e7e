package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/btcsuite/btcd/rpcclient"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common/errs"
	"github.com/gaze-network/estate-ordinals/internal/config"
	"github.com/gaze-network/estate-ordinals/internal/redis"
	"github.com/gaze-network/estate-ordinals/modules/estate"
	"github.com/gaze-network/estate-ordinals/pkg/automaxprocs"
	"github.com/gaze-network/estate-ordinals/pkg/errorhandler"
	"github.com/gaze-network/estate-ordinals/pkg/logger"
	"github.com/gaze-network/estate-ordinals/pkg/logger/slogx"
	"github.com/gaze-network/estate-ordinals/pkg/middleware/requestcontext"
	"github.com/gaze-network/estate-ordinals/pkg/middleware/requestlogger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Register Modules
var Modules = do.Package(
	do.LazyNamed(estate.Name.String(), estate.New),
)

func NewRunCommand() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start the estate API and reconciler",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := automaxprocs.Init(); err != nil {
				logger.Error("Failed to set GOMAXPROCS", slogx.Error(err))
			}
			defer automaxprocs.Undo()
			return runHandler(cmd, args)
		},
	}

	flags := runCmd.Flags()
	flags.Bool("api-only", false, "Run only the API server, without block-driven reconciliation")

	config.BindPFlag("api_only", flags.Lookup("api-only"))

	return runCmd
}

const (
	shutdownTimeout = 60 * time.Second
)

func runHandler(cmd *cobra.Command, _ []string) error {
	conf := config.Load()

	if !conf.Network.IsSupported() {
		return errors.Wrapf(errs.Unsupported, "%q network is not supported", conf.Network.String())
	}

	ctx, stop := context.WithCancel(cmd.Context())
	defer stop()
	ctx = logger.WithContext(ctx, slogx.Stringer("network", conf.Network))

	injector := do.New(Modules)
	do.ProvideValue(injector, conf)
	do.ProvideValue(injector, ctx)

	// Bitcoin RPC client, only used by the bitcoin-node block feed
	do.Provide(injector, func(i do.Injector) (*rpcclient.Client, error) {
		conf := do.MustInvoke[config.Config](i)

		client, err := rpcclient.New(&rpcclient.ConnConfig{
			Host:         conf.BitcoinNode.Host,
			User:         conf.BitcoinNode.User,
			Pass:         conf.BitcoinNode.Pass,
			DisableTLS:   conf.BitcoinNode.DisableTLS,
			HTTPPostMode: true,
		}, nil)
		if err != nil {
			return nil, errors.Wrap(err, "invalid Bitcoin node configuration")
		}

		start := time.Now()
		logger.InfoContext(ctx, "Connecting to Bitcoin Core RPC Server...", slogx.String("host", conf.BitcoinNode.Host))
		if err := client.Ping(); err != nil {
			return nil, errors.Wrapf(err, "can't connect to Bitcoin Core RPC Server %q", conf.BitcoinNode.Host)
		}
		logger.InfoContext(ctx, "Connected to Bitcoin Core RPC Server", slog.Duration("latency", time.Since(start)))
		return client, nil
	})

	// Redis, used by shared order claims and the broadcast relay
	do.Provide(injector, func(i do.Injector) (*goredis.Client, error) {
		conf := do.MustInvoke[config.Config](i)
		client, err := redis.New(ctx, conf.Redis)
		if err != nil {
			return nil, errors.Wrap(err, "can't connect to redis")
		}
		return client, nil
	})

	do.Provide(injector, func(i do.Injector) (*fiber.App, error) {
		app := fiber.New(fiber.Config{
			AppName:      "Estate Ordinals",
			ErrorHandler: errorhandler.NewHTTPErrorHandler(),
		})
		app.
			Use(favicon.New()).
			Use(cors.New()).
			Use(requestid.New()).
			Use(requestcontext.New(
				requestcontext.WithRequestId(),
				requestcontext.WithClientIP(conf.HTTPServer.RequestIP),
			)).
			Use(requestlogger.New(conf.HTTPServer.Logger)).
			Use(fiberrecover.New(fiberrecover.Config{
				EnableStackTrace: true,
				StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
					buf := make([]byte, 1024) // bufLen = 1024
					buf = buf[:runtime.Stack(buf, false)]
					logger.ErrorContext(c.UserContext(), "Something went wrong, panic in http handler", slogx.Any("panic", e), slog.String("stacktrace", string(buf)))
				},
			})).
			Use(compress.New(compress.Config{
				Level: compress.LevelDefault,
			}))
		return app, nil
	})

	module, err := do.InvokeNamed[*estate.Module](injector, estate.Name.String())
	if err != nil {
		return errors.Wrapf(err, "can't init module %q", estate.Name)
	}
	httpServer := do.MustInvoke[*fiber.App](injector)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return errors.Wrap(module.Hub.Run(groupCtx), "broadcast hub stopped")
	})
	if module.Worker != nil {
		group.Go(func() error {
			logger.InfoContext(groupCtx, "Starting reconciler worker")
			return errors.Wrap(module.Worker.Run(groupCtx), "reconciler worker stopped")
		})
	}
	group.Go(func() error {
		logger.InfoContext(groupCtx, "Started HTTP server", slog.Int("port", conf.HTTPServer.Port))
		return errors.Wrap(httpServer.Listen(fmt.Sprintf(":%d", conf.HTTPServer.Port)), "HTTP server stopped")
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.InfoContext(ctx, "Stopping HTTP server...")
		return errors.WithStack(httpServer.ShutdownWithTimeout(shutdownTimeout))
	})

	logger.InfoContext(ctx, "Estate started")
	runErr := group.Wait()
	if runErr != nil && ctx.Err() == nil {
		logger.ErrorContext(ctx, "Something went wrong, stopping application", slogx.Error(runErr))
	}
	stop()

	if err := injector.Shutdown(); err != nil {
		logger.ErrorContext(ctx, "Failed while gracefully shutting down", slogx.Error(err))
	}
	// interrupted by signal
	if cmd.Context().Err() != nil {
		return nil
	}
	return errors.WithStack(runErr)
}

package estate

import (
	"context"
	"strings"

	"github.com/btcsuite/btcd/rpcclient"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common/errs"
	"github.com/gaze-network/estate-ordinals/core"
	"github.com/gaze-network/estate-ordinals/core/datasources"
	"github.com/gaze-network/estate-ordinals/internal/config"
	"github.com/gaze-network/estate-ordinals/internal/postgres"
	"github.com/gaze-network/estate-ordinals/modules/estate/api/httphandler"
	estateconfig "github.com/gaze-network/estate-ordinals/modules/estate/config"
	"github.com/gaze-network/estate-ordinals/modules/estate/reconciler"
	estatepostgres "github.com/gaze-network/estate-ordinals/modules/estate/repository/postgres"
	"github.com/gaze-network/estate-ordinals/modules/estate/usecase"
	"github.com/gaze-network/estate-ordinals/pkg/broadcast"
	"github.com/gaze-network/estate-ordinals/pkg/logger"
	"github.com/gaze-network/estate-ordinals/pkg/logger/slogx"
	"github.com/gaze-network/estate-ordinals/pkg/objectstore"
	"github.com/gaze-network/estate-ordinals/pkg/ordclient"
	"github.com/gaze-network/estate-ordinals/pkg/unisat"
	"github.com/gofiber/fiber/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/do/v2"
)

// Module is the running estate module. The injector shuts it down through Shutdown.
type Module struct {
	// Worker reconciles on every new block, nil in api-only mode.
	Worker core.Worker
	Hub    *broadcast.Hub

	reconciler   *reconciler.Reconciler
	cleanupFuncs []func(context.Context) error
}

func New(injector do.Injector) (*Module, error) {
	ctx := do.MustInvoke[context.Context](injector)
	conf := do.MustInvoke[config.Config](injector)
	moduleConf := conf.Modules.Estate
	ctx = logger.WithContext(ctx, slogx.Stringer("module", Name))

	m := &Module{}

	pg, err := postgres.NewPool(ctx, moduleConf.Postgres)
	if err != nil {
		if errors.Is(err, errs.InvalidArgument) {
			return nil, errors.Wrap(err, "Invalid Postgres configuration for estate")
		}
		return nil, errors.Wrap(err, "can't create Postgres connection pool")
	}
	m.cleanupFuncs = append(m.cleanupFuncs, func(context.Context) error {
		pg.Close()
		return nil
	})
	estateRepo := estatepostgres.NewRepository(pg)

	var redisClient goredis.UniversalClient
	if moduleConf.UsesRedis() {
		client := do.MustInvoke[*goredis.Client](injector)
		m.cleanupFuncs = append(m.cleanupFuncs, func(context.Context) error {
			return errors.WithStack(client.Close())
		})
		redisClient = client
	}

	var relay broadcast.Relay
	if moduleConf.Broadcast.Relay == estateconfig.RelayRedis {
		relay = broadcast.NewRedisRelay(redisClient, moduleConf.Broadcast.Channel)
	}
	m.Hub = broadcast.NewHub(relay)

	unisatClient, err := unisat.New(moduleConf.Unisat)
	if err != nil {
		return nil, errors.Wrap(err, "can't create unisat client")
	}
	ordClient, err := ordclient.New(moduleConf.Ord)
	if err != nil {
		return nil, errors.Wrap(err, "can't create ord client")
	}

	reconcilerConf := moduleConf.Reconciler
	queueOpts := []reconciler.QueueOption{}
	if reconcilerConf.Claims == estateconfig.ClaimsRedis {
		queueOpts = append(queueOpts, reconciler.WithClaims(reconciler.NewRedisClaims(redisClient, reconcilerConf.ClaimTTL)))
	}
	queue := reconciler.NewQueue(unisatClient, estateRepo, m.Hub, reconciler.QueueConfig{
		MaxAttempts:   reconcilerConf.MaxAttempts,
		RetryDelay:    reconcilerConf.RetryDelay,
		MaxRetryDelay: reconcilerConf.MaxRetryDelay,
	}, queueOpts...)
	m.cleanupFuncs = append(m.cleanupFuncs, watchQueueEvents(ctx, queue))
	holders := reconciler.NewHolderSynchronizer(ordClient, estateRepo, reconciler.HolderSyncConfig{
		LookupAttempts: reconcilerConf.HolderLookupAttempts,
		RetryDelay:     reconcilerConf.HolderRetryDelay,
	}, nil)
	m.reconciler = reconciler.New(ctx, estateRepo, queue, holders)

	if !conf.APIOnly {
		var feed datasources.BlockFeed
		switch strings.ToLower(conf.BlockFeed.Datasource) {
		case "mempool":
			feed = datasources.NewMempoolSpace(conf.BlockFeed.MempoolWSURL)
		case "bitcoin-node":
			btcClient := do.MustInvoke[*rpcclient.Client](injector)
			feed = datasources.NewBitcoinNode(btcClient, conf.BlockFeed.PollInterval)
		default:
			return nil, errors.Wrapf(errs.Unsupported, "%q block feed datasource is not supported", conf.BlockFeed.Datasource)
		}
		m.Worker = reconciler.NewTrigger(feed, m.reconciler, reconcilerConf.ResubscribeDelay, nil)
	}

	// a nil *objectstore.Store must not end up inside the interface
	var store usecase.ObjectStore
	if moduleConf.ObjectStore.Enabled() {
		objectStore, err := objectstore.New(ctx, moduleConf.ObjectStore)
		if err != nil {
			return nil, errors.Wrap(err, "can't create object store")
		}
		store = objectStore
	} else {
		logger.WarnContext(ctx, "Object store is not configured, uploads are disabled")
	}

	estateUsecase := usecase.New(estateRepo, m.Hub, store, conf.Network)
	httpServer := do.MustInvoke[*fiber.App](injector)
	handler := httphandler.New(estateUsecase, m.reconciler, m.Hub.Handler())
	if err := handler.Mount(httpServer); err != nil {
		return nil, errors.Wrap(err, "can't mount estate API")
	}
	logger.InfoContext(ctx, "Mounted HTTP handler")

	return m, nil
}

// Shutdown waits for background reconciliation to stop, then releases connections.
func (m *Module) Shutdown(ctx context.Context) error {
	m.reconciler.Wait()
	var errList []error
	for _, cleanup := range m.cleanupFuncs {
		if err := cleanup(ctx); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.WithStack(errors.Join(errList...))
}

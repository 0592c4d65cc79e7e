package reconciler

import (
	"context"
	"sync"
	"time"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common/errs"
	"github.com/gaze-network/estate-ordinals/modules/estate/datagateway"
	"github.com/gaze-network/estate-ordinals/modules/estate/internal/entity"
	"github.com/gaze-network/estate-ordinals/pkg/logger"
	"github.com/gaze-network/estate-ordinals/pkg/logger/slogx"
	"github.com/gaze-network/estate-ordinals/pkg/ordclient"
)

const (
	DefaultHolderLookupAttempts = 4
	DefaultHolderRetryDelay     = time.Second
)

// OwnershipGateway reads the current owner of an inscription. [ordclient.Client] implements it.
type OwnershipGateway interface {
	GetInscription(ctx context.Context, inscriptionId string) (*ordclient.Inscription, error)
}

type HolderSyncConfig struct {
	LookupAttempts int
	RetryDelay     time.Duration
}

type SyncReport struct {
	Checked int
	Updated int
	Skipped int
}

// HolderSynchronizer copies on-chain ownership of every stored inscription into storage.
type HolderSynchronizer struct {
	gateway OwnershipGateway
	dg      datagateway.InscriptionDataGateway
	sleep   Sleeper
	conf    HolderSyncConfig

	mu sync.Mutex
}

func NewHolderSynchronizer(gateway OwnershipGateway, dg datagateway.InscriptionDataGateway, conf HolderSyncConfig, sleep Sleeper) *HolderSynchronizer {
	if sleep == nil {
		sleep = Sleep
	}
	return &HolderSynchronizer{
		gateway: gateway,
		dg:      dg,
		sleep:   sleep,
		conf: HolderSyncConfig{
			LookupAttempts: utils.Default(conf.LookupAttempts, DefaultHolderLookupAttempts),
			RetryDelay:     utils.Default(conf.RetryDelay, DefaultHolderRetryDelay),
		},
	}
}

// Sync checks inscriptions one by one and updates the owner of those that moved.
// Concurrent calls run one after the other.
func (s *HolderSynchronizer) Sync(ctx context.Context) (SyncReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx = logger.WithContext(ctx, slogx.String("package", "reconciler"), slogx.String("event", "holder_sync"))

	var report SyncReport
	inscriptions, err := s.dg.GetInscriptions(ctx)
	if err != nil {
		return report, errors.Wrap(err, "failed to get inscriptions")
	}

	for _, inscription := range inscriptions {
		if err := ctx.Err(); err != nil {
			return report, errors.WithStack(err)
		}
		report.Checked++

		address, err := s.lookupOwner(ctx, inscription)
		if err != nil {
			if ctx.Err() != nil {
				return report, errors.WithStack(ctx.Err())
			}
			logger.WarnContext(ctx, "Failed to get inscription owner, skipping",
				slogx.String("inscriptionId", inscription.InscriptionId),
				slogx.Error(err),
			)
			report.Skipped++
			continue
		}
		if address == inscription.Owner {
			continue
		}

		if err := s.dg.UpdateInscriptionOwner(ctx, inscription.Id, address); err != nil {
			logger.ErrorContext(ctx, "Failed to update inscription owner",
				slogx.String("inscriptionId", inscription.InscriptionId),
				slogx.Error(err),
			)
			report.Skipped++
			continue
		}
		logger.InfoContext(ctx, "Inscription transferred",
			slogx.String("inscriptionId", inscription.InscriptionId),
			slogx.String("from", inscription.Owner),
			slogx.String("to", address),
		)
		report.Updated++
	}

	logger.InfoContext(ctx, "Holder sync finished",
		slogx.Int("checked", report.Checked),
		slogx.Int("updated", report.Updated),
		slogx.Int("skipped", report.Skipped),
	)
	return report, nil
}

func (s *HolderSynchronizer) lookupOwner(ctx context.Context, inscription *entity.Inscription) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= s.conf.LookupAttempts; attempt++ {
		if attempt > 1 {
			if err := s.sleep(ctx, s.conf.RetryDelay); err != nil {
				return "", errors.WithStack(err)
			}
		}
		result, err := s.gateway.GetInscription(ctx, inscription.InscriptionId)
		switch {
		case err != nil && errors.Is(err, errs.InvalidArgument):
			// a malformed stored id will never resolve
			return "", errors.WithStack(err)
		case err != nil:
			lastErr = err
		case result.Address == "":
			lastErr = errors.Wrap(ordclient.ErrGatewayUnavailable, "inscription has no address")
		default:
			return result.Address, nil
		}
		if ctx.Err() != nil {
			return "", errors.WithStack(ctx.Err())
		}
	}
	return "", errors.Wrapf(lastErr, "giving up after %d attempts", s.conf.LookupAttempts)
}

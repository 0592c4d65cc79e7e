package usecase

import (
	"context"
	"io"
	"time"

	"github.com/gaze-network/estate-ordinals/common"
	"github.com/gaze-network/estate-ordinals/modules/estate/datagateway"
	"github.com/gaze-network/estate-ordinals/pkg/broadcast"
)

// ObjectStore stores public files. [objectstore.Store] implements it.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

type Usecase struct {
	estateDg    datagateway.EstateDataGateway
	broadcaster broadcast.Broadcaster
	objectStore ObjectStore // nil if uploads are disabled
	network     common.Network
	now         func() time.Time
}

func New(estateDg datagateway.EstateDataGateway, broadcaster broadcast.Broadcaster, objectStore ObjectStore, network common.Network) *Usecase {
	return &Usecase{
		estateDg:    estateDg,
		broadcaster: broadcaster,
		objectStore: objectStore,
		network:     network,
		now:         time.Now,
	}
}

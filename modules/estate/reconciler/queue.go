package reconciler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common/errs"
	"github.com/gaze-network/estate-ordinals/internal/subscription"
	"github.com/gaze-network/estate-ordinals/modules/estate/datagateway"
	"github.com/gaze-network/estate-ordinals/modules/estate/internal/entity"
	"github.com/gaze-network/estate-ordinals/pkg/broadcast"
	"github.com/gaze-network/estate-ordinals/pkg/logger"
	"github.com/gaze-network/estate-ordinals/pkg/logger/slogx"
	"github.com/gaze-network/estate-ordinals/pkg/unisat"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	DefaultMaxAttempts   = 30
	DefaultRetryDelay    = 10 * time.Second
	DefaultMaxRetryDelay = 5 * time.Minute
)

// OrderStatusGateway reads the state of an inscribe order. [unisat.Client] implements it.
type OrderStatusGateway interface {
	GetOrder(ctx context.Context, orderId string) (*unisat.OrderResponse, error)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	}
}

type QueueConfig struct {
	MaxAttempts   int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// Queue reconciles pending orders one at a time, in the order they were enqueued.
type Queue struct {
	gateway     OrderStatusGateway
	dg          datagateway.EstateDataGateway
	broadcaster broadcast.Broadcaster
	claims      Claims
	sleep       Sleeper
	conf        QueueConfig
	now         func() time.Time

	mu         sync.Mutex
	orders     []*entity.Order
	processing atomic.Bool
	events     eventStream
}

type QueueOption func(*Queue)

func WithSleeper(sleep Sleeper) QueueOption {
	return func(q *Queue) { q.sleep = sleep }
}

func WithClaims(claims Claims) QueueOption {
	return func(q *Queue) { q.claims = claims }
}

func WithClock(now func() time.Time) QueueOption {
	return func(q *Queue) { q.now = now }
}

func NewQueue(gateway OrderStatusGateway, dg datagateway.EstateDataGateway, broadcaster broadcast.Broadcaster, conf QueueConfig, opts ...QueueOption) *Queue {
	q := &Queue{
		gateway:     gateway,
		dg:          dg,
		broadcaster: broadcaster,
		claims:      NewMemoryClaims(),
		sleep:       Sleep,
		now:         time.Now,
		conf: QueueConfig{
			MaxAttempts:   utils.Default(conf.MaxAttempts, DefaultMaxAttempts),
			RetryDelay:    utils.Default(conf.RetryDelay, DefaultRetryDelay),
			MaxRetryDelay: utils.Default(conf.MaxRetryDelay, DefaultMaxRetryDelay),
		},
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue appends orders to the queue and returns how many were added. Orders already
// queued or in flight are skipped.
func (q *Queue) Enqueue(ctx context.Context, orders ...*entity.Order) int {
	added := 0
	for _, order := range orders {
		ok, err := q.claims.Claim(ctx, order.OrderId)
		if err != nil {
			logger.WarnContext(ctx, "Failed to claim order, skipping",
				slogx.String("package", "reconciler"),
				slogx.String("orderId", order.OrderId),
				slogx.Error(err),
			)
			continue
		}
		if !ok {
			continue
		}
		q.mu.Lock()
		q.orders = append(q.orders, order)
		q.mu.Unlock()
		added++
	}
	return added
}

// Len returns the number of queued orders, excluding the one in flight.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.orders)
}

// Processing reports whether a drain is running.
func (q *Queue) Processing() bool {
	return q.processing.Load()
}

// Events subscribes ch to queue events.
func (q *Queue) Events(ch chan<- QueueEvent) *subscription.ClientSubscription[QueueEvent] {
	return q.events.subscribe(ch)
}

// Drain processes queued orders until the queue is empty or ctx is done. If another
// drain is running it returns immediately.
func (q *Queue) Drain(ctx context.Context) {
	for q.processing.CompareAndSwap(false, true) {
		processed := q.drain(ctx)
		q.processing.Store(false)
		if processed > 0 {
			q.events.publish(ctx, QueueEvent{Kind: DrainIdle})
		}
		// orders enqueued between the last pop and releasing the guard
		if ctx.Err() != nil || q.Len() == 0 {
			return
		}
	}
}

func (q *Queue) drain(ctx context.Context) int {
	processed := 0
	for ctx.Err() == nil {
		order, ok := q.pop()
		if !ok {
			break
		}
		q.process(ctx, order)
		processed++
	}
	return processed
}

func (q *Queue) pop() (*entity.Order, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.orders) == 0 {
		return nil, false
	}
	order := q.orders[0]
	q.orders[0] = nil
	q.orders = q.orders[1:]
	return order, true
}

func (q *Queue) process(ctx context.Context, order *entity.Order) {
	ctx = logger.WithContext(ctx,
		slogx.String("package", "reconciler"),
		slogx.String("orderId", order.OrderId),
	)
	defer func() {
		// release with a fresh context, the claim must go even if ctx is cancelled
		if err := q.claims.Release(context.WithoutCancel(ctx), order.OrderId); err != nil {
			logger.WarnContext(ctx, "Failed to release order claim", slogx.Error(err))
		}
	}()

	q.events.publish(ctx, QueueEvent{Kind: OrderStarted, OrderId: order.OrderId, Status: order.Status})
	q.refreshClaim(ctx, order)

	delay := q.conf.RetryDelay
	for attempt := 1; ; attempt++ {
		resp, err := q.gateway.GetOrder(ctx, order.OrderId)
		if err == nil {
			q.handle(ctx, order, resp)
			return
		}
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, errs.InvalidArgument) {
			logger.WarnContext(ctx, "Invalid order id, skipping", slogx.Error(err))
			q.events.publish(ctx, QueueEvent{Kind: OrderDropped, OrderId: order.OrderId, Status: order.Status, Err: err})
			return
		}
		if attempt >= q.conf.MaxAttempts {
			q.fail(ctx, order, attempt, err)
			return
		}

		logger.WarnContext(ctx, "Order status unavailable, retrying",
			slogx.Error(err),
			slogx.Int("attempt", attempt),
			slogx.Duration("delay", delay),
		)
		if err := q.sleep(ctx, delay); err != nil {
			return
		}
		q.refreshClaim(ctx, order)
		delay = min(delay*2, q.conf.MaxRetryDelay)
	}
}

// refreshClaim keeps the claim alive while the order waits in line or retries.
func (q *Queue) refreshClaim(ctx context.Context, order *entity.Order) {
	if err := q.claims.Refresh(ctx, order.OrderId); err != nil {
		logger.WarnContext(ctx, "Failed to refresh order claim", slogx.Error(err))
	}
}

func (q *Queue) handle(ctx context.Context, order *entity.Order, resp *unisat.OrderResponse) {
	switch {
	case resp.Failed():
		logger.WarnContext(ctx, "Order status rejected by gateway", slogx.String("msg", resp.Msg))
		q.events.publish(ctx, QueueEvent{Kind: OrderDropped, OrderId: order.OrderId, Status: order.Status, Err: errors.Newf("gateway error: %s", resp.Msg)})
		return
	case resp.NotFound():
		logger.WarnContext(ctx, "Invalid order, gateway returned no data")
		q.events.publish(ctx, QueueEvent{Kind: OrderDropped, OrderId: order.OrderId, Status: order.Status, Err: errors.Wrap(errs.NotFound, "order not found")})
		return
	case resp.Data == nil:
		logger.WarnContext(ctx, "Unexpected order response", slogx.Int("code", resp.Code), slogx.String("msg", resp.Msg))
		q.events.publish(ctx, QueueEvent{Kind: OrderDropped, OrderId: order.OrderId, Status: order.Status})
		return
	}

	data := resp.Data
	var err error
	switch data.Status {
	case unisat.OrderStatusPending:
		logger.DebugContext(ctx, "Order is still pending")
	case unisat.OrderStatusClosed:
		err = q.completeClosed(ctx, order, data)
	case unisat.OrderStatusMinted:
		err = q.completeMinted(ctx, order, data)
	default:
		logger.DebugContext(ctx, "Order in unrecognized status, skipping", slogx.String("status", data.Status))
	}
	if err != nil {
		logger.ErrorContext(ctx, "Failed to save order result, dropping order for this cycle", slogx.Error(err))
		q.events.publish(ctx, QueueEvent{Kind: OrderDropped, OrderId: order.OrderId, Status: order.Status, Err: err})
		return
	}
	q.events.publish(ctx, QueueEvent{Kind: OrderCompleted, OrderId: order.OrderId, Status: entity.OrderStatus(data.Status)})
}

func (q *Queue) completeClosed(ctx context.Context, order *entity.Order, data *unisat.Order) error {
	updated, err := q.dg.ApplyOrderResult(ctx, orderResultParams(order, entity.OrderStatusClosed, data))
	if err != nil {
		return errors.Wrap(err, "failed to close order")
	}
	if !updated {
		logger.DebugContext(ctx, "Order already reconciled")
		return nil
	}
	logger.InfoContext(ctx, "Order closed")
	return nil
}

// completeMinted records the minted shares in one transaction. The conditional status
// transition guarantees that a re-polled order creates nothing.
func (q *Queue) completeMinted(ctx context.Context, order *entity.Order, data *unisat.Order) error {
	tx, err := q.dg.BeginEstateTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
			logger.WarnContext(ctx, "failed to rollback transaction", slogx.Error(rollbackErr))
		}
	}()

	updated, err := tx.ApplyOrderResult(ctx, orderResultParams(order, entity.OrderStatusMinted, data))
	if err != nil {
		return errors.Wrap(err, "failed to mark order minted")
	}
	if !updated {
		logger.DebugContext(ctx, "Order already reconciled")
		return nil
	}

	owner := utils.Default(data.ReceiveAddress, order.ReceiveAddress)
	now := q.now()
	for _, file := range data.Files {
		if file.InscriptionId == "" {
			logger.WarnContext(ctx, "Minted file has no inscription id", slogx.String("filename", file.Filename))
			continue
		}
		if _, err := tx.CreateInscriptionIfNotExists(ctx, entity.Inscription{
			Id:            uuid.New(),
			InscriptionId: file.InscriptionId,
			Owner:         owner,
			PropertyId:    order.PropertyId,
			CreatedAt:     now,
			UpdatedAt:     now,
		}); err != nil {
			return errors.Wrapf(err, "failed to save inscription %s", file.InscriptionId)
		}
	}

	shares := int64(len(data.Files))
	if shares > 0 {
		if err := tx.AddHolderAmount(ctx, datagateway.AddHolderAmountParams{
			Id:         uuid.New(),
			Address:    owner,
			PropertyId: order.PropertyId,
			Amount:     shares,
		}); err != nil {
			return errors.Wrap(err, "failed to update holder")
		}
		if _, err := tx.IncrementPropertySold(ctx, order.PropertyId, shares); err != nil {
			return errors.Wrap(err, "failed to update property sold")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	logger.InfoContext(ctx, "Order minted", slogx.Int64("shares", shares), slogx.String("owner", owner))

	if shares > 0 {
		if err := q.broadcaster.Broadcast(ctx, broadcast.NewSoldEvent(order.PropertyId.String(), shares)); err != nil {
			logger.WarnContext(ctx, "Failed to broadcast sold event", slogx.Error(err))
		}
	}
	return nil
}

func (q *Queue) fail(ctx context.Context, order *entity.Order, attempts int, cause error) {
	logger.ErrorContext(ctx, "Order status unavailable, giving up", slogx.Error(cause), slogx.Int("attempts", attempts))
	if _, err := q.dg.MarkOrderFailed(ctx, datagateway.MarkOrderFailedParams{
		OrderId:   order.OrderId,
		Attempts:  int32(attempts),
		LastError: cause.Error(),
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to mark order failed", slogx.Error(err))
	}
	q.events.publish(ctx, QueueEvent{Kind: OrderFailed, OrderId: order.OrderId, Status: entity.OrderStatusFailed, Err: cause})
}

func orderResultParams(order *entity.Order, status entity.OrderStatus, data *unisat.Order) datagateway.ApplyOrderResultParams {
	return datagateway.ApplyOrderResultParams{
		OrderId:          order.OrderId,
		Status:           status,
		PayAddress:       utils.Default(data.PayAddress, order.PayAddress),
		ReceiveAddress:   utils.Default(data.ReceiveAddress, order.ReceiveAddress),
		Amount:           data.Amount,
		PaidAmount:       data.PaidAmount,
		OutputValue:      data.OutputValue,
		FeeRate:          data.FeeRate,
		MinerFee:         data.MinerFee,
		ServiceFee:       data.ServiceFee,
		DevFee:           data.DevFee,
		Files:            lo.Map(data.Files, func(f unisat.File, _ int) entity.OrderFile { return entity.OrderFile(f) }),
		Count:            data.Count,
		PendingCount:     data.PendingCount,
		UnconfirmedCount: data.UnconfirmedCount,
		ConfirmedCount:   data.ConfirmedCount,
		CreateTime:       data.CreateTime,
	}
}

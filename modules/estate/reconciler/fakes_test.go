package reconciler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/modules/estate/datagateway"
	"github.com/gaze-network/estate-ordinals/modules/estate/internal/entity"
	"github.com/gaze-network/estate-ordinals/pkg/broadcast"
	"github.com/gaze-network/estate-ordinals/pkg/ordclient"
	"github.com/gaze-network/estate-ordinals/pkg/unisat"
	"github.com/google/uuid"
)

// fakeStore keeps just enough state for the reconciler. Methods it does not override
// panic through the nil embedded interface.
type fakeStore struct {
	datagateway.EstateDataGatewayWithTx

	mu           sync.Mutex
	orders       map[string]*entity.Order
	inscriptions []*entity.Inscription
	holders      map[string]int64 // address/property
	sold         map[uuid.UUID]int64
	ownerUpdates map[uuid.UUID][]string
	writes       int
	commits      int
	rollbacks    int
	applyErr     error
	soldErr      error
	getInscCalls int
}

func newFakeStore(orders ...*entity.Order) *fakeStore {
	s := &fakeStore{
		orders:       make(map[string]*entity.Order),
		holders:      make(map[string]int64),
		sold:         make(map[uuid.UUID]int64),
		ownerUpdates: make(map[uuid.UUID][]string),
	}
	for _, o := range orders {
		s.orders[o.OrderId] = o
	}
	return s
}

func (s *fakeStore) BeginEstateTx(context.Context) (datagateway.EstateDataGatewayWithTx, error) {
	return &fakeTx{store: s}, nil
}

func (s *fakeStore) GetPendingOrders(context.Context) ([]*entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var pending []*entity.Order
	for _, o := range s.orders {
		if o.Status == entity.OrderStatusPending {
			cp := *o
			pending = append(pending, &cp)
		}
	}
	return pending, nil
}

func (s *fakeStore) ApplyOrderResult(_ context.Context, params datagateway.ApplyOrderResultParams) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyErr != nil {
		return false, s.applyErr
	}
	if !s.isPending(params.OrderId) {
		return false, nil
	}
	s.applyOrderResult(params)
	return true, nil
}

func (s *fakeStore) isPending(orderId string) bool {
	o, ok := s.orders[orderId]
	return ok && o.Status == entity.OrderStatusPending
}

func (s *fakeStore) applyOrderResult(params datagateway.ApplyOrderResultParams) {
	o := s.orders[params.OrderId]
	s.writes++
	o.Status = params.Status
	o.Files = params.Files
	o.Count = params.Count
	o.ConfirmedCount = params.ConfirmedCount
}

func (s *fakeStore) MarkOrderFailed(_ context.Context, params datagateway.MarkOrderFailedParams) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[params.OrderId]
	if !ok || o.Status != entity.OrderStatusPending {
		return false, nil
	}
	s.writes++
	o.Status = entity.OrderStatusFailed
	o.Attempts = params.Attempts
	o.LastError = params.LastError
	return true, nil
}

func (s *fakeStore) hasInscription(inscriptionId string) bool {
	for _, existing := range s.inscriptions {
		if existing.InscriptionId == inscriptionId {
			return true
		}
	}
	return false
}

// fakeTx stages writes and applies them to the store on Commit. Rollback discards them.
type fakeTx struct {
	datagateway.EstateDataGatewayWithTx

	store        *fakeStore
	staged       []func()
	inscriptions map[string]bool
	done         bool
}

func (tx *fakeTx) stage(write func()) {
	tx.staged = append(tx.staged, write)
}

func (tx *fakeTx) ApplyOrderResult(_ context.Context, params datagateway.ApplyOrderResultParams) (bool, error) {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyErr != nil {
		return false, s.applyErr
	}
	if !s.isPending(params.OrderId) {
		return false, nil
	}
	tx.stage(func() { s.applyOrderResult(params) })
	return true, nil
}

func (tx *fakeTx) CreateInscriptionIfNotExists(_ context.Context, i entity.Inscription) (bool, error) {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasInscription(i.InscriptionId) || tx.inscriptions[i.InscriptionId] {
		return false, nil
	}
	if tx.inscriptions == nil {
		tx.inscriptions = make(map[string]bool)
	}
	tx.inscriptions[i.InscriptionId] = true
	tx.stage(func() {
		s.writes++
		s.inscriptions = append(s.inscriptions, &i)
	})
	return true, nil
}

func (tx *fakeTx) AddHolderAmount(_ context.Context, params datagateway.AddHolderAmountParams) error {
	s := tx.store
	tx.stage(func() {
		s.writes++
		s.holders[params.Address+"/"+params.PropertyId.String()] += params.Amount
	})
	return nil
}

func (tx *fakeTx) IncrementPropertySold(_ context.Context, id uuid.UUID, amount int64) (int64, error) {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.soldErr != nil {
		return 0, s.soldErr
	}
	tx.stage(func() {
		s.writes++
		s.sold[id] += amount
	})
	return s.sold[id] + amount, nil
}

func (tx *fakeTx) Commit(context.Context) error {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.done {
		return errors.New("transaction already closed")
	}
	tx.done = true
	for _, write := range tx.staged {
		write()
	}
	tx.staged = nil
	s.commits++
	return nil
}

func (tx *fakeTx) Rollback(context.Context) error {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if !tx.done {
		s.rollbacks++
	}
	tx.done = true
	tx.staged = nil
	return nil
}

func (s *fakeStore) GetInscriptions(context.Context) ([]*entity.Inscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getInscCalls++
	out := make([]*entity.Inscription, 0, len(s.inscriptions))
	for _, i := range s.inscriptions {
		cp := *i
		out = append(out, &cp)
	}
	return out, nil
}

func (s *fakeStore) UpdateInscriptionOwner(_ context.Context, id uuid.UUID, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	s.ownerUpdates[id] = append(s.ownerUpdates[id], owner)
	for _, i := range s.inscriptions {
		if i.Id == id {
			i.Owner = owner
		}
	}
	return nil
}

func (s *fakeStore) order(orderId string) entity.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.orders[orderId]
}

func (s *fakeStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

type orderResult struct {
	resp *unisat.OrderResponse
	err  error
}

// fakeOrderGateway replays results per order id, the last result repeats.
type fakeOrderGateway struct {
	mu      sync.Mutex
	results map[string][]orderResult
	calls   []string

	inflight    atomic.Int32
	maxInflight atomic.Int32
	entered     chan string   // optional, notified on each call
	release     chan struct{} // optional, each call waits for it
}

func newFakeOrderGateway() *fakeOrderGateway {
	return &fakeOrderGateway{results: make(map[string][]orderResult)}
}

func (g *fakeOrderGateway) on(orderId string, results ...orderResult) *fakeOrderGateway {
	g.results[orderId] = results
	return g
}

func (g *fakeOrderGateway) GetOrder(ctx context.Context, orderId string) (*unisat.OrderResponse, error) {
	n := g.inflight.Add(1)
	defer g.inflight.Add(-1)
	for {
		max := g.maxInflight.Load()
		if n <= max || g.maxInflight.CompareAndSwap(max, n) {
			break
		}
	}

	if g.entered != nil {
		g.entered <- orderId
	}
	if g.release != nil {
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, orderId)
	results := g.results[orderId]
	if len(results) == 0 {
		return &unisat.OrderResponse{Code: unisat.CodeOK}, nil
	}
	r := results[0]
	if len(results) > 1 {
		g.results[orderId] = results[1:]
	}
	return r.resp, r.err
}

func (g *fakeOrderGateway) callCount(orderId string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		if c == orderId {
			n++
		}
	}
	return n
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []broadcast.Event
}

func (b *fakeBroadcaster) Broadcast(_ context.Context, event broadcast.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *fakeBroadcaster) sent() []broadcast.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]broadcast.Event(nil), b.events...)
}

type fakeSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *fakeSleeper) slept() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

type ownerResult struct {
	address string
	err     error
}

type fakeOwnershipGateway struct {
	mu      sync.Mutex
	results map[string][]ownerResult
	calls   map[string]int
}

func newFakeOwnershipGateway() *fakeOwnershipGateway {
	return &fakeOwnershipGateway{
		results: make(map[string][]ownerResult),
		calls:   make(map[string]int),
	}
}

func (g *fakeOwnershipGateway) on(inscriptionId string, results ...ownerResult) *fakeOwnershipGateway {
	g.results[inscriptionId] = results
	return g
}

func (g *fakeOwnershipGateway) GetInscription(_ context.Context, inscriptionId string) (*ordclient.Inscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[inscriptionId]++
	results := g.results[inscriptionId]
	r := results[0]
	if len(results) > 1 {
		g.results[inscriptionId] = results[1:]
	}
	if r.err != nil {
		return nil, r.err
	}
	return &ordclient.Inscription{Id: inscriptionId, Address: r.address}, nil
}

func (g *fakeOwnershipGateway) callCount(inscriptionId string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[inscriptionId]
}

func mintedResponse(receiveAddress string, inscriptionIds ...string) *unisat.OrderResponse {
	files := make([]unisat.File, 0, len(inscriptionIds))
	for i, id := range inscriptionIds {
		files = append(files, unisat.File{Filename: "share-" + string(rune('a'+i)) + ".txt", InscriptionId: id, Status: "minted"})
	}
	return &unisat.OrderResponse{
		Code: unisat.CodeOK,
		Msg:  "ok",
		Data: &unisat.Order{
			Status:         unisat.OrderStatusMinted,
			ReceiveAddress: receiveAddress,
			Files:          files,
			Count:          int64(len(files)),
			ConfirmedCount: int64(len(files)),
		},
	}
}

func statusResponse(status string) *unisat.OrderResponse {
	return &unisat.OrderResponse{Code: unisat.CodeOK, Data: &unisat.Order{Status: status}}
}

func pendingOrder(orderId string, propertyId uuid.UUID) *entity.Order {
	return &entity.Order{
		Id:             uuid.New(),
		OrderId:        orderId,
		PropertyId:     propertyId,
		Status:         entity.OrderStatusPending,
		ReceiveAddress: "bc1qstoredaddress",
	}
}

// waitForKind reads events until one of the given kind arrives.
func waitForKind(t *testing.T, ch <-chan QueueEvent, kind QueueEventKind) []QueueEvent {
	t.Helper()
	var seen []QueueEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case e := <-ch:
			seen = append(seen, e)
			if e.Kind == kind {
				return seen
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s, got %v", kind, seen)
			return nil
		}
	}
}

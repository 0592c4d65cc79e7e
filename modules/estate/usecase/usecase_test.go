package usecase

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common"
	"github.com/gaze-network/estate-ordinals/common/errs"
	"github.com/gaze-network/estate-ordinals/modules/estate/datagateway"
	"github.com/gaze-network/estate-ordinals/modules/estate/internal/entity"
	"github.com/gaze-network/estate-ordinals/pkg/broadcast"
	"github.com/gaze-network/estate-ordinals/pkg/parquetutils"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	validAddress       = "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"
	validInscriptionId = "6fb976ab49dcec017f1e201e84395983204ae1a7c2abf7ced0a85d692e442799i0"
)

// fakeDg records writes. Methods it does not override panic through the nil embedded interface.
type fakeDg struct {
	datagateway.EstateDataGatewayWithTx

	mu             sync.Mutex
	properties     map[uuid.UUID]*entity.Property
	userIncomes    []*entity.UserIncome
	createdOrders  []entity.Order
	orders         map[uuid.UUID]*entity.Order
	orderUpdates   []datagateway.UpdateOrderParams
	createdHolders []entity.Holder
	searchParams   []datagateway.SearchHoldersParams
	commits        int
	rollbacks      int
}

func newFakeDg() *fakeDg {
	return &fakeDg{
		properties: make(map[uuid.UUID]*entity.Property),
		orders:     make(map[uuid.UUID]*entity.Order),
	}
}

func (d *fakeDg) BeginEstateTx(context.Context) (datagateway.EstateDataGatewayWithTx, error) {
	return d, nil
}

func (d *fakeDg) Commit(context.Context) error {
	d.commits++
	return nil
}

func (d *fakeDg) Rollback(context.Context) error {
	d.rollbacks++
	return nil
}

func (d *fakeDg) CreateProperty(_ context.Context, property entity.Property) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.properties[property.Id] = &property
	return nil
}

func (d *fakeDg) GetPropertyById(_ context.Context, id uuid.UUID) (*entity.Property, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	property, ok := d.properties[id]
	if !ok {
		return nil, errors.WithStack(errs.NotFound)
	}
	cp := *property
	return &cp, nil
}

func (d *fakeDg) UpdateProperty(_ context.Context, id uuid.UUID, params datagateway.UpdatePropertyParams) (*entity.Property, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	property, ok := d.properties[id]
	if !ok {
		return nil, errors.WithStack(errs.NotFound)
	}
	if params.Title != nil {
		property.Title = *params.Title
	}
	if params.ImageURL != nil {
		property.ImageURL = *params.ImageURL
	}
	cp := *property
	return &cp, nil
}

func (d *fakeDg) IncrementPropertySold(_ context.Context, id uuid.UUID, amount int64) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	property, ok := d.properties[id]
	if !ok {
		return 0, errors.WithStack(errs.NotFound)
	}
	property.Sold += amount
	return property.Sold, nil
}

func (d *fakeDg) CreateHolder(_ context.Context, holder entity.Holder) error {
	d.createdHolders = append(d.createdHolders, holder)
	return nil
}

func (d *fakeDg) SearchHolders(_ context.Context, params datagateway.SearchHoldersParams) ([]*entity.Holder, int64, error) {
	d.searchParams = append(d.searchParams, params)
	return []*entity.Holder{}, 0, nil
}

func (d *fakeDg) CreateOrder(_ context.Context, order entity.Order) error {
	d.createdOrders = append(d.createdOrders, order)
	return nil
}

func (d *fakeDg) GetOrderById(_ context.Context, id uuid.UUID) (*entity.Order, error) {
	order, ok := d.orders[id]
	if !ok {
		return nil, errors.WithStack(errs.NotFound)
	}
	clone := *order
	return &clone, nil
}

func (d *fakeDg) UpdateOrder(_ context.Context, id uuid.UUID, params datagateway.UpdateOrderParams) (*entity.Order, error) {
	order, ok := d.orders[id]
	if !ok {
		return nil, errors.WithStack(errs.NotFound)
	}
	d.orderUpdates = append(d.orderUpdates, params)
	if params.Status != nil {
		order.Status = *params.Status
	}
	if params.PayAddress != nil {
		order.PayAddress = *params.PayAddress
	}
	clone := *order
	return &clone, nil
}

func (d *fakeDg) GetUserIncomes(context.Context) ([]*entity.UserIncome, error) {
	return d.userIncomes, nil
}

type fakeBroadcaster struct {
	events []broadcast.Event
}

func (b *fakeBroadcaster) Broadcast(_ context.Context, event broadcast.Event) error {
	b.events = append(b.events, event)
	return nil
}

type fakeObjectStore struct {
	key         string
	contentType string
	body        string
}

func (s *fakeObjectStore) Upload(_ context.Context, key string, body io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.key, s.contentType, s.body = key, contentType, string(data)
	return "https://cdn.example.com/" + key, nil
}

func newTestUsecase(dg *fakeDg, caster *fakeBroadcaster, store ObjectStore) *Usecase {
	u := New(dg, caster, store, common.NetworkMainnet)
	u.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return u
}

func isPublicError(err error) bool {
	var e *errs.PublicError
	return errors.As(err, &e)
}

func TestCreateProperty(t *testing.T) {
	valid := entity.Property{
		Title:         "Villa",
		Description:   "Sea view",
		Supply:        100,
		Price:         decimal.NewFromInt(1000),
		InscriptionId: validInscriptionId,
	}

	testCases := []struct {
		name     string
		modify   func(p *entity.Property)
		expectOk bool
	}{
		{name: "valid", modify: func(*entity.Property) {}, expectOk: true},
		{name: "missing title", modify: func(p *entity.Property) { p.Title = "" }},
		{name: "zero supply", modify: func(p *entity.Property) { p.Supply = 0 }},
		{name: "zero price", modify: func(p *entity.Property) { p.Price = decimal.Zero }},
		{name: "malformed inscription id", modify: func(p *entity.Property) { p.InscriptionId = "abci0" }},
		{name: "negative sold", modify: func(p *entity.Property) { p.Sold = -1 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dg := newFakeDg()
			input := valid
			tc.modify(&input)

			property, err := newTestUsecase(dg, &fakeBroadcaster{}, nil).CreateProperty(context.Background(), input)
			if !tc.expectOk {
				require.Error(t, err)
				assert.True(t, isPublicError(err))
				assert.Empty(t, dg.properties)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, property.Id)
			assert.Equal(t, entity.PropertyStatusActive, property.Status)
			assert.Zero(t, property.Sold)
			assert.Equal(t, 2024, property.CreatedAt.Year())
			assert.Contains(t, dg.properties, property.Id)
		})
	}
}

func TestUpdatePropertyWithSoldShares(t *testing.T) {
	dg := newFakeDg()
	id := uuid.New()
	dg.properties[id] = &entity.Property{Id: id, Title: "Villa", Sold: 3}
	caster := &fakeBroadcaster{}
	u := newTestUsecase(dg, caster, nil)

	property, err := u.UpdateProperty(context.Background(), id, datagateway.UpdatePropertyParams{Title: lo.ToPtr("Villa 2")}, lo.ToPtr(int64(2)))
	require.NoError(t, err)
	assert.Equal(t, "Villa 2", property.Title)
	assert.Equal(t, int64(5), property.Sold)
	assert.Equal(t, 1, dg.commits)
	assert.Equal(t, []broadcast.Event{broadcast.NewSoldEvent(id.String(), 2)}, caster.events)

	_, err = u.UpdateProperty(context.Background(), id, datagateway.UpdatePropertyParams{}, lo.ToPtr(int64(0)))
	assert.True(t, isPublicError(err))
	assert.Len(t, caster.events, 1)
}

func TestUpdatePropertyWithoutSoldShares(t *testing.T) {
	dg := newFakeDg()
	id := uuid.New()
	dg.properties[id] = &entity.Property{Id: id, Title: "Villa"}
	caster := &fakeBroadcaster{}

	property, err := newTestUsecase(dg, caster, nil).UpdateProperty(context.Background(), id, datagateway.UpdatePropertyParams{Title: lo.ToPtr("Loft")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Loft", property.Title)
	assert.Zero(t, dg.commits)
	assert.Empty(t, caster.events)
}

func TestUpdateForSold(t *testing.T) {
	dg := newFakeDg()
	id := uuid.New()
	dg.properties[id] = &entity.Property{Id: id}
	caster := &fakeBroadcaster{}
	u := newTestUsecase(dg, caster, nil)

	sold, err := u.UpdateForSold(context.Background(), id, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), sold)
	sold, err = u.UpdateForSold(context.Background(), id, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), sold)
	assert.Len(t, caster.events, 2)

	_, err = u.UpdateForSold(context.Background(), id, -1)
	assert.True(t, isPublicError(err))

	_, err = u.UpdateForSold(context.Background(), uuid.New(), 1)
	assert.ErrorIs(t, err, errs.NotFound)
	assert.Len(t, caster.events, 2)
}

func TestUploadPropertyImage(t *testing.T) {
	dg := newFakeDg()
	id := uuid.New()
	dg.properties[id] = &entity.Property{Id: id}
	store := &fakeObjectStore{}
	u := newTestUsecase(dg, &fakeBroadcaster{}, store)

	property, err := u.UploadPropertyImage(context.Background(), id, "Front.PNG", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(store.key, "properties/"+id.String()+"/"))
	assert.True(t, strings.HasSuffix(store.key, ".png"))
	assert.Equal(t, "image/png", store.contentType)
	assert.Equal(t, "png-bytes", store.body)
	assert.Equal(t, "https://cdn.example.com/"+store.key, property.ImageURL)

	_, err = u.UploadPropertyImage(context.Background(), id, "notes.txt", "text/plain", strings.NewReader("x"))
	assert.True(t, isPublicError(err))

	_, err = u.UploadPropertyImage(context.Background(), uuid.New(), "a.png", "image/png", strings.NewReader("x"))
	assert.ErrorIs(t, err, errs.NotFound)
}

func TestUploadPropertyImageDisabled(t *testing.T) {
	dg := newFakeDg()
	id := uuid.New()
	dg.properties[id] = &entity.Property{Id: id}

	_, err := newTestUsecase(dg, &fakeBroadcaster{}, nil).UploadPropertyImage(context.Background(), id, "a.png", "image/png", strings.NewReader("x"))
	assert.ErrorIs(t, err, errs.Unsupported)
	assert.True(t, isPublicError(err))
}

func TestCreateHolderValidatesAddress(t *testing.T) {
	dg := newFakeDg()
	u := newTestUsecase(dg, &fakeBroadcaster{}, nil)

	_, err := u.CreateHolder(context.Background(), entity.Holder{Address: "tb1qnotmainnet", Amount: 1, PropertyId: uuid.New()})
	assert.True(t, isPublicError(err))

	holder, err := u.CreateHolder(context.Background(), entity.Holder{Address: validAddress, Amount: 1, PropertyId: uuid.New()})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, holder.Id)
	assert.Len(t, dg.createdHolders, 1)
}

func TestSearchHoldersLimits(t *testing.T) {
	dg := newFakeDg()
	u := newTestUsecase(dg, &fakeBroadcaster{}, nil)

	_, _, err := u.SearchHolders(context.Background(), datagateway.SearchHoldersParams{})
	require.NoError(t, err)
	require.Len(t, dg.searchParams, 1)
	assert.Equal(t, int32(DefaultSearchHoldersLimit), dg.searchParams[0].Limit)

	_, _, err = u.SearchHolders(context.Background(), datagateway.SearchHoldersParams{Limit: MaxSearchHoldersLimit + 1})
	assert.True(t, isPublicError(err))
	_, _, err = u.SearchHolders(context.Background(), datagateway.SearchHoldersParams{Start: -1})
	assert.True(t, isPublicError(err))
	assert.Len(t, dg.searchParams, 1)
}

func TestCreateOrderDefaults(t *testing.T) {
	dg := newFakeDg()
	u := newTestUsecase(dg, &fakeBroadcaster{}, nil)

	order, err := u.CreateOrder(context.Background(), entity.Order{OrderId: "o1", PropertyId: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPending, order.Status)
	assert.NotNil(t, order.Files)

	_, err = u.CreateOrder(context.Background(), entity.Order{PropertyId: uuid.New()})
	assert.True(t, isPublicError(err))
	_, err = u.CreateOrder(context.Background(), entity.Order{OrderId: "o2"})
	assert.True(t, isPublicError(err))
	_, err = u.CreateOrder(context.Background(), entity.Order{OrderId: "o3", PropertyId: uuid.New(), Status: "shipped"})
	assert.True(t, isPublicError(err))
	assert.Len(t, dg.createdOrders, 1)
}

func TestExportUserIncomes(t *testing.T) {
	dg := newFakeDg()
	propertyId := uuid.New()
	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	dg.userIncomes = []*entity.UserIncome{
		{Id: uuid.New(), Amount: decimal.RequireFromString("10.5"), Address: validAddress, PropertyId: &propertyId, CreatedAt: created},
		{Id: uuid.New(), Amount: decimal.NewFromInt(3), Address: validAddress, CreatedAt: created},
	}
	store := &fakeObjectStore{}
	u := newTestUsecase(dg, &fakeBroadcaster{}, store)

	export, err := u.ExportIncomes(context.Background(), IncomeKindUser)
	require.NoError(t, err)
	assert.Equal(t, 2, export.Count)
	assert.Equal(t, "user-incomes.parquet", export.Filename())

	records, err := parquetutils.ReadBytes[UserIncomeRecord](export.Data)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "10.5", records[0].Amount)
	assert.Equal(t, propertyId.String(), records[0].PropertyId)
	assert.Empty(t, records[1].PropertyId)
	assert.Equal(t, created.UnixMilli(), records[1].CreatedAt)

	url, err := u.UploadIncomeExport(context.Background(), export)
	require.NoError(t, err)
	assert.Equal(t, "exports/20240501T120000Z/user-incomes.parquet", store.key)
	assert.Equal(t, ParquetContentType, store.contentType)
	assert.Equal(t, "https://cdn.example.com/"+store.key, url)

	_, err = u.ExportIncomes(context.Background(), IncomeKind("tax"))
	assert.True(t, isPublicError(err))
}

func TestUpdateOrderStatusTransitions(t *testing.T) {
	pending := entity.OrderStatusPending
	tc := []struct {
		name    string
		current entity.OrderStatus
		next    entity.OrderStatus
		allowed bool
	}{
		{"pending to minted", entity.OrderStatusPending, entity.OrderStatusMinted, true},
		{"unknown to pending", entity.OrderStatusUnknown, pending, true},
		{"minted stays minted", entity.OrderStatusMinted, entity.OrderStatusMinted, true},
		{"minted to pending", entity.OrderStatusMinted, pending, false},
		{"closed to pending", entity.OrderStatusClosed, pending, false},
		{"failed to pending", entity.OrderStatusFailed, pending, false},
		{"minted to closed", entity.OrderStatusMinted, entity.OrderStatusClosed, false},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			dg := newFakeDg()
			order := entity.Order{Id: uuid.New(), OrderId: "o1", PropertyId: uuid.New(), Status: tt.current}
			dg.orders[order.Id] = &order
			u := newTestUsecase(dg, &fakeBroadcaster{}, nil)

			next := tt.next
			updated, err := u.UpdateOrder(context.Background(), order.Id, datagateway.UpdateOrderParams{Status: &next})
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, tt.next, updated.Status)
				return
			}
			require.Error(t, err)
			assert.True(t, isPublicError(err))
			assert.Empty(t, dg.orderUpdates)
			assert.Equal(t, tt.current, dg.orders[order.Id].Status)
		})
	}
}

func TestUpdateOrderWithoutStatusSkipsLookup(t *testing.T) {
	dg := newFakeDg()
	order := entity.Order{Id: uuid.New(), OrderId: "o1", PropertyId: uuid.New(), Status: entity.OrderStatusMinted}
	dg.orders[order.Id] = &order
	u := newTestUsecase(dg, &fakeBroadcaster{}, nil)

	payAddress := "bc1qpay"
	updated, err := u.UpdateOrder(context.Background(), order.Id, datagateway.UpdateOrderParams{PayAddress: &payAddress})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusMinted, updated.Status)
	assert.Equal(t, payAddress, updated.PayAddress)
}

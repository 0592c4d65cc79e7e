package httphandler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common"
	"github.com/gaze-network/estate-ordinals/common/errs"
	"github.com/gaze-network/estate-ordinals/modules/estate/datagateway"
	"github.com/gaze-network/estate-ordinals/modules/estate/internal/entity"
	"github.com/gaze-network/estate-ordinals/modules/estate/reconciler"
	"github.com/gaze-network/estate-ordinals/modules/estate/usecase"
	"github.com/gaze-network/estate-ordinals/pkg/broadcast"
	"github.com/gaze-network/estate-ordinals/pkg/errorhandler"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testInscriptionId = "6fb976ab49dcec017f1e201e84395983204ae1a7c2abf7ced0a85d692e442799i0"

type fakeDg struct {
	datagateway.EstateDataGatewayWithTx

	mu           sync.Mutex
	properties   map[uuid.UUID]*entity.Property
	holders      []*entity.Holder
	searchParams []datagateway.SearchHoldersParams
	userIncomes  []*entity.UserIncome
}

func newFakeDg() *fakeDg {
	return &fakeDg{properties: make(map[uuid.UUID]*entity.Property)}
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
	return property, nil
}

func (d *fakeDg) SearchHolders(_ context.Context, params datagateway.SearchHoldersParams) ([]*entity.Holder, int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.searchParams = append(d.searchParams, params)
	return d.holders, int64(len(d.holders)), nil
}

func (d *fakeDg) CreateHolder(context.Context, entity.Holder) error {
	return errors.Wrap(errs.Conflict, "holder exists")
}

func (d *fakeDg) GetUserIncomes(context.Context) ([]*entity.UserIncome, error) {
	return d.userIncomes, nil
}

type fakeReconciler struct {
	added        int
	fetchErr     error
	startedCalls int
	status       reconciler.Status
}

func (r *fakeReconciler) FetchAndAddNewInscriptions(context.Context) (int, error) {
	return r.added, r.fetchErr
}

func (r *fakeReconciler) StartUpdateHolders() bool {
	r.startedCalls++
	return r.startedCalls == 1
}

func (r *fakeReconciler) Status() reconciler.Status {
	return r.status
}

func newTestApp(t *testing.T, dg *fakeDg, rec *fakeReconciler) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: errorhandler.NewHTTPErrorHandler()})
	hub := broadcast.NewHub(nil)
	uc := usecase.New(dg, hub, nil, common.NetworkMainnet)
	require.NoError(t, New(uc, rec, hub.Handler()).Mount(app))
	return app
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func TestWelcome(t *testing.T) {
	app := newTestApp(t, newFakeDg(), &fakeReconciler{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body welcomeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, welcomeMessage, body.Message)
}

func TestCreateProperty(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		dg := newFakeDg()
		app := newTestApp(t, dg, &fakeReconciler{})

		status, env := do(t, app, http.MethodPost, "/api/properties", `{
			"title": "Sunset Villa",
			"description": "Two bedroom beach house",
			"supply": 1000,
			"price": "0.0005",
			"inscriptionId": "`+testInscriptionId+`"
		}`)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, common.ResponseCodeOK, env.Code)

		var got property
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.NotEqual(t, uuid.Nil, got.Id)
		assert.Equal(t, "Sunset Villa", got.Title)
		assert.Equal(t, entity.PropertyStatusActive, got.Status)
		assert.True(t, decimal.RequireFromString("0.0005").Equal(got.Price))
		assert.Len(t, dg.properties, 1)
	})
	t.Run("invalid", func(t *testing.T) {
		dg := newFakeDg()
		app := newTestApp(t, dg, &fakeReconciler{})

		status, env := do(t, app, http.MethodPost, "/api/properties", `{"supply": 0}`)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, common.ResponseCodeError, env.Code)
		assert.Empty(t, dg.properties)
	})
	t.Run("malformed body", func(t *testing.T) {
		app := newTestApp(t, newFakeDg(), &fakeReconciler{})

		status, _ := do(t, app, http.MethodPost, "/api/properties", `{"title":`)
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestGetProperty(t *testing.T) {
	app := newTestApp(t, newFakeDg(), &fakeReconciler{})

	status, env := do(t, app, http.MethodGet, "/api/properties/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "property not found", env.Message)

	status, _ = do(t, app, http.MethodGet, "/api/properties/not-an-id", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSearchHolders(t *testing.T) {
	dg := newFakeDg()
	propertyId := uuid.New()
	dg.holders = []*entity.Holder{{Id: uuid.New(), Address: "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq", Amount: 3, PropertyId: propertyId}}
	app := newTestApp(t, dg, &fakeReconciler{})

	status, env := do(t, app, http.MethodPost, "/api/holders/search", `{"start": 0, "limit": 10, "property": "`+propertyId.String()+`"}`)
	require.Equal(t, http.StatusOK, status)

	var got searchHoldersResult
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.EqualValues(t, 1, got.Total)
	require.Len(t, got.List, 1)
	assert.EqualValues(t, 3, got.List[0].Amount)

	require.Len(t, dg.searchParams, 1)
	assert.EqualValues(t, 10, dg.searchParams[0].Limit)
	require.NotNil(t, dg.searchParams[0].PropertyId)
	assert.Equal(t, propertyId, *dg.searchParams[0].PropertyId)

	status, _ = do(t, app, http.MethodPost, "/api/holders/search", `{"limit": 10}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCreateHolderConflict(t *testing.T) {
	app := newTestApp(t, newFakeDg(), &fakeReconciler{})

	status, env := do(t, app, http.MethodPost, "/api/holders", `{
		"address": "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq",
		"amount": 1,
		"property": "`+uuid.NewString()+`"
	}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "holder already exists for this property", env.Message)
}

func TestReconcileRoutes(t *testing.T) {
	rec := &fakeReconciler{added: 4, status: reconciler.Status{QueueLength: 2, Processing: true}}
	app := newTestApp(t, newFakeDg(), rec)

	status, env := do(t, app, http.MethodPost, "/api/reconcile/orders", "")
	require.Equal(t, http.StatusAccepted, status)
	var orders reconcileOrdersResult
	require.NoError(t, json.Unmarshal(env.Data, &orders))
	assert.Equal(t, 4, orders.Added)

	for _, want := range []bool{true, false} {
		status, env = do(t, app, http.MethodPost, "/api/reconcile/holders", "")
		require.Equal(t, http.StatusAccepted, status)
		var holders reconcileHoldersResult
		require.NoError(t, json.Unmarshal(env.Data, &holders))
		assert.Equal(t, want, holders.Started)
	}

	status, env = do(t, app, http.MethodGet, "/api/reconcile/status", "")
	require.Equal(t, http.StatusOK, status)
	var st reconcileStatus
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.Equal(t, reconcileStatus{QueueLength: 2, Processing: true}, st)

	rec.fetchErr = errors.New("database is down")
	status, env = do(t, app, http.MethodPost, "/api/reconcile/orders", "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal Server Error", env.Message)
}

func TestExportUserIncomes(t *testing.T) {
	dg := newFakeDg()
	dg.userIncomes = []*entity.UserIncome{{Id: uuid.New(), Amount: decimal.NewFromInt(5), Address: "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"}}
	app := newTestApp(t, dg, &fakeReconciler{})

	req := httptest.NewRequest(http.MethodGet, "/api/userIncomes/export", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, usecase.ParquetContentType, resp.Header.Get(fiber.HeaderContentType))
	assert.Equal(t, `attachment; filename="user-incomes.parquet"`, resp.Header.Get(fiber.HeaderContentDisposition))
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "PAR1"))

	// no object store configured
	status, _ := do(t, app, http.MethodGet, "/api/userIncomes/export?upload=true", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestWebsocketRequiresUpgrade(t *testing.T) {
	app := newTestApp(t, newFakeDg(), &fakeReconciler{})

	status, _ := do(t, app, http.MethodGet, "/ws", "")
	assert.Equal(t, http.StatusUpgradeRequired, status)
}

package broadcast

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	fastws "github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp/fasthttputil"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	a, b := hub.register(), hub.register()
	assert.Equal(t, 2, hub.ClientCount())

	require.NoError(t, hub.Broadcast(context.Background(), Event{EventName: EventSold, Data: SoldData{Id: "p1", Amount: 2}}))

	want := `{"eventName":"sold","data":{"id":"p1","amount":2}}`
	assert.JSONEq(t, want, string(<-a.send))
	assert.JSONEq(t, want, string(<-b.send))

	hub.unregister(a)
	assert.Equal(t, 1, hub.ClientCount())
}

func TestHubDisconnectsSlowClient(t *testing.T) {
	hub := NewHub(nil)
	hub.bufferSize = 1
	c := hub.register()

	hub.deliver([]byte("1"))
	hub.deliver([]byte("2"))

	select {
	case <-c.done:
	default:
		t.Fatal("slow client should be closed")
	}
}

func TestRedisRelay(t *testing.T) {
	s := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	defer rdb.Close()

	relay := NewRedisRelay(rdb, "")
	hubA := NewHub(relay)
	hubB := NewHub(NewRedisRelay(rdb, ""))
	clientB := hubB.register()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hubB.Run(ctx) }()

	// wait for hubB's subscription
	require.Eventually(t, func() bool {
		return len(s.PubSubChannels("")) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, hubA.Broadcast(ctx, Event{EventName: EventSold, Data: SoldData{Id: "p1", Amount: 1}}))

	select {
	case payload := <-clientB.send:
		assert.JSONEq(t, `{"eventName":"sold","data":{"id":"p1","amount":1}}`, string(payload))
	case <-time.After(2 * time.Second):
		t.Fatal("event not relayed")
	}
}

func TestWebsocketHandler(t *testing.T) {
	hub := NewHub(nil)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use("/ws", UpgradeRequired)
	app.Get("/ws", hub.Handler())

	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = app.Listener(ln) }()
	defer func() { _ = app.Shutdown() }()

	t.Run("plain http is rejected", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ws", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
	})

	dialer := fastws.Dialer{
		NetDialContext: func(context.Context, string, string) (net.Conn, error) { return ln.Dial() },
	}
	conn, _, err := dialer.Dial("ws://estate.test/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, hub.Broadcast(context.Background(), Event{EventName: EventSold, Data: SoldData{Id: "p9", Amount: 3}}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"eventName":"sold","data":{"id":"p9","amount":3}}`, string(payload))

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

package broadcast

import (
	"time"

	"github.com/gaze-network/estate-ordinals/pkg/logger"
	"github.com/gaze-network/estate-ordinals/pkg/logger/slogx"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

const writeTimeout = 10 * time.Second

// UpgradeRequired rejects plain http requests to the websocket route.
func UpgradeRequired(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handler serves one websocket client: it pushes every delivered event and drops
// the client once it disconnects. Incoming messages are ignored.
func (h *Hub) Handler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		c := h.register()
		defer h.unregister(c)

		go func() {
			defer c.close()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-c.done:
				return
			case payload := <-c.send:
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					logger.Debug("Failed to write websocket message", slogx.String("package", "broadcast"), slogx.Error(err))
					return
				}
			}
		}
	})
}

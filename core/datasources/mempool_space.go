package datasources

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	"github.com/fasthttp/websocket"
	"github.com/gaze-network/estate-ordinals/core/types"
	"github.com/gaze-network/estate-ordinals/internal/subscription"
	"github.com/gaze-network/estate-ordinals/pkg/logger"
	"github.com/gaze-network/estate-ordinals/pkg/logger/slogx"
)

// Make sure to implement the BlockFeed interface
var _ BlockFeed = (*MempoolSpaceDatasource)(nil)

const (
	DefaultMempoolSpaceURL = "wss://mempool.space/api/v1/ws"

	mempoolPingInterval = 30 * time.Second
	mempoolWriteTimeout = 10 * time.Second
)

// MempoolSpaceDatasource receives new blocks from the mempool.space websocket api.
type MempoolSpaceDatasource struct {
	url    string
	dialer *websocket.Dialer
}

func NewMempoolSpace(url string, dialer ...*websocket.Dialer) *MempoolSpaceDatasource {
	d := &MempoolSpaceDatasource{
		url:    utils.Default(url, DefaultMempoolSpaceURL),
		dialer: websocket.DefaultDialer,
	}
	if custom, ok := utils.Optional(dialer); ok && custom != nil {
		d.dialer = custom
	}
	return d
}

func (d *MempoolSpaceDatasource) Name() string {
	return "mempool_space"
}

type mempoolAction struct {
	Action string   `json:"action"`
	Data   []string `json:"data,omitempty"`
}

type mempoolBlock struct {
	Id                string `json:"id"`
	Height            int64  `json:"height"`
	Timestamp         int64  `json:"timestamp"`
	PreviousBlockHash string `json:"previousblockhash"`
}

type mempoolMessage struct {
	Block  *mempoolBlock  `json:"block"`
	Blocks []mempoolBlock `json:"blocks"`
}

// Subscribe connects, asks for `blocks` and streams every announced block.
// The tip of the initial block list sent on connect is streamed as well.
func (d *MempoolSpaceDatasource) Subscribe(ctx context.Context, ch chan<- types.BlockHeader) (*subscription.ClientSubscription[types.BlockHeader], error) {
	conn, _, err := d.dialer.DialContext(ctx, d.url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s", d.url)
	}
	if err := conn.WriteJSON(mempoolAction{Action: "want", Data: []string{"blocks"}}); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "failed to send want message")
	}

	sub := subscription.NewSubscription(ch)
	ctx = logger.WithContext(ctx, slogx.String("datasource", d.Name()))

	// the writer goroutine owns the connection, closing it unblocks ReadMessage
	stopped := make(chan struct{})
	go func() {
		ticker := time.NewTicker(mempoolPingInterval)
		defer ticker.Stop()
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.Done():
				return
			case <-stopped:
				return
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(mempoolWriteTimeout))
				if err := conn.WriteJSON(mempoolAction{Action: "ping"}); err != nil {
					logger.WarnContext(ctx, "Failed to ping mempool.space", slogx.Error(err))
				}
			}
		}
	}()

	go func() {
		defer close(stopped)
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil && !sub.IsClosed() {
					if err := sub.SendError(ctx, errors.Wrap(err, "mempool.space connection lost")); err != nil {
						logger.WarnContext(ctx, "Failed to send subscription error", slogx.Error(err))
					}
				}
				return
			}

			header, ok, err := parseMempoolMessage(payload)
			if err != nil {
				logger.WarnContext(ctx, "Ignored malformed mempool.space message", slogx.Error(err))
				continue
			}
			if !ok {
				continue
			}
			if err := sub.Send(ctx, header); err != nil {
				return
			}
		}
	}()

	return sub.Client(), nil
}

// parseMempoolMessage extracts the announced tip, ok is false for messages without blocks.
func parseMempoolMessage(payload []byte) (header types.BlockHeader, ok bool, err error) {
	var msg mempoolMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return types.BlockHeader{}, false, errors.WithStack(err)
	}

	block := msg.Block
	if block == nil && len(msg.Blocks) > 0 {
		block = &msg.Blocks[0]
		for i := range msg.Blocks {
			if msg.Blocks[i].Height > block.Height {
				block = &msg.Blocks[i]
			}
		}
	}
	if block == nil {
		return types.BlockHeader{}, false, nil
	}

	header, err = types.ParseBlockHeader(block.Id, block.Height, block.PreviousBlockHash, block.Timestamp)
	if err != nil {
		return types.BlockHeader{}, false, errors.Wrap(err, "invalid block")
	}
	return header, true, nil
}

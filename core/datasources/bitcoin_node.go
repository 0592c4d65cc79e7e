package datasources

import (
	"context"
	"time"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/core/types"
	"github.com/gaze-network/estate-ordinals/internal/subscription"
	"github.com/gaze-network/estate-ordinals/pkg/logger"
	"github.com/gaze-network/estate-ordinals/pkg/logger/slogx"
)

// Make sure to implement the BlockFeed interface
var _ BlockFeed = (*BitcoinNodeDatasource)(nil)

const DefaultPollInterval = 30 * time.Second

// BitcoinNodeClient is the subset of the Bitcoin Core RPC the feed uses.
type BitcoinNodeClient interface {
	GetBestBlockHash() (*chainhash.Hash, error)
	GetBlockHeaderVerbose(blockHash *chainhash.Hash) (*btcjson.GetBlockHeaderVerboseResult, error)
}

var _ BitcoinNodeClient = (*rpcclient.Client)(nil)

// BitcoinNodeDatasource polls a Bitcoin node for its best block.
type BitcoinNodeDatasource struct {
	btcclient    BitcoinNodeClient
	pollInterval time.Duration
}

func NewBitcoinNode(btcclient BitcoinNodeClient, pollInterval time.Duration) *BitcoinNodeDatasource {
	return &BitcoinNodeDatasource{
		btcclient:    btcclient,
		pollInterval: utils.Default(pollInterval, DefaultPollInterval),
	}
}

func (d *BitcoinNodeDatasource) Name() string {
	return "bitcoin_node"
}

// Subscribe polls `getbestblockhash` and sends the header whenever the tip changes.
// The current tip is sent right after subscribing.
func (d *BitcoinNodeDatasource) Subscribe(ctx context.Context, ch chan<- types.BlockHeader) (*subscription.ClientSubscription[types.BlockHeader], error) {
	// fail fast if the node is unreachable
	tip, err := d.getTip()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	sub := subscription.NewSubscription(ch)
	go func() {
		ctx := logger.WithContext(ctx, slogx.String("datasource", d.Name()))
		ticker := time.NewTicker(d.pollInterval)
		defer ticker.Stop()

		last := tip
		if err := sub.Send(ctx, tip); err != nil {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.Done():
				return
			case <-ticker.C:
			}

			header, err := d.getTip()
			if err != nil {
				if err := sub.SendError(ctx, errors.Wrap(err, "failed to poll best block")); err != nil {
					logger.WarnContext(ctx, "Failed to send subscription error", slogx.Error(err))
				}
				return
			}
			if header.Hash == last.Hash {
				continue
			}
			last = header

			logger.DebugContext(ctx, "New block found", slogx.Int64("height", header.Height), slogx.Stringer("hash", header.Hash))
			if err := sub.Send(ctx, header); err != nil {
				return
			}
		}
	}()

	return sub.Client(), nil
}

func (d *BitcoinNodeDatasource) getTip() (types.BlockHeader, error) {
	hash, err := d.btcclient.GetBestBlockHash()
	if err != nil {
		return types.BlockHeader{}, errors.Wrap(err, "failed to get best block hash")
	}
	verbose, err := d.btcclient.GetBlockHeaderVerbose(hash)
	if err != nil {
		return types.BlockHeader{}, errors.Wrapf(err, "failed to get block header %s", hash)
	}
	header, err := types.ParseBlockHeader(verbose.Hash, int64(verbose.Height), verbose.PreviousHash, verbose.Time)
	if err != nil {
		return types.BlockHeader{}, errors.Wrap(err, "invalid block header")
	}
	return header, nil
}

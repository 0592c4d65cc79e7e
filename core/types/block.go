package types

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// BlockHeader is the part of a block the service reacts to.
type BlockHeader struct {
	Hash      chainhash.Hash
	Height    int64
	PrevBlock chainhash.Hash
	Timestamp time.Time
}

// ParseBlockHeader builds a BlockHeader from string encoded hashes and a unix timestamp.
// An empty previous hash (genesis) is left as the zero hash.
func ParseBlockHeader(hash string, height int64, prevBlock string, unixTime int64) (BlockHeader, error) {
	h, err := chainhash.NewHashFromStr(hash)
	if err != nil {
		return BlockHeader{}, err
	}
	header := BlockHeader{
		Hash:      *h,
		Height:    height,
		Timestamp: time.Unix(unixTime, 0).UTC(),
	}
	if prevBlock != "" {
		prev, err := chainhash.NewHashFromStr(prevBlock)
		if err != nil {
			return BlockHeader{}, err
		}
		header.PrevBlock = *prev
	}
	return header, nil
}

package ordinals

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common/errs"
)

// InscriptionId identifies an inscription by its reveal transaction and envelope index,
// rendered as `<txid>i<index>`.
type InscriptionId struct {
	TxHash chainhash.Hash
	Index  uint32
}

func (i InscriptionId) String() string {
	return fmt.Sprintf("%si%d", i.TxHash.String(), i.Index)
}

func NewInscriptionId(txHash chainhash.Hash, index uint32) InscriptionId {
	return InscriptionId{
		TxHash: txHash,
		Index:  index,
	}
}

var ErrInscriptionIdInvalidSeparator = errors.Wrap(errs.InvalidArgument, "invalid inscription id: must contain exactly one separator")

func NewInscriptionIdFromString(s string) (InscriptionId, error) {
	txid, rawIndex, ok := strings.Cut(s, "i")
	if !ok || strings.Contains(rawIndex, "i") {
		return InscriptionId{}, errors.WithStack(ErrInscriptionIdInvalidSeparator)
	}
	// chainhash accepts short strings and left-pads them, a txid is always 32 bytes.
	if len(txid) != chainhash.MaxHashStringSize {
		return InscriptionId{}, errors.Wrapf(errs.InvalidArgument, "invalid inscription id: txid must be %d hex characters", chainhash.MaxHashStringSize)
	}
	if _, err := hex.DecodeString(txid); err != nil {
		return InscriptionId{}, errors.Wrap(errs.InvalidArgument, "invalid inscription id: txid is not hex")
	}
	txHash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return InscriptionId{}, errors.WithSecondaryError(errors.Wrap(errs.InvalidArgument, "invalid inscription id: cannot parse txHash"), err)
	}
	if rawIndex == "" || (len(rawIndex) > 1 && rawIndex[0] == '0') {
		return InscriptionId{}, errors.Wrap(errs.InvalidArgument, "invalid inscription id: malformed index")
	}
	index, err := strconv.ParseUint(rawIndex, 10, 32)
	if err != nil {
		return InscriptionId{}, errors.WithSecondaryError(errors.Wrap(errs.InvalidArgument, "invalid inscription id: cannot parse index"), err)
	}
	return InscriptionId{
		TxHash: *txHash,
		Index:  uint32(index),
	}, nil
}

// IsValidInscriptionId reports whether s is a well-formed inscription id.
func IsValidInscriptionId(s string) bool {
	_, err := NewInscriptionIdFromString(s)
	return err == nil
}

// MarshalJSON implements json.Marshaler
func (r InscriptionId) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (r *InscriptionId) UnmarshalJSON(data []byte) error {
	// data must be quoted
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("must be string")
	}
	data = data[1 : len(data)-1]
	parsed, err := NewInscriptionIdFromString(string(data))
	if err != nil {
		return errors.WithStack(err)
	}
	*r = parsed
	return nil
}

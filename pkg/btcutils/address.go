package btcutils

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common/errs"
)

// AddressType is the type of bitcoin address.
// It's an alias of txscript.ScriptClass
type AddressType = txscript.ScriptClass

// Types of bitcoin address
const (
	AddressP2WPKH  = txscript.WitnessV0PubKeyHashTy
	AddressP2TR    = txscript.WitnessV1TaprootTy
	AddressTaproot = AddressP2TR // Alias of P2TR
	AddressP2SH    = txscript.ScriptHashTy
	AddressP2PKH   = txscript.PubKeyHashTy
	AddressP2WSH   = txscript.WitnessV0ScriptHashTy
)

// ValidateAddress returns an [errs.InvalidArgument] error unless address decodes
// to a supported address type of the given network.
//
// Only the encoding is checked, ownership or spendability are not.
func ValidateAddress(address string, net *chaincfg.Params) error {
	_, err := GetAddressType(address, net)
	return errors.WithStack(err)
}

// IsAddress reports whether address is valid for net.
func IsAddress(address string, net *chaincfg.Params) bool {
	return ValidateAddress(address, net) == nil
}

// GetAddressType returns the address type of the passed address.
func GetAddressType(address string, net *chaincfg.Params) (AddressType, error) {
	if address == "" {
		return 0, errors.Wrap(errs.InvalidArgument, "address is empty")
	}
	if net == nil {
		return 0, errors.Wrap(errs.InvalidArgument, "network params is required")
	}

	decoded, err := btcutil.DecodeAddress(address, net)
	if err != nil {
		return 0, errors.WithSecondaryError(errors.Wrapf(errs.InvalidArgument, "can't decode address `%s` for network `%s`", address, net.Name), err)
	}
	// bech32 addresses are decoded with their own hrp, regardless of net.
	if !decoded.IsForNet(net) {
		return 0, errors.Wrapf(errs.InvalidArgument, "address `%s` is not for network `%s`", address, net.Name)
	}

	switch decoded.(type) {
	case *btcutil.AddressWitnessPubKeyHash:
		return AddressP2WPKH, nil
	case *btcutil.AddressTaproot:
		return AddressP2TR, nil
	case *btcutil.AddressScriptHash:
		return AddressP2SH, nil
	case *btcutil.AddressPubKeyHash:
		return AddressP2PKH, nil
	case *btcutil.AddressWitnessScriptHash:
		return AddressP2WSH, nil
	default:
		return 0, errors.Wrap(errs.InvalidArgument, "unsupported address type")
	}
}

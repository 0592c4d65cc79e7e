package btcutils_test

import (
	"fmt"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/gaze-network/estate-ordinals/common/errs"
	"github.com/gaze-network/estate-ordinals/pkg/btcutils"
	"github.com/stretchr/testify/assert"
)

func TestGetAddressType(t *testing.T) {
	type testCase struct {
		Address    string
		DefaultNet *chaincfg.Params

		ExpectedError       error
		ExpectedAddressType btcutils.AddressType
	}

	cases := []testCase{
		{
			Address:             "bc1qfpgdxtpl7kz5qdus2pmexyjaza99c28q8uyczh",
			DefaultNet:          &chaincfg.MainNetParams,
			ExpectedAddressType: btcutils.AddressP2WPKH,
		},
		{
			Address:             "bc1p7h87kqsmpzatddzhdhuy9gmxdpvn5kvar6hhqlgau8d2ffa0pa3qvz5d38",
			DefaultNet:          &chaincfg.MainNetParams,
			ExpectedAddressType: btcutils.AddressP2TR,
		},
		{
			Address:             "3Ccte7SJz71tcssLPZy3TdWz5DTPeNRbPw",
			DefaultNet:          &chaincfg.MainNetParams,
			ExpectedAddressType: btcutils.AddressP2SH,
		},
		{
			Address:             "1KrRZSShVkdc8J71CtY4wdw46Rx3BRLKyH",
			DefaultNet:          &chaincfg.MainNetParams,
			ExpectedAddressType: btcutils.AddressP2PKH,
		},
		{
			Address:             "bc1qeklep85ntjz4605drds6aww9u0qr46qzrv5xswd35uhjuj8ahfcqgf6hak",
			DefaultNet:          &chaincfg.MainNetParams,
			ExpectedAddressType: btcutils.AddressP2WSH,
		},
		{
			Address:             "tb1p7h87kqsmpzatddzhdhuy9gmxdpvn5kvar6hhqlgau8d2ffa0pa3qm2zztg",
			DefaultNet:          &chaincfg.TestNet3Params,
			ExpectedAddressType: btcutils.AddressP2TR,
		},
		{
			Address:             "migbBPcDajPfffrhoLpYFTQNXQFbWbhpz3",
			DefaultNet:          &chaincfg.TestNet3Params,
			ExpectedAddressType: btcutils.AddressP2PKH,
		},
		{
			Address:             "2NCxMvHPTduZcCuUeAiWUpuwHga7Y66y9XJ",
			DefaultNet:          &chaincfg.TestNet3Params,
			ExpectedAddressType: btcutils.AddressP2SH,
		},
		{
			Address:       "tb1qfpgdxtpl7kz5qdus2pmexyjaza99c28qd6ltey",
			DefaultNet:    &chaincfg.MainNetParams,
			ExpectedError: errs.InvalidArgument,
		},
		{
			Address:       "1KrRZSShVkdc8J71CtY4wdw46Rx3BRLKyH",
			DefaultNet:    &chaincfg.TestNet3Params,
			ExpectedError: errs.InvalidArgument,
		},
		{
			Address:       "bc1qfpgdxtpl7kz5qdus2pmexyjaza99c28q8uyczz",
			DefaultNet:    &chaincfg.MainNetParams,
			ExpectedError: errs.InvalidArgument,
		},
		{
			Address:       "",
			DefaultNet:    &chaincfg.MainNetParams,
			ExpectedError: errs.InvalidArgument,
		},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("address:%s", tc.Address), func(t *testing.T) {
			actualAddressType, actualError := btcutils.GetAddressType(tc.Address, tc.DefaultNet)
			if tc.ExpectedError != nil {
				assert.ErrorIs(t, actualError, tc.ExpectedError)
				assert.False(t, btcutils.IsAddress(tc.Address, tc.DefaultNet))
			} else {
				assert.NoError(t, actualError)
				assert.Equal(t, tc.ExpectedAddressType, actualAddressType)
				assert.True(t, btcutils.IsAddress(tc.Address, tc.DefaultNet))
			}
		})
	}
}

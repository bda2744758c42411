package crypto

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

// A throwaway test key. Never fund this address.
const (
	testKeyHex   = "0x4c0883a69102937d6231471b5dbb6204fe512961708279f2e3e8a5d4b8e3e3e8"
	testContract = "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"
)

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	s, err := NewSigner(testKeyHex, "", 137, testContract, 0)
	require.NoError(t, err)
	return s
}

func TestNewSignerRejectsBadKey(t *testing.T) {
	_, err := NewSigner("not-hex", "", 137, testContract, 0)
	require.Error(t, err)
	// The error must not echo the key material back.
	assert.NotContains(t, err.Error(), "not-hex")
}

func TestOrderDigestIsStable(t *testing.T) {
	s := newTestSigner(t)
	payload := OrderPayload{
		Salt:        "12345",
		Maker:       s.Address().Hex(),
		Signer:      s.Address().Hex(),
		Taker:       "0x0000000000000000000000000000000000000000",
		TokenID:     "71321045679252212594626385532706912750332728571942532289631379312455583992563",
		MakerAmount: "9000000",
		TakerAmount: "10000000",
		Expiration:  "0",
		Nonce:       "0",
		FeeRateBps:  "0",
		Side:        0,
	}

	d1, err := s.OrderDigest(payload)
	require.NoError(t, err)
	d2, err := s.OrderDigest(payload)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
	assert.Len(t, d1, 32)

	// Any field change moves the digest.
	payload.Side = 1
	d3, err := s.OrderDigest(payload)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d3)
}

func TestSignOrderProducesRecoverableSignature(t *testing.T) {
	s := newTestSigner(t)
	payload := OrderPayload{
		Salt: "1", Maker: s.Address().Hex(), Signer: s.Address().Hex(),
		Taker: "0x0000000000000000000000000000000000000000", TokenID: "42",
		MakerAmount: "1000000", TakerAmount: "2000000",
		Expiration: "0", Nonce: "0", FeeRateBps: "0",
	}

	sig, err := s.SignOrder(payload)
	require.NoError(t, err)
	assert.Len(t, sig, 2+65*2) // 0x + 65 bytes hex
	assert.Equal(t, "0x", sig[:2])

	// Same payload, same key: deterministic signature.
	sig2, err := s.SignOrder(payload)
	require.NoError(t, err)
	assert.Equal(t, sig, sig2)
}

func TestSignFillsAmountsAndSignature(t *testing.T) {
	s := newTestSigner(t)
	order := &domain.Order{
		TokenID:    "42",
		Side:       domain.OrderSideBuy,
		PriceTicks: domain.PriceToTicks(0.45),
		SizeUnits:  domain.SizeToUnits(20),
	}

	require.NoError(t, s.Sign(context.Background(), order))
	// Buy of 20 shares at 0.45: 9 USDC in, 20 tokens out, both 1e6 scaled.
	assert.Equal(t, "9000000", order.MakerAmount.String())
	assert.Equal(t, "20000000", order.TakerAmount.String())
	assert.NotEmpty(t, order.Signature)

	sell := &domain.Order{
		TokenID:    "42",
		Side:       domain.OrderSideSell,
		PriceTicks: domain.PriceToTicks(0.45),
		SizeUnits:  domain.SizeToUnits(20),
	}
	require.NoError(t, s.Sign(context.Background(), sell))
	assert.Equal(t, "20000000", sell.MakerAmount.String())
	assert.Equal(t, "9000000", sell.TakerAmount.String())
}

func TestSignRejectsNonPositiveAmounts(t *testing.T) {
	s := newTestSigner(t)
	order := &domain.Order{TokenID: "42", Side: domain.OrderSideBuy}
	assert.ErrorIs(t, s.Sign(context.Background(), order), domain.ErrInvalidInput)
}

func TestSignAuthMessage(t *testing.T) {
	s := newTestSigner(t)
	sig, err := s.SignAuthMessage(1700000000, 0)
	require.NoError(t, err)
	assert.Len(t, sig, 2+65*2)
}

func TestKeyRoundTrip(t *testing.T) {
	blob, err := EncryptKey(testKeyHex, "hunter2")
	require.NoError(t, err)

	got, err := DecryptKey(blob, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, testKeyHex[2:], got)

	_, err = DecryptKey(blob, "wrong")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), testKeyHex[2:])
}

func TestResolveKeyPrefersRaw(t *testing.T) {
	got, err := ResolveKey(KeySource{Raw: testKeyHex})
	require.NoError(t, err)
	assert.Equal(t, testKeyHex[2:], got)

	_, err = ResolveKey(KeySource{})
	assert.Error(t, err)
}

func TestL2HeadersDeterministic(t *testing.T) {
	auth := &HMACAuth{Key: "key-1", Secret: "c2VjcmV0", Passphrase: "pass"}
	h1 := auth.L2HeadersAt("0xabc", "POST", "/order", `{"x":1}`, 1700000000)
	h2 := auth.L2HeadersAt("0xabc", "POST", "/order", `{"x":1}`, 1700000000)
	assert.Equal(t, h1, h2)
	assert.Equal(t, "key-1", h1["POLY_API_KEY"])
	assert.Equal(t, "1700000000", h1["POLY_TIMESTAMP"])
	assert.NotEmpty(t, h1["POLY_SIGNATURE"])

	// Redacted String never exposes the secret.
	assert.NotContains(t, auth.String(), "c2VjcmV0")
}

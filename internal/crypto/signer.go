package crypto

import (
	"context"
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

// EIP-712 type hashes, pre-computed keccak256 of the canonical type strings.
var (
	// EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)
	exchangeDomainTypeHash = ethcrypto.Keccak256(
		[]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"),
	)

	// EIP712Domain(string name,string version,uint256 chainId)
	authDomainTypeHash = ethcrypto.Keccak256(
		[]byte("EIP712Domain(string name,string version,uint256 chainId)"),
	)

	// ClobAuth(address address,uint256 timestamp,uint256 nonce)
	clobAuthTypeHash = ethcrypto.Keccak256(
		[]byte("ClobAuth(address address,uint256 timestamp,uint256 nonce)"),
	)

	// Order(uint256 salt,address maker,address signer,address taker,uint256 tokenId,uint256 makerAmount,uint256 takerAmount,uint256 expiration,uint256 nonce,uint256 feeRateBps,uint8 side,uint8 signatureType)
	orderTypeHash = ethcrypto.Keccak256(
		[]byte("Order(uint256 salt,address maker,address signer,address taker,uint256 tokenId,uint256 makerAmount,uint256 takerAmount,uint256 expiration,uint256 nonce,uint256 feeRateBps,uint8 side,uint8 signatureType)"),
	)
)

const (
	exchangeDomainName    = "Polymarket CTF Exchange"
	exchangeDomainVersion = "1"
	authDomainName        = "ClobAuthDomain"
	authDomainVersion     = "1"
)

// OrderPayload is the 12-field CTF Exchange order struct as it appears on the
// wire. Large numbers travel as decimal strings to survive JSON.
type OrderPayload struct {
	Salt          string `json:"salt"`
	Maker         string `json:"maker"`
	Signer        string `json:"signer"`
	Taker         string `json:"taker"`
	TokenID       string `json:"tokenId"`
	MakerAmount   string `json:"makerAmount"`
	TakerAmount   string `json:"takerAmount"`
	Expiration    string `json:"expiration"`
	Nonce         string `json:"nonce"`
	FeeRateBps    string `json:"feeRateBps"`
	Side          int    `json:"side"`          // 0 = BUY, 1 = SELL
	SignatureType int    `json:"signatureType"` // 0 = EOA, 1 = POLY_PROXY, 2 = POLY_GNOSIS_SAFE
}

// Signer signs CTF Exchange orders and CLOB auth messages with a secp256k1
// key. The private key never appears in any error or log output; failures
// report only what operation broke.
type Signer struct {
	privateKey  *ecdsa.PrivateKey
	address     common.Address
	funder      common.Address
	chainID     int
	sigType     int
	exchangeSep []byte // domain separator bound to the verifying contract
	authSep     []byte
}

// NewSigner builds a Signer from a hex private key, the funder address that
// holds the collateral, the chain id (137 for Polygon mainnet), and the CTF
// Exchange verifying contract address.
func NewSigner(privateKeyHex, funderAddress string, chainID int, verifyingContract string, sigType int) (*Signer, error) {
	pk, err := ethcrypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		// Deliberately drop the underlying error: go-ethereum may echo key
		// material back in its message.
		return nil, errors.New("crypto: private key is not a valid secp256k1 key")
	}

	s := &Signer{
		privateKey: pk,
		address:    ethcrypto.PubkeyToAddress(pk.PublicKey),
		funder:     common.HexToAddress(funderAddress),
		chainID:    chainID,
		sigType:    sigType,
	}
	if s.funder == (common.Address{}) {
		s.funder = s.address
	}

	contract := common.HexToAddress(verifyingContract)
	s.exchangeSep = ethcrypto.Keccak256(concatBytes(
		exchangeDomainTypeHash,
		ethcrypto.Keccak256([]byte(exchangeDomainName)),
		ethcrypto.Keccak256([]byte(exchangeDomainVersion)),
		bigIntTo32Bytes(big.NewInt(int64(chainID))),
		common.LeftPadBytes(contract.Bytes(), 32),
	))
	s.authSep = ethcrypto.Keccak256(concatBytes(
		authDomainTypeHash,
		ethcrypto.Keccak256([]byte(authDomainName)),
		ethcrypto.Keccak256([]byte(authDomainVersion)),
		bigIntTo32Bytes(big.NewInt(int64(chainID))),
	))
	return s, nil
}

// Address returns the signer's address derived from the private key.
func (s *Signer) Address() common.Address {
	return s.address
}

// Sign fills order.MakerAmount, order.TakerAmount, and order.Signature from
// the order's fixed-point price and size. It satisfies the executor's
// OrderSigner interface.
func (s *Signer) Sign(ctx context.Context, order *domain.Order) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("crypto: sign order: %w", err)
	}
	if order.PriceTicks <= 0 || order.SizeUnits <= 0 {
		return fmt.Errorf("crypto: sign order: %w", domain.ErrInvalidInput)
	}

	maker, taker := signedAmounts(order.Side, order.PriceTicks, order.SizeUnits)
	order.MakerAmount = maker
	order.TakerAmount = taker

	payload, err := s.payloadFor(order)
	if err != nil {
		return err
	}
	sig, err := s.SignOrder(payload)
	if err != nil {
		return err
	}
	order.Signature = sig
	return nil
}

// signedAmounts converts fixed-point price and size into the integer maker
// and taker amounts the exchange verifies. Both collateral (USDC) and outcome
// tokens use 6 decimals, so size units pass through unchanged and notional is
// price*size scaled back to 1e6.
func signedAmounts(side domain.OrderSide, priceTicks, sizeUnits int64) (maker, taker *big.Int) {
	size := big.NewInt(sizeUnits)
	notional := new(big.Int).Mul(big.NewInt(priceTicks), size)
	notional.Div(notional, big.NewInt(1_000_000))

	if side == domain.OrderSideBuy {
		// Buyer gives collateral, receives outcome tokens.
		return notional, size
	}
	return size, notional
}

func (s *Signer) payloadFor(order *domain.Order) (OrderPayload, error) {
	salt, err := randomSalt()
	if err != nil {
		return OrderPayload{}, err
	}
	side := 0
	if order.Side == domain.OrderSideSell {
		side = 1
	}
	return OrderPayload{
		Salt:          salt.String(),
		Maker:         s.funder.Hex(),
		Signer:        s.address.Hex(),
		Taker:         common.Address{}.Hex(),
		TokenID:       order.TokenID,
		MakerAmount:   order.MakerAmount.String(),
		TakerAmount:   order.TakerAmount.String(),
		Expiration:    "0",
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          side,
		SignatureType: s.sigType,
	}, nil
}

// SignOrder signs an Order struct against the CTF Exchange domain and
// returns the hex-encoded 65-byte signature.
func (s *Signer) SignOrder(order OrderPayload) (string, error) {
	structHash, err := orderStructHash(order)
	if err != nil {
		return "", err
	}
	return s.signDigest(eip712Hash(s.exchangeSep, structHash))
}

// SignAuthMessage signs the ClobAuth message used to derive an API key.
func (s *Signer) SignAuthMessage(timestamp, nonce int64) (string, error) {
	structHash := ethcrypto.Keccak256(concatBytes(
		clobAuthTypeHash,
		common.LeftPadBytes(s.address.Bytes(), 32),
		bigIntTo32Bytes(big.NewInt(timestamp)),
		bigIntTo32Bytes(big.NewInt(nonce)),
	))
	return s.signDigest(eip712Hash(s.authSep, structHash))
}

// OrderDigest exposes the final EIP-712 digest for a payload. Used to verify
// signature stability without a venue round trip.
func (s *Signer) OrderDigest(order OrderPayload) ([]byte, error) {
	structHash, err := orderStructHash(order)
	if err != nil {
		return nil, err
	}
	return eip712Hash(s.exchangeSep, structHash), nil
}

// eip712Hash computes keccak256("\x19\x01" || domainSeparator || structHash).
func eip712Hash(domainSep, structHash []byte) []byte {
	return ethcrypto.Keccak256(concatBytes([]byte{0x19, 0x01}, domainSep, structHash))
}

// signDigest signs a 32-byte digest and returns r || s || v hex with v
// adjusted to {27,28}.
func (s *Signer) signDigest(digest []byte) (string, error) {
	sig, err := ethcrypto.Sign(digest, s.privateKey)
	if err != nil {
		return "", fmt.Errorf("crypto: signing digest: %w", domain.ErrSigningFailed)
	}
	if sig[64] < 27 {
		sig[64] += 27
	}
	return "0x" + hex.EncodeToString(sig), nil
}

// orderStructHash ABI-encodes and hashes an OrderPayload.
func orderStructHash(o OrderPayload) ([]byte, error) {
	uints := make([]*big.Int, 0, 7)
	for _, field := range []struct {
		name, val string
	}{
		{"salt", o.Salt},
		{"tokenId", o.TokenID},
		{"makerAmount", o.MakerAmount},
		{"takerAmount", o.TakerAmount},
		{"expiration", o.Expiration},
		{"nonce", o.Nonce},
		{"feeRateBps", o.FeeRateBps},
	} {
		n, ok := new(big.Int).SetString(field.val, 10)
		if !ok {
			return nil, fmt.Errorf("crypto: invalid %s %q", field.name, field.val)
		}
		uints = append(uints, n)
	}

	return ethcrypto.Keccak256(concatBytes(
		orderTypeHash,
		bigIntTo32Bytes(uints[0]),
		common.LeftPadBytes(common.HexToAddress(o.Maker).Bytes(), 32),
		common.LeftPadBytes(common.HexToAddress(o.Signer).Bytes(), 32),
		common.LeftPadBytes(common.HexToAddress(o.Taker).Bytes(), 32),
		bigIntTo32Bytes(uints[1]),
		bigIntTo32Bytes(uints[2]),
		bigIntTo32Bytes(uints[3]),
		bigIntTo32Bytes(uints[4]),
		bigIntTo32Bytes(uints[5]),
		bigIntTo32Bytes(uints[6]),
		bigIntTo32Bytes(big.NewInt(int64(o.Side))),
		bigIntTo32Bytes(big.NewInt(int64(o.SignatureType))),
	)), nil
}

func randomSalt() (*big.Int, error) {
	max := new(big.Int).Lsh(big.NewInt(1), 64)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return nil, fmt.Errorf("crypto: generating salt: %w", err)
	}
	return n, nil
}

// bigIntTo32Bytes returns the 32-byte big-endian representation of n.
func bigIntTo32Bytes(n *big.Int) []byte {
	b := n.Bytes()
	if len(b) >= 32 {
		return b[:32]
	}
	padded := make([]byte, 32)
	copy(padded[32-len(b):], b)
	return padded
}

func concatBytes(slices ...[]byte) []byte {
	total := 0
	for _, s := range slices {
		total += len(s)
	}
	buf := make([]byte, 0, total)
	for _, s := range slices {
		buf = append(buf, s...)
	}
	return buf
}

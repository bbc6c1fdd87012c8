package crypto

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Domain is the EIP-712 domain separator for gateway executes. It prevents
// replay of signed payloads across chains and contract deployments.
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract common.Address
}

// DefaultDomain returns the signing domain of the production gateway.
func DefaultDomain() Domain {
	return Domain{
		Name:              "Nado",
		Version:           "0.0.1",
		ChainID:           big.NewInt(1),
		VerifyingContract: common.Address{},
	}
}

// OrderPayload is the typed data signed for a place-order execute.
// Amounts and prices are x18 fixed-point; a negative amount sells.
type OrderPayload struct {
	Sender     [32]byte // subaccount (owner ++ name)
	PriceX18   *big.Int
	Amount     *big.Int
	Expiration uint64 // unix seconds; the venue expires the order itself
	Nonce      uint64
	Appendix   uint64 // order-type flags (post-only etc.)
}

// CancelProductsPayload is the typed data signed for cancelling every
// resting order on the given products.
type CancelProductsPayload struct {
	Sender     [32]byte
	ProductIDs []uint32
	Nonce      uint64
}

// TypedSigner produces EIP-712 digests and signatures for gateway executes.
type TypedSigner struct {
	domain Domain
}

func NewTypedSigner(domain Domain) *TypedSigner {
	return &TypedSigner{domain: domain}
}

var domainType = []apitypes.Type{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
}

func (t *TypedSigner) apiDomain() apitypes.TypedDataDomain {
	return apitypes.TypedDataDomain{
		Name:              t.domain.Name,
		Version:           t.domain.Version,
		ChainId:           (*math.HexOrDecimal256)(t.domain.ChainID),
		VerifyingContract: t.domain.VerifyingContract.Hex(),
	}
}

// HashOrder returns the 32-byte digest a place-order execute must be
// signed over. The same digest is the venue-assigned order identifier.
func (t *TypedSigner) HashOrder(order *OrderPayload) ([]byte, error) {
	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": domainType,
			"Order": []apitypes.Type{
				{Name: "sender", Type: "bytes32"},
				{Name: "priceX18", Type: "int128"},
				{Name: "amount", Type: "int128"},
				{Name: "expiration", Type: "uint64"},
				{Name: "nonce", Type: "uint64"},
				{Name: "appendix", Type: "uint64"},
			},
		},
		PrimaryType: "Order",
		Domain:      t.apiDomain(),
		Message: apitypes.TypedDataMessage{
			"sender":     hexutil.Encode(order.Sender[:]),
			"priceX18":   order.PriceX18.String(),
			"amount":     order.Amount.String(),
			"expiration": fmt.Sprintf("%d", order.Expiration),
			"nonce":      fmt.Sprintf("%d", order.Nonce),
			"appendix":   fmt.Sprintf("%d", order.Appendix),
		},
	}
	return t.digest(typedData)
}

// HashCancelProducts returns the digest for a cancel-product-orders execute.
func (t *TypedSigner) HashCancelProducts(cancel *CancelProductsPayload) ([]byte, error) {
	ids := make([]interface{}, len(cancel.ProductIDs))
	for i, id := range cancel.ProductIDs {
		ids[i] = fmt.Sprintf("%d", id)
	}
	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": domainType,
			"CancelProducts": []apitypes.Type{
				{Name: "sender", Type: "bytes32"},
				{Name: "productIds", Type: "uint32[]"},
				{Name: "nonce", Type: "uint64"},
			},
		},
		PrimaryType: "CancelProducts",
		Domain:      t.apiDomain(),
		Message: apitypes.TypedDataMessage{
			"sender":     hexutil.Encode(cancel.Sender[:]),
			"productIds": ids,
			"nonce":      fmt.Sprintf("%d", cancel.Nonce),
		},
	}
	return t.digest(typedData)
}

// SignOrder signs an order payload, returning (digest, signature).
func (t *TypedSigner) SignOrder(signer *Signer, order *OrderPayload) ([]byte, []byte, error) {
	hash, err := t.HashOrder(order)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash order: %w", err)
	}
	signature, err := signer.Sign(hash)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to sign order: %w", err)
	}
	return hash, signature, nil
}

// SignCancelProducts signs a cancel-products payload.
func (t *TypedSigner) SignCancelProducts(signer *Signer, cancel *CancelProductsPayload) ([]byte, error) {
	hash, err := t.HashCancelProducts(cancel)
	if err != nil {
		return nil, fmt.Errorf("failed to hash cancel: %w", err)
	}
	signature, err := signer.Sign(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to sign cancel: %w", err)
	}
	return signature, nil
}

func (t *TypedSigner) digest(typedData apitypes.TypedData) ([]byte, error) {
	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("failed to hash domain: %w", err)
	}
	typedDataHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to hash message: %w", err)
	}
	// Final digest: keccak256("\x19\x01" || domainSeparator || typedDataHash)
	rawData := []byte(fmt.Sprintf("\x19\x01%s%s", string(domainSeparator), string(typedDataHash)))
	return crypto.Keccak256Hash(rawData).Bytes(), nil
}

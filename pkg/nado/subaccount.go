package nado

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// maxSubaccountName is the room left in a bytes32 after the 20-byte owner.
const maxSubaccountName = 12

// Subaccount identifies a trading subaccount on the gateway: the owner's
// address packed with the subaccount name into a single bytes32.
type Subaccount struct {
	owner common.Address
	name  string
	b32   [32]byte
}

// NewSubaccount derives the subaccount identifier for owner and name.
// The layout is owner(20 bytes) followed by the name, zero-padded to 32.
func NewSubaccount(owner common.Address, name string) (Subaccount, error) {
	if len(name) > maxSubaccountName {
		return Subaccount{}, fmt.Errorf("subaccount name %q exceeds %d bytes", name, maxSubaccountName)
	}
	var b32 [32]byte
	copy(b32[:20], owner.Bytes())
	copy(b32[20:], name)
	return Subaccount{owner: owner, name: name, b32: b32}, nil
}

// Owner returns the owning address.
func (s Subaccount) Owner() common.Address { return s.owner }

// Name returns the subaccount name.
func (s Subaccount) Name() string { return s.name }

// Bytes32 returns the packed identifier used in signed payloads.
func (s Subaccount) Bytes32() [32]byte { return s.b32 }

// Hex returns the identifier as a 0x-prefixed 64-char hex string, the form
// the gateway accepts in query parameters.
func (s Subaccount) Hex() string { return hexutil.Encode(s.b32[:]) }

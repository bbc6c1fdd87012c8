package nado

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestNewSubaccount_Layout(t *testing.T) {
	owner := common.HexToAddress("0x00112233445566778899aabbccddeeff00112233")
	sub, err := NewSubaccount(owner, "default")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	want := "0x00112233445566778899aabbccddeeff0011223364656661756c740000000000"
	if sub.Hex() != want {
		t.Errorf("hex = %s, want %s", sub.Hex(), want)
	}

	b32 := sub.Bytes32()
	if common.BytesToAddress(b32[:20]) != owner {
		t.Error("owner bytes not preserved in prefix")
	}
	if string(b32[20:27]) != "default" {
		t.Errorf("name bytes = %q", b32[20:27])
	}
}

func TestNewSubaccount_EmptyName(t *testing.T) {
	owner := common.HexToAddress("0x00112233445566778899aabbccddeeff00112233")
	sub, err := NewSubaccount(owner, "")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if !strings.HasSuffix(sub.Hex(), strings.Repeat("0", 24)) {
		t.Errorf("empty name should zero-pad: %s", sub.Hex())
	}
}

func TestNewSubaccount_NameTooLong(t *testing.T) {
	owner := common.HexToAddress("0x00112233445566778899aabbccddeeff00112233")
	if _, err := NewSubaccount(owner, "thirteenchars"); err == nil {
		t.Error("expected error for 13-byte name")
	}
}

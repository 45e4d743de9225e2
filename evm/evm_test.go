package evm_test

import (
	"testing"

	"github.com/pflow-xyz/go-rental-market/evm"
)

func TestHexToAddress(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		in := "0x00000000000000000000000000000000000000aa"
		addr, err := evm.HexToAddress(in)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if addr.Hex() != in {
			t.Errorf("expected %s, got %s", in, addr.Hex())
		}
	})

	t.Run("NoPrefix", func(t *testing.T) {
		addr, err := evm.HexToAddress("00000000000000000000000000000000000000aa")
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if addr[19] != 0xaa {
			t.Errorf("expected last byte 0xaa, got %#x", addr[19])
		}
	})

	t.Run("BadLength", func(t *testing.T) {
		if _, err := evm.HexToAddress("0xaabb"); err == nil {
			t.Error("expected error for short address")
		}
	})

	t.Run("BadHex", func(t *testing.T) {
		if _, err := evm.HexToAddress("0xzz000000000000000000000000000000000000aa"); err == nil {
			t.Error("expected error for invalid hex")
		}
	})
}

func TestBytesToAddress(t *testing.T) {
	addr := evm.BytesToAddress([]byte{0x01, 0x02})
	if addr[18] != 0x01 || addr[19] != 0x02 {
		t.Errorf("expected right-aligned bytes, got %s", addr.Hex())
	}
}

func TestZeroSentinel(t *testing.T) {
	if !evm.ZeroAddress.IsZero() {
		t.Error("zero address should report IsZero")
	}
	addr := evm.BytesToAddress([]byte{1})
	if addr.IsZero() {
		t.Error("non-zero address should not report IsZero")
	}
}

func TestRoleID(t *testing.T) {
	// keccak256("USER_ROLE") per the ERC-7589 role naming convention.
	user := evm.RoleID("USER_ROLE")
	if user.IsZero() {
		t.Fatal("role id should not be zero")
	}
	if user != evm.RoleID("USER_ROLE") {
		t.Error("role id must be deterministic")
	}
	if user == evm.RoleID("ADMIN_ROLE") {
		t.Error("distinct names must produce distinct role ids")
	}
}

func TestKeccak256(t *testing.T) {
	// Known vector: keccak256("") starts with 0xc5d24601.
	h := evm.Keccak256(nil)
	if h[0] != 0xc5 || h[1] != 0xd2 || h[2] != 0x46 || h[3] != 0x01 {
		t.Errorf("unexpected empty-input digest: %s", h.Hex())
	}

	// Concatenation across arguments matches a single write.
	if evm.Keccak256([]byte("ab"), []byte("c")) != evm.Keccak256([]byte("abc")) {
		t.Error("argument concatenation should not affect the digest")
	}
}

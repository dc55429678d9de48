package rskblock

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/crypto/sha3"
)

func mustEncode(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := rlp.EncodeToBytes(v)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return b
}

func testHeader(t *testing.T) []byte {
	return mustEncode(t, []interface{}{
		[]byte{0x01, 0x02, 0x03},
		uint64(5),
		[]byte("btc-header"),
		[]byte("merkle-proof"),
		[]byte("coinbase"),
	})
}

func TestMMPayloadSize(t *testing.T) {
	size, err := MMPayloadSize(testHeader(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 0x83 010203 + 05 + 0x8A "btc-header"
	if size != 4+1+11 {
		t.Errorf("size = %d, want %d", size, 16)
	}
}

func TestCoinbaseTxn(t *testing.T) {
	txn, err := CoinbaseTxn(testHeader(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(txn, []byte("coinbase")) {
		t.Errorf("coinbase = %q, want %q", txn, "coinbase")
	}

	hash, err := CoinbaseTxHash(testHeader(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := chainhash.DoubleHashB([]byte("coinbase")); !bytes.Equal(hash, want) {
		t.Errorf("hash = %X, want %X", hash, want)
	}
}

func TestBlockHash(t *testing.T) {
	hash, err := BlockHash(testHeader(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h := sha3.NewLegacyKeccak256()
	h.Write(mustEncode(t, []interface{}{
		[]byte{0x01, 0x02, 0x03},
		uint64(5),
		[]byte("btc-header"),
	}))
	if want := h.Sum(nil); !bytes.Equal(hash, want) {
		t.Errorf("hash = %X, want %X", hash, want)
	}
}

func TestInspectorErrors(t *testing.T) {
	tests := []struct {
		name   string
		header []byte
	}{
		{"not rlp", []byte{0xFF, 0x00}},
		{"not a list", mustEncode(t, []byte("string"))},
		{"too few items", mustEncode(t, []interface{}{[]byte{1}, []byte{2}, []byte{3}})},
		{"empty", nil},
	}

	var inspector Inspector
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := inspector.MMPayloadSize(tt.header); err == nil {
				t.Error("MMPayloadSize: expected error, got nil")
			}
			if _, err := inspector.CoinbaseTxHash(tt.header); err == nil {
				t.Error("CoinbaseTxHash: expected error, got nil")
			}
			if _, err := inspector.BlockHash(tt.header); err == nil {
				t.Error("BlockHash: expected error, got nil")
			}
		})
	}
}

func TestCoinbaseTxnNotString(t *testing.T) {
	header := mustEncode(t, []interface{}{
		[]byte{0x01},
		[]byte("btc-header"),
		[]byte("merkle-proof"),
		[]interface{}{[]byte("nested")},
	})
	if _, err := CoinbaseTxn(header); err == nil {
		t.Error("expected error for list coinbase item")
	}
}

func TestEncodedSize(t *testing.T) {
	header := testHeader(t)
	for _, n := range []int{2, 10, len(header)} {
		size, err := EncodedSize(header[:n])
		if err != nil {
			t.Fatalf("prefix %d: unexpected error: %v", n, err)
		}
		if size != len(header) {
			t.Errorf("prefix %d: size = %d, want %d", n, size, len(header))
		}
	}

	long := mustEncode(t, []interface{}{bytes.Repeat([]byte{0xAA}, 300), uint64(1)})
	size, err := EncodedSize(long[:4])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if size != len(long) {
		t.Errorf("size = %d, want %d", size, len(long))
	}

	if _, err := EncodedSize(nil); err == nil {
		t.Error("expected error for empty prefix")
	}
	if _, err := EncodedSize([]byte{0x83, 0x01}); err == nil {
		t.Error("expected error for a string prefix")
	}
}

package rskblock

import (
	"bytes"
	"fmt"
	"math"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/crypto/sha3"
)

// MinHeaderItems is the smallest item count of a merge-mined header: at
// least one payload item followed by the three merge-mining items.
const MinHeaderItems = 4

// mmTrailerItems are the items excluded from the merge-mining payload.
const mmTrailerItems = 2

// Inspector computes advance-blockchain metadata from raw headers.
// It satisfies dongle.BlockInspector.
type Inspector struct{}

func (Inspector) MMPayloadSize(header []byte) (int, error) { return MMPayloadSize(header) }

func (Inspector) CoinbaseTxHash(header []byte) ([]byte, error) { return CoinbaseTxHash(header) }

func (Inspector) BlockHash(header []byte) ([]byte, error) { return BlockHash(header) }

// splitHeader decodes the top-level header list into its encoded items.
func splitHeader(header []byte) ([]rlp.RawValue, error) {
	var items []rlp.RawValue
	if err := rlp.DecodeBytes(header, &items); err != nil {
		return nil, fmt.Errorf("invalid header RLP: %w", err)
	}
	if len(items) < MinHeaderItems {
		return nil, fmt.Errorf("header has %d items, minimum is %d", len(items), MinHeaderItems)
	}
	return items, nil
}

// MMPayloadSize returns the size of the RLP list payload made of every
// header item except the merge-mining merkle proof and coinbase transaction.
func MMPayloadSize(header []byte) (int, error) {
	items, err := splitHeader(header)
	if err != nil {
		return 0, err
	}
	size := 0
	for _, item := range items[:len(items)-mmTrailerItems] {
		size += len(item)
	}
	return size, nil
}

// CoinbaseTxn extracts the merge-mining coinbase transaction, the last header item.
func CoinbaseTxn(header []byte) ([]byte, error) {
	items, err := splitHeader(header)
	if err != nil {
		return nil, err
	}
	content, rest, err := rlp.SplitString(items[len(items)-1])
	if err != nil {
		return nil, fmt.Errorf("invalid coinbase transaction: %w", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("trailing bytes after coinbase transaction")
	}
	return content, nil
}

// CoinbaseTxHash returns the double SHA-256 of the merge-mining coinbase transaction.
func CoinbaseTxHash(header []byte) ([]byte, error) {
	txn, err := CoinbaseTxn(header)
	if err != nil {
		return nil, err
	}
	return chainhash.DoubleHashB(txn), nil
}

// BlockHash returns the Keccak-256 hash of the header without the
// merge-mining merkle proof and coinbase transaction.
func BlockHash(header []byte) ([]byte, error) {
	items, err := splitHeader(header)
	if err != nil {
		return nil, err
	}
	enc, err := rlp.EncodeToBytes(items[:len(items)-mmTrailerItems])
	if err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}
	h := sha3.NewLegacyKeccak256()
	h.Write(enc)
	return h.Sum(nil), nil
}

// EncodedSize returns the full size of an RLP-encoded header from its
// leading bytes, which must cover at least the list prefix.
func EncodedSize(prefix []byte) (int, error) {
	r := bytes.NewReader(prefix)
	size, err := rlp.NewStream(r, math.MaxUint32).List()
	if err != nil {
		return 0, fmt.Errorf("invalid header prefix: %w", err)
	}
	return len(prefix) - r.Len() + int(size), nil
}

package dongle

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// HardenedOffset is added to the index of hardened path elements.
const HardenedOffset = 0x80000000

// KeyID is a BIP-32 derivation path identifying a device key.
type KeyID []uint32

// Well-known signer key paths.
var (
	KeyBTC     = MustParseKeyID("m/44'/0'/0'/0/0")
	KeyRSK     = MustParseKeyID("m/44'/137'/0'/0/0")
	KeyMST     = MustParseKeyID("m/44'/137'/1'/0/0")
	KeyTestBTC = MustParseKeyID("m/44'/1'/0'/0/0")
	KeyTestRSK = MustParseKeyID("m/44'/1'/1'/0/0")
	KeyTestMST = MustParseKeyID("m/44'/1'/2'/0/0")
)

// KeyNames maps short names to the well-known key paths.
var KeyNames = map[string]KeyID{
	"btc":  KeyBTC,
	"rsk":  KeyRSK,
	"mst":  KeyMST,
	"tbtc": KeyTestBTC,
	"trsk": KeyTestRSK,
	"tmst": KeyTestMST,
}

// ParseKeyID parses a path such as "m/44'/0'/0'/0/0". Hardened elements are
// marked with ' or h.
func ParseKeyID(path string) (KeyID, error) {
	parts := strings.Split(strings.TrimSpace(path), "/")
	if len(parts) < 2 || parts[0] != "m" {
		return nil, fmt.Errorf("invalid key path %q: must start with m/", path)
	}
	if len(parts)-1 > 0xFF {
		return nil, fmt.Errorf("invalid key path %q: too deep", path)
	}

	id := make(KeyID, 0, len(parts)-1)
	for _, part := range parts[1:] {
		hardened := strings.HasSuffix(part, "'") || strings.HasSuffix(part, "h")
		if hardened {
			part = part[:len(part)-1]
		}
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil || n >= HardenedOffset {
			return nil, fmt.Errorf("invalid key path %q: bad element %q", path, part)
		}
		if hardened {
			n += HardenedOffset
		}
		id = append(id, uint32(n))
	}
	return id, nil
}

// MustParseKeyID is like ParseKeyID but panics on error.
func MustParseKeyID(path string) KeyID {
	id, err := ParseKeyID(path)
	if err != nil {
		panic(err)
	}
	return id
}

// Bytes returns the wire encoding: the depth followed by each index as a
// little-endian uint32.
func (k KeyID) Bytes() []byte {
	b := make([]byte, 0, 1+4*len(k))
	b = append(b, byte(len(k)))
	for _, index := range k {
		b = binary.LittleEndian.AppendUint32(b, index)
	}
	return b
}

func (k KeyID) String() string {
	var sb strings.Builder
	sb.WriteString("m")
	for _, index := range k {
		if index >= HardenedOffset {
			fmt.Fprintf(&sb, "/%d'", index-HardenedOffset)
		} else {
			fmt.Fprintf(&sb, "/%d", index)
		}
	}
	return sb.String()
}

package dongle

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// derSequenceTag is the DER SEQUENCE tag. The device may set its lowest
// bit to carry the public key recovery parity.
const derSequenceTag = 0x30

// Signature is an ECDSA secp256k1 signature produced by the device.
type Signature struct {
	sig *ecdsa.Signature
}

// ParseSignature decodes a DER signature as returned by the device.
func ParseSignature(der []byte) (*Signature, error) {
	if len(der) == 0 {
		return nil, fmt.Errorf("empty signature")
	}
	normalized := make([]byte, len(der))
	copy(normalized, der)
	if normalized[0] == derSequenceTag|0x01 {
		normalized[0] = derSequenceTag
	}

	sig, err := ecdsa.ParseDERSignature(normalized)
	if err != nil {
		return nil, fmt.Errorf("invalid signature: %w", err)
	}
	return &Signature{sig: sig}, nil
}

// Serialize returns the canonical DER encoding.
func (s *Signature) Serialize() []byte {
	return s.sig.Serialize()
}

func (s *Signature) String() string {
	return hex.EncodeToString(s.Serialize())
}

// Verify checks the signature over hash against a serialized public key,
// such as the one returned by GetPublicKey.
func (s *Signature) Verify(hash, publicKey []byte) (bool, error) {
	pub, err := btcec.ParsePubKey(publicKey)
	if err != nil {
		return false, fmt.Errorf("invalid public key: %w", err)
	}
	return s.sig.Verify(hash, pub), nil
}

package dongle

import (
	"bytes"
	"testing"
)

func TestParseSignature(t *testing.T) {
	hash, der := testSignature(t, "parse")

	t.Run("canonical", func(t *testing.T) {
		sig, err := ParseSignature(der)
		if err != nil {
			t.Fatalf("ParseSignature() error = %v", err)
		}
		if !bytes.Equal(sig.Serialize(), der) {
			t.Errorf("Serialize() = %x, want %x", sig.Serialize(), der)
		}
		ok, err := sig.Verify(hash, testPubKey.SerializeUncompressed())
		if err != nil || !ok {
			t.Errorf("Verify() = (%v, %v), want (true, nil)", ok, err)
		}
	})

	t.Run("parity bit in sequence tag", func(t *testing.T) {
		tagged := append([]byte(nil), der...)
		tagged[0] = 0x31

		sig, err := ParseSignature(tagged)
		if err != nil {
			t.Fatalf("ParseSignature() error = %v", err)
		}
		if !bytes.Equal(sig.Serialize(), der) {
			t.Errorf("Serialize() = %x, want %x", sig.Serialize(), der)
		}
		if tagged[0] != 0x31 {
			t.Error("ParseSignature() modified its input")
		}
	})

	t.Run("wrong hash", func(t *testing.T) {
		sig, err := ParseSignature(der)
		if err != nil {
			t.Fatalf("ParseSignature() error = %v", err)
		}
		other, _ := testSignature(t, "other")
		if ok, _ := sig.Verify(other, testPubKey.SerializeCompressed()); ok {
			t.Error("Verify() accepted a signature over another hash")
		}
	})

	t.Run("bad public key", func(t *testing.T) {
		sig, _ := ParseSignature(der)
		if _, err := sig.Verify(hash, []byte{0x01, 0x02}); err == nil {
			t.Error("Verify() should reject a malformed public key")
		}
	})

	for _, bad := range [][]byte{nil, {0x30}, {0x55, 0x66, 0x77, 0x88}} {
		if _, err := ParseSignature(bad); err == nil {
			t.Errorf("ParseSignature(%x) should fail", bad)
		}
	}
}

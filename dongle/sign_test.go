package dongle

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/moffa90/go-powhsm/protocol"
)

var testPrivKey, testPubKey = btcec.PrivKeyFromBytes(bytes.Repeat([]byte{0x42}, 32))

func testSignature(t *testing.T, msg string) ([]byte, []byte) {
	t.Helper()
	hash := sha256.Sum256([]byte(msg))
	return hash[:], ecdsa.Sign(testPrivKey, hash[:]).Serialize()
}

func unauthorizedCmd(keyID KeyID, hash []byte) []byte {
	cmd := append([]byte{0x02, 0x01}, keyID.Bytes()...)
	return append(cmd, hash...)
}

func TestSignUnauthorized(t *testing.T) {
	ctx := context.Background()
	hash := []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}

	t.Run("ok", func(t *testing.T) {
		d, mock := newTestDongle(t)
		msgHash, der := testSignature(t, "sign me")
		mock.AddResponse(append([]byte{0, 0, 0x81}, der...)...)

		sig, result := d.SignUnauthorized(ctx, KeyRSK, "aabbccddeeff")
		if result != SignOK || !result.OK() {
			t.Fatalf("SignUnauthorized() result = %d, want 0", result)
		}
		if !bytes.Equal(sig.Serialize(), der) {
			t.Errorf("signature = %x, want %x", sig.Serialize(), der)
		}
		ok, err := sig.Verify(msgHash, testPubKey.SerializeCompressed())
		if err != nil || !ok {
			t.Errorf("Verify() = (%v, %v), want (true, nil)", ok, err)
		}
		assertCommands(t, mock, unauthorizedCmd(KeyRSK, hash))
	})

	t.Run("0x prefixed hash", func(t *testing.T) {
		d, mock := newTestDongle(t)
		_, der := testSignature(t, "prefixed")
		mock.AddResponse(append([]byte{0, 0, 0x81}, der...)...)

		if _, result := d.SignUnauthorized(ctx, KeyRSK, "0xaabbccddeeff"); result != SignOK {
			t.Fatalf("SignUnauthorized() result = %d, want 0", result)
		}
		assertCommands(t, mock, unauthorizedCmd(KeyRSK, hash))
	})

	t.Run("invalid signature", func(t *testing.T) {
		d, mock := newTestDongle(t)
		mock.AddResponse(0, 0, 0x81, 0x55, 0x66, 0x77, 0x88)

		sig, result := d.SignUnauthorized(ctx, KeyRSK, "aabbccddeeff")
		if sig != nil || result != SignErrUnexpected {
			t.Fatalf("SignUnauthorized() = (%v, %d), want (nil, -10)", sig, result)
		}
		assertCommands(t, mock, unauthorizedCmd(KeyRSK, hash))
	})

	t.Run("invalid hash", func(t *testing.T) {
		d, mock := newTestDongle(t)
		sig, result := d.SignUnauthorized(ctx, KeyRSK, "not-a-hex")
		if sig != nil || result != SignErrHash {
			t.Fatalf("SignUnauthorized() = (%v, %d), want (nil, -5)", sig, result)
		}
		if len(mock.commands) != 0 {
			t.Errorf("sent %d commands, want none", len(mock.commands))
		}
	})

	errorTests := []struct {
		name  string
		queue func(*MockTransport)
		want  SignResult
	}{
		{"data_size", func(m *MockTransport) { m.AddStatus(0x6A87) }, SignErrHash},
		{"data_size_noauth", func(m *MockTransport) { m.AddStatus(0x6A91) }, SignErrHash},
		{"invalid_path", func(m *MockTransport) { m.AddStatus(0x6A8F) }, SignErrPath},
		{"data_size_auth", func(m *MockTransport) { m.AddStatus(0x6A90) }, SignErrPath},
		{"unknown", func(m *MockTransport) { m.AddStatus(0x6AFF) }, SignErrUnexpected},
		{"btc_tx", func(m *MockTransport) { m.AddResponse(0, 0, 0x02) }, SignErrHash},
		{"unexpected", func(m *MockTransport) { m.AddResponse(0, 0, 0xAA) }, SignErrUnexpected},
		{"timeout", func(m *MockTransport) { m.AddError(fmt.Errorf("read: %w", protocol.ErrTimeout)) }, SignErrUnexpected},
		{"comm_error", func(m *MockTransport) { m.AddError(errors.New("unplugged")) }, SignErrUnexpected},
	}

	for _, tt := range errorTests {
		t.Run(tt.name, func(t *testing.T) {
			d, mock := newTestDongle(t)
			tt.queue(mock)

			sig, result := d.SignUnauthorized(ctx, KeyRSK, "aabbccddeeff")
			if sig != nil || result != tt.want {
				t.Fatalf("SignUnauthorized() = (%v, %d), want (nil, %d)", sig, result, tt.want)
			}
			assertCommands(t, mock, unauthorizedCmd(KeyRSK, hash))
		})
	}
}

func authorizedRequest() *AuthorizedSignRequest {
	return &AuthorizedSignRequest{
		KeyID:              KeyBTC,
		InputIndex:         1,
		BTCTx:              buf(20),
		SighashMode:        SighashLegacy,
		Receipt:            buf(30),
		ReceiptMerkleProof: [][]byte{buf(5), buf(3)},
	}
}

func TestSignAuthorized(t *testing.T) {
	ctx := context.Background()
	req := authorizedRequest()

	btcTx, err := protocol.BuildBTCTxPayload(req.BTCTx, 0x00, nil)
	if err != nil {
		t.Fatal(err)
	}
	proof := []byte{0x02, 0x05, 0, 1, 2, 3, 4, 0x03, 0, 1, 2}
	pathCmd := append(append([]byte{0x02, 0x01}, KeyBTC.Bytes()...), 0x01, 0x00, 0x00, 0x00)

	t.Run("ok", func(t *testing.T) {
		d, mock := newTestDongle(t)
		_, der := testSignature(t, "authorized")
		mock.AddResponse(0, 0, 0x02, 16)
		mock.AddResponse(0, 0, 0x02, 16)
		mock.AddResponse(0, 0, 0x04, 30)
		mock.AddResponse(0, 0, 0x08, 16)
		mock.AddResponse(append([]byte{0, 0, 0x81}, der...)...)

		sig, result, err := d.SignAuthorized(ctx, req)
		if err != nil || result != SignOK {
			t.Fatalf("SignAuthorized() = (%d, %v), want (0, nil)", result, err)
		}
		if !bytes.Equal(sig.Serialize(), der) {
			t.Errorf("signature = %x, want %x", sig.Serialize(), der)
		}
		assertCommands(t, mock,
			pathCmd,
			append([]byte{0x02, 0x02}, btcTx[:16]...),
			append([]byte{0x02, 0x02}, btcTx[16:]...),
			append([]byte{0x02, 0x04}, req.Receipt...),
			append([]byte{0x02, 0x08}, proof...),
		)
	})

	t.Run("segwit payload", func(t *testing.T) {
		d, mock := newTestDongle(t)
		_, der := testSignature(t, "segwit")
		segwit := *req
		segwit.SighashMode = SighashSegwit
		segwit.WitnessScript = []byte{0x51, 0x52}
		segwit.OutpointValue = 0x0102

		mock.AddResponse(0, 0, 0x02, 0xFF)
		mock.AddResponse(append([]byte{0, 0, 0x81}, der...)...)

		if _, result, err := d.SignAuthorized(ctx, &segwit); err != nil || result != SignOK {
			t.Fatalf("SignAuthorized() = (%d, %v), want (0, nil)", result, err)
		}
		extradata := []byte{0x51, 0x52, 0x02, 0x01, 0, 0, 0, 0, 0, 0}
		payload, _ := protocol.BuildBTCTxPayload(segwit.BTCTx, 0x01, extradata)
		assertCommands(t, mock, pathCmd, append([]byte{0x02, 0x02}, payload...))
	})

	statusTests := []struct {
		name   string
		replay int
		sw     uint16
		want   SignResult
	}{
		{"invalid path", 0, 0x6A8F, SignErrPath},
		{"btc tx rejected", 1, 0x6A8D, SignErrBTCTx},
		{"sighash mode rejected", 1, 0x6A97, SignErrBTCTx},
		{"receipt rejected", 3, 0x6A8A, SignErrReceipt},
		{"merkle proof rejected", 4, 0x6A96, SignErrMerkleProof},
		{"unknown status", 2, 0x6AFF, SignErrUnexpected},
	}
	script := [][]byte{
		{0, 0, 0x02, 16},
		{0, 0, 0x02, 16},
		{0, 0, 0x04, 30},
		{0, 0, 0x08, 16},
	}

	for _, tt := range statusTests {
		t.Run(tt.name, func(t *testing.T) {
			d, mock := newTestDongle(t)
			for _, r := range script[:tt.replay] {
				mock.AddResponse(r...)
			}
			mock.AddStatus(tt.sw)

			sig, result, err := d.SignAuthorized(ctx, req)
			if err != nil || sig != nil || result != tt.want {
				t.Fatalf("SignAuthorized() = (%v, %d, %v), want (nil, %d, nil)", sig, result, err, tt.want)
			}
			if len(mock.commands) != tt.replay+1 {
				t.Errorf("sent %d commands, want %d", len(mock.commands), tt.replay+1)
			}
		})
	}

	t.Run("transport fault", func(t *testing.T) {
		d, mock := newTestDongle(t)
		mock.AddResponse(0, 0, 0x02, 16)
		mock.AddError(fmt.Errorf("read: %w", protocol.ErrTimeout))

		_, result, err := d.SignAuthorized(ctx, req)
		var te *TimeoutError
		if !errors.As(err, &te) || result != SignErrUnexpected {
			t.Fatalf("SignAuthorized() = (%d, %v), want (-10, *TimeoutError)", result, err)
		}
	})

	t.Run("unexpected op", func(t *testing.T) {
		d, mock := newTestDongle(t)
		mock.AddResponse(0, 0, 0x77)

		_, result, err := d.SignAuthorized(ctx, req)
		if err != nil || result != SignErrUnexpected {
			t.Fatalf("SignAuthorized() = (%d, %v), want (-10, nil)", result, err)
		}
	})

	t.Run("request past end of stream", func(t *testing.T) {
		d, mock := newTestDongle(t)
		mock.AddResponse(0, 0, 0x04, 30)
		mock.AddResponse(0, 0, 0x04, 30)
		mock.AddResponse(0, 0, 0x04, 30)

		_, result, err := d.SignAuthorized(ctx, req)
		if err != nil || result != SignErrUnexpected {
			t.Fatalf("SignAuthorized() = (%d, %v), want (-10, nil)", result, err)
		}
		if len(mock.commands) != 3 {
			t.Errorf("sent %d commands, want 3", len(mock.commands))
		}
	})

	t.Run("local validation", func(t *testing.T) {
		tests := []struct {
			name   string
			modify func(*AuthorizedSignRequest)
			want   SignResult
		}{
			{"empty tx", func(r *AuthorizedSignRequest) { r.BTCTx = nil }, SignErrBTCTx},
			{"bad sighash mode", func(r *AuthorizedSignRequest) { r.SighashMode = 7 }, SignErrBTCTx},
			{"oversized proof node", func(r *AuthorizedSignRequest) { r.ReceiptMerkleProof = [][]byte{buf(256)} }, SignErrMerkleProof},
			{"empty key id", func(r *AuthorizedSignRequest) { r.KeyID = nil }, SignErrPath},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				d, mock := newTestDongle(t)
				r := authorizedRequest()
				tt.modify(r)

				_, result, err := d.SignAuthorized(ctx, r)
				if err != nil || result != tt.want {
					t.Fatalf("SignAuthorized() = (%d, %v), want (%d, nil)", result, err, tt.want)
				}
				if len(mock.commands) != 0 {
					t.Errorf("sent %d commands, want none", len(mock.commands))
				}
			})
		}
	})
}

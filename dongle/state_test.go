package dongle

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/moffa90/go-powhsm/protocol"
)

func hashReply(selector, fill byte) []byte {
	return append([]byte{0, 0, 0x01, selector}, bytes.Repeat([]byte{fill}, 32)...)
}

var stateCommands = [][]byte{
	{0x20, 0x01, 0x01},
	{0x20, 0x01, 0x02},
	{0x20, 0x01, 0x03},
	{0x20, 0x01, 0x05},
	{0x20, 0x01, 0x81},
	{0x20, 0x01, 0x82},
	{0x20, 0x01, 0x84},
	{0x20, 0x02},
	{0x20, 0x03},
}

func queueHashes(mock *MockTransport) {
	mock.AddResponse(hashReply(0x01, 0x11)...)
	mock.AddResponse(hashReply(0x02, 0x22)...)
	mock.AddResponse(hashReply(0x03, 0x33)...)
	mock.AddResponse(hashReply(0x05, 0x44)...)
	mock.AddResponse(hashReply(0x81, 0x55)...)
	mock.AddResponse(hashReply(0x82, 0x66)...)
	mock.AddResponse(hashReply(0x84, 0x77)...)
}

func TestGetBlockchainState(t *testing.T) {
	d, mock := newTestDongle(t)
	queueHashes(mock)
	mock.AddResponse(0, 0, 0x02, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66)
	mock.AddResponse(0, 0, 0x03, 0x00, 0xFF, 0xFF)

	state, err := d.GetBlockchainState(context.Background())
	if err != nil {
		t.Fatalf("GetBlockchainState() error = %v", err)
	}

	want := map[string]interface{}{
		"best_block":                   "11111111111111111111111111111111" + "11111111111111111111111111111111",
		"newest_valid_block":           "22222222222222222222222222222222" + "22222222222222222222222222222222",
		"ancestor_block":               "33333333333333333333333333333333" + "33333333333333333333333333333333",
		"ancestor_receipts_root":       "44444444444444444444444444444444" + "44444444444444444444444444444444",
		"updating.best_block":          "55555555555555555555555555555555" + "55555555555555555555555555555555",
		"updating.newest_valid_block":  "66666666666666666666666666666666" + "66666666666666666666666666666666",
		"updating.next_expected_block": "77777777777777777777777777777777" + "77777777777777777777777777777777",
		"updating.total_difficulty":    big.NewInt(0x112233445566),
		"updating.in_progress":         false,
		"updating.already_validated":   true,
		"updating.found_best_block":    true,
	}
	if diff := cmp.Diff(want, state.Map(), cmp.Comparer(func(a, b *big.Int) bool { return a.Cmp(b) == 0 })); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
	assertCommands(t, mock, stateCommands...)
}

func TestGetBlockchainStateErrors(t *testing.T) {
	tests := []struct {
		name  string
		queue func(*MockTransport)
		sent  int
	}{
		{
			name: "hash",
			queue: func(m *MockTransport) {
				m.AddResponse(hashReply(0x01, 0x11)...)
				m.AddResponse(hashReply(0x02, 0x22)...)
				m.AddResponse(hashReply(0x03, 0x33)...)
				m.AddResponse(hashReply(0x05, 0x44)...)
				m.AddResponse(0, 0, 0xAA)
			},
			sent: 5,
		},
		{
			name: "selector mismatch",
			queue: func(m *MockTransport) {
				m.AddResponse(hashReply(0x02, 0x11)...)
			},
			sent: 1,
		},
		{
			name: "difficulty",
			queue: func(m *MockTransport) {
				queueHashes(m)
				m.AddError(errors.New("a-message"))
			},
			sent: 8,
		},
		{
			name: "flags",
			queue: func(m *MockTransport) {
				queueHashes(m)
				m.AddResponse(0, 0, 0x02, 0xFF)
				m.AddResponse(0, 0, 0x04)
			},
			sent: 9,
		},
		{
			name: "status word",
			queue: func(m *MockTransport) {
				m.AddStatus(protocol.ErrGeneralWrongCommand)
			},
			sent: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, mock := newTestDongle(t)
			tt.queue(mock)

			state, err := d.GetBlockchainState(context.Background())
			if err == nil || state != nil {
				t.Fatalf("GetBlockchainState() = (%v, %v), want an error", state, err)
			}
			if !errors.Is(err, ErrDongle) {
				t.Errorf("error %v should match ErrDongle", err)
			}
			assertCommands(t, mock, stateCommands[:tt.sent]...)
		})
	}
}

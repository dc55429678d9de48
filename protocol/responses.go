package protocol

import (
	"fmt"
	"math/big"
)

// Response is the data returned by the device for one exchange, with the
// trailing status word already removed by the transport.
//
// Response structure:
//
//	[HDR(2)][OP][PAYLOAD...]
//
// HDR is the two-byte header preceding the op. Lifecycle queries read their
// fields positionally from the whole buffer.
type Response []byte

// Op returns the op byte. The second return value is false when the
// response is too short to carry one.
func (r Response) Op() (byte, bool) {
	if len(r) <= ResponseHeaderSize {
		return 0, false
	}
	return r[ResponseHeaderSize], true
}

// HasOp reports whether the response carries the given op.
func (r Response) HasOp(op byte) bool {
	got, ok := r.Op()
	return ok && got == op
}

// Payload returns the bytes following the op.
func (r Response) Payload() []byte {
	if len(r) <= ResponseHeaderSize+1 {
		return nil
	}
	return r[ResponseHeaderSize+1:]
}

// Byte returns the byte at position i, or false if the response is shorter.
func (r Response) Byte(i int) (byte, bool) {
	if i < 0 || i >= len(r) {
		return 0, false
	}
	return r[i], true
}

// ParseChunkRequest extracts the chunk size the device requests with op.
//
// Data format:
//
//	[HDR(2)][OP][SIZE(1)]
func ParseChunkRequest(r Response, op byte) (int, error) {
	if !r.HasOp(op) {
		return 0, fmt.Errorf("expected op 0x%02X in chunk request, got %X", op, []byte(r))
	}
	payload := r.Payload()
	if len(payload) < 1 {
		return 0, fmt.Errorf("chunk request carries no size")
	}
	return int(payload[0]), nil
}

// ParseVersionResponse parses the Version command response.
//
// Data format:
//
//	[HDR(2)][MAJOR][MINOR][PATCH]
func ParseVersionResponse(r Response) (*FirmwareVersion, error) {
	if len(r) < ResponseHeaderSize+3 {
		return nil, fmt.Errorf("invalid data length for Version response: got %d bytes, expected %d", len(r), ResponseHeaderSize+3)
	}
	return &FirmwareVersion{
		Major: r[2],
		Minor: r[3],
		Patch: r[4],
	}, nil
}

// ParseModeResponse parses the Current Mode command response.
//
// Data format:
//
//	[B0][MODE]...
func ParseModeResponse(r Response) (Mode, error) {
	b, ok := r.Byte(1)
	if !ok {
		return ModeUnknown, fmt.Errorf("invalid data length for Current Mode response: got %d bytes", len(r))
	}
	return Mode(b), nil
}

// ParseStateHashResponse parses a blockchain state hash response and checks
// that the device echoed the requested selector.
//
// Data format:
//
//	[HDR(2)][0x01][SELECTOR][HASH(32)]
func ParseStateHashResponse(r Response, selector byte) ([]byte, error) {
	if !r.HasOp(StateOpGetHash) {
		return nil, fmt.Errorf("unexpected response for hash selector 0x%02X: %X", selector, []byte(r))
	}
	payload := r.Payload()
	if len(payload) != 1+HashSize {
		return nil, fmt.Errorf("invalid data length for hash selector 0x%02X: got %d bytes, expected %d", selector, len(payload), 1+HashSize)
	}
	if payload[0] != selector {
		return nil, fmt.Errorf("selector mismatch: requested 0x%02X, got 0x%02X", selector, payload[0])
	}
	hash := make([]byte, HashSize)
	copy(hash, payload[1:])
	return hash, nil
}

// ParseStateDifficultyResponse parses the total difficulty response as an
// unsigned big-endian integer.
//
// Data format:
//
//	[HDR(2)][0x02][DIFFICULTY...]
func ParseStateDifficultyResponse(r Response) (*big.Int, error) {
	if !r.HasOp(StateOpGetDifficulty) {
		return nil, fmt.Errorf("unexpected response for difficulty: %X", []byte(r))
	}
	return new(big.Int).SetBytes(r.Payload()), nil
}

// ParseStateFlagsResponse parses the updating flags response. Each flag is
// decoded from its own byte; any non-zero value is true.
//
// Data format:
//
//	[HDR(2)][0x03][IN_PROGRESS][ALREADY_VALIDATED][FOUND_BEST_BLOCK]
func ParseStateFlagsResponse(r Response) (inProgress, alreadyValidated, foundBestBlock bool, err error) {
	if !r.HasOp(StateOpGetFlags) {
		return false, false, false, fmt.Errorf("unexpected response for flags: %X", []byte(r))
	}
	payload := r.Payload()
	if len(payload) != 3 {
		return false, false, false, fmt.Errorf("invalid data length for flags: got %d bytes, expected 3", len(payload))
	}
	return payload[0] != 0, payload[1] != 0, payload[2] != 0, nil
}

// SplitStatus separates the trailing status word from raw device data.
// Transports call it on every reply: a status word other than StatusOK is
// returned as *StatusError.
//
// Data format:
//
//	[DATA...][SW(2, big-endian)]
func SplitStatus(raw []byte) ([]byte, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("reply too short for a status word: %d bytes: %w", len(raw), ErrCommunication)
	}
	n := len(raw) - 2
	sw := uint16(raw[n])<<8 | uint16(raw[n+1])
	if sw != StatusOK {
		return nil, &StatusError{StatusWord: sw}
	}
	return raw[:n], nil
}

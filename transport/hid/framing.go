package hid

import (
	"encoding/binary"
	"fmt"
)

// HID report framing. Each 64-byte report starts with a header:
//
//	[CHANNEL(2, big-endian)][TAG(1)][SEQUENCE(2, big-endian)]
//
// The first report of a message follows the header with the message length
// (2, big-endian). Message bytes fill the rest; the last report is zero padded.
const (
	ReportSize = 64

	channelID  = 0x0101
	tagAPDU    = 0x05
	headerSize = 5
)

// wrapCommand splits apdu into reports.
func wrapCommand(apdu []byte) ([][]byte, error) {
	if len(apdu) > 0xFFFF {
		return nil, fmt.Errorf("apdu too long: %d bytes", len(apdu))
	}
	msg := binary.BigEndian.AppendUint16(nil, uint16(len(apdu)))
	msg = append(msg, apdu...)

	var reports [][]byte
	for seq := 0; len(msg) > 0; seq++ {
		report := make([]byte, ReportSize)
		binary.BigEndian.PutUint16(report[0:], channelID)
		report[2] = tagAPDU
		binary.BigEndian.PutUint16(report[3:], uint16(seq))
		n := copy(report[headerSize:], msg)
		msg = msg[n:]
		reports = append(reports, report)
	}
	return reports, nil
}

// reassembler rebuilds a reply from its reports.
type reassembler struct {
	seq  uint16
	size int
	data []byte
}

// add consumes one report and reports whether the reply is complete.
func (r *reassembler) add(report []byte) (bool, error) {
	if len(report) < headerSize {
		return false, fmt.Errorf("short report: %d bytes", len(report))
	}
	if ch := binary.BigEndian.Uint16(report[0:]); ch != channelID {
		return false, fmt.Errorf("unexpected channel 0x%04X", ch)
	}
	if report[2] != tagAPDU {
		return false, fmt.Errorf("unexpected tag 0x%02X", report[2])
	}
	if seq := binary.BigEndian.Uint16(report[3:]); seq != r.seq {
		return false, fmt.Errorf("unexpected sequence %d, want %d", seq, r.seq)
	}

	payload := report[headerSize:]
	if r.seq == 0 {
		if len(payload) < 2 {
			return false, fmt.Errorf("first report carries no length")
		}
		r.size = int(binary.BigEndian.Uint16(payload))
		r.data = make([]byte, 0, r.size)
		payload = payload[2:]
	}
	r.seq++

	need := r.size - len(r.data)
	if len(payload) > need {
		payload = payload[:need]
	}
	r.data = append(r.data, payload...)
	return len(r.data) == r.size, nil
}

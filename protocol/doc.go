// Package protocol implements the wire format of the powHSM signer and bootloader.
//
// This package provides functions to build command buffers and decode response
// buffers. It performs no I/O; see package dongle for the driver.
//
// # Protocol Overview
//
// Every command is a short APDU-like buffer and every exchange is a single
// request/response round trip:
//
//	Command:  [CLA][CMD][OP][DATA...]
//	Response: [HDR(2)][OP][PAYLOAD...] + [SW(2)]
//
// Where:
//   - CLA = class byte (0x80)
//   - CMD = command family (advance blockchain, sign, state query, ...)
//   - OP  = sub-operation; in responses, what the device expects next
//   - SW  = status word, 0x9000 on success, stripped by the transport
//
// Multi-byte integers are big-endian unless a builder documents otherwise.
//
// # Command Builders
//
// Use the Build* functions to create commands:
//
//	cmd, err := protocol.BuildAdvanceInitCmd(len(blocks))
//	cmd := protocol.BuildBlockMetaCmd(meta)
//	cmd := protocol.BuildBlockChunkCmd(chunk)
//
// # Response Parsers
//
// Responses are wrapped in Response, which exposes the op and payload:
//
//	resp := protocol.Response(data)
//	size, err := protocol.ParseChunkRequest(resp, protocol.AdvanceOpHeaderChunk)
//
// # Error Handling
//
// Transports report status words other than 0x9000 as *StatusError:
//
//	err := &protocol.StatusError{Operation: "advance blockchain", StatusWord: 0x6BA1}
//	// err.Error() returns: "advance blockchain failed: brother order invalid (0x6BA1)"
//
// Timeouts wrap ErrTimeout. Any other transport error is a communication failure.
package protocol

package protocol

import (
	"encoding/binary"
	"fmt"
)

// WithCLA returns cmd prefixed with CLA, leaving it untouched if the prefix
// is already present.
func WithCLA(cmd []byte) []byte {
	if len(cmd) > 0 && cmd[0] == CLA {
		return cmd
	}
	frame := make([]byte, 0, len(cmd)+1)
	frame = append(frame, CLA)
	return append(frame, cmd...)
}

// BuildAdvanceInitCmd constructs the command that starts an advance-blockchain upload.
//
// Frame structure:
//
//	[CLA][0x10][0x02][BLOCK_COUNT(4, big-endian)]
func BuildAdvanceInitCmd(blockCount int) ([]byte, error) {
	if blockCount < 0 || uint64(blockCount) > 0xFFFFFFFF {
		return nil, fmt.Errorf("block count %d out of range", blockCount)
	}

	frame := []byte{CLA, CmdAdvanceBlockchain, AdvanceOpInit}
	return binary.BigEndian.AppendUint32(frame, uint32(blockCount)), nil
}

// BuildBlockMetaCmd constructs a block metadata command.
//
// Frame structure:
//
//	[CLA][0x10][0x03][PAYLOAD_SIZE(2, big-endian)][HASH_PREFIX(4)]
func BuildBlockMetaCmd(meta BlockMetadata) []byte {
	return buildMetaCmd(AdvanceOpHeaderMeta, meta)
}

// BuildBrotherMetaCmd constructs a brother metadata command.
//
// Frame structure:
//
//	[CLA][0x10][0x08][PAYLOAD_SIZE(2, big-endian)][HASH_PREFIX(4)]
func BuildBrotherMetaCmd(meta BlockMetadata) []byte {
	return buildMetaCmd(AdvanceOpBrotherMeta, meta)
}

func buildMetaCmd(op byte, meta BlockMetadata) []byte {
	frame := make([]byte, 0, 3+2+HashPrefixSize)
	frame = append(frame, CLA, CmdAdvanceBlockchain, op)
	frame = binary.BigEndian.AppendUint16(frame, meta.PayloadSize)
	return append(frame, meta.HashPrefix[:]...)
}

// BuildBlockChunkCmd constructs a block chunk command. An empty chunk is valid:
// the device may request a final zero-length chunk.
//
// Frame structure:
//
//	[CLA][0x10][0x04][CHUNK...]
func BuildBlockChunkCmd(chunk []byte) []byte {
	return buildChunkCmd(AdvanceOpHeaderChunk, chunk)
}

// BuildBrotherChunkCmd constructs a brother chunk command.
//
// Frame structure:
//
//	[CLA][0x10][0x09][CHUNK...]
func BuildBrotherChunkCmd(chunk []byte) []byte {
	return buildChunkCmd(AdvanceOpBrotherChunk, chunk)
}

func buildChunkCmd(op byte, chunk []byte) []byte {
	frame := make([]byte, 0, 3+len(chunk))
	frame = append(frame, CLA, CmdAdvanceBlockchain, op)
	return append(frame, chunk...)
}

// BuildBrotherCountCmd constructs the brother count command.
//
// Frame structure:
//
//	[CLA][0x10][0x07][COUNT(1)]
func BuildBrotherCountCmd(count int) ([]byte, error) {
	if count < 0 || count > MaxBrothers {
		return nil, fmt.Errorf("brother count %d exceeds maximum %d", count, MaxBrothers)
	}
	return []byte{CLA, CmdAdvanceBlockchain, AdvanceOpBrotherList, byte(count)}, nil
}

// BuildResetAdvanceCmd constructs the command that resets an advance-blockchain upload.
func BuildResetAdvanceCmd() []byte {
	return []byte{CLA, CmdResetAdvance, ResetOpInit}
}

// BuildStateHashCmd constructs a blockchain state hash query for a selector.
//
// Frame structure:
//
//	[CLA][0x20][0x01][SELECTOR]
func BuildStateHashCmd(selector byte) []byte {
	return []byte{CLA, CmdBlockchainState, StateOpGetHash, selector}
}

// BuildStateDifficultyCmd constructs the total difficulty query.
func BuildStateDifficultyCmd() []byte {
	return []byte{CLA, CmdBlockchainState, StateOpGetDifficulty}
}

// BuildStateFlagsCmd constructs the updating flags query.
func BuildStateFlagsCmd() []byte {
	return []byte{CLA, CmdBlockchainState, StateOpGetFlags}
}

// BuildSignUnauthorizedCmd constructs the unauthorized signing command.
//
// Frame structure:
//
//	[CLA][0x02][0x01][KEY_ID...][HASH...]
func BuildSignUnauthorizedCmd(keyID, hash []byte) ([]byte, error) {
	if len(keyID) == 0 {
		return nil, fmt.Errorf("key id cannot be empty")
	}
	frame := make([]byte, 0, 3+len(keyID)+len(hash))
	frame = append(frame, CLA, CmdSign, SignOpPath)
	frame = append(frame, keyID...)
	return append(frame, hash...), nil
}

// BuildSignPathCmd constructs the first command of an authorized signing sequence.
//
// Frame structure:
//
//	[CLA][0x02][0x01][KEY_ID...][INPUT_INDEX(4, little-endian)]
func BuildSignPathCmd(keyID []byte, inputIndex uint32) ([]byte, error) {
	if len(keyID) == 0 {
		return nil, fmt.Errorf("key id cannot be empty")
	}
	frame := make([]byte, 0, 3+len(keyID)+4)
	frame = append(frame, CLA, CmdSign, SignOpPath)
	frame = append(frame, keyID...)
	return binary.LittleEndian.AppendUint32(frame, inputIndex), nil
}

// BuildSignDataCmd constructs a data command for one of the authorized
// signing streams (BTC transaction, receipt or merkle proof).
//
// Frame structure:
//
//	[CLA][0x02][OP][DATA...]
func BuildSignDataCmd(op byte, data []byte) []byte {
	frame := make([]byte, 0, 3+len(data))
	frame = append(frame, CLA, CmdSign, op)
	return append(frame, data...)
}

// BuildGetPublicKeyCmd constructs the public key query for a key id.
func BuildGetPublicKeyCmd(keyID []byte) []byte {
	frame := make([]byte, 0, 2+len(keyID))
	frame = append(frame, CLA, CmdGetPublicKey)
	return append(frame, keyID...)
}

// BuildSeedCmd constructs the command that uploads one seed byte.
func BuildSeedCmd(index int, b byte) []byte {
	return []byte{CLA, CmdSeed, byte(index), b}
}

// BuildPinCmd constructs the command that uploads one PIN byte.
func BuildPinCmd(index int, b byte) []byte {
	return []byte{CLA, CmdPin, byte(index), b}
}

// BuildPinCmds constructs the length-prefixed PIN upload used by onboarding
// and PIN changes: index 0 carries the length, indexes 1..n the PIN bytes.
func BuildPinCmds(pin []byte) ([][]byte, error) {
	if len(pin) == 0 || len(pin) > 0xFF {
		return nil, fmt.Errorf("invalid PIN length %d", len(pin))
	}
	cmds := make([][]byte, 0, len(pin)+1)
	cmds = append(cmds, BuildPinCmd(0, byte(len(pin))))
	for i, b := range pin {
		cmds = append(cmds, BuildPinCmd(i+1, b))
	}
	return cmds, nil
}

// BuildUnlockCmd constructs the command that validates the uploaded PIN.
func BuildUnlockCmd() []byte {
	return []byte{CLA, CmdUnlock, 0x00, 0x00}
}

// BuildExitMenuCmd constructs the bootloader exit command. With autoexec the
// signer app is started on exit.
func BuildExitMenuCmd(autoexec bool) []byte {
	if autoexec {
		return []byte{CLA, CmdExit, 0x00, 0x00}
	}
	return []byte{CLA, CmdExitMenuNoAutoexec, 0x00, 0x00}
}

// BuildEchoCmd constructs the echo command.
func BuildEchoCmd() []byte {
	return []byte{CLA, CmdEcho, 0x41, 0x42, 0x43}
}

// BuildBTCTxPayload constructs the BTC transaction stream for authorized signing.
//
// Payload structure:
//
//	[LEN(4, little-endian)][SIGHASH_MODE(1)][EXTRADATA_LEN(2, little-endian)][TX...][EXTRADATA...]
//
// LEN counts every byte after itself.
func BuildBTCTxPayload(tx []byte, sighashMode byte, extradata []byte) ([]byte, error) {
	if len(tx) == 0 {
		return nil, fmt.Errorf("BTC transaction cannot be empty")
	}
	if len(extradata) > 0xFFFF {
		return nil, fmt.Errorf("extradata too long: %d bytes, maximum is %d", len(extradata), 0xFFFF)
	}
	rest := 1 + 2 + len(tx) + len(extradata)
	payload := make([]byte, 0, 4+rest)
	payload = binary.LittleEndian.AppendUint32(payload, uint32(rest))
	payload = append(payload, sighashMode)
	payload = binary.LittleEndian.AppendUint16(payload, uint16(len(extradata)))
	payload = append(payload, tx...)
	return append(payload, extradata...), nil
}

// BuildSegwitExtradata constructs the extradata of a segwit input: the
// witness script followed by the spent outpoint value.
//
//	[WITNESS_SCRIPT...][VALUE(8, little-endian)]
func BuildSegwitExtradata(witnessScript []byte, outpointValue uint64) []byte {
	extradata := make([]byte, 0, len(witnessScript)+8)
	extradata = append(extradata, witnessScript...)
	return binary.LittleEndian.AppendUint64(extradata, outpointValue)
}

// BuildMerkleProofPayload constructs the receipt merkle proof stream.
//
// Payload structure:
//
//	[NODE_COUNT(1)]([NODE_LEN(1)][NODE...])*
func BuildMerkleProofPayload(nodes [][]byte) ([]byte, error) {
	if len(nodes) > 0xFF {
		return nil, fmt.Errorf("merkle proof has %d nodes, maximum is %d", len(nodes), 0xFF)
	}
	payload := []byte{byte(len(nodes))}
	for i, node := range nodes {
		if len(node) > 0xFF {
			return nil, fmt.Errorf("merkle proof node %d too long: %d bytes", i, len(node))
		}
		payload = append(payload, byte(len(node)))
		payload = append(payload, node...)
	}
	return payload, nil
}

package dongle

import (
	"fmt"

	"github.com/moffa90/go-powhsm/protocol"
)

// AdvanceResult is the outcome of an advance-blockchain upload.
// Positive values are device success verdicts, negative values failures.
type AdvanceResult int

const (
	AdvanceOKTotal             AdvanceResult = 1
	AdvanceOKPartial           AdvanceResult = 2
	AdvanceErrInit             AdvanceResult = -1
	AdvanceErrComputeMetadata  AdvanceResult = -2
	AdvanceErrMetadata         AdvanceResult = -3
	AdvanceErrBlockData        AdvanceResult = -4
	AdvanceErrInvalidBlock     AdvanceResult = -5
	AdvanceErrPOWInvalid       AdvanceResult = -6
	AdvanceErrChainingMismatch AdvanceResult = -7
	AdvanceErrUnsupportedChain AdvanceResult = -8
	AdvanceErrInvalidBrothers  AdvanceResult = -9
	AdvanceErrUnknown          AdvanceResult = -10
)

// OK reports whether the device accepted the upload.
func (r AdvanceResult) OK() bool { return r > 0 }

func (r AdvanceResult) String() string {
	switch r {
	case AdvanceOKTotal:
		return "ok (total difficulty reached)"
	case AdvanceOKPartial:
		return "ok (partial)"
	case AdvanceErrInit:
		return "init rejected"
	case AdvanceErrComputeMetadata:
		return "metadata generation failed"
	case AdvanceErrMetadata:
		return "metadata rejected"
	case AdvanceErrBlockData:
		return "block data rejected"
	case AdvanceErrInvalidBlock:
		return "invalid block"
	case AdvanceErrPOWInvalid:
		return "invalid proof of work"
	case AdvanceErrChainingMismatch:
		return "chaining mismatch"
	case AdvanceErrUnsupportedChain:
		return "unsupported chain"
	case AdvanceErrInvalidBrothers:
		return "invalid brothers"
	case AdvanceErrUnknown:
		return "unexpected device response"
	default:
		return fmt.Sprintf("AdvanceResult(%d)", int(r))
	}
}

// SignResult is the outcome of a signing operation.
type SignResult int

const (
	SignOK             SignResult = 0
	SignErrPath        SignResult = -1
	SignErrBTCTx       SignResult = -2
	SignErrReceipt     SignResult = -3
	SignErrMerkleProof SignResult = -4
	SignErrHash        SignResult = -5
	SignErrUnexpected  SignResult = -10
)

// OK reports whether a signature was produced.
func (r SignResult) OK() bool { return r == SignOK }

func (r SignResult) String() string {
	switch r {
	case SignOK:
		return "ok"
	case SignErrPath:
		return "invalid key path"
	case SignErrBTCTx:
		return "invalid BTC transaction"
	case SignErrReceipt:
		return "invalid receipt"
	case SignErrMerkleProof:
		return "invalid receipt merkle proof"
	case SignErrHash:
		return "invalid hash"
	case SignErrUnexpected:
		return "unexpected device response"
	default:
		return fmt.Sprintf("SignResult(%d)", int(r))
	}
}

// statusTable maps device status words to result codes for one step of an
// operation. Words missing from the table, and errors that carry no status
// word, map to the fallback.
type statusTable[T ~int] map[uint16]T

func (t statusTable[T]) lookup(err error, fallback T) T {
	sw, ok := protocol.StatusWordOf(err)
	if !ok {
		return fallback
	}
	if code, ok := t[sw]; ok {
		return code
	}
	return fallback
}

var advanceInitTable = statusTable[AdvanceResult]{
	protocol.ErrAdvanceProtInvalid: AdvanceErrInit,
}

var advanceMetaTable = statusTable[AdvanceResult]{
	protocol.ErrAdvanceProtInvalid: AdvanceErrMetadata,
}

// advanceChunkTable covers block chunks, brother count, brother metadata
// and brother chunks.
var advanceChunkTable = statusTable[AdvanceResult]{
	protocol.ErrAdvanceProtInvalid: AdvanceErrBlockData,

	protocol.ErrAdvanceRLPInvalid:          AdvanceErrInvalidBlock,
	protocol.ErrAdvanceBlockTooOld:         AdvanceErrInvalidBlock,
	protocol.ErrAdvanceBlockTooShort:       AdvanceErrInvalidBlock,
	protocol.ErrAdvanceParentHashInvalid:   AdvanceErrInvalidBlock,
	protocol.ErrAdvanceBlockNumInvalid:     AdvanceErrInvalidBlock,
	protocol.ErrAdvanceBlockDiffInvalid:    AdvanceErrInvalidBlock,
	protocol.ErrAdvanceUMMRootInvalid:      AdvanceErrInvalidBlock,
	protocol.ErrAdvanceBTCHeaderInvalid:    AdvanceErrInvalidBlock,
	protocol.ErrAdvanceMerkleProofInvalid:  AdvanceErrInvalidBlock,
	protocol.ErrAdvanceMMRLPLenMismatch:    AdvanceErrInvalidBlock,
	protocol.ErrAdvanceMerkleProofOverflow: AdvanceErrInvalidBlock,
	protocol.ErrAdvanceCbTxnOverflow:       AdvanceErrInvalidBlock,
	protocol.ErrAdvanceBufferOverflow:      AdvanceErrInvalidBlock,

	protocol.ErrAdvanceBTCCbTxnInvalid:     AdvanceErrPOWInvalid,
	protocol.ErrAdvanceBTCDiffMismatch:     AdvanceErrPOWInvalid,
	protocol.ErrAdvanceMerkleProofMismatch: AdvanceErrPOWInvalid,
	protocol.ErrAdvanceMMHashMismatch:      AdvanceErrPOWInvalid,
	protocol.ErrAdvanceCbTxnHashMismatch:   AdvanceErrPOWInvalid,

	protocol.ErrAdvanceChainMismatch:     AdvanceErrChainingMismatch,
	protocol.ErrAdvanceTotalDiffOverflow: AdvanceErrUnsupportedChain,

	protocol.ErrAdvanceBrothersTooMany:       AdvanceErrInvalidBrothers,
	protocol.ErrAdvanceBrotherParentMismatch: AdvanceErrInvalidBrothers,
	protocol.ErrAdvanceBrotherSameAsBlock:    AdvanceErrInvalidBrothers,
	protocol.ErrAdvanceBrotherOrderInvalid:   AdvanceErrInvalidBrothers,
}

var signUnauthorizedTable = statusTable[SignResult]{
	protocol.ErrSignDataSize:       SignErrHash,
	protocol.ErrSignDataSizeNoAuth: SignErrHash,
	protocol.ErrSignInvalidPath:    SignErrPath,
	protocol.ErrSignDataSizeAuth:   SignErrPath,
}

var signPathTable = statusTable[SignResult]{
	protocol.ErrSignDataSize:       SignErrPath,
	protocol.ErrSignInvalidPath:    SignErrPath,
	protocol.ErrSignDataSizeAuth:   SignErrPath,
	protocol.ErrSignDataSizeNoAuth: SignErrPath,
}

var signBTCTxTable = statusTable[SignResult]{
	protocol.ErrSignDataSize:                      SignErrBTCTx,
	protocol.ErrSignTx:                            SignErrBTCTx,
	protocol.ErrSignVout:                          SignErrBTCTx,
	protocol.ErrSignInvalidSighashComputationMode: SignErrBTCTx,
	protocol.ErrSignInvalidExtradataSize:          SignErrBTCTx,
}

var signReceiptTable = statusTable[SignResult]{
	protocol.ErrSignDataSize: SignErrReceipt,
	protocol.ErrSignRLP:      SignErrReceipt,
	protocol.ErrSignRLPInt:   SignErrReceipt,
	protocol.ErrSignRLPDepth: SignErrReceipt,
}

var signMerkleProofTable = statusTable[SignResult]{
	protocol.ErrSignDataSize:             SignErrMerkleProof,
	protocol.ErrSignNodeVersion:          SignErrMerkleProof,
	protocol.ErrSignSharedPrefixTooBig:   SignErrMerkleProof,
	protocol.ErrSignReceiptHashMismatch:  SignErrMerkleProof,
	protocol.ErrSignNodeChainingMismatch: SignErrMerkleProof,
	protocol.ErrSignReceiptRootMismatch:  SignErrMerkleProof,
}

// publicKeyErrors are the status words GetPublicKey reports as *ErrorResult.
var publicKeyErrors = map[uint16]bool{
	protocol.ErrSignDataSize:    true,
	protocol.ErrSignInvalidPath: true,
}

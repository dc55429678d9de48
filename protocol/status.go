package protocol

import "fmt"

// Advance-blockchain status words reported by the device.
const (
	ErrAdvanceProtInvalid           = 0x6B87
	ErrAdvanceRLPInvalid            = 0x6B88
	ErrAdvanceBlockTooOld           = 0x6B89
	ErrAdvanceBlockTooShort         = 0x6B8A
	ErrAdvanceParentHashInvalid     = 0x6B8B
	ErrAdvanceReceiptRootInvalid    = 0x6B8C
	ErrAdvanceBlockNumInvalid       = 0x6B8D
	ErrAdvanceBlockDiffInvalid      = 0x6B8E
	ErrAdvanceUMMRootInvalid        = 0x6B8F
	ErrAdvanceBTCHeaderInvalid      = 0x6B90
	ErrAdvanceMerkleProofInvalid    = 0x6B91
	ErrAdvanceBTCCbTxnInvalid       = 0x6B92
	ErrAdvanceMMRLPLenMismatch      = 0x6B93
	ErrAdvanceBTCDiffMismatch       = 0x6B94
	ErrAdvanceMerkleProofMismatch   = 0x6B95
	ErrAdvanceMMHashMismatch        = 0x6B96
	ErrAdvanceMerkleProofOverflow   = 0x6B97
	ErrAdvanceCbTxnOverflow         = 0x6B98
	ErrAdvanceBufferOverflow        = 0x6B99
	ErrAdvanceChainMismatch         = 0x6B9A
	ErrAdvanceTotalDiffOverflow     = 0x6B9B
	ErrAdvanceAncestorTipMismatch   = 0x6B9C
	ErrAdvanceCbTxnHashMismatch     = 0x6B9D
	ErrAdvanceBrothersTooMany       = 0x6B9E
	ErrAdvanceBrotherParentMismatch = 0x6B9F
	ErrAdvanceBrotherSameAsBlock    = 0x6BA0
	ErrAdvanceBrotherOrderInvalid   = 0x6BA1
	ErrAdvanceUnexpected            = 0x6BFF
)

// Signing status words reported by the device.
const (
	ErrSignDataSize                      = 0x6A87
	ErrSignState                         = 0x6A89
	ErrSignRLP                           = 0x6A8A
	ErrSignRLPInt                        = 0x6A8B
	ErrSignRLPDepth                      = 0x6A8C
	ErrSignTx                            = 0x6A8D
	ErrSignVout                          = 0x6A8E
	ErrSignInvalidPath                   = 0x6A8F
	ErrSignDataSizeAuth                  = 0x6A90
	ErrSignDataSizeNoAuth                = 0x6A91
	ErrSignNodeVersion                   = 0x6A92
	ErrSignSharedPrefixTooBig            = 0x6A93
	ErrSignReceiptHashMismatch           = 0x6A94
	ErrSignNodeChainingMismatch          = 0x6A95
	ErrSignReceiptRootMismatch           = 0x6A96
	ErrSignInvalidSighashComputationMode = 0x6A97
	ErrSignInvalidExtradataSize          = 0x6A98
	ErrSignUnexpected                    = 0x6AFF
)

// General status words.
const (
	ErrGeneralInvalidState = 0x6983
	ErrGeneralWrongCommand = 0x6D00
	ErrGeneralWrongClass   = 0x6E00
)

// statusNames is the audit table of every status word the driver knows about.
// New firmware words are added here; existing entries are never renumbered.
var statusNames = map[uint16]string{
	StatusOK: "success",

	ErrAdvanceProtInvalid:           "protocol invalid",
	ErrAdvanceRLPInvalid:            "RLP invalid",
	ErrAdvanceBlockTooOld:           "block too old",
	ErrAdvanceBlockTooShort:         "block too short",
	ErrAdvanceParentHashInvalid:     "parent hash invalid",
	ErrAdvanceReceiptRootInvalid:    "receipt root invalid",
	ErrAdvanceBlockNumInvalid:       "block number invalid",
	ErrAdvanceBlockDiffInvalid:      "block difficulty invalid",
	ErrAdvanceUMMRootInvalid:        "UMM root invalid",
	ErrAdvanceBTCHeaderInvalid:      "BTC header invalid",
	ErrAdvanceMerkleProofInvalid:    "merkle proof invalid",
	ErrAdvanceBTCCbTxnInvalid:       "BTC coinbase transaction invalid",
	ErrAdvanceMMRLPLenMismatch:      "merge-mining RLP length mismatch",
	ErrAdvanceBTCDiffMismatch:       "BTC difficulty mismatch",
	ErrAdvanceMerkleProofMismatch:   "merkle proof mismatch",
	ErrAdvanceMMHashMismatch:        "merge-mining hash mismatch",
	ErrAdvanceMerkleProofOverflow:   "merkle proof overflow",
	ErrAdvanceCbTxnOverflow:         "coinbase transaction overflow",
	ErrAdvanceBufferOverflow:        "buffer overflow",
	ErrAdvanceChainMismatch:         "chain mismatch",
	ErrAdvanceTotalDiffOverflow:     "total difficulty overflow",
	ErrAdvanceAncestorTipMismatch:   "ancestor tip mismatch",
	ErrAdvanceCbTxnHashMismatch:     "coinbase transaction hash mismatch",
	ErrAdvanceBrothersTooMany:       "too many brothers",
	ErrAdvanceBrotherParentMismatch: "brother parent mismatch",
	ErrAdvanceBrotherSameAsBlock:    "brother same as block",
	ErrAdvanceBrotherOrderInvalid:   "brother order invalid",
	ErrAdvanceUnexpected:            "unexpected advance error",

	ErrSignDataSize:                      "invalid data size",
	ErrSignState:                         "invalid signing state",
	ErrSignRLP:                           "receipt RLP invalid",
	ErrSignRLPInt:                        "receipt RLP integer invalid",
	ErrSignRLPDepth:                      "receipt RLP too deep",
	ErrSignTx:                            "BTC transaction invalid",
	ErrSignVout:                          "BTC output invalid",
	ErrSignInvalidPath:                   "invalid key path",
	ErrSignDataSizeAuth:                  "invalid data size for authorized path",
	ErrSignDataSizeNoAuth:                "invalid data size for unauthorized path",
	ErrSignNodeVersion:                   "merkle proof node version invalid",
	ErrSignSharedPrefixTooBig:            "merkle proof shared prefix too big",
	ErrSignReceiptHashMismatch:           "receipt hash mismatch",
	ErrSignNodeChainingMismatch:          "merkle proof node chaining mismatch",
	ErrSignReceiptRootMismatch:           "receipt root mismatch",
	ErrSignInvalidSighashComputationMode: "invalid sighash computation mode",
	ErrSignInvalidExtradataSize:          "invalid extradata size",
	ErrSignUnexpected:                    "unexpected signing error",

	ErrGeneralInvalidState: "invalid state",
	ErrGeneralWrongCommand: "unknown command",
	ErrGeneralWrongClass:   "wrong class",
}

// StatusName returns a human-readable name for a status word.
func StatusName(sw uint16) string {
	if name, ok := statusNames[sw]; ok {
		return name
	}
	return fmt.Sprintf("unknown status word 0x%04X", sw)
}

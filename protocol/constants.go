package protocol

// CLA is the class byte that prefixes every command sent to the device.
const CLA = 0x80

// StatusOK is the status word a transport strips from successful responses.
const StatusOK = 0x9000

// Command bytes (the instruction following CLA).
const (
	// CmdSign starts a signing sequence (signer mode)
	CmdSign = 0x02

	// CmdEcho echoes the command back (bootloader mode)
	CmdEcho = 0x02

	// CmdGetPublicKey returns the public key for a key id
	CmdGetPublicKey = 0x04

	// CmdIsOnboarded reports onboarding status (bootloader mode)
	CmdIsOnboarded = 0x06

	// CmdVersion returns the firmware version (signer mode)
	CmdVersion = 0x06

	// CmdOnboardFinalize wipes the device and generates keys from the uploaded seed
	CmdOnboardFinalize = 0x07

	// CmdNewPinFinalize commits a PIN previously uploaded byte by byte
	CmdNewPinFinalize = 0x08

	// CmdAdvanceBlockchain drives the advance-blockchain protocol
	CmdAdvanceBlockchain = 0x10

	// CmdBlockchainState queries the device's blockchain state
	CmdBlockchainState = 0x20

	// CmdResetAdvance resets an in-progress advance-blockchain sequence
	CmdResetAdvance = 0x21

	// CmdPin uploads one PIN byte at a given index
	CmdPin = 0x41

	// CmdCurrentMode returns the current device mode
	CmdCurrentMode = 0x43

	// CmdSeed uploads one seed byte at a given index
	CmdSeed = 0x44

	// CmdRetries returns the remaining unlock attempts
	CmdRetries = 0x45

	// CmdExitMenuNoAutoexec leaves the bootloader without running the signer
	CmdExitMenuNoAutoexec = 0xFA

	// CmdUnlock validates the uploaded PIN
	CmdUnlock = 0xFE

	// CmdExit leaves the bootloader menu (or the signer app)
	CmdExit = 0xFF
)

// Advance-blockchain operations. The same bytes are used for the sub-operation
// sent by the host and for the op the device answers with.
const (
	// AdvanceOpInit starts an upload with the number of blocks
	AdvanceOpInit = 0x02

	// AdvanceOpHeaderMeta carries (or requests) block metadata
	AdvanceOpHeaderMeta = 0x03

	// AdvanceOpHeaderChunk carries (or requests) a block chunk
	AdvanceOpHeaderChunk = 0x04

	// AdvanceOpPartialSuccess reports the chain was advanced but not to the best block
	AdvanceOpPartialSuccess = 0x05

	// AdvanceOpSuccess reports the chain was advanced to the best block
	AdvanceOpSuccess = 0x06

	// AdvanceOpBrotherList carries (or requests) the brother count
	AdvanceOpBrotherList = 0x07

	// AdvanceOpBrotherMeta carries (or requests) brother metadata
	AdvanceOpBrotherMeta = 0x08

	// AdvanceOpBrotherChunk carries (or requests) a brother chunk
	AdvanceOpBrotherChunk = 0x09
)

// Signing operations.
const (
	SignOpPath        = 0x01
	SignOpBTCTx       = 0x02
	SignOpReceipt     = 0x04
	SignOpMerkleProof = 0x08
	SignOpSuccess     = 0x81
)

// Blockchain state operations and selectors.
const (
	StateOpGetHash       = 0x01
	StateOpGetDifficulty = 0x02
	StateOpGetFlags      = 0x03

	ResetOpInit = 0x01
	ResetOpDone = 0x02
)

// Hash selectors for StateOpGetHash, in the order the driver queries them.
const (
	SelectorBestBlock            = 0x01
	SelectorNewestValidBlock     = 0x02
	SelectorAncestorBlock        = 0x03
	SelectorAncestorReceiptsRoot = 0x05
	SelectorUpdatingBestBlock    = 0x81
	SelectorUpdatingNewestValid  = 0x82
	SelectorUpdatingNextExpected = 0x84
)

// Sizes used by command builders and response parsers.
const (
	// HashSize is the size of block hashes and signed hashes
	HashSize = 32

	// HashPrefixSize is the number of coinbase hash bytes sent with metadata
	HashPrefixSize = 4

	// SeedSize is the number of seed bytes uploaded during onboarding
	SeedSize = 32

	// ResponseHeaderSize is the number of bytes preceding the op in a response
	ResponseHeaderSize = 2

	// MaxBrothers is the largest brother count that fits the count byte
	MaxBrothers = 0xFF

	// MaxPayloadSize is the largest merge-mining payload size that fits the metadata field
	MaxPayloadSize = 0xFFFF
)

// Onboarding and unlock results.
const (
	// OnboardOK is the value of response[1] after a successful onboarding
	OnboardOK = 0x02

	// UnlockOK is the value of response[2] after a successful unlock
	UnlockOK = 0x01
)

package protocol

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/coreos/go-semver/semver"
)

// FirmwareVersion is the signer firmware version.
// Returned by the Version command.
type FirmwareVersion struct {
	Major byte
	Minor byte
	Patch byte
}

func (v FirmwareVersion) String() string {
	return fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Semver returns the version as a semantic version for comparisons.
func (v FirmwareVersion) Semver() semver.Version {
	return semver.Version{
		Major: int64(v.Major),
		Minor: int64(v.Minor),
		Patch: int64(v.Patch),
	}
}

// Supports reports whether the firmware is at least the given version
// (e.g. "2.1.0").
func (v FirmwareVersion) Supports(min string) (bool, error) {
	want, err := semver.NewVersion(min)
	if err != nil {
		return false, fmt.Errorf("invalid version %q: %w", min, err)
	}
	have := v.Semver()
	return !have.LessThan(*want), nil
}

// Mode is the mode the device is currently running in.
type Mode byte

const (
	ModeUnknown    Mode = 0x00
	ModeBootloader Mode = 0x02
	ModeSigner     Mode = 0x03
	ModeHeartbeat  Mode = 0x04
)

func (m Mode) String() string {
	switch m {
	case ModeBootloader:
		return "bootloader"
	case ModeSigner:
		return "signer"
	case ModeHeartbeat:
		return "heartbeat"
	default:
		return fmt.Sprintf("unknown(0x%02X)", byte(m))
	}
}

// BlockMetadata is sent to the device ahead of a block or brother body.
type BlockMetadata struct {
	// PayloadSize is the merge-mining RLP payload size of the header
	PayloadSize uint16

	// HashPrefix is the leading part of the coinbase transaction hash
	HashPrefix [HashPrefixSize]byte
}

// BlockchainState is the device's view of the blockchain.
// Hashes are kept in the byte order the device reports them.
type BlockchainState struct {
	BestBlock            []byte
	NewestValidBlock     []byte
	AncestorBlock        []byte
	AncestorReceiptsRoot []byte

	Updating UpdatingState
}

// UpdatingState describes an advance-blockchain upload in progress on the device.
type UpdatingState struct {
	BestBlock         []byte
	NewestValidBlock  []byte
	NextExpectedBlock []byte
	TotalDifficulty   *big.Int
	InProgress        bool
	AlreadyValidated  bool
	FoundBestBlock    bool
}

// Map flattens the state into dotted keys with hex-encoded hashes.
func (s *BlockchainState) Map() map[string]interface{} {
	return map[string]interface{}{
		"best_block":                   hex.EncodeToString(s.BestBlock),
		"newest_valid_block":           hex.EncodeToString(s.NewestValidBlock),
		"ancestor_block":               hex.EncodeToString(s.AncestorBlock),
		"ancestor_receipts_root":       hex.EncodeToString(s.AncestorReceiptsRoot),
		"updating.best_block":          hex.EncodeToString(s.Updating.BestBlock),
		"updating.newest_valid_block":  hex.EncodeToString(s.Updating.NewestValidBlock),
		"updating.next_expected_block": hex.EncodeToString(s.Updating.NextExpectedBlock),
		"updating.total_difficulty":    s.Updating.TotalDifficulty,
		"updating.in_progress":         s.Updating.InProgress,
		"updating.already_validated":   s.Updating.AlreadyValidated,
		"updating.found_best_block":    s.Updating.FoundBestBlock,
	}
}

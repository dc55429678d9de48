package dongle

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/moffa90/go-powhsm/protocol"
)

// BlockInspector derives what the device needs to know about a block or
// brother header before its bytes are streamed.
type BlockInspector interface {
	// MMPayloadSize returns the size of the merge-mining RLP payload of the header
	MMPayloadSize(header []byte) (int, error)

	// CoinbaseTxHash returns the hash of the header's merge-mining coinbase transaction
	CoinbaseTxHash(header []byte) ([]byte, error)

	// BlockHash returns the header's block hash. Only used for logging.
	BlockHash(header []byte) ([]byte, error)
}

type advanceState int

const (
	stateInit advanceState = iota
	stateBlockMeta
	stateBlockChunk
	stateBrotherCount
	stateBrotherMeta
	stateBrotherChunk
	stateDone
	stateFailed
)

func (s advanceState) String() string {
	switch s {
	case stateInit:
		return "init"
	case stateBlockMeta:
		return "block-meta"
	case stateBlockChunk:
		return "block-chunk"
	case stateBrotherCount:
		return "brother-count"
	case stateBrotherMeta:
		return "brother-meta"
	case stateBrotherChunk:
		return "brother-chunk"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// cursor tracks the upload of one block or brother body.
//
// offset only grows, by at most the size the device last dictated, and
// reaches len(body) exactly once. After that the device may request one more
// chunk, which is sent empty.
type cursor struct {
	body     []byte
	offset   int
	trailing bool
}

func (c *cursor) done() bool { return c.offset == len(c.body) }

// next returns the chunk for a device request of size bytes.
func (c *cursor) next(size int) ([]byte, bool) {
	if c.done() {
		if c.trailing {
			return nil, false
		}
		c.trailing = true
		return []byte{}, true
	}
	// A zero size mid-body sends an empty chunk and leaves offset unchanged.
	end := c.offset + size
	if end > len(c.body) {
		end = len(c.body)
	}
	chunk := c.body[c.offset:end]
	c.offset = end
	return chunk, true
}

// advanceSession holds the state of one AdvanceBlockchain call.
type advanceSession struct {
	d        *Dongle
	blocks   [][]byte
	brothers [][][]byte

	state   advanceState
	block   int // index of the current block, -1 before the first
	brother int // index of the current brother, -1 before the first
	unit    cursor

	bytesSent int
	start     time.Time
}

// AdvanceBlockchain uploads blocks, each followed by its brothers, so the
// device can advance its view of the blockchain. brothers must hold one
// (possibly empty) list per block; a nil brothers slice means no block has
// brothers.
//
// The device dictates every chunk size. The first failure at any step ends
// the upload: device status words, malformed responses and transport faults
// are all reported through the result, never as an error.
//
// Example:
//
//	ok, result := d.AdvanceBlockchain(ctx, blocks, brothers)
//	if !ok {
//	    log.Printf("advance rejected: %s (%d)", result, result)
//	}
func (d *Dongle) AdvanceBlockchain(ctx context.Context, blocks [][]byte, brothers [][][]byte) (bool, AdvanceResult) {
	if brothers == nil {
		brothers = make([][][]byte, len(blocks))
	}
	if err := validateAdvance(blocks, brothers); err != nil {
		d.logError("invalid advance blockchain input", "error", err)
		return false, AdvanceErrComputeMetadata
	}

	s := &advanceSession{
		d:        d,
		blocks:   blocks,
		brothers: brothers,
		state:    stateInit,
		block:    -1,
		brother:  -1,
		start:    time.Now(),
	}
	result := s.run(ctx)
	return result.OK(), result
}

func validateAdvance(blocks [][]byte, brothers [][][]byte) error {
	if len(blocks) == 0 {
		return fmt.Errorf("no blocks to send")
	}
	if len(brothers) != len(blocks) {
		return fmt.Errorf("got %d brother lists for %d blocks", len(brothers), len(blocks))
	}
	for i, bros := range brothers {
		if len(bros) > protocol.MaxBrothers {
			return fmt.Errorf("block %d has %d brothers, maximum is %d", i, len(bros), protocol.MaxBrothers)
		}
	}
	return nil
}

func (s *advanceSession) run(ctx context.Context) AdvanceResult {
	s.d.logInfo("advance blockchain", "blocks", len(s.blocks))
	s.report(PhaseInit)

	cmd, err := protocol.BuildAdvanceInitCmd(len(s.blocks))
	if err != nil {
		return s.fail(AdvanceErrComputeMetadata, "build init", err)
	}
	resp, result := s.send(ctx, "advance blockchain init", cmd, advanceInitTable)

	for result == 0 {
		var op string
		var table statusTable[AdvanceResult]
		cmd, op, table, result = s.transition(resp)
		if result != 0 {
			break
		}
		resp, result = s.send(ctx, op, cmd, table)
	}

	if result.OK() {
		s.state = stateDone
		s.report(PhaseComplete)
		s.d.logInfo("advance blockchain done",
			"result", result.String(),
			"bytes", s.bytesSent,
			"elapsed", time.Since(s.start).String(),
		)
	}
	return result
}

// send performs one exchange and maps its failure through table.
func (s *advanceSession) send(ctx context.Context, op string, cmd []byte, table statusTable[AdvanceResult]) (protocol.Response, AdvanceResult) {
	if err := ctx.Err(); err != nil {
		return nil, s.fail(AdvanceErrUnknown, op, err)
	}
	resp, err := s.d.exchange(ctx, op, cmd, 0)
	if err != nil {
		return nil, s.fail(table.lookup(err, AdvanceErrUnknown), op, err)
	}
	return resp, 0
}

// transition decides the next command from the device's last response.
// A non-zero result ends the upload.
func (s *advanceSession) transition(resp protocol.Response) ([]byte, string, statusTable[AdvanceResult], AdvanceResult) {
	op, ok := resp.Op()
	if !ok {
		return nil, "", nil, s.unexpected(resp)
	}

	// Metadata must be answered with a request for the first chunk.
	switch s.state {
	case stateBlockMeta:
		if op != protocol.AdvanceOpHeaderChunk {
			return nil, "", nil, s.unexpected(resp)
		}
	case stateBrotherMeta:
		if op != protocol.AdvanceOpBrotherChunk {
			return nil, "", nil, s.unexpected(resp)
		}
	}

	switch op {
	case protocol.AdvanceOpSuccess, protocol.AdvanceOpPartialSuccess:
		if !s.allSent() {
			s.d.logInfo("device finished before all blocks were sent",
				"block", s.block+1, "total", len(s.blocks))
		}
		if op == protocol.AdvanceOpSuccess {
			return nil, "", nil, AdvanceOKTotal
		}
		return nil, "", nil, AdvanceOKPartial

	case protocol.AdvanceOpHeaderMeta:
		if !s.blockFinished() || s.block+1 >= len(s.blocks) {
			return nil, "", nil, s.unexpected(resp)
		}
		s.block++
		s.brother = -1
		meta, err := s.metadata(s.blocks[s.block])
		if err != nil {
			return nil, "", nil, s.fail(AdvanceErrComputeMetadata, "block metadata", err)
		}
		s.unit = cursor{body: s.blocks[s.block]}
		s.state = stateBlockMeta
		s.logBlock()
		s.report(PhaseBlock)
		return protocol.BuildBlockMetaCmd(meta), "block metadata", advanceMetaTable, 0

	case protocol.AdvanceOpHeaderChunk:
		if s.state != stateBlockMeta && s.state != stateBlockChunk {
			return nil, "", nil, s.unexpected(resp)
		}
		cmd, result := s.chunk(resp, op, protocol.BuildBlockChunkCmd)
		if result == 0 {
			s.state = stateBlockChunk
		}
		return cmd, "block chunk", advanceChunkTable, result

	case protocol.AdvanceOpBrotherList:
		if s.state != stateBlockChunk || !s.unit.done() {
			return nil, "", nil, s.unexpected(resp)
		}
		cmd, err := protocol.BuildBrotherCountCmd(len(s.brothers[s.block]))
		if err != nil {
			return nil, "", nil, s.fail(AdvanceErrComputeMetadata, "brother count", err)
		}
		s.state = stateBrotherCount
		return cmd, "brother count", advanceChunkTable, 0

	case protocol.AdvanceOpBrotherMeta:
		switch {
		case s.state == stateBrotherCount:
		case s.state == stateBrotherChunk && s.unit.done():
		default:
			return nil, "", nil, s.unexpected(resp)
		}
		bros := s.brothers[s.block]
		if s.brother+1 >= len(bros) {
			return nil, "", nil, s.unexpected(resp)
		}
		s.brother++
		meta, err := s.metadata(bros[s.brother])
		if err != nil {
			return nil, "", nil, s.fail(AdvanceErrComputeMetadata, "brother metadata", err)
		}
		s.unit = cursor{body: bros[s.brother]}
		s.state = stateBrotherMeta
		s.report(PhaseBrother)
		return protocol.BuildBrotherMetaCmd(meta), "brother metadata", advanceChunkTable, 0

	case protocol.AdvanceOpBrotherChunk:
		if s.state != stateBrotherMeta && s.state != stateBrotherChunk {
			return nil, "", nil, s.unexpected(resp)
		}
		cmd, result := s.chunk(resp, op, protocol.BuildBrotherChunkCmd)
		if result == 0 {
			s.state = stateBrotherChunk
		}
		return cmd, "brother chunk", advanceChunkTable, result
	}

	return nil, "", nil, s.unexpected(resp)
}

// chunk builds the next chunk of the current unit at the size the device asked for.
func (s *advanceSession) chunk(resp protocol.Response, op byte, build func([]byte) []byte) ([]byte, AdvanceResult) {
	size, err := protocol.ParseChunkRequest(resp, op)
	if err != nil {
		return nil, s.fail(AdvanceErrUnknown, "chunk request", err)
	}
	data, ok := s.unit.next(size)
	if !ok {
		return nil, s.unexpected(resp)
	}
	s.bytesSent += len(data)
	if s.brother >= 0 {
		s.report(PhaseBrother)
	} else {
		s.report(PhaseBlock)
	}
	return build(data), 0
}

// blockFinished reports whether the device may ask for the next block's
// metadata. Firmware without brother support goes straight from the last
// chunk to the next block, which is only valid when the block has no brothers.
func (s *advanceSession) blockFinished() bool {
	switch s.state {
	case stateInit:
		return true
	case stateBrotherCount:
		return len(s.brothers[s.block]) == 0
	case stateBrotherChunk:
		return s.unit.done() && s.brother == len(s.brothers[s.block])-1
	case stateBlockChunk:
		return s.unit.done() && len(s.brothers[s.block]) == 0
	default:
		return false
	}
}

func (s *advanceSession) allSent() bool {
	return s.block == len(s.blocks)-1 && s.blockFinished()
}

func (s *advanceSession) metadata(header []byte) (protocol.BlockMetadata, error) {
	var meta protocol.BlockMetadata
	inspector := s.d.config.Inspector

	size, err := inspector.MMPayloadSize(header)
	if err != nil {
		return meta, fmt.Errorf("merge-mining payload size: %w", err)
	}
	if size < 0 || size > protocol.MaxPayloadSize {
		return meta, fmt.Errorf("merge-mining payload size %d out of range", size)
	}

	hash, err := inspector.CoinbaseTxHash(header)
	if err != nil {
		return meta, fmt.Errorf("coinbase transaction hash: %w", err)
	}
	if len(hash) < protocol.HashPrefixSize {
		return meta, fmt.Errorf("coinbase transaction hash too short: %d bytes", len(hash))
	}

	meta.PayloadSize = uint16(size)
	copy(meta.HashPrefix[:], hash)
	return meta, nil
}

func (s *advanceSession) logBlock() {
	hash, err := s.d.config.Inspector.BlockHash(s.blocks[s.block])
	if err != nil {
		s.d.logDebug("sending block", "index", s.block, "hash", "unknown", "error", err)
		return
	}
	s.d.logDebug("sending block", "index", s.block, "hash", hex.EncodeToString(hash))
}

func (s *advanceSession) unexpected(resp protocol.Response) AdvanceResult {
	return s.fail(AdvanceErrUnknown, "unexpected response",
		fmt.Errorf("state %s: %X", s.state, []byte(resp)))
}

func (s *advanceSession) fail(result AdvanceResult, op string, err error) AdvanceResult {
	s.state = stateFailed
	s.d.logError("advance blockchain failed",
		"op", op,
		"block", s.block,
		"brother", s.brother,
		"result", result.String(),
		"error", err,
	)
	s.report(PhaseFailed)
	return result
}

func (s *advanceSession) report(phase string) {
	s.d.reportProgress(Progress{
		Phase:          phase,
		CurrentBlock:   s.block + 1,
		TotalBlocks:    len(s.blocks),
		CurrentBrother: s.brother + 1,
		BytesSent:      s.bytesSent,
		ElapsedTime:    time.Since(s.start),
	})
}

// ResetAdvanceBlockchain discards any advance-blockchain upload in progress
// on the device.
func (d *Dongle) ResetAdvanceBlockchain(ctx context.Context) error {
	const op = "reset advance blockchain"
	resp, err := d.call(ctx, op, protocol.BuildResetAdvanceCmd(), 0)
	if err != nil {
		return err
	}
	if !resp.HasOp(protocol.ResetOpDone) {
		return unexpected(op, resp)
	}
	return nil
}

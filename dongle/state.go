package dongle

import (
	"context"
	"fmt"

	"github.com/moffa90/go-powhsm/protocol"
)

// stateHashes lists the hash queries in the order they are sent.
var stateHashes = []struct {
	selector byte
	field    func(*protocol.BlockchainState) *[]byte
}{
	{protocol.SelectorBestBlock, func(s *protocol.BlockchainState) *[]byte { return &s.BestBlock }},
	{protocol.SelectorNewestValidBlock, func(s *protocol.BlockchainState) *[]byte { return &s.NewestValidBlock }},
	{protocol.SelectorAncestorBlock, func(s *protocol.BlockchainState) *[]byte { return &s.AncestorBlock }},
	{protocol.SelectorAncestorReceiptsRoot, func(s *protocol.BlockchainState) *[]byte { return &s.AncestorReceiptsRoot }},
	{protocol.SelectorUpdatingBestBlock, func(s *protocol.BlockchainState) *[]byte { return &s.Updating.BestBlock }},
	{protocol.SelectorUpdatingNewestValid, func(s *protocol.BlockchainState) *[]byte { return &s.Updating.NewestValidBlock }},
	{protocol.SelectorUpdatingNextExpected, func(s *protocol.BlockchainState) *[]byte { return &s.Updating.NextExpectedBlock }},
}

// GetBlockchainState queries every hash, the total difficulty and the
// updating flags. Any failure aborts the query and no partial state is
// returned.
func (d *Dongle) GetBlockchainState(ctx context.Context) (*protocol.BlockchainState, error) {
	const op = "blockchain state"
	state := &protocol.BlockchainState{}

	for _, h := range stateHashes {
		resp, err := d.call(ctx, op, protocol.BuildStateHashCmd(h.selector), 0)
		if err != nil {
			return nil, err
		}
		hash, err := protocol.ParseStateHashResponse(resp, h.selector)
		if err != nil {
			return nil, &Error{Op: op, Msg: fmt.Sprintf("hash 0x%02X", h.selector), Err: err}
		}
		*h.field(state) = hash
	}

	resp, err := d.call(ctx, op, protocol.BuildStateDifficultyCmd(), 0)
	if err != nil {
		return nil, err
	}
	state.Updating.TotalDifficulty, err = protocol.ParseStateDifficultyResponse(resp)
	if err != nil {
		return nil, &Error{Op: op, Msg: "total difficulty", Err: err}
	}

	resp, err = d.call(ctx, op, protocol.BuildStateFlagsCmd(), 0)
	if err != nil {
		return nil, err
	}
	u := &state.Updating
	u.InProgress, u.AlreadyValidated, u.FoundBestBlock, err = protocol.ParseStateFlagsResponse(resp)
	if err != nil {
		return nil, &Error{Op: op, Msg: "flags", Err: err}
	}

	d.logDebug("blockchain state", "best_block", fmt.Sprintf("%x", state.BestBlock))
	return state, nil
}

// Package rskblock inspects RLP-encoded RSK block headers and loads block
// batches for advance-blockchain uploads.
//
// # Header Layout
//
// A merge-mined RSK header is an RLP list whose last three items are the
// Bitcoin merge-mining header, the merge-mining merkle proof and the
// merge-mining coinbase transaction:
//
//	[parentHash, ..., btcHeader, mmMerkleProof, mmCoinbaseTx]
//
// The device hashes the header without its last two items, so the size of
// that prefix (the merge-mining payload) is sent ahead of the header bytes.
//
// # Batch File Format
//
// A batch file holds one hex-encoded header per line. Lines starting with
// '+' are brothers of the closest preceding block; '#' starts a comment:
//
//	# block 1 and its two brothers
//	f90213a0...
//	+f90213a0...
//	+f90213a0...
//	# block 2
//	0xf90210a0...
//
// # Usage
//
//	batch, err := rskblock.Load("blocks.txt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ok, result := d.AdvanceBlockchain(ctx, batch.Blocks, batch.Brothers)
package rskblock

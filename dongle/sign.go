package dongle

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/moffa90/go-powhsm/protocol"
)

// SighashMode selects how the device computes the BTC signature hash.
type SighashMode byte

const (
	SighashLegacy SighashMode = 0x00
	SighashSegwit SighashMode = 0x01
)

// AuthorizedSignRequest carries everything the device needs to sign a BTC
// input that spends peg-out funds.
type AuthorizedSignRequest struct {
	KeyID      KeyID
	InputIndex uint32

	// BTCTx is the serialized BTC transaction being signed
	BTCTx []byte

	// SighashMode selects legacy or segwit signature hash computation
	SighashMode SighashMode

	// WitnessScript and OutpointValue are only used in segwit mode
	WitnessScript []byte
	OutpointValue uint64

	// Receipt is the RLP-encoded RSK transaction receipt authorizing the spend
	Receipt []byte

	// ReceiptMerkleProof are the trie nodes from the receipt up to the receipts root
	ReceiptMerkleProof [][]byte
}

func (r *AuthorizedSignRequest) btcTxPayload() ([]byte, error) {
	var extradata []byte
	switch r.SighashMode {
	case SighashLegacy:
	case SighashSegwit:
		extradata = protocol.BuildSegwitExtradata(r.WitnessScript, r.OutpointValue)
	default:
		return nil, fmt.Errorf("unknown sighash mode 0x%02X", byte(r.SighashMode))
	}
	return protocol.BuildBTCTxPayload(r.BTCTx, byte(r.SighashMode), extradata)
}

// SignUnauthorized asks the device to sign hash (hex encoded) with the key
// at keyID. Only keys that need no authorization can be used.
//
// Every failure, including transport faults, is reported through the result.
// A hash that is not valid hex is rejected without contacting the device.
func (d *Dongle) SignUnauthorized(ctx context.Context, keyID KeyID, hash string) (*Signature, SignResult) {
	const op = "sign unauthorized"

	hashBytes, err := hex.DecodeString(strings.TrimPrefix(hash, "0x"))
	if err != nil {
		d.logError("invalid hash", "op", op, "error", err)
		return nil, SignErrHash
	}

	if len(keyID) == 0 {
		d.logError("empty key id", "op", op)
		return nil, SignErrPath
	}
	cmd, err := protocol.BuildSignUnauthorizedCmd(keyID.Bytes(), hashBytes)
	if err != nil {
		d.logError("invalid request", "op", op, "error", err)
		return nil, SignErrPath
	}

	resp, err := d.exchange(ctx, op, cmd, 0)
	if err != nil {
		result := signUnauthorizedTable.lookup(err, SignErrUnexpected)
		d.logError("signing failed", "op", op, "key", keyID.String(), "result", result.String(), "error", err)
		return nil, result
	}

	respOp, _ := resp.Op()
	switch {
	case resp.HasOp(protocol.SignOpSuccess):
		sig, err := ParseSignature(resp.Payload())
		if err != nil {
			d.logError("signing failed", "op", op, "error", err)
			return nil, SignErrUnexpected
		}
		return sig, SignOK
	case resp.HasOp(protocol.SignOpBTCTx):
		d.logError("device expects an authorized signature", "op", op, "key", keyID.String())
		return nil, SignErrHash
	default:
		d.logError("unexpected response", "op", op, "response_op", respOp, "response", hex.EncodeToString(resp))
		return nil, SignErrUnexpected
	}
}

// SignAuthorized runs the authorized signing sequence. After the key path
// and input index the device pulls the BTC transaction, the receipt and the
// receipt merkle proof in chunks of its choosing, then returns the signature.
//
// Device rejections and malformed responses are reported through the
// result; transport faults are returned as errors.
func (d *Dongle) SignAuthorized(ctx context.Context, req *AuthorizedSignRequest) (*Signature, SignResult, error) {
	const op = "sign authorized"

	if len(req.KeyID) == 0 {
		d.logError("empty key id", "op", op)
		return nil, SignErrPath, nil
	}
	btcTx, err := req.btcTxPayload()
	if err != nil {
		d.logError("invalid BTC transaction", "op", op, "error", err)
		return nil, SignErrBTCTx, nil
	}
	proof, err := protocol.BuildMerkleProofPayload(req.ReceiptMerkleProof)
	if err != nil {
		d.logError("invalid merkle proof", "op", op, "error", err)
		return nil, SignErrMerkleProof, nil
	}
	cmd, err := protocol.BuildSignPathCmd(req.KeyID.Bytes(), req.InputIndex)
	if err != nil {
		d.logError("invalid key id", "op", op, "error", err)
		return nil, SignErrPath, nil
	}

	streams := map[byte]*cursor{
		protocol.SignOpBTCTx:       {body: btcTx},
		protocol.SignOpReceipt:     {body: req.Receipt},
		protocol.SignOpMerkleProof: {body: proof},
	}
	tables := map[byte]statusTable[SignResult]{
		protocol.SignOpBTCTx:       signBTCTxTable,
		protocol.SignOpReceipt:     signReceiptTable,
		protocol.SignOpMerkleProof: signMerkleProofTable,
	}

	table := signPathTable
	for {
		if err := ctx.Err(); err != nil {
			return nil, SignErrUnexpected, &CommError{Op: op, Err: err}
		}

		resp, err := d.exchange(ctx, op, cmd, 0)
		if err != nil {
			if !protocol.IsStatusError(err) {
				return nil, SignErrUnexpected, err
			}
			result := table.lookup(err, SignErrUnexpected)
			d.logError("signing failed", "op", op, "key", req.KeyID.String(), "result", result.String(), "error", err)
			return nil, result, nil
		}

		respOp, ok := resp.Op()
		if !ok {
			d.logError("unexpected response", "op", op, "response", hex.EncodeToString(resp))
			return nil, SignErrUnexpected, nil
		}
		if respOp == protocol.SignOpSuccess {
			sig, err := ParseSignature(resp.Payload())
			if err != nil {
				d.logError("signing failed", "op", op, "error", err)
				return nil, SignErrUnexpected, nil
			}
			return sig, SignOK, nil
		}

		stream, ok := streams[respOp]
		if !ok {
			d.logError("unexpected response", "op", op, "response", hex.EncodeToString(resp))
			return nil, SignErrUnexpected, nil
		}
		size, err := protocol.ParseChunkRequest(resp, respOp)
		if err != nil {
			d.logError("unexpected response", "op", op, "error", err)
			return nil, SignErrUnexpected, nil
		}
		chunk, ok := stream.next(size)
		if !ok {
			d.logError("device requested data past the end", "op", op, "stream", fmt.Sprintf("0x%02X", respOp))
			return nil, SignErrUnexpected, nil
		}
		cmd = protocol.BuildSignDataCmd(respOp, chunk)
		table = tables[respOp]
	}
}

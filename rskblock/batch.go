package rskblock

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// BrotherPrefix marks a batch line holding a brother of the preceding block.
const BrotherPrefix = '+'

// maxLineSize bounds a single batch line; headers are a few KiB at most.
const maxLineSize = 1 << 20

// Batch is an ordered set of blocks with their brothers, ready for
// dongle.Dongle.AdvanceBlockchain.
type Batch struct {
	// Blocks contains the raw headers in upload order
	Blocks [][]byte

	// Brothers holds one list per block, empty when the block has none
	Brothers [][][]byte
}

// Len returns the number of blocks in the batch.
func (b *Batch) Len() int { return len(b.Blocks) }

// BrotherCount returns the number of brothers across all blocks.
func (b *Batch) BrotherCount() int {
	n := 0
	for _, bros := range b.Brothers {
		n += len(bros)
	}
	return n
}

// Load parses a batch file from the given path. Files with a .json
// extension are read with ParseJSON, anything else with ParseReader.
//
// Example:
//
//	batch, err := rskblock.Load("blocks.txt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d blocks, %d brothers\n", batch.Len(), batch.BrotherCount())
func Load(path string) (*Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJSON(f)
	}
	return ParseReader(f)
}

// jsonBatch is the JSON batch layout: hex headers, and one list of hex
// brothers per block.
type jsonBatch struct {
	Blocks   []string   `json:"blocks"`
	Brothers [][]string `json:"brothers"`
}

// ParseJSON parses a batch in JSON form:
//
//	{"blocks": ["f902..", ...], "brothers": [["f902.."], [], ...]}
//
// brothers may be omitted when no block has any.
func ParseJSON(r io.Reader) (*Batch, error) {
	var in jsonBatch
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("failed to decode batch: %w", err)
	}
	if len(in.Blocks) == 0 {
		return nil, fmt.Errorf("no blocks found in file")
	}
	if in.Brothers != nil && len(in.Brothers) != len(in.Blocks) {
		return nil, fmt.Errorf("got %d brother lists for %d blocks", len(in.Brothers), len(in.Blocks))
	}

	batch := &Batch{
		Blocks:   make([][]byte, len(in.Blocks)),
		Brothers: make([][][]byte, len(in.Blocks)),
	}
	for i, line := range in.Blocks {
		header, err := parseHeaderLine(line)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		batch.Blocks[i] = header
		batch.Brothers[i] = [][]byte{}
		if in.Brothers == nil {
			continue
		}
		for j, bro := range in.Brothers[i] {
			header, err := parseHeaderLine(bro)
			if err != nil {
				return nil, fmt.Errorf("block %d brother %d: %w", i, j, err)
			}
			batch.Brothers[i] = append(batch.Brothers[i], header)
		}
	}
	return batch, nil
}

// ParseReader parses a batch from any io.Reader.
func ParseReader(r io.Reader) (*Batch, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	batch := &Batch{}
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || line[0] == '#' {
			continue
		}

		brother := line[0] == BrotherPrefix
		if brother {
			line = line[1:]
		}

		header, err := parseHeaderLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		if brother {
			if len(batch.Blocks) == 0 {
				return nil, fmt.Errorf("line %d: brother before any block", lineNum)
			}
			last := len(batch.Brothers) - 1
			batch.Brothers[last] = append(batch.Brothers[last], header)
			continue
		}
		batch.Blocks = append(batch.Blocks, header)
		batch.Brothers = append(batch.Brothers, [][]byte{})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if len(batch.Blocks) == 0 {
		return nil, fmt.Errorf("no blocks found in file")
	}

	return batch, nil
}

// parseHeaderLine decodes one hex header, with an optional 0x prefix.
func parseHeaderLine(line string) ([]byte, error) {
	line = strings.TrimPrefix(strings.TrimPrefix(line, "0x"), "0X")
	if line == "" {
		return nil, fmt.Errorf("empty header")
	}
	header, err := hex.DecodeString(line)
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}
	return header, nil
}

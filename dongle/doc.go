// Package dongle provides a host-side driver for powHSM signing devices.
//
// # Overview
//
// The driver speaks the device's APDU protocol over any Transport:
//   - Lifecycle operations: onboarding, unlock, PIN change, mode and version queries
//   - Advance blockchain: streaming RSK block headers and their brothers in
//     chunks the device dictates
//   - Signing: unauthorized hash signing and authorized BTC input signing
//   - Blockchain state introspection and reset
//
// # Basic Usage
//
//	d := dongle.New(tcp.Opener("127.0.0.1", 8888))
//	if err := d.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer d.Disconnect()
//
//	state, err := d.GetBlockchainState(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("best block: %x\n", state.BestBlock)
//
// # Advancing the Blockchain
//
//	batch, err := rskblock.Load("blocks.txt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	d := dongle.New(opener,
//	    dongle.WithProgressCallback(func(p dongle.Progress) {
//	        fmt.Printf("[%s] block %d/%d\n", p.Phase, p.CurrentBlock, p.TotalBlocks)
//	    }),
//	)
//	ok, result := d.AdvanceBlockchain(ctx, batch.Blocks, batch.Brothers)
//
// # Error Handling
//
// Advance blockchain and unauthorized signing report every failure through
// their result codes (AdvanceResult, SignResult); they never return errors.
// Authorized signing reports device rejections as codes and transport
// faults as errors. All other operations return errors:
//   - CommError: the transport failed
//   - TimeoutError: the device did not answer in time
//   - ErrorResult: the device rejected the request with a known status word
//   - Error: unexpected response or unknown status word
//
// Every error type matches ErrDongle:
//
//	if errors.Is(err, dongle.ErrDongle) { ... }
//
// # Transports
//
// Packages transport/hid and transport/tcp provide Openers for USB devices
// and TCP-hosted signers. Tests can supply any Transport implementation.
package dongle

package dongle

import (
	"bytes"
	"context"
	"fmt"

	"github.com/moffa90/go-powhsm/protocol"
)

// Echo sends the echo command and reports whether the device returned it
// unchanged.
func (d *Dongle) Echo(ctx context.Context) (bool, error) {
	cmd := protocol.BuildEchoCmd()
	resp, err := d.call(ctx, "echo", cmd, 0)
	if err != nil {
		return false, err
	}
	return bytes.Equal(resp, cmd), nil
}

// CurrentMode returns the mode the device is running in.
func (d *Dongle) CurrentMode(ctx context.Context) (protocol.Mode, error) {
	const op = "current mode"
	resp, err := d.call(ctx, op, []byte{protocol.CmdCurrentMode}, 0)
	if err != nil {
		return protocol.ModeUnknown, err
	}
	mode, err := protocol.ParseModeResponse(resp)
	if err != nil {
		return protocol.ModeUnknown, &Error{Op: op, Msg: "invalid response", Err: err}
	}
	return mode, nil
}

// IsOnboarded reports whether the device holds a seed. Bootloader mode only.
func (d *Dongle) IsOnboarded(ctx context.Context) (bool, error) {
	const op = "is onboarded"
	resp, err := d.call(ctx, op, []byte{protocol.CmdIsOnboarded}, 0)
	if err != nil {
		return false, err
	}
	b, ok := resp.Byte(1)
	if !ok {
		return false, unexpected(op, resp)
	}
	return b == 1, nil
}

// Version returns the signer firmware version. Signer mode only.
func (d *Dongle) Version(ctx context.Context) (*protocol.FirmwareVersion, error) {
	const op = "version"
	resp, err := d.call(ctx, op, []byte{protocol.CmdVersion}, 0)
	if err != nil {
		return nil, err
	}
	v, err := protocol.ParseVersionResponse(resp)
	if err != nil {
		return nil, &Error{Op: op, Msg: "invalid response", Err: err}
	}
	return v, nil
}

// RequireVersion fetches the firmware version and fails unless it is at
// least min (e.g. "2.1.0").
func (d *Dongle) RequireVersion(ctx context.Context, min string) (*protocol.FirmwareVersion, error) {
	v, err := d.Version(ctx)
	if err != nil {
		return nil, err
	}
	ok, err := v.Supports(min)
	if err != nil {
		return nil, err
	}
	if !ok {
		return v, &Error{Op: "version", Msg: fmt.Sprintf("firmware %s is older than required %s", v, min)}
	}
	return v, nil
}

// Retries returns the number of unlock attempts left before the device wipes itself.
func (d *Dongle) Retries(ctx context.Context) (int, error) {
	const op = "retries"
	resp, err := d.call(ctx, op, []byte{protocol.CmdRetries}, 0)
	if err != nil {
		return 0, err
	}
	b, ok := resp.Byte(2)
	if !ok {
		return 0, unexpected(op, resp)
	}
	return int(b), nil
}

// Onboard uploads the seed and the PIN, then asks the device to wipe
// itself and derive its keys. The first failing exchange aborts the sequence.
//
// The finalize exchange uses the onboard timeout; key generation takes a while.
func (d *Dongle) Onboard(ctx context.Context, seed, pin []byte) error {
	const op = "onboard"
	if len(seed) != protocol.SeedSize {
		return &Error{Op: op, Msg: fmt.Sprintf("seed must be %d bytes, got %d", protocol.SeedSize, len(seed))}
	}
	pinCmds, err := protocol.BuildPinCmds(pin)
	if err != nil {
		return &Error{Op: op, Msg: "invalid PIN", Err: err}
	}

	d.logInfo("onboarding device")
	for i, b := range seed {
		if _, err := d.call(ctx, "onboard seed", protocol.BuildSeedCmd(i, b), 0); err != nil {
			return err
		}
	}
	for _, cmd := range pinCmds {
		if _, err := d.call(ctx, "onboard pin", cmd, 0); err != nil {
			return err
		}
	}

	resp, err := d.call(ctx, op, []byte{protocol.CmdOnboardFinalize}, d.config.OnboardTimeout)
	if err != nil {
		return err
	}
	if b, ok := resp.Byte(1); !ok || b != protocol.OnboardOK {
		return &Error{Op: op, Msg: fmt.Sprintf("device did not complete onboarding: %X", []byte(resp))}
	}
	d.logInfo("onboarding done")
	return nil
}

// Unlock uploads pin and asks the device to validate it. A wrong PIN is
// reported as false, not as an error.
func (d *Dongle) Unlock(ctx context.Context, pin []byte) (bool, error) {
	const op = "unlock"
	if len(pin) == 0 || len(pin) > 0xFF {
		return false, &Error{Op: op, Msg: fmt.Sprintf("invalid PIN length %d", len(pin))}
	}
	for i, b := range pin {
		if _, err := d.call(ctx, "unlock pin", protocol.BuildPinCmd(i, b), 0); err != nil {
			return false, err
		}
	}

	resp, err := d.call(ctx, op, protocol.BuildUnlockCmd(), d.config.UnlockTimeout)
	if err != nil {
		return false, err
	}
	b, ok := resp.Byte(2)
	if !ok {
		return false, unexpected(op, resp)
	}
	return b == protocol.UnlockOK, nil
}

// NewPin replaces the device PIN. The device must be unlocked.
func (d *Dongle) NewPin(ctx context.Context, pin []byte) error {
	const op = "new pin"
	cmds, err := protocol.BuildPinCmds(pin)
	if err != nil {
		return &Error{Op: op, Msg: "invalid PIN", Err: err}
	}
	for _, cmd := range cmds {
		if _, err := d.call(ctx, op, cmd, 0); err != nil {
			return err
		}
	}
	_, err = d.call(ctx, op, []byte{protocol.CmdNewPinFinalize}, 0)
	return err
}

// ExitMenu leaves the bootloader. With autoexec the signer app starts right away.
func (d *Dongle) ExitMenu(ctx context.Context, autoexec bool) error {
	_, err := d.call(ctx, "exit menu", protocol.BuildExitMenuCmd(autoexec), 0)
	return err
}

// ExitApp leaves the signer app.
func (d *Dongle) ExitApp(ctx context.Context) error {
	_, err := d.call(ctx, "exit app", []byte{protocol.CmdExit}, 0)
	return err
}

// GetPublicKey returns the public key for keyID as reported by the device.
// An invalid key id is reported as *ErrorResult.
func (d *Dongle) GetPublicKey(ctx context.Context, keyID KeyID) ([]byte, error) {
	const op = "get public key"
	resp, err := d.exchange(ctx, op, protocol.BuildGetPublicKeyCmd(keyID.Bytes()), 0)
	if err != nil {
		if sw, ok := protocol.StatusWordOf(err); ok {
			if publicKeyErrors[sw] {
				return nil, &ErrorResult{Op: op, StatusWord: sw}
			}
			return nil, &Error{Op: op, Msg: "device error", Err: err}
		}
		return nil, err
	}
	return resp, nil
}

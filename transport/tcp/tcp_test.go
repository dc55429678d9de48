package tcp

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/moffa90/go-powhsm/protocol"
)

// serve answers each frame read from conn with the next reply.
func serve(t *testing.T, conn net.Conn, replies []func(apdu []byte) ([]byte, uint16)) <-chan [][]byte {
	t.Helper()
	got := make(chan [][]byte, 1)
	go func() {
		var apdus [][]byte
		defer func() { got <- apdus }()
		for _, reply := range replies {
			apdu, err := ReadFrame(conn)
			if err != nil {
				return
			}
			apdus = append(apdus, apdu)
			data, sw := reply(apdu)
			if err := WriteReply(conn, data, sw); err != nil {
				return
			}
		}
	}()
	return got
}

func TestExchange(t *testing.T) {
	host, device := net.Pipe()
	defer device.Close()
	tr := New(host)
	defer tr.Close()

	got := serve(t, device, []func([]byte) ([]byte, uint16){
		func(apdu []byte) ([]byte, uint16) { return []byte{0, 0, 6, 2, 1, 0}, protocol.StatusOK },
		func(apdu []byte) ([]byte, uint16) { return nil, protocol.ErrSignInvalidPath },
	})

	ctx := context.Background()
	resp, err := tr.Exchange(ctx, []byte{0x80, 0x06}, time.Second)
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	if !bytes.Equal(resp, []byte{0, 0, 6, 2, 1, 0}) {
		t.Errorf("Exchange() = %X", resp)
	}

	_, err = tr.Exchange(ctx, []byte{0x80, 0x04, 0x01}, time.Second)
	if sw, ok := protocol.StatusWordOf(err); !ok || sw != protocol.ErrSignInvalidPath {
		t.Errorf("Exchange() error = %v, want status 0x6A8F", err)
	}

	want := [][]byte{{0x80, 0x06}, {0x80, 0x04, 0x01}}
	if diff := cmp.Diff(want, <-got); diff != "" {
		t.Errorf("apdus mismatch (-want +got):\n%s", diff)
	}
}

func TestExchangeTimeout(t *testing.T) {
	host, device := net.Pipe()
	defer device.Close()
	tr := New(host)
	defer tr.Close()

	go func() {
		ReadFrame(device)
	}()

	_, err := tr.Exchange(context.Background(), []byte{0x80, 0x06}, 50*time.Millisecond)
	if !protocol.IsTimeout(err) {
		t.Fatalf("Exchange() error = %v, want timeout", err)
	}
}

func TestExchangeClosed(t *testing.T) {
	host, device := net.Pipe()
	tr := New(host)
	defer tr.Close()

	go func() {
		ReadFrame(device)
		device.Close()
	}()

	_, err := tr.Exchange(context.Background(), []byte{0x80, 0x06}, time.Second)
	if !protocol.IsCommunication(err) {
		t.Fatalf("Exchange() error = %v, want communication failure", err)
	}
}

func TestDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	if _, err := Dial(context.Background(), addr); !protocol.IsCommunication(err) {
		t.Fatalf("Dial() error = %v, want communication failure", err)
	}
}

func TestOpener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		if _, err := ReadFrame(conn); err == nil {
			WriteReply(conn, []byte{0, 0, 0x02}, protocol.StatusOK)
		}
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	tr, err := Opener("127.0.0.1", port)(context.Background())
	if err != nil {
		t.Fatalf("Opener() error = %v", err)
	}
	defer tr.Close()

	resp, err := tr.Exchange(context.Background(), []byte{0x80, 0x21, 0x01}, time.Second)
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	if !bytes.Equal(resp, []byte{0, 0, 0x02}) {
		t.Errorf("Exchange() = %X", resp)
	}
}

func TestReadFrameTooLarge(t *testing.T) {
	r := bytes.NewReader([]byte{0x00, 0x10, 0x00, 0x01})
	if _, err := ReadFrame(r); err == nil {
		t.Error("ReadFrame() should reject oversized frames")
	}
}

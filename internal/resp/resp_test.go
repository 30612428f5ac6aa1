package resp

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"testing"
)

// decodeMultibulk is a reference parser for command frames:
// *N\r\n followed by N bulk strings.
func decodeMultibulk(t *testing.T, frame []byte) []string {
	t.Helper()
	r := bufio.NewReader(bytes.NewReader(frame))
	header, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read array header: %v", err)
	}
	if header[0] != '*' {
		t.Fatalf("expected array header, got %q", header)
	}
	count, err := strconv.Atoi(strings.TrimSuffix(header[1:], "\r\n"))
	if err != nil {
		t.Fatalf("parse argc: %v", err)
	}
	args := make([]string, 0, count)
	for i := 0; i < count; i++ {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read bulk header %d: %v", i, err)
		}
		if line[0] != '$' {
			t.Fatalf("expected bulk header, got %q", line)
		}
		size, err := strconv.Atoi(strings.TrimSuffix(line[1:], "\r\n"))
		if err != nil {
			t.Fatalf("parse bulk length: %v", err)
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			t.Fatalf("read bulk body %d: %v", i, err)
		}
		args = append(args, string(buf[:size]))
	}
	if _, err := r.ReadByte(); err != io.EOF {
		t.Fatalf("trailing bytes after frame")
	}
	return args
}

func TestEncodeCommandRoundTrip(t *testing.T) {
	cases := [][]string{
		{"FLUSHALL"},
		{"AUTH", "s3cret"},
		{"SET", "key", "value with spaces"},
		{"SET", "bin", "embedded\r\nterminator"},
		{"SET", "empty", ""},
		{"SET", "raw", string([]byte{0, 1, 2, 255})},
	}
	for _, args := range cases {
		frame, err := EncodeCommand(args...)
		if err != nil {
			t.Fatalf("encode %v: %v", args, err)
		}
		got := decodeMultibulk(t, frame)
		if len(got) != len(args) {
			t.Fatalf("argc mismatch: got %d, want %d", len(got), len(args))
		}
		for i := range args {
			if got[i] != args[i] {
				t.Fatalf("arg %d mismatch: got %q, want %q", i, got[i], args[i])
			}
		}
	}
}

func TestEncodeCommandWireFormat(t *testing.T) {
	frame, err := EncodeCommand("AUTH", "pass")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := "*2\r\n$4\r\nAUTH\r\n$4\r\npass\r\n"
	if string(frame) != want {
		t.Fatalf("frame = %q, want %q", frame, want)
	}
}

func TestEncodeCommandEmpty(t *testing.T) {
	if _, err := EncodeCommand(); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func reader(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestReadReplyStatus(t *testing.T) {
	reply, err := ReadReply(reader("+OK\r\n"))
	if err != nil {
		t.Fatalf("read status: %v", err)
	}
	if !reply.IsStatus() || reply.Text != "OK" {
		t.Fatalf("unexpected reply: %#v", reply)
	}
}

func TestReadReplyError(t *testing.T) {
	reply, err := ReadReply(reader("-ERR invalid password\r\n"))
	if err != nil {
		t.Fatalf("read error reply: %v", err)
	}
	if !reply.IsError() {
		t.Fatalf("expected error reply, got %#v", reply)
	}
	if reply.Text != "ERR invalid password" {
		t.Fatalf("error text = %q", reply.Text)
	}
}

func TestReadReplyInteger(t *testing.T) {
	reply, err := ReadReply(reader(":42\r\n"))
	if err != nil {
		t.Fatalf("read integer: %v", err)
	}
	if reply.Kind != KindInteger || reply.Int != 42 {
		t.Fatalf("unexpected reply: %#v", reply)
	}
}

func TestReadReplyBulk(t *testing.T) {
	reply, err := ReadReply(reader("$5\r\nhello\r\n"))
	if err != nil {
		t.Fatalf("read bulk: %v", err)
	}
	if reply.Kind != KindBulk || string(reply.Bulk) != "hello" {
		t.Fatalf("unexpected reply: %#v", reply)
	}
}

func TestReadReplyNullBulk(t *testing.T) {
	reply, err := ReadReply(reader("$-1\r\n"))
	if err != nil {
		t.Fatalf("read null bulk: %v", err)
	}
	if reply.Kind != KindBulk || !reply.Null {
		t.Fatalf("expected null bulk, got %#v", reply)
	}
}

func TestReadReplyArray(t *testing.T) {
	reply, err := ReadReply(reader("*2\r\n$3\r\nfoo\r\n:7\r\n"))
	if err != nil {
		t.Fatalf("read array: %v", err)
	}
	if reply.Kind != KindArray || len(reply.Arr) != 2 {
		t.Fatalf("unexpected reply: %#v", reply)
	}
	if string(reply.Arr[0].Bulk) != "foo" || reply.Arr[1].Int != 7 {
		t.Fatalf("unexpected array items: %#v", reply.Arr)
	}
}

func TestReadReplyClosedBeforeTerminator(t *testing.T) {
	_, err := ReadReply(reader("+OK without newline"))
	if err == nil {
		t.Fatal("expected protocol error")
	}
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
}

func TestReadReplyUnknownSigil(t *testing.T) {
	_, err := ReadReply(reader("?what\r\n"))
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
}

func TestReadReplyBareLF(t *testing.T) {
	_, err := ReadReply(reader("+OK\n"))
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected ErrProtocol for missing CR, got %v", err)
	}
}

func TestReadReplyShortBulk(t *testing.T) {
	_, err := ReadReply(reader("$10\r\nhi\r\n"))
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
}

// stallingReader yields its data, then fails with the given error.
type stallingReader struct {
	data []byte
	err  error
	pos  int
}

func (s *stallingReader) Read(p []byte) (int, error) {
	if s.pos >= len(s.data) {
		return 0, s.err
	}
	n := copy(p, s.data[s.pos:])
	s.pos += n
	return n, nil
}

func TestReadReplyBulkKeepsTransportError(t *testing.T) {
	r := bufio.NewReader(&stallingReader{
		data: []byte("$100\r\npartial"),
		err:  os.ErrDeadlineExceeded,
	})
	_, err := ReadReply(r)
	if !errors.Is(err, os.ErrDeadlineExceeded) {
		t.Fatalf("deadline error flattened: %v", err)
	}
	if errors.Is(err, ErrProtocol) {
		t.Fatalf("timeout mid-bulk must not be a protocol error: %v", err)
	}
}

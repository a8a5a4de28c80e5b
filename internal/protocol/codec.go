package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/apperr"
)

const DefaultMaxFrameBytes = 1 << 20

var (
	ErrFrameTooLarge = apperr.Protocol("ERROR: request too large")
	ErrMalformed     = apperr.Protocol("ERROR: malformed request")
)

// Codec reads requests from and writes responses to one client connection.
// ReadRequest returns io.EOF when the peer is gone and a protocol-kind error
// when the stream can no longer be trusted.
type Codec interface {
	ReadRequest() (Request, error)
	WriteResponse(Response) error
	Close() error
}

// StreamCodec speaks newline-delimited JSON over a byte stream.
type StreamCodec struct {
	conn io.ReadWriteCloser
	sc   *bufio.Scanner
	w    *bufio.Writer
	enc  *json.Encoder
}

func NewStreamCodec(conn io.ReadWriteCloser, maxFrameBytes int) *StreamCodec {
	if maxFrameBytes <= 0 {
		maxFrameBytes = DefaultMaxFrameBytes
	}
	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, min(4096, maxFrameBytes)), maxFrameBytes)
	w := bufio.NewWriter(conn)
	return &StreamCodec{conn: conn, sc: sc, w: w, enc: json.NewEncoder(w)}
}

func (c *StreamCodec) ReadRequest() (Request, error) {
	for c.sc.Scan() {
		line := bytes.TrimSpace(c.sc.Bytes())
		if len(line) == 0 {
			continue
		}
		return decodeRequest(line)
	}
	if err := c.sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return Request{}, ErrFrameTooLarge
		}
		return Request{}, apperr.IO("read request", err)
	}
	return Request{}, io.EOF
}

func (c *StreamCodec) WriteResponse(resp Response) error {
	if err := c.enc.Encode(resp); err != nil {
		return apperr.IO("write response", err)
	}
	if err := c.w.Flush(); err != nil {
		return apperr.IO("flush response", err)
	}
	return nil
}

func (c *StreamCodec) Close() error {
	return c.conn.Close()
}

func decodeRequest(raw []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil || req.Command == "" {
		return Request{}, ErrMalformed
	}
	return req, nil
}

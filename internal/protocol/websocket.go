package protocol

import (
	"errors"
	"io"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/apperr"
)

// WebsocketCodec carries one JSON request or response per websocket message.
type WebsocketCodec struct {
	conn *websocket.Conn
}

func NewWebsocketCodec(conn *websocket.Conn, maxFrameBytes int) *WebsocketCodec {
	if maxFrameBytes <= 0 {
		maxFrameBytes = DefaultMaxFrameBytes
	}
	conn.SetReadLimit(int64(maxFrameBytes))
	return &WebsocketCodec{conn: conn}
}

func (c *WebsocketCodec) ReadRequest() (Request, error) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			switch {
			case errors.Is(err, websocket.ErrReadLimit):
				return Request{}, ErrFrameTooLarge
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
				return Request{}, io.EOF
			}
			return Request{}, apperr.IO("read request", err)
		}
		if len(data) == 0 {
			continue
		}
		return decodeRequest(data)
	}
}

func (c *WebsocketCodec) WriteResponse(resp Response) error {
	if err := c.conn.WriteJSON(resp); err != nil {
		return apperr.IO("write response", err)
	}
	return nil
}

func (c *WebsocketCodec) Close() error {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return c.conn.Close()
}

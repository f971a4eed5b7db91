package feed

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/iqbalbaharum/constant-product-pool/internal/types"
)

// Client subscribes to a trade feed.
type Client struct {
	conn      *websocket.Conn
	url       string
	trades    chan types.Trade
	done      chan struct{}
	closing   chan struct{} // releases a listener blocked on a full trades channel
	closeOnce sync.Once
	logger    *zap.Logger
}

func NewClient(url string, header http.Header, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		return nil, err
	}

	client := &Client{
		conn:   conn,
		url:    url,
		trades:  make(chan types.Trade, sendBuffer),
		done:    make(chan struct{}),
		closing: make(chan struct{}),
		logger:  logger,
	}

	go client.listenMessages()

	return client, nil
}

func (c *Client) listenMessages() {
	defer close(c.done)
	defer close(c.trades)
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.logger.Debug("error reading message", zap.Error(err))
			}
			return
		}

		var trade types.Trade
		if err := json.Unmarshal(message, &trade); err != nil {
			c.logger.Warn("unexpected message", zap.ByteString("message", message))
			continue
		}
		select {
		case c.trades <- trade:
		case <-c.closing:
			return
		}
	}
}

// Trades yields received trades and is closed when the connection ends.
func (c *Client) Trades() <-chan types.Trade {
	return c.trades
}

func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.closing) })
	err := c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return c.conn.Close()
	}
	select {
	case <-c.done:
	case <-time.After(time.Second):
	}
	return c.conn.Close()
}

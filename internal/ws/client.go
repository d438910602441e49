package ws

import (
	"sync"

	"golang.org/x/net/websocket"
)

type Client struct {
	conn      *websocket.Conn
	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu       sync.RWMutex
	channels map[string]struct{}
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		conn:     conn,
		out:      make(chan []byte, 64),
		done:     make(chan struct{}),
		channels: map[string]struct{}{},
	}
}

// send queues payload. A client that cannot keep up is disconnected; it
// reports false so the hub can count the drop.
func (c *Client) send(payload []byte) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.out <- payload:
		return true
	default:
		c.close()
		return false
	}
}

// close stops the writer and the connection. out is never closed, so a
// publish racing with disconnect cannot panic.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *Client) addChannel(channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channels[channel] = struct{}{}
}

func (c *Client) listChannels() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.channels))
	for ch := range c.channels {
		out = append(out, ch)
	}
	return out
}

package livefeed

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

type client struct {
	feed *Feed
	conn *websocket.Conn
	send chan []byte
}

// enqueue drops the frame for a client that cannot keep up; caller holds feed.mu
func (c *client) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
		log.Printf("[WARN][LIVE] slow admin connection, frame dropped")
	}
}

// readPump only answers pings; the feed is one-way
func (c *client) readPump() {
	defer func() {
		c.feed.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WARN][LIVE] read error: %v", err)
			}
			return
		}
		var msg Message
		reply := newMessage(TypePong, nil)
		if err = json.Unmarshal(message, &msg); err != nil {
			reply = newMessage(TypeError, "invalid_json")
		} else if msg.Type != TypePing {
			continue
		}
		if data, err := json.Marshal(reply); err == nil {
			c.feed.mu.RLock()
			if _, ok := c.feed.clients[c]; ok {
				c.enqueue(data)
			}
			c.feed.mu.RUnlock()
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The feed closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

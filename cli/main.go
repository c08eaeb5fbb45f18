// Package main provides a terminal console for the catalog bot's WebSocket endpoint.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/juju/errors"

	"github.com/xiaot623/catalogbot/internal/protocol"
)

// Client represents a console WebSocket client.
type Client struct {
	conn      *websocket.Conn
	sessionID string
	done      chan struct{}
}

// NewClient creates a new client and connects to the server.
func NewClient(addr string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return nil, errors.Annotate(err, "dial")
	}

	return &Client{
		conn: conn,
		done: make(chan struct{}),
	}, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	close(c.done)
	return c.conn.Close()
}

// SendHello sends a hello message and waits for hello_ack.
func (c *Client) SendHello(sessionID, apiKey string) error {
	msg := protocol.HelloMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeHello,
			Ts:        time.Now().UnixMilli(),
			SessionID: sessionID,
		},
		APIKey: apiKey,
		ClientMeta: map[string]string{
			"client": "catalogbot-cli",
		},
	}

	if err := c.conn.WriteJSON(msg); err != nil {
		return errors.Annotate(err, "write hello")
	}

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return errors.Annotate(err, "read hello_ack")
	}

	var base protocol.BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		return errors.Annotate(err, "unmarshal hello_ack")
	}

	if base.Type == protocol.TypeError {
		var errMsg protocol.ErrorMessage
		json.Unmarshal(data, &errMsg)
		return errors.Errorf("hello failed: %s - %s", errMsg.Code, errMsg.Message)
	}

	if base.Type != protocol.TypeHelloAck {
		return errors.Errorf("expected hello_ack, got: %s", base.Type)
	}

	c.sessionID = base.SessionID
	return nil
}

// SendText sends one typed line to the conversation.
func (c *Client) SendText(content string) error {
	msg := protocol.TextMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeText,
			Ts:        time.Now().UnixMilli(),
			SessionID: c.sessionID,
			RequestID: fmt.Sprintf("req_%d", time.Now().UnixNano()),
		},
		Content: content,
	}

	return c.conn.WriteJSON(msg)
}

// ReadMessages reads and prints replies from the server.
func (c *Client) ReadMessages() {
	for {
		select {
		case <-c.done:
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					log.Printf("Read error: %v", err)
				}
				return
			}

			var base protocol.BaseMessage
			if err := json.Unmarshal(data, &base); err != nil {
				log.Printf("Unmarshal error: %v", err)
				continue
			}

			switch base.Type {
			case protocol.TypeReply:
				var reply protocol.ReplyMessage
				json.Unmarshal(data, &reply)
				printReply(reply)
			case protocol.TypeError:
				var errMsg protocol.ErrorMessage
				json.Unmarshal(data, &errMsg)
				fmt.Printf("\n[error] %s: %s\n> ", errMsg.Code, errMsg.Message)
			default:
				fmt.Printf("\n[%s] %s\n> ", base.Type, string(data))
			}
		}
	}
}

func printReply(reply protocol.ReplyMessage) {
	fmt.Printf("\n%s\n", reply.Text)
	if len(reply.Keyboard) > 0 {
		fmt.Println()
		for _, button := range reply.Keyboard {
			fmt.Printf("  [%s]\n", button)
		}
	}
	fmt.Print("> ")
}

func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket server address")
	apiKey := flag.String("api-key", "", "API key for authentication")
	sessionID := flag.String("session", "", "Console session to resume (console_...)")
	flag.Parse()

	log.SetFlags(log.Ltime)

	fmt.Printf("Connecting to %s...\n", *addr)

	client, err := NewClient(*addr)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer client.Close()

	if err := client.SendHello(*sessionID, *apiKey); err != nil {
		log.Fatalf("Hello failed: %v", err)
	}

	fmt.Printf("Session established: %s\n", client.sessionID)
	fmt.Println("\nType /start to login. Menu buttons can be typed as shown.")
	fmt.Println("Commands: /quit to exit")

	go client.ReadMessages()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	fmt.Print("> ")
	for {
		select {
		case <-interrupt:
			fmt.Println("\nInterrupted")
			return
		case line, ok := <-lines:
			if !ok {
				return
			}

			input := strings.TrimSpace(line)
			if input == "" {
				fmt.Print("> ")
				continue
			}

			if input == "/quit" {
				fmt.Println("Bye!")
				return
			}

			if err := client.SendText(input); err != nil {
				log.Printf("Send error: %v", err)
			}
		}
	}
}

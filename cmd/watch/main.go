// Command watch prints live dashboard snapshots of one account.
package main

import (
	"log"
	"net/url"
	"os"
	"os/signal"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/spf13/pflag"
)

type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func main() {
	server := pflag.String("server", "ws://localhost:5000", "base websocket URL of the API")
	username := pflag.String("username", "", "account whose dashboard to watch")
	pflag.Parse()

	if *username == "" {
		log.Fatal("--username is required")
	}

	endpoint := *server + "/api/form/dashboard/" + url.PathEscape(*username) + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer conn.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	messageQueue := make(chan Message)

	go func() {
		defer close(messageQueue)
		for {
			_, p, err := conn.ReadMessage()
			if err != nil {
				log.Println("read error:", err)
				return
			}

			var msg Message
			if err := json.Unmarshal(p, &msg); err != nil {
				log.Println("json unmarshal error:", err)
				continue
			}
			messageQueue <- msg
		}
	}()

	for {
		select {
		case msg, ok := <-messageQueue:
			if !ok {
				return
			}
			log.Printf("Received %s:\n%s\n", msg.Type, msg.Payload)
		case <-interrupt:
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

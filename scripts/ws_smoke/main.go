package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/studylink/studylink-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "tester", "user id to announce")
	room := flag.String("room", "general", "chat room id")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(frameType string, data interface{}) error {
		raw, marshalErr := json.Marshal(data)
		if marshalErr != nil {
			return fmt.Errorf("marshal %s: %w", frameType, marshalErr)
		}
		if writeErr := wsjson.Write(ctx, conn, proto.Inbound{Type: frameType, Data: raw}); writeErr != nil {
			return fmt.Errorf("send %s: %w", frameType, writeErr)
		}
		return nil
	}

	if err := send(proto.InboundTypeUserOnline, proto.UserOnlineData{UserID: *user}); err != nil {
		return err
	}
	if err := send(proto.InboundTypeJoinRoom, proto.JoinRoomData{ChatRoomID: *room}); err != nil {
		return err
	}
	if err := send(proto.InboundTypeSendMessage, proto.SendMessageData{
		ChatRoomID: *room,
		UserID:     *user,
		Message:    *text,
	}); err != nil {
		return err
	}

	for {
		var outbound proto.Outbound
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		fmt.Printf("Received outbound: type=%s", outbound.Type)
		if outbound.Event != "" {
			fmt.Printf(" event=%s", outbound.Event)
		}
		fmt.Println()

		if outbound.Error != nil {
			fmt.Printf("Error: %s: %s\n", outbound.Error.Code, outbound.Error.Msg)
		}

		raw, err := json.Marshal(outbound.Data)
		if err != nil {
			return fmt.Errorf("marshal outbound data: %w", err)
		}

		switch outbound.Event {
		case proto.EventNewMessage:
			var evt proto.NewMessageData
			if unmarshalErr := json.Unmarshal(raw, &evt); unmarshalErr != nil {
				fmt.Printf("Raw data: %s\n", string(raw))
				return fmt.Errorf("unmarshal newMessage: %w", unmarshalErr)
			}
			fmt.Printf("NewMessage: room=%s user=%s text=%q ts=%d\n", evt.ChatRoomID, evt.UserID, evt.Message, evt.Timestamp)
			return nil
		case proto.EventOnlineStatusUpdate:
			var evt proto.UserStatusData
			if err := json.Unmarshal(raw, &evt); err == nil {
				fmt.Printf("Presence: user=%s status=%s\n", evt.UserID, evt.Status)
			}
		case proto.EventMessageError:
			var evt proto.MessageErrorData
			if err := json.Unmarshal(raw, &evt); err == nil {
				fmt.Printf("MessageError: %s\n", evt.Message)
			}
		default:
			// keep looping for newMessage
		}
	}
}

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/studylink/studylink-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "cli-user", "user id to announce")
	room := flag.String("room", "general", "chat room id to join")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
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

	fmt.Printf("Connected to %s as %s in room %s\n", *addr, *user, *room)
	fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn, *user, *room)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var outbound proto.Outbound
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		if outbound.Error != nil {
			fmt.Printf("error: %s: %s\n", outbound.Error.Code, outbound.Error.Msg)
			continue
		}

		raw, err := json.Marshal(outbound.Data)
		if err != nil {
			log.Printf("marshal outbound data: %v", err)
			continue
		}

		switch outbound.Event {
		case proto.EventNewMessage:
			var evt proto.NewMessageData
			if err := json.Unmarshal(raw, &evt); err != nil {
				log.Printf("unmarshal newMessage: %v", err)
				continue
			}
			fmt.Printf("[%s] %s: %s\n", evt.ChatRoomID, evt.UserID, evt.Message)
		case proto.EventOnlineStatusUpdate:
			var evt proto.UserStatusData
			if err := json.Unmarshal(raw, &evt); err != nil {
				log.Printf("unmarshal onlineStatusUpdate: %v", err)
				continue
			}
			fmt.Printf("[presence] %s is %s\n", evt.UserID, evt.Status)
		case proto.EventMessageError:
			var evt proto.MessageErrorData
			if err := json.Unmarshal(raw, &evt); err != nil {
				log.Printf("unmarshal messageError: %v", err)
				continue
			}
			fmt.Printf("message rejected: %s\n", evt.Message)
		case proto.EventIncomingCall:
			var evt proto.IncomingCallData
			if err := json.Unmarshal(raw, &evt); err != nil {
				log.Printf("unmarshal incomingCall: %v", err)
				continue
			}
			fmt.Printf("[call] incoming call from %s\n", evt.From)
		default:
			fmt.Printf("event=%s data=%s\n", outbound.Event, string(raw))
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, user, room string) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			payload, err := json.Marshal(proto.SendMessageData{
				ChatRoomID: room,
				UserID:     user,
				Message:    text,
			})
			if err != nil {
				log.Printf("marshal sendMessage: %v", err)
				return
			}
			if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeSendMessage, Data: payload}); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}

package http

import (
	"encoding/json"

	"github.com/studylink/studylink-server/internal/proto"
	"github.com/studylink/studylink-server/internal/relay"
)

// inboundToCommand maps a wire frame onto a relay command. The protocol is
// closed: unknown frame types come back as a proto.Error for the sender.
func inboundToCommand(inbound proto.Inbound) (*relay.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeUserOnline:
		var data proto.UserOnlineData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.UserID == "" {
			return nil, &proto.Error{Code: relay.ErrCodeBadRequest, Msg: "userId is required"}, nil
		}
		return &relay.Command{Kind: relay.CommandAnnounce, UserID: data.UserID}, nil, nil

	case proto.InboundTypeCheckUserStatus:
		var data proto.CheckUserStatusData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.UserID == "" {
			return nil, &proto.Error{Code: relay.ErrCodeBadRequest, Msg: "userId is required"}, nil
		}
		return &relay.Command{Kind: relay.CommandCheckStatus, UserID: data.UserID}, nil, nil

	case proto.InboundTypeJoinRoom:
		var data proto.JoinRoomData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.ChatRoomID == "" {
			return nil, &proto.Error{Code: relay.ErrCodeBadRequest, Msg: "chatRoomId is required"}, nil
		}
		return &relay.Command{Kind: relay.CommandJoinRoom, Room: data.ChatRoomID}, nil, nil

	case proto.InboundTypeSendMessage:
		var data proto.SendMessageData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		// Missing fields travel to the hub so the sender gets a
		// messageError event rather than a protocol error.
		return &relay.Command{
			Kind: relay.CommandSendMessage,
			Message: relay.ChatMessage{
				ChatRoomID: data.ChatRoomID,
				UserID:     data.UserID,
				Message:    data.Message,
			},
		}, nil, nil

	case proto.InboundTypeCallUser, proto.InboundTypeAnswerCall,
		proto.InboundTypeUpdateOffer, proto.InboundTypeUpdateAnswer,
		proto.InboundTypeICECandidate, proto.InboundTypeEndCall,
		proto.InboundTypeScreenShareEnded:
		return signalCommand(inbound)

	case proto.InboundTypeNotifyConnection:
		var data proto.NotifyConnectionData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.UserID == "" || data.Action == "" {
			return nil, &proto.Error{Code: relay.ErrCodeBadRequest, Msg: "userId and action are required"}, nil
		}
		return &relay.Command{
			Kind:   relay.CommandNotifyConnection,
			UserID: data.UserID,
			Action: data.Action,
		}, nil, nil

	default:
		return nil, &proto.Error{Code: relay.ErrCodeUnknownType, Msg: "unknown message type"}, nil
	}
}

func signalCommand(inbound proto.Inbound) (*relay.Command, *proto.Error, error) {
	var data proto.SignalData
	if err := json.Unmarshal(inbound.Data, &data); err != nil {
		return nil, nil, err
	}
	if data.To == "" {
		return nil, &proto.Error{Code: relay.ErrCodeBadRequest, Msg: "to is required"}, nil
	}

	sig := relay.Signal{To: data.To}
	switch inbound.Type {
	case proto.InboundTypeCallUser:
		sig.Kind = relay.SignalCallUser
		sig.Payload = data.Offer
	case proto.InboundTypeAnswerCall:
		sig.Kind = relay.SignalAnswerCall
		sig.Payload = data.Answer
	case proto.InboundTypeUpdateOffer:
		sig.Kind = relay.SignalUpdateOffer
		sig.Payload = data.Offer
	case proto.InboundTypeUpdateAnswer:
		sig.Kind = relay.SignalUpdateAnswer
		sig.Payload = data.Answer
	case proto.InboundTypeICECandidate:
		sig.Kind = relay.SignalICECandidate
		sig.Payload = data.Candidate
	case proto.InboundTypeEndCall:
		sig.Kind = relay.SignalEndCall
	case proto.InboundTypeScreenShareEnded:
		sig.Kind = relay.SignalScreenShareEnded
	}

	return &relay.Command{Kind: relay.CommandSignal, Signal: sig}, nil, nil
}

func outboundFromEvent(event *relay.Event) proto.Outbound {
	switch event.Kind {
	case relay.EventOnlineStatus:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventOnlineStatusUpdate,
			Data:  proto.UserStatusData{UserID: event.UserID, Status: event.Status},
		}
	case relay.EventUserStatus:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventUserStatusResponse,
			Data:  proto.UserStatusData{UserID: event.UserID, Status: event.Status},
		}
	case relay.EventNewMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNewMessage,
			Data: proto.NewMessageData{
				ChatRoomID: event.Message.ChatRoomID,
				UserID:     event.Message.UserID,
				Message:    event.Message.Message,
				Timestamp:  event.Message.Timestamp,
			},
		}
	case relay.EventMessageError:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventMessageError,
			Data:  proto.MessageErrorData{Message: event.Message.Message},
		}
	case relay.EventIncomingCall:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventIncomingCall,
			Data:  proto.IncomingCallData{From: event.From, Offer: event.Payload},
		}
	case relay.EventCallAnswered:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventCallAnswered,
			Data:  proto.CallAnsweredData{Answer: event.Payload},
		}
	case relay.EventUpdateOffer:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventUpdateOffer,
			Data:  proto.UpdateOfferData{From: event.From, Offer: event.Payload},
		}
	case relay.EventUpdateAnswer:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventUpdateAnswer,
			Data:  proto.UpdateAnswerData{Answer: event.Payload},
		}
	case relay.EventICECandidate:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventICECandidate,
			Data:  proto.ICECandidateData{Candidate: event.Payload},
		}
	case relay.EventCallEnded:
		return proto.Outbound{Type: proto.OutboundTypeEvent, Event: proto.EventCallEnded}
	case relay.EventScreenShareEnded:
		return proto.Outbound{Type: proto.OutboundTypeEvent, Event: proto.EventScreenShareEnded}
	case relay.EventReceiveConnection:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventReceiveConnection,
			Data:  proto.ReceiveConnectionData{Action: event.Action},
		}
	case relay.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

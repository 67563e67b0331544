package http

import (
	"github.com/vovakirdan/citychain-server/internal/core"
	"github.com/vovakirdan/citychain-server/internal/proto"
)

func outboundFromEvent(event *core.Event) proto.Outbound {
	out := proto.Outbound{
		Type:  proto.OutboundTypeEvent,
		Event: event.Kind.String(),
		Data: &proto.EventData{
			Text:    event.Text,
			Room:    event.Room,
			City:    event.City,
			Letter:  event.Letter,
			History: event.History,
		},
	}
	if len(event.Rooms) > 0 {
		out.Data.Rooms = roomsToProto(event.Rooms)
	}
	if event.Error != nil {
		out.Type = proto.OutboundTypeError
		out.Error = &proto.Error{Code: event.Error.Code, Msg: event.Error.Message}
	}
	return out
}

func roomsToProto(rooms []core.RoomInfo) []proto.RoomInfo {
	result := make([]proto.RoomInfo, 0, len(rooms))
	for _, info := range rooms {
		result = append(result, roomToProto(info))
	}
	return result
}

func roomToProto(info core.RoomInfo) proto.RoomInfo {
	out := proto.RoomInfo{
		ID:       info.ID,
		Players:  info.Players,
		Capacity: core.MaxPlayers,
		Status:   info.Status.String(),
		Round:    info.Round,
		History:  info.History,
	}
	// Open doubles as "nothing has ended yet".
	if info.LastOutcome != core.StatusOpen {
		out.LastOutcome = info.LastOutcome.String()
	}
	return out
}

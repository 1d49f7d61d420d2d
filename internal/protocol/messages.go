package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/masterminds-game/masterminds/internal/game/room"
	"github.com/masterminds-game/masterminds/internal/game/state"
)

// ErrUnknownEvent is returned when a client sends an unrecognised event name.
var ErrUnknownEvent = errors.New("unknown event")

// ErrBadPayload is returned when an event payload fails to parse or validate.
var ErrBadPayload = errors.New("malformed event payload")

// Envelope is the wire frame for every event in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope builds an envelope with a JSON-encoded payload. A nil
// payload produces an envelope with no data.
func NewEnvelope(event string, payload any) (Envelope, error) {
	env := Envelope{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, fmt.Errorf("encoding %s payload: %w", event, err)
		}
		env.Data = data
	}
	return env, nil
}

// CreateRoomRequest asks the server to create a room with the requester
// as its first member.
type CreateRoomRequest struct {
	Nickname string `json:"nickname"`
}

// JoinRequest asks the server to add the requester to an existing room.
type JoinRequest struct {
	Nickname string `json:"nickname"`
	RoomCode string `json:"roomCode"`
}

// SetTeamAndRoleRequest reassigns the requester's team and role.
type SetTeamAndRoleRequest struct {
	Team room.Team `json:"team"`
	Role room.Role `json:"role"`
}

// WordSuggestion marks or unmarks a board word as suggested by the
// requester.
type WordSuggestion struct {
	Word string `json:"word"`
}

// RoomRef names a room in a load request.
type RoomRef struct {
	RoomCode string `json:"roomCode"`
}

// RoomCodePayload carries a room code in a creation/join reply.
type RoomCodePayload struct {
	RoomCode string `json:"roomCode"`
}

// TeamPayload carries a team in a mastermind flag notification.
type TeamPayload struct {
	Team room.Team `json:"team"`
}

// WordSuggestedPayload reports the current suggesters of one word.
type WordSuggestedPayload struct {
	Word  string   `json:"word"`
	Users []string `json:"users"`
}

// WordSetPayload carries the room's full word board.
type WordSetPayload struct {
	Words map[string]state.Word `json:"words"`
}

// ClientMessage is the tagged union of all client → server requests.
//
// Invariant: exactly one variant is populated; Event names which one.
type ClientMessage struct {
	Event string

	CreateRoom      *CreateRoomRequest
	Join            *JoinRequest
	SetTeamAndRole  *SetTeamAndRoleRequest
	Suggest         *WordSuggestion
	Unsuggest       *WordSuggestion
	LoadUsers       *RoomRef
	LoadGameLog     *RoomRef
	Leave           bool
	CheckMastermind bool
}

// Decode parses and validates a raw client frame into a ClientMessage.
// Unknown events and malformed payloads are rejected here, before
// anything reaches the room registry.
//
// Postcondition: On success the returned message has exactly one
// populated variant matching its Event.
func Decode(raw []byte) (ClientMessage, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ClientMessage{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	msg := ClientMessage{Event: env.Event}

	switch env.Event {
	case EventRequestRoomCreation:
		var req CreateRoomRequest
		if err := unmarshalPayload(env, &req); err != nil {
			return ClientMessage{}, err
		}
		msg.CreateRoom = &req

	case EventRequestToJoin:
		var req JoinRequest
		if err := unmarshalPayload(env, &req); err != nil {
			return ClientMessage{}, err
		}
		msg.Join = &req

	case EventSetTeamAndRole:
		var req SetTeamAndRoleRequest
		if err := unmarshalPayload(env, &req); err != nil {
			return ClientMessage{}, err
		}
		if !room.ValidTeam(req.Team) || !room.ValidRole(req.Role) {
			return ClientMessage{}, fmt.Errorf("%w: invalid team %q or role %q", ErrBadPayload, req.Team, req.Role)
		}
		msg.SetTeamAndRole = &req

	case EventSuggestWord:
		var req WordSuggestion
		if err := unmarshalPayload(env, &req); err != nil {
			return ClientMessage{}, err
		}
		if req.Word == "" {
			return ClientMessage{}, fmt.Errorf("%w: empty word", ErrBadPayload)
		}
		msg.Suggest = &req

	case EventUnsuggestWord:
		var req WordSuggestion
		if err := unmarshalPayload(env, &req); err != nil {
			return ClientMessage{}, err
		}
		if req.Word == "" {
			return ClientMessage{}, fmt.Errorf("%w: empty word", ErrBadPayload)
		}
		msg.Unsuggest = &req

	case EventLoadUsers:
		var ref RoomRef
		if err := unmarshalPayload(env, &ref); err != nil {
			return ClientMessage{}, err
		}
		msg.LoadUsers = &ref

	case EventLoadGameLog:
		var ref RoomRef
		if err := unmarshalPayload(env, &ref); err != nil {
			return ClientMessage{}, err
		}
		msg.LoadGameLog = &ref

	case EventLeave:
		msg.Leave = true

	case EventCheckMastermind:
		msg.CheckMastermind = true

	default:
		return ClientMessage{}, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}

	return msg, nil
}

func unmarshalPayload(env Envelope, dst any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("%w: %s requires a payload", ErrBadPayload, env.Event)
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadPayload, env.Event, err)
	}
	return nil
}

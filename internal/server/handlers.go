package server

import (
	"errors"

	"go.uber.org/zap"

	"github.com/masterminds-game/masterminds/internal/game/room"
	"github.com/masterminds-game/masterminds/internal/protocol"
)

// handleMessage dispatches one validated client request. Runs on the hub
// goroutine, so each handler is atomic with respect to the registry.
func (h *Hub) handleMessage(c *Client, msg protocol.ClientMessage) {
	switch {
	case msg.CreateRoom != nil:
		h.handleCreateRoom(c, *msg.CreateRoom)
	case msg.Join != nil:
		h.handleJoin(c, *msg.Join)
	case msg.SetTeamAndRole != nil:
		h.handleSetTeamAndRole(c, *msg.SetTeamAndRole)
	case msg.Suggest != nil:
		h.handleSuggestion(c, msg.Suggest.Word, true)
	case msg.Unsuggest != nil:
		h.handleSuggestion(c, msg.Unsuggest.Word, false)
	case msg.LoadUsers != nil:
		h.sendTo(c, protocol.EventAllUsers, h.registry.GetUsers(msg.LoadUsers.RoomCode))
	case msg.LoadGameLog != nil:
		h.sendTo(c, protocol.EventGameLog, h.registry.GameLog(msg.LoadGameLog.RoomCode))
	case msg.Leave:
		h.handleLeave(c)
	case msg.CheckMastermind:
		h.handleCheckMastermind(c)
	}
}

func (h *Hub) handleCreateRoom(c *Client, req protocol.CreateRoomRequest) {
	rm, user, err := h.registry.CreateRoom(c.id, req.Nickname)
	if err != nil {
		switch {
		case errors.Is(err, room.ErrNicknameEmpty):
			h.sendTo(c, protocol.EventNicknameEmptyCreate, nil)
		case errors.Is(err, room.ErrNicknameTooLong):
			h.sendTo(c, protocol.EventNicknameLongCreate, nil)
		default:
			h.logger.Error("creating room",
				zap.String("socket_id", c.id),
				zap.Error(err),
			)
		}
		return
	}

	h.sendTo(c, protocol.EventJoinedCreatedRoom, protocol.RoomCodePayload{RoomCode: rm.Code})
	h.sendTo(c, protocol.EventAllUsers, h.registry.GetUsers(rm.Code))
	h.sendTo(c, protocol.EventWordSet, protocol.WordSetPayload{Words: h.registry.WordSet(rm.Code)})
	h.broadcastToRoom(rm.Code, protocol.EventAddUser, user)

	h.persistAsync()
}

func (h *Hub) handleJoin(c *Client, req protocol.JoinRequest) {
	user, err := h.registry.JoinRoom(c.id, req.Nickname, req.RoomCode)
	if err != nil {
		switch {
		case errors.Is(err, room.ErrRoomNotFound):
			h.sendTo(c, protocol.EventRoomDoesNotExist, nil)
		case errors.Is(err, room.ErrNicknameEmpty):
			h.sendTo(c, protocol.EventNicknameEmptyJoin, nil)
		case errors.Is(err, room.ErrNicknameTooLong):
			h.sendTo(c, protocol.EventNicknameLongJoin, nil)
		case errors.Is(err, room.ErrNicknameUsed):
			h.sendTo(c, protocol.EventUserAlreadyExists, nil)
		case errors.Is(err, room.ErrRoomFull):
			h.sendTo(c, protocol.EventMaxCapacity, nil)
		default:
			h.logger.Error("joining room",
				zap.String("socket_id", c.id),
				zap.String("room", req.RoomCode),
				zap.Error(err),
			)
		}
		return
	}

	h.sendTo(c, protocol.EventJoinedRoom, protocol.RoomCodePayload{RoomCode: user.Room})
	h.sendTo(c, protocol.EventAllUsers, h.registry.GetUsers(user.Room))
	h.sendTo(c, protocol.EventWordSet, protocol.WordSetPayload{Words: h.registry.WordSet(user.Room)})
	h.broadcastToRoom(user.Room, protocol.EventAddUser, user)
}

func (h *Hub) handleSetTeamAndRole(c *Client, req protocol.SetTeamAndRoleRequest) {
	change, err := h.registry.SetTeamAndRole(c.id, req.Team, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, room.ErrMastermindTaken):
			h.sendTo(c, protocol.EventMastermindDenied, protocol.TeamPayload{Team: req.Team})
		case errors.Is(err, room.ErrUnknownUser), errors.Is(err, room.ErrRoomNotFound):
			c.logger.Debug("role change for unknown user",
				zap.String("socket_id", c.id),
			)
		default:
			h.logger.Error("setting team and role",
				zap.String("socket_id", c.id),
				zap.Error(err),
			)
		}
		return
	}

	code := change.User.Room
	h.broadcastToRoom(code, protocol.EventTeamUpdated, change.User)
	h.broadcastToRoom(code, protocol.EventRoleUpdated, change.User)
	if change.Cleared != room.TeamNone {
		h.broadcastToRoom(code, protocol.EventMastermindUnset, protocol.TeamPayload{Team: change.Cleared})
	}
	if change.Set != room.TeamNone {
		h.broadcastToRoom(code, protocol.EventMastermindSet, protocol.TeamPayload{Team: change.Set})
	}
}

func (h *Hub) handleSuggestion(c *Client, word string, suggest bool) {
	var (
		users []string
		err   error
	)
	if suggest {
		users, err = h.registry.SuggestWord(c.id, word)
	} else {
		users, err = h.registry.UnsuggestWord(c.id, word)
	}
	if err != nil {
		c.logger.Debug("word suggestion rejected",
			zap.String("socket_id", c.id),
			zap.String("word", word),
			zap.Error(err),
		)
		return
	}

	user, ok := h.registry.GetUser(c.id)
	if !ok {
		return
	}
	h.broadcastToRoom(user.Room, protocol.EventWordSuggested, protocol.WordSuggestedPayload{
		Word:  word,
		Users: users,
	})

	h.persistAsync()
}

func (h *Hub) handleCheckMastermind(c *Client) {
	user, ok := h.registry.GetUser(c.id)
	if !ok {
		return
	}
	flags, ok := h.registry.MastermindTaken(user.Room)
	if !ok {
		return
	}
	h.sendTo(c, protocol.EventMastermindTaken, flags)
}

// handleLeave processes a voluntary departure.
func (h *Hub) handleLeave(c *Client) {
	if h.handleDeparture(c.id) {
		h.sendTo(c, protocol.EventLeftRoom, nil)
	}
}

// handleDeparture removes the user behind socketID, notifies the room,
// and persists the purged suggestion state. Shared between voluntary
// leaves and socket disconnects; removing an unknown socket is a no-op.
//
// Precondition: called only from the hub goroutine.
func (h *Hub) handleDeparture(socketID string) bool {
	user, change, ok := h.registry.RemoveUser(socketID)
	if !ok {
		return false
	}

	h.broadcastToRoom(user.Room, protocol.EventRemoveUser, user)
	if change.Cleared != room.TeamNone {
		h.broadcastToRoom(user.Room, protocol.EventMastermindUnset, protocol.TeamPayload{Team: change.Cleared})
	}

	h.persistAsync()
	return true
}

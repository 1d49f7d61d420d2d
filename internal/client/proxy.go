package client

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/masterminds-game/masterminds/internal/game/room"
	"github.com/masterminds-game/masterminds/internal/game/state"
	"github.com/masterminds-game/masterminds/internal/protocol"
)

// Conn is the slice of the connection manager the proxy needs: sending
// requests and receiving inbound events.
type Conn interface {
	Send(event string, payload any) error
	SetHandler(func(protocol.Envelope))
}

// RoomProxy mirrors the server-side room locally: the roster, the
// mastermind flags, the word board, the suggestion lists, and the game
// log. All mutation happens through inbound events; request methods only
// send, and the mirror catches up when the server answers.
type RoomProxy struct {
	conn   Conn
	logger *zap.Logger

	mu          sync.Mutex
	roomCode    string
	users       []room.User
	flags       room.MastermindFlags
	words       map[string]state.Word
	suggestions map[string][]string
	gameLog     []room.LogEntry
	onChange    func()
	onNotice    func(string)
}

// NewRoomProxy creates a proxy and attaches it as the connection's event
// handler.
func NewRoomProxy(conn Conn, logger *zap.Logger) *RoomProxy {
	p := &RoomProxy{
		conn:        conn,
		logger:      logger,
		words:       map[string]state.Word{},
		suggestions: map[string][]string{},
	}
	conn.SetHandler(p.handle)
	return p
}

// OnChange registers a callback invoked after any mirror update.
func (p *RoomProxy) OnChange(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

// OnNotice registers a callback for user-facing notices such as
// rejected nicknames or a denied mastermind claim.
func (p *RoomProxy) OnNotice(fn func(string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onNotice = fn
}

// CreateRoom asks the server to create a room with this client as its
// first member.
func (p *RoomProxy) CreateRoom(nickname string) error {
	return p.conn.Send(protocol.EventRequestRoomCreation, protocol.CreateRoomRequest{Nickname: nickname})
}

// JoinRoom asks the server to add this client to roomCode.
func (p *RoomProxy) JoinRoom(nickname, roomCode string) error {
	return p.conn.Send(protocol.EventRequestToJoin, protocol.JoinRequest{Nickname: nickname, RoomCode: roomCode})
}

// Leave asks the server to remove this client from its room.
func (p *RoomProxy) Leave() error {
	return p.conn.Send(protocol.EventLeave, nil)
}

// SetTeamAndRole asks the server to reassign this client's team and role.
func (p *RoomProxy) SetTeamAndRole(team room.Team, role room.Role) error {
	return p.conn.Send(protocol.EventSetTeamAndRole, protocol.SetTeamAndRoleRequest{Team: team, Role: role})
}

// Suggest marks a board word as suggested by this client.
func (p *RoomProxy) Suggest(word string) error {
	return p.conn.Send(protocol.EventSuggestWord, protocol.WordSuggestion{Word: word})
}

// Unsuggest withdraws this client's suggestion of a board word.
func (p *RoomProxy) Unsuggest(word string) error {
	return p.conn.Send(protocol.EventUnsuggestWord, protocol.WordSuggestion{Word: word})
}

// RoomCode returns the code of the joined room, or "" before joining.
func (p *RoomProxy) RoomCode() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.roomCode
}

// Users returns the roster in join order.
func (p *RoomProxy) Users() []room.User {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]room.User, len(p.users))
	copy(out, p.users)
	return out
}

// Masterminds reports which teams currently have a mastermind.
func (p *RoomProxy) Masterminds() room.MastermindFlags {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flags
}

// Words returns a copy of the word board.
func (p *RoomProxy) Words() map[string]state.Word {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]state.Word, len(p.words))
	for k, v := range p.words {
		out[k] = v
	}
	return out
}

// Suggesters returns the users currently suggesting word.
func (p *RoomProxy) Suggesters(word string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.suggestions[word]))
	copy(out, p.suggestions[word])
	return out
}

// GameLog returns the accumulated game log.
func (p *RoomProxy) GameLog() []room.LogEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]room.LogEntry, len(p.gameLog))
	copy(out, p.gameLog)
	return out
}

func (p *RoomProxy) handle(env protocol.Envelope) {
	switch env.Event {
	case protocol.EventJoinedCreatedRoom, protocol.EventJoinedRoom:
		var ref protocol.RoomCodePayload
		if !p.decode(env, &ref) {
			return
		}
		p.joined(ref.RoomCode)

	case protocol.EventAllUsers:
		var users []room.User
		if !p.decode(env, &users) {
			return
		}
		p.update(func() { p.users = users })

	case protocol.EventAddUser:
		var u room.User
		if !p.decode(env, &u) {
			return
		}
		p.addUser(u)

	case protocol.EventRemoveUser:
		var u room.User
		if !p.decode(env, &u) {
			return
		}
		p.removeUser(u.SocketID)

	case protocol.EventTeamUpdated, protocol.EventRoleUpdated:
		var u room.User
		if !p.decode(env, &u) {
			return
		}
		p.updateUser(u)

	case protocol.EventMastermindSet:
		var tp protocol.TeamPayload
		if !p.decode(env, &tp) {
			return
		}
		p.setMastermind(tp.Team, true)

	case protocol.EventMastermindUnset:
		var tp protocol.TeamPayload
		if !p.decode(env, &tp) {
			return
		}
		p.setMastermind(tp.Team, false)

	case protocol.EventMastermindTaken:
		var flags room.MastermindFlags
		if !p.decode(env, &flags) {
			return
		}
		p.update(func() { p.flags = flags })

	case protocol.EventWordSet:
		var wp protocol.WordSetPayload
		if !p.decode(env, &wp) {
			return
		}
		p.update(func() {
			p.words = wp.Words
			p.suggestions = map[string][]string{}
		})

	case protocol.EventWordSuggested:
		var sp protocol.WordSuggestedPayload
		if !p.decode(env, &sp) {
			return
		}
		p.update(func() { p.suggestions[sp.Word] = sp.Users })

	case protocol.EventGameLog:
		var entries []room.LogEntry
		if !p.decode(env, &entries) {
			return
		}
		p.update(func() { p.gameLog = entries })

	case protocol.EventLeftRoom:
		p.reset()

	case protocol.EventNicknameEmptyCreate, protocol.EventNicknameEmptyJoin:
		p.notice("Nickname cannot be empty.")
	case protocol.EventNicknameLongCreate, protocol.EventNicknameLongJoin:
		p.notice("Nickname is too long.")
	case protocol.EventUserAlreadyExists:
		p.notice("That nickname is already used in this room.")
	case protocol.EventRoomDoesNotExist:
		p.notice("No room with that code exists.")
	case protocol.EventMaxCapacity:
		p.notice("The room is full.")
	case protocol.EventMastermindDenied:
		p.notice("That team already has a mastermind.")

	default:
		p.logger.Debug("ignoring event",
			zap.String("event", env.Event),
		)
	}
}

// joined records the room and requests the state the join reply does not
// carry: the mastermind flags, the roster, and the game log.
func (p *RoomProxy) joined(code string) {
	p.update(func() { p.roomCode = code })

	for _, req := range []struct {
		event   string
		payload any
	}{
		{protocol.EventCheckMastermind, nil},
		{protocol.EventLoadUsers, protocol.RoomRef{RoomCode: code}},
		{protocol.EventLoadGameLog, protocol.RoomRef{RoomCode: code}},
	} {
		if err := p.conn.Send(req.event, req.payload); err != nil {
			p.logger.Warn("post-join request failed",
				zap.String("event", req.event),
				zap.Error(err),
			)
		}
	}
}

// addUser appends to the roster. Usernames are unique per room, so a
// known username is skipped: the server sends add-user to the whole room
// including the joiner, who also receives the full roster.
func (p *RoomProxy) addUser(u room.User) {
	p.update(func() {
		for _, existing := range p.users {
			if existing.Username == u.Username {
				return
			}
		}
		p.users = append(p.users, u)
	})
}

// removeUser drops the socket from the roster; unknown sockets are a
// no-op.
func (p *RoomProxy) removeUser(socketID string) {
	p.update(func() {
		for i, u := range p.users {
			if u.SocketID == socketID {
				p.users = append(p.users[:i], p.users[i+1:]...)
				return
			}
		}
	})
}

func (p *RoomProxy) updateUser(u room.User) {
	p.update(func() {
		for i := range p.users {
			if p.users[i].SocketID == u.SocketID {
				p.users[i] = u
				return
			}
		}
	})
}

func (p *RoomProxy) setMastermind(team room.Team, taken bool) {
	p.update(func() {
		switch team {
		case room.TeamGreen:
			p.flags.Green = taken
		case room.TeamPurple:
			p.flags.Purple = taken
		}
	})
}

func (p *RoomProxy) reset() {
	p.update(func() {
		p.roomCode = ""
		p.users = nil
		p.flags = room.MastermindFlags{}
		p.words = map[string]state.Word{}
		p.suggestions = map[string][]string{}
		p.gameLog = nil
	})
}

// update runs fn under the lock and fires the change callback after
// releasing it.
func (p *RoomProxy) update(fn func()) {
	p.mu.Lock()
	fn()
	cb := p.onChange
	p.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (p *RoomProxy) notice(text string) {
	p.mu.Lock()
	cb := p.onNotice
	p.mu.Unlock()
	if cb != nil {
		cb(text)
	} else {
		p.logger.Info(text)
	}
}

func (p *RoomProxy) decode(env protocol.Envelope, dst any) bool {
	if err := json.Unmarshal(env.Data, dst); err != nil {
		p.logger.Warn("bad event payload",
			zap.String("event", env.Event),
			zap.Error(err),
		)
		return false
	}
	return true
}

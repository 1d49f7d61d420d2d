package room

import (
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/masterminds-game/masterminds/internal/game/random"
	"github.com/masterminds-game/masterminds/internal/game/state"
)

// WordSetGenerator supplies the word board for a newly created room.
type WordSetGenerator interface {
	// Generate returns a fresh word → metadata mapping.
	Generate() map[string]state.Word
}

// Config holds the registry limits, injected from the server config.
type Config struct {
	// RoomCapacity is the maximum member count per room.
	RoomCapacity int
	// RoomCodeLength is the number of letters in a room code.
	RoomCodeLength int
	// MaxNicknameLength is the longest accepted nickname.
	MaxNicknameLength int
}

// Registry owns room lifecycle, membership, and role/team exclusivity.
//
// A single mutex serializes every public operation, so each call is
// atomic: no caller ever observes a half-applied mutation such as a user
// removed from the flat list but still on a roster, or a mastermind flag
// cleared with the new one not yet set.
//
// Rooms are never evicted. Once generated, a code stays in the known set
// for the process lifetime, which keeps codes unique across the whole
// run but means memory grows with every room ever created.
type Registry struct {
	mu     sync.Mutex
	cfg    Config
	src    random.Source
	gen    WordSetGenerator
	logger *zap.Logger

	rooms    map[string]*Room
	codes    map[string]bool // every code ever generated, never reused
	users    map[string]*User
	states   map[string]*state.GameState
	gameLogs map[string][]LogEntry
}

// NewRegistry creates a Registry seeded with previously stored game
// states. Each stored room is re-registered with an empty roster so
// returning players can join it by code.
//
// Precondition: src, gen, and logger must be non-nil; cfg must be valid.
// Postcondition: Returns a Registry with one room per entry in previous.
func NewRegistry(cfg Config, src random.Source, gen WordSetGenerator, logger *zap.Logger, previous map[string]*state.GameState) *Registry {
	r := &Registry{
		cfg:      cfg,
		src:      src,
		gen:      gen,
		logger:   logger,
		rooms:    make(map[string]*Room),
		codes:    make(map[string]bool),
		users:    make(map[string]*User),
		states:   make(map[string]*state.GameState),
		gameLogs: make(map[string][]LogEntry),
	}

	for code, st := range previous {
		r.codes[code] = true
		r.rooms[code] = &Room{Code: code}
		r.states[code] = st
	}

	if len(previous) > 0 {
		logger.Info("restored rooms from store",
			zap.Int("rooms", len(previous)),
		)
	}

	return r
}

// CreateRoom registers a new room and adds the requester as its first
// member with role and team unassigned. A word board is generated for
// the room.
//
// Precondition: socketID must be non-empty and not already registered.
// Postcondition: On success the returned room has exactly one member and
// a code unique among all codes this registry has ever generated.
func (r *Registry) CreateRoom(socketID, nickname string) (Room, User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.validateNickname(nickname); err != nil {
		return Room{}, User{}, err
	}

	code := r.generateCode()
	rm := &Room{Code: code}
	r.rooms[code] = rm

	st := state.New()
	st.SetWords(r.gen.Generate())
	r.states[code] = st

	user := &User{
		SocketID: socketID,
		Username: nickname,
		Room:     code,
		Role:     RoleNone,
		Team:     TeamNone,
	}
	r.users[socketID] = user
	rm.Members = append(rm.Members, nickname)

	r.logger.Info("room created",
		zap.String("room", code),
		zap.String("username", nickname),
	)

	return *rm, *user, nil
}

// JoinRoom adds a user to an existing room.
//
// Room existence is checked before any nickname validation, matching the
// order errors are surfaced to the join form. Nickname comparison is
// case-sensitive and exact.
//
// Postcondition: On success the user is appended to the room roster and
// registered under socketID; on error no state is mutated.
func (r *Registry) JoinRoom(socketID, nickname, code string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[code]
	if !ok {
		return User{}, ErrRoomNotFound
	}

	if err := r.validateNickname(nickname); err != nil {
		return User{}, err
	}

	for _, member := range rm.Members {
		if member == nickname {
			return User{}, ErrNicknameUsed
		}
	}

	if len(rm.Members) >= r.cfg.RoomCapacity {
		return User{}, ErrRoomFull
	}

	user := &User{
		SocketID: socketID,
		Username: nickname,
		Room:     code,
		Role:     RoleNone,
		Team:     TeamNone,
	}
	r.users[socketID] = user
	rm.Members = append(rm.Members, nickname)

	r.logger.Info("user joined room",
		zap.String("room", code),
		zap.String("username", nickname),
		zap.Int("members", len(rm.Members)),
	)

	return *user, nil
}

// RemoveUser removes the user registered under socketID.
//
// Idempotent: an unknown socket is a no-op and returns (User{}, false).
// On success the user leaves the flat user list, the room roster, and
// any pending word suggestions in one atomic step. A cleared mastermind
// flag is reported through the returned RoleChange.
func (r *Registry) RemoveUser(socketID string) (User, RoleChange, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[socketID]
	if !ok {
		return User{}, RoleChange{}, false
	}

	change := RoleChange{Cleared: TeamNone}
	rm := r.rooms[user.Room]
	if rm != nil {
		dst := rm.Members[:0]
		for _, m := range rm.Members {
			if m != user.Username {
				dst = append(dst, m)
			}
		}
		rm.Members = dst

		if user.Role == RoleMastermind {
			switch user.Team {
			case TeamGreen:
				rm.MastermindTaken.Green = false
				change.Cleared = TeamGreen
			case TeamPurple:
				rm.MastermindTaken.Purple = false
				change.Cleared = TeamPurple
			}
		}
	}

	if st, ok := r.states[user.Room]; ok {
		st.RemoveUserFromSuggestions(user.Username)
	}

	delete(r.users, socketID)
	change.User = *user
	r.appendLog(user.Room, LogEntry{
		Username: user.Username,
		Team:     user.Team,
		Action:   ActionLeft,
	})

	r.logger.Info("user removed",
		zap.String("room", user.Room),
		zap.String("username", user.Username),
	)

	return *user, change, true
}

// SetTeamAndRole reassigns the user's team and role in one atomic step.
//
// A mastermind claim is rejected with ErrMastermindTaken when another
// member already holds that team's flag; nothing is mutated on
// rejection. Moving off a mastermind seat clears the old flag in the
// same step that sets any new one, so no intermediate state is ever
// observable.
//
// Postcondition: On success the returned RoleChange reports which flags
// were set and cleared so the caller can emit matching notifications.
func (r *Registry) SetTeamAndRole(socketID string, team Team, role Role) (RoleChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !ValidTeam(team) || !ValidRole(role) {
		return RoleChange{}, ErrInvalidAssignment
	}

	user, ok := r.users[socketID]
	if !ok {
		return RoleChange{}, ErrUnknownUser
	}
	rm, ok := r.rooms[user.Room]
	if !ok {
		return RoleChange{}, ErrRoomNotFound
	}

	// Validate before mutating anything.
	claiming := role == RoleMastermind && !(user.Role == RoleMastermind && user.Team == team)
	if claiming && r.mastermindHeld(rm, team) {
		return RoleChange{}, ErrMastermindTaken
	}

	change := RoleChange{Set: TeamNone, Cleared: TeamNone}

	if user.Role == RoleMastermind && !(role == RoleMastermind && team == user.Team) {
		switch user.Team {
		case TeamGreen:
			rm.MastermindTaken.Green = false
			change.Cleared = TeamGreen
		case TeamPurple:
			rm.MastermindTaken.Purple = false
			change.Cleared = TeamPurple
		}
	}

	if claiming {
		switch team {
		case TeamGreen:
			rm.MastermindTaken.Green = true
			change.Set = TeamGreen
		case TeamPurple:
			rm.MastermindTaken.Purple = true
			change.Set = TeamPurple
		}
	}

	user.Team = team
	user.Role = role
	change.User = *user

	r.logger.Debug("team and role updated",
		zap.String("room", user.Room),
		zap.String("username", user.Username),
		zap.String("team", string(team)),
		zap.String("role", string(role)),
	)

	return change, nil
}

// mastermindHeld reports whether team's mastermind flag is set.
//
// Precondition: caller holds r.mu.
func (r *Registry) mastermindHeld(rm *Room, team Team) bool {
	switch team {
	case TeamGreen:
		return rm.MastermindTaken.Green
	case TeamPurple:
		return rm.MastermindTaken.Purple
	}
	return false
}

// GetUser returns the user registered under socketID.
//
// Postcondition: Returns (user, true) if found, or (User{}, false) otherwise.
func (r *Registry) GetUser(socketID string) (User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[socketID]
	if !ok {
		return User{}, false
	}
	return *user, true
}

// GetUsers returns the users in the given room in join order.
//
// Postcondition: Returns a slice of users (may be empty).
func (r *Registry) GetUsers(code string) []User {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[code]
	if !ok {
		return nil
	}

	out := make([]User, 0, len(rm.Members))
	for _, member := range rm.Members {
		for _, user := range r.users {
			if user.Room == code && user.Username == member {
				out = append(out, *user)
				break
			}
		}
	}
	return out
}

// GetUsersByTeamAndRole returns the room's users matching both team and
// role, in join order.
func (r *Registry) GetUsersByTeamAndRole(code string, team Team, role Role) []User {
	all := r.GetUsers(code)
	out := make([]User, 0, len(all))
	for _, user := range all {
		if user.Team == team && user.Role == role {
			out = append(out, user)
		}
	}
	return out
}

// MastermindTaken returns the room's mastermind flag pair.
//
// Postcondition: Returns (flags, true) if the room exists, or
// (MastermindFlags{}, false) otherwise.
func (r *Registry) MastermindTaken(code string) (MastermindFlags, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.rooms[code]
	if !ok {
		return MastermindFlags{}, false
	}
	return rm.MastermindTaken, true
}

// RoomExists reports whether a room with the given code is registered.
func (r *Registry) RoomExists(code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rooms[code]
	return ok
}

// RoomCount returns the number of registered rooms.
func (r *Registry) RoomCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// UserCount returns the total number of registered users.
func (r *Registry) UserCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// WordSet returns the room's word board.
//
// Postcondition: Returns a copy; mutating it does not affect the registry.
func (r *Registry) WordSet(code string) map[string]state.Word {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.states[code]
	if !ok {
		return nil
	}
	out := make(map[string]state.Word, len(st.Words))
	for w, meta := range st.Words {
		out[w] = meta
	}
	return out
}

// SuggestWord records the user's suggestion of a board word.
//
// Postcondition: Returns the updated suggester list for the word, or
// ErrUnknownUser if the socket is not registered.
func (r *Registry) SuggestWord(socketID, word string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[socketID]
	if !ok {
		return nil, ErrUnknownUser
	}
	st, ok := r.states[user.Room]
	if !ok {
		return nil, ErrRoomNotFound
	}

	st.Suggest(word, user.Username)
	r.appendLog(user.Room, LogEntry{
		Username: user.Username,
		Team:     user.Team,
		Action:   ActionSuggested,
		Word:     word,
	})
	return append([]string(nil), st.SuggestedWords[word]...), nil
}

// UnsuggestWord withdraws the user's suggestion of a board word.
func (r *Registry) UnsuggestWord(socketID, word string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[socketID]
	if !ok {
		return nil, ErrUnknownUser
	}
	st, ok := r.states[user.Room]
	if !ok {
		return nil, ErrRoomNotFound
	}

	st.Unsuggest(word, user.Username)
	r.appendLog(user.Room, LogEntry{
		Username: user.Username,
		Team:     user.Team,
		Action:   ActionWithdrew,
		Word:     word,
	})
	return append([]string(nil), st.SuggestedWords[word]...), nil
}

// appendLog records a game-log entry for the room.
//
// Precondition: caller holds r.mu.
func (r *Registry) appendLog(code string, entry LogEntry) {
	r.gameLogs[code] = append(r.gameLogs[code], entry)
}

// GameLog returns the room's append-only game log.
//
// Postcondition: Returns a copy; mutating it does not affect the registry.
func (r *Registry) GameLog(code string) []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LogEntry(nil), r.gameLogs[code]...)
}

// SnapshotStates deep-copies the room-code → game-state mapping.
//
// Handlers call this synchronously before yielding to an asynchronous
// save, because the registry may be mutated by other events while the
// save is pending.
func (r *Registry) SnapshotStates() map[string]*state.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return state.CloneMap(r.states)
}

// validateNickname checks the shared nickname rules.
//
// Precondition: caller holds r.mu.
func (r *Registry) validateNickname(nickname string) error {
	if nickname == "" {
		return ErrNicknameEmpty
	}
	if utf8.RuneCountInString(nickname) > r.cfg.MaxNicknameLength {
		return ErrNicknameTooLong
	}
	return nil
}

// Package protocol defines the named events and typed payloads exchanged
// between the client and the server over the websocket transport, and
// the validated decoding of client requests at the transport boundary.
package protocol

// Client → server events.
const (
	EventRequestRoomCreation = "room:request-room-creation"
	EventRequestToJoin       = "room:request-to-join"
	EventLeave               = "room:leave"
	EventSetTeamAndRole      = "user:set-team-and-role"
	EventSuggestWord         = "word:suggest"
	EventUnsuggestWord       = "word:unsuggest"
	EventLoadUsers           = "load-users"
	EventLoadGameLog         = "load-game-log"
	EventCheckMastermind     = "room:check-mastermind-taken"
)

// Server → client events.
const (
	EventJoinedCreatedRoom   = "room:joined-created-room"
	EventJoinedRoom          = "room:joined-room"
	EventNicknameEmptyCreate = "room:nickname-empty-create"
	EventNicknameLongCreate  = "room:nickname-long-create"
	EventNicknameEmptyJoin   = "room:nickname-empty-join"
	EventNicknameLongJoin    = "room:nickname-long-join"
	EventUserAlreadyExists   = "room:user-already-exists"
	EventRoomDoesNotExist    = "room:room-does-not-exist"
	EventMaxCapacity         = "room:max-capacity"
	EventAddUser             = "room:add-user"
	EventRemoveUser          = "room:remove-user"
	EventLeftRoom            = "room:left-room"
	EventAllUsers            = "all-users"
	EventRoleUpdated         = "role-updated"
	EventTeamUpdated         = "team-updated"
	EventMastermindSet       = "mastermind-set"
	EventMastermindUnset     = "mastermind-unset"
	EventMastermindTaken     = "mastermind-taken"
	EventMastermindDenied    = "mastermind-denied"
	EventWordSet             = "word-set"
	EventWordSuggested       = "word-suggested"
	EventGameLog             = "game-log"
)

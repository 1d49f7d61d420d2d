// Package room implements the server-side room and user registry: room
// lifecycle, membership, and the per-team mastermind exclusivity rules.
package room

// Team is a play faction.
type Team string

// Teams. TeamNone means unassigned.
const (
	TeamNone   Team = "none"
	TeamGreen  Team = "green"
	TeamPurple Team = "purple"
)

// ValidTeam reports whether team is a recognised value.
func ValidTeam(team Team) bool {
	switch team {
	case TeamNone, TeamGreen, TeamPurple:
		return true
	}
	return false
}

// Role is a player's function within a team.
type Role string

// Roles. RoleNone means unassigned.
const (
	RoleNone       Role = "none"
	RoleGuesser    Role = "guesser"
	RoleMastermind Role = "mastermind"
)

// ValidRole reports whether role is a recognised value.
func ValidRole(role Role) bool {
	switch role {
	case RoleNone, RoleGuesser, RoleMastermind:
		return true
	}
	return false
}

// User is a connected player. SocketID ties the user to exactly one live
// transport connection and is overwritten on reconnect.
type User struct {
	SocketID string `json:"socketId"`
	Username string `json:"username"`
	Room     string `json:"room"`
	Role     Role   `json:"role"`
	Team     Team   `json:"team"`
}

// MastermindFlags tracks which teams currently have a mastermind.
//
// Invariant: a flag is true if and only if some member of the room holds
// (that team, RoleMastermind).
type MastermindFlags struct {
	Green  bool `json:"green"`
	Purple bool `json:"purple"`
}

// Room is a named, isolated play session.
type Room struct {
	// Code is the unique uppercase room code.
	Code string `json:"code"`
	// Members holds member usernames in join order.
	Members []string `json:"members"`
	// MastermindTaken tracks per-team mastermind exclusivity.
	MastermindTaken MastermindFlags `json:"mastermindTaken"`
}

// Game log actions.
const (
	ActionSuggested = "suggested"
	ActionWithdrew  = "withdrew"
	ActionLeft      = "left"
)

// LogEntry is a single append-only game log record for a room.
type LogEntry struct {
	Username string `json:"username"`
	Team     Team   `json:"team"`
	Action   string `json:"action"`
	Word     string `json:"word,omitempty"`
}

// RoleChange reports the outcome of a team/role reassignment so the
// broadcaster can emit the matching mastermind-set/unset events.
type RoleChange struct {
	// User is the user after the reassignment.
	User User
	// Set is the team whose mastermind flag was newly set, or TeamNone.
	Set Team
	// Cleared is the team whose mastermind flag was cleared, or TeamNone.
	Cleared Team
}

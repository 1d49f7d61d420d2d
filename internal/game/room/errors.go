package room

import "errors"

// ErrNicknameEmpty is returned when a create/join request carries an
// empty nickname.
var ErrNicknameEmpty = errors.New("nickname is empty")

// ErrNicknameTooLong is returned when a nickname exceeds the configured
// maximum length.
var ErrNicknameTooLong = errors.New("nickname is too long")

// ErrNicknameUsed is returned when the nickname already exists in the
// target room.
var ErrNicknameUsed = errors.New("nickname already used in room")

// ErrRoomNotFound is returned when the room code is unknown.
var ErrRoomNotFound = errors.New("room does not exist")

// ErrRoomFull is returned when the room is at its configured capacity.
var ErrRoomFull = errors.New("room is at max capacity")

// ErrMastermindTaken is returned when another member already holds the
// mastermind role for the requested team.
var ErrMastermindTaken = errors.New("mastermind already taken for team")

// ErrUnknownUser is returned when the socket ID has no registered user.
var ErrUnknownUser = errors.New("unknown user")

// ErrInvalidAssignment is returned when the team or role value is not
// recognised.
var ErrInvalidAssignment = errors.New("invalid team or role")

package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masterminds-game/masterminds/internal/game/room"
)

func frame(t *testing.T, event string, payload any) []byte {
	t.Helper()
	env, err := NewEnvelope(event, payload)
	require.NoError(t, err)
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	return raw
}

func TestDecode_CreateRoom(t *testing.T) {
	msg, err := Decode(frame(t, EventRequestRoomCreation, CreateRoomRequest{Nickname: "Alice"}))
	require.NoError(t, err)
	require.NotNil(t, msg.CreateRoom)
	assert.Equal(t, "Alice", msg.CreateRoom.Nickname)
}

func TestDecode_Join(t *testing.T) {
	msg, err := Decode(frame(t, EventRequestToJoin, JoinRequest{Nickname: "Bob", RoomCode: "ABCDEFGH"}))
	require.NoError(t, err)
	require.NotNil(t, msg.Join)
	assert.Equal(t, "ABCDEFGH", msg.Join.RoomCode)
}

func TestDecode_SetTeamAndRole(t *testing.T) {
	msg, err := Decode(frame(t, EventSetTeamAndRole, SetTeamAndRoleRequest{Team: room.TeamGreen, Role: room.RoleMastermind}))
	require.NoError(t, err)
	require.NotNil(t, msg.SetTeamAndRole)
	assert.Equal(t, room.TeamGreen, msg.SetTeamAndRole.Team)
}

func TestDecode_PayloadlessEvents(t *testing.T) {
	msg, err := Decode(frame(t, EventLeave, nil))
	require.NoError(t, err)
	assert.True(t, msg.Leave)

	msg, err = Decode(frame(t, EventCheckMastermind, nil))
	require.NoError(t, err)
	assert.True(t, msg.CheckMastermind)
}

func TestDecode_Rejections(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want error
	}{
		{
			name: "not json",
			raw:  []byte("{nope"),
			want: ErrBadPayload,
		},
		{
			name: "unknown event",
			raw:  []byte(`{"event":"room:self-destruct"}`),
			want: ErrUnknownEvent,
		},
		{
			name: "missing payload",
			raw:  []byte(`{"event":"room:request-to-join"}`),
			want: ErrBadPayload,
		},
		{
			name: "payload wrong shape",
			raw:  []byte(`{"event":"room:request-room-creation","data":[1,2]}`),
			want: ErrBadPayload,
		},
		{
			name: "invalid team",
			raw:  []byte(`{"event":"user:set-team-and-role","data":{"team":"red","role":"guesser"}}`),
			want: ErrBadPayload,
		},
		{
			name: "invalid role",
			raw:  []byte(`{"event":"user:set-team-and-role","data":{"team":"green","role":"spy"}}`),
			want: ErrBadPayload,
		},
		{
			name: "empty suggested word",
			raw:  []byte(`{"event":"word:suggest","data":{"word":""}}`),
			want: ErrBadPayload,
		},
		{
			name: "empty unsuggested word",
			raw:  []byte(`{"event":"word:unsuggest","data":{"word":""}}`),
			want: ErrBadPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.raw)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewEnvelope_NilPayload(t *testing.T) {
	env, err := NewEnvelope(EventLeftRoom, nil)
	require.NoError(t, err)
	assert.Empty(t, env.Data)

	raw, err := json.Marshal(env)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "data")
}

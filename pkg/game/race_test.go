package game

import (
	"testing"
	"time"

	"github.com/cbodonnell/slipstream/pkg/game/types"
	"github.com/cbodonnell/slipstream/pkg/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameManager_StartRace_Preconditions(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(tg *testGame) (requester uint32)
		wantErr string
	}{
		{
			name: "one member",
			setup: func(tg *testGame) uint32 {
				tg.gm.handleCreateRoom(1, &messages.ClientCreateRoom{})
				return 1
			},
			wantErr: ErrWrongPlayerCount.Error(),
		},
		{
			name: "non-host requester not ready",
			setup: func(tg *testGame) uint32 {
				tg.createRoomWith(t, 1, 2)
				tg.gm.handlePlayerReady(1, &messages.ClientPlayerReady{Ready: true})
				return 2
			},
			wantErr: ErrNotReady.Error(),
		},
		{
			name: "other member not ready",
			setup: func(tg *testGame) uint32 {
				tg.createRoomWith(t, 1, 2)
				return 1
			},
			wantErr: ErrNotAllReady.Error(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tg := newTestGame(t)
			tg.connect(1, "alice")
			tg.connect(2, "bob")
			requester := tt.setup(tg)

			tg.sender.reset()
			tg.gm.handleStartRace(requester)

			errMsg := tg.sender.lastFor(requester, messages.MessageTypeServerError)
			require.NotNil(t, errMsg)
			serverErr := &messages.ServerError{}
			decodePayload(t, errMsg, serverErr)
			assert.Equal(t, tt.wantErr, serverErr.Message)
		})
	}
}

func TestGameManager_StartRace_HostNeedNotBeReady(t *testing.T) {
	tg := newTestGame(t)
	tg.connect(1, "alice")
	tg.connect(2, "bob")
	roomID := tg.createRoomWith(t, 1, 2)
	tg.gm.handlePlayerReady(2, &messages.ClientPlayerReady{Ready: true})

	tg.gm.handleStartRace(1)

	room, _ := tg.gm.rooms.Get(roomID)
	assert.Equal(t, types.RoomStatusStarting, room.Status)
}

func TestGameManager_RaceSequence(t *testing.T) {
	tg := newTestGame(t)
	tg.connect(1, "alice")
	tg.connect(2, "bob")
	roomID := tg.createRoomWith(t, 1, 2)
	tg.gm.handleSelectCar(1, &messages.ClientSelectCar{CarName: "Viper GT", CarIndex: 3})
	tg.gm.handlePlayerReady(1, &messages.ClientPlayerReady{Ready: true})
	tg.gm.handlePlayerReady(2, &messages.ClientPlayerReady{Ready: true})

	tg.sender.reset()
	tg.gm.handleStartRace(1)

	// both members get the start announcement
	for _, clientID := range []uint32{1, 2} {
		starting := tg.sender.lastFor(clientID, messages.MessageTypeServerRaceStarting)
		require.NotNil(t, starting)
		announcement := &messages.ServerRaceStarting{}
		decodePayload(t, starting, announcement)
		assert.Equal(t, "map1", announcement.Map)
		assert.Equal(t, uint32(1), announcement.StarterID)
		assert.Equal(t, "alice", announcement.StarterName)
		require.Len(t, announcement.Players, 2)
		require.NotNil(t, announcement.Players[1].CarName)
		assert.Equal(t, "Viper GT", *announcement.Players[1].CarName)
		assert.True(t, announcement.Players[1].IsHost)
	}

	room, _ := tg.gm.rooms.Get(roomID)
	assert.Equal(t, types.RoomStatusStarting, room.Status)
	assert.Nil(t, tg.sender.lastFor(1, messages.MessageTypeServerRaceCountdown))

	// nothing fires before the stage deadline
	tg.advance(raceStartDelay / 2)
	assert.Nil(t, tg.sender.lastFor(1, messages.MessageTypeServerRaceCountdown))

	tg.advance(raceStartDelay / 2)
	for _, clientID := range []uint32{1, 2} {
		countdown := tg.sender.lastFor(clientID, messages.MessageTypeServerRaceCountdown)
		require.NotNil(t, countdown)
		countdownMsg := &messages.ServerRaceCountdown{}
		decodePayload(t, countdown, countdownMsg)
		assert.Equal(t, 3, countdownMsg.Duration)
	}
	assert.Equal(t, types.RoomStatusCountingDown, room.Status)

	tg.advance(raceCountdownDuration)
	assert.Equal(t, types.RoomStatusRacing, room.Status)
	assert.Equal(t, tg.clock, room.RaceStartedAt)

	for _, clientID := range []uint32{1, 2} {
		start := tg.sender.lastFor(clientID, messages.MessageTypeServerRaceStart)
		require.NotNil(t, start)
		raceStart := &messages.ServerRaceStart{}
		decodePayload(t, start, raceStart)
		// player_id is the recipient's own id
		assert.Equal(t, clientID, raceStart.PlayerID)
		assert.Equal(t, uint32(1), raceStart.StarterID)
		require.Len(t, raceStart.Players, 2)
		assert.Equal(t, "alice", raceStart.Players[1].PlayerName)
		assert.Equal(t, "bob", raceStart.Players[2].PlayerName)
		assert.InDelta(t, float64(tg.clock.Unix()), raceStart.Timestamp, 1)
	}
}

func TestGameManager_RaceSequence_AbortsWhenMemberLeaves(t *testing.T) {
	tg := newTestGame(t)
	tg.connect(1, "alice")
	tg.connect(2, "bob")
	roomID := tg.createRoomWith(t, 1, 2)
	tg.gm.handlePlayerReady(1, &messages.ClientPlayerReady{Ready: true})
	tg.gm.handlePlayerReady(2, &messages.ClientPlayerReady{Ready: true})
	tg.gm.handleStartRace(1)

	// a member leaves while the announcement delay is pending
	tg.gm.handleLeaveRoom(2)

	tg.sender.reset()
	tg.advance(raceStartDelay)

	room, ok := tg.gm.rooms.Get(roomID)
	require.True(t, ok)
	assert.Equal(t, types.RoomStatusWaiting, room.Status)
	assert.Nil(t, tg.sender.lastFor(1, messages.MessageTypeServerRaceCountdown))
}

func TestGameManager_RaceSequence_ToleratesEmptiedRoom(t *testing.T) {
	tg := newTestGame(t)
	tg.connect(1, "alice")
	tg.connect(2, "bob")
	tg.createRoomWith(t, 1, 2)
	tg.gm.handlePlayerReady(1, &messages.ClientPlayerReady{Ready: true})
	tg.gm.handlePlayerReady(2, &messages.ClientPlayerReady{Ready: true})
	tg.gm.handleStartRace(1)

	tg.gm.handleLeaveRoom(1)
	tg.gm.handleLeaveRoom(2)

	// the pending stage must not panic with no broadcast targets
	tg.advance(raceStartDelay)
	tg.advance(raceCountdownDuration)

	assert.Equal(t, 0, tg.gm.rooms.Count())
}

func TestGameManager_StartRace_IgnoredWhileInRace(t *testing.T) {
	tg := newTestGame(t)
	tg.connect(1, "alice")
	tg.connect(2, "bob")
	roomID := tg.startRaceWith(t, 1, 2)

	tg.sender.reset()
	tg.gm.handleStartRace(1)

	room, _ := tg.gm.rooms.Get(roomID)
	assert.Equal(t, types.RoomStatusRacing, room.Status)
	assert.Empty(t, tg.sender.events)
}

func TestGameManager_RaceResults_SortedAscending(t *testing.T) {
	tg := newTestGame(t)
	tg.connect(1, "alice")
	tg.connect(2, "bob")
	tg.startRaceWith(t, 1, 2)
	tg.advance(time.Minute)

	tg.sender.reset()
	tg.gm.handlePlayerFinish(1, &messages.ClientPlayerFinish{FinishTime: 45.2})
	tg.gm.handlePlayerFinish(2, &messages.ClientPlayerFinish{FinishTime: 40.1})

	for _, clientID := range []uint32{1, 2} {
		resultsMsg := tg.sender.lastFor(clientID, messages.MessageTypeServerRaceResults)
		require.NotNil(t, resultsMsg)
		results := &messages.ServerRaceResults{}
		decodePayload(t, resultsMsg, results)
		require.Len(t, results.Results, 2)
		assert.Equal(t, "bob", results.Results[0].PlayerName)
		assert.Equal(t, 40.1, results.Results[0].FinishTime)
		assert.Equal(t, "alice", results.Results[1].PlayerName)
		assert.Equal(t, 45.2, results.Results[1].FinishTime)
	}
}

func TestGameManager_RaceResults_TiesKeepReportOrder(t *testing.T) {
	tg := newTestGame(t)
	tg.connect(1, "alice")
	tg.connect(2, "bob")
	tg.startRaceWith(t, 1, 2)
	tg.advance(time.Minute)

	tg.gm.handlePlayerFinish(2, &messages.ClientPlayerFinish{FinishTime: 50.0})
	tg.gm.handlePlayerFinish(1, &messages.ClientPlayerFinish{FinishTime: 50.0})

	resultsMsg := tg.sender.lastFor(1, messages.MessageTypeServerRaceResults)
	require.NotNil(t, resultsMsg)
	results := &messages.ServerRaceResults{}
	decodePayload(t, resultsMsg, results)
	require.Len(t, results.Results, 2)
	assert.Equal(t, "bob", results.Results[0].PlayerName)
	assert.Equal(t, "alice", results.Results[1].PlayerName)
}

func TestGameManager_RaceEndToEnd(t *testing.T) {
	tg := newTestGame(t)
	tg.connect(1, "alice")
	tg.connect(2, "bob")
	roomID := tg.startRaceWith(t, 1, 2)
	tg.advance(time.Minute)

	tg.gm.handlePlayerFinish(1, &messages.ClientPlayerFinish{FinishTime: 50.0})

	// first finish is broadcast to everyone, race keeps going
	for _, clientID := range []uint32{1, 2} {
		finished := tg.sender.lastFor(clientID, messages.MessageTypeServerPlayerFinished)
		require.NotNil(t, finished)
		playerFinished := &messages.ServerPlayerFinished{}
		decodePayload(t, finished, playerFinished)
		assert.Equal(t, uint32(1), playerFinished.PlayerID)
		assert.Equal(t, 50.0, playerFinished.FinishTime)
	}
	room, _ := tg.gm.rooms.Get(roomID)
	assert.Equal(t, types.RoomStatusRacing, room.Status)

	tg.gm.handlePlayerFinish(2, &messages.ClientPlayerFinish{FinishTime: 55.0})

	resultsMsg := tg.sender.lastFor(2, messages.MessageTypeServerRaceResults)
	require.NotNil(t, resultsMsg)
	results := &messages.ServerRaceResults{}
	decodePayload(t, resultsMsg, results)
	require.Len(t, results.Results, 2)
	assert.Equal(t, "alice", results.Results[0].PlayerName)
	assert.Equal(t, "bob", results.Results[1].PlayerName)

	// the room resets to the lobby with per-race state cleared
	assert.Equal(t, types.RoomStatusWaiting, room.Status)
	assert.True(t, room.RaceStartedAt.IsZero())
	assert.Empty(t, room.FinishOrder)
	for _, member := range room.Members {
		assert.False(t, member.Finished)
		assert.Zero(t, member.FinishTime)
		assert.False(t, member.HasLastPosition)
	}
}

func TestGameManager_ReadyFlagsSurviveRaceReset(t *testing.T) {
	tg := newTestGame(t)
	tg.connect(1, "alice")
	tg.connect(2, "bob")
	roomID := tg.startRaceWith(t, 1, 2)
	tg.advance(time.Minute)

	tg.gm.handlePlayerFinish(1, &messages.ClientPlayerFinish{FinishTime: 50.0})
	tg.gm.handlePlayerFinish(2, &messages.ClientPlayerFinish{FinishTime: 55.0})

	room, _ := tg.gm.rooms.Get(roomID)
	for _, member := range room.Members {
		assert.True(t, member.Ready)
	}

	// an immediate rematch needs no re-confirmation
	tg.gm.handleStartRace(1)
	assert.Equal(t, types.RoomStatusStarting, room.Status)
}

func TestGameManager_ReadyToRace(t *testing.T) {
	tg := newTestGame(t)
	tg.connect(1, "alice")
	tg.connect(2, "bob")
	roomID := tg.startRaceWith(t, 1, 2)

	tg.gm.handleReadyToRace(1)
	room, _ := tg.gm.rooms.Get(roomID)
	assert.True(t, room.Members[1].RaceReady)
	assert.False(t, room.Members[2].RaceReady)

	tg.gm.handleReadyToRace(2)
	assert.True(t, room.Members[2].RaceReady)
}

func TestGameManager_JoinRace_Direct(t *testing.T) {
	tg := newTestGame(t)

	tg.gm.handleJoinRace(1, &messages.ClientJoinRace{
		PlayerName: "alice",
		CarName:    "Viper GT",
		IsHost:     true,
	})

	joined := tg.sender.lastFor(1, messages.MessageTypeServerRaceJoined)
	require.NotNil(t, joined)
	raceJoined := &messages.ServerRaceJoined{}
	decodePayload(t, joined, raceJoined)
	assert.Equal(t, "success", raceJoined.Status)
	assert.Equal(t, uint32(1), raceJoined.PlayerID)
	assert.Contains(t, raceJoined.RoomID, "race_")

	room, ok := tg.gm.rooms.Get(raceJoined.RoomID)
	require.True(t, ok)
	assert.True(t, room.Direct)
	assert.Equal(t, types.RoomStatusStarting, room.Status)
	assert.True(t, room.Members[1].Ready)

	// a single-member direct room still runs the countdown sequence
	tg.advance(raceStartDelay)
	require.NotNil(t, tg.sender.lastFor(1, messages.MessageTypeServerRaceCountdown))

	tg.advance(raceCountdownDuration)
	start := tg.sender.lastFor(1, messages.MessageTypeServerRaceStart)
	require.NotNil(t, start)
	raceStart := &messages.ServerRaceStart{}
	decodePayload(t, start, raceStart)
	assert.Equal(t, uint32(1), raceStart.PlayerID)
	assert.Zero(t, raceStart.StarterID)
	require.Len(t, raceStart.Players, 1)
	assert.Equal(t, "alice", raceStart.Players[1].PlayerName)
	assert.Equal(t, types.RoomStatusRacing, room.Status)
}

func TestGameManager_JoinRace_NonHostWaits(t *testing.T) {
	tg := newTestGame(t)

	tg.gm.handleJoinRace(1, &messages.ClientJoinRace{PlayerName: "bob"})

	joined := tg.sender.lastFor(1, messages.MessageTypeServerRaceJoined)
	require.NotNil(t, joined)
	raceJoined := &messages.ServerRaceJoined{}
	decodePayload(t, joined, raceJoined)

	room, ok := tg.gm.rooms.Get(raceJoined.RoomID)
	require.True(t, ok)
	assert.Equal(t, types.RoomStatusWaiting, room.Status)

	tg.advance(raceStartDelay)
	assert.Nil(t, tg.sender.lastFor(1, messages.MessageTypeServerRaceCountdown))
}

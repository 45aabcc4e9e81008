package game

import "errors"

// Room and race errors surfaced to the triggering client as an `error`
// event carrying the message text. None of these are fatal.
var (
	ErrRoomNotFound     = errors.New("Room not found")
	ErrRoomFull         = errors.New("Room is full")
	ErrRaceInProgress   = errors.New("Race already in progress")
	ErrWrongPlayerCount = errors.New("Need exactly 2 players for a 1v1 race")
	ErrNotReady         = errors.New("You must be ready to start the race")
	ErrNotAllReady      = errors.New("All players must be ready to start the race")
)

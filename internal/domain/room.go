package domain

import "errors"

const MaxRoomIDLen = 128

var ErrRoomIDTooLong = errors.New("room id too long")

type RoomID string

type Room struct {
	ID RoomID
}

func NewRoomID(raw string) (RoomID, error) {
	if len(raw) == 0 {
		return "", ErrMissingRoom
	}
	if len(raw) > MaxRoomIDLen {
		return "", ErrRoomIDTooLong
	}
	return RoomID(raw), nil
}

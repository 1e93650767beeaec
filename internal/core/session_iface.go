package core

import "github.com/google/uuid"

// ConnID identifies one live transport connection.
type ConnID string

func NewConnID() ConnID {
	return ConnID(uuid.NewString())
}

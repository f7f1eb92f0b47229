// Package identity bridges the authoritative identity store into the
// graph. The identity store owns authentication and the integer user key;
// this package mirrors its lifecycle events onto graph User nodes with
// self-healing upserts. Every handler absorbs errors so a graph outage
// never blocks an identity-store write.
package identity

import (
	"context"
	"strconv"
	"time"
)

// UserRecord is one identity-store user as seen by the synchronizer.
// ID is the relational primary key; the graph user_id is its string form.
type UserRecord struct {
	ID       int       `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	JoinDate time.Time `json:"join_date"`
}

// GraphID is the stringified identity key used as User.user_id
func (u UserRecord) GraphID() string {
	return strconv.Itoa(u.ID)
}

// Provider enumerates the identity store's users, for bulk resync
type Provider interface {
	ListUsers(ctx context.Context) ([]UserRecord, error)
}

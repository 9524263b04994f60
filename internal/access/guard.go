// Package access implements the allow-list check applied to every
// inbound message before any processing happens.
package access

import "log/slog"

// Guard holds the static allow-lists, built once at startup and
// read-only afterwards.
//
// Policy is fail closed: a sender must be on the user list AND the chat
// on the chat list, and an empty or unconfigured list denies everything.
type Guard struct {
	users  map[int64]struct{}
	chats  map[int64]struct{}
	logger *slog.Logger
}

func NewGuard(allowedUsers, allowedChats []int64, logger *slog.Logger) *Guard {
	g := &Guard{
		users:  make(map[int64]struct{}, len(allowedUsers)),
		chats:  make(map[int64]struct{}, len(allowedChats)),
		logger: logger,
	}
	for _, id := range allowedUsers {
		g.users[id] = struct{}{}
	}
	for _, id := range allowedChats {
		g.chats[id] = struct{}{}
	}
	if len(g.users) == 0 || len(g.chats) == 0 {
		logger.Warn("allow-list empty, all messages will be denied",
			"allowed_users", len(g.users),
			"allowed_chats", len(g.chats),
		)
	}
	return g
}

// Permit reports whether the sender/chat pair may use the bot.
func (g *Guard) Permit(senderID, chatID int64) bool {
	if len(g.users) == 0 || len(g.chats) == 0 {
		return false
	}
	if _, ok := g.users[senderID]; !ok {
		return false
	}
	_, ok := g.chats[chatID]
	return ok
}

package scrim

import (
	"errors"
	"sync"
)

var (
	ErrAlreadyInLobby = errors.New("player is already in the lobby")
	ErrNotInLobby     = errors.New("player is not in the lobby")
)

// Lobby collects the per-guild player pool that feeds the shuffler. It is
// in-memory only: a lobby that dies with the process is just re-joined,
// unlike the pending match it produces.
type Lobby struct {
	mu     sync.Mutex
	guilds map[string][]string
}

// NewLobby creates an empty lobby registry
func NewLobby() *Lobby {
	return &Lobby{guilds: make(map[string][]string)}
}

// Join adds a player to the guild's lobby
func (l *Lobby) Join(guildID, playerID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range l.guilds[guildID] {
		if id == playerID {
			return len(l.guilds[guildID]), ErrAlreadyInLobby
		}
	}
	l.guilds[guildID] = append(l.guilds[guildID], playerID)
	return len(l.guilds[guildID]), nil
}

// Leave removes a player from the guild's lobby
func (l *Lobby) Leave(guildID, playerID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pool := l.guilds[guildID]
	for i, id := range pool {
		if id == playerID {
			l.guilds[guildID] = append(pool[:i], pool[i+1:]...)
			return len(l.guilds[guildID]), nil
		}
	}
	return len(pool), ErrNotInLobby
}

// Players returns a copy of the guild's current pool
func (l *Lobby) Players(guildID string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.guilds[guildID]...)
}

// Clear empties the guild's lobby (after a successful shuffle)
func (l *Lobby) Clear(guildID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.guilds, guildID)
}

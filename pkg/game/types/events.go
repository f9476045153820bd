package types

// Event types
const (
	EventTypeGameUpdated  = "game_updated"
	EventTypeNotification = "notification"
)

// Event is a domain event emitted by a game transition. Events are
// returned alongside the new state and published only after the state
// has been committed.
type Event interface {
	EventType() string
	EventGameID() GameID
}

// GameUpdated signals that a game's state changed. It carries the
// committed snapshot so delivery filtering can be evaluated against the
// roster at commit time.
type GameUpdated struct {
	Game *GameState
}

func (e GameUpdated) EventType() string { return EventTypeGameUpdated }

func (e GameUpdated) EventGameID() GameID { return e.Game.ID }

// Notification is a human-readable message scoped to a game's roster.
type Notification struct {
	GameID  GameID
	Roster  []PlayerID
	Message string
}

func (e Notification) EventType() string { return EventTypeNotification }

func (e Notification) EventGameID() GameID { return e.GameID }

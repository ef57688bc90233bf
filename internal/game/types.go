package game

import (
	"errors"
	"time"
)

// Card is a single card value. Hand cards are 1..15, prize cards are
// -5..-1 and 1..10.
type Card = int

type CardStack = []Card

type State string

const (
	StateWaiting State = "Waiting"
	StatePlaying State = "Playing"
	StateEnded   State = "Ended"
)

var (
	ErrUnknownSession   = errors.New("session not found")
	ErrInvalidState     = errors.New("invalid state for action")
	ErrInvalidCard      = errors.New("card not in hand")
	ErrGameFull         = errors.New("session is full")
	ErrEmptyDeck        = errors.New("deck is empty")
	ErrAlreadyInSession = errors.New("already in a session")
	ErrNotInSession     = errors.New("not in a session")
)

// MaxPlayers is the session capacity; it matches the palette size so every
// member can hold a distinct color.
const MaxPlayers = 12

// palette from https://sashamaps.net/docs/resources/20-colors/
var palette = []string{
	"#e6194B",
	"#3cb44b",
	"#4363d8",
	"#f58231",
	"#911eb4",
	"#469990",
	"#9A6324",
	"#800000",
	"#808000",
	"#000075",
	"#42d4f4",
	"#f032e6",
}

type Player struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"sessionId"`
	Color          string    `json:"color"`
	Ready          bool      `json:"ready"`
	RemainingCards CardStack `json:"remainingCards"`
	WonRounds      []int     `json:"wonRounds"`
	TotalScore     int       `json:"totalScore"`
	JoinedAt       time.Time `json:"joinedAt"`
}

// Round is one bid-and-reveal cycle. Closed rounds are append-only history
// and are never mutated afterwards.
type Round struct {
	ID        int             `json:"id"`
	Bets      map[string]Card `json:"bets"`
	PrizePool CardStack       `json:"prizePool"`
	Winner    string          `json:"winner,omitempty"`
}

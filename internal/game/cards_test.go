package game

import (
	"testing"
)

func TestNewPrizeDeck(t *testing.T) {
	deck := NewPrizeDeck()
	if len(deck) != HandSize {
		t.Fatalf("expected %d prize cards, got %d", HandSize, len(deck))
	}
	seen := make(map[Card]bool)
	for _, c := range deck {
		if c == 0 || c < -5 || c > 10 {
			t.Fatalf("unexpected prize card %d", c)
		}
		if seen[c] {
			t.Fatalf("duplicate prize card %d", c)
		}
		seen[c] = true
	}
}

func TestNewHand(t *testing.T) {
	hand := NewHand()
	if len(hand) != HandSize {
		t.Fatalf("expected %d hand cards, got %d", HandSize, len(hand))
	}
	for i, c := range hand {
		if c != i+1 {
			t.Fatalf("expected card %d at position %d, got %d", i+1, i, c)
		}
	}
}

func TestPopRandomDrainsDeck(t *testing.T) {
	deck := NewPrizeDeck()
	want := Sum(deck)
	got := 0
	for i := 0; i < HandSize; i++ {
		c, err := PopRandom(&deck)
		if err != nil {
			t.Fatalf("pop %d failed: %v", i, err)
		}
		got += c
	}
	if len(deck) != 0 {
		t.Fatalf("deck should be empty, has %d cards", len(deck))
	}
	if got != want {
		t.Fatalf("popped cards sum to %d, deck summed to %d", got, want)
	}
	if _, err := PopRandom(&deck); err != ErrEmptyDeck {
		t.Fatalf("expected ErrEmptyDeck, got %v", err)
	}
}

func TestResolveWinnerPositivePoolPicksHighest(t *testing.T) {
	// both bets are unique; pool 7 > 0, so the higher card wins
	bets := map[string]Card{"a": 10, "b": 3}
	winner, ok := ResolveWinner(bets, 7)
	if !ok {
		t.Fatal("expected a winner")
	}
	if winner != "a" {
		t.Fatalf("expected a to win with the higher card, got %s", winner)
	}
}

func TestResolveWinnerNegativePoolPicksLowest(t *testing.T) {
	bets := map[string]Card{"a": 10, "b": 3, "c": 7}
	winner, ok := ResolveWinner(bets, -3)
	if !ok {
		t.Fatal("expected a winner")
	}
	if winner != "b" {
		t.Fatalf("expected b to win with the lowest card, got %s", winner)
	}
}

func TestResolveWinnerZeroPoolPicksLowest(t *testing.T) {
	bets := map[string]Card{"a": 2, "b": 9}
	winner, ok := ResolveWinner(bets, 0)
	if !ok {
		t.Fatal("expected a winner")
	}
	if winner != "a" {
		t.Fatalf("expected a to win on a zero pool, got %s", winner)
	}
}

func TestResolveWinnerFullTie(t *testing.T) {
	bets := map[string]Card{"a": 5, "b": 5}
	if winner, ok := ResolveWinner(bets, -3); ok {
		t.Fatalf("expected no winner on a full tie, got %s", winner)
	}
}

func TestResolveWinnerNoBets(t *testing.T) {
	if winner, ok := ResolveWinner(map[string]Card{}, 4); ok {
		t.Fatalf("expected no winner with zero bets, got %s", winner)
	}
}

func TestResolveWinnerTiedValueEliminated(t *testing.T) {
	// a and b tie at 10 and are both eliminated; c's solitary 4 wins even
	// though the pool is positive
	bets := map[string]Card{"a": 10, "b": 10, "c": 4}
	winner, ok := ResolveWinner(bets, 6)
	if !ok {
		t.Fatal("expected a winner")
	}
	if winner != "c" {
		t.Fatalf("expected c to win as the only unique bet, got %s", winner)
	}
}

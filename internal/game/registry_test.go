package game

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func sequenceIDs(ids ...string) func() string {
	i := 0
	return func() string {
		if i < len(ids) {
			id := ids[i]
			i++
			return id
		}
		return ids[len(ids)-1]
	}
}

func TestCreateRetriesOnCollision(t *testing.T) {
	rm := NewRegistry(0, sequenceIDs("DupName", "DupName", "FreshName"))
	first := rm.Create()
	second := rm.Create()
	if first.ID != "DupName" {
		t.Fatalf("expected first id DupName, got %s", first.ID)
	}
	if second.ID != "FreshName" {
		t.Fatalf("expected a retried id, got %s", second.ID)
	}
	if _, err := rm.Get("DupName"); err != nil {
		t.Fatal("first session should not have been overwritten")
	}
}

func TestCreateFallsBackToSuffix(t *testing.T) {
	rm := NewRegistry(0, func() string { return "StuckName" })
	first := rm.Create()
	second := rm.Create()
	if second.ID == first.ID {
		t.Fatal("colliding generator must not overwrite the registry entry")
	}
	if !strings.HasPrefix(second.ID, "StuckName") {
		t.Fatalf("fallback id should keep the readable prefix, got %s", second.ID)
	}
	if _, err := rm.Get(first.ID); err != nil {
		t.Fatalf("first session lost: %v", err)
	}
	if _, err := rm.Get(second.ID); err != nil {
		t.Fatalf("second session lost: %v", err)
	}
}

func TestJoinLeaveMembership(t *testing.T) {
	rm := NewRegistry(0, sequenceIDs("One", "Two"))
	s1 := rm.Create()
	s2 := rm.Create()

	if _, err := rm.Join("p1", "Nope"); err != ErrUnknownSession {
		t.Fatalf("expected ErrUnknownSession, got %v", err)
	}
	if _, err := rm.Join("p1", s1.ID); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if _, err := rm.Join("p1", s2.ID); err != ErrAlreadyInSession {
		t.Fatalf("a player belongs to at most one session, got %v", err)
	}
	got, err := rm.SessionFor("p1")
	if err != nil || got.ID != s1.ID {
		t.Fatalf("SessionFor returned %v, %v", got, err)
	}

	if _, _, err := rm.Leave("ghost"); err != ErrNotInSession {
		t.Fatalf("expected ErrNotInSession, got %v", err)
	}
	left, res, err := rm.Leave("p1")
	if err != nil || left.ID != s1.ID {
		t.Fatalf("leave returned %v, %v", left, err)
	}
	if !res.Empty {
		t.Fatal("sole player leaving should empty the session")
	}
	if _, err := rm.Get(s1.ID); err != ErrUnknownSession {
		t.Fatal("empty session should have been destroyed")
	}
	if _, err := rm.SessionFor("p1"); err != ErrNotInSession {
		t.Fatal("membership mapping should be gone")
	}
}

func TestListJoinable(t *testing.T) {
	rm := NewRegistry(0, sequenceIDs("Open", "Busy"))
	rm.Create()
	busy := rm.Create()
	rm.Join("a", busy.ID)
	rm.Join("b", busy.ID)

	ids := rm.ListJoinable()
	if len(ids) != 2 {
		t.Fatalf("expected both waiting sessions joinable, got %v", ids)
	}

	// start the busy session; it leaves the lobby view
	busy.SetReady("a", true)
	busy.SetReady("b", true)
	ids = rm.ListJoinable()
	if len(ids) != 1 || ids[0] != "Open" {
		t.Fatalf("expected only Open to be joinable, got %v", ids)
	}
}

func TestListJoinableExcludesFullSession(t *testing.T) {
	rm := NewRegistry(0, sequenceIDs("Packed"))
	s := rm.Create()
	for i := 0; i < MaxPlayers; i++ {
		if _, err := rm.Join(string(rune('a'+i)), s.ID); err != nil {
			t.Fatalf("join %d failed: %v", i, err)
		}
	}
	if ids := rm.ListJoinable(); len(ids) != 0 {
		t.Fatalf("full session should not be joinable, got %v", ids)
	}
}

func TestSnapshotMasksOtherBets(t *testing.T) {
	rm := NewRegistry(0, sequenceIDs("Masked"))
	s := rm.Create()
	rm.Join("a", s.ID)
	rm.Join("b", s.ID)
	s.SetReady("a", true)
	s.SetReady("b", true)

	if _, _, err := s.PlaceBet("a", 5); err != nil {
		t.Fatalf("bet failed: %v", err)
	}

	own := s.SnapshotFor("a")
	if own.CurrentRound.Bets["a"] != 5 {
		t.Fatalf("viewer should see their own bet, got %d", own.CurrentRound.Bets["a"])
	}
	other := s.SnapshotFor("b")
	if other.CurrentRound.Bets["a"] != HiddenBet {
		t.Fatalf("other players' bets must be hidden, got %d", other.CurrentRound.Bets["a"])
	}
	if _, ok := other.CurrentRound.Bets["b"]; ok {
		t.Fatal("b has not bet yet, no entry expected")
	}

	// closing the round reveals everything in history
	if closed, _, err := s.PlaceBet("b", 9); err != nil || closed == nil {
		t.Fatalf("closing bet failed: %v %v", closed, err)
	}
	hist := s.SnapshotFor("b")
	if len(hist.PreviousRounds) != 1 {
		t.Fatalf("expected one closed round, got %d", len(hist.PreviousRounds))
	}
	if hist.PreviousRounds[0].Bets["a"] != 5 || hist.PreviousRounds[0].Bets["b"] != 9 {
		t.Fatalf("closed rounds are revealed in full, got %v", hist.PreviousRounds[0].Bets)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	rm := NewRegistry(0, sequenceIDs("Copied"))
	s := rm.Create()
	rm.Join("a", s.ID)
	snap := s.SnapshotFor("a")
	snap.Players[0].TotalScore = 999
	snap.Players[0].RemainingCards[0] = 999
	fresh := s.SnapshotFor("a")
	if fresh.Players[0].TotalScore == 999 || fresh.Players[0].RemainingCards[0] == 999 {
		t.Fatal("mutating a snapshot must not touch session state")
	}
}

type recordingNotifier struct {
	mu      sync.Mutex
	updated []string
	closed  []Round
}

func (n *recordingNotifier) SessionUpdated(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updated = append(n.updated, id)
}

func (n *recordingNotifier) RoundClosed(id string, r Round) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = append(n.closed, r)
}

func (n *recordingNotifier) closedRounds() []Round {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Round{}, n.closed...)
}

func TestDeadlineAutoplaysRound(t *testing.T) {
	rm := NewRegistry(30*time.Millisecond, sequenceIDs("Timed"))
	notifier := &recordingNotifier{}
	rm.SetNotifier(notifier)

	s := rm.Create()
	rm.Join("a", s.ID)
	rm.Join("b", s.ID)
	s.SetReady("a", true)
	s.SetReady("b", true)

	if !s.TimerArmed() {
		t.Fatal("a playing session must have a pending timer")
	}

	// nobody bets; the deadline fills both bets and closes round 0
	deadline := time.Now().Add(2 * time.Second)
	for len(notifier.closedRounds()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timer never fired")
		}
		time.Sleep(10 * time.Millisecond)
	}

	closed := notifier.closedRounds()[0]
	if closed.ID != 0 {
		t.Fatalf("expected round 0 closed, got %d", closed.ID)
	}
	if len(closed.Bets) != 2 {
		t.Fatalf("autoplay should fill every missing bet, got %d", len(closed.Bets))
	}
	// the timer keeps auto-closing rounds, so only assert forward progress
	snap := s.SnapshotFor("a")
	if snap.State == StatePlaying {
		if snap.CurrentRound == nil || snap.CurrentRound.ID < 1 {
			t.Fatal("expected a later round to be open after the deadline")
		}
		if !s.TimerArmed() {
			t.Fatal("an open round must have a pending timer")
		}
	}
}

func TestStaleDeadlineFireIsNoOp(t *testing.T) {
	rm := NewRegistry(0, sequenceIDs("Race"))
	notifier := &recordingNotifier{}
	rm.SetNotifier(notifier)

	s := rm.Create()
	rm.Join("a", s.ID)
	s.SetReady("a", true)

	// single member: the first bet closes round 0 on its own
	closed, _, err := s.PlaceBet("a", 7)
	if err != nil || closed == nil {
		t.Fatalf("bet should close the round: %v %v", closed, err)
	}
	if closed.Bets["a"] != 7 {
		t.Fatalf("expected the manual bet, got %d", closed.Bets["a"])
	}

	// a deadline for the already-closed round loses the race and must no-op
	rm.resolveDeadline(s.ID, 0)
	snap := s.SnapshotFor("a")
	if snap.CurrentRound == nil || snap.CurrentRound.ID != 1 {
		t.Fatalf("round 1 should still be open, got %+v", snap.CurrentRound)
	}
	if len(notifier.closedRounds()) != 0 {
		t.Fatal("stale fire must not notify")
	}

	// a fire for a destroyed session is equally harmless
	rm.resolveDeadline("GoneSession", 0)

	// a fire for the open round closes it and notifies
	rm.resolveDeadline(s.ID, 1)
	if got := notifier.closedRounds(); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("expected round 1 closed by deadline, got %v", got)
	}
}

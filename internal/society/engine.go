// Package society implements the two transactions that change a round's results into
// money and handicaps: finalizing an event and reverting (un-finalizing) it.
//
// The Engine is pure: it takes a snapshot of players, events and ledger, and returns a new
// snapshot without touching the input. The Service wraps it with store reads, the writer
// lock, the atomic commit and the change feed.
package society

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trentd187/golf-society/internal/handicap"
	"github.com/trentd187/golf-society/internal/ledger"
	"github.com/trentd187/golf-society/internal/models"
)

// Engine computes finalize and un-finalize results.
// Now and NewID are injectable so tests get stable dates and IDs.
type Engine struct {
	Now   func() time.Time
	NewID func(prefix string) string
}

// NewEngine returns an Engine using the wall clock and random UUIDs.
func NewEngine() Engine {
	return Engine{
		Now: time.Now,
		NewID: func(prefix string) string {
			return prefix + uuid.NewString()
		},
	}
}

func (e Engine) today() string {
	return e.Now().UTC().Format(models.DateLayout)
}

// HandicapChange records one player's adjustment during finalize.
type HandicapChange struct {
	PlayerID string  `json:"playerId"`
	Score    int     `json:"stablefordScore"`
	Previous float64 `json:"previous"`
	Delta    float64 `json:"delta"`
	Handicap float64 `json:"handicap"`
}

// FinalizeOutcome summarises what Finalize did.
type FinalizeOutcome struct {
	EventID        string               `json:"eventId"`
	CourseName     string               `json:"courseName"`
	HighestScore   int                  `json:"highestScore"`
	Winners        []string             `json:"winners"`
	PrizeMoney     float64              `json:"prizeMoney"`
	RolloverAmount float64              `json:"rolloverAmount"`
	Entries        []models.LedgerEntry `json:"entries"`
	Handicaps      []HandicapChange     `json:"handicaps"`
	UnknownPlayers []string             `json:"unknownPlayers,omitempty"`
}

// UnfinalizeOutcome summarises what Unfinalize did.
type UnfinalizeOutcome struct {
	EventID         string   `json:"eventId"`
	CourseName      string   `json:"courseName"`
	WasFinalized    bool     `json:"wasFinalized"`
	RemovedEntries  int      `json:"removedEntries"`
	RevertedPlayers []string `json:"revertedPlayers"`
	// StrandedPlayers still have a handicap entry for this event below the tail of their
	// history, because a later event was finalized after it. Those entries are left alone.
	StrandedPlayers []string `json:"strandedPlayers,omitempty"`
}

func findEvent(events []models.Event, eventID string) int {
	for i := range events {
		if events[i].EventID == eventID {
			return i
		}
	}
	return -1
}

func findPlayer(players []models.Player, playerID string) int {
	for i := range players {
		if players[i].ID == playerID {
			return i
		}
	}
	return -1
}

// Finalize applies scores to the event and returns the new snapshot.
//
// Steps, in order:
//  1. entry fee and snake/camel fines for every score
//  2. prize money to a sole winner, or a rollover on a tie
//  3. a handicap history entry for every score whose player exists
//  4. mark the event finalized and store the scores on it
func (e Engine) Finalize(eventID string, scores []models.Score, snap models.Snapshot) (models.Snapshot, *FinalizeOutcome, error) {
	if eventID == "" {
		return snap, nil, validation("Event ID is required.")
	}
	if len(scores) == 0 {
		return snap, nil, validation("At least one score is required.")
	}
	if snap.Events == nil {
		return snap, nil, validation("An events collection is required.")
	}
	for i, s := range scores {
		if s.PlayerID == "" {
			return snap, nil, validation("Score %d has no player ID.", i+1)
		}
		if s.Snakes < 0 || s.Camels < 0 {
			return snap, nil, validation("Score for player %s has a negative snake or camel count.", s.PlayerID)
		}
	}

	idx := findEvent(snap.Events, eventID)
	if idx < 0 {
		return snap, nil, notFound("Event %s not found.", eventID)
	}
	if snap.Events[idx].IsFinalized {
		return snap, nil, conflict("This event has already been finalized.")
	}

	out := snap.Clone()
	event := &out.Events[idx]
	today := e.today()

	outcome := &FinalizeOutcome{EventID: eventID, CourseName: event.CourseName}

	post := func(entry ledger.Entry) {
		entry.ID = e.NewID("txn_")
		entry.Date = today
		entry.EventID = eventID
		built := entry.Build()
		out.Ledger = append(out.Ledger, built)
		outcome.Entries = append(outcome.Entries, built)
	}

	// 1. Finances.
	for _, s := range scores {
		post(ledger.Entry{
			PlayerID:    s.PlayerID,
			Type:        models.TransactionEntryFee,
			Amount:      ledger.EntryFeeCharge(),
			Description: fmt.Sprintf("Entry for %s", event.CourseName),
		})
		if s.Snakes > 0 {
			post(ledger.Entry{
				PlayerID:    s.PlayerID,
				Type:        models.TransactionFine,
				Amount:      ledger.FineCharge(s.Snakes),
				Description: ledger.FineDescription(s.Snakes, "snake"),
			})
		}
		if s.Camels > 0 {
			post(ledger.Entry{
				PlayerID:    s.PlayerID,
				Type:        models.TransactionFine,
				Amount:      ledger.FineCharge(s.Camels),
				Description: ledger.FineDescription(s.Camels, "camel"),
			})
		}
	}

	// 2. Winner(s) and prize money.
	highest := scores[0].StablefordScore
	for _, s := range scores[1:] {
		if s.StablefordScore > highest {
			highest = s.StablefordScore
		}
	}
	for _, s := range scores {
		if s.StablefordScore == highest {
			outcome.Winners = append(outcome.Winners, s.PlayerID)
		}
	}
	prize := ledger.PrizePool(len(scores))
	outcome.HighestScore = highest
	outcome.PrizeMoney = prize.InexactFloat64()

	rollover := 0.0
	if len(outcome.Winners) == 1 {
		post(ledger.Entry{
			PlayerID:    outcome.Winners[0],
			Type:        models.TransactionPayout,
			Amount:      prize,
			Description: fmt.Sprintf("Prize money for %s", event.CourseName),
		})
	} else {
		// Tie: the pot is recorded on the event but not paid to anyone.
		rollover = prize.InexactFloat64()
	}
	event.RolloverAmount = &rollover
	outcome.RolloverAmount = rollover

	// 3. Handicaps. Scores for players that aren't on the roster are skipped.
	for _, s := range scores {
		pi := findPlayer(out.Players, s.PlayerID)
		if pi < 0 {
			outcome.UnknownPlayers = append(outcome.UnknownPlayers, s.PlayerID)
			continue
		}
		player := &out.Players[pi]
		current, ok := player.CurrentHandicap()
		if !ok {
			outcome.UnknownPlayers = append(outcome.UnknownPlayers, s.PlayerID)
			continue
		}

		delta := handicap.Adjust(current, s.StablefordScore)
		next := handicap.Round(current + delta)
		id := eventID
		player.HandicapHistory = append(player.HandicapHistory, models.HandicapEntry{
			Date:     today,
			Handicap: next,
			EventID:  &id,
			Reason:   fmt.Sprintf("Adjustment after scoring %d pts", s.StablefordScore),
		})
		outcome.Handicaps = append(outcome.Handicaps, HandicapChange{
			PlayerID: s.PlayerID,
			Score:    s.StablefordScore,
			Previous: current,
			Delta:    delta,
			Handicap: next,
		})
	}

	// 4. Event status.
	event.IsFinalized = true
	event.Scores = append([]models.Score{}, scores...)

	return out, outcome, nil
}

// Unfinalize reverts a finalized event and returns the new snapshot.
//
// Only the last handicap entry of each player is inspected: it is removed if it belongs to
// this event. Every ledger entry tagged with the event is removed. The event keeps its
// scores so they can be corrected before finalizing again.
func (e Engine) Unfinalize(eventID string, snap models.Snapshot) (models.Snapshot, *UnfinalizeOutcome, error) {
	if eventID == "" {
		return snap, nil, validation("Event ID is required.")
	}

	idx := findEvent(snap.Events, eventID)
	if idx < 0 {
		return snap, nil, notFound("Event %s not found.", eventID)
	}

	out := snap.Clone()
	event := &out.Events[idx]
	outcome := &UnfinalizeOutcome{
		EventID:      eventID,
		CourseName:   event.CourseName,
		WasFinalized: event.IsFinalized,
	}

	// 1. Handicaps: pop the tail if it belongs to this event.
	for i := range out.Players {
		player := &out.Players[i]
		n := len(player.HandicapHistory)
		if n == 0 {
			continue
		}
		if last := player.HandicapHistory[n-1]; last.EventID != nil && *last.EventID == eventID {
			player.HandicapHistory = player.HandicapHistory[:n-1]
			outcome.RevertedPlayers = append(outcome.RevertedPlayers, player.ID)
			n--
		}
		for _, h := range player.HandicapHistory[:n] {
			if h.EventID != nil && *h.EventID == eventID {
				outcome.StrandedPlayers = append(outcome.StrandedPlayers, player.ID)
				break
			}
		}
	}

	// 2. Ledger: drop everything tagged with this event.
	if out.Ledger != nil {
		kept := make([]models.LedgerEntry, 0, len(out.Ledger))
		for _, entry := range out.Ledger {
			if entry.EventID != nil && *entry.EventID == eventID {
				outcome.RemovedEntries++
				continue
			}
			kept = append(kept, entry)
		}
		out.Ledger = kept
	}

	// 3. Event status.
	event.IsFinalized = false

	return out, outcome, nil
}

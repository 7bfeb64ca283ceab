// Package models defines the data structures used by the Golf Society API.
//
// There are two families of types in this file:
//   - Document types (Player, Event, Score, LedgerEntry) are the shapes stored inside the
//     three JSON files that make up the society's data: data/players.json, data/events.json
//     and data/ledger.json. Their JSON tags are the on-disk field names and must not change.
//   - Store tables (Branch, Revision, RevisionFile) are the GORM models behind the versioned
//     repository that holds those JSON files. Every write to the society's data is a new
//     Revision on a Branch, and a Revision carries the files it changed.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Paths of the three society documents inside the versioned store.
const (
	PlayersPath = "data/players.json"
	EventsPath  = "data/events.json"
	LedgerPath  = "data/ledger.json"
)

// DateLayout is the "YYYY-MM-DD" format used for every date in the documents.
const DateLayout = "2006-01-02"

// --- Enums ---

// TransactionType classifies a ledger entry. The ledger supports exactly these three kinds.
type TransactionType string

const (
	TransactionEntryFee TransactionType = "entry_fee" // Fixed fee charged to every player in an event
	TransactionFine     TransactionType = "fine"      // Snake or camel penalty
	TransactionPayout   TransactionType = "payout"    // Prize money paid to a sole winner
)

// --- Documents ---

// HandicapEntry is one point in a player's handicap history.
// EventID is nil for entries that don't come from an event (e.g. the initial handicap).
type HandicapEntry struct {
	Date     string  `json:"date"`
	Handicap float64 `json:"handicap"`
	EventID  *string `json:"eventId"`
	Reason   string  `json:"reason"`
}

// Player is a member of the society.
// The last element of HandicapHistory is always the player's current handicap.
type Player struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	LeagueID        string          `json:"leagueId"`
	HandicapHistory []HandicapEntry `json:"handicapHistory"`
}

// CurrentHandicap returns the tail of the handicap history.
// ok is false for a player with an empty history, which only happens with hand-edited data.
func (p *Player) CurrentHandicap() (handicap float64, ok bool) {
	if len(p.HandicapHistory) == 0 {
		return 0, false
	}
	return p.HandicapHistory[len(p.HandicapHistory)-1].Handicap, true
}

// Score is one player's result for one event round.
type Score struct {
	PlayerID        string `json:"playerId"`
	StablefordScore int    `json:"stablefordScore"`
	Snakes          int    `json:"snakes"`
	Camels          int    `json:"camels"`
}

// Event is a single society round at a course.
// RolloverAmount is nil until the event has been finalized at least once.
type Event struct {
	EventID        string   `json:"eventId"`
	Date           string   `json:"date"`
	CourseName     string   `json:"courseName"`
	IsFinalized    bool     `json:"isFinalized"`
	Scores         []Score  `json:"scores"`
	RolloverAmount *float64 `json:"rolloverAmount,omitempty"`
}

// LedgerEntry is one money movement. Negative amounts are charges to the player,
// positive amounts are payouts. EventID is nil for transactions not tied to an event.
type LedgerEntry struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	EventID     *string         `json:"eventId"`
	PlayerID    string          `json:"playerId"`
	Type        TransactionType `json:"type"`
	Amount      float64         `json:"amount"`
	Description string          `json:"description"`
}

// Snapshot is the full society dataset as read at one store revision.
// Revision is empty when the branch has no commits yet.
type Snapshot struct {
	Players  []Player      `json:"players"`
	Events   []Event       `json:"events"`
	Ledger   []LedgerEntry `json:"ledger"`
	Revision string        `json:"revision"`
}

// Clone returns a deep copy so callers can mutate the result without touching s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Revision: s.Revision}

	if s.Players != nil {
		out.Players = make([]Player, len(s.Players))
		for i, p := range s.Players {
			if p.HandicapHistory != nil {
				p.HandicapHistory = append([]HandicapEntry{}, p.HandicapHistory...)
			}
			out.Players[i] = p
		}
	}

	if s.Events != nil {
		out.Events = make([]Event, len(s.Events))
		for i, e := range s.Events {
			if e.Scores != nil {
				e.Scores = append([]Score{}, e.Scores...)
			}
			if e.RolloverAmount != nil {
				v := *e.RolloverAmount
				e.RolloverAmount = &v
			}
			out.Events[i] = e
		}
	}

	if s.Ledger != nil {
		out.Ledger = append([]LedgerEntry{}, s.Ledger...)
	}

	return out
}

// --- Store tables ---
// These back the versioned repository (internal/database). Each branch has a linear
// history of revisions numbered by Seq; a revision only carries the files it changed.

// Branch is a named line of history. HeadSeq is 0 and HeadID is nil for an empty branch.
type Branch struct {
	Name      string     `gorm:"primaryKey"`
	HeadID    *uuid.UUID `gorm:"type:uuid"`
	HeadSeq   int64      `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

// Revision is one atomic commit on a branch.
// The unique (branch, seq) index means two writers can never both create revision N+1.
type Revision struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Branch    string     `gorm:"not null;uniqueIndex:idx_revisions_branch_seq"`
	Seq       int64      `gorm:"not null;uniqueIndex:idx_revisions_branch_seq"`
	ParentID  *uuid.UUID `gorm:"type:uuid"`
	Message   string     `gorm:"not null"`
	CreatedAt time.Time
}

// RevisionFile is the full content of one file as written by a revision.
// Branch and Seq are denormalised from the revision so "latest version of a path at or
// before seq N" is a single indexed query.
type RevisionFile struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	RevisionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_revision_files_path"` // A revision writes each path once
	Branch     string    `gorm:"not null;index:idx_revision_files_lookup,priority:1"`
	Path       string    `gorm:"not null;uniqueIndex:idx_revision_files_path;index:idx_revision_files_lookup,priority:2"`
	Seq        int64     `gorm:"not null;index:idx_revision_files_lookup,priority:3"`
	Content    string    `gorm:"type:text;not null"`
}

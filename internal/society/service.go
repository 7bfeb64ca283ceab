package society

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/trentd187/golf-society/internal/feed"
	"github.com/trentd187/golf-society/internal/lock"
	"github.com/trentd187/golf-society/internal/models"
	"github.com/trentd187/golf-society/internal/store"
)

// Publisher receives a notice after every successful commit.
type Publisher interface {
	Publish(n feed.Notice)
}

// Service runs society operations against a versioned store.
//
// Every write follows the same shape:
//  1. take the writer lock for the branch
//  2. read the branch head, then read the documents at that revision concurrently
//  3. compute the new documents with the Engine
//  4. commit all changed documents as one revision, conditional on the head from step 2
//  5. publish a notice
//
// Nothing is durable until step 4 succeeds, and a failed commit leaves the store unchanged.
type Service struct {
	store     store.Store
	locker    lock.Locker
	publisher Publisher
	branch    string
	engine    Engine
	log       *logrus.Entry
}

// NewService wires a Service. publisher may be nil.
func NewService(s store.Store, locker lock.Locker, publisher Publisher, branch string, log *logrus.Logger) *Service {
	return &Service{
		store:     s,
		locker:    locker,
		publisher: publisher,
		branch:    branch,
		engine:    NewEngine(),
		log:       log.WithFields(logrus.Fields{"component": "society", "branch": branch}),
	}
}

// WithEngine swaps the engine; tests use it to pin dates and IDs.
func (s *Service) WithEngine(e Engine) *Service {
	s.engine = e
	return s
}

// FinalizeResult is returned by FinalizeEvent.
type FinalizeResult struct {
	Revision string           `json:"revision"`
	Outcome  *FinalizeOutcome `json:"outcome"`
}

// UnfinalizeResult is returned by UnfinalizeEvent.
type UnfinalizeResult struct {
	Revision string             `json:"revision"`
	Outcome  *UnfinalizeOutcome `json:"outcome"`
}

// Data reads all three documents at the current head.
func (s *Service) Data(ctx context.Context) (models.Snapshot, error) {
	head, err := s.store.Head(ctx, s.branch)
	if err != nil {
		return models.Snapshot{}, storeFailure("Failed to fetch data.", err)
	}
	snap, err := s.read(ctx, head, true, true, true)
	if err != nil {
		return models.Snapshot{}, storeFailure("Failed to fetch data.", err)
	}
	return snap, nil
}

// FinalizeEvent finalizes eventID with scores.
// allEvents is the admin's full events list; it may include events created in the UI that
// have never been saved. It is merged with the stored list by mergeEvents.
func (s *Service) FinalizeEvent(ctx context.Context, eventID string, scores []models.Score, allEvents []models.Event) (*FinalizeResult, error) {
	log := s.log.WithField("event_id", eventID)

	// Input problems are reported before touching the store.
	if eventID == "" || len(scores) == 0 || allEvents == nil {
		return nil, validation("Event ID, scores, and allEvents array are required.")
	}

	release, err := s.locker.Acquire(ctx, s.branch)
	if err != nil {
		return nil, storeFailure("Failed to finalize event.", fmt.Errorf("acquire writer lock: %w", err))
	}
	defer release()

	head, err := s.store.Head(ctx, s.branch)
	if err != nil {
		return nil, storeFailure("Failed to finalize event.", err)
	}

	snap, err := s.read(ctx, head, true, true, true)
	if err != nil {
		return nil, storeFailure("Failed to finalize event.", err)
	}

	// allEvents may come from a page loaded before another admin finalized this event.
	// The stored copy is authoritative for finalized status.
	if i := findEvent(snap.Events, eventID); i >= 0 && snap.Events[i].IsFinalized {
		log.WithField("revision", head).Info("finalize rejected, event already finalized in the store")
		return nil, conflict("This event has already been finalized.")
	}
	snap.Events = mergeEvents(allEvents, snap.Events)

	next, outcome, err := s.engine.Finalize(eventID, scores, snap)
	if err != nil {
		log.WithError(err).Info("finalize rejected")
		return nil, err
	}

	revision, err := s.commit(ctx, head, fmt.Sprintf("chore: Finalize event - %s", outcome.CourseName), next)
	if err != nil {
		log.WithError(err).Error("finalize commit failed")
		return nil, storeFailure("Failed to finalize event.", err)
	}

	log.WithFields(logrus.Fields{
		"revision": revision,
		"scores":   len(scores),
		"winners":  len(outcome.Winners),
		"rollover": outcome.RolloverAmount,
	}).Info("event finalized")
	if len(outcome.UnknownPlayers) > 0 {
		log.WithField("players", outcome.UnknownPlayers).Warn("scores for unknown players skipped handicap update")
	}

	s.publish(feed.Notice{
		Kind:     feed.KindEventFinalized,
		EventID:  eventID,
		Revision: revision,
		Message:  fmt.Sprintf("%s finalized", outcome.CourseName),
	})

	return &FinalizeResult{Revision: revision, Outcome: outcome}, nil
}

// UnfinalizeEvent reverts eventID's ledger entries and handicap adjustments.
func (s *Service) UnfinalizeEvent(ctx context.Context, eventID string) (*UnfinalizeResult, error) {
	log := s.log.WithField("event_id", eventID)

	if eventID == "" {
		return nil, validation("Event ID is required.")
	}

	release, err := s.locker.Acquire(ctx, s.branch)
	if err != nil {
		return nil, storeFailure("Failed to revert event.", fmt.Errorf("acquire writer lock: %w", err))
	}
	defer release()

	head, err := s.store.Head(ctx, s.branch)
	if err != nil {
		return nil, storeFailure("Failed to revert event.", err)
	}

	snap, err := s.read(ctx, head, true, true, true)
	if err != nil {
		return nil, storeFailure("Failed to revert event.", err)
	}

	next, outcome, err := s.engine.Unfinalize(eventID, snap)
	if err != nil {
		log.WithError(err).Info("unfinalize rejected")
		return nil, err
	}

	revision, err := s.commit(ctx, head, fmt.Sprintf("chore: Revert event - %s", outcome.CourseName), next)
	if err != nil {
		log.WithError(err).Error("unfinalize commit failed")
		return nil, storeFailure("Failed to revert event.", err)
	}

	log.WithFields(logrus.Fields{
		"revision":         revision,
		"removed_entries":  outcome.RemovedEntries,
		"reverted_players": len(outcome.RevertedPlayers),
	}).Info("event reverted")
	if len(outcome.StrandedPlayers) > 0 {
		log.WithField("players", outcome.StrandedPlayers).
			Warn("handicap entries for this event are below a later event and were not reverted")
	}

	s.publish(feed.Notice{
		Kind:     feed.KindEventUnfinalized,
		EventID:  eventID,
		Revision: revision,
		Message:  fmt.Sprintf("%s reverted", outcome.CourseName),
	})

	return &UnfinalizeResult{Revision: revision, Outcome: outcome}, nil
}

// NewPlayer is the input to AddPlayer. Handicap is a pointer so "0" and "missing" differ.
type NewPlayer struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	LeagueID string   `json:"leagueId"`
	Handicap *float64 `json:"handicap"`
}

// AddPlayer appends a player with an initial handicap entry.
func (s *Service) AddPlayer(ctx context.Context, in NewPlayer) (*models.Player, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.LeagueID == "" || in.Handicap == nil {
		return nil, validation("Missing required player fields.")
	}

	release, err := s.locker.Acquire(ctx, s.branch)
	if err != nil {
		return nil, storeFailure("Failed to add player.", fmt.Errorf("acquire writer lock: %w", err))
	}
	defer release()

	head, err := s.store.Head(ctx, s.branch)
	if err != nil {
		return nil, storeFailure("Failed to add player.", err)
	}
	players, _, err := store.ReadCollection[models.Player](ctx, s.store, s.branch, head, models.PlayersPath, store.DefaultEmpty)
	if err != nil {
		return nil, storeFailure("Failed to add player.", err)
	}

	player := models.Player{
		ID:       s.engine.NewID("p_"),
		Name:     name,
		Email:    in.Email,
		Phone:    in.Phone,
		LeagueID: in.LeagueID,
		HandicapHistory: []models.HandicapEntry{{
			Date:     s.engine.today(),
			Handicap: *in.Handicap,
			EventID:  nil,
			Reason:   "Initial Handicap",
		}},
	}
	players = append(players, player)

	file, err := store.EncodeFile(models.PlayersPath, players)
	if err != nil {
		return nil, storeFailure("Failed to add player.", err)
	}
	revision, err := s.store.CommitAll(ctx, store.Commit{
		Branch:  s.branch,
		Message: fmt.Sprintf("feat: Add new player - %s", name),
		Base:    head,
		Files:   []store.File{file},
	})
	if err != nil {
		return nil, storeFailure("Failed to add player.", wrapStale(err))
	}

	s.log.WithFields(logrus.Fields{"player_id": player.ID, "revision": revision}).Info("player added")
	s.publish(feed.Notice{
		Kind:     feed.KindPlayerAdded,
		PlayerID: player.ID,
		Revision: revision,
		Message:  fmt.Sprintf("%s joined %s", name, in.LeagueID),
	})

	return &player, nil
}

// read loads the requested documents at revision concurrently. Missing documents read as
// empty collections; a brand new society has none of the three files yet.
func (s *Service) read(ctx context.Context, revision string, players, events, ledgerDoc bool) (models.Snapshot, error) {
	snap := models.Snapshot{Revision: revision}
	g, ctx := errgroup.WithContext(ctx)

	if players {
		g.Go(func() error {
			v, _, err := store.ReadCollection[models.Player](ctx, s.store, s.branch, revision, models.PlayersPath, store.DefaultEmpty)
			snap.Players = v
			return err
		})
	}
	if events {
		g.Go(func() error {
			v, _, err := store.ReadCollection[models.Event](ctx, s.store, s.branch, revision, models.EventsPath, store.DefaultEmpty)
			snap.Events = v
			return err
		})
	}
	if ledgerDoc {
		g.Go(func() error {
			v, _, err := store.ReadCollection[models.LedgerEntry](ctx, s.store, s.branch, revision, models.LedgerPath, store.DefaultEmpty)
			snap.Ledger = v
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return models.Snapshot{}, err
	}
	return snap, nil
}

// commit writes all three documents as one revision based on base.
func (s *Service) commit(ctx context.Context, base, message string, snap models.Snapshot) (string, error) {
	files := make([]store.File, 0, 3)
	for _, doc := range []struct {
		path string
		v    any
	}{
		{models.PlayersPath, nonNil(snap.Players)},
		{models.EventsPath, nonNil(snap.Events)},
		{models.LedgerPath, nonNil(snap.Ledger)},
	} {
		f, err := store.EncodeFile(doc.path, doc.v)
		if err != nil {
			return "", err
		}
		files = append(files, f)
	}

	revision, err := s.store.CommitAll(ctx, store.Commit{
		Branch:  s.branch,
		Message: message,
		Base:    base,
		Files:   files,
	})
	if err != nil {
		return "", wrapStale(err)
	}
	return revision, nil
}

func (s *Service) publish(n feed.Notice) {
	if s.publisher == nil {
		return
	}
	n.At = time.Now().UTC()
	s.publisher.Publish(n)
}

// mergeEvents builds the events list to commit from the admin's list and the stored one.
// Submitted events win, except that a stored finalized event is kept as stored: its
// status and scores only change through finalize and unfinalize. Stored events missing
// from the submitted list are appended so a stale page can't drop them.
func mergeEvents(submitted, stored []models.Event) []models.Event {
	byID := make(map[string]int, len(stored))
	for i, e := range stored {
		byID[e.EventID] = i
	}

	out := make([]models.Event, 0, len(submitted)+len(stored))
	seen := make(map[string]bool, len(submitted))
	for _, e := range submitted {
		seen[e.EventID] = true
		if i, ok := byID[e.EventID]; ok && stored[i].IsFinalized {
			out = append(out, stored[i])
			continue
		}
		out = append(out, e)
	}
	for _, e := range stored {
		if !seen[e.EventID] {
			out = append(out, e)
		}
	}
	return out
}

// wrapStale gives the admin something actionable when another write got in first.
func wrapStale(err error) error {
	if errors.Is(err, store.ErrStaleRevision) {
		return fmt.Errorf("data changed since it was read, please retry: %w", err)
	}
	return err
}

// nonNil keeps empty collections as [] rather than null in the JSON files.
func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

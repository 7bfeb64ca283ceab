package society

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trentd187/golf-society/internal/models"
)

// fixedEngine returns an engine with a pinned clock and sequential IDs.
func fixedEngine() Engine {
	n := 0
	return Engine{
		Now: func() time.Time { return time.Date(2026, 10, 19, 15, 30, 0, 0, time.UTC) },
		NewID: func(prefix string) string {
			n++
			return fmt.Sprintf("%s%d", prefix, n)
		},
	}
}

func player(id string, handicap float64) models.Player {
	return models.Player{
		ID:       id,
		Name:     "Player " + id,
		LeagueID: "summer",
		HandicapHistory: []models.HandicapEntry{
			{Date: "2026-01-01", Handicap: handicap, Reason: "Initial Handicap"},
		},
	}
}

func baseSnapshot() models.Snapshot {
	return models.Snapshot{
		Players: []models.Player{player("p_1", 10.0), player("p_2", 2.0), player("p_3", 14.0)},
		Events: []models.Event{
			{EventID: "evt_1", Date: "2026-10-18", CourseName: "Royal Troon", Scores: []models.Score{}},
			{EventID: "evt_2", Date: "2026-10-25", CourseName: "Carnoustie", Scores: []models.Score{}},
		},
		Ledger: []models.LedgerEntry{
			{ID: "txn_old", Date: "2026-01-01", PlayerID: "p_1", Type: models.TransactionFine, Amount: -1, Description: "manual"},
		},
	}
}

func entriesOfType(entries []models.LedgerEntry, typ models.TransactionType) []models.LedgerEntry {
	var out []models.LedgerEntry
	for _, e := range entries {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func TestFinalizeSingleWinner(t *testing.T) {
	snap := baseSnapshot()
	scores := []models.Score{
		{PlayerID: "p_1", StablefordScore: 25, Snakes: 2, Camels: 0},
		{PlayerID: "p_2", StablefordScore: 18, Snakes: 0, Camels: 1},
		{PlayerID: "p_3", StablefordScore: 17, Snakes: 1, Camels: 3},
	}

	next, outcome, err := fixedEngine().Finalize("evt_1", scores, snap)
	require.NoError(t, err)

	// Ledger: old entry, then per score entry/snake/camel in order, then the payout.
	newEntries := next.Ledger[1:]
	require.Len(t, newEntries, 8)
	assert.Equal(t, outcome.Entries, newEntries)

	wantTypes := []models.TransactionType{
		models.TransactionEntryFee, models.TransactionFine, // p_1
		models.TransactionEntryFee, models.TransactionFine, // p_2
		models.TransactionEntryFee, models.TransactionFine, models.TransactionFine, // p_3
		models.TransactionPayout,
	}
	for i, e := range newEntries {
		assert.Equal(t, wantTypes[i], e.Type, "entry %d", i)
		require.NotNil(t, e.EventID)
		assert.Equal(t, "evt_1", *e.EventID)
		assert.Equal(t, "2026-10-19", e.Date)
		assert.Equal(t, fmt.Sprintf("txn_%d", i+1), e.ID)
	}

	assert.Equal(t, -5.0, newEntries[0].Amount)
	assert.Equal(t, "Entry for Royal Troon", newEntries[0].Description)
	assert.Equal(t, -2.0, newEntries[1].Amount)
	assert.Equal(t, "2 snake(s)", newEntries[1].Description)
	assert.Equal(t, -1.0, newEntries[3].Amount)
	assert.Equal(t, "1 camel(s)", newEntries[3].Description)
	assert.Equal(t, -3.0, newEntries[6].Amount)
	assert.Equal(t, "3 camel(s)", newEntries[6].Description)

	payouts := entriesOfType(newEntries, models.TransactionPayout)
	require.Len(t, payouts, 1)
	assert.Equal(t, "p_1", payouts[0].PlayerID)
	assert.Equal(t, 4.5, payouts[0].Amount)
	assert.Equal(t, "Prize money for Royal Troon", payouts[0].Description)

	event := next.Events[0]
	assert.True(t, event.IsFinalized)
	assert.Equal(t, scores, event.Scores)
	require.NotNil(t, event.RolloverAmount)
	assert.Equal(t, 0.0, *event.RolloverAmount)
	assert.False(t, next.Events[1].IsFinalized)

	assert.Equal(t, []string{"p_1"}, outcome.Winners)
	assert.Equal(t, 25, outcome.HighestScore)
	assert.Equal(t, 4.5, outcome.PrizeMoney)
}

func TestFinalizeHandicaps(t *testing.T) {
	snap := baseSnapshot()
	scores := []models.Score{
		{PlayerID: "p_1", StablefordScore: 25}, // 10.0, cut 0.3 → 8.5
		{PlayerID: "p_2", StablefordScore: 19}, // 2.0, buffer 19 → unchanged
		{PlayerID: "p_3", StablefordScore: 15}, // 14.0, below buffer 16 → 14.1
	}

	next, outcome, err := fixedEngine().Finalize("evt_1", scores, snap)
	require.NoError(t, err)

	want := map[string]float64{"p_1": 8.5, "p_2": 2.0, "p_3": 14.1}
	for _, p := range next.Players {
		require.Len(t, p.HandicapHistory, 2, p.ID)
		last := p.HandicapHistory[1]
		assert.Equal(t, want[p.ID], last.Handicap, p.ID)
		assert.Equal(t, "2026-10-19", last.Date)
		require.NotNil(t, last.EventID)
		assert.Equal(t, "evt_1", *last.EventID)
	}
	assert.Equal(t, "Adjustment after scoring 25 pts", next.Players[0].HandicapHistory[1].Reason)

	require.Len(t, outcome.Handicaps, 3)
	assert.InDelta(t, -1.5, outcome.Handicaps[0].Delta, 1e-9)
	assert.Equal(t, 0.0, outcome.Handicaps[1].Delta)
	assert.Equal(t, 0.1, outcome.Handicaps[2].Delta)
}

func TestFinalizeEndToEndHandicapScenario(t *testing.T) {
	tests := []struct {
		score int
		want  float64
	}{
		{25, 8.5},
		{15, 10.1},
		{17, 10.0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("score %d", tt.score), func(t *testing.T) {
			snap := models.Snapshot{
				Players: []models.Player{player("p_1", 10.0)},
				Events:  []models.Event{{EventID: "evt_1", CourseName: "Muirfield"}},
				Ledger:  []models.LedgerEntry{},
			}
			next, _, err := fixedEngine().Finalize("evt_1", []models.Score{{PlayerID: "p_1", StablefordScore: tt.score}}, snap)
			require.NoError(t, err)

			current, ok := next.Players[0].CurrentHandicap()
			require.True(t, ok)
			assert.Equal(t, tt.want, current)
		})
	}
}

func TestFinalizeTieRollsOver(t *testing.T) {
	snap := baseSnapshot()
	scores := []models.Score{
		{PlayerID: "p_1", StablefordScore: 22},
		{PlayerID: "p_2", StablefordScore: 22},
		{PlayerID: "p_3", StablefordScore: 18},
	}

	next, outcome, err := fixedEngine().Finalize("evt_1", scores, snap)
	require.NoError(t, err)

	assert.Empty(t, entriesOfType(next.Ledger, models.TransactionPayout))
	require.NotNil(t, next.Events[0].RolloverAmount)
	assert.Equal(t, 4.5, *next.Events[0].RolloverAmount)
	assert.Equal(t, []string{"p_1", "p_2"}, outcome.Winners)
	assert.Equal(t, 4.5, outcome.RolloverAmount)
}

func TestFinalizeEntryFeesAndFines(t *testing.T) {
	snap := baseSnapshot()
	scores := []models.Score{
		{PlayerID: "p_1", StablefordScore: 30, Snakes: 0, Camels: 0},
		{PlayerID: "p_2", StablefordScore: 20, Snakes: 4, Camels: 0},
		{PlayerID: "p_3", StablefordScore: 10, Snakes: 0, Camels: 2},
	}

	next, _, err := fixedEngine().Finalize("evt_1", scores, snap)
	require.NoError(t, err)

	fees := entriesOfType(next.Ledger, models.TransactionEntryFee)
	require.Len(t, fees, 3)
	for i, fee := range fees {
		assert.Equal(t, scores[i].PlayerID, fee.PlayerID)
		assert.Equal(t, -5.0, fee.Amount)
	}

	var fines []models.LedgerEntry
	for _, e := range entriesOfType(next.Ledger, models.TransactionFine) {
		if e.EventID != nil {
			fines = append(fines, e)
		}
	}
	require.Len(t, fines, 2)
	assert.Equal(t, "p_2", fines[0].PlayerID)
	assert.Equal(t, -4.0, fines[0].Amount)
	assert.Equal(t, "p_3", fines[1].PlayerID)
	assert.Equal(t, -2.0, fines[1].Amount)
}

func TestFinalizeSkipsUnknownPlayers(t *testing.T) {
	snap := baseSnapshot()
	scores := []models.Score{
		{PlayerID: "p_1", StablefordScore: 21},
		{PlayerID: "p_guest", StablefordScore: 30},
	}

	next, outcome, err := fixedEngine().Finalize("evt_1", scores, snap)
	require.NoError(t, err)

	// The guest still pays, and wins.
	payouts := entriesOfType(next.Ledger, models.TransactionPayout)
	require.Len(t, payouts, 1)
	assert.Equal(t, "p_guest", payouts[0].PlayerID)
	assert.Equal(t, 3.0, payouts[0].Amount)

	assert.Equal(t, []string{"p_guest"}, outcome.UnknownPlayers)
	assert.Len(t, outcome.Handicaps, 1)
	assert.Len(t, next.Players, 3)
}

func TestFinalizeDoesNotMutateInput(t *testing.T) {
	snap := baseSnapshot()
	before := snap.Clone()

	_, _, err := fixedEngine().Finalize("evt_1", []models.Score{{PlayerID: "p_1", StablefordScore: 25, Snakes: 1}}, snap)
	require.NoError(t, err)

	assert.Equal(t, before, snap)
}

func TestFinalizeValidation(t *testing.T) {
	snap := baseSnapshot()
	score := []models.Score{{PlayerID: "p_1", StablefordScore: 20}}

	tests := []struct {
		name    string
		eventID string
		scores  []models.Score
		snap    models.Snapshot
		kind    Kind
	}{
		{"missing event id", "", score, snap, KindValidation},
		{"no scores", "evt_1", nil, snap, KindValidation},
		{"no events collection", "evt_1", score, models.Snapshot{Players: snap.Players}, KindValidation},
		{"score without player", "evt_1", []models.Score{{StablefordScore: 20}}, snap, KindValidation},
		{"negative snakes", "evt_1", []models.Score{{PlayerID: "p_1", Snakes: -1}}, snap, KindValidation},
		{"unknown event", "evt_404", score, snap, KindNotFound},
		{"empty events collection", "evt_1", score, models.Snapshot{Events: []models.Event{}}, KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, outcome, err := fixedEngine().Finalize(tt.eventID, tt.scores, tt.snap)
			require.Error(t, err)
			assert.Nil(t, outcome)
			assert.Equal(t, tt.kind, KindOf(err))
		})
	}
}

func TestFinalizeRejectsAlreadyFinalized(t *testing.T) {
	snap := baseSnapshot()
	snap.Events[0].IsFinalized = true
	before := snap.Clone()

	next, _, err := fixedEngine().Finalize("evt_1", []models.Score{{PlayerID: "p_1", StablefordScore: 20}}, snap)
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "This event has already been finalized.", err.Error())
	assert.Equal(t, before, next)
}

func TestUnfinalizeRevertsEverything(t *testing.T) {
	snap := baseSnapshot()
	scores := []models.Score{
		{PlayerID: "p_1", StablefordScore: 25, Snakes: 1},
		{PlayerID: "p_2", StablefordScore: 15, Camels: 2},
	}

	finalized, _, err := fixedEngine().Finalize("evt_1", scores, snap)
	require.NoError(t, err)

	reverted, outcome, err := fixedEngine().Unfinalize("evt_1", finalized)
	require.NoError(t, err)

	assert.Equal(t, snap.Players, reverted.Players)
	assert.Equal(t, snap.Ledger, reverted.Ledger)

	event := reverted.Events[0]
	assert.False(t, event.IsFinalized)
	assert.Equal(t, scores, event.Scores, "scores are kept for editing")

	assert.True(t, outcome.WasFinalized)
	assert.Equal(t, 5, outcome.RemovedEntries)
	assert.Equal(t, []string{"p_1", "p_2"}, outcome.RevertedPlayers)
	assert.Empty(t, outcome.StrandedPlayers)
}

func TestUnfinalizeOnlyPopsTail(t *testing.T) {
	snap := baseSnapshot()
	engine := fixedEngine()

	first, _, err := engine.Finalize("evt_1", []models.Score{
		{PlayerID: "p_1", StablefordScore: 25},
		{PlayerID: "p_2", StablefordScore: 22},
	}, snap)
	require.NoError(t, err)

	// p_1 plays a later event, p_2 doesn't.
	second, _, err := engine.Finalize("evt_2", []models.Score{{PlayerID: "p_1", StablefordScore: 10}}, first)
	require.NoError(t, err)

	reverted, outcome, err := engine.Unfinalize("evt_1", second)
	require.NoError(t, err)

	// p_1's evt_1 entry is buried under evt_2 and stays.
	p1 := reverted.Players[0]
	require.Len(t, p1.HandicapHistory, 3)
	assert.Equal(t, "evt_2", *p1.HandicapHistory[2].EventID)
	assert.Equal(t, []string{"p_1"}, outcome.StrandedPlayers)

	// p_2's tail was evt_1, so it is popped.
	assert.Len(t, reverted.Players[1].HandicapHistory, 1)
	assert.Equal(t, []string{"p_2"}, outcome.RevertedPlayers)

	// Every evt_1 ledger entry is gone, evt_2's are intact.
	for _, e := range reverted.Ledger {
		if e.EventID != nil {
			assert.Equal(t, "evt_2", *e.EventID)
		}
	}
	assert.Len(t, reverted.Ledger, 1+2) // manual entry + evt_2 entry fee and payout
}

func TestUnfinalizeNotFinalizedIsNoop(t *testing.T) {
	snap := baseSnapshot()

	reverted, outcome, err := fixedEngine().Unfinalize("evt_2", snap)
	require.NoError(t, err)

	assert.Equal(t, snap.Players, reverted.Players)
	assert.Equal(t, snap.Ledger, reverted.Ledger)
	assert.False(t, reverted.Events[1].IsFinalized)
	assert.False(t, outcome.WasFinalized)
	assert.Zero(t, outcome.RemovedEntries)
}

func TestUnfinalizeErrors(t *testing.T) {
	_, _, err := fixedEngine().Unfinalize("", baseSnapshot())
	assert.Equal(t, KindValidation, KindOf(err))

	_, _, err = fixedEngine().Unfinalize("evt_404", baseSnapshot())
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestUnfinalizeThenFinalizeRoundTrip(t *testing.T) {
	snap := baseSnapshot()
	scores := []models.Score{
		{PlayerID: "p_1", StablefordScore: 24, Snakes: 1},
		{PlayerID: "p_2", StablefordScore: 24},
		{PlayerID: "p_3", StablefordScore: 12, Camels: 1},
	}

	first, firstOutcome, err := fixedEngine().Finalize("evt_1", scores, snap)
	require.NoError(t, err)

	reverted, _, err := fixedEngine().Unfinalize("evt_1", first)
	require.NoError(t, err)

	again, againOutcome, err := fixedEngine().Finalize("evt_1", reverted.Events[0].Scores, reverted)
	require.NoError(t, err)

	// Same engine seed, same clock: the results are identical, IDs included.
	assert.Equal(t, first, again)
	assert.Equal(t, firstOutcome, againOutcome)
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindStoreFailure, KindOf(fmt.Errorf("boom")))
	err := fmt.Errorf("wrapped: %w", validation("bad %s", "input"))
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "wrapped: bad input", err.Error())
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := storeFailure("Failed to finalize event.", fmt.Errorf("timeout"))
	assert.Equal(t, "Failed to finalize event.: timeout", err.Error())
	assert.Equal(t, "missing", (&Error{Kind: KindNotFound, Message: "missing"}).Error())
}

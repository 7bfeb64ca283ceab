// Package ledger holds the society's fee schedule and the helpers that turn it into
// ledger entries. Money is computed with decimal arithmetic and only converted to
// float64 at the document boundary, where the JSON files store plain numbers.
package ledger

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/trentd187/golf-society/internal/models"
)

// Fee schedule.
var (
	EntryFee       = decimal.RequireFromString("5.00") // Charged to every player in an event
	FinePerMarker  = decimal.RequireFromString("1.00") // Charged per snake and per camel
	PrizePerPlayer = decimal.RequireFromString("1.50") // Each entrant's contribution to the prize pot
)

// Entry is the subset of a ledger entry the caller decides; Build fills in the rest.
type Entry struct {
	ID          string
	Date        string
	EventID     string
	PlayerID    string
	Type        models.TransactionType
	Amount      decimal.Decimal
	Description string
}

// Build converts an Entry into the document shape.
func (e Entry) Build() models.LedgerEntry {
	var eventID *string
	if e.EventID != "" {
		id := e.EventID
		eventID = &id
	}
	return models.LedgerEntry{
		ID:          e.ID,
		Date:        e.Date,
		EventID:     eventID,
		PlayerID:    e.PlayerID,
		Type:        e.Type,
		Amount:      e.Amount.InexactFloat64(),
		Description: e.Description,
	}
}

// EntryFeeCharge is the (negative) entry fee amount.
func EntryFeeCharge() decimal.Decimal {
	return EntryFee.Neg()
}

// FineCharge is the (negative) fine for count markers of one kind.
func FineCharge(count int) decimal.Decimal {
	return FinePerMarker.Mul(decimal.NewFromInt(int64(count))).Neg()
}

// PrizePool is the prize money for an event with the given number of entrants.
func PrizePool(entrants int) decimal.Decimal {
	return PrizePerPlayer.Mul(decimal.NewFromInt(int64(entrants)))
}

// FineDescription renders e.g. "2 snake(s)".
func FineDescription(count int, marker string) string {
	return fmt.Sprintf("%d %s(s)", count, marker)
}

// Balance is a player's running total across the whole ledger.
type Balance struct {
	PlayerID string          `json:"playerId"`
	Balance  decimal.Decimal `json:"balance"`
	Entries  int             `json:"entries"`
}

// Balances sums every entry per player. The result is sorted by player ID.
func Balances(entries []models.LedgerEntry) []Balance {
	byPlayer := make(map[string]*Balance)
	for _, e := range entries {
		b, ok := byPlayer[e.PlayerID]
		if !ok {
			b = &Balance{PlayerID: e.PlayerID, Balance: decimal.Zero}
			byPlayer[e.PlayerID] = b
		}
		// Amounts are stored with at most two decimals, so rounding here undoes float noise.
		b.Balance = b.Balance.Add(decimal.NewFromFloat(e.Amount).Round(2))
		b.Entries++
	}

	out := make([]Balance, 0, len(byPlayer))
	for _, b := range byPlayer {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out
}

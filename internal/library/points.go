package library

import (
	"github.com/mrlokans/bookshelf/internal/entities"
)

// Ledger is the gamification balance. CurrentPoints never goes negative.
type Ledger struct {
	CurrentPoints            int `json:"currentPoints"`
	TotalEarned              int `json:"totalEarned"`
	BooksPurchasedWithPoints int `json:"booksPurchasedWithPoints"`
}

func (l Ledger) Earn(amount int) Ledger {
	amount = max(amount, 0)
	l.CurrentPoints += amount
	l.TotalEarned += amount
	return l
}

// Spend lowers the balance, clamping at zero instead of failing.
func (l Ledger) Spend(amount int) Ledger {
	l.CurrentPoints = max(0, l.CurrentPoints-max(amount, 0))
	return l
}

func (l Ledger) PurchaseWithPoints(cost int) Ledger {
	l = l.Spend(cost)
	l.BooksPurchasedWithPoints++
	return l
}

func (l Ledger) Reset() Ledger {
	return Ledger{}
}

func (l Ledger) CanAfford(cost int) bool {
	return l.CurrentPoints >= cost
}

// EarnedBetween returns the points a transition from before to after is
// worth: pointsPerBook for each book that became read and pointsPerSaga for
// each saga that became complete. It is zero when points are disabled.
func EarnedBetween(before, after State) int {
	if after.Config.EnablePoints != nil && !*after.Config.EnablePoints {
		return 0
	}

	earned := 0
	for _, b := range after.Books {
		if b.Status != entities.BookStatusRead {
			continue
		}
		if prev, ok := before.Book(b.ID); ok && prev.Status == b.Status {
			continue
		}
		earned += after.Config.PointsForBook()
	}
	for _, sg := range after.Sagas {
		if !sg.IsComplete {
			continue
		}
		if prev, ok := before.Saga(sg.ID); ok && prev.IsComplete {
			continue
		}
		earned += after.Config.PointsForSaga()
	}
	return earned
}

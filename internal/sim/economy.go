package sim

import (
	"fmt"
	"math"

	"github.com/brandon-schabel/td-engine-sub006/internal/core/event"
)

// Ledger owns the currency balance. Spend is all-or-nothing; the balance can
// never go negative. Every balance change emits CurrencyChanged.
type Ledger struct {
	balance      int
	refundFactor float64
	bus          *event.Bus
}

func NewLedger(starting int, refundFactor float64, bus *event.Bus) *Ledger {
	if starting < 0 {
		panic(fmt.Sprintf("sim: negative starting balance %d", starting))
	}
	return &Ledger{balance: starting, refundFactor: refundFactor, bus: bus}
}

func (l *Ledger) Balance() int { return l.balance }

// CanAfford is a pure predicate: true iff Spend(cost) would succeed.
func (l *Ledger) CanAfford(cost int) bool {
	return cost >= 0 && l.balance >= cost
}

// Spend debits cost or fails with ErrInsufficientFunds as a no-op. There is
// no partial spend.
func (l *Ledger) Spend(cost int) error {
	if cost < 0 {
		panic(fmt.Sprintf("sim: negative spend %d", cost))
	}
	if l.balance < cost {
		return fmt.Errorf("%w: need %d, have %d", ErrInsufficientFunds, cost, l.balance)
	}
	before := l.balance
	l.balance -= cost
	event.Emit(l.bus, CurrencyChanged{Before: before, After: l.balance})
	return nil
}

// Credit adds amount to the balance.
func (l *Ledger) Credit(amount int) {
	if amount < 0 {
		panic(fmt.Sprintf("sim: negative credit %d", amount))
	}
	if amount == 0 {
		return
	}
	before := l.balance
	l.balance += amount
	event.Emit(l.bus, CurrencyChanged{Before: before, After: l.balance})
}

// RefundFor returns the sell refund for a cumulative spend: a monotonic
// fraction, never exceeding the spend itself.
func (l *Ledger) RefundFor(cumulativeSpend int) int {
	if cumulativeSpend <= 0 {
		return 0
	}
	refund := int(math.Floor(float64(cumulativeSpend) * l.refundFactor))
	if refund > cumulativeSpend {
		refund = cumulativeSpend
	}
	return refund
}

// UpgradeCost returns the price of the upgrade at 0-based level, walking the
// curve iteratively so it is strictly increasing even after integer
// truncation.
func UpgradeCost(base int, mult float64, level int) int {
	cost := base
	for i := 0; i < level; i++ {
		next := int(math.Ceil(float64(cost) * mult))
		if next <= cost {
			next = cost + 1
		}
		cost = next
	}
	return cost
}

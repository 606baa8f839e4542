package tx

import (
	"fmt"
	"sort"
)

// Ordering controls the order in which eligible UTXOs are accumulated.
type Ordering int

const (
	// OrderLargestFirst accumulates the largest outputs first, minimizing
	// the number of inputs.
	OrderLargestFirst Ordering = iota
	// OrderSmallestFirst accumulates the smallest outputs first,
	// consolidating dust.
	OrderSmallestFirst
	// OrderAsGiven keeps the order the UTXO source reported.
	OrderAsGiven
)

// String returns the name of the ordering.
func (o Ordering) String() string {
	switch o {
	case OrderLargestFirst:
		return "largest-first"
	case OrderSmallestFirst:
		return "smallest-first"
	case OrderAsGiven:
		return "as-given"
	default:
		return fmt.Sprintf("Ordering(%d)", int(o))
	}
}

// ParseOrdering maps a configuration string to an Ordering.
// The empty string selects OrderLargestFirst.
func ParseOrdering(s string) (Ordering, error) {
	switch s {
	case "", "largest-first":
		return OrderLargestFirst, nil
	case "smallest-first":
		return OrderSmallestFirst, nil
	case "as-given":
		return OrderAsGiven, nil
	default:
		return 0, fmt.Errorf("%w: unknown ordering %q", ErrInvalidParams, s)
	}
}

// SelectOptions tunes SelectInputs.
type SelectOptions struct {
	// SpendUnconfirmed allows unconfirmed UTXOs. Ignored when a memo is set.
	SpendUnconfirmed bool
	Order            Ordering
	// DustThreshold, when non-zero, folds change below it into the fee.
	DustThreshold uint64
}

// EffectiveConfirmedOnly reports whether only confirmed UTXOs may be spent.
// A memo always forces confirmed-only.
func (o SelectOptions) EffectiveConfirmedOnly(memo []byte) bool {
	return memo != nil || !o.SpendUnconfirmed
}

// Selection is the result of coin selection.
// Sum(Inputs) == sum(targets) + Fee + Change.
type Selection struct {
	Inputs []*UTXO
	Fee    uint64
	Change uint64
}

// Total returns the sum of the selected input values.
func (s *Selection) Total() uint64 {
	total, _ := sumUTXOs(s.Inputs)
	return total
}

// SelectInputs picks UTXOs from available to fund targets plus fee using
// accumulative selection: candidates are added one at a time in the
// configured order and the fee is re-estimated after each, stopping as soon
// as the accumulated value covers targets and fee.
//
// The result is deterministic for identical arguments. available is not
// modified.
func SelectInputs(available []*UTXO, targets []SpendTarget, rate FeeRate, memo []byte, opts SelectOptions) (*Selection, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: no targets", ErrInvalidTarget)
	}
	for i, t := range targets {
		if t.Amount == 0 {
			return nil, fmt.Errorf("%w: target[%d] amount is zero", ErrInvalidTarget, i)
		}
		if t.Address == "" {
			return nil, fmt.Errorf("%w: target[%d] address is empty", ErrInvalidTarget, i)
		}
	}
	if err := rate.Validate(); err != nil {
		return nil, err
	}

	candidates := eligible(available, opts.EffectiveConfirmedOnly(memo))
	if len(candidates) == 0 {
		return nil, ErrNoUTXOs
	}
	if err := sortCandidates(candidates, opts.Order); err != nil {
		return nil, err
	}

	want, ok := sumTargets(targets)
	if !ok {
		return nil, fmt.Errorf("%w: target total overflows", ErrInvalidTarget)
	}
	var (
		selected []*UTXO
		total    uint64
	)
	for _, u := range candidates {
		selected = append(selected, u)
		if total, ok = addAmounts(total, u.Amount); !ok {
			return nil, fmt.Errorf("%w: candidate total overflows", ErrInvalidParams)
		}

		fee := EstimateFee(selected, memo, rate)
		need, ok := addAmounts(want, fee)
		if !ok {
			break
		}
		if total < need {
			continue
		}

		change := total - want - fee
		if opts.DustThreshold > 0 && change > 0 && change < opts.DustThreshold {
			fee += change
			change = 0
		}
		return &Selection{Inputs: selected, Fee: fee, Change: change}, nil
	}

	return nil, fmt.Errorf("%w: have %d, need %d plus fee %d",
		ErrInsufficientBalance, total, want, EstimateFee(selected, memo, rate))
}

// eligible returns the spendable candidates as a fresh slice.
func eligible(available []*UTXO, confirmedOnly bool) []*UTXO {
	out := make([]*UTXO, 0, len(available))
	for _, u := range available {
		if u == nil || u.Amount == 0 {
			continue
		}
		if confirmedOnly && !u.Confirmed {
			continue
		}
		out = append(out, u)
	}
	return out
}

func sortCandidates(c []*UTXO, order Ordering) error {
	byOutpoint := func(i, j int) bool {
		if c[i].TxID != c[j].TxID {
			return c[i].TxID < c[j].TxID
		}
		return c[i].Vout < c[j].Vout
	}
	switch order {
	case OrderLargestFirst:
		sort.SliceStable(c, func(i, j int) bool {
			if c[i].Amount != c[j].Amount {
				return c[i].Amount > c[j].Amount
			}
			return byOutpoint(i, j)
		})
	case OrderSmallestFirst:
		sort.SliceStable(c, func(i, j int) bool {
			if c[i].Amount != c[j].Amount {
				return c[i].Amount < c[j].Amount
			}
			return byOutpoint(i, j)
		})
	case OrderAsGiven:
	default:
		return fmt.Errorf("%w: unknown ordering %d", ErrInvalidParams, int(order))
	}
	return nil
}

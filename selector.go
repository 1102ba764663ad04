package cardano

import (
	"sort"
)

// MaxTxInputs is the default ceiling on inputs per transaction. Selection
// gives up rather than build an oversize transaction.
const MaxTxInputs = 20

// Selection is the outcome of coin selection: the chosen inputs, their summed
// lovelace, and the surplus over the requested target.
type Selection struct {
	Selected []UTXO
	Total    uint64
	Change   uint64
}

// Select picks inputs covering target using largest-first accumulation with
// the default input ceiling. Given the same available slice it always returns
// the same selection: the sort is stable, ties keep their original order.
func Select(available []UTXO, target uint64) (Selection, error) {
	return SelectWithLimit(available, target, MaxTxInputs)
}

func SelectWithLimit(available []UTXO, target uint64, limit int) (selection Selection, err error) {
	var availableTotal uint64
	for _, utxo := range available {
		availableTotal += utxo.Amount
	}

	if availableTotal < target {
		err = InsufficientFundsError{Required: target, Available: availableTotal}
		return
	}

	sorted := sortedByAmountDesc(available)

	for _, utxo := range sorted {
		if selection.Total >= target {
			break
		}
		if len(selection.Selected) == limit {
			err = SelectionLimitError{
				Limit:    limit,
				Required: target,
				Selected: selection.Total,
			}
			return
		}
		selection.Selected = append(selection.Selected, utxo)
		selection.Total += utxo.Amount
	}

	selection.Change = selection.Total - target
	return
}

// SelectWithAssets first covers every required asset quantity greedily, then
// tops the lovelace up through the plain selector.
func SelectWithAssets(available []UTXO, target uint64, required MultiAsset) (selection Selection, err error) {
	if required.Empty() {
		return Select(available, target)
	}

	sorted := sortedByAmountDesc(available)

	gathered := MultiAsset{}
	remaining := make([]UTXO, 0, len(sorted))

	for _, utxo := range sorted {
		if gathered.Covers(required) || !carriesAnyOf(utxo, required, gathered) {
			remaining = append(remaining, utxo)
			continue
		}

		if len(selection.Selected) == MaxTxInputs {
			err = SelectionLimitError{
				Limit:    MaxTxInputs,
				Required: target,
				Selected: selection.Total,
			}
			return
		}

		selection.Selected = append(selection.Selected, utxo)
		selection.Total += utxo.Amount
		for policy, assets := range utxo.Assets {
			for name, quantity := range assets {
				gathered = gathered.Add(policy, name, quantity)
			}
		}
	}

	if missing := gathered.Missing(required); len(missing) > 0 {
		err = MissingAssetsError{Missing: missing}
		return
	}

	if selection.Total < target {
		topUp, selectErr := SelectWithLimit(
			remaining, target-selection.Total, MaxTxInputs-len(selection.Selected))
		if selectErr != nil {
			// Report the shortfall against the full target, not the top-up.
			if shortfall, ok := selectErr.(InsufficientFundsError); ok {
				selectErr = InsufficientFundsError{
					Required:  target,
					Available: selection.Total + shortfall.Available,
				}
			}
			err = selectErr
			return
		}
		selection.Selected = append(selection.Selected, topUp.Selected...)
		selection.Total += topUp.Total
	}

	selection.Change = selection.Total - target
	return
}

// carriesAnyOf reports whether the UTXO holds any required asset that is not
// yet fully gathered.
func carriesAnyOf(utxo UTXO, required, gathered MultiAsset) bool {
	for policy, assets := range utxo.Assets {
		for name, quantity := range assets {
			if quantity == 0 {
				continue
			}
			if required.Quantity(policy, name) > gathered.Quantity(policy, name) {
				return true
			}
		}
	}
	return false
}

func sortedByAmountDesc(utxos []UTXO) []UTXO {
	sorted := append([]UTXO{}, utxos...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Amount > sorted[j].Amount
	})
	return sorted
}

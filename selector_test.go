package cardano

import (
	"errors"
	"reflect"
	"testing"
)

func testUtxo(fill byte, index uint32, amount uint64) UTXO {
	hash := make(HexBytes, TxHashLength)
	for i := range hash {
		hash[i] = fill
	}
	return UTXO{TxHash: hash, Index: index, Amount: amount}
}

func TestSelect_LargestFirst(t *testing.T) {
	available := []UTXO{
		testUtxo(0x01, 0, 2_000_000),
		testUtxo(0x02, 1, 10_000_000),
		testUtxo(0x03, 2, 5_000_000),
	}

	selection, err := Select(available, 12_000_000)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	if len(selection.Selected) != 2 {
		t.Fatalf("expected 2 inputs, got %d", len(selection.Selected))
	}
	if selection.Selected[0].Amount != 10_000_000 || selection.Selected[1].Amount != 5_000_000 {
		t.Fatal("expected largest-first ordering")
	}
	if selection.Total != 15_000_000 {
		t.Fatalf("expected total 15000000, got %d", selection.Total)
	}
	if selection.Change != 3_000_000 {
		t.Fatalf("expected change 3000000, got %d", selection.Change)
	}
}

func TestSelect_ExactAmount(t *testing.T) {
	available := []UTXO{
		testUtxo(0x01, 0, 7_000_000),
		testUtxo(0x02, 1, 1_000_000),
	}

	selection, err := Select(available, 7_000_000)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	if len(selection.Selected) != 1 {
		t.Fatalf("expected a single input, got %d", len(selection.Selected))
	}
	if selection.Change != 0 {
		t.Fatalf("expected zero change, got %d", selection.Change)
	}
}

func TestSelect_InsufficientFunds(t *testing.T) {
	available := []UTXO{
		testUtxo(0x01, 0, 1_000_000),
		testUtxo(0x02, 1, 2_000_000),
	}

	_, err := Select(available, 5_000_000)
	if err == nil {
		t.Fatal("expected insufficient funds error")
	}
	if !errors.Is(err, ErrNotEnoughFunds) {
		t.Fatalf("expected ErrNotEnoughFunds, got %+v", err)
	}

	var shortfall InsufficientFundsError
	if !errors.As(err, &shortfall) {
		t.Fatalf("expected InsufficientFundsError, got %T", err)
	}
	if shortfall.Required != 5_000_000 || shortfall.Available != 3_000_000 {
		t.Fatalf("unexpected shortfall detail: %+v", shortfall)
	}
	if shortfall.Shortfall() != 2_000_000 {
		t.Fatalf("expected shortfall 2000000, got %d", shortfall.Shortfall())
	}
}

func TestSelect_EmptySet(t *testing.T) {
	_, err := Select(nil, 1)
	if !errors.Is(err, ErrNotEnoughFunds) {
		t.Fatalf("expected ErrNotEnoughFunds, got %+v", err)
	}

	selection, err := Select(nil, 0)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if len(selection.Selected) != 0 || selection.Change != 0 {
		t.Fatal("zero target over an empty set must select nothing")
	}
}

func TestSelectWithLimit_Ceiling(t *testing.T) {
	var available []UTXO
	for i := uint32(0); i < 30; i++ {
		available = append(available, testUtxo(byte(i), i, 1_000_000))
	}

	_, err := Select(available, 25_000_000)
	if err == nil {
		t.Fatal("expected selection limit error")
	}
	if !errors.Is(err, ErrSelectionLimit) {
		t.Fatalf("expected ErrSelectionLimit, got %+v", err)
	}

	var limit SelectionLimitError
	if !errors.As(err, &limit) {
		t.Fatalf("expected SelectionLimitError, got %T", err)
	}
	if limit.Limit != MaxTxInputs || limit.Selected != 20_000_000 {
		t.Fatalf("unexpected limit detail: %+v", limit)
	}

	// Raising the ceiling makes the same request feasible.
	selection, err := SelectWithLimit(available, 25_000_000, 30)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if len(selection.Selected) != 25 {
		t.Fatalf("expected 25 inputs, got %d", len(selection.Selected))
	}
}

func TestSelect_Deterministic(t *testing.T) {
	available := []UTXO{
		testUtxo(0x01, 0, 4_000_000),
		testUtxo(0x02, 1, 4_000_000),
		testUtxo(0x03, 2, 4_000_000),
	}

	first, err := Select(available, 6_000_000)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	for i := 0; i < 10; i++ {
		again, selectErr := Select(available, 6_000_000)
		if selectErr != nil {
			t.Fatalf("%+v", selectErr)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatal("selection must be deterministic for identical input")
		}
	}

	// Equal amounts keep their original order.
	if first.Selected[0].Index != 0 || first.Selected[1].Index != 1 {
		t.Fatal("expected stable ordering for equal amounts")
	}
}

func TestSelectWithAssets(t *testing.T) {
	policy := "b0d07d45fe9514f80213f4020e5a61241458be626841cde717cb38a7"
	name := "6d7951756d6d79546f6b656e"

	assetUtxo := testUtxo(0x01, 0, 1_500_000)
	assetUtxo.Assets = MultiAsset{}.Add(policy, name, 40)

	available := []UTXO{
		testUtxo(0x02, 1, 9_000_000),
		assetUtxo,
		testUtxo(0x03, 2, 3_000_000),
	}

	required := MultiAsset{}.Add(policy, name, 25)

	selection, err := SelectWithAssets(available, 5_000_000, required)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	if len(selection.Selected) != 2 {
		t.Fatalf("expected 2 inputs, got %d", len(selection.Selected))
	}
	if selection.Selected[0].Assets.Quantity(policy, name) != 40 {
		t.Fatal("expected the asset-bearing input to be chosen first")
	}
	if selection.Total != 10_500_000 || selection.Change != 5_500_000 {
		t.Fatalf("unexpected totals: %+v", selection)
	}
}

func TestSelectWithAssets_Missing(t *testing.T) {
	policy := "b0d07d45fe9514f80213f4020e5a61241458be626841cde717cb38a7"
	name := "6d7951756d6d79546f6b656e"

	assetUtxo := testUtxo(0x01, 0, 1_500_000)
	assetUtxo.Assets = MultiAsset{}.Add(policy, name, 10)

	available := []UTXO{assetUtxo, testUtxo(0x02, 1, 9_000_000)}

	_, err := SelectWithAssets(available, 1_000_000, MultiAsset{}.Add(policy, name, 25))
	if err == nil {
		t.Fatal("expected missing assets error")
	}
	if !errors.Is(err, ErrMissingAssets) {
		t.Fatalf("expected ErrMissingAssets, got %+v", err)
	}

	var missing MissingAssetsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingAssetsError, got %T", err)
	}
	if missing.Missing[AssetID(policy, name)] != 15 {
		t.Fatalf("expected 15 missing units, got %d", missing.Missing[AssetID(policy, name)])
	}
}

func TestSelectWithAssets_Ceiling(t *testing.T) {
	policy := "b0d07d45fe9514f80213f4020e5a61241458be626841cde717cb38a7"
	name := "6d7951756d6d79546f6b656e"

	// Covering the requirement needs 21 inputs of one unit each; the gather
	// pass must stop at the ceiling, not select past it.
	var available []UTXO
	for i := uint32(0); i < 21; i++ {
		utxo := testUtxo(byte(i), i, 1_000_000)
		utxo.Assets = MultiAsset{}.Add(policy, name, 1)
		available = append(available, utxo)
	}

	_, err := SelectWithAssets(available, 1_000_000, MultiAsset{}.Add(policy, name, 21))
	if !errors.Is(err, ErrSelectionLimit) {
		t.Fatalf("expected ErrSelectionLimit, got %+v", err)
	}

	var limit SelectionLimitError
	if !errors.As(err, &limit) {
		t.Fatalf("expected SelectionLimitError, got %T", err)
	}
	if limit.Limit != MaxTxInputs {
		t.Fatalf("expected limit %d, got %d", MaxTxInputs, limit.Limit)
	}
}

func TestSelectWithAssets_TopUpShortfall(t *testing.T) {
	policy := "b0d07d45fe9514f80213f4020e5a61241458be626841cde717cb38a7"
	name := "6d7951756d6d79546f6b656e"

	assetUtxo := testUtxo(0x01, 0, 1_000_000)
	assetUtxo.Assets = MultiAsset{}.Add(policy, name, 25)

	available := []UTXO{assetUtxo, testUtxo(0x02, 1, 2_000_000)}

	_, err := SelectWithAssets(available, 10_000_000, MultiAsset{}.Add(policy, name, 25))
	if err == nil {
		t.Fatal("expected insufficient funds error")
	}

	var shortfall InsufficientFundsError
	if !errors.As(err, &shortfall) {
		t.Fatalf("expected InsufficientFundsError, got %+v", err)
	}

	// The error must describe the full request, not the internal top-up.
	if shortfall.Required != 10_000_000 || shortfall.Available != 3_000_000 {
		t.Fatalf("unexpected shortfall detail: %+v", shortfall)
	}
}

func TestSelect_DoesNotMutateInput(t *testing.T) {
	available := []UTXO{
		testUtxo(0x01, 0, 1_000_000),
		testUtxo(0x02, 1, 9_000_000),
		testUtxo(0x03, 2, 5_000_000),
	}
	snapshot := append([]UTXO{}, available...)

	if _, err := Select(available, 6_000_000); err != nil {
		t.Fatalf("%+v", err)
	}

	if !reflect.DeepEqual(available, snapshot) {
		t.Fatal("selection must not reorder the caller's slice")
	}
}

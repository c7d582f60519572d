package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/taxledger/src/models"
)

func action(kind models.ActionKind, isin, date, ratio, target string) models.Event {
	ev := models.Event{
		Type:       models.EventCorporateAction,
		ISIN:       isin,
		Date:       day(date),
		ActionKind: kind,
		TargetISIN: target,
	}
	if ratio != "" {
		ev.Ratio = dec(ratio)
	}
	return ev
}

func TestSplitPreservesCostBasis(t *testing.T) {
	m := NewLotMatcher()
	m.AddPurchase(buy("US0001", "2023-01-05", "100", "10", "0"))

	p := NewCorporateActionProcessor(PolicyWarn, nil)
	warning, err := p.Apply(action(models.ActionSplit, "US0001", "2023-03-01", "2", ""), m)
	require.NoError(t, err)
	require.Nil(t, warning)

	holdings := m.OpenLots()
	require.Len(t, holdings, 1)
	assert.True(t, holdings[0].Quantity.Equal(dec("200")))
	assert.True(t, holdings[0].UnitCost.Equal(dec("5")))
	assert.True(t, holdings[0].CostBasis.Equal(dec("1000")))
}

// A 2:1 split followed by selling half the post-split quantity must realize
// the same gain as selling the pre-split quantity at twice the price.
func TestSplitEconomicEquivalence(t *testing.T) {
	split := NewLotMatcher()
	split.AddPurchase(buy("US0001", "2023-01-05", "100", "10", "0"))
	p := NewCorporateActionProcessor(PolicyWarn, nil)
	_, err := p.Apply(action(models.ActionSplit, "US0001", "2023-03-01", "2", ""), split)
	require.NoError(t, err)
	postSplit, err := split.MatchSale(sell("US0001", "2023-06-01", "100", "8", "0"))
	require.NoError(t, err)

	plain := NewLotMatcher()
	plain.AddPurchase(buy("US0001", "2023-01-05", "100", "10", "0"))
	preSplit, err := plain.MatchSale(sell("US0001", "2023-06-01", "50", "16", "0"))
	require.NoError(t, err)

	require.Len(t, postSplit, 1)
	require.Len(t, preSplit, 1)
	assert.True(t, postSplit[0].Gain.Equal(preSplit[0].Gain),
		"split %s vs plain %s", postSplit[0].Gain, preSplit[0].Gain)
}

func TestReverseSplit(t *testing.T) {
	m := NewLotMatcher()
	m.AddPurchase(buy("US0001", "2023-01-05", "100", "10", "0"))

	p := NewCorporateActionProcessor(PolicyWarn, nil)
	_, err := p.Apply(action(models.ActionReverseSplit, "US0001", "2023-03-01", "4", ""), m)
	require.NoError(t, err)

	holdings := m.OpenLots()
	require.Len(t, holdings, 1)
	assert.True(t, holdings[0].Quantity.Equal(dec("25")))
	assert.True(t, holdings[0].CostBasis.Equal(dec("1000")))
}

func TestMergerReassignsLots(t *testing.T) {
	m := NewLotMatcher()
	m.AddPurchase(buy("US0001", "2023-01-05", "100", "10", "0"))

	p := NewCorporateActionProcessor(PolicyWarn, nil)
	warning, err := p.Apply(action(models.ActionMerger, "US0001", "2023-03-01", "0.5", "US0002"), m)
	require.NoError(t, err)
	require.Nil(t, warning)

	assert.Nil(t, m.Queue("US0001"))
	lots := m.Queue("US0002")
	require.Len(t, lots, 1)
	assert.True(t, lots[0].Quantity.Equal(dec("50")))
	assert.True(t, lots[0].CostBasis().Equal(dec("1000")), "basis carries over, got %s", lots[0].CostBasis())
	assert.Equal(t, day("2023-01-05"), lots[0].AcquisitionDate, "holding period preserved")
}

func TestMergerRatioFromAllocationTable(t *testing.T) {
	m := NewLotMatcher()
	m.AddPurchase(buy("US0001", "2023-01-05", "100", "10", "0"))

	table := AllocationTable{"US0001/US0002": {ShareRatio: dec("2")}}
	p := NewCorporateActionProcessor(PolicyWarn, table)
	warning, err := p.Apply(action(models.ActionMerger, "US0001", "2023-03-01", "", "US0002"), m)
	require.NoError(t, err)
	require.Nil(t, warning)

	lots := m.Queue("US0002")
	require.Len(t, lots, 1)
	assert.True(t, lots[0].Quantity.Equal(dec("200")))
}

func TestSpinOffAllocatesBasis(t *testing.T) {
	m := NewLotMatcher()
	m.AddPurchase(buy("US0001", "2023-01-05", "100", "10", "0"))

	table := AllocationTable{"US0001/US0002": {ShareRatio: dec("1"), BasisFraction: dec("0.2")}}
	p := NewCorporateActionProcessor(PolicyWarn, table)
	warning, err := p.Apply(action(models.ActionSpinOff, "US0001", "2023-03-01", "", "US0002"), m)
	require.NoError(t, err)
	require.Nil(t, warning)

	source := m.Queue("US0001")
	spun := m.Queue("US0002")
	require.Len(t, source, 1)
	require.Len(t, spun, 1)

	assert.True(t, source[0].CostBasis().Equal(dec("800")), "got %s", source[0].CostBasis())
	assert.True(t, spun[0].CostBasis().Equal(dec("200")), "got %s", spun[0].CostBasis())
	assert.Equal(t, day("2023-01-05"), spun[0].AcquisitionDate)

	total := source[0].CostBasis().Add(spun[0].CostBasis())
	assert.True(t, total.Equal(dec("1000")), "allocation must conserve basis, got %s", total)
}

func TestUnresolvedActionWarnPolicy(t *testing.T) {
	m := NewLotMatcher()
	m.AddPurchase(buy("US0001", "2023-01-05", "100", "10", "0"))

	p := NewCorporateActionProcessor(PolicyWarn, nil)
	warning, err := p.Apply(action(models.ActionMerger, "US0001", "2023-03-01", "", ""), m)
	require.NoError(t, err)
	require.NotNil(t, warning)
	assert.Equal(t, models.WarnUnresolvedCorpAct, warning.Kind)

	// Lots stay as they were; the action is audit-only.
	holdings := m.OpenLots()
	require.Len(t, holdings, 1)
	assert.True(t, holdings[0].Quantity.Equal(dec("100")))
}

func TestUnresolvedActionFailPolicy(t *testing.T) {
	m := NewLotMatcher()
	p := NewCorporateActionProcessor(PolicyFail, nil)

	_, err := p.Apply(action(models.ActionSpinOff, "US0001", "2023-03-01", "", "US0002"), m)
	var unresolved *UnresolvedActionError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "US0001", unresolved.ISIN)
}

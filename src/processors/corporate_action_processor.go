package processors

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/username/taxledger/src/logger"
	"github.com/username/taxledger/src/models"
)

// ActionPolicy decides what happens to a merger or spin-off that has no
// usable allocation ratio.
type ActionPolicy string

const (
	PolicyWarn ActionPolicy = "warn" // record for audit, skip the adjustment
	PolicyFail ActionPolicy = "fail" // abort the run
)

// AllocationRatio configures how a merger or spin-off reshapes cost basis.
// ShareRatio is new shares per old share. BasisFraction is the fraction of
// the source lot's cost basis allocated to the target instrument (spin-offs
// only; a merger moves the full basis).
type AllocationRatio struct {
	ShareRatio    decimal.Decimal `json:"share_ratio"`
	BasisFraction decimal.Decimal `json:"basis_fraction"`
}

// AllocationTable maps "SOURCEISIN/TARGETISIN" to its configured ratio.
type AllocationTable map[string]AllocationRatio

// LoadAllocationTable reads the allocation ratio configuration. An empty path
// yields an empty table; every merger/spin-off then depends on the ratio
// carried by the event itself.
func LoadAllocationTable(filePath string) (AllocationTable, error) {
	if filePath == "" {
		return AllocationTable{}, nil
	}
	file, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading allocation ratio file '%s': %w", filePath, err)
	}
	var table AllocationTable
	if err := json.Unmarshal(file, &table); err != nil {
		return nil, fmt.Errorf("error unmarshalling allocation ratios from '%s': %w", filePath, err)
	}
	logger.L.Info("Allocation ratios loaded", "path", filePath, "entries", len(table))
	return table, nil
}

// CorporateActionProcessor rewrites open lots in response to corporate
// actions. It only ever touches lot state through the matcher's queue
// accessors, and it must see every action before any sell dated on or after
// the action's effective date; the orchestrator's chronological ordering
// guarantees that.
type CorporateActionProcessor struct {
	policy ActionPolicy
	table  AllocationTable
}

func NewCorporateActionProcessor(policy ActionPolicy, table AllocationTable) *CorporateActionProcessor {
	if table == nil {
		table = AllocationTable{}
	}
	return &CorporateActionProcessor{policy: policy, table: table}
}

// Apply executes one corporate action against the open lots. A non-nil
// warning means the action could not be resolved and was recorded for audit
// only; an error aborts the run.
func (p *CorporateActionProcessor) Apply(ev models.Event, matcher *LotMatcher) (*models.Warning, error) {
	switch ev.ActionKind {
	case models.ActionSplit:
		p.applySplit(matcher, ev.ISIN, ev.Ratio)
		return nil, nil
	case models.ActionReverseSplit:
		one := decimal.NewFromInt(1)
		p.applySplit(matcher, ev.ISIN, one.Div(ev.Ratio))
		return nil, nil
	case models.ActionMerger:
		return p.applyMerger(ev, matcher)
	case models.ActionSpinOff:
		return p.applySpinOff(ev, matcher)
	default:
		return nil, fmt.Errorf("unknown corporate action kind %q", ev.ActionKind)
	}
}

// applySplit multiplies quantities and divides unit cost by the ratio. Cost
// basis per lot is preserved exactly.
func (p *CorporateActionProcessor) applySplit(matcher *LotMatcher, isin string, ratio decimal.Decimal) {
	for _, lot := range matcher.Queue(isin) {
		lot.Quantity = lot.Quantity.Mul(ratio)
		lot.UnitCost = lot.UnitCost.Div(ratio)
	}
}

func (p *CorporateActionProcessor) applyMerger(ev models.Event, matcher *LotMatcher) (*models.Warning, error) {
	ratio := ev.Ratio
	if !ratio.IsPositive() {
		if cfg, ok := p.table[ev.ISIN+"/"+ev.TargetISIN]; ok {
			ratio = cfg.ShareRatio
		}
	}
	if ev.TargetISIN == "" || !ratio.IsPositive() {
		return p.unresolved(ev, "no target instrument or share ratio configured")
	}

	lots := matcher.Queue(ev.ISIN)
	if len(lots) == 0 {
		return nil, nil
	}
	// Holding period and total basis carry over; only the share count and
	// the instrument identity change.
	for _, lot := range lots {
		lot.ISIN = ev.TargetISIN
		if ev.ProductName != "" {
			lot.ProductName = ev.ProductName
		}
		lot.Quantity = lot.Quantity.Mul(ratio)
		lot.UnitCost = lot.UnitCost.Div(ratio)
	}
	matcher.ReplaceQueue(ev.ISIN, nil)
	matcher.AppendLots(ev.TargetISIN, lots)
	return nil, nil
}

func (p *CorporateActionProcessor) applySpinOff(ev models.Event, matcher *LotMatcher) (*models.Warning, error) {
	cfg, hasCfg := p.table[ev.ISIN+"/"+ev.TargetISIN]

	basisFraction := ev.Ratio
	shareRatio := decimal.NewFromInt(1)
	if hasCfg {
		if cfg.BasisFraction.IsPositive() {
			basisFraction = cfg.BasisFraction
		}
		if cfg.ShareRatio.IsPositive() {
			shareRatio = cfg.ShareRatio
		}
	}
	one := decimal.NewFromInt(1)
	if ev.TargetISIN == "" || !basisFraction.IsPositive() || basisFraction.GreaterThanOrEqual(one) {
		return p.unresolved(ev, "no target instrument or basis allocation configured")
	}

	source := matcher.Queue(ev.ISIN)
	if len(source) == 0 {
		return nil, nil
	}
	var spun []*models.Lot
	for _, lot := range source {
		movedBasis := lot.CostBasis().Mul(basisFraction)
		newQuantity := lot.Quantity.Mul(shareRatio)
		spun = append(spun, &models.Lot{
			ISIN:            ev.TargetISIN,
			ProductName:     ev.ProductName,
			Quantity:        newQuantity,
			UnitCost:        movedBasis.Div(newQuantity),
			Currency:        lot.Currency,
			AcquisitionDate: lot.AcquisitionDate,
		})
		lot.UnitCost = lot.UnitCost.Mul(one.Sub(basisFraction))
	}
	matcher.AppendLots(ev.TargetISIN, spun)
	return nil, nil
}

func (p *CorporateActionProcessor) unresolved(ev models.Event, reason string) (*models.Warning, error) {
	if p.policy == PolicyFail {
		return nil, &UnresolvedActionError{
			ISIN:   ev.ISIN,
			Kind:   string(ev.ActionKind),
			Date:   ev.Date,
			Reason: reason,
		}
	}
	logger.L.Warn("Unresolved corporate action", "isin", ev.ISIN, "kind", ev.ActionKind, "reason", reason)
	return &models.Warning{
		Kind:    models.WarnUnresolvedCorpAct,
		ISIN:    ev.ISIN,
		Date:    ev.Date,
		Message: fmt.Sprintf("%s not applied: %s", ev.ActionKind, reason),
	}, nil
}

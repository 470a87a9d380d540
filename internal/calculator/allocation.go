package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/colivsplit/internal/models"
)

// centPlaces is the number of decimal places money is presented with.
const centPlaces = 2

// OccupantShare is one occupant's part of the property's costs for a period.
type OccupantShare struct {
	UnitID        string          `json:"unitId"`
	RentShare     decimal.Decimal `json:"rentShare"`
	FixedShare    decimal.Decimal `json:"fixedShare"`
	VariableShare decimal.Decimal `json:"variableShare"`
	Total         decimal.Decimal `json:"total"`
}

// AllocationResult is the per-occupant breakdown of a property's costs.
// Every field is always populated; OwnerAbsorbedAmount is zero unless the
// vacancy policy makes the owner pay for vacant units.
type AllocationResult struct {
	PropertyID    string                   `json:"propertyId"`
	Period        string                   `json:"period"`
	Mode          models.AllocationMode    `json:"mode"`
	VacancyPolicy models.VacancyPolicy     `json:"vacancyPolicy"`
	PerOccupant   map[string]OccupantShare `json:"perOccupant"`
	OccupiedCount int                      `json:"occupiedCount"`
	TotalCapacity int                      `json:"totalCapacity"`
	TotalVariable decimal.Decimal          `json:"totalVariable"`
	TotalFixed    decimal.Decimal          `json:"totalFixed"`

	// GrandTotalUnrounded is what occupants owe in full precision, before presentation rounding.
	GrandTotalUnrounded decimal.Decimal `json:"grandTotalUnrounded"`

	OwnerAbsorbedAmount decimal.Decimal `json:"ownerAbsorbedAmount"`

	// RoundingResidual is round(GrandTotalUnrounded) minus the sum of rounded occupant totals:
	// the cents left for the caller to reconcile.
	RoundingResidual decimal.Decimal `json:"roundingResidual"`
}

// Occupants returns the occupant IDs in sorted order.
func (r *AllocationResult) Occupants() []string {
	ids := make([]string, 0, len(r.PerOccupant))
	for id := range r.PerOccupant {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SumTotals adds up the rounded per-occupant totals.
func (r *AllocationResult) SumTotals() decimal.Decimal {
	sum := decimal.Zero
	for _, share := range r.PerOccupant {
		sum = sum.Add(share.Total)
	}
	return sum
}

// Allocate distributes a property's rent and charges among its occupants.
//
// EQUAL pools the rent of every unit, occupied or vacant, with all charges and divides
// the sum evenly among the occupants present. PER_UNIT charges each occupant their own
// unit's price; fixed fees are always divided among the occupants present and variable
// costs follow the vacancy policy.
//
// Arithmetic is carried out in full precision; shares are rounded to cents at the end.
func Allocate(property models.Property, occ *Occupancy, expenses *ExpenseTotals) (*AllocationResult, error) {
	if occ == nil || occ.TotalCapacity == 0 {
		return nil, &EmptyPropertyError{PropertyID: property.ID}
	}
	if err := property.Validate(); err != nil {
		return nil, err
	}
	if occ.OccupiedCount == 0 {
		return nil, &NoOccupantsError{PropertyID: property.ID, TotalCapacity: occ.TotalCapacity}
	}

	result := &AllocationResult{
		PropertyID:          property.ID,
		Period:              occ.Period.String(),
		Mode:                property.AllocationMode,
		VacancyPolicy:       property.VacancyPolicy,
		PerOccupant:         make(map[string]OccupantShare, occ.OccupiedCount),
		OccupiedCount:       occ.OccupiedCount,
		TotalCapacity:       occ.TotalCapacity,
		TotalVariable:       expenses.TotalVariable.Round(centPlaces),
		TotalFixed:          expenses.TotalFixed.Round(centPlaces),
		OwnerAbsorbedAmount: decimal.Zero,
	}

	switch property.AllocationMode {
	case models.AllocationEqual:
		allocateEqual(result, occ, expenses)
	case models.AllocationPerUnit:
		if err := allocatePerUnit(result, property.VacancyPolicy, occ, expenses); err != nil {
			return nil, err
		}
	default:
		return nil, configError("allocation_mode", string(property.AllocationMode))
	}

	result.RoundingResidual = result.GrandTotalUnrounded.Round(centPlaces).Sub(result.SumTotals())
	return result, nil
}

// allocateEqual treats the property as one joint obligation. The rent/fixed/variable
// fields are a proportional breakdown of the same total, rounded by largest remainder so
// each part is non-negative and the three add up to the rounded total.
func allocateEqual(result *AllocationResult, occ *Occupancy, expenses *ExpenseTotals) {
	n := decimal.NewFromInt(int64(occ.OccupiedCount))
	rentPotential := occ.RentPotential()

	grand := rentPotential.Add(expenses.TotalFixed).Add(expenses.TotalVariable)
	total := grand.Div(n).Round(centPlaces)
	parts := apportionCents(total, []decimal.Decimal{
		rentPotential.Div(n),
		expenses.TotalFixed.Div(n),
		expenses.TotalVariable.Div(n),
	})

	for _, ou := range occ.Occupied {
		result.PerOccupant[ou.OccupantID] = OccupantShare{
			UnitID:        ou.Unit.ID,
			RentShare:     parts[0],
			FixedShare:    parts[1],
			VariableShare: parts[2],
			Total:         total,
		}
	}
	result.GrandTotalUnrounded = grand
}

// apportionCents rounds non-negative exact parts down to cents and hands the cents still
// missing from total to the parts with the largest remainders, earlier parts first on ties.
func apportionCents(total decimal.Decimal, exact []decimal.Decimal) []decimal.Decimal {
	cent := decimal.New(1, -centPlaces)
	parts := make([]decimal.Decimal, len(exact))
	remainders := make([]decimal.Decimal, len(exact))
	sum := decimal.Zero
	for i, e := range exact {
		parts[i] = e.Truncate(centPlaces)
		remainders[i] = e.Sub(parts[i])
		sum = sum.Add(parts[i])
	}

	order := make([]int, len(exact))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]].GreaterThan(remainders[order[b]])
	})

	leftover := total.Sub(sum).Div(cent).IntPart()
	for k := int64(0); k < leftover; k++ {
		i := order[k%int64(len(order))]
		parts[i] = parts[i].Add(cent)
	}
	return parts
}

func allocatePerUnit(result *AllocationResult, policy models.VacancyPolicy, occ *Occupancy, expenses *ExpenseTotals) error {
	n := decimal.NewFromInt(int64(occ.OccupiedCount))

	// Management and shared-service fees are split among those present whatever the vacancy policy.
	fixedShare := expenses.TotalFixed.Div(n)
	presentedFixed := fixedShare.Round(centPlaces)

	var variableShare decimal.Decimal
	var presentedVariable []decimal.Decimal
	switch policy {
	case models.VacancyRedistribute:
		variableShare = expenses.TotalVariable.Div(n)
		presentedVariable = repeat(variableShare.Round(centPlaces), occ.OccupiedCount)
	case models.VacancyOwnerAbsorbs:
		capacity := decimal.NewFromInt(int64(occ.TotalCapacity))
		variableShare = expenses.TotalVariable.Div(capacity)
		// Occupants collectively pay their unit shares rounded once; the owner absorbs the rest.
		collected := variableShare.Mul(n).Round(centPlaces)
		presentedVariable = splitCents(collected, occ.OccupiedCount)
		result.OwnerAbsorbedAmount = result.TotalVariable.Sub(collected)
	default:
		return configError("vacancy_policy", string(policy))
	}

	grand := decimal.Zero
	for i, ou := range occ.Occupied {
		rent := ou.Unit.BasePrice
		grand = grand.Add(rent).Add(fixedShare).Add(variableShare)

		presentedRent := rent.Round(centPlaces)
		result.PerOccupant[ou.OccupantID] = OccupantShare{
			UnitID:        ou.Unit.ID,
			RentShare:     presentedRent,
			FixedShare:    presentedFixed,
			VariableShare: presentedVariable[i],
			Total:         presentedRent.Add(presentedFixed).Add(presentedVariable[i]),
		}
	}
	result.GrandTotalUnrounded = grand
	return nil
}

func repeat(d decimal.Decimal, n int) []decimal.Decimal {
	out := make([]decimal.Decimal, n)
	for i := range out {
		out[i] = d
	}
	return out
}

// splitCents divides a cent amount into n parts that differ by at most one cent and sum
// exactly to total. The leftover cents go to the first parts.
func splitCents(total decimal.Decimal, n int) []decimal.Decimal {
	cent := decimal.New(1, -centPlaces)
	count := decimal.NewFromInt(int64(n))
	base := total.Div(count).Truncate(centPlaces)
	leftover := total.Sub(base.Mul(count)).Div(cent).IntPart()

	parts := repeat(base, n)
	for i := int64(0); i < leftover && i < int64(n); i++ {
		parts[i] = parts[i].Add(cent)
	}
	return parts
}

// Snapshot is every input needed to allocate one property's costs for one period.
type Snapshot struct {
	Property        models.Property
	Period          models.Period
	Units           []models.Unit
	Leases          []models.OccupancyPeriod
	Expenses        []models.ExpenseRecord
	SubscriptionFee decimal.NullDecimal
}

// AllocateSnapshot runs occupancy aggregation, expense aggregation and allocation in order.
func AllocateSnapshot(s Snapshot) (*AllocationResult, error) {
	occ, err := AggregateOccupancy(s.Property.ID, s.Units, s.Leases, s.Period)
	if err != nil {
		return nil, err
	}
	expenses, err := AggregateExpenses(s.Property, s.Period, s.Expenses, s.SubscriptionFee)
	if err != nil {
		return nil, err
	}
	return Allocate(s.Property, occ, expenses)
}

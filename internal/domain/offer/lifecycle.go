package offer

import "github.com/Ananthadeb1/uiu-lending-backend/internal/domain/loan"

// The lock rules below are pure functions of an offer snapshot. Every view
// (comparison, status, bidding) derives selectability from these instead of
// keeping its own copy of the rule.

// IsLoanLocked reports whether any offer in the snapshot for the given loan
// has already been accepted. A locked loan never accepts another offer, no
// matter what the sibling offers' own stored statuses say.
func IsLoanLocked(loanID string, offers []Entity) bool {
	for _, o := range offers {
		if o.LoanID == loanID && o.Status == StatusAccepted {
			return true
		}
	}
	return false
}

// CanSelect reports whether an offer is still selectable given the snapshot:
// the offer itself must be pending and its loan must not be locked.
func CanSelect(o Entity, offers []Entity) bool {
	return o.Status == StatusPending && !IsLoanLocked(o.LoanID, offers)
}

// CanSelectForLoan additionally gates on the parent loan's own status: a loan
// that left pending (cancelled, rejected, or already approved) blocks
// selection even when no sibling was accepted.
func CanSelectForLoan(o Entity, loanStatus loan.Status, offers []Entity) bool {
	return loanStatus == loan.StatusPending && CanSelect(o, offers)
}

type LoanGroup struct {
	LoanID      string   `json:"loanId"`
	Offers      []Entity `json:"offers"`
	HasAccepted bool     `json:"hasAccepted"`
}

// GroupByLoan partitions a snapshot by loan id, preserving the input order of
// both groups and members. A group with HasAccepted renders every member as
// locked regardless of individual status.
func GroupByLoan(offers []Entity) []LoanGroup {
	index := map[string]int{}
	groups := []LoanGroup{}
	for _, o := range offers {
		i, ok := index[o.LoanID]
		if !ok {
			i = len(groups)
			index[o.LoanID] = i
			groups = append(groups, LoanGroup{LoanID: o.LoanID})
		}
		groups[i].Offers = append(groups[i].Offers, o)
		if o.Status == StatusAccepted {
			groups[i].HasAccepted = true
		}
	}
	return groups
}

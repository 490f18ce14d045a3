package debt

// SplitGarnished splits an incoming credit into the share that paid down
// existing debt and the share the player actually pockets. The full amount
// is always added to the balance either way; this split exists only for
// user-facing reports.
func SplitGarnished(balanceBefore, credit int) (garnished, net int) {
	if balanceBefore >= 0 || credit <= 0 {
		return 0, credit
	}
	debt := -balanceBefore
	if credit <= debt {
		return credit, 0
	}
	return debt, credit - debt
}

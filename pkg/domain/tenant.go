package domain

// HiddenFrom reports whether a row owned by owner must be hidden from the
// studio caller. Legacy rows without an owner and unscoped callers see
// everything.
func HiddenFrom(owner, caller string) bool {
	return owner != "" && caller != "" && owner != caller
}

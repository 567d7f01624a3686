package pollard

import "fmt"

// Error represents a failure of an operation on trees that carries no
// further data.
type Error string

// ErrEmptyTable is returned when selecting a row from a complexity table
// without rows.
const ErrEmptyTable = Error("complexity table has no rows")

func (e Error) Error() string {
	return string(e)
}

/*
InsufficientDataError is returned when there are too few records to grow a
tree or, during cross-validation, when a fold holds fewer records than the
minimum leaf size.
*/
type InsufficientDataError struct {
	// Fold is the 1-based number of the offending fold, 0 when the
	// records are the training data of a tree.
	Fold     int
	Size     int
	Required int
}

func (ide *InsufficientDataError) Error() string {
	if ide.Fold == 0 {
		return fmt.Sprintf("training data has %d records, at least %d are required", ide.Size, ide.Required)
	}
	return fmt.Sprintf("cross-validation fold %d has %d records, fewer than the minimum leaf size %d", ide.Fold, ide.Size, ide.Required)
}

// DegenerateTreeError is returned when cross-validating a tree that has
// no splits.
type DegenerateTreeError struct {
	N        int
	Deviance float64
}

func (dte *DegenerateTreeError) Error() string {
	return fmt.Sprintf("tree has no splits to prune (n=%d deviance=%g)", dte.N, dte.Deviance)
}

// InvalidConfigError is returned when a growth parameter is out of range.
type InvalidConfigError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (ice *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", ice.Field, ice.Value, ice.Reason)
}

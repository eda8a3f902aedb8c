package engine

import "strings"

// BulkResult is the parsed response of a bulk mutation. Partial failure is a
// value, not an error: every submitted document gets exactly one correlated
// item, in submission order, and callers inspect the items explicitly.
type BulkResult struct {
	Took   int
	Errors bool
	Items  []BulkItem
}

// BulkItem is the outcome of one document in a bulk request.
type BulkItem struct {
	Action string
	ID     string
	Status int
	Error  *BulkError
}

// BulkError describes why a single bulk item failed.
type BulkError struct {
	Type   string
	Reason string
}

// HasErrors reports whether any item in the result failed.
func (r *BulkResult) HasErrors() bool { return r.Errors }

// HasError reports whether this item failed.
func (it BulkItem) HasError() bool { return it.Error != nil }

// ErrorLine formats this item's failure as a single diagnostic line.
// Returns "" for a successful item.
func (it BulkItem) ErrorLine() string {
	if !it.HasError() {
		return ""
	}
	return "[id: [" + it.ID + "], type: [" + it.Error.Type + "], reason: [" + it.Error.Reason + "]]"
}

// ErrorMessage builds a diagnostic message covering every failed item, one
// line per item in submission order. Successful items are omitted. Returns
// "" when the result has no errors. The stable ordering and omission rule
// matter: operational logging keys off this output.
func (r *BulkResult) ErrorMessage() string {
	if !r.HasErrors() {
		return ""
	}
	var b strings.Builder
	b.WriteString("errors in bulk operation:")
	for _, it := range r.Items {
		if line := it.ErrorLine(); line != "" {
			b.WriteString("\n")
			b.WriteString(line)
		}
	}
	return b.String()
}

// FailedIDs returns the identifiers of all failed items in submission order.
func (r *BulkResult) FailedIDs() []string {
	if !r.HasErrors() {
		return nil
	}
	var ids []string
	for _, it := range r.Items {
		if it.HasError() {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

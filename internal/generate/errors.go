package generate

import "fmt"

// UnknownToolError is returned when the requested tool id is not registered.
type UnknownToolError struct {
	ToolID string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.ToolID)
}

// InsufficientBudgetError rejects a generation whose cost would push the
// user's spend past their budget. It carries the figures for client display.
type InsufficientBudgetError struct {
	Cost   float64
	Spend  float64
	Budget float64
}

func (e *InsufficientBudgetError) Error() string {
	return fmt.Sprintf("insufficient budget: spend %.6f + cost %.6f exceeds budget %.6f", e.Spend, e.Cost, e.Budget)
}

// MaterializationError aborts a request whose media inputs could not be
// turned into a wire value. Nothing has been sent upstream at that point.
type MaterializationError struct {
	Err error
}

func (e *MaterializationError) Error() string {
	return fmt.Sprintf("failed to prepare media input: %v", e.Err)
}

func (e *MaterializationError) Unwrap() error {
	return e.Err
}

// ProviderCallError carries the upstream status and body. The body is for
// operator logs only; handlers must not echo it to the caller.
type ProviderCallError struct {
	Provider string
	Status   int
	Body     string
	Err      error
}

func (e *ProviderCallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s call failed: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s call failed with status %d: %s", e.Provider, e.Status, e.Body)
}

func (e *ProviderCallError) Unwrap() error {
	return e.Err
}

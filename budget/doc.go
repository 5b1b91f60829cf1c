// Package budget enforces a monthly spending ceiling across paid embedding
// providers.
//
// The Guard computes call costs from a static price table, appends usage
// records asynchronously, and raises a warning alert at 80% of the ceiling
// and a limit alert at 100%. Once limited, ForcedFallback reports true and
// the embedding router substitutes the free local provider until the period
// rolls over. Duplicate alerts within a period are suppressed, and state is
// rehydrated from the store on startup.
package budget

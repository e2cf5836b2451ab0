// Package amortization recomputes remaining terms and projected payoff
// months for debt records.
//
// The toggles here are invoked from user actions, never from
// synchronization. Confirming a payment for the period consumes one
// installment: the current term becomes one less than the reference term.
// Withdrawing the confirmation restores the reference term.
//
// Payoff months are computed by snapping the clock to the first day of the
// current month and adding whole months, which keeps the result stable
// regardless of month length.
package amortization

// Package negotiation turns free-form negotiation notes into numeric
// overrides for the first derived stage.
//
// Notes come from an unrelated record-keeping feature and are loosely
// typed: amounts may be currency-formatted ("R$ 1.234,56") or plain
// decimals typed with a comma ("250,50"). An entry only counts when it
// supplies an installment or a quantity; a comment alone is not a
// negotiation. A malformed entry is dropped as a whole so the record keeps
// its un-negotiated values; other entries are unaffected.
package negotiation

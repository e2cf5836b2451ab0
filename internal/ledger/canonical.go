package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// marshalCanonical produces canonical JSON: object keys sorted by UTF-16
// code units, NFC-normalized strings, no HTML escaping, no floats, no null.
// Decimal values must already be rendered as strings.
func marshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return marshalCanonicalString(val)
	case int:
		return []byte(strconv.Itoa(val)), nil
	case int64:
		return []byte(strconv.FormatInt(val, 10)), nil
	case bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := marshalCanonical(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case map[string]any:
		return marshalCanonicalObject(val)
	case float64, float32:
		return nil, fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

func marshalCanonicalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func marshalCanonicalObject(obj map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return lessUTF16(keys[i], keys[j]) })

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := marshalCanonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := marshalCanonical(obj[k])
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func lessUTF16(a, b string) bool {
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			return ua[i] < ub[i]
		}
	}
	return len(ua) < len(ub)
}

// canonicalRecord flattens r into canonical-JSON-safe values.
// Timestamps are excluded: two ledgers that differ only in when they were
// derived hold the same debts.
func canonicalRecord(r DebtRecord) map[string]any {
	return map[string]any{
		"id":                        r.ID,
		"name":                      r.Name,
		"creditor":                  r.Creditor,
		"origin":                    string(r.origin),
		"reference_installment":     r.ReferenceInstallment.String(),
		"reference_term_months":     r.ReferenceTermMonths,
		"reference_interest_rate":   r.ReferenceInterestRate.String(),
		"current_installment":       r.CurrentInstallment.String(),
		"current_term_months":       r.CurrentTermMonths,
		"current_interest_rate":     r.CurrentInterestRate.String(),
		"is_negotiated":             r.IsNegotiated,
		"is_manually_added":         r.IsManuallyAdded,
		"is_payment_confirmed":      r.IsPaymentConfirmed,
		"is_amortization_confirmed": r.IsAmortizationConfirmed,
		"projected_payoff_month":    r.ProjectedPayoff.String(),
	}
}

// MarshalCanonical renders l as canonical JSON with records sorted by ID.
func (l Ledger) MarshalCanonical() ([]byte, error) {
	sorted := l.Sorted()
	records := make([]any, len(sorted))
	for i, r := range sorted {
		records[i] = canonicalRecord(r)
	}
	return marshalCanonical(map[string]any{
		"stage":   int(l.Stage),
		"records": records,
	})
}

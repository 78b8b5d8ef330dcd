package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"golang.org/x/text/unicode/norm"
)

// fingerprintDomain separates state hashes from any other hashed payload.
const fingerprintDomain = "querycraft/state/v1"

// Fingerprint returns a structural hash of the state. Equal states hash the
// same regardless of slice identity or Unicode normalisation form, so the
// value can key memoized renders.
func (s State) Fingerprint() string {
	canonical, err := json.Marshal(s.nfc())
	if err != nil {
		// State holds only strings, ints and bools.
		panic(err)
	}
	h := sha256.New()
	h.Write([]byte(fingerprintDomain))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil))
}

func (s State) nfc() State {
	out := s.Clone()
	out.QueryType = QueryType(nfc(string(out.QueryType)))
	out.Table = nfc(out.Table)
	for i := range out.Columns {
		out.Columns[i] = nfc(out.Columns[i])
	}
	for i := range out.GroupBy {
		out.GroupBy[i] = nfc(out.GroupBy[i])
	}
	for i, a := range out.Aggregates {
		out.Aggregates[i] = Aggregate{
			Function: AggregateFunc(nfc(string(a.Function))),
			Column:   nfc(a.Column),
			Alias:    nfc(a.Alias),
		}
	}
	for i, c := range out.WhereConditions {
		out.WhereConditions[i] = Condition{
			Column:      nfc(c.Column),
			Operator:    Operator(nfc(string(c.Operator))),
			Value:       nfc(c.Value),
			Conjunction: Conjunction(nfc(string(c.Conjunction))),
		}
	}
	for i, h := range out.Having {
		out.Having[i] = HavingCondition{
			Function:    AggregateFunc(nfc(string(h.Function))),
			Column:      nfc(h.Column),
			Operator:    Operator(nfc(string(h.Operator))),
			Value:       nfc(h.Value),
			Conjunction: Conjunction(nfc(string(h.Conjunction))),
		}
	}
	for i, j := range out.Joins {
		out.Joins[i] = Join{
			Type:    JoinType(nfc(string(j.Type))),
			Table:   nfc(j.Table),
			OnLeft:  nfc(j.OnLeft),
			OnRight: nfc(j.OnRight),
		}
	}
	for i, o := range out.OrderBy {
		out.OrderBy[i] = OrderBy{Column: nfc(o.Column), Direction: SortDirection(nfc(string(o.Direction)))}
	}
	if out.InsertValues != nil {
		vals := make(map[string]string, len(out.InsertValues))
		for k, v := range out.InsertValues {
			vals[nfc(k)] = nfc(v)
		}
		out.InsertValues = vals
	}
	return out
}

func nfc(s string) string {
	return norm.NFC.String(s)
}

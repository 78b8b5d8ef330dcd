package domain

// Clause identifies one clause of a rendered statement. The compiler reports
// the clauses it emitted and the explainer tags every line with the clauses
// it describes, so both sides can be compared.
type Clause string

const (
	ClauseSelect  Clause = "SELECT"
	ClauseFrom    Clause = "FROM"
	ClauseJoin    Clause = "JOIN"
	ClauseWhere   Clause = "WHERE"
	ClauseGroupBy Clause = "GROUP BY"
	ClauseHaving  Clause = "HAVING"
	ClauseOrderBy Clause = "ORDER BY"
	ClauseLimit   Clause = "LIMIT"
	ClauseOffset  Clause = "OFFSET"
	ClauseInsert  Clause = "INSERT INTO"
	ClauseValues  Clause = "VALUES"
	ClauseUpdate  Clause = "UPDATE"
	ClauseAssign  Clause = "SET"
	ClauseDelete  Clause = "DELETE FROM"
)

// ClauseSet is an unordered set of clauses.
type ClauseSet map[Clause]struct{}

// NewClauseSet builds a set from clauses.
func NewClauseSet(clauses ...Clause) ClauseSet {
	set := make(ClauseSet, len(clauses))
	for _, c := range clauses {
		set[c] = struct{}{}
	}
	return set
}

// Has reports membership.
func (s ClauseSet) Has(c Clause) bool {
	_, ok := s[c]
	return ok
}

// Equal reports whether both sets hold the same clauses.
func (s ClauseSet) Equal(other ClauseSet) bool {
	if len(s) != len(other) {
		return false
	}
	for c := range s {
		if !other.Has(c) {
			return false
		}
	}
	return true
}

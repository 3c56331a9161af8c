package federation

// ConfidenceAttribute is a named way a matching process can gain
// confidence in an identity match (e.g. a supplementary identifier).
// Equality is structural.
type ConfidenceAttribute struct {
	Name        string
	Description string
}

// Equal reports whether c and other have identical fields.
func (c ConfidenceAttribute) Equal(other ConfidenceAttribute) bool {
	return c.Name == other.Name && c.Description == other.Description
}

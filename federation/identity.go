package federation

import "fmt"

// IdentityAttribute is a closed enumeration of the identity fields a node
// can require or use to disambiguate a match. The ordering below is part
// of the wire contract: it must never be reordered, only
// appended to, and any reorder must be caught by the loader's ordinal
// table rather than silently mis-decoding.
type IdentityAttribute int

const (
	Surname IdentityAttribute = iota
	Postcode
	YearOfBirth
	Initials
	HouseNumber
	DateOfBirth

	identityAttributeCount // sentinel, not a valid attribute
)

func (a IdentityAttribute) String() string {
	switch a {
	case Surname:
		return "SURNAME"
	case Postcode:
		return "POSTCODE"
	case YearOfBirth:
		return "YEAR_OF_BIRTH"
	case Initials:
		return "INITIALS"
	case HouseNumber:
		return "HOUSE_NUMBER"
	case DateOfBirth:
		return "DATE_OF_BIRTH"
	default:
		return fmt.Sprintf("IdentityAttribute(%d)", int(a))
	}
}

// Valid reports whether a is one of the six declared variants.
func (a IdentityAttribute) Valid() bool {
	return a >= Surname && a < identityAttributeCount
}

package dispatch

import "strconv"

// Kind is the declared type of a record and selects its transformation.
type Kind int

const (
	// KindUnknown covers absent and unrecognized tags.
	KindUnknown Kind = iota
	KindString
	KindNumber
	KindBoolean
)

// ParseKind maps a record's type tag to a Kind. Tags are case-sensitive and
// anything unrecognized, including "", is KindUnknown.
func ParseKind(tag string) Kind {
	switch tag {
	case "string":
		return KindString
	case "number":
		return KindNumber
	case "boolean":
		return KindBoolean
	default:
		return KindUnknown
	}
}

func (k Kind) String() string {
	switch k {
	case KindUnknown:
		return "unknown"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// label prefixes the transformed value in output lines.
func (k Kind) label() string {
	switch k {
	case KindString:
		return "String"
	case KindNumber:
		return "Number"
	case KindBoolean:
		return "Boolean"
	default:
		return "Unknown"
	}
}

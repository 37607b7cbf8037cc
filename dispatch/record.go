package dispatch

// Record is one tagged input item.
type Record struct {
	// Type is the declared type tag. "" means the tag was absent.
	Type string
	// Value is the payload. nil means the value was absent or null.
	Value any
}

// Kind returns the Kind selected by the record's tag.
func (r Record) Kind() Kind { return ParseKind(r.Type) }

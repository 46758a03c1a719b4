package transition

// OfType keeps records whose type is one of types.
func OfType(records []Record, types ...Type) []Record {
	want := make(map[Type]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	out := []Record{}
	for _, r := range records {
		if want[r.Type] {
			out = append(out, r)
		}
	}
	return out
}

// Marriages keeps marriage events.
func Marriages(records []Record) []Record { return OfType(records, Marriage) }

// Divorces keeps divorce events.
func Divorces(records []Record) []Record { return OfType(records, Divorce) }

// Splitoffs keeps new-household formation: leaving the parental home and
// other split-offs.
func Splitoffs(records []Record) []Record { return OfType(records, LeaveParental, Splitoff) }

package document

// Normalize is the repair pass applied to generator output before it may
// replace the live document. The generator's shape is never trusted: columns
// come back ragged, and some it should not be filling in at all.
//
// The pass, in order:
//  1. R = the maximum length over every column present in the input.
//  2. Every column is right-padded with empty strings to length R.
//  3. The ownership, header, and body columns are overwritten with empty
//     strings, and both state columns with "0" — regardless of what the
//     generator produced for them.
//
// The result satisfies the shape invariant by construction.
func Normalize(partial Document) Document {
	rows := 0
	for _, col := range partial.columns() {
		if len(*col) > rows {
			rows = len(*col)
		}
	}

	out := partial.Clone()
	for _, col := range out.columns() {
		for len(*col) < rows {
			*col = append(*col, "")
		}
	}

	reset := func(col *[]string, value string) {
		*col = make([]string, rows)
		for i := range *col {
			(*col)[i] = value
		}
	}
	reset(&out.FrontOwner, "")
	reset(&out.BackOwner, "")
	reset(&out.RequestHeader, "")
	reset(&out.ResponseHeader, "")
	reset(&out.RequestBody, "")
	reset(&out.ResponseBody, "")
	reset(&out.FrontState, StateNotStarted)
	reset(&out.BackState, StateNotStarted)

	return out
}

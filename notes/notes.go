// Package notes implements the side-band parser state that the psh
// grammar threads through a backtracking parse: a position-indexed,
// append-only, truncating log of annotations.
//
// It is the Go analogue of parsy_extn's Noted mixin from the Python
// original: a stream carries an immutable source string plus a sparse
// list of (index, annotation) entries. Annotations are looked up by
// "freshest entry at or before this index", and writing an annotation
// at index i discards every later entry, so that when a combinator
// backtracks past i a subsequent forward reparse naturally overwrites
// whatever the abandoned branch had written there.
package notes

// Note is a side-band annotation. The grammar's own convention is a
// single well-known key, "hds", holding the oldest-first queue of
// pending heredoc descriptors; Note is left as a general map so other
// annotations can be added without changing the Stream machinery.
type Note map[string]any

// Clone returns a shallow copy of n, suitable for a caller who wants to
// mutate one field without disturbing whatever the stream handed back.
func (n Note) Clone() Note {
	cp := make(Note, len(n))
	for k, v := range n {
		cp[k] = v
	}
	return cp
}

type entry struct {
	pos  int
	note Note
}

// Stream is a position-indexed, strictly increasing log of notes.
// The zero value is an empty stream ready to use.
type Stream struct {
	entries []entry
}

// At returns the freshest note at or before pos, or an empty Note if
// none has been recorded yet.
func (s *Stream) At(pos int) Note {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].pos <= pos {
			return s.entries[i].note.Clone()
		}
	}
	return Note{}
}

// Update records note at pos, discarding any entry at or after pos.
// Entries strictly before pos are left untouched.
func (s *Stream) Update(pos int, note Note) {
	for i := len(s.entries) - 1; i >= 0; i-- {
		switch {
		case s.entries[i].pos == pos:
			s.entries = append(s.entries[:i], entry{pos, note})
			return
		case s.entries[i].pos < pos:
			s.entries = append(s.entries[:i+1], entry{pos, note})
			return
		}
	}
	s.entries = []entry{{pos, note}}
}

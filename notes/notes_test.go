package notes

import "testing"

func eq(a, b Note) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// Grounded on parsy_extn/test_notes.py's test_note_put_and_get.
func TestStreamUpdateTruncates(t *testing.T) {
	var s Stream

	if got := s.At(1); len(got) != 0 {
		t.Fatalf("At(1) on empty stream = %v, want empty", got)
	}

	s.Update(2, Note{"a": 2})
	s.Update(4, Note{"a": 4})
	if got := s.At(3); !eq(got, Note{"a": 2}) {
		t.Fatalf("At(3) = %v, want {a:2}", got)
	}
	if got := s.At(4); !eq(got, Note{"a": 4}) {
		t.Fatalf("At(4) = %v, want {a:4}", got)
	}

	// Writing at 3 truncates the entry at 4.
	s.Update(3, Note{"a": 3})
	if got := s.At(4); !eq(got, Note{"a": 3}) {
		t.Fatalf("after Update(3,..): At(4) = %v, want {a:3}", got)
	}

	// Writing again at the same index replaces in place.
	s.Update(3, Note{"a": 33})
	if got := s.At(3); !eq(got, Note{"a": 33}) {
		t.Fatalf("At(3) = %v, want {a:33}", got)
	}

	// Writing at 2 discards everything from 2 onward, simulating a
	// backtrack past index 2 followed by a fresh forward parse.
	s.Update(2, Note{"a": 222})
	if got := s.At(3); !eq(got, Note{"a": 222}) {
		t.Fatalf("after backtrack-overwrite: At(3) = %v, want {a:222}", got)
	}
}

func TestNoteCloneIsIndependent(t *testing.T) {
	n := Note{"hds": []int{1, 2}}
	cp := n.Clone()
	cp["hds"] = []int{3}
	if len(n["hds"].([]int)) != 2 {
		t.Fatalf("mutating the clone affected the original")
	}
}

package syntax

// Parse reads a complete shell program and returns its AST, or a
// *ParseError identifying the furthest position the grammar could
// reach before failing.
func Parse(src string) (*CommandSequence, error) {
	p := newParser(src)
	seq, ok := commandSequence(p)
	if !ok {
		return nil, p.error()
	}
	sep(p)
	if !p.eof() {
		p.fail("unexpected input")
		return nil, p.error()
	}
	return seq, nil
}

package interp

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/jan-g/psh/pattern"
	"github.com/jan-g/psh/syntax"
)

// globSegment is one `/`-delimited component of a glob word: the
// pieces the pattern package needs to match it, plus whether it
// carries a wildcard at all (wildcard-free segments are pure path
// navigation, never touching the filesystem, per spec.md section 4.H)
// and whether it carries `**` (triggering recursive descent).
type globSegment struct {
	pieces    []pattern.Piece
	wildcard  bool
	recursive bool
}

// explodeSegments mirrors psh/glob.py's explode/_bits: it walks a
// word's parts left to right, evaluating non-glob parts to literal
// text and splitting on `/` to find segment boundaries, while glob
// sentinels become wildcard pieces that never split.
func explodeSegments(w syntax.Word, env *Env) (segs []globSegment, absolute bool, err error) {
	cur := globSegment{}
	first := true
	flush := func() {
		segs = append(segs, cur)
		cur = globSegment{}
	}
	for _, part := range w.Parts {
		if g, ok := part.(syntax.GlobPart); ok {
			cur.pieces = append(cur.pieces, pattern.Wildcard{})
			cur.wildcard = true
			if g == syntax.StarStar {
				cur.recursive = true
			}
			first = false
			continue
		}
		s, err := evalPart(part, env)
		if err != nil {
			return nil, false, err
		}
		chunks := strings.Split(s, "/")
		for i, chunk := range chunks {
			if i > 0 {
				flush()
			}
			if chunk != "" {
				cur.pieces = append(cur.pieces, pattern.Literal(chunk))
			}
		}
		if first && len(chunks) > 1 && chunks[0] == "" {
			absolute = true
		}
		first = false
	}
	flush()
	if absolute && len(segs) > 0 {
		segs = segs[1:]
	}
	return segs, absolute, nil
}

// expandGlob expands a word known to contain a glob sentinel into its
// sorted directory matches, per spec.md section 4.H, grounded on
// psh/glob.py's generator pipeline (start/recurse/dirs_only/entries/
// thence/name_matches) translated into a plain slice-based walk.
func expandGlob(w syntax.Word, env *Env) ([]string, error) {
	segs, absolute, err := explodeSegments(w, env)
	if err != nil {
		return nil, err
	}
	base := "."
	if absolute {
		base = "/"
	}
	cur := []string{base}
	for _, seg := range segs {
		if !seg.wildcard {
			joined := literalJoin(seg.pieces)
			for i, c := range cur {
				cur[i] = filepath.Join(c, joined)
			}
			continue
		}
		re := pattern.CompileFileMatch(seg.pieces)
		var next []string
		for _, dir := range cur {
			next = append(next, matchDir(dir, re)...)
			if seg.recursive {
				next = append(next, matchRecursive(dir, re)...)
			}
		}
		cur = next
	}
	cur = filterExisting(cur)
	sort.Strings(cur)
	return cur, nil
}

func literalJoin(pieces []pattern.Piece) string {
	var sb strings.Builder
	for _, p := range pieces {
		if lit, ok := p.(pattern.Literal); ok {
			sb.WriteString(string(lit))
		}
	}
	return sb.String()
}

func matchDir(dir string, re *regexp.Regexp) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if re.MatchString(e.Name()) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out
}

// matchRecursive descends into every subdirectory of dir at any depth,
// applying re at each level, implementing `**`'s extra recursive-
// descent step beyond the single-level match matchDir already did.
func matchRecursive(dir string, re *regexp.Regexp) []string {
	var out []string
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sub := filepath.Join(dir, e.Name())
		out = append(out, matchDir(sub, re)...)
		out = append(out, matchRecursive(sub, re)...)
	}
	return out
}

func filterExisting(paths []string) []string {
	var out []string
	for _, p := range paths {
		if _, err := os.Lstat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

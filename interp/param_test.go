package interp

import (
	"testing"

	"github.com/jan-g/psh/pattern"
)

func TestStripParamShortestPrefix(t *testing.T) {
	re := pattern.CompileCaseMatch([]pattern.Piece{pattern.Literal("a"), pattern.Wildcard{}})
	got := stripParam("aXbXc", "#", re)
	if got != "XbXc" {
		t.Errorf(`stripParam("aXbXc", "#", a*) = %q, want "XbXc" (the wildcard matches zero characters, so the shortest match is just "a")`, got)
	}
}

func TestStripParamLongestPrefix(t *testing.T) {
	re := pattern.CompileCaseMatch([]pattern.Piece{pattern.Literal("a"), pattern.Wildcard{}})
	got := stripParam("aXaYaZ", "##", re)
	if got != "" {
		t.Errorf(`stripParam("aXaYaZ", "##", a*) = %q, want "" (longest match is the whole string)`, got)
	}
}

func TestStripParamShortestSuffix(t *testing.T) {
	re := pattern.CompileCaseMatch([]pattern.Piece{pattern.Wildcard{}, pattern.Literal("z")})
	got := stripParam("xyzyz", "%", re)
	if got != "xyzy" {
		t.Errorf(`stripParam("xyzyz", "%%", *z) = %q, want "xyzy" (shortest suffix match is "z")`, got)
	}
}

func TestStripParamLongestSuffix(t *testing.T) {
	re := pattern.CompileCaseMatch([]pattern.Piece{pattern.Wildcard{}, pattern.Literal("z")})
	got := stripParam("xyzyz", "%%", re)
	if got != "" {
		t.Errorf(`stripParam("xyzyz", "%%", *z) = %q, want "" (longest suffix match is the whole string)`, got)
	}
}

func TestStripParamNoMatchReturnsUnchanged(t *testing.T) {
	re := pattern.CompileCaseMatch([]pattern.Piece{pattern.Literal("q")})
	got := stripParam("abc", "#", re)
	if got != "abc" {
		t.Errorf(`stripParam with no match should return the value unchanged, got %q`, got)
	}
}

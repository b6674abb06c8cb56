// Package analyzer provides read-only source queries over LCASM assembly text: diagnostics,
// symbols, hover text, go-to-definition, find-references, completions, and semantic tokens. It is
// meant to back an editor's language server; every query takes the complete source text and
// returns plain data, so calls with distinct inputs never interact.
//
// The analyzer reuses package asm's parser and generator for both passes and never mutates the
// tables it gets back from them. Where assembly fails outright, the analyzer still recovers
// whatever symbols, tokens, and partial hovers it can -- encode failures become diagnostics, not
// fatal conditions.
package analyzer

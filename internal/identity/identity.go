// Package identity groups manufacturer name variants under one ledger key.
package identity

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// legalSuffixes are entity-form tokens dropped during normalization. They
// carry no identity: "Kellogg India Pvt Ltd" and "Kellogg India Private
// Limited" are the same manufacturer.
var legalSuffixes = map[string]bool{
	"ltd": true, "limited": true,
	"inc": true, "incorporated": true,
	"corp": true, "corporation": true,
	"pvt": true, "private": true,
	"co": true, "company": true,
	"llc": true, "llp": true, "gmbh": true,
}

// stopWords are honorifics and fillers that precede Indian trade names.
var stopWords = map[string]bool{
	"the": true, "m/s": true, "shri": true, "sri": true,
	"mr": true, "mrs": true, "dr": true,
}

var punctRe = regexp.MustCompile(`[^\w\s/]`)

// Normalize lowercases a manufacturer name, strips punctuation, and drops
// legal suffixes and stop words, leaving the tokens that identify the maker.
func Normalize(name string) string {
	name = punctRe.ReplaceAllString(strings.ToLower(name), " ")
	var kept []string
	for _, tok := range strings.Fields(name) {
		if legalSuffixes[tok] || stopWords[tok] {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// firstSignificant returns the first token of a normalized name longer than
// two characters, or "" when none qualifies.
func firstSignificant(normalized string) string {
	for _, tok := range strings.Fields(normalized) {
		if len(tok) > 2 {
			return tok
		}
	}
	return ""
}

// Resolver maps a raw manufacturer string onto an existing ledger key or
// proposes a new one.
type Resolver interface {
	// Resolve returns the key raw belongs to and whether it matched an
	// existing key. When no key matches, the trimmed raw name itself is
	// returned as the key to create.
	Resolve(raw string, known []string) (key string, matched bool)
}

// FirstTokenResolver matches on the full normalized name first, then on the
// first significant token. Candidates are checked in the order given and
// the first hit wins.
type FirstTokenResolver struct{}

// Resolve implements Resolver.
func (FirstTokenResolver) Resolve(raw string, known []string) (string, bool) {
	norm := Normalize(raw)
	if norm != "" {
		for _, k := range known {
			if Normalize(k) == norm {
				return k, true
			}
		}
		if tok := firstSignificant(norm); tok != "" {
			for _, k := range known {
				if firstSignificant(Normalize(k)) == tok {
					return k, true
				}
			}
		}
	}
	return strings.TrimSpace(raw), false
}

var titleCaser = cases.Title(language.English)

// DisplayKey renders a ledger key for human output, title-casing each word.
func DisplayKey(key string) string {
	return titleCaser.String(strings.ToLower(key))
}

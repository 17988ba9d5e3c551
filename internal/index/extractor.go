// Package index derives display keywords and research topics from paper
// titles and abstracts with a fixed rule table. The output is additive
// metadata attached at save time; nothing downstream depends on it for
// correctness.
package index

import (
	"regexp"
	"sort"
	"strings"
)

// keywordRules maps a keyword to the pattern that triggers it in the
// combined lowercase title+abstract text.
var keywordRules = []struct {
	keyword string
	re      *regexp.Regexp
}{
	{"smart-contracts", regexp.MustCompile(`\b(smart\s+contract|solidity|ethereum)\b`)},
	{"reentrancy", regexp.MustCompile(`\b(reentrancy|re-entran)`)},
	{"vulnerability", regexp.MustCompile(`\b(vulnerability|vulnerabilities|exploit)`)},
	{"security", regexp.MustCompile(`\b(security|secure)\b`)},
	{"verification", regexp.MustCompile(`\b(verification|formal\s+method)`)},
	{"testing", regexp.MustCompile(`\b(testing|fuzzing)\b`)},
	{"analysis", regexp.MustCompile(`\b(analysis|analyzer)\b`)},
	{"blockchain", regexp.MustCompile(`\b(blockchain|distributed\s+ledger)\b`)},
	{"defi", regexp.MustCompile(`\b(defi|decentralized\s+finance)\b`)},
	{"bytecode", regexp.MustCompile(`\b(bytecode|opcode)\b`)},
}

// topicRules maps a topic to the substrings any one of which marks it.
var topicRules = map[string][]string{
	"smart contract":   {"smart contract", "solidity", "ethereum", "evm"},
	"security":         {"security", "vulnerability", "exploit", "attack"},
	"reentrancy":       {"reentrancy", "re-entrancy", "reentrant"},
	"verification":     {"verification", "formal method", "model checking"},
	"testing":          {"testing", "fuzzing", "symbolic execution"},
	"analysis":         {"static analysis", "dynamic analysis", "program analysis"},
	"blockchain":       {"blockchain", "distributed ledger", "consensus"},
	"defi":             {"defi", "decentralized finance", "dex", "liquidity"},
	"gas optimization": {"gas", "optimization", "efficiency"},
	"bytecode":         {"bytecode", "opcode", "compilation"},
}

// capitalizedRe harvests capitalized multi-word terms as candidate
// keywords, e.g. "Symbolic Execution" or "Ethereum Virtual Machine".
var capitalizedRe = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)

var capitalStopWords = map[string]bool{
	"The": true, "A": true, "An": true, "In": true, "On": true,
	"For": true, "With": true, "This": true, "These": true, "That": true,
}

// Extractor implements the save-time enrichment collaborator of the
// tiered store.
type Extractor struct{}

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract returns sorted keyword and topic lists for the given title and
// abstract. Both lists may be empty; extraction never fails.
func (e *Extractor) Extract(title, abstract string) (keywords, topics []string) {
	raw := title + " " + abstract
	text := strings.ToLower(raw)

	kw := make(map[string]bool)
	for _, rule := range keywordRules {
		if rule.re.MatchString(text) {
			kw[rule.keyword] = true
		}
	}
	for _, term := range capitalizedRe.FindAllString(raw, -1) {
		if !capitalStopWords[term] && len(term) > 3 {
			kw[strings.ToLower(term)] = true
		}
	}

	tp := make(map[string]bool)
	for topic, patterns := range topicRules {
		for _, pattern := range patterns {
			if strings.Contains(text, pattern) {
				tp[topic] = true
				break
			}
		}
	}

	return sortedKeys(kw), sortedKeys(tp)
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Package quality scores free-text answers and per-session answer patterns
// with additive heuristics. The analyzer is advisory only: it never blocks a
// save, it just surfaces findings the submitting side may act on.
package quality

import (
	"fmt"
	"regexp"
	"strings"
)

// Config holds the tunable penalties and thresholds. The heuristics are a
// replaceable policy; swap the config, not the callers.
type Config struct {
	NonePenalty       int
	GibberishPenalty  int
	MashingPenalty    int
	RepetitionPenalty int
	VaguePenalty      int
	BonusPerMarker    int
	BonusCap          int
	LowQualityBelow   int

	MinPatternResponses int
	NoneRateThreshold   float64 // percent
	GibberishRateThresh float64 // percent
	FastRateThreshold   float64 // percent
	FastResponseSeconds int
}

func DefaultConfig() *Config {
	return &Config{
		NonePenalty:       25,
		GibberishPenalty:  60,
		MashingPenalty:    50,
		RepetitionPenalty: 30,
		VaguePenalty:      15,
		BonusPerMarker:    8,
		BonusCap:          20,
		LowQualityBelow:   30,

		MinPatternResponses: 3,
		NoneRateThreshold:   30,
		GibberishRateThresh: 40,
		FastRateThreshold:   30,
		FastResponseSeconds: 5,
	}
}

type Analyzer struct {
	cfg *Config
}

// NewAnalyzer builds an analyzer; nil selects the default config.
func NewAnalyzer(cfg *Config) *Analyzer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Analyzer{cfg: cfg}
}

// Result is the verdict for a single answer.
type Result struct {
	Score          int      `json:"score"`
	Issues         []string `json:"issues"`
	IsLowQuality   bool     `json:"isLowQuality"`
	IsNoneResponse bool     `json:"isNoneResponse"`
	IsGibberish    bool     `json:"isGibberish"`
}

var (
	nonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(none|n/a|na|nothing|no|idk|dk)$`),
		regexp.MustCompile(`^(same|normal|usual|regular|typical)$`),
	}
	// Answers that legitimately report an absence are not penalized.
	legitimateNonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(none that i know|nothing that i know|not in my region|not applicable here)`),
		regexp.MustCompile(`^(we don't have|not common here|not practiced in)`),
	}
	noLettersPattern  = regexp.MustCompile(`^[^a-zA-Z\s]+$`)
	allLettersPattern = regexp.MustCompile(`^[a-z]+$`)

	mashingPatterns = []*regexp.Regexp{
		regexp.MustCompile(`qwerty|asdf|zxcv|hjkl|yuiop`),
		regexp.MustCompile(`abcd|1234|test|xxx|yyy|zzz`),
	}

	vagueWords = []string{"something", "things", "stuff", "anything", "everything"}

	specificityMarkers = []*regexp.Regexp{
		regexp.MustCompile(`\b(example|for instance|specifically|traditionally|commonly|usually|typically)\b`),
		regexp.MustCompile(`\b(in my region|in our area|locally|here we|we usually|in our culture)\b`),
		regexp.MustCompile(`\b(such as|like|including|consists of|involves|includes)\b`),
	}
)

// ScoreResponse scores a single answer, starting from 100 and applying the
// configured penalties and the bounded specificity bonus. Gibberish and
// keyboard-mashing are mutually exclusive flags so the same finding is not
// counted twice.
func (a *Analyzer) ScoreResponse(answer string) Result {
	res := Result{Score: 100}
	text := strings.ToLower(strings.TrimSpace(answer))

	isNone := matchesAny(nonePatterns, text) && !matchesAny(legitimateNonePatterns, text)
	if isNone && len(text) < 8 {
		res.IsNoneResponse = true
		res.Issues = append(res.Issues, "Very brief response - consider adding more detail if possible")
		res.Score -= a.cfg.NonePenalty
	}

	if looksGibberish(text) {
		res.IsGibberish = true
		res.Issues = append(res.Issues, "Appears to be random characters or gibberish")
		res.Score -= a.cfg.GibberishPenalty
	} else if looksMashed(text) {
		res.IsGibberish = true
		res.Issues = append(res.Issues, "Keyboard mashing or test input detected")
		res.Score -= a.cfg.MashingPenalty
	}

	if hasExcessiveRepetition(text) {
		res.Issues = append(res.Issues, "Excessive word repetition")
		res.Score -= a.cfg.RepetitionPenalty
	}

	if countVagueWords(text) > 3 {
		res.Issues = append(res.Issues, "Response lacks specific details")
		res.Score -= a.cfg.VaguePenalty
	}

	markers := 0
	for _, p := range specificityMarkers {
		if p.MatchString(text) {
			markers++
		}
	}
	if markers > 0 {
		bonus := markers * a.cfg.BonusPerMarker
		if bonus > a.cfg.BonusCap {
			bonus = a.cfg.BonusCap
		}
		res.Score += bonus
	}

	if res.Score < 0 {
		res.Score = 0
	}
	if res.Score > 100 {
		res.Score = 100
	}
	res.IsLowQuality = res.Score < a.cfg.LowQualityBelow
	return res
}

func matchesAny(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// looksGibberish covers the pattern classes: all-consonant and all-vowel
// runs, repeated n-grams, no-letter strings and long unspaced strings. Go's
// regexp has no backreferences, so the repeated-pattern checks are plain
// scans.
func looksGibberish(text string) bool {
	if text == "" {
		return false
	}
	if noLettersPattern.MatchString(text) {
		return true
	}
	if hasRepeatedNgram(text) {
		return true
	}
	tokens := strings.Fields(text)
	for _, tok := range tokens {
		if longestRun(tok, isConsonant) >= 6 || longestRun(tok, isVowel) >= 6 {
			return true
		}
	}
	if len(tokens) == 1 && len(tokens[0]) >= 15 && allLettersPattern.MatchString(tokens[0]) {
		return true
	}
	return false
}

func looksMashed(text string) bool {
	if matchesAny(mashingPatterns, text) {
		return true
	}
	return hasRepeatedChar(text, 5)
}

// hasRepeatedNgram finds any substring of length 3..32 occurring three or
// more times back to back.
func hasRepeatedNgram(text string) bool {
	maxLen := len(text) / 3
	if maxLen > 32 {
		maxLen = 32
	}
	for l := 3; l <= maxLen; l++ {
		for i := 0; i+3*l <= len(text); i++ {
			if text[i:i+l] == text[i+l:i+2*l] && text[i:i+l] == text[i+2*l:i+3*l] {
				return true
			}
		}
	}
	return false
}

func hasRepeatedChar(text string, minRun int) bool {
	run := 0
	var last rune = -1
	for _, r := range text {
		if r == last {
			run++
			if run >= minRun {
				return true
			}
		} else {
			last = r
			run = 1
		}
	}
	return false
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

func isConsonant(r rune) bool {
	return r >= 'a' && r <= 'z' && !isVowel(r)
}

func longestRun(token string, class func(rune) bool) int {
	longest, run := 0, 0
	for _, r := range token {
		if class(r) {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	return longest
}

func hasExcessiveRepetition(text string) bool {
	counts := map[string]int{}
	for _, word := range strings.Fields(text) {
		if len(word) > 2 {
			counts[word]++
			if counts[word] > 3 {
				return true
			}
		}
	}
	return false
}

func countVagueWords(text string) int {
	count := 0
	for _, word := range strings.Fields(text) {
		word = strings.Trim(word, ".,;:!?")
		for _, vague := range vagueWords {
			if word == vague {
				count++
			}
		}
	}
	return count
}

// Sample is the slice of a stored response the pattern analysis needs.
type Sample struct {
	Answer    string
	TimeSpent int
}

// PatternResult aggregates per-session rates. IssueType names the primary
// finding by fixed precedence none > gibberish > speed.
type PatternResult struct {
	SuspiciousPattern bool     `json:"suspiciousPattern"`
	Warnings          []string `json:"warnings"`
	NoneRate          float64  `json:"noneResponseRate"`
	GibberishRate     float64  `json:"gibberishResponseRate"`
	FastRate          float64  `json:"fastResponseRate"`
	IssueType         string   `json:"issueType,omitempty"`
}

// AnalyzePattern inspects all non-attention responses of a session. Too few
// responses never flag: early answers are not a pattern yet.
func (a *Analyzer) AnalyzePattern(samples []Sample) PatternResult {
	var res PatternResult
	if len(samples) < a.cfg.MinPatternResponses {
		return res
	}

	noneCount, gibberishCount, fastCount := 0, 0, 0
	for _, s := range samples {
		verdict := a.ScoreResponse(s.Answer)
		if verdict.IsNoneResponse {
			noneCount++
		}
		if verdict.IsGibberish {
			gibberishCount++
		}
		if s.TimeSpent < a.cfg.FastResponseSeconds {
			fastCount++
		}
	}

	total := float64(len(samples))
	res.NoneRate = float64(noneCount) / total * 100
	res.GibberishRate = float64(gibberishCount) / total * 100
	res.FastRate = float64(fastCount) / total * 100

	if res.NoneRate >= a.cfg.NoneRateThreshold {
		res.Warnings = append(res.Warnings, fmt.Sprintf(`High rate of "none" responses (%.1f%%)`, res.NoneRate))
		res.SuspiciousPattern = true
		res.IssueType = "none"
	}
	if res.GibberishRate >= a.cfg.GibberishRateThresh {
		res.Warnings = append(res.Warnings, fmt.Sprintf("High rate of gibberish responses (%.1f%%)", res.GibberishRate))
		res.SuspiciousPattern = true
		if res.IssueType == "" {
			res.IssueType = "gibberish"
		}
	}
	if res.FastRate >= a.cfg.FastRateThreshold {
		res.Warnings = append(res.Warnings, fmt.Sprintf("High rate of very quick responses (%.1f%%)", res.FastRate))
		res.SuspiciousPattern = true
		if res.IssueType == "" {
			res.IssueType = "speed"
		}
	}
	return res
}

// Package attention decides when to interleave verification questions into
// the survey stream, generates them from a fixed pool and validates the
// answers. Injection is invisible to the progress cursor: checks are never
// tree positions.
package attention

import (
	"math/rand"
	"strings"
	"unicode"
)

// DefaultInterval is the cadence K: a check fires after every K answered
// real questions.
const DefaultInterval = 7

type Kind string

const (
	KindBasic    Kind = "basic"
	KindPersonal Kind = "personal"
)

// Check is one injected verification question with its acceptable answers.
type Check struct {
	Question        string
	AcceptedAnswers []string
	Kind            Kind
	Category        string
	Topic           string
}

// Context carries what Generate needs to build a check for the current spot
// in the survey.
type Context struct {
	Category string
	Topic    string
	Region   string // participant's self-reported region, empty if unknown
}

// Scheduler tracks the cadence watermark for one session. The watermark is
// the answered-question count at which a check last fired; it only moves
// forward, so navigating back to the same count never re-triggers.
type Scheduler struct {
	interval    int
	lastFiredAt int
	rng         *rand.Rand
}

// NewScheduler builds a scheduler with cadence every (<=0 selects
// DefaultInterval). lastFiredAt restores a persisted watermark; pass -1 for
// a fresh session.
func NewScheduler(every, lastFiredAt int, rng *rand.Rand) *Scheduler {
	if every <= 0 {
		every = DefaultInterval
	}
	return &Scheduler{interval: every, lastFiredAt: lastFiredAt, rng: rng}
}

// ShouldInject reports whether a check is due at the given count of answered
// real questions. Attention-check answers must not be included in the count.
func (s *Scheduler) ShouldInject(answeredCount int) bool {
	return answeredCount > 0 &&
		answeredCount%s.interval == 0 &&
		answeredCount > s.lastFiredAt
}

// MarkInjected advances the watermark after a check was shown at count.
func (s *Scheduler) MarkInjected(answeredCount int) {
	if answeredCount > s.lastFiredAt {
		s.lastFiredAt = answeredCount
	}
}

// Watermark returns the current last-fired count for persistence.
func (s *Scheduler) Watermark() int {
	return s.lastFiredAt
}

// Generate draws a check from the fixed pool. The self-report check is only
// available when the participant's region is known.
func (s *Scheduler) Generate(ctx Context) Check {
	pool := []Check{
		{
			Question:        "This survey is about cultural practices in which country? Please type the country name.",
			AcceptedAnswers: []string{"india", "bharat"},
			Kind:            KindBasic,
		},
	}
	if ctx.Region != "" {
		pool = append(pool, Check{
			Question: "What region of India did you specify at the beginning of this survey? " +
				"Please write the name of the region (North, South, East, West, or Central).",
			AcceptedAnswers: []string{strings.ToLower(ctx.Region)},
			Kind:            KindPersonal,
		})
	}
	pick := pool[s.intn(len(pool))]
	pick.Category = ctx.Category
	pick.Topic = ctx.Topic
	return pick
}

func (s *Scheduler) intn(n int) int {
	if n <= 1 {
		return 0
	}
	if s.rng != nil {
		return s.rng.Intn(n)
	}
	return rand.Intn(n)
}

// synonyms maps an accepted answer to additional spellings that also pass.
// The table is fixed and documented per entry, never inferred.
var synonyms = map[string][]string{
	"yellow":  {"gold", "golden"}, // colour check: gold shades count
	"tuesday": {"tue"},            // weekday check: common abbreviation
}

// Validate normalizes the raw answer and accepts on exact match, substring
// containment, or a synonym-table hit.
func Validate(rawAnswer string, acceptedAnswers []string) bool {
	answer := Normalize(rawAnswer)
	if answer == "" {
		return false
	}
	for _, accepted := range acceptedAnswers {
		want := Normalize(accepted)
		if want == "" {
			continue
		}
		if answer == want || strings.Contains(answer, want) {
			return true
		}
		for _, alt := range synonyms[want] {
			if answer == alt || strings.Contains(answer, alt) {
				return true
			}
		}
	}
	return false
}

// Normalize lowercases, drops punctuation and collapses all whitespace
// (including line breaks) to single spaces.
func Normalize(s string) string {
	out := make([]rune, 0, len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			// skip
		default:
			if space && len(out) > 0 {
				out = append(out, ' ')
			}
			space = false
			out = append(out, unicode.ToLower(r))
		}
	}
	return string(out)
}

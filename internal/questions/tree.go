// Package questions holds the static survey catalogue: an ordered tree of
// category -> subcategory -> topic -> question, addressed by zero-based
// indices. The tree never mutates during a session; Reload only refreshes
// total-count bookkeeping for new sessions.
package questions

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"

	"survey-service/internal/models"
)

type Topic struct {
	Topic     string   `json:"topic"`
	Questions []string `json:"questions"`
}

type Subcategory struct {
	Subcategory string  `json:"subcategory"`
	Topics      []Topic `json:"topics"`
}

type Category struct {
	Category      string        `json:"category"`
	Subcategories []Subcategory `json:"subcategories"`
}

// Tree is an explicitly constructed catalogue instance. Pass it where it is
// needed instead of reaching for package-level state.
type Tree struct {
	mu         sync.RWMutex
	path       string
	categories []Category
	total      int
}

// Load reads the catalogue from path. A missing or corrupt file degrades to
// the built-in fallback tree so the service still starts; that condition is
// logged loudly, never swallowed.
func Load(path string) *Tree {
	t := &Tree{path: path}
	if err := t.Reload(); err != nil {
		log.Printf("WARNING: failed to load questions catalogue from %s: %v, using built-in fallback data", path, err)
		t.useFallback()
	}
	return t
}

// Reload re-reads the catalogue file and recomputes the memoized total.
func (t *Tree) Reload() error {
	raw, err := os.ReadFile(t.path)
	if err != nil {
		return err
	}
	var cats []Category
	if err := json.Unmarshal(raw, &cats); err != nil {
		return fmt.Errorf("parsing catalogue: %w", err)
	}
	if len(cats) == 0 {
		return fmt.Errorf("catalogue is empty")
	}
	t.mu.Lock()
	t.categories = cats
	t.total = countQuestions(cats)
	t.mu.Unlock()
	return nil
}

func (t *Tree) useFallback() {
	t.mu.Lock()
	t.categories = fallbackCategories()
	t.total = countQuestions(t.categories)
	t.mu.Unlock()
}

func countQuestions(cats []Category) int {
	total := 0
	for _, cat := range cats {
		for _, sub := range cat.Subcategories {
			for _, topic := range sub.Topics {
				total += len(topic.Questions)
			}
		}
	}
	return total
}

// TotalQuestions returns the memoized leaf count.
func (t *Tree) TotalQuestions() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.total
}

// Counts returns category, subcategory and topic totals for the info endpoint.
func (t *Tree) Counts() (categories, subcategories, topics, questions int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	categories = len(t.categories)
	for _, cat := range t.categories {
		subcategories += len(cat.Subcategories)
		for _, sub := range cat.Subcategories {
			topics += len(sub.Topics)
		}
	}
	return categories, subcategories, topics, t.total
}

// QuestionAt returns the question text at pos, or ok=false when pos does not
// address a leaf.
func (t *Tree) QuestionAt(pos models.QuestionPosition) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	topic, ok := t.topicAt(pos.CategoryIndex, pos.SubcategoryIndex, pos.TopicIndex)
	if !ok || pos.QuestionIndex < 0 || pos.QuestionIndex >= len(topic.Questions) {
		return "", false
	}
	return topic.Questions[pos.QuestionIndex], true
}

// Labels returns the category/subcategory/topic names covering pos.
func (t *Tree) Labels(pos models.QuestionPosition) (category, subcategory, topic string, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if pos.CategoryIndex < 0 || pos.CategoryIndex >= len(t.categories) {
		return "", "", "", false
	}
	cat := t.categories[pos.CategoryIndex]
	if pos.SubcategoryIndex < 0 || pos.SubcategoryIndex >= len(cat.Subcategories) {
		return "", "", "", false
	}
	sub := cat.Subcategories[pos.SubcategoryIndex]
	if pos.TopicIndex < 0 || pos.TopicIndex >= len(sub.Topics) {
		return "", "", "", false
	}
	return cat.Category, sub.Subcategory, sub.Topics[pos.TopicIndex].Topic, true
}

// IsValidPosition reports whether pos addresses an existing question. Use it
// to reject malformed client-submitted indices before any write.
func (t *Tree) IsValidPosition(pos models.QuestionPosition) bool {
	_, ok := t.QuestionAt(pos)
	return ok
}

// CategoryCount and friends expose the tree shape for cursor arithmetic.
func (t *Tree) CategoryCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.categories)
}

func (t *Tree) SubcategoryCount(categoryIdx int) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if categoryIdx < 0 || categoryIdx >= len(t.categories) {
		return 0
	}
	return len(t.categories[categoryIdx].Subcategories)
}

func (t *Tree) TopicCount(categoryIdx, subcategoryIdx int) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if categoryIdx < 0 || categoryIdx >= len(t.categories) {
		return 0
	}
	subs := t.categories[categoryIdx].Subcategories
	if subcategoryIdx < 0 || subcategoryIdx >= len(subs) {
		return 0
	}
	return len(subs[subcategoryIdx].Topics)
}

func (t *Tree) QuestionCount(categoryIdx, subcategoryIdx, topicIdx int) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	topic, ok := t.topicAt(categoryIdx, subcategoryIdx, topicIdx)
	if !ok {
		return 0
	}
	return len(topic.Questions)
}

// LastPosition returns the position of the very last question in the tree.
func (t *Tree) LastPosition() (models.QuestionPosition, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.categories) == 0 {
		return models.QuestionPosition{}, false
	}
	ci := len(t.categories) - 1
	cat := t.categories[ci]
	if len(cat.Subcategories) == 0 {
		return models.QuestionPosition{}, false
	}
	si := len(cat.Subcategories) - 1
	sub := cat.Subcategories[si]
	if len(sub.Topics) == 0 {
		return models.QuestionPosition{}, false
	}
	ti := len(sub.Topics) - 1
	topic := sub.Topics[ti]
	if len(topic.Questions) == 0 {
		return models.QuestionPosition{}, false
	}
	return models.QuestionPosition{
		CategoryIndex:    ci,
		SubcategoryIndex: si,
		TopicIndex:       ti,
		QuestionIndex:    len(topic.Questions) - 1,
	}, true
}

// topicAt must be called with the lock held.
func (t *Tree) topicAt(categoryIdx, subcategoryIdx, topicIdx int) (Topic, bool) {
	if categoryIdx < 0 || categoryIdx >= len(t.categories) {
		return Topic{}, false
	}
	subs := t.categories[categoryIdx].Subcategories
	if subcategoryIdx < 0 || subcategoryIdx >= len(subs) {
		return Topic{}, false
	}
	topics := subs[subcategoryIdx].Topics
	if topicIdx < 0 || topicIdx >= len(topics) {
		return Topic{}, false
	}
	return topics[topicIdx], true
}

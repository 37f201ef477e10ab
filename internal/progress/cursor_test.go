package progress

import (
	"os"
	"path/filepath"
	"testing"

	"survey-service/internal/models"
	"survey-service/internal/questions"
)

const testCatalogue = `[
  {
    "category": "Food",
    "subcategories": [
      {
        "subcategory": "Meals",
        "topics": [
          {"topic": "Breakfast", "questions": ["a", "b"]},
          {"topic": "Dinner", "questions": ["c"]}
        ]
      }
    ]
  },
  {
    "category": "Festivals",
    "subcategories": [
      {"subcategory": "Harvest", "topics": [{"topic": "Preparation", "questions": ["d"]}]},
      {"subcategory": "Weddings", "topics": [{"topic": "Customs", "questions": ["e"]}]}
    ]
  }
]`

func testTree(t *testing.T) *questions.Tree {
	t.Helper()
	path := filepath.Join(t.TempDir(), "questions.json")
	if err := os.WriteFile(path, []byte(testCatalogue), 0644); err != nil {
		t.Fatalf("Failed to write catalogue: %v", err)
	}
	return questions.Load(path)
}

func pos(c, s, topic, q int) models.QuestionPosition {
	return models.QuestionPosition{CategoryIndex: c, SubcategoryIndex: s, TopicIndex: topic, QuestionIndex: q}
}

func TestNextWalksWholeTree(t *testing.T) {
	cursor := NewCursor(testTree(t))

	want := []models.QuestionPosition{
		pos(0, 0, 0, 0),
		pos(0, 0, 0, 1),
		pos(0, 0, 1, 0),
		pos(1, 0, 0, 0),
		pos(1, 1, 0, 0),
	}
	current := want[0]
	for i := 1; i < len(want); i++ {
		next, ok := cursor.Next(current)
		if !ok {
			t.Fatalf("Unexpected end of tree at step %d", i)
		}
		if next != want[i] {
			t.Errorf("Step %d: expected %v, got %v", i, want[i], next)
		}
		current = next
	}
	if _, ok := cursor.Next(current); ok {
		t.Error("Expected ok=false after the last question")
	}
}

func TestPreviousInvertsNext(t *testing.T) {
	cursor := NewCursor(testTree(t))

	current := pos(0, 0, 0, 0)
	for {
		next, ok := cursor.Next(current)
		if !ok {
			break
		}
		if back := cursor.Previous(next); back != current {
			t.Errorf("Previous(%v): expected %v, got %v", next, current, back)
		}
		current = next
	}
}

func TestPreviousAtFirstQuestionStaysPut(t *testing.T) {
	cursor := NewCursor(testTree(t))

	first := pos(0, 0, 0, 0)
	if got := cursor.Previous(first); got != first {
		t.Errorf("Expected first position unchanged, got %v", got)
	}
}

func TestResumeFrom(t *testing.T) {
	cursor := NewCursor(testTree(t))

	testCases := []struct {
		name     string
		answered []string
		want     models.QuestionPosition
	}{
		{"nothing answered", nil, pos(0, 0, 0, 0)},
		{"first answered", []string{"0-0-0-0"}, pos(0, 0, 0, 1)},
		{"gap stays first unanswered", []string{"0-0-0-0", "0-0-1-0"}, pos(0, 0, 0, 1)},
		{"all but last", []string{"0-0-0-0", "0-0-0-1", "0-0-1-0", "1-0-0-0"}, pos(1, 1, 0, 0)},
		{"everything answered", []string{"0-0-0-0", "0-0-0-1", "0-0-1-0", "1-0-0-0", "1-1-0-0"}, pos(1, 1, 0, 0)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			answered := make(map[string]bool)
			for _, id := range tc.answered {
				answered[id] = true
			}
			if got := cursor.ResumeFrom(answered); got != tc.want {
				t.Errorf("Expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestAnsweredSetSkipsAttentionChecks(t *testing.T) {
	responses := []models.Response{
		{QuestionID: "0-0-0-0"},
		{QuestionID: "attention-check-7-0-0-0-1", IsAttentionCheck: true},
		{QuestionID: "0-0-0-1"},
	}
	answered := AnsweredSet(responses)
	if len(answered) != 2 {
		t.Errorf("Expected 2 answered questions, got %d", len(answered))
	}
	if !answered["0-0-0-0"] || !answered["0-0-0-1"] {
		t.Error("Expected regular question IDs in the set")
	}
}

package models

import (
	"fmt"
	"strconv"
	"strings"
)

// QuestionPosition addresses a single question inside the catalogue tree.
// All indices are zero-based.
type QuestionPosition struct {
	CategoryIndex    int `bson:"category_index" json:"categoryIndex"`
	SubcategoryIndex int `bson:"subcategory_index" json:"subcategoryIndex"`
	TopicIndex       int `bson:"topic_index" json:"topicIndex"`
	QuestionIndex    int `bson:"question_index" json:"questionIndex"`
}

// QuestionID returns the canonical string form "{c}-{s}-{t}-{q}".
// It is stable for the lifetime of a session and uniquely identifies a leaf.
func (p QuestionPosition) QuestionID() string {
	return fmt.Sprintf("%d-%d-%d-%d", p.CategoryIndex, p.SubcategoryIndex, p.TopicIndex, p.QuestionIndex)
}

// ParseQuestionID decodes a canonical question ID back into a position.
func ParseQuestionID(id string) (QuestionPosition, error) {
	parts := strings.Split(id, "-")
	if len(parts) != 4 {
		return QuestionPosition{}, fmt.Errorf("malformed question id %q", id)
	}
	idx := make([]int, 4)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return QuestionPosition{}, fmt.Errorf("malformed question id %q", id)
		}
		idx[i] = n
	}
	return QuestionPosition{
		CategoryIndex:    idx[0],
		SubcategoryIndex: idx[1],
		TopicIndex:       idx[2],
		QuestionIndex:    idx[3],
	}, nil
}

// attentionCheckPrefix namespaces synthetic check IDs. Tree-derived IDs are
// all digits and dashes, so the prefix can never collide with a real position.
const attentionCheckPrefix = "attention-check-"

// AttentionCheckID builds a synthetic response ID for the check shown after
// the given number of answered questions, anchored to the in-flight question.
func AttentionCheckID(answeredCount int, anchorID string) string {
	return fmt.Sprintf("%s%d-%s", attentionCheckPrefix, answeredCount, anchorID)
}

// IsAttentionCheckID reports whether id belongs to the synthetic namespace.
func IsAttentionCheckID(id string) bool {
	return strings.HasPrefix(id, attentionCheckPrefix)
}

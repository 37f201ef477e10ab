// Package progress implements the position-in-tree algebra for walking the
// survey catalogue: advancing, stepping back and resuming from saved
// responses.
package progress

import (
	"survey-service/internal/models"
	"survey-service/internal/questions"
)

// Cursor walks positions over a catalogue tree. It is stateless; the current
// position lives on the session.
type Cursor struct {
	tree *questions.Tree
}

func NewCursor(tree *questions.Tree) *Cursor {
	return &Cursor{tree: tree}
}

// Next advances one question, carrying question -> topic -> subcategory ->
// category with each overflowed index reset to zero. ok=false signals the
// survey is complete: pos was the last question of the last category.
func (c *Cursor) Next(pos models.QuestionPosition) (models.QuestionPosition, bool) {
	next := pos
	switch {
	case pos.QuestionIndex < c.tree.QuestionCount(pos.CategoryIndex, pos.SubcategoryIndex, pos.TopicIndex)-1:
		next.QuestionIndex++
	case pos.TopicIndex < c.tree.TopicCount(pos.CategoryIndex, pos.SubcategoryIndex)-1:
		next.TopicIndex++
		next.QuestionIndex = 0
	case pos.SubcategoryIndex < c.tree.SubcategoryCount(pos.CategoryIndex)-1:
		next.SubcategoryIndex++
		next.TopicIndex = 0
		next.QuestionIndex = 0
	case pos.CategoryIndex < c.tree.CategoryCount()-1:
		next.CategoryIndex++
		next.SubcategoryIndex = 0
		next.TopicIndex = 0
		next.QuestionIndex = 0
	default:
		return pos, false
	}
	return next, true
}

// Previous is the exact inverse of Next. Crossing a boundary downward lands
// on the last question of the newly entered sibling. At the very first
// question it stays put.
func (c *Cursor) Previous(pos models.QuestionPosition) models.QuestionPosition {
	prev := pos
	switch {
	case pos.QuestionIndex > 0:
		prev.QuestionIndex--
	case pos.TopicIndex > 0:
		prev.TopicIndex--
		prev.QuestionIndex = c.tree.QuestionCount(pos.CategoryIndex, pos.SubcategoryIndex, prev.TopicIndex) - 1
	case pos.SubcategoryIndex > 0:
		prev.SubcategoryIndex--
		prev.TopicIndex = c.tree.TopicCount(pos.CategoryIndex, prev.SubcategoryIndex) - 1
		prev.QuestionIndex = c.tree.QuestionCount(pos.CategoryIndex, prev.SubcategoryIndex, prev.TopicIndex) - 1
	case pos.CategoryIndex > 0:
		prev.CategoryIndex--
		prev.SubcategoryIndex = c.tree.SubcategoryCount(prev.CategoryIndex) - 1
		prev.TopicIndex = c.tree.TopicCount(prev.CategoryIndex, prev.SubcategoryIndex) - 1
		prev.QuestionIndex = c.tree.QuestionCount(prev.CategoryIndex, prev.SubcategoryIndex, prev.TopicIndex) - 1
	}
	return prev
}

// ResumeFrom scans the tree in canonical order and returns the first
// position whose question ID has no entry in answered. When everything is
// answered it returns the last question's position, never an out-of-bounds
// value. Synthetic attention-check IDs can never equal a tree-derived ID, so
// they are ignored by construction.
func (c *Cursor) ResumeFrom(answered map[string]bool) models.QuestionPosition {
	for ci := 0; ci < c.tree.CategoryCount(); ci++ {
		for si := 0; si < c.tree.SubcategoryCount(ci); si++ {
			for ti := 0; ti < c.tree.TopicCount(ci, si); ti++ {
				for qi := 0; qi < c.tree.QuestionCount(ci, si, ti); qi++ {
					pos := models.QuestionPosition{
						CategoryIndex:    ci,
						SubcategoryIndex: si,
						TopicIndex:       ti,
						QuestionIndex:    qi,
					}
					if !answered[pos.QuestionID()] {
						return pos
					}
				}
			}
		}
	}
	if last, ok := c.tree.LastPosition(); ok {
		return last
	}
	return models.QuestionPosition{}
}

// AnsweredSet builds the membership set ResumeFrom expects from stored
// responses, skipping attention checks.
func AnsweredSet(responses []models.Response) map[string]bool {
	answered := make(map[string]bool, len(responses))
	for _, r := range responses {
		if r.IsAttentionCheck || models.IsAttentionCheckID(r.QuestionID) {
			continue
		}
		answered[r.QuestionID] = true
	}
	return answered
}

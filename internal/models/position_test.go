package models

import "testing"

func TestQuestionIDRoundTrip(t *testing.T) {
	pos := QuestionPosition{CategoryIndex: 2, SubcategoryIndex: 0, TopicIndex: 5, QuestionIndex: 11}
	id := pos.QuestionID()
	if id != "2-0-5-11" {
		t.Errorf("Expected 2-0-5-11, got %s", id)
	}
	parsed, err := ParseQuestionID(id)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if parsed != pos {
		t.Errorf("Expected %v, got %v", pos, parsed)
	}
}

func TestParseQuestionIDRejectsMalformed(t *testing.T) {
	for _, id := range []string{"", "1-2-3", "1-2-3-4-5", "a-b-c-d", "1-2-3--4", "attention-check-7-0-0-0-0"} {
		if _, err := ParseQuestionID(id); err == nil {
			t.Errorf("Expected error for %q", id)
		}
	}
}

func TestAttentionCheckIDNamespace(t *testing.T) {
	id := AttentionCheckID(7, "0-0-1-2")
	if id != "attention-check-7-0-0-1-2" {
		t.Errorf("Unexpected synthetic ID %s", id)
	}
	if !IsAttentionCheckID(id) {
		t.Error("Expected synthetic ID to be recognized")
	}
	if IsAttentionCheckID("0-0-1-2") {
		t.Error("Tree-derived IDs must never look like checks")
	}
}

func TestParseRegion(t *testing.T) {
	testCases := []struct {
		in     string
		want   Region
		wantOK bool
	}{
		{"north", RegionNorth, true},
		{"  South ", RegionSouth, true},
		{"CENTRAL", RegionCentral, true},
		{"rajasthan", "", false},
		{"", "", false},
	}
	for _, tc := range testCases {
		got, ok := ParseRegion(tc.in)
		if ok != tc.wantOK || got != tc.want {
			t.Errorf("ParseRegion(%q): expected (%q, %v), got (%q, %v)", tc.in, tc.want, tc.wantOK, got, ok)
		}
	}
}

func TestValidParticipantID(t *testing.T) {
	testCases := []struct {
		id   string
		want bool
	}{
		{"abc123abc123abc123abc123", true},
		{"ABCDEFGHIJKLMNOPQRSTUVWX", true},
		{"abc123abc123abc123abc12", false},   // 23 chars
		{"abc123abc123abc123abc1234", false}, // 25 chars
		{"abc123abc123abc123abc12!", false},
		{"", false},
	}
	for _, tc := range testCases {
		if got := ValidParticipantID(tc.id); got != tc.want {
			t.Errorf("ValidParticipantID(%q): expected %v, got %v", tc.id, tc.want, got)
		}
	}
}

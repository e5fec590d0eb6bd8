package session

import (
	"testing"
)

func TestAnswerStoreLastWriteWins(t *testing.T) {
	store := NewAnswerStore()

	store.Set("q1", "c1")
	store.Set("q1", "c2")

	v, ok := store.Get("q1")
	if !ok || v != "c2" {
		t.Fatalf("expected c2, got %q (ok=%v)", v, ok)
	}
	if store.AnsweredCount() != 1 {
		t.Fatalf("expected 1 answered, got %d", store.AnsweredCount())
	}
}

func TestAnswerStoreEmptyValueClears(t *testing.T) {
	store := NewAnswerStore()

	store.Set("q3", "draft text")
	store.Set("q3", "")

	if _, ok := store.Get("q3"); ok {
		t.Fatalf("expected q3 to be cleared")
	}
	if store.AnsweredCount() != 0 {
		t.Fatalf("expected 0 answered, got %d", store.AnsweredCount())
	}
}

func TestAnswerStoreUnansweredKeepsListOrder(t *testing.T) {
	store := NewAnswerStore()
	questions := testQuestions()

	store.Set("q2", "true")

	missing := store.Unanswered(questions)
	if len(missing) != 2 || missing[0] != "q1" || missing[1] != "q3" {
		t.Fatalf("expected [q1 q3], got %v", missing)
	}
}

func TestAnswerStoreSnapshotIsACopy(t *testing.T) {
	store := NewAnswerStore()
	store.Set("q1", "c1")

	snap := store.Snapshot()
	snap["q1"] = "mutated"

	if v, _ := store.Get("q1"); v != "c1" {
		t.Fatalf("snapshot mutation leaked into store: %q", v)
	}
}

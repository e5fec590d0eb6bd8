package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// AttemptMetaKey returns the cache key for a student's live attempt metadata
// (attempt id, quiz id, bearer token, deadline).
func (r *CacheKeyStruct) AttemptMetaKey(studentID int) string {
	return fmt.Sprintf("student:%d:attempt:meta", studentID)
}

// AttemptAnswersKey returns the cache key for a student's autosaved answers.
func (r *CacheKeyStruct) AttemptAnswersKey(studentID int) string {
	return fmt.Sprintf("student:%d:attempt:answers", studentID)
}

// DeadlineIndexKey returns the sorted-set key indexing live attempts by
// their forced-submission deadline (score = unix seconds, member = student id).
func (r *CacheKeyStruct) DeadlineIndexKey() string {
	return "attempt:deadlines"
}

var CacheKey = NewCacheKeyStruct()

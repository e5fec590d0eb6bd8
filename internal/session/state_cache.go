package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Rech03/CES-sub001/internal/config"
)

// StateCache mirrors live session state into Redis so a page reload can
// recover the attempt and so the reaper can finish sessions orphaned by a
// service restart. The in-memory session is always the source of truth;
// every write here is best-effort and must never block the session loop.
type StateCache struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewStateCache creates a cache backed by the given Redis client.
func NewStateCache(rdb *redis.Client, log zerolog.Logger) *StateCache {
	return &StateCache{
		rdb: rdb,
		log: log.With().Str("component", "state_cache").Logger(),
	}
}

// SessionMeta is the recovery record for one live attempt.
type SessionMeta struct {
	StudentID int
	AttemptID string
	QuizID    string
	Token     string
	Deadline  time.Time
}

// SaveMeta records the attempt metadata and indexes its deadline. Any answer
// mirror left over from an earlier attempt is dropped first, so the record
// always describes a fresh attempt.
func (c *StateCache) SaveMeta(ctx context.Context, meta SessionMeta) error {
	if err := c.rdb.Del(ctx, config.CacheKey.AttemptAnswersKey(meta.StudentID)).Err(); err != nil {
		return fmt.Errorf("reset answer mirror: %w", err)
	}

	key := config.CacheKey.AttemptMetaKey(meta.StudentID)
	if err := c.rdb.HSet(ctx, key,
		"attempt_id", meta.AttemptID,
		"quiz_id", meta.QuizID,
		"token", meta.Token,
		"deadline", meta.Deadline.Unix(),
	).Err(); err != nil {
		return fmt.Errorf("save attempt meta: %w", err)
	}

	if err := c.rdb.ZAdd(ctx, config.CacheKey.DeadlineIndexKey(), redis.Z{
		Score:  float64(meta.Deadline.Unix()),
		Member: strconv.Itoa(meta.StudentID),
	}).Err(); err != nil {
		return fmt.Errorf("index attempt deadline: %w", err)
	}
	return nil
}

// Meta loads the recovery record for a student. Returns nil when none exists.
func (c *StateCache) Meta(ctx context.Context, studentID int) (*SessionMeta, error) {
	fields, err := c.rdb.HGetAll(ctx, config.CacheKey.AttemptMetaKey(studentID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get attempt meta: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	deadlineUnix, err := strconv.ParseInt(fields["deadline"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid deadline in attempt meta: %w", err)
	}

	return &SessionMeta{
		StudentID: studentID,
		AttemptID: fields["attempt_id"],
		QuizID:    fields["quiz_id"],
		Token:     fields["token"],
		Deadline:  time.Unix(deadlineUnix, 0),
	}, nil
}

// SaveAnswer mirrors one answer write. An empty value removes the field.
func (c *StateCache) SaveAnswer(ctx context.Context, studentID int, questionID, value string) error {
	key := config.CacheKey.AttemptAnswersKey(studentID)
	if value == "" {
		return c.rdb.HDel(ctx, key, questionID).Err()
	}
	return c.rdb.HSet(ctx, key, questionID, value).Err()
}

// Answers returns the mirrored answer map for a student.
func (c *StateCache) Answers(ctx context.Context, studentID int) (map[string]string, error) {
	answers, err := c.rdb.HGetAll(ctx, config.CacheKey.AttemptAnswersKey(studentID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get autosaved answers: %w", err)
	}
	return answers, nil
}

// Clear removes all recovery state for a student's attempt.
func (c *StateCache) Clear(ctx context.Context, studentID int) error {
	if err := c.rdb.Del(ctx,
		config.CacheKey.AttemptMetaKey(studentID),
		config.CacheKey.AttemptAnswersKey(studentID),
	).Err(); err != nil {
		return fmt.Errorf("clear attempt state: %w", err)
	}
	return c.rdb.ZRem(ctx, config.CacheKey.DeadlineIndexKey(), strconv.Itoa(studentID)).Err()
}

// ExpiredSessions returns the student ids whose attempt deadline has passed.
func (c *StateCache) ExpiredSessions(ctx context.Context, now time.Time) ([]int, error) {
	members, err := c.rdb.ZRangeByScore(ctx, config.CacheKey.DeadlineIndexKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("scan deadline index: %w", err)
	}

	ids := make([]int, 0, len(members))
	for _, m := range members {
		id, err := strconv.Atoi(m)
		if err != nil {
			c.log.Warn().Str("member", m).Msg("Dropping malformed deadline index member")
			c.rdb.ZRem(ctx, config.CacheKey.DeadlineIndexKey(), m)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

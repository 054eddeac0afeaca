package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/vnit-lms/lms-service/internal/cache"
	"github.com/vnit-lms/lms-service/internal/models"
	"github.com/vnit-lms/lms-service/internal/repositories"
	"github.com/vnit-lms/lms-service/internal/utils"
)

// LeaderboardEntry is one ranked row. IsCurrentUser is set per viewer after
// the shared ranking is computed, so the ranking itself is cacheable.
type LeaderboardEntry struct {
	Rank          int        `json:"rank"`
	StudentID     string     `json:"studentId"`
	StudentName   string     `json:"studentName"`
	StudentEmail  string     `json:"studentEmail"`
	TotalScore    float64    `json:"totalScore"`
	TotalPoints   float64    `json:"totalPoints"`
	Percentage    float64    `json:"percentage"`
	TimeSpent     int        `json:"timeSpent"`
	SubmittedAt   *time.Time `json:"submittedAt"`
	IsCurrentUser bool       `json:"isCurrentUser"`
}

type LeaderboardResponse struct {
	QuizTitle   string             `json:"quizTitle"`
	TotalPoints float64            `json:"totalPoints"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, quizID uint, userID string) (*LeaderboardResponse, error)
}

type leaderboardService struct {
	repo     repositories.Repository
	logger   utils.Logger
	cache    cache.CacheService
	cacheTTL time.Duration
}

func NewLeaderboardService(repo repositories.Repository, logger utils.Logger, cacheService cache.CacheService, cacheTTL time.Duration) LeaderboardService {
	return &leaderboardService{
		repo:     repo,
		logger:   logger,
		cache:    cacheService,
		cacheTTL: cacheTTL,
	}
}

func (s *leaderboardService) GetLeaderboard(ctx context.Context, quizID uint, userID string) (*LeaderboardResponse, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	if err := s.checkAccess(ctx, quiz, userID); err != nil {
		return nil, err
	}

	entries, err := s.rankedEntries(ctx, quiz)
	if err != nil {
		return nil, err
	}

	for i := range entries {
		entries[i].IsCurrentUser = entries[i].StudentID == userID
	}

	return &LeaderboardResponse{
		QuizTitle:   quiz.Title,
		TotalPoints: quiz.TotalPoints,
		Leaderboard: entries,
	}, nil
}

func (s *leaderboardService) checkAccess(ctx context.Context, quiz *models.Quiz, userID string) error {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUnauthorized
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if user.Role.IsPrivileged() {
		return nil
	}

	enrolled, err := s.repo.Course().IsEnrolled(ctx, quiz.CourseID, userID)
	if err != nil {
		return fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return ErrLeaderboardDenied
	}
	return nil
}

// rankedEntries returns the viewer-independent ranking, served from cache
// when possible.
func (s *leaderboardService) rankedEntries(ctx context.Context, quiz *models.Quiz) ([]LeaderboardEntry, error) {
	key := leaderboardCacheKey(quiz.ID)

	if s.cache != nil {
		var cached []LeaderboardEntry
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Leaderboard cache read failed", "quiz_id", quiz.ID, "error", err)
		}
	}

	attempts, err := s.repo.Attempt().GetGradedByQuiz(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempts: %w", err)
	}

	entries := rankAttempts(attempts, quiz.TotalPoints)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, entries, s.cacheTTL); err != nil {
			s.logger.Warn("Leaderboard cache write failed", "quiz_id", quiz.ID, "error", err)
		}
	}
	return entries, nil
}

// rankAttempts orders graded attempts and assigns competition ranks.
//
// Sort keys, in order: totalScore desc, percentage desc, timeSpent asc,
// submittedAt asc. Two attempts share a rank only when totalScore and
// percentage are both equal; the next distinct pair resumes at its positional
// rank, leaving a gap after ties.
func rankAttempts(attempts []*models.QuizAttempt, totalPoints float64) []LeaderboardEntry {
	sorted := make([]*models.QuizAttempt, len(attempts))
	copy(sorted, attempts)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		if a.Percentage != b.Percentage {
			return a.Percentage > b.Percentage
		}
		if a.TimeSpent != b.TimeSpent {
			return a.TimeSpent < b.TimeSpent
		}
		return earlier(a.SubmittedAt, b.SubmittedAt)
	})

	entries := make([]LeaderboardEntry, len(sorted))
	for i, attempt := range sorted {
		rank := i + 1
		if i > 0 &&
			attempt.TotalScore == sorted[i-1].TotalScore &&
			attempt.Percentage == sorted[i-1].Percentage {
			rank = entries[i-1].Rank
		}

		entries[i] = LeaderboardEntry{
			Rank:         rank,
			StudentID:    attempt.StudentID,
			StudentName:  attempt.Student.Name,
			StudentEmail: attempt.Student.Email,
			TotalScore:   attempt.TotalScore,
			TotalPoints:  totalPoints,
			Percentage:   attempt.Percentage,
			TimeSpent:    attempt.TimeSpent,
			SubmittedAt:  attempt.SubmittedAt,
		}
	}
	return entries
}

func earlier(a, b *time.Time) bool {
	if a == nil || b == nil {
		return b == nil && a != nil
	}
	return a.Before(*b)
}

func leaderboardCacheKey(quizID uint) string {
	return fmt.Sprintf("quiz:%d:leaderboard", quizID)
}

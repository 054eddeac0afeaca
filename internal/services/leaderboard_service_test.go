package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vnit-lms/lms-service/internal/models"
	"github.com/vnit-lms/lms-service/internal/utils"
)

func gradedAttempt(studentID string, score, percentage float64, timeSpent int, submittedAt time.Time) *models.QuizAttempt {
	return &models.QuizAttempt{
		QuizID:      1,
		StudentID:   studentID,
		TotalScore:  score,
		Percentage:  percentage,
		TimeSpent:   timeSpent,
		SubmittedAt: &submittedAt,
		IsGraded:    true,
		Student:     models.User{ID: studentID, Name: "Student " + studentID, Email: studentID + "@example.com"},
	}
}

func TestRankAttemptsCompetitionRanking(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// Two students tie at 8/10; the tie collapses the rank and the next
	// distinct score resumes at its positional rank.
	attempts := []*models.QuizAttempt{
		gradedAttempt("s3", 7, 70, 100, base),
		gradedAttempt("s1", 8, 80, 200, base),
		gradedAttempt("s2", 8, 80, 120, base),
	}

	entries := rankAttempts(attempts, 10)

	require.Len(t, entries, 3)
	assert.Equal(t, "s2", entries[0].StudentID) // faster of the tied pair
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "s1", entries[1].StudentID)
	assert.Equal(t, 1, entries[1].Rank)
	assert.Equal(t, "s3", entries[2].StudentID)
	assert.Equal(t, 3, entries[2].Rank)
}

func TestRankAttemptsTieBreakers(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	attempts := []*models.QuizAttempt{
		gradedAttempt("slow", 5, 50, 300, base),
		gradedAttempt("late", 5, 50, 100, base.Add(time.Hour)),
		gradedAttempt("early", 5, 50, 100, base),
	}

	entries := rankAttempts(attempts, 10)

	require.Len(t, entries, 3)
	assert.Equal(t, "early", entries[0].StudentID)
	assert.Equal(t, "late", entries[1].StudentID)
	assert.Equal(t, "slow", entries[2].StudentID)
	// Same score and percentage throughout, so everyone shares rank 1.
	for _, e := range entries {
		assert.Equal(t, 1, e.Rank)
	}
}

func TestRankAttemptsPercentageBreaksScoreTie(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// Equal raw scores on quizzes count as tied only when the percentage
	// matches too.
	attempts := []*models.QuizAttempt{
		gradedAttempt("low", 8, 40, 100, base),
		gradedAttempt("high", 8, 80, 100, base),
	}

	entries := rankAttempts(attempts, 20)

	assert.Equal(t, "high", entries[0].StudentID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "low", entries[1].StudentID)
	assert.Equal(t, 2, entries[1].Rank)
}

func TestGetLeaderboardMarksCurrentUser(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	quiz := &models.Quiz{ID: 1, CourseID: 10, Title: "Networking Basics", TotalPoints: 10}

	repo := NewMockRepository()
	repo.quiz.On("GetByID", mock.Anything, uint(1)).Return(quiz, nil)
	repo.user.On("GetByID", mock.Anything, "s1").
		Return(&models.User{ID: "s1", Role: models.RoleStudent}, nil)
	repo.course.On("IsEnrolled", mock.Anything, uint(10), "s1").Return(true, nil)
	repo.attempt.On("GetGradedByQuiz", mock.Anything, uint(1)).Return([]*models.QuizAttempt{
		gradedAttempt("s1", 8, 80, 120, base),
		gradedAttempt("s2", 9, 90, 100, base),
	}, nil)

	svc := NewLeaderboardService(repo, utils.NewDevelopmentLogger(), nil, time.Minute)

	result, err := svc.GetLeaderboard(context.Background(), 1, "s1")

	require.NoError(t, err)
	assert.Equal(t, "Networking Basics", result.QuizTitle)
	assert.Equal(t, 10.0, result.TotalPoints)
	require.Len(t, result.Leaderboard, 2)
	assert.False(t, result.Leaderboard[0].IsCurrentUser)
	assert.True(t, result.Leaderboard[1].IsCurrentUser)
}

func TestGetLeaderboardDeniedForOutsider(t *testing.T) {
	quiz := &models.Quiz{ID: 1, CourseID: 10, Title: "Networking Basics"}

	repo := NewMockRepository()
	repo.quiz.On("GetByID", mock.Anything, uint(1)).Return(quiz, nil)
	repo.user.On("GetByID", mock.Anything, "outsider").
		Return(&models.User{ID: "outsider", Role: models.RoleStudent}, nil)
	repo.course.On("IsEnrolled", mock.Anything, uint(10), "outsider").Return(false, nil)

	svc := NewLeaderboardService(repo, utils.NewDevelopmentLogger(), nil, time.Minute)

	_, err := svc.GetLeaderboard(context.Background(), 1, "outsider")

	assert.ErrorIs(t, err, ErrLeaderboardDenied)
}

func TestGetLeaderboardAllowsProfessor(t *testing.T) {
	quiz := &models.Quiz{ID: 1, CourseID: 10, Title: "Networking Basics"}

	repo := NewMockRepository()
	repo.quiz.On("GetByID", mock.Anything, uint(1)).Return(quiz, nil)
	repo.user.On("GetByID", mock.Anything, "prof-1").
		Return(&models.User{ID: "prof-1", Role: models.RoleProfessor}, nil)
	repo.attempt.On("GetGradedByQuiz", mock.Anything, uint(1)).Return([]*models.QuizAttempt{}, nil)

	svc := NewLeaderboardService(repo, utils.NewDevelopmentLogger(), nil, time.Minute)

	result, err := svc.GetLeaderboard(context.Background(), 1, "prof-1")

	require.NoError(t, err)
	assert.Empty(t, result.Leaderboard)
	repo.course.AssertNotCalled(t, "IsEnrolled", mock.Anything, mock.Anything, mock.Anything)
}

package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/model"
	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/repository"
)

type mockTokenRepo struct {
	deleteExpiredCount int64
	calls              atomic.Int64
}

func (m *mockTokenRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.SessionJoinToken, error) {
	return nil, nil
}

func (m *mockTokenRepo) Create(ctx context.Context, params model.CreateJoinTokenParams) (*model.SessionJoinToken, error) {
	return nil, nil
}

func (m *mockTokenRepo) Redeem(ctx context.Context, tokenHash string, usedAt time.Time) (*model.SessionJoinToken, error) {
	return nil, nil
}

func (m *mockTokenRepo) DeleteExpiredUnused(ctx context.Context) (int64, error) {
	m.calls.Add(1)
	return m.deleteExpiredCount, nil
}

func (m *mockTokenRepo) WithTx(tx *sqlx.Tx) repository.JoinTokenRepository {
	return m
}

func TestCleanupJob(t *testing.T) {
	t.Run("creates job with correct interval", func(t *testing.T) {
		job := NewCleanupJob(nil, 5*time.Minute)

		assert.NotNil(t, job)
		assert.Equal(t, 5*time.Minute, job.interval)
	})

	t.Run("runs cleanup on start and stops cleanly", func(t *testing.T) {
		tokenRepo := &mockTokenRepo{deleteExpiredCount: 3}

		job := NewCleanupJob(tokenRepo, 1*time.Hour)

		job.Start()
		time.Sleep(20 * time.Millisecond)
		job.Stop()

		assert.Equal(t, int64(1), tokenRepo.calls.Load())
	})

	t.Run("runs cleanup on each tick", func(t *testing.T) {
		tokenRepo := &mockTokenRepo{}

		job := NewCleanupJob(tokenRepo, 20*time.Millisecond)

		job.Start()
		time.Sleep(70 * time.Millisecond)
		job.Stop()

		assert.GreaterOrEqual(t, tokenRepo.calls.Load(), int64(2))
	})
}

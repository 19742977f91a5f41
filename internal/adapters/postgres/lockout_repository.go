package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brightpath-studio/backoffice/internal/domain"
	"github.com/brightpath-studio/backoffice/internal/ports"
)

// LockoutRepository owns the failed_logins counters and the progressive
// lockout decision. Every mutation runs under a row lock so two racing
// failures at the threshold cannot both skip the lock.
type LockoutRepository struct {
	db *gorm.DB
}

var _ ports.LockoutRepository = (*LockoutRepository)(nil)

func (r *LockoutRepository) Status(ctx context.Context, identifier string, now time.Time) (domain.LockStatus, error) {
	var m failedLoginModel
	err := r.db.WithContext(ctx).Where("identifier = ?", identifier).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.LockStatus{}, nil
		}
		return domain.LockStatus{}, err
	}
	return lockStatusAt(m, now), nil
}

// RecordFailure increments the windowed counter and applies a lock when the
// threshold is crossed. Lock duration doubles with each prior lockout of the
// same identifier, capped at policy.MaxLockout.
func (r *LockoutRepository) RecordFailure(ctx context.Context, identifier string, now time.Time, policy ports.LockoutPolicy) (domain.LockStatus, error) {
	var status domain.LockStatus
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m failedLoginModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("identifier = ?", identifier).
			First(&m).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			m = failedLoginModel{Identifier: identifier, WindowStart: now}
		case err != nil:
			return err
		}

		if m.LockedUntil != nil && now.Before(*m.LockedUntil) {
			status = lockStatusAt(m, now)
			return nil
		}

		if now.Sub(m.WindowStart) > policy.Window {
			m.AttemptCount = 0
			m.WindowStart = now
		}
		m.AttemptCount++

		if m.AttemptCount >= policy.Threshold {
			until := now.Add(lockoutDuration(policy, m.LockoutCount))
			m.LockedUntil = &until
			m.LockoutCount++
			m.AttemptCount = 0
			m.WindowStart = now
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "identifier"}},
			UpdateAll: true,
		}).Create(&m).Error; err != nil {
			return err
		}
		status = lockStatusAt(m, now)
		return nil
	})
	if err != nil {
		return domain.LockStatus{}, err
	}
	return status, nil
}

// RecordSuccess clears the attempt window but keeps LockoutCount, so an
// attacker cannot reset the escalation ladder by occasionally guessing right.
func (r *LockoutRepository) RecordSuccess(ctx context.Context, identifier string) error {
	return r.db.WithContext(ctx).
		Model(&failedLoginModel{}).
		Where("identifier = ?", identifier).
		Updates(map[string]any{
			"attempt_count": 0,
			"locked_until":  nil,
		}).Error
}

func (r *LockoutRepository) PurgeStale(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("window_start < ? AND (locked_until IS NULL OR locked_until < ?)", before, before).
		Delete(&failedLoginModel{})
	return res.RowsAffected, res.Error
}

func lockStatusAt(m failedLoginModel, now time.Time) domain.LockStatus {
	if m.LockedUntil == nil || !now.Before(*m.LockedUntil) {
		return domain.LockStatus{}
	}
	return domain.LockStatus{
		Locked:    true,
		Until:     *m.LockedUntil,
		Remaining: m.LockedUntil.Sub(now),
	}
}

func lockoutDuration(policy ports.LockoutPolicy, priorLockouts int) time.Duration {
	d := policy.BaseLockout
	for i := 0; i < priorLockouts; i++ {
		d *= 2
		if d >= policy.MaxLockout {
			return policy.MaxLockout
		}
	}
	if policy.MaxLockout > 0 && d > policy.MaxLockout {
		return policy.MaxLockout
	}
	return d
}

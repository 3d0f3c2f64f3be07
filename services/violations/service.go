package violations

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"sekolahku_go/config"
	"sekolahku_go/database"
	"sekolahku_go/models"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Queue item structure stored in Redis. Kept minimal: the DB row is the
// source of truth, the queue only decouples the attendance write from the
// violation write. If Redis is down the service falls back to a direct
// insert so the side-channel still works, just synchronously.

type queuedViolation struct {
	StudentID   uint      `json:"student_id"`
	Kind        string    `json:"kind"`
	MinutesLate int       `json:"minutes_late"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

const redisListKey = "violations:queue"

// KindLateAttendance is the violation kind emitted by the attendance engine.
const KindLateAttendance = "late_attendance"

// Service writes violation rows, optionally through a Redis outbox queue.
type Service struct {
	db       *gorm.DB
	redis    *redis.Client
	useRedis bool
}

func NewService() *Service {
	return &Service{
		db:       database.GetDB(),
		redis:    database.GetRedisClient(),
		useRedis: config.AppConfig != nil && config.AppConfig.UseRedisViolations && database.GetRedisClient() != nil,
	}
}

// EnqueueLateAttendance queues a late-attendance violation for the student.
// Satisfies the attendance engine's ViolationSink.
func (s *Service) EnqueueLateAttendance(studentID uint, minutesLate int) error {
	return s.enqueueOrCreate(queuedViolation{
		StudentID:   studentID,
		Kind:        KindLateAttendance,
		MinutesLate: minutesLate,
	})
}

func (s *Service) enqueueOrCreate(v queuedViolation) error {
	if v.StudentID == 0 {
		return errors.New("missing student id")
	}
	v.CreatedAt = time.Now().UTC()

	if s.useRedis {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if err = s.redis.RPush(context.Background(), redisListKey, b).Err(); err == nil {
			return nil // queued successfully
		} else {
			log.Printf("[violations] Redis queue failed, falling back to direct insert: %v", err)
		}
	}

	// fallback: direct db insert
	return s.createDirect(v)
}

// createDirect writes the violation row (used by the worker or fallback).
func (s *Service) createDirect(v queuedViolation) error {
	row := models.Violation{
		StudentID:   v.StudentID,
		Kind:        v.Kind,
		MinutesLate: v.MinutesLate,
		Notes:       v.Notes,
		Status:      "open",
	}
	return s.db.Create(&row).Error
}

// StartWorker starts a background worker polling the Redis queue and
// flushing violations to the database.
func (s *Service) StartWorker(stop <-chan struct{}) {
	if !s.useRedis {
		log.Println("[violations] Redis outbox disabled; worker not started")
		return
	}
	go func() {
		log.Println("[violations] Redis outbox worker started")
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		ctx := context.Background()
		batchSize := 200
		for {
			select {
			case <-stop:
				log.Println("[violations] Worker stopping")
				return
			case <-ticker.C:
				s.flushBatch(ctx, batchSize)
			}
		}
	}()
}

// flushBatch drains up to a few sub-batches from the queue per tick.
func (s *Service) flushBatch(ctx context.Context, batchSize int) {
	if s.redis == nil {
		return
	}
	for i := 0; i < 5; i++ {
		vals, err := s.redis.LRange(ctx, redisListKey, 0, int64(batchSize-1)).Result()
		if err != nil || len(vals) == 0 {
			return
		}
		// Trim immediately to avoid duplicates (best-effort)
		if err = s.redis.LTrim(ctx, redisListKey, int64(len(vals)), -1).Err(); err != nil {
			log.Printf("[violations] LTrim failed: %v", err)
		}
		for _, raw := range vals {
			var q queuedViolation
			if err := json.Unmarshal([]byte(raw), &q); err != nil {
				continue
			}
			if err := s.createDirect(q); err != nil {
				log.Printf("[violations] DB insert failed: %v", err)
			}
		}
		if len(vals) < batchSize {
			return
		}
	}
}

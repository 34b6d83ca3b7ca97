package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"assignment-management-api/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// MailerQueueName is the queue deadline reminders are scheduled on.
const MailerQueueName = "mailers"

// MailJob is a scheduled deadline reminder.
type MailJob struct {
	ID           string              `json:"jid"`
	Queue        string              `json:"queue"`
	AssignmentID int                 `json:"assignment_id"`
	DueDateID    int                 `json:"due_date_id"`
	DeadlineType models.DeadlineType `json:"deadline_type_id"`
	DueAt        time.Time           `json:"due_at"`
	RunAt        time.Time           `json:"run_at"`
	CreatedAt    time.Time           `json:"created_at"`
}

// MailQueue schedules reminder jobs for later delivery.
type MailQueue interface {
	Enqueue(ctx context.Context, job MailJob) (string, error)
	ListForAssignment(ctx context.Context, assignmentID int) ([]MailJob, error)
	// Delete removes a job and reports whether it existed.
	Delete(ctx context.Context, jobID string) (bool, error)
	DeleteForAssignment(ctx context.Context, assignmentID int) (int, error)
	// PopDue claims up to limit jobs whose run time is not after now.
	PopDue(ctx context.Context, now time.Time, limit int) ([]MailJob, error)
}

func prepareJob(job *MailJob) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Queue == "" {
		job.Queue = MailerQueueName
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
}

// ---------- Redis ----------

// RedisMailQueue keeps job payloads in a hash and their run times in a sorted set.
type RedisMailQueue struct {
	client      *redis.Client
	jobsKey     string
	scheduleKey string
}

func NewRedisMailQueue(client *redis.Client, queue string) *RedisMailQueue {
	if queue == "" {
		queue = MailerQueueName
	}
	return &RedisMailQueue{
		client:      client,
		jobsKey:     "queue:" + queue + ":jobs",
		scheduleKey: "queue:" + queue + ":schedule",
	}
}

func (q *RedisMailQueue) Enqueue(ctx context.Context, job MailJob) (string, error) {
	prepareJob(&job)
	payload, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to encode mail job: %w", err)
	}
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, q.jobsKey, job.ID, payload)
		pipe.ZAdd(ctx, q.scheduleKey, redis.Z{Score: float64(job.RunAt.Unix()), Member: job.ID})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to enqueue mail job: %w", err)
	}
	return job.ID, nil
}

func (q *RedisMailQueue) ListForAssignment(ctx context.Context, assignmentID int) ([]MailJob, error) {
	raw, err := q.client.HGetAll(ctx, q.jobsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read mail jobs: %w", err)
	}
	jobs := make([]MailJob, 0)
	for _, payload := range raw {
		var job MailJob
		if err := json.Unmarshal([]byte(payload), &job); err != nil {
			continue
		}
		if job.AssignmentID == assignmentID {
			jobs = append(jobs, job)
		}
	}
	sortJobs(jobs)
	return jobs, nil
}

func (q *RedisMailQueue) Delete(ctx context.Context, jobID string) (bool, error) {
	var removed *redis.IntCmd
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.HDel(ctx, q.jobsKey, jobID)
		pipe.ZRem(ctx, q.scheduleKey, jobID)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete mail job %s: %w", jobID, err)
	}
	return removed.Val() > 0, nil
}

func (q *RedisMailQueue) DeleteForAssignment(ctx context.Context, assignmentID int) (int, error) {
	jobs, err := q.ListForAssignment(ctx, assignmentID)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, job := range jobs {
		ok, err := q.Delete(ctx, job.ID)
		if err != nil {
			return deleted, err
		}
		if ok {
			deleted++
		}
	}
	return deleted, nil
}

func (q *RedisMailQueue) PopDue(ctx context.Context, now time.Time, limit int) ([]MailJob, error) {
	if limit <= 0 {
		limit = 50
	}
	ids, err := q.client.ZRangeByScore(ctx, q.scheduleKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read mail schedule: %w", err)
	}

	jobs := make([]MailJob, 0, len(ids))
	for _, id := range ids {
		// ZREM decides which worker owns the job.
		claimed, err := q.client.ZRem(ctx, q.scheduleKey, id).Result()
		if err != nil {
			return jobs, fmt.Errorf("failed to claim mail job %s: %w", id, err)
		}
		if claimed == 0 {
			continue
		}
		payload, err := q.client.HGet(ctx, q.jobsKey, id).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return jobs, fmt.Errorf("failed to load mail job %s: %w", id, err)
		}
		q.client.HDel(ctx, q.jobsKey, id)

		var job MailJob
		if err := json.Unmarshal([]byte(payload), &job); err != nil {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// ---------- in-memory ----------

// MemoryMailQueue is an in-process MailQueue for local runs and tests.
type MemoryMailQueue struct {
	mu   sync.Mutex
	jobs map[string]MailJob
}

func NewMemoryMailQueue() *MemoryMailQueue {
	return &MemoryMailQueue{jobs: map[string]MailJob{}}
}

func (q *MemoryMailQueue) Enqueue(_ context.Context, job MailJob) (string, error) {
	prepareJob(&job)
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs[job.ID] = job
	return job.ID, nil
}

func (q *MemoryMailQueue) ListForAssignment(_ context.Context, assignmentID int) ([]MailJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	jobs := make([]MailJob, 0)
	for _, job := range q.jobs {
		if job.AssignmentID == assignmentID {
			jobs = append(jobs, job)
		}
	}
	sortJobs(jobs)
	return jobs, nil
}

func (q *MemoryMailQueue) Delete(_ context.Context, jobID string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.jobs[jobID]
	delete(q.jobs, jobID)
	return ok, nil
}

func (q *MemoryMailQueue) DeleteForAssignment(_ context.Context, assignmentID int) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	deleted := 0
	for id, job := range q.jobs {
		if job.AssignmentID == assignmentID {
			delete(q.jobs, id)
			deleted++
		}
	}
	return deleted, nil
}

func (q *MemoryMailQueue) PopDue(_ context.Context, now time.Time, limit int) ([]MailJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	due := make([]MailJob, 0)
	for _, job := range q.jobs {
		if !job.RunAt.After(now) {
			due = append(due, job)
		}
	}
	sortJobs(due)
	if len(due) > limit {
		due = due[:limit]
	}
	for _, job := range due {
		delete(q.jobs, job.ID)
	}
	return due, nil
}

func sortJobs(jobs []MailJob) {
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].RunAt.Equal(jobs[j].RunAt) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].RunAt.Before(jobs[j].RunAt)
	})
}

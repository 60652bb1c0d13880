package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// TaskOrphan asks the worker to delete a single blob no record points at.
	TaskOrphan = "orphan"
	// TaskSweep asks the worker to reconcile every folder against the records.
	TaskSweep = "sweep"
)

type Task struct {
	Type     string    `json:"type"`
	BlobID   string    `json:"blobId,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	QueuedAt time.Time `json:"queuedAt"`
}

func (t Task) values() map[string]any {
	values := map[string]any{
		"type":     t.Type,
		"queuedAt": t.QueuedAt.UTC().Format(time.RFC3339Nano),
	}
	if t.BlobID != "" {
		values["blobId"] = t.BlobID
	}
	if t.Reason != "" {
		values["reason"] = t.Reason
	}
	return values
}

// ParseTask decodes a stream entry written by Producer.
func ParseTask(msg redis.XMessage) (Task, error) {
	raw, err := json.Marshal(msg.Values)
	if err != nil {
		return Task{}, err
	}
	var task Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return Task{}, fmt.Errorf("decode task %s: %w", msg.ID, err)
	}
	return task, nil
}

type Producer struct {
	client *redis.Client
	stream string
	now    func() time.Time
}

func NewProducer(client *redis.Client, stream string) *Producer {
	return &Producer{client: client, stream: stream, now: time.Now}
}

// Enqueue appends the tasks to the stream in one round trip.
func (p *Producer) Enqueue(ctx context.Context, tasks ...Task) error {
	if p == nil || p.client == nil || len(tasks) == 0 {
		return nil
	}

	pipe := p.client.Pipeline()
	for _, task := range tasks {
		if task.QueuedAt.IsZero() {
			task.QueuedAt = p.now()
		}
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: p.stream,
			Values: task.values(),
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enqueue %d task(s) on %s: %w", len(tasks), p.stream, err)
	}
	return nil
}

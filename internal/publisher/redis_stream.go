package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoadStream is the stream load events are appended to.
const LoadStream = "warehouse.loads"

// Load event types.
const (
	EventFileLoaded   = "file_loaded"
	EventFileFailed   = "file_failed"
	EventRunCompleted = "run_completed"
	EventRunFailed    = "run_failed"
)

// LoadEvent is the payload published for every loaded or failed file and at
// the end of each run.
type LoadEvent struct {
	Type     string `json:"type"`
	Table    string `json:"table,omitempty"`
	Season   int    `json:"season,omitempty"`
	Path     string `json:"path,omitempty"`
	Inserted int    `json:"inserted"`
	Updated  int    `json:"updated"`
	Failed   int    `json:"failed,omitempty"`
	Error    string `json:"error,omitempty"`
}

// RedisStreamPublisher publishes events to Redis streams
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
}

// NewRedisStreamPublisher creates a new Redis stream publisher from existing client
func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
		stream: LoadStream,
	}
}

// PublishLoadEvent appends an event to the load stream
func (rsp *RedisStreamPublisher) PublishLoadEvent(ctx context.Context, event LoadEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return rsp.client.XAdd(ctx, &redis.XAddArgs{
		Stream: rsp.stream,
		Values: map[string]interface{}{
			"type":      event.Type,
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
}

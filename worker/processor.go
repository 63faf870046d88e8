package worker

import (
	"context"
	"errors"
	"time"

	"github.com/drewmudry/chatshorts-api/metrics"
	"github.com/drewmudry/chatshorts-api/pipeline"
	"github.com/drewmudry/chatshorts-api/tasks"
	"github.com/drewmudry/chatshorts-api/timeline"
	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TaskHandler is a function that processes a task payload.
type TaskHandler func(ctx context.Context, payload string) error

// Processor holds dependencies and registered task handlers.
type Processor struct {
	DB       *gorm.DB
	RDB      *redis.Client
	Pipeline *pipeline.Pipeline
	Timeline timeline.Options

	// DefaultBackground is used when a generation has no background image.
	DefaultBackground string

	handlers map[string]TaskHandler
}

// NewProcessor creates a new worker processor.
func NewProcessor(db *gorm.DB, rdb *redis.Client, p *pipeline.Pipeline, opts timeline.Options, background string) *Processor {
	return &Processor{
		DB:                db,
		RDB:               rdb,
		Pipeline:          p,
		Timeline:          opts,
		DefaultBackground: background,
		handlers:          make(map[string]TaskHandler),
	}
}

// RegisterDefaults wires the generation queues to their handlers.
func (p *Processor) RegisterDefaults() {
	p.Register(tasks.QueueGenerationEnrich, p.HandleEnrich)
	p.Register(tasks.QueueGenerationRender, p.HandleRender)
}

// Register maps a queue name (task type) to a handler function.
func (p *Processor) Register(queueName string, handler TaskHandler) {
	p.handlers[queueName] = handler
	log.Printf("Registered handler for queue: %s", queueName)
}

// Enqueue is a helper to add a new task to a queue.
func (p *Processor) Enqueue(ctx context.Context, queueName string, payload interface{}) error {
	return Enqueue(ctx, p.RDB, queueName, payload)
}

// Enqueue adds a task to a queue. The API uses it without a Processor.
func Enqueue(ctx context.Context, rdb *redis.Client, queueName string, payload interface{}) error {
	payloadStr, err := tasks.Marshal(payload)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queueName, payloadStr).Err()
}

// Dispatch runs the handler registered for queueName.
func (p *Processor) Dispatch(ctx context.Context, queueName, payload string) error {
	handler, ok := p.handlers[queueName]
	if !ok {
		return errors.New("no handler registered for queue " + queueName)
	}

	log.Printf("Received task from queue %s", queueName)
	err := handler(ctx, payload)
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.TasksProcessed.WithLabelValues(queueName, result).Inc()
	return err
}

// Listen starts the worker, listening on all registered queues until ctx
// is done. Tasks are handled one at a time.
func (p *Processor) Listen(ctx context.Context, queueNames ...string) {
	log.Printf("Worker listening on %d queues: %v", len(queueNames), queueNames)

	for {
		if ctx.Err() != nil {
			log.Println("Worker stopping")
			return
		}

		// BRPop blocks until a task is available on any of the listed queues.
		result, err := p.RDB.BRPop(ctx, 5*time.Second, queueNames...).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("Error popping from queue: %v", err)
				time.Sleep(time.Second)
			}
			continue
		}

		// result[0] is the queue name, result[1] is the payload
		if err := p.Dispatch(ctx, result[0], result[1]); err != nil {
			log.Printf("Error processing task from %s: %v", result[0], err)
		}
	}
}

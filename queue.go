/*
Copyright 2025 Ledgerline Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ledgerline

import (
	"context"
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"

	"github.com/ledgerline/ledgerline/config"
	redis_db "github.com/ledgerline/ledgerline/internal/redis-db"
)

// Queue represents the asynq-backed job queue for parse tasks.
type Queue struct {
	Client    *asynq.Client
	Inspector *asynq.Inspector
}

// ParseJobPayload is the task body for one statement parse job.
type ParseJobPayload struct {
	VersionID string `json:"version_id"`
	Force     bool   `json:"force"`
}

// NewQueue initializes a new Queue instance with the provided configuration.
func NewQueue(conf *config.Configuration) *Queue {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns)
	if err != nil {
		log.Fatalf("Error parsing Redis URL: %v", err)
	}

	queueOptions := asynq.RedisClientOpt{Addr: redisOption.Addr, Password: redisOption.Password, DB: redisOption.DB}
	client := asynq.NewClient(queueOptions)
	inspector := asynq.NewInspector(queueOptions)
	return &Queue{
		Client:    client,
		Inspector: inspector,
	}
}

// EnqueueParseJob enqueues a parse task for the version. The task ID is the
// version ID so a version can only wait in the queue once at a time.
func (q *Queue) EnqueueParseJob(ctx context.Context, versionID string, force bool) error {
	ctx, span := tracer.Start(ctx, "Adding parse job to redis queue")
	defer span.End()

	cfg, err := config.Fetch()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(ParseJobPayload{VersionID: versionID, Force: force})
	if err != nil {
		return err
	}

	taskOptions := []asynq.Option{
		asynq.TaskID(versionID),
		asynq.Queue(cfg.Queue.ParseQueue),
		asynq.MaxRetry(5),
	}
	task := asynq.NewTask(cfg.Queue.ParseQueue, payload, taskOptions...)
	info, err := q.Client.EnqueueContext(ctx, task)
	if err != nil {
		log.Println(err, info)
		return err
	}
	log.Printf(" [*] Successfully enqueued parse job: %+v", versionID)
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"hybridmcp/internal/model"
	"hybridmcp/pkg/claude"
	"hybridmcp/pkg/interfaces"
	"hybridmcp/pkg/logger"

	"github.com/google/uuid"
)

// AnalyzeCodeInput input of an analyze_code task
type AnalyzeCodeInput struct {
	Code     string `json:"code"`
	Language string `json:"language,omitempty"`
	Analysis string `json:"analysis,omitempty"`
}

// VibeCodeInput input of a vibe_code task
type VibeCodeInput struct {
	Request string                 `json:"request"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// TaskService accepts async tasks and executes them when the queue
// delivers them
type TaskService struct {
	completion *CompletionService
	queue      interfaces.TaskQueue
}

// NewTaskService creates a new Task service
func NewTaskService(completion *CompletionService) *TaskService {
	return &TaskService{completion: completion}
}

// SetQueue sets the queue. The queue needs the service as its processor,
// so it is injected after construction.
func (s *TaskService) SetQueue(q interfaces.TaskQueue) {
	s.queue = q
}

// Enabled reports whether async tasks are available
func (s *TaskService) Enabled() bool {
	return s.queue != nil
}

// Submit validates and enqueues a task
func (s *TaskService) Submit(ctx context.Context, req *model.SubmitRequest) (*model.SubmitResponse, error) {
	if s.queue == nil {
		return nil, ErrQueueDisabled
	}
	if err := validateInput(req.Kind, req.Input); err != nil {
		return nil, err
	}

	task := &model.Task{
		ID:    uuid.New().String(),
		Kind:  req.Kind,
		Input: req.Input,
	}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	logger.InfoCtx(ctx, "task submitted, task_id: %s, kind: %s", task.ID, task.Kind)
	return &model.SubmitResponse{ID: task.ID, Status: model.TaskStatusPending}, nil
}

// Get retrieves task status and output
func (s *TaskService) Get(ctx context.Context, taskID string) (*model.Task, error) {
	if s.queue == nil {
		return nil, ErrQueueDisabled
	}
	task, err := s.queue.Get(ctx, taskID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrTaskNotFound)
	}
	return task, err
}

// Stats retrieves queue statistics
func (s *TaskService) Stats(ctx context.Context) (*interfaces.QueueStats, error) {
	if s.queue == nil {
		return nil, ErrQueueDisabled
	}
	return s.queue.Stats(ctx)
}

// Process runs a delivered task through the completion service
func (s *TaskService) Process(ctx context.Context, task *model.Task) (json.RawMessage, string, error) {
	var (
		res *CompletionResult
		err error
	)
	switch task.Kind {
	case model.TaskKindComplete:
		var in claude.CompletionRequest
		if err := json.Unmarshal(task.Input, &in); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		res, err = s.completion.Complete(ctx, in)
	case model.TaskKindAnalyzeCode:
		var in AnalyzeCodeInput
		if err := json.Unmarshal(task.Input, &in); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		res, err = s.completion.AnalyzeCode(ctx, in.Code, in.Language, in.Analysis)
	case model.TaskKindVibeCode:
		var in VibeCodeInput
		if err := json.Unmarshal(task.Input, &in); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		res, err = s.completion.VibeCode(ctx, in.Request, in.Context)
	default:
		return nil, "", fmt.Errorf("%w: unknown task kind %q", ErrInvalidInput, task.Kind)
	}

	location := ""
	if res != nil && res.Execution != nil {
		location = string(res.Execution.Location)
	}
	if err != nil {
		return nil, location, err
	}

	output, err := json.Marshal(res)
	if err != nil {
		return nil, location, fmt.Errorf("failed to encode task output: %w", err)
	}
	return output, location, nil
}

// validateInput rejects malformed input before it is queued
func validateInput(kind model.TaskKind, input json.RawMessage) error {
	switch kind {
	case model.TaskKindComplete:
		var in claude.CompletionRequest
		if err := json.Unmarshal(input, &in); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if in.Prompt == "" {
			return fmt.Errorf("%w: prompt is required", ErrInvalidInput)
		}
	case model.TaskKindAnalyzeCode:
		var in AnalyzeCodeInput
		if err := json.Unmarshal(input, &in); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if in.Code == "" {
			return fmt.Errorf("%w: code is required", ErrInvalidInput)
		}
	case model.TaskKindVibeCode:
		var in VibeCodeInput
		if err := json.Unmarshal(input, &in); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if in.Request == "" {
			return fmt.Errorf("%w: request is required", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown task kind %q", ErrInvalidInput, kind)
	}
	return nil
}

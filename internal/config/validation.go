package config

import (
	"fmt"
	"strings"

	ferrors "git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
	"git.home.luguber.info/inful/farmworlds/internal/task"
)

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	problems = append(problems, c.Storage.problems()...)

	t := c.Tasks
	if t.TickDuration <= 0 {
		add("tasks.tick_duration must be positive")
	}
	if t.MinTicks <= 0 || t.MaxTicks < t.MinTicks {
		add("tasks.min_ticks/max_ticks must satisfy 0 < min <= max (got %d/%d)", t.MinTicks, t.MaxTicks)
	}
	if t.MaxAmount < task.MinAmount || t.MaxAmount > task.MaxAmount {
		add("tasks.max_amount must be within [%d,%d]", task.MinAmount, task.MaxAmount)
	}
	if t.MaxCompositeSize < 1 {
		add("tasks.max_composite_size must be at least 1")
	}
	if t.RewardMultiplier < 0 || t.BaseReward < 0 {
		add("tasks.reward_multiplier and tasks.base_reward cannot be negative")
	}
	if t.MaxSingleTasks < 0 || t.MaxCompositeTasks < 0 {
		add("tasks quotas cannot be negative")
	}
	if !catalogUnset(t.Catalog) {
		if err := t.Catalog.Validate(); err != nil {
			add("tasks.catalog: %v", err)
		}
	}

	if c.Farms.TemplateWorld == "" {
		add("farms.template_world is required")
	}
	if c.Farms.WorldPrefix == "" {
		add("farms.world_prefix is required")
	}
	if c.Events.URL != "" && c.Events.SubjectPrefix == "" {
		add("events.subject_prefix is required when events.url is set")
	}

	return problemsError(problems)
}

// Validate checks the storage section alone.
func (s StorageConfig) Validate() error {
	return problemsError(s.problems())
}

func (s StorageConfig) problems() []string {
	var problems []string
	if _, err := driverNormalizer.NormalizeWithValidation(string(s.Driver)); err != nil {
		problems = append(problems, fmt.Sprintf("storage.driver: %v", err))
	}
	switch s.Driver {
	case DriverSQLite:
		if s.SQLite.Dir == "" {
			problems = append(problems, "storage.sqlite.dir is required for the sqlite driver")
		}
	case DriverS3:
		if s.S3.Bucket == "" {
			problems = append(problems, "storage.s3.bucket is required for the s3 driver")
		}
	}
	if err := s.Retry.Validate(); err != nil {
		problems = append(problems, fmt.Sprintf("storage.retry: %v", err))
	}
	return problems
}

func problemsError(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return ferrors.ConfigError("configuration validation failed: "+strings.Join(problems, "; ")).
		WithContext("problems", problems).
		Build()
}

// TaskCatalog returns the configured catalog or the stock one.
func (t TasksConfig) TaskCatalog() task.Catalog {
	if catalogUnset(t.Catalog) {
		return task.DefaultCatalog()
	}
	return t.Catalog
}

func catalogUnset(c task.Catalog) bool {
	return len(c.Requests) == 0 && len(c.Clients) == 0 && len(c.Destinations) == 0
}

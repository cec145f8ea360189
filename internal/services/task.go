package services

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"apexearn/internal/datastore"
	"apexearn/internal/interfaces"
	"apexearn/internal/models"
	"apexearn/internal/pkg/caching"

	"github.com/mroth/weightedrand/v2"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceTask struct {
	postgresDB *bun.DB
	cache      caching.Cache

	serviceUser *ServiceUser
	shortener   interfaces.Shortener
}

func NewServiceTask(container *do.Injector) (*ServiceTask, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	serviceUser, err := do.Invoke[*ServiceUser](container)
	if err != nil {
		return nil, err
	}

	shortener, err := do.Invoke[interfaces.Shortener](container)
	if err != nil {
		return nil, err
	}

	return &ServiceTask{postgresDB, cache, serviceUser, shortener}, nil
}

// ProviderForCount maps today's completed-task count to the provider that
// must serve the next task: 0-1 gplinks, 2-3 shrinkme, 4-5 shrinkearn.
func ProviderForCount(count int) (models.Provider, bool) {
	if count < 0 || count >= DAILY_TASK_LIMIT {
		return "", false
	}
	return models.Providers[count/TASKS_PER_PROVIDER], true
}

// NextTask picks the task the user is shown next. Banned users are refused
// before anything else; the daily unlock gate is independent of the quota.
// The daily reset is a conditional update keyed on the stored date, so it
// runs exactly once per calendar day no matter how many handlers race, and
// it persists even when no task ends up being returned.
func (service *ServiceTask) NextTask(ctx context.Context, userID int64) (*models.Task, error) {
	user, err := service.serviceUser.FindUserByIDNoCache(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotRegistered
	}
	if err != nil {
		return nil, err
	}

	if user.IsBanned {
		return nil, ErrUserBanned
	}

	today := models.Today()

	if !user.Unlocked(today) {
		return nil, ErrTasksLocked
	}

	if user.NeedsDailyReset(today) {
		if err := datastore.ResetDailyProgress(ctx, service.postgresDB, userID, today); err != nil {
			return nil, err
		}
		user.DailyTaskCount = 0
		user.DailyCompletedTasks = nil
	}

	provider, ok := ProviderForCount(user.DailyTaskCount)
	if !ok {
		return nil, ErrDailyLimitReached
	}

	eligible, err := datastore.GetEligibleTasks(ctx, service.postgresDB, userID, provider)
	if err != nil {
		return nil, err
	}

	if len(eligible) == 0 {
		return nil, ErrNoTasksAvailable
	}

	return pickRandomTask(eligible)
}

// pickRandomTask samples one task uniformly from the eligible set.
func pickRandomTask(tasks []models.Task) (*models.Task, error) {
	if len(tasks) == 1 {
		return &tasks[0], nil
	}

	choices := make([]weightedrand.Choice[models.Task, int], 0, len(tasks))
	for _, task := range tasks {
		choices = append(choices, weightedrand.NewChoice(task, 1))
	}

	chooser, err := weightedrand.NewChooser(choices...)
	if err != nil {
		return nil, err
	}

	task := chooser.Pick()
	return &task, nil
}

// CreateTasksFromTemplate builds one task per provider category from a
// single admin-submitted template, shortening the destination link with each
// provider. A shortener outage degrades to the raw link, never an error.
func (service *ServiceTask) CreateTasksFromTemplate(ctx context.Context, text string, reward float64, link string, code string) ([]models.Task, error) {
	created := make([]models.Task, 0, len(models.Providers))
	for _, provider := range models.Providers {
		task := &models.Task{
			Text:             text,
			Reward:           reward,
			Link:             service.shortener.Shorten(ctx, link, provider),
			VerificationCode: code,
			Provider:         provider,
		}

		if err := datastore.CreateTask(ctx, service.postgresDB, task); err != nil {
			return created, err
		}

		log.Println("CreateTask:", "id:", task.ID, "provider:", task.Provider, "reward:", task.Reward)
		created = append(created, *task)
	}

	return created, nil
}

func (service *ServiceTask) DeleteTask(ctx context.Context, taskID int64) error {
	deleted, err := datastore.DeleteTask(ctx, service.postgresDB, taskID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrTaskNotFound
	}

	return service.cache.Delete(ctx, DBKeyTask(taskID))
}

func (service *ServiceTask) GetAllTasks(ctx context.Context) ([]models.Task, error) {
	return datastore.GetAllTasks(ctx, service.postgresDB)
}

// TaskOverview pairs a task with how many users have redeemed it.
type TaskOverview struct {
	Task        models.Task `json:"task"`
	Completions int         `json:"completions"`
}

func (service *ServiceTask) ListTaskOverviews(ctx context.Context) ([]TaskOverview, error) {
	tasks, err := datastore.GetAllTasks(ctx, service.postgresDB)
	if err != nil {
		return nil, err
	}

	overviews := make([]TaskOverview, 0, len(tasks))
	for _, task := range tasks {
		count, err := datastore.CountCompletionsByTask(ctx, service.postgresDB, task.ID)
		if err != nil {
			return nil, err
		}
		overviews = append(overviews, TaskOverview{task, count})
	}

	return overviews, nil
}

package datastore

import (
	"context"
	"errors"

	"apexearn/internal/models"

	"github.com/uptrace/bun"
)

// ErrDailyLimitReached is returned by RedeemTask when the user update is
// refused by the daily_task_count guard.
var ErrDailyLimitReached = errors.New("daily task limit reached")

func CreateTableTask(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Task)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Task)(nil)).Index("index_task_provider").IfNotExists().Column("provider").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func CreateTableTaskCompletion(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.TaskCompletion)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.TaskCompletion)(nil)).Index("index_task_completion_user_task").Unique().IfNotExists().Column("user_id", "task_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func CreateTask(ctx context.Context, db *bun.DB, task *models.Task) error {
	_, err := db.NewInsert().Model(task).Exec(ctx)
	return err
}

func DeleteTask(ctx context.Context, db *bun.DB, taskID int64) (bool, error) {
	res, err := db.NewDelete().Model((*models.Task)(nil)).Where("id = ?", taskID).Exec(ctx)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

func GetTaskByID(ctx context.Context, db *bun.DB, taskID int64) (*models.Task, error) {
	var task models.Task
	err := db.NewSelect().Model(&task).Where("id = ?", taskID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func GetAllTasks(ctx context.Context, db *bun.DB) ([]models.Task, error) {
	var tasks []models.Task
	err := db.NewSelect().Model(&tasks).Order("id ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetEligibleTasks returns the provider's tasks the user has never redeemed
// globally and has not redeemed today. The daily set is redundant with the
// completion table unless tasks reappear; both checks are kept on purpose.
func GetEligibleTasks(ctx context.Context, db *bun.DB, userID int64, provider models.Provider) ([]models.Task, error) {
	var tasks []models.Task
	err := db.NewSelect().
		Model(&tasks).
		Where("provider = ?", provider).
		Where("id NOT IN (SELECT task_id FROM task_completion WHERE user_id = ?)", userID).
		Where("NOT (id = ANY(SELECT unnest(daily_completed_tasks) FROM \"user\" WHERE id = ?))", userID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func CountTasksByProvider(ctx context.Context, db *bun.DB, provider models.Provider) (int, error) {
	return db.NewSelect().Model((*models.Task)(nil)).Where("provider = ?", provider).Count(ctx)
}

func CountCompletions(ctx context.Context, db *bun.DB) (int, error) {
	return db.NewSelect().Model((*models.TaskCompletion)(nil)).Count(ctx)
}

func CountCompletionsByTask(ctx context.Context, db *bun.DB, taskID int64) (int, error) {
	return db.NewSelect().Model((*models.TaskCompletion)(nil)).Where("task_id = ?", taskID).Count(ctx)
}

// RedeemTask credits a verified completion as one atomic unit: the
// completion row, the balance credit, the daily counter bump and the daily
// set append all land together or not at all.
//
// The ON CONFLICT DO NOTHING insert against the unique (user_id, task_id)
// index is the sole at-most-once gate: if it reports zero rows the pair was
// already redeemed and nothing is credited, no matter how many submissions
// race. The user update is additionally guarded by the daily cap so the
// counter can never pass 6.
func RedeemTask(ctx context.Context, db *bun.DB, userID int64, task *models.Task) (bool, error) {
	credited := false
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		completion := &models.TaskCompletion{
			UserID: userID,
			TaskID: task.ID,
			Reward: task.Reward,
		}
		res, err := tx.NewInsert().Model(completion).On("CONFLICT (user_id, task_id) DO NOTHING").Exec(ctx)
		if err != nil {
			return err
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return nil
		}

		res, err = tx.NewUpdate().
			Model((*models.User)(nil)).
			Set("balance = balance + ?", task.Reward).
			Set("daily_task_count = daily_task_count + 1").
			Set("daily_completed_tasks = array_append(daily_completed_tasks, ?)", task.ID).
			Where("id = ?", userID).
			Where("daily_task_count < ?", 6).
			Exec(ctx)
		if err != nil {
			return err
		}

		rows, err = res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrDailyLimitReached
		}

		credited = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return credited, nil
}

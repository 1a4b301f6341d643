package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskReminder/internal/logger"
	"taskReminder/internal/migrations"
	"taskReminder/internal/models/task"
	repo "taskReminder/internal/repository"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

const slowQuery = 100 * time.Millisecond

const selectColumns = `SELECT
				id,
				title,
				description,
				due_date,
				status::text,
				created_at,
				updated_at
				FROM tasks`

type PoolOptions struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
}

type Storage struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, connString string, opts PoolOptions) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		config.MinConns = opts.MinConns
	}
	if opts.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()
	snapshot := taskToCreate.Snapshot()

	query := `INSERT INTO tasks
				(id, title, description, due_date, status, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5::task_status, $6, $7)`

	_, err := s.pool.Exec(ctx, query,
		snapshot.ID,
		snapshot.Title,
		snapshot.Description,
		snapshot.DueDate,
		string(snapshot.Status),
		snapshot.CreatedAt,
		snapshot.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			logger.Warn("Repository: Задача с таким id уже существует", zap.String("task_id", snapshot.ID))
			return repo.ErrAlreadyExists
		}
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	warnIfSlow(start)
	return nil
}

func (s *Storage) FindByID(ctx context.Context, id string) (*task.Task, bool, error) {
	start := time.Now()

	query := selectColumns + `
				WHERE id = $1`

	found, err := scanTask(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, false, fmt.Errorf("получение задачи: %w", err)
	}

	warnIfSlow(start)
	return found, true, nil
}

// порядок по времени создания, при равенстве по id - повторный запрос даёт тот же порядок
func (s *Storage) FindAll(ctx context.Context, filter repo.TaskFilter) ([]*task.Task, error) {
	start := time.Now()

	query := selectColumns
	args := []any{}
	if filter.Status != nil {
		query += `
				WHERE status = $1::task_status`
		args = append(args, string(*filter.Status))
	}
	query += `
				ORDER BY created_at, id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		found, err := scanTask(rows)
		if err != nil {
			logger.Error("Repository: Ошибка сканирования задачи", err)
			return nil, fmt.Errorf("сканирование задачи: %w", err)
		}
		tasks = append(tasks, found)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	warnIfSlow(start)
	return tasks, nil
}

// последняя запись выигрывает, версионирования нет
func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()
	snapshot := taskToUpdate.Snapshot()

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				due_date = $3,
				status = $4::task_status,
				updated_at = $5
			WHERE id = $6`

	tag, err := s.pool.Exec(ctx, query,
		snapshot.Title,
		snapshot.Description,
		snapshot.DueDate,
		string(snapshot.Status),
		snapshot.UpdatedAt,
		snapshot.ID,
	)
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}

	if tag.RowsAffected() == 0 {
		logger.Warn("Repository: Задача исчезла до обновления", zap.String("task_id", snapshot.ID))
		return repo.ErrNotFound
	}

	warnIfSlow(start)
	return nil
}

func (s *Storage) Delete(ctx context.Context, id string) error {
	start := time.Now()

	query := `DELETE FROM tasks
				WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		logger.Error("Repository: Удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	warnIfSlow(start)
	return nil
}

func (s *Storage) Migrate(ctx context.Context) error {
	logger.Info("Repository: Применение миграций")

	m, err := s.migrator()
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: Не удалось применить миграции", err)
		return fmt.Errorf("применение миграций: %w", err)
	}

	logger.Info("Repository: Миграции применены")
	return nil
}

func (s *Storage) Down(ctx context.Context) error {
	logger.Info("Repository: Откат миграций")

	m, err := s.migrator()
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: Не удалось откатить миграции", err)
		return fmt.Errorf("откат миграций: %w", err)
	}

	logger.Info("Repository: Миграции откачены")
	return nil
}

func (s *Storage) migrator() (*migrate.Migrate, error) {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("чтение миграций: %w", err)
	}

	db := stdlib.OpenDBFromPool(s.pool)
	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("драйвер миграций: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "pgx5", driver)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("создание мигратора: %w", err)
	}
	return m, nil
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		logger.Warn("Repository: Ошибка закрытия источника миграций", zap.Error(srcErr))
	}
	if dbErr != nil {
		logger.Warn("Repository: Ошибка закрытия соединения миграций", zap.Error(dbErr))
	}
}

func scanTask(row pgx.Row) (*task.Task, error) {
	var (
		params task.Params
		status string
	)

	err := row.Scan(
		&params.ID,
		&params.Title,
		&params.Description,
		&params.DueDate,
		&status,
		&params.CreatedAt,
		&params.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	params.Status, err = task.ParseStatus(status)
	if err != nil {
		return nil, fmt.Errorf("статус %q: %w", status, err)
	}

	return task.New(params)
}

func warnIfSlow(start time.Time) {
	if time.Since(start) > slowQuery {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
}

// janitor выполняет периодическую очистку просроченных записей токенов.
//
// Очистка не влияет на корректность: просроченные записи и так отвергаются
// при чтении по expires_at. Janitor лишь сдерживает рост таблиц.
package janitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/yanxyw/loop-api/internal/pkg/log"
	"github.com/yanxyw/loop-api/internal/storage"
)

// sweeper — подмножество хранилища, нужное для очистки.
type sweeper interface {
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
	DeleteExpiredVerificationTokens(ctx context.Context, now time.Time) (int64, error)
	DeleteExpiredResetCodes(ctx context.Context, now time.Time) (int64, error)
}

var _ sweeper = (storage.Storage)(nil)

// Janitor — фоновый процесс очистки с фиксированным интервалом.
type Janitor struct {
	storage  sweeper
	interval time.Duration

	wg   sync.WaitGroup
	stop context.CancelFunc
}

// New создаёт janitor поверх хранилища. interval должен быть > 0.
func New(st sweeper, interval time.Duration) *Janitor {
	return &Janitor{
		storage:  st,
		interval: interval,
	}
}

// Start запускает цикл очистки. Первый проход выполняется сразу,
// последующие по тикам interval. Остановка через Stop или отмену ctx.
func (j *Janitor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	j.stop = cancel

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()

		j.sweep(ctx)

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				j.sweep(ctx)
			}
		}
	}()
}

// Stop останавливает цикл и дожидается завершения текущего прохода.
func (j *Janitor) Stop() {
	if j.stop != nil {
		j.stop()
	}
	j.wg.Wait()
}

// sweep выполняет один проход очистки по всем трём таблицам.
// Срез времени один на проход. Ошибка одной таблицы не мешает остальным.
func (j *Janitor) sweep(ctx context.Context) {
	const op = "janitor.sweep"

	lg := log.From(ctx)
	now := time.Now().UTC()

	refresh, err := j.storage.DeleteExpiredRefreshTokens(ctx, now)
	if err != nil {
		lg.Error("refresh_token_sweep_failed",
			slog.String("op", op), slog.String("err", err.Error()))
	}

	verification, err := j.storage.DeleteExpiredVerificationTokens(ctx, now)
	if err != nil {
		lg.Error("verification_token_sweep_failed",
			slog.String("op", op), slog.String("err", err.Error()))
	}

	resetCodes, err := j.storage.DeleteExpiredResetCodes(ctx, now)
	if err != nil {
		lg.Error("reset_code_sweep_failed",
			slog.String("op", op), slog.String("err", err.Error()))
	}

	if refresh+verification+resetCodes > 0 {
		lg.Info("expired_records_swept",
			slog.String("op", op),
			slog.Int64("refresh_tokens", refresh),
			slog.Int64("verification_tokens", verification),
			slog.Int64("reset_codes", resetCodes),
		)
	}
}

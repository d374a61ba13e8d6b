package maintenance

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// replyLogMaxAge — сколько живут связки reply-лога.
const replyLogMaxAge = 24 * time.Hour

// AlbumSweeper — ленивый трекер альбомов, который надо периодически подметать.
type AlbumSweeper interface {
	Sweep() int
	Len() int
}

// ReplyLogPruner — хранилище reply-лога с очисткой по возрасту.
type ReplyLogPruner interface {
	Prune(maxAge time.Duration) (int64, error)
}

// Module обслуживает фоновую очистку данных.
// Русский комментарий: Записи альбомов и так вычищаются лениво при каждом
// Admit, но в тихом чате Admit может не случаться долго — cron гарантирует,
// что память ограничена и без трафика. Reply-лог чистится только здесь.
type Module struct {
	tracker AlbumSweeper
	pruner  ReplyLogPruner
	logger  *zap.Logger
	cron    *cron.Cron
}

// New создаёт модуль обслуживания.
func New(tracker AlbumSweeper, pruner ReplyLogPruner, logger *zap.Logger) *Module {
	return &Module{
		tracker: tracker,
		pruner:  pruner,
		logger:  logger,
		cron:    cron.New(),
	}
}

// Start регистрирует и запускает фоновые задачи.
func (m *Module) Start() error {
	// Подметание записей альбомов — раз в минуту.
	_, err := m.cron.AddFunc("* * * * *", func() {
		removed := m.tracker.Sweep()
		if removed > 0 {
			m.logger.Debug("swept stale album records",
				zap.Int("removed", removed),
				zap.Int("remaining", m.tracker.Len()))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule album sweep: %w", err)
	}

	// Очистка reply-лога — раз в час.
	_, err = m.cron.AddFunc("0 * * * *", func() {
		removed, err := m.pruner.Prune(replyLogMaxAge)
		if err != nil {
			m.logger.Error("failed to prune reply log", zap.Error(err))
			return
		}
		if removed > 0 {
			m.logger.Info("pruned reply log entries", zap.Int64("removed", removed))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reply log prune: %w", err)
	}

	m.cron.Start()
	m.logger.Info("maintenance scheduler started")
	return nil
}

// Shutdown останавливает планировщик и дожидается завершения задач.
func (m *Module) Shutdown() error {
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.logger.Info("maintenance scheduler stopped")
	return nil
}

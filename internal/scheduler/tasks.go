// Package scheduler 提供定时任务
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dumeirei/resort-fleet-backend/internal/common/logger"
)

// DashboardWarmer 仪表盘缓存预热
type DashboardWarmer interface {
	Warm(ctx context.Context, monthsList []int) (bool, error)
}

// TaskHandler 任务处理器
type TaskHandler struct {
	warmer     DashboardWarmer
	warmMonths []int
	log        *zap.Logger
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(warmer DashboardWarmer, warmMonths []int) *TaskHandler {
	return &TaskHandler{
		warmer:     warmer,
		warmMonths: warmMonths,
		log:        logger.Named("task"),
	}
}

// WarmDashboard 预热常用窗口的仪表盘概览
func (h *TaskHandler) WarmDashboard(ctx context.Context) error {
	if h.warmer == nil || len(h.warmMonths) == 0 {
		return nil
	}

	warmed, err := h.warmer.Warm(ctx, h.warmMonths)
	if err != nil {
		return err
	}
	if !warmed {
		h.log.Debug("Dashboard warm skipped, another instance holds the lock or cache disabled")
		return nil
	}
	h.log.Info("Dashboard cache warmed", zap.Ints("months", h.warmMonths))
	return nil
}

// SetupTasks 设置所有任务
func SetupTasks(scheduler *Scheduler, handler *TaskHandler, warmInterval time.Duration) {
	// 定期预热仪表盘缓存，间隔为 0 时不启用
	scheduler.AddTask("WarmDashboard", warmInterval, handler.WarmDashboard)
}

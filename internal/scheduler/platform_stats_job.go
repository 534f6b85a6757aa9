package scheduler

import (
	"time"

	"github.com/blues/cfl/internal/config"
	"github.com/blues/cfl/internal/ledger"
	"github.com/blues/cfl/internal/logger"
	"github.com/blues/cfl/internal/logic"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// PlatformStatsJob 平台统计快照任务。
// 只读任务：活动的成功/失败由金额和时间戳在调用时推导，
// 定时任务不会也不能修改活动状态。
type PlatformStatsJob struct {
	engine      *ledger.Engine
	recordLogic *logic.RecordLogic
	config      *config.Config
}

// NewPlatformStatsJob 创建平台统计快照任务
func NewPlatformStatsJob(db *gorm.DB, engine *ledger.Engine, cfg *config.Config) *PlatformStatsJob {
	return &PlatformStatsJob{
		engine:      engine,
		recordLogic: logic.NewRecordLogic(db),
		config:      cfg,
	}
}

// GetName 获取任务名称
func (j *PlatformStatsJob) GetName() string {
	return "platform_stats_reporter"
}

// GetSchedule 获取调度配置
func (j *PlatformStatsJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Scheduler.Interval) * time.Second)
}

// Execute 执行任务
func (j *PlatformStatsJob) Execute() {
	stats, err := j.engine.GetPlatformStats()
	if err != nil {
		logger.Error("Failed to fetch platform stats: %v", err)
		return
	}

	summary, err := j.recordLogic.GetPlatformSummary()
	if err != nil {
		logger.Error("Failed to fetch platform summary: %v", err)
		return
	}

	logger.Info("Platform snapshot: campaigns=%d active=%d raised=%d contributors=%v settled=%v refunded=%v fees=%v",
		stats.TotalCampaigns, stats.ActiveCampaigns, stats.TotalFundsRaised,
		summary["totalContributors"], summary["totalSettled"], summary["totalRefunded"], summary["totalFees"])
}

package job

import (
	"context"
	"time"

	"gamestore/internal/model"
	"gamestore/internal/service"
	"gamestore/pkg/logger"
)

// Recomputer service.RankingService 实现此接口
type Recomputer interface {
	Recompute(ctx context.Context) (*service.RankingResult, error)
	Current(ctx context.Context) ([]model.RankedGame, error)
}

// RankingRefreshJob 定时重算排行榜；GET /games/ranking 仍会按需重算，随 ctx 取消退出
type RankingRefreshJob struct {
	ranking  Recomputer
	interval time.Duration
}

func NewRankingRefreshJob(ranking Recomputer, interval time.Duration) *RankingRefreshJob {
	return &RankingRefreshJob{
		ranking:  ranking,
		interval: interval,
	}
}

func (j *RankingRefreshJob) Start(ctx context.Context) {
	j.logCurrent(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("[RankingRefreshJob] 收到停止信号，任务退出")
			return
		case <-ticker.C:
			j.Refresh(ctx)
		}
	}
}

// logCurrent 启动时记录已存储的排行榜
func (j *RankingRefreshJob) logCurrent(ctx context.Context) {
	current, err := j.ranking.Current(ctx)
	if err != nil {
		logger.Errorf("[RankingRefreshJob] 读取当前排行榜失败: %v", err)
		return
	}
	top := int64(0)
	if len(current) > 0 {
		top = current[0].GameID
	}
	logger.Infof("[RankingRefreshJob] 排行榜刷新任务启动: interval=%s, stored=%d, top_game=%d", j.interval, len(current), top)
}

// Refresh 执行一次重算；没有销量时只记日志
func (j *RankingRefreshJob) Refresh(ctx context.Context) {
	result, err := j.ranking.Recompute(ctx)
	if err != nil {
		if service.KindOf(err) == service.KindNotFound {
			logger.Info("[RankingRefreshJob] 暂无销量数据，跳过")
			return
		}
		logger.Errorf("[RankingRefreshJob] 重算失败: %v", err)
		return
	}
	logger.Infof("[RankingRefreshJob] 排行榜已刷新: date=%s, entries=%d", result.RankDate, len(result.Top))
}

package job

import (
	"context"
	"time"

	"gamestore/internal/config"
	"gamestore/internal/model"
	"gamestore/internal/repository"
	"gamestore/pkg/logger"

	"gorm.io/gorm"
)

// Publisher mq.Producer 实现此接口
type Publisher interface {
	Send(topic, key, value string) error
}

// OutboxSender 轮询 outbox 表，把购买、排行榜事件投递到 Kafka；随 ctx 取消退出
type OutboxSender struct {
	outboxRepo *repository.OutboxRepository
	publisher  Publisher
	cfg        *config.Config
	interval   time.Duration
	batchSize  int
}

func NewOutboxSender(db *gorm.DB, publisher Publisher, cfg *config.Config) *OutboxSender {
	return &OutboxSender{
		outboxRepo: repository.NewOutboxRepository(db),
		publisher:  publisher,
		cfg:        cfg,
		interval:   500 * time.Millisecond,
		batchSize:  100,
	}
}

func (s *OutboxSender) Start(ctx context.Context) {
	logger.Info("[OutboxSender] 消息发送任务启动")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("[OutboxSender] 收到停止信号，任务退出")
			return
		case <-ticker.C:
			s.ProcessPending(ctx)
		}
	}
}

// ProcessPending 发送一批待投递消息，返回成功条数
func (s *OutboxSender) ProcessPending(ctx context.Context) int {
	messages, err := s.outboxRepo.ListByStatus(ctx, model.OutboxStatusPending, s.batchSize)
	if err != nil {
		logger.Errorf("[OutboxSender] 查询消息失败: %v", err)
		return 0
	}

	sent := 0
	for _, msg := range messages {
		if s.send(ctx, msg) {
			sent++
		}
	}
	return sent
}

func (s *OutboxSender) send(ctx context.Context, msg *model.OutboxMessage) bool {
	err := s.publisher.Send(msg.Topic, msg.MessageKey, msg.Payload)
	if err == nil {
		if err := s.outboxRepo.MarkSent(ctx, msg.ID); err != nil {
			logger.Errorf("[OutboxSender] 更新消息状态失败: id=%d, err=%v", msg.ID, err)
			return false
		}
		logger.Debugf("[OutboxSender] 消息发送成功: id=%d, event=%s, key=%s", msg.ID, msg.EventType, msg.MessageKey)
		return true
	}

	logger.Warnf("[OutboxSender] 消息发送失败: id=%d, retry=%d, err=%v", msg.ID, msg.RetryCount, err)
	if err := s.outboxRepo.RecordFailure(ctx, msg, s.cfg.Business.MaxRetryCount); err != nil {
		logger.Errorf("[OutboxSender] 记录发送失败出错: id=%d, err=%v", msg.ID, err)
		return false
	}
	if msg.RetryCount+1 >= s.cfg.Business.MaxRetryCount {
		logger.Errorf("[OutboxSender] 消息超过最大重试次数，标记为失败: id=%d", msg.ID)
	}
	return false
}

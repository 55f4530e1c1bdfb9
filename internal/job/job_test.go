package job_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"gamestore/internal/infrastructure/mq"
	"gamestore/internal/job"
	"gamestore/internal/model"
	"gamestore/internal/service"
	"gamestore/internal/testutil"

	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedOutbox(t *testing.T, db *gorm.DB, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, db.Create(&model.OutboxMessage{
			MessageKey: "key",
			Topic:      "gamestore.purchase",
			EventType:  model.EventPurchaseCompleted,
			Payload:    `{"user_id":1}`,
			Status:     model.OutboxStatusPending,
		}).Error)
	}
}

func statusCount(t *testing.T, db *gorm.DB, status string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.OutboxMessage{}).Where("status = ?", status).Count(&n).Error)
	return n
}

func TestOutboxSender_Delivers(t *testing.T) {
	db := testutil.NewDB(t)
	seedOutbox(t, db, 2)

	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageAndSucceed()
	mock.ExpectSendMessageAndSucceed()
	producer := mq.NewProducerWith(mock)
	defer producer.Close()

	sender := job.NewOutboxSender(db, producer, testutil.Config())
	assert.Equal(t, 2, sender.ProcessPending(context.Background()))
	assert.Equal(t, int64(2), statusCount(t, db, model.OutboxStatusSent))
	assert.Zero(t, statusCount(t, db, model.OutboxStatusPending))
}

func TestOutboxSender_RetriesThenFails(t *testing.T) {
	db := testutil.NewDB(t)
	seedOutbox(t, db, 1)
	cfg := testutil.Config()
	cfg.Business.MaxRetryCount = 2

	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageAndFail(errors.New("broker down"))
	mock.ExpectSendMessageAndFail(errors.New("broker down"))
	producer := mq.NewProducerWith(mock)
	defer producer.Close()

	sender := job.NewOutboxSender(db, producer, cfg)
	ctx := context.Background()

	assert.Zero(t, sender.ProcessPending(ctx))
	assert.Equal(t, int64(1), statusCount(t, db, model.OutboxStatusPending))

	assert.Zero(t, sender.ProcessPending(ctx))
	assert.Equal(t, int64(1), statusCount(t, db, model.OutboxStatusFailed))

	assert.Zero(t, sender.ProcessPending(ctx))
}

type fakeRanking struct {
	calls   atomic.Int32
	current atomic.Int32
	err     error
}

func (f *fakeRanking) Current(ctx context.Context) ([]model.RankedGame, error) {
	f.current.Add(1)
	return []model.RankedGame{{Rank: 1, GameID: 7}}, nil
}

func (f *fakeRanking) Recompute(ctx context.Context) (*service.RankingResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &service.RankingResult{RankDate: "2024-01-01"}, nil
}

func TestRankingRefreshJob_Ticks(t *testing.T) {
	fake := &fakeRanking{}
	j := job.NewRankingRefreshJob(fake, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return fake.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.Equal(t, int32(1), fake.current.Load())
}

func TestRankingRefreshJob_NoSalesIsNotFatal(t *testing.T) {
	fake := &fakeRanking{err: service.NotFound("no sales data")}
	j := job.NewRankingRefreshJob(fake, time.Hour)

	j.Refresh(context.Background())
	assert.Equal(t, int32(1), fake.calls.Load())
}

package idgen

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// 雪花 ID：41 位毫秒时间戳 | 10 位机器 ID | 12 位序列号
// 用于生成钱包流水号、购买批次号，保证趋势递增且全局唯一

const (
	epoch          = int64(1704067200000) // 2024-01-01 00:00:00 UTC
	workerIDBits   = 10
	sequenceBits   = 12
	maxWorkerID    = -1 ^ (-1 << workerIDBits)
	maxSequence    = -1 ^ (-1 << sequenceBits)
	workerIDShift  = sequenceBits
	timestampShift = sequenceBits + workerIDBits
)

const (
	PrefixTransaction = "TXN"
	PrefixPurchase    = "PUR"
)

var ErrInvalidWorkerID = fmt.Errorf("workerID 必须在 0-%d 之间", maxWorkerID)

type Snowflake struct {
	mu        sync.Mutex
	timestamp int64
	workerID  int64
	sequence  int64
}

func New(workerID int64) (*Snowflake, error) {
	if workerID < 0 || workerID > maxWorkerID {
		return nil, ErrInvalidWorkerID
	}
	return &Snowflake{workerID: workerID}, nil
}

var (
	mu               sync.RWMutex
	defaultGenerator = &Snowflake{workerID: 1}
)

// Init 替换默认生成器，多实例部署时每个实例应配置不同的 workerID
func Init(workerID int64) error {
	s, err := New(workerID)
	if err != nil {
		return err
	}
	mu.Lock()
	defaultGenerator = s
	mu.Unlock()
	return nil
}

func NextID() int64 {
	mu.RLock()
	g := defaultGenerator
	mu.RUnlock()
	return g.Generate()
}

func (s *Snowflake) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	if now < s.timestamp {
		// 时钟回拨时沿用上次时间戳，靠序列号保证唯一
		now = s.timestamp
	}

	if now == s.timestamp {
		s.sequence = (s.sequence + 1) & maxSequence
		if s.sequence == 0 {
			for now <= s.timestamp {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		s.sequence = 0
	}
	s.timestamp = now

	return ((now - epoch) << timestampShift) |
		(s.workerID << workerIDShift) |
		s.sequence
}

// Decompose 拆出 ID 中的时间、机器号和序列号，排查问题时使用
func Decompose(id int64) (t time.Time, workerID, sequence int64, err error) {
	if id < 0 {
		return time.Time{}, 0, 0, errors.New("invalid snowflake id")
	}
	ms := (id >> timestampShift) + epoch
	workerID = (id >> workerIDShift) & maxWorkerID
	sequence = id & maxSequence
	return time.UnixMilli(ms), workerID, sequence, nil
}

// GenerateNo 格式：前缀 + 年月日时分秒 + 雪花 ID 十进制全文
// 例如：TXN20240115143052_123456789012345
func GenerateNo(prefix string) string {
	return fmt.Sprintf("%s%s_%d", prefix, time.Now().Format("20060102150405"), NextID())
}

func GenerateTransactionNo() string {
	return GenerateNo(PrefixTransaction)
}

func GeneratePurchaseNo() string {
	return GenerateNo(PrefixPurchase)
}

package mq

import (
	"fmt"

	"gamestore/internal/config"
	"gamestore/pkg/logger"

	"github.com/IBM/sarama"
)

// Producer 对 sarama 同步生产者的薄封装，生命周期由 main 管理
type Producer struct {
	producer sarama.SyncProducer
}

func NewProducer(cfg *config.KafkaConfig) (*Producer, error) {
	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Producer.RequiredAcks = sarama.WaitForAll
	kafkaConfig.Producer.Retry.Max = 3
	kafkaConfig.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, kafkaConfig)
	if err != nil {
		return nil, fmt.Errorf("创建 Kafka 生产者失败: %w", err)
	}

	logger.Infof("Kafka 生产者创建成功: brokers=%v", cfg.Brokers)
	return &Producer{producer: producer}, nil
}

// NewProducerWith 使用已有的 SyncProducer，测试中传入 sarama/mocks
func NewProducerWith(p sarama.SyncProducer) *Producer {
	return &Producer{producer: p}
}

func (p *Producer) Send(topic, key, value string) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.StringEncoder(value),
	}
	_, _, err := p.producer.SendMessage(msg)
	return err
}

func (p *Producer) Close() {
	if p == nil || p.producer == nil {
		return
	}
	if err := p.producer.Close(); err != nil {
		logger.Errorf("关闭 Kafka 生产者失败: %v", err)
	}
}

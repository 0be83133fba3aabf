package repository

import (
	"context"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	pkgkafka "MarketPulse/pkg/kafka"
)

// KafkaScorePublisher pushes recorded day snapshots to the scores topic.
// Messages are keyed by date so a topic compacted on key converges on the
// final snapshot for each day.
type KafkaScorePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaScorePublisher(producer *pkgkafka.Producer, topic string) *KafkaScorePublisher {
	return &KafkaScorePublisher{producer: producer, topic: topic}
}

func (p *KafkaScorePublisher) Publish(ctx context.Context, day models.DaySnapshot) error {
	return p.producer.Publish(ctx, p.topic, []byte(day.Date), day)
}

func (p *KafkaScorePublisher) Close() error {
	return p.producer.Close()
}

var _ domrepo.ScorePublisher = (*KafkaScorePublisher)(nil)

package repository

import (
	"context"

	"StockPredictor/internal/domain/models"
	"StockPredictor/internal/domain/repository"
)

type messageProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaPublisher implements Publisher for Kafka. Records are keyed by identifier so
// one instrument's forecasts stay ordered within a partition.
type KafkaPublisher struct {
	producer messageProducer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer messageProducer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, r *models.ForecastRecord) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.Identifier), r)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

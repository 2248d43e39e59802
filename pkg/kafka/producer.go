package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes single keyed messages and records delivery metrics per topic.
type Producer struct {
	writer      messageWriter
	compression string
	stats       *producerStats
}

func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := defaultProducerConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("kafka producer config: %w", err)
	}
	return newProducer(cfg.newWriter(), cfg.Compression), nil
}

func newProducer(w messageWriter, compression string) *Producer {
	return &Producer{writer: w, compression: compression, stats: defaultStats()}
}

// Publish sends one message. Byte slices and strings go out as-is, anything else as JSON.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	payload, err := encodeValue(value)
	if err != nil {
		return err
	}

	start := time.Now()
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: payload,
		Time:  start,
	})
	p.stats.observe(topic, p.compression, len(payload), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func encodeValue(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode kafka value: %w", err)
	}
	return b, nil
}

type producerStats struct {
	messages *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var (
	statsOnce   sync.Once
	sharedStats *producerStats
)

// defaultStats registers the producer collectors on the default registry exactly once per process.
func defaultStats() *producerStats {
	statsOnce.Do(func() {
		sharedStats = newProducerStats(prometheus.DefaultRegisterer)
	})
	return sharedStats
}

func newProducerStats(reg prometheus.Registerer) *producerStats {
	s := &producerStats{
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpredictor_kafka_producer_messages_total",
			Help: "Messages handed to the Kafka writer, by outcome.",
		}, []string{"topic", "compression", "result"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpredictor_kafka_producer_bytes_total",
			Help: "Payload bytes handed to the Kafka writer.",
		}, []string{"topic"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stockpredictor_kafka_producer_publish_seconds",
			Help:    "Time spent in WriteMessages.",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"topic"}),
	}
	reg.MustRegister(s.messages, s.bytes, s.latency)
	return s
}

func (s *producerStats) observe(topic, compression string, size int, took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.messages.WithLabelValues(topic, compression, result).Inc()
	if err == nil {
		s.bytes.WithLabelValues(topic).Add(float64(size))
	}
	s.latency.WithLabelValues(topic).Observe(took.Seconds())
}

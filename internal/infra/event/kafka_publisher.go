package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/usecase"

	"github.com/segmentio/kafka-go"
)

// kafka.Writerの使う部分だけ
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ウィッシュリストイベントをkafkaに流す
// keyはuserIdなので同じユーザーのイベントは同じパーティションに入る
type KafkaWishlistPublisher struct {
	writer messageWriter
}

// DI
func NewKafkaWishlistPublisher(brokers []string, topic string) *KafkaWishlistPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
	}
	return &KafkaWishlistPublisher{writer: w}
}

func (p *KafkaWishlistPublisher) Publish(ctx context.Context, ev usecase.WishlistEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal wishlist event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.UserID),
		Value: value,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write wishlist event: %w", err)
	}
	return nil
}

func (p *KafkaWishlistPublisher) Close() error {
	return p.writer.Close()
}

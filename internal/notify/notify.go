// Package notify 负责把需要发送的邮件投递到 email_queue，由 cmd/mail 消费。
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/domain"
)

const QueueName = "email_queue"

// Channel 是 *amqp.Channel 中用到的部分
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type StoreLookup interface {
	GetStoreByID(id int64) (*domain.Store, error)
}

type Publisher struct {
	ch      Channel
	timeout time.Duration
}

func NewPublisher(ch Channel, timeout time.Duration) *Publisher {
	return &Publisher{
		ch:      ch,
		timeout: timeout,
	}
}

func (p *Publisher) Publish(ctx context.Context, msg domain.MailMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.ch.PublishWithContext(
		ctx,
		"",
		QueueName,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func (p *Publisher) StoreCreated(ctx context.Context, store *domain.Store, creator *domain.User) error {
	return p.Publish(ctx, domain.MailMessage{
		Type: domain.MailTypeStoreCreated,
		To:   creator.Email,
		Data: domain.StoreCreatedMailData{
			FullName:  creator.FullName,
			StoreName: store.StoreName,
			StoreID:   store.ID,
		},
	})
}

// StatusNotifier 在店铺营业状态变化时通知店铺的联系邮箱
type StatusNotifier struct {
	publisher *Publisher
	stores    StoreLookup
}

func NewStatusNotifier(publisher *Publisher, stores StoreLookup) *StatusNotifier {
	return &StatusNotifier{
		publisher: publisher,
		stores:    stores,
	}
}

func (n *StatusNotifier) StoreStatusChanged(ctx context.Context, a domain.StoreAvailability) error {
	store, err := n.stores.GetStoreByID(a.StoreID)
	if err != nil {
		return fmt.Errorf("无法获取店铺 %d: %w", a.StoreID, err)
	}
	if store.Email == "" {
		return nil
	}

	return n.publisher.Publish(ctx, domain.MailMessage{
		Type: domain.MailTypeStoreStatusChanged,
		To:   store.Email,
		Data: domain.StoreStatusChangedMailData{
			StoreName: store.StoreName,
			StoreID:   store.ID,
			IsOpen:    a.IsOpen,
			AsOf:      a.AsOf,
		},
	})
}

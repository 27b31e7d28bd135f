// Package events publishes account activity onto the message queue.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/daycare-hub/apiserver/internal/mq"
	"github.com/daycare-hub/apiserver/types"
)

const (
	TypeAccountRegistered = "account.registered"
	TypeAccountLogin      = "account.login"

	attrType = "type"
)

// Event is the JSON payload carried on the account channel. It never holds
// passwords, hashes or tokens.
type Event struct {
	Type       string     `json:"type"`
	AccountID  string     `json:"accountId"`
	Email      string     `json:"email"`
	Role       types.Role `json:"role"`
	OccurredAt time.Time  `json:"occurredAt"`
}

// Queue is the subset of *mq.MQ the publisher needs.
type Queue interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

type Publisher struct {
	queue   Queue
	channel string
	now     func() time.Time
}

func NewPublisher(queue Queue, channel string) *Publisher {
	return &Publisher{
		queue:   queue,
		channel: channel,
		now:     time.Now,
	}
}

func (p *Publisher) AccountRegistered(ctx context.Context, account types.Account) error {
	return p.publish(ctx, TypeAccountRegistered, account)
}

func (p *Publisher) LoginSucceeded(ctx context.Context, account types.Account) error {
	return p.publish(ctx, TypeAccountLogin, account)
}

func (p *Publisher) publish(ctx context.Context, eventType string, account types.Account) error {
	event := Event{
		Type:       eventType,
		AccountID:  account.ID,
		Email:      account.Email,
		Role:       account.Role,
		OccurredAt: p.now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", eventType, err)
	}

	_, err = p.queue.Publish(ctx, p.channel, data, map[string]string{
		attrType:           eventType,
		mq.AttrContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}
	return nil
}

// Decode parses a queued message back into an Event.
func Decode(msg mq.Message) (Event, error) {
	var event Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return Event{}, fmt.Errorf("decode event %s: %w", msg.ID, err)
	}
	if event.Type == "" {
		return Event{}, errors.New("event type is missing")
	}
	return event, nil
}

// Filter keeps events whose type is in types; an empty list keeps everything.
func Filter(event Event, eventTypes ...string) bool {
	if len(eventTypes) == 0 {
		return true
	}
	for _, t := range eventTypes {
		if t == event.Type {
			return true
		}
	}
	return false
}

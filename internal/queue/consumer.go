package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartActivityConsumer connects to the broker, declares the queue and
// appends every event to logPath as a single human-readable line.  It
// reconnects with exponential backoff (capped at 30s) and only returns
// when ctx is cancelled.  Messages that cannot be handled are rejected
// without requeue so a bad payload cannot loop.
func StartActivityConsumer(ctx context.Context, url, queueName, logPath string) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("activity-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, queueName, logPath)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("activity-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queueName, logPath string) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("activity-consumer: set QoS failed: %v", err)
	}
	if _, err := declare(ch, queueName); err != nil {
		return err
	}
	msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := HandleMessage(d.Body, logPath); err != nil {
				log.Printf("activity-consumer: handle message failed: %v", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes one event and appends its log line to logPath,
// creating the parent directory when needed.
func HandleMessage(body []byte, logPath string) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" {
		return errors.New("event without type")
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(FormatLine(ev) + "\n"); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as "[time] type | key=value | ...".
func FormatLine(ev Event) string {
	parts := []string{
		fmt.Sprintf("[%s] %s", ev.OccurredAt, ev.Type),
		fmt.Sprintf("entity_id=%d", ev.EntityID),
		fmt.Sprintf("owner_id=%d", ev.OwnerID),
		fmt.Sprintf("actor_id=%d", ev.ActorID),
	}
	switch {
	case ev.Record != nil:
		r := ev.Record
		parts = append(parts,
			fmt.Sprintf("crop=%q", r.CropName),
			fmt.Sprintf("season=%s", r.Season),
			fmt.Sprintf("revenue=%.2f", r.Revenue),
			fmt.Sprintf("net=%.2f", r.NetProfit),
			fmt.Sprintf("margin=%.2f%%", r.ProfitMargin))
	case ev.Advisory != nil:
		parts = append(parts,
			fmt.Sprintf("crop=%q", ev.Advisory.CropName),
			fmt.Sprintf("status=%s", ev.Advisory.Status))
	case ev.Order != nil:
		o := ev.Order
		transition := o.To
		if o.From != "" {
			transition = o.From + "->" + o.To
		}
		parts = append(parts,
			fmt.Sprintf("reference=%s", o.Reference),
			fmt.Sprintf("status=%s", transition),
			fmt.Sprintf("total=%s", o.Total))
	}
	return strings.Join(parts, " | ")
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

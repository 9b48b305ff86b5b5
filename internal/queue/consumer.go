package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartEventConsumers connects to RabbitMQ and starts one consumer per
// domain event queue. Each message is appended to logs/events.log in a
// single-line, human-friendly format. Each consumer runs a reconnect
// loop with exponential backoff and keeps running across broker
// restarts; processing errors are logged and the offending message is
// rejected without requeueing so the loop never spins.
func StartEventConsumers() {
	go consumeForever(TicketReservedQueue, formatTicketReserved)
	go consumeForever(PerformanceScheduledQueue, formatPerformanceScheduled)
}

func consumeForever(queueName string, format func([]byte) (string, error)) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(brokerURL())
		if err != nil {
			log.Printf("event-consumer[%s]: dial failed: %v; retrying in %s", queueName, err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(conn, queueName, format); err != nil {
			log.Printf("event-consumer[%s]: loop ended: %v; reconnecting", queueName, err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, queueName string, format func([]byte) (string, error)) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("event-consumer[%s]: set QoS failed: %v", queueName, err)
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		line, err := format(d.Body)
		if err != nil {
			log.Printf("event-consumer[%s]: handle message failed: %v", queueName, err)
			_ = d.Nack(false, false)
			continue
		}
		if err := appendEventLog(line); err != nil {
			log.Printf("event-consumer[%s]: write log failed: %v", queueName, err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func formatTicketReserved(body []byte) (string, error) {
	var ev TicketReservedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return "", fmt.Errorf("unmarshal: %w", err)
	}
	return fmt.Sprintf("[%s] Ticket reserved | ticket_id=%d | festival_id=%d | festival=%q | holder=%q\n",
		ev.ReservedAt, ev.TicketID, ev.FestivalID, ev.FestivalName, ev.Holder), nil
}

func formatPerformanceScheduled(body []byte) (string, error) {
	var ev PerformanceScheduledEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return "", fmt.Errorf("unmarshal: %w", err)
	}
	return fmt.Sprintf("[%s] Performance scheduled | performance_id=%d | festival_id=%d | stage_id=%d | band_id=%d | from=%s | to=%s\n",
		ev.ScheduledAt, ev.PerformanceID, ev.FestivalID, ev.StageID, ev.BandID, ev.TimeFrom, ev.TimeTo), nil
}

func appendEventLog(line string) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join("logs", "events.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

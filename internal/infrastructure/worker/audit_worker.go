package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/St1cky1/tarefas-service/internal/entity"
	"github.com/St1cky1/tarefas-service/internal/infrastructure/client"
	"github.com/St1cky1/tarefas-service/internal/repository"
	"github.com/go-pkgz/lgr"
	amqp "github.com/rabbitmq/amqp091-go"
)

const consumerTag = "audit_worker"

// errMalformed - сообщение не вернуть в очередь, оно никогда не разберётся
var errMalformed = errors.New("malformed audit message")

// errDeliveryClosed - брокер закрыл канал, дальше аудит не пишется
var errDeliveryClosed = errors.New("audit delivery channel closed")

// AuditWorker читает очередь аудита и пишет записи в task_audit.
type AuditWorker struct {
	url       string
	queueName string
	auditRepo repository.ITaskAuditRepository
	logger    lgr.L
}

func NewAuditWorker(url, queueName string, auditRepo repository.ITaskAuditRepository, logger lgr.L) *AuditWorker {
	return &AuditWorker{
		url:       url,
		queueName: queueName,
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// Start блокируется до отмены ctx или закрытия канала доставки.
func (w *AuditWorker) Start(ctx context.Context) error {
	// Отдельное соединение и канал для consumer'а
	conn, err := amqp.Dial(w.url)
	if err != nil {
		return fmt.Errorf("could not dial rabbitmq for worker: %w", err)
	}
	defer conn.Close()

	channel, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("could not open worker channel: %w", err)
	}
	defer channel.Close()

	if _, err := client.DeclareAuditQueue(channel, w.queueName); err != nil {
		return err
	}

	msgs, err := channel.Consume(
		w.queueName, // queue
		consumerTag, // consumer tag
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("could not start consumer: %w", err)
	}

	w.logger.Logf("INFO [audit-worker] consuming %s", w.queueName)
	return w.consume(ctx, msgs)
}

// consume обрабатывает доставки до отмены ctx. Если брокер закрыл канал,
// возвращает errDeliveryClosed.
func (w *AuditWorker) consume(ctx context.Context, msgs <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			w.logger.Logf("INFO [audit-worker] stopped")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				w.logger.Logf("ERROR [audit-worker] delivery channel closed by broker")
				return errDeliveryClosed
			}
			w.processMessage(ctx, msg)
		}
	}
}

func (w *AuditWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	err := w.handle(ctx, msg.Body)
	switch {
	case err == nil:
		if ackErr := msg.Ack(false); ackErr != nil {
			w.logger.Logf("WARN [audit-worker] ack %s: %v", msg.MessageId, ackErr)
		}
	case errors.Is(err, errMalformed):
		w.logger.Logf("ERROR [audit-worker] drop message %s: %v", msg.MessageId, err)
		if nackErr := msg.Nack(false, false); nackErr != nil {
			w.logger.Logf("WARN [audit-worker] nack %s: %v", msg.MessageId, nackErr)
		}
	default:
		w.logger.Logf("ERROR [audit-worker] requeue message %s: %v", msg.MessageId, err)
		if nackErr := msg.Nack(false, true); nackErr != nil {
			w.logger.Logf("WARN [audit-worker] nack %s: %v", msg.MessageId, nackErr)
		}
	}
}

// handle: разбор -> конвертация -> запись в БД
func (w *AuditWorker) handle(ctx context.Context, body []byte) error {
	var auditMsg entity.AuditMessage
	if err := json.Unmarshal(body, &auditMsg); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}

	taskAudit, err := convertToTaskAudit(&auditMsg)
	if err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}

	if err := w.auditRepo.Create(ctx, taskAudit); err != nil {
		return err
	}

	w.logger.Logf("DEBUG [audit-worker] saved %s task id=%d", taskAudit.Action, taskAudit.EntityID)
	return nil
}

func convertToTaskAudit(msg *entity.AuditMessage) (*entity.TaskAudit, error) {
	switch msg.Action {
	case entity.ActionCreate, entity.ActionUpdate, entity.ActionDelete:
	default:
		return nil, fmt.Errorf("unknown action %q", msg.Action)
	}

	oldValues, err := toJSONString(msg.OldValues)
	if err != nil {
		return nil, err
	}
	newValues, err := toJSONString(msg.NewValues)
	if err != nil {
		return nil, err
	}
	changes, err := toJSONString(msg.Changes)
	if err != nil {
		return nil, err
	}

	return &entity.TaskAudit{
		Action:     msg.Action,
		EntityType: "task",
		EntityID:   msg.EntityID,
		OldValues:  oldValues,
		NewValues:  newValues,
		Changes:    changes,
		ChangedAt:  msg.Timestamp,
	}, nil
}

func toJSONString(values map[string]any) (*string, error) {
	if values == nil {
		return nil, nil
	}
	b, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

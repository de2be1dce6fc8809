package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Виды заданий на отправку, различаемые консьюмером очереди.
const (
	kindVerification = "verification"
	kindResetCode    = "reset_code"
)

// emailJob — задание на отправку письма, публикуемое в очередь.
type emailJob struct {
	Kind     string `json:"kind"`
	To       string `json:"to"`
	Username string `json:"username"`
	// Link — ссылка подтверждения email (только kind=verification).
	Link string `json:"link,omitempty"`
	// Code — код сброса пароля (только kind=reset_code).
	Code string `json:"code,omitempty"`
}

// AMQPMailer публикует задания на отправку писем в durable-очередь RabbitMQ.
type AMQPMailer struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	ch      *amqp.Channel
	queue   string
	baseURL string
}

// NewAMQPMailer подключается к брокеру и объявляет очередь заданий.
// Очередь durable, сообщения persistent: задания переживают рестарт брокера.
func NewAMQPMailer(amqpURL, queue, baseURL string) (*AMQPMailer, error) {
	const op = "mailer.NewAMQPMailer"

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &AMQPMailer{
		conn:    conn,
		ch:      ch,
		queue:   queue,
		baseURL: baseURL,
	}, nil
}

// SendVerificationEmail публикует задание со ссылкой подтверждения email.
func (m *AMQPMailer) SendVerificationEmail(ctx context.Context, to, username, token string) error {
	const op = "mailer.AMQPMailer.SendVerificationEmail"

	job := emailJob{
		Kind:     kindVerification,
		To:       to,
		Username: username,
		Link:     m.baseURL + "/auth/verify?token=" + token,
	}

	if err := m.publish(ctx, job); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// SendResetCodeEmail публикует задание с кодом сброса пароля.
func (m *AMQPMailer) SendResetCodeEmail(ctx context.Context, to, username, code string) error {
	const op = "mailer.AMQPMailer.SendResetCodeEmail"

	job := emailJob{
		Kind:     kindResetCode,
		To:       to,
		Username: username,
		Code:     code,
	}

	if err := m.publish(ctx, job); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (m *AMQPMailer) publish(ctx context.Context, job emailJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}

	// Канал amqp не потокобезопасен — сериализуем публикации.
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.ch.PublishWithContext(ctx,
		"",      // default exchange
		m.queue, // routing key = имя очереди
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

// Close закрывает канал и соединение с брокером.
func (m *AMQPMailer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ch.Close(); err != nil {
		_ = m.conn.Close()
		return err
	}

	return m.conn.Close()
}

// Проверка на соответствие интерфейсу Mailer.
var _ Mailer = (*AMQPMailer)(nil)

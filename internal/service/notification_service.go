package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"wealth_manager/internal/domain"
)

type NotificationType string

const (
	NotificationEmail NotificationType = "email"
	NotificationLog   NotificationType = "log"
)

// NotificationService delivers new recommendations on a pool of workers so
// that the store never waits on a mail server.
type NotificationService struct {
	emailService EmailService
	recipient    string
	messageQueue chan NotificationMessage
	workers      int
	shutdownChan chan struct{}
	wg           sync.WaitGroup

	// mu orders enqueues before shutdown so drain sees every accepted message.
	mu     sync.RWMutex
	closed bool

	logger *slog.Logger
}

type NotificationMessage struct {
	Type      NotificationType
	Recipient string
	Subject   string
	Message   string
	Metadata  map[string]string
	CreatedAt time.Time
}

type EmailService interface {
	SendEmail(to, subject, body string) error
}

// NewNotificationService starts workers immediately. With a nil
// emailService or an empty recipient, recommendations go to the log only.
func NewNotificationService(
	emailService EmailService,
	recipient string,
	workers int,
	queueSize int,
	logger *slog.Logger,
) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 100
	}

	service := &NotificationService{
		emailService: emailService,
		recipient:    recipient,
		messageQueue: make(chan NotificationMessage, queueSize),
		workers:      workers,
		shutdownChan: make(chan struct{}),
		logger:       logger,
	}

	service.startWorkers()

	return service
}

// NotifyRecommendation queues rec without blocking. It reports false when
// the queue is full or the service is shut down.
func (s *NotificationService) NotifyRecommendation(rec domain.Recommendation) bool {
	notification := NotificationMessage{
		Type:    NotificationLog,
		Subject: fmt.Sprintf("New recommendation: %s", rec.Title),
		Message: fmt.Sprintf("%s\n\nCategory: %s\nStatus: %s", rec.Description, rec.Category, rec.Status),
		Metadata: map[string]string{
			"recommendation_id": rec.ID,
			"category":          string(rec.Category),
		},
		CreatedAt: rec.CreatedAt,
	}
	if s.emailService != nil && s.recipient != "" {
		notification.Type = NotificationEmail
		notification.Recipient = s.recipient
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}

	select {
	case s.messageQueue <- notification:
		s.logger.Debug("Notification queued",
			slog.String("type", string(notification.Type)),
			slog.String("recommendation_id", rec.ID))
		return true
	default:
		return false
	}
}

func (s *NotificationService) startWorkers() {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

func (s *NotificationService) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("Notification worker started", slog.Int("worker_id", id))

	for {
		select {
		case msg := <-s.messageQueue:
			s.processNotification(msg, id)
		case <-s.shutdownChan:
			s.drain(id)
			s.logger.Debug("Notification worker stopping", slog.Int("worker_id", id))
			return
		}
	}
}

// drain delivers whatever is still queued at shutdown.
func (s *NotificationService) drain(workerID int) {
	for {
		select {
		case msg := <-s.messageQueue:
			s.processNotification(msg, workerID)
		default:
			return
		}
	}
}

func (s *NotificationService) processNotification(msg NotificationMessage, workerID int) {
	startTime := time.Now()
	var err error

	switch msg.Type {
	case NotificationEmail:
		err = s.emailService.SendEmail(msg.Recipient, msg.Subject, msg.Message)
	case NotificationLog:
		s.logger.Info("Recommendation",
			slog.String("subject", msg.Subject),
			slog.String("recommendation_id", msg.Metadata["recommendation_id"]),
			slog.String("category", msg.Metadata["category"]))
	default:
		err = fmt.Errorf("unknown notification type: %s", msg.Type)
	}

	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Failed to send notification",
			slog.String("type", string(msg.Type)),
			slog.String("recipient", msg.Recipient),
			slog.String("error", err.Error()),
			slog.Int("worker_id", workerID),
			slog.Duration("duration", duration))
	} else if msg.Type != NotificationLog {
		s.logger.Info("Notification sent successfully",
			slog.String("type", string(msg.Type)),
			slog.String("recipient", msg.Recipient),
			slog.Int("worker_id", workerID),
			slog.Duration("duration", duration))
	}
}

func (s *NotificationService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.shutdownChan)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Notification service shutdown complete")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MockEmailService records emails instead of sending them.
type MockEmailService struct {
	mu         sync.Mutex
	SentEmails []struct {
		To      string
		Subject string
		Body    string
	}
}

func (m *MockEmailService) SendEmail(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentEmails = append(m.SentEmails, struct {
		To      string
		Subject string
		Body    string
	}{to, subject, body})
	return nil
}

func (m *MockEmailService) Sent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SentEmails)
}

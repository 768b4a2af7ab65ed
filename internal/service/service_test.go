package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
	"wealth_manager/internal/domain"
)

type failingEmailService struct{}

func (failingEmailService) SendEmail(to, subject, body string) error {
	return errors.New("smtp unavailable")
}

func testRecommendation(id string) domain.Recommendation {
	return domain.Recommendation{
		ID:          id,
		Title:       domain.TitleUtilization,
		Description: "Pay down the card.",
		Category:    domain.CategoryDebt,
		Status:      domain.StatusPending,
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestNotificationService_SendsEmail(t *testing.T) {
	mock := &MockEmailService{}
	svc := NewNotificationService(mock, "me@example.com", 2, 10, nil)

	if !svc.NotifyRecommendation(testRecommendation("r1")) {
		t.Fatal("expected notification to be queued")
	}
	if err := svc.Shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected shutdown error: %v", err)
	}

	if mock.Sent() != 1 {
		t.Fatalf("expected 1 email, got %d", mock.Sent())
	}
	sent := mock.SentEmails[0]
	if sent.To != "me@example.com" {
		t.Errorf("expected recipient me@example.com, got %s", sent.To)
	}
	if sent.Subject != "New recommendation: "+domain.TitleUtilization {
		t.Errorf("unexpected subject %q", sent.Subject)
	}
}

func TestNotificationService_LogOnlyWithoutRecipient(t *testing.T) {
	mock := &MockEmailService{}
	svc := NewNotificationService(mock, "", 1, 10, nil)

	svc.NotifyRecommendation(testRecommendation("r1"))
	if err := svc.Shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected shutdown error: %v", err)
	}

	if mock.Sent() != 0 {
		t.Errorf("expected no email without a recipient, got %d", mock.Sent())
	}
}

func TestNotificationService_FailedSendDoesNotStopWorkers(t *testing.T) {
	svc := NewNotificationService(failingEmailService{}, "me@example.com", 1, 10, nil)

	for _, id := range []string{"r1", "r2"} {
		if !svc.NotifyRecommendation(testRecommendation(id)) {
			t.Fatalf("expected %s to be queued", id)
		}
	}
	if err := svc.Shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected shutdown error: %v", err)
	}
}

func TestNotificationService_RejectsAfterShutdown(t *testing.T) {
	svc := NewNotificationService(nil, "", 1, 10, nil)
	if err := svc.Shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected shutdown error: %v", err)
	}
	if err := svc.Shutdown(context.Background()); err != nil {
		t.Fatalf("expected second shutdown to be harmless, got %v", err)
	}

	if svc.NotifyRecommendation(testRecommendation("r1")) {
		t.Error("expected notification to be rejected after shutdown")
	}
}

func TestNotificationService_FullQueueDoesNotBlock(t *testing.T) {
	block := make(chan struct{})
	slow := &blockingEmailService{release: block}
	svc := NewNotificationService(slow, "me@example.com", 1, 1, slog.Default())
	defer func() {
		close(block)
		_ = svc.Shutdown(context.Background())
	}()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			svc.NotifyRecommendation(testRecommendation("r"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("NotifyRecommendation blocked on a full queue")
	}
}

func TestNotificationService_AcceptedMessagesSurviveShutdown(t *testing.T) {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	for round := 0; round < 20; round++ {
		mock := &MockEmailService{}
		svc := NewNotificationService(mock, "me@example.com", 2, 1000, quiet)

		var accepted sync.WaitGroup
		var count int64
		var mu sync.Mutex
		for i := 0; i < 4; i++ {
			accepted.Add(1)
			go func() {
				defer accepted.Done()
				for j := 0; j < 50; j++ {
					if svc.NotifyRecommendation(testRecommendation("r")) {
						mu.Lock()
						count++
						mu.Unlock()
					}
				}
			}()
		}
		if err := svc.Shutdown(context.Background()); err != nil {
			t.Fatalf("unexpected shutdown error: %v", err)
		}
		accepted.Wait()

		if got := int64(mock.Sent()); got != count {
			t.Fatalf("round %d: accepted %d notifications but sent %d", round, count, got)
		}
	}
}

type blockingEmailService struct {
	release chan struct{}
}

func (b *blockingEmailService) SendEmail(to, subject, body string) error {
	<-b.release
	return nil
}

type fakeCompactor struct {
	mu      sync.Mutex
	cutoffs []time.Time
}

func (f *fakeCompactor) CompactRecommendations(ctx context.Context, cutoff time.Time) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return 2
}

func TestRetentionService_Run(t *testing.T) {
	compactor := &fakeCompactor{}
	svc := NewRetentionService(compactor, 30*24*time.Hour, nil)
	now := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	if removed := svc.Run(context.Background()); removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}

	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if len(compactor.cutoffs) != 1 || !compactor.cutoffs[0].Equal(want) {
		t.Errorf("expected cutoff %v, got %v", want, compactor.cutoffs)
	}
}

func TestRetentionService_Start(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		svc := NewRetentionService(&fakeCompactor{}, 0, nil)
		if err := svc.Start("not a schedule"); err != nil {
			t.Errorf("expected disabled retention to ignore the schedule, got %v", err)
		}
	})

	t.Run("invalid schedule", func(t *testing.T) {
		svc := NewRetentionService(&fakeCompactor{}, time.Hour, nil)
		if err := svc.Start("not a schedule"); err == nil {
			t.Error("expected an error for an invalid schedule")
		}
	})

	t.Run("valid schedule", func(t *testing.T) {
		svc := NewRetentionService(&fakeCompactor{}, time.Hour, nil)
		if err := svc.Start("@daily"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := svc.Shutdown(context.Background()); err != nil {
			t.Errorf("unexpected shutdown error: %v", err)
		}
	})
}

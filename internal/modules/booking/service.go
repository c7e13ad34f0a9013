package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"gearbook/internal/database"
	"gearbook/internal/domain"
	"gearbook/internal/repository"
)

const (
	DefaultPerPage = 15
	MaxPerPage     = 100
	maxTitleLen    = 255
)

// RetryPolicy bounds how often a transaction aborted by the database's
// concurrency control is attempted again.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

type Service struct {
	bookings  BookingRepository
	equipment EquipmentRepository
	tx        TxRunner
	retry     RetryPolicy
}

func NewService(bookings BookingRepository, equipment EquipmentRepository, tx TxRunner, retry RetryPolicy) *Service {
	if retry.Attempts < 1 {
		retry.Attempts = 1
	}
	return &Service{
		bookings:  bookings,
		equipment: equipment,
		tx:        tx,
		retry:     retry,
	}
}

type CreateBookingInput struct {
	Title       string
	Description *string
	Window      domain.Window
	Items       []domain.RequestedItem
}

type ListQuery struct {
	Status  domain.BookingStatus
	From    *time.Time
	To      *time.Time
	Page    int
	PerPage int
}

type BookingPage struct {
	Bookings []domain.Booking
	Total    int64
	Page     int
	PerPage  int
	LastPage int
}

// CheckAvailability is advisory: it takes no lock and writes nothing, so
// its answer can be stale by the time CreateBooking runs.
func (s *Service) CheckAvailability(ctx context.Context, tenant domain.TenantID, w domain.Window, items []domain.RequestedItem) (*AvailabilityReport, error) {
	if err := validateRequest(tenant, w, items); err != nil {
		return nil, err
	}
	return s.assess(ctx, tenant, w, items, false)
}

// CreateBooking re-runs the capacity computation under equipment row locks
// and inserts the booking in the same transaction. Either every item fits
// and the booking is confirmed, or nothing is written.
func (s *Service) CreateBooking(ctx context.Context, tenant domain.TenantID, in CreateBookingInput) (*domain.Booking, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, invalid("title", "title is required")
	}
	if len(in.Title) > maxTitleLen {
		return nil, invalid("title", "title must be at most %d characters", maxTitleLen)
	}
	if err := validateRequest(tenant, in.Window, in.Items); err != nil {
		return nil, err
	}

	var created *domain.Booking
	err := s.withRetry(ctx, "create_booking", func(ctx context.Context) error {
		return s.tx.Transaction(ctx, func(ctx context.Context) error {
			report, err := s.assess(ctx, tenant, in.Window, in.Items, true)
			if err != nil {
				return err
			}
			if missing := report.missing(); len(missing) > 0 {
				return fmt.Errorf("%w: id %d", ErrEquipmentNotFound, missing[0])
			}
			if short := report.shortfalls(); len(short) > 0 {
				return &CapacityConflictError{Items: short}
			}

			b := &domain.Booking{
				TenantID:    tenant,
				Title:       in.Title,
				Description: in.Description,
				StartDate:   in.Window.Start,
				EndDate:     in.Window.End,
				Status:      domain.BookingConfirmed,
				Items:       make([]domain.BookingItem, 0, len(in.Items)),
			}
			for _, it := range in.Items {
				b.Items = append(b.Items, domain.BookingItem{EquipmentID: it.EquipmentID, Qty: it.Qty})
			}
			if err := s.bookings.Create(ctx, b); err != nil {
				return err
			}

			created, err = s.bookings.GetByID(ctx, tenant, b.ID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) CompleteBooking(ctx context.Context, tenant domain.TenantID, id int64) (*domain.Booking, error) {
	return s.transition(ctx, tenant, id, domain.BookingCompleted)
}

// CancelBooking releases the booking's capacity. The row and its items are
// kept.
func (s *Service) CancelBooking(ctx context.Context, tenant domain.TenantID, id int64) (*domain.Booking, error) {
	return s.transition(ctx, tenant, id, domain.BookingCancelled)
}

func (s *Service) transition(ctx context.Context, tenant domain.TenantID, id int64, target domain.BookingStatus) (*domain.Booking, error) {
	if !tenant.Valid() {
		return nil, invalid("company_id", "tenant is required")
	}

	var out *domain.Booking
	err := s.withRetry(ctx, "transition_"+string(target), func(ctx context.Context) error {
		return s.tx.Transaction(ctx, func(ctx context.Context) error {
			b, err := s.bookings.GetForUpdate(ctx, tenant, id)
			if err != nil {
				return notFound(err, ErrBookingNotFound)
			}
			if !b.Status.CanTransitionTo(target) {
				return &IllegalTransitionError{Current: b.Status, Target: target}
			}

			n, err := s.bookings.UpdateStatus(ctx, tenant, id, b.Status, target)
			if err != nil {
				return err
			}
			if n == 0 {
				cur, err := s.bookings.GetByID(ctx, tenant, id)
				if err != nil {
					return notFound(err, ErrBookingNotFound)
				}
				return &IllegalTransitionError{Current: cur.Status, Target: target}
			}

			out, err = s.bookings.GetByID(ctx, tenant, id)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) GetBooking(ctx context.Context, tenant domain.TenantID, id int64) (*domain.Booking, error) {
	if !tenant.Valid() {
		return nil, invalid("company_id", "tenant is required")
	}
	b, err := s.bookings.GetByID(ctx, tenant, id)
	if err != nil {
		return nil, notFound(err, ErrBookingNotFound)
	}
	return b, nil
}

func (s *Service) ListBookings(ctx context.Context, tenant domain.TenantID, q ListQuery) (*BookingPage, error) {
	if !tenant.Valid() {
		return nil, invalid("company_id", "tenant is required")
	}
	if q.Status != "" && !q.Status.Valid() {
		return nil, invalid("status", "unknown status %q", q.Status)
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = DefaultPerPage
	}
	if q.PerPage > MaxPerPage {
		q.PerPage = MaxPerPage
	}

	rows, total, err := s.bookings.List(ctx, tenant, repository.BookingFilter{
		Status: q.Status,
		From:   q.From,
		To:     q.To,
		Limit:  q.PerPage,
		Offset: (q.Page - 1) * q.PerPage,
	})
	if err != nil {
		return nil, err
	}

	last := int((total + int64(q.PerPage) - 1) / int64(q.PerPage))
	if last < 1 {
		last = 1
	}
	return &BookingPage{
		Bookings: rows,
		Total:    total,
		Page:     q.Page,
		PerPage:  q.PerPage,
		LastPage: last,
	}, nil
}

// withRetry repeats fn while it fails with a retryable concurrency abort.
// Once the attempts are spent the last abort is returned wrapped in
// ErrTransactionConflict.
func (s *Service) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := s.retry.Attempts
	if database.InTransaction(ctx) {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil || !database.IsRetryable(err) {
			return err
		}

		log.Warn().Err(err).Str("op", op).Int("attempt", attempt).Int("max_attempts", attempts).Msg("transaction aborted by concurrency control")
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrTransactionConflict, ctx.Err())
		case <-time.After(s.retry.Backoff * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("%w: %w", ErrTransactionConflict, err)
}

func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

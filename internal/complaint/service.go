package complaint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Store persists complaint records. Update, Delete and
// MarkReplacementReceived report found=false for unknown serials instead of
// failing. Create returns ErrDuplicateSerial when the serial is taken and
// Get returns ErrNotFound.
type Store interface {
	Create(ctx context.Context, rec Record) error
	Update(ctx context.Context, rec Record) (bool, error)
	Delete(ctx context.Context, serial string) (bool, error)
	Get(ctx context.Context, serial string) (Record, error)
	List(ctx context.Context, q ListQuery) ([]Record, error)
	Count(ctx context.Context) (int, error)
	NextSequence(ctx context.Context) (int, error)
	MarkReplacementReceived(ctx context.Context, serial string) (bool, error)
	ListPendingReplacement(ctx context.Context) ([]Record, error)
}

const maxSerialAttempts = 5

type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Save updates the record named by rec.Serial, or creates a new record with
// a freshly allocated serial when rec.Serial is empty.
func (s *Service) Save(ctx context.Context, rec Record) (Record, bool, error) {
	if rec.Serial == "" {
		created, err := s.Create(ctx, rec)
		return created, true, err
	}
	found, err := s.store.Update(ctx, rec)
	if err != nil {
		return Record{}, false, fmt.Errorf("update complaint %s: %w", rec.Serial, err)
	}
	if !found {
		return Record{}, false, ErrNotFound
	}
	return rec, false, nil
}

func (s *Service) Create(ctx context.Context, rec Record) (Record, error) {
	for attempt := 1; attempt <= maxSerialAttempts; attempt++ {
		seq, err := s.store.NextSequence(ctx)
		if err != nil {
			return Record{}, fmt.Errorf("allocate serial: %w", err)
		}
		rec.Serial = FormatSerial(seq)
		err = s.store.Create(ctx, rec)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, ErrDuplicateSerial) {
			return Record{}, fmt.Errorf("create complaint %s: %w", rec.Serial, err)
		}
		s.logger.Warn("serial_conflict", "serial", rec.Serial, "attempt", attempt)
	}
	return Record{}, fmt.Errorf("allocate serial after %d attempts: %w", maxSerialAttempts, ErrDuplicateSerial)
}

// CreateWithSerial inserts a record whose serial was supplied by the caller.
func (s *Service) CreateWithSerial(ctx context.Context, rec Record) error {
	if rec.Serial == "" {
		return errors.New("serial is required")
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return fmt.Errorf("create complaint %s: %w", rec.Serial, err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, serial string) (Record, error) {
	rec, err := s.store.Get(ctx, serial)
	if err != nil {
		return Record{}, fmt.Errorf("get complaint %s: %w", serial, err)
	}
	return rec, nil
}

func (s *Service) Delete(ctx context.Context, serial string) (bool, error) {
	found, err := s.store.Delete(ctx, serial)
	if err != nil {
		return false, fmt.Errorf("delete complaint %s: %w", serial, err)
	}
	return found, nil
}

// List returns one page. PageSize <= 0 lists everything.
func (s *Service) List(ctx context.Context, q ListQuery) (Page, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 0 {
		q.PageSize = 0
	}
	if !ValidSortField(q.SortBy) {
		q.SortBy = DefaultSortField
	}

	records, err := s.store.List(ctx, q)
	if err != nil {
		return Page{}, fmt.Errorf("list complaints: %w", err)
	}
	total, err := s.store.Count(ctx)
	if err != nil {
		return Page{}, fmt.Errorf("count complaints: %w", err)
	}

	return Page{
		Records:    records,
		Total:      total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		Offset:     q.Offset(),
		IsLastPage: IsLastPage(q.Page, q.PageSize, total),
	}, nil
}

func IsLastPage(page, pageSize, total int) bool {
	if pageSize <= 0 {
		return true
	}
	return page*pageSize >= total
}

func (s *Service) MarkReplacementReceived(ctx context.Context, serial string) (bool, error) {
	found, err := s.store.MarkReplacementReceived(ctx, serial)
	if err != nil {
		return false, fmt.Errorf("mark replacement received %s: %w", serial, err)
	}
	return found, nil
}

func (s *Service) PendingReplacements(ctx context.Context) ([]Record, error) {
	records, err := s.store.ListPendingReplacement(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending replacements: %w", err)
	}
	return records, nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	total, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count complaints: %w", err)
	}
	return total, nil
}

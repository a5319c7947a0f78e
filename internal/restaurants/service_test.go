package restaurants

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateful/plateful-backend/pkg/db/models"
	pkgerrors "github.com/plateful/plateful-backend/pkg/errors"
)

type stubLoader struct {
	record *models.Restaurant
	err    error
}

func (s *stubLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.record, nil
}

func TestGetByIDNotFound(t *testing.T) {
	t.Parallel()

	svc, err := NewService(&stubLoader{err: gorm.ErrRecordNotFound})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.GetByID(context.Background(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestEnsureOrderableRejectsInactive(t *testing.T) {
	t.Parallel()

	record := &models.Restaurant{ID: uuid.New(), Active: false, Approved: true}
	svc, _ := NewService(&stubLoader{record: record})

	_, err := svc.EnsureOrderable(context.Background(), record.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEnsureOrderableRejectsUnapproved(t *testing.T) {
	t.Parallel()

	record := &models.Restaurant{ID: uuid.New(), Active: true, Approved: false}
	svc, _ := NewService(&stubLoader{record: record})

	_, err := svc.EnsureOrderable(context.Background(), record.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEnsureOrderableSuccess(t *testing.T) {
	t.Parallel()

	record := &models.Restaurant{ID: uuid.New(), Active: true, Approved: true}
	svc, _ := NewService(&stubLoader{record: record})

	got, err := svc.EnsureOrderable(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != record {
		t.Fatal("expected record to match")
	}
}

func TestIsOpenAtRegularWindow(t *testing.T) {
	t.Parallel()

	r := &models.Restaurant{OpeningMinute: 9 * 60, ClosingMinute: 17 * 60}

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if !IsOpenAt(r, at) {
		t.Fatal("expected open at noon")
	}

	at = time.Date(2026, 3, 1, 8, 59, 0, 0, time.UTC)
	if IsOpenAt(r, at) {
		t.Fatal("expected closed before opening")
	}
}

func TestIsOpenAtOvernightWindow(t *testing.T) {
	t.Parallel()

	// 22:00 - 04:00
	r := &models.Restaurant{OpeningMinute: 22 * 60, ClosingMinute: 4 * 60}

	cases := []struct {
		hour int
		open bool
	}{
		{23, true},
		{2, true},
		{4, true},
		{12, false},
		{21, false},
	}
	for _, tc := range cases {
		at := time.Date(2026, 3, 1, tc.hour, 0, 0, 0, time.UTC)
		if got := IsOpenAt(r, at); got != tc.open {
			t.Fatalf("hour %d: expected open=%v, got %v", tc.hour, tc.open, got)
		}
	}
}

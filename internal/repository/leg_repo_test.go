package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/groupparlay/coordinator/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func sampleLeg() *domain.Leg {
	in := domain.LegInput{
		GameDesc:     "Bills @ Chiefs",
		MarketKey:    "spreads",
		Selection:    "Bills +3.5",
		AmericanOdds: -110,
	}
	return in.ToLeg(uuid.New(), uuid.New())
}

func TestLegRepository_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)

	t.Run("inserts when the week is open", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`INSERT INTO legs .* WHERE EXISTS`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		l := sampleLeg()
		if err := NewLegRepository(db).Create(ctx, l, now); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !l.CreatedAt.Equal(now) {
			t.Errorf("CreatedAt = %v, want %v", l.CreatedAt, now)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unmet expectations: %v", err)
		}
	})

	t.Run("second leg for the same week is a conflict", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`INSERT INTO legs`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "legs_user_week_key"})

		err := NewLegRepository(db).Create(ctx, sampleLeg(), now)
		if !errors.Is(err, domain.ErrLegAlreadySubmitted) {
			t.Fatalf("err = %v, want ErrLegAlreadySubmitted", err)
		}
		if !domain.IsConflict(err) {
			t.Error("duplicate submission should classify as conflict")
		}
	})

	t.Run("locked or missing week inserts nothing", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`INSERT INTO legs`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewLegRepository(db).Create(ctx, sampleLeg(), now)
		if !errors.Is(err, domain.ErrWeekNotOpen) {
			t.Fatalf("err = %v, want ErrWeekNotOpen", err)
		}
	})

	t.Run("backend errors keep their cause", func(t *testing.T) {
		db, mock := newMockDB(t)
		boom := errors.New("connection reset")
		mock.ExpectExec(`INSERT INTO legs`).WillReturnError(boom)

		err := NewLegRepository(db).Create(ctx, sampleLeg(), now)
		if !errors.Is(err, boom) {
			t.Fatalf("err = %v, want wrapped %v", err, boom)
		}
		if domain.IsConflict(err) || domain.IsNotFound(err) {
			t.Error("transient error must not look like a domain error")
		}
	})
}

func TestLegRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("applies when status still matches", func(t *testing.T) {
		db, mock := newMockDB(t)
		rows := sqlmock.NewRows([]string{"id", "status", "american_odds"}).
			AddRow(id.String(), "OK", -110)
		mock.ExpectQuery(`UPDATE legs\s+SET status`).WillReturnRows(rows)

		l, err := NewLegRepository(db).UpdateStatus(ctx, id, domain.LegPending, domain.LegOK, nil)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if l.ID != id || l.Status != domain.LegOK {
			t.Errorf("leg = %+v", l)
		}
	})

	t.Run("lost race reports state changed", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`UPDATE legs`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := NewLegRepository(db).UpdateStatus(ctx, id, domain.LegPending, domain.LegOK, nil)
		if !errors.Is(err, domain.ErrLegStateChanged) {
			t.Fatalf("err = %v, want ErrLegStateChanged", err)
		}
	})
}

func TestLegRepository_OwnerGuards(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	db, mock := newMockDB(t)
	mock.ExpectExec(`UPDATE legs .* status = 'PENDING'`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM legs`).WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewLegRepository(db)
	if err := repo.UpdateByOwner(ctx, sampleLeg(), now); !errors.Is(err, domain.ErrLegNotEditable) {
		t.Errorf("UpdateByOwner err = %v, want ErrLegNotEditable", err)
	}
	if err := repo.DeleteByOwner(ctx, uuid.New(), uuid.New()); !errors.Is(err, domain.ErrLegNotEditable) {
		t.Errorf("DeleteByOwner err = %v, want ErrLegNotEditable", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

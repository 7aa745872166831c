package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/groupparlay/coordinator/internal/domain"
	"github.com/groupparlay/coordinator/internal/repository"
	"github.com/groupparlay/coordinator/internal/service"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(db *sqlx.DB) *service.AuthService {
	return service.NewAuthService(
		db,
		repository.NewUserRepository(db),
		repository.NewProfileRepository(db),
		testConfig(),
	)
}

func TestAuthService_RegisterCreatesMemberProfile(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO profiles`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := newAuthService(db)
	team := "  Gridiron Gamblers "
	resp, err := svc.Register(context.Background(), service.RegisterRequest{
		Name:     "Sam",
		Email:    "Sam@Example.com ",
		Password: "correct horse",
		TeamName: &team,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.Profile.Role != domain.RoleMember {
		t.Errorf("role = %s, want MEMBER", resp.Profile.Role)
	}
	if resp.Profile.Email != "sam@example.com" {
		t.Errorf("email = %q, want normalized", resp.Profile.Email)
	}
	if resp.Profile.TeamName == nil || *resp.Profile.TeamName != "Gridiron Gamblers" {
		t.Errorf("team name = %v", resp.Profile.TeamName)
	}

	claims, err := svc.ParseAccessToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.Role != string(domain.RoleMember) || claims.Subject != resp.Profile.UserID.String() {
		t.Errorf("claims = %+v", claims)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestAuthService_RegisterDuplicateEmailRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})
	mock.ExpectRollback()

	_, err := newAuthService(db).Register(context.Background(), service.RegisterRequest{
		Name: "Sam", Email: "sam@example.com", Password: "correct horse",
	})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	userID := uuid.New()
	userRow := func(active bool) *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "email", "password_hash", "is_active"}).
			AddRow(userID.String(), "sam@example.com", string(hash), active)
	}

	t.Run("commissioner role comes from the profile", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT \* FROM users WHERE email`).WillReturnRows(userRow(true))
		mock.ExpectQuery(`SELECT \* FROM profiles WHERE user_id`).WillReturnRows(
			sqlmock.NewRows([]string{"id", "user_id", "name", "role"}).
				AddRow(uuid.NewString(), userID.String(), "Sam", "COMMISSIONER"))

		svc := newAuthService(db)
		resp, err := svc.Login(context.Background(), "sam@example.com", "correct horse")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		claims, err := svc.ParseAccessToken(resp.AccessToken)
		if err != nil {
			t.Fatalf("ParseAccessToken: %v", err)
		}
		if claims.Role != string(domain.RoleCommissioner) {
			t.Errorf("role claim = %q, want COMMISSIONER", claims.Role)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT \* FROM users WHERE email`).WillReturnRows(userRow(true))

		_, err := newAuthService(db).Login(context.Background(), "sam@example.com", "wrong")
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("err = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("unknown email looks like a wrong password", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT \* FROM users WHERE email`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := newAuthService(db).Login(context.Background(), "nobody@example.com", "x")
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("err = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("deactivated account", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT \* FROM users WHERE email`).WillReturnRows(userRow(false))

		_, err := newAuthService(db).Login(context.Background(), "sam@example.com", "correct horse")
		if !errors.Is(err, domain.ErrUserInactive) {
			t.Fatalf("err = %v, want ErrUserInactive", err)
		}
	})
}

func TestAuthService_TokenTypesAreNotInterchangeable(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO profiles`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := newAuthService(db)
	resp, err := svc.Register(context.Background(), service.RegisterRequest{
		Name: "Sam", Email: "sam@example.com", Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err := svc.ParseAccessToken(resp.RefreshToken); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("refresh token accepted as access token: %v", err)
	}
	if _, _, err := svc.RefreshToken(context.Background(), resp.AccessToken); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("access token accepted as refresh token: %v", err)
	}
	if _, err := svc.ParseAccessToken("not-a-jwt"); !domain.IsAuthError(err) {
		t.Errorf("garbage token: %v", err)
	}
}

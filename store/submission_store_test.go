package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"aadinath/api/models"
)

func newMock(t *testing.T) (*SubmissionPGStore, *UserStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	log := zap.NewNop().Sugar()
	return NewSubmissionStore(db, log), NewUserStore(db, log), mock
}

func TestSubmissionStore_Insert(t *testing.T) {
	subs, _, mock := newMock(t)
	saved := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	lag := int64(50000)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO customer_submissions")).
		WithArgs("S1", nil, "Ravi", "", "98250", "Bhavnagar", "Gujarat", "India",
			"Construction", "5 tons", "B-1", "verification_page", nil, lag).
		WillReturnRows(sqlmock.NewRows([]string{"id", "submitted_at"}).AddRow(7, saved))

	sub := &models.CustomerSubmission{
		SessionID: "S1", Name: "Ravi", Phone: "98250", City: "Bhavnagar", State: "Gujarat", Country: "India",
		UseCase: "Construction", QuantityNeeded: "5 tons", BatchID: "B-1", Source: "verification_page",
		TimeFromScanToSubmit: &lag,
	}
	require.NoError(t, subs.InsertSubmission(context.Background(), sub))
	assert.Equal(t, int64(7), sub.ID)
	assert.Equal(t, saved, sub.Timestamp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionStore_InsertError(t *testing.T) {
	subs, _, mock := newMock(t)
	mock.ExpectQuery("INSERT INTO customer_submissions").WillReturnError(errors.New("connection refused"))

	err := subs.InsertSubmission(context.Background(), &models.CustomerSubmission{Name: "Ravi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert submission")
}

func TestSubmissionStore_List(t *testing.T) {
	subs, _, mock := newMock(t)
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM customer_submissions WHERE submitted_at >= $1 AND submitted_at <= $2 AND lower(city) = lower($3) "+
			"ORDER BY submitted_at DESC, id DESC LIMIT $4")).
		WithArgs(start, end, "bhavnagar", 10).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "session_id", "scan_event_id", "name", "email", "phone", "city", "state", "country",
			"use_case", "quantity_needed", "batch_id", "source", "submitted_at", "time_from_scan_to_submit",
		}).
			AddRow(2, "S1", nil, "Ravi", "", "98250", "Bhavnagar", "Gujarat", "India", "Construction", "", "B-1", "verification_page", start.Add(time.Hour), 50000).
			AddRow(1, nil, nil, "Asha", "a@x.in", "", "Bhavnagar", "", "India", "", "", "", "verification_page", start, nil))

	got, err := subs.ListSubmissions(context.Background(), Filter{City: "bhavnagar", Order: OrderDesc, Limit: 10}.Between(start, end))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "S1", got[0].SessionID)
	require.NotNil(t, got[0].TimeFromScanToSubmit)
	assert.Equal(t, int64(50000), *got[0].TimeFromScanToSubmit)

	assert.False(t, got[1].Correlatable())
	assert.Nil(t, got[1].TimeFromScanToSubmit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionStore_Count(t *testing.T) {
	subs, _, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM customer_submissions WHERE session_id = $1")).
		WithArgs("S1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := subs.CountSubmissions(context.Background(), Filter{SessionID: "S1"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestUserStore_Create(t *testing.T) {
	_, users, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("admin@aadinath.in", []byte("hash")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "created_at", "updated_at"}).
			AddRow(1, "admin@aadinath.in", now, now))

	user, err := users.CreateUser(context.Background(), "admin@aadinath.in", []byte("hash"))
	require.NoError(t, err)
	assert.Equal(t, 1, user.ID)
}

func TestUserStore_CreateDuplicate(t *testing.T) {
	_, users, mock := newMock(t)
	mock.ExpectQuery("INSERT INTO users").WillReturnError(&pq.Error{Code: uniqueViolation})

	_, err := users.CreateUser(context.Background(), "admin@aadinath.in", []byte("hash"))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserStore_GetByEmailNotFound(t *testing.T) {
	_, users, mock := newMock(t)
	mock.ExpectQuery("SELECT id, email, hashed_password").
		WithArgs("nobody@aadinath.in").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "hashed_password", "created_at", "updated_at"}))

	_, err := users.GetUserByEmail(context.Background(), "nobody@aadinath.in")
	assert.ErrorIs(t, err, ErrNotFound)
}

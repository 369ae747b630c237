package repository_test

import (
	"context"
	"testing"
	"time"

	"go-gin-cinema-booking/internal/model"
	"go-gin-cinema-booking/internal/repository"
	apperrors "go-gin-cinema-booking/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestBooking(t *testing.T, fixture catalogFixture) *model.Booking {
	t.Helper()
	ctx := context.Background()
	db := getTestDB(t)

	tx, err := db.Begin(ctx)
	require.NoError(t, err)
	booking, err := repository.NewBookingRepository(db).Create(ctx, tx, &model.Booking{
		ID:         uuid.New(),
		CustomerID: fixture.CustomerID,
		ShowtimeID: fixture.ShowtimeID,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	return booking
}

func TestBookingRepository_Create(t *testing.T) {
	setupTestWithTruncate(t)
	fixture := createTestCatalog(t, time.Now().Add(24*time.Hour))

	booking := createTestBooking(t, fixture)

	assert.Equal(t, model.BookingStatusPendingPayment, booking.Status)
	assert.Equal(t, fixture.CustomerID, booking.CustomerID)
	assert.Nil(t, booking.DiscountID)
	assert.Nil(t, booking.ExpiredAt)
	assert.NotZero(t, booking.CreatedAt)
}

func TestBookingRepository_FindActiveByID(t *testing.T) {
	repo := repository.NewBookingRepository(getTestDB(t))
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		setupTestWithTruncate(t)
		booking := createTestBooking(t, createTestCatalog(t, time.Now().Add(24*time.Hour)))

		found, err := repo.FindActiveByID(ctx, booking.ID)

		require.NoError(t, err)
		assert.Equal(t, booking.ID, found.ID)
	})

	t.Run("NotFound - expired booking is hidden", func(t *testing.T) {
		setupTestWithTruncate(t)
		booking := createTestBooking(t, createTestCatalog(t, time.Now().Add(24*time.Hour)))

		tx, err := testDB.Begin(ctx)
		require.NoError(t, err)
		now := time.Now()
		_, err = repo.UpdateStatus(ctx, tx, booking.ID, model.BookingStatusExpired, &now)
		require.NoError(t, err)
		require.NoError(t, tx.Commit(ctx))

		_, err = repo.FindActiveByID(ctx, booking.ID)
		assert.ErrorIs(t, err, apperrors.ErrBookingNotFound)
	})
}

func TestBookingRepository_ListActive(t *testing.T) {
	setupTestWithTruncate(t)
	repo := repository.NewBookingRepository(getTestDB(t))
	ctx := context.Background()

	fixture := createTestCatalog(t, time.Now().Add(24*time.Hour))
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		ids = append(ids, createTestBooking(t, fixture).ID)
	}

	t.Run("Ascending pages", func(t *testing.T) {
		first, err := repo.ListActive(ctx, 1, 2, model.SortAsc)
		require.NoError(t, err)
		require.Len(t, first, 2)
		assert.Equal(t, ids[0], first[0].ID)
		assert.Equal(t, ids[1], first[1].ID)

		second, err := repo.ListActive(ctx, 2, 2, model.SortAsc)
		require.NoError(t, err)
		require.Len(t, second, 1)
		assert.Equal(t, ids[2], second[0].ID)
	})

	t.Run("Descending", func(t *testing.T) {
		bookings, err := repo.ListActive(ctx, 1, 10, model.SortDesc)
		require.NoError(t, err)
		require.Len(t, bookings, 3)
		assert.Equal(t, ids[2], bookings[0].ID)
	})
}

func TestBookingRepository_UpdatePending(t *testing.T) {
	setupTestWithTruncate(t)
	repo := repository.NewBookingRepository(getTestDB(t))
	ctx := context.Background()

	fixture := createTestCatalog(t, time.Now().Add(24*time.Hour))
	booking := createTestBooking(t, fixture)

	var discountID int64
	mustScan(t, testDB.QueryRow(ctx,
		`INSERT INTO discounts (code, is_percentage, amount) VALUES ('SUMMER10', TRUE, 10) RETURNING id`,
	), &discountID)

	tx := setupTestWithTransaction(t)

	updated, err := repo.UpdatePending(ctx, tx, booking.ID, model.PendingBookingUpdate{DiscountID: &discountID})
	require.NoError(t, err)
	require.NotNil(t, updated.DiscountID)
	assert.Equal(t, discountID, *updated.DiscountID)

	removed, err := repo.UpdatePending(ctx, tx, booking.ID, model.PendingBookingUpdate{RemoveDiscount: true})
	require.NoError(t, err)
	assert.Nil(t, removed.DiscountID)
}

func TestBookingRepository_ListExpirableIDs(t *testing.T) {
	setupTestWithTruncate(t)
	repo := repository.NewBookingRepository(getTestDB(t))
	ctx := context.Background()

	fixture := createTestCatalog(t, time.Now().Add(24*time.Hour))
	stale := createTestBooking(t, fixture)
	fresh := createTestBooking(t, fixture)

	_, err := testDB.Exec(ctx, `UPDATE bookings SET created_at = NOW() - INTERVAL '1 hour' WHERE id = $1`, stale.ID)
	require.NoError(t, err)

	ids, err := repo.ListExpirableIDs(ctx, time.Now().Add(-15*time.Minute), 200)

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{stale.ID}, ids)
	assert.NotContains(t, ids, fresh.ID)
}

package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/testfixtures"
)

func newVenueService(store *testfixtures.MemoryVenueStore) *application.VenueService {
	clock := testfixtures.NewClock(time.Time{})
	ids := testfixtures.NewIDGenerator("v")
	return application.NewVenueService(store, ids.NextFunc(), clock.NowFunc(), nil)
}

func TestVenueService_CreateVenue(t *testing.T) {
	t.Parallel()

	t.Run("persists venues for registrars", func(t *testing.T) {
		t.Parallel()
		svc := newVenueService(testfixtures.NewMemoryVenueStore())

		created, err := svc.CreateVenue(context.Background(), application.CreateVenueParams{
			Principal: testfixtures.RegistrarPrincipal(),
			Input:     application.VenueInput{Name: "Lecture Hall A", Building: "Main", Capacity: 120},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, 120, created.Capacity)
	})

	t.Run("denies viewers", func(t *testing.T) {
		t.Parallel()
		svc := newVenueService(testfixtures.NewMemoryVenueStore())

		_, err := svc.CreateVenue(context.Background(), application.CreateVenueParams{
			Principal: testfixtures.ViewerPrincipal(),
			Input:     application.VenueInput{Name: "Lecture Hall A", Building: "Main", Capacity: 120},
		})
		assert.ErrorIs(t, err, application.ErrUnauthorized)
	})

	t.Run("rejects non-positive capacity", func(t *testing.T) {
		t.Parallel()
		svc := newVenueService(testfixtures.NewMemoryVenueStore())

		_, err := svc.CreateVenue(context.Background(), application.CreateVenueParams{
			Principal: testfixtures.RegistrarPrincipal(),
			Input:     application.VenueInput{Name: "Hall", Building: "Main", Capacity: 0},
		})
		vErr, ok := application.AsValidationError(err)
		require.True(t, ok)
		assert.Contains(t, vErr.Fields, "capacity")
	})

	t.Run("maps duplicate name and building to the sentinel", func(t *testing.T) {
		t.Parallel()
		svc := newVenueService(testfixtures.NewMemoryVenueStore())

		params := application.CreateVenueParams{
			Principal: testfixtures.RegistrarPrincipal(),
			Input:     application.VenueInput{Name: "Hall", Building: "Main", Capacity: 50},
		}
		_, err := svc.CreateVenue(context.Background(), params)
		require.NoError(t, err)
		_, err = svc.CreateVenue(context.Background(), params)
		assert.ErrorIs(t, err, application.ErrAlreadyExists)
	})
}

func TestVenueService_UpdateVenue(t *testing.T) {
	t.Parallel()

	t.Run("replaces mutable attributes", func(t *testing.T) {
		t.Parallel()
		store := testfixtures.NewMemoryVenueStore()
		venue := testfixtures.NewVenue()
		store.Seed(venue)
		svc := newVenueService(store)

		updated, err := svc.UpdateVenue(context.Background(), application.UpdateVenueParams{
			Principal: testfixtures.RegistrarPrincipal(),
			VenueID:   venue.ID,
			Input:     application.VenueInput{Name: "Renamed", Building: venue.Building, Capacity: 75},
		})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Name)
		assert.Equal(t, 75, updated.Capacity)
	})

	t.Run("propagates missing venues", func(t *testing.T) {
		t.Parallel()
		svc := newVenueService(testfixtures.NewMemoryVenueStore())

		_, err := svc.UpdateVenue(context.Background(), application.UpdateVenueParams{
			Principal: testfixtures.RegistrarPrincipal(),
			VenueID:   "nope",
			Input:     application.VenueInput{Name: "Hall", Building: "Main", Capacity: 10},
		})
		assert.ErrorIs(t, err, application.ErrNotFound)
	})
}

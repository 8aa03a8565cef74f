package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tracknet-io/tracknet/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

func createTestUser(t *testing.T, s *store.Store, email, role string) *store.User {
	t.Helper()

	u := &store.User{
		FullName:     "Test User",
		Email:        email,
		PasswordHash: "hash",
		Role:         role,
	}
	require.NoError(t, s.CreateUser(context.Background(), u))

	return u
}

func createTestBranch(t *testing.T, s *store.Store) *store.Branch {
	t.Helper()

	b := &store.Branch{
		BranchName:    "Central",
		BranchAddress: "1 Depot Way",
		BranchPhone:   "555-0100",
	}
	require.NoError(t, s.CreateBranch(context.Background(), b))

	return b
}

func createTestShipment(t *testing.T, s *store.Store, clientID string, branchID int64) *store.Shipment {
	t.Helper()

	price, err := s.PriceFor(context.Background(), "standard", 2)
	require.NoError(t, err)

	sh := &store.Shipment{
		TrackingNumber:      "TK1000000001",
		ClientID:            clientID,
		OriginBranchID:      branchID,
		DestinationBranchID: branchID,
		WeightKg:            2,
		ServiceType:         "standard",
		Price:               price,
		SenderName:          "Ann Sender",
		ReceiverName:        "Bob Receiver",
	}
	require.NoError(t, s.CreateShipment(context.Background(), sh))

	return sh
}

func TestUserLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "ann@example.com", store.RoleClient)
	require.NotEmpty(t, u.ID)

	got, err := s.UserByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, store.RoleClient, got.Role)
	assert.Empty(t, got.ActiveSessionID)

	_, err = s.UserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.UpdateUserRole(ctx, u.ID, store.RoleStaff, nil)
	require.NoError(t, err)
	got, err = s.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, store.RoleStaff, got.Role)

	require.NoError(t, s.DeleteUser(ctx, u.ID))
	_, err = s.UserByID(ctx, u.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestActiveSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "ann@example.com", store.RoleClient)

	require.NoError(t, s.SetActiveSession(ctx, u.ID, "s1"))
	got, err := s.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ActiveSessionID)

	// overwrite: only one active session exists at a time
	require.NoError(t, s.SetActiveSession(ctx, u.ID, "s2"))
	got, err = s.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "s2", got.ActiveSessionID)

	// logout clears it
	require.NoError(t, s.SetActiveSession(ctx, u.ID, ""))
	got, err = s.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ActiveSessionID)

	assert.ErrorIs(t, s.SetActiveSession(ctx, "ghost", "s3"), store.ErrNotFound)
}

func TestListUsersIncludesBranchName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := createTestBranch(t, s)
	staff := &store.User{
		FullName:     "Staff Member",
		Email:        "staff@example.com",
		PasswordHash: "hash",
		Role:         store.RoleStaff,
		BranchID:     &b.ID,
	}
	require.NoError(t, s.CreateUser(ctx, staff))
	client := createTestUser(t, s, "client@example.com", store.RoleClient)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	var found bool
	for _, u := range users {
		if u.Email == "staff@example.com" {
			found = true
			assert.Equal(t, "Central", u.BranchName)
		}
	}
	assert.True(t, found)

	clients, err := s.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, client.ID, clients[0].ID)
}

func TestPriceFor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("default base rate", func(t *testing.T) {
		price, err := s.PriceFor(ctx, "unknown", 2)
		require.NoError(t, err)
		assert.Equal(t, 8.0, price)
	})

	t.Run("configured base rate", func(t *testing.T) {
		require.NoError(t, s.CreateRate(ctx, &store.Rate{ServiceName: "express", BaseRate: 12.5}))

		price, err := s.PriceFor(ctx, "express", 4)
		require.NoError(t, err)
		assert.Equal(t, 18.5, price)
	})

	t.Run("rounded to cents", func(t *testing.T) {
		price, err := s.PriceFor(ctx, "unknown", 0.333)
		require.NoError(t, err)
		assert.Equal(t, 5.5, price)
	})
}

func TestCreateShipmentWritesInitialUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	client := createTestUser(t, s, "client@example.com", store.RoleClient)
	branch := createTestBranch(t, s)
	sh := createTestShipment(t, s, client.ID, branch.ID)

	got, history, err := s.ShipmentByTracking(ctx, sh.TrackingNumber)
	require.NoError(t, err)
	assert.Equal(t, store.StatusPending, got.Status)
	assert.Equal(t, "Central", got.OriginBranchName)

	require.Len(t, history, 1)
	assert.Equal(t, "1 Depot Way", history[0].Location)
	assert.Equal(t, "Shipment created and pending pickup.", history[0].StatusUpdate)
}

func TestListShipmentsSearchAndPaging(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	client := createTestUser(t, s, "client@example.com", store.RoleClient)
	branch := createTestBranch(t, s)

	for i, tn := range []string{"TK1000000001", "TK1000000002", "TK2000000001"} {
		sh := &store.Shipment{
			TrackingNumber:      tn,
			ClientID:            client.ID,
			OriginBranchID:      branch.ID,
			DestinationBranchID: branch.ID,
			WeightKg:            float64(i + 1),
			ServiceType:         "standard",
			SenderName:          "Ann Sender",
			ReceiverName:        "Bob Receiver",
		}
		require.NoError(t, s.CreateShipment(ctx, sh))
	}

	t.Run("pagination", func(t *testing.T) {
		page, err := s.ListShipments(ctx, 1, 2, "")
		require.NoError(t, err)
		assert.Equal(t, 3, page.TotalCount)
		assert.Equal(t, 2, page.TotalPages)
		assert.Len(t, page.Shipments, 2)
	})

	t.Run("search by tracking number", func(t *testing.T) {
		page, err := s.ListShipments(ctx, 1, 10, "TK2")
		require.NoError(t, err)
		require.Len(t, page.Shipments, 1)
		assert.Equal(t, "TK2000000001", page.Shipments[0].TrackingNumber)
	})

	t.Run("search by sender", func(t *testing.T) {
		page, err := s.ListShipments(ctx, 1, 10, "Ann")
		require.NoError(t, err)
		assert.Len(t, page.Shipments, 3)
	})
}

func TestShipmentStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	client := createTestUser(t, s, "client@example.com", store.RoleClient)
	other := createTestUser(t, s, "other@example.com", store.RoleClient)
	branch := createTestBranch(t, s)

	sh := createTestShipment(t, s, client.ID, branch.ID)
	otherSh := &store.Shipment{
		TrackingNumber:      "TK9000000001",
		ClientID:            other.ID,
		OriginBranchID:      branch.ID,
		DestinationBranchID: branch.ID,
		WeightKg:            1,
		ServiceType:         "standard",
		SenderName:          "X",
		ReceiverName:        "Y",
	}
	require.NoError(t, s.CreateShipment(ctx, otherSh))

	_, err := s.AddShipmentUpdate(ctx, sh.ID, "Hub", store.StatusInTransit)
	require.NoError(t, err)

	all, err := s.ShipmentStats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, all.Total)
	assert.Equal(t, 1, all.Pending)
	assert.Equal(t, 1, all.InTransit)

	mine, err := s.ShipmentStats(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, mine.Total)
	assert.Equal(t, 1, mine.InTransit)
}

func TestAddShipmentUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	client := createTestUser(t, s, "client@example.com", store.RoleClient)
	branch := createTestBranch(t, s)
	sh := createTestShipment(t, s, client.ID, branch.ID)

	update, err := s.AddShipmentUpdate(ctx, sh.ID, "Sorting Hub", store.StatusInTransit)
	require.NoError(t, err)
	assert.Equal(t, store.StatusInTransit, update.StatusUpdate)
	assert.Equal(t, "Sorting Hub", update.Location)

	got, history, err := s.ShipmentByTracking(ctx, sh.TrackingNumber)
	require.NoError(t, err)
	assert.Equal(t, store.StatusInTransit, got.Status)

	// newest first for tracking views
	require.Len(t, history, 2)
	assert.Equal(t, store.StatusInTransit, history[0].StatusUpdate)

	// oldest first for the public history endpoint
	asc, err := s.HistoryByTracking(ctx, sh.TrackingNumber)
	require.NoError(t, err)
	require.Len(t, asc, 2)
	assert.Equal(t, "Shipment created and pending pickup.", asc[0].StatusUpdate)

	t.Run("unknown shipment", func(t *testing.T) {
		_, err := s.AddShipmentUpdate(ctx, 9999, "Nowhere", store.StatusDelayed)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestAddHistoryEntryLeavesStatusAlone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	client := createTestUser(t, s, "client@example.com", store.RoleClient)
	branch := createTestBranch(t, s)
	sh := createTestShipment(t, s, client.ID, branch.ID)

	entry, err := s.AddHistoryEntry(ctx, sh.ID, "Sorting Hub", "Package rerouted due to weather")
	require.NoError(t, err)
	assert.Equal(t, "Package rerouted due to weather", entry.StatusUpdate)
	assert.Equal(t, "Sorting Hub", entry.Location)

	got, history, err := s.ShipmentByTracking(ctx, sh.TrackingNumber)
	require.NoError(t, err)
	assert.Equal(t, store.StatusPending, got.Status)

	require.Len(t, history, 2)
	assert.Equal(t, "Package rerouted due to weather", history[0].StatusUpdate)

	t.Run("unknown shipment", func(t *testing.T) {
		_, err := s.AddHistoryEntry(ctx, 9999, "Nowhere", "note")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestUpdateShipmentPartial(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	client := createTestUser(t, s, "client@example.com", store.RoleClient)
	branch := createTestBranch(t, s)
	sh := createTestShipment(t, s, client.ID, branch.ID)

	weight := 10.0
	status := store.StatusDelayed
	updated, err := s.UpdateShipment(ctx, sh.ID, &store.ShipmentChanges{
		WeightKg: &weight,
		Status:   &status,
	})
	require.NoError(t, err)
	assert.Equal(t, 10.0, updated.WeightKg)
	assert.Equal(t, store.StatusDelayed, updated.Status)
	// untouched fields survive
	assert.Equal(t, "Ann Sender", updated.SenderName)
	assert.Equal(t, sh.TrackingNumber, updated.TrackingNumber)

	t.Run("empty change set", func(t *testing.T) {
		got, err := s.UpdateShipment(ctx, sh.ID, &store.ShipmentChanges{})
		require.NoError(t, err)
		assert.Equal(t, 10.0, got.WeightKg)
	})

	t.Run("unknown shipment", func(t *testing.T) {
		_, err := s.UpdateShipment(ctx, 9999, &store.ShipmentChanges{Status: &status})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestDeleteShipment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	client := createTestUser(t, s, "client@example.com", store.RoleClient)
	branch := createTestBranch(t, s)
	sh := createTestShipment(t, s, client.ID, branch.ID)

	clientID, err := s.DeleteShipment(ctx, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, client.ID, clientID)

	_, _, err = s.ShipmentByTracking(ctx, sh.TrackingNumber)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.DeleteShipment(ctx, sh.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRecentActivity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	client := createTestUser(t, s, "client@example.com", store.RoleClient)
	branch := createTestBranch(t, s)
	sh := createTestShipment(t, s, client.ID, branch.ID)

	for i := 0; i < 6; i++ {
		_, err := s.AddShipmentUpdate(ctx, sh.ID, "Hub", store.StatusInTransit)
		require.NoError(t, err)
	}

	entries, err := s.RecentActivity(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	for _, e := range entries {
		assert.Equal(t, sh.TrackingNumber, e.TrackingNumber)
	}
}

func TestSummary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	client := createTestUser(t, s, "client@example.com", store.RoleClient)
	branch := createTestBranch(t, s)
	createTestShipment(t, s, client.ID, branch.ID)

	summary, err := s.Summary(ctx)
	require.NoError(t, err)

	require.Len(t, summary.DailyShipments, 1)
	assert.Equal(t, 1, summary.DailyShipments[0].Count)

	require.Len(t, summary.StatusBreakdown, 1)
	assert.Equal(t, store.StatusPending, summary.StatusBreakdown[0].Status)

	require.Len(t, summary.DailyRevenue, 1)
	assert.Equal(t, 8.0, summary.DailyRevenue[0].Revenue)
}

func TestBranchCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := createTestBranch(t, s)

	branches, err := s.ListBranches(ctx)
	require.NoError(t, err)
	require.Len(t, branches, 1)

	b.BranchName = "North"
	require.NoError(t, s.UpdateBranch(ctx, b))
	got, err := s.BranchByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "North", got.BranchName)

	require.NoError(t, s.DeleteBranch(ctx, b.ID))
	assert.ErrorIs(t, s.DeleteBranch(ctx, b.ID), store.ErrNotFound)
}

func TestRateCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := &store.Rate{ServiceName: "express", BaseRate: 12.5}
	require.NoError(t, s.CreateRate(ctx, r))

	rates, err := s.ListRates(ctx)
	require.NoError(t, err)
	require.Len(t, rates, 1)

	r.BaseRate = 15
	require.NoError(t, s.UpdateRate(ctx, r))

	rates, err = s.ListRates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 15.0, rates[0].BaseRate)

	require.NoError(t, s.DeleteRate(ctx, r.ID))
	assert.ErrorIs(t, s.DeleteRate(ctx, r.ID), store.ErrNotFound)
}

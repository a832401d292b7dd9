package sync

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/gurutech/guru-erp/internal/db"
	"github.com/gurutech/guru-erp/internal/engine"
	"github.com/gurutech/guru-erp/internal/models"
)

// MockGateway is a mock implementation of Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) FetchAll(ctx context.Context) (*db.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.Snapshot), args.Error(1)
}

func (m *MockGateway) InsertTicket(ctx context.Context, ticket models.Ticket) (string, error) {
	args := m.Called(ctx, ticket)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) UpdateTicket(ctx context.Context, id string, update models.TicketUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

func (m *MockGateway) AssignTicket(ctx context.Context, id, technicianID, scheduledDate string) error {
	args := m.Called(ctx, id, technicianID, scheduledDate)
	return args.Error(0)
}

func (m *MockGateway) StartTicket(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockGateway) CompleteTicket(ctx context.Context, id string, p engine.CompleteParams) error {
	args := m.Called(ctx, id, p)
	return args.Error(0)
}

func (m *MockGateway) CancelTicket(ctx context.Context, id, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *MockGateway) InsertLead(ctx context.Context, lead models.Lead) (string, error) {
	args := m.Called(ctx, lead)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) UpdateLead(ctx context.Context, id string, update models.LeadUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

func (m *MockGateway) DeleteLead(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockGateway) ConvertLead(ctx context.Context, id string, details engine.ConversionDetails) (string, error) {
	args := m.Called(ctx, id, details)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) InsertCustomer(ctx context.Context, customer models.Customer) (string, error) {
	args := m.Called(ctx, customer)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) AddMachine(ctx context.Context, customerID string, machine models.Machine) (string, error) {
	args := m.Called(ctx, customerID, machine)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) UpdateMachine(ctx context.Context, customerID string, machine models.Machine) error {
	args := m.Called(ctx, customerID, machine)
	return args.Error(0)
}

func (m *MockGateway) DeleteMachine(ctx context.Context, customerID, machineID string) error {
	args := m.Called(ctx, customerID, machineID)
	return args.Error(0)
}

func (m *MockGateway) InsertPart(ctx context.Context, part models.Part) (string, error) {
	args := m.Called(ctx, part)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) UpdatePart(ctx context.Context, id string, part models.Part) error {
	args := m.Called(ctx, id, part)
	return args.Error(0)
}

func (m *MockGateway) InsertMachineType(ctx context.Context, mt models.MachineType) (string, error) {
	args := m.Called(ctx, mt)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) InsertUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) UpdateUser(ctx context.Context, id string, user models.User) error {
	args := m.Called(ctx, id, user)
	return args.Error(0)
}

func (m *MockGateway) DeleteUser(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func baseSnapshot() *db.Snapshot {
	return &db.Snapshot{
		Tickets: []models.Ticket{
			{
				ID: "t1", CustomerID: "c1", CustomerName: "Hotel Saravana",
				Description: "Leak", Status: models.TicketPending,
				ItemsUsed: []models.ServiceItem{},
			},
		},
		Customers: []models.Customer{
			{ID: "c1", Name: "Hotel Saravana", Phone: "9884011111", Machines: []models.Machine{
				{ID: "m1", ModelNo: "AquaPure 500"},
			}},
		},
		Leads: []models.Lead{
			{ID: "l1", Name: "Dr. Priya Raman", Phone: "9884044444", Status: models.LeadNew},
		},
		Parts: []models.Part{
			{ID: "p1", Name: "Carbon Filter", Price: 350, StockQuantity: 35},
		},
		Users: []models.User{
			{ID: "u1", Name: "Admin", Email: "admin@gurutech.in", Role: models.RoleAdmin},
			{ID: "u2", Name: "Ravi", Email: "ravi@gurutech.in", Role: models.RoleTechnician},
		},
	}
}

func loadedClient(t *testing.T, gateway *MockGateway) *Client {
	t.Helper()
	gateway.On("FetchAll", mock.Anything).Return(baseSnapshot(), nil).Once()
	client := NewClient(gateway, nil)
	if err := client.Load(context.Background()); err != nil {
		t.Fatalf("Failed to load client: %v", err)
	}
	return client
}

func TestClientOptimisticApply(t *testing.T) {
	t.Run("successful assign keeps the optimistic state", func(t *testing.T) {
		gateway := new(MockGateway)
		client := loadedClient(t, gateway)
		gateway.On("AssignTicket", mock.Anything, "t1", "u2", "2024-06-18").Return(nil)

		err := client.AssignTicket("t1", "u2", "2024-06-18")
		assert.NoError(t, err)

		state := client.State()
		assert.Equal(t, models.TicketAssigned, state.Tickets[0].Status)
		assert.Equal(t, "u2", state.Tickets[0].AssignedTechnicianID)
		gateway.AssertExpectations(t)
	})

	t.Run("failed assign restores the exact prior state", func(t *testing.T) {
		gateway := new(MockGateway)
		client := loadedClient(t, gateway)
		before := client.State()

		var notified []string
		client.notifier = NotifierFunc(func(msg string) { notified = append(notified, msg) })
		gateway.On("AssignTicket", mock.Anything, "t1", "u2", "2024-06-18").Return(assert.AnError)

		err := client.AssignTicket("t1", "u2", "2024-06-18")
		assert.Error(t, err)

		after := client.State()
		assert.True(t, reflect.DeepEqual(before, after), "state must be restored byte-for-byte")
		assert.Equal(t, models.TicketPending, after.Tickets[0].Status)
		assert.Len(t, notified, 1)
	})

	t.Run("failed create removes the optimistic record", func(t *testing.T) {
		gateway := new(MockGateway)
		client := loadedClient(t, gateway)
		before := client.State()

		gateway.On("InsertLead", mock.Anything, mock.AnythingOfType("models.Lead")).Return("", assert.AnError)

		err := client.CreateLead(models.Lead{Name: "Walk-in Customer", Phone: "9884099999"})
		assert.Error(t, err)
		assert.True(t, reflect.DeepEqual(before, client.State()))
	})

	t.Run("failed delete restores the removed record", func(t *testing.T) {
		gateway := new(MockGateway)
		client := loadedClient(t, gateway)
		before := client.State()

		gateway.On("DeleteUser", mock.Anything, "u2").Return(assert.AnError)

		err := client.DeleteUser("u2")
		assert.Error(t, err)
		assert.True(t, reflect.DeepEqual(before, client.State()))
		assert.Len(t, client.State().Users, 2)
	})

	t.Run("optimistic create assigns a client-side id", func(t *testing.T) {
		gateway := new(MockGateway)
		client := loadedClient(t, gateway)

		gateway.On("InsertTicket", mock.Anything, mock.MatchedBy(func(tk models.Ticket) bool {
			return tk.ID != "" && tk.Status == models.TicketPending
		})).Return("server-id", nil)

		err := client.CreateTicket(models.Ticket{CustomerID: "c1", Description: "New install"})
		assert.NoError(t, err)
		assert.Len(t, client.State().Tickets, 2)
		gateway.AssertExpectations(t)
	})
}

func TestClientCreatedRecordsStayAddressable(t *testing.T) {
	t.Run("created ticket can be assigned under the id the remote saw", func(t *testing.T) {
		gateway := new(MockGateway)
		client := loadedClient(t, gateway)

		var sentID string
		gateway.On("InsertTicket", mock.Anything, mock.MatchedBy(func(tk models.Ticket) bool {
			sentID = tk.ID
			return tk.ID != ""
		})).Return("", nil)

		assert.NoError(t, client.CreateTicket(models.Ticket{CustomerID: "c1", Description: "New install"}))

		state := client.State()
		assert.Equal(t, sentID, state.Tickets[1].ID, "local id must match the id the remote received")

		gateway.On("AssignTicket", mock.Anything, sentID, "u2", "2024-06-18").Return(nil)
		assert.NoError(t, client.AssignTicket(state.Tickets[1].ID, "u2", "2024-06-18"))
		gateway.AssertExpectations(t)
	})

	t.Run("adopts a server-assigned id when the remote remaps it", func(t *testing.T) {
		gateway := new(MockGateway)
		client := loadedClient(t, gateway)

		gateway.On("InsertLead", mock.Anything, mock.AnythingOfType("models.Lead")).Return("l2", nil)

		assert.NoError(t, client.CreateLead(models.Lead{Name: "Walk-in Customer", Phone: "9884099999"}))

		state := client.State()
		if assert.Len(t, state.Leads, 2) {
			assert.Equal(t, "l2", state.Leads[1].ID)
		}
	})
}

func TestClientRollbackPreservesOtherKinds(t *testing.T) {
	gateway := new(MockGateway)
	client := loadedClient(t, gateway)

	assignStarted := make(chan struct{})
	releaseAssign := make(chan struct{})
	gateway.On("AssignTicket", mock.Anything, "t1", "u2", "2024-06-18").
		Run(func(mock.Arguments) {
			close(assignStarted)
			<-releaseAssign
		}).
		Return(assert.AnError)
	gateway.On("InsertLead", mock.Anything, mock.AnythingOfType("models.Lead")).Return("", nil)

	assignErr := make(chan error, 1)
	go func() { assignErr <- client.AssignTicket("t1", "u2", "2024-06-18") }()
	<-assignStarted

	// A lead commits while the ticket write is still in flight.
	assert.NoError(t, client.CreateLead(models.Lead{Name: "Walk-in Customer", Phone: "9884099999"}))

	close(releaseAssign)
	assert.Error(t, <-assignErr)

	state := client.State()
	assert.Equal(t, models.TicketPending, state.Tickets[0].Status, "failed assign must roll back")
	assert.Len(t, state.Leads, 2, "rollback must not erase the committed lead")
}

func TestClientCompoundReload(t *testing.T) {
	t.Run("complete reloads the snapshot on success", func(t *testing.T) {
		gateway := new(MockGateway)
		client := loadedClient(t, gateway)

		reloaded := baseSnapshot()
		reloaded.Tickets[0].Status = models.TicketCompleted
		reloaded.Tickets[0].TotalAmount = 550
		reloaded.Parts[0].StockQuantity = 34

		gateway.On("CompleteTicket", mock.Anything, "t1", mock.Anything).Return(nil)
		gateway.On("FetchAll", mock.Anything).Return(reloaded, nil).Once()

		err := client.CompleteTicket("t1", engine.CompleteParams{
			Items:         []engine.ConsumedItem{{PartID: "p1", Quantity: 1}},
			ServiceCharge: 200,
		})
		assert.NoError(t, err)

		state := client.State()
		assert.Equal(t, 550.0, state.Tickets[0].TotalAmount)
		assert.Equal(t, 34, state.Parts[0].StockQuantity)
		gateway.AssertExpectations(t)
	})

	t.Run("failed complete rolls back without reloading", func(t *testing.T) {
		gateway := new(MockGateway)
		client := loadedClient(t, gateway)
		before := client.State()

		gateway.On("CompleteTicket", mock.Anything, "t1", mock.Anything).Return(assert.AnError)

		err := client.CompleteTicket("t1", engine.CompleteParams{})
		assert.Error(t, err)
		assert.True(t, reflect.DeepEqual(before, client.State()))
		gateway.AssertNumberOfCalls(t, "FetchAll", 1) // only the initial load
	})

	t.Run("convert reloads to pick up the new customer", func(t *testing.T) {
		gateway := new(MockGateway)
		client := loadedClient(t, gateway)

		reloaded := baseSnapshot()
		reloaded.Leads[0].Status = models.LeadConverted
		reloaded.Customers = append(reloaded.Customers, models.Customer{
			ID: "c2", Name: "Dr. Priya Raman", Phone: "9884044444",
		})

		gateway.On("ConvertLead", mock.Anything, "l1", mock.Anything).Return("c2", nil)
		gateway.On("FetchAll", mock.Anything).Return(reloaded, nil).Once()

		err := client.ConvertLead("l1", engine.ConversionDetails{})
		assert.NoError(t, err)

		state := client.State()
		assert.Len(t, state.Customers, 2)
		assert.Equal(t, models.LeadConverted, state.Leads[0].Status)
	})
}

func TestClientOfflineFallback(t *testing.T) {
	t.Run("unreachable server loads the demo dataset", func(t *testing.T) {
		gateway := new(MockGateway)
		gateway.On("FetchAll", mock.Anything).Return(nil, assert.AnError).Once()

		var notified []string
		client := NewClient(gateway, NotifierFunc(func(msg string) { notified = append(notified, msg) }))
		err := client.Load(context.Background())
		assert.NoError(t, err)
		assert.True(t, client.Offline())
		assert.Len(t, notified, 1)

		state := client.State()
		assert.NotEmpty(t, state.Tickets)
		assert.NotEmpty(t, state.Customers)
		assert.NotEmpty(t, state.Parts)
	})

	t.Run("offline writes apply locally and never hit the remote", func(t *testing.T) {
		gateway := new(MockGateway)
		gateway.On("FetchAll", mock.Anything).Return(nil, assert.AnError).Once()

		client := NewClient(gateway, nil)
		assert.NoError(t, client.Load(context.Background()))

		ticketID := client.State().Tickets[0].ID
		err := client.AssignTicket(ticketID, "u2", "2024-06-18")
		assert.NoError(t, err)

		state := client.State()
		assert.Equal(t, models.TicketAssigned, state.Tickets[0].Status)
		gateway.AssertNotCalled(t, "AssignTicket", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestClientStateIsolation(t *testing.T) {
	gateway := new(MockGateway)
	client := loadedClient(t, gateway)

	state := client.State()
	state.Tickets[0].Description = "Mutated"
	state.Customers[0].Machines[0].ModelNo = "Changed"

	fresh := client.State()
	assert.Equal(t, "Leak", fresh.Tickets[0].Description)
	assert.Equal(t, "AquaPure 500", fresh.Customers[0].Machines[0].ModelNo)
}

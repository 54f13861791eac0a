package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xavierca1/realty-crm/internal/entity"
)

type MockStore[T any] struct {
	mock.Mock
}

func (m *MockStore[T]) Find(ctx context.Context, filter bson.M, opts entity.FindOptions) ([]T, error) {
	args := m.Called(ctx, filter, opts)
	items, _ := args.Get(0).([]T)
	return items, args.Error(1)
}

func (m *MockStore[T]) Count(ctx context.Context, filter bson.M) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore[T]) FindOne(ctx context.Context, filter bson.M) (*T, error) {
	args := m.Called(ctx, filter)
	doc, _ := args.Get(0).(*T)
	return doc, args.Error(1)
}

func (m *MockStore[T]) Insert(ctx context.Context, doc *T) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockStore[T]) Update(ctx context.Context, filter bson.M, set bson.M) (bool, error) {
	args := m.Called(ctx, filter, set)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore[T]) Delete(ctx context.Context, id bson.ObjectID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, id bson.ObjectID) error {
	return m.Called(ctx, id).Error(0)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, email *entity.Email) error {
	return m.Called(ctx, email).Error(0)
}

type MockHasher struct {
	mock.Mock
}

func (m *MockHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockHasher) Compare(hash, password string) bool {
	return m.Called(hash, password).Bool(0)
}

type MockIssuer struct {
	mock.Mock
}

func (m *MockIssuer) Issue(p entity.Principal) (string, error) {
	args := m.Called(p)
	return args.String(0), args.Error(1)
}

type countingRecorder struct {
	delivered, failed, refused int
}

func (r *countingRecorder) Delivered()      { r.delivered++ }
func (r *countingRecorder) Failed()         { r.failed++ }
func (r *countingRecorder) DispatchFailed() { r.refused++ }

var (
	adminID  = mustID("65a1b2c3d4e5f6789abcdef0")
	agentA   = mustID("65a1b2c3d4e5f6789abcdef1")
	agentB   = mustID("65a1b2c3d4e5f6789abcdef2")
	viewerID = mustID("65a1b2c3d4e5f6789abcdef9")

	admin  = entity.Principal{UserID: adminID, Email: "admin@realty.test", Name: "Sarah Johnson", Role: entity.RoleAdmin}
	agent  = entity.Principal{UserID: agentA, Email: "michael@realty.test", Name: "Michael Chen", Role: entity.RoleAgent}
	other  = entity.Principal{UserID: agentB, Email: "lisa@realty.test", Name: "Lisa Park", Role: entity.RoleAgent}
	viewer = entity.Principal{UserID: viewerID, Email: "viewer@realty.test", Name: "Victor Viewer", Role: entity.RoleViewer}

	fixedNow = time.Date(2024, time.March, 14, 15, 30, 0, 0, time.UTC)
)

func mustID(hex string) bson.ObjectID {
	id, err := entity.ParseID(hex)
	if err != nil {
		panic(err)
	}
	return id
}

func fixedClock() time.Time { return fixedNow }

func leadOwnedBy(owner bson.ObjectID) *entity.Lead {
	return &entity.Lead{
		ID:              bson.NewObjectID(),
		Name:            "John Smith",
		Email:           "john@example.com",
		Phone:           "+1 555 0100",
		Status:          entity.LeadHot,
		Budget:          "$850,000",
		PropertyType:    "Condo",
		AssignedAgentID: &owner,
	}
}

package orders

import (
	"context"
	"errors"
	"time"

	"github.com/boostgg/storefront/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrDuplicateSession means an order for this payment session already
	// exists. The unique constraint is the durable backstop behind the
	// in-process submission guard.
	ErrDuplicateSession = errors.New("order for this payment session already exists")
	ErrNotAssignable    = errors.New("order is not open for assignment")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// Filter narrows admin order listings. Zero values mean "any".
type Filter struct {
	Status domain.OrderStatus
	UserID string
	Limit  int
	Offset int
}

type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	ListOrders(ctx context.Context, f Filter) ([]*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
	AssignOrder(ctx context.Context, id uuid.UUID, skillmasterID string) error
	DeleteOrder(ctx context.Context, id uuid.UUID) error

	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error

	RunMigrations(migrationsDirPath string) error
	Close() error
}

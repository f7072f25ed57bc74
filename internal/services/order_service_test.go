package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"farmersmarket/internal/models"
	"farmersmarket/internal/repositories"
	"farmersmarket/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPublisher keeps every published event in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	events []services.OrderEvent
}

func (p *recordingPublisher) Publish(routingKey string, body []byte) error {
	var event services.OrderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	p.events = append(p.events, event)
	return nil
}

type failingPublisher struct{}

func (failingPublisher) Publish(string, []byte) error { return errors.New("broker down") }

type orderFixture struct {
	repos     repositories.Repositories
	carts     *services.CartService
	orders    *services.OrderService
	publisher *recordingPublisher
}

func newOrderFixture(t *testing.T) orderFixture {
	t.Helper()
	db := newTestDB(t)
	repos := repositories.NewGORMRepositories(db)
	uow := repositories.NewGORMUnitOfWork(db)
	publisher := &recordingPublisher{}
	return orderFixture{
		repos:     repos,
		carts:     services.NewCartService(uow, repos.Carts),
		orders:    services.NewOrderService(uow, repos.Orders, publisher),
		publisher: publisher,
	}
}

func TestOrderService_Checkout(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	anna := seedFarmer(t, f.repos, "anna")
	ben := seedFarmer(t, f.repos, "ben")
	customer := seedCustomer(t, f.repos, "customer")
	bread := seedProduct(t, f.repos, anna, "Bread", "4.25", 3)
	cheese := seedProduct(t, f.repos, ben, "Cheese", "7.00", 2)

	require.NoError(t, f.carts.AddToCart(ctx, customer, bread.ID, 2))
	require.NoError(t, f.carts.AddToCart(ctx, customer, cheese.ID, 1))

	order, err := f.orders.Checkout(ctx, customer)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.True(t, decimal.RequireFromString("15.50").Equal(order.TotalAmount))

	assert.Equal(t, 1, stockOf(t, f.repos, bread.ID))
	assert.Equal(t, 1, stockOf(t, f.repos, cheese.ID))

	count, err := f.carts.CountItems(ctx, customer)
	require.NoError(t, err)
	assert.Zero(t, count)

	stored, err := f.orders.CustomerOrderDetails(ctx, customer, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	var farmers []string
	for _, item := range stored.Items {
		farmers = append(farmers, item.FarmerID)
		switch item.ProductID {
		case bread.ID:
			assert.Equal(t, 2, item.Quantity)
			assert.True(t, bread.Price.Equal(item.Price))
		case cheese.ID:
			assert.Equal(t, 1, item.Quantity)
		}
	}
	assert.ElementsMatch(t, []string{anna.ID(), ben.ID()}, farmers)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, services.EventOrderPlaced, f.publisher.keys[0])
	assert.Equal(t, order.ID, f.publisher.events[0].OrderID)
	assert.ElementsMatch(t, []string{anna.ID(), ben.ID()}, f.publisher.events[0].FarmerIDs)
}

func TestOrderService_CheckoutRollsBackOnShortStock(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	farmer := seedFarmer(t, f.repos, "farmer")
	customer := seedCustomer(t, f.repos, "customer")
	eggs := seedProduct(t, f.repos, farmer, "Eggs", "3.00", 10)
	milk := seedProduct(t, f.repos, farmer, "Milk", "1.20", 4)

	require.NoError(t, f.carts.AddToCart(ctx, customer, eggs.ID, 5))
	require.NoError(t, f.carts.AddToCart(ctx, customer, milk.ID, 3))

	// Someone else bought milk in the meantime
	require.NoError(t, f.repos.Products.DecrementStock(ctx, milk.ID, 2))

	_, err := f.orders.Checkout(ctx, customer)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrNotEnoughStock)
	var stockErr *services.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "Not enough stock for Milk", stockErr.Error())

	assert.Equal(t, 10, stockOf(t, f.repos, eggs.ID))
	assert.Equal(t, 2, stockOf(t, f.repos, milk.ID))

	orders, err := f.orders.CustomerOrders(ctx, customer)
	require.NoError(t, err)
	assert.Empty(t, orders)

	cart, err := f.carts.ViewCart(ctx, customer)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	assert.Empty(t, f.publisher.events)
}

func TestOrderService_CheckoutEmptyCart(t *testing.T) {
	f := newOrderFixture(t)
	customer := seedCustomer(t, f.repos, "customer")

	_, err := f.orders.Checkout(context.Background(), customer)
	assert.ErrorIs(t, err, services.ErrEmptyCart)
}

func TestOrderService_CheckoutIgnoresPublisherFailure(t *testing.T) {
	db := newTestDB(t)
	repos := repositories.NewGORMRepositories(db)
	uow := repositories.NewGORMUnitOfWork(db)
	carts := services.NewCartService(uow, repos.Carts)
	orders := services.NewOrderService(uow, repos.Orders, failingPublisher{})
	ctx := context.Background()

	farmer := seedFarmer(t, repos, "farmer")
	customer := seedCustomer(t, repos, "customer")
	product := seedProduct(t, repos, farmer, "Plums", "2.00", 5)
	require.NoError(t, carts.AddToCart(ctx, customer, product.ID, 1))

	order, err := orders.Checkout(ctx, customer)
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
}

func TestOrderService_CustomerOrderDetailsOwnership(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	farmer := seedFarmer(t, f.repos, "farmer")
	alice := seedCustomer(t, f.repos, "alice")
	bob := seedCustomer(t, f.repos, "bob")
	product := seedProduct(t, f.repos, farmer, "Pears", "1.00", 5)

	require.NoError(t, f.carts.AddToCart(ctx, alice, product.ID, 1))
	order, err := f.orders.Checkout(ctx, alice)
	require.NoError(t, err)

	_, err = f.orders.CustomerOrderDetails(ctx, bob, order.ID)
	assert.ErrorIs(t, err, services.ErrNotYourOrder)

	_, err = f.orders.CustomerOrderDetails(ctx, alice, "missing")
	assert.True(t, services.IsNotFound(err))

	history, err := f.orders.CustomerOrders(ctx, alice)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Len(t, history[0].Items, 1)
}

func TestOrderService_FarmerViews(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	anna := seedFarmer(t, f.repos, "anna")
	ben := seedFarmer(t, f.repos, "ben")
	carl := seedFarmer(t, f.repos, "carl")
	customer := seedCustomer(t, f.repos, "customer")
	jam := seedProduct(t, f.repos, anna, "Jam", "5.00", 5)
	mint := seedProduct(t, f.repos, ben, "Mint", "1.00", 5)

	require.NoError(t, f.carts.AddToCart(ctx, customer, jam.ID, 1))
	require.NoError(t, f.carts.AddToCart(ctx, customer, mint.ID, 2))
	order, err := f.orders.Checkout(ctx, customer)
	require.NoError(t, err)

	overview, err := f.orders.FarmerOrders(ctx, anna)
	require.NoError(t, err)
	require.Len(t, overview.Orders, 1)
	require.Len(t, overview.Items, 1)
	assert.Equal(t, jam.ID, overview.Items[0].ProductID)

	details, err := f.orders.FarmerOrderDetails(ctx, ben, order.ID)
	require.NoError(t, err)
	require.Len(t, details.Items, 1)
	assert.Equal(t, mint.ID, details.Items[0].ProductID)
	assert.Equal(t, order.ID, details.Order.ID)
	assert.Empty(t, details.Order.Items)

	_, err = f.orders.FarmerOrderDetails(ctx, carl, order.ID)
	assert.True(t, services.IsNotFound(err))

	overview, err = f.orders.FarmerOrders(ctx, carl)
	require.NoError(t, err)
	assert.Empty(t, overview.Orders)
	assert.Empty(t, overview.Items)
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	owner := seedFarmer(t, f.repos, "owner")
	stranger := seedFarmer(t, f.repos, "stranger")
	customer := seedCustomer(t, f.repos, "customer")
	product := seedProduct(t, f.repos, owner, "Squash", "2.50", 5)

	require.NoError(t, f.carts.AddToCart(ctx, customer, product.ID, 1))
	order, err := f.orders.Checkout(ctx, customer)
	require.NoError(t, err)

	err = f.orders.UpdateOrderStatus(ctx, stranger, order.ID, models.OrderStatusShipped)
	assert.True(t, services.IsNotFound(err))

	err = f.orders.UpdateOrderStatus(ctx, owner, order.ID, models.OrderStatus("lost"))
	assert.ErrorIs(t, err, services.ErrInvalidStatus)

	require.NoError(t, f.orders.UpdateOrderStatus(ctx, owner, order.ID, models.OrderStatusDelivered))
	stored, err := f.orders.CustomerOrderDetails(ctx, customer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, stored.Status)

	// Any transition is accepted, including backwards
	require.NoError(t, f.orders.UpdateOrderStatus(ctx, owner, order.ID, models.OrderStatusPending))
	stored, err = f.orders.CustomerOrderDetails(ctx, customer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, stored.Status)

	require.Len(t, f.publisher.events, 3)
	assert.Equal(t, services.EventOrderStatusUpdated, f.publisher.keys[1])
	assert.Equal(t, owner.ID(), f.publisher.events[1].UpdatedBy)
	assert.Equal(t, models.OrderStatusDelivered, f.publisher.events[1].Status)
}

package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"farmersmarket/internal/database"
	"farmersmarket/internal/logging"
	"farmersmarket/internal/middleware"
	"farmersmarket/internal/repositories"
	"farmersmarket/internal/server"
	"farmersmarket/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	logging.Silence()
	os.Exit(m.Run())
}

// setupApp builds the full application on a private in-memory SQLite database.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	repos := repositories.NewGORMRepositories(db)
	uow := repositories.NewGORMUnitOfWork(db)
	return server.NewApp(server.Deps{
		Auth:     services.NewAuthService(repos.Users, "test_jwt_secret", time.Hour),
		Products: services.NewProductService(repos.Products, repos.Reviews, uow, nil),
		Carts:    services.NewCartService(uow, repos.Carts),
		Orders:   services.NewOrderService(uow, repos.Orders, nil),
		Reviews:  services.NewReviewService(repos.Reviews, repos.Products, nil),
	})
}

// client is a browser stand-in that keeps the session cookie.
type client struct {
	t       *testing.T
	app     *fiber.App
	session string
}

func (cl *client) do(method, path string, form url.Values) *http.Response {
	cl.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	}
	if cl.session != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: cl.session})
	}
	resp, err := cl.app.Test(req, -1) // -1 for no timeout
	require.NoError(cl.t, err)
	return resp
}

func (cl *client) getJSON(path string) map[string]interface{} {
	cl.t.Helper()
	resp := cl.do(http.MethodGet, path, nil)
	require.Equal(cl.t, fiber.StatusOK, resp.StatusCode, path)
	return decode(cl.t, resp)
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

// flashOf returns the flash message set by a redirect response.
func flashOf(resp *http.Response) string {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "flash" {
			message, err := url.QueryUnescape(cookie.Value)
			if err != nil {
				return cookie.Value
			}
			return message
		}
	}
	return ""
}

func assertRedirect(t *testing.T, resp *http.Response, location, message string) {
	t.Helper()
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, location, resp.Header.Get("Location"))
	if message != "" {
		assert.Equal(t, message, flashOf(resp))
	}
}

func registerAndLogin(t *testing.T, app *fiber.App, username, userType string) *client {
	t.Helper()
	cl := &client{t: t, app: app}
	resp := cl.do(http.MethodPost, "/register", url.Values{
		"username":  {username},
		"email":     {username + "@example.com"},
		"password":  {"password123"},
		"user_type": {userType},
	})
	assertRedirect(t, resp, "/login", "Registration successful! Please login.")

	resp = cl.do(http.MethodPost, "/login", url.Values{
		"username": {username},
		"password": {"password123"},
	})
	assertRedirect(t, resp, "/dashboard", "Login successful!")
	for _, cookie := range resp.Cookies() {
		if cookie.Name == middleware.SessionCookie {
			cl.session = cookie.Value
		}
	}
	require.NotEmpty(t, cl.session)
	return cl
}

func addProduct(t *testing.T, farmer *client, name, price, quantity string) string {
	t.Helper()
	resp := farmer.do(http.MethodPost, "/add_product", url.Values{
		"name":     {name},
		"price":    {price},
		"quantity": {quantity},
		"category": {"vegetables"},
	})
	assertRedirect(t, resp, "/my_products", "Product added successfully!")

	products := farmer.getJSON("/my_products")["products"].([]interface{})
	for _, p := range products {
		product := p.(map[string]interface{})
		if product["name"] == name {
			return product["id"].(string)
		}
	}
	t.Fatalf("product %s not listed", name)
	return ""
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app := setupApp(t)
	farmer := registerAndLogin(t, app, "farmer1", "farmer")

	dashboard := farmer.getJSON("/dashboard")
	assert.Equal(t, "dashboard", dashboard["page"])
	assert.Equal(t, float64(0), dashboard["total_products"])
	user := dashboard["current_user"].(map[string]interface{})
	assert.Equal(t, "farmer1", user["username"])
	assert.NotContains(t, user, "password")

	// Duplicate username
	anon := &client{t: t, app: app}
	resp := anon.do(http.MethodPost, "/register", url.Values{
		"username":  {"farmer1"},
		"email":     {"other@example.com"},
		"password":  {"password123"},
		"user_type": {"customer"},
	})
	assertRedirect(t, resp, "/register", "Username already exists")

	// Unknown role
	resp = anon.do(http.MethodPost, "/register", url.Values{
		"username":  {"admin"},
		"email":     {"admin@example.com"},
		"password":  {"password123"},
		"user_type": {"admin"},
	})
	assertRedirect(t, resp, "/register", "")

	resp = anon.do(http.MethodPost, "/login", url.Values{
		"username": {"farmer1"},
		"password": {"wrong"},
	})
	assertRedirect(t, resp, "/login", "Invalid username or password")

	resp = farmer.do(http.MethodGet, "/logout", nil)
	assertRedirect(t, resp, "/", "You have been logged out")
}

func TestAnonymousAccess(t *testing.T) {
	app := setupApp(t)
	anon := &client{t: t, app: app}

	for _, path := range []string{"/", "/marketplace", "/about", "/contact", "/terms", "/register", "/login"} {
		resp := anon.do(http.MethodGet, path, nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, path)
	}
	for _, path := range []string{"/cart", "/orders", "/dashboard", "/my_products", "/farmer_reviews"} {
		resp := anon.do(http.MethodGet, path, nil)
		assertRedirect(t, resp, "/login", "")
	}

	resp := anon.do(http.MethodGet, "/product/"+uuid.NewString(), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestRoleGuards(t *testing.T) {
	app := setupApp(t)
	farmer := registerAndLogin(t, app, "farmer1", "farmer")
	customer := registerAndLogin(t, app, "customer1", "customer")
	productID := addProduct(t, farmer, "Kale", "2.00", "5")

	resp := customer.do(http.MethodGet, "/add_product", nil)
	assertRedirect(t, resp, "/dashboard", "Only farmers can add products")

	resp = farmer.do(http.MethodGet, "/cart", nil)
	assertRedirect(t, resp, "/dashboard", "Only customers can view cart")

	resp = farmer.do(http.MethodGet, "/add_review/"+productID, nil)
	assertRedirect(t, resp, "/marketplace", "Only customers can add reviews")

	resp = farmer.do(http.MethodPost, "/add_to_cart/"+productID, url.Values{"quantity": {"1"}})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Only customers can add to cart", body["message"])

	resp = customer.do(http.MethodPost, "/update_order_status/"+uuid.NewString(), url.Values{"status": {"shipped"}})
	body = decode(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Only farmers can update orders", body["message"])
}

func TestShoppingFlow(t *testing.T) {
	app := setupApp(t)
	farmer := registerAndLogin(t, app, "farmer1", "farmer")
	customer := registerAndLogin(t, app, "customer1", "customer")
	productID := addProduct(t, farmer, "Tomatoes", "3.00", "5")

	market := customer.getJSON("/marketplace?category=vegetables&search=Tomato")
	require.Len(t, market["products"], 1)
	assert.Equal(t, []interface{}{"vegetables"}, market["categories"])

	resp := customer.do(http.MethodPost, "/add_to_cart/"+productID, url.Values{"quantity": {"2"}})
	assert.Equal(t, map[string]interface{}{"success": true, "message": "Product added to cart"}, decode(t, resp))

	resp = customer.do(http.MethodPost, "/add_to_cart/"+productID, url.Values{"quantity": {"4"}})
	assert.Equal(t, map[string]interface{}{"success": false, "message": "Not enough stock"}, decode(t, resp))

	cart := customer.getJSON("/cart")
	items := cart["cart_items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, float64(2), items[0].(map[string]interface{})["quantity"])
	assert.Equal(t, "6.00", cart["total"])

	resp = customer.do(http.MethodPost, "/checkout", nil)
	assertRedirect(t, resp, "/orders", "Order placed successfully!")

	resp = customer.do(http.MethodPost, "/checkout", nil)
	assertRedirect(t, resp, "/cart", "Your cart is empty")

	orders := customer.getJSON("/orders")["orders"].([]interface{})
	require.Len(t, orders, 1)
	order := orders[0].(map[string]interface{})
	orderID := order["id"].(string)
	assert.Equal(t, "pending", order["status"])
	assert.True(t, decimal.NewFromInt(6).Equal(decimal.RequireFromString(order["total_amount"].(string))))

	mine := farmer.getJSON("/my_products")["products"].([]interface{})
	assert.Equal(t, float64(3), mine[0].(map[string]interface{})["quantity"])

	// Fulfillment
	farmerOrders := farmer.getJSON("/farmer_orders")
	assert.Len(t, farmerOrders["orders"], 1)
	assert.Len(t, farmerOrders["order_items"], 1)

	resp = farmer.do(http.MethodPost, "/update_order_status/"+orderID, url.Values{"status": {"shipped"}})
	assert.Equal(t, map[string]interface{}{"success": true, "message": "Order status updated to shipped"}, decode(t, resp))

	resp = farmer.do(http.MethodPost, "/update_order_status/"+orderID, url.Values{"status": {"lost"}})
	assert.Equal(t, map[string]interface{}{"success": false, "message": "Invalid status"}, decode(t, resp))

	details := customer.getJSON("/order_details/" + orderID)
	assert.Equal(t, "shipped", details["order"].(map[string]interface{})["status"])

	// Another farmer has no part in the order
	other := registerAndLogin(t, app, "farmer2", "farmer")
	resp = other.do(http.MethodPost, "/update_order_status/"+orderID, url.Values{"status": {"cancelled"}})
	assert.Equal(t, map[string]interface{}{"success": false, "message": "Order not found"}, decode(t, resp))
	resp = other.do(http.MethodGet, "/farmer_order_details/"+orderID, nil)
	assertRedirect(t, resp, "/farmer_orders", "Order not found")

	// Another customer cannot see the order
	stranger := registerAndLogin(t, app, "customer2", "customer")
	resp = stranger.do(http.MethodGet, "/order_details/"+orderID, nil)
	assertRedirect(t, resp, "/orders", "You can only view your own orders")

	// Ordered products are kept
	resp = farmer.do(http.MethodPost, "/delete_product/"+productID, nil)
	assertRedirect(t, resp, "/my_products", "Cannot delete product that has existing orders. You can set quantity to 0 instead.")
}

func TestReviewFlow(t *testing.T) {
	app := setupApp(t)
	farmer := registerAndLogin(t, app, "farmer1", "farmer")
	customer := registerAndLogin(t, app, "customer1", "customer")
	productID := addProduct(t, farmer, "Honey", "8.50", "10")

	details := customer.getJSON("/product/" + productID)
	assert.Equal(t, true, details["can_review"])

	form := customer.getJSON("/add_review/" + productID)
	assert.Equal(t, "add_review", form["page"])

	resp := customer.do(http.MethodPost, "/add_review/"+productID, url.Values{"rating": {"9"}, "comment": {"too good"}})
	assertRedirect(t, resp, "/add_review/"+productID, "Rating must be between 1 and 5")

	resp = customer.do(http.MethodPost, "/add_review/"+productID, url.Values{"rating": {"4"}, "comment": {"sweet"}})
	assertRedirect(t, resp, "/product/"+productID, "Review added successfully!")

	resp = customer.do(http.MethodPost, "/add_review/"+productID, url.Values{"rating": {"1"}, "comment": {"again"}})
	assertRedirect(t, resp, "/product/"+productID, "You have already reviewed this product")

	resp = customer.do(http.MethodGet, "/add_review/"+productID, nil)
	assertRedirect(t, resp, "/product/"+productID, "You have already reviewed this product")

	details = customer.getJSON("/product/" + productID)
	assert.Equal(t, false, details["can_review"])
	assert.Equal(t, 4.0, details["avg_rating"])
	require.Len(t, details["reviews"], 1)
	assert.Equal(t, "sweet", details["reviews"].([]interface{})[0].(map[string]interface{})["comment"])

	market := customer.getJSON("/marketplace")
	listing := market["products"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, 4.0, listing["avg_rating"])
	assert.Equal(t, float64(1), listing["review_count"])

	received := farmer.getJSON("/farmer_reviews")
	assert.Equal(t, 4.0, received["avg_rating"])
	assert.Len(t, received["reviews"], 1)
	assert.Equal(t, float64(1), farmer.getJSON("/dashboard")["received_reviews_count"])
}

func TestProductManagement(t *testing.T) {
	app := setupApp(t)
	farmer := registerAndLogin(t, app, "farmer1", "farmer")
	rival := registerAndLogin(t, app, "farmer2", "farmer")
	customer := registerAndLogin(t, app, "customer1", "customer")
	productID := addProduct(t, farmer, "Radish", "1.20", "7")

	resp := farmer.do(http.MethodPost, "/add_product", url.Values{"name": {"Bad"}, "price": {"-1"}, "quantity": {"1"}})
	assertRedirect(t, resp, "/add_product", "")

	resp = rival.do(http.MethodGet, "/edit_product/"+productID, nil)
	assertRedirect(t, resp, "/my_products", "Product not found or you do not have permission to edit it")

	resp = rival.do(http.MethodPost, "/delete_product/"+productID, nil)
	assertRedirect(t, resp, "/my_products", "Product not found or you do not have permission to delete it")

	resp = farmer.do(http.MethodPost, "/edit_product/"+productID, url.Values{
		"name":     {"Radish"},
		"price":    {"1.50"},
		"quantity": {"0"},
		"category": {"roots"},
	})
	assertRedirect(t, resp, "/my_products", "Product updated successfully!")

	edited := farmer.getJSON("/edit_product/" + productID)["product"].(map[string]interface{})
	assert.True(t, decimal.RequireFromString("1.50").Equal(decimal.RequireFromString(edited["price"].(string))))
	assert.Equal(t, float64(0), edited["quantity"])

	// Sold-out products leave the marketplace
	assert.Empty(t, customer.getJSON("/marketplace")["products"])

	resp = farmer.do(http.MethodPost, "/delete_product/"+productID, nil)
	assertRedirect(t, resp, "/my_products", "Product deleted successfully!")
	assert.Empty(t, farmer.getJSON("/my_products")["products"])
}

func TestProfileUpdate(t *testing.T) {
	app := setupApp(t)
	registerAndLogin(t, app, "taken", "customer")
	customer := registerAndLogin(t, app, "customer1", "customer")

	resp := customer.do(http.MethodPost, "/profile", url.Values{"email": {"taken@example.com"}})
	assertRedirect(t, resp, "/profile", "Email already registered")

	resp = customer.do(http.MethodPost, "/profile", url.Values{"email": {"new@example.com"}})
	assertRedirect(t, resp, "/profile", "Profile updated successfully!")

	profile := customer.getJSON("/profile")
	assert.Equal(t, "new@example.com", profile["current_user"].(map[string]interface{})["email"])
}

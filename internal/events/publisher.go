package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"

	"savora-system/internal/database/models"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderPaid          = "order.paid"
	EventStockAlertRaised   = "stock.alert_raised"
)

func RestaurantFeed(restaurantID int64) string {
	return fmt.Sprintf("restaurant:%d:feed", restaurantID)
}

func KitchenFeed(restaurantID int64) string {
	return fmt.Sprintf("restaurant:%d:kitchen", restaurantID)
}

func CustomerChannel(customerID int64) string {
	return fmt.Sprintf("customer:%d", customerID)
}

func WaiterChannel(waiterID int64) string {
	return fmt.Sprintf("waiter:%d", waiterID)
}

type OrderEvent struct {
	EventType    string             `json:"event_type"`
	OrderID      int64              `json:"order_id"`
	OrderNumber  string             `json:"order_number"`
	RestaurantID int64              `json:"restaurant_id"`
	Status       models.OrderStatus `json:"status"`
	Total        decimal.Decimal    `json:"total"`
	Timestamp    time.Time          `json:"timestamp"`
}

type StockAlertEvent struct {
	EventType  string                `json:"event_type"`
	MaterialID int64                 `json:"material_id"`
	AlertType  models.StockAlertType `json:"alert_type"`
	Message    string                `json:"message"`
	Timestamp  time.Time             `json:"timestamp"`
}

// Publisher delivers events to real-time consumers. Delivery is fire and
// forget: implementations log failures and never return them, so a dropped
// event cannot fail an already-committed operation.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload interface{})
}

type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, topic string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("events: failed to marshal payload for %s: %v", topic, err)
		return
	}

	if err := p.client.Publish(ctx, topic, data).Err(); err != nil {
		log.Printf("events: failed to publish to %s: %v", topic, err)
	}
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) {}

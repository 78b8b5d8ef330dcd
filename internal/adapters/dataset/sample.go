package dataset

import (
	"github.com/satishbabariya/querycraft/internal/core/query/domain"
	"github.com/shopspring/decimal"
)

// SampleTables returns the built-in users, orders and products tables.
func SampleTables() map[string][]domain.Row {
	return map[string][]domain.Row{
		"users": {
			domain.MakeRow("id", 1, "name", "Alice", "email", "alice@example.com", "age", 34, "city", "London", "active", true, "created_at", domain.TimeValue("2023-01-15T09:30:00Z")),
			domain.MakeRow("id", 2, "name", "Bob", "email", "bob@example.com", "age", 27, "city", "Paris", "active", true, "created_at", domain.TimeValue("2023-03-02T14:00:00Z")),
			domain.MakeRow("id", 3, "name", "Carol", "email", "carol@example.com", "age", 41, "city", "London", "active", false, "created_at", domain.TimeValue("2023-05-21T08:15:00Z")),
			domain.MakeRow("id", 4, "name", "Dave", "email", nil, "age", 19, "city", "Berlin", "active", true, "created_at", domain.TimeValue("2023-07-09T18:45:00Z")),
			domain.MakeRow("id", 5, "name", "Eve", "email", "eve@example.com", "age", 52, "city", nil, "active", false, "created_at", domain.TimeValue("2023-09-30T11:05:00Z")),
			domain.MakeRow("id", 6, "name", "Frank", "email", "frank@example.com", "age", 16, "city", "Paris", "active", true, "created_at", domain.TimeValue("2024-01-04T07:50:00Z")),
			domain.MakeRow("id", 7, "name", "Grace", "email", "grace@example.com", "age", 29, "city", "Madrid", "active", true, "created_at", domain.TimeValue("2024-02-18T16:20:00Z")),
			domain.MakeRow("id", 8, "name", "Heidi", "email", "heidi@example.com", "age", 38, "city", "Berlin", "active", true, "created_at", domain.TimeValue("2024-04-11T10:10:00Z")),
		},
		"orders": {
			domain.MakeRow("id", 101, "user_id", 1, "product_id", 1, "quantity", 1, "amount", decimal.RequireFromString("1299.00"), "status", "shipped", "created_at", domain.TimeValue("2024-01-05T10:00:00Z")),
			domain.MakeRow("id", 102, "user_id", 2, "product_id", 3, "quantity", 2, "amount", decimal.RequireFromString("49.90"), "status", "pending", "created_at", domain.TimeValue("2024-01-07T12:30:00Z")),
			domain.MakeRow("id", 103, "user_id", 1, "product_id", 2, "quantity", 3, "amount", decimal.RequireFromString("74.85"), "status", "delivered", "created_at", domain.TimeValue("2024-02-11T09:45:00Z")),
			domain.MakeRow("id", 104, "user_id", 4, "product_id", 5, "quantity", 1, "amount", decimal.RequireFromString("15.00"), "status", "cancelled", "created_at", domain.TimeValue("2024-02-20T17:05:00Z")),
			domain.MakeRow("id", 105, "user_id", 3, "product_id", 4, "quantity", 1, "amount", decimal.RequireFromString("329.99"), "status", "shipped", "created_at", domain.TimeValue("2024-03-03T08:00:00Z")),
			domain.MakeRow("id", 106, "user_id", 7, "product_id", 1, "quantity", 1, "amount", decimal.RequireFromString("1299.00"), "status", "pending", "created_at", domain.TimeValue("2024-03-15T13:40:00Z")),
			domain.MakeRow("id", 107, "user_id", 2, "product_id", 2, "quantity", 5, "amount", decimal.RequireFromString("124.75"), "status", "delivered", "created_at", domain.TimeValue("2024-04-01T15:25:00Z")),
		},
		"products": {
			domain.MakeRow("id", 1, "name", "Laptop", "category", "electronics", "price", decimal.RequireFromString("1299.00"), "stock", 12),
			domain.MakeRow("id", 2, "name", "Notebook", "category", "stationery", "price", decimal.RequireFromString("24.95"), "stock", 340),
			domain.MakeRow("id", 3, "name", "Coffee Mug", "category", "kitchen", "price", decimal.RequireFromString("24.95"), "stock", 0),
			domain.MakeRow("id", 4, "name", "Headphones", "category", "electronics", "price", decimal.RequireFromString("329.99"), "stock", 48),
			domain.MakeRow("id", 5, "name", "Desk Lamp", "category", "home", "price", decimal.RequireFromString("15.00"), "stock", nil),
		},
	}
}

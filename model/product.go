// model/product.go
package model

type Product struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Quantity      int64   `json:"quantity"`
	PriceDaily    float64 `json:"price_daily"`
	PriceWeekly   float64 `json:"price_weekly"`
	PriceTwoWeeks float64 `json:"price_two_weeks"`
}

// Camera is one physical rentable unit of a Product.
type Camera struct {
	ID            int64    `json:"id"`
	ProductID     int64    `json:"product_id"`
	PriceOverride *float64 `json:"price_override,omitempty"`
}

type Accessory struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Quantity int64   `json:"quantity"`
	Price    float64 `json:"price"`
}

// AccessoryInstance is one physical unit of an Accessory. IsAvailable marks
// whether the unit is in rotation at all; date availability is always computed
// from bookings, never stored here.
type AccessoryInstance struct {
	ID          int64 `json:"id"`
	AccessoryID int64 `json:"accessory_id"`
	IsAvailable bool  `json:"is_available"`
}

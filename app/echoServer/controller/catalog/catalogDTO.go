package catalog

type CreateProductReq struct {
	Name          string  `json:"name" validate:"required"`
	Quantity      int64   `json:"quantity" validate:"gte=0"`
	PriceDaily    float64 `json:"price_daily" validate:"gte=0"`
	PriceWeekly   float64 `json:"price_weekly" validate:"gte=0"`
	PriceTwoWeeks float64 `json:"price_two_weeks" validate:"gte=0"`
}

type AddUnitsReq struct {
	Count int `json:"count" validate:"required,gt=0"`
}

type CreateAccessoryReq struct {
	Name     string  `json:"name" validate:"required"`
	Quantity int64   `json:"quantity" validate:"gte=0"`
	Price    float64 `json:"price" validate:"gte=0"`
}

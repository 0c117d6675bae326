package booking

type ProductLineReq struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

type AccessoryLineReq struct {
	AccessoryID int64 `json:"accessory_id" validate:"required,gt=0"`
	Quantity    int   `json:"quantity" validate:"required,gt=0"`
}

type CreateBookingReq struct {
	StartDate     string             `json:"start_date" validate:"required"`
	EndDate       string             `json:"end_date" validate:"required"`
	Products      []ProductLineReq   `json:"products" validate:"required,min=1,dive"`
	Accessories   []AccessoryLineReq `json:"accessories" validate:"dive"`
	Insurance     bool               `json:"insurance"`
	CustomerEmail string             `json:"customer_email" validate:"required,email"`
}

// UpdateBookingReq is a partial patch; absent fields stay untouched.
type UpdateBookingReq struct {
	StartDate     *string `json:"start_date,omitempty"`
	EndDate       *string `json:"end_date,omitempty"`
	PaymentStatus *string `json:"payment_status,omitempty" validate:"omitempty,oneof=pending authorized paid cancelled failed"`
	CustomerEmail *string `json:"customer_email,omitempty" validate:"omitempty,email"`
}

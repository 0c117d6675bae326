package availability

type QueryReq struct {
	StartDate    string  `json:"start_date" validate:"required"`
	EndDate      string  `json:"end_date" validate:"required"`
	ProductIDs   []int64 `json:"product_ids"`
	AccessoryIDs []int64 `json:"accessory_ids"`
}

package domain

type DeliveryLocation struct {
	ID            int64   `json:"id"`
	StoreID       int64   `json:"storeID"`
	Province      string  `json:"province"`
	City          string  `json:"city"`
	Suburb        string  `json:"suburb"`
	PostalCode    string  `json:"postalCode"`
	Price         float64 `json:"price"`
	EstimatedTime string  `json:"estimatedTime"`
}

type DropoffLocation struct {
	ID            int64   `json:"id"`
	StoreID       int64   `json:"storeID"`
	Province      string  `json:"province"`
	City          string  `json:"city"`
	Suburb        string  `json:"suburb"`
	PostalCode    string  `json:"postalCode"`
	StreetAddress string  `json:"streetAddress"`
	Price         float64 `json:"price"`
	Notes         string  `json:"notes"`
}

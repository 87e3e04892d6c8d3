package domain

import "time"

const (
	MailTypeStoreCreated       = "store_created"
	MailTypeStoreStatusChanged = "store_status_changed"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type StoreCreatedMailData struct {
	FullName  string `json:"fullName"`
	StoreName string `json:"storeName"`
	StoreID   int64  `json:"storeID"`
}

type StoreStatusChangedMailData struct {
	StoreName string    `json:"storeName"`
	StoreID   int64     `json:"storeID"`
	IsOpen    bool      `json:"isOpen"`
	AsOf      time.Time `json:"asOf"`
}

package domain

import "time"

type Store struct {
	ID              int64      `json:"id"`
	StoreName       string     `json:"storeName"`
	StoreOwner      string     `json:"storeOwner"`
	CellNumber      string     `json:"cellNumber"`
	SecondaryNumber string     `json:"secondaryNumber"`
	Email           string     `json:"email"`
	Country         string     `json:"country"`
	Street          string     `json:"street"`
	Suburb          string     `json:"suburb"`
	Province        string     `json:"province"`
	City            string     `json:"city"`
	PostalCode      string     `json:"postalCode"`
	Description     string     `json:"description"`
	BankName        string     `json:"bankName"`
	BranchCode      string     `json:"branchCode"`
	AccountHolder   string     `json:"accountHolder"`
	AccountNumber   string     `json:"accountNumber"`
	AccountType     string     `json:"accountType"`
	BannerURL       string     `json:"bannerURL"`
	LogoURL         string     `json:"logoURL"`
	IsOpen          bool       `json:"isOpen"`          // 定时任务写入的缓存值，最多落后一个刷新周期
	StatusUpdatedAt *time.Time `json:"statusUpdatedAt"` // 为空表示还没有被刷新过
	Admins          []string   `json:"admins"`          // 管理员邮箱，第一个为创建者
	CreatedAt       time.Time  `json:"createdAt"`
	Version         int32      `json:"-"`
}

// StoreFront 店铺主页展示的数据，IsOpenNow 为请求时实时计算的结果，读取营业时间失败时为缓存的状态
type StoreFront struct {
	Store
	Schedule  *WeeklySchedule `json:"schedule"`
	IsOpenNow bool            `json:"isOpenNow"`
}

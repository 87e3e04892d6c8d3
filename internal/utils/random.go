package utils

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

// GeneratePinyinSlug 将中文转换为拼音并拼接，末尾附加随机数字以避免重复
func GeneratePinyinSlug(chinese string) string {
	pinyinArray := pinyin.LazyConvert(chinese, nil)
	slug := strings.Join(pinyinArray, "")
	if slug == "" {
		slug = "store"
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		slug += string(digits[rand.Intn(len(digits))])
	}

	return slug
}

func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        GeneratePinyinSlug(fullName) + "@" + emailDomainName,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Role:         domain.RoleCustomer,
	}

	return user, nil
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

func GenerateRandomID(letterLength int, digitLength int) string {
	random_id := make([]rune, letterLength+digitLength)
	for i := range random_id {
		if i < letterLength {
			random_id[i] = letters[rand.Intn(len(letters))]
		} else {
			random_id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(random_id)
}

var storeNamePrefixes = []string{"老街", "阳光", "街角", "小满", "山海", "一点", "南门", "星河"}
var storeNameSuffixes = []string{"杂货铺", "面包房", "花店", "水果店", "咖啡馆", "书店", "小卖部", "烘焙坊"}

type cityInfo struct {
	Province   string
	City       string
	PostalCode string
}

var cities = []cityInfo{
	{"广东", "广州", "510000"},
	{"广东", "深圳", "518000"},
	{"广东", "珠海", "519000"},
	{"上海", "上海", "200000"},
	{"浙江", "杭州", "310000"},
}

func GenerateRandomStore(owner *domain.User, emailDomainName string) *domain.Store {
	name := storeNamePrefixes[rand.Intn(len(storeNamePrefixes))] + storeNameSuffixes[rand.Intn(len(storeNameSuffixes))]
	city := cities[rand.Intn(len(cities))]

	return &domain.Store{
		StoreName:     name,
		StoreOwner:    owner.FullName,
		CellNumber:    "13" + GenerateRandomID(0, 9),
		Email:         GeneratePinyinSlug(name) + "@" + emailDomainName,
		Country:       "中国",
		Street:        fmt.Sprintf("%d 号", rand.Intn(300)+1),
		Province:      city.Province,
		City:          city.City,
		PostalCode:    city.PostalCode,
		Description:   name + "欢迎您的光临",
		BankName:      "中国银行",
		BranchCode:    GenerateRandomID(0, 6),
		AccountHolder: owner.FullName,
		AccountNumber: GenerateRandomID(0, 16),
		AccountType:   "储蓄账户",
		Admins:        []string{owner.Email},
	}
}

// GenerateRandomWeeklySchedule 随机生成营业时间，有一定概率休息或者营业到凌晨
func GenerateRandomWeeklySchedule(storeID int64) *domain.WeeklySchedule {
	s := &domain.WeeklySchedule{StoreID: storeID}

	for day := time.Sunday; day <= time.Saturday; day++ {
		switch n := rand.Intn(10); {
		case n == 0:
			// 休息
		case n == 1:
			s.Days[day] = domain.DayWindow{
				Open:  fmt.Sprintf("%02d:00:00", rand.Intn(3)+18),
				Close: fmt.Sprintf("%02d:00:00", rand.Intn(3)),
			}
		default:
			openHour := rand.Intn(4) + 7   // 07 ~ 10
			closeHour := rand.Intn(6) + 17 // 17 ~ 22
			s.Days[day] = domain.DayWindow{
				Open:  fmt.Sprintf("%02d:%02d:00", openHour, rand.Intn(2)*30),
				Close: fmt.Sprintf("%02d:%02d:00", closeHour, rand.Intn(2)*30),
			}
		}
	}

	return s
}

var productNames = []string{"手工面包", "鲜切花束", "有机苹果", "冷萃咖啡", "帆布袋", "笔记本", "蜂蜜", "茶叶礼盒"}
var variantLabels = []string{"规格", "尺寸", "口味", "颜色"}
var variantNames = []string{"小份", "中份", "大份", "红色", "蓝色", "原味", "加量"}

func GenerateRandomProduct(storeID int64, markupPercentage float64) *domain.Product {
	basePrice := RoundPrice(float64(rand.Intn(20000)+100) / 100)

	p := &domain.Product{
		StoreID:      storeID,
		Name:         productNames[rand.Intn(len(productNames))],
		Description:  "商品描述" + GenerateRandomID(10, 4),
		Category:     "默认分类",
		BasePrice:    &basePrice,
		Stock:        int32(rand.Intn(100)),
		Images:       []string{},
		VariantLabel: variantLabels[rand.Intn(len(variantLabels))],
	}

	names := append([]string{}, variantNames...)
	rand.Shuffle(len(names), func(i, j int) {
		names[i], names[j] = names[j], names[i]
	})
	for _, name := range names[:rand.Intn(4)] {
		p.Variants = append(p.Variants, domain.ProductVariant{
			Name:      name,
			BasePrice: RoundPrice(basePrice * (0.8 + rand.Float64()*0.6)),
			Stock:     int32(rand.Intn(30)),
		})
	}

	ApplyMarkup(p, markupPercentage)

	return p
}

func GenerateRandomDeliveryLocation(storeID int64) *domain.DeliveryLocation {
	city := cities[rand.Intn(len(cities))]
	return &domain.DeliveryLocation{
		StoreID:       storeID,
		Province:      city.Province,
		City:          city.City,
		PostalCode:    city.PostalCode,
		Price:         float64(rand.Intn(20) + 5),
		EstimatedTime: fmt.Sprintf("%d-%d 天", rand.Intn(2)+1, rand.Intn(3)+3),
	}
}

package seed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/domain"
)

func TestParseStoreRecords(t *testing.T) {
	csvData := "\ufeff店铺名称,店主,电话,邮箱,城市,管理员邮箱,周日,周一,周六\n" +
		`街角咖啡,王五,13800000000,Cafe@Example.com,广州,"a@example.com, b@example.com",,09：00-17:30,22:00-02:00` + "\n" +
		"晨光书店,李四,13900000000,books@example.com,深圳,,休息,10:00-20:00,\n"

	records, err := ParseStoreRecords(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, records, 2)

	cafe := records[0]
	assert.Equal(t, "街角咖啡", cafe.Store.StoreName)
	assert.Equal(t, "cafe@example.com", cafe.Store.Email)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cafe.Store.Admins)
	require.NotNil(t, cafe.Schedule)
	assert.False(t, cafe.Schedule.Days[0].IsSet())
	assert.Equal(t, domain.DayWindow{Open: "09:00:00", Close: "17:30:00"}, cafe.Schedule.Days[1])
	assert.Equal(t, domain.DayWindow{Open: "22:00:00", Close: "02:00:00"}, cafe.Schedule.Days[6])
	// 没有对应列的日期视为休息
	assert.False(t, cafe.Schedule.Days[3].IsSet())

	books := records[1]
	assert.Equal(t, []string{"books@example.com"}, books.Store.Admins)
	assert.False(t, books.Schedule.Days[0].IsSet())
	assert.True(t, books.Schedule.Days[1].IsSet())
}

func TestParseStoreRecordsWithoutScheduleColumns(t *testing.T) {
	records, err := ParseStoreRecords(strings.NewReader("店铺名称,店主,电话,邮箱\n花店,赵六,1,f@example.com\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].Schedule)
}

func TestParseStoreRecordsErrors(t *testing.T) {
	_, err := ParseStoreRecords(strings.NewReader("店铺名称,店主\n"))
	assert.EqualError(t, err, "没有找到 电话 列")

	_, err = ParseStoreRecords(strings.NewReader("店铺名称,店主,电话,邮箱,周三\n花店,赵六,1,f@example.com,09:00\n"))
	assert.EqualError(t, err, "第 2 行: 周三的营业时间格式错误")

	_, err = ParseStoreRecords(strings.NewReader("店铺名称,店主,电话,邮箱,周三\n花店,赵六,1,f@example.com,9点-17点\n"))
	assert.EqualError(t, err, "第 2 行: 周三的开门时间格式错误")
}

package utils

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParseFlexibleArray 解析客户端请求和 CSV 中出现过的几种数组格式：
//
//	["a","b"]        JSON 数组
//	{a,"b c"}        PostgreSQL 数组字面量
//	a, b             逗号分隔
//
// 结果中的元素会去掉首尾空白和引号，空元素会被丢弃。
func ParseFlexibleArray(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}
	}

	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		var raw []any
		if err := json.Unmarshal([]byte(s), &raw); err == nil {
			result := make([]string, 0, len(raw))
			for _, v := range raw {
				item := strings.TrimSpace(jsonScalarString(v))
				if item != "" {
					result = append(result, item)
				}
			}
			return result
		}
		// 不是合法的 JSON，按逗号分隔处理
	}

	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		return splitPgArray(s[1:len(s)-1], false)
	}

	return splitCSV(s)
}

// ParseAlignedArray 用于与其他数组按下标对应的输入（例如规格图片），空元素会被保留为 ""
func ParseAlignedArray(s string) []string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		if len(s) == 2 {
			return []string{}
		}
		return splitPgArray(s[1:len(s)-1], true)
	}
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		var raw []any
		if err := json.Unmarshal([]byte(s), &raw); err == nil {
			result := make([]string, 0, len(raw))
			for _, v := range raw {
				result = append(result, strings.TrimSpace(jsonScalarString(v)))
			}
			return result
		}
	}
	return ParseFlexibleArray(s)
}

// ParseFlexibleNumberArray 与 ParseFlexibleArray 相同，但无法解析为数字的元素会被当作 0
func ParseFlexibleNumberArray(s string) []float64 {
	items := ParseFlexibleArray(s)
	result := make([]float64, 0, len(items))
	for _, item := range items {
		n, err := strconv.ParseFloat(item, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			n = 0
		}
		result = append(result, n)
	}
	return result
}

func jsonScalarString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}

// splitPgArray 解析数组字面量的内部，支持双引号和反斜杠转义
func splitPgArray(inner string, keepEmpty bool) []string {
	result := []string{}

	var cur strings.Builder
	inQuotes := false
	escaped := false
	flush := func() {
		item := strings.TrimSpace(cur.String())
		if strings.EqualFold(item, "NULL") {
			item = ""
		}
		if item != "" || keepEmpty {
			result = append(result, item)
		}
		cur.Reset()
	}

	for _, r := range inner {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()

	return result
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.Trim(strings.TrimSpace(part), `"`)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}

// RoundPrice 保留两位小数
func RoundPrice(v float64) float64 {
	return math.Round(v*100) / 100
}

// MarkupPrice 在基础价格上加上平台抽成
func MarkupPrice(base float64, percentage float64) float64 {
	return RoundPrice(base + base*percentage/100)
}

package sqldb

import (
	"fmt"
	"strconv"
	"strings"
)

var PlaceholderPrefixForDBType = map[string]byte{
	"mysql": '?',
	"pgsql": '$',
}

func PlaceholderGF(baseChar byte) func(...int) string { // vararg for optional
	if baseChar == '?' || baseChar == 0 {
		return func(_ ...int) string {
			return "?"
		}
	}
	return func(index ...int) string {
		var i int
		if len(index) == 0 {
			i = 1
		} else {
			i = index[0]
		}
		return fmt.Sprintf("%c%d", baseChar, i)
	}
}

// ReplaceStaticPlaceholders numbers every `?` for ordinal dialects
func ReplaceStaticPlaceholders(sql string, prefix byte) string {
	if prefix == '?' || prefix == 0 {
		return sql
	}
	var builder strings.Builder
	builder.Grow(len(sql) + 8)
	cnt := 1
	for i := 0; i < len(sql); i++ {
		if sql[i] == '?' {
			builder.WriteByte(prefix)
			builder.WriteString(strconv.Itoa(cnt))
			cnt++
			continue
		}
		builder.WriteByte(sql[i])
	}
	return builder.String()
}

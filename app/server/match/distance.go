package match

import "teamforge/app/server/types"

// EditDistance 两个序列之间的 Levenshtein 距离，插入、删除、替换代价均为 1
func EditDistance[E comparable](a, b []E) int {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return n + m
	}

	// 只保留上一行
	prev := make([]int, m+1)
	cur := make([]int, m+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= n; i++ {
		cur[0] = i
		for j := 1; j <= m; j++ {
			substitute := prev[j-1]
			if a[i-1] != b[j-1] {
				substitute++
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, substitute)
		}
		prev, cur = cur, prev
	}
	return prev[m]
}

// StringDistance 按字符（rune）计算
func StringDistance(a, b string) int {
	return EditDistance([]rune(a), []rune(b))
}

// TagDistance 按标签计算，标签顺序有意义
func TagDistance(a, b types.TagSet) int {
	return EditDistance([]string(a), []string(b))
}

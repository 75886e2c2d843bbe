package search

import "github.com/samber/lo"

// Ranked 索引返回的排名结果。Total 为索引报告的总数，与还原后的条数可能不一致（索引与关系库存在延迟）。
type Ranked struct {
	IDs   []int64
	Total int64
}

// Reconcile 将按 ID 取回的记录还原为索引排名顺序。
// 排名中存在但未取回的 ID 直接丢弃，不在排名中的记录不会追加。
func Reconcile[T any](rankedIDs []int64, records []T, idOf func(T) int64) []T {
	byID := lo.KeyBy(records, idOf)

	ordered := make([]T, 0, len(rankedIDs))
	for _, id := range rankedIDs {
		if record, ok := byID[id]; ok {
			ordered = append(ordered, record)
		}
	}
	return ordered
}

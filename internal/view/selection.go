package view

import (
	"encoding/json"
	"fmt"
	"slices"
)

// SelectionStorageKey 是持久化启动器选择集的固定键名
const SelectionStorageKey = "dlist-selected-games"

// DecodeSelection 解析持久化的选择集
// 从未保存过时默认全选；内容损坏时返回错误，由调用方记录并降级为空选择
func DecodeSelection(raw string, games []Game) ([]uint, error) {
	if raw == "" {
		ids := make([]uint, 0, len(games))
		for _, game := range games {
			ids = append(ids, game.ID)
		}
		return ids, nil
	}

	var ids []uint
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decode selection: %w", err)
	}

	return ids, nil
}

// EncodeSelection 将选择集序列化为 JSON 数组
func EncodeSelection(ids []uint) (string, error) {
	sorted := make([]uint, 0, len(ids))
	sorted = append(sorted, ids...)
	slices.Sort(sorted)

	data, err := json.Marshal(sorted)
	if err != nil {
		return "", fmt.Errorf("encode selection: %w", err)
	}

	return string(data), nil
}

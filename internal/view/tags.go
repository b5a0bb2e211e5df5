package view

import (
	"cmp"
	"slices"
	"strings"
)

// Game 是视图层持有的仪表盘行缓存
type Game struct {
	ID       uint
	Name     string
	URL      string
	Category *string
	Played   bool
}

// DeriveTags 将逗号分隔的分类串拆成标签集合
// 空分类回退到调用方指定的默认标签，仪表盘与启动器使用不同的回退值
func DeriveTags(category *string, fallback string) []string {
	if category == nil || strings.TrimSpace(*category) == "" {
		return []string{fallback}
	}

	var tags []string
	for _, piece := range strings.Split(*category, ",") {
		if tag := strings.TrimSpace(piece); tag != "" {
			tags = append(tags, tag)
		}
	}

	return tags
}

// CollectTags 返回所有游戏标签去重后的字母序词表
func CollectTags(games []Game, fallback string) []string {
	set := make(map[string]struct{})
	for _, game := range games {
		for _, tag := range DeriveTags(game.Category, fallback) {
			set[tag] = struct{}{}
		}
	}

	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	slices.Sort(tags)

	return tags
}

// FilterByTags 保留至少命中一个可见标签的游戏
func FilterByTags(games []Game, visible map[string]struct{}, fallback string) []Game {
	filtered := make([]Game, 0, len(games))
	for _, game := range games {
		for _, tag := range DeriveTags(game.Category, fallback) {
			if _, ok := visible[tag]; ok {
				filtered = append(filtered, game)
				break
			}
		}
	}

	return filtered
}

// SortDashboard 仪表盘展示序：未玩在前，同状态按名称
func SortDashboard(games []Game) {
	slices.SortStableFunc(games, func(a, b Game) int {
		if a.Played != b.Played {
			if a.Played {
				return 1
			}
			return -1
		}
		return compareNames(a.Name, b.Name)
	})
}

// SortLauncher 启动器展示序：已选在前，其次未玩在前，再按名称
func SortLauncher(games []Game, selected map[uint]struct{}) {
	slices.SortStableFunc(games, func(a, b Game) int {
		_, aSelected := selected[a.ID]
		_, bSelected := selected[b.ID]
		if aSelected != bSelected {
			if aSelected {
				return -1
			}
			return 1
		}
		if a.Played != b.Played {
			if a.Played {
				return 1
			}
			return -1
		}
		return compareNames(a.Name, b.Name)
	})
}

// compareNames 先做不区分大小写的比较，再用原串兜底保证确定性
func compareNames(a, b string) int {
	if diff := cmp.Compare(strings.ToLower(a), strings.ToLower(b)); diff != 0 {
		return diff
	}
	return cmp.Compare(a, b)
}

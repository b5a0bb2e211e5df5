package view

import (
	"slices"
)

const (
	// DashboardFallbackTag 仪表盘视图的空分类回退标签
	DashboardFallbackTag = "Other"
	// LauncherFallbackTag 启动器视图的空分类回退标签
	LauncherFallbackTag = "Uncategorized"
)

// DashboardHiddenTags 仪表盘初始可见集合默认排除的标签，仍可手动开启
var DashboardHiddenTags = []string{"broken", "disliked"}

// Options 控制视图模型在两个页面间的差异
type Options struct {
	FallbackTag string
	HiddenTags  []string
}

// DashboardOptions 返回登录仪表盘的视图配置
func DashboardOptions() Options {
	return Options{FallbackTag: DashboardFallbackTag, HiddenTags: DashboardHiddenTags}
}

// LauncherOptions 返回公开启动器的视图配置
func LauncherOptions() Options {
	return Options{FallbackTag: LauncherFallbackTag}
}

// Model 持有一份仪表盘查询结果的本地缓存及派生的筛选/选择状态
// 由渲染层显式持有，持久化通过外部边界调用完成，不依赖任何环境状态
type Model struct {
	opts     Options
	games    []Game
	visible  map[string]struct{}
	selected map[uint]struct{}
}

// NewModel 以查询结果初始化视图模型
// 可见标签集合初始化为完整词表减去 HiddenTags
func NewModel(games []Game, opts Options) *Model {
	m := &Model{
		opts:     opts,
		games:    slices.Clone(games),
		visible:  make(map[string]struct{}),
		selected: make(map[uint]struct{}),
	}

	for _, tag := range CollectTags(m.games, opts.FallbackTag) {
		if slices.Contains(opts.HiddenTags, tag) {
			continue
		}
		m.visible[tag] = struct{}{}
	}

	return m
}

// Games 返回缓存行的副本
func (m *Model) Games() []Game {
	return slices.Clone(m.games)
}

// AllTags 返回完整标签词表
func (m *Model) AllTags() []string {
	return CollectTags(m.games, m.opts.FallbackTag)
}

// VisibleTags 返回当前可见标签的字母序列表
func (m *Model) VisibleTags() []string {
	tags := make([]string, 0, len(m.visible))
	for tag := range m.visible {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

// TagVisible 判断某标签当前是否可见
func (m *Model) TagVisible(tag string) bool {
	_, ok := m.visible[tag]
	return ok
}

// SetVisibleTags 用持久化的集合覆盖当前可见标签
func (m *Model) SetVisibleTags(tags []string) {
	m.visible = make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		m.visible[tag] = struct{}{}
	}
}

// ToggleTag 切换单个标签的可见性
func (m *Model) ToggleTag(tag string) {
	if _, ok := m.visible[tag]; ok {
		delete(m.visible, tag)
	} else {
		m.visible[tag] = struct{}{}
	}
}

// SetAllVisible 全选或清空可见标签
func (m *Model) SetAllVisible(visible bool) {
	m.visible = make(map[string]struct{})
	if !visible {
		return
	}
	for _, tag := range m.AllTags() {
		m.visible[tag] = struct{}{}
	}
}

// ToggleAllVisible 依据当前集合是否已等于完整词表决定全选还是清空
func (m *Model) ToggleAllVisible() {
	m.SetAllVisible(len(m.visible) != len(m.AllTags()))
}

// VisibleGames 返回筛选并按仪表盘规则排序后的行
func (m *Model) VisibleGames() []Game {
	games := FilterByTags(m.games, m.visible, m.opts.FallbackTag)
	SortDashboard(games)
	return games
}

// LauncherGames 返回筛选并按启动器规则排序后的行
func (m *Model) LauncherGames() []Game {
	games := FilterByTags(m.games, m.visible, m.opts.FallbackTag)
	SortLauncher(games, m.selected)
	return games
}

// SetSelection 覆盖启动器的选择集
func (m *Model) SetSelection(ids []uint) {
	m.selected = make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		m.selected[id] = struct{}{}
	}
}

// Selection 返回选择集的有序 ID 列表
func (m *Model) Selection() []uint {
	ids := make([]uint, 0, len(m.selected))
	for id := range m.selected {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ToggleSelected 切换单个游戏是否在选择集中
func (m *Model) ToggleSelected(id uint) {
	if _, ok := m.selected[id]; ok {
		delete(m.selected, id)
	} else {
		m.selected[id] = struct{}{}
	}
}

// Selected 判断某游戏是否被选中
func (m *Model) Selected(id uint) bool {
	_, ok := m.selected[id]
	return ok
}

// SelectedCount 返回选择集大小
func (m *Model) SelectedCount() int {
	return len(m.selected)
}

// SelectedGames 返回所有被选中的游戏，不受标签筛选影响
func (m *Model) SelectedGames() []Game {
	var games []Game
	for _, game := range m.games {
		if _, ok := m.selected[game.ID]; ok {
			games = append(games, game)
		}
	}
	return games
}

// TogglePlayed 带回滚的乐观更新：先打补丁再执行变更，
// 失败时恢复快照，无论结果如何最后都用 refresh 重新拉取缓存
func (m *Model) TogglePlayed(gameID uint, played bool, mutate func() error, refresh func() ([]Game, error)) error {
	prev, found := m.patchPlayed(gameID, played)

	defer func() {
		if refresh == nil {
			return
		}
		if fresh, err := refresh(); err == nil {
			m.games = fresh
		}
	}()

	if err := mutate(); err != nil {
		if found {
			m.patchPlayed(gameID, prev)
		}
		return err
	}

	return nil
}

func (m *Model) patchPlayed(gameID uint, played bool) (prev bool, found bool) {
	for i := range m.games {
		if m.games[i].ID == gameID {
			prev = m.games[i].Played
			m.games[i].Played = played
			return prev, true
		}
	}
	return false, false
}

// StartRoutine 对当前可见且未玩的游戏逐个打卡并返回待打开列表
// 单个打卡失败不影响其余游戏，也不汇总错误；列表为空时不发起任何调用
func (m *Model) StartRoutine(toggle func(gameID uint) error) []Game {
	var toOpen []Game
	for _, game := range m.VisibleGames() {
		if !game.Played {
			toOpen = append(toOpen, game)
		}
	}
	if len(toOpen) == 0 {
		return nil
	}

	for _, game := range toOpen {
		m.patchPlayed(game.ID, true)
		if toggle != nil {
			_ = toggle(game.ID)
		}
	}

	return toOpen
}

package handler

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/dlist/internal/service"
	"github.com/dlist/internal/view"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// 会话中保存各视图可见标签集合的键名
const (
	dashboardTagsSessionKey = "dashboard_visible_tags"
	launcherTagsSessionKey  = "launcher_visible_tags"
)

type dashboardPayload struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	URL      string  `json:"url"`
	Category *string `json:"category"`
	Played   bool    `json:"played"`
}

// launcherRow 是启动器模板的单行数据
type launcherRow struct {
	ID       uint
	Name     string
	URL      string
	Played   bool
	Selected bool
	Tags     []string
}

// dashboardRow 是仪表盘模板的单行数据
type dashboardRow struct {
	ID     uint
	Name   string
	URL    string
	Played bool
	Tags   []string
}

// GetDashboard 返回当前用户视角的游戏列表
// 未登录时所有 played 均为 false
func (a *API) GetDashboard(c *gin.Context) {
	games, err := a.games.Dashboard(optionalUserID(c))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取游戏列表失败")
		return
	}

	items := make([]dashboardPayload, 0, len(games))
	for _, game := range games {
		items = append(items, dashboardPayload{
			ID:       game.ID,
			Name:     game.Name,
			URL:      game.URL,
			Category: game.Category,
			Played:   game.Played,
		})
	}

	c.JSON(http.StatusOK, gin.H{"games": items})
}

// TogglePlayed 幂等调整 (user, game, 今日) 的打卡状态
// 未登录的调用在访问存储前即被拒绝
func (a *API) TogglePlayed(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	var payload struct {
		GameID uint  `json:"game_id"`
		Played *bool `json:"played"`
	}
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}
	if payload.GameID == 0 || payload.Played == nil {
		respondError(c, http.StatusBadRequest, "请求参数不合法")
		return
	}

	err := a.games.TogglePlayed(service.ToggleInput{
		UserID: userID,
		GameID: payload.GameID,
		Played: *payload.Played,
		Source: service.SourceManual,
	})
	if err != nil {
		if errors.Is(err, service.ErrGameNotFound) {
			respondError(c, http.StatusNotFound, "游戏不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "保存打卡状态失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// StartRoutine 对当前可见且未玩的游戏逐个打卡并返回待打开地址
// 各游戏独立提交互不影响，不汇总失败；由页面脚本负责逐个打开新标签页
func (a *API) StartRoutine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}

	games, err := a.games.Dashboard(&userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取游戏列表失败")
		return
	}

	model := view.NewModel(toViewGames(games), view.DashboardOptions())
	a.applySessionTags(c, model, dashboardTagsSessionKey)

	runID := uuid.NewString()
	toOpen := model.StartRoutine(func(gameID uint) error {
		err := a.games.TogglePlayed(service.ToggleInput{
			UserID: userID,
			GameID: gameID,
			Played: true,
			Source: service.SourceRoutine,
			RunID:  runID,
		})
		if err != nil {
			c.Error(err)
		}
		return err
	})

	if len(toOpen) == 0 {
		c.JSON(http.StatusOK, gin.H{"launched": 0, "message": "当前视图没有未玩的游戏"})
		return
	}

	items := make([]gin.H, 0, len(toOpen))
	for _, game := range toOpen {
		items = append(items, gin.H{"id": game.ID, "name": game.Name, "url": game.URL})
	}

	c.JSON(http.StatusOK, gin.H{"run_id": runID, "launched": len(toOpen), "games": items})
}

// SaveSelection 持久化启动器的选择集
func (a *API) SaveSelection(c *gin.Context) {
	var payload struct {
		GameIDs []uint `json:"game_ids"`
	}
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	encoded, err := view.EncodeSelection(payload.GameIDs)
	if err != nil {
		respondError(c, http.StatusBadRequest, "请求参数不合法")
		return
	}

	session := sessions.Default(c)
	session.Set(view.SelectionStorageKey, encoded)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "会话保存失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"selected": len(payload.GameIDs)})
}

// ToggleVisibleTag 切换某视图下单个标签的可见性并写回会话
func (a *API) ToggleVisibleTag(c *gin.Context) {
	var payload struct {
		View string `json:"view"`
		Tag  string `json:"tag"`
	}
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}
	if payload.Tag == "" {
		respondError(c, http.StatusBadRequest, "请求参数不合法")
		return
	}

	a.mutateVisibleTags(c, payload.View, func(model *view.Model) {
		model.ToggleTag(payload.Tag)
	})
}

// ToggleAllVisibleTags 依据当前集合是否等于完整词表来全选或清空
func (a *API) ToggleAllVisibleTags(c *gin.Context) {
	var payload struct {
		View string `json:"view"`
	}
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	a.mutateVisibleTags(c, payload.View, func(model *view.Model) {
		model.ToggleAllVisible()
	})
}

// ShowLauncher 渲染公开启动器页面
func (a *API) ShowLauncher(c *gin.Context) {
	games, err := a.games.Dashboard(optionalUserID(c))
	if err != nil {
		c.HTML(http.StatusInternalServerError, "launcher.html", gin.H{
			"title": "每日游戏",
			"error": "获取游戏列表失败",
		})
		return
	}

	model := view.NewModel(toViewGames(games), view.LauncherOptions())
	a.applySessionTags(c, model, launcherTagsSessionKey)

	session := sessions.Default(c)
	raw, _ := session.Get(view.SelectionStorageKey).(string)
	ids, err := view.DecodeSelection(raw, model.Games())
	if err != nil {
		// 持久化内容损坏时降级为空选择，不中断渲染
		c.Error(err)
		ids = nil
	}
	model.SetSelection(ids)

	rows := make([]launcherRow, 0)
	for _, game := range model.LauncherGames() {
		rows = append(rows, launcherRow{
			ID:       game.ID,
			Name:     game.Name,
			URL:      game.URL,
			Played:   game.Played,
			Selected: model.Selected(game.ID),
			Tags:     view.DeriveTags(game.Category, view.LauncherFallbackTag),
		})
	}

	// 启动所选不受标签筛选影响，单独下发完整选择集的地址
	selectedURLs := make([]string, 0, model.SelectedCount())
	for _, game := range model.SelectedGames() {
		selectedURLs = append(selectedURLs, game.URL)
	}
	encodedURLs, err := json.Marshal(selectedURLs)
	if err != nil {
		c.Error(err)
		encodedURLs = []byte("[]")
	}

	c.HTML(http.StatusOK, "launcher.html", gin.H{
		"title":         "每日游戏",
		"games":         rows,
		"tags":          tagStates(model),
		"allVisible":    len(model.VisibleTags()) == len(model.AllTags()),
		"selectedCount": model.SelectedCount(),
		"selectedURLs":  template.JS(encodedURLs),
		"username":      currentUsername(c),
	})
}

// ShowDashboard 渲染登录用户的每日仪表盘
func (a *API) ShowDashboard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	games, err := a.games.Dashboard(&userID)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "dashboard.html", gin.H{
			"title": "每日仪表盘",
			"error": "获取游戏列表失败",
		})
		return
	}

	model := view.NewModel(toViewGames(games), view.DashboardOptions())
	a.applySessionTags(c, model, dashboardTagsSessionKey)

	rows := make([]dashboardRow, 0)
	unplayed := 0
	for _, game := range model.VisibleGames() {
		if !game.Played {
			unplayed++
		}
		rows = append(rows, dashboardRow{
			ID:     game.ID,
			Name:   game.Name,
			URL:    game.URL,
			Played: game.Played,
			Tags:   view.DeriveTags(game.Category, view.DashboardFallbackTag),
		})
	}

	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"title":      "每日仪表盘",
		"games":      rows,
		"tags":       tagStates(model),
		"allVisible": len(model.VisibleTags()) == len(model.AllTags()),
		"unplayed":   unplayed,
		"username":   currentUsername(c),
	})
}

// mutateVisibleTags 重建视图模型、应用变更并把结果写回会话
func (a *API) mutateVisibleTags(c *gin.Context, viewName string, mutate func(*view.Model)) {
	sessionKey, opts := tagViewConfig(viewName)

	games, err := a.games.Dashboard(optionalUserID(c))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取游戏列表失败")
		return
	}

	model := view.NewModel(toViewGames(games), opts)
	a.applySessionTags(c, model, sessionKey)

	mutate(model)

	encoded, err := json.Marshal(model.VisibleTags())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "保存标签状态失败")
		return
	}

	session := sessions.Default(c)
	session.Set(sessionKey, string(encoded))
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "会话保存失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"visible_tags": model.VisibleTags()})
}

// applySessionTags 用会话中保存的可见标签覆盖默认集合
func (a *API) applySessionTags(c *gin.Context, model *view.Model, sessionKey string) {
	session := sessions.Default(c)
	raw, ok := session.Get(sessionKey).(string)
	if !ok || raw == "" {
		return
	}

	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		c.Error(err)
		return
	}
	model.SetVisibleTags(tags)
}

// tagViewConfig 将视图名映射到会话键与视图配置，默认按启动器处理
func tagViewConfig(viewName string) (string, view.Options) {
	if viewName == "dashboard" {
		return dashboardTagsSessionKey, view.DashboardOptions()
	}
	return launcherTagsSessionKey, view.LauncherOptions()
}

// tagState 是模板中标签开关的展示数据
type tagState struct {
	Name    string
	Visible bool
}

func tagStates(model *view.Model) []tagState {
	tags := model.AllTags()
	states := make([]tagState, 0, len(tags))
	for _, tag := range tags {
		states = append(states, tagState{Name: tag, Visible: model.TagVisible(tag)})
	}
	return states
}

// optionalUserID 将上下文身份转换为服务层的可选身份
func optionalUserID(c *gin.Context) *uint {
	if id, ok := currentUserID(c); ok {
		return &id
	}
	return nil
}

func toViewGames(games []service.DashboardGame) []view.Game {
	rows := make([]view.Game, 0, len(games))
	for _, game := range games {
		rows = append(rows, view.Game{
			ID:       game.ID,
			Name:     game.Name,
			URL:      game.URL,
			Category: game.Category,
			Played:   game.Played,
		})
	}
	return rows
}

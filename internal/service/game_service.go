package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/dlist/internal/db"
	"gorm.io/gorm"
)

// ErrGameNotFound 在指定游戏不存在或已停用时返回
var ErrGameNotFound = errors.New("game not found")

// 打卡来源标记
const (
	SourceManual  = "manual"
	SourceRoutine = "routine"
)

// GameService 负责仪表盘查询与每日打卡逻辑
// "今日"统一按 UTC 零点截断，在每次请求中只计算一次
type GameService struct {
	db *gorm.DB
}

// DashboardGame 是仪表盘查询的单行结果
type DashboardGame struct {
	ID       uint
	Name     string
	URL      string
	Category *string
	Played   bool
}

// ToggleInput 定义打卡/取消打卡的输入
// 身份由调用方显式传入，鉴权在 handler 边界完成
type ToggleInput struct {
	UserID uint
	GameID uint
	Played bool
	Source string
	RunID  string
}

// NewGameService 构造 GameService
func NewGameService(gdb *gorm.DB) *GameService {
	return &GameService{db: gdb}
}

// StartOfTodayUTC 返回今天的 UTC 零点，所有"今日"判断共用该边界
func StartOfTodayUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Dashboard 返回当前用户视角下的全部启用游戏
// userID 为空时所有 Played 均为 false；排序为 category、name 的存储序，
// 页面展示顺序由视图层另行决定
func (s *GameService) Dashboard(userID *uint) ([]DashboardGame, error) {
	startOfToday := StartOfTodayUTC()

	type dashboardRow struct {
		ID         uint
		Name       string
		URL        string
		Category   *string
		ProgressID *uint
	}

	query := s.db.Model(&db.Game{}).
		Select("games.id AS id, games.name AS name, games.url AS url, games.category AS category, game_progresses.id AS progress_id").
		Where("games.is_active = ?", true).
		Order("games.category ASC").
		Order("games.name ASC")

	if userID != nil {
		query = query.Joins(
			"LEFT JOIN game_progresses ON game_progresses.game_id = games.id AND game_progresses.user_id = ? AND game_progresses.played_at >= ? AND game_progresses.deleted_at IS NULL",
			*userID, startOfToday,
		)
	} else {
		// 无身份时不做逐行查找，played 恒为 false
		query = query.Joins("LEFT JOIN game_progresses ON 1 = 0")
	}

	var rows []dashboardRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list dashboard games: %w", err)
	}

	games := make([]DashboardGame, 0, len(rows))
	for _, row := range rows {
		games = append(games, DashboardGame{
			ID:       row.ID,
			Name:     row.Name,
			URL:      row.URL,
			Category: row.Category,
			Played:   row.ProgressID != nil,
		})
	}

	return games, nil
}

// TogglePlayed 将 (user, game, 今日) 的打卡状态调整为期望值
// played=true 先查后写，顺序调用下幂等；played=false 无条件删除当日记录
func (s *GameService) TogglePlayed(input ToggleInput) error {
	var game db.Game
	if err := s.db.Where("id = ? AND is_active = ?", input.GameID, true).First(&game).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGameNotFound
		}
		return fmt.Errorf("find game: %w", err)
	}

	startOfToday := StartOfTodayUTC()

	if !input.Played {
		if err := s.db.Unscoped().
			Where("user_id = ? AND game_id = ? AND played_at >= ?", input.UserID, input.GameID, startOfToday).
			Delete(&db.GameProgress{}).Error; err != nil {
			return fmt.Errorf("delete game progress: %w", err)
		}
		return nil
	}

	var count int64
	if err := s.db.Model(&db.GameProgress{}).
		Where("user_id = ? AND game_id = ? AND played_at >= ?", input.UserID, input.GameID, startOfToday).
		Count(&count).Error; err != nil {
		return fmt.Errorf("count game progress: %w", err)
	}
	if count > 0 {
		return nil
	}

	source := input.Source
	if source == "" {
		source = SourceManual
	}

	record := db.GameProgress{
		UserID:   input.UserID,
		GameID:   input.GameID,
		PlayedAt: time.Now().UTC(),
		Source:   source,
		RunID:    input.RunID,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return fmt.Errorf("create game progress: %w", err)
	}

	return nil
}

package db

import (
	"time"

	"gorm.io/gorm"
)

// Game 定义了每日游戏目录中的一项
// URL 是导入时的唯一键，重复导入按 URL 覆盖更新
// Category 为逗号分隔的标签串，可为空，前端按视图回退到默认标签
// IsActive=false 的游戏不出现在任何仪表盘查询中
type Game struct {
	gorm.Model
	Name     string
	URL      string `gorm:"uniqueIndex;not null"`
	Category *string
	// 不设列默认值：写入方必须显式给出启用状态，
	// 否则 gorm 会在插入时略过 false 零值导致停用标记丢失
	IsActive bool
}

// GameProgress 记录"用户在时间 T 玩过某游戏"
// 同一 UTC 自然日内同一 (user, game) 至多一条，由 Toggle 的先查后写保证，
// 不加数据库唯一索引；并发下的偶发重复记录是已知且容忍的
// 取消打卡走硬删除，软删除行会干扰当日联表查询
// Source 标记打卡来源（manual/routine），RunID 关联同一次批量启动
type GameProgress struct {
	gorm.Model
	UserID   uint      `gorm:"index"`
	User     User      `gorm:"constraint:OnDelete:CASCADE"`
	GameID   uint      `gorm:"index"`
	Game     Game      `gorm:"constraint:OnDelete:CASCADE"`
	PlayedAt time.Time `gorm:"index"`
	Source   string
	RunID    string
}

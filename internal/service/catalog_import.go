package service

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/dlist/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogImporter 将启动脚本中的游戏列表导入目录
// 每行形如  "https://example.com"  # 分类 (备注)，行首 # 表示该游戏停用
type CatalogImporter struct {
	db *gorm.DB
}

// GameImport 是脚本中解析出的一条游戏
type GameImport struct {
	Name     string
	URL      string
	Category *string
	IsActive bool
}

// ImportStats 汇总一次导入的结果
type ImportStats struct {
	Parsed   int
	Imported int
}

var (
	gameLinePattern      = regexp.MustCompile(`^(#?)\s*"([^"]+)"\s*(?:#\s*(.*))?$`)
	parentheticalPattern = regexp.MustCompile(`\((.*)\)`)
)

// NewCatalogImporter 构造 CatalogImporter
func NewCatalogImporter(gdb *gorm.DB) *CatalogImporter {
	return &CatalogImporter{db: gdb}
}

// ParseLauncherScript 逐行解析启动脚本，忽略不含 URL 的行
func ParseLauncherScript(r io.Reader) ([]GameImport, error) {
	scanner := bufio.NewScanner(r)

	var entries []GameImport
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		match := gameLinePattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		rawURL := match[2]
		if !strings.HasPrefix(rawURL, "http") {
			continue
		}

		entry := GameImport{
			Name:     inferGameName(rawURL),
			URL:      rawURL,
			IsActive: match[1] != "#",
		}
		if category := normalizeCategory(match[3]); category != "" {
			entry.Category = &category
		}

		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read launcher script: %w", err)
	}

	return entries, nil
}

// Import 以 URL 为键写入目录，已存在时覆盖名称、分类与启用状态
func (s *CatalogImporter) Import(entries []GameImport) (ImportStats, error) {
	stats := ImportStats{Parsed: len(entries)}

	for _, entry := range entries {
		if entry.URL == "" {
			continue
		}

		game := db.Game{
			Name:     entry.Name,
			URL:      entry.URL,
			Category: entry.Category,
			IsActive: entry.IsActive,
		}
		if err := s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "url"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "category", "is_active", "updated_at"}),
		}).Create(&game).Error; err != nil {
			return stats, fmt.Errorf("upsert game %s: %w", entry.URL, err)
		}

		stats.Imported++
	}

	return stats, nil
}

// ImportFile 读取并导入指定路径的启动脚本
func (s *CatalogImporter) ImportFile(path string) (ImportStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return ImportStats{}, fmt.Errorf("open launcher script: %w", err)
	}
	defer file.Close()

	entries, err := ParseLauncherScript(file)
	if err != nil {
		return ImportStats{}, err
	}

	return s.Import(entries)
}

// inferGameName 从 URL 主机名推断展示名称，纽约时报的几个游戏单独映射
func inferGameName(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return rawURL
	}
	hostname := parsed.Hostname()

	if strings.Contains(hostname, "nytimes") {
		switch {
		case strings.Contains(rawURL, "connections"):
			return "NYT Connections"
		case strings.Contains(rawURL, "wordle"):
			return "NYT Wordle"
		case strings.Contains(rawURL, "strands"):
			return "NYT Strands"
		default:
			return "NYT Game"
		}
	}

	parts := strings.Split(hostname, ".")
	name := parts[0]
	if name == "www" && len(parts) > 1 {
		name = parts[1]
	}
	if name == "" {
		return rawURL
	}

	return strings.ToUpper(name[:1]) + name[1:]
}

// normalizeCategory 组合注释的自由文本前缀与括号内提示
// "not working" 归一为 broken，"don't like/know/watch" 归一为 disliked
func normalizeCategory(comment string) string {
	prefix, _, _ := strings.Cut(comment, "(")
	prefix = strings.TrimSpace(prefix)
	prefix = strings.TrimSpace(strings.TrimSuffix(prefix, ","))

	var extra string
	if match := parentheticalPattern.FindStringSubmatch(comment); match != nil {
		extra = strings.ToLower(match[1])
		switch {
		case strings.Contains(extra, "not working"):
			extra = "broken"
		case strings.Contains(extra, "don't like"),
			strings.Contains(extra, "don't know"),
			strings.Contains(extra, "don't watch"):
			extra = "disliked"
		}
	}

	switch {
	case prefix != "" && extra != "":
		return prefix + ", " + extra
	case extra != "":
		return extra
	default:
		return prefix
	}
}

package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/dlist/internal/config"
	"github.com/dlist/internal/db"
	"github.com/dlist/internal/service"
)

// 启动脚本导入器：读取 open-dles.sh 风格的列表并按 URL 覆盖写入游戏目录
func main() {
	path := flag.String("file", "", "启动脚本路径，留空时使用 IMPORT_SCRIPT_PATH")
	flag.Parse()

	cfg := config.Load()
	scriptPath := strings.TrimSpace(*path)
	if scriptPath == "" {
		scriptPath = cfg.ImportScriptPath
	}

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Printf("开始从 %s 导入游戏...\n", scriptPath)

	importer := service.NewCatalogImporter(db.DB)
	stats, err := importer.ImportFile(scriptPath)
	if err != nil {
		log.Fatal("导入失败:", err)
	}

	fmt.Printf("导入完成：解析 %d 条，写入 %d 条\n", stats.Parsed, stats.Imported)
}

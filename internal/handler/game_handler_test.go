package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dlist/internal/db"
	"github.com/dlist/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupHandlerTestDB(t *testing.T) func() {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.User{}, &db.Game{}, &db.GameProgress{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.DB = gdb

	return func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func jsonContext(t *testing.T, method, path string, payload interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("failed to encode payload: %v", err)
		}
	}
	req, err := http.NewRequest(method, path, &body)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	return c, w
}

func seedHandlerGame(t *testing.T, name string, active bool) db.Game {
	t.Helper()
	game := db.Game{Name: name, URL: "https://" + name + ".example.com", IsActive: active}
	if err := db.DB.Create(&game).Error; err != nil {
		t.Fatalf("failed to seed game: %v", err)
	}
	return game
}

func seedHandlerUser(t *testing.T) db.User {
	t.Helper()
	user := db.User{Username: "player", Password: "hashed"}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func TestGetDashboardAnonymous(t *testing.T) {
	cleanup := setupHandlerTestDB(t)
	defer cleanup()

	api := NewAPI(db.DB)
	user := seedHandlerUser(t)
	game := seedHandlerGame(t, "wordle", true)

	record := db.GameProgress{UserID: user.ID, GameID: game.ID, PlayedAt: time.Now().UTC(), Source: service.SourceManual}
	if err := db.DB.Create(&record).Error; err != nil {
		t.Fatalf("failed to seed progress: %v", err)
	}

	c, w := jsonContext(t, http.MethodGet, "/api/dashboard", nil)
	api.GetDashboard(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp struct {
		Games []struct {
			ID     uint   `json:"id"`
			Name   string `json:"name"`
			Played bool   `json:"played"`
		} `json:"games"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Games) != 1 {
		t.Fatalf("expected 1 game, got %d", len(resp.Games))
	}
	if resp.Games[0].Played {
		t.Fatal("expected played=false for anonymous request")
	}
}

func TestGetDashboardWithIdentity(t *testing.T) {
	cleanup := setupHandlerTestDB(t)
	defer cleanup()

	api := NewAPI(db.DB)
	user := seedHandlerUser(t)
	game := seedHandlerGame(t, "strands", true)

	record := db.GameProgress{UserID: user.ID, GameID: game.ID, PlayedAt: time.Now().UTC(), Source: service.SourceManual}
	if err := db.DB.Create(&record).Error; err != nil {
		t.Fatalf("failed to seed progress: %v", err)
	}

	c, w := jsonContext(t, http.MethodGet, "/api/dashboard", nil)
	c.Set(ctxUserIDKey, user.ID)
	api.GetDashboard(c)

	var resp struct {
		Games []struct {
			Played bool `json:"played"`
		} `json:"games"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Games[0].Played {
		t.Fatal("expected played=true for owner")
	}
}

func TestTogglePlayedRequiresLogin(t *testing.T) {
	cleanup := setupHandlerTestDB(t)
	defer cleanup()

	api := NewAPI(db.DB)
	c, w := jsonContext(t, http.MethodPost, "/api/games/toggle", gin.H{"game_id": 1, "played": true})
	api.TogglePlayed(c)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
}

func TestTogglePlayedValidatesPayload(t *testing.T) {
	cleanup := setupHandlerTestDB(t)
	defer cleanup()

	api := NewAPI(db.DB)
	user := seedHandlerUser(t)

	c, w := jsonContext(t, http.MethodPost, "/api/games/toggle", gin.H{"game_id": 1})
	c.Set(ctxUserIDKey, user.ID)
	api.TogglePlayed(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for missing played, got %d", w.Code)
	}
}

func TestTogglePlayedUnknownGame(t *testing.T) {
	cleanup := setupHandlerTestDB(t)
	defer cleanup()

	api := NewAPI(db.DB)
	user := seedHandlerUser(t)

	c, w := jsonContext(t, http.MethodPost, "/api/games/toggle", gin.H{"game_id": 9999, "played": true})
	c.Set(ctxUserIDKey, user.ID)
	api.TogglePlayed(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}

func TestTogglePlayedSuccess(t *testing.T) {
	cleanup := setupHandlerTestDB(t)
	defer cleanup()

	api := NewAPI(db.DB)
	user := seedHandlerUser(t)
	game := seedHandlerGame(t, "connections", true)

	c, w := jsonContext(t, http.MethodPost, "/api/games/toggle", gin.H{"game_id": game.ID, "played": true})
	c.Set(ctxUserIDKey, user.ID)
	api.TogglePlayed(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var count int64
	db.DB.Model(&db.GameProgress{}).Where("user_id = ? AND game_id = ?", user.ID, game.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 progress record, got %d", count)
	}

	// 手动打卡的来源固定为 manual
	var record db.GameProgress
	if err := db.DB.Where("user_id = ?", user.ID).First(&record).Error; err != nil {
		t.Fatalf("failed to load progress: %v", err)
	}
	if record.Source != service.SourceManual {
		t.Fatalf("expected source manual, got %s", record.Source)
	}
}

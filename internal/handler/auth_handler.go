package handler

import (
	"net/http"
	"strings"

	"github.com/dlist/internal/db"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionUserIDKey   = "user_id"
	sessionUsernameKey = "username"

	ctxUserIDKey   = "current_user_id"
	ctxUsernameKey = "current_username"
)

// ShowLoginPage 渲染登录页面
func (a *API) ShowLoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{
		"title": "登录",
	})
}

// Login 校验用户名密码并写入会话
func (a *API) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	var user db.User
	if err := a.db.Where("username = ?", username).First(&user).Error; err != nil {
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{"title": "登录", "error": "用户名或密码错误"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{"title": "登录", "error": "用户名或密码错误"})
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserIDKey, user.ID)
	session.Set(sessionUsernameKey, user.Username)
	if err := session.Save(); err != nil {
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{"title": "登录", "error": "会话保存失败"})
		return
	}

	c.Redirect(http.StatusFound, "/dashboard")
}

// Logout 清除会话并回到启动器
func Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.Redirect(http.StatusFound, "/")
}

// CurrentUser 将会话中的身份写入请求上下文，未登录时不拦截
func CurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if userID, ok := session.Get(sessionUserIDKey).(uint); ok {
			c.Set(ctxUserIDKey, userID)
			if username, ok := session.Get(sessionUsernameKey).(string); ok {
				c.Set(ctxUsernameKey, username)
			}
		}
		c.Next()
	}
}

// AuthRequired 保护需要登录的页面与接口
// API 路径返回 401，页面路径重定向到登录页
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentUserID(c); !ok {
			if strings.HasPrefix(c.Request.URL.Path, "/api/") {
				respondError(c, http.StatusUnauthorized, "请先登录")
			} else {
				c.Redirect(http.StatusFound, "/login")
			}
			c.Abort()
			return
		}
		c.Next()
	}
}

// currentUserID 读取请求上下文中的用户身份
func currentUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get(ctxUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}

// currentUsername 读取请求上下文中的用户名，仅用于页面展示
func currentUsername(c *gin.Context) string {
	value, exists := c.Get(ctxUsernameKey)
	if !exists {
		return ""
	}
	name, _ := value.(string)
	return name
}

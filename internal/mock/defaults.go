package mock

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"easynetes/internal/menu"
	"easynetes/internal/models"
)

const fixtureHostCount = 30

// Hosts returns the generated CMDB fixture.
func Hosts() []*models.HostRecord {
	out := make([]*models.HostRecord, 0, fixtureHostCount)
	for n := 1; n <= fixtureHostCount; n++ {
		ts := models.NewTimestamp(time.Date(2023, time.December, n, 15, 30, 0, 0, time.Local))
		out = append(out, &models.HostRecord{
			ID:          int64(n),
			HostID:      fmt.Sprintf("host-1-%d", n),
			HostName:    fmt.Sprintf("mysql-%d.dev.com", n),
			HostIP:      fmt.Sprintf("192.168.1.%d", n),
			HostSSHPort: 22,
			HostType:    "裸金属",
			Status:      true,
			CreatedTime: ts,
			UpdatedTime: ts,
		})
	}
	return out
}

func registerDefaults(s *Server) {
	hosts := Hosts()
	hostList := func(c *gin.Context) {
		q := models.ParseHostQuery(c.Request.URL.Query())
		c.JSON(http.StatusOK, models.SuccessList(int64(len(hosts)), models.Page(hosts, q)))
	}
	s.Register(http.MethodGet, `^/api/cmdb(\?|$)`, hostList)
	s.Register(http.MethodGet, `^/api/v1/host(\?|$)`, hostList)

	s.Register(http.MethodPost, `^/api/user/login$`, mockLogin)
	s.Register(http.MethodPost, `^/api/user/logout$`, func(c *gin.Context) {
		c.JSON(http.StatusOK, models.Success(nil))
	})
	s.Register(http.MethodPost, `^/api/user/info$`, func(c *gin.Context) {
		c.JSON(http.StatusOK, models.Success(adminInfo()))
	})
	s.Register(http.MethodPost, `^/api/user/menu$`, func(c *gin.Context) {
		p := menu.Principal{Role: string(models.RoleAdmin), Authenticated: true}
		c.JSON(http.StatusOK, models.Success(menu.BuildMenuTree(menu.AppRoutes(), p)))
	})
}

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func mockLogin(c *gin.Context) {
	var body loginBody
	sc := models.SCodeBadRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(sc.HTTP, sc.Envelope(nil, "invalid request format"))
		return
	}
	if strings.TrimSpace(body.Username) == "" || strings.TrimSpace(body.Password) == "" {
		c.JSON(sc.HTTP, sc.Envelope(nil, "username and password are required"))
		return
	}
	c.JSON(http.StatusOK, models.Success(gin.H{"token": "mock-" + uuid.NewString()}))
}

func adminInfo() models.UserInfo {
	return models.UserInfo{
		Name:             "admin",
		Email:            "admin@easynetes.local",
		Role:             string(models.RoleAdmin),
		AccountID:        "10000",
		RegistrationDate: models.NewTimestamp(time.Date(2023, time.December, 1, 9, 0, 0, 0, time.Local)),
		LastLoginTime:    models.NewTimestamp(time.Now()),
	}
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"easynetes/internal/manager"
	"easynetes/internal/menu"
)

// cookieSession adapts the auth cookie to the navigation guard.
type cookieSession struct {
	auth  *AuthService
	users *manager.UserStore
	c     *gin.Context
	token string
	role  string
	user  string
}

func (s *cookieSession) LoggedIn() bool { return s.token != "" }
func (s *cookieSession) Role() string   { return s.role }

// LoadInfo validates the token and resolves the current role.
func (s *cookieSession) LoadInfo(ctx context.Context) error {
	claims, err := s.auth.ValidateToken(s.token)
	if err != nil {
		return err
	}
	u, ok := s.users.Get(claims.Username)
	if !ok {
		return manager.ErrUserNotFound
	}
	if u.Role == "" {
		return errors.New("user has no role")
	}
	s.user = u.Username
	s.role = string(u.Role)
	return nil
}

func (s *cookieSession) Logout(ctx context.Context) {
	s.token = ""
	s.role = ""
	s.auth.ClearAuthCookie(s.c)
}

func isAssetPath(p string) bool {
	return path.Ext(p) != ""
}

// RequirePage guards browser navigations to console pages. Unauthenticated
// visitors are redirected to /login with the requested route name in the
// redirect query; signed-in users without access to the route land on the
// not-found page. API and asset requests pass through untouched.
func (a *AuthService) RequirePage(users *manager.UserStore, routes []*menu.Route) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) ||
			strings.HasPrefix(p, "/api/") || isAssetPath(p) {
			c.Next()
			return
		}

		to := menu.Location{Name: menu.NotFoundName, Path: p, Query: c.Request.URL.Query()}
		route, found := menu.Lookup(routes, p)
		if found {
			to.Name = route.Name
		} else if p == "/" {
			to.Name = ""
		}

		token, _ := c.Cookie(CookieName)
		session := &cookieSession{auth: a, users: users, c: c, token: token}
		decision := menu.Resolve(c.Request.Context(), to, session)
		if decision.Action == menu.ActionRedirect {
			c.Redirect(http.StatusFound, decision.Redirect.URL())
			c.Abort()
			return
		}

		if session.user != "" {
			c.Set(ContextUsername, session.user)
			c.Set(ContextRole, session.role)
			principal := menu.Principal{Role: session.role, Authenticated: true}
			if found && route.Meta.RequiresAuth && !principal.CanAccess(route) {
				c.Redirect(http.StatusFound, "/not-found")
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

// PageLogout ends the browser session and sends the user to the login page
// with redirect set to the route named by ?from=.
func (a *AuthService) PageLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := TokenFromRequest(c); token != "" {
			if claims, err := a.ValidateToken(token); err == nil {
				a.Revoke(claims)
			}
		}
		a.ClearAuthCookie(c)
		from := strings.TrimSpace(c.Query("from"))
		if from == "" || from == menu.LoginName {
			c.Redirect(http.StatusFound, "/login")
			return
		}
		c.Redirect(http.StatusFound, menu.LoginRedirect(menu.Location{Name: from}).URL())
	}
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"pmis/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	codes map[uint][]string
	calls int32
	err   error
}

func (s *stubSource) GetPrivilegeCodes(_ context.Context, roleID uint) ([]string, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	return s.codes[roleID], nil
}

func newTestAuth(src PrivilegeSource) *Authenticator {
	return NewAuthenticator("test-secret", time.Hour, time.Minute, false, src)
}

func TestIssueAndParseToken(t *testing.T) {
	a := newTestAuth(&stubSource{})

	token, expiresAt, err := a.IssueToken(7, 3)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	userID, roleID, err := a.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), userID)
	assert.Equal(t, uint(3), roleID)
}

func TestParseToken_Rejects(t *testing.T) {
	a := newTestAuth(&stubSource{})
	token, _, err := a.IssueToken(7, 3)
	require.NoError(t, err)

	other := NewAuthenticator("other-secret", time.Hour, time.Minute, false, &stubSource{})
	_, _, err = other.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	a.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, _, err = a.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = a.ParseToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticate_CachesPrivilegesPerRole(t *testing.T) {
	src := &stubSource{codes: map[uint][]string{3: {"payment_request.read", "bogus.code"}}}
	a := newTestAuth(src)
	token, _, err := a.IssueToken(7, 3)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		p, err := a.Authenticate(context.Background(), token)
		require.NoError(t, err)
		assert.True(t, p.Can(workflow.PrivPaymentRequestRead))
		assert.False(t, p.Can(workflow.PrivPaymentRequestUpdate))
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&src.calls))

	a.ClearPrivilegeCache(3)
	_, err = a.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&src.calls))
}

func TestPrincipalViewer(t *testing.T) {
	p := &Principal{UserID: 1, RoleID: 2, Privileges: workflow.NewPrivilegeSet("kdsp.read")}
	v := p.Viewer()
	assert.Equal(t, uint(1), v.UserID)
	assert.Equal(t, uint(2), v.RoleID)
	assert.True(t, v.Can(workflow.PrivKdspRead))

	var none *Principal
	assert.False(t, none.Can(workflow.PrivKdspRead))
	assert.False(t, none.Viewer().Can(workflow.PrivKdspRead))
}

func newRouter(a *Authenticator, privs ...workflow.Privilege) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/secure", a.RequireAuth(), Require(privs...), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": PrincipalFrom(c).UserID})
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	src := &stubSource{codes: map[uint][]string{3: {"report.read"}}}
	a := newTestAuth(src)
	token, _, err := a.IssueToken(7, 3)
	require.NoError(t, err)

	tests := []struct {
		name   string
		priv   workflow.Privilege
		setup  func(r *http.Request)
		status int
	}{
		{"missing token", workflow.PrivReportRead, func(r *http.Request) {}, http.StatusUnauthorized},
		{"bad header format", workflow.PrivReportRead, func(r *http.Request) { r.Header.Set("Authorization", "Token x") }, http.StatusUnauthorized},
		{"invalid token", workflow.PrivReportRead, func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"bearer ok", workflow.PrivReportRead, func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, http.StatusOK},
		{"cookie ok", workflow.PrivReportRead, func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token}) }, http.StatusOK},
		{"query ok", workflow.PrivReportRead, func(r *http.Request) { r.URL.RawQuery = "token=" + token }, http.StatusOK},
		{"missing privilege", workflow.PrivReportExport, func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/secure", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			newRouter(a, tt.priv).ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRequireAuth_SourceFailure(t *testing.T) {
	a := newTestAuth(&stubSource{err: errors.New("db down")})
	token, _, err := a.IssueToken(7, 3)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	newRouter(a).ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestTokenCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a := newTestAuth(&stubSource{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	a.SetTokenCookie(c, "abc")
	cookie := w.Result().Cookies()[0]
	assert.Equal(t, AccessTokenCookie, cookie.Name)
	assert.Equal(t, "abc", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 3600, cookie.MaxAge)
}

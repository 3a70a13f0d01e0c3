package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ems-inventory/internal/apperr"
	"ems-inventory/internal/models"
	"ems-inventory/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *clock) {
	t.Helper()
	db := testutil.NewDB(t)
	c := newClock()
	svc := NewService(db, NewIssuer(testutil.Secret, time.Hour, WithClock(c.Now)))

	_, err := svc.CreateUser(context.Background(), NewUser{
		Username: "admin", Password: "admin123", Email: "Admin@EMS.local",
		FullName: "System Administrator", Role: models.RoleAdmin,
	})
	require.NoError(t, err)
	_, err = svc.CreateUser(context.Background(), NewUser{Username: "sarah", Password: "manager123"})
	require.NoError(t, err)
	return svc, c
}

func TestAuthenticate(t *testing.T) {
	svc, c := newService(t)
	ctx := context.Background()

	sess, err := svc.Authenticate(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, sess.User.Role)
	require.NotNil(t, sess.User.LastLogin)
	assert.True(t, sess.User.LastLogin.Equal(c.Now()))

	claims, err := svc.Issuer().Verify(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, claims.UserID)

	stored, err := svc.User(ctx, sess.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)
	assert.NotEqual(t, "admin123", stored.PasswordHash)

	byEmail, err := svc.Authenticate(ctx, "admin@ems.local", "admin123")
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, byEmail.User.ID)

	_, err = svc.Authenticate(ctx, "admin", "wrong-password")
	assert.ErrorIs(t, err, apperr.ErrAuth)
	_, err = svc.Authenticate(ctx, "nobody", "admin123")
	assert.ErrorIs(t, err, apperr.ErrAuth)
	_, err = svc.Authenticate(ctx, "", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestAuthenticate_UnknownUserStillComparesHash(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	var hashes []string
	orig := checkPassword
	checkPassword = func(hash, password string) bool {
		hashes = append(hashes, hash)
		return orig(hash, password)
	}
	t.Cleanup(func() { checkPassword = orig })

	_, err := svc.Authenticate(ctx, "nobody", "admin123")
	assert.ErrorIs(t, err, apperr.ErrAuth)
	_, err = svc.Authenticate(ctx, "admin", "wrong-password")
	assert.ErrorIs(t, err, apperr.ErrAuth)

	require.Len(t, hashes, 2)
	assert.Equal(t, dummyHash(), hashes[0])
	assert.NotEqual(t, hashes[0], hashes[1])
}

func TestCreateUser_Validation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, NewUser{Username: "x", Password: "short"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.CreateUser(ctx, NewUser{Username: "x", Password: "long-enough", Role: "owner"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.CreateUser(ctx, NewUser{Username: "sarah", Password: "long-enough"})
	assert.ErrorIs(t, err, apperr.ErrDuplicateName)

	u, err := svc.CreateUser(ctx, NewUser{Username: "mike", Password: "long-enough"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, u.Role)
	assert.Nil(t, u.Email)
}

func newApp(svc *Service) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler})
	app.Post("/auth/login", LoginHandler(svc))

	protected := app.Group("", JWTMiddleware(svc.Issuer()))
	protected.Get("/auth/verify", VerifyHandler())
	protected.Get("/auth/me", MeHandler(svc))
	protected.Get("/admin-only", RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func login(t *testing.T, app *fiber.App, username, password string) (int, map[string]any) {
	t.Helper()
	body := `{"username":"` + username + `","password":"` + password + `"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func get(t *testing.T, app *fiber.App, path, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestLoginAndSessionRoutes(t *testing.T) {
	svc, c := newService(t)
	app := newApp(svc)

	status, body := login(t, app, "sarah", "manager123")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	user := body["user"].(map[string]any)
	assert.Equal(t, "sarah", user["username"])
	assert.NotContains(t, user, "password_hash")

	resp := get(t, app, "/auth/verify", token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = get(t, app, "/auth/me", token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = get(t, app, "/admin-only", token)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	c.Advance(2 * time.Hour)
	resp = get(t, app, "/auth/verify", token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogin_BadCredentials(t *testing.T) {
	svc, _ := newService(t)
	app := newApp(svc)

	status, body := login(t, app, "sarah", "nope")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "auth_error", body["code"])
	assert.Equal(t, "Invalid credentials", body["error"])
}

func TestJWTMiddleware_RejectsMissingOrMalformedHeader(t *testing.T) {
	svc, _ := newService(t)
	app := newApp(svc)

	resp := get(t, app, "/auth/verify", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/auth/verify", nil)
	req.Header.Set("Authorization", "Token abc")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireRole_AllowsAdmin(t *testing.T) {
	svc, _ := newService(t)
	app := newApp(svc)

	status, body := login(t, app, "admin", "admin123")
	require.Equal(t, http.StatusOK, status)

	resp := get(t, app, "/admin-only", body["token"].(string))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

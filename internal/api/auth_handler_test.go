package api

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"cvstudio/internal/auth"
	"cvstudio/internal/database"
)

func newTestAuthService(t *testing.T) *auth.AuthService {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	privateDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal private key: %v", err)
	}
	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	privatePEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privateDER})
	publicPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDER})

	service, err := auth.NewAuthService(privatePEM, publicPEM, 15*time.Minute, 168*time.Hour)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	return service
}

// An unreachable redis makes the login rate limiter fail open, which is
// exactly what these tests want.
func newUnreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	return redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
}

func newAuthTestHandler(t *testing.T, db *gorm.DB) *AuthHandler {
	t.Helper()
	return NewAuthHandler(db, newTestAuthService(t), newUnreachableRedis(t), nil, 10, 5, 15*time.Minute, "")
}

func registerUser(t *testing.T, db *gorm.DB, email, password string) database.User {
	t.Helper()
	hashed, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := database.User{Email: email, FullName: "Ana Lee", PasswordHash: hashed}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestRegister_CreatesUser(t *testing.T) {
	db := newTestDB(t)
	h := newAuthTestHandler(t, db)

	body := map[string]any{
		"email":     "Ana@Example.com",
		"full_name": "Ana Lee",
		"password":  "correct-horse",
	}
	c, w := jsonContext(t, http.MethodPost, "/v1/auth/register", body, 0)
	h.Register(c)
	c.Writer.WriteHeaderNow()

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	var user database.User
	if err := db.First(&user, "email = ?", "ana@example.com").Error; err != nil {
		t.Fatalf("load user, email should be lowercased: %v", err)
	}
	if user.PasswordHash == "correct-horse" {
		t.Error("password stored in plaintext")
	}
	if !auth.CheckPasswordHash("correct-horse", user.PasswordHash) {
		t.Error("stored hash does not verify against the password")
	}
}

func TestRegister_ConflictOnDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	h := newAuthTestHandler(t, db)
	registerUser(t, db, "ana@example.com", "correct-horse")

	body := map[string]any{"email": "ana@example.com", "password": "another-pass"}
	c, w := jsonContext(t, http.MethodPost, "/v1/auth/register", body, 0)
	h.Register(c)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestRegister_RejectsShortPassword(t *testing.T) {
	db := newTestDB(t)
	h := newAuthTestHandler(t, db)

	body := map[string]any{"email": "ana@example.com", "password": "short"}
	c, w := jsonContext(t, http.MethodPost, "/v1/auth/register", body, 0)
	h.Register(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestLogin_IssuesTokenPair(t *testing.T) {
	db := newTestDB(t)
	h := newAuthTestHandler(t, db)
	user := registerUser(t, db, "ana@example.com", "correct-horse")

	body := map[string]any{"email": "ana@example.com", "password": "correct-horse"}
	c, w := jsonContext(t, http.MethodPost, "/v1/auth/login", body, 0)
	h.Login(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var resp tokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TokenType != "Bearer" {
		t.Errorf("token_type = %q", resp.TokenType)
	}
	claims, err := h.authService.ValidateToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("access token does not validate: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("claims.UserID = %d, want %d", claims.UserID, user.ID)
	}
	if claims.TokenType != auth.TokenTypeAccess {
		t.Errorf("claims.TokenType = %q", claims.TokenType)
	}

	cookies := w.Result().Cookies()
	found := false
	for _, cookie := range cookies {
		if cookie.Name == refreshTokenCookieName {
			found = true
			if !cookie.HttpOnly {
				t.Error("refresh cookie must be http-only")
			}
		}
	}
	if !found {
		t.Error("refresh token cookie not set")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	db := newTestDB(t)
	h := newAuthTestHandler(t, db)
	registerUser(t, db, "ana@example.com", "correct-horse")

	body := map[string]any{"email": "ana@example.com", "password": "wrong-horse!"}
	c, w := jsonContext(t, http.MethodPost, "/v1/auth/login", body, 0)
	h.Login(c)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	db := newTestDB(t)
	h := newAuthTestHandler(t, db)

	body := map[string]any{"email": "nobody@example.com", "password": "whatever1"}
	c, w := jsonContext(t, http.MethodPost, "/v1/auth/login", body, 0)
	h.Login(c)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestChangePassword_ReplacesHash(t *testing.T) {
	db := newTestDB(t)
	h := newAuthTestHandler(t, db)
	user := registerUser(t, db, "ana@example.com", "correct-horse")

	body := map[string]any{
		"current_password": "correct-horse",
		"new_password":     "brand-new-pass",
		"confirm_password": "brand-new-pass",
	}
	c, w := jsonContext(t, http.MethodPost, "/v1/auth/change-password", body, user.ID)
	h.ChangePassword(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var reloaded database.User
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if !auth.CheckPasswordHash("brand-new-pass", reloaded.PasswordHash) {
		t.Error("new password does not verify")
	}
	if auth.CheckPasswordHash("correct-horse", reloaded.PasswordHash) {
		t.Error("old password still verifies")
	}
}

func TestChangePassword_RejectsMismatchedConfirmation(t *testing.T) {
	db := newTestDB(t)
	h := newAuthTestHandler(t, db)
	user := registerUser(t, db, "ana@example.com", "correct-horse")

	body := map[string]any{
		"current_password": "correct-horse",
		"new_password":     "brand-new-pass",
		"confirm_password": "different-pass",
	}
	c, w := jsonContext(t, http.MethodPost, "/v1/auth/change-password", body, user.ID)
	h.ChangePassword(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestProfile_ReturnsAccount(t *testing.T) {
	db := newTestDB(t)
	h := newAuthTestHandler(t, db)
	user := registerUser(t, db, "ana@example.com", "correct-horse")

	c, w := jsonContext(t, http.MethodGet, "/v1/auth/profile", nil, user.ID)
	h.Profile(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var resp profileResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Email != "ana@example.com" {
		t.Errorf("email = %q", resp.Email)
	}
}

package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/blog_api/internal/db/dbtest"
	"github.com/Skotchmaster/blog_api/internal/events"
	"github.com/Skotchmaster/blog_api/internal/hash"
	"github.com/Skotchmaster/blog_api/internal/middleware/auth"
	"github.com/Skotchmaster/blog_api/internal/models"
	"github.com/Skotchmaster/blog_api/internal/repo"
	"github.com/Skotchmaster/blog_api/internal/service"
	"github.com/Skotchmaster/blog_api/internal/tokens"
	"github.com/Skotchmaster/blog_api/internal/upload"
	"github.com/Skotchmaster/blog_api/internal/validation"
)

type testServer struct {
	e         *echo.Echo
	repo      *repo.GormRepo
	issuer    *tokens.Issuer
	uploadDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	gdb := dbtest.Open(t)
	r := repo.New(gdb)

	issuer, err := tokens.NewIssuer([]byte("router-test-secret"), time.Hour)
	require.NoError(t, err)

	dir := t.TempDir()
	images, err := upload.NewStore(dir)
	require.NoError(t, err)

	e := echo.New()
	Register(e, &Deps{
		UserHandler: &UserHTTP{Svc: &service.UserService{Repo: r, Tokens: issuer, Events: events.Noop{}}},
		PostHandler: &PostHTTP{
			Svc:    &service.PostService{Repo: r, Images: images, Events: events.Noop{}},
			Images: images,
		},
		Gate:      auth.NewGate(issuer),
		Validator: validation.New(),
		DB:        gdb,
		UploadDir: dir,
	})

	return &testServer{e: e, repo: r, issuer: issuer, uploadDir: dir}
}

type envelope struct {
	Status  string                  `json:"status"`
	Message string                  `json:"message"`
	Data    json.RawMessage         `json:"data"`
	Token   string                  `json:"token"`
	Errors  []validation.FieldError `json:"errors"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return s.send(t, req, token)
}

func (s *testServer) send(t *testing.T, req *http.Request, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (s *testServer) register(t *testing.T, first, last, email, password string) string {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/user/register", "", map[string]string{
		"first_name": first, "last_name": last, "email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotEmpty(t, env.Token)
	return env.Token
}

func (s *testServer) admin(t *testing.T) string {
	t.Helper()
	digest, err := hash.HashPassword("admin-pass")
	require.NoError(t, err)
	u := &models.User{FirstName: "Root", LastName: "Admin", Email: "root@example.com", PasswordHash: digest, Role: models.RoleAdmin}
	require.NoError(t, s.repo.CreateUser(context.Background(), u))

	tok, err := s.issuer.Issue(tokens.Claims{ID: u.ID, Email: u.Email, Role: u.Role})
	require.NoError(t, err)
	return tok
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/user/register", "", map[string]string{
		"first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.com", "password": "secret1", "role": "admin",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "success", env.Status)
	assert.NotContains(t, rec.Body.String(), "password")

	profile := decode[map[string]any](t, env.Data)
	assert.Equal(t, "ada@example.com", profile["email"])
	assert.Equal(t, "user", profile["role"], "client cannot pick its role")

	claims, err := s.issuer.Verify(env.Token)
	require.NoError(t, err)
	assert.EqualValues(t, profile["id"], claims.ID)

	rec, env = s.do(t, http.MethodPost, "/user/register", "", map[string]string{
		"first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "user already exists", env.Message)
}

func TestRegister_ValidationErrors(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/user/register", "", map[string]string{
		"first_name": "Ada", "email": "x", "password": "12345",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation failed", env.Message)
	got := validation.Errors(env.Errors)
	assert.Equal(t, []string{"last_name", "email", "password"}, got.Fields())
	assert.True(t, got.Has("email", "email"))
	assert.True(t, got.Has("password", "min"))
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "Ada", "Lovelace", "ada@example.com", "secret1")

	rec, env := s.do(t, http.MethodPost, "/user/login", "", map[string]string{"email": "ada@example.com", "password": "wrong1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", env.Message)

	rec, env = s.do(t, http.MethodPost, "/user/login", "", map[string]string{"email": "nobody@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", env.Message)

	rec, env = s.do(t, http.MethodPost, "/user/login", "", map[string]string{"email": "ada@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Login successful", env.Message)

	rec, env = s.do(t, http.MethodGet, "/user/me", env.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Lovelace", decode[map[string]any](t, env.Data)["last_name"])
}

func TestProfileRoutes(t *testing.T) {
	s := newTestServer(t)
	tok := s.register(t, "Ada", "Lovelace", "ada@example.com", "secret1")
	s.register(t, "Bob", "Builder", "bob@example.com", "secret1")

	rec, env := s.do(t, http.MethodGet, "/user/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing access token", env.Message)

	rec, env = s.do(t, http.MethodPut, "/user/me", tok, map[string]string{
		"first_name": "Augusta", "last_name": "King", "email": "augusta@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "augusta@example.com", decode[map[string]any](t, env.Data)["email"])

	rec, _ = s.do(t, http.MethodPut, "/user/me", tok, map[string]string{
		"first_name": "Augusta", "last_name": "King", "email": "bob@example.com",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, env = s.do(t, http.MethodPut, "/user/me/password", tok, map[string]string{
		"current_password": "SECRET1", "new_password": "newpass",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "incorrect current password", env.Message)

	rec, _ = s.do(t, http.MethodPut, "/user/me/password", tok, map[string]string{
		"current_password": "secret1", "new_password": "newpass",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/user/login", "", map[string]string{"email": "augusta@example.com", "password": "newpass"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthGateRunsBeforeValidation(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPut, "/user/me", "", map[string]string{"email": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, env.Errors)

	rec, _ = s.do(t, http.MethodPost, "/posts", "garbage", map[string]string{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListUsers_AdminOnly(t *testing.T) {
	s := newTestServer(t)
	userTok := s.register(t, "Ada", "Lovelace", "ada@example.com", "secret1")
	adminTok := s.admin(t)

	rec, _ := s.do(t, http.MethodGet, "/user", userTok, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := s.do(t, http.MethodGet, "/user", adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	users := decode[[]map[string]any](t, env.Data)
	assert.Len(t, users, 2)
}

func TestPosts_JSONLifecycle(t *testing.T) {
	s := newTestServer(t)
	tok := s.register(t, "Ada", "Lovelace", "ada@example.com", "secret1")

	rec, env := s.do(t, http.MethodPost, "/posts", tok, map[string]string{
		"title": "Notes", "subtitle": "On the engine", "content": "Analytical",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	post := decode[models.Post](t, env.Data)
	assert.Nil(t, post.ImageURL)
	assert.NotZero(t, post.AuthorID)

	id := itoa(post.ID)

	rec, env = s.do(t, http.MethodGet, "/posts/"+id, tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Notes", decode[models.Post](t, env.Data).Title)

	rec, env = s.do(t, http.MethodGet, "/posts?page=1&size=10", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Post](t, env.Data), 1)

	rec, _ = s.do(t, http.MethodPut, "/posts/"+id, tok, map[string]string{"title": "Notes v2"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = s.do(t, http.MethodPut, "/posts/"+id, tok, map[string]string{
		"title": "Notes v2", "subtitle": "s", "content": "c",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Notes v2", decode[models.Post](t, env.Data).Title)

	rec, _ = s.do(t, http.MethodDelete, "/posts/"+id, tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec, env = s.do(t, method, "/posts/"+id, tok, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Post not found", env.Message)
	}

	rec, _ = s.do(t, http.MethodGet, "/posts/abc", tok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPosts_MultipartWithImage(t *testing.T) {
	s := newTestServer(t)
	tok := s.register(t, "Ada", "Lovelace", "ada@example.com", "secret1")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "Pictures"))
	require.NoError(t, mw.WriteField("subtitle", "with a cover"))
	require.NoError(t, mw.WriteField("content", "see image"))
	fw, err := mw.CreateFormFile("image", "cover.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("fake png"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/posts", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec, env := s.send(t, req, tok)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	post := decode[models.Post](t, env.Data)
	require.NotNil(t, post.ImageURL)
	assert.True(t, strings.HasPrefix(*post.ImageURL, "http://example.com/uploads/"), *post.ImageURL)

	name := filepath.Base(*post.ImageURL)
	_, err = os.Stat(filepath.Join(s.uploadDir, name))
	require.NoError(t, err)

	rec, _ = s.do(t, http.MethodGet, "/uploads/"+name, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fake png", rec.Body.String())

	rec, _ = s.do(t, http.MethodDelete, "/posts/"+itoa(post.ID), tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	_, err = os.Stat(filepath.Join(s.uploadDir, name))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPosts_RejectsUnsupportedImage(t *testing.T) {
	s := newTestServer(t)
	tok := s.register(t, "Ada", "Lovelace", "ada@example.com", "secret1")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "t"))
	require.NoError(t, mw.WriteField("subtitle", "s"))
	require.NoError(t, mw.WriteField("content", "c"))
	fw, err := mw.CreateFormFile("image", "payload.exe")
	require.NoError(t, err)
	_, err = fw.Write([]byte("MZ"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/posts", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec, env := s.send(t, req, tok)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid image", env.Message)
}

func TestPosts_Search(t *testing.T) {
	s := newTestServer(t)
	ada := s.register(t, "Ada", "Lovelace", "ada@example.com", "secret1")
	alan := s.register(t, "Alan", "Turing", "alan@example.com", "secret1")

	for tok, title := range map[string]string{ada: "Engine notes", alan: "Computable numbers"} {
		rec, _ := s.do(t, http.MethodPost, "/posts", tok, map[string]string{"title": title, "subtitle": "s", "content": "c"})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec, env := s.do(t, http.MethodGet, "/posts/search?author=ada%20lovelace", ada, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	posts := decode[[]models.Post](t, env.Data)
	require.Len(t, posts, 1)
	assert.Equal(t, "Engine notes", posts[0].Title)

	rec, env = s.do(t, http.MethodGet, "/posts/search?author=Grace", ada, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No blog posts found for the specified author", env.Message)

	rec, env = s.do(t, http.MethodGet, "/posts/search?q=computable", ada, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Computable numbers", decode[[]models.Post](t, env.Data)[0].Title)

	rec, _ = s.do(t, http.MethodGet, "/posts/search", ada, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func TestPasswordLimitCountsBytes(t *testing.T) {
	s := newTestServer(t)
	long := strings.Repeat("é", 40)

	rec, env := s.do(t, http.MethodPost, "/user/register", "", map[string]string{
		"first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.com", "password": long,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.True(t, validation.Errors(env.Errors).Has("password", "bcryptmax"))

	tok := s.register(t, "Grace", "Hopper", "grace@example.com", "secret1")
	rec, env = s.do(t, http.MethodPut, "/user/me/password", tok, map[string]string{
		"current_password": "secret1", "new_password": long,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.True(t, validation.Errors(env.Errors).Has("new_password", "bcryptmax"))
}

func TestPosts_RejectBlankFields(t *testing.T) {
	s := newTestServer(t)
	tok := s.register(t, "Ada", "Lovelace", "ada@example.com", "secret1")

	rec, env := s.do(t, http.MethodPost, "/posts", tok, map[string]string{
		"title": "Notes", "subtitle": "On the engine", "content": "Analytical",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := itoa(decode[models.Post](t, env.Data).ID)

	blank := map[string]string{"title": "   ", "subtitle": "\t", "content": "c"}

	rec, env = s.do(t, http.MethodPost, "/posts", tok, blank)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.True(t, validation.Errors(env.Errors).Has("title", "notblank"))
	assert.True(t, validation.Errors(env.Errors).Has("subtitle", "notblank"))

	rec, env = s.do(t, http.MethodPut, "/posts/"+id, tok, blank)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.True(t, validation.Errors(env.Errors).Has("title", "notblank"))

	rec, env = s.do(t, http.MethodGet, "/posts/"+id, tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Notes", decode[models.Post](t, env.Data).Title)
}

func TestHandlerWithoutBodyMiddleware(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/user/register", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := &UserHTTP{}
	err := h.Register(c)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusInternalServerError, he.Code)
}

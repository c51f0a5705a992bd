package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Druv08/smart-scheduler/internal/middleware"
	"github.com/Druv08/smart-scheduler/internal/models"
	"github.com/Druv08/smart-scheduler/internal/service"
)

type stubUserRepo struct {
	byID map[int64]models.User
}

func (s *stubUserRepo) List(_ context.Context, filter models.UserFilter) ([]models.User, int, error) {
	out := make([]models.User, 0, len(s.byID))
	for _, u := range s.byID {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		out = append(out, u)
	}
	return out, len(out), nil
}

func (s *stubUserRepo) FindByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (s *stubUserRepo) Delete(_ context.Context, id int64) error {
	if _, ok := s.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.byID, id)
	return nil
}

func newUserTestHandler() (*UserHandler, *stubUserRepo) {
	repo := &stubUserRepo{byID: map[int64]models.User{
		1: {ID: 1, Username: "admin", Role: models.RoleAdmin},
		2: {ID: 2, Username: "prof.jones", Role: models.RoleFaculty},
	}}
	svc := service.NewUserService(repo, nil, nil)
	return NewUserHandler(svc), repo
}

func adminClaims(userID int64) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Role: models.RoleAdmin}
}

func TestUserHandlerListFiltersByRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newUserTestHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/users?role=faculty", nil)

	h.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "prof.jones", envelope.Data[0]["username"])
}

func TestUserHandlerDeleteOtherAccount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, repo := newUserTestHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/users/2", nil)
	c.Params = gin.Params{{Key: "id", Value: "2"}}
	c.Set(middleware.ContextUserKey, adminClaims(1))

	h.Delete(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, exists := repo.byID[2]
	assert.False(t, exists)
}

func TestUserHandlerCannotDeleteSelf(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, repo := newUserTestHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/users/1", nil)
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	c.Set(middleware.ContextUserKey, adminClaims(1))

	h.Delete(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	_, exists := repo.byID[1]
	assert.True(t, exists)
}

func TestUserHandlerGetUnknown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newUserTestHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/users/42", nil)
	c.Params = gin.Params{{Key: "id", Value: "42"}}

	h.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rentiva/veriprop/internal/helper"
	"github.com/rentiva/veriprop/internal/mocks"
	"github.com/rentiva/veriprop/internal/models"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// hash of "correctpassword"
const testPasswordHash = "$2a$10$oiIYEECpY/GRNs9Fi7Yh1.o4Dw2fTD26eu5z48KYgXkMuOiWlSvqG"

func newAuthTestHandler(userRepo *mocks.MockUserRepo, activityRepo *mocks.MockActivityRepo, mailer *mocks.MockMailer) *AuthHandler {
	var baseURL string = "http://localhost"
	var wg sync.WaitGroup

	return &AuthHandler{
		UserRepo:     userRepo,
		ActivityRepo: activityRepo,
		Helper:       helper.New(&baseURL, &wg, nil),
		Mailer:       mailer,
		Config:       mocks.MockConfig,
	}
}

func postLogin(t *testing.T, authHandler *AuthHandler, email, password string) *httptest.ResponseRecorder {
	t.Helper()

	requestBody, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})

	req, err := http.NewRequest("POST", "/auth/login", bytes.NewBuffer(requestBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	authHandler.HandleAuthLogin(rr, req)
	return rr
}

func TestHandleAuthLogin_ValidCredentials(t *testing.T) {
	mockUserRepo := new(mocks.MockUserRepo)
	mockActivityRepo := &mocks.MockActivityRepo{}
	mockMailer := new(mocks.MockMailer)

	mockMailer.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	testUser := &models.User{
		ID:             "123",
		Email:          "test@example.com",
		HashedPassword: testPasswordHash,
		Status:         models.UserAccountActiveStatus,
	}

	mockUserRepo.On("GetByEmail", "test@example.com").Return(testUser, true, nil)

	authHandler := newAuthTestHandler(mockUserRepo, mockActivityRepo, mockMailer)

	rr := postLogin(t, authHandler, "test@example.com", "correctpassword")

	require.Equal(t, http.StatusOK, rr.Code)

	var response map[string]interface{}
	err := json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)

	require.Contains(t, response, "data")

	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok, "Expected response['data'] to be a map")

	require.Contains(t, data, "auth_token")
	require.Contains(t, data, "token_expiry")
	require.NotEmpty(t, data["auth_token"])

	mockUserRepo.AssertExpectations(t)
}

func TestHandleAuthLogin_LockedAccount(t *testing.T) {
	mockUserRepo := new(mocks.MockUserRepo)
	mockActivityRepo := &mocks.MockActivityRepo{}
	mockMailer := new(mocks.MockMailer)

	lockedUser := &models.User{
		ID:             "123",
		Email:          "locked@example.com",
		HashedPassword: testPasswordHash,
		Status:         models.UserAccountLockedStatus,
	}

	mockUserRepo.On("GetByEmail", "locked@example.com").Return(lockedUser, true, nil)

	authHandler := newAuthTestHandler(mockUserRepo, mockActivityRepo, mockMailer)

	rr := postLogin(t, authHandler, "locked@example.com", "correctpassword")

	require.Equal(t, http.StatusForbidden, rr.Code)

	mockUserRepo.AssertExpectations(t)
}

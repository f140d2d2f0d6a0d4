package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adityarh/antarin/internal/model"
	"github.com/adityarh/antarin/pkg/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Create(user *model.User) error {
	return m.Called(user).Error(0)
}
func (m *mockUserStore) FindByID(id uuid.UUID) (*model.User, error) {
	args := m.Called(id)
	if u, _ := args.Get(0).(*model.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) FindByPhone(phone string) (*model.User, error) {
	args := m.Called(phone)
	if u, _ := args.Get(0).(*model.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) VerifyPhone(userID uuid.UUID) error {
	return m.Called(userID).Error(0)
}
func (m *mockUserStore) UpdatePassword(userID uuid.UUID, hashedPassword string) error {
	return m.Called(userID, hashedPassword).Error(0)
}
func (m *mockUserStore) GetOrCreateGoogleUser(info model.GoogleUserInfo) (*model.User, error) {
	args := m.Called(info)
	if u, _ := args.Get(0).(*model.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) AddDevice(userID uuid.UUID, fcmToken, deviceType string) error {
	return m.Called(userID, fcmToken, deviceType).Error(0)
}
func (m *mockUserStore) List(role model.Role, limit, offset int) ([]model.User, error) {
	args := m.Called(role, limit, offset)
	users, _ := args.Get(0).([]model.User)
	return users, args.Error(1)
}

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) SaveRefresh(ctx context.Context, tokenID string, userID uuid.UUID, ttl time.Duration) error {
	return m.Called(ctx, tokenID, userID, ttl).Error(0)
}
func (m *mockSessionStore) ConsumeRefresh(ctx context.Context, tokenID string) (uuid.UUID, error) {
	args := m.Called(ctx, tokenID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}
func (m *mockSessionStore) DeleteRefresh(ctx context.Context, tokenID string) error {
	return m.Called(ctx, tokenID).Error(0)
}
func (m *mockSessionStore) BlacklistAccess(ctx context.Context, token string, ttl time.Duration) error {
	return m.Called(ctx, token, ttl).Error(0)
}

// captureSMS hands delivered messages to the test over a channel so the
// async send can be awaited without sleeping.
type captureSMS struct{ sent chan string }

func newCaptureSMS() *captureSMS { return &captureSMS{sent: make(chan string, 1)} }

func (c *captureSMS) SendSMS(_ context.Context, _, message string) error {
	c.sent <- message
	return nil
}

type captureMailer struct{ sent chan string }

func newCaptureMailer() *captureMailer { return &captureMailer{sent: make(chan string, 1)} }

func (c *captureMailer) SendPasswordReset(_, _, code string, _ int) error {
	c.sent <- code
	return nil
}

// --- builder ---

type authFixture struct {
	users    *mockUserStore
	otpStore *mockOTPStore
	sessions *mockSessionStore
	sms      *captureSMS
	mail     *captureMailer
	svc      *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users:    &mockUserStore{},
		otpStore: &mockOTPStore{},
		sessions: &mockSessionStore{},
		sms:      newCaptureSMS(),
		mail:     newCaptureMailer(),
	}
	jwtManager := auth.NewJWTManager("test-secret", 15*time.Minute, 7*24*time.Hour)
	otpService := NewOTPService(f.otpStore, OTPConfig{})
	f.svc = NewAuthService(f.users, otpService, jwtManager, f.sessions, f.sms, f.mail, "")
	return f
}

func awaitSMS(t *testing.T, c *captureSMS) string {
	t.Helper()
	select {
	case msg := <-c.sent:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("expected an SMS to be sent")
		return ""
	}
}

func verifiedUser(t *testing.T, password string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now()
	return &model.User{
		ID:              uuid.New(),
		Name:            "Budi",
		Phone:           testPhone,
		Password:        string(hash),
		Role:            model.RoleRider,
		AuthProvider:    model.AuthProviderPhone,
		PhoneVerifiedAt: &now,
	}
}

// --- Register ---

func TestRegister_NewUser_CreatesAccountAndSendsCode(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("FindByPhone", testPhone).Return(nil, gorm.ErrRecordNotFound)
	f.users.On("Create", mock.AnythingOfType("*model.User")).Return(nil)
	f.otpStore.On("FindLatestActive", testPhone, model.OTPPurposeVerifyPhone).Return(nil, gorm.ErrRecordNotFound)
	f.otpStore.On("Create", mock.AnythingOfType("*model.OtpRecord")).Return(nil)

	resp, err := f.svc.Register(model.RegisterRequest{
		Name:     "Budi",
		Phone:    testPhone,
		Password: "secret123",
	})

	require.NoError(t, err)
	assert.Equal(t, testPhone, resp.Phone)
	assert.Equal(t, 300, resp.ExpiresIn)

	msg := awaitSMS(t, f.sms)
	assert.Contains(t, msg, "verification code")
	f.users.AssertExpectations(t)
	f.otpStore.AssertExpectations(t)
}

func TestRegister_VerifiedPhone_ReturnsPhoneTaken(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("FindByPhone", testPhone).Return(verifiedUser(t, "pw"), nil)

	_, err := f.svc.Register(model.RegisterRequest{Name: "Budi", Phone: testPhone, Password: "pw"})

	assert.True(t, errors.Is(err, ErrPhoneTaken))
	f.users.AssertNotCalled(t, "Create", mock.Anything)
}

func TestRegister_UnverifiedExisting_ResendsCode(t *testing.T) {
	f := newAuthFixture(t)
	user := verifiedUser(t, "pw")
	user.PhoneVerifiedAt = nil

	f.users.On("FindByPhone", testPhone).Return(user, nil)
	f.otpStore.On("FindLatestActive", testPhone, model.OTPPurposeVerifyPhone).Return(nil, gorm.ErrRecordNotFound)
	f.otpStore.On("Create", mock.AnythingOfType("*model.OtpRecord")).Return(nil)

	resp, err := f.svc.Register(model.RegisterRequest{Name: "Budi", Phone: testPhone, Password: "pw"})

	require.NoError(t, err)
	assert.Equal(t, testPhone, resp.Phone)
	f.users.AssertNotCalled(t, "Create", mock.Anything)
	awaitSMS(t, f.sms)
}

// --- VerifyPhone ---

func TestVerifyPhone_CorrectCode_ActivatesAndReturnsTokens(t *testing.T) {
	f := newAuthFixture(t)
	user := verifiedUser(t, "pw")
	user.PhoneVerifiedAt = nil
	record := activeRecord(t, "042137", 0, time.Now().Add(3*time.Minute))

	f.users.On("FindByPhone", testPhone).Return(user, nil)
	f.otpStore.On("FindLatestActive", testPhone, model.OTPPurposeVerifyPhone).Return(record, nil)
	f.otpStore.On("MarkUsed", record.ID, model.OTPUsedConsumed).Return(nil)
	f.users.On("VerifyPhone", user.ID).Return(nil)
	f.sessions.On("SaveRefresh", mock.Anything, mock.AnythingOfType("string"), user.ID, mock.Anything).Return(nil)

	resp, err := f.svc.VerifyPhone(model.VerifyPhoneRequest{Phone: testPhone, Code: "042137"})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, user.ID, resp.User.ID)
	f.users.AssertExpectations(t)
	f.sessions.AssertExpectations(t)
}

func TestVerifyPhone_WrongCode_PropagatesInvalidCode(t *testing.T) {
	f := newAuthFixture(t)
	user := verifiedUser(t, "pw")
	user.PhoneVerifiedAt = nil
	record := activeRecord(t, "042137", 0, time.Now().Add(3*time.Minute))

	f.users.On("FindByPhone", testPhone).Return(user, nil)
	f.otpStore.On("FindLatestActive", testPhone, model.OTPPurposeVerifyPhone).Return(record, nil)
	f.otpStore.On("IncrementAttempts", record.ID).Return(true, nil)

	_, err := f.svc.VerifyPhone(model.VerifyPhoneRequest{Phone: testPhone, Code: "000000"})

	assert.True(t, errors.Is(err, ErrInvalidCode))
	f.users.AssertNotCalled(t, "VerifyPhone", mock.Anything)
}

// --- Login ---

func TestLogin_HappyPath_ReturnsTokens(t *testing.T) {
	f := newAuthFixture(t)
	user := verifiedUser(t, "secret123")

	f.users.On("FindByPhone", testPhone).Return(user, nil)
	f.sessions.On("SaveRefresh", mock.Anything, mock.AnythingOfType("string"), user.ID, mock.Anything).Return(nil)

	resp, challenge, err := f.svc.Login(model.LoginRequest{Phone: testPhone, Password: "secret123"})

	require.NoError(t, err)
	assert.Nil(t, challenge)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestLogin_WrongPassword_ReturnsInvalidCredentials(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("FindByPhone", testPhone).Return(verifiedUser(t, "secret123"), nil)

	_, _, err := f.svc.Login(model.LoginRequest{Phone: testPhone, Password: "wrong"})

	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestLogin_UnknownPhone_ReturnsInvalidCredentials(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("FindByPhone", testPhone).Return(nil, gorm.ErrRecordNotFound)

	_, _, err := f.svc.Login(model.LoginRequest{Phone: testPhone, Password: "whatever"})

	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestLogin_UnverifiedPhone_Rejected(t *testing.T) {
	f := newAuthFixture(t)
	user := verifiedUser(t, "secret123")
	user.PhoneVerifiedAt = nil
	f.users.On("FindByPhone", testPhone).Return(user, nil)

	_, _, err := f.svc.Login(model.LoginRequest{Phone: testPhone, Password: "secret123"})

	assert.True(t, errors.Is(err, ErrPhoneNotVerified))
}

func TestLogin_GoogleAccount_Rejected(t *testing.T) {
	f := newAuthFixture(t)
	user := verifiedUser(t, "secret123")
	user.AuthProvider = model.AuthProviderGoogle
	f.users.On("FindByPhone", testPhone).Return(user, nil)

	_, _, err := f.svc.Login(model.LoginRequest{Phone: testPhone, Password: "secret123"})

	assert.True(t, errors.Is(err, ErrGoogleAccount))
}

func TestLogin_RequireOTP_ReturnsChallengeInsteadOfTokens(t *testing.T) {
	f := newAuthFixture(t)
	user := verifiedUser(t, "secret123")
	user.RequireOTP = true

	f.users.On("FindByPhone", testPhone).Return(user, nil)
	f.otpStore.On("FindLatestActive", testPhone, model.OTPPurposeLogin).Return(nil, gorm.ErrRecordNotFound)
	f.otpStore.On("Create", mock.AnythingOfType("*model.OtpRecord")).Return(nil)

	resp, challenge, err := f.svc.Login(model.LoginRequest{Phone: testPhone, Password: "secret123"})

	require.NoError(t, err)
	assert.Nil(t, resp)
	require.NotNil(t, challenge)
	assert.Equal(t, testPhone, challenge.Phone)
	f.sessions.AssertNotCalled(t, "SaveRefresh", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	awaitSMS(t, f.sms)
}

func TestLoginWithOTP_CompletesStepUp(t *testing.T) {
	f := newAuthFixture(t)
	user := verifiedUser(t, "secret123")
	user.RequireOTP = true
	record := activeRecord(t, "042137", 0, time.Now().Add(3*time.Minute))
	record.Purpose = model.OTPPurposeLogin

	f.users.On("FindByPhone", testPhone).Return(user, nil)
	f.otpStore.On("FindLatestActive", testPhone, model.OTPPurposeLogin).Return(record, nil)
	f.otpStore.On("MarkUsed", record.ID, model.OTPUsedConsumed).Return(nil)
	f.sessions.On("SaveRefresh", mock.Anything, mock.AnythingOfType("string"), user.ID, mock.Anything).Return(nil)

	resp, err := f.svc.LoginWithOTP(model.LoginOTPRequest{Phone: testPhone, Code: "042137"})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

// --- Refresh ---

func TestRefresh_RotatesSession(t *testing.T) {
	f := newAuthFixture(t)
	user := verifiedUser(t, "pw")

	jwtManager := auth.NewJWTManager("test-secret", 15*time.Minute, 7*24*time.Hour)
	refresh, tokenID, err := jwtManager.GenerateRefreshToken(user.ID, user.Phone, user.Role)
	require.NoError(t, err)

	f.sessions.On("ConsumeRefresh", mock.Anything, tokenID).Return(user.ID, nil)
	f.users.On("FindByID", user.ID).Return(user, nil)
	f.sessions.On("SaveRefresh", mock.Anything, mock.AnythingOfType("string"), user.ID, mock.Anything).Return(nil)

	pair, err := f.svc.Refresh(context.Background(), refresh)

	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEqual(t, refresh, pair.RefreshToken)
	f.sessions.AssertExpectations(t)
}

func TestRefresh_AlreadyRotated_Rejected(t *testing.T) {
	f := newAuthFixture(t)
	user := verifiedUser(t, "pw")

	jwtManager := auth.NewJWTManager("test-secret", 15*time.Minute, 7*24*time.Hour)
	refresh, tokenID, err := jwtManager.GenerateRefreshToken(user.ID, user.Phone, user.Role)
	require.NoError(t, err)

	f.sessions.On("ConsumeRefresh", mock.Anything, tokenID).Return(uuid.Nil, ErrInvalidRefresh)

	_, err = f.svc.Refresh(context.Background(), refresh)

	assert.True(t, errors.Is(err, ErrInvalidRefresh))
}

func TestRefresh_AccessTokenPresented_Rejected(t *testing.T) {
	f := newAuthFixture(t)
	user := verifiedUser(t, "pw")

	jwtManager := auth.NewJWTManager("test-secret", 15*time.Minute, 7*24*time.Hour)
	access, err := jwtManager.GenerateAccessToken(user.ID, user.Phone, user.Role)
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), access)

	assert.True(t, errors.Is(err, ErrInvalidRefresh))
}

// --- Logout ---

func TestLogout_BlacklistsAccessAndDropsRefresh(t *testing.T) {
	f := newAuthFixture(t)
	user := verifiedUser(t, "pw")

	jwtManager := auth.NewJWTManager("test-secret", 15*time.Minute, 7*24*time.Hour)
	access, err := jwtManager.GenerateAccessToken(user.ID, user.Phone, user.Role)
	require.NoError(t, err)
	refresh, tokenID, err := jwtManager.GenerateRefreshToken(user.ID, user.Phone, user.Role)
	require.NoError(t, err)

	f.sessions.On("BlacklistAccess", mock.Anything, access, mock.MatchedBy(func(ttl time.Duration) bool {
		return ttl > 0
	})).Return(nil)
	f.sessions.On("DeleteRefresh", mock.Anything, tokenID).Return(nil)

	err = f.svc.Logout(context.Background(), access, refresh)

	require.NoError(t, err)
	f.sessions.AssertExpectations(t)
}

// --- Forgot/Reset password ---

func TestForgotPassword_UnknownPhone_GenericResponse(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("FindByPhone", testPhone).Return(nil, gorm.ErrRecordNotFound)

	resp, err := f.svc.ForgotPassword(model.ForgotPasswordRequest{Phone: testPhone})

	require.NoError(t, err)
	assert.Equal(t, testPhone, resp.Phone)
	f.otpStore.AssertNotCalled(t, "Create", mock.Anything)
}

func TestForgotPassword_RevokesPendingCodesFirst(t *testing.T) {
	f := newAuthFixture(t)
	user := verifiedUser(t, "pw")

	f.users.On("FindByPhone", testPhone).Return(user, nil)
	f.otpStore.On("MarkUsedBulk", testPhone, model.OTPPurposeReset, model.OTPUsedRevoked).Return(nil)
	f.otpStore.On("FindLatestActive", testPhone, model.OTPPurposeReset).Return(nil, gorm.ErrRecordNotFound)
	f.otpStore.On("Create", mock.AnythingOfType("*model.OtpRecord")).Return(nil)

	_, err := f.svc.ForgotPassword(model.ForgotPasswordRequest{Phone: testPhone})

	require.NoError(t, err)
	f.otpStore.AssertExpectations(t)
	awaitSMS(t, f.sms)
}

func TestForgotPassword_AdminWithEmail_CodeGoesByMail(t *testing.T) {
	f := newAuthFixture(t)
	user := verifiedUser(t, "pw")
	email := "ops@antarin.id"
	user.Role = model.RoleAdmin
	user.Email = &email

	f.users.On("FindByPhone", testPhone).Return(user, nil)
	f.otpStore.On("MarkUsedBulk", testPhone, model.OTPPurposeReset, model.OTPUsedRevoked).Return(nil)
	f.otpStore.On("FindLatestActive", testPhone, model.OTPPurposeReset).Return(nil, gorm.ErrRecordNotFound)
	f.otpStore.On("Create", mock.AnythingOfType("*model.OtpRecord")).Return(nil)

	_, err := f.svc.ForgotPassword(model.ForgotPasswordRequest{Phone: testPhone})

	require.NoError(t, err)
	select {
	case code := <-f.mail.sent:
		assert.Len(t, code, 6)
	case <-time.After(2 * time.Second):
		t.Fatal("expected the reset code to go by mail")
	}
	select {
	case <-f.sms.sent:
		t.Fatal("admin reset code must not go by SMS")
	default:
	}
}

func TestResetPassword_SetsNewHash(t *testing.T) {
	f := newAuthFixture(t)
	user := verifiedUser(t, "old-password")
	record := activeRecord(t, "042137", 0, time.Now().Add(3*time.Minute))
	record.Purpose = model.OTPPurposeReset

	f.users.On("FindByPhone", testPhone).Return(user, nil)
	f.otpStore.On("FindLatestActive", testPhone, model.OTPPurposeReset).Return(record, nil)
	f.otpStore.On("MarkUsed", record.ID, model.OTPUsedConsumed).Return(nil)
	f.users.On("UpdatePassword", user.ID, mock.MatchedBy(func(hash string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte("new-password")) == nil
	})).Return(nil)

	err := f.svc.ResetPassword(model.ResetPasswordRequest{
		Phone:       testPhone,
		Code:        "042137",
		NewPassword: "new-password",
	})

	require.NoError(t, err)
	f.users.AssertExpectations(t)
}

func TestResetPassword_WrongCode_PasswordUnchanged(t *testing.T) {
	f := newAuthFixture(t)
	user := verifiedUser(t, "old-password")
	record := activeRecord(t, "042137", 0, time.Now().Add(3*time.Minute))
	record.Purpose = model.OTPPurposeReset

	f.users.On("FindByPhone", testPhone).Return(user, nil)
	f.otpStore.On("FindLatestActive", testPhone, model.OTPPurposeReset).Return(record, nil)
	f.otpStore.On("IncrementAttempts", record.ID).Return(true, nil)

	err := f.svc.ResetPassword(model.ResetPasswordRequest{
		Phone:       testPhone,
		Code:        "999999",
		NewPassword: "new-password",
	})

	assert.True(t, errors.Is(err, ErrInvalidCode))
	f.users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything)
}

func TestListUsers_ClampsPaging(t *testing.T) {
	f := newAuthFixture(t)
	user := verifiedUser(t, "password123")

	f.users.On("List", model.RoleRider, 20, 0).Return([]model.User{*user}, nil)

	resps, err := f.svc.ListUsers(model.RoleRider, -1, -5)

	require.NoError(t, err)
	require.Len(t, resps, 1)
	assert.Equal(t, user.ID, resps[0].ID)
	f.users.AssertExpectations(t)
}

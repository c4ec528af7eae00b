package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoArmGo/PictureIt/internal/auth"
	"github.com/GoArmGo/PictureIt/internal/domain"
	"github.com/GoArmGo/PictureIt/internal/logger"
)

type memoryUsers struct {
	mu     sync.Mutex
	byName map[string]domain.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byName: map[string]domain.User{}}
}

func (m *memoryUsers) CreateUser(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byName {
		if u.Username == user.Username || u.Email == user.Email {
			return domain.ErrDuplicate
		}
	}
	m.byName[user.Username] = *user
	return nil
}

func (m *memoryUsers) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byName[username]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

type stubIssuer struct {
	err     error
	subject string
}

func (s *stubIssuer) Issue(userID string) (string, time.Time, error) {
	s.subject = userID
	if s.err != nil {
		return "", time.Time{}, s.err
	}
	return "token-for-" + userID, time.Now().Add(time.Hour), nil
}

func newAccountUseCase(t *testing.T, users *memoryUsers, issuer *stubIssuer) AccountUseCase {
	t.Helper()
	verifier, err := auth.NewIdentityVerifier(users)
	require.NoError(t, err)
	return NewAccountUseCase(users, verifier, issuer, logger.Discard())
}

func aliceInput() RegisterInput {
	return RegisterInput{
		Username:  "alice1",
		Password:  "Password123!",
		FirstName: "Alice",
		LastName:  "Liddell",
		Email:     " Alice@Example.com ",
	}
}

func TestRegister_HashesPasswordOnce(t *testing.T) {
	users := newMemoryUsers()
	uc := newAccountUseCase(t, users, &stubIssuer{})

	user, err := uc.Register(context.Background(), aliceInput())
	require.NoError(t, err)

	assert.NotEqual(t, "Password123!", user.PasswordHash)
	assert.NoError(t, auth.ComparePassword(user.PasswordHash, "Password123!"))
	assert.Equal(t, "alice@example.com", user.Email)
	assert.False(t, user.CreatedAt.IsZero())

	stored, err := users.GetUserByUsername(context.Background(), "alice1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, user.ID, stored.ID)
}

func TestRegister_Duplicate(t *testing.T) {
	uc := newAccountUseCase(t, newMemoryUsers(), &stubIssuer{})

	_, err := uc.Register(context.Background(), aliceInput())
	require.NoError(t, err)

	_, err = uc.Register(context.Background(), aliceInput())
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestLogin_IssuesTokenForUser(t *testing.T) {
	issuer := &stubIssuer{}
	uc := newAccountUseCase(t, newMemoryUsers(), issuer)

	user, err := uc.Register(context.Background(), aliceInput())
	require.NoError(t, err)

	result, err := uc.Login(context.Background(), "alice1", "Password123!")
	require.NoError(t, err)

	assert.Equal(t, user.ID.String(), issuer.subject)
	assert.Equal(t, "token-for-"+user.ID.String(), result.AccessToken)
	assert.True(t, result.ExpiresAt.After(time.Now()))
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	uc := newAccountUseCase(t, newMemoryUsers(), &stubIssuer{})
	_, err := uc.Register(context.Background(), aliceInput())
	require.NoError(t, err)

	_, wrongPassword := uc.Login(context.Background(), "alice1", "wrong-password")
	_, unknownUser := uc.Login(context.Background(), "nobody", "Password123!")

	assert.ErrorIs(t, wrongPassword, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, domain.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestLogin_SigningFailure(t *testing.T) {
	issuer := &stubIssuer{err: errors.New("no key")}
	uc := newAccountUseCase(t, newMemoryUsers(), issuer)
	_, err := uc.Register(context.Background(), aliceInput())
	require.NoError(t, err)

	_, err = uc.Login(context.Background(), "alice1", "Password123!")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestRegisterAndLogin_LongPassword(t *testing.T) {
	uc := newAccountUseCase(t, newMemoryUsers(), &stubIssuer{})
	input := aliceInput()
	input.Password = strings.Repeat("a", 100)

	_, err := uc.Register(context.Background(), input)
	require.NoError(t, err)

	result, err := uc.Login(context.Background(), "alice1", input.Password)
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
}

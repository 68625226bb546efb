package backend

import (
	"context"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength matches the hosted service's own floor.
const MinPasswordLength = 6

type memoryAccount struct {
	user User
	hash []byte
}

// Memory is an in-process Client. Accounts do not outlive the process.
type Memory struct {
	mu       sync.Mutex
	validate *validator.Validate
	accounts map[string]*memoryAccount
	profiles map[string]Profile
	resets   []string
	calls    int
	fail     error
}

func NewMemory() *Memory {
	return &Memory{
		validate: validator.New(),
		accounts: make(map[string]*memoryAccount),
		profiles: make(map[string]Profile),
	}
}

// FailNext makes the next call return err.
func (m *Memory) FailNext(err error) {
	m.mu.Lock()
	m.fail = err
	m.mu.Unlock()
}

func (m *Memory) enterLocked(ctx context.Context) error {
	m.calls++
	if err := ctx.Err(); err != nil {
		return &Error{Code: CodeNetwork, Err: err}
	}
	if err := m.fail; err != nil {
		m.fail = nil
		return err
	}
	return nil
}

func (m *Memory) checkEmail(email string) error {
	if m.validate.Var(email, "required,email") != nil {
		return &Error{Code: CodeInvalidEmail}
	}
	return nil
}

func (m *Memory) SignIn(ctx context.Context, email, password string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enterLocked(ctx); err != nil {
		return User{}, err
	}
	if err := m.checkEmail(email); err != nil {
		return User{}, err
	}
	acct, ok := m.accounts[strings.ToLower(email)]
	if !ok {
		return User{}, &Error{Code: CodeUserNotFound}
	}
	if bcrypt.CompareHashAndPassword(acct.hash, []byte(password)) != nil {
		return User{}, &Error{Code: CodeWrongPassword}
	}
	acct.user.IDToken = uuid.NewString()
	return acct.user, nil
}

func (m *Memory) CreateAccount(ctx context.Context, email, password string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enterLocked(ctx); err != nil {
		return User{}, err
	}
	if err := m.checkEmail(email); err != nil {
		return User{}, err
	}
	key := strings.ToLower(email)
	if _, ok := m.accounts[key]; ok {
		return User{}, &Error{Code: CodeEmailInUse}
	}
	if len(password) < MinPasswordLength {
		return User{}, &Error{Code: CodeWeakPassword}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return User{}, &Error{Code: CodeUnknown, Err: err}
	}
	u := User{ID: uuid.NewString(), Email: email, IDToken: uuid.NewString()}
	m.accounts[key] = &memoryAccount{user: u, hash: hash}
	return u, nil
}

func (m *Memory) SendPasswordReset(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enterLocked(ctx); err != nil {
		return err
	}
	if err := m.checkEmail(email); err != nil {
		return err
	}
	if _, ok := m.accounts[strings.ToLower(email)]; !ok {
		return &Error{Code: CodeUserNotFound}
	}
	m.resets = append(m.resets, email)
	return nil
}

func (m *Memory) WriteUserProfile(ctx context.Context, user User, p Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enterLocked(ctx); err != nil {
		return err
	}
	acct, ok := m.accounts[strings.ToLower(user.Email)]
	if !ok || acct.user.ID != user.ID || acct.user.IDToken != user.IDToken {
		return &Error{Code: CodeInvalidCredential}
	}
	m.profiles[user.ID] = p
	return nil
}

func (m *Memory) Profile(id string) (Profile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	return p, ok
}

func (m *Memory) Resets() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.resets...)
}

// Calls counts every request, including failed ones.
func (m *Memory) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

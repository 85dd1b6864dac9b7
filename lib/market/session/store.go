package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ValentinKolb/kvmarket/lib/market/codec"
	"github.com/ValentinKolb/kvmarket/lib/market/model"
	"github.com/ValentinKolb/kvmarket/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"golang.org/x/crypto/bcrypt"
)

// Keys used in the key-value store
const (
	KeyAccounts = "accounts" // the account registry
	KeySession  = "session"  // id of the active account
)

var log = logger.GetLogger("session")

// Store owns the account registry and the active session.
type Store struct {
	kv    store.IStore
	codec codec.ICodec

	// mu guards the read-modify-write of the registry
	mu sync.Mutex

	bcryptCost int
	now        func() time.Time
}

// Option configures a session store
type Option func(*Store)

// WithBcryptCost sets the bcrypt cost used for new password hashes
func WithBcryptCost(cost int) Option {
	return func(s *Store) {
		s.bcryptCost = cost
	}
}

// WithClock replaces time.Now, used for joinedDate
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a session store on top of kv
func New(kv store.IStore, c codec.ICodec, opts ...Option) *Store {
	s := &Store{
		kv:         kv,
		codec:      c,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// --------------------------------------------------------------------------
// Public API
// --------------------------------------------------------------------------

// Register creates a new account and makes it the active session.
func (s *Store) Register(email, password, username string) (model.Account, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)

	if username == "" {
		return model.Account{}, model.ErrEmptyUsername
	}
	if email == "" {
		return model.Account{}, model.Errorf(model.CodeInvalidInput, "email must not be empty")
	}
	if len(password) < model.MinPasswordLength {
		return model.Account{}, model.ErrWeakPassword
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.loadAccounts()
	if err != nil {
		return model.Account{}, err
	}
	if _, ok := findByEmail(accounts, email); ok {
		return model.Account{}, model.ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return model.Account{}, fmt.Errorf("hashing password: %w", err)
	}

	account := model.Account{
		ID:           model.NewID(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		JoinedDate:   s.now().UTC(),
	}
	if err := s.saveAccounts(append(accounts, account)); err != nil {
		return model.Account{}, err
	}
	if err := s.setActive(account.ID); err != nil {
		return model.Account{}, err
	}

	log.Infof("registered account %s (%s)", account.ID, account.Username)
	return account.Public(), nil
}

// Login makes the account matching email and password the active session.
func (s *Store) Login(email, password string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.loadAccounts()
	if err != nil {
		return model.Account{}, err
	}
	i, ok := findByEmail(accounts, strings.TrimSpace(email))
	if !ok {
		log.Debugf("login for unknown email")
		return model.Account{}, model.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(accounts[i].PasswordHash, []byte(password)); err != nil {
		log.Debugf("login for %s: wrong password", accounts[i].ID)
		return model.Account{}, model.ErrInvalidCredentials
	}
	if err := s.setActive(accounts[i].ID); err != nil {
		return model.Account{}, err
	}

	log.Infof("account %s logged in", accounts[i].ID)
	return accounts[i].Public(), nil
}

// Logout clears the active session. Logging out without a session is a no-op.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(KeySession); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// Current returns the active account. The boolean is false without a session.
func (s *Store) Current() (model.Account, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, accounts, err := s.active()
	if err != nil || i < 0 {
		return model.Account{}, false, err
	}
	return accounts[i].Public(), true, nil
}

// ActiveAccountID returns the id of the active account. The boolean is false without a session.
func (s *Store) ActiveAccountID() (string, bool, error) {
	account, ok, err := s.Current()
	return account.ID, ok, err
}

// UpdateProfile merges the non-nil fields of patch into the active account.
// Products keep the seller username they were listed with.
func (s *Store) UpdateProfile(patch model.ProfilePatch) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, accounts, err := s.active()
	if err != nil {
		return model.Account{}, err
	}
	if i < 0 {
		return model.Account{}, model.ErrNotAuthenticated
	}

	account := accounts[i]
	if patch.Username != nil {
		username := strings.TrimSpace(*patch.Username)
		if username == "" {
			return model.Account{}, model.ErrEmptyUsername
		}
		account.Username = username
	}
	if patch.FirstName != nil {
		account.FirstName = strings.TrimSpace(*patch.FirstName)
	}
	if patch.LastName != nil {
		account.LastName = strings.TrimSpace(*patch.LastName)
	}
	if patch.Phone != nil {
		account.Phone = strings.TrimSpace(*patch.Phone)
	}
	if patch.Address != nil {
		account.Address = strings.TrimSpace(*patch.Address)
	}

	accounts[i] = account
	if err := s.saveAccounts(accounts); err != nil {
		return model.Account{}, err
	}

	log.Debugf("updated profile of %s", account.ID)
	return account.Public(), nil
}

// Accounts lists all registered accounts in registration order
func (s *Store) Accounts() ([]model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.loadAccounts()
	if err != nil {
		return nil, err
	}
	public := make([]model.Account, len(accounts))
	for i, a := range accounts {
		public[i] = a.Public()
	}
	return public, nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// active returns the registry and the index of the active account in it (-1 without session).
// A session pointing to an unknown account counts as no session.
//
// Thread-safety: must be called with s.mu held.
func (s *Store) active() (int, []model.Account, error) {
	raw, ok, err := s.kv.Get(KeySession)
	if err != nil {
		return -1, nil, fmt.Errorf("reading session: %w", err)
	}
	if !ok {
		return -1, nil, nil
	}
	var id string
	if err := s.codec.Decode(raw, &id); err != nil {
		return -1, nil, fmt.Errorf("decoding session: %w", err)
	}

	accounts, err := s.loadAccounts()
	if err != nil {
		return -1, nil, err
	}
	for i := range accounts {
		if accounts[i].ID == id {
			return i, accounts, nil
		}
	}
	log.Warningf("session refers to unknown account %s", id)
	return -1, accounts, nil
}

func (s *Store) setActive(id string) error {
	raw, err := s.codec.Encode(id)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := s.kv.Set(KeySession, raw); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

func (s *Store) loadAccounts() ([]model.Account, error) {
	raw, ok, err := s.kv.Get(KeyAccounts)
	if err != nil {
		return nil, fmt.Errorf("reading accounts: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var accounts []model.Account
	if err := s.codec.Decode(raw, &accounts); err != nil {
		return nil, fmt.Errorf("decoding accounts: %w", err)
	}
	return accounts, nil
}

func (s *Store) saveAccounts(accounts []model.Account) error {
	raw, err := s.codec.Encode(accounts)
	if err != nil {
		return fmt.Errorf("encoding accounts: %w", err)
	}
	if err := s.kv.Set(KeyAccounts, raw); err != nil {
		return fmt.Errorf("writing accounts: %w", err)
	}
	return nil
}

func findByEmail(accounts []model.Account, email string) (int, bool) {
	for i := range accounts {
		if strings.EqualFold(accounts[i].Email, email) {
			return i, true
		}
	}
	return -1, false
}

package repo

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/tazhibayda/rental-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore keeps the same transactional contract as Store in process memory.
// A transaction holds a coarse lock for its whole duration and works on a staged copy
// that replaces the live data only on commit, so every transaction is serializable and
// an aborted one leaves no trace. Used by tests and local runs without MongoDB.
type MemoryStore struct {
	mu   sync.Mutex
	data memData

	// Fault, when set, is consulted before every transactional write. A non-nil result
	// fails that write. Tests use it to force a failure between inserts.
	Fault func(op string) error
}

type memData struct {
	users    map[primitive.ObjectID]domain.User
	settings map[primitive.ObjectID]domain.Settings
	images   map[primitive.ObjectID]domain.ProfileImage
	tokens   map[string]domain.EmailToken
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: memData{
		users:    map[primitive.ObjectID]domain.User{},
		settings: map[primitive.ObjectID]domain.Settings{},
		images:   map[primitive.ObjectID]domain.ProfileImage{},
		tokens:   map[string]domain.EmailToken{},
	}}
}

func (d memData) clone() memData {
	return memData{
		users:    maps.Clone(d.users),
		settings: maps.Clone(d.settings),
		images:   maps.Clone(d.images),
		tokens:   maps.Clone(d.tokens),
	}
}

func (m *MemoryStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memTx{data: m.data.clone(), fault: m.Fault}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	m.data = tx.data
	return nil
}

func (m *MemoryStore) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.userByEmail(email), nil
}

func (m *MemoryStore) FindUserByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.userByID(id), nil
}

func (m *MemoryStore) FindSettingsByUser(_ context.Context, userID primitive.ObjectID) (*domain.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range m.data.settings {
		if st.UserID == userID {
			return &st, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) FindProfileImageByUser(_ context.Context, userID primitive.ObjectID) (*domain.ProfileImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.data.images {
		if p.UserID == userID {
			p.ImageURLs = slices.Clone(p.ImageURLs)
			return &p, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) CreateEmailToken(_ context.Context, et domain.EmailToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data.tokens[et.Token]; ok {
		return ErrDuplicateKey
	}
	et.ID = primitive.NewObjectID()
	et.CreatedAt = time.Now().UTC()
	m.data.tokens[et.Token] = et
	return nil
}

func (m *MemoryStore) UseEmailToken(_ context.Context, token, purpose string) (*domain.EmailToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	et, ok := m.data.tokens[token]
	now := time.Now().UTC()
	if !ok || et.Purpose != purpose || et.UsedAt != nil || !et.ExpiresAt.After(now) {
		return nil, domain.ErrNotFound
	}
	et.UsedAt = &now
	m.data.tokens[token] = et
	return &et, nil
}

func (m *MemoryStore) SetVerified(_ context.Context, userID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.data.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.Verified = true
	u.UpdatedAt = time.Now().UTC()
	m.data.users[userID] = u
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

// Counts returns the number of users, settings and profile images currently committed.
func (m *MemoryStore) Counts() (users, settings, images int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data.users), len(m.data.settings), len(m.data.images)
}

func (d memData) userByEmail(email string) *domain.User {
	for _, u := range d.users {
		if u.Email == email {
			u.SocialMediaAccounts = slices.Clone(u.SocialMediaAccounts)
			return &u
		}
	}
	return nil
}

func (d memData) userByID(id primitive.ObjectID) *domain.User {
	u, ok := d.users[id]
	if !ok {
		return nil
	}
	u.SocialMediaAccounts = slices.Clone(u.SocialMediaAccounts)
	return &u
}

type memTx struct {
	data  memData
	fault func(op string) error
}

func (t *memTx) check(op string) error {
	if t.fault == nil {
		return nil
	}
	if err := t.fault(op); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (t *memTx) FindUserByEmail(email string) (*domain.User, error) {
	return t.data.userByEmail(email), nil
}

func (t *memTx) FindUserByID(id primitive.ObjectID) (*domain.User, error) {
	return t.data.userByID(id), nil
}

func (t *memTx) InsertUser(u *domain.User) error {
	if err := t.check("insert_user"); err != nil {
		return err
	}
	if t.data.userByEmail(u.Email) != nil {
		return fmt.Errorf("insert user: %w", ErrDuplicateKey)
	}
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.SocialMediaAccounts == nil {
		u.SocialMediaAccounts = []string{}
	}
	t.data.users[u.ID] = *u
	return nil
}

func (t *memTx) InsertSettings(st *domain.Settings) error {
	if err := t.check("insert_settings"); err != nil {
		return err
	}
	for _, existing := range t.data.settings {
		if existing.UserID == st.UserID {
			return fmt.Errorf("insert settings: %w", ErrDuplicateKey)
		}
	}
	now := time.Now().UTC()
	st.ID = primitive.NewObjectID()
	st.CreatedAt, st.UpdatedAt = now, now
	t.data.settings[st.ID] = *st
	return nil
}

func (t *memTx) InsertProfileImage(p *domain.ProfileImage) error {
	if err := t.check("insert_profile_image"); err != nil {
		return err
	}
	if _, ok := t.data.users[p.UserID]; !ok {
		return fmt.Errorf("insert profile image: %w", domain.ErrNotFound)
	}
	for _, existing := range t.data.images {
		if existing.UserID == p.UserID {
			return fmt.Errorf("insert profile image: %w", ErrDuplicateKey)
		}
	}
	p.ID = primitive.NewObjectID()
	if p.ImageURLs == nil {
		p.ImageURLs = []string{}
	}
	cp := *p
	cp.ImageURLs = slices.Clone(p.ImageURLs)
	t.data.images[p.ID] = cp
	return nil
}

func (t *memTx) LinkUserRefs(userID, settingsID, profileImageID primitive.ObjectID) error {
	if err := t.check("link_user_refs"); err != nil {
		return err
	}
	u, ok := t.data.users[userID]
	if !ok {
		return fmt.Errorf("link user refs: %w", domain.ErrNotFound)
	}
	u.SettingsID = &settingsID
	u.ProfileImageID = &profileImageID
	u.UpdatedAt = time.Now().UTC()
	t.data.users[userID] = u
	return nil
}

func (t *memTx) DeleteUserCascade(userID primitive.ObjectID) (bool, error) {
	if err := t.check("delete_user"); err != nil {
		return false, err
	}
	for id, p := range t.data.images {
		if p.UserID == userID {
			delete(t.data.images, id)
		}
	}
	for id, st := range t.data.settings {
		if st.UserID == userID {
			delete(t.data.settings, id)
		}
	}
	for k, et := range t.data.tokens {
		if et.UserID == userID {
			delete(t.data.tokens, k)
		}
	}
	if _, ok := t.data.users[userID]; !ok {
		return false, nil
	}
	delete(t.data.users, userID)
	return true, nil
}

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"stash/internal/database"
)

// In-memory store fakes shared by the service tests.

type fakeMeta struct {
	users     map[int64]*database.User
	files     map[int64]*database.File
	nextID    int64
	createErr error
}

func newFakeMeta() *fakeMeta {
	return &fakeMeta{
		users: make(map[int64]*database.User),
		files: make(map[int64]*database.File),
	}
}

func (m *fakeMeta) CreateUser(_ context.Context, u *database.User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return database.ErrEmailTaken
		}
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now()
	m.users[u.ID] = u
	return nil
}

func (m *fakeMeta) UserByEmail(_ context.Context, email string) (*database.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, database.ErrUserNotFound
}

func (m *fakeMeta) UserByID(_ context.Context, id int64) (*database.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, database.ErrUserNotFound
}

func (m *fakeMeta) CreateFile(_ context.Context, f *database.File) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	f.ID = m.nextID
	f.CreatedAt = time.Now()
	copied := *f
	m.files[f.ID] = &copied
	return nil
}

func (m *fakeMeta) FileByID(_ context.Context, id int64) (*database.File, error) {
	if f, ok := m.files[id]; ok {
		copied := *f
		return &copied, nil
	}
	return nil, database.ErrFileNotFound
}

func (m *fakeMeta) ListFiles(_ context.Context, userID, parentID int64, page int) ([]*database.File, error) {
	var all []*database.File
	for id := int64(1); id <= m.nextID; id++ {
		f, ok := m.files[id]
		if ok && f.UserID == userID && f.ParentID == parentID {
			all = append(all, f)
		}
	}
	start := page * database.PageSize
	if start >= len(all) {
		return nil, nil
	}
	end := start + database.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (m *fakeMeta) SetFilePublic(_ context.Context, id int64, public bool) error {
	f, ok := m.files[id]
	if !ok {
		return database.ErrFileNotFound
	}
	f.IsPublic = public
	return nil
}

type fakeSessions struct {
	tokens map[string]int64
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{tokens: make(map[string]int64)}
}

func (s *fakeSessions) Create(_ context.Context, userID int64, _ time.Duration) (string, error) {
	token := fmt.Sprintf("tok-%d-%d", userID, len(s.tokens))
	s.tokens[token] = userID
	return token, nil
}

func (s *fakeSessions) Resolve(_ context.Context, token string) (int64, bool, error) {
	id, ok := s.tokens[token]
	return id, ok, nil
}

func (s *fakeSessions) Revoke(_ context.Context, token string) error {
	delete(s.tokens, token)
	return nil
}

type fakeBlobs struct {
	data    map[string][]byte
	nextID  int
	saveErr error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{data: make(map[string][]byte)}
}

func (b *fakeBlobs) Save(data io.Reader) (string, error) {
	if b.saveErr != nil {
		return "", b.saveErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, data); err != nil {
		return "", err
	}
	b.nextID++
	path := fmt.Sprintf("/blobs/%d", b.nextID)
	b.data[path] = buf.Bytes()
	return path, nil
}

func (b *fakeBlobs) Exists(path string) bool {
	_, ok := b.data[path]
	return ok
}

func (b *fakeBlobs) Remove(path string) error {
	delete(b.data, path)
	return nil
}

func (b *fakeBlobs) VariantPath(path string, width int) string {
	return fmt.Sprintf("%s_%d", path, width)
}

type enqueued struct {
	fileID int64
	userID int64
}

type fakeTasks struct {
	thumbnails []enqueued
	welcomes   []int64
	failNext   bool
}

func (t *fakeTasks) EnqueueThumbnail(_ context.Context, fileID, userID int64) error {
	if t.failNext {
		t.failNext = false
		return errors.New("queue unavailable")
	}
	t.thumbnails = append(t.thumbnails, enqueued{fileID: fileID, userID: userID})
	return nil
}

func (t *fakeTasks) EnqueueWelcome(_ context.Context, userID int64) error {
	t.welcomes = append(t.welcomes, userID)
	return nil
}

package handler

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strconv"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/GoArmGo/PictureIt/internal/domain"
)

func rsaPair(t *testing.T) (privatePEM, publicPEM []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}),
		pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
}

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

type memoryImages struct {
	mu       sync.Mutex
	byRemote map[string]domain.Image
}

func newMemoryImages() *memoryImages {
	return &memoryImages{byRemote: map[string]domain.Image{}}
}

func (m *memoryImages) CreateImage(_ context.Context, image *domain.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byRemote[image.RemoteID]; ok {
		return domain.ErrDuplicate
	}
	image.ID = uuid.New()
	m.byRemote[image.RemoteID] = *image
	return nil
}

func (m *memoryImages) FindImage(_ context.Context, remoteID, ownerID string) (*domain.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.byRemote[remoteID]
	if !ok || img.OwnerID != ownerID {
		return nil, nil
	}
	return &img, nil
}

func (m *memoryImages) ListImagesByOwner(_ context.Context, ownerID string, _, _ int) ([]domain.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Image
	for _, img := range m.byRemote {
		if img.OwnerID == ownerID {
			out = append(out, img)
		}
	}
	return out, nil
}

func (m *memoryImages) UpdateImage(_ context.Context, remoteID, ownerID string, update domain.ImageUpdate) (*domain.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.byRemote[remoteID]
	if !ok || img.OwnerID != ownerID {
		return nil, nil
	}
	if update.ImageURL != nil {
		img.ImageURL = *update.ImageURL
	}
	if update.Location != nil {
		img.Location = *update.Location
	}
	if update.Description != nil {
		img.Description = *update.Description
	}
	m.byRemote[remoteID] = img
	return &img, nil
}

func (m *memoryImages) DeleteImage(_ context.Context, remoteID, ownerID string) (*domain.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.byRemote[remoteID]
	if !ok || img.OwnerID != ownerID {
		return nil, nil
	}
	delete(m.byRemote, remoteID)
	return &img, nil
}

// sequenceGateway выдаёт remote id по порядку начиная с next
type sequenceGateway struct {
	mu   sync.Mutex
	next int
	err  error
}

func (g *sequenceGateway) CreateImage(_ context.Context, _ domain.ImageContent) (*domain.RemoteImage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	id := strconv.Itoa(g.next)
	g.next++
	return &domain.RemoteImage{ID: id, URL: "https://img.local/" + id}, nil
}

func (g *sequenceGateway) ReplaceImage(_ context.Context, remoteID string, _ domain.ImageContent) (*domain.RemoteImage, error) {
	return &domain.RemoteImage{ID: remoteID}, g.err
}

func (g *sequenceGateway) PatchImage(_ context.Context, remoteID string, _ domain.ImagePatch) (*domain.RemoteImage, error) {
	return &domain.RemoteImage{ID: remoteID}, g.err
}

func (g *sequenceGateway) DeleteImage(_ context.Context, _ string) error {
	return g.err
}

func (g *sequenceGateway) FetchImage(_ context.Context, remoteID string) (*domain.RemoteImage, error) {
	return &domain.RemoteImage{ID: remoteID}, g.err
}

package usecase

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/GoArmGo/PictureIt/internal/domain"
	"github.com/GoArmGo/PictureIt/internal/messaging/payloads"
)

// memoryImages in-memory ports.ImageStorage с той же семантикой владельца, что и SQL
type memoryImages struct {
	mu        sync.Mutex
	byRemote  map[string]domain.Image
	createErr error
	updateErr error
	deleteErr error
	// vanish удаляет запись прямо перед локальным удалением (имитация гонки)
	vanish bool
}

func newMemoryImages() *memoryImages {
	return &memoryImages{byRemote: map[string]domain.Image{}}
}

func (m *memoryImages) seed(img domain.Image) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if img.ID == uuid.Nil {
		img.ID = uuid.New()
	}
	m.byRemote[img.RemoteID] = img
}

func (m *memoryImages) get(remoteID string) (domain.Image, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.byRemote[remoteID]
	return img, ok
}

func (m *memoryImages) CreateImage(_ context.Context, image *domain.Image) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byRemote[image.RemoteID]; exists {
		return domain.ErrDuplicate
	}
	if image.ID == uuid.Nil {
		image.ID = uuid.New()
	}
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
	if m.updateErr != nil {
		return nil, m.updateErr
	}
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
	if m.deleteErr != nil {
		return nil, m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vanish {
		delete(m.byRemote, remoteID)
	}
	img, ok := m.byRemote[remoteID]
	if !ok || img.OwnerID != ownerID {
		return nil, nil
	}
	delete(m.byRemote, remoteID)
	return &img, nil
}

// stubGateway записывает вызовы ports.ContentGateway
type stubGateway struct {
	mu       sync.Mutex
	nextID   string
	err      error
	block    bool
	calls    []string
	contents []domain.ImageContent
	patches  []domain.ImagePatch
}

func (g *stubGateway) record(call string) error {
	g.mu.Lock()
	g.calls = append(g.calls, call)
	g.mu.Unlock()
	return g.err
}

func (g *stubGateway) wait(ctx context.Context) error {
	if !g.block {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (g *stubGateway) CreateImage(ctx context.Context, content domain.ImageContent) (*domain.RemoteImage, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	g.contents = append(g.contents, content)
	if err := g.record("create"); err != nil {
		return nil, err
	}
	return &domain.RemoteImage{ID: g.nextID, URL: "https://img.local/" + g.nextID}, nil
}

func (g *stubGateway) ReplaceImage(ctx context.Context, remoteID string, content domain.ImageContent) (*domain.RemoteImage, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	g.contents = append(g.contents, content)
	if err := g.record("replace " + remoteID); err != nil {
		return nil, err
	}
	return &domain.RemoteImage{ID: remoteID}, nil
}

func (g *stubGateway) PatchImage(ctx context.Context, remoteID string, patch domain.ImagePatch) (*domain.RemoteImage, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	g.patches = append(g.patches, patch)
	if err := g.record("patch " + remoteID); err != nil {
		return nil, err
	}
	return &domain.RemoteImage{ID: remoteID}, nil
}

func (g *stubGateway) DeleteImage(ctx context.Context, remoteID string) error {
	if err := g.wait(ctx); err != nil {
		return err
	}
	return g.record("delete " + remoteID)
}

func (g *stubGateway) FetchImage(_ context.Context, remoteID string) (*domain.RemoteImage, error) {
	if err := g.record("fetch " + remoteID); err != nil {
		return nil, err
	}
	return &domain.RemoteImage{ID: remoteID}, nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	payloads []payloads.ImageDivergencePayload
}

func (p *recordingPublisher) PublishImageDivergence(_ context.Context, payload payloads.ImageDivergencePayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}

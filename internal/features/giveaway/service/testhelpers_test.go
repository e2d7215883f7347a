package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"discord-giveaway-bot/internal/features/giveaway/models"
	"discord-giveaway-bot/internal/features/giveaway/repository"
)

// fakeRepo is an in-memory GiveawayRepository. UpdateParticipants applies the
// mutation atomically under the store mutex, mirroring the CAS contract.
type fakeRepo struct {
	mu        sync.Mutex
	seq       int64
	byID      map[int64]*models.Giveaway
	getErr    error
	updateErr error
}

func newFakeRepo(giveaways ...*models.Giveaway) *fakeRepo {
	r := &fakeRepo{byID: make(map[int64]*models.Giveaway)}
	for _, g := range giveaways {
		r.byID[g.ID] = copyGiveaway(g)
		if g.ID > r.seq {
			r.seq = g.ID
		}
	}
	return r
}

func copyGiveaway(g *models.Giveaway) *models.Giveaway {
	dup := *g
	dup.Participants = append([]string(nil), g.Participants...)
	dup.ExtraFields = append([]models.ExtraField(nil), g.ExtraFields...)
	return &dup
}

func (r *fakeRepo) NextID(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq, nil
}

func (r *fakeRepo) Create(ctx context.Context, g *models.Giveaway) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[g.ID] = copyGiveaway(g)
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id int64) (*models.Giveaway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	g, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrGiveawayNotFound
	}
	return copyGiveaway(g), nil
}

func (r *fakeRepo) GetByMessageID(ctx context.Context, messageID string) (*models.Giveaway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.byID {
		if g.MessageID == messageID {
			return copyGiveaway(g), nil
		}
	}
	return nil, repository.ErrGiveawayNotFound
}

func (r *fakeRepo) GetExpired(ctx context.Context, now time.Time) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for _, g := range r.byID {
		if g.Status == models.GiveawayStatusActive && g.HasEnded(now) {
			ids = append(ids, g.ID)
		}
	}
	return ids, nil
}

func (r *fakeRepo) GetActive(ctx context.Context) ([]*models.Giveaway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Giveaway
	for _, g := range r.byID {
		if g.Status == models.GiveawayStatusActive {
			out = append(out, copyGiveaway(g))
		}
	}
	return out, nil
}

func (r *fakeRepo) GetActiveByGuild(ctx context.Context, guildID string) ([]*models.Giveaway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Giveaway
	for _, g := range r.byID {
		if g.Status == models.GiveawayStatusActive && g.GuildID == guildID {
			out = append(out, copyGiveaway(g))
		}
	}
	return out, nil
}

func (r *fakeRepo) Update(ctx context.Context, g *models.Giveaway) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.byID[g.ID]; !ok {
		return repository.ErrGiveawayNotFound
	}
	r.byID[g.ID] = copyGiveaway(g)
	return nil
}

func (r *fakeRepo) UpdateParticipants(ctx context.Context, id int64, mutate func(g *models.Giveaway) error) (*models.Giveaway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	g, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrGiveawayNotFound
	}
	dup := copyGiveaway(g)
	if err := mutate(dup); err != nil {
		return nil, err
	}
	dup.UpdatedAt = time.Now()
	r.byID[id] = dup
	return copyGiveaway(dup), nil
}

func (r *fakeRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return repository.ErrGiveawayNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *fakeRepo) get(id int64) (*models.Giveaway, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return copyGiveaway(g), true
}

// fakeLocks is an in-memory LockRepository. Keys in held simulate a lease
// another worker currently owns.
type fakeLocks struct {
	mu       sync.Mutex
	held     map[string]string
	acquired []string
	released []string
}

func newFakeLocks() *fakeLocks {
	return &fakeLocks{held: make(map[string]string)}
}

func (l *fakeLocks) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, taken := l.held[key]; taken {
		return "", repository.ErrAlreadyLocked
	}
	token := fmt.Sprintf("token-%d", len(l.acquired))
	l.held[key] = token
	l.acquired = append(l.acquired, key)
	return token, nil
}

func (l *fakeLocks) Release(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] != token {
		return nil
	}
	delete(l.held, key)
	l.released = append(l.released, key)
	return nil
}

func (l *fakeLocks) Clear(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

func (l *fakeLocks) hold(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held[key] = "foreign"
}

// fakeArchive is an in-memory ArchiveRepository.
type fakeArchive struct {
	mu      sync.Mutex
	byMsg   map[string]*models.RerollArchive
	saveErr error
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{byMsg: make(map[string]*models.RerollArchive)}
}

func (a *fakeArchive) Save(ctx context.Context, arch *models.RerollArchive) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.saveErr != nil {
		return a.saveErr
	}
	dup := *arch
	dup.Participants = append([]string(nil), arch.Participants...)
	dup.PrevWinners = append([]string(nil), arch.PrevWinners...)
	a.byMsg[arch.MessageID] = &dup
	return nil
}

func (a *fakeArchive) GetByMessageID(ctx context.Context, messageID string) (*models.RerollArchive, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	arch, ok := a.byMsg[messageID]
	if !ok {
		return nil, repository.ErrArchiveNotFound
	}
	dup := *arch
	dup.Participants = append([]string(nil), arch.Participants...)
	dup.PrevWinners = append([]string(nil), arch.PrevWinners...)
	return &dup, nil
}

type announcementUpdate struct {
	ChannelID string
	MessageID string
	Content   models.Announcement
}

// fakeAnnouncer records publishes and updates and serves canned rendered
// winners.
type fakeAnnouncer struct {
	mu          sync.Mutex
	published   []models.Announcement
	updates     []announcementUpdate
	rendered    []string
	nextMsgID   string
	publishErr  error
	updateErr   error
	renderedErr error
}

func newFakeAnnouncer() *fakeAnnouncer {
	return &fakeAnnouncer{nextMsgID: "msg-1"}
}

func (f *fakeAnnouncer) Publish(ctx context.Context, channelID string, a models.Announcement) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return "", f.publishErr
	}
	f.published = append(f.published, a)
	return f.nextMsgID, nil
}

func (f *fakeAnnouncer) Update(ctx context.Context, channelID, messageID string, a models.Announcement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, announcementUpdate{ChannelID: channelID, MessageID: messageID, Content: a})
	return nil
}

func (f *fakeAnnouncer) RenderedWinners(ctx context.Context, channelID, messageID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.renderedErr != nil {
		return nil, f.renderedErr
	}
	return append([]string(nil), f.rendered...), nil
}

func (f *fakeAnnouncer) lastUpdate() (announcementUpdate, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.updates) == 0 {
		return announcementUpdate{}, false
	}
	return f.updates[len(f.updates)-1], true
}

func (f *fakeAnnouncer) setRendered(ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rendered = ids
}

type notification struct {
	ChannelID string
	Content   string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
	err  error
}

func (f *fakeNotifier) Notify(ctx context.Context, channelID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, notification{ChannelID: channelID, Content: content})
	return nil
}

type accessGrant struct {
	ChannelID string
	UserID    string
}

type fakeAccess struct {
	mu     sync.Mutex
	grants []accessGrant
}

func (f *fakeAccess) GrantChannelAccess(ctx context.Context, channelID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.grants = append(f.grants, accessGrant{ChannelID: channelID, UserID: userID})
	return nil
}

type fakeTracker struct {
	mu      sync.Mutex
	tracked []int64
}

func (f *fakeTracker) Track(g *models.Giveaway) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tracked = append(f.tracked, g.ID)
}

func participantIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("user-%d", i+1)
	}
	return ids
}

func activeGiveaway(id int64, kind models.GiveawayKind, endsAt time.Time, participants []string) *models.Giveaway {
	return &models.Giveaway{
		ID:           id,
		GuildID:      "guild-1",
		ChannelID:    "channel-1",
		MessageID:    fmt.Sprintf("msg-%d", id),
		Kind:         kind,
		Title:        "Test giveaway",
		CreatedBy:    "host-1",
		EndsAt:       endsAt,
		Participants: append([]string(nil), participants...),
		WinnerCount:  2,
		Status:       models.GiveawayStatusActive,
		CreatedAt:    time.Now().Add(-time.Hour),
		UpdatedAt:    time.Now().Add(-time.Hour),
	}
}

package service

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/models"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/repository"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// fakeTxState - «транзакция» в контексте. После коммита запись через
// такой контекст невозможна, как и через закрытый *sqlx.Tx.
type fakeTxState struct {
	hooks     []func(context.Context)
	committed bool
}

type fakeTxKey struct{}

// txDone сообщает, что ctx несёт уже зафиксированную транзакцию.
func txDone(ctx context.Context) bool {
	st, ok := ctx.Value(fakeTxKey{}).(*fakeTxState)
	return ok && st.committed
}

// fakeTx выполняет fn сразу и запускает отложенные хуки после внешнего «коммита».
type fakeTx struct {
	commits   int
	rollbacks int
}

func (f *fakeTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(fakeTxKey{}).(*fakeTxState); ok {
		return fn(ctx)
	}

	st := &fakeTxState{}
	if err := fn(context.WithValue(ctx, fakeTxKey{}, st)); err != nil {
		f.rollbacks++
		return err
	}
	st.committed = true
	f.commits++
	for _, h := range st.hooks {
		h(ctx)
	}
	return nil
}

func (f *fakeTx) AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	if st, ok := ctx.Value(fakeTxKey{}).(*fakeTxState); ok && !st.committed {
		st.hooks = append(st.hooks, fn)
		return
	}
	fn(ctx)
}

type sentNotification struct {
	UserID  uuid.UUID
	Title   string
	Message string
	URL     string
}

type staleDeletion struct {
	UserID uuid.UUID
	Title  string
	URL    string
}

// recordingNotifier запоминает уведомления.
type recordingNotifier struct {
	mu      sync.Mutex
	sent    []sentNotification
	deleted []staleDeletion
	err     error
}

func (n *recordingNotifier) Notify(ctx context.Context, userID uuid.UUID, title, message, url string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	if txDone(ctx) {
		return sql.ErrTxDone
	}
	n.sent = append(n.sent, sentNotification{UserID: userID, Title: title, Message: message, URL: url})
	return nil
}

func (n *recordingNotifier) DeleteStale(ctx context.Context, userID uuid.UUID, title, url string) (int64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deleted = append(n.deleted, staleDeletion{UserID: userID, Title: title, URL: url})
	return 1, nil
}

func (n *recordingNotifier) to(userID uuid.UUID) []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentNotification
	for _, s := range n.sent {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

func (n *recordingNotifier) titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.Title)
	}
	return out
}

type sentMail struct {
	Subject    string
	Recipients []string
	Body       string
}

type recordingMailer struct {
	sent []sentMail
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, subject string, recipients []string, body string) error {
	if m.err != nil {
		return m.err
	}
	if txDone(ctx) {
		return sql.ErrTxDone
	}
	m.sent = append(m.sent, sentMail{Subject: subject, Recipients: recipients, Body: body})
	return nil
}

type recordingActivity struct {
	entries []ActivityEntry
}

func (r *recordingActivity) Log(ctx context.Context, entry ActivityEntry) {
	r.entries = append(r.entries, entry)
}

func (r *recordingActivity) types() []string {
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Type)
	}
	return out
}

// memUsers - пользователи в памяти.
type memUsers struct {
	byID map[uuid.UUID]*models.User
}

func newMemUsers(users ...*models.User) *memUsers {
	m := &memUsers{byID: make(map[uuid.UUID]*models.User)}
	for _, u := range users {
		m.byID[u.ID] = u
	}
	return m
}

func (m *memUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func newUser(name string) *models.User {
	return &models.User{
		ID:       uuid.New(),
		Email:    name + "@g.bracu.ac.bd",
		Username: name,
		Role:     models.RoleUser,
		IsActive: true,
	}
}

// memListings - объявления в памяти, повторяет поведение ListingRepository.
type memListings struct {
	items map[uuid.UUID]*models.Listing
}

func newMemListings(listings ...*models.Listing) *memListings {
	m := &memListings{items: make(map[uuid.UUID]*models.Listing)}
	for _, l := range listings {
		m.put(l)
	}
	return m
}

func (m *memListings) put(l *models.Listing) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	cp := *l
	m.items[l.ID] = &cp
}

func (m *memListings) sorted(match func(*models.Listing) bool) []models.Listing {
	var out []models.Listing
	for _, l := range m.items {
		if match(l) {
			out = append(out, *l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (m *memListings) Create(ctx context.Context, l *models.Listing) error {
	l.ID = uuid.New()
	l.UpdatedAt = l.CreatedAt
	m.put(l)
	return nil
}

func (m *memListings) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	l, ok := m.items[id]
	if !ok {
		return nil, repository.ErrListingNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memListings) Update(ctx context.Context, l *models.Listing, now time.Time) error {
	if _, ok := m.items[l.ID]; !ok {
		return repository.ErrListingNotFound
	}
	cp := *l
	cp.UpdatedAt = now
	m.items[l.ID] = &cp
	return nil
}

func (m *memListings) UpdateStatus(ctx context.Context, id uuid.UUID, status string, previous *string, now time.Time) error {
	l, ok := m.items[id]
	if !ok {
		return repository.ErrListingNotFound
	}
	l.Status = status
	l.PreviousStatus = previous
	l.UpdatedAt = now
	return nil
}

func (m *memListings) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return repository.ErrListingNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memListings) ListRecentByStatus(ctx context.Context, status string, limit int) ([]models.Listing, error) {
	out := m.sorted(func(l *models.Listing) bool { return l.Status == status })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memListings) Search(ctx context.Context, status string, filter models.ListingFilter, limit int) ([]models.Listing, error) {
	name := strings.ToLower(filter.ItemName)
	out := m.sorted(func(l *models.Listing) bool {
		return l.Status == status && strings.Contains(strings.ToLower(l.Name), name)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memListings) ListPendingByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Listing, error) {
	return m.sorted(func(l *models.Listing) bool { return l.IsOwnedBy(ownerID) && l.IsPending() }), nil
}

func (m *memListings) FindLostTwin(ctx context.Context, ownerID uuid.UUID, name, description string) (*models.Listing, error) {
	for _, l := range m.sorted(func(l *models.Listing) bool { return true }) {
		if l.IsOwnedBy(ownerID) && l.Status == models.ListingStatusLost && l.Name == name && l.Description == description {
			cp := l
			return &cp, nil
		}
	}
	return nil, repository.ErrListingNotFound
}

func (m *memListings) MoveExpiredToWarehouse(ctx context.Context, now time.Time) ([]models.Listing, error) {
	var moved []models.Listing
	for _, l := range m.items {
		if l.IsPending() && !l.WarehouseDeadline.After(now) {
			previous := l.Status
			l.PreviousStatus = &previous
			l.Status = models.ListingStatusWarehouse
			l.UpdatedAt = now
			moved = append(moved, *l)
		}
	}
	return moved, nil
}

func (m *memListings) ListDueBefore(ctx context.Context, before time.Time) ([]models.Listing, error) {
	due := m.sorted(func(l *models.Listing) bool {
		return l.IsPending() && !l.WarehouseDeadline.After(before)
	})
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].WarehouseDeadline.Before(due[j].WarehouseDeadline)
	})
	return due, nil
}

func (m *memListings) CountCreatedBy(ctx context.Context, ownerID uuid.UUID) (int, error) {
	n := 0
	for _, l := range m.items {
		if l.IsOwnedBy(ownerID) {
			n++
		}
	}
	return n, nil
}

func newListing(owner *models.User, status, name, description string, createdAt time.Time) *models.Listing {
	var ownerID *uuid.UUID
	if owner != nil {
		id := owner.ID
		ownerID = &id
	}
	return &models.Listing{
		ID:                uuid.New(),
		OwnerID:           ownerID,
		Name:              name,
		Description:       description,
		Status:            status,
		CreatedAt:         createdAt,
		UpdatedAt:         createdAt,
		WarehouseDeadline: models.WarehouseDeadlineFor(createdAt),
	}
}

// memPoints - баллы, значки и возвраты в памяти.
type memPoints struct {
	points  map[uuid.UUID]*models.UserPoints
	badges  map[uuid.UUID][]models.Badge
	returns []models.ItemReturn
	failOn  string
}

func newMemPoints() *memPoints {
	return &memPoints{
		points: make(map[uuid.UUID]*models.UserPoints),
		badges: make(map[uuid.UUID][]models.Badge),
	}
}

func (m *memPoints) AddPoints(ctx context.Context, userID uuid.UUID, points int, now time.Time) (*models.UserPoints, error) {
	up, ok := m.points[userID]
	if !ok {
		up = &models.UserPoints{UserID: userID}
		m.points[userID] = up
	}
	up.ReturnPoints += points
	up.TotalPoints += points
	up.UpdatedAt = now
	cp := *up
	return &cp, nil
}

func (m *memPoints) Get(ctx context.Context, userID uuid.UUID) (*models.UserPoints, error) {
	up, ok := m.points[userID]
	if !ok {
		return &models.UserPoints{UserID: userID}, nil
	}
	cp := *up
	return &cp, nil
}

func (m *memPoints) ListBadges(ctx context.Context, userID uuid.UUID) ([]models.Badge, error) {
	return append([]models.Badge(nil), m.badges[userID]...), nil
}

func (m *memPoints) CreateBadge(ctx context.Context, b *models.Badge) (bool, error) {
	for _, existing := range m.badges[b.UserID] {
		if existing.BadgeType == b.BadgeType {
			return false, nil
		}
	}
	b.ID = uuid.New()
	m.badges[b.UserID] = append(m.badges[b.UserID], *b)
	return true, nil
}

func (m *memPoints) CreateReturn(ctx context.Context, ir *models.ItemReturn) error {
	if m.failOn == "return" {
		return errFake
	}
	ir.ID = uuid.New()
	m.returns = append(m.returns, *ir)
	return nil
}

func (m *memPoints) ListReturns(ctx context.Context, userID uuid.UUID, limit int) ([]models.ItemReturn, error) {
	var out []models.ItemReturn
	for _, r := range m.returns {
		if r.OwnerID == userID || (r.FinderID != nil && *r.FinderID == userID) {
			out = append(out, r)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeError string

func (e fakeError) Error() string { return string(e) }

const errFake = fakeError("storage unavailable")

package services

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"gatherly/internal/domain"
)

// In-memory fakes shared by the service tests. They keep insertion order so
// pagination is deterministic, and guard state with a mutex so the
// concurrency tests can hammer them from multiple goroutines.

type fakeEventRepo struct {
	mu     sync.Mutex
	events []*domain.Event
	err    error // if set, every call returns this error
}

func newFakeEventRepo() *fakeEventRepo { return &fakeEventRepo{} }

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	cp := *e
	f.events = append(f.events, &cp)
	return nil
}

func (f *fakeEventRepo) Update(ctx context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i, got := range f.events {
		if got.ID == e.ID {
			cp := *e
			f.events[i] = &cp
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, e := range f.events {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.events {
		if e.ID == id {
			f.events = append(f.events[:i], f.events[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeEventRepo) List(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, 0, f.err
	}
	var matched []*domain.Event
	for _, e := range f.events {
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		if filter.OrganizerID != nil && e.OrganizerID != *filter.OrganizerID {
			continue
		}
		if filter.CategoryID != nil && e.CategoryID != *filter.CategoryID {
			continue
		}
		if filter.TitleContains != "" && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(filter.TitleContains)) {
			continue
		}
		cp := *e
		matched = append(matched, &cp)
	}
	return paginate(matched, params), len(matched), nil
}

type fakeRegistrationRepo struct {
	mu   sync.Mutex
	regs []*domain.EventRegistration
	err  error
}

func newFakeRegistrationRepo() *fakeRegistrationRepo { return &fakeRegistrationRepo{} }

func (f *fakeRegistrationRepo) Create(ctx context.Context, r *domain.EventRegistration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	cp := copyRegistration(r)
	f.regs = append(f.regs, cp)
	return nil
}

func (f *fakeRegistrationRepo) Update(ctx context.Context, r *domain.EventRegistration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i, got := range f.regs {
		if got.ID == r.ID {
			f.regs[i] = copyRegistration(r)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeRegistrationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.EventRegistration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.regs {
		if r.ID == id {
			return copyRegistration(r), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRegistrationRepo) ListByEventID(ctx context.Context, eventID uuid.UUID, filter domain.RegistrationFilter, params domain.PaginationParams) ([]*domain.EventRegistration, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, 0, f.err
	}
	var matched []*domain.EventRegistration
	for _, r := range f.regs {
		if r.EventID != eventID {
			continue
		}
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		if filter.Source != nil && r.Source != *filter.Source {
			continue
		}
		matched = append(matched, copyRegistration(r))
	}
	return paginate(matched, params), len(matched), nil
}

func (f *fakeRegistrationRepo) GetActiveByRegistrant(ctx context.Context, eventID uuid.UUID, registrant domain.RegistrantIdentity) (*domain.EventRegistration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.regs {
		if r.EventID == eventID && r.Status != domain.RegistrationCancelled && r.Registrant.Key() == registrant.Key() {
			return copyRegistration(r), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRegistrationRepo) CountActiveByEvent(ctx context.Context, eventID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	seats := 0
	for _, r := range f.regs {
		if r.EventID == eventID && r.Status.HoldsSeat() {
			seats += 1 + r.GuestCount
		}
	}
	return seats, nil
}

func (f *fakeRegistrationRepo) ListWaitlistByEvent(ctx context.Context, eventID uuid.UUID) ([]*domain.EventRegistration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.EventRegistration
	for _, r := range f.regs {
		if r.EventID == eventID && r.Status == domain.RegistrationWaitlisted {
			out = append(out, copyRegistration(r))
		}
	}
	return out, nil
}

func (f *fakeRegistrationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.regs {
		if r.ID == id {
			f.regs = append(f.regs[:i], f.regs[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func copyRegistration(r *domain.EventRegistration) *domain.EventRegistration {
	cp := *r
	if r.WaitlistPosition != nil {
		pos := *r.WaitlistPosition
		cp.WaitlistPosition = &pos
	}
	return &cp
}

type fakeInvitationRepo struct {
	mu   sync.Mutex
	invs []*domain.EventInvitation
	err  error
}

func newFakeInvitationRepo() *fakeInvitationRepo { return &fakeInvitationRepo{} }

func (f *fakeInvitationRepo) Create(ctx context.Context, inv *domain.EventInvitation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	cp := *inv
	f.invs = append(f.invs, &cp)
	return nil
}

func (f *fakeInvitationRepo) Update(ctx context.Context, inv *domain.EventInvitation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i, got := range f.invs {
		if got.ID == inv.ID {
			cp := *inv
			f.invs[i] = &cp
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeInvitationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.EventInvitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, inv := range f.invs {
		if inv.ID == id {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeInvitationRepo) GetByToken(ctx context.Context, token string) (*domain.EventInvitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, inv := range f.invs {
		if inv.Token == token {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeInvitationRepo) ListByEventID(ctx context.Context, eventID uuid.UUID, params domain.PaginationParams) ([]*domain.EventInvitation, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, 0, f.err
	}
	var matched []*domain.EventInvitation
	for _, inv := range f.invs {
		if inv.EventID == eventID {
			cp := *inv
			matched = append(matched, &cp)
		}
	}
	return paginate(matched, params), len(matched), nil
}

func (f *fakeInvitationRepo) ExistsForUser(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	for _, inv := range f.invs {
		if inv.EventID == eventID && inv.Target.Kind == domain.IdentityUser && inv.Target.UserID != nil && *inv.Target.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeInvitationRepo) ExistsForContact(ctx context.Context, eventID, contactID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	for _, inv := range f.invs {
		if inv.EventID == eventID && inv.Target.Kind == domain.IdentityContact && inv.Target.ContactID != nil && *inv.Target.ContactID == contactID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeInvitationRepo) ExistsForEmail(ctx context.Context, eventID uuid.UUID, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, inv := range f.invs {
		if inv.EventID == eventID && inv.Target.Kind == domain.IdentityManual && inv.Target.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeInvitationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, inv := range f.invs {
		if inv.ID == id {
			f.invs = append(f.invs[:i], f.invs[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users []*domain.User
	err   error
}

func newFakeUserRepo() *fakeUserRepo { return &fakeUserRepo{} }

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, got := range f.users {
		if got.Email == u.Email {
			return domain.ErrStorageIntegrity
		}
	}
	cp := *u
	f.users = append(f.users, &cp)
	return nil
}

func (f *fakeUserRepo) Update(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i, got := range f.users {
		if got.ID == u.ID {
			cp := *u
			f.users[i] = &cp
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByExternalAuthID(ctx context.Context, externalAuthID string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ExternalAuthID == externalAuthID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) List(ctx context.Context, params domain.PaginationParams) ([]*domain.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []*domain.User
	for _, u := range f.users {
		cp := *u
		all = append(all, &cp)
	}
	return paginate(all, params), len(all), nil
}

type fakeContactRepo struct {
	mu       sync.Mutex
	contacts []*domain.ExternalContact
}

func newFakeContactRepo() *fakeContactRepo { return &fakeContactRepo{} }

func (f *fakeContactRepo) Create(ctx context.Context, c *domain.ExternalContact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.contacts = append(f.contacts, &cp)
	return nil
}

func (f *fakeContactRepo) Update(ctx context.Context, c *domain.ExternalContact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, got := range f.contacts {
		if got.ID == c.ID {
			cp := *c
			f.contacts[i] = &cp
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeContactRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ExternalContact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.contacts {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeContactRepo) GetByEmail(ctx context.Context, email string) (*domain.ExternalContact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.contacts {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeContactRepo) ListByCreator(ctx context.Context, createdBy uuid.UUID, params domain.PaginationParams) ([]*domain.ExternalContact, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []*domain.ExternalContact
	for _, c := range f.contacts {
		if c.CreatedBy == createdBy {
			cp := *c
			matched = append(matched, &cp)
		}
	}
	return paginate(matched, params), len(matched), nil
}

type fakeCategoryRepo struct {
	mu         sync.Mutex
	categories []*domain.EventCategory
}

func newFakeCategoryRepo(categories ...*domain.EventCategory) *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: categories}
}

func (f *fakeCategoryRepo) Create(ctx context.Context, c *domain.EventCategory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, got := range f.categories {
		if got.ID == c.ID {
			return domain.ErrStorageIntegrity
		}
	}
	cp := *c
	f.categories = append(f.categories, &cp)
	return nil
}

func (f *fakeCategoryRepo) Update(ctx context.Context, c *domain.EventCategory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, got := range f.categories {
		if got.ID == c.ID {
			cp := *c
			f.categories[i] = &cp
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeCategoryRepo) GetByID(ctx context.Context, id string) (*domain.EventCategory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeCategoryRepo) List(ctx context.Context, activeOnly bool) ([]*domain.EventCategory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.EventCategory
	for _, c := range f.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

// fakeTxManager runs fn directly; the fakes have no transactions to roll
// back, so tests assert on final state only.
type fakeTxManager struct{}

func (fakeTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeEmailService records sends and can be told to fail.
type fakeEmailService struct {
	mu            sync.Mutex
	invitations   []*domain.InvitationEmailData
	cancellations []*domain.CancellationNoticeEmailData
	err           error
}

func newFakeEmailService() *fakeEmailService { return &fakeEmailService{} }

func (f *fakeEmailService) SendInvitation(ctx context.Context, data *domain.InvitationEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.invitations = append(f.invitations, data)
	return nil
}

func (f *fakeEmailService) SendCancellationNotice(ctx context.Context, data *domain.CancellationNoticeEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.cancellations = append(f.cancellations, data)
	return nil
}

func paginate[T any](items []T, params domain.PaginationParams) []T {
	params = params.Normalize()
	start := params.Offset()
	if start >= len(items) {
		return nil
	}
	end := start + params.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

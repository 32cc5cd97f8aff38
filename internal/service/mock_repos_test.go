package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/jlayese/translator-service-application/internal/model"
	"github.com/jlayese/translator-service-application/internal/repository"
)

// ── 内存存储 ──
// 所有 mock 仓储共享同一个 memStore，单条操作在锁内完成，
// 与数据库单行条件更新的原子性一致

type memStore struct {
	mu sync.Mutex

	users       map[string]*model.User
	profiles    map[string]*model.Profile
	translators map[string]*model.TranslatorProfile
	languages   map[string]*model.Language
	requests    map[string]*model.TranslationRequest
	assignments map[string]*model.TranslationAssignment

	// 按创建顺序记录的 ID，模拟 ORDER BY created_at
	requestOrder    []string
	assignmentOrder []string
	seq             int
	clock           time.Time
}

func newMemStore() *memStore {
	s := &memStore{
		users:       make(map[string]*model.User),
		profiles:    make(map[string]*model.Profile),
		translators: make(map[string]*model.TranslatorProfile),
		languages:   make(map[string]*model.Language),
		requests:    make(map[string]*model.TranslationRequest),
		assignments: make(map[string]*model.TranslationAssignment),
		clock:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, l := range []struct{ code, name string }{
		{"en", "English"}, {"ja", "Japanese"}, {"es", "Spanish"}, {"zh", "Chinese"},
	} {
		s.languages["lang-"+l.code] = &model.Language{LanguageID: "lang-" + l.code, Code: l.code, Name: l.name}
	}
	return s
}

// nextID 调用方需持有锁
func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%03d", prefix, s.seq)
}

// tick 单调递增的创建时间；调用方需持有锁
func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

type storeSnapshot struct {
	requests    map[string]model.TranslationRequest
	assignments map[string]model.TranslationAssignment
}

func (s *memStore) snapshot() storeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := storeSnapshot{
		requests:    make(map[string]model.TranslationRequest, len(s.requests)),
		assignments: make(map[string]model.TranslationAssignment, len(s.assignments)),
	}
	for id, r := range s.requests {
		snap.requests[id] = *r
	}
	for id, a := range s.assignments {
		snap.assignments[id] = *a
	}
	return snap
}

func (s *memStore) restore(snap storeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range snap.requests {
		r := r
		s.requests[id] = &r
	}
	for id, a := range snap.assignments {
		a := a
		s.assignments[id] = &a
	}
}

// ── 构造 ──

func newMockRepository() (*repository.Repository, *memStore) {
	store := newMemStore()
	repo := &repository.Repository{
		User:       &mockUserRepo{s: store},
		Profile:    &mockProfileRepo{s: store},
		Translator: &mockTranslatorRepo{s: store},
		Language:   &mockLanguageRepo{s: store},
		Request:    &mockRequestRepo{s: store},
		Assignment: &mockAssignmentRepo{s: store},
	}
	repo.Tx = &mockTransactor{s: store, repo: repo}
	return repo, store
}

// mockTransactor 事务串行执行，fn 出错时恢复需求与申请的快照
type mockTransactor struct {
	mu   sync.Mutex
	s    *memStore
	repo *repository.Repository
}

func (t *mockTransactor) WithinTx(_ context.Context, fn func(tx *repository.Repository) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.s.snapshot()
	if err := fn(t.repo); err != nil {
		t.s.restore(snap)
		return err
	}
	return nil
}

// ── 交错与故障注入 ──

// hookTranslatorRepo 首次资格校验返回后执行 hook，模拟并发操作插入到 Apply 中间
type hookTranslatorRepo struct {
	repository.TranslatorRepository
	once sync.Once
	hook func()
}

func (h *hookTranslatorRepo) IsEligible(ctx context.Context, profileID, sourceID, targetID string) (bool, error) {
	ok, err := h.TranslatorRepository.IsEligible(ctx, profileID, sourceID, targetID)
	h.once.Do(h.hook)
	return ok, err
}

// stallingAssignmentRepo 条件更新遵守 ctx；对 stallID 阻塞到 ctx 结束
type stallingAssignmentRepo struct {
	repository.AssignmentRepository
	stallID string
}

func (r *stallingAssignmentRepo) CompareAndSwapStatus(ctx context.Context, id string, from, to model.AssignmentStatus, at time.Time) (bool, error) {
	if id == r.stallID {
		<-ctx.Done()
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return r.AssignmentRepository.CompareAndSwapStatus(ctx, id, from, to, at)
}

// ── 测试数据 ──

func (s *memStore) addClient(name string) Actor {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID := s.nextID("user")
	profileID := s.nextID("client")
	s.users[userID] = &model.User{UserID: userID, Email: strings.ToLower(name) + "@example.com"}
	s.profiles[profileID] = &model.Profile{ProfileID: profileID, UserID: userID, FullName: name, UserType: model.UserTypeClient}
	return Actor{UserID: userID, ProfileID: profileID, UserType: model.UserTypeClient}
}

// addTranslator pairs 形如 "en>ja"
func (s *memStore) addTranslator(name string, available bool, rate *float64, pairs ...string) Actor {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID := s.nextID("user")
	profileID := s.nextID("translator")
	s.users[userID] = &model.User{UserID: userID, Email: strings.ToLower(name) + "@example.com"}
	s.profiles[profileID] = &model.Profile{ProfileID: profileID, UserID: userID, FullName: name, UserType: model.UserTypeTranslator}

	tp := &model.TranslatorProfile{ProfileID: profileID, IsAvailable: available, HourlyRate: rate}
	for _, p := range pairs {
		codes := strings.SplitN(p, ">", 2)
		tp.LanguagePairs = append(tp.LanguagePairs, model.TranslatorLanguagePair{
			PairID:           s.nextID("pair"),
			TranslatorID:     profileID,
			SourceLanguageID: "lang-" + codes[0],
			TargetLanguageID: "lang-" + codes[1],
		})
	}
	s.translators[profileID] = tp
	return Actor{UserID: userID, ProfileID: profileID, UserType: model.UserTypeTranslator}
}

func (s *memStore) setAvailable(profileID string, available bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.translators[profileID].IsAvailable = available
}

func (s *memStore) request(id string) model.TranslationRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.requests[id]
}

func (s *memStore) assignment(id string) model.TranslationAssignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.assignments[id]
}

func (s *memStore) assignmentsOf(requestID string) []model.TranslationAssignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []model.TranslationAssignment
	for _, id := range s.assignmentOrder {
		if a := s.assignments[id]; a.RequestID == requestID {
			list = append(list, *a)
		}
	}
	return list
}

// ── 关联加载（调用方需持有锁）──

func (s *memStore) loadRequest(r *model.TranslationRequest) model.TranslationRequest {
	out := *r
	if p, ok := s.profiles[r.ClientID]; ok {
		cp := *p
		out.Client = &cp
	}
	if l, ok := s.languages[r.SourceLanguageID]; ok {
		cp := *l
		out.SourceLanguage = &cp
	}
	if l, ok := s.languages[r.TargetLanguageID]; ok {
		cp := *l
		out.TargetLanguage = &cp
	}
	return out
}

func (s *memStore) loadAssignment(a *model.TranslationAssignment) model.TranslationAssignment {
	out := *a
	if r, ok := s.requests[a.RequestID]; ok {
		req := s.loadRequest(r)
		out.Request = &req
	}
	if p, ok := s.profiles[a.TranslatorID]; ok {
		cp := *p
		out.Translator = &cp
	}
	return out
}

func (s *memStore) loadTranslator(tp *model.TranslatorProfile) model.TranslatorProfile {
	out := *tp
	out.LanguagePairs = make([]model.TranslatorLanguagePair, 0, len(tp.LanguagePairs))
	for _, p := range tp.LanguagePairs {
		if l, ok := s.languages[p.SourceLanguageID]; ok {
			cp := *l
			p.SourceLanguage = &cp
		}
		if l, ok := s.languages[p.TargetLanguageID]; ok {
			cp := *l
			p.TargetLanguage = &cp
		}
		out.LanguagePairs = append(out.LanguagePairs, p)
	}
	if p, ok := s.profiles[tp.ProfileID]; ok {
		cp := *p
		out.Profile = &cp
	}
	return out
}

func page[T any](list []T, offset, limit int) []T {
	if limit <= 0 {
		return list
	}
	if offset > len(list) {
		return nil
	}
	end := offset + limit
	if end > len(list) {
		end = len(list)
	}
	return list[offset:end]
}

// ════════════════════════════════════════════
// mockUserRepo
// ════════════════════════════════════════════

type mockUserRepo struct{ s *memStore }

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, u := range m.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return &pgconn.PgError{Code: "23505", ConstraintName: "uq_users_email"}
		}
	}
	if user.UserID == "" {
		user.UserID = m.s.nextID("user")
	}
	user.CreatedAt = m.s.tick()
	cp := *user
	m.s.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.withProfile(u), nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, u := range m.s.users {
		if strings.EqualFold(u.Email, email) {
			return m.withProfile(u), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) withProfile(u *model.User) *model.User {
	out := *u
	for _, p := range m.s.profiles {
		if p.UserID == u.UserID {
			cp := *p
			out.Profile = &cp
		}
	}
	return &out
}

// ════════════════════════════════════════════
// mockProfileRepo
// ════════════════════════════════════════════

type mockProfileRepo struct{ s *memStore }

func (m *mockProfileRepo) Create(_ context.Context, profile *model.Profile) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if profile.ProfileID == "" {
		profile.ProfileID = m.s.nextID("profile")
	}
	profile.CreatedAt = m.s.tick()
	cp := *profile
	m.s.profiles[profile.ProfileID] = &cp
	return nil
}

func (m *mockProfileRepo) GetByID(_ context.Context, id string) (*model.Profile, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if p, ok := m.s.profiles[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProfileRepo) GetByUserID(_ context.Context, userID string) (*model.Profile, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, p := range m.s.profiles {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProfileRepo) Update(_ context.Context, profile *model.Profile) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.profiles[profile.ProfileID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.FullName = profile.FullName
	p.AvatarURL = profile.AvatarURL
	return nil
}

// ════════════════════════════════════════════
// mockTranslatorRepo
// ════════════════════════════════════════════

type mockTranslatorRepo struct{ s *memStore }

func (m *mockTranslatorRepo) Create(_ context.Context, tp *model.TranslatorProfile) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *tp
	cp.LanguagePairs = nil
	m.s.translators[tp.ProfileID] = &cp
	return nil
}

func (m *mockTranslatorRepo) GetCapability(_ context.Context, profileID string) (*model.TranslatorProfile, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	tp, ok := m.s.translators[profileID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := m.s.loadTranslator(tp)
	return &out, nil
}

func (m *mockTranslatorRepo) Update(_ context.Context, tp *model.TranslatorProfile) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cur, ok := m.s.translators[tp.ProfileID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cur.Bio = tp.Bio
	cur.HourlyRate = tp.HourlyRate
	cur.IsAvailable = tp.IsAvailable
	return nil
}

func (m *mockTranslatorRepo) ReplaceLanguagePairs(_ context.Context, profileID string, pairs []model.TranslatorLanguagePair) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	tp, ok := m.s.translators[profileID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	tp.LanguagePairs = make([]model.TranslatorLanguagePair, 0, len(pairs))
	for _, p := range pairs {
		p.PairID = m.s.nextID("pair")
		p.TranslatorID = profileID
		tp.LanguagePairs = append(tp.LanguagePairs, p)
	}
	return nil
}

func (m *mockTranslatorRepo) ListEligible(_ context.Context, sourceID, targetID string) ([]repository.EligibleTranslator, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	ids := make([]string, 0, len(m.s.translators))
	for id := range m.s.translators {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var result []repository.EligibleTranslator
	for _, id := range ids {
		tp := m.s.translators[id]
		if !tp.IsAvailable || !tp.Supports(sourceID, targetID) {
			continue
		}
		row := repository.EligibleTranslator{TranslatorID: id, Bio: tp.Bio, HourlyRate: tp.HourlyRate}
		if p, ok := m.s.profiles[id]; ok {
			row.FullName = p.FullName
			row.AvatarURL = p.AvatarURL
		}
		result = append(result, row)
	}
	return result, nil
}

func (m *mockTranslatorRepo) IsEligible(_ context.Context, profileID, sourceID, targetID string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	tp, ok := m.s.translators[profileID]
	return ok && tp.IsAvailable && tp.Supports(sourceID, targetID), nil
}

// ════════════════════════════════════════════
// mockLanguageRepo
// ════════════════════════════════════════════

type mockLanguageRepo struct {
	s         *memStore
	listCalls int
}

func (m *mockLanguageRepo) List(_ context.Context) ([]model.Language, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.listCalls++
	var list []model.Language
	for _, l := range m.s.languages {
		list = append(list, *l)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (m *mockLanguageRepo) GetByID(_ context.Context, id string) (*model.Language, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if l, ok := m.s.languages[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLanguageRepo) GetByCode(_ context.Context, code string) (*model.Language, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, l := range m.s.languages {
		if l.Code == code {
			cp := *l
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ════════════════════════════════════════════
// mockRequestRepo
// ════════════════════════════════════════════

type mockRequestRepo struct{ s *memStore }

func (m *mockRequestRepo) Create(_ context.Context, req *model.TranslationRequest) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if req.RequestID == "" {
		req.RequestID = m.s.nextID("req")
	}
	now := m.s.tick()
	req.CreatedAt, req.UpdatedAt, req.Version = now, now, 1
	cp := *req
	m.s.requests[req.RequestID] = &cp
	m.s.requestOrder = append(m.s.requestOrder, req.RequestID)
	return nil
}

func (m *mockRequestRepo) GetByID(_ context.Context, id string) (*model.TranslationRequest, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := m.s.loadRequest(r)
	return &out, nil
}

// LockShared 事务已由 mockTransactor 串行化，等价于持锁读取
func (m *mockRequestRepo) LockShared(ctx context.Context, id string) (*model.TranslationRequest, error) {
	return m.GetByID(ctx, id)
}

func (m *mockRequestRepo) CompareAndSwapStatus(_ context.Context, id string, from, to model.RequestStatus, at time.Time) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.requests[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	r.UpdatedAt = at
	r.Version++
	return true, nil
}

func (m *mockRequestRepo) ListByClient(_ context.Context, clientID string, status model.RequestStatus, offset, limit int) ([]model.TranslationRequest, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var list []model.TranslationRequest
	for i := len(m.s.requestOrder) - 1; i >= 0; i-- {
		r := m.s.requests[m.s.requestOrder[i]]
		if r.ClientID != clientID || (status != "" && r.Status != status) {
			continue
		}
		list = append(list, m.s.loadRequest(r))
	}
	return page(list, offset, limit), int64(len(list)), nil
}

func (m *mockRequestRepo) ListOpen(_ context.Context, f repository.OpenRequestFilter) ([]model.TranslationRequest, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var list []model.TranslationRequest
	for i := len(m.s.requestOrder) - 1; i >= 0; i-- {
		r := m.s.requests[m.s.requestOrder[i]]
		switch {
		case r.Status != model.RequestStatusPending,
			f.RequestType != "" && string(r.RequestType) != f.RequestType,
			f.SourceLanguageID != "" && r.SourceLanguageID != f.SourceLanguageID,
			f.TargetLanguageID != "" && r.TargetLanguageID != f.TargetLanguageID:
			continue
		}
		if f.EligibleFor != "" {
			tp, ok := m.s.translators[f.EligibleFor]
			if !ok || !tp.Supports(r.SourceLanguageID, r.TargetLanguageID) {
				continue
			}
		}
		list = append(list, m.s.loadRequest(r))
	}
	return page(list, f.Offset, f.Limit), int64(len(list)), nil
}

// ════════════════════════════════════════════
// mockAssignmentRepo
// ════════════════════════════════════════════

type mockAssignmentRepo struct{ s *memStore }

func (m *mockAssignmentRepo) Create(_ context.Context, a *model.TranslationAssignment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	// 对应 uq_assignment_active 部分唯一索引
	for _, cur := range m.s.assignments {
		if cur.RequestID == a.RequestID && cur.TranslatorID == a.TranslatorID && cur.Status.BlocksReapply() {
			return &pgconn.PgError{Code: "23505", ConstraintName: "uq_assignment_active"}
		}
	}
	if a.AssignmentID == "" {
		a.AssignmentID = m.s.nextID("asg")
	}
	now := m.s.tick()
	a.CreatedAt, a.UpdatedAt, a.Version = now, now, 1
	cp := *a
	m.s.assignments[a.AssignmentID] = &cp
	m.s.assignmentOrder = append(m.s.assignmentOrder, a.AssignmentID)
	return nil
}

func (m *mockAssignmentRepo) GetByID(_ context.Context, id string) (*model.TranslationAssignment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	a, ok := m.s.assignments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := m.s.loadAssignment(a)
	return &out, nil
}

func (m *mockAssignmentRepo) FindActive(_ context.Context, requestID, translatorID string) (*model.TranslationAssignment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, id := range m.s.assignmentOrder {
		a := m.s.assignments[id]
		if a.RequestID == requestID && a.TranslatorID == translatorID && a.Status.BlocksReapply() {
			cp := *a
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAssignmentRepo) CompareAndSwapStatus(_ context.Context, id string, from, to model.AssignmentStatus, at time.Time) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	a, ok := m.s.assignments[id]
	if !ok || a.Status != from {
		return false, nil
	}
	a.Status = to
	a.UpdatedAt = at
	a.Version++
	switch to {
	case model.AssignmentStatusAccepted:
		a.AcceptedAt = &at
	case model.AssignmentStatusCompleted:
		a.CompletedAt = &at
	}
	return true, nil
}

func (m *mockAssignmentRepo) updateWhere(match func(a *model.TranslationAssignment) bool, to model.AssignmentStatus, at time.Time) int64 {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for _, a := range m.s.assignments {
		if match(a) {
			a.Status = to
			a.UpdatedAt = at
			a.Version++
			n++
		}
	}
	return n
}

func (m *mockAssignmentRepo) RejectPendingSiblings(_ context.Context, requestID, exceptID string, at time.Time) (int64, error) {
	return m.updateWhere(func(a *model.TranslationAssignment) bool {
		return a.RequestID == requestID && a.AssignmentID != exceptID && a.Status == model.AssignmentStatusPending
	}, model.AssignmentStatusRejected, at), nil
}

func (m *mockAssignmentRepo) CancelByRequest(_ context.Context, requestID string, from model.AssignmentStatus, at time.Time) (int64, error) {
	return m.updateWhere(func(a *model.TranslationAssignment) bool {
		return a.RequestID == requestID && a.Status == from
	}, model.AssignmentStatusCancelled, at), nil
}

func (m *mockAssignmentRepo) SaveRating(_ context.Context, id string, role model.UserType, rating int, review *string, at time.Time) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	a, ok := m.s.assignments[id]
	if !ok || a.Status != model.AssignmentStatusAccepted {
		return false, nil
	}
	r := rating
	if role == model.UserTypeTranslator {
		a.TranslatorRating, a.TranslatorReview = &r, review
	} else {
		a.ClientRating, a.ClientReview = &r, review
	}
	if a.FirstRatedAt == nil {
		a.FirstRatedAt = &at
	}
	a.UpdatedAt = at
	a.Version++
	return true, nil
}

func (m *mockAssignmentRepo) ListByRequest(_ context.Context, requestID string) ([]model.TranslationAssignment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var list []model.TranslationAssignment
	for _, id := range m.s.assignmentOrder {
		if a := m.s.assignments[id]; a.RequestID == requestID {
			list = append(list, m.s.loadAssignment(a))
		}
	}
	return list, nil
}

func (m *mockAssignmentRepo) ListByTranslator(_ context.Context, translatorID string, statuses []model.AssignmentStatus, offset, limit int) ([]model.TranslationAssignment, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	allowed := func(st model.AssignmentStatus) bool {
		if len(statuses) == 0 {
			return true
		}
		for _, s := range statuses {
			if s == st {
				return true
			}
		}
		return false
	}
	var list []model.TranslationAssignment
	for i := len(m.s.assignmentOrder) - 1; i >= 0; i-- {
		a := m.s.assignments[m.s.assignmentOrder[i]]
		if a.TranslatorID == translatorID && allowed(a.Status) {
			list = append(list, m.s.loadAssignment(a))
		}
	}
	return page(list, offset, limit), int64(len(list)), nil
}

func (m *mockAssignmentRepo) ListOverdue(_ context.Context, cutoff time.Time, limit int) ([]model.TranslationAssignment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var list []model.TranslationAssignment
	for _, id := range m.s.assignmentOrder {
		a := m.s.assignments[id]
		if a.Status == model.AssignmentStatusAccepted && a.FirstRatedAt != nil && !a.FirstRatedAt.After(cutoff) {
			list = append(list, m.s.loadAssignment(a))
		}
	}
	return page(list, 0, limit), nil
}

func (m *mockAssignmentRepo) CountByRequests(_ context.Context, requestIDs []string) (map[string]int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	counts := make(map[string]int, len(requestIDs))
	for _, id := range requestIDs {
		for _, a := range m.s.assignments {
			if a.RequestID == id {
				counts[id]++
			}
		}
	}
	return counts, nil
}

func (m *mockAssignmentRepo) TranslatorRatingStats(_ context.Context, translatorIDs []string) (map[string]repository.RatingStats, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stats := make(map[string]repository.RatingStats, len(translatorIDs))
	for _, id := range translatorIDs {
		var ratings []int
		for _, a := range m.s.assignments {
			if a.TranslatorID == id && a.Status == model.AssignmentStatusCompleted && a.ClientRating != nil {
				ratings = append(ratings, *a.ClientRating)
			}
		}
		if len(ratings) > 0 {
			stats[id] = averageOf(ratings)
		}
	}
	return stats, nil
}

func (m *mockAssignmentRepo) ClientRatingStats(_ context.Context, clientID string) (repository.RatingStats, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var ratings []int
	for _, a := range m.s.assignments {
		r, ok := m.s.requests[a.RequestID]
		if ok && r.ClientID == clientID && a.Status == model.AssignmentStatusCompleted && a.TranslatorRating != nil {
			ratings = append(ratings, *a.TranslatorRating)
		}
	}
	return averageOf(ratings), nil
}

func averageOf(ratings []int) repository.RatingStats {
	if len(ratings) == 0 {
		return repository.RatingStats{}
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	avg := float64(sum) / float64(len(ratings))
	return repository.RatingStats{Average: &avg, Count: int64(len(ratings))}
}

// ════════════════════════════════════════════
// Redis 替身
// ════════════════════════════════════════════

type mockBlacklist struct {
	mu   sync.Mutex
	jtis map[string]time.Duration
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{jtis: make(map[string]time.Duration)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jtis[jti] = ttl
	return nil
}

func (m *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.jtis[jti]
	return ok, nil
}

var errCacheMiss = errors.New("cache miss")

type mockCache struct {
	data map[string][]byte
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) GetCache(_ context.Context, key string) ([]byte, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errCacheMiss
}

func (m *mockCache) SetCache(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.data[key] = value
	return nil
}

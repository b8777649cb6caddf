package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/fightclub-brackets/models"
	"github.com/Dosada05/fightclub-brackets/repositories"
	"github.com/Dosada05/fightclub-brackets/storage"
)

var refDate = time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)

type fakeFighterRepo struct {
	mu        sync.Mutex
	fighters  map[int]*models.Fighter
	nextID    int
	createErr error
}

func newFakeFighterRepo(fighters ...*models.Fighter) *fakeFighterRepo {
	r := &fakeFighterRepo{fighters: make(map[int]*models.Fighter), nextID: 1000}
	for _, f := range fighters {
		r.fighters[f.ID] = f
	}
	return r
}

func (r *fakeFighterRepo) GetAll(ctx context.Context) ([]*models.Fighter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Fighter, 0, len(r.fighters))
	for _, f := range r.fighters {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeFighterRepo) GetByIDs(ctx context.Context, ids []int) ([]*models.Fighter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Fighter, 0, len(ids))
	for _, id := range ids {
		if f, ok := r.fighters[id]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFighterRepo) Create(ctx context.Context, f *models.Fighter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	f.ID = r.nextID
	f.CreatedAt = refDate
	r.fighters[f.ID] = f
	return nil
}

type fakeClubRepo struct {
	clubs []*models.Club
}

func (r *fakeClubRepo) GetAll(ctx context.Context) ([]*models.Club, error) {
	out := make([]*models.Club, len(r.clubs))
	copy(out, r.clubs)
	return out, nil
}

type fakeCompetitionRepo struct {
	mu           sync.Mutex
	competitions map[int]*models.Competition
	updateErr    error
	updates      int
}

func newFakeCompetitionRepo(competitions ...*models.Competition) *fakeCompetitionRepo {
	r := &fakeCompetitionRepo{competitions: make(map[int]*models.Competition)}
	for _, c := range competitions {
		r.competitions[c.ID] = c
	}
	return r
}

func (r *fakeCompetitionRepo) GetByID(ctx context.Context, id int) (*models.Competition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.competitions[id]
	if !ok {
		return nil, repositories.ErrCompetitionNotFound
	}
	cp := *c
	cp.Registrations = append([]models.Registration(nil), c.Registrations...)
	return &cp, nil
}

func (r *fakeCompetitionRepo) ListByStatus(ctx context.Context, status models.CompetitionStatus) ([]*models.Competition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Competition, 0)
	for _, c := range r.competitions {
		if c.Status == status {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCompetitionRepo) Update(ctx context.Context, id int, patch models.CompetitionPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	c, ok := r.competitions[id]
	if !ok {
		return repositories.ErrCompetitionNotFound
	}
	r.updates++
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Status != nil {
		c.Status = *patch.Status
	}
	if patch.Registrations != nil {
		c.Registrations = append([]models.Registration(nil), patch.Registrations...)
	}
	return nil
}

type fakeBracketRepo struct {
	mu        sync.Mutex
	brackets  map[int]*models.Bracket
	matches   map[int][]models.Match
	nextID    int
	createErr error
	// panicOn makes Create panic for that division.
	panicOn string
}

func newFakeBracketRepo() *fakeBracketRepo {
	return &fakeBracketRepo{brackets: make(map[int]*models.Bracket), matches: make(map[int][]models.Match)}
}

func (r *fakeBracketRepo) Create(ctx context.Context, competitionID int, b *models.Bracket, matches []models.Match) (*models.Bracket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insert(competitionID, 0, b, matches)
}

// Replace mirrors the transactional repository: the old bracket is removed
// only when the new one is stored.
func (r *fakeBracketRepo) Replace(ctx context.Context, competitionID, bracketID int, b *models.Bracket, matches []models.Match) (*models.Bracket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.brackets[bracketID]
	if !ok || old.CompetitionID != competitionID {
		return nil, repositories.ErrBracketNotFound
	}
	stored, err := r.insert(competitionID, bracketID, b, matches)
	if err != nil {
		return nil, err
	}
	delete(r.brackets, bracketID)
	delete(r.matches, bracketID)
	return stored, nil
}

// insert stores b. replacing is the id of a bracket about to be removed and is
// ignored by the division check.
func (r *fakeBracketRepo) insert(competitionID, replacing int, b *models.Bracket, matches []models.Match) (*models.Bracket, error) {
	if r.panicOn != "" && b.Division == r.panicOn {
		panic("storage exploded")
	}
	if r.createErr != nil {
		return nil, r.createErr
	}
	for id, existing := range r.brackets {
		if id != replacing && existing.CompetitionID == competitionID && existing.Division == b.Division {
			return nil, repositories.ErrBracketDivisionConflict
		}
	}
	r.nextID++
	stored := *b
	stored.ID = r.nextID
	stored.CompetitionID = competitionID
	stored.CreatedAt = refDate
	stored.Matches = make([]models.Match, len(matches))
	for i, m := range matches {
		m.BracketID = stored.ID
		stored.Matches[i] = m
	}
	r.brackets[stored.ID] = &stored
	r.matches[stored.ID] = stored.Matches
	out := stored
	return &out, nil
}

func (r *fakeBracketRepo) ListByCompetition(ctx context.Context, competitionID int) ([]*models.Bracket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Bracket, 0)
	for _, b := range r.brackets {
		if b.CompetitionID == competitionID {
			cp := *b
			cp.Matches = nil
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeBracketRepo) GetMatches(ctx context.Context, competitionID, bracketID int) ([]models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.brackets[bracketID]
	if !ok || b.CompetitionID != competitionID {
		return nil, repositories.ErrBracketNotFound
	}
	return append([]models.Match{}, r.matches[bracketID]...), nil
}

func (r *fakeBracketRepo) Delete(ctx context.Context, competitionID, bracketID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.brackets[bracketID]
	if !ok || b.CompetitionID != competitionID {
		return repositories.ErrBracketNotFound
	}
	delete(r.brackets, bracketID)
	delete(r.matches, bracketID)
	return nil
}

func (r *fakeBracketRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.brackets)
}

type recordedEvent struct {
	Room    string
	Message interface{}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *recordingNotifier) BroadcastToRoom(roomID string, message interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{Room: roomID, Message: message})
}

type memoryUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (u *memoryUploader) keys() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	keys := make([]string, 0, len(u.objects))
	for k := range u.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (u *memoryUploader) Upload(ctx context.Context, key, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	if u.err != nil {
		return nil, u.err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.objects == nil {
		u.objects = make(map[string][]byte)
	}
	u.objects[key] = buf.Bytes()
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *memoryUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	return nil
}

func (u *memoryUploader) GetPublicURL(key string) string {
	return storage.PublicURL("https://reports.example.com", key)
}

var errStorageDown = errors.New("storage down")

// fighterAt builds a fighter aged years on refDate.
func fighterAt(id int, years int, weight float64, gender models.Gender, discipline string, clubID int) *models.Fighter {
	return &models.Fighter{
		ID:         id,
		FirstName:  "F",
		LastName:   string(rune('A' + id%26)),
		BirthDate:  refDate.AddDate(-years, -1, 0),
		Discipline: discipline,
		WeightKg:   weight,
		Gender:     gender,
		ClubID:     clubID,
	}
}

func competitionWith(id int, fighters ...*models.Fighter) *models.Competition {
	regs := make([]models.Registration, len(fighters))
	for i, f := range fighters {
		regs[i] = models.Registration{FighterID: f.ID}
	}
	return &models.Competition{
		ID:            id,
		Name:          "Spring Cup",
		Date:          refDate,
		Status:        models.CompetitionClosed,
		Registrations: regs,
	}
}

func baseConfig() SynthesisConfig {
	return SynthesisConfig{
		MinFightersPerBracket: 4,
		AutoBackfillFighters:  true,
		BackfillStrategy:      BackfillClubDistributed,
		PreferredBracketSizes: []int{4, 8, 16},
		DeterministicSeed:     "test-seed",
	}
}

type synthesisFixture struct {
	fighters     *fakeFighterRepo
	clubs        *fakeClubRepo
	competitions *fakeCompetitionRepo
	brackets     *fakeBracketRepo
	notifier     *recordingNotifier
	uploader     *memoryUploader
	service      SynthesisService
}

func newSynthesisFixture(clubs []*models.Club, competitions []*models.Competition, fighters ...*models.Fighter) *synthesisFixture {
	fx := &synthesisFixture{
		fighters:     newFakeFighterRepo(fighters...),
		clubs:        &fakeClubRepo{clubs: clubs},
		competitions: newFakeCompetitionRepo(competitions...),
		brackets:     newFakeBracketRepo(),
		notifier:     &recordingNotifier{},
		uploader:     &memoryUploader{},
	}
	fx.service = NewSynthesisService(
		fx.fighters, fx.clubs, fx.competitions, fx.brackets,
		NewFighterFactory(fx.fighters), fx.notifier, NewReportArchiver(fx.uploader), nil, 2,
	)
	return fx
}

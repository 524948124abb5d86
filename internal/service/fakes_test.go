package service

import (
	"context"
	"time"

	"mastery/internal/apperr"
	"mastery/internal/model"
	"mastery/internal/signedurl"
)

// fakeRegistry is an in-memory RegistryRepository for service tests.
type fakeRegistry struct {
	assets   map[string]*model.AssetRef
	owners   map[string]*model.Course // publicID -> owning course
	units    map[string]*model.Unit
	lectures map[string]*model.Lecture
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		assets:   map[string]*model.AssetRef{},
		owners:   map[string]*model.Course{},
		units:    map[string]*model.Unit{},
		lectures: map[string]*model.Lecture{},
	}
}

func (f *fakeRegistry) CreateAsset(ctx context.Context, a *model.AssetRef) error {
	cp := *a
	f.assets[a.PublicID] = &cp
	return nil
}

func (f *fakeRegistry) GetAsset(ctx context.Context, publicID string) (*model.AssetRef, error) {
	a, ok := f.assets[publicID]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (f *fakeRegistry) MarkAssetReady(ctx context.Context, publicID, version string) error {
	if a, ok := f.assets[publicID]; ok {
		a.Version = version
		a.Status = model.AssetStatusReady
	}
	return nil
}

func (f *fakeRegistry) MarkAssetFailed(ctx context.Context, publicID string) error {
	if a, ok := f.assets[publicID]; ok {
		a.Status = model.AssetStatusFailed
	}
	return nil
}

func (f *fakeRegistry) AddUnit(ctx context.Context, u *model.Unit) error {
	if u.UnitID == "" {
		u.UnitID = "unit-" + u.Title
	}
	cp := *u
	f.units[u.UnitID] = &cp
	return nil
}

func (f *fakeRegistry) GetUnitByID(ctx context.Context, unitID string) (*model.Unit, error) {
	u, ok := f.units[unitID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeRegistry) AddLecture(ctx context.Context, l *model.Lecture) error {
	if l.LectureID == "" {
		l.LectureID = "lecture-" + l.Title
	}
	cp := *l
	f.lectures[l.LectureID] = &cp
	return nil
}

func (f *fakeRegistry) GetLectureByID(ctx context.Context, lectureID string) (*model.Lecture, error) {
	l, ok := f.lectures[lectureID]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (f *fakeRegistry) GetUnitsWithContent(ctx context.Context, courseID string) ([]model.Unit, error) {
	var units []model.Unit
	for _, u := range f.units {
		if u.CourseID == courseID {
			units = append(units, *u)
		}
	}
	return units, nil
}

func (f *fakeRegistry) FindOwnerByPublicID(ctx context.Context, publicID string) (*model.Course, error) {
	c, ok := f.owners[publicID]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeRegistry) CurrentVersion(ctx context.Context, publicID string) (*string, error) {
	a, ok := f.assets[publicID]
	if !ok || a.Status != model.AssetStatusReady {
		return nil, nil
	}
	v := a.Version
	return &v, nil
}

func (f *fakeRegistry) ListCourseAssets(ctx context.Context, courseID string) ([]model.AssetRef, error) {
	var assets []model.AssetRef
	for id, c := range f.owners {
		if c.CourseID == courseID {
			if a, ok := f.assets[id]; ok {
				assets = append(assets, *a)
			}
		}
	}
	return assets, nil
}

// fakeCourseRepo is an in-memory CourseRepository.
type fakeCourseRepo struct {
	courses map[string]*model.Course
}

func newFakeCourseRepo() *fakeCourseRepo {
	return &fakeCourseRepo{courses: map[string]*model.Course{}}
}

func (f *fakeCourseRepo) CreateCourse(ctx context.Context, c *model.Course) error {
	if c.CourseID == "" {
		c.CourseID = "course-" + c.Title
	}
	cp := *c
	f.courses[c.CourseID] = &cp
	return nil
}

func (f *fakeCourseRepo) GetCourseByID(ctx context.Context, courseID string) (*model.Course, error) {
	c, ok := f.courses[courseID]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCourseRepo) ListCourses(ctx context.Context, search, category string, limit, offset int) ([]model.Course, int, error) {
	var out []model.Course
	for _, c := range f.courses {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (f *fakeCourseRepo) UpdateCourse(ctx context.Context, c *model.Course) error {
	cp := *c
	f.courses[c.CourseID] = &cp
	return nil
}

func (f *fakeCourseRepo) DeleteCourse(ctx context.Context, courseID string) error {
	delete(f.courses, courseID)
	return nil
}

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	users map[string]*model.User // by id
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, u *model.User) error {
	if u.UserID == "" {
		u.UserID = "user-" + u.Username
	}
	cp := *u
	f.users[u.UserID] = &cp
	return nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	for _, u := range f.users {
		if u.Email == email || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) SetRefreshToken(ctx context.Context, userID string, token *string) error {
	u, ok := f.users[userID]
	if !ok {
		return apperr.New(apperr.NotFound, "user not found")
	}
	if token == nil {
		u.RefreshToken = nil
		return nil
	}
	t := *token
	u.RefreshToken = &t
	return nil
}

// fakeMediaStore records calls and serves canned versions.
type fakeMediaStore struct {
	versions map[string]string
	headErr  error
	presigns int
	deleted  []string
}

func newFakeMediaStore() *fakeMediaStore {
	return &fakeMediaStore{versions: map[string]string{}}
}

func (f *fakeMediaStore) CurrentVersion(ctx context.Context, publicID, kind string) (string, error) {
	if f.headErr != nil {
		return "", f.headErr
	}
	v, ok := f.versions[publicID]
	if !ok {
		return "", apperr.New(apperr.AssetNotFound, "object not found")
	}
	return v, nil
}

func (f *fakeMediaStore) PresignUpload(ctx context.Context, publicID, kind, version string, ttl time.Duration) (string, error) {
	f.presigns++
	return "https://bucket.example.com/upload/" + publicID + "?v=" + version, nil
}

func (f *fakeMediaStore) Delete(ctx context.Context, publicID, kind string) error {
	f.deleted = append(f.deleted, publicID)
	return nil
}

// fakeKeyStore is an in-memory keyStore.
type fakeKeyStore struct {
	keys   map[string]string
	getErr error
}

func newFakeKeyStore() *fakeKeyStore {
	return &fakeKeyStore{keys: map[string]string{}}
}

func (f *fakeKeyStore) Put(ctx context.Context, publicID, keyHex string) error {
	f.keys[publicID] = keyHex
	return nil
}

func (f *fakeKeyStore) Get(ctx context.Context, publicID string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	return f.keys[publicID], nil
}

func (f *fakeKeyStore) Delete(ctx context.Context, publicID string) error {
	delete(f.keys, publicID)
	return nil
}

// fakeMinter stands in for the signed-URL engine.
type fakeMinter struct {
	lastRef signedurl.AssetRef
	lastKey []byte
	err     error
}

func (f *fakeMinter) MintPlaybackURL(ctx context.Context, ref signedurl.AssetRef, ttl time.Duration, encKey []byte) (*signedurl.SignedURL, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastRef = ref
	f.lastKey = encKey
	return &signedurl.SignedURL{
		URL:       "https://media.example.com/" + ref.Kind + "/" + ref.PublicID,
		Encrypted: len(encKey) > 0,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

// fakePublisher captures published events.
type fakePublisher struct {
	topics   []string
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(ctx context.Context, topic string, payload []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
	return "msg-1", nil
}

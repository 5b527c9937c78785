package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"ai-receipt/internal/gemini"
	"ai-receipt/internal/models"
	"ai-receipt/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memState is the shared data behind fakeStore.
type memState struct {
	users    map[uuid.UUID]*models.User
	images   map[int64]*models.ImageAsset
	receipts map[int64]*models.Receipt
	nextID   int64
	clock    time.Time

	createErr error
}

func (st *memState) id() int64 {
	st.nextID++
	return st.nextID
}

func (st *memState) tick() time.Time {
	st.clock = st.clock.Add(time.Second)
	return st.clock
}

func (st *memState) snapshot() *memState {
	cp := *st
	cp.users = make(map[uuid.UUID]*models.User, len(st.users))
	for k, v := range st.users {
		u := *v
		cp.users[k] = &u
	}
	cp.images = make(map[int64]*models.ImageAsset, len(st.images))
	for k, v := range st.images {
		img := *v
		cp.images[k] = &img
	}
	cp.receipts = make(map[int64]*models.Receipt, len(st.receipts))
	for k, v := range st.receipts {
		cp.receipts[k] = cloneReceipt(v)
	}
	return &cp
}

func cloneReceipt(r *models.Receipt) *models.Receipt {
	c := *r
	c.Items = nil
	for _, item := range r.Items {
		it := *item
		c.Items = append(c.Items, &it)
	}
	return &c
}

type fakeStore struct {
	st        *memState
	txCount   int
	rollbacks int
}

func newFakeStore() *fakeStore {
	return &fakeStore{st: &memState{
		users:    map[uuid.UUID]*models.User{},
		images:   map[int64]*models.ImageAsset{},
		receipts: map[int64]*models.Receipt{},
		clock:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}}
}

func (s *fakeStore) Users() repository.UserRepository       { return fakeUsers{s.st} }
func (s *fakeStore) Images() repository.ImageRepository     { return fakeImages{s.st} }
func (s *fakeStore) Receipts() repository.ReceiptRepository { return fakeReceipts{s.st} }

func (s *fakeStore) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	s.txCount++
	saved := s.st.snapshot()
	if err := fn(s); err != nil {
		*s.st = *saved
		s.rollbacks++
		return err
	}
	return nil
}

func (s *fakeStore) addUser(username, email string) *models.User {
	u := &models.User{ID: uuid.New(), Username: username, Email: email, Currency: "USD", IsActive: true}
	s.st.users[u.ID] = u
	return u
}

func (s *fakeStore) addImage(userID uuid.UUID, key, contentType string) *models.ImageAsset {
	img := &models.ImageAsset{ID: s.st.id(), UserID: userID, ObjectKey: key, ContentType: contentType}
	s.st.images[img.ID] = img
	return img
}

// addReceipt stores a receipt dated date (YYYY-MM-DD, empty for none).
func (s *fakeStore) addReceipt(userID uuid.UUID, imageID *int64, date, category, total string) *models.Receipt {
	r := &models.Receipt{
		ID:        s.st.id(),
		UserID:    userID,
		ImageID:   imageID,
		Currency:  "USD",
		Category:  category,
		CreatedAt: s.st.tick(),
	}
	if date != "" {
		d, _ := time.Parse("2006-01-02", date)
		r.ReceiptDate = &d
	}
	if total != "" {
		r.Total = decimal.NewNullDecimal(decimal.RequireFromString(total))
	}
	s.st.receipts[r.ID] = r
	return cloneReceipt(r)
}

type fakeUsers struct{ st *memState }

func (f fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.st.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range f.st.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	for _, u := range f.st.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeUsers) Upsert(ctx context.Context, user *models.User) error {
	f.st.users[user.ID] = user
	return nil
}

func (f fakeUsers) Update(ctx context.Context, user *models.User) error {
	stored, ok := f.st.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, u := range f.st.users {
		if id != user.ID && u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	user.UpdatedAt = f.st.tick()
	*stored = *user
	return nil
}

type fakeImages struct{ st *memState }

func (f fakeImages) Create(ctx context.Context, img *models.ImageAsset) error {
	if f.st.createErr != nil {
		return f.st.createErr
	}
	img.ID = f.st.id()
	img.CreatedAt = f.st.tick()
	c := *img
	f.st.images[img.ID] = &c
	return nil
}

func (f fakeImages) GetByIDAndUser(ctx context.Context, id int64, userID uuid.UUID) (*models.ImageAsset, error) {
	img, ok := f.st.images[id]
	if !ok || img.UserID != userID {
		return nil, repository.ErrNotFound
	}
	c := *img
	return &c, nil
}

func (f fakeImages) GetByIDForUpdate(ctx context.Context, id int64) (*models.ImageAsset, error) {
	img, ok := f.st.images[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *img
	return &c, nil
}

func (f fakeImages) Delete(ctx context.Context, id int64) error {
	if _, ok := f.st.images[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.st.images, id)
	return nil
}

type fakeReceipts struct{ st *memState }

func (f fakeReceipts) Create(ctx context.Context, r *models.Receipt) error {
	if f.st.createErr != nil {
		return f.st.createErr
	}
	r.ID = f.st.id()
	r.CreatedAt = f.st.tick()
	r.UpdatedAt = r.CreatedAt
	for _, item := range r.Items {
		item.ID = f.st.id()
		item.ReceiptID = r.ID
	}
	f.st.receipts[r.ID] = cloneReceipt(r)
	return nil
}

func (f fakeReceipts) GetByIDAndUser(ctx context.Context, id int64, userID uuid.UUID) (*models.Receipt, error) {
	r, ok := f.st.receipts[id]
	if !ok || r.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return cloneReceipt(r), nil
}

func (f fakeReceipts) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Receipt, error) {
	var out []*models.Receipt
	for _, r := range f.st.receipts {
		if r.UserID == userID {
			out = append(out, cloneReceipt(r))
		}
	}
	return out, nil
}

func (f fakeReceipts) ListByIDsAndUser(ctx context.Context, ids []int64, userID uuid.UUID) ([]*models.Receipt, error) {
	var out []*models.Receipt
	for _, id := range ids {
		if r, ok := f.st.receipts[id]; ok && r.UserID == userID {
			out = append(out, cloneReceipt(r))
		}
	}
	return out, nil
}

func (f fakeReceipts) ListByUserAndDateRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*models.Receipt, error) {
	var out []*models.Receipt
	for _, r := range f.st.receipts {
		if r.UserID != userID || r.ReceiptDate == nil {
			continue
		}
		if r.ReceiptDate.Before(start) || r.ReceiptDate.After(end) {
			continue
		}
		out = append(out, cloneReceipt(r))
	}
	return out, nil
}

func (f fakeReceipts) TotalsByUserAndDateRange(ctx context.Context, userID uuid.UUID, start, end time.Time) (decimal.Decimal, int64, error) {
	receipts, _ := f.ListByUserAndDateRange(ctx, userID, start, end)
	sum := decimal.Zero
	for _, r := range receipts {
		sum = sum.Add(r.TotalOrZero())
	}
	return sum, int64(len(receipts)), nil
}

func (f fakeReceipts) Update(ctx context.Context, r *models.Receipt) error {
	stored, ok := f.st.receipts[r.ID]
	if !ok {
		return repository.ErrNotFound
	}
	items := stored.Items
	updated := cloneReceipt(r)
	updated.Items = items
	updated.UpdatedAt = f.st.tick()
	r.UpdatedAt = updated.UpdatedAt
	f.st.receipts[r.ID] = updated
	return nil
}

func (f fakeReceipts) ReplaceItems(ctx context.Context, r *models.Receipt) error {
	stored, ok := f.st.receipts[r.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Items = nil
	for _, item := range r.Items {
		item.ID = f.st.id()
		item.ReceiptID = r.ID
		it := *item
		stored.Items = append(stored.Items, &it)
	}
	return nil
}

func (f fakeReceipts) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, ok := f.st.receipts[id]; ok {
			delete(f.st.receipts, id)
			n++
		}
	}
	return n, nil
}

func (f fakeReceipts) ExistsByImageID(ctx context.Context, imageID int64) (bool, error) {
	for _, r := range f.st.receipts {
		if r.ImageID != nil && *r.ImageID == imageID {
			return true, nil
		}
	}
	return false, nil
}

type fakeBlobs struct {
	objects   map[string][]byte
	getErr    error
	putErr    error
	deleteErr error
	deleted   []string
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string][]byte{}}
}

func (b *fakeBlobs) Put(ctx context.Context, bucket, key, contentType string, body io.Reader, size int64) error {
	if b.putErr != nil {
		return b.putErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return err
	}
	b.objects[bucket+"/"+key] = buf.Bytes()
	return nil
}

func (b *fakeBlobs) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if b.getErr != nil {
		return nil, b.getErr
	}
	data, ok := b.objects[bucket+"/"+key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return data, nil
}

func (b *fakeBlobs) Delete(ctx context.Context, bucket, key string) error {
	if b.deleteErr != nil {
		return b.deleteErr
	}
	delete(b.objects, bucket+"/"+key)
	b.deleted = append(b.deleted, key)
	return nil
}

type fakeModel struct {
	configured bool
	body       string
	err        error
	calls      int
	last       gemini.Request
}

func (m *fakeModel) Configured() bool { return m.configured }

func (m *fakeModel) GenerateContent(ctx context.Context, req gemini.Request) (string, error) {
	m.calls++
	m.last = req
	return m.body, m.err
}

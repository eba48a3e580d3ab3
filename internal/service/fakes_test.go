package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"sourcing-marketplace-service/internal/model"
	"sourcing-marketplace-service/internal/repository"
)

// memStore es el backing de todos los fakes. Un solo struct para poder
// sacar un snapshot completo y simular el rollback del batch atómico.
type memStore struct {
	seq      int
	orders   map[string]*model.Order
	convs    map[string]*model.Conversation
	msgs     []*model.Message
	users    map[string]*model.User
	notifs   []*model.Notification
	txs      []*model.Transaction
	payments map[string]*model.PaymentMethod
	payouts  map[string]*model.PayoutMethod
}

func newMemStore() *memStore {
	return &memStore{
		orders:   make(map[string]*model.Order),
		convs:    make(map[string]*model.Conversation),
		users:    make(map[string]*model.User),
		payments: make(map[string]*model.PaymentMethod),
		payouts:  make(map[string]*model.PayoutMethod),
	}
}

func (st *memStore) nextID() string {
	st.seq++
	return fmt.Sprintf("id-%04d", st.seq)
}

func (st *memStore) clone() *memStore {
	out := newMemStore()
	out.seq = st.seq
	for k, v := range st.orders {
		o := *v
		out.orders[k] = &o
	}
	for k, v := range st.convs {
		c := *v
		out.convs[k] = &c
	}
	for _, m := range st.msgs {
		c := *m
		out.msgs = append(out.msgs, &c)
	}
	for k, v := range st.users {
		u := *v
		out.users[k] = &u
	}
	for _, n := range st.notifs {
		c := *n
		out.notifs = append(out.notifs, &c)
	}
	for _, t := range st.txs {
		c := *t
		out.txs = append(out.txs, &c)
	}
	for k, v := range st.payments {
		p := *v
		out.payments[k] = &p
	}
	for k, v := range st.payouts {
		p := *v
		out.payouts[k] = &p
	}
	return out
}

func (st *memStore) restore(snap *memStore) {
	*st = *snap
}

// fakeTxn imita la semántica todo-o-nada: si fn falla, el store vuelve
// al snapshot previo.
type fakeTxn struct {
	store *memStore
}

func (t *fakeTxn) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := t.store.clone()
	if err := fn(ctx); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

// --- Órdenes ---

type fakeOrderRepo struct {
	store *memStore
}

func (r *fakeOrderRepo) Insert(ctx context.Context, o *model.Order) error {
	if o.ID == "" {
		o.ID = r.store.nextID()
	}
	c := *o
	r.store.orders[o.ID] = &c
	return nil
}

func (r *fakeOrderRepo) FindByID(ctx context.Context, id string) (*model.Order, error) {
	o, ok := r.store.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *o
	return &c, nil
}

func (r *fakeOrderRepo) FindAll(ctx context.Context) ([]*model.Order, error) {
	return r.filter(func(*model.Order) bool { return true }), nil
}

func (r *fakeOrderRepo) FindByUserID(ctx context.Context, userID string) ([]*model.Order, error) {
	return r.filter(func(o *model.Order) bool { return o.UserID == userID }), nil
}

func (r *fakeOrderRepo) filter(keep func(*model.Order) bool) []*model.Order {
	var out []*model.Order
	for _, o := range r.store.orders {
		if keep(o) {
			c := *o
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error {
	o, ok := r.store.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.Status = status
	return nil
}

func (r *fakeOrderRepo) ApplyQuote(ctx context.Context, id string, q model.Quote) error {
	o, ok := r.store.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	pc, sf, sh, ta := q.ProductCost, q.SourcingFee, q.ShippingFee, q.TotalAmount
	o.ProductCost, o.SourcingFee, o.ShippingFee, o.TotalAmount = &pc, &sf, &sh, &ta
	o.SourcedCountry = q.SourcedCountry
	return nil
}

func (r *fakeOrderRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.store.orders[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.store.orders, id)
	return nil
}

// --- Conversaciones ---

type fakeConversationRepo struct {
	store          *memStore
	applyErr       error // inyectable para probar el rollback
	resetUnreadErr error
	resetCalls     int
}

func (r *fakeConversationRepo) Insert(ctx context.Context, c *model.Conversation) error {
	if c.ID == "" {
		c.ID = r.store.nextID()
	}
	cp := *c
	r.store.convs[c.ID] = &cp
	return nil
}

func (r *fakeConversationRepo) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	c, ok := r.store.convs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeConversationRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.Conversation, error) {
	var out []*model.Conversation
	for _, id := range ids {
		if c, ok := r.store.convs[id]; ok {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeConversationRepo) ApplyMessage(ctx context.Context, id, preview string, ts time.Time, recipient model.Role) error {
	if r.applyErr != nil {
		return r.applyErr
	}
	c, ok := r.store.convs[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.LastMessage = preview
	c.LastMessageTimestamp = ts
	if recipient == model.RoleAdmin {
		c.UnreadCount.Admin++
	} else {
		c.UnreadCount.User++
	}
	return nil
}

func (r *fakeConversationRepo) ResetUnread(ctx context.Context, id string, role model.Role) error {
	r.resetCalls++
	if r.resetUnreadErr != nil {
		return r.resetUnreadErr
	}
	c, ok := r.store.convs[id]
	if !ok {
		return repository.ErrNotFound
	}
	if role == model.RoleAdmin {
		c.UnreadCount.Admin = 0
	} else {
		c.UnreadCount.User = 0
	}
	return nil
}

// --- Mensajes ---

type fakeMessageRepo struct {
	store *memStore
}

func (r *fakeMessageRepo) Insert(ctx context.Context, m *model.Message) error {
	if m.ID == "" {
		m.ID = r.store.nextID()
	}
	c := *m
	r.store.msgs = append(r.store.msgs, &c)
	return nil
}

func (r *fakeMessageRepo) FindByConversation(ctx context.Context, conversationID string) ([]*model.Message, error) {
	var out []*model.Message
	for _, m := range r.store.msgs {
		if m.ConversationID == conversationID {
			c := *m
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// --- Usuarios ---

type fakeUserRepo struct {
	store *memStore
}

func (r *fakeUserRepo) Insert(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = r.store.nextID()
	}
	c := *u
	r.store.users[u.ID] = &c
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := r.store.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range r.store.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) FindAdmin(ctx context.Context) (*model.User, error) {
	for _, u := range r.store.users {
		if u.Role == model.RoleAdmin {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	var out []*model.User
	for _, id := range ids {
		if u, ok := r.store.users[id]; ok {
			c := *u
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) SetBlocked(ctx context.Context, id string, blocked bool) error {
	u, ok := r.store.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsBlocked = blocked
	return nil
}

func (r *fakeUserRepo) UpdateProfile(ctx context.Context, id string, p model.UserProfile) error {
	u, ok := r.store.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Profile = p
	return nil
}

func (r *fakeUserRepo) UpdatePreferences(ctx context.Context, id string, p model.UserPreferences) error {
	u, ok := r.store.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Preferences = p
	return nil
}

// --- Notificaciones ---

type fakeNotificationRepo struct {
	store     *memStore
	insertErr error // inyectable para probar el rollback
}

func (r *fakeNotificationRepo) Insert(ctx context.Context, n *model.Notification) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	if n.ID == "" {
		n.ID = r.store.nextID()
	}
	c := *n
	r.store.notifs = append(r.store.notifs, &c)
	return nil
}

func (r *fakeNotificationRepo) FindByUserID(ctx context.Context, userID string) ([]*model.Notification, error) {
	var out []*model.Notification
	for _, n := range r.store.notifs {
		if n.UserID == userID {
			c := *n
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, id, userID string) error {
	for _, n := range r.store.notifs {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID string) error {
	for _, n := range r.store.notifs {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

// --- Métodos de pago/cobro ---

type fakePaymentMethodRepo struct {
	store *memStore
}

func (r *fakePaymentMethodRepo) Insert(ctx context.Context, pm *model.PaymentMethod) error {
	if pm.ID == "" {
		pm.ID = r.store.nextID()
	}
	c := *pm
	r.store.payments[pm.ID] = &c
	return nil
}

func (r *fakePaymentMethodRepo) FindByID(ctx context.Context, id string) (*model.PaymentMethod, error) {
	pm, ok := r.store.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *pm
	return &c, nil
}

func (r *fakePaymentMethodRepo) FindByUserID(ctx context.Context, userID string) ([]*model.PaymentMethod, error) {
	var out []*model.PaymentMethod
	for _, pm := range r.store.payments {
		if pm.UserID == userID {
			c := *pm
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakePaymentMethodRepo) Update(ctx context.Context, id, nickname string, details model.MethodDetails) error {
	pm, ok := r.store.payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	pm.Nickname = nickname
	pm.Details = details
	return nil
}

func (r *fakePaymentMethodRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.store.payments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.store.payments, id)
	return nil
}

type fakePayoutMethodRepo struct {
	store *memStore
}

func (r *fakePayoutMethodRepo) Insert(ctx context.Context, pm *model.PayoutMethod) error {
	if pm.ID == "" {
		pm.ID = r.store.nextID()
	}
	c := *pm
	r.store.payouts[pm.ID] = &c
	return nil
}

func (r *fakePayoutMethodRepo) FindByID(ctx context.Context, id string) (*model.PayoutMethod, error) {
	pm, ok := r.store.payouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *pm
	return &c, nil
}

func (r *fakePayoutMethodRepo) FindByAdminID(ctx context.Context, adminID string) ([]*model.PayoutMethod, error) {
	var out []*model.PayoutMethod
	for _, pm := range r.store.payouts {
		if pm.AdminID == adminID {
			c := *pm
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakePayoutMethodRepo) Update(ctx context.Context, id, nickname string, details model.MethodDetails) error {
	pm, ok := r.store.payouts[id]
	if !ok {
		return repository.ErrNotFound
	}
	pm.Nickname = nickname
	pm.Details = details
	return nil
}

func (r *fakePayoutMethodRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.store.payouts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.store.payouts, id)
	return nil
}

// --- Ledger ---

type fakeTransactionRepo struct {
	store *memStore
}

func (r *fakeTransactionRepo) Insert(ctx context.Context, t *model.Transaction) error {
	if t.ID == "" {
		t.ID = r.store.nextID()
	}
	c := *t
	r.store.txs = append(r.store.txs, &c)
	return nil
}

func (r *fakeTransactionRepo) FindByUserID(ctx context.Context, userID string) ([]*model.Transaction, error) {
	var out []*model.Transaction
	for _, t := range r.store.txs {
		if t.UserID == userID {
			c := *t
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeTransactionRepo) FindAll(ctx context.Context) ([]*model.Transaction, error) {
	var out []*model.Transaction
	for _, t := range r.store.txs {
		c := *t
		out = append(out, &c)
	}
	return out, nil
}

// --- Blobs y eventos ---

type fakeBlobStore struct {
	err   error
	saved []string
}

func (b *fakeBlobStore) Save(ctx context.Context, conversationID, fileName string, r io.Reader) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	url := "http://files.local/uploads/chat-attachments/" + conversationID + "/" + fileName
	b.saved = append(b.saved, url)
	return url, nil
}

type recordedEvent struct {
	orderID  string
	status   model.OrderStatus
	previous model.OrderStatus
}

type fakeEventPublisher struct {
	created []string
	changes []recordedEvent
}

func (p *fakeEventPublisher) OrderCreated(o *model.Order) {
	p.created = append(p.created, o.ID)
}

func (p *fakeEventPublisher) OrderStatusChanged(o *model.Order, previous model.OrderStatus) {
	p.changes = append(p.changes, recordedEvent{orderID: o.ID, status: o.Status, previous: previous})
}

// --- Armado de fixtures ---

type fixture struct {
	store    *memStore
	orders   *fakeOrderRepo
	convs    *fakeConversationRepo
	msgs     *fakeMessageRepo
	users    *fakeUserRepo
	notifs   *fakeNotificationRepo
	ledger   *fakeTransactionRepo
	payments *fakePaymentMethodRepo
	payouts  *fakePayoutMethodRepo
	txn      *fakeTxn
	blobs    *fakeBlobStore
	events   *fakeEventPublisher
}

func newFixture() *fixture {
	st := newMemStore()
	return &fixture{
		store:    st,
		orders:   &fakeOrderRepo{store: st},
		convs:    &fakeConversationRepo{store: st},
		msgs:     &fakeMessageRepo{store: st},
		users:    &fakeUserRepo{store: st},
		notifs:   &fakeNotificationRepo{store: st},
		ledger:   &fakeTransactionRepo{store: st},
		payments: &fakePaymentMethodRepo{store: st},
		payouts:  &fakePayoutMethodRepo{store: st},
		txn:      &fakeTxn{store: st},
		blobs:    &fakeBlobStore{},
		events:   &fakeEventPublisher{},
	}
}

func (f *fixture) orderService() *OrderService {
	return NewOrderService(f.orders, f.convs, f.msgs, f.users, f.notifs, f.ledger, f.payments, f.txn, f.events)
}

func (f *fixture) messageService() *MessageService {
	return NewMessageService(f.convs, f.msgs, f.users, f.notifs, f.txn, f.blobs)
}

func (f *fixture) addUser(id, name, email string, role model.Role) *model.User {
	u := &model.User{ID: id, FullName: name, Email: email, Role: role, CreatedAt: time.Now().UTC()}
	f.store.users[id] = u
	return u
}

var errBoom = errors.New("boom")

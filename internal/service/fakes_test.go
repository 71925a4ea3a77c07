package service_test

import (
	"context"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repository fakes. They mirror the query semantics of the real
// repositories closely enough for service tests: missing rows surface as
// gorm.ErrRecordNotFound and conditional writes stay conditional. Row locking
// is a no-op since each test runs single-threaded.

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// --- customers ---

type fakeCustomerRepo struct {
	customers map[uuid.UUID]*model.Customer
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: make(map[uuid.UUID]*model.Customer)}
}

func (f *fakeCustomerRepo) add(c *model.Customer) *model.Customer {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.customers[c.ID] = c
	return c
}

func (f *fakeCustomerRepo) Create(_ context.Context, c *model.Customer) error {
	f.add(c)
	return nil
}

func (f *fakeCustomerRepo) Update(_ context.Context, c *model.Customer) error {
	f.customers[c.ID] = c
	return nil
}

func (f *fakeCustomerRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.customers, id)
	return nil
}

func (f *fakeCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (f *fakeCustomerRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*model.Customer, error) {
	for _, c := range f.customers {
		if c.UserID == userID {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCustomerRepo) List(_ context.Context, _, _ int, _ string) ([]model.Customer, int64, error) {
	out := make([]model.Customer, 0, len(f.customers))
	for _, c := range f.customers {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (f *fakeCustomerRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	return f.FindByID(ctx, id)
}

// --- products ---

type fakeProductRepo struct {
	products      map[uuid.UUID]*model.Product
	categories    map[uuid.UUID]*model.Category
	subCategories map[uuid.UUID]*model.SubCategory
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products:      make(map[uuid.UUID]*model.Product),
		categories:    make(map[uuid.UUID]*model.Category),
		subCategories: make(map[uuid.UUID]*model.SubCategory),
	}
}

func (f *fakeProductRepo) add(p *model.Product) *model.Product {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.products[p.ID] = p
	return p
}

func (f *fakeProductRepo) Create(_ context.Context, p *model.Product) error {
	f.add(p)
	return nil
}

func (f *fakeProductRepo) Update(_ context.Context, p *model.Product) error {
	f.products[p.ID] = p
	return nil
}

func (f *fakeProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.products, id)
	return nil
}

func (f *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) FindBySKU(_ context.Context, sku string) (*model.Product, error) {
	for _, p := range f.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProductRepo) List(_ context.Context, _, _ int, _ string) ([]model.Product, int64, error) {
	out := make([]model.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (f *fakeProductRepo) UpdateQuantity(_ context.Context, id uuid.UUID, quantity int) error {
	p, ok := f.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Quantity = quantity
	return nil
}

func (f *fakeProductRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeProductRepo) CreateCategory(_ context.Context, c *model.Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.categories[c.ID] = c
	return nil
}

func (f *fakeProductRepo) UpdateCategory(_ context.Context, c *model.Category) error {
	f.categories[c.ID] = c
	return nil
}

func (f *fakeProductRepo) DeleteCategory(_ context.Context, id uuid.UUID) error {
	delete(f.categories, id)
	return nil
}

func (f *fakeProductRepo) FindCategoryByID(_ context.Context, id uuid.UUID) (*model.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (f *fakeProductRepo) ListCategories(_ context.Context) ([]model.Category, error) {
	out := make([]model.Category, 0, len(f.categories))
	for _, c := range f.categories {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeProductRepo) CreateSubCategory(_ context.Context, sub *model.SubCategory) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	f.subCategories[sub.ID] = sub
	return nil
}

func (f *fakeProductRepo) UpdateSubCategory(_ context.Context, sub *model.SubCategory) error {
	f.subCategories[sub.ID] = sub
	return nil
}

func (f *fakeProductRepo) DeleteSubCategory(_ context.Context, id uuid.UUID) error {
	delete(f.subCategories, id)
	return nil
}

func (f *fakeProductRepo) FindSubCategoryByID(_ context.Context, id uuid.UUID) (*model.SubCategory, error) {
	sub, ok := f.subCategories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return sub, nil
}

func (f *fakeProductRepo) ListSubCategories(_ context.Context, categoryID *uuid.UUID) ([]model.SubCategory, error) {
	out := make([]model.SubCategory, 0, len(f.subCategories))
	for _, sub := range f.subCategories {
		if categoryID != nil && sub.CategoryID != *categoryID {
			continue
		}
		out = append(out, *sub)
	}
	return out, nil
}

// --- orders ---

type fakeOrderRepo struct {
	orders map[uuid.UUID]*model.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (f *fakeOrderRepo) add(o *model.Order) *model.Order {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	f.orders[o.ID] = o
	return o
}

func (f *fakeOrderRepo) Create(_ context.Context, o *model.Order) error {
	f.add(o)
	return nil
}

func (f *fakeOrderRepo) Update(_ context.Context, o *model.Order) error {
	f.orders[o.ID] = o
	return nil
}

func (f *fakeOrderRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.orders, id)
	return nil
}

func (f *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return o, nil
}

func (f *fakeOrderRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeOrderRepo) List(_ context.Context, filter repository.OrderFilter) ([]model.Order, int64, error) {
	out := make([]model.Order, 0, len(f.orders))
	for _, o := range f.orders {
		if filter.CustomerID != nil && o.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.AssignedTo != nil && (o.AssignedTo == nil || *o.AssignedTo != *filter.AssignedTo) {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.Payment != "" && o.Payment != filter.Payment {
			continue
		}
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrderRepo) FindUnbilledCredit(_ context.Context, customerID uuid.UUID, start, end time.Time) ([]model.Order, error) {
	var out []model.Order
	for _, o := range f.orders {
		if o.CustomerID != customerID || o.Payment != model.PaymentTypeCredit || o.BillID != nil {
			continue
		}
		if o.OrderDate.Before(start) || o.OrderDate.After(end) {
			continue
		}
		if o.Status == model.OrderStatusCancelled && o.DeliveredQuantity == 0 {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeOrderRepo) MarkBilled(_ context.Context, orderIDs []uuid.UUID, billID uuid.UUID) error {
	for _, id := range orderIDs {
		if o, ok := f.orders[id]; ok {
			b := billID
			o.BillID = &b
		}
	}
	return nil
}

// --- users ---

type fakeUserRepo struct {
	users  map[uuid.UUID]*model.User
	tokens map[string]*model.RefreshToken
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:  make(map[uuid.UUID]*model.User),
		tokens: make(map[string]*model.RefreshToken),
	}
}

func (f *fakeUserRepo) add(u *model.User) *model.User {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	f.add(u)
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, u *model.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) List(_ context.Context, _, _ int, role string) ([]model.User, int64, error) {
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		if role != "" && u.Role != role {
			continue
		}
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (f *fakeUserRepo) CreateRefreshToken(_ context.Context, token *model.RefreshToken) error {
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeUserRepo) GetRefreshToken(_ context.Context, token string) (*model.RefreshToken, error) {
	t, ok := f.tokens[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (f *fakeUserRepo) DeleteRefreshToken(_ context.Context, token string) error {
	delete(f.tokens, token)
	return nil
}

func (f *fakeUserRepo) DeleteExpiredRefreshTokens(_ context.Context) error {
	for k, t := range f.tokens {
		if t.ExpiresAt.Before(time.Now()) {
			delete(f.tokens, k)
		}
	}
	return nil
}

// --- bills ---

type fakeBillRepo struct {
	bills map[uuid.UUID]*model.Bill
}

func newFakeBillRepo() *fakeBillRepo {
	return &fakeBillRepo{bills: make(map[uuid.UUID]*model.Bill)}
}

func (f *fakeBillRepo) add(b *model.Bill) *model.Bill {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	f.bills[b.ID] = b
	return b
}

func (f *fakeBillRepo) Create(_ context.Context, b *model.Bill) error {
	f.add(b)
	return nil
}

func (f *fakeBillRepo) Update(_ context.Context, b *model.Bill) error {
	f.bills[b.ID] = b
	return nil
}

func (f *fakeBillRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Bill, error) {
	b, ok := f.bills[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return b, nil
}

func (f *fakeBillRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Bill, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeBillRepo) List(_ context.Context, filter repository.BillFilter) ([]model.Bill, int64, error) {
	out := make([]model.Bill, 0, len(f.bills))
	for _, b := range f.bills {
		if filter.CustomerID != nil && b.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, *b)
	}
	return out, int64(len(out)), nil
}

func (f *fakeBillRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to string) error {
	if b, ok := f.bills[id]; ok && b.Status == from {
		b.Status = to
	}
	return nil
}

// --- payments ---

type fakePaymentRepo struct {
	requests      map[uuid.UUID]*model.PaymentRequest
	transactions  map[uuid.UUID]*model.BillTransaction
	adminRequests map[uuid.UUID]*model.BillAdminRequest
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{
		requests:      make(map[uuid.UUID]*model.PaymentRequest),
		transactions:  make(map[uuid.UUID]*model.BillTransaction),
		adminRequests: make(map[uuid.UUID]*model.BillAdminRequest),
	}
}

func (f *fakePaymentRepo) CreateRequest(_ context.Context, req *model.PaymentRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	f.requests[req.ID] = req
	return nil
}

func (f *fakePaymentRepo) UpdateRequest(_ context.Context, req *model.PaymentRequest) error {
	f.requests[req.ID] = req
	return nil
}

func (f *fakePaymentRepo) FindRequestByID(_ context.Context, id uuid.UUID) (*model.PaymentRequest, error) {
	r, ok := f.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r, nil
}

func (f *fakePaymentRepo) FindRequestByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PaymentRequest, error) {
	return f.FindRequestByID(ctx, id)
}

func (f *fakePaymentRepo) ListRequests(_ context.Context, filter repository.PaymentFilter) ([]model.PaymentRequest, int64, error) {
	out := make([]model.PaymentRequest, 0, len(f.requests))
	for _, r := range f.requests {
		if filter.BillID != nil && r.BillID != *filter.BillID {
			continue
		}
		if filter.CustomerID != nil && r.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.RecipientID != nil && r.RecipientID != *filter.RecipientID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}

func (f *fakePaymentRepo) CreateTransaction(_ context.Context, tx *model.BillTransaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	f.transactions[tx.ID] = tx
	return nil
}

func (f *fakePaymentRepo) UpdateTransaction(_ context.Context, tx *model.BillTransaction) error {
	f.transactions[tx.ID] = tx
	return nil
}

func (f *fakePaymentRepo) FindTransactionByID(_ context.Context, id uuid.UUID) (*model.BillTransaction, error) {
	t, ok := f.transactions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (f *fakePaymentRepo) FindTransactionByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.BillTransaction, error) {
	return f.FindTransactionByID(ctx, id)
}

func (f *fakePaymentRepo) ListTransactions(_ context.Context, holderID *uuid.UUID, status string, _, _ int) ([]model.BillTransaction, int64, error) {
	out := make([]model.BillTransaction, 0, len(f.transactions))
	for _, t := range f.transactions {
		if holderID != nil && t.HolderID != *holderID {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}

func (f *fakePaymentRepo) CreateAdminRequest(_ context.Context, req *model.BillAdminRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	f.adminRequests[req.ID] = req
	return nil
}

func (f *fakePaymentRepo) UpdateAdminRequest(_ context.Context, req *model.BillAdminRequest) error {
	f.adminRequests[req.ID] = req
	return nil
}

func (f *fakePaymentRepo) FindAdminRequestByID(_ context.Context, id uuid.UUID) (*model.BillAdminRequest, error) {
	r, ok := f.adminRequests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r, nil
}

func (f *fakePaymentRepo) FindAdminRequestByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.BillAdminRequest, error) {
	return f.FindAdminRequestByID(ctx, id)
}

func (f *fakePaymentRepo) FindOpenAdminRequestByTransaction(_ context.Context, billTxID uuid.UUID) (*model.BillAdminRequest, error) {
	for _, r := range f.adminRequests {
		if r.BillTransactionID == billTxID && r.Status == model.AdminRequestPending {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePaymentRepo) ListAdminRequests(_ context.Context, status string, _, _ int) ([]model.BillAdminRequest, int64, error) {
	out := make([]model.BillAdminRequest, 0, len(f.adminRequests))
	for _, r := range f.adminRequests {
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}

// --- wallet ---

type fakeWalletRepo struct {
	transactions map[uuid.UUID]*model.PaymentTransaction
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{transactions: make(map[uuid.UUID]*model.PaymentTransaction)}
}

func (f *fakeWalletRepo) Create(_ context.Context, tx *model.PaymentTransaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	f.transactions[tx.ID] = tx
	return nil
}

func (f *fakeWalletRepo) Update(_ context.Context, tx *model.PaymentTransaction) error {
	f.transactions[tx.ID] = tx
	return nil
}

func (f *fakeWalletRepo) FindByID(_ context.Context, id uuid.UUID) (*model.PaymentTransaction, error) {
	t, ok := f.transactions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (f *fakeWalletRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PaymentTransaction, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeWalletRepo) FindByOrderID(_ context.Context, orderID uuid.UUID) (*model.PaymentTransaction, error) {
	for _, t := range f.transactions {
		if t.OrderID == orderID {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeWalletRepo) List(_ context.Context, agentID *uuid.UUID, status string, _, _ int) ([]model.PaymentTransaction, int64, error) {
	out := make([]model.PaymentTransaction, 0, len(f.transactions))
	for _, t := range f.transactions {
		if agentID != nil && t.AgentID != *agentID {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}

// --- audit ---

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (f *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) List(_ context.Context, _, _ int, action string) ([]model.AuditLog, int64, error) {
	var out []model.AuditLog
	for _, e := range f.entries {
		if action != "" && e.Action != action {
			continue
		}
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

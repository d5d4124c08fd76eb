package service

import (
	"context"

	"github.com/google/uuid"

	"optipos/internal/model"
	"optipos/internal/repository"
)

// Hand-rolled mocks: each repository method is a swappable func field so a
// test only stubs what it exercises. Unstubbed methods return zero values.

type stubTxManager struct{}

func (stubTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type mockTransactionRepo struct {
	CreateFn                   func(ctx context.Context, tx *model.Transaction) error
	CreateItemFn               func(ctx context.Context, item *model.TransactionItem) error
	FindByIDWithItemsFn        func(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	FindByReceiptNumberFn      func(ctx context.Context, receiptNumber string) (*model.Transaction, error)
	FindItemByIDFn             func(ctx context.Context, id uuid.UUID) (*model.TransactionItem, error)
	FindItemsByTransactionIDFn func(ctx context.Context, transactionID uuid.UUID) ([]model.TransactionItem, error)
	UpdateItemFn               func(ctx context.Context, item *model.TransactionItem) error
	UpdateStatusFn             func(ctx context.Context, id uuid.UUID, status string) error
	ListFn                     func(ctx context.Context, status, search string, page, limit int) ([]model.Transaction, int64, error)
}

func (m *mockTransactionRepo) Create(ctx context.Context, tx *model.Transaction) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, tx)
	}
	return nil
}

func (m *mockTransactionRepo) CreateItem(ctx context.Context, item *model.TransactionItem) error {
	if m.CreateItemFn != nil {
		return m.CreateItemFn(ctx, item)
	}
	return nil
}

func (m *mockTransactionRepo) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	if m.FindByIDWithItemsFn != nil {
		return m.FindByIDWithItemsFn(ctx, id)
	}
	return nil, nil
}

func (m *mockTransactionRepo) FindByReceiptNumber(ctx context.Context, receiptNumber string) (*model.Transaction, error) {
	if m.FindByReceiptNumberFn != nil {
		return m.FindByReceiptNumberFn(ctx, receiptNumber)
	}
	return nil, nil
}

func (m *mockTransactionRepo) FindItemByID(ctx context.Context, id uuid.UUID) (*model.TransactionItem, error) {
	if m.FindItemByIDFn != nil {
		return m.FindItemByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockTransactionRepo) FindItemsByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]model.TransactionItem, error) {
	if m.FindItemsByTransactionIDFn != nil {
		return m.FindItemsByTransactionIDFn(ctx, transactionID)
	}
	return nil, nil
}

func (m *mockTransactionRepo) UpdateItem(ctx context.Context, item *model.TransactionItem) error {
	if m.UpdateItemFn != nil {
		return m.UpdateItemFn(ctx, item)
	}
	return nil
}

func (m *mockTransactionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, id, status)
	}
	return nil
}

func (m *mockTransactionRepo) List(ctx context.Context, status, search string, page, limit int) ([]model.Transaction, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, status, search, page, limit)
	}
	return nil, 0, nil
}

type mockProductRepo struct {
	CreateFn            func(ctx context.Context, product *model.Product) error
	UpdateFn            func(ctx context.Context, product *model.Product) error
	DeleteFn            func(ctx context.Context, id uuid.UUID) error
	FindByIDFn          func(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByCodeFn        func(ctx context.Context, code string) (*model.Product, error)
	ListFn              func(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error)
	ListLowStockFn      func(ctx context.Context) ([]model.Product, error)
	UpdateStockFn       func(ctx context.Context, id uuid.UUID, stock int) error
	FindByIDForUpdateFn func(ctx context.Context, id uuid.UUID) (*model.Product, error)
}

func (m *mockProductRepo) Create(ctx context.Context, product *model.Product) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, product)
	}
	return nil
}

func (m *mockProductRepo) Update(ctx context.Context, product *model.Product) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, product)
	}
	return nil
}

func (m *mockProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

func (m *mockProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockProductRepo) FindByCode(ctx context.Context, code string) (*model.Product, error) {
	if m.FindByCodeFn != nil {
		return m.FindByCodeFn(ctx, code)
	}
	return nil, nil
}

func (m *mockProductRepo) List(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, page, limit, search)
	}
	return nil, 0, nil
}

func (m *mockProductRepo) ListLowStock(ctx context.Context) ([]model.Product, error) {
	if m.ListLowStockFn != nil {
		return m.ListLowStockFn(ctx)
	}
	return nil, nil
}

func (m *mockProductRepo) UpdateStock(ctx context.Context, id uuid.UUID, stock int) error {
	if m.UpdateStockFn != nil {
		return m.UpdateStockFn(ctx, id, stock)
	}
	return nil
}

func (m *mockProductRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	if m.FindByIDForUpdateFn != nil {
		return m.FindByIDForUpdateFn(ctx, id)
	}
	return nil, nil
}

type mockPatientRepo struct {
	CreateFn   func(ctx context.Context, patient *model.Patient) error
	UpdateFn   func(ctx context.Context, patient *model.Patient) error
	DeleteFn   func(ctx context.Context, id uuid.UUID) error
	FindByIDFn func(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	ListFn     func(ctx context.Context, search string, page, limit int) ([]model.Patient, int64, error)
}

func (m *mockPatientRepo) Create(ctx context.Context, patient *model.Patient) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, patient)
	}
	return nil
}

func (m *mockPatientRepo) Update(ctx context.Context, patient *model.Patient) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, patient)
	}
	return nil
}

func (m *mockPatientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

func (m *mockPatientRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockPatientRepo) List(ctx context.Context, search string, page, limit int) ([]model.Patient, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, search, page, limit)
	}
	return nil, 0, nil
}

type mockSupplierRepo struct {
	CreateFn   func(ctx context.Context, supplier *model.Supplier) error
	UpdateFn   func(ctx context.Context, supplier *model.Supplier) error
	DeleteFn   func(ctx context.Context, id uuid.UUID) error
	FindByIDFn func(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	ListFn     func(ctx context.Context, search string, page, limit int) ([]model.Supplier, int64, error)
}

func (m *mockSupplierRepo) Create(ctx context.Context, supplier *model.Supplier) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, supplier)
	}
	return nil
}

func (m *mockSupplierRepo) Update(ctx context.Context, supplier *model.Supplier) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, supplier)
	}
	return nil
}

func (m *mockSupplierRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

func (m *mockSupplierRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSupplierRepo) List(ctx context.Context, search string, page, limit int) ([]model.Supplier, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, search, page, limit)
	}
	return nil, 0, nil
}

type mockOrderRepo struct {
	CreateFn               func(ctx context.Context, order *model.Order) error
	CreateItemFn           func(ctx context.Context, item *model.OrderItem) error
	UpdateFn               func(ctx context.Context, order *model.Order) error
	DeleteFn               func(ctx context.Context, id uuid.UUID) error
	DeleteItemsByOrderIDFn func(ctx context.Context, orderID uuid.UUID) error
	FindByIDWithItemsFn    func(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindItemByIDFn         func(ctx context.Context, id uuid.UUID) (*model.OrderItem, error)
	UpdateItemFn           func(ctx context.Context, item *model.OrderItem) error
	UpdateStatusFn         func(ctx context.Context, id uuid.UUID, status string) error
	ListFn                 func(ctx context.Context, filter repository.OrderFilter) ([]model.Order, int64, error)
}

func (m *mockOrderRepo) Create(ctx context.Context, order *model.Order) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, order)
	}
	return nil
}

func (m *mockOrderRepo) CreateItem(ctx context.Context, item *model.OrderItem) error {
	if m.CreateItemFn != nil {
		return m.CreateItemFn(ctx, item)
	}
	return nil
}

func (m *mockOrderRepo) Update(ctx context.Context, order *model.Order) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, order)
	}
	return nil
}

func (m *mockOrderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

func (m *mockOrderRepo) DeleteItemsByOrderID(ctx context.Context, orderID uuid.UUID) error {
	if m.DeleteItemsByOrderIDFn != nil {
		return m.DeleteItemsByOrderIDFn(ctx, orderID)
	}
	return nil
}

func (m *mockOrderRepo) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	if m.FindByIDWithItemsFn != nil {
		return m.FindByIDWithItemsFn(ctx, id)
	}
	return nil, nil
}

func (m *mockOrderRepo) FindItemByID(ctx context.Context, id uuid.UUID) (*model.OrderItem, error) {
	if m.FindItemByIDFn != nil {
		return m.FindItemByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockOrderRepo) UpdateItem(ctx context.Context, item *model.OrderItem) error {
	if m.UpdateItemFn != nil {
		return m.UpdateItemFn(ctx, item)
	}
	return nil
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, id, status)
	}
	return nil
}

func (m *mockOrderRepo) List(ctx context.Context, filter repository.OrderFilter) ([]model.Order, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	return nil, 0, nil
}

type mockAuditRepo struct {
	LogFn  func(ctx context.Context, entry *model.AuditLog) error
	ListFn func(ctx context.Context, page, limit int) ([]model.AuditLog, int64, error)

	entries []model.AuditLog
}

func (m *mockAuditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	m.entries = append(m.entries, *entry)
	if m.LogFn != nil {
		return m.LogFn(ctx, entry)
	}
	return nil
}

func (m *mockAuditRepo) List(ctx context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, page, limit)
	}
	return m.entries, int64(len(m.entries)), nil
}

type mockUserRepo struct {
	CreateFn         func(ctx context.Context, user *model.User) error
	FindByIDFn       func(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByUsernameFn func(ctx context.Context, username string) (*model.User, error)
	FindByEmailFn    func(ctx context.Context, email string) (*model.User, error)
	ListFn           func(ctx context.Context, page, limit int) ([]model.User, int64, error)
	DeleteFn         func(ctx context.Context, id uuid.UUID) error
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.FindByUsernameFn != nil {
		return m.FindByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.FindByEmailFn != nil {
		return m.FindByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, page, limit)
	}
	return nil, 0, nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"optipos/internal/model"
)

type TransactionRepository interface {
	Create(ctx context.Context, tx *model.Transaction) error
	CreateItem(ctx context.Context, item *model.TransactionItem) error
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	FindByReceiptNumber(ctx context.Context, receiptNumber string) (*model.Transaction, error)
	FindItemByID(ctx context.Context, id uuid.UUID) (*model.TransactionItem, error)
	FindItemsByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]model.TransactionItem, error)
	UpdateItem(ctx context.Context, item *model.TransactionItem) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	List(ctx context.Context, status, search string, page, limit int) ([]model.Transaction, int64, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *model.Transaction) error {
	return GetDB(ctx, r.db).Create(tx).Error
}

func (r *transactionRepository) CreateItem(ctx context.Context, item *model.TransactionItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *transactionRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var tx model.Transaction
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Items.Product").
		Preload("Patient").
		Preload("User").
		First(&tx, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) FindByReceiptNumber(ctx context.Context, receiptNumber string) (*model.Transaction, error) {
	var tx model.Transaction
	if err := GetDB(ctx, r.db).Where("receipt_number = ?", receiptNumber).First(&tx).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) FindItemByID(ctx context.Context, id uuid.UUID) (*model.TransactionItem, error) {
	var item model.TransactionItem
	if err := GetDB(ctx, r.db).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *transactionRepository) FindItemsByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]model.TransactionItem, error) {
	var items []model.TransactionItem
	if err := GetDB(ctx, r.db).Where("transaction_id = ?", transactionID).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *transactionRepository) UpdateItem(ctx context.Context, item *model.TransactionItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *transactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Transaction{}).Where("id = ?", id).Update("status", status).Error
}

func (r *transactionRepository) List(ctx context.Context, status, search string, page, limit int) ([]model.Transaction, int64, error) {
	var transactions []model.Transaction
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Transaction{})
	if status != "" {
		db = db.Where("status = ?", status)
	}
	if search != "" {
		db = db.Where("receipt_number LIKE ?", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Items").
		Preload("Items.Product").
		Preload("Patient").
		Preload("User").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&transactions).Error; err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}

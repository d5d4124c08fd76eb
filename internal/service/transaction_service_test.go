package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"optipos/internal/events"
	"optipos/internal/model"
	"optipos/pkg/apperror"
)

func newTransactionService(txRepo *mockTransactionRepo, productRepo *mockProductRepo, patientRepo *mockPatientRepo, auditRepo *mockAuditRepo) TransactionService {
	return NewTransactionService(txRepo, productRepo, patientRepo, auditRepo, stubTxManager{}, events.Noop{})
}

func TestCreateTransaction(t *testing.T) {
	staffID := uuid.New()
	productID := uuid.New()

	product := func(stock int, price string) *model.Product {
		p := decimal.RequireFromString(price)
		return &model.Product{ID: productID, Code: "LENS-01", PcPrice: p, Stock: stock}
	}

	t.Run("prices from catalog and decrements stock", func(t *testing.T) {
		var stockWrites []int
		productRepo := &mockProductRepo{
			FindByIDForUpdateFn: func(ctx context.Context, id uuid.UUID) (*model.Product, error) {
				return product(10, "150.00"), nil
			},
			UpdateStockFn: func(ctx context.Context, id uuid.UUID, stock int) error {
				stockWrites = append(stockWrites, stock)
				return nil
			},
		}
		txRepo := &mockTransactionRepo{
			FindByReceiptNumberFn: func(ctx context.Context, receiptNumber string) (*model.Transaction, error) {
				return nil, gorm.ErrRecordNotFound
			},
		}
		auditRepo := &mockAuditRepo{}
		svc := newTransactionService(txRepo, productRepo, &mockPatientRepo{}, auditRepo)

		res, err := svc.CreateTransaction(context.Background(), staffID.String(), CreateTransactionRequest{
			ReceiptNumber: "R-1001",
			Items: []TransactionItemRequest{
				{ProductID: productID.String(), Quantity: 3, Discount: decimal.RequireFromString("50.00")},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, "450", res.SubtotalPrice.String())
		assert.Equal(t, "50", res.TotalDiscount.String())
		assert.Equal(t, "400", res.FinalPrice.String())
		assert.Equal(t, model.TransactionStatusPending, res.Status)
		assert.Equal(t, []int{7}, stockWrites)
		require.Len(t, auditRepo.entries, 1)
		assert.Equal(t, model.ActionCreateTransaction, auditRepo.entries[0].Action)
	})

	t.Run("rejects insufficient stock", func(t *testing.T) {
		productRepo := &mockProductRepo{
			FindByIDForUpdateFn: func(ctx context.Context, id uuid.UUID) (*model.Product, error) {
				return product(2, "150.00"), nil
			},
		}
		txRepo := &mockTransactionRepo{
			FindByReceiptNumberFn: func(ctx context.Context, receiptNumber string) (*model.Transaction, error) {
				return nil, gorm.ErrRecordNotFound
			},
		}
		svc := newTransactionService(txRepo, productRepo, &mockPatientRepo{}, &mockAuditRepo{})

		_, err := svc.CreateTransaction(context.Background(), staffID.String(), CreateTransactionRequest{
			ReceiptNumber: "R-1002",
			Items:         []TransactionItemRequest{{ProductID: productID.String(), Quantity: 3}},
		})
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
		assert.Contains(t, err.Error(), "insufficient stock")
	})

	t.Run("rejects duplicate receipt number", func(t *testing.T) {
		txRepo := &mockTransactionRepo{
			FindByReceiptNumberFn: func(ctx context.Context, receiptNumber string) (*model.Transaction, error) {
				return &model.Transaction{ReceiptNumber: receiptNumber}, nil
			},
		}
		svc := newTransactionService(txRepo, &mockProductRepo{}, &mockPatientRepo{}, &mockAuditRepo{})

		_, err := svc.CreateTransaction(context.Background(), staffID.String(), CreateTransactionRequest{
			ReceiptNumber: "R-1001",
			Items:         []TransactionItemRequest{{ProductID: productID.String(), Quantity: 1}},
		})
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})

	t.Run("rejects unknown patient", func(t *testing.T) {
		patientRepo := &mockPatientRepo{
			FindByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
				return nil, gorm.ErrRecordNotFound
			},
		}
		svc := newTransactionService(&mockTransactionRepo{}, &mockProductRepo{}, patientRepo, &mockAuditRepo{})

		_, err := svc.CreateTransaction(context.Background(), staffID.String(), CreateTransactionRequest{
			PatientID:     uuid.NewString(),
			ReceiptNumber: "R-1003",
			Items:         []TransactionItemRequest{{ProductID: productID.String(), Quantity: 1}},
		})
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
	})

	t.Run("rejects invalid user id", func(t *testing.T) {
		svc := newTransactionService(&mockTransactionRepo{}, &mockProductRepo{}, &mockPatientRepo{}, &mockAuditRepo{})

		_, err := svc.CreateTransaction(context.Background(), "not-a-uuid", CreateTransactionRequest{
			ReceiptNumber: "R-1004",
			Items:         []TransactionItemRequest{{ProductID: productID.String(), Quantity: 1}},
		})
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})
}

func TestFulfillItem(t *testing.T) {
	staffID := uuid.New()
	txID := uuid.New()
	itemID := uuid.New()

	t.Run("promotes transaction when last item fulfilled", func(t *testing.T) {
		var statusUpdates []string
		txRepo := &mockTransactionRepo{
			FindItemByIDFn: func(ctx context.Context, id uuid.UUID) (*model.TransactionItem, error) {
				return &model.TransactionItem{ID: itemID, TransactionID: txID, Status: model.TransactionItemStatusPending}, nil
			},
			FindItemsByTransactionIDFn: func(ctx context.Context, transactionID uuid.UUID) ([]model.TransactionItem, error) {
				return []model.TransactionItem{
					{ID: itemID, Status: model.TransactionItemStatusFulfilled},
					{ID: uuid.New(), Status: model.TransactionItemStatusFulfilled},
				}, nil
			},
			UpdateStatusFn: func(ctx context.Context, id uuid.UUID, status string) error {
				statusUpdates = append(statusUpdates, status)
				return nil
			},
		}
		svc := newTransactionService(txRepo, &mockProductRepo{}, &mockPatientRepo{}, &mockAuditRepo{})

		item, err := svc.FulfillItem(context.Background(), itemID.String(), staffID.String())
		require.NoError(t, err)
		assert.Equal(t, model.TransactionItemStatusFulfilled, item.Status)
		assert.Equal(t, []string{model.TransactionStatusFulfilled}, statusUpdates)
	})

	t.Run("leaves transaction pending while siblings remain", func(t *testing.T) {
		txRepo := &mockTransactionRepo{
			FindItemByIDFn: func(ctx context.Context, id uuid.UUID) (*model.TransactionItem, error) {
				return &model.TransactionItem{ID: itemID, TransactionID: txID, Status: model.TransactionItemStatusPending}, nil
			},
			FindItemsByTransactionIDFn: func(ctx context.Context, transactionID uuid.UUID) ([]model.TransactionItem, error) {
				return []model.TransactionItem{
					{ID: itemID, Status: model.TransactionItemStatusFulfilled},
					{ID: uuid.New(), Status: model.TransactionItemStatusPending},
				}, nil
			},
			UpdateStatusFn: func(ctx context.Context, id uuid.UUID, status string) error {
				t.Fatalf("transaction status should not change, got %s", status)
				return nil
			},
		}
		svc := newTransactionService(txRepo, &mockProductRepo{}, &mockPatientRepo{}, &mockAuditRepo{})

		_, err := svc.FulfillItem(context.Background(), itemID.String(), staffID.String())
		require.NoError(t, err)
	})

	t.Run("conflict when already fulfilled", func(t *testing.T) {
		txRepo := &mockTransactionRepo{
			FindItemByIDFn: func(ctx context.Context, id uuid.UUID) (*model.TransactionItem, error) {
				return &model.TransactionItem{ID: itemID, TransactionID: txID, Status: model.TransactionItemStatusFulfilled}, nil
			},
		}
		svc := newTransactionService(txRepo, &mockProductRepo{}, &mockPatientRepo{}, &mockAuditRepo{})

		_, err := svc.FulfillItem(context.Background(), itemID.String(), staffID.String())
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindConflict))
	})

	t.Run("fulfilling a refunded item clears the refund", func(t *testing.T) {
		txRepo := &mockTransactionRepo{
			FindItemByIDFn: func(ctx context.Context, id uuid.UUID) (*model.TransactionItem, error) {
				return &model.TransactionItem{
					ID:               itemID,
					TransactionID:    txID,
					Quantity:         2,
					RefundedQuantity: 1,
					Status:           model.TransactionItemStatusPartiallyRefunded,
				}, nil
			},
		}
		svc := newTransactionService(txRepo, &mockProductRepo{}, &mockPatientRepo{}, &mockAuditRepo{})

		item, err := svc.FulfillItem(context.Background(), itemID.String(), staffID.String())
		require.NoError(t, err)
		assert.Equal(t, model.TransactionItemStatusFulfilled, item.Status)
		assert.Zero(t, item.RefundedQuantity)
		assert.Nil(t, item.RefundedAt)
	})
}

func TestRefundItem(t *testing.T) {
	staffID := uuid.New()
	txID := uuid.New()
	itemID := uuid.New()
	productID := uuid.New()

	makeItem := func(qty, refunded int, status string) *model.TransactionItem {
		return &model.TransactionItem{
			ID:               itemID,
			TransactionID:    txID,
			ProductID:        productID,
			Quantity:         qty,
			RefundedQuantity: refunded,
			Status:           status,
		}
	}

	t.Run("partial refund accumulates and restores stock", func(t *testing.T) {
		var stockWrites []int
		txRepo := &mockTransactionRepo{
			FindItemByIDFn: func(ctx context.Context, id uuid.UUID) (*model.TransactionItem, error) {
				return makeItem(5, 1, model.TransactionItemStatusPartiallyRefunded), nil
			},
		}
		productRepo := &mockProductRepo{
			FindByIDForUpdateFn: func(ctx context.Context, id uuid.UUID) (*model.Product, error) {
				return &model.Product{ID: productID, Stock: 10}, nil
			},
			UpdateStockFn: func(ctx context.Context, id uuid.UUID, stock int) error {
				stockWrites = append(stockWrites, stock)
				return nil
			},
		}
		svc := newTransactionService(txRepo, productRepo, &mockPatientRepo{}, &mockAuditRepo{})

		item, err := svc.RefundItem(context.Background(), itemID.String(), staffID.String(), RefundItemRequest{RefundedQuantity: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, item.RefundedQuantity)
		assert.Equal(t, model.TransactionItemStatusPartiallyRefunded, item.Status)
		assert.NotNil(t, item.RefundedAt)
		assert.Equal(t, []int{12}, stockWrites)
	})

	t.Run("full refund flips status to refunded", func(t *testing.T) {
		txRepo := &mockTransactionRepo{
			FindItemByIDFn: func(ctx context.Context, id uuid.UUID) (*model.TransactionItem, error) {
				return makeItem(5, 3, model.TransactionItemStatusPartiallyRefunded), nil
			},
		}
		productRepo := &mockProductRepo{
			FindByIDForUpdateFn: func(ctx context.Context, id uuid.UUID) (*model.Product, error) {
				return &model.Product{ID: productID, Stock: 0}, nil
			},
		}
		svc := newTransactionService(txRepo, productRepo, &mockPatientRepo{}, &mockAuditRepo{})

		item, err := svc.RefundItem(context.Background(), itemID.String(), staffID.String(), RefundItemRequest{RefundedQuantity: 2})
		require.NoError(t, err)
		assert.Equal(t, 5, item.RefundedQuantity)
		assert.Equal(t, model.TransactionItemStatusRefunded, item.Status)
	})

	t.Run("rejects refund past sold quantity", func(t *testing.T) {
		txRepo := &mockTransactionRepo{
			FindItemByIDFn: func(ctx context.Context, id uuid.UUID) (*model.TransactionItem, error) {
				return makeItem(5, 4, model.TransactionItemStatusPartiallyRefunded), nil
			},
		}
		svc := newTransactionService(txRepo, &mockProductRepo{}, &mockPatientRepo{}, &mockAuditRepo{})

		_, err := svc.RefundItem(context.Background(), itemID.String(), staffID.String(), RefundItemRequest{RefundedQuantity: 2})
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})

	t.Run("conflict on cancelled item", func(t *testing.T) {
		txRepo := &mockTransactionRepo{
			FindItemByIDFn: func(ctx context.Context, id uuid.UUID) (*model.TransactionItem, error) {
				return makeItem(5, 0, model.TransactionItemStatusCancelled), nil
			},
		}
		svc := newTransactionService(txRepo, &mockProductRepo{}, &mockPatientRepo{}, &mockAuditRepo{})

		_, err := svc.RefundItem(context.Background(), itemID.String(), staffID.String(), RefundItemRequest{RefundedQuantity: 1})
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindConflict))
	})
}

func TestCancelTransaction(t *testing.T) {
	staffID := uuid.New()
	txID := uuid.New()
	productID := uuid.New()

	t.Run("restores only the unrefunded quantity", func(t *testing.T) {
		// 5 sold, 2 already refunded: cancellation must credit exactly 3 back.
		stockByProduct := map[uuid.UUID]int{productID: 2}
		txRepo := &mockTransactionRepo{
			FindByIDWithItemsFn: func(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
				return &model.Transaction{
					ID:            txID,
					ReceiptNumber: "R-2001",
					Status:        model.TransactionStatusPending,
					Items: []model.TransactionItem{
						{ID: uuid.New(), TransactionID: txID, ProductID: productID, Quantity: 5, RefundedQuantity: 2},
					},
				}, nil
			},
		}
		productRepo := &mockProductRepo{
			FindByIDForUpdateFn: func(ctx context.Context, id uuid.UUID) (*model.Product, error) {
				return &model.Product{ID: id, Stock: stockByProduct[id]}, nil
			},
			UpdateStockFn: func(ctx context.Context, id uuid.UUID, stock int) error {
				stockByProduct[id] = stock
				return nil
			},
		}
		svc := newTransactionService(txRepo, productRepo, &mockPatientRepo{}, &mockAuditRepo{})

		err := svc.CancelTransaction(context.Background(), txID.String(), staffID.String())
		require.NoError(t, err)
		assert.Equal(t, 5, stockByProduct[productID])
	})

	t.Run("fully refunded line credits nothing", func(t *testing.T) {
		txRepo := &mockTransactionRepo{
			FindByIDWithItemsFn: func(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
				return &model.Transaction{
					ID:     txID,
					Status: model.TransactionStatusPending,
					Items: []model.TransactionItem{
						{ID: uuid.New(), TransactionID: txID, ProductID: productID, Quantity: 3, RefundedQuantity: 3},
					},
				}, nil
			},
		}
		productRepo := &mockProductRepo{
			FindByIDForUpdateFn: func(ctx context.Context, id uuid.UUID) (*model.Product, error) {
				t.Fatal("stock lock should not be taken for a fully refunded line")
				return nil, nil
			},
		}
		svc := newTransactionService(txRepo, productRepo, &mockPatientRepo{}, &mockAuditRepo{})

		err := svc.CancelTransaction(context.Background(), txID.String(), staffID.String())
		require.NoError(t, err)
	})

	t.Run("conflict when already cancelled", func(t *testing.T) {
		txRepo := &mockTransactionRepo{
			FindByIDWithItemsFn: func(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
				return &model.Transaction{ID: txID, Status: model.TransactionStatusCancelled}, nil
			},
		}
		svc := newTransactionService(txRepo, &mockProductRepo{}, &mockPatientRepo{}, &mockAuditRepo{})

		err := svc.CancelTransaction(context.Background(), txID.String(), staffID.String())
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindConflict))
	})

	t.Run("not found", func(t *testing.T) {
		txRepo := &mockTransactionRepo{
			FindByIDWithItemsFn: func(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
				return nil, gorm.ErrRecordNotFound
			},
		}
		svc := newTransactionService(txRepo, &mockProductRepo{}, &mockPatientRepo{}, &mockAuditRepo{})

		err := svc.CancelTransaction(context.Background(), txID.String(), staffID.String())
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
	})
}

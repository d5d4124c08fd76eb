package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"optipos/internal/events"
	"optipos/internal/model"
	"optipos/internal/repository"
	"optipos/pkg/apperror"
)

// DTOs
type TransactionItemRequest struct {
	ProductID string          `json:"product_id" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required,gt=0"`
	Discount  decimal.Decimal `json:"discount"`
}

type CreateTransactionRequest struct {
	PatientID       string                   `json:"patient_id"`
	ReceiptNumber   string                   `json:"receipt_number" binding:"required"`
	DiscountPercent decimal.Decimal          `json:"discount_percent"`
	Items           []TransactionItemRequest `json:"items" binding:"required,min=1,dive"`
}

type RefundItemRequest struct {
	RefundedQuantity int `json:"refunded_quantity" binding:"required,gt=0"`
}

type CreateTransactionResponse struct {
	ID            string          `json:"id"`
	ReceiptNumber string          `json:"receipt_number"`
	SubtotalPrice decimal.Decimal `json:"subtotal_price"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	FinalPrice    decimal.Decimal `json:"final_price"`
	Status        string          `json:"status"`
}

type TransactionService interface {
	CreateTransaction(ctx context.Context, userID string, req CreateTransactionRequest) (*CreateTransactionResponse, error)
	FulfillItem(ctx context.Context, itemID string, userID string) (*model.TransactionItem, error)
	RefundItem(ctx context.Context, itemID string, userID string, req RefundItemRequest) (*model.TransactionItem, error)
	CancelTransaction(ctx context.Context, id string, userID string) error
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	ListTransactions(ctx context.Context, status, search string, page, limit int) ([]model.Transaction, int64, error)
}

type transactionService struct {
	transactionRepo repository.TransactionRepository
	productRepo     repository.ProductRepository
	patientRepo     repository.PatientRepository
	auditRepo       repository.AuditRepository
	txManager       repository.TransactionManager
	publisher       events.Publisher
}

func NewTransactionService(
	transactionRepo repository.TransactionRepository,
	productRepo repository.ProductRepository,
	patientRepo repository.PatientRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	publisher events.Publisher,
) TransactionService {
	return &transactionService{
		transactionRepo: transactionRepo,
		productRepo:     productRepo,
		patientRepo:     patientRepo,
		auditRepo:       auditRepo,
		txManager:       txManager,
		publisher:       publisher,
	}
}

// auditUserID parses the authenticated user id, tolerating absence
func auditUserID(userID string) *uuid.UUID {
	if parsed, err := uuid.Parse(userID); err == nil {
		return &parsed
	}
	return nil
}

// CreateTransaction records a sale: validates stock and receipt uniqueness,
// prices every line from the product's current pc_price (client prices are
// never trusted), inserts the transaction with its items, and decrements
// stock — all in one atomic unit.
func (s *transactionService) CreateTransaction(ctx context.Context, userID string, req CreateTransactionRequest) (*CreateTransactionResponse, error) {
	staffID, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperror.Validationf("invalid user id")
	}

	var patientID *uuid.UUID
	if req.PatientID != "" {
		parsed, parseErr := uuid.Parse(req.PatientID)
		if parseErr != nil {
			return nil, apperror.Validationf("invalid patient_id")
		}
		patientID = &parsed
	}

	transaction := model.Transaction{
		UserID:          staffID,
		PatientID:       patientID,
		ReceiptNumber:   req.ReceiptNumber,
		DiscountPercent: req.DiscountPercent,
		Status:          model.TransactionStatusPending,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if patientID != nil {
			if _, findErr := s.patientRepo.FindByID(txCtx, *patientID); findErr != nil {
				if errors.Is(findErr, gorm.ErrRecordNotFound) {
					return apperror.NotFoundf("patient not found: %s", req.PatientID)
				}
				return apperror.Internal(findErr)
			}
		}

		if _, findErr := s.transactionRepo.FindByReceiptNumber(txCtx, req.ReceiptNumber); findErr == nil {
			return apperror.Validationf("receipt number already exists: %s", req.ReceiptNumber)
		} else if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return apperror.Internal(findErr)
		}

		subtotal := decimal.Zero
		totalDiscount := decimal.Zero
		items := make([]model.TransactionItem, 0, len(req.Items))

		for _, itemReq := range req.Items {
			pid, parseErr := uuid.Parse(itemReq.ProductID)
			if parseErr != nil {
				return apperror.Validationf("invalid product_id: %s", itemReq.ProductID)
			}

			product, findErr := s.productRepo.FindByIDForUpdate(txCtx, pid)
			if findErr != nil {
				if errors.Is(findErr, gorm.ErrRecordNotFound) {
					return apperror.NotFoundf("product not found: %s", itemReq.ProductID)
				}
				return apperror.Internal(findErr)
			}

			if itemReq.Quantity > product.Stock {
				return apperror.Validationf("insufficient stock for %s: requested %d, available %d",
					product.Code, itemReq.Quantity, product.Stock)
			}

			// Unit price comes from the product row, never from the client
			lineTotal := product.PcPrice.Mul(decimal.NewFromInt(int64(itemReq.Quantity)))
			subtotal = subtotal.Add(lineTotal)
			totalDiscount = totalDiscount.Add(itemReq.Discount)

			items = append(items, model.TransactionItem{
				ProductID: pid,
				Quantity:  itemReq.Quantity,
				UnitPrice: product.PcPrice,
				Discount:  itemReq.Discount,
				Status:    model.TransactionItemStatusPending,
			})

			if stockErr := s.productRepo.UpdateStock(txCtx, pid, product.Stock-itemReq.Quantity); stockErr != nil {
				return apperror.Internal(stockErr)
			}
		}

		transaction.SubtotalPrice = subtotal
		transaction.TotalDiscount = totalDiscount
		transaction.FinalPrice = subtotal.Sub(totalDiscount)

		if createErr := s.transactionRepo.Create(txCtx, &transaction); createErr != nil {
			return apperror.Internal(createErr)
		}

		for i := range items {
			items[i].TransactionID = transaction.ID
			if createErr := s.transactionRepo.CreateItem(txCtx, &items[i]); createErr != nil {
				return apperror.Internal(createErr)
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"receipt_number": req.ReceiptNumber,
			"subtotal_price": transaction.SubtotalPrice,
			"total_discount": transaction.TotalDiscount,
			"final_price":    transaction.FinalPrice,
			"item_count":     len(items),
		})
		audit := &model.AuditLog{
			UserID:     auditUserID(userID),
			Action:     model.ActionCreateTransaction,
			EntityID:   transaction.ID.String(),
			EntityName: transaction.ReceiptNumber,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return apperror.Internal(auditErr)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	resp := &CreateTransactionResponse{
		ID:            transaction.ID.String(),
		ReceiptNumber: transaction.ReceiptNumber,
		SubtotalPrice: transaction.SubtotalPrice,
		TotalDiscount: transaction.TotalDiscount,
		FinalPrice:    transaction.FinalPrice,
		Status:        transaction.Status,
	}

	s.publisher.Publish(events.RoomTransactions, events.Change("transaction-updated", events.ChangeAdded, "transaction", resp))
	s.publisher.Publish(events.RoomInventory, events.Change("inventory-updated", events.ChangeUpdated, "transaction_id", resp.ID))

	return resp, nil
}

// FulfillItem marks a single line as handed over. When the last sibling flips
// to fulfilled the parent transaction is promoted as well — that derivation is
// the only way a transaction reaches fulfilled.
func (s *transactionService) FulfillItem(ctx context.Context, itemID string, userID string) (*model.TransactionItem, error) {
	id, err := uuid.Parse(itemID)
	if err != nil {
		return nil, apperror.Validationf("invalid item id")
	}

	var item *model.TransactionItem
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		item, findErr = s.transactionRepo.FindItemByID(txCtx, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperror.NotFoundf("transaction item not found: %s", itemID)
			}
			return apperror.Internal(findErr)
		}

		if item.Status == model.TransactionItemStatusFulfilled {
			return apperror.Conflictf("transaction item already fulfilled: %s", itemID)
		}

		item.Status = model.TransactionItemStatusFulfilled
		item.RefundedQuantity = 0
		item.RefundedAt = nil
		if updateErr := s.transactionRepo.UpdateItem(txCtx, item); updateErr != nil {
			return apperror.Internal(updateErr)
		}

		siblings, listErr := s.transactionRepo.FindItemsByTransactionID(txCtx, item.TransactionID)
		if listErr != nil {
			return apperror.Internal(listErr)
		}
		allFulfilled := true
		for _, sibling := range siblings {
			if sibling.Status != model.TransactionItemStatusFulfilled {
				allFulfilled = false
				break
			}
		}
		if allFulfilled {
			if updateErr := s.transactionRepo.UpdateStatus(txCtx, item.TransactionID, model.TransactionStatusFulfilled); updateErr != nil {
				return apperror.Internal(updateErr)
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"transaction_id":        item.TransactionID.String(),
			"transaction_fulfilled": allFulfilled,
		})
		audit := &model.AuditLog{
			UserID:   auditUserID(userID),
			Action:   model.ActionFulfillTransactionItem,
			EntityID: item.ID.String(),
			Details:  string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return apperror.Internal(auditErr)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	s.publisher.Publish(events.RoomTransactions, events.Change("transaction-updated", events.ChangeUpdated, "item", item))
	return item, nil
}

// RefundItem adds to the line's running refunded quantity and restores the
// product's stock by the same amount. Refunds are strictly additive — a prior
// refund can never be reduced.
func (s *transactionService) RefundItem(ctx context.Context, itemID string, userID string, req RefundItemRequest) (*model.TransactionItem, error) {
	id, err := uuid.Parse(itemID)
	if err != nil {
		return nil, apperror.Validationf("invalid item id")
	}
	if req.RefundedQuantity <= 0 {
		return nil, apperror.Validationf("refunded_quantity must be greater than zero")
	}

	var item *model.TransactionItem
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		item, findErr = s.transactionRepo.FindItemByID(txCtx, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperror.NotFoundf("transaction item not found: %s", itemID)
			}
			return apperror.Internal(findErr)
		}

		if item.Status == model.TransactionItemStatusCancelled {
			return apperror.Conflictf("transaction item is cancelled: %s", itemID)
		}

		newRefunded := item.RefundedQuantity + req.RefundedQuantity
		if newRefunded > item.Quantity {
			return apperror.Validationf("refund exceeds sold quantity: %d already refunded of %d, requested %d",
				item.RefundedQuantity, item.Quantity, req.RefundedQuantity)
		}

		now := time.Now()
		item.RefundedQuantity = newRefunded
		item.RefundedAt = &now
		if newRefunded == item.Quantity {
			item.Status = model.TransactionItemStatusRefunded
		} else {
			item.Status = model.TransactionItemStatusPartiallyRefunded
		}
		if updateErr := s.transactionRepo.UpdateItem(txCtx, item); updateErr != nil {
			return apperror.Internal(updateErr)
		}

		product, findErr := s.productRepo.FindByIDForUpdate(txCtx, item.ProductID)
		if findErr != nil {
			return apperror.Internal(findErr)
		}
		if stockErr := s.productRepo.UpdateStock(txCtx, product.ID, product.Stock+req.RefundedQuantity); stockErr != nil {
			return apperror.Internal(stockErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"transaction_id":    item.TransactionID.String(),
			"refunded_quantity": req.RefundedQuantity,
			"total_refunded":    newRefunded,
		})
		audit := &model.AuditLog{
			UserID:   auditUserID(userID),
			Action:   model.ActionRefundTransactionItem,
			EntityID: item.ID.String(),
			Details:  string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return apperror.Internal(auditErr)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	s.publisher.Publish(events.RoomTransactions, events.Change("transaction-updated", events.ChangeUpdated, "item", item))
	s.publisher.Publish(events.RoomInventory, events.Change("inventory-updated", events.ChangeUpdated, "product_id", item.ProductID.String()))
	return item, nil
}

// CancelTransaction reverses the sale. Stock comes back for each line's
// quantity minus what was already individually refunded, so cancellation
// after a partial refund never double-credits inventory.
func (s *transactionService) CancelTransaction(ctx context.Context, id string, userID string) error {
	txID, err := uuid.Parse(id)
	if err != nil {
		return apperror.Validationf("invalid transaction id")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		transaction, findErr := s.transactionRepo.FindByIDWithItems(txCtx, txID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperror.NotFoundf("transaction not found: %s", id)
			}
			return apperror.Internal(findErr)
		}

		if transaction.Status == model.TransactionStatusCancelled {
			return apperror.Conflictf("transaction already cancelled: %s", id)
		}

		for i := range transaction.Items {
			item := &transaction.Items[i]

			restore := item.Quantity - item.RefundedQuantity
			if restore > 0 {
				product, lockErr := s.productRepo.FindByIDForUpdate(txCtx, item.ProductID)
				if lockErr != nil {
					return apperror.Internal(lockErr)
				}
				if stockErr := s.productRepo.UpdateStock(txCtx, product.ID, product.Stock+restore); stockErr != nil {
					return apperror.Internal(stockErr)
				}
			}

			item.Status = model.TransactionItemStatusCancelled
			if updateErr := s.transactionRepo.UpdateItem(txCtx, item); updateErr != nil {
				return apperror.Internal(updateErr)
			}
		}

		if updateErr := s.transactionRepo.UpdateStatus(txCtx, txID, model.TransactionStatusCancelled); updateErr != nil {
			return apperror.Internal(updateErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"receipt_number": transaction.ReceiptNumber,
			"item_count":     len(transaction.Items),
		})
		audit := &model.AuditLog{
			UserID:     auditUserID(userID),
			Action:     model.ActionCancelTransaction,
			EntityID:   transaction.ID.String(),
			EntityName: transaction.ReceiptNumber,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return apperror.Internal(auditErr)
		}

		return nil
	})

	if err != nil {
		return err
	}

	s.publisher.Publish(events.RoomTransactions, events.Change("transaction-updated", events.ChangeUpdated, "transaction_id", id))
	s.publisher.Publish(events.RoomInventory, events.Change("inventory-updated", events.ChangeUpdated, "transaction_id", id))
	return nil
}

func (s *transactionService) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	txID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validationf("invalid transaction id")
	}

	transaction, err := s.transactionRepo.FindByIDWithItems(ctx, txID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFoundf("transaction not found: %s", id)
		}
		return nil, apperror.Internal(err)
	}
	return transaction, nil
}

func (s *transactionService) ListTransactions(ctx context.Context, status, search string, page, limit int) ([]model.Transaction, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	transactions, total, err := s.transactionRepo.List(ctx, status, search, page, limit)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return transactions, total, nil
}

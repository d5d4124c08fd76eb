package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"optipos/internal/events"
	"optipos/internal/model"
	"optipos/internal/repository"
	"optipos/pkg/apperror"
)

// DTOs
type SupplierRequest struct {
	Name          string `json:"name" binding:"required"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email" binding:"omitempty,email"`
	Address       string `json:"address"`
	Notes         string `json:"notes"`
}

type SupplierService interface {
	CreateSupplier(ctx context.Context, userID string, req SupplierRequest) (*model.Supplier, error)
	UpdateSupplier(ctx context.Context, userID string, id string, req SupplierRequest) (*model.Supplier, error)
	DeleteSupplier(ctx context.Context, userID string, id string) error
	GetSupplier(ctx context.Context, id string) (*model.Supplier, error)
	ListSuppliers(ctx context.Context, search string, page, limit int) ([]model.Supplier, int64, error)
}

type supplierService struct {
	supplierRepo repository.SupplierRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	publisher    events.Publisher
}

func NewSupplierService(
	supplierRepo repository.SupplierRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	publisher events.Publisher,
) SupplierService {
	return &supplierService{
		supplierRepo: supplierRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		publisher:    publisher,
	}
}

func (s *supplierService) CreateSupplier(ctx context.Context, userID string, req SupplierRequest) (*model.Supplier, error) {
	supplier := model.Supplier{
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		Notes:         req.Notes,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.supplierRepo.Create(txCtx, &supplier); createErr != nil {
			return apperror.Internal(createErr)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:     auditUserID(userID),
			Action:     model.ActionCreateSupplier,
			EntityID:   supplier.ID.String(),
			EntityName: supplier.Name,
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

	s.publisher.Publish(events.RoomSuppliers, events.Change("supplier-updated", events.ChangeAdded, "supplier", supplier))
	return &supplier, nil
}

func (s *supplierService) UpdateSupplier(ctx context.Context, userID string, id string, req SupplierRequest) (*model.Supplier, error) {
	supplierID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validationf("invalid supplier id")
	}

	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFoundf("supplier not found: %s", id)
		}
		return nil, apperror.Internal(err)
	}

	supplier.Name = req.Name
	supplier.ContactPerson = req.ContactPerson
	supplier.Phone = req.Phone
	supplier.Email = req.Email
	supplier.Address = req.Address
	supplier.Notes = req.Notes

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.supplierRepo.Update(txCtx, supplier); updateErr != nil {
			return apperror.Internal(updateErr)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:     auditUserID(userID),
			Action:     model.ActionUpdateSupplier,
			EntityID:   supplier.ID.String(),
			EntityName: supplier.Name,
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

	s.publisher.Publish(events.RoomSuppliers, events.Change("supplier-updated", events.ChangeUpdated, "supplier", supplier))
	return supplier, nil
}

func (s *supplierService) DeleteSupplier(ctx context.Context, userID string, id string) error {
	supplierID, err := uuid.Parse(id)
	if err != nil {
		return apperror.Validationf("invalid supplier id")
	}

	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFoundf("supplier not found: %s", id)
		}
		return apperror.Internal(err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if deleteErr := s.supplierRepo.Delete(txCtx, supplierID); deleteErr != nil {
			return apperror.Internal(deleteErr)
		}

		audit := &model.AuditLog{
			UserID:     auditUserID(userID),
			Action:     model.ActionDeleteSupplier,
			EntityID:   id,
			EntityName: supplier.Name,
			Details:    `{"deleted": true}`,
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return apperror.Internal(auditErr)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publisher.Publish(events.RoomSuppliers, events.Change("supplier-updated", events.ChangeDeleted, "supplier_id", id))
	return nil
}

func (s *supplierService) GetSupplier(ctx context.Context, id string) (*model.Supplier, error) {
	supplierID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validationf("invalid supplier id")
	}

	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFoundf("supplier not found: %s", id)
		}
		return nil, apperror.Internal(err)
	}
	return supplier, nil
}

func (s *supplierService) ListSuppliers(ctx context.Context, search string, page, limit int) ([]model.Supplier, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	suppliers, total, err := s.supplierRepo.List(ctx, search, page, limit)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return suppliers, total, nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"optipos/internal/events"
	"optipos/internal/model"
	"optipos/internal/repository"
	"optipos/pkg/apperror"
)

// DTOs
type PatientRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Phone     string `json:"phone"`
	Email     string `json:"email" binding:"omitempty,email"`
	BirthDate string `json:"birth_date"` // YYYY-MM-DD
	Address   string `json:"address"`
	Notes     string `json:"notes"`
}

type SpectaclePrescriptionRequest struct {
	ODSphere string `json:"od_sphere"`
	ODCyl    string `json:"od_cyl"`
	ODAxis   string `json:"od_axis"`
	ODAdd    string `json:"od_add"`
	OSSphere string `json:"os_sphere"`
	OSCyl    string `json:"os_cyl"`
	OSAxis   string `json:"os_axis"`
	OSAdd    string `json:"os_add"`
	PD       string `json:"pd"`
}

type ContactLensPrescriptionRequest struct {
	ODPower     string `json:"od_power"`
	ODBaseCurve string `json:"od_base_curve"`
	ODDiameter  string `json:"od_diameter"`
	OSPower     string `json:"os_power"`
	OSBaseCurve string `json:"os_base_curve"`
	OSDiameter  string `json:"os_diameter"`
	Brand       string `json:"brand"`
}

type CreateCheckupRequest struct {
	CheckupDate string                          `json:"checkup_date" binding:"required"` // YYYY-MM-DD
	Notes       string                          `json:"notes"`
	Spectacle   *SpectaclePrescriptionRequest   `json:"spectacle_prescription"`
	ContactLens *ContactLensPrescriptionRequest `json:"contact_lens_prescription"`
}

type PatientService interface {
	CreatePatient(ctx context.Context, userID string, req PatientRequest) (*model.Patient, error)
	UpdatePatient(ctx context.Context, userID string, id string, req PatientRequest) (*model.Patient, error)
	DeletePatient(ctx context.Context, userID string, id string) error
	GetPatient(ctx context.Context, id string) (*model.Patient, error)
	ListPatients(ctx context.Context, search string, page, limit int) ([]model.Patient, int64, error)

	CreateCheckup(ctx context.Context, userID string, patientID string, req CreateCheckupRequest) (*model.Checkup, error)
	GetCheckup(ctx context.Context, id string) (*model.Checkup, error)
	ListCheckups(ctx context.Context, patientID string, page, limit int) ([]model.Checkup, int64, error)
	DeleteCheckup(ctx context.Context, userID string, id string) error
}

type patientService struct {
	patientRepo repository.PatientRepository
	checkupRepo repository.CheckupRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	publisher   events.Publisher
}

func NewPatientService(
	patientRepo repository.PatientRepository,
	checkupRepo repository.CheckupRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	publisher events.Publisher,
) PatientService {
	return &patientService{
		patientRepo: patientRepo,
		checkupRepo: checkupRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		publisher:   publisher,
	}
}

func parseBirthDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, apperror.Validationf("invalid birth_date, expected YYYY-MM-DD")
	}
	return &parsed, nil
}

func (s *patientService) CreatePatient(ctx context.Context, userID string, req PatientRequest) (*model.Patient, error) {
	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}

	patient := model.Patient{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Email:     req.Email,
		BirthDate: birthDate,
		Address:   req.Address,
		Notes:     req.Notes,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.patientRepo.Create(txCtx, &patient); createErr != nil {
			return apperror.Internal(createErr)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:     auditUserID(userID),
			Action:     model.ActionCreatePatient,
			EntityID:   patient.ID.String(),
			EntityName: patient.FirstName + " " + patient.LastName,
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

	s.publisher.Publish(events.RoomPatients, events.Change("patient-updated", events.ChangeAdded, "patient", patient))
	return &patient, nil
}

func (s *patientService) UpdatePatient(ctx context.Context, userID string, id string, req PatientRequest) (*model.Patient, error) {
	patientID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validationf("invalid patient id")
	}

	patient, err := s.patientRepo.FindByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFoundf("patient not found: %s", id)
		}
		return nil, apperror.Internal(err)
	}

	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}

	patient.FirstName = req.FirstName
	patient.LastName = req.LastName
	patient.Phone = req.Phone
	patient.Email = req.Email
	patient.BirthDate = birthDate
	patient.Address = req.Address
	patient.Notes = req.Notes

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.patientRepo.Update(txCtx, patient); updateErr != nil {
			return apperror.Internal(updateErr)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:     auditUserID(userID),
			Action:     model.ActionUpdatePatient,
			EntityID:   patient.ID.String(),
			EntityName: patient.FirstName + " " + patient.LastName,
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

	s.publisher.Publish(events.RoomPatients, events.Change("patient-updated", events.ChangeUpdated, "patient", patient))
	return patient, nil
}

func (s *patientService) DeletePatient(ctx context.Context, userID string, id string) error {
	patientID, err := uuid.Parse(id)
	if err != nil {
		return apperror.Validationf("invalid patient id")
	}

	patient, err := s.patientRepo.FindByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFoundf("patient not found: %s", id)
		}
		return apperror.Internal(err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if deleteErr := s.patientRepo.Delete(txCtx, patientID); deleteErr != nil {
			return apperror.Internal(deleteErr)
		}

		audit := &model.AuditLog{
			UserID:     auditUserID(userID),
			Action:     model.ActionDeletePatient,
			EntityID:   id,
			EntityName: patient.FirstName + " " + patient.LastName,
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

	s.publisher.Publish(events.RoomPatients, events.Change("patient-updated", events.ChangeDeleted, "patient_id", id))
	return nil
}

func (s *patientService) GetPatient(ctx context.Context, id string) (*model.Patient, error) {
	patientID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validationf("invalid patient id")
	}

	patient, err := s.patientRepo.FindByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFoundf("patient not found: %s", id)
		}
		return nil, apperror.Internal(err)
	}
	return patient, nil
}

func (s *patientService) ListPatients(ctx context.Context, search string, page, limit int) ([]model.Patient, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	patients, total, err := s.patientRepo.List(ctx, search, page, limit)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return patients, total, nil
}

// CreateCheckup inserts the checkup and its optional prescriptions in one
// atomic unit.
func (s *patientService) CreateCheckup(ctx context.Context, userID string, patientID string, req CreateCheckupRequest) (*model.Checkup, error) {
	pid, err := uuid.Parse(patientID)
	if err != nil {
		return nil, apperror.Validationf("invalid patient id")
	}
	checkupDate, err := time.Parse("2006-01-02", req.CheckupDate)
	if err != nil {
		return nil, apperror.Validationf("invalid checkup_date, expected YYYY-MM-DD")
	}

	checkup := model.Checkup{
		PatientID:   pid,
		CheckupDate: checkupDate,
		Notes:       req.Notes,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, findErr := s.patientRepo.FindByID(txCtx, pid); findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperror.NotFoundf("patient not found: %s", patientID)
			}
			return apperror.Internal(findErr)
		}

		if createErr := s.checkupRepo.Create(txCtx, &checkup); createErr != nil {
			return apperror.Internal(createErr)
		}

		if req.Spectacle != nil {
			rx := &model.SpectaclePrescription{
				CheckupID: checkup.ID,
				ODSphere:  req.Spectacle.ODSphere,
				ODCyl:     req.Spectacle.ODCyl,
				ODAxis:    req.Spectacle.ODAxis,
				ODAdd:     req.Spectacle.ODAdd,
				OSSphere:  req.Spectacle.OSSphere,
				OSCyl:     req.Spectacle.OSCyl,
				OSAxis:    req.Spectacle.OSAxis,
				OSAdd:     req.Spectacle.OSAdd,
				PD:        req.Spectacle.PD,
			}
			if createErr := s.checkupRepo.CreateSpectaclePrescription(txCtx, rx); createErr != nil {
				return apperror.Internal(createErr)
			}
			checkup.Spectacle = rx
		}

		if req.ContactLens != nil {
			rx := &model.ContactLensPrescription{
				CheckupID:   checkup.ID,
				ODPower:     req.ContactLens.ODPower,
				ODBaseCurve: req.ContactLens.ODBaseCurve,
				ODDiameter:  req.ContactLens.ODDiameter,
				OSPower:     req.ContactLens.OSPower,
				OSBaseCurve: req.ContactLens.OSBaseCurve,
				OSDiameter:  req.ContactLens.OSDiameter,
				Brand:       req.ContactLens.Brand,
			}
			if createErr := s.checkupRepo.CreateContactLensPrescription(txCtx, rx); createErr != nil {
				return apperror.Internal(createErr)
			}
			checkup.ContactLens = rx
		}

		details, _ := json.Marshal(map[string]interface{}{
			"patient_id":   patientID,
			"checkup_date": req.CheckupDate,
			"spectacle":    req.Spectacle != nil,
			"contact_lens": req.ContactLens != nil,
		})
		audit := &model.AuditLog{
			UserID:   auditUserID(userID),
			Action:   model.ActionCreateCheckup,
			EntityID: checkup.ID.String(),
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

	s.publisher.Publish(events.RoomCheckups, events.Change("checkup-updated", events.ChangeAdded, "checkup", checkup))
	return &checkup, nil
}

func (s *patientService) GetCheckup(ctx context.Context, id string) (*model.Checkup, error) {
	checkupID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validationf("invalid checkup id")
	}

	checkup, err := s.checkupRepo.FindByID(ctx, checkupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFoundf("checkup not found: %s", id)
		}
		return nil, apperror.Internal(err)
	}
	return checkup, nil
}

func (s *patientService) ListCheckups(ctx context.Context, patientID string, page, limit int) ([]model.Checkup, int64, error) {
	pid, err := uuid.Parse(patientID)
	if err != nil {
		return nil, 0, apperror.Validationf("invalid patient id")
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	checkups, total, err := s.checkupRepo.ListByPatient(ctx, pid, page, limit)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return checkups, total, nil
}

func (s *patientService) DeleteCheckup(ctx context.Context, userID string, id string) error {
	checkupID, err := uuid.Parse(id)
	if err != nil {
		return apperror.Validationf("invalid checkup id")
	}

	checkup, err := s.checkupRepo.FindByID(ctx, checkupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFoundf("checkup not found: %s", id)
		}
		return apperror.Internal(err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if deleteErr := s.checkupRepo.Delete(txCtx, checkupID); deleteErr != nil {
			return apperror.Internal(deleteErr)
		}

		audit := &model.AuditLog{
			UserID:     auditUserID(userID),
			Action:     model.ActionDeleteCheckup,
			EntityID:   id,
			EntityName: checkup.CheckupDate.Format("2006-01-02"),
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

	s.publisher.Publish(events.RoomCheckups, events.Change("checkup-updated", events.ChangeDeleted, "checkup_id", id))
	return nil
}

package models

import (
	"reflect"

	"github.com/go-playground/validator/v10"
)

/*
RegisterWithValidator register with the validator this custom validation support

	@param v *validator.Validate - the validator to register against
	@return whether successful
*/
func RegisterWithValidator(v *validator.Validate) error {
	checks := map[string]validator.Func{
		"qms_process":           validateProcessType,
		"qms_doc_type":          validateDocumentType,
		"doc_status":            validateDocumentStatusType,
		"proposal_status":       validateProposalStatusType,
		"document_kind":         validateDocumentKindType,
		"action_origin":         validateActionOriginType,
		"action_class":          validateActionClassType,
		"disposition_choice":    validateDispositionChoiceType,
		"disposition_execution": validateDispositionExecutionType,
	}

	for name, check := range checks {
		if err := v.RegisterValidation(name, check); err != nil {
			return err
		}
	}

	return nil
}

func validateProcessType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch ProcessENUMType(fl.Field().String()) {
	case ProcessStrategicPlanning:
		fallthrough
	case ProcessQualitySafety:
		fallthrough
	case ProcessClients:
		fallthrough
	case ProcessProduction:
		fallthrough
	case ProcessHumanTalent:
		fallthrough
	case ProcessSuppliers:
		fallthrough
	case ProcessAdministrative:
		return true
	}
	return false
}

func validateDocumentType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch DocumentTypeENUMType(fl.Field().String()) {
	case DocumentTypeManual:
		fallthrough
	case DocumentTypeProcedure:
		fallthrough
	case DocumentTypeRecord:
		fallthrough
	case DocumentTypeInstructional:
		return true
	}
	return false
}

func validateDocumentStatusType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch DocumentStatusENUMType(fl.Field().String()) {
	case DocumentStatusDraft:
		fallthrough
	case DocumentStatusPendingApproval:
		fallthrough
	case DocumentStatusApproved:
		fallthrough
	case DocumentStatusRejected:
		fallthrough
	case DocumentStatusInReview:
		fallthrough
	case DocumentStatusObsolete:
		return true
	}
	return false
}

func validateProposalStatusType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch ProposalStatusENUMType(fl.Field().String()) {
	case ProposalStatusPending:
		fallthrough
	case ProposalStatusApproved:
		fallthrough
	case ProposalStatusRejected:
		return true
	}
	return false
}

func validateDocumentKindType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch DocumentKindENUMType(fl.Field().String()) {
	case DocumentKindForm:
		fallthrough
	case DocumentKindTemplate:
		return true
	}
	return false
}

func validateActionOriginType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch ActionOriginENUMType(fl.Field().String()) {
	case ActionOriginAudit:
		fallthrough
	case ActionOriginComplaint:
		fallthrough
	case ActionOriginSatisfaction:
		fallthrough
	case ActionOriginSelfControl:
		fallthrough
	case ActionOriginRiskAnalysis:
		fallthrough
	case ActionOriginNonConforming:
		return true
	}
	return false
}

func validateActionClassType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch ActionClassENUMType(fl.Field().String()) {
	case ActionClassCorrection:
		fallthrough
	case ActionClassCorrective:
		fallthrough
	case ActionClassPreventive:
		return true
	}
	return false
}

func validateDispositionChoiceType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch DispositionChoiceENUMType(fl.Field().String()) {
	case DispositionKeep:
		fallthrough
	case DispositionDestroy:
		fallthrough
	case DispositionMicrofilm:
		return true
	}
	return false
}

func validateDispositionExecutionType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch DispositionExecutionENUMType(fl.Field().String()) {
	case DispositionExecutionPending:
		fallthrough
	case DispositionExecutionDone:
		fallthrough
	case DispositionExecutionNotApplicable:
		return true
	}
	return false
}

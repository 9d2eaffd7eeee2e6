package tracking

import (
	"fmt"

	"github.com/Additional-Code/millflow/internal/entity"
	"github.com/Additional-Code/millflow/pkg/errorbank"
)

const (
	CodeStageLocked         errorbank.Code = "stage_locked"
	CodeUnknownUnit         errorbank.Code = "unknown_unit"
	CodeQuotaExceeded       errorbank.Code = "quota_exceeded"
	CodeAlreadyPackaged     errorbank.Code = "already_packaged"
	CodeAlreadyShipped      errorbank.Code = "already_shipped"
	CodeUnknownPackage      errorbank.Code = "unknown_package"
	CodeIncompleteShipment  errorbank.Code = "incomplete_shipment"
	CodeNotEligibleForSplit errorbank.Code = "not_eligible_for_split"
	CodeInvalidReworkTarget errorbank.Code = "invalid_rework_target"
	CodeShortageUnconfirmed errorbank.Code = "shortage_unconfirmed"
	CodeInvalidTransition   errorbank.Code = "invalid_transition"
	CodeTaskNotFound        errorbank.Code = "task_not_found"
	CodeDetailNotFound      errorbank.Code = "detail_not_found"
	CodePackageNotFound     errorbank.Code = "package_not_found"
	CodeInvalidArgument     errorbank.Code = "invalid_argument"
)

// Sentinels for errors.Is checks. Errors returned by the engine carry the
// same code plus operation specific details.
var (
	ErrStageLocked         = errorbank.Unprocessable("stage locked", errorbank.WithCode(CodeStageLocked))
	ErrUnknownUnit         = errorbank.NotFound("unknown unit", errorbank.WithCode(CodeUnknownUnit))
	ErrQuotaExceeded       = errorbank.Conflict("quota exceeded", errorbank.WithCode(CodeQuotaExceeded))
	ErrAlreadyPackaged     = errorbank.Conflict("already packaged", errorbank.WithCode(CodeAlreadyPackaged))
	ErrAlreadyShipped      = errorbank.Conflict("already shipped", errorbank.WithCode(CodeAlreadyShipped))
	ErrUnknownPackage      = errorbank.NotFound("unknown package", errorbank.WithCode(CodeUnknownPackage))
	ErrIncompleteShipment  = errorbank.Unprocessable("incomplete shipment", errorbank.WithCode(CodeIncompleteShipment))
	ErrNotEligibleForSplit = errorbank.Unprocessable("not eligible for split", errorbank.WithCode(CodeNotEligibleForSplit))
	ErrInvalidReworkTarget = errorbank.BadRequest("invalid rework target", errorbank.WithCode(CodeInvalidReworkTarget))
	ErrShortageUnconfirmed = errorbank.Conflict("shortage not confirmed", errorbank.WithCode(CodeShortageUnconfirmed))
	ErrInvalidTransition   = errorbank.Unprocessable("invalid status transition", errorbank.WithCode(CodeInvalidTransition))
	ErrTaskNotFound        = errorbank.NotFound("task not found", errorbank.WithCode(CodeTaskNotFound))
	ErrDetailNotFound      = errorbank.NotFound("detail not found", errorbank.WithCode(CodeDetailNotFound))
	ErrPackageNotFound     = errorbank.NotFound("package not found", errorbank.WithCode(CodePackageNotFound))
	ErrInvalidArgument     = errorbank.BadRequest("invalid argument", errorbank.WithCode(CodeInvalidArgument))
)

func stageLocked(stage, blocking entity.Stage) error {
	return errorbank.Unprocessable(
		fmt.Sprintf("stage %s is locked until %s is completed", stage, blocking),
		errorbank.WithCode(CodeStageLocked),
		errorbank.WithDetail("stage", string(stage)),
		errorbank.WithDetail("blocking_stage", string(blocking)),
	)
}

func unknownUnit(stage entity.Stage, code string) error {
	return errorbank.NotFound(
		fmt.Sprintf("code %s is not expected at %s", code, stage),
		errorbank.WithCode(CodeUnknownUnit),
		errorbank.WithDetail("stage", string(stage)),
		errorbank.WithDetail("code", code),
	)
}

func quotaExceeded(stage entity.Stage, code string, quantity, plan int) error {
	return errorbank.Conflict(
		fmt.Sprintf("code %s already has %d of %d units at %s", code, quantity, plan, stage),
		errorbank.WithCode(CodeQuotaExceeded),
		errorbank.WithDetail("stage", string(stage)),
		errorbank.WithDetail("code", code),
		errorbank.WithDetail("quantity", quantity),
		errorbank.WithDetail("plan_quantity", plan),
	)
}

func alreadyPackaged(code, qr string) error {
	return errorbank.Conflict(
		fmt.Sprintf("code %s is already in package %s", code, qr),
		errorbank.WithCode(CodeAlreadyPackaged),
		errorbank.WithDetail("code", code),
		errorbank.WithDetail("package_qr", qr),
	)
}

func alreadyShipped(qr string) error {
	return errorbank.Conflict(
		fmt.Sprintf("package %s has already been shipped", qr),
		errorbank.WithCode(CodeAlreadyShipped),
		errorbank.WithDetail("package_qr", qr),
	)
}

func unknownPackage(qr string) error {
	return errorbank.NotFound(
		fmt.Sprintf("no package with QR %s", qr),
		errorbank.WithCode(CodeUnknownPackage),
		errorbank.WithDetail("package_qr", qr),
	)
}

func incompleteShipment(scanned, total int) error {
	return errorbank.Unprocessable(
		fmt.Sprintf("only %d of %d packages loaded", scanned, total),
		errorbank.WithCode(CodeIncompleteShipment),
		errorbank.WithDetail("scanned_packages", scanned),
		errorbank.WithDetail("total_packages", total),
	)
}

func notEligibleForSplit(code, reason string) error {
	return errorbank.Unprocessable(
		fmt.Sprintf("detail %s cannot be split: %s", code, reason),
		errorbank.WithCode(CodeNotEligibleForSplit),
		errorbank.WithDetail("code", code),
		errorbank.WithDetail("reason", reason),
	)
}

func invalidReworkTarget(from, to entity.Stage, reason string) error {
	return errorbank.BadRequest(
		fmt.Sprintf("cannot return from %s to %s: %s", from, to, reason),
		errorbank.WithCode(CodeInvalidReworkTarget),
		errorbank.WithDetail("from_stage", string(from)),
		errorbank.WithDetail("to_stage", string(to)),
	)
}

func shortageUnconfirmed(stage entity.Stage, scanned, planned int) error {
	return errorbank.Conflict(
		fmt.Sprintf("%s has %d of %d units scanned; confirm the shortage to complete", stage, scanned, planned),
		errorbank.WithCode(CodeShortageUnconfirmed),
		errorbank.WithDetail("stage", string(stage)),
		errorbank.WithDetail("scanned", scanned),
		errorbank.WithDetail("planned", planned),
	)
}

func invalidTransition(stage entity.Stage, from, to entity.TaskStatus) error {
	return errorbank.Unprocessable(
		fmt.Sprintf("%s cannot move from %s to %s", stage, from, to),
		errorbank.WithCode(CodeInvalidTransition),
		errorbank.WithDetail("stage", string(stage)),
		errorbank.WithDetail("from", string(from)),
		errorbank.WithDetail("to", string(to)),
	)
}

func taskNotFound(stage entity.Stage) error {
	return errorbank.NotFound(
		fmt.Sprintf("order has no %s task", stage),
		errorbank.WithCode(CodeTaskNotFound),
		errorbank.WithDetail("stage", string(stage)),
	)
}

func detailNotFound(id string) error {
	return errorbank.NotFound("detail not found",
		errorbank.WithCode(CodeDetailNotFound),
		errorbank.WithDetail("detail_id", id),
	)
}

func packageNotFound(id string) error {
	return errorbank.NotFound("package not found",
		errorbank.WithCode(CodePackageNotFound),
		errorbank.WithDetail("package_id", id),
	)
}

func invalidArgument(message string) error {
	return errorbank.BadRequest(message, errorbank.WithCode(CodeInvalidArgument))
}

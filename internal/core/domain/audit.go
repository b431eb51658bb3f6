package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionRegister      AuditAction = "REGISTER"
	AuditActionLogin         AuditAction = "LOGIN"
	AuditActionOpenAccount   AuditAction = "OPEN_ACCOUNT"
	AuditActionCloseAccount  AuditAction = "CLOSE_ACCOUNT"
	AuditActionDeposit       AuditAction = "DEPOSIT"
	AuditActionWithdraw      AuditAction = "WITHDRAW"
	AuditActionTransfer      AuditAction = "TRANSFER"
	AuditActionIssueCard     AuditAction = "ISSUE_CARD"
	AuditActionChargeCard    AuditAction = "CHARGE_CARD"
	AuditActionPayCard       AuditAction = "PAY_CARD"
	AuditActionDeleteCard    AuditAction = "DELETE_CARD"
	AuditActionSettlementRun AuditAction = "SETTLEMENT_RUN"
)

// AuditLog records a single audited action in the system.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	MemberID     *uuid.UUID  `json:"member_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}

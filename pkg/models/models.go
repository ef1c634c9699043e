package models

import (
	"time"

	"github.com/google/uuid"
)

/* =============================== Enums ================================== */

// Role defines the type of user on the platform.
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleOwner       Role = "OWNER"
	RoleBroker      Role = "BROKER"
	RoleTenant      Role = "TENANT"
	RoleRunner      Role = "RUNNER"
	RoleMaintenance Role = "MAINTENANCE"
)

// CaseStatus defines lifecycle states for a legal case.
type CaseStatus string

const (
	CasePreJudicial         CaseStatus = "PRE_JUDICIAL"
	CaseExtrajudicialNotice CaseStatus = "EXTRAJUDICIAL_NOTICE"
	CaseWaitingResponse     CaseStatus = "WAITING_RESPONSE"
	CaseDemandPreparation   CaseStatus = "DEMAND_PREPARATION"
	CaseDemandFiled         CaseStatus = "DEMAND_FILED"
	CaseCourtProcess        CaseStatus = "COURT_PROCESS"
	CaseHearingScheduled    CaseStatus = "HEARING_SCHEDULED"
	CaseJudgmentPending     CaseStatus = "JUDGMENT_PENDING"
	CaseJudgmentIssued      CaseStatus = "JUDGMENT_ISSUED"
	CaseEvictionOrdered     CaseStatus = "EVICTION_ORDERED"
	CaseEvictionCompleted   CaseStatus = "EVICTION_COMPLETED"
	CasePaymentCollection   CaseStatus = "PAYMENT_COLLECTION"
	CaseClosed              CaseStatus = "CASE_CLOSED"
	CaseSettlementReached   CaseStatus = "SETTLEMENT_REACHED"
	CaseDismissed           CaseStatus = "DISMISSED"
)

// CasePhase groups case statuses into the coarse phases shown to users.
type CasePhase string

const (
	PhasePreJudicial   CasePhase = "PRE_JUDICIAL"
	PhaseExtrajudicial CasePhase = "EXTRAJUDICIAL"
	PhaseCourtFiling   CasePhase = "COURT_FILING"
	PhaseHearing       CasePhase = "HEARING"
	PhaseJudgment      CasePhase = "JUDGMENT"
	PhaseEviction      CasePhase = "EVICTION"
	PhaseClosed        CasePhase = "CLOSED"
)

// CaseType classifies the underlying dispute.
type CaseType string

const (
	CaseTypeEvictionNonPayment     CaseType = "EVICTION_NON_PAYMENT"
	CaseTypeDamageClaim            CaseType = "DAMAGE_CLAIM"
	CaseTypeBreachOfContract       CaseType = "BREACH_OF_CONTRACT"
	CaseTypeIllegalOccupation      CaseType = "ILLEGAL_OCCUPATION"
	CaseTypeRentIncreaseDispute    CaseType = "RENT_INCREASE_DISPUTE"
	CaseTypeSecurityDepositDispute CaseType = "SECURITY_DEPOSIT_DISPUTE"
	CaseTypeUtilityPaymentDispute  CaseType = "UTILITY_PAYMENT_DISPUTE"
	CaseTypeOther                  CaseType = "OTHER"
)

// ProceedingType classifies a judicial filing.
type ProceedingType string

const (
	ProceedingEvictionDemand     ProceedingType = "EVICTION_DEMAND"
	ProceedingMonitorioProcedure ProceedingType = "MONITORIO_PROCEDURE"
	ProceedingOrdinaryProcedure  ProceedingType = "ORDINARY_PROCEDURE"
	ProceedingSummaryProcedure   ProceedingType = "SUMMARY_PROCEDURE"
	ProceedingExecutionProcedure ProceedingType = "EXECUTION_PROCEDURE"
	ProceedingAppealType         ProceedingType = "APPEAL"
	ProceedingOtherType          ProceedingType = "OTHER"
)

// ProceedingStatus tracks a proceeding through the judicial process.
type ProceedingStatus string

const (
	ProceedingInitiated          ProceedingStatus = "INITIATED"
	ProceedingNotified           ProceedingStatus = "NOTIFIED"
	ProceedingOppositionPeriod   ProceedingStatus = "OPPOSITION_PERIOD"
	ProceedingEvidencePeriod     ProceedingStatus = "EVIDENCE_PERIOD"
	ProceedingHearingScheduled   ProceedingStatus = "HEARING_SCHEDULED"
	ProceedingHearingCompleted   ProceedingStatus = "HEARING_COMPLETED"
	ProceedingJudgmentPending    ProceedingStatus = "JUDGMENT_PENDING"
	ProceedingJudgmentIssued     ProceedingStatus = "JUDGMENT_ISSUED"
	ProceedingExecutionPending   ProceedingStatus = "EXECUTION_PENDING"
	ProceedingExecutionCompleted ProceedingStatus = "EXECUTION_COMPLETED"
	ProceedingAppealed           ProceedingStatus = "APPEALED"
	ProceedingClosed             ProceedingStatus = "CLOSED"
)

// ProceedingOutcome is the result recorded once a judgment exists.
type ProceedingOutcome string

const (
	OutcomeFavorable          ProceedingOutcome = "FAVORABLE"
	OutcomePartiallyFavorable ProceedingOutcome = "PARTIALLY_FAVORABLE"
	OutcomeUnfavorable        ProceedingOutcome = "UNFAVORABLE"
	OutcomeDismissed          ProceedingOutcome = "DISMISSED"
	OutcomeSettlement         ProceedingOutcome = "SETTLEMENT"
	OutcomeOther              ProceedingOutcome = "OTHER"
)

// NoticeType classifies an extrajudicial notice.
type NoticeType string

const (
	NoticePaymentRequirement NoticeType = "PAYMENT_REQUIREMENT"
	NoticeDamage             NoticeType = "DAMAGE_NOTICE"
	NoticeContractViolation  NoticeType = "CONTRACT_VIOLATION"
	NoticeEvictionWarning    NoticeType = "EVICTION_WARNING"
	NoticeFinal              NoticeType = "FINAL_NOTICE"
	NoticeSettlementOffer    NoticeType = "SETTLEMENT_OFFER"
)

// DeliveryMethod is how an extrajudicial notice reaches the tenant.
type DeliveryMethod string

const (
	DeliveryCertifiedMail    DeliveryMethod = "CERTIFIED_MAIL"
	DeliveryNotarialNotice   DeliveryMethod = "NOTARIAL_NOTICE"
	DeliveryPersonalDelivery DeliveryMethod = "PERSONAL_DELIVERY"
	DeliveryElectronicNotice DeliveryMethod = "ELECTRONIC_NOTICE"
	DeliveryCourtNotice      DeliveryMethod = "COURT_NOTICE"
)

// DeliveryStatus tracks the delivery of an extrajudicial notice.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "PENDING"
	DeliverySent      DeliveryStatus = "SENT"
	DeliveryDelivered DeliveryStatus = "DELIVERED"
	DeliveryReceived  DeliveryStatus = "RECEIVED"
	DeliveryReturned  DeliveryStatus = "RETURNED"
	DeliveryFailed    DeliveryStatus = "FAILED"
)

// CasePriority ranks how urgent a case is for the legal team.
type CasePriority string

const (
	PriorityLow      CasePriority = "LOW"
	PriorityMedium   CasePriority = "MEDIUM"
	PriorityHigh     CasePriority = "HIGH"
	PriorityUrgent   CasePriority = "URGENT"
	PriorityCritical CasePriority = "CRITICAL"
)

// NotificationType tags the in-app notifications produced by the legal flow.
type NotificationType string

const (
	NotifActionRequired      NotificationType = "ACTION_REQUIRED"
	NotifStatusUpdate        NotificationType = "STATUS_UPDATE"
	NotifCourtOrder          NotificationType = "COURT_ORDER"
	NotifHearingScheduled    NotificationType = "HEARING_SCHEDULED"
	NotifJudgmentIssued      NotificationType = "JUDGMENT_ISSUED"
	NotifDeadlineApproaching NotificationType = "DEADLINE_APPROACHING"
)

// NotificationPriority is the delivery priority of a notification row.
type NotificationPriority string

const (
	NotifPriorityLow    NotificationPriority = "low"
	NotifPriorityMedium NotificationPriority = "medium"
	NotifPriorityHigh   NotificationPriority = "high"
)

// Audit actions written by the legal handlers. The COURT_PROCEDING spelling
// is kept for compatibility with existing audit consumers.
const (
	ActionCaseCreated       = "CASE_CREATED"
	ActionProceedingCreated = "COURT_PROCEDING_CREATED"
	ActionProceedingUpdated = "COURT_PROCEDING_UPDATED"
	ActionNoticeCreated     = "EXTRAJUDICIAL_NOTICE_CREATED"
	ActionNoticeUpdated     = "EXTRAJUDICIAL_NOTICE_UPDATED"
	ActionDocumentUploaded  = "LEGAL_DOCUMENT_UPLOADED"
	ActionDocumentDeleted   = "LEGAL_DOCUMENT_DELETED"
)

/* =============================== Entities =============================== */

// User represents any platform account (tenant, owner, broker, admin...).
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         Role      `gorm:"type:varchar(20);not null" json:"role"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Property is the rented unit a contract refers to.
type Property struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index" json:"ownerId"`
	Title     string    `gorm:"not null" json:"title"`
	Address   string    `gorm:"not null" json:"address"`
	City      string    `json:"city"`
	CreatedAt time.Time `json:"createdAt"`
}

// Contract ties the parties of a rental together. Legal cases hang off it.
type Contract struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PropertyID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"propertyId"`
	TenantID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenantId"`
	OwnerID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"ownerId"`
	BrokerID    *uuid.UUID `gorm:"type:uuid;index" json:"brokerId"`
	MonthlyRent float64    `json:"monthlyRent"`
	Status      string     `gorm:"type:varchar(20);default:'ACTIVE'" json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`

	Property Property `gorm:"foreignKey:PropertyID;references:ID" json:"property"`
}

// LegalCase is an eviction/collection action against a tenant, spanning
// possibly several court proceedings. Never deleted, only terminally closed.
type LegalCase struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CaseNumber string     `gorm:"uniqueIndex;not null" json:"caseNumber"`
	ContractID uuid.UUID  `gorm:"type:uuid;not null;index" json:"contractId"`
	TenantID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenantId"`
	OwnerID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"ownerId"`
	BrokerID   *uuid.UUID `gorm:"type:uuid;index" json:"brokerId"`

	CaseType     CaseType     `gorm:"type:varchar(40);not null" json:"caseType"`
	Priority     CasePriority `gorm:"type:varchar(20);default:'MEDIUM'" json:"priority"`
	Status       CaseStatus   `gorm:"type:varchar(30);default:'PRE_JUDICIAL'" json:"status"`
	CurrentPhase CasePhase    `gorm:"type:varchar(20);default:'PRE_JUDICIAL'" json:"currentPhase"`

	// Money. totalAmount only ever grows (debt + interest + fees).
	TotalDebt           float64 `json:"totalDebt"`
	InterestRate        float64 `json:"interestRate"`
	AccumulatedInterest float64 `json:"accumulatedInterest"`
	LegalFees           float64 `json:"legalFees"`
	CourtFees           float64 `json:"courtFees"`
	TotalAmount         float64 `json:"totalAmount"`

	FirstDefaultDate      time.Time  `json:"firstDefaultDate"`
	ExtrajudicialSentDate *time.Time `json:"extrajudicialSentDate"`
	DemandFiledDate       *time.Time `json:"demandFiledDate"`
	NextDeadline          *time.Time `json:"nextDeadline"`
	HearingDate           *time.Time `json:"hearingDate"`
	JudgmentDate          *time.Time `json:"judgmentDate"`
	EvictionDate          *time.Time `json:"evictionDate"`

	Notes         string `json:"notes"`
	InternalNotes string `json:"internalNotes"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	Contract             Contract              `gorm:"foreignKey:ContractID;references:ID" json:"contract"`
	CourtProceedings     []CourtProceeding     `json:"courtProceedings,omitempty"`
	ExtrajudicialNotices []ExtrajudicialNotice `json:"extrajudicialNotices,omitempty"`
	Documents            []LegalDocument       `json:"documents,omitempty"`
}

// CourtProceeding is one formal judicial filing under a legal case.
// proceedingNumber and totalCosts are frozen at creation; later fee edits
// never recompute totalCosts (it is the "costs as originally filed").
type CourtProceeding struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LegalCaseID uuid.UUID `gorm:"type:uuid;not null;index" json:"legalCaseId"`

	ProceedingType   ProceedingType   `gorm:"type:varchar(30);not null" json:"proceedingType"`
	ProceedingNumber string           `gorm:"uniqueIndex;not null" json:"proceedingNumber"`
	Court            string           `gorm:"not null" json:"court"`
	Judge            string           `json:"judge"`
	Status           ProceedingStatus `gorm:"type:varchar(30);default:'INITIATED'" json:"status"`

	CourtFees  float64 `json:"courtFees"`
	LegalFees  float64 `json:"legalFees"`
	TotalCosts float64 `json:"totalCosts"`

	FiledDate          *time.Time `json:"filedDate"`
	NotificationDate   *time.Time `json:"notificationDate"`
	OppositionDeadline *time.Time `json:"oppositionDeadline"`
	HearingDate        *time.Time `json:"hearingDate"`
	EvidenceDeadline   *time.Time `json:"evidenceDeadline"`
	JudgmentDeadline   *time.Time `json:"judgmentDeadline"`

	Outcome      ProceedingOutcome `gorm:"type:varchar(30)" json:"outcome"`
	JudgmentText string            `json:"judgmentText"`
	JudgmentDate *time.Time        `json:"judgmentDate"`

	AppealDeadline *time.Time `json:"appealDeadline"`
	AppealFiled    bool       `json:"appealFiled"`

	Notes        string     `json:"notes"`
	NextAction   string     `json:"nextAction"`
	NextDeadline *time.Time `json:"nextDeadline"`

	// Bumped on every update; stale writers are rejected with a conflict.
	Version int `gorm:"default:1" json:"version"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ExtrajudicialNotice is a pre-court payment demand or warning sent to the
// tenant before any judicial filing.
type ExtrajudicialNotice struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	NoticeNumber string    `gorm:"uniqueIndex;not null" json:"noticeNumber"`
	LegalCaseID  uuid.UUID `gorm:"type:uuid;not null;index" json:"legalCaseId"`

	NoticeType     NoticeType     `gorm:"type:varchar(30);not null" json:"noticeType"`
	DeliveryMethod DeliveryMethod `gorm:"type:varchar(30);not null" json:"deliveryMethod"`
	DeliveryStatus DeliveryStatus `gorm:"type:varchar(20);default:'PENDING'" json:"deliveryStatus"`

	Content       string    `gorm:"type:text;not null" json:"content"`
	Amount        float64   `json:"amount"`
	Deadline      time.Time `json:"deadline"`
	DeliveryProof string    `json:"deliveryProof"`

	SentDate      *time.Time `json:"sentDate"`
	DeliveredDate *time.Time `json:"deliveredDate"`
	ReceivedBy    string     `json:"receivedBy"`

	ResponseReceived bool       `json:"responseReceived"`
	ResponseDate     *time.Time `json:"responseDate"`
	ResponseContent  string     `json:"responseContent"`
	ResponseAmount   float64    `json:"responseAmount"`

	FollowUpSent   bool `json:"followUpSent"`
	EscalationSent bool `json:"escalationSent"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LegalDocument is a file (demand letter, judgment, receipt) attached to a
// case and stored in object storage under its key.
type LegalDocument struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LegalCaseID  uuid.UUID `gorm:"type:uuid;not null;index" json:"legalCaseId"`
	UploadedByID uuid.UUID `gorm:"type:uuid;not null" json:"uploadedById"`
	Key          string    `gorm:"not null" json:"-"`
	Mime         string    `gorm:"not null" json:"mime"`
	Size         int       `gorm:"not null" json:"size"`
	OriginalName string    `json:"originalName"`
	CreatedAt    time.Time `json:"createdAt"`

	LegalCase LegalCase `gorm:"foreignKey:LegalCaseID;references:ID" json:"-"`
}

// LegalAuditLog is the append-only trail of mutating actions on a case.
// Rows are never updated or deleted.
type LegalAuditLog struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LegalCaseID   uuid.UUID `gorm:"type:uuid;not null;index" json:"legalCaseId"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`
	Action        string    `gorm:"type:varchar(50);not null" json:"action"`
	Details       string    `gorm:"type:text" json:"details"`
	PreviousValue string    `gorm:"type:text" json:"previousValue,omitempty"`
	NewValue      string    `gorm:"type:text" json:"newValue,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// LegalNotification is one pending in-app notification for one recipient.
// "Dispatch" means inserting the row; actual delivery happens elsewhere.
type LegalNotification struct {
	ID               uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	LegalCaseID      uuid.UUID            `gorm:"type:uuid;not null;index" json:"legalCaseId"`
	UserID           uuid.UUID            `gorm:"type:uuid;not null;index" json:"userId"`
	NotificationType NotificationType     `gorm:"type:varchar(30);not null" json:"notificationType"`
	Title            string               `gorm:"not null" json:"title"`
	Message          string               `gorm:"type:text" json:"message"`
	Priority         NotificationPriority `gorm:"type:varchar(10);default:'medium'" json:"priority"`
	Status           string               `gorm:"type:varchar(20);default:'pending'" json:"status"`
	ActionRequired   bool                 `json:"actionRequired"`
	ActionDeadline   *time.Time           `json:"actionDeadline"`
	CreatedAt        time.Time            `json:"createdAt"`
}

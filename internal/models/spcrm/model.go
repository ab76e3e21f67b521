package spcrm

import "time"

// Deal stages and activity types are closed sets, validated at write time
// the same way the database enums of the original schema did.
const (
	StageNew         = "new"
	StageInProgress  = "in_progress"
	StageNegotiation = "negotiation"
	StageWon         = "won"
	StageLost        = "lost"
)

const (
	ActivityNote    = "note"
	ActivityCall    = "call"
	ActivityMeeting = "meeting"
	ActivityEmail   = "email"
)

var DealStages = []string{StageNew, StageInProgress, StageNegotiation, StageWon, StageLost}

var ActivityTypes = []string{ActivityNote, ActivityCall, ActivityMeeting, ActivityEmail}

type Company struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Website   string    `json:"website"`
	Industry  string    `json:"industry"`
	Notes     string    `gorm:"type:text" json:"notes"`
	Contacts  []Contact `gorm:"foreignKey:CompanyID" json:"contacts,omitempty"`
	Deals     []Deal    `gorm:"foreignKey:CompanyID" json:"deals,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Contact struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CompanyID *uint     `gorm:"index" json:"company_id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Position  string    `json:"position"`
	Notes     string    `gorm:"type:text" json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Deal struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	CompanyID  *uint      `gorm:"index" json:"company_id"`
	ContactID  *uint      `gorm:"index" json:"contact_id"`
	Title      string     `gorm:"not null" json:"title"`
	Stage      string     `gorm:"not null;default:new;index" json:"stage"`
	Value      float64    `gorm:"default:0" json:"value"`
	Currency   string     `gorm:"size:3;default:UAH" json:"currency"`
	Notes      string     `gorm:"type:text" json:"notes"`
	Activities []Activity `gorm:"foreignKey:DealID" json:"activities,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type Task struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	DealID    *uint      `gorm:"index" json:"deal_id"`
	ContactID *uint      `gorm:"index" json:"contact_id"`
	Title     string     `gorm:"not null" json:"title"`
	DueAt     *time.Time `json:"due_at"`
	Done      bool       `gorm:"default:false;index" json:"done"`
	Notes     string     `gorm:"type:text" json:"notes"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type Activity struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DealID       uint      `gorm:"not null;index" json:"deal_id"`
	ActivityType string    `gorm:"not null" json:"activity_type"`
	Subject      string    `json:"subject"`
	Body         string    `gorm:"type:text" json:"body"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Company) TableName() string  { return "crm_companies" }
func (Contact) TableName() string  { return "crm_contacts" }
func (Deal) TableName() string     { return "crm_deals" }
func (Task) TableName() string     { return "crm_tasks" }
func (Activity) TableName() string { return "crm_activities" }

func IsValidStage(stage string) bool {
	for _, s := range DealStages {
		if s == stage {
			return true
		}
	}
	return false
}

func IsValidActivityType(t string) bool {
	for _, a := range ActivityTypes {
		if a == t {
			return true
		}
	}
	return false
}

package spcms

import "time"

// Page is a routable content page; all display text lives in the
// per-language translation rows.
type Page struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	Slug         string            `gorm:"uniqueIndex;not null" json:"slug"`
	Published    bool              `gorm:"default:false" json:"published"`
	Translations []PageTranslation `gorm:"foreignKey:PageID" json:"translations,omitempty"`
	Blocks       []ContentBlock    `gorm:"foreignKey:PageID" json:"blocks,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type PageTranslation struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	PageID          uint      `gorm:"not null;index:idx_page_lang,unique" json:"page_id"`
	Language        string    `gorm:"not null;size:5;index:idx_page_lang,unique" json:"language"`
	Title           string    `gorm:"not null" json:"title"`
	MetaDescription string    `json:"meta_description"`
	Body            string    `gorm:"type:text" json:"body"`
	BodyHTML        string    `gorm:"-" json:"body_html,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ContentBlock is one section of a page (hero, feature list, CTA and so
// on), ordered by Position. Icon must come from the allowed icon set.
type ContentBlock struct {
	ID           uint                      `gorm:"primaryKey" json:"id"`
	PageID       uint                      `gorm:"not null;index" json:"page_id"`
	BlockType    string                    `gorm:"not null" json:"block_type"`
	Icon         string                    `json:"icon"`
	Position     int                       `gorm:"default:0" json:"position"`
	Translations []ContentBlockTranslation `gorm:"foreignKey:BlockID" json:"translations,omitempty"`
	CreatedAt    time.Time                 `json:"created_at"`
	UpdatedAt    time.Time                 `json:"updated_at"`
}

type ContentBlockTranslation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BlockID   uint      `gorm:"not null;index:idx_block_lang,unique" json:"block_id"`
	Language  string    `gorm:"not null;size:5;index:idx_block_lang,unique" json:"language"`
	Title     string    `json:"title"`
	Body      string    `gorm:"type:text" json:"body"`
	BodyHTML  string    `gorm:"-" json:"body_html,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service is one entry of the services catalog.
type Service struct {
	ID           uint                 `gorm:"primaryKey" json:"id"`
	Slug         string               `gorm:"uniqueIndex;not null" json:"slug"`
	Icon         string               `json:"icon"`
	Position     int                  `gorm:"default:0" json:"position"`
	Published    bool                 `gorm:"default:false" json:"published"`
	Translations []ServiceTranslation `gorm:"foreignKey:ServiceID" json:"translations,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

type ServiceTranslation struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ServiceID       uint      `gorm:"not null;index:idx_service_lang,unique" json:"service_id"`
	Language        string    `gorm:"not null;size:5;index:idx_service_lang,unique" json:"language"`
	Title           string    `gorm:"not null" json:"title"`
	Description     string    `gorm:"type:text" json:"description"`
	DescriptionHTML string    `gorm:"-" json:"description_html,omitempty"`
	Excerpt         string    `gorm:"-" json:"excerpt,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Page) TableName() string                    { return "pages" }
func (PageTranslation) TableName() string         { return "page_translations" }
func (ContentBlock) TableName() string            { return "content_blocks" }
func (ContentBlockTranslation) TableName() string { return "content_block_translations" }
func (Service) TableName() string                 { return "services" }
func (ServiceTranslation) TableName() string      { return "service_translations" }

// Languages the site ships content in.
var SupportedLanguages = []string{"uk", "en"}

func IsSupportedLanguage(lang string) bool {
	for _, l := range SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// AllowedIcons is the closed set of icon names the frontend can render.
// Validated at write time so a bad name never reaches the page.
var AllowedIcons = map[string]bool{
	"":             true,
	"code":         true,
	"server":       true,
	"cloud":        true,
	"shield":       true,
	"database":     true,
	"globe":        true,
	"smartphone":   true,
	"monitor":      true,
	"settings":     true,
	"users":        true,
	"briefcase":    true,
	"mail":         true,
	"phone":        true,
	"chart":        true,
	"lightbulb":    true,
	"rocket":       true,
	"lock":         true,
	"search":       true,
	"headphones":   true,
	"check-circle": true,
}

func IsAllowedIcon(name string) bool {
	return AllowedIcons[name]
}

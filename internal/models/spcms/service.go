package spcms

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// CMS exposes the content operations for both the public read API and the
// admin CRUD API.
type CMS struct {
	db *gorm.DB
}

func New(db *gorm.DB) *CMS {
	InitMarkdown()
	return &CMS{db: db}
}

// GetPage loads a published page by slug with the translation for lang and
// the ordered content blocks, markdown already rendered.
func (c *CMS) GetPage(ctx context.Context, slug, lang string) (*Page, error) {
	if !IsSupportedLanguage(lang) {
		lang = "uk"
	}

	var page Page
	err := c.db.WithContext(ctx).
		Preload("Translations", "language = ?", lang).
		Preload("Blocks", func(db *gorm.DB) *gorm.DB {
			return db.Order("content_blocks.position ASC")
		}).
		Preload("Blocks.Translations", "language = ?", lang).
		Where("slug = ? AND published = ?", slug, true).
		First(&page).Error
	if err != nil {
		return nil, err
	}

	for i := range page.Translations {
		page.Translations[i].BodyHTML = RenderMarkdown(page.Translations[i].Body)
		if page.Translations[i].MetaDescription == "" {
			page.Translations[i].MetaDescription = Excerpt(page.Translations[i].Body, 160)
		}
	}
	for i := range page.Blocks {
		for j := range page.Blocks[i].Translations {
			page.Blocks[i].Translations[j].BodyHTML = RenderMarkdown(page.Blocks[i].Translations[j].Body)
		}
	}

	return &page, nil
}

// ListServices returns published services ordered by position, with the
// translation for lang rendered and excerpted.
func (c *CMS) ListServices(ctx context.Context, lang string) ([]Service, error) {
	if !IsSupportedLanguage(lang) {
		lang = "uk"
	}

	var services []Service
	err := c.db.WithContext(ctx).
		Preload("Translations", "language = ?", lang).
		Where("published = ?", true).
		Order("position ASC").
		Find(&services).Error
	if err != nil {
		return nil, err
	}

	for i := range services {
		for j := range services[i].Translations {
			services[i].Translations[j].DescriptionHTML = RenderMarkdown(services[i].Translations[j].Description)
			services[i].Translations[j].Excerpt = Excerpt(services[i].Translations[j].Description, 200)
		}
	}

	return services, nil
}

func (c *CMS) GetService(ctx context.Context, slug, lang string) (*Service, error) {
	if !IsSupportedLanguage(lang) {
		lang = "uk"
	}

	var service Service
	err := c.db.WithContext(ctx).
		Preload("Translations", "language = ?", lang).
		Where("slug = ? AND published = ?", slug, true).
		First(&service).Error
	if err != nil {
		return nil, err
	}

	for i := range service.Translations {
		service.Translations[i].DescriptionHTML = RenderMarkdown(service.Translations[i].Description)
	}

	return &service, nil
}

// ---- admin CRUD ----

func (c *CMS) ListPages(ctx context.Context) ([]Page, error) {
	var pages []Page
	err := c.db.WithContext(ctx).Preload("Translations").Order("slug ASC").Find(&pages).Error
	return pages, err
}

func (c *CMS) CreatePage(ctx context.Context, page *Page) error {
	for _, tr := range page.Translations {
		if !IsSupportedLanguage(tr.Language) {
			return fmt.Errorf("unsupported language %q", tr.Language)
		}
	}
	return c.db.WithContext(ctx).Create(page).Error
}

func (c *CMS) UpdatePage(ctx context.Context, page *Page) error {
	return c.db.WithContext(ctx).Save(page).Error
}

func (c *CMS) DeletePage(ctx context.Context, id uint) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("block_id IN (?)",
			tx.Model(&ContentBlock{}).Select("id").Where("page_id = ?", id),
		).Delete(&ContentBlockTranslation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("page_id = ?", id).Delete(&ContentBlock{}).Error; err != nil {
			return err
		}
		if err := tx.Where("page_id = ?", id).Delete(&PageTranslation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Page{}, id).Error
	})
}

func (c *CMS) UpsertPageTranslation(ctx context.Context, tr *PageTranslation) error {
	if !IsSupportedLanguage(tr.Language) {
		return fmt.Errorf("unsupported language %q", tr.Language)
	}

	var existing PageTranslation
	err := c.db.WithContext(ctx).
		Where("page_id = ? AND language = ?", tr.PageID, tr.Language).
		First(&existing).Error
	if err == nil {
		tr.ID = existing.ID
		return c.db.WithContext(ctx).Save(tr).Error
	}
	return c.db.WithContext(ctx).Create(tr).Error
}

func (c *CMS) CreateBlock(ctx context.Context, block *ContentBlock) error {
	if !IsAllowedIcon(block.Icon) {
		return fmt.Errorf("icon %q is not in the allowed set", block.Icon)
	}
	return c.db.WithContext(ctx).Create(block).Error
}

func (c *CMS) UpdateBlock(ctx context.Context, block *ContentBlock) error {
	if !IsAllowedIcon(block.Icon) {
		return fmt.Errorf("icon %q is not in the allowed set", block.Icon)
	}
	return c.db.WithContext(ctx).Save(block).Error
}

func (c *CMS) DeleteBlock(ctx context.Context, id uint) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("block_id = ?", id).Delete(&ContentBlockTranslation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&ContentBlock{}, id).Error
	})
}

func (c *CMS) ListAllServices(ctx context.Context) ([]Service, error) {
	var services []Service
	err := c.db.WithContext(ctx).Preload("Translations").Order("position ASC").Find(&services).Error
	return services, err
}

func (c *CMS) CreateService(ctx context.Context, service *Service) error {
	if !IsAllowedIcon(service.Icon) {
		return fmt.Errorf("icon %q is not in the allowed set", service.Icon)
	}
	for _, tr := range service.Translations {
		if !IsSupportedLanguage(tr.Language) {
			return fmt.Errorf("unsupported language %q", tr.Language)
		}
	}
	return c.db.WithContext(ctx).Create(service).Error
}

func (c *CMS) UpdateService(ctx context.Context, service *Service) error {
	if !IsAllowedIcon(service.Icon) {
		return fmt.Errorf("icon %q is not in the allowed set", service.Icon)
	}
	return c.db.WithContext(ctx).Save(service).Error
}

func (c *CMS) DeleteService(ctx context.Context, id uint) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("service_id = ?", id).Delete(&ServiceTranslation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Service{}, id).Error
	})
}

// ReorderServices applies a new position ordering given service ids in
// display order.
func (c *CMS) ReorderServices(ctx context.Context, ids []uint) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for pos, id := range ids {
			if err := tx.Model(&Service{}).Where("id = ?", id).Update("position", pos).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

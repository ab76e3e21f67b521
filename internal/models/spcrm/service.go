package spcrm

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// CRM is the thin persistence layer behind the admin CRM tabs.
type CRM struct {
	db *gorm.DB
}

func New(db *gorm.DB) *CRM {
	return &CRM{db: db}
}

// ---- companies ----

func (c *CRM) ListCompanies(ctx context.Context) ([]Company, error) {
	var companies []Company
	err := c.db.WithContext(ctx).Order("name ASC").Find(&companies).Error
	return companies, err
}

func (c *CRM) GetCompany(ctx context.Context, id uint) (*Company, error) {
	var company Company
	err := c.db.WithContext(ctx).
		Preload("Contacts").
		Preload("Deals").
		First(&company, id).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (c *CRM) CreateCompany(ctx context.Context, company *Company) error {
	return c.db.WithContext(ctx).Create(company).Error
}

func (c *CRM) UpdateCompany(ctx context.Context, company *Company) error {
	return c.db.WithContext(ctx).Save(company).Error
}

func (c *CRM) DeleteCompany(ctx context.Context, id uint) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Contact{}).Where("company_id = ?", id).Update("company_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&Deal{}).Where("company_id = ?", id).Update("company_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&Company{}, id).Error
	})
}

// ---- contacts ----

func (c *CRM) ListContacts(ctx context.Context, companyID uint) ([]Contact, error) {
	q := c.db.WithContext(ctx).Order("name ASC")
	if companyID != 0 {
		q = q.Where("company_id = ?", companyID)
	}
	var contacts []Contact
	err := q.Find(&contacts).Error
	return contacts, err
}

func (c *CRM) CreateContact(ctx context.Context, contact *Contact) error {
	return c.db.WithContext(ctx).Create(contact).Error
}

func (c *CRM) UpdateContact(ctx context.Context, contact *Contact) error {
	return c.db.WithContext(ctx).Save(contact).Error
}

func (c *CRM) DeleteContact(ctx context.Context, id uint) error {
	return c.db.WithContext(ctx).Delete(&Contact{}, id).Error
}

// ---- deals ----

func (c *CRM) ListDeals(ctx context.Context, stage string) ([]Deal, error) {
	q := c.db.WithContext(ctx).Order("updated_at DESC")
	if stage != "" {
		if !IsValidStage(stage) {
			return nil, fmt.Errorf("unknown deal stage %q", stage)
		}
		q = q.Where("stage = ?", stage)
	}
	var deals []Deal
	err := q.Find(&deals).Error
	return deals, err
}

func (c *CRM) GetDeal(ctx context.Context, id uint) (*Deal, error) {
	var deal Deal
	err := c.db.WithContext(ctx).
		Preload("Activities", func(db *gorm.DB) *gorm.DB {
			return db.Order("crm_activities.created_at DESC")
		}).
		First(&deal, id).Error
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

func (c *CRM) CreateDeal(ctx context.Context, deal *Deal) error {
	if deal.Stage == "" {
		deal.Stage = StageNew
	}
	if !IsValidStage(deal.Stage) {
		return fmt.Errorf("unknown deal stage %q", deal.Stage)
	}
	return c.db.WithContext(ctx).Create(deal).Error
}

func (c *CRM) UpdateDeal(ctx context.Context, deal *Deal) error {
	if !IsValidStage(deal.Stage) {
		return fmt.Errorf("unknown deal stage %q", deal.Stage)
	}
	return c.db.WithContext(ctx).Save(deal).Error
}

func (c *CRM) DeleteDeal(ctx context.Context, id uint) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("deal_id = ?", id).Delete(&Activity{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&Task{}).Where("deal_id = ?", id).Update("deal_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&Deal{}, id).Error
	})
}

// ---- tasks ----

func (c *CRM) ListTasks(ctx context.Context, onlyOpen bool) ([]Task, error) {
	q := c.db.WithContext(ctx).Order("due_at ASC")
	if onlyOpen {
		q = q.Where("done = ?", false)
	}
	var tasks []Task
	err := q.Find(&tasks).Error
	return tasks, err
}

func (c *CRM) CreateTask(ctx context.Context, task *Task) error {
	return c.db.WithContext(ctx).Create(task).Error
}

func (c *CRM) UpdateTask(ctx context.Context, task *Task) error {
	return c.db.WithContext(ctx).Save(task).Error
}

func (c *CRM) DeleteTask(ctx context.Context, id uint) error {
	return c.db.WithContext(ctx).Delete(&Task{}, id).Error
}

// ---- activities ----

func (c *CRM) AddActivity(ctx context.Context, activity *Activity) error {
	if !IsValidActivityType(activity.ActivityType) {
		return fmt.Errorf("unknown activity type %q", activity.ActivityType)
	}
	return c.db.WithContext(ctx).Create(activity).Error
}

func (c *CRM) DeleteActivity(ctx context.Context, id uint) error {
	return c.db.WithContext(ctx).Delete(&Activity{}, id).Error
}

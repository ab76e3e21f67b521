package spcrm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestCRM(t *testing.T) (*CRM, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&Company{}, &Contact{}, &Deal{}, &Task{}, &Activity{})
	require.NoError(t, err)

	return New(db), db
}

func TestCreateDealDefaultsStage(t *testing.T) {
	crm, _ := setupTestCRM(t)

	deal := Deal{Title: "Website redesign"}
	require.NoError(t, crm.CreateDeal(context.Background(), &deal))
	assert.Equal(t, StageNew, deal.Stage)
}

func TestCreateDealRejectsUnknownStage(t *testing.T) {
	crm, _ := setupTestCRM(t)

	deal := Deal{Title: "Bad", Stage: "maybe"}
	err := crm.CreateDeal(context.Background(), &deal)
	assert.Error(t, err)
}

func TestListDealsFilterByStage(t *testing.T) {
	crm, _ := setupTestCRM(t)
	ctx := context.Background()

	require.NoError(t, crm.CreateDeal(ctx, &Deal{Title: "A", Stage: StageWon}))
	require.NoError(t, crm.CreateDeal(ctx, &Deal{Title: "B", Stage: StageNew}))

	won, err := crm.ListDeals(ctx, StageWon)
	require.NoError(t, err)
	require.Len(t, won, 1)
	assert.Equal(t, "A", won[0].Title)

	_, err = crm.ListDeals(ctx, "unknown")
	assert.Error(t, err)
}

func TestAddActivityValidatesType(t *testing.T) {
	crm, _ := setupTestCRM(t)
	ctx := context.Background()

	deal := Deal{Title: "With activity"}
	require.NoError(t, crm.CreateDeal(ctx, &deal))

	err := crm.AddActivity(ctx, &Activity{DealID: deal.ID, ActivityType: "telepathy"})
	assert.Error(t, err)

	err = crm.AddActivity(ctx, &Activity{DealID: deal.ID, ActivityType: ActivityCall, Subject: "Intro call"})
	require.NoError(t, err)

	got, err := crm.GetDeal(ctx, deal.ID)
	require.NoError(t, err)
	require.Len(t, got.Activities, 1)
	assert.Equal(t, ActivityCall, got.Activities[0].ActivityType)
}

func TestDeleteDealCascadesActivities(t *testing.T) {
	crm, db := setupTestCRM(t)
	ctx := context.Background()

	deal := Deal{Title: "Doomed"}
	require.NoError(t, crm.CreateDeal(ctx, &deal))
	require.NoError(t, crm.AddActivity(ctx, &Activity{DealID: deal.ID, ActivityType: ActivityNote, Body: "note"}))

	require.NoError(t, crm.DeleteDeal(ctx, deal.ID))

	var count int64
	db.Model(&Activity{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestDeleteCompanyDetachesContactsAndDeals(t *testing.T) {
	crm, db := setupTestCRM(t)
	ctx := context.Background()

	company := Company{Name: "Acme"}
	require.NoError(t, crm.CreateCompany(ctx, &company))
	contact := Contact{Name: "Olena", CompanyID: &company.ID}
	require.NoError(t, crm.CreateContact(ctx, &contact))
	deal := Deal{Title: "Big deal", CompanyID: &company.ID}
	require.NoError(t, crm.CreateDeal(ctx, &deal))

	require.NoError(t, crm.DeleteCompany(ctx, company.ID))

	var gotContact Contact
	require.NoError(t, db.First(&gotContact, contact.ID).Error)
	assert.Nil(t, gotContact.CompanyID)

	var gotDeal Deal
	require.NoError(t, db.First(&gotDeal, deal.ID).Error)
	assert.Nil(t, gotDeal.CompanyID)
}

func TestListTasksOnlyOpen(t *testing.T) {
	crm, _ := setupTestCRM(t)
	ctx := context.Background()

	require.NoError(t, crm.CreateTask(ctx, &Task{Title: "Call back", Done: false}))
	done := Task{Title: "Send invoice", Done: true}
	require.NoError(t, crm.CreateTask(ctx, &done))

	open, err := crm.ListTasks(ctx, true)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "Call back", open[0].Title)

	all, err := crm.ListTasks(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStageAndActivityValidators(t *testing.T) {
	for _, s := range DealStages {
		assert.True(t, IsValidStage(s))
	}
	assert.False(t, IsValidStage("pending"))

	for _, a := range ActivityTypes {
		assert.True(t, IsValidActivityType(a))
	}
	assert.False(t, IsValidActivityType("sms"))
}

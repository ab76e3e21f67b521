package crm

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"sitepulse/internal/models/spcrm"
)

// Handler exposes the CRM to the admin panel. Every route sits behind the
// auth middleware.
type Handler struct {
	crm *spcrm.CRM
}

func New(crm *spcrm.CRM) *Handler {
	return &Handler{crm: crm}
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func fail(c *gin.Context, err error, msg string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	log.Error().Err(err).Msg(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// ---- companies ----

func (h *Handler) ListCompanies(c *gin.Context) {
	companies, err := h.crm.ListCompanies(c.Request.Context())
	if err != nil {
		fail(c, err, "company list failed")
		return
	}
	c.JSON(http.StatusOK, companies)
}

func (h *Handler) GetCompany(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	company, err := h.crm.GetCompany(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "company load failed")
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *Handler) CreateCompany(c *gin.Context) {
	var company spcrm.Company
	if err := c.ShouldBindJSON(&company); err != nil || company.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company name is required"})
		return
	}
	if err := h.crm.CreateCompany(c.Request.Context(), &company); err != nil {
		fail(c, err, "company create failed")
		return
	}
	c.JSON(http.StatusCreated, company)
}

func (h *Handler) UpdateCompany(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var company spcrm.Company
	if err := c.ShouldBindJSON(&company); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	company.ID = id
	if err := h.crm.UpdateCompany(c.Request.Context(), &company); err != nil {
		fail(c, err, "company update failed")
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *Handler) DeleteCompany(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.crm.DeleteCompany(c.Request.Context(), id); err != nil {
		fail(c, err, "company delete failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ---- contacts ----

func (h *Handler) ListContacts(c *gin.Context) {
	var companyID uint
	if v, err := strconv.ParseUint(c.Query("company_id"), 10, 32); err == nil {
		companyID = uint(v)
	}
	contacts, err := h.crm.ListContacts(c.Request.Context(), companyID)
	if err != nil {
		fail(c, err, "contact list failed")
		return
	}
	c.JSON(http.StatusOK, contacts)
}

func (h *Handler) CreateContact(c *gin.Context) {
	var contact spcrm.Contact
	if err := c.ShouldBindJSON(&contact); err != nil || contact.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "contact name is required"})
		return
	}
	if err := h.crm.CreateContact(c.Request.Context(), &contact); err != nil {
		fail(c, err, "contact create failed")
		return
	}
	c.JSON(http.StatusCreated, contact)
}

func (h *Handler) UpdateContact(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var contact spcrm.Contact
	if err := c.ShouldBindJSON(&contact); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	contact.ID = id
	if err := h.crm.UpdateContact(c.Request.Context(), &contact); err != nil {
		fail(c, err, "contact update failed")
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (h *Handler) DeleteContact(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.crm.DeleteContact(c.Request.Context(), id); err != nil {
		fail(c, err, "contact delete failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ---- deals ----

func (h *Handler) ListDeals(c *gin.Context) {
	deals, err := h.crm.ListDeals(c.Request.Context(), c.Query("stage"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, deals)
}

func (h *Handler) GetDeal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	deal, err := h.crm.GetDeal(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "deal load failed")
		return
	}
	c.JSON(http.StatusOK, deal)
}

func (h *Handler) CreateDeal(c *gin.Context) {
	var deal spcrm.Deal
	if err := c.ShouldBindJSON(&deal); err != nil || deal.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deal title is required"})
		return
	}
	if err := h.crm.CreateDeal(c.Request.Context(), &deal); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, deal)
}

func (h *Handler) UpdateDeal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var deal spcrm.Deal
	if err := c.ShouldBindJSON(&deal); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	deal.ID = id
	if err := h.crm.UpdateDeal(c.Request.Context(), &deal); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, deal)
}

func (h *Handler) DeleteDeal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.crm.DeleteDeal(c.Request.Context(), id); err != nil {
		fail(c, err, "deal delete failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ---- tasks ----

func (h *Handler) ListTasks(c *gin.Context) {
	tasks, err := h.crm.ListTasks(c.Request.Context(), c.Query("open") == "true")
	if err != nil {
		fail(c, err, "task list failed")
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *Handler) CreateTask(c *gin.Context) {
	var task spcrm.Task
	if err := c.ShouldBindJSON(&task); err != nil || task.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task title is required"})
		return
	}
	if err := h.crm.CreateTask(c.Request.Context(), &task); err != nil {
		fail(c, err, "task create failed")
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *Handler) UpdateTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var task spcrm.Task
	if err := c.ShouldBindJSON(&task); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	task.ID = id
	if err := h.crm.UpdateTask(c.Request.Context(), &task); err != nil {
		fail(c, err, "task update failed")
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) DeleteTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.crm.DeleteTask(c.Request.Context(), id); err != nil {
		fail(c, err, "task delete failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ---- activities ----

func (h *Handler) AddActivity(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var activity spcrm.Activity
	if err := c.ShouldBindJSON(&activity); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	activity.DealID = id
	if err := h.crm.AddActivity(c.Request.Context(), &activity); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, activity)
}

func (h *Handler) DeleteActivity(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.crm.DeleteActivity(c.Request.Context(), id); err != nil {
		fail(c, err, "activity delete failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/TWRT/board-sync/internal/models"
	"github.com/TWRT/board-sync/internal/sanitize"
	"github.com/TWRT/board-sync/internal/service"
)

type contactResponse struct {
	models.Contact
	Initials   string `json:"initials"`
	BadgeColor string `json:"badge_color"`
}

func newContactResponse(contact models.Contact) contactResponse {
	return contactResponse{
		Contact:    contact,
		Initials:   models.Initials(contact.Name),
		BadgeColor: models.BadgeColor(contact.Name),
	}
}

type contactGroupResponse struct {
	Letter   string            `json:"letter"`
	Contacts []contactResponse `json:"contacts"`
}

// HandleGetContacts returns the contact list grouped by first letter.
func (h *Handler) HandleGetContacts(c *gin.Context) {
	groups := h.contacts.Grouped()
	resp := make([]contactGroupResponse, 0, len(groups))
	for _, g := range groups {
		group := contactGroupResponse{Letter: g.Letter}
		for _, contact := range g.Contacts {
			group.Contacts = append(group.Contacts, newContactResponse(contact))
		}
		resp = append(resp, group)
	}
	c.JSON(http.StatusOK, gin.H{"groups": resp})
}

func (h *Handler) bindContactForm(c *gin.Context) (models.ContactForm, bool) {
	var form models.ContactForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.logger.Debug().Err(err).Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return form, false
	}

	form.Name = strings.TrimSpace(form.Name)
	form.Email = strings.TrimSpace(form.Email)
	form.Phone = strings.TrimSpace(form.Phone)
	sanitize.Fields(&form.Name, &form.Email, &form.Phone)

	if err := service.ValidateContact(form); err != nil {
		h.fail(c, err)
		return form, false
	}
	return form, true
}

func (h *Handler) HandleCreateContact(c *gin.Context) {
	form, ok := h.bindContactForm(c)
	if !ok {
		return
	}

	contact, err := h.contacts.Create(c, form)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, newContactResponse(contact))
}

func (h *Handler) HandleUpdateContact(c *gin.Context) {
	form, ok := h.bindContactForm(c)
	if !ok {
		return
	}

	contact, err := h.contacts.Update(c, c.Param("id"), form)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newContactResponse(contact))
}

func (h *Handler) HandleDeleteContact(c *gin.Context) {
	if err := h.contacts.Delete(c, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

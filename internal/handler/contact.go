package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xenking/storefront/internal/domain/contact"
)

// GetContact serves GET /api/contact.
func (h *Handler) GetContact(c *gin.Context) {
	page, err := h.contacts.Page(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	info := page.Info
	resp := contactResponse{
		Address:     info.Address,
		Email:       info.Email,
		Latitude:    info.Latitude,
		Longitude:   info.Longitude,
		Phones:      info.Phones,
		SocialMedia: make([]socialResponse, len(info.Socials)),
		Employees:   make([]employeeResponse, len(page.Employees)),
	}
	if resp.Phones == nil {
		resp.Phones = []string{}
	}
	for i, s := range info.Socials {
		resp.SocialMedia[i] = socialResponse{ID: s.ID, Name: s.Name, URL: s.URL, Icon: h.media(s.Icon)}
	}
	for i, e := range page.Employees {
		resp.Employees[i] = employeeResponse{
			ID:               e.ID,
			Name:             e.Name,
			Image:            h.media(e.Image),
			Phone:            e.Phone,
			Email:            e.Email,
			TelegramUsername: e.TelegramUsername,
		}
	}
	if a := page.About; a != nil {
		resp.About = &aboutResponse{ID: a.ID, Title: a.Title, Description: a.Description, Cover: h.media(a.Cover)}
	}
	c.JSON(http.StatusOK, resp)
}

type contactFormRequest struct {
	Name     string `json:"name" binding:"max=255"`
	Email    string `json:"email" binding:"max=255"`
	Phone    string `json:"phone" binding:"max=255"`
	Question string `json:"question"`
}

// SubmitContactForm serves POST /api/contact-form.
func (h *Handler) SubmitContactForm(c *gin.Context) {
	var req contactFormRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	f, err := h.contacts.Submit(c.Request.Context(), contact.Form{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Question: req.Question,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, contactFormResponse{
		ID:       f.ID,
		Name:     f.Name,
		Email:    f.Email,
		Phone:    f.Phone,
		Question: f.Question,
	})
}

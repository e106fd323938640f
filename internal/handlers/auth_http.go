package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"example.com/storefront/internal/service"
)

type AuthHTTP struct {
	accounts service.AccountService
	auth     service.AuthService
	log      *logrus.Logger
}

func NewAuthHTTP(accounts service.AccountService, auth service.AuthService, log *logrus.Logger) *AuthHTTP {
	return &AuthHTTP{accounts: accounts, auth: auth, log: log}
}

type registerReq struct {
	FirstName       string `json:"first_name" binding:"required"`
	LastName        string `json:"last_name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	Phone           string `json:"phone"`
}

func (h *AuthHTTP) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "please provide all required fields")
		return
	}
	if req.Password != req.ConfirmPassword {
		badRequest(c, "passwords do not match")
		return
	}

	user, err := h.accounts.Register(service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	token, err := h.auth.Issue(user)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{
		"message": "user registered successfully",
		"token":   token,
		"user":    user,
	})
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHTTP) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "please provide email and password")
		return
	}
	user, err := h.accounts.Authenticate(req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	token, err := h.auth.Issue(user)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.SetCookie("session", token, int((7 * 24 * time.Hour).Seconds()), "/", "", true, true)
	respond(c, http.StatusOK, gin.H{
		"message": "login successful",
		"token":   token,
		"user":    user,
	})
}

func (h *AuthHTTP) Logout(c *gin.Context) {
	c.SetCookie("session", "", -1, "/", "", true, true)
	respond(c, http.StatusOK, gin.H{"message": "logout successful"})
}

func (h *AuthHTTP) Profile(c *gin.Context) {
	id, _ := callerIdentity(c)
	user, err := h.accounts.UserByID(id.UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"user": user})
}

type updateProfileReq struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
}

func (h *AuthHTTP) UpdateProfile(c *gin.Context) {
	var req updateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	id, _ := callerIdentity(c)
	user, err := h.accounts.UpdateProfile(id.UserID, service.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"user": user})
}

type changePasswordReq struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func (h *AuthHTTP) ChangePassword(c *gin.Context) {
	var req changePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "please provide old and new passwords")
		return
	}
	id, _ := callerIdentity(c)
	if err := h.accounts.ChangePassword(id.UserID, req.OldPassword, req.NewPassword); err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "password changed successfully"})
}

type addressReq struct {
	Street    string `json:"street" binding:"required"`
	City      string `json:"city" binding:"required"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
	Country   string `json:"country" binding:"required"`
	IsDefault bool   `json:"is_default"`
}

func (r addressReq) input() service.AddressInput {
	return service.AddressInput{
		Street:    r.Street,
		City:      r.City,
		State:     r.State,
		ZipCode:   r.ZipCode,
		Country:   r.Country,
		IsDefault: r.IsDefault,
	}
}

func (h *AuthHTTP) AddAddress(c *gin.Context) {
	var req addressReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "street, city and country are required")
		return
	}
	id, _ := callerIdentity(c)
	user, err := h.accounts.AddAddress(id.UserID, req.input())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"user": user})
}

func (h *AuthHTTP) UpdateAddress(c *gin.Context) {
	addressID, ok := uintParam(c, "addressId")
	if !ok {
		return
	}
	var req addressReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "street, city and country are required")
		return
	}
	id, _ := callerIdentity(c)
	user, err := h.accounts.UpdateAddress(id.UserID, addressID, req.input())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"user": user})
}

func (h *AuthHTTP) DeleteAddress(c *gin.Context) {
	addressID, ok := uintParam(c, "addressId")
	if !ok {
		return
	}
	id, _ := callerIdentity(c)
	user, err := h.accounts.DeleteAddress(id.UserID, addressID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"user": user})
}

func (h *AuthHTTP) DeactivateAccount(c *gin.Context) {
	id, _ := callerIdentity(c)
	if err := h.accounts.Deactivate(id.UserID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.SetCookie("session", "", -1, "/", "", true, true)
	respond(c, http.StatusOK, gin.H{"message": "account deactivated"})
}

func (h *AuthHTTP) Customers(c *gin.Context) {
	page, limit := pageParams(c)
	users, pagination, err := h.accounts.Customers(page, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"customers": users, "pagination": pagination})
}

func (h *AuthHTTP) CustomerByID(c *gin.Context) {
	userID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	user, err := h.accounts.UserByID(userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"user": user})
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(v), true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	return page, limit
}

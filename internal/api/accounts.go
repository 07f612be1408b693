package api

import (
	"errors"
	"net/http"

	"storefront-service/internal/models"
	"storefront-service/internal/service"

	"github.com/gin-gonic/gin"
)

// authFor builds a request-scoped auth service. Durable identity state
// lives in the stores, so constructing one per request is cheap; authed
// routes resume it from the bearer token.
func (h *Handler) authFor() *service.AuthService {
	return service.NewAuthService(h.identities, h.redis, h.sessionTTL)
}

func (h *Handler) resumedAuth(c *gin.Context) (*service.AuthService, bool) {
	auth := h.authFor()
	if err := auth.Resume(c.Request.Context(), c.GetString("session_token")); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return nil, false
	}
	return auth, true
}

type signUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"required"`
}

func (h *Handler) signUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	auth := h.authFor()
	token, err := auth.SignUp(c.Request.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Sign up failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":   token,
		"profile": auth.Profile(),
	})
}

type signInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	auth := h.authFor()
	token, err := auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Sign in failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"profile": auth.Profile(),
	})
}

func (h *Handler) signOut(c *gin.Context) {
	auth, ok := h.resumedAuth(c)
	if !ok {
		return
	}

	if err := auth.SignOut(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Sign out failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

func (h *Handler) updatePassword(c *gin.Context) {
	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	auth, ok := h.resumedAuth(c)
	if !ok {
		return
	}

	if err := auth.UpdatePassword(c.Request.Context(), req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrIncorrectPassword) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Password update failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

func (h *Handler) getProfile(c *gin.Context) {
	auth, ok := h.resumedAuth(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, auth.Profile())
}

func (h *Handler) updateProfile(c *gin.Context) {
	var patch models.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	auth, ok := h.resumedAuth(c)
	if !ok {
		return
	}

	if err := auth.UpdateProfile(c.Request.Context(), &patch); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Profile update failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, auth.Profile())
}

func (h *Handler) deleteAccount(c *gin.Context) {
	auth, ok := h.resumedAuth(c)
	if !ok {
		return
	}

	if err := auth.DeleteAccount(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Account deletion failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}

func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.shop.FetchOrders(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to fetch orders",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) listAddresses(c *gin.Context) {
	addresses, err := h.shop.FetchAddresses(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to fetch addresses",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"addresses": addresses})
}

func (h *Handler) addAddress(c *gin.Context) {
	var address models.Address
	if err := c.ShouldBindJSON(&address); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	addresses, err := h.shop.AddAddress(c.Request.Context(), c.GetString("user_id"), &address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to add address",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"addresses": addresses})
}

func (h *Handler) updateAddress(c *gin.Context) {
	var address models.Address
	if err := c.ShouldBindJSON(&address); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	address.ID = c.Param("id")

	addresses, err := h.shop.UpdateAddress(c.Request.Context(), c.GetString("user_id"), &address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to update address",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"addresses": addresses})
}

func (h *Handler) deleteAddress(c *gin.Context) {
	addresses, err := h.shop.DeleteAddress(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to delete address",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"addresses": addresses})
}

func (h *Handler) listPaymentMethods(c *gin.Context) {
	methods, err := h.shop.FetchPaymentMethods(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to fetch payment methods",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment_methods": methods})
}

func (h *Handler) addPaymentMethod(c *gin.Context) {
	var method models.PaymentMethod
	if err := c.ShouldBindJSON(&method); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	methods, err := h.shop.AddPaymentMethod(c.Request.Context(), c.GetString("user_id"), &method)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to add payment method",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payment_methods": methods})
}

func (h *Handler) updatePaymentMethod(c *gin.Context) {
	var method models.PaymentMethod
	if err := c.ShouldBindJSON(&method); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	method.ID = c.Param("id")

	methods, err := h.shop.UpdatePaymentMethod(c.Request.Context(), c.GetString("user_id"), &method)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to update payment method",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment_methods": methods})
}

func (h *Handler) deletePaymentMethod(c *gin.Context) {
	methods, err := h.shop.DeletePaymentMethod(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to delete payment method",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment_methods": methods})
}

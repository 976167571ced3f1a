package controllers

import (
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mingyan/blogserver/cache"
	"github.com/mingyan/blogserver/middleware"
	"github.com/mingyan/blogserver/services"
	"github.com/mingyan/blogserver/utils"
)

const tokenDuration = 72 * time.Hour

// AuthController handles registration, login and account endpoints.
type AuthController struct {
	users     *services.UserService
	blacklist *cache.TokenBlacklist
}

// NewAuthController creates an AuthController.
func NewAuthController(users *services.UserService, blacklist *cache.TokenBlacklist) *AuthController {
	return &AuthController{users: users, blacklist: blacklist}
}

func userPayload(u *cache.UserSnapshot) gin.H {
	return gin.H{
		"id":         u.ID,
		"email":      u.Email,
		"nickname":   u.Nickname,
		"created_at": u.CreatedAt,
	}
}

// SendEmailCode mails a verification code for registration.
func (a *AuthController) SendEmailCode(ctx *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}
	email := strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid email address")
		return
	}

	code := cache.GenerateCode(6)
	if err := utils.SendVerificationCode(email, code, cache.CodeTTL); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to send verification code")
		return
	}
	// Save only after the mail went out so dead codes do not pile up.
	if err := a.users.SaveLoginCode(ctx.Request.Context(), email, code); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to store verification code")
		return
	}
	utils.Success(ctx, gin.H{"message": "verification code sent"})
}

// Register creates a local account after the emailed code checks out.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Nickname string `json:"nickname" binding:"required,min=2,max=30"`
		Password string `json:"password" binding:"required,min=6,max=64"`
		Code     string `json:"code" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	email := strings.TrimSpace(req.Email)
	nickname := strings.TrimSpace(req.Nickname)
	if _, err := mail.ParseAddress(email); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40002, "invalid email address")
		return
	}
	if nickname == "" {
		utils.Error(ctx, http.StatusBadRequest, 40003, "nickname cannot be empty")
		return
	}

	if !a.users.VerifyLoginCode(ctx.Request.Context(), email, strings.TrimSpace(req.Code)) {
		utils.Error(ctx, http.StatusBadRequest, 40004, "verification code invalid or expired")
		return
	}

	existing, err := a.users.LookupByEmailOrNickname(ctx.Request.Context(), email, nickname)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to check existing users")
		return
	}
	if existing != nil {
		utils.Error(ctx, http.StatusConflict, 40901, "email or nickname already registered")
		return
	}

	id, err := a.users.Create(ctx.Request.Context(), email, req.Password, nickname)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create user")
		return
	}

	token, err := utils.GenerateToken(id, email, nickname, tokenDuration)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{
		"token": token,
		"user":  gin.H{"id": id, "email": email, "nickname": nickname},
	})
}

// Login verifies credentials and issues a JWT. A bad email and a bad password
// are indistinguishable to the caller.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40005, "invalid request payload")
		return
	}

	user, err := a.users.Login(ctx.Request.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "login failed")
		return
	}
	if user == nil {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid email or password")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Email, user.Nickname, tokenDuration)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": userPayload(user)})
}

// Logout blacklists the presented token until it would have expired and
// drops the identity cache entries.
func (a *AuthController) Logout(ctx *gin.Context) {
	tokenVal, _ := ctx.Get(middleware.ContextTokenKey)
	token, _ := tokenVal.(string)
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	expiresAt := time.Now().Add(tokenDuration)
	if claims.RegisteredClaims.ExpiresAt != nil {
		expiresAt = claims.RegisteredClaims.ExpiresAt.Time
	}
	if err := a.blacklist.Revoke(ctx.Request.Context(), token, expiresAt); err != nil {
		utils.Sugar.Warnf("token revoke failed for user %d: %v", claims.UserID, err)
	}
	a.users.Logout(ctx.Request.Context(), claims.UserID, claims.Email)

	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated user's information.
func (a *AuthController) Me(ctx *gin.Context) {
	viewerID := middleware.ViewerID(ctx)
	if viewerID == nil {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	user, err := a.users.LookupByID(ctx.Request.Context(), *viewerID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50005, "failed to load user")
		return
	}
	if user == nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}

	utils.Success(ctx, userPayload(user))
}

// GetUser returns public user info by ID.
func (a *AuthController) GetUser(ctx *gin.Context) {
	id, err := strconv.ParseUint(strings.TrimSpace(ctx.Param("id")), 10, 32)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid user id")
		return
	}

	user, lookupErr := a.users.LookupByID(ctx.Request.Context(), uint(id))
	if lookupErr != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50006, "failed to load user")
		return
	}
	if user == nil {
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
		return
	}

	utils.Success(ctx, userPayload(user))
}

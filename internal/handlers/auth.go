package handlers

import (
	"errors"
	"net/http"

	"taxi_buffer/internal/auth"
	"taxi_buffer/internal/response"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// @Summary		Авторизация офицера
// @Description	Проверяет учётные данные офицера и выдаёт access токен
// @Tags			auth
// @Accept			json
// @Produce		json
// @Param			officer	body		LoginRequest			true	"Данные для авторизации"
// @Success		200		{object}	response.TokenResponse	"Успешная авторизация"
// @Failure		400		{object}	response.ErrorResponse	"Ошибка валидации данных (VALIDATION_ERROR)"
// @Failure		401		{object}	response.ErrorResponse	"Неверные учетные данные (INVALID_CREDENTIALS)"
// @Failure		500		{object}	response.ErrorResponse	"Ошибка сервера (TOKEN_GENERATION_ERROR)"
// @Router			/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	officer, err := auth.CheckOfficer(c.Request.Context(), h.DB, req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, response.ErrorResponse{
			Code:    "INVALID_CREDENTIALS",
			Message: "Неверное имя пользователя или пароль",
		})
		return
	}
	if err != nil {
		response.WriteError(c, err)
		return
	}

	accessToken, err := auth.GenerateToken(officer.ID, h.TokenTTL, h.JWTSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "TOKEN_GENERATION_ERROR",
			Message: "Ошибка при генерации access токена",
		})
		return
	}

	c.JSON(http.StatusOK, response.TokenResponse{AccessToken: accessToken})
}

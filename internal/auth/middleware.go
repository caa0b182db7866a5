package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"taxi_buffer/internal/models"
	"taxi_buffer/internal/response"
	"taxi_buffer/internal/sensors"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrInvalidCredentials = errors.New("неверное имя пользователя или пароль")

// GenerateToken выпускает access токен офицера.
func GenerateToken(officerID uint, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"officer_id": officerID,
		"exp":        now.Add(ttl).Unix(),
		"iat":        now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// AuthMiddleware проверяет валидность access токена офицера
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, response.ErrorResponse{
				Code:    "NO_AUTH_HEADER",
				Message: "Требуется авторизация",
			})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("неожиданный алгоритм подписи %v", token.Header["alg"])
			}
			return secret, nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, response.ErrorResponse{
				Code:    "INVALID_TOKEN",
				Message: "Неверный или просроченный токен",
			})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, response.ErrorResponse{
				Code:    "INVALID_TOKEN_CLAIMS",
				Message: "Невозможно прочитать claims токена",
			})
			c.Abort()
			return
		}

		officerID, ok := claims["officer_id"].(float64)
		if !ok {
			c.JSON(http.StatusUnauthorized, response.ErrorResponse{
				Code:    "INVALID_OFFICER_ID",
				Message: "Невозможно извлечь officer_id",
			})
			c.Abort()
			return
		}

		c.Set("officerID", uint(officerID))
		c.Next()
	}
}

// SensorAuthMiddleware проверяет ключ интеграции датчиков: Basic (label:key)
// либо заголовки Authorization: <key> и label: <label>.
func SensorAuthMiddleware(svc *sensors.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		label, key, ok := c.Request.BasicAuth()
		if !ok {
			if strings.HasPrefix(strings.ToLower(c.GetHeader("Authorization")), "basic ") {
				c.JSON(http.StatusBadRequest, response.ErrorResponse{
					Code:    "INVALID_BASIC_AUTH",
					Message: "Неверный формат Basic авторизации",
				})
				c.Abort()
				return
			}
			label, key = c.GetHeader("label"), c.GetHeader("Authorization")
		}
		if label == "" || key == "" {
			c.JSON(http.StatusUnauthorized, response.ErrorResponse{
				Code:    "NO_AUTH_HEADER",
				Message: "Не переданы учётные данные",
			})
			c.Abort()
			return
		}

		apiKey, err := svc.Authenticate(c.Request.Context(), label, key)
		if errors.Is(err, sensors.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, response.ErrorResponse{
				Code:    "INVALID_API_KEY",
				Message: "Неверный или отключённый ключ",
			})
			c.Abort()
			return
		}
		if err != nil {
			response.WriteError(c, err)
			c.Abort()
			return
		}

		c.Set("apiKeyLabel", apiKey.Label)
		c.Next()
	}
}

// CreateOfficer сохраняет учётную запись офицера с bcrypt-хэшем пароля.
func CreateOfficer(ctx context.Context, db *gorm.DB, username, password string) (*models.Officer, error) {
	if username == "" || len(password) < 6 {
		return nil, errors.New("имя обязательно, пароль не короче 6 символов")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	officer := models.Officer{Username: username, PasswordHash: string(hash)}
	if err := db.WithContext(ctx).Create(&officer).Error; err != nil {
		return nil, err
	}
	return &officer, nil
}

// CheckOfficer проверяет имя и пароль офицера.
func CheckOfficer(ctx context.Context, db *gorm.DB, username, password string) (*models.Officer, error) {
	var officer models.Officer
	if err := db.WithContext(ctx).Where("username = ?", username).First(&officer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(officer.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &officer, nil
}

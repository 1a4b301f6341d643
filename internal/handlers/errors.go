package handlers

import (
	"net/http"

	"taskReminder/internal/logger"
	"taskReminder/internal/service"

	"go.uber.org/zap"
)

const codeInternal = "INTERNAL_ERROR"
const codeBadRequest = "BAD_REQUEST"

// handleServiceError отвечает клиенту по типу ошибки.
// Внутренние ошибки логируются, но их текст наружу не уходит
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	if businessErr, ok := service.AsBusinessError(err); ok {
		statusCode := mapBusinessErrorToHTTP(businessErr.Code)

		logger.Warn("HTTP: Бизнес-ошибка",
			zap.String("operation", operation),
			zap.String("error_code", businessErr.Code),
			zap.Int("http_status", statusCode))

		responseWithJSON(w, statusCode,
			toPayload("error", businessErr.Code),
			toPayload("message", businessErr.Message),
			toPayload("details", businessErr.Details),
		)
		return
	}

	logger.Error("HTTP: Ошибка Service", err,
		zap.String("operation", operation),
		zap.String("client_ip", r.RemoteAddr))

	responseWithError(w, http.StatusInternalServerError, codeInternal, "Внутренняя ошибка сервера")
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

package http

import (
	"errors"
	"net/http"

	"github.com/dkeye/DrawQuiz/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound), errors.Is(err, domain.ErrMemberNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrNotHost):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrRoomFull):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidCapacity),
		errors.Is(err, domain.ErrCapacityBelowGuests),
		errors.Is(err, domain.ErrInvalidRoomName),
		errors.Is(err, domain.ErrDisplayNameEmpty),
		errors.Is(err, domain.ErrDisplayNameTooLong),
		errors.Is(err, domain.ErrInviteCodeExhausted):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("request failed")
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

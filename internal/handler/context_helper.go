package handler

import (
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lostfound-api/internal/middleware"
	"github.com/noah-isme/lostfound-api/internal/models"
	appErrors "github.com/noah-isme/lostfound-api/pkg/errors"
	"github.com/noah-isme/lostfound-api/pkg/response"
)

func actorFromContext(c *gin.Context) *models.Actor {
	return middleware.ActorFromContext(c)
}

// requireActor writes a 401 and returns nil when the route was reached
// without authentication.
func requireActor(c *gin.Context) *models.Actor {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil
	}
	return actor
}

func listMeta(c *gin.Context, n int) map[string]interface{} {
	middleware.SetCount(c, n)
	return middleware.ExtractMeta(c)
}

// bindError maps a body decoding failure to a validation error. Type
// mismatches name the offending field.
func bindError(err error, message string) *appErrors.Error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return appErrors.Validation(typeErr.Field, typeErr.Field+" must be a "+typeErr.Type.String())
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

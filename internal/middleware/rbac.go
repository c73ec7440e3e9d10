package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
	"github.com/noah-isme/obe-attainment-api/pkg/response"
)

// RequireCapability lets the request through only when the caller's role
// grants every listed capability.
func RequireCapability(caps ...models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		for _, capability := range caps {
			if !claims.Role.Can(capability) {
				response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "your role may not "+describeCapability(capability)))
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

// RequireRoles is a helper that accepts a list of roles.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

var capabilityDescriptions = map[models.Capability]string{
	models.CapViewCourses:           "view courses",
	models.CapEditCourses:           "edit courses",
	models.CapViewOutcomes:          "view outcomes",
	models.CapEditOutcomes:          "edit course outcomes",
	models.CapEditMappings:          "edit CO-PO mappings",
	models.CapUploadMarks:           "upload marks",
	models.CapViewAttainment:        "view attainment",
	models.CapViewProgramAttainment: "view program attainment",
	models.CapManageStudents:        "manage students",
	models.CapManageHierarchy:       "manage the institution hierarchy",
	models.CapChooseSection:         "choose a section",
	models.CapExportReports:         "export reports",
}

func describeCapability(c models.Capability) string {
	if d, ok := capabilityDescriptions[c]; ok {
		return d
	}
	return string(c)
}

package middleware

import (
	"encoding/json"
	"net/http"

	"fintech-ledger/internal/core/domain"
	"fintech-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
)

type auditRoute struct {
	action       domain.AuditAction
	resourceType string
}

// auditRoutes is keyed by method and gin route pattern.
var auditRoutes = map[string]auditRoute{
	"POST /api/v1/members/register":          {domain.AuditActionRegister, "member"},
	"POST /api/v1/members/login":             {domain.AuditActionLogin, "session"},
	"POST /api/v1/accounts":                  {domain.AuditActionOpenAccount, "account"},
	"DELETE /api/v1/accounts/:number":        {domain.AuditActionCloseAccount, "account"},
	"POST /api/v1/accounts/:number/deposit":  {domain.AuditActionDeposit, "account"},
	"POST /api/v1/accounts/:number/withdraw": {domain.AuditActionWithdraw, "account"},
	"POST /api/v1/transfers":                 {domain.AuditActionTransfer, "transaction"},
	"POST /api/v1/cards":                     {domain.AuditActionIssueCard, "card"},
	"POST /api/v1/cards/:number/charge":      {domain.AuditActionChargeCard, "card"},
	"POST /api/v1/cards/:number/payments":    {domain.AuditActionPayCard, "card"},
	"DELETE /api/v1/cards/:number":           {domain.AuditActionDeleteCard, "card"},
}

// AuditLog creates an audit middleware that logs successful write operations.
// Routes are matched on their registered pattern so path parameters do not
// defeat the lookup.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}

		action, resourceType := mapRouteToAction(c.Request.Method, c.FullPath())
		if action == "" {
			return
		}

		entry := &domain.AuditLog{
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   c.Param("number"),
			IPAddress:    c.ClientIP(),
		}
		if id, ok := MemberID(c); ok {
			entry.MemberID = &id
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": status,
		})
		entry.Details = string(details)

		auditSvc.Log(c.Request.Context(), entry)
	}
}

func mapRouteToAction(method, route string) (domain.AuditAction, string) {
	r, ok := auditRoutes[method+" "+route]
	if !ok {
		return "", ""
	}
	return r.action, r.resourceType
}

package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// pathID parses the :id path parameter, writing a 400 when it is not a uuid.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "INVALID_ID", "id", "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the body into dst, writing a 400 on malformed JSON.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "INVALID_BODY", "", "invalid request body: "+err.Error())
		return false
	}
	return true
}

// queryUUID reads an optional uuid query parameter.
func queryUUID(c *gin.Context, key string) (*uuid.UUID, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(c, "INVALID_VALUE", key, "invalid "+key)
		return nil, false
	}
	return &id, true
}

func queryBool(c *gin.Context, key string) (*bool, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		badRequest(c, "INVALID_VALUE", key, "invalid "+key)
		return nil, false
	}
	return &v, true
}

// queryTime reads an RFC 3339 timestamp or a YYYY-MM-DD date. A bare date
// is a calendar day in loc; with endOfDay it means the last instant of
// that day.
func queryTime(c *gin.Context, key string, endOfDay bool, loc *time.Location) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	t, dateOnly, err := parseTimeOrDate(raw, loc)
	if err != nil {
		badRequest(c, "INVALID_VALUE", key, "invalid "+key+", expected YYYY-MM-DD or RFC 3339")
		return nil, false
	}
	if dateOnly && endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, true
}

func parseTimeOrDate(raw string, loc *time.Location) (t time.Time, dateOnly bool, err error) {
	if t, err = time.ParseInLocation(dateLayout, raw, loc); err == nil {
		return t, true, nil
	}
	t, err = time.Parse(time.RFC3339, raw)
	return t, false, err
}

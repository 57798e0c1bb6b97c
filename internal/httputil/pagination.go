package httputil

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// ParsePagination safely parses and validates offset and limit query parameters.
// It uses default values of 0 for offset and 50 for limit.
// The limit cannot exceed 100.
func ParsePagination(c *gin.Context) (offset, limit int, err error) {
	offsetStr := c.DefaultQuery("offset", "0")
	offset, err = strconv.Atoi(offsetStr)
	if err != nil || offset < 0 {
		return 0, 0, fmt.Errorf("invalid offset parameter: must be a non-negative integer")
	}

	limitStr := c.DefaultQuery("limit", "50")
	limit, err = strconv.Atoi(limitStr)
	if err != nil || limit < 1 || limit > 100 {
		return 0, 0, fmt.Errorf("invalid limit parameter: must be between 1 and 100")
	}

	return offset, limit, nil
}

// ParseDateRange parses optional RFC 3339 start_date and end_date query
// parameters. A missing parameter yields a nil pointer.
func ParseDateRange(c *gin.Context) (startDate, endDate *time.Time, err error) {
	if raw := c.Query("start_date"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid start_date parameter: must be RFC 3339")
		}
		startDate = &parsed
	}

	if raw := c.Query("end_date"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid end_date parameter: must be RFC 3339")
		}
		endDate = &parsed
	}

	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return nil, nil, fmt.Errorf("invalid date range: end_date precedes start_date")
	}

	return startDate, endDate, nil
}

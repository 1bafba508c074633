package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/jmehdipour/parcel-relay/internal/logger"
	"github.com/jmehdipour/parcel-relay/internal/model"
	"github.com/jmehdipour/parcel-relay/internal/repository"
	"github.com/jmehdipour/parcel-relay/internal/validate"
	echo "github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TripSearcher runs the matching query.
type TripSearcher interface {
	SearchTrips(ctx context.Context, q model.TripQuery) ([]model.TripMatch, error)
}

func listEventsHandler(chRepo repository.CHEventsRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit := 50
		offset := 0
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}
		if v := c.QueryParam("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		var kind string
		if raw := strings.TrimSpace(c.QueryParam("kind")); raw != "" {
			if k := model.EventKind(raw); k.Valid() {
				kind = k.String()
			}
		}

		var userID int64
		if v := c.QueryParam("user_id"); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				userID = n
			}
		}

		rows, err := chRepo.List(c.Request().Context(), kind, userID, limit, offset)
		if err != nil {
			logger.L().Error("clickhouse list failed", zap.Error(err))

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(rows),
			"results": rows,
		})
	}
}

type tripResult struct {
	model.TripMatch
	Carrier string              `json:"carrier"`
	Rating  model.RatingSummary `json:"rating"`
}

func searchTripsHandler(trips TripSearcher) echo.HandlerFunc {
	return func(c echo.Context) error {
		date, ok := validate.Date(c.QueryParam("date"))
		if !ok {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
		}
		dest, ok := validate.Text(c.QueryParam("destination"))
		if !ok {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "destination required"})
		}

		q := model.TripQuery{Date: date, Origin: strings.TrimSpace(c.QueryParam("origin")), Destination: dest}
		matches, err := trips.SearchTrips(c.Request().Context(), q)
		if err != nil {
			logger.L().Error("trip search failed", zap.Error(err))

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		results := make([]tripResult, 0, len(matches))
		for _, m := range matches {
			results = append(results, tripResult{TripMatch: m, Carrier: m.Carrier(), Rating: m.Summary()})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"count":   len(results),
			"results": results,
		})
	}
}

func listTurnsHandler(msgs repository.MessagesRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || userID <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		}
		limit, _ := strconv.Atoi(c.QueryParam("limit"))

		turns, err := msgs.ListByUser(c.Request().Context(), userID, limit)
		if err != nil {
			logger.L().Error("list turns failed", zap.Error(err))

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"count":   len(turns),
			"results": turns,
		})
	}
}

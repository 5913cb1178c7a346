package httpapi

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cryptoPulseBot/internal/app"
	"cryptoPulseBot/internal/domain"
	"cryptoPulseBot/internal/ports"
)

const (
	defaultInterval = "1h"
	defaultLimit    = 100
	maxLimit        = 1000
)

var (
	symbolPattern = regexp.MustCompile(`^[A-Z0-9]{2,20}$`)

	validIntervals = map[string]bool{
		"1m": true, "3m": true, "5m": true, "15m": true, "30m": true,
		"1h": true, "2h": true, "4h": true, "6h": true, "8h": true, "12h": true,
		"1d": true, "3d": true, "1w": true, "1M": true,
	}
)

// ZoneProvider detects zones for a symbol.
type ZoneProvider interface {
	Zones(ctx context.Context, symbol, interval string, limit int) (*app.ZoneSnapshot, error)
}

// ZonesHandler serves detected support and resistance zones.
type ZonesHandler struct {
	zones  ZoneProvider
	logger ports.Logger
}

// NewZonesHandler creates a ZonesHandler.
func NewZonesHandler(zones ZoneProvider, logger ports.Logger) *ZonesHandler {
	return &ZonesHandler{zones: zones, logger: logger}
}

type zoneResponse struct {
	Price   float64 `json:"price"`
	Touches int     `json:"touches"`
}

type zonesResponse struct {
	Symbol            string         `json:"symbol"`
	Interval          string         `json:"interval"`
	Price             float64        `json:"price"`
	Candles           int            `json:"candles"`
	Support           []zoneResponse `json:"support"`
	Resistance        []zoneResponse `json:"resistance"`
	NearestSupport    *zoneResponse  `json:"nearest_support,omitempty"`
	NearestResistance *zoneResponse  `json:"nearest_resistance,omitempty"`
	GeneratedAt       time.Time      `json:"generated_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// GetZones handles GET /api/v1/zones/:symbol?interval=1h&limit=100
func (h *ZonesHandler) GetZones(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	if !symbolPattern.MatchString(symbol) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid symbol"})
		return
	}
	interval := c.DefaultQuery("interval", defaultInterval)
	if !validIntervals[interval] {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid interval"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 || limit > maxLimit {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be an integer between 1 and 1000"})
		return
	}

	ctx := c.Request.Context()
	snap, err := h.zones.Zones(ctx, symbol, interval, limit)
	if err != nil {
		fields := map[string]interface{}{"symbol": symbol, "interval": interval, "limit": limit}
		if errors.Is(err, ports.ErrInvalidRequest) {
			h.logger.Warn(ctx, "Zones request rejected upstream", map[string]interface{}{"symbol": symbol, "interval": interval, "error": err.Error()})
			c.JSON(http.StatusBadRequest, errorResponse{Error: "unknown symbol or interval"})
			return
		}
		h.logger.Error(ctx, err, "Zones request failed", fields)
		c.JSON(http.StatusBadGateway, errorResponse{Error: "market data unavailable"})
		return
	}

	resp := zonesResponse{
		Symbol:      snap.Symbol,
		Interval:    snap.Interval,
		Price:       snap.Price,
		Candles:     snap.Candles,
		Support:     make([]zoneResponse, 0),
		Resistance:  make([]zoneResponse, 0),
		GeneratedAt: snap.GeneratedAt,
	}
	for _, z := range snap.Zones {
		if z.Kind == domain.ZoneSupport {
			resp.Support = append(resp.Support, toZoneResponse(z))
		} else {
			resp.Resistance = append(resp.Resistance, toZoneResponse(z))
		}
	}
	if snap.Nearest.Support != nil {
		z := toZoneResponse(*snap.Nearest.Support)
		resp.NearestSupport = &z
	}
	if snap.Nearest.Resistance != nil {
		z := toZoneResponse(*snap.Nearest.Resistance)
		resp.NearestResistance = &z
	}
	c.JSON(http.StatusOK, resp)
}

func toZoneResponse(z domain.Zone) zoneResponse {
	return zoneResponse{Price: z.Price, Touches: z.Touches}
}

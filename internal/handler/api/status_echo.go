package api

import (
	"time"

	models "PumpScope/internal/domain/models"
	"PumpScope/internal/export"
	"PumpScope/internal/marketstore"
	"PumpScope/internal/repository"
	"PumpScope/internal/usecase"
	xhttp "PumpScope/pkg/http"
	xlogger "PumpScope/pkg/logger"

	"github.com/labstack/echo/v4"
)

// StatusEchoHandler serves the operational status API.
type StatusEchoHandler struct {
	logger    *xlogger.Logger
	store     *marketstore.SymbolStore
	collector *usecase.EventCollector
	dispatch  *usecase.Dispatcher
	recorder  *export.Recorder
	episodes  *repository.EpisodeRing
	startedAt time.Time
}

func NewStatusEchoHandler(
	logger *xlogger.Logger,
	store *marketstore.SymbolStore,
	collector *usecase.EventCollector,
	dispatch *usecase.Dispatcher,
	recorder *export.Recorder,
	episodes *repository.EpisodeRing,
) *StatusEchoHandler {
	return &StatusEchoHandler{
		logger:    logger,
		store:     store,
		collector: collector,
		dispatch:  dispatch,
		recorder:  recorder,
		episodes:  episodes,
		startedAt: time.Now().UTC(),
	}
}

func (h *StatusEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/status", h.Status)
	g.GET("/symbol", h.Symbol)
	g.GET("/episodes", h.Episodes)
}

type statusResponse struct {
	Connected        bool   `json:"connected"`
	UptimeSecs       int64  `json:"uptime_secs"`
	SymbolsMonitored int    `json:"symbols_monitored"`
	SymbolsWithData  int    `json:"symbols_with_data"`
	ActiveEpisodes   int    `json:"active_episodes"`
	ActiveRecordings int    `json:"active_recordings"`
	EpisodesRetained int    `json:"episodes_retained"`
	StartedAt        string `json:"started_at"`
}

func (h *StatusEchoHandler) Status(c echo.Context) error {
	resp := statusResponse{
		Connected:        h.collector.IsConnected(),
		UptimeSecs:       int64(time.Since(h.startedAt).Seconds()),
		SymbolsMonitored: h.store.Len(),
		SymbolsWithData:  h.store.CountWithPrices(),
		ActiveEpisodes:   h.dispatch.ActiveEpisodes(),
		EpisodesRetained: h.episodes.Len(),
		StartedAt:        h.startedAt.Format(time.RFC3339),
	}
	if h.recorder != nil {
		resp.ActiveRecordings = h.recorder.ActiveCount()
	}
	return xhttp.SuccessResponse(c, resp)
}

type symbolResponse struct {
	Symbol        string  `json:"symbol"`
	LastPrice     float64 `json:"last_price"`
	MarkPrice     float64 `json:"mark_price"`
	Ratio         float64 `json:"ratio"`
	HasPrices     bool    `json:"has_prices"`
	HasOrderbook  bool    `json:"has_orderbook"`
	HistoryLen    int     `json:"history_len"`
	CandlesLast   int     `json:"candles_last"`
	CandlesMark   int     `json:"candles_mark"`
	LastUpdateUTC string  `json:"last_update_utc"`
}

func (h *StatusEchoHandler) Symbol(c echo.Context) error {
	req := &models.SymbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	var resp symbolResponse
	found := h.store.WithState(req.Symbol, func(st *marketstore.SymbolState) {
		resp.Symbol = st.Symbol()
		last, okLast := st.LastPrice()
		mark, okMark := st.MarkPrice()
		resp.LastPrice = last
		resp.MarkPrice = mark
		resp.HasPrices = okLast && okMark
		if okLast && okMark && mark != 0 {
			resp.Ratio = last / mark
		}
		resp.HasOrderbook = st.Orderbook() != nil
		resp.HistoryLen = st.HistoryLen()
		resp.CandlesLast, resp.CandlesMark = st.Candles().CompletedCount()
		if !st.LastUpdate().IsZero() {
			resp.LastUpdateUTC = st.LastUpdate().UTC().Format(time.RFC3339)
		}
	})
	if !found {
		return xhttp.NotFoundResponse(c, "symbol not monitored")
	}
	return xhttp.SuccessResponse(c, resp)
}

func (h *StatusEchoHandler) Episodes(c echo.Context) error {
	req := &models.EpisodesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	eps := h.episodes.Recent(req.Strategy, req.N)
	return xhttp.SuccessResponse(c, eps)
}

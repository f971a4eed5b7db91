package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/iqbalbaharum/constant-product-pool/internal/service"
)

func CreateRoutes(svc *service.Service, trades TradeStore, ws http.Handler, logger *zap.Logger) *chi.Mux {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	var PoolHandler = NewPoolHandler(svc)
	var AccountHandler = NewAccountHandler(svc)
	var TradeHandler = NewTradeHandler(trades)
	var InstructionHandler = NewInstructionHandler()

	r.Route("/pool", func(r chi.Router) {
		r.Get("/", PoolHandler.List)
		r.Post("/", PoolHandler.Create)
		r.Route("/{authority}", func(r chi.Router) {
			r.Get("/", PoolHandler.Get)
			r.Get("/quote", PoolHandler.Quote)
			r.Post("/buy", PoolHandler.Buy)
			r.Post("/sell", PoolHandler.Sell)
		})
	})

	r.Route("/account", func(r chi.Router) {
		r.Post("/airdrop", AccountHandler.Airdrop)
		r.Post("/token", AccountHandler.OpenTokenAccount)
	})

	r.Post("/instruction/decode", InstructionHandler.Decode)

	r.Route("/trade", func(r chi.Router) {
		r.Get("/", TradeHandler.Get)
		r.Delete("/", TradeHandler.DeleteAll)
	})

	if ws != nil {
		r.Get("/ws", ws.ServeHTTP)
	}

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

package app

import (
	"net/http"

	"github.com/cradoe/coinledger/internal/handler"
	"github.com/cradoe/coinledger/internal/middleware"
)

func (app *Application) routes() http.Handler {
	mux := http.NewServeMux()

	middlewareRepo := middleware.New(app.errorHandler, app.Logger, app.DB.User(), &app.Config)

	healthHandler := handler.NewHealthCheckHandler(app.errorHandler, map[string]handler.Pinger{
		"database": app.DB,
		"redis":    app.Cache,
		"queue":    app.Queue,
	})

	authHandler := handler.NewAuthHandler(&handler.AuthHandler{
		Ledger:     app.Ledger,
		UserRepo:   app.DB.User(),
		Helper:     app.helper,
		Mailer:     app.Mailer,
		Config:     &app.Config,
		ErrHandler: app.errorHandler,
	})

	userHandler := handler.NewUserHandler(&handler.UserHandler{
		WalletRepo:      app.DB.Wallet(),
		TransactionRepo: app.DB.Transaction(),
		ErrHandler:      app.errorHandler,
	})

	walletHandler := handler.NewWalletHandler(&handler.WalletHandler{
		Ledger:     app.Ledger,
		ErrHandler: app.errorHandler,
	})

	tradeHandler := handler.NewTradeHandler(&handler.TradeHandler{
		Ledger:     app.Ledger,
		Queue:      app.Queue,
		ErrHandler: app.errorHandler,
	})

	priceHandler := handler.NewPriceHandler(&handler.PriceHandler{
		Oracle:     app.Oracle,
		Logger:     app.Logger,
		ErrHandler: app.errorHandler,
	})

	protected := func(h http.HandlerFunc) http.Handler {
		return middlewareRepo.RequireAuthenticatedUser(h)
	}

	mux.HandleFunc("GET /status", healthHandler.HandleHealthCheck)

	mux.HandleFunc("POST /auth/register", authHandler.HandleAuthRegister)
	mux.HandleFunc("POST /auth/login", authHandler.HandleAuthLogin)

	mux.HandleFunc("GET /prices/{ticker}", priceHandler.HandleGetPrice)
	mux.HandleFunc("GET /prices/{ticker}/stream", priceHandler.HandlePriceStream)

	mux.Handle("GET /user", protected(userHandler.HandleGetUser))

	mux.Handle("POST /wallet/deposit", protected(walletHandler.HandleDeposit))
	mux.Handle("POST /wallet/withdraw", protected(walletHandler.HandleWithdraw))
	mux.Handle("GET /wallet/positions", protected(walletHandler.HandlePositions))

	mux.Handle("POST /trade", protected(tradeHandler.HandleTrade))
	mux.Handle("POST /orders", protected(tradeHandler.HandleSubmitOrder))

	return middlewareRepo.LogAccess(middlewareRepo.RecoverPanic(middlewareRepo.Authenticate(mux)))
}

package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/cradoe/coinledger/internal/config"
	"github.com/cradoe/coinledger/internal/errHandler"
	"github.com/cradoe/coinledger/internal/helper"
	"github.com/cradoe/coinledger/internal/ledger"
	"github.com/cradoe/coinledger/internal/repository"
	"github.com/cradoe/coinledger/internal/request"
	"github.com/cradoe/coinledger/internal/response"
	"github.com/cradoe/coinledger/internal/smtp"
	"github.com/cradoe/coinledger/internal/validator"

	"github.com/cradoe/gopass"
	"github.com/pascaldekloe/jwt"
)

const authTokenTTL = 24 * time.Hour

type AuthHandler struct {
	Ledger     LedgerService
	UserRepo   repository.UserRepository
	Helper     helper.HelperInterface
	Mailer     smtp.MailerInterface
	Config     *config.Config
	ErrHandler *errHandler.ErrorRepository
}

func NewAuthHandler(handler *AuthHandler) *AuthHandler {
	return &AuthHandler{
		Ledger:     handler.Ledger,
		UserRepo:   handler.UserRepo,
		Helper:     handler.Helper,
		Mailer:     handler.Mailer,
		Config:     handler.Config,
		ErrHandler: handler.ErrHandler,
	}
}

type RegisteredUser struct {
	User   UserResponseData   `json:"user"`
	Wallet WalletResponseData `json:"wallet"`
}

// HandleAuthRegister signs a user up. The user row and its EUR wallet are
// written in one unit of work so neither exists without the other.
func (h *AuthHandler) HandleAuthRegister(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email     string              `json:"email"`
		Password  string              `json:"password"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Email), "Email is required")
	input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	// weak passwords are rejected before anything touches the database
	_, errs := gopass.Validate(input.Password)
	if errs != nil {
		h.ErrHandler.FailedValidation(w, r, errs)
		return
	}

	hashedPassword, err := gopass.Hash(input.Password)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	user, wallet, err := h.Ledger.OpenAccount(r.Context(), input.Email, hashedPassword)
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateEmail) {
			h.ErrHandler.FailedValidation(w, r, []string{"Email is already in use"})
			return
		}
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		emailData := h.Helper.NewEmailData()
		emailData["Email"] = user.Email
		emailData["Currency"] = wallet.Currency

		return h.Mailer.Send(user.Email, emailData, "welcome.tmpl")
	})

	data := RegisteredUser{
		User:   newUserResponseData(user),
		Wallet: newWalletResponseData(wallet),
	}

	err = response.JSONCreatedResponse(w, data, "Account created successfully")
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AuthHandler) HandleAuthLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email     string              `json:"email"`
		Password  string              `json:"password"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Email), "Email is required")
	input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")
	input.Validator.Check(validator.NotBlank(input.Password), "Password is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	user, found, err := h.UserRepo.GetByEmail(r.Context(), input.Email)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if found {
		passwordMatches, err := gopass.ComparePasswordAndHash(input.Password, user.HashedPassword)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}
		input.Validator.Check(passwordMatches, "Incorrect email/password")
	} else {
		input.Validator.AddError("Incorrect email/password")
	}

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	var claims jwt.Claims
	claims.Subject = strconv.FormatInt(user.ID, 10)

	now := time.Now()
	expiry := now.Add(authTokenTTL)
	claims.Issued = jwt.NewNumericTime(now)
	claims.NotBefore = jwt.NewNumericTime(now)
	claims.Expires = jwt.NewNumericTime(expiry)

	claims.Issuer = h.Config.BaseURL
	claims.Audiences = []string{h.Config.BaseURL}

	jwtBytes, err := claims.HMACSign(jwt.HS256, []byte(h.Config.Jwt.SecretKey))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := map[string]string{
		"auth_token":   string(jwtBytes),
		"token_expiry": expiry.Format(time.RFC3339),
	}

	err = response.JSONOkResponse(w, data, "Login successful", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

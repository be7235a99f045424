package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/config"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/repository"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/usecase"
	"github.com/Rareminds-eym/skillpassport-sub044/shared/validation"
)

// Prechecker answers the availability questions asked by multi-step signup forms.
type Prechecker interface {
	CheckEmail(ctx context.Context, email string) error
	CheckOrganizationCode(ctx context.Context, code string) error
}

type provisioningHTTPHandler struct {
	provisioningUsecase  usecase.ProvisioningUsecase
	passwordResetUsecase usecase.PasswordResetUsecase
	prechecker           Prechecker
	accounts             repository.AccountRepository
	validator            *validation.Validator
	logger               *zerolog.Logger
}

// Dependencies groups what the HTTP layer needs from the rest of the service.
type Dependencies struct {
	ProvisioningUsecase  usecase.ProvisioningUsecase
	PasswordResetUsecase usecase.PasswordResetUsecase
	Prechecker           Prechecker
	Accounts             repository.AccountRepository
	Validator            *validation.Validator
	// Authenticate guards the admin routes.
	Authenticate func(http.Handler) http.Handler
	HTTP         config.HTTPConfig
	Logger       *zerolog.Logger
}

// NewRouter builds the public HTTP surface of the provisioning service.
func NewRouter(deps Dependencies) http.Handler {
	h := &provisioningHTTPHandler{
		provisioningUsecase:  deps.ProvisioningUsecase,
		passwordResetUsecase: deps.PasswordResetUsecase,
		prechecker:           deps.Prechecker,
		accounts:             deps.Accounts,
		validator:            deps.Validator,
		logger:               deps.Logger,
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(accessLog(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(withMetrics)

	if deps.HTTP.RequestTimeout > 0 {
		r.Use(chimw.Timeout(deps.HTTP.RequestTimeout))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.HTTP.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if deps.HTTP.RateLimit > 0 {
			window := deps.HTTP.RateLimitWindow
			if window <= 0 {
				window = time.Minute
			}
			r.Use(httprate.Limit(
				deps.HTTP.RateLimit,
				window,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(h.rateLimited),
			))
		}

		r.Post("/signup/organization-admin", h.SignupOrganizationAdmin)
		r.Post("/signup/member", h.SignupMember)
		r.Post("/password-reset", h.PasswordReset)
		r.Get("/check-email", h.CheckEmail)
		r.Get("/check-org-code", h.CheckOrganizationCode)

		r.Group(func(r chi.Router) {
			r.Use(deps.Authenticate)
			r.Post("/admin/create-member", h.AdminCreateMember)
		})
	})

	return r
}

func (h *provisioningHTTPHandler) rateLimited(w http.ResponseWriter, _ *http.Request) {
	writeFailure(w, http.StatusTooManyRequests, "rate_limited", "too many requests, try again later", "")
}
